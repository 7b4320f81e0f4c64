package api

import (
	"embed"
	"html/template"
	"math"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates creates and parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"tierColor": TierColor,
		"roundF": func(f *float64) int {
			if f == nil {
				return 0
			}
			return int(math.Round(*f))
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
