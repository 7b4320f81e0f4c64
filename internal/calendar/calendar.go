package calendar

import (
	"sort"
	"time"

	"github.com/lox/niceenough/internal/models"
	"github.com/lox/niceenough/internal/rating"
)

const dateFormat = "2006-01-02"

// historyStart is the fixed first day of the viewable history. Earlier
// revisions used rolling 12- and 24-month lookbacks; the fixed start is
// canonical now.
var historyStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// CurrentRange returns the archive window to request: the fixed history start
// through yesterday. Today is excluded because its data is still incomplete.
// The caller passes its local wall-clock time; the product is about perceived
// local daily weather, so no UTC normalization happens here.
func CurrentRange(today time.Time) (start, end time.Time) {
	end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return historyStart, end
}

// FormatDate renders a date in the YYYY-MM-DD wire format.
func FormatDate(t time.Time) string {
	return t.Format(dateFormat)
}

// RatedDay is a daily observation plus its classification.
type RatedDay struct {
	models.DailyObservation
	Rating rating.Rating `json:"rating"`
}

// ClassifyDays rates every observation. The mapping is total: each input day
// produces exactly one rated day, in input order.
func ClassifyDays(days []models.DailyObservation) []RatedDay {
	rated := make([]RatedDay, 0, len(days))
	for _, d := range days {
		rated = append(rated, RatedDay{
			DailyObservation: d,
			Rating:           rating.Classify(d.MaxTempC, d.ApparentTempC, d.WeatherCode),
		})
	}
	return rated
}

// MonthBucket holds the rated days of one calendar month.
type MonthBucket struct {
	Label string     `json:"label"` // e.g. "January 2025"
	Days  []RatedDay `json:"entries"`
}

// GroupByMonth buckets rated days by YYYY-MM key, preserving input order
// within each bucket. Days with unparseable dates are skipped; duplicate
// dates are kept as-is. No missing days are synthesized.
func GroupByMonth(days []RatedDay) map[string]MonthBucket {
	buckets := make(map[string]MonthBucket)
	for _, d := range days {
		date, err := time.Parse(dateFormat, d.Date)
		if err != nil {
			continue
		}
		key := date.Format("2006-01")
		bucket, ok := buckets[key]
		if !ok {
			bucket = MonthBucket{Label: date.Format("January 2006")}
		}
		bucket.Days = append(bucket.Days, d)
		buckets[key] = bucket
	}
	return buckets
}

// SortedMonthKeys returns bucket keys in display order. The calendar view
// shows newest months first; charts run oldest to newest.
func SortedMonthKeys(buckets map[string]MonthBucket, newestFirst bool) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if newestFirst {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return keys
}
