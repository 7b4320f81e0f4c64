package models

import "time"

// DailyObservation is one day of archive weather data. Optional fields are nil
// when the archive has no instrument reading for that day; nil is never
// collapsed to zero.
type DailyObservation struct {
	Date            string   `json:"date"` // YYYY-MM-DD
	MaxTempC        *float64 `json:"max_temp_c,omitempty"`
	MinTempC        *float64 `json:"min_temp_c,omitempty"`
	ApparentTempC   *float64 `json:"apparent_temp_mean_c,omitempty"`
	PrecipitationMm *float64 `json:"precipitation_mm,omitempty"`
	SnowfallMm      *float64 `json:"snowfall_mm,omitempty"`
	WeatherCode     *int     `json:"weather_code,omitempty"`
}

// ResolvedLocation is the best geocoder match for a free-text query.
type ResolvedLocation struct {
	ID               string  `json:"id"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
}

// StoredLocation is the persisted last-selected location.
type StoredLocation struct {
	ID               string
	FormattedAddress string
	Latitude         float64
	Longitude        float64
	City             string
	State            string
	SavedAt          time.Time
}

// Valid reports whether the stored row is usable. Rows that fail this check
// are treated as corrupt and discarded on load.
func (l StoredLocation) Valid() bool {
	return l.ID != "" && l.FormattedAddress != "" &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}
