package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArchiveAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceenough_archive_api_calls_total",
			Help: "Total Open-Meteo archive API calls",
		},
		[]string{"status"},
	)

	ArchiveAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "niceenough_archive_api_latency_seconds",
			Help:    "Archive API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeocodeAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceenough_geocode_api_calls_total",
			Help: "Total Radar autocomplete API calls",
		},
		[]string{"status"},
	)

	DaysClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceenough_days_classified_total",
			Help: "Total days classified, by resulting rating",
		},
		[]string{"rating"},
	)

	CalendarCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceenough_calendar_cache_total",
			Help: "Calendar cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
