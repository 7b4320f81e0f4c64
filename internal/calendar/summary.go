package calendar

import (
	"sort"
	"strings"

	"github.com/lox/niceenough/internal/rating"
)

// Tier is the colour band for a month's nice-day ratio.
type Tier string

const (
	TierBest   Tier = "best"   // >= 70% nice days
	TierSecond Tier = "second" // >= 50%
	TierThird  Tier = "third"  // >= 30%
	TierWorst  Tier = "worst"
	TierNoData Tier = "nodata"
)

// RatioTier bands a month by its share of nice days. A zero denominator is a
// valid no-data state, never a division.
func RatioTier(niceDays, ratedDays int) Tier {
	if ratedDays == 0 {
		return TierNoData
	}
	ratio := float64(niceDays) / float64(ratedDays)
	switch {
	case ratio >= 0.7:
		return TierBest
	case ratio >= 0.5:
		return TierSecond
	case ratio >= 0.3:
		return TierThird
	default:
		return TierWorst
	}
}

// MonthStats is the per-month rollup consumed by the summary views.
type MonthStats struct {
	Key          string   `json:"key"`   // YYYY-MM
	Label        string   `json:"label"` // "January 2025"
	NiceDays     int      `json:"nice_days"`
	RatedDays    int      `json:"rated_days"`
	GoodDays     int      `json:"good_days"`
	OkayDays     int      `json:"okay_days"`
	BadDays      int      `json:"bad_days"`
	AvgHighTempF *float64 `json:"avg_high_temp_f,omitempty"`
	Tier         Tier     `json:"tier"`
}

// YearSummary rolls months up to a calendar year.
type YearSummary struct {
	Year      string       `json:"year"`
	NiceDays  int          `json:"nice_days"`
	RatedDays int          `json:"rated_days"`
	Months    []MonthStats `json:"months"`
}

// MonthSummary derives the rollup for one bucket. Nice days count only good
// ratings; okay days are rated but deliberately not nice. The average high is
// the mean of each present max temperature converted to Fahrenheit
// independently, nil when the month has no readings.
func MonthSummary(key string, bucket MonthBucket) MonthStats {
	stats := MonthStats{Key: key, Label: bucket.Label}

	var tempSum float64
	var tempCount int
	for _, day := range bucket.Days {
		switch day.Rating {
		case rating.Good:
			stats.GoodDays++
		case rating.Okay:
			stats.OkayDays++
		case rating.Bad:
			stats.BadDays++
		}
		if day.MaxTempC != nil {
			tempSum += rating.CToF(*day.MaxTempC)
			tempCount++
		}
	}

	stats.NiceDays = stats.GoodDays
	stats.RatedDays = stats.GoodDays + stats.OkayDays + stats.BadDays
	stats.Tier = RatioTier(stats.NiceDays, stats.RatedDays)
	if tempCount > 0 {
		avg := tempSum / float64(tempCount)
		stats.AvgHighTempF = &avg
	}
	return stats
}

// Summarize derives per-year summaries from the month buckets, oldest year
// first with months in chronological order. Pure re-derivation: no state is
// carried between calls.
func Summarize(buckets map[string]MonthBucket) []YearSummary {
	byYear := make(map[string][]MonthStats)
	for _, key := range SortedMonthKeys(buckets, false) {
		year := strings.SplitN(key, "-", 2)[0]
		byYear[year] = append(byYear[year], MonthSummary(key, buckets[key]))
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)

	summaries := make([]YearSummary, 0, len(years))
	for _, y := range years {
		summary := YearSummary{Year: y, Months: byYear[y]}
		for _, m := range summary.Months {
			summary.NiceDays += m.NiceDays
			summary.RatedDays += m.RatedDays
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
