package calendar

import (
	"math"
	"testing"

	"github.com/lox/niceenough/internal/models"
	"github.com/lox/niceenough/internal/rating"
)

func TestRatioTier(t *testing.T) {
	tests := []struct {
		name  string
		nice  int
		rated int
		want  Tier
	}{
		{"zero denominator is nodata, not a fault", 0, 0, TierNoData},
		{"exactly 0.7 is best", 7, 10, TierBest},
		{"just below 0.7", 6, 10, TierSecond},
		{"exactly 0.5 is second", 5, 10, TierSecond},
		{"exactly 0.3 is third", 3, 10, TierThird},
		{"below 0.3 is worst", 2, 10, TierWorst},
		{"all nice", 10, 10, TierBest},
		{"none nice", 0, 10, TierWorst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatioTier(tt.nice, tt.rated); got != tt.want {
				t.Errorf("RatioTier(%d, %d) = %v, want %v", tt.nice, tt.rated, got, tt.want)
			}
		})
	}
}

func day(date string, r rating.Rating, maxTempC *float64) RatedDay {
	return RatedDay{
		DailyObservation: models.DailyObservation{Date: date, MaxTempC: maxTempC},
		Rating:           r,
	}
}

func TestMonthSummary(t *testing.T) {
	bucket := MonthBucket{
		Label: "March 2025",
		Days: []RatedDay{
			day("2025-03-01", rating.Good, fp(20)), // 68F
			day("2025-03-02", rating.Good, fp(25)), // 77F
			day("2025-03-03", rating.Okay, fp(10)), // 50F
			day("2025-03-04", rating.Bad, nil),
			day("2025-03-05", rating.Unrated, nil),
		},
	}

	stats := MonthSummary("2025-03", bucket)

	if stats.NiceDays != 2 {
		t.Errorf("NiceDays = %d, want 2 (okay days are not nice)", stats.NiceDays)
	}
	if stats.RatedDays != 4 {
		t.Errorf("RatedDays = %d, want 4 (unrated excluded)", stats.RatedDays)
	}
	if stats.GoodDays != 2 || stats.OkayDays != 1 || stats.BadDays != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", stats.GoodDays, stats.OkayDays, stats.BadDays)
	}
	if stats.Tier != TierSecond { // 2/4 = 0.5
		t.Errorf("Tier = %v, want second", stats.Tier)
	}

	if stats.AvgHighTempF == nil {
		t.Fatal("AvgHighTempF = nil, want value")
	}
	want := (68.0 + 77.0 + 50.0) / 3
	if math.Abs(*stats.AvgHighTempF-want) > 1e-9 {
		t.Errorf("AvgHighTempF = %v, want %v", *stats.AvgHighTempF, want)
	}
}

func TestMonthSummary_NoTemps(t *testing.T) {
	bucket := MonthBucket{
		Label: "March 2025",
		Days:  []RatedDay{day("2025-03-01", rating.Unrated, nil)},
	}

	stats := MonthSummary("2025-03", bucket)
	if stats.AvgHighTempF != nil {
		t.Errorf("AvgHighTempF = %v, want nil", *stats.AvgHighTempF)
	}
	if stats.Tier != TierNoData {
		t.Errorf("Tier = %v, want nodata", stats.Tier)
	}
}

func TestSummarize(t *testing.T) {
	buckets := map[string]MonthBucket{
		"2024-12": {Label: "December 2024", Days: []RatedDay{
			day("2024-12-01", rating.Good, fp(15)),
			day("2024-12-02", rating.Bad, fp(2)),
		}},
		"2025-01": {Label: "January 2025", Days: []RatedDay{
			day("2025-01-01", rating.Good, fp(14)),
		}},
		"2025-02": {Label: "February 2025", Days: []RatedDay{
			day("2025-02-01", rating.Okay, fp(11)),
			day("2025-02-02", rating.Good, fp(20)),
		}},
	}

	years := Summarize(buckets)
	if len(years) != 2 {
		t.Fatalf("len(years) = %d, want 2", len(years))
	}

	if years[0].Year != "2024" || years[1].Year != "2025" {
		t.Fatalf("years = %s, %s; want 2024, 2025", years[0].Year, years[1].Year)
	}

	if years[0].NiceDays != 1 || years[0].RatedDays != 2 {
		t.Errorf("2024 = %d nice / %d rated, want 1/2", years[0].NiceDays, years[0].RatedDays)
	}
	if years[1].NiceDays != 2 || years[1].RatedDays != 3 {
		t.Errorf("2025 = %d nice / %d rated, want 2/3", years[1].NiceDays, years[1].RatedDays)
	}

	// Year nice days must equal the sum over its months.
	sum := 0
	for _, m := range years[1].Months {
		sum += m.NiceDays
	}
	if sum != years[1].NiceDays {
		t.Errorf("month sum = %d, year total = %d", sum, years[1].NiceDays)
	}

	if years[1].Months[0].Key != "2025-01" || years[1].Months[1].Key != "2025-02" {
		t.Errorf("months out of order: %s, %s", years[1].Months[0].Key, years[1].Months[1].Key)
	}
}
