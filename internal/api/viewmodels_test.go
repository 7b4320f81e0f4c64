package api

import (
	"strings"
	"testing"
	"time"

	"github.com/lox/niceenough/internal/calendar"
	"github.com/lox/niceenough/internal/models"
	"github.com/lox/niceenough/internal/rating"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func ratedDay(date string, r rating.Rating) calendar.RatedDay {
	return calendar.RatedDay{
		DailyObservation: models.DailyObservation{Date: date},
		Rating:           r,
	}
}

func TestBuildMonthGrid(t *testing.T) {
	// June 2024 starts on a Saturday: six pad cells, then 30 days.
	bucket := calendar.MonthBucket{
		Label: "June 2024",
		Days: []calendar.RatedDay{
			ratedDay("2024-06-01", rating.Good),
			ratedDay("2024-06-02", rating.Bad),
		},
	}

	weeks := buildMonthGrid("2024-06", bucket, "2024-06-02")
	if len(weeks) != 6 {
		t.Fatalf("weeks = %d, want 6", len(weeks))
	}

	first := weeks[0]
	if len(first) != 7 {
		t.Fatalf("first week has %d cells", len(first))
	}
	for i := 0; i < 6; i++ {
		if !first[i].Pad {
			t.Errorf("cell %d should be padding", i)
		}
	}
	if first[6].Pad || first[6].Day != 1 {
		t.Errorf("cell 6 = %+v, want day 1", first[6])
	}
	if first[6].Rating != rating.Good {
		t.Errorf("day 1 rating = %q", first[6].Rating)
	}

	// Day 3 is past today's cutoff with no entry: future, plain date tooltip.
	day3 := weeks[1][1]
	if day3.Day != 3 || !day3.NoData {
		t.Fatalf("day 3 cell = %+v", day3)
	}
	if day3.Tooltip != "2024-06-03" {
		t.Errorf("future tooltip = %q", day3.Tooltip)
	}
}

func TestBuildMonthGrid_MissingDay(t *testing.T) {
	bucket := calendar.MonthBucket{
		Label: "June 2024",
		Days:  []calendar.RatedDay{ratedDay("2024-06-02", rating.Okay)},
	}

	weeks := buildMonthGrid("2024-06", bucket, "2024-06-30")
	day1 := weeks[0][6]
	if !day1.NoData {
		t.Fatalf("day 1 cell = %+v, want no data", day1)
	}
	if day1.Tooltip != "2024-06-01: no data" {
		t.Errorf("missing-day tooltip = %q", day1.Tooltip)
	}
}

func TestBuildMonthGrid_BadKey(t *testing.T) {
	if weeks := buildMonthGrid("garbage", calendar.MonthBucket{}, "2024-06-01"); weeks != nil {
		t.Errorf("weeks = %v, want nil", weeks)
	}
}

func TestDayTooltip(t *testing.T) {
	day := calendar.RatedDay{
		DailyObservation: models.DailyObservation{
			Date:            "2024-06-01",
			MaxTempC:        fp(25.0), // 77F
			MinTempC:        fp(15.0), // 59F
			ApparentTempC:   fp(24.0), // 75.2F
			PrecipitationMm: fp(12.7), // 0.50"
			WeatherCode:     ip(61),
		},
		Rating: rating.Okay,
	}

	tip := dayTooltip(day, "2024-06-01")
	for _, want := range []string{
		"2024-06-01: okay",
		"Max temp: 77°F",
		"Min temp: 59°F",
		"Avg apparent temp: 75°F",
		"Precipitation: 0.50\"",
		"Slight rain",
	} {
		if !strings.Contains(tip, want) {
			t.Errorf("tooltip %q missing %q", tip, want)
		}
	}
	if strings.Contains(tip, "Snowfall") {
		t.Error("tooltip should omit absent snowfall")
	}
}

func TestBuildCalendarPage_NewestFirst(t *testing.T) {
	buckets := calendar.GroupByMonth([]calendar.RatedDay{
		ratedDay("2024-05-01", rating.Good),
		ratedDay("2024-06-01", rating.Good),
	})

	page := buildCalendarPage("Chicago, IL", buckets, mustDate(t, "2024-06-15"))
	if len(page.Months) != 2 {
		t.Fatalf("months = %d", len(page.Months))
	}
	if page.Months[0].Key != "2024-06" || page.Months[1].Key != "2024-05" {
		t.Errorf("month order = %s, %s, want newest first", page.Months[0].Key, page.Months[1].Key)
	}
	if len(page.Years) != 1 || page.Years[0].NiceDays != 2 {
		t.Errorf("years = %+v", page.Years)
	}
}
