package api

import (
	"fmt"
	"math"
	"time"

	"github.com/lox/niceenough/internal/calendar"
	"github.com/lox/niceenough/internal/rating"
)

// CalendarPage is the full data set for the calendar view.
type CalendarPage struct {
	Title        string
	LocationName string
	Months       []MonthView
	Years        []calendar.YearSummary
}

// MonthView is one month's calendar grid plus its summary counts.
type MonthView struct {
	Key      string
	Label    string
	Good     int
	Okay     int
	Bad      int
	NiceDays int
	Tier     calendar.Tier
	Weeks    [][]DayCell
}

// DayCell is a single square in the grid. Pad cells fill the leading weekday
// offset; NoData covers both future dates and dates absent from the series,
// which render alike but are distinct from an unrated observation.
type DayCell struct {
	Day     int
	Pad     bool
	NoData  bool
	Rating  rating.Rating
	Tooltip string
}

// tierColors matches the summary chart bands in the original product.
var tierColors = map[calendar.Tier]string{
	calendar.TierBest:   "#22c55e",
	calendar.TierSecond: "#eab308",
	calendar.TierThird:  "#f97316",
	calendar.TierWorst:  "#ef4444",
	calendar.TierNoData: "#e2e8f0",
}

// TierColor exposes the band colour to templates.
func TierColor(t calendar.Tier) string {
	return tierColors[t]
}

// buildCalendarPage lays months out newest-first with weekday-padded grids.
// today decides which cells count as future.
func buildCalendarPage(locationName string, buckets map[string]calendar.MonthBucket, today time.Time) CalendarPage {
	page := CalendarPage{
		Title:        "Was The Weather Nice Enough To Spend Time Outside?",
		LocationName: locationName,
		Years:        calendar.Summarize(buckets),
	}

	todayStr := today.Format("2006-01-02")
	for _, key := range calendar.SortedMonthKeys(buckets, true) {
		bucket := buckets[key]
		stats := calendar.MonthSummary(key, bucket)

		mv := MonthView{
			Key:      key,
			Label:    bucket.Label,
			Good:     stats.GoodDays,
			Okay:     stats.OkayDays,
			Bad:      stats.BadDays,
			NiceDays: stats.NiceDays,
			Tier:     stats.Tier,
			Weeks:    buildMonthGrid(key, bucket, todayStr),
		}
		page.Months = append(page.Months, mv)
	}
	return page
}

// buildMonthGrid returns Sunday-first weeks for a month. Duplicate dates keep
// the last entry for display; the underlying bucket is untouched.
func buildMonthGrid(key string, bucket calendar.MonthBucket, todayStr string) [][]DayCell {
	first, err := time.Parse("2006-01", key)
	if err != nil {
		return nil
	}
	daysInMonth := first.AddDate(0, 1, -1).Day()
	offset := int(first.Weekday())

	byDate := make(map[string]calendar.RatedDay, len(bucket.Days))
	for _, d := range bucket.Days {
		byDate[d.Date] = d
	}

	var weeks [][]DayCell
	week := make([]DayCell, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, DayCell{Pad: true})
	}

	for day := 1; day <= daysInMonth; day++ {
		date := fmt.Sprintf("%s-%02d", key, day)
		cell := DayCell{Day: day}

		if entry, ok := byDate[date]; ok {
			cell.Rating = entry.Rating
			cell.Tooltip = dayTooltip(entry, date)
		} else {
			cell.NoData = true
			if date > todayStr {
				cell.Tooltip = date
			} else {
				cell.Tooltip = date + ": no data"
			}
		}

		week = append(week, cell)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]DayCell, 0, 7)
		}
	}
	if len(week) > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// dayTooltip renders the hover text: rating, temperatures in Fahrenheit,
// precipitation and snowfall in inches, and the weather condition.
func dayTooltip(entry calendar.RatedDay, date string) string {
	text := fmt.Sprintf("%s: %s", date, entry.Rating)

	if entry.MaxTempC != nil {
		text += fmt.Sprintf(" | Max temp: %d°F", int(math.Round(rating.CToF(*entry.MaxTempC))))
	}
	if entry.MinTempC != nil {
		text += fmt.Sprintf(" | Min temp: %d°F", int(math.Round(rating.CToF(*entry.MinTempC))))
	}
	if entry.ApparentTempC != nil {
		text += fmt.Sprintf(" | Avg apparent temp: %d°F", int(math.Round(rating.CToF(*entry.ApparentTempC))))
	}
	if entry.PrecipitationMm != nil && *entry.PrecipitationMm > 0 {
		text += fmt.Sprintf(" | Precipitation: %.2f\"", *entry.PrecipitationMm/25.4)
	}
	if entry.SnowfallMm != nil && *entry.SnowfallMm > 0 {
		text += fmt.Sprintf(" | Snowfall: %.2f\"", *entry.SnowfallMm/25.4)
	}
	if entry.WeatherCode != nil {
		text += " | Condition: " + rating.CodeDescription(*entry.WeatherCode)
	}
	return text
}
