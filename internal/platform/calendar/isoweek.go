// Package calendar provides ISO 8601 week labelling used to bucket clinical
// documentation into calendar weeks.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Day is the length of one calendar day.
const Day = 24 * time.Hour

// DateOnly returns the calendar date of t (its own Y-M-D) at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekIdentifier returns the ISO week of t formatted as "YYYY-Www". The week
// belongs to the year containing its Thursday, so early January dates can
// land in the previous year's week 52/53 and late December dates in week 1.
//
// If the ISO computation yields an implausible value the label degrades to
// the coarse "year-W(ceil(yday/7))" form instead of failing.
func WeekIdentifier(t time.Time) string {
	d := DateOnly(t)
	year, week := d.ISOWeek()
	if week < 1 || week > 53 || year < d.Year()-1 || year > d.Year()+1 {
		return approximateWeek(d)
	}
	return formatWeek(year, week)
}

func approximateWeek(d time.Time) string {
	return formatWeek(d.Year(), (d.YearDay()+6)/7)
}

func formatWeek(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// StartOfWeek returns the Monday of the ISO week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ExpectedWeeks walks from the Monday of the week containing start up to end
// in seven-day steps and returns every week identifier seen, de-duplicated
// and in ascending order. An end before that Monday yields no weeks.
func ExpectedWeeks(start, end time.Time) []string {
	last := DateOnly(end)
	seen := make(map[string]struct{})
	var weeks []string
	for d := StartOfWeek(start); !d.After(last); d = d.AddDate(0, 0, 7) {
		id := WeekIdentifier(d)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		weeks = append(weeks, id)
	}
	sort.Strings(weeks)
	return weeks
}

// DaysBetween returns ceil((to - from) / 1 day) over calendar dates. Negative
// spans are clamped to zero.
func DaysBetween(from, to time.Time) int {
	diff := DateOnly(to).Sub(DateOnly(from))
	if diff <= 0 {
		return 0
	}
	return int((diff + Day - 1) / Day)
}
