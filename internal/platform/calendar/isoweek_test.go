package calendar

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday of week 1", date(2024, 1, 1), "2024-W01"},
		{"53-week year, last monday", date(2020, 12, 28), "2020-W53"},
		{"january friday in prior year's week 53", date(2021, 1, 1), "2020-W53"},
		{"december 30 rolls into next year", date(2024, 12, 30), "2025-W01"},
		{"december 30 2019", date(2019, 12, 30), "2020-W01"},
		{"sunday january 2", date(2022, 1, 2), "2021-W52"},
		{"thursday-start year has week 53", date(2026, 12, 31), "2026-W53"},
		{"mid year", date(2024, 6, 15), "2024-W24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekIdentifier(tt.in); got != tt.want {
				t.Errorf("WeekIdentifier(%s) = %q, want %q", tt.in.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestWeekIdentifier_Idempotent(t *testing.T) {
	d := date(2023, 1, 1)
	for i := 0; i < 800; i++ {
		a := WeekIdentifier(d)
		b := WeekIdentifier(d)
		if a != b {
			t.Fatalf("unstable label for %s: %q vs %q", d.Format("2006-01-02"), a, b)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekIdentifier_IgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	late := time.Date(2021, 1, 3, 23, 30, 0, 0, loc)
	if got := WeekIdentifier(late); got != "2020-W53" {
		t.Errorf("expected calendar date to drive the label, got %q", got)
	}
}

func TestApproximateWeek(t *testing.T) {
	if got := approximateWeek(date(2024, 1, 7)); got != "2024-W01" {
		t.Errorf("day 7 should be W01, got %q", got)
	}
	if got := approximateWeek(date(2024, 1, 8)); got != "2024-W02" {
		t.Errorf("day 8 should be W02, got %q", got)
	}
}

func TestStartOfWeek(t *testing.T) {
	if got := StartOfWeek(date(2024, 1, 7)); !got.Equal(date(2024, 1, 1)) {
		t.Errorf("expected Monday 2024-01-01, got %s", got)
	}
	if got := StartOfWeek(date(2024, 1, 8)); !got.Equal(date(2024, 1, 8)) {
		t.Errorf("a Monday is its own week start, got %s", got)
	}
}

func TestExpectedWeeks(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       []string
	}{
		{
			name:  "five weeks",
			start: date(2024, 1, 1),
			end:   date(2024, 2, 1),
			want:  []string{"2024-W01", "2024-W02", "2024-W03", "2024-W04", "2024-W05"},
		},
		{
			name:  "single day",
			start: date(2024, 1, 3),
			end:   date(2024, 1, 3),
			want:  []string{"2024-W01"},
		},
		{
			name:  "across a 53-week year boundary",
			start: date(2020, 12, 30),
			end:   date(2021, 1, 11),
			want:  []string{"2020-W53", "2021-W01", "2021-W02"},
		},
		{
			name:  "end before start week",
			start: date(2024, 1, 10),
			end:   date(2024, 1, 1),
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedWeeks(tt.start, tt.end)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpectedWeeks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(date(2024, 1, 1), date(2024, 2, 1)); got != 31 {
		t.Errorf("expected 31, got %d", got)
	}
	if got := DaysBetween(date(2024, 2, 1), date(2024, 1, 1)); got != 0 {
		t.Errorf("negative spans clamp to 0, got %d", got)
	}
	if got := DaysBetween(date(2024, 1, 1), time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("same calendar day is 0 days, got %d", got)
	}
}
