package lcd

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/calendar"
)

// WoundReduction compares the first and latest measured wound area.
type WoundReduction struct {
	BaselineArea       float64    `json:"baseline_area"`
	CurrentArea        float64    `json:"current_area"`
	PercentReduction   float64    `json:"percent_reduction"`
	MeetsThreshold     bool       `json:"meets_threshold"`
	DaysSinceBaseline  int        `json:"days_since_baseline"`
	IsIn28DayWindow    bool       `json:"is_in_28_day_window"`
	MeasuredEncounters int        `json:"measured_encounters"`
	BaselineDate       *time.Time `json:"baseline_date,omitempty"`
	CurrentDate        *time.Time `json:"current_date,omitempty"`
}

type measuredArea struct {
	date time.Time
	id   string
	area float64
}

// AssessReduction computes the percentage reduction in wound area between the
// earliest and latest encounters with a positive area. With no such
// encounter every figure is zero and the window is considered still open.
func AssessReduction(encounters []woundcare.Encounter, start, asOf time.Time, policy Policy, logger zerolog.Logger) WoundReduction {
	var measured []measuredArea
	for i := range encounters {
		enc := &encounters[i]
		details := woundcare.ParseWoundDetails(enc.WoundDetails, logger.With().Str("encounter_id", enc.ID.String()).Logger())
		if a := details.Area(); a > 0 {
			measured = append(measured, measuredArea{date: calendar.DateOnly(enc.Date), id: enc.ID.String(), area: a})
		}
	}

	if len(measured) == 0 {
		return WoundReduction{IsIn28DayWindow: true}
	}

	sort.SliceStable(measured, func(i, j int) bool {
		if !measured[i].date.Equal(measured[j].date) {
			return measured[i].date.Before(measured[j].date)
		}
		return measured[i].id < measured[j].id
	})

	first, last := measured[0], measured[len(measured)-1]
	r := WoundReduction{
		BaselineArea:       first.area,
		CurrentArea:        last.area,
		PercentReduction:   percentReduction(first.area, last.area),
		DaysSinceBaseline:  calendar.DaysBetween(start, asOf),
		MeasuredEncounters: len(measured),
		BaselineDate:       &first.date,
		CurrentDate:        &last.date,
	}
	r.MeetsThreshold = r.PercentReduction >= policy.ReductionThreshold
	r.IsIn28DayWindow = r.DaysSinceBaseline <= policy.ResponseWindowDays
	return r
}

func percentReduction(baseline, current float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return round2(math.Max(0, (baseline-current)/baseline*100))
}
