package lcd

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/calendar"
)

// WeeklyAssessment reports weekly measurement documentation coverage.
type WeeklyAssessment struct {
	Required        int     `json:"required"`
	Documented      int     `json:"documented"`
	Missing         int     `json:"missing"`
	CoveragePercent float64 `json:"coverage_percent"`

	RequiredWeeks   []string `json:"required_weeks"`
	DocumentedWeeks []string `json:"documented_weeks"`
	MissingWeeks    []string `json:"missing_weeks"`
	// UnexcusedWeeks are the missing weeks no accepted exception covers.
	UnexcusedWeeks []string `json:"unexcused_weeks"`

	Exceptions []woundcare.DocumentedException `json:"exceptions"`

	Status       Status       `json:"status"`
	TrafficLight TrafficLight `json:"traffic_light"`
}

// AssessWeekly determines which ISO weeks between start and asOf needed a
// wound measurement, which had one, and which of the gaps are excused by an
// accepted documented exception.
func AssessWeekly(encounters []woundcare.Encounter, start, asOf time.Time, exceptions []woundcare.DocumentedException, policy Policy, logger zerolog.Logger) WeeklyAssessment {
	required := calendar.ExpectedWeeks(start, asOf)
	expected := make(map[string]bool, len(required))
	for _, w := range required {
		expected[w] = true
	}

	documentedSet := make(map[string]bool)
	for i := range encounters {
		enc := &encounters[i]
		details := woundcare.ParseWoundDetails(enc.WoundDetails, logger.With().Str("encounter_id", enc.ID.String()).Logger())
		if !details.HasMeasurementData() {
			continue
		}
		if w := calendar.WeekIdentifier(enc.Date); expected[w] {
			documentedSet[w] = true
		}
	}

	var documented, missing []string
	for _, w := range required {
		if documentedSet[w] {
			documented = append(documented, w)
		} else {
			missing = append(missing, w)
		}
	}
	missingSet := make(map[string]bool, len(missing))
	for _, w := range missing {
		missingSet[w] = true
	}

	accepted := make([]woundcare.DocumentedException, 0)
	excused := make(map[string]bool)
	for _, ex := range exceptions {
		week := strings.ToUpper(strings.TrimSpace(ex.WeekIdentifier))
		if !ex.Honored() || !missingSet[week] || excused[week] {
			continue
		}
		excused[week] = true
		accepted = append(accepted, ex)
	}

	var unexcused []string
	for _, w := range missing {
		if !excused[w] {
			unexcused = append(unexcused, w)
		}
	}

	wa := WeeklyAssessment{
		Required:        len(required),
		Documented:      len(documented),
		Missing:         len(missing),
		CoveragePercent: coverage(len(documented), len(accepted), len(required)),
		RequiredWeeks:   sortedWeeks(required),
		DocumentedWeeks: sortedWeeks(documented),
		MissingWeeks:    sortedWeeks(missing),
		UnexcusedWeeks:  sortedWeeks(unexcused),
		Exceptions:      accepted,
	}

	switch {
	case len(unexcused) == 0 && len(accepted) == 0:
		wa.Status, wa.TrafficLight = StatusCompliant, LightGreen
	case len(unexcused) == 0:
		wa.Status, wa.TrafficLight = StatusCompliantWithException, LightYellow
	case wa.CoveragePercent >= policy.AtRiskCoverage:
		wa.Status, wa.TrafficLight = StatusAtRisk, LightYellow
	default:
		wa.Status, wa.TrafficLight = StatusNonCompliant, LightRed
	}
	return wa
}

func coverage(documented, excused, required int) float64 {
	if required == 0 {
		return 100
	}
	pct := float64(documented+excused) / float64(required) * 100
	return round2(math.Min(pct, 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedWeeks(s []string) []string {
	if s == nil {
		return []string{}
	}
	sort.Strings(s)
	return s
}
