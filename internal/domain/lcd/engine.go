package lcd

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/calendar"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

// BuiltinRulesVersion is reported when no dictionary snapshot was available.
const BuiltinRulesVersion = "builtin"

// GapKind identifies a critical gap independently of its message.
type GapKind string

const (
	GapConservativeCareDuration GapKind = "conservative_care_duration"
	GapWeeklyAssessment         GapKind = "weekly_assessment"
	GapOffloading               GapKind = "offloading"
	GapCompression              GapKind = "compression"
	GapWoundReduction           GapKind = "wound_reduction"
)

// Result is the complete compliance determination for one episode.
type Result struct {
	EpisodeID            uuid.UUID    `json:"episode_id"`
	EvaluatedAt          time.Time    `json:"evaluated_at"`
	Status               Status       `json:"status"`
	TrafficLight         TrafficLight `json:"traffic_light"`
	Score                int          `json:"score"`
	ConservativeCareDays int          `json:"conservative_care_days"`
	DaysToDeadline       int          `json:"days_to_deadline"`

	WeeklyAssessment WeeklyAssessment `json:"weekly_assessment"`
	WoundReduction   WoundReduction   `json:"wound_reduction"`
	StandardOfCare   StandardOfCare   `json:"standard_of_care"`
	Classification   Classification   `json:"classification"`

	CriticalGaps    []string  `json:"critical_gaps"`
	GapKinds        []GapKind `json:"gap_kinds"`
	Recommendations []string  `json:"recommendations"`

	RulesVersion    string   `json:"rules_version"`
	MatchedLCDTerms []string `json:"matched_lcd_terms"`
}

// Engine evaluates episodes against the LCD policy. It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	provider rules.Provider
	policy   Policy
	logger   zerolog.Logger
}

type EngineOption func(*Engine)

func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// NewEngine returns an engine reading dictionaries from provider. A nil
// provider runs the built-in rules only.
func NewEngine(provider rules.Provider, logger zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{provider: provider, policy: DefaultPolicy, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// snapshot fetches the dictionary once per assessment.
func (e *Engine) snapshot(logger zerolog.Logger) *rules.Snapshot {
	if e.provider == nil {
		return nil
	}
	snap, err := e.provider.Current()
	if err != nil || snap == nil {
		logger.Warn().Err(err).Msg("rules dictionary unavailable, using built-in classification rules")
		return nil
	}
	return snap
}

// Assess evaluates the bundle as of the calendar date of asOf. The same
// bundle, asOf and dictionary always yield the same result.
func (e *Engine) Assess(b *woundcare.Bundle, asOf time.Time) *Result {
	ep := &b.Episode
	logger := e.logger.With().Str("episode_id", ep.ID.String()).Logger()
	snap := e.snapshot(logger)
	asOf = calendar.DateOnly(asOf)

	classification := Classify(ep, snap)
	logger.Debug().
		Str("category", classification.Category).
		Str("evidence", string(classification.EvidenceSource)).
		Str("rule", classification.Rule).
		Msg("wound classified")

	interventions := woundcare.Interventions(b.Encounters, logger)
	weekly := AssessWeekly(b.Encounters, ep.StartDate, asOf, b.DocumentedExceptions, e.policy, logger)
	reduction := AssessReduction(b.Encounters, ep.StartDate, asOf, e.policy, logger)
	care := AssessStandardOfCare(interventions, classification)

	r := &Result{
		EpisodeID:            ep.ID,
		EvaluatedAt:          asOf,
		ConservativeCareDays: calendar.DaysBetween(ep.StartDate, asOf),
		WeeklyAssessment:     weekly,
		WoundReduction:       reduction,
		StandardOfCare:       care,
		Classification:       classification,
		RulesVersion:         BuiltinRulesVersion,
		MatchedLCDTerms:      matchLCDTerms(snap.LCDTerms(), ep.WoundType, interventions),
	}
	if snap != nil {
		r.RulesVersion = snap.Version()
	}

	e.aggregate(r)
	return r
}

func (e *Engine) aggregate(r *Result) {
	p := e.policy
	gaps := e.criticalGaps(r)
	r.CriticalGaps = make([]string, 0, len(gaps))
	r.GapKinds = make([]GapKind, 0, len(gaps))
	for _, g := range gaps {
		r.CriticalGaps = append(r.CriticalGaps, g.message)
		r.GapKinds = append(r.GapKinds, g.kind)
	}

	r.Score = e.score(r)
	r.DaysToDeadline = p.ConservativeCareDays - r.ConservativeCareDays
	if r.DaysToDeadline < 0 {
		r.DaysToDeadline = 0
	}

	switch {
	case len(gaps) == 0 && r.WeeklyAssessment.Status == StatusCompliant:
		r.Status, r.TrafficLight = StatusCompliant, LightGreen
	case r.WeeklyAssessment.Status == StatusCompliantWithException:
		r.Status, r.TrafficLight = StatusCompliantWithException, LightYellow
	case len(gaps) == 0:
		r.Status, r.TrafficLight = StatusAtRisk, LightYellow
	default:
		r.Status, r.TrafficLight = StatusNonCompliant, LightRed
	}

	r.Recommendations = e.recommendations(r)
}

type gap struct {
	kind    GapKind
	message string
}

func (e *Engine) criticalGaps(r *Result) []gap {
	p := e.policy
	var gaps []gap
	if r.ConservativeCareDays < p.ConservativeCareDays {
		gaps = append(gaps, gap{GapConservativeCareDuration, fmt.Sprintf(
			"Conservative care has lasted %d days; %d days are required before advanced therapy",
			r.ConservativeCareDays, p.ConservativeCareDays)})
	}
	if r.WeeklyAssessment.Status == StatusNonCompliant {
		gaps = append(gaps, gap{GapWeeklyAssessment, fmt.Sprintf(
			"Weekly wound assessments missing for %d of %d weeks without a valid exception",
			len(r.WeeklyAssessment.UnexcusedWeeks), r.WeeklyAssessment.Required)})
	}
	if soc := r.StandardOfCare; soc.Offloading != nil && !*soc.Offloading {
		gaps = append(gaps, gap{GapOffloading,
			"Offloading is required for a diabetic foot ulcer but no offloading intervention is documented"})
	}
	if soc := r.StandardOfCare; soc.Compression != nil && !*soc.Compression {
		gaps = append(gaps, gap{GapCompression,
			"Compression therapy is required for a venous leg ulcer but none is documented"})
	}
	if wr := r.WoundReduction; !wr.IsIn28DayWindow && !wr.MeetsThreshold {
		gaps = append(gaps, gap{GapWoundReduction, fmt.Sprintf(
			"Wound area reduced %.2f%% after %d days; at least %.0f%% is required within %d days",
			wr.PercentReduction, wr.DaysSinceBaseline, p.ReductionThreshold, p.ResponseWindowDays)})
	}
	return gaps
}

// score sums four equally weighted components: conservative-care duration,
// weekly coverage, standard-of-care elements and wound reduction progress.
func (e *Engine) score(r *Result) int {
	p := e.policy
	w := p.ComponentWeight

	days := math.Min(float64(r.ConservativeCareDays), float64(p.ConservativeCareDays))
	durationPts := w * days / float64(p.ConservativeCareDays)

	weeklyPts := w * r.WeeklyAssessment.CoveragePercent / 100

	carePts := w
	if soc := r.StandardOfCare; soc.ElementsRequired > 0 {
		carePts = w * float64(soc.ElementsMet) / float64(soc.ElementsRequired)
	}

	var reductionPts float64
	wr := r.WoundReduction
	switch {
	case wr.IsIn28DayWindow:
		expected := p.ReductionThreshold * float64(wr.DaysSinceBaseline) / float64(p.ResponseWindowDays)
		if expected <= 0 || wr.PercentReduction >= expected {
			reductionPts = w
		} else {
			reductionPts = w * wr.PercentReduction / expected
		}
	case wr.MeetsThreshold:
		reductionPts = w
	default:
		reductionPts = w * wr.PercentReduction / p.ReductionThreshold
	}

	total := math.Round(durationPts + weeklyPts + carePts + reductionPts)
	return int(math.Max(0, math.Min(100, total)))
}

func (e *Engine) recommendations(r *Result) []string {
	p := e.policy
	recs := make([]string, 0)

	if r.DaysToDeadline > 0 {
		recs = append(recs, fmt.Sprintf(
			"Continue documented conservative care for %d more days before requesting advanced therapy", r.DaysToDeadline))
	}
	if weeks := r.WeeklyAssessment.UnexcusedWeeks; len(weeks) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Document wound measurements or a valid exception for week(s) %s", strings.Join(weeks, ", ")))
	}
	if soc := r.StandardOfCare; soc.Offloading != nil && !*soc.Offloading {
		recs = append(recs, "Document an offloading intervention such as a total contact cast or offloading boot")
	}
	if soc := r.StandardOfCare; soc.Compression != nil && !*soc.Compression {
		recs = append(recs, "Document compression therapy such as a multilayer compression wrap")
	}
	if !r.StandardOfCare.InfectionControl {
		recs = append(recs, "Document infection control: infection management, debridement or antimicrobial care")
	}
	if !r.StandardOfCare.PatientEducation {
		recs = append(recs, "Document patient education or nutrition counseling")
	}

	wr := r.WoundReduction
	switch {
	case wr.MeasuredEncounters == 0:
		recs = append(recs, "Record baseline wound measurements (length, width or area)")
	case !wr.IsIn28DayWindow && !wr.MeetsThreshold:
		recs = append(recs, fmt.Sprintf(
			"Wound reduction is below %.0f%%; reassess the treatment plan and document the clinical rationale", p.ReductionThreshold))
	}
	return recs
}

// matchLCDTerms returns the dictionary's LCD terms mentioned in the wound
// type or any intervention name, sorted and de-duplicated.
func matchLCDTerms(terms []string, woundType string, interventions []woundcare.Intervention) []string {
	texts := []string{strings.ToLower(woundType)}
	for _, iv := range interventions {
		texts = append(texts, strings.ToLower(iv.Name))
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, term := range terms {
		needle := strings.ToLower(term)
		if seen[needle] {
			continue
		}
		for _, t := range texts {
			if strings.Contains(t, needle) {
				seen[needle] = true
				out = append(out, term)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
