package lcd

import (
	"regexp"
	"strings"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

// EvidenceSource names the input a classification was derived from.
type EvidenceSource string

const (
	EvidenceICD10Primary   EvidenceSource = "icd10-primary"
	EvidenceICD10Secondary EvidenceSource = "icd10-secondary"
	EvidenceWoundTypeField EvidenceSource = "wound-type-field"
	EvidenceUnclassified   EvidenceSource = "unclassified"
)

// Classification is derived per assessment and never stored.
type Classification struct {
	IsDFU               bool           `json:"is_dfu"`
	IsVLU               bool           `json:"is_vlu"`
	IsPressureUlcer     bool           `json:"is_pressure_ulcer"`
	IsArterialUlcer     bool           `json:"is_arterial_ulcer"`
	Category            string         `json:"category"`
	RequiresOffloading  bool           `json:"requires_offloading"`
	RequiresCompression bool           `json:"requires_compression"`
	ICD10Codes          []string       `json:"icd10_codes"`
	EvidenceSource      EvidenceSource `json:"evidence_source"`
	Rule                string         `json:"rule"`
}

type classifierInput struct {
	code      string
	woundType string
	location  string
	snap      *rules.Snapshot
}

// classificationRule yields the categories it recognises, the first being the
// label. An empty result means the rule does not apply.
type classificationRule struct {
	name     string
	evidence EvidenceSource
	match    func(in classifierInput) []string
}

type prefixCategory struct {
	prefix   string
	category string
}

// Checked in order; the first prefix that matches wins.
var icd10PrefixTable = []prefixCategory{
	{"E08.621", rules.CategoryDiabeticFoot},
	{"E09.621", rules.CategoryDiabeticFoot},
	{"E10.621", rules.CategoryDiabeticFoot},
	{"E11.621", rules.CategoryDiabeticFoot},
	{"E13.621", rules.CategoryDiabeticFoot},
	{"I83.0", rules.CategoryVenousLeg},
	{"I83.2", rules.CategoryVenousLeg},
	{"I87.0", rules.CategoryVenousLeg},
	{"I87.3", rules.CategoryVenousLeg},
	{"L89", rules.CategoryPressure},
	{"I70.23", rules.CategoryArterial},
	{"I70.24", rules.CategoryArterial},
	{"I70.25", rules.CategoryArterial},
	{"T81.3", rules.CategoryChronic},
	{"T81.89", rules.CategoryChronic},
}

// Non-pressure chronic ulcers; the category depends on where the wound is.
var chronicUlcerPrefixes = []string{"L97", "L98.4"}

var (
	footKeywords = regexp.MustCompile(`\b(foot|feet|toes?|heels?|plantar|metatarsal)\b`)
	legKeywords  = regexp.MustCompile(`\b(legs?|ankles?|calf|calves|malleol\w*|shin)\b`)
	fullThick    = regexp.MustCompile(`full[\s-]thickness`)
)

type patternGroup struct {
	category string
	pattern  *regexp.Regexp
}

var woundTypePatterns = []patternGroup{
	{rules.CategoryDiabeticFoot, regexp.MustCompile(`diabet|\bdfu\b|neuropathic|charcot`)},
	{rules.CategoryVenousLeg, regexp.MustCompile(`venous|\bvlu\b|stasis|varicose`)},
	{rules.CategoryPressure, regexp.MustCompile(`pressure\s+(ulcer|injury|sore|wound)|decubitus|bed\s?sore|\bstage\s+(1|2|3|4|i|ii|iii|iv)\b`)},
	{rules.CategoryArterial, regexp.MustCompile(`arterial|ischemic|ischaemic|\bpad\b|peripheral arter`)},
}

var classificationRules = []classificationRule{
	{name: "icd10-prefix", evidence: EvidenceICD10Primary, match: matchPrefixTable},
	{name: "icd10-chronic-ulcer-location", evidence: EvidenceICD10Secondary, match: matchChronicUlcer},
	{name: "dictionary-code", evidence: EvidenceICD10Primary, match: matchDictionaryCode},
	{name: "dictionary-prefix", evidence: EvidenceICD10Primary, match: matchDictionaryPrefix},
	{name: "full-thickness-location", evidence: EvidenceWoundTypeField, match: matchFullThickness},
	{name: "wound-type-patterns", evidence: EvidenceWoundTypeField, match: matchWoundTypePatterns},
	{name: "wound-type-fallback", evidence: EvidenceWoundTypeField, match: matchAnyWoundType},
}

// Classify derives the wound classification of ep. snap may be nil, in which
// case only the built-in rules run.
func Classify(ep *woundcare.Episode, snap *rules.Snapshot) Classification {
	in := classifierInput{
		code:      rules.NormalizeICD10(ep.DiagnosisCode()),
		woundType: strings.ToLower(strings.TrimSpace(ep.WoundType)),
		location:  strings.ToLower(strings.TrimSpace(ep.WoundLocation)),
		snap:      snap,
	}

	c := Classification{
		Category:       rules.CategoryOther,
		ICD10Codes:     []string{},
		EvidenceSource: EvidenceUnclassified,
	}
	if in.code != "" {
		c.ICD10Codes = append(c.ICD10Codes, in.code)
	}

	for _, r := range classificationRules {
		categories := r.match(in)
		if len(categories) == 0 {
			continue
		}
		c.Category = categories[0]
		c.EvidenceSource = r.evidence
		c.Rule = r.name
		for _, cat := range categories {
			switch cat {
			case rules.CategoryDiabeticFoot:
				c.IsDFU = true
			case rules.CategoryVenousLeg:
				c.IsVLU = true
			case rules.CategoryPressure:
				c.IsPressureUlcer = true
			case rules.CategoryArterial:
				c.IsArterialUlcer = true
			}
		}
		break
	}

	c.RequiresOffloading = c.IsDFU
	c.RequiresCompression = c.IsVLU
	return c
}

func matchPrefixTable(in classifierInput) []string {
	if in.code == "" {
		return nil
	}
	for _, p := range icd10PrefixTable {
		if strings.HasPrefix(in.code, p.prefix) {
			return []string{p.category}
		}
	}
	return nil
}

func matchChronicUlcer(in classifierInput) []string {
	if in.code == "" {
		return nil
	}
	for _, p := range chronicUlcerPrefixes {
		if strings.HasPrefix(in.code, p) {
			return []string{categoryForLocation(in.location, rules.CategoryChronic)}
		}
	}
	return nil
}

func categoryForLocation(location, fallback string) string {
	switch {
	case footKeywords.MatchString(location):
		return rules.CategoryDiabeticFoot
	case legKeywords.MatchString(location):
		return rules.CategoryVenousLeg
	default:
		return fallback
	}
}

func matchDictionaryCode(in classifierInput) []string {
	if cat, ok := in.snap.CategoryForCode(in.code); ok && cat != rules.CategoryOther {
		return []string{cat}
	}
	return nil
}

func matchDictionaryPrefix(in classifierInput) []string {
	if cat, ok := in.snap.CategoryForPrefix(in.code); ok && cat != rules.CategoryOther {
		return []string{cat}
	}
	return nil
}

func matchFullThickness(in classifierInput) []string {
	if !fullThick.MatchString(in.woundType) {
		return nil
	}
	if cat := categoryForLocation(in.location+" "+in.woundType, ""); cat != "" {
		return []string{cat}
	}
	return nil
}

// matchWoundTypePatterns tests every group so mixed aetiologies set all of
// their flags; the first group in order supplies the label.
func matchWoundTypePatterns(in classifierInput) []string {
	if in.woundType == "" {
		return nil
	}
	var out []string
	for _, g := range woundTypePatterns {
		if g.pattern.MatchString(in.woundType) || containsAny(in.woundType, in.snap.Synonyms(g.category)) {
			out = append(out, g.category)
		}
	}
	return out
}

func matchAnyWoundType(in classifierInput) []string {
	if in.woundType == "" {
		return nil
	}
	return []string{rules.CategoryChronic}
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
