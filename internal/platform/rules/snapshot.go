// Package rules holds the externally maintained terminology dictionaries
// consulted during wound classification: ICD-10 code and prefix mappings,
// wound-type synonym groups and LCD terminology. Dictionaries are exposed as
// immutable snapshots so an assessment never sees a half-applied reload.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SupportedSchemaVersion is the only dictionary schema this build understands.
const SupportedSchemaVersion = 1

// Wound categories recognised in dictionary files.
const (
	CategoryDiabeticFoot = "diabetic_foot_ulcer"
	CategoryVenousLeg    = "venous_leg_ulcer"
	CategoryPressure     = "pressure_ulcer"
	CategoryArterial     = "arterial_ulcer"
	CategoryChronic      = "chronic_wound"
	CategoryOther        = "other"
)

var knownCategories = map[string]bool{
	CategoryDiabeticFoot: true,
	CategoryVenousLeg:    true,
	CategoryPressure:     true,
	CategoryArterial:     true,
	CategoryChronic:      true,
	CategoryOther:        true,
}

// IsKnownCategory reports whether c is a recognised wound category.
func IsKnownCategory(c string) bool {
	return knownCategories[c]
}

// CodeEntry maps one exact ICD-10 code to a wound category.
type CodeEntry struct {
	Code     string `mapstructure:"code" json:"code"`
	Category string `mapstructure:"category" json:"category"`
}

// PrefixEntry maps an ICD-10 prefix to a wound category.
type PrefixEntry struct {
	Prefix   string `mapstructure:"prefix" json:"prefix"`
	Category string `mapstructure:"category" json:"category"`
}

// SynonymGroup lists free-text terms that identify a wound category.
type SynonymGroup struct {
	Category string   `mapstructure:"category" json:"category"`
	Terms    []string `mapstructure:"terms" json:"terms"`
}

// Dictionary is the on-disk shape of a rules file.
type Dictionary struct {
	SchemaVersion     int            `mapstructure:"schema_version" json:"schema_version"`
	Version           string         `mapstructure:"version" json:"version"`
	ICD10Codes        []CodeEntry    `mapstructure:"icd10_codes" json:"icd10_codes"`
	ICD10Prefixes     []PrefixEntry  `mapstructure:"icd10_prefixes" json:"icd10_prefixes"`
	WoundTypeSynonyms []SynonymGroup `mapstructure:"wound_type_synonyms" json:"wound_type_synonyms"`
	LCDTerminology    []string       `mapstructure:"lcd_terminology" json:"lcd_terminology"`
}

// Validate checks the schema version and every category reference.
func (d *Dictionary) Validate() error {
	if d.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d (want %d)", d.SchemaVersion, SupportedSchemaVersion)
	}
	if strings.TrimSpace(d.Version) == "" {
		return fmt.Errorf("version is required")
	}
	for i, e := range d.ICD10Codes {
		if strings.TrimSpace(e.Code) == "" {
			return fmt.Errorf("icd10_codes[%d]: code is required", i)
		}
		if !IsKnownCategory(e.Category) {
			return fmt.Errorf("icd10_codes[%d]: unknown category %q", i, e.Category)
		}
	}
	for i, e := range d.ICD10Prefixes {
		if strings.TrimSpace(e.Prefix) == "" {
			return fmt.Errorf("icd10_prefixes[%d]: prefix is required", i)
		}
		if !IsKnownCategory(e.Category) {
			return fmt.Errorf("icd10_prefixes[%d]: unknown category %q", i, e.Category)
		}
	}
	for i, g := range d.WoundTypeSynonyms {
		if !IsKnownCategory(g.Category) {
			return fmt.Errorf("wound_type_synonyms[%d]: unknown category %q", i, g.Category)
		}
	}
	return nil
}

// Snapshot is a read-only view of one dictionary load. All lookups are safe
// on a nil *Snapshot and report no match, which is how degraded mode looks
// to callers.
type Snapshot struct {
	version       string
	schemaVersion int
	loadedAt      time.Time
	codes         map[string]string
	prefixes      []PrefixEntry
	synonyms      map[string][]string
	terms         []string
}

// NewSnapshot validates d and copies it into an immutable snapshot.
func NewSnapshot(d Dictionary, loadedAt time.Time) (*Snapshot, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s := &Snapshot{
		version:       d.Version,
		schemaVersion: d.SchemaVersion,
		loadedAt:      loadedAt,
		codes:         make(map[string]string, len(d.ICD10Codes)),
		synonyms:      make(map[string][]string),
	}
	for _, e := range d.ICD10Codes {
		s.codes[NormalizeICD10(e.Code)] = e.Category
	}
	for _, e := range d.ICD10Prefixes {
		s.prefixes = append(s.prefixes, PrefixEntry{Prefix: NormalizeICD10(e.Prefix), Category: e.Category})
	}
	// longest prefix first; ties broken lexically so lookups are deterministic
	sort.SliceStable(s.prefixes, func(i, j int) bool {
		if len(s.prefixes[i].Prefix) != len(s.prefixes[j].Prefix) {
			return len(s.prefixes[i].Prefix) > len(s.prefixes[j].Prefix)
		}
		return s.prefixes[i].Prefix < s.prefixes[j].Prefix
	})
	for _, g := range d.WoundTypeSynonyms {
		for _, term := range g.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" {
				s.synonyms[g.Category] = append(s.synonyms[g.Category], term)
			}
		}
	}
	for _, term := range d.LCDTerminology {
		term = strings.TrimSpace(term)
		if term != "" {
			s.terms = append(s.terms, term)
		}
	}
	return s, nil
}

// Version returns the dictionary's declared version, or "" for nil.
func (s *Snapshot) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// SchemaVersion returns the dictionary schema version.
func (s *Snapshot) SchemaVersion() int {
	if s == nil {
		return 0
	}
	return s.schemaVersion
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// CategoryForCode looks up an exact (normalised) ICD-10 code.
func (s *Snapshot) CategoryForCode(code string) (string, bool) {
	if s == nil {
		return "", false
	}
	c, ok := s.codes[NormalizeICD10(code)]
	return c, ok
}

// CategoryForPrefix returns the category of the longest configured prefix
// that code starts with.
func (s *Snapshot) CategoryForPrefix(code string) (string, bool) {
	if s == nil {
		return "", false
	}
	code = NormalizeICD10(code)
	for _, p := range s.prefixes {
		if strings.HasPrefix(code, p.Prefix) {
			return p.Category, true
		}
	}
	return "", false
}

// Synonyms returns a copy of the lower-cased synonym terms for category.
func (s *Snapshot) Synonyms(category string) []string {
	if s == nil || len(s.synonyms[category]) == 0 {
		return nil
	}
	return append([]string(nil), s.synonyms[category]...)
}

// LCDTerms returns a copy of the LCD terminology list.
func (s *Snapshot) LCDTerms() []string {
	if s == nil || len(s.terms) == 0 {
		return nil
	}
	return append([]string(nil), s.terms...)
}

// Sizes reports table sizes, used by the CLI's rules check.
func (s *Snapshot) Sizes() (codes, prefixes, synonymGroups, terms int) {
	if s == nil {
		return 0, 0, 0, 0
	}
	return len(s.codes), len(s.prefixes), len(s.synonyms), len(s.terms)
}

// NormalizeICD10 trims and upper-cases code and inserts the dot after the
// category when it was omitted ("e11621" -> "E11.621").
func NormalizeICD10(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) > 3 && !strings.Contains(code, ".") {
		code = code[:3] + "." + code[3:]
	}
	return code
}
