package woundcare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// Measurement is one set of wound dimensions in centimetres.
type Measurement struct {
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
	Area   *float64 `json:"area,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Date   string   `json:"date,omitempty"`
}

// HasData reports whether any dimension is recorded.
func (m *Measurement) HasData() bool {
	return m != nil && (m.Length != nil || m.Width != nil || m.Depth != nil || m.Area != nil)
}

// ComputedArea returns the explicit area when positive, otherwise
// length*width when both are positive, otherwise 0.
func (m *Measurement) ComputedArea() float64 {
	if m == nil {
		return 0
	}
	if m.Area != nil && *m.Area > 0 {
		return *m.Area
	}
	if m.Length != nil && m.Width != nil && *m.Length > 0 && *m.Width > 0 {
		return *m.Length * *m.Width
	}
	return 0
}

// WoundDetails is the nested wound_details payload of an encounter.
type WoundDetails struct {
	Location           string        `json:"location,omitempty"`
	Measurements       *Measurement  `json:"measurements,omitempty"`
	CurrentMeasurement *Measurement  `json:"current_measurement,omitempty"`
	MeasurementHistory []Measurement `json:"measurement_history,omitempty"`
}

// HasMeasurementData reports whether the encounter documents the wound's
// size, either as a point-in-time or a historical measurement.
func (w *WoundDetails) HasMeasurementData() bool {
	if w == nil {
		return false
	}
	if w.CurrentMeasurement.HasData() || w.Measurements.HasData() {
		return true
	}
	for i := range w.MeasurementHistory {
		if w.MeasurementHistory[i].HasData() {
			return true
		}
	}
	return false
}

// Area returns the encounter's wound area. The current measurement wins,
// then the plain measurements block, then the latest history entry.
func (w *WoundDetails) Area() float64 {
	if w == nil {
		return 0
	}
	if a := w.CurrentMeasurement.ComputedArea(); a > 0 {
		return a
	}
	if a := w.Measurements.ComputedArea(); a > 0 {
		return a
	}
	for i := len(w.MeasurementHistory) - 1; i >= 0; i-- {
		if a := w.MeasurementHistory[i].ComputedArea(); a > 0 {
			return a
		}
	}
	return 0
}

// InterventionCompliance is the optional Medicare sub-record of an intervention.
type InterventionCompliance struct {
	MeetsLCD      *bool  `json:"meets_lcd,omitempty"`
	LCDReference  string `json:"lcd_reference,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// Intervention is one conservative-care action.
type Intervention struct {
	Type               string                  `json:"type"`
	Name               string                  `json:"name"`
	Date               string                  `json:"date,omitempty"`
	MedicareCompliance *InterventionCompliance `json:"medicare_compliance,omitempty"`
}

// ConservativeCare is the nested conservative_care payload of an encounter.
type ConservativeCare struct {
	Interventions []Intervention `json:"interventions"`
}

// ParseWoundDetails decodes raw into WoundDetails. It returns nil, and logs
// a warning, for anything that is not a well-formed wound-details object.
// An absent payload returns nil silently.
func ParseWoundDetails(raw json.RawMessage, logger zerolog.Logger) *WoundDetails {
	if isEmptyPayload(raw) {
		return nil
	}
	var w WoundDetails
	if err := decodeStrict(raw, &w); err != nil {
		logger.Warn().Err(err).Msg("ignoring malformed wound_details payload")
		return nil
	}
	if err := w.validate(); err != nil {
		logger.Warn().Err(err).Msg("ignoring malformed wound_details payload")
		return nil
	}
	return &w
}

// ParseConservativeCare decodes raw into ConservativeCare with the same
// degrade-to-nil contract as ParseWoundDetails.
func ParseConservativeCare(raw json.RawMessage, logger zerolog.Logger) *ConservativeCare {
	if isEmptyPayload(raw) {
		return nil
	}
	var c ConservativeCare
	if err := decodeStrict(raw, &c); err != nil {
		logger.Warn().Err(err).Msg("ignoring malformed conservative_care payload")
		return nil
	}
	return &c
}

func isEmptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeStrict requires a JSON object at the top level; unknown fields are
// tolerated because clinicians' tooling adds its own.
func decodeStrict(raw json.RawMessage, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected a JSON object")
	}
	return json.Unmarshal(trimmed, dst)
}

func (w *WoundDetails) validate() error {
	check := func(label string, m *Measurement) error {
		if m == nil {
			return nil
		}
		dims := []struct {
			name string
			v    *float64
		}{{"length", m.Length}, {"width", m.Width}, {"depth", m.Depth}, {"area", m.Area}}
		for _, d := range dims {
			if d.v == nil {
				continue
			}
			if math.IsNaN(*d.v) || math.IsInf(*d.v, 0) || *d.v < 0 {
				return fmt.Errorf("%s.%s: invalid value %v", label, d.name, *d.v)
			}
		}
		return nil
	}
	if err := check("measurements", w.Measurements); err != nil {
		return err
	}
	if err := check("current_measurement", w.CurrentMeasurement); err != nil {
		return err
	}
	for i := range w.MeasurementHistory {
		if err := check(fmt.Sprintf("measurement_history[%d]", i), &w.MeasurementHistory[i]); err != nil {
			return err
		}
	}
	return nil
}

// Interventions flattens the interventions of every encounter, skipping
// encounters whose conservative_care payload is absent or malformed.
func Interventions(encounters []Encounter, logger zerolog.Logger) []Intervention {
	var out []Intervention
	for i := range encounters {
		care := ParseConservativeCare(encounters[i].ConservativeCare, logger.With().Str("encounter_id", encounters[i].ID.String()).Logger())
		if care == nil {
			continue
		}
		for _, iv := range care.Interventions {
			iv.Type = strings.TrimSpace(iv.Type)
			iv.Name = strings.TrimSpace(iv.Name)
			out = append(out, iv)
		}
	}
	return out
}
