package woundcare

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Episode maps to the wound_episode table.
type Episode struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	WoundType        string     `db:"wound_type" json:"wound_type"`
	WoundLocation    string     `db:"wound_location" json:"wound_location"`
	PrimaryDiagnosis *string    `db:"primary_diagnosis" json:"primary_diagnosis,omitempty"`
	StartDate        time.Time  `db:"episode_start_date" json:"episode_start_date"`
	EndDate          *time.Time `db:"episode_end_date" json:"episode_end_date,omitempty"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// DiagnosisCode returns the primary diagnosis or "".
func (e *Episode) DiagnosisCode() string {
	if e.PrimaryDiagnosis == nil {
		return ""
	}
	return strings.TrimSpace(*e.PrimaryDiagnosis)
}

// Encounter maps to the wound_encounter table. WoundDetails and
// ConservativeCare hold the raw nested payloads; use ParseWoundDetails and
// ParseConservativeCare to read them.
type Encounter struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	EpisodeID        uuid.UUID       `db:"episode_id" json:"episode_id"`
	Date             time.Time       `db:"encounter_date" json:"date"`
	WoundDetails     json.RawMessage `db:"wound_details" json:"wound_details,omitempty"`
	ConservativeCare json.RawMessage `db:"conservative_care" json:"conservative_care,omitempty"`
	InfectionStatus  *string         `db:"infection_status" json:"infection_status,omitempty"`
	Comorbidities    []string        `db:"comorbidities" json:"comorbidities,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// ExceptionType classifies why a weekly assessment was skipped.
type ExceptionType string

const (
	ExceptionHoliday            ExceptionType = "holiday"
	ExceptionInpatientStay      ExceptionType = "inpatient-stay"
	ExceptionMedicalEmergency   ExceptionType = "medical-emergency"
	ExceptionPatientUnavailable ExceptionType = "patient-unavailable"
	ExceptionOther              ExceptionType = "other"
)

var acceptedExceptionTypes = map[ExceptionType]bool{
	ExceptionHoliday:            true,
	ExceptionInpatientStay:      true,
	ExceptionMedicalEmergency:   true,
	ExceptionPatientUnavailable: true,
}

// NormalizeExceptionType lower-cases t and treats '_' and ' ' as '-'.
func NormalizeExceptionType(t string) ExceptionType {
	s := strings.ToLower(strings.TrimSpace(t))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	return ExceptionType(s)
}

// Accepted reports whether the exception type can excuse a missing week.
// "other" never can.
func (t ExceptionType) Accepted() bool {
	return acceptedExceptionTypes[NormalizeExceptionType(string(t))]
}

// DocumentedException maps to the documented_exception table.
type DocumentedException struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	EpisodeID         uuid.UUID     `db:"episode_id" json:"episode_id"`
	WeekIdentifier    string        `db:"week_identifier" json:"week_identifier"`
	ExceptionType     ExceptionType `db:"exception_type" json:"exception_type"`
	Reason            string        `db:"reason" json:"reason"`
	DocumentedBy      string        `db:"documented_by" json:"documented_by"`
	DocumentationDate time.Time     `db:"documentation_date" json:"documentation_date"`
	IsValidException  bool          `db:"is_valid_exception" json:"is_valid_exception"`
}

// Honored reports whether the exception may excuse a missing week: it must
// be flagged valid by review and carry an accepted type.
func (d *DocumentedException) Honored() bool {
	return d.IsValidException && d.ExceptionType.Accepted()
}

// Bundle is an episode with everything an assessment reads.
type Bundle struct {
	Episode              Episode               `json:"episode"`
	Encounters           []Encounter           `json:"encounters"`
	DocumentedExceptions []DocumentedException `json:"documented_exceptions"`
}
