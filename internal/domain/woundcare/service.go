package woundcare

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

var weekIdentifierPattern = regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`)

var validEpisodeStatuses = map[string]bool{
	"active": true, "healed": true, "closed": true, "on-hold": true,
}

var knownExceptionTypes = map[ExceptionType]bool{
	ExceptionHoliday:            true,
	ExceptionInpatientStay:      true,
	ExceptionMedicalEmergency:   true,
	ExceptionPatientUnavailable: true,
	ExceptionOther:              true,
}

type Service struct {
	episodes   EpisodeRepository
	encounters EncounterRepository
	exceptions ExceptionRepository
}

func NewService(episodes EpisodeRepository, encounters EncounterRepository, exceptions ExceptionRepository) *Service {
	return &Service{episodes: episodes, encounters: encounters, exceptions: exceptions}
}

// -- Episode --

func (s *Service) CreateEpisode(ctx context.Context, e *Episode) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.StartDate.IsZero() {
		return fmt.Errorf("episode_start_date is required")
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("episode_end_date must not precede episode_start_date")
	}
	if e.Status == "" {
		e.Status = "active"
	}
	if !validEpisodeStatuses[e.Status] {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return s.episodes.Create(ctx, e)
}

func (s *Service) GetEpisode(ctx context.Context, id uuid.UUID) (*Episode, error) {
	e, err := s.episodes.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("episode %s: %w", id, ErrNotFound)
	}
	return e, err
}

// -- Encounter --

// AddEncounter stores an encounter for an existing episode. Nested payloads
// must be JSON objects when present; their contents are checked later by
// the assessment, which tolerates partial data.
func (s *Service) AddEncounter(ctx context.Context, e *Encounter) error {
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if !isEmptyPayload(e.WoundDetails) {
		if err := decodeStrict(e.WoundDetails, &WoundDetails{}); err != nil {
			return fmt.Errorf("wound_details: %w", err)
		}
	}
	if !isEmptyPayload(e.ConservativeCare) {
		if err := decodeStrict(e.ConservativeCare, &ConservativeCare{}); err != nil {
			return fmt.Errorf("conservative_care: %w", err)
		}
	}
	if _, err := s.GetEpisode(ctx, e.EpisodeID); err != nil {
		return err
	}
	return s.encounters.Create(ctx, e)
}

func (s *Service) ListEncounters(ctx context.Context, episodeID uuid.UUID) ([]Encounter, error) {
	return s.encounters.ListByEpisode(ctx, episodeID)
}

// -- Documented exception --

func (s *Service) AddException(ctx context.Context, d *DocumentedException) error {
	d.WeekIdentifier = strings.ToUpper(strings.TrimSpace(d.WeekIdentifier))
	if !weekIdentifierPattern.MatchString(d.WeekIdentifier) {
		return fmt.Errorf("week_identifier must look like 2024-W05")
	}
	d.ExceptionType = NormalizeExceptionType(string(d.ExceptionType))
	if !knownExceptionTypes[d.ExceptionType] {
		return fmt.Errorf("invalid exception_type: %s", d.ExceptionType)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return fmt.Errorf("reason is required")
	}
	if strings.TrimSpace(d.DocumentedBy) == "" {
		return fmt.Errorf("documented_by is required")
	}
	if d.DocumentationDate.IsZero() {
		return fmt.Errorf("documentation_date is required")
	}
	if _, err := s.GetEpisode(ctx, d.EpisodeID); err != nil {
		return err
	}
	return s.exceptions.Create(ctx, d)
}

func (s *Service) ListExceptions(ctx context.Context, episodeID uuid.UUID) ([]DocumentedException, error) {
	return s.exceptions.ListByEpisode(ctx, episodeID)
}
