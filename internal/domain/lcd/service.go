package lcd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
)

var ErrEpisodeNotFound = errors.New("wound episode not found")

// Observer receives every completed assessment; metrics.Recorder implements it.
type Observer interface {
	ObserveAssessment(status, trafficLight string, score int, gapKinds []string)
}

type Service struct {
	episodes   woundcare.EpisodeRepository
	encounters woundcare.EncounterRepository
	exceptions woundcare.ExceptionRepository
	engine     *Engine
	observer   Observer
	tracer     trace.Tracer
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

func NewService(
	episodes woundcare.EpisodeRepository,
	encounters woundcare.EncounterRepository,
	exceptions woundcare.ExceptionRepository,
	engine *Engine,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		episodes:   episodes,
		encounters: encounters,
		exceptions: exceptions,
		engine:     engine,
		tracer:     otel.Tracer("github.com/VerminX/SanctuaryThree-sub004/internal/domain/lcd"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) resolveAsOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.now()
	}
	return asOf
}

// AssessEpisode loads a stored episode with its encounters and exceptions and
// assesses it. A zero asOf means today.
func (s *Service) AssessEpisode(ctx context.Context, episodeID uuid.UUID, asOf time.Time) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "lcd.AssessEpisode",
		trace.WithAttributes(attribute.String("episode.id", episodeID.String())))
	defer span.End()

	ep, err := s.episodes.GetByID(ctx, episodeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "episode not found")
			return nil, fmt.Errorf("%w: %s", ErrEpisodeNotFound, episodeID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load episode")
		return nil, err
	}

	encounters, err := s.encounters.ListByEpisode(ctx, episodeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load encounters")
		return nil, err
	}
	exceptions, err := s.exceptions.ListByEpisode(ctx, episodeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load exceptions")
		return nil, err
	}

	bundle := &woundcare.Bundle{Episode: *ep, Encounters: encounters, DocumentedExceptions: exceptions}
	return s.run(span, bundle, asOf), nil
}

// Assess evaluates a caller-supplied bundle without touching storage.
func (s *Service) Assess(ctx context.Context, bundle *woundcare.Bundle, asOf time.Time) (*Result, error) {
	if err := ValidateBundle(bundle); err != nil {
		return nil, err
	}
	_, span := s.tracer.Start(ctx, "lcd.Assess")
	defer span.End()
	return s.run(span, bundle, asOf), nil
}

func (s *Service) run(span trace.Span, bundle *woundcare.Bundle, asOf time.Time) *Result {
	res := s.engine.Assess(bundle, s.resolveAsOf(asOf))

	span.SetAttributes(
		attribute.String("lcd.status", string(res.Status)),
		attribute.Int("lcd.score", res.Score),
		attribute.String("lcd.category", res.Classification.Category),
		attribute.String("lcd.rules_version", res.RulesVersion),
		attribute.Int("lcd.encounters", len(bundle.Encounters)),
	)

	if s.observer != nil {
		kinds := make([]string, len(res.GapKinds))
		for i, k := range res.GapKinds {
			kinds[i] = string(k)
		}
		s.observer.ObserveAssessment(string(res.Status), string(res.TrafficLight), res.Score, kinds)
	}
	return res
}

// ValidateBundle checks the fields an assessment cannot do without.
func ValidateBundle(b *woundcare.Bundle) error {
	if b == nil {
		return fmt.Errorf("episode is required")
	}
	if b.Episode.StartDate.IsZero() {
		return fmt.Errorf("episode.episode_start_date is required")
	}
	for i, enc := range b.Encounters {
		if enc.Date.IsZero() {
			return fmt.Errorf("encounters[%d].date is required", i)
		}
		if enc.EpisodeID != uuid.Nil && b.Episode.ID != uuid.Nil && enc.EpisodeID != b.Episode.ID {
			return fmt.Errorf("encounters[%d] belongs to another episode", i)
		}
	}
	return nil
}
