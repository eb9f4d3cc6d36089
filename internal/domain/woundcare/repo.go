package woundcare

import (
	"context"

	"github.com/google/uuid"
)

type EpisodeRepository interface {
	Create(ctx context.Context, e *Episode) error
	GetByID(ctx context.Context, id uuid.UUID) (*Episode, error)
}

// EncounterRepository returns encounters ordered by encounter date.
type EncounterRepository interface {
	Create(ctx context.Context, e *Encounter) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]Encounter, error)
}

type ExceptionRepository interface {
	Create(ctx context.Context, d *DocumentedException) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]DocumentedException, error)
}
