package woundcare

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// -- Episode --

type episodeRepoPG struct{ pool *pgxpool.Pool }

func NewEpisodeRepoPG(pool *pgxpool.Pool) EpisodeRepository {
	return &episodeRepoPG{pool: pool}
}

const episodeCols = `id, patient_id, wound_type, wound_location, primary_diagnosis,
	episode_start_date, episode_end_date, status, created_at, updated_at`

func (r *episodeRepoPG) Create(ctx context.Context, e *Episode) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO wound_episode (id, patient_id, wound_type, wound_location, primary_diagnosis,
			episode_start_date, episode_end_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.WoundType, e.WoundLocation, e.PrimaryDiagnosis,
		e.StartDate, e.EndDate, e.Status).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *episodeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Episode, error) {
	var e Episode
	err := connFor(ctx, r.pool).QueryRow(ctx, `SELECT `+episodeCols+` FROM wound_episode WHERE id = $1`, id).
		Scan(&e.ID, &e.PatientID, &e.WoundType, &e.WoundLocation, &e.PrimaryDiagnosis,
			&e.StartDate, &e.EndDate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get wound episode %s: %w", id, err)
	}
	return &e, nil
}

// -- Encounter --

type encounterRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterRepoPG(pool *pgxpool.Pool) EncounterRepository {
	return &encounterRepoPG{pool: pool}
}

func (r *encounterRepoPG) Create(ctx context.Context, e *Encounter) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO wound_encounter (id, episode_id, encounter_date, wound_details,
			conservative_care, infection_status, comorbidities)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		e.ID, e.EpisodeID, e.Date, jsonbArg(e.WoundDetails), jsonbArg(e.ConservativeCare),
		e.InfectionStatus, e.Comorbidities).Scan(&e.CreatedAt)
}

func (r *encounterRepoPG) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]Encounter, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT id, episode_id, encounter_date, wound_details, conservative_care,
			infection_status, comorbidities, created_at
		FROM wound_encounter WHERE episode_id = $1
		ORDER BY encounter_date, id`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list encounters for episode %s: %w", episodeID, err)
	}
	defer rows.Close()

	var items []Encounter
	for rows.Next() {
		var e Encounter
		var details, care []byte
		if err := rows.Scan(&e.ID, &e.EpisodeID, &e.Date, &details, &care,
			&e.InfectionStatus, &e.Comorbidities, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		e.WoundDetails = details
		e.ConservativeCare = care
		items = append(items, e)
	}
	return items, rows.Err()
}

// -- Documented exception --

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository {
	return &exceptionRepoPG{pool: pool}
}

func (r *exceptionRepoPG) Create(ctx context.Context, d *DocumentedException) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := connFor(ctx, r.pool).Exec(ctx, `
		INSERT INTO documented_exception (id, episode_id, week_identifier, exception_type,
			reason, documented_by, documentation_date, is_valid_exception)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.EpisodeID, d.WeekIdentifier, string(d.ExceptionType),
		d.Reason, d.DocumentedBy, d.DocumentationDate, d.IsValidException)
	return err
}

func (r *exceptionRepoPG) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]DocumentedException, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT id, episode_id, week_identifier, exception_type, reason, documented_by,
			documentation_date, is_valid_exception
		FROM documented_exception WHERE episode_id = $1
		ORDER BY week_identifier, documentation_date, id`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list exceptions for episode %s: %w", episodeID, err)
	}
	defer rows.Close()

	var items []DocumentedException
	for rows.Next() {
		var d DocumentedException
		var typ string
		if err := rows.Scan(&d.ID, &d.EpisodeID, &d.WeekIdentifier, &typ, &d.Reason,
			&d.DocumentedBy, &d.DocumentationDate, &d.IsValidException); err != nil {
			return nil, fmt.Errorf("scan documented exception: %w", err)
		}
		d.ExceptionType = ExceptionType(typ)
		items = append(items, d)
	}
	return items, rows.Err()
}

func jsonbArg(raw []byte) interface{} {
	if isEmptyPayload(raw) {
		return nil
	}
	return string(raw)
}
