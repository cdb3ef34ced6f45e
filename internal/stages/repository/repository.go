package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("stage not found")

// Stage is a named step in the follow-up contact cadence. Stages form a
// singly-linked progression chain through NextStageKey.
type Stage struct {
	ID           uuid.UUID
	Key          string
	Name         string
	DisplayOrder int
	NextStageKey *string
	IsActive     bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateStageParams struct {
	Key          string
	Name         string
	DisplayOrder int
	NextStageKey *string
}

type UpdateStageParams struct {
	Name         *string
	DisplayOrder *int
	NextStageKey *string
	ClearNext    bool
	IsActive     *bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const stageColumns = `id, key, name, display_order, next_stage_key, is_active, deleted_at, created_at, updated_at`

func scanStage(row pgx.Row) (Stage, error) {
	var s Stage
	err := row.Scan(&s.ID, &s.Key, &s.Name, &s.DisplayOrder, &s.NextStageKey, &s.IsActive, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, ErrNotFound
	}
	if err != nil {
		return Stage{}, err
	}
	return s, nil
}

// Create inserts a new stage. A bad NextStageKey fails with the foreign key
// violation from the storage layer, surfaced unchanged.
func (r *Repository) Create(ctx context.Context, params CreateStageParams) (Stage, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO follow_up_stages (key, name, display_order, next_stage_key)
		VALUES ($1, $2, $3, $4)
		RETURNING `+stageColumns+`
	`, params.Key, params.Name, params.DisplayOrder, params.NextStageKey)
	return scanStage(row)
}

// GetByKey returns a stage by its unique key, including soft-deleted ones.
func (r *Repository) GetByKey(ctx context.Context, key string) (Stage, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+stageColumns+`
		FROM follow_up_stages WHERE key = $1
	`, key)
	return scanStage(row)
}

// ListActive returns active, non-deleted stages ordered by display order.
func (r *Repository) ListActive(ctx context.Context) ([]Stage, error) {
	return r.list(ctx, `
		SELECT `+stageColumns+`
		FROM follow_up_stages
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY display_order ASC
	`)
}

// ListAll returns every non-deleted stage, for the admin catalog view.
func (r *Repository) ListAll(ctx context.Context) ([]Stage, error) {
	return r.list(ctx, `
		SELECT `+stageColumns+`
		FROM follow_up_stages
		WHERE deleted_at IS NULL
		ORDER BY display_order ASC
	`)
}

func (r *Repository) list(ctx context.Context, query string) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Stage, 0)
	for rows.Next() {
		var s Stage
		if err := rows.Scan(&s.ID, &s.Key, &s.Name, &s.DisplayOrder, &s.NextStageKey, &s.IsActive, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// Update applies a partial update to a stage identified by key.
func (r *Repository) Update(ctx context.Context, key string, params UpdateStageParams) (Stage, error) {
	current, err := r.GetByKey(ctx, key)
	if err != nil {
		return Stage{}, err
	}

	name := current.Name
	if params.Name != nil {
		name = *params.Name
	}
	displayOrder := current.DisplayOrder
	if params.DisplayOrder != nil {
		displayOrder = *params.DisplayOrder
	}
	nextStageKey := current.NextStageKey
	if params.ClearNext {
		nextStageKey = nil
	} else if params.NextStageKey != nil {
		nextStageKey = params.NextStageKey
	}
	isActive := current.IsActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE follow_up_stages
		SET name = $2, display_order = $3, next_stage_key = $4, is_active = $5, updated_at = now()
		WHERE key = $1 AND deleted_at IS NULL
		RETURNING `+stageColumns+`
	`, key, name, displayOrder, nextStageKey, isActive)
	return scanStage(row)
}

// SoftDelete stamps deleted_at and deactivates the stage. Follow-up records
// keep referencing the key; the restrict FK only blocks hard deletes.
func (r *Repository) SoftDelete(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE follow_up_stages
		SET deleted_at = now(), is_active = FALSE, updated_at = now()
		WHERE key = $1 AND deleted_at IS NULL
	`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
