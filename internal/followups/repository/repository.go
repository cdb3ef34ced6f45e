package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("follow-up not found")
	// ErrVersionConflict means the record changed between read and write;
	// the caller lost an optimistic concurrency race.
	ErrVersionConflict = errors.New("follow-up was modified concurrently")
)

// Status is the lifecycle state of a follow-up record. Transitions only move
// forward: scheduled -> completed | no_response.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusCompleted  Status = "completed"
	StatusNoResponse Status = "no_response"
)

// MaxAttempts is the number of contact attempts tracked per record.
const MaxAttempts = 3

// Attempt is one numbered contact try within a record.
type Attempt struct {
	Completed   bool
	CompletedAt *time.Time
}

// FollowUp is one scheduled contact attempt cycle for a lead at a stage.
type FollowUp struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	UserID        uuid.UUID
	StageKey      string
	AttemptCount  int
	Attempts      [MaxAttempts]Attempt
	ScheduledAt   time.Time
	CompletedAt   *time.Time
	Notes         *string
	Outcome       *string
	AdaRespon     bool
	AutoScheduled bool
	Status        Status
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NextAttemptNumber returns the lowest attempt slot (1-based) not yet
// completed, or MaxAttempts+1 when every slot is used.
func (f *FollowUp) NextAttemptNumber() int {
	for i, attempt := range f.Attempts {
		if !attempt.Completed {
			return i + 1
		}
	}
	return MaxAttempts + 1
}

// CompletedAttempts counts the attempt slots already marked completed.
func (f *FollowUp) CompletedAttempts() int {
	count := 0
	for _, attempt := range f.Attempts {
		if attempt.Completed {
			count++
		}
	}
	return count
}

type CreateFollowUpParams struct {
	LeadID        uuid.UUID
	UserID        uuid.UUID
	StageKey      string
	AttemptCount  int
	ScheduledAt   time.Time
	AutoScheduled bool
}

// CompletionUpdate is the mutation applied to the completed record.
type CompletionUpdate struct {
	ID              uuid.UUID
	ExpectedVersion int
	Attempts        [MaxAttempts]Attempt
	AdaRespon       bool
	Notes           *string
	Outcome         *string
	CompletedAt     *time.Time
	Status          Status
}

// ApplyCompletionParams is the full atomic unit of a completion: the record
// update, an optional successor insert, and an optional lead escalation.
type ApplyCompletionParams struct {
	Update       CompletionUpdate
	Successor    *CreateFollowUpParams
	MarkLeadCold *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const followUpColumns = `id, lead_id, user_id, stage_key, attempt_count,
	attempt_1_completed, attempt_1_completed_at,
	attempt_2_completed, attempt_2_completed_at,
	attempt_3_completed, attempt_3_completed_at,
	scheduled_at, completed_at, notes, outcome, ada_respon, auto_scheduled,
	status, version, created_at, updated_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	err := row.Scan(
		&f.ID, &f.LeadID, &f.UserID, &f.StageKey, &f.AttemptCount,
		&f.Attempts[0].Completed, &f.Attempts[0].CompletedAt,
		&f.Attempts[1].Completed, &f.Attempts[1].CompletedAt,
		&f.Attempts[2].Completed, &f.Attempts[2].CompletedAt,
		&f.ScheduledAt, &f.CompletedAt, &f.Notes, &f.Outcome, &f.AdaRespon, &f.AutoScheduled,
		&f.Status, &f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	if err != nil {
		return FollowUp{}, err
	}
	return f, nil
}

// Create inserts a new record in the scheduled state. A dangling stage key or
// lead reference fails with the storage layer's integrity error, unmodified.
func (r *Repository) Create(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO follow_ups (lead_id, user_id, stage_key, attempt_count, scheduled_at, auto_scheduled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+followUpColumns+`
	`, params.LeadID, params.UserID, params.StageKey, params.AttemptCount, params.ScheduledAt, params.AutoScheduled)
	return scanFollowUp(row)
}

// GetByID returns a follow-up record by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups WHERE id = $1
	`, id)
	return scanFollowUp(row)
}

// LeadBranch resolves the branch owning a record's lead, for access checks.
func (r *Repository) LeadBranch(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error) {
	var branchID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT branch_id FROM leads WHERE id = $1
	`, leadID).Scan(&branchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return branchID, nil
}

// ApplyCompletion executes a completion as one transaction: the versioned
// record update, the successor insert when the policy scheduled one, and the
// lead COLD escalation when the policy exhausted all attempts. A failed
// version guard rolls everything back and reports ErrVersionConflict. The
// returned bool reports whether the lead actually transitioned to cold on
// this call; an already-cold lead stays untouched.
func (r *Repository) ApplyCompletion(ctx context.Context, params ApplyCompletionParams) (FollowUp, *FollowUp, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return FollowUp{}, nil, false, err
	}
	defer tx.Rollback(ctx)

	u := params.Update
	row := tx.QueryRow(ctx, `
		UPDATE follow_ups SET
			attempt_1_completed = $3, attempt_1_completed_at = $4,
			attempt_2_completed = $5, attempt_2_completed_at = $6,
			attempt_3_completed = $7, attempt_3_completed_at = $8,
			ada_respon = $9, notes = $10, outcome = $11,
			completed_at = $12, status = $13,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+followUpColumns+`
	`, u.ID, u.ExpectedVersion,
		u.Attempts[0].Completed, u.Attempts[0].CompletedAt,
		u.Attempts[1].Completed, u.Attempts[1].CompletedAt,
		u.Attempts[2].Completed, u.Attempts[2].CompletedAt,
		u.AdaRespon, u.Notes, u.Outcome,
		u.CompletedAt, u.Status)

	updated, err := scanFollowUp(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FollowUp{}, nil, false, r.classifyGuardFailure(ctx, u.ID)
		}
		return FollowUp{}, nil, false, err
	}

	var successor *FollowUp
	if params.Successor != nil {
		s := params.Successor
		row := tx.QueryRow(ctx, `
			INSERT INTO follow_ups (lead_id, user_id, stage_key, attempt_count, scheduled_at, auto_scheduled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+followUpColumns+`
		`, s.LeadID, s.UserID, s.StageKey, s.AttemptCount, s.ScheduledAt, s.AutoScheduled)
		created, err := scanFollowUp(row)
		if err != nil {
			return FollowUp{}, nil, false, err
		}
		successor = &created
	}

	leadWentCold := false
	if params.MarkLeadCold != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE leads SET status = 'cold', updated_at = now()
			WHERE id = $1 AND status <> 'cold'
		`, *params.MarkLeadCold)
		if err != nil {
			return FollowUp{}, nil, false, err
		}
		leadWentCold = tag.RowsAffected() > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return FollowUp{}, nil, false, err
	}
	return updated, successor, leadWentCold, nil
}

// classifyGuardFailure distinguishes a missing record from a lost optimistic
// race after the guarded update matched no rows.
func (r *Repository) classifyGuardFailure(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follow_ups WHERE id = $1)
	`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

// Reschedule moves a still-scheduled record to a new time.
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (FollowUp, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE follow_ups
		SET scheduled_at = $2, auto_scheduled = FALSE, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING `+followUpColumns+`
	`, id, scheduledAt)
	return scanFollowUp(row)
}
