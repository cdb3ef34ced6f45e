package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ListScheduledParams filters the scheduled-record listings. From/Until bound
// scheduled_at as [From, Until); BranchID narrows to leads of one branch.
type ListScheduledParams struct {
	UserID   uuid.UUID
	From     *time.Time
	Until    *time.Time
	BranchID *uuid.UUID
}

// ListScheduled returns scheduled records for a user ordered by scheduled_at
// ascending, optionally bounded in time and scoped to a branch.
func (r *Repository) ListScheduled(ctx context.Context, params ListScheduledParams) ([]FollowUp, error) {
	query := `
		SELECT f.id, f.lead_id, f.user_id, f.stage_key, f.attempt_count,
			f.attempt_1_completed, f.attempt_1_completed_at,
			f.attempt_2_completed, f.attempt_2_completed_at,
			f.attempt_3_completed, f.attempt_3_completed_at,
			f.scheduled_at, f.completed_at, f.notes, f.outcome, f.ada_respon, f.auto_scheduled,
			f.status, f.version, f.created_at, f.updated_at
		FROM follow_ups f
		JOIN leads l ON l.id = f.lead_id
		WHERE f.user_id = $1 AND f.status = 'scheduled'
	`
	args := []interface{}{params.UserID}

	if params.From != nil {
		args = append(args, *params.From)
		query += ` AND f.scheduled_at >= $` + itoa(len(args))
	}
	if params.Until != nil {
		args = append(args, *params.Until)
		query += ` AND f.scheduled_at < $` + itoa(len(args))
	}
	if params.BranchID != nil {
		args = append(args, *params.BranchID)
		query += ` AND l.branch_id = $` + itoa(len(args))
	}
	query += ` ORDER BY f.scheduled_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FollowUp, 0)
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(
			&f.ID, &f.LeadID, &f.UserID, &f.StageKey, &f.AttemptCount,
			&f.Attempts[0].Completed, &f.Attempts[0].CompletedAt,
			&f.Attempts[1].Completed, &f.Attempts[1].CompletedAt,
			&f.Attempts[2].Completed, &f.Attempts[2].CompletedAt,
			&f.ScheduledAt, &f.CompletedAt, &f.Notes, &f.Outcome, &f.AdaRespon, &f.AutoScheduled,
			&f.Status, &f.Version, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// Statistics holds aggregate follow-up counts for one user.
type Statistics struct {
	Total      int
	Completed  int
	NoResponse int
	Scheduled  int
	Responded  int
}

// StatisticsParams filters the aggregate query. From/Until bound created_at.
type StatisticsParams struct {
	UserID   uuid.UUID
	From     *time.Time
	Until    *time.Time
	BranchID *uuid.UUID
}

// GetStatistics returns aggregate counts over a user's follow-up records.
func (r *Repository) GetStatistics(ctx context.Context, params StatisticsParams) (Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE f.status = 'completed'),
			COUNT(*) FILTER (WHERE f.status = 'no_response'),
			COUNT(*) FILTER (WHERE f.status = 'scheduled'),
			COUNT(*) FILTER (WHERE f.ada_respon)
		FROM follow_ups f
		JOIN leads l ON l.id = f.lead_id
		WHERE f.user_id = $1
	`
	args := []interface{}{params.UserID}

	if params.From != nil {
		args = append(args, *params.From)
		query += ` AND f.created_at >= $` + itoa(len(args))
	}
	if params.Until != nil {
		args = append(args, *params.Until)
		query += ` AND f.created_at < $` + itoa(len(args))
	}
	if params.BranchID != nil {
		args = append(args, *params.BranchID)
		query += ` AND l.branch_id = $` + itoa(len(args))
	}

	var stats Statistics
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Completed, &stats.NoResponse, &stats.Scheduled, &stats.Responded,
	)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
