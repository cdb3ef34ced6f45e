// Package repository provides the aggregate queries behind follow-up
// performance reports.
package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserFollowUpStats is one report row: a sales user's follow-up counts.
type UserFollowUpStats struct {
	UserID     uuid.UUID
	UserName   string
	BranchName *string
	Total      int
	Completed  int
	NoResponse int
	Scheduled  int
	Responded  int
	LeadsCold  int
}

// Filter bounds the report. From/Until bound follow-up created_at.
type Filter struct {
	BranchID *uuid.UUID
	From     *time.Time
	Until    *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PerUserStats aggregates follow-up counts per sales user, including users
// with no records in the window.
func (r *Repository) PerUserStats(ctx context.Context, filter Filter) ([]UserFollowUpStats, error) {
	query := `
		SELECT u.id, u.name, b.name,
			COUNT(f.id),
			COUNT(f.id) FILTER (WHERE f.status = 'completed'),
			COUNT(f.id) FILTER (WHERE f.status = 'no_response'),
			COUNT(f.id) FILTER (WHERE f.status = 'scheduled'),
			COUNT(f.id) FILTER (WHERE f.ada_respon),
			COUNT(DISTINCT f.lead_id) FILTER (WHERE l.status = 'cold')
		FROM users u
		LEFT JOIN branches b ON b.id = u.branch_id
		LEFT JOIN follow_ups f ON f.user_id = u.id
		LEFT JOIN leads l ON l.id = f.lead_id
		WHERE u.is_active
	`
	args := []interface{}{}

	next := func(value interface{}) string {
		args = append(args, value)
		return `$` + strconv.Itoa(len(args))
	}

	if filter.BranchID != nil {
		query += ` AND u.branch_id = ` + next(*filter.BranchID)
	}
	if filter.From != nil {
		query += ` AND (f.id IS NULL OR f.created_at >= ` + next(*filter.From) + `)`
	}
	if filter.Until != nil {
		query += ` AND (f.id IS NULL OR f.created_at < ` + next(*filter.Until) + `)`
	}

	query += ` GROUP BY u.id, u.name, b.name ORDER BY u.name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]UserFollowUpStats, 0)
	for rows.Next() {
		var s UserFollowUpStats
		if err := rows.Scan(
			&s.UserID, &s.UserName, &s.BranchName,
			&s.Total, &s.Completed, &s.NoResponse, &s.Scheduled, &s.Responded, &s.LeadsCold,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
