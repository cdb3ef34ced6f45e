// Package repository provides lead persistence on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// LeadStatus is the pipeline status of a lead. COLD and EXIT are terminal.
type LeadStatus string

const (
	StatusWarm         LeadStatus = "warm"
	StatusHot          LeadStatus = "hot"
	StatusCustomer     LeadStatus = "customer"
	StatusCold         LeadStatus = "cold"
	StatusExit         LeadStatus = "exit"
	StatusCrossSelling LeadStatus = "cross_selling"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case StatusWarm, StatusHot, StatusCustomer, StatusCold, StatusExit, StatusCrossSelling:
		return true
	}
	return false
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	UserID       uuid.UUID
	SourceID     *uuid.UUID
	CarpetTypeID *uuid.UUID
	Name         string
	Phone        string
	Email        *string
	Address      *string
	Status       LeadStatus
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined reference names, populated on reads.
	BranchName     string
	UserName       string
	SourceName     *string
	CarpetTypeName *string
}

type CreateLeadParams struct {
	BranchID     uuid.UUID
	UserID       uuid.UUID
	SourceID     *uuid.UUID
	CarpetTypeID *uuid.UUID
	Name         string
	Phone        string
	Email        *string
	Address      *string
}

const leadColumns = `
	l.id, l.branch_id, l.user_id, l.source_id, l.carpet_type_id,
	l.name, l.phone, l.email, l.address, l.status, l.is_active,
	l.created_at, l.updated_at,
	b.name, u.name, s.name, ct.name
`

const leadJoins = `
	FROM leads l
	JOIN branches b ON b.id = l.branch_id
	JOIN users u ON u.id = l.user_id
	LEFT JOIN lead_sources s ON s.id = l.source_id
	LEFT JOIN carpet_types ct ON ct.id = l.carpet_type_id
`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.BranchID, &l.UserID, &l.SourceID, &l.CarpetTypeID,
		&l.Name, &l.Phone, &l.Email, &l.Address, &l.Status, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt,
		&l.BranchName, &l.UserName, &l.SourceName, &l.CarpetTypeName,
	)
	return l, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (branch_id, user_id, source_id, carpet_type_id, name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, params.BranchID, params.UserID, params.SourceID, params.CarpetTypeID,
		params.Name, params.Phone, params.Email, params.Address).Scan(&id)
	if err != nil {
		return Lead{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+leadJoins+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// ListParams filters lead listings. Zero-valued filters are skipped.
type ListParams struct {
	BranchID *uuid.UUID
	UserID   *uuid.UUID
	Status   *LeadStatus
	Search   string
	Limit    int
	Offset   int
}

// List returns active leads newest first with optional filters.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, error) {
	query := `SELECT ` + leadColumns + leadJoins + ` WHERE l.is_active`
	args := []interface{}{}

	next := func(value interface{}) string {
		args = append(args, value)
		return `$` + strconv.Itoa(len(args))
	}

	if params.BranchID != nil {
		query += ` AND l.branch_id = ` + next(*params.BranchID)
	}
	if params.UserID != nil {
		query += ` AND l.user_id = ` + next(*params.UserID)
	}
	if params.Status != nil {
		query += ` AND l.status = ` + next(*params.Status)
	}
	if params.Search != "" {
		p := next(params.Search)
		query += ` AND (l.name ILIKE '%' || ` + p + ` || '%' OR l.phone LIKE '%' || ` + p + ` || '%')`
	}

	query += ` ORDER BY l.created_at DESC`
	if params.Limit > 0 {
		query += ` LIMIT ` + next(params.Limit) + ` OFFSET ` + next(params.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// UpdateLeadParams applies a partial update. Nil fields are left unchanged.
type UpdateLeadParams struct {
	Name         *string
	Phone        *string
	Email        *string
	Address      *string
	SourceID     *uuid.UUID
	CarpetTypeID *uuid.UUID
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			address = COALESCE($5, address),
			source_id = COALESCE($6, source_id),
			carpet_type_id = COALESCE($7, carpet_type_id),
			updated_at = now()
		WHERE id = $1 AND is_active
	`, id, params.Name, params.Phone, params.Email, params.Address, params.SourceID, params.CarpetTypeID)
	if err != nil {
		return Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		return Lead{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SetStatus moves a lead to a new pipeline status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status LeadStatus) (Lead, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1 AND is_active
	`, id, status)
	if err != nil {
		return Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		return Lead{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// MarkCold sets the cold status. Already-cold leads are left untouched so
// repeated escalations stay idempotent.
func (r *Repository) MarkCold(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = 'cold', updated_at = now()
		WHERE id = $1 AND status <> 'cold'
	`, id)
	return err
}

// Deactivate soft-deletes a lead.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns lead counts per status for one branch, or all
// branches when branchID is nil.
func (r *Repository) CountByStatus(ctx context.Context, branchID *uuid.UUID) (map[LeadStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM leads WHERE is_active`
	args := []interface{}{}
	if branchID != nil {
		args = append(args, *branchID)
		query += ` AND branch_id = $1`
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[LeadStatus]int)
	for rows.Next() {
		var status LeadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}
