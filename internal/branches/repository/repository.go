// Package repository provides branch persistence.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("branch not found")

// Branch is a retail branch office.
type Branch struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, name, city string) (Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `
		INSERT INTO branches (name, city) VALUES ($1, $2)
		RETURNING id, name, city, is_active, created_at
	`, name, city).Scan(&b.ID, &b.Name, &b.City, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return Branch{}, err
	}
	return b, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, city, is_active, created_at FROM branches WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.City, &b.IsActive, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, ErrNotFound
	}
	if err != nil {
		return Branch{}, err
	}
	return b, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]Branch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, city, is_active, created_at
		FROM branches WHERE is_active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Branch, 0)
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
