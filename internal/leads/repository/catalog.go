package repository

import (
	"context"

	"github.com/google/uuid"
)

// CatalogEntry is a lead source or carpet type row.
type CatalogEntry struct {
	ID   uuid.UUID
	Name string
}

func (r *Repository) listCatalog(ctx context.Context, table string) ([]CatalogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM `+table+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CatalogEntry, 0)
	for rows.Next() {
		var item CatalogEntry
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ListSources returns all lead sources ordered by name.
func (r *Repository) ListSources(ctx context.Context) ([]CatalogEntry, error) {
	return r.listCatalog(ctx, "lead_sources")
}

// ListCarpetTypes returns all carpet types ordered by name.
func (r *Repository) ListCarpetTypes(ctx context.Context) ([]CatalogEntry, error) {
	return r.listCatalog(ctx, "carpet_types")
}

// CreateSource inserts a lead source, returning the existing row on a
// duplicate name.
func (r *Repository) CreateSource(ctx context.Context, name string) (CatalogEntry, error) {
	return r.upsertCatalog(ctx, "lead_sources", name)
}

// CreateCarpetType inserts a carpet type, returning the existing row on a
// duplicate name.
func (r *Repository) CreateCarpetType(ctx context.Context, name string) (CatalogEntry, error) {
	return r.upsertCatalog(ctx, "carpet_types", name)
}

func (r *Repository) upsertCatalog(ctx context.Context, table, name string) (CatalogEntry, error) {
	var entry CatalogEntry
	err := r.pool.QueryRow(ctx, `
		INSERT INTO `+table+` (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`, name).Scan(&entry.ID, &entry.Name)
	if err != nil {
		return CatalogEntry{}, err
	}
	return entry, nil
}
