package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// Attachment is a file stored in object storage and linked to a lead.
type Attachment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	BranchID    uuid.UUID
	FileKey     string
	FileName    string
	ContentType *string
	SizeBytes   *int64
	UploadedBy  *uuid.UUID
	CreatedAt   time.Time
}

// CreateAttachmentParams records an uploaded file against a lead.
type CreateAttachmentParams struct {
	LeadID      uuid.UUID
	BranchID    uuid.UUID
	FileKey     string
	FileName    string
	ContentType *string
	SizeBytes   *int64
	UploadedBy  *uuid.UUID
}

func (r *Repository) CreateAttachment(ctx context.Context, params CreateAttachmentParams) (Attachment, error) {
	var a Attachment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_attachments (lead_id, branch_id, file_key, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, lead_id, branch_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
	`, params.LeadID, params.BranchID, params.FileKey, params.FileName,
		params.ContentType, params.SizeBytes, params.UploadedBy).Scan(
		&a.ID, &a.LeadID, &a.BranchID, &a.FileKey, &a.FileName,
		&a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
	)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func (r *Repository) GetAttachment(ctx context.Context, id uuid.UUID) (Attachment, error) {
	var a Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, branch_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM lead_attachments WHERE id = $1
	`, id).Scan(
		&a.ID, &a.LeadID, &a.BranchID, &a.FileKey, &a.FileName,
		&a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attachment{}, ErrAttachmentNotFound
	}
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func (r *Repository) ListAttachments(ctx context.Context, leadID uuid.UUID) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, branch_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM lead_attachments WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Attachment, 0)
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.BranchID, &a.FileKey, &a.FileName,
			&a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) DeleteAttachment(ctx context.Context, id uuid.UUID) (Attachment, error) {
	a, err := r.GetAttachment(ctx, id)
	if err != nil {
		return Attachment{}, err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM lead_attachments WHERE id = $1`, id); err != nil {
		return Attachment{}, err
	}
	return a, nil
}
