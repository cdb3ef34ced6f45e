// Package transport holds the request and response shapes of the leads HTTP
// surface.
package transport

import (
	"time"

	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/storage"

	"github.com/google/uuid"
)

// CreateLeadRequest takes in a new lead.
type CreateLeadRequest struct {
	Name         string     `json:"name" validate:"required"`
	Phone        string     `json:"phone" validate:"required"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address      *string    `json:"address,omitempty"`
	SourceID     *uuid.UUID `json:"source_id,omitempty"`
	CarpetTypeID *uuid.UUID `json:"carpet_type_id,omitempty"`
	BranchID     uuid.UUID  `json:"branch_id"`
	UserID       uuid.UUID  `json:"-"`
}

// UpdateLeadRequest applies a partial update. Absent fields are unchanged.
type UpdateLeadRequest struct {
	Name         *string    `json:"name,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address      *string    `json:"address,omitempty"`
	SourceID     *uuid.UUID `json:"source_id,omitempty"`
	CarpetTypeID *uuid.UUID `json:"carpet_type_id,omitempty"`
}

// ChangeStatusRequest moves a lead to a new pipeline status.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// LeadResponse is a lead on the wire with resolved reference names.
type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	BranchID       uuid.UUID  `json:"branch_id"`
	BranchName     string     `json:"branch_name"`
	UserID         uuid.UUID  `json:"user_id"`
	UserName       string     `json:"user_name"`
	SourceID       *uuid.UUID `json:"source_id,omitempty"`
	SourceName     *string    `json:"source_name,omitempty"`
	CarpetTypeID   *uuid.UUID `json:"carpet_type_id,omitempty"`
	CarpetTypeName *string    `json:"carpet_type_name,omitempty"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Email          *string    `json:"email,omitempty"`
	Address        *string    `json:"address,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToLeadResponse maps a storage lead to its wire shape.
func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		BranchID:       l.BranchID,
		BranchName:     l.BranchName,
		UserID:         l.UserID,
		UserName:       l.UserName,
		SourceID:       l.SourceID,
		SourceName:     l.SourceName,
		CarpetTypeID:   l.CarpetTypeID,
		CarpetTypeName: l.CarpetTypeName,
		Name:           l.Name,
		Phone:          l.Phone,
		Email:          l.Email,
		Address:        l.Address,
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// ToLeadResponses maps a slice of leads.
func ToLeadResponses(items []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(items))
	for _, l := range items {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

// CatalogEntryResponse is a lead source or carpet type on the wire.
type CatalogEntryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CreateCatalogEntryRequest adds a source or carpet type.
type CreateCatalogEntryRequest struct {
	Name string `json:"name" validate:"required"`
}

// RequestUploadRequest asks for a presigned upload slot for an attachment.
type RequestUploadRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,gt=0"`
}

// ConfirmUploadRequest records a completed upload as an attachment row.
type ConfirmUploadRequest struct {
	FileKey     string  `json:"file_key" validate:"required"`
	FileName    string  `json:"file_name" validate:"required"`
	ContentType *string `json:"content_type,omitempty"`
	SizeBytes   *int64  `json:"size_bytes,omitempty"`
}

// UploadSlotResponse carries the presigned upload URL.
type UploadSlotResponse struct {
	Upload *storage.PresignedURL `json:"upload"`
}

// AttachmentResponse is an attachment row on the wire.
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"lead_id"`
	FileKey     string    `json:"file_key"`
	FileName    string    `json:"file_name"`
	ContentType *string   `json:"content_type,omitempty"`
	SizeBytes   *int64    `json:"size_bytes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToAttachmentResponse maps a storage attachment to its wire shape.
func ToAttachmentResponse(a repository.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		LeadID:      a.LeadID,
		FileKey:     a.FileKey,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}
