package service

import (
	"context"
	"errors"
	"fmt"

	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/internal/storage"
	"karpet_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// AttachmentService manages lead attachments backed by object storage.
type AttachmentService struct {
	repo   *repository.Repository
	store  storage.ObjectStore
	bucket string
}

// NewAttachmentService creates the attachment service. bucket is the object
// storage bucket holding lead attachments.
func NewAttachmentService(repo *repository.Repository, store storage.ObjectStore, bucket string) *AttachmentService {
	return &AttachmentService{repo: repo, store: store, bucket: bucket}
}

// loadLead fetches the owning lead and enforces the caller's branch scope.
func (s *AttachmentService) loadLead(ctx context.Context, leadID uuid.UUID, scope *uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}
	if scope != nil && lead.BranchID != *scope {
		return repository.Lead{}, apperr.Forbidden("lead belongs to another branch")
	}
	return lead, nil
}

// RequestUpload validates the file and returns a presigned PUT slot scoped
// to the lead's folder.
func (s *AttachmentService) RequestUpload(ctx context.Context, leadID uuid.UUID, scope *uuid.UUID, req transport.RequestUploadRequest) (*storage.PresignedURL, error) {
	lead, err := s.loadLead(ctx, leadID, scope)
	if err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("%s/%s", lead.BranchID, lead.ID)
	slot, err := s.store.GenerateUploadURL(ctx, s.bucket, folder, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return slot, nil
}

// ConfirmUpload records a finished upload as an attachment row.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, leadID, uploadedBy uuid.UUID, scope *uuid.UUID, req transport.ConfirmUploadRequest) (repository.Attachment, error) {
	lead, err := s.loadLead(ctx, leadID, scope)
	if err != nil {
		return repository.Attachment{}, err
	}

	return s.repo.CreateAttachment(ctx, repository.CreateAttachmentParams{
		LeadID:      lead.ID,
		BranchID:    lead.BranchID,
		FileKey:     req.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  &uploadedBy,
	})
}

// List returns the lead's attachments newest first.
func (s *AttachmentService) List(ctx context.Context, leadID uuid.UUID, scope *uuid.UUID) ([]repository.Attachment, error) {
	if _, err := s.loadLead(ctx, leadID, scope); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, leadID)
}

// loadAttachment fetches an attachment and enforces the caller's branch scope.
func (s *AttachmentService) loadAttachment(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (repository.Attachment, error) {
	attachment, err := s.repo.GetAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return repository.Attachment{}, apperr.NotFound("attachment not found")
		}
		return repository.Attachment{}, err
	}
	if scope != nil && attachment.BranchID != *scope {
		return repository.Attachment{}, apperr.Forbidden("attachment belongs to another branch")
	}
	return attachment, nil
}

// DownloadURL returns a presigned GET for one attachment.
func (s *AttachmentService) DownloadURL(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*storage.PresignedURL, error) {
	attachment, err := s.loadAttachment(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return s.store.GenerateDownloadURL(ctx, s.bucket, attachment.FileKey)
}

// Delete removes the attachment row and its stored object. A storage delete
// failure after the row is gone is returned to the caller but the row stays
// deleted.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID, scope *uuid.UUID) error {
	if _, err := s.loadAttachment(ctx, id, scope); err != nil {
		return err
	}

	attachment, err := s.repo.DeleteAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return apperr.NotFound("attachment not found")
		}
		return err
	}
	return s.store.DeleteObject(ctx, s.bucket, attachment.FileKey)
}
