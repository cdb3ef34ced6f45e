// Package service implements lead intake and pipeline management.
package service

import (
	"context"
	"errors"
	"fmt"

	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/platform/apperr"
	"karpet_crm_backend/platform/phone"
	"karpet_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the lead storage the service depends on.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	SetStatus(ctx context.Context, id uuid.UUID, status repository.LeadStatus) (repository.Lead, error)
	MarkCold(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, branchID *uuid.UUID) (map[repository.LeadStatus]int, error)
	ListSources(ctx context.Context) ([]repository.CatalogEntry, error)
	ListCarpetTypes(ctx context.Context) ([]repository.CatalogEntry, error)
	CreateSource(ctx context.Context, name string) (repository.CatalogEntry, error)
	CreateCarpetType(ctx context.Context, name string) (repository.CatalogEntry, error)
}

type Service struct {
	repo Repository
	bus  events.Bus
}

func New(repo Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Create takes in a new lead. The phone number is normalized to E.164 with
// an Indonesian default region, and a LeadCreated event fires so the
// follow-up module can auto-schedule the first contact.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		BranchID:     req.BranchID,
		UserID:       req.UserID,
		SourceID:     req.SourceID,
		CarpetTypeID: req.CarpetTypeID,
		Name:         sanitize.Text(req.Name),
		Phone:        phone.NormalizeE164(req.Phone),
		Email:        req.Email,
		Address:      sanitize.TextPtr(req.Address),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		BranchID:  lead.BranchID,
		UserID:    lead.UserID,
		LeadName:  lead.Name,
	})

	return transport.ToLeadResponse(lead), nil
}

// load fetches a lead and enforces the caller's branch scope. A nil scope
// (admin) sees every branch.
func (s *Service) load(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
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

func (s *Service) GetByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.load(ctx, id, scope)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]transport.LeadResponse, error) {
	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return transport.ToLeadResponses(leads), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, scope *uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if _, err := s.load(ctx, id, scope); err != nil {
		return transport.LeadResponse{}, err
	}

	params := repository.UpdateLeadParams{
		Name:         sanitize.TextPtr(req.Name),
		Email:        req.Email,
		Address:      sanitize.TextPtr(req.Address),
		SourceID:     req.SourceID,
		CarpetTypeID: req.CarpetTypeID,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	lead, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// ChangeStatus moves a lead along the pipeline. COLD and EXIT are terminal
// but a cold lead may be revived explicitly through this endpoint.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, scope *uuid.UUID, status string) (transport.LeadResponse, error) {
	target := repository.LeadStatus(status)
	if !target.Valid() {
		return transport.LeadResponse{}, apperr.Validation(fmt.Sprintf("unknown lead status %q", status))
	}
	if _, err := s.load(ctx, id, scope); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.SetStatus(ctx, id, target)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// LeadName resolves a lead's display name for notifications.
func (s *Service) LeadName(ctx context.Context, leadID uuid.UUID) (string, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	return lead.Name, nil
}

// MarkCold escalates a lead to the COLD terminal status. The operation is
// idempotent.
func (s *Service) MarkCold(ctx context.Context, leadID uuid.UUID) error {
	return s.repo.MarkCold(ctx, leadID)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, scope *uuid.UUID) error {
	if _, err := s.load(ctx, id, scope); err != nil {
		return err
	}

	err := s.repo.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

// CountByStatus returns per-status counts for the pipeline board.
func (s *Service) CountByStatus(ctx context.Context, branchID *uuid.UUID) (map[string]int, error) {
	counts, err := s.repo.CountByStatus(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return out, nil
}

// ListSources returns the lead source catalog.
func (s *Service) ListSources(ctx context.Context) ([]repository.CatalogEntry, error) {
	return s.repo.ListSources(ctx)
}

// ListCarpetTypes returns the carpet type catalog.
func (s *Service) ListCarpetTypes(ctx context.Context) ([]repository.CatalogEntry, error) {
	return s.repo.ListCarpetTypes(ctx)
}

// CreateSource adds a lead source.
func (s *Service) CreateSource(ctx context.Context, name string) (repository.CatalogEntry, error) {
	return s.repo.CreateSource(ctx, sanitize.Text(name))
}

// CreateCarpetType adds a carpet type.
func (s *Service) CreateCarpetType(ctx context.Context, name string) (repository.CatalogEntry, error) {
	return s.repo.CreateCarpetType(ctx, sanitize.Text(name))
}
