package service

import (
	"context"
	"errors"
	"testing"

	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

type stubRepo struct {
	lead        repository.Lead
	getErr      error
	updated     bool
	statusSet   *repository.LeadStatus
	deactivated bool
	coldCalls   int
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	return repository.Lead{
		ID:       uuid.New(),
		BranchID: params.BranchID,
		UserID:   params.UserID,
		Name:     params.Name,
		Phone:    params.Phone,
		Status:   repository.StatusWarm,
		IsActive: true,
	}, nil
}

func (r *stubRepo) GetByID(context.Context, uuid.UUID) (repository.Lead, error) {
	return r.lead, r.getErr
}

func (r *stubRepo) List(context.Context, repository.ListParams) ([]repository.Lead, error) {
	return nil, nil
}

func (r *stubRepo) Update(_ context.Context, _ uuid.UUID, _ repository.UpdateLeadParams) (repository.Lead, error) {
	r.updated = true
	return r.lead, nil
}

func (r *stubRepo) SetStatus(_ context.Context, _ uuid.UUID, status repository.LeadStatus) (repository.Lead, error) {
	r.statusSet = &status
	lead := r.lead
	lead.Status = status
	return lead, nil
}

func (r *stubRepo) MarkCold(context.Context, uuid.UUID) error {
	r.coldCalls++
	return nil
}

func (r *stubRepo) Deactivate(context.Context, uuid.UUID) error {
	r.deactivated = true
	return nil
}

func (r *stubRepo) CountByStatus(context.Context, *uuid.UUID) (map[repository.LeadStatus]int, error) {
	return nil, nil
}

func (r *stubRepo) ListSources(context.Context) ([]repository.CatalogEntry, error) {
	return nil, nil
}

func (r *stubRepo) ListCarpetTypes(context.Context) ([]repository.CatalogEntry, error) {
	return nil, nil
}

func (r *stubRepo) CreateSource(_ context.Context, name string) (repository.CatalogEntry, error) {
	return repository.CatalogEntry{ID: uuid.New(), Name: name}, nil
}

func (r *stubRepo) CreateCarpetType(_ context.Context, name string) (repository.CatalogEntry, error) {
	return repository.CatalogEntry{ID: uuid.New(), Name: name}, nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	return appErr.Kind
}

func activeLead() repository.Lead {
	return repository.Lead{
		ID:       uuid.New(),
		BranchID: uuid.New(),
		UserID:   uuid.New(),
		Name:     "Ibu Sari",
		Phone:    "+628123456789",
		Status:   repository.StatusWarm,
		IsActive: true,
	}
}

func TestGetByID_OtherBranchForbidden(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})
	otherBranch := uuid.New()

	_, err := svc.GetByID(context.Background(), repo.lead.ID, &otherBranch)
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGetByID_BranchScope(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})

	if _, err := svc.GetByID(context.Background(), repo.lead.ID, &repo.lead.BranchID); err != nil {
		t.Fatalf("same branch should pass: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), repo.lead.ID, nil); err != nil {
		t.Fatalf("admin scope should pass: %v", err)
	}
}

func TestGetByID_MissingLeadIsNotFound(t *testing.T) {
	repo := &stubRepo{getErr: repository.ErrNotFound}
	svc := New(repo, &captureBus{})

	_, err := svc.GetByID(context.Background(), uuid.New(), nil)
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_OtherBranchForbidden(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})
	otherBranch := uuid.New()

	_, err := svc.Update(context.Background(), repo.lead.ID, &otherBranch, transport.UpdateLeadRequest{})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if repo.updated {
		t.Fatal("another branch's lead must not be written")
	}
}

func TestChangeStatus_OtherBranchForbidden(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})
	otherBranch := uuid.New()

	_, err := svc.ChangeStatus(context.Background(), repo.lead.ID, &otherBranch, "hot")
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if repo.statusSet != nil {
		t.Fatal("another branch's lead must not change status")
	}
}

func TestChangeStatus_SameBranchAllowed(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})

	lead, err := svc.ChangeStatus(context.Background(), repo.lead.ID, &repo.lead.BranchID, "hot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Status != "hot" {
		t.Fatalf("expected hot, got %s", lead.Status)
	}
}

func TestDeactivate_OtherBranchForbidden(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})
	otherBranch := uuid.New()

	err := svc.Deactivate(context.Background(), repo.lead.ID, &otherBranch)
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if repo.deactivated {
		t.Fatal("another branch's lead must not be deactivated")
	}
}

func TestMarkCold_RepeatedCallsAreNoOps(t *testing.T) {
	repo := &stubRepo{lead: activeLead()}
	svc := New(repo, &captureBus{})

	if err := svc.MarkCold(context.Background(), repo.lead.ID); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.MarkCold(context.Background(), repo.lead.ID); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if repo.coldCalls != 2 {
		t.Fatalf("expected both calls to reach storage, got %d", repo.coldCalls)
	}
}
