package service

import (
	"context"
	"errors"
	"testing"

	"karpet_crm_backend/internal/stages/cache"
	"karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/internal/stages/transport"
	"karpet_crm_backend/platform/apperr"
)

type stubRepo struct {
	stages      map[string]repository.Stage
	listActiveN int
}

func newStubRepo(stages ...repository.Stage) *stubRepo {
	r := &stubRepo{stages: make(map[string]repository.Stage)}
	for _, stage := range stages {
		r.stages[stage.Key] = stage
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateStageParams) (repository.Stage, error) {
	stage := repository.Stage{
		Key:          params.Key,
		Name:         params.Name,
		DisplayOrder: params.DisplayOrder,
		NextStageKey: params.NextStageKey,
		IsActive:     true,
	}
	r.stages[stage.Key] = stage
	return stage, nil
}

func (r *stubRepo) GetByKey(_ context.Context, key string) (repository.Stage, error) {
	stage, ok := r.stages[key]
	if !ok {
		return repository.Stage{}, repository.ErrNotFound
	}
	return stage, nil
}

func (r *stubRepo) ListActive(context.Context) ([]repository.Stage, error) {
	r.listActiveN++
	var out []repository.Stage
	for _, stage := range r.stages {
		if stage.IsActive {
			out = append(out, stage)
		}
	}
	return out, nil
}

func (r *stubRepo) ListAll(context.Context) ([]repository.Stage, error) {
	var out []repository.Stage
	for _, stage := range r.stages {
		out = append(out, stage)
	}
	return out, nil
}

func (r *stubRepo) Update(_ context.Context, key string, params repository.UpdateStageParams) (repository.Stage, error) {
	stage, ok := r.stages[key]
	if !ok {
		return repository.Stage{}, repository.ErrNotFound
	}
	if params.Name != nil {
		stage.Name = *params.Name
	}
	if params.ClearNext {
		stage.NextStageKey = nil
	} else if params.NextStageKey != nil {
		stage.NextStageKey = params.NextStageKey
	}
	if params.IsActive != nil {
		stage.IsActive = *params.IsActive
	}
	r.stages[key] = stage
	return stage, nil
}

func (r *stubRepo) SoftDelete(_ context.Context, key string) error {
	if _, ok := r.stages[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.stages, key)
	return nil
}

func strptr(s string) *string { return &s }

func chainOfFour() *stubRepo {
	return newStubRepo(
		repository.Stage{Key: "greeting", Name: "Greeting", NextStageKey: strptr("kebutuhan"), IsActive: true},
		repository.Stage{Key: "kebutuhan", Name: "Menggali Kebutuhan", NextStageKey: strptr("presentasi"), IsActive: true},
		repository.Stage{Key: "presentasi", Name: "Presentasi", NextStageKey: strptr("penawaran"), IsActive: true},
		repository.Stage{Key: "penawaran", Name: "Penawaran", IsActive: true},
	)
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	return appErr.Kind
}

func TestCheckNoCycle_RejectsSelfReference(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	_, err := svc.Update(context.Background(), "greeting", transport.UpdateStageRequest{
		NextStageKey: strptr("greeting"),
	})
	if kindOf(t, err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckNoCycle_RejectsLongCycle(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	// penawaran -> greeting closes greeting -> ... -> penawaran into a loop.
	_, err := svc.Update(context.Background(), "penawaran", transport.UpdateStageRequest{
		NextStageKey: strptr("greeting"),
	})
	if kindOf(t, err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckNoCycle_AllowsRepointingWithinChain(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	// Skipping a stage keeps the chain acyclic.
	stage, err := svc.Update(context.Background(), "greeting", transport.UpdateStageRequest{
		NextStageKey: strptr("presentasi"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage.NextStageKey == nil || *stage.NextStageKey != "presentasi" {
		t.Fatalf("expected next stage presentasi, got %v", stage.NextStageKey)
	}
}

func TestCreate_RejectsCycleThroughNewStage(t *testing.T) {
	repo := newStubRepo(
		repository.Stage{Key: "a", Name: "A", NextStageKey: strptr("b"), IsActive: true},
		repository.Stage{Key: "b", Name: "B", IsActive: true},
	)
	svc := New(repo, cache.NewMemory())

	// A fresh stage pointing into the existing chain is acyclic.
	_, err := svc.Create(context.Background(), transport.CreateStageRequest{
		Key: "c", Name: "C", NextStageKey: strptr("a"),
	})
	if err != nil {
		t.Fatalf("fresh stage pointing into the chain must pass: %v", err)
	}

	// Now a -> b, c -> a exist. Pointing b at c closes the loop.
	_, err = svc.Update(context.Background(), "b", transport.UpdateStageRequest{
		NextStageKey: strptr("c"),
	})
	if kindOf(t, err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdate_EmptyNextStageKeyClearsPointer(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	stage, err := svc.Update(context.Background(), "greeting", transport.UpdateStageRequest{
		NextStageKey: strptr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage.NextStageKey != nil {
		t.Fatalf("expected cleared pointer, got %v", *stage.NextStageKey)
	}
}

func TestNextStageOf_SkipsInactiveSuccessor(t *testing.T) {
	repo := chainOfFour()
	inactive := repo.stages["kebutuhan"]
	inactive.IsActive = false
	repo.stages["kebutuhan"] = inactive
	svc := New(repo, cache.NewMemory())

	next, err := svc.NextStageOf(context.Background(), "greeting")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("inactive successor must resolve to nil, got %+v", next)
	}
}

func TestNextStageOf_TerminalStageHasNoSuccessor(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	next, err := svc.NextStageOf(context.Background(), "penawaran")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil successor, got %+v", next)
	}
}

func TestNextStageOf_UnknownStageIsNotFound(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	_, err := svc.NextStageOf(context.Background(), "missing")
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActiveStages_ServedFromCacheUntilInvalidated(t *testing.T) {
	repo := chainOfFour()
	svc := New(repo, cache.NewMemory())
	ctx := context.Background()

	if _, err := svc.ActiveStages(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ActiveStages(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listActiveN != 1 {
		t.Fatalf("expected one repository read, got %d", repo.listActiveN)
	}

	if _, err := svc.Update(ctx, "greeting", transport.UpdateStageRequest{Name: strptr("Salam")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options, err := svc.ActiveStages(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listActiveN != 2 {
		t.Fatalf("update must invalidate the projection, reads = %d", repo.listActiveN)
	}

	var sawRenamed bool
	for _, option := range options {
		if option.Key == "greeting" && option.Name == "Salam" {
			sawRenamed = true
		}
	}
	if !sawRenamed {
		t.Fatal("expected renamed stage in refreshed projection")
	}
}

func TestProgression_OmitsTerminalStages(t *testing.T) {
	svc := New(chainOfFour(), cache.NewMemory())

	progression, err := svc.Progression(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(progression) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(progression))
	}
	if progression["greeting"] != "kebutuhan" {
		t.Fatalf("expected greeting -> kebutuhan, got %q", progression["greeting"])
	}
	if _, ok := progression["penawaran"]; ok {
		t.Fatal("terminal stage must not appear in the progression map")
	}
}
