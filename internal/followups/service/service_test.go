package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/followups/repository"
	"karpet_crm_backend/internal/followups/transport"
	stagerepo "karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

type stubRepo struct {
	record          repository.FollowUp
	getErr          error
	applyErr        error
	applied         *repository.ApplyCompletionParams
	created         []repository.CreateFollowUpParams
	listedParams    *repository.ListScheduledParams
	stats           repository.Statistics
	leadBranch      uuid.UUID
	leadAlreadyCold bool
	rescheduled     bool
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error) {
	r.created = append(r.created, params)
	return repository.FollowUp{
		ID:            uuid.New(),
		LeadID:        params.LeadID,
		UserID:        params.UserID,
		StageKey:      params.StageKey,
		AttemptCount:  params.AttemptCount,
		ScheduledAt:   params.ScheduledAt,
		AutoScheduled: params.AutoScheduled,
		Status:        repository.StatusScheduled,
		Version:       1,
	}, nil
}

func (r *stubRepo) GetByID(context.Context, uuid.UUID) (repository.FollowUp, error) {
	return r.record, r.getErr
}

func (r *stubRepo) LeadBranch(context.Context, uuid.UUID) (uuid.UUID, error) {
	return r.leadBranch, nil
}

func (r *stubRepo) ApplyCompletion(_ context.Context, params repository.ApplyCompletionParams) (repository.FollowUp, *repository.FollowUp, bool, error) {
	if r.applyErr != nil {
		return repository.FollowUp{}, nil, false, r.applyErr
	}
	r.applied = &params

	updated := r.record
	updated.Attempts = params.Update.Attempts
	updated.AdaRespon = params.Update.AdaRespon
	updated.CompletedAt = params.Update.CompletedAt
	updated.Status = params.Update.Status
	updated.Version = params.Update.ExpectedVersion + 1

	var successor *repository.FollowUp
	if params.Successor != nil {
		successor = &repository.FollowUp{
			ID:            uuid.New(),
			LeadID:        params.Successor.LeadID,
			UserID:        params.Successor.UserID,
			StageKey:      params.Successor.StageKey,
			AttemptCount:  params.Successor.AttemptCount,
			ScheduledAt:   params.Successor.ScheduledAt,
			AutoScheduled: params.Successor.AutoScheduled,
			Status:        repository.StatusScheduled,
			Version:       1,
		}
	}
	wentCold := params.MarkLeadCold != nil && !r.leadAlreadyCold
	return updated, successor, wentCold, nil
}

func (r *stubRepo) Reschedule(_ context.Context, id uuid.UUID, scheduledAt time.Time) (repository.FollowUp, error) {
	r.rescheduled = true
	record := r.record
	record.ID = id
	record.ScheduledAt = scheduledAt
	return record, nil
}

func (r *stubRepo) ListScheduled(_ context.Context, params repository.ListScheduledParams) ([]repository.FollowUp, error) {
	r.listedParams = &params
	return nil, nil
}

func (r *stubRepo) GetStatistics(context.Context, repository.StatisticsParams) (repository.Statistics, error) {
	return r.stats, nil
}

type stubStages struct {
	next   *stagerepo.Stage
	err    error
	called int
}

func (s *stubStages) NextStageOf(context.Context, string) (*stagerepo.Stage, error) {
	s.called++
	return s.next, s.err
}

type stubLeads struct {
	marked []uuid.UUID
}

func (s *stubLeads) MarkCold(_ context.Context, leadID uuid.UUID) error {
	s.marked = append(s.marked, leadID)
	return nil
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

func (b *captureBus) names() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type reminderCall struct {
	followUpID uuid.UUID
	userID     uuid.UUID
	runAt      time.Time
}

type stubReminders struct {
	calls []reminderCall
}

func (s *stubReminders) ScheduleFollowUpReminder(_ context.Context, followUpID, userID uuid.UUID, runAt time.Time) error {
	s.calls = append(s.calls, reminderCall{followUpID, userID, runAt})
	return nil
}

type stubConfig struct {
	intervalDays int
	auto         bool
	firstDays    int
	firstStage   string
	loc          *time.Location
}

func (c stubConfig) GetFollowUpDefaultIntervalDays() int { return c.intervalDays }
func (c stubConfig) GetFollowUpAutoScheduling() bool     { return c.auto }
func (c stubConfig) GetFollowUpFirstDays() int           { return c.firstDays }
func (c stubConfig) GetFollowUpFirstStage() string       { return c.firstStage }
func (c stubConfig) GetReportLocation() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return time.UTC
}

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	repo      *stubRepo
	stages    *stubStages
	leads     *stubLeads
	bus       *captureBus
	reminders *stubReminders
}

func newFixture(cfg stubConfig) *fixture {
	f := &fixture{
		repo:      &stubRepo{},
		stages:    &stubStages{},
		leads:     &stubLeads{},
		bus:       &captureBus{},
		reminders: &stubReminders{},
	}
	f.svc = New(f.repo, f.stages, f.leads, f.bus, f.reminders, cfg)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func scheduledRecord(completedSlots int) repository.FollowUp {
	record := repository.FollowUp{
		ID:           uuid.New(),
		LeadID:       uuid.New(),
		UserID:       uuid.New(),
		StageKey:     "greeting",
		AttemptCount: completedSlots + 1,
		ScheduledAt:  fixedNow,
		Status:       repository.StatusScheduled,
		Version:      2,
	}
	earlier := fixedNow.Add(-48 * time.Hour)
	for i := 0; i < completedSlots; i++ {
		record.Attempts[i] = repository.Attempt{Completed: true, CompletedAt: &earlier}
	}
	return record
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	return appErr.Kind
}

// owner is the record's assigned user acting without a branch scope.
func owner(record repository.FollowUp) Actor {
	return Actor{UserID: record.UserID}
}

func TestCompleteFollowUp_ResponseWithProgressChainsNextStage(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.stages.next = &stagerepo.Stage{Key: "kebutuhan"}

	result, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse:         true,
		ProgressToNextStage: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	applied := f.repo.applied
	if applied == nil {
		t.Fatal("expected ApplyCompletion to be called")
	}
	if !applied.Update.Attempts[0].Completed {
		t.Fatal("expected first attempt slot marked completed")
	}
	if applied.Update.Status != repository.StatusCompleted {
		t.Fatalf("expected status completed, got %s", applied.Update.Status)
	}
	if applied.Update.CompletedAt == nil || !applied.Update.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completion timestamp %v, got %v", fixedNow, applied.Update.CompletedAt)
	}
	if applied.Successor == nil {
		t.Fatal("expected a successor follow-up")
	}
	if applied.Successor.StageKey != "kebutuhan" || applied.Successor.AttemptCount != 1 {
		t.Fatalf("expected successor kebutuhan attempt 1, got %s attempt %d",
			applied.Successor.StageKey, applied.Successor.AttemptCount)
	}
	if !applied.Successor.AutoScheduled {
		t.Fatal("expected successor to be auto-scheduled")
	}
	want := fixedNow.AddDate(0, 0, 3)
	if !applied.Successor.ScheduledAt.Equal(want) {
		t.Fatalf("expected successor scheduled at %v, got %v", want, applied.Successor.ScheduledAt)
	}
	if applied.MarkLeadCold != nil {
		t.Fatal("did not expect lead escalation")
	}
	if result.Successor == nil || result.LeadMarkedCold {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(f.reminders.calls) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(f.reminders.calls))
	}
}

func TestCompleteFollowUp_RequestedNextStageOverridesRegistry(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.stages.next = &stagerepo.Stage{Key: "kebutuhan"}
	requested := "penawaran"

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse:         true,
		ProgressToNextStage: true,
		NextStageKey:        &requested,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.repo.applied.Successor == nil || f.repo.applied.Successor.StageKey != "penawaran" {
		t.Fatalf("expected successor penawaran, got %+v", f.repo.applied.Successor)
	}
	if f.stages.called != 0 {
		t.Fatal("registry lookup should be skipped when a next stage is requested")
	}
}

func TestCompleteFollowUp_NoNextStageFallsBackToSameStage(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.stages.next = nil

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse:         true,
		ProgressToNextStage: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	successor := f.repo.applied.Successor
	if successor == nil || successor.StageKey != "greeting" || successor.AttemptCount != 2 {
		t.Fatalf("expected same-stage successor attempt 2, got %+v", successor)
	}
}

func TestCompleteFollowUp_ResponseWithoutProgressSchedulesNextSlot(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.repo.applied.Update.Status != repository.StatusCompleted {
		t.Fatalf("response should finalize the record, got %s", f.repo.applied.Update.Status)
	}
	successor := f.repo.applied.Successor
	if successor == nil || successor.StageKey != "greeting" || successor.AttemptCount != 2 {
		t.Fatalf("expected same-stage successor attempt 2, got %+v", successor)
	}
}

func TestCompleteFollowUp_NoResponseKeepsRecordScheduled(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(1)

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update := f.repo.applied.Update
	if !update.Attempts[1].Completed {
		t.Fatal("expected second attempt slot marked completed")
	}
	if update.Status != repository.StatusScheduled {
		t.Fatalf("two silent attempts should not finalize, got %s", update.Status)
	}
	if update.CompletedAt != nil {
		t.Fatal("expected no completion timestamp")
	}
	successor := f.repo.applied.Successor
	if successor == nil || successor.AttemptCount != 3 {
		t.Fatalf("expected retry at attempt 3, got %+v", successor)
	}
}

func TestCompleteFollowUp_ThirdSilentAttemptMarksLeadCold(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(2)

	result, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	applied := f.repo.applied
	if applied.Update.Status != repository.StatusNoResponse {
		t.Fatalf("expected status no_response, got %s", applied.Update.Status)
	}
	if applied.Successor != nil {
		t.Fatal("exhausted record should not chain a successor")
	}
	if applied.MarkLeadCold == nil || *applied.MarkLeadCold != f.repo.record.LeadID {
		t.Fatalf("expected lead %s escalated, got %v", f.repo.record.LeadID, applied.MarkLeadCold)
	}
	if !result.LeadMarkedCold {
		t.Fatal("expected LeadMarkedCold in result")
	}

	var sawCold bool
	for _, name := range f.bus.names() {
		if name == (events.LeadWentCold{}).EventName() {
			sawCold = true
		}
	}
	if !sawCold {
		t.Fatal("expected LeadWentCold event")
	}
}

func TestCompleteFollowUp_AlreadyColdLeadSkipsDuplicateColdEvent(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(2)
	f.repo.leadAlreadyCold = true

	result, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.LeadMarkedCold {
		t.Fatal("the lead is cold either way")
	}

	for _, name := range f.bus.names() {
		if name == (events.LeadWentCold{}).EventName() {
			t.Fatal("an already-cold lead must not announce cold again")
		}
	}
}

func TestMarkLeadCold_RepeatedCallsAreNoOps(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	leadID := uuid.New()

	if err := f.svc.MarkLeadCold(context.Background(), leadID); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := f.svc.MarkLeadCold(context.Background(), leadID); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(f.leads.marked) != 2 {
		t.Fatalf("expected both calls delegated, got %d", len(f.leads.marked))
	}
}

func TestCompleteFollowUp_AutoSchedulingDisabledNeverEscalates(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: false})
	f.repo.record = scheduledRecord(2)

	result, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.repo.applied.Update.Status != repository.StatusNoResponse {
		t.Fatalf("record should still finalize, got %s", f.repo.applied.Update.Status)
	}
	if f.repo.applied.Successor != nil || f.repo.applied.MarkLeadCold != nil {
		t.Fatal("disabled auto-scheduling must suppress chaining and escalation")
	}
	if result.LeadMarkedCold {
		t.Fatal("lead must not be marked cold with auto-scheduling off")
	}
}

func TestCompleteFollowUp_AutoNextFalseSuppressesChaining(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	autoNext := false

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{
		HasResponse: true,
		AutoNext:    &autoNext,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.repo.applied.Successor != nil {
		t.Fatal("auto_next=false must suppress the successor")
	}
}

func TestCompleteFollowUp_FinalizedRecordRejected(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.repo.record.Status = repository.StatusCompleted

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{HasResponse: true})
	if kindOf(t, err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.repo.applied != nil {
		t.Fatal("finalized record must not be written")
	}
}

func TestCompleteFollowUp_VersionConflictSurfacesAsConflict(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.repo.applyErr = repository.ErrVersionConflict

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID, owner(f.repo.record), transport.CompleteFollowUpRequest{HasResponse: true})
	if kindOf(t, err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCompleteFollowUp_MissingRecordIsNotFound(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.getErr = repository.ErrNotFound

	_, err := f.svc.CompleteFollowUp(context.Background(), uuid.New(), Actor{UserID: uuid.New()}, transport.CompleteFollowUpRequest{})
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateFirstFollowUp_DisabledIsNoOp(t *testing.T) {
	f := newFixture(stubConfig{auto: false, firstDays: 1, firstStage: "greeting"})

	record, err := f.svc.CreateFirstFollowUp(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatal("expected no record with auto-scheduling off")
	}
	if len(f.repo.created) != 0 {
		t.Fatal("expected no insert")
	}
}

func TestCreateFirstFollowUp_SchedulesConfiguredFirstStage(t *testing.T) {
	f := newFixture(stubConfig{auto: true, firstDays: 2, firstStage: "greeting"})
	leadID := uuid.New()

	record, err := f.svc.CreateFirstFollowUp(context.Background(), leadID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}

	created := f.repo.created[0]
	if created.StageKey != "greeting" || created.AttemptCount != 1 || !created.AutoScheduled {
		t.Fatalf("unexpected first follow-up params: %+v", created)
	}
	want := fixedNow.AddDate(0, 0, 2)
	if !created.ScheduledAt.Equal(want) {
		t.Fatalf("expected scheduled at %v, got %v", want, created.ScheduledAt)
	}
	if len(f.reminders.calls) != 1 {
		t.Fatalf("expected a reminder, got %d", len(f.reminders.calls))
	}
}

func TestCreateFollowUp_RejectsAttemptOutOfRange(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	attempt := 4

	_, err := f.svc.CreateFollowUp(context.Background(), Actor{UserID: uuid.New()}, transport.CreateFollowUpRequest{
		LeadID:        uuid.New(),
		StageKey:      "greeting",
		AttemptNumber: &attempt,
	})
	if kindOf(t, err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateFollowUp_OtherBranchLeadForbidden(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.leadBranch = uuid.New()
	callerBranch := uuid.New()

	_, err := f.svc.CreateFollowUp(context.Background(), Actor{UserID: uuid.New(), BranchID: &callerBranch}, transport.CreateFollowUpRequest{
		LeadID:   uuid.New(),
		StageKey: "greeting",
	})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Fatal("expected no insert for another branch's lead")
	}
}

func TestCompleteFollowUp_OtherBranchForbidden(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.repo.leadBranch = uuid.New()
	callerBranch := uuid.New()

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID,
		Actor{UserID: f.repo.record.UserID, BranchID: &callerBranch},
		transport.CompleteFollowUpRequest{HasResponse: true})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.repo.applied != nil {
		t.Fatal("another branch's record must not be written")
	}
}

func TestCompleteFollowUp_NonOwnerSameBranchForbidden(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	branch := uuid.New()
	f.repo.leadBranch = branch

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID,
		Actor{UserID: uuid.New(), BranchID: &branch},
		transport.CompleteFollowUpRequest{HasResponse: true})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.repo.applied != nil {
		t.Fatal("another user's record must not be written")
	}
}

func TestCompleteFollowUp_OwnerWithinBranchAllowed(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	branch := uuid.New()
	f.repo.leadBranch = branch

	_, err := f.svc.CompleteFollowUp(context.Background(), f.repo.record.ID,
		Actor{UserID: f.repo.record.UserID, BranchID: &branch},
		transport.CompleteFollowUpRequest{HasResponse: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.applied == nil {
		t.Fatal("expected the completion to be written")
	}
}

func TestReschedule_OtherBranchForbidden(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.record = scheduledRecord(0)
	f.repo.leadBranch = uuid.New()
	callerBranch := uuid.New()

	_, err := f.svc.Reschedule(context.Background(), f.repo.record.ID,
		Actor{UserID: uuid.New(), BranchID: &callerBranch}, fixedNow.AddDate(0, 0, 5))
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.repo.rescheduled {
		t.Fatal("another branch's record must not be rescheduled")
	}
}

func TestStatistics_RatesAndZeroTotal(t *testing.T) {
	f := newFixture(stubConfig{intervalDays: 3, auto: true})
	f.repo.stats = repository.Statistics{Total: 3, Completed: 2, NoResponse: 1, Responded: 2}

	stats, err := f.svc.Statistics(context.Background(), uuid.New(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ResponseRate != 66.67 {
		t.Fatalf("expected rate 66.67, got %v", stats.ResponseRate)
	}

	f.repo.stats = repository.Statistics{}
	stats, err = f.svc.Statistics(context.Background(), uuid.New(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ResponseRate != 0 {
		t.Fatalf("expected zero rate for empty stats, got %v", stats.ResponseRate)
	}
}

func TestTodaysFollowUps_UsesReportTimezoneDayBounds(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	f := newFixture(stubConfig{intervalDays: 3, auto: true, loc: jakarta})
	// 23:30 UTC on March 10 is already March 11 in Jakarta.
	f.svc.now = func() time.Time { return time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC) }

	_, err := f.svc.TodaysFollowUps(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := f.repo.listedParams
	if params == nil || params.From == nil || params.Until == nil {
		t.Fatal("expected bounded list query")
	}
	wantStart := time.Date(2025, 3, 11, 0, 0, 0, 0, jakarta)
	if !params.From.Equal(wantStart) {
		t.Fatalf("expected day start %v, got %v", wantStart, params.From)
	}
	if !params.Until.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Fatalf("expected day end %v, got %v", wantStart.AddDate(0, 0, 1), params.Until)
	}
}
