// Package service implements the follow-up lifecycle policy engine: staged,
// bounded-retry contact cadence with auto-scheduling and auto-escalation of
// unresponsive leads to the COLD terminal status.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/followups/repository"
	"karpet_crm_backend/internal/followups/transport"
	stagerepo "karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/platform/apperr"
	"karpet_crm_backend/platform/config"
	"karpet_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access the policy engine needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.FollowUp, error)
	LeadBranch(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error)
	ApplyCompletion(ctx context.Context, params repository.ApplyCompletionParams) (repository.FollowUp, *repository.FollowUp, bool, error)
	Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (repository.FollowUp, error)
	ListScheduled(ctx context.Context, params repository.ListScheduledParams) ([]repository.FollowUp, error)
	GetStatistics(ctx context.Context, params repository.StatisticsParams) (repository.Statistics, error)
}

// Actor identifies the caller of a follow-up mutation. A nil BranchID means
// the caller is not branch-scoped (admin) and may act across branches.
type Actor struct {
	UserID   uuid.UUID
	BranchID *uuid.UUID
}

// StageResolver resolves stages and their progression pointers. Implemented
// by the stage registry service.
type StageResolver interface {
	NextStageOf(ctx context.Context, key string) (*stagerepo.Stage, error)
}

// LeadStatusWriter updates a lead's status outside the completion
// transaction, for the standalone mark-cold operation.
type LeadStatusWriter interface {
	MarkCold(ctx context.Context, leadID uuid.UUID) error
}

// ReminderScheduler enqueues a due-reminder for a scheduled follow-up.
// Nil-safe: a nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleFollowUpReminder(ctx context.Context, followUpID, userID uuid.UUID, runAt time.Time) error
}

// Service is the follow-up policy engine.
type Service struct {
	repo      Repository
	stages    StageResolver
	leads     LeadStatusWriter
	bus       events.Bus
	reminders ReminderScheduler
	cfg       config.FollowUpConfig
	now       func() time.Time
}

// New creates the policy engine. reminders may be nil.
func New(repo Repository, stages StageResolver, leads LeadStatusWriter, bus events.Bus, reminders ReminderScheduler, cfg config.FollowUpConfig) *Service {
	return &Service{
		repo:      repo,
		stages:    stages,
		leads:     leads,
		bus:       bus,
		reminders: reminders,
		cfg:       cfg,
		now:       time.Now,
	}
}

// checkLeadBranch rejects branch-scoped callers acting on another branch's
// lead. Callers without a branch pass unconditionally.
func (s *Service) checkLeadBranch(ctx context.Context, leadID uuid.UUID, actor Actor) error {
	if actor.BranchID == nil {
		return nil
	}
	branch, err := s.repo.LeadBranch(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}
	if branch != *actor.BranchID {
		return apperr.Forbidden("lead belongs to another branch")
	}
	return nil
}

// CreateFollowUp inserts a new scheduled record. A zero ScheduledAt defaults
// to now plus the configured interval.
func (s *Service) CreateFollowUp(ctx context.Context, actor Actor, req transport.CreateFollowUpRequest) (repository.FollowUp, error) {
	if err := s.checkLeadBranch(ctx, req.LeadID, actor); err != nil {
		return repository.FollowUp{}, err
	}

	scheduledAt := s.defaultScheduleTime()
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}

	attempt := 1
	if req.AttemptNumber != nil {
		attempt = *req.AttemptNumber
	}
	if attempt < 1 || attempt > repository.MaxAttempts {
		return repository.FollowUp{}, apperr.Validation(
			fmt.Sprintf("attempt number must be between 1 and %d", repository.MaxAttempts))
	}

	record, err := s.repo.Create(ctx, repository.CreateFollowUpParams{
		LeadID:        req.LeadID,
		UserID:        actor.UserID,
		StageKey:      req.StageKey,
		AttemptCount:  attempt,
		ScheduledAt:   scheduledAt,
		AutoScheduled: false,
	})
	if err != nil {
		return repository.FollowUp{}, err
	}

	s.announceScheduled(ctx, record)
	return record, nil
}

// CreateFirstFollowUp is the lead-intake entry point. It is a no-op when
// auto-scheduling is disabled; otherwise it schedules attempt 1 at the
// configured first stage.
func (s *Service) CreateFirstFollowUp(ctx context.Context, leadID, userID uuid.UUID) (*repository.FollowUp, error) {
	if !s.cfg.GetFollowUpAutoScheduling() {
		return nil, nil
	}

	record, err := s.repo.Create(ctx, repository.CreateFollowUpParams{
		LeadID:        leadID,
		UserID:        userID,
		StageKey:      s.cfg.GetFollowUpFirstStage(),
		AttemptCount:  1,
		ScheduledAt:   s.now().AddDate(0, 0, s.cfg.GetFollowUpFirstDays()),
		AutoScheduled: true,
	})
	if err != nil {
		return nil, err
	}

	s.announceScheduled(ctx, record)
	return &record, nil
}

// CompleteFollowUp records the outcome of one contact attempt and runs the
// progression decision. The record mutation, any successor insert, and any
// lead escalation commit as one transaction. Branch-scoped callers may only
// complete follow-ups assigned to them within their own branch.
func (s *Service) CompleteFollowUp(ctx context.Context, id uuid.UUID, actor Actor, req transport.CompleteFollowUpRequest) (transport.CompletionResult, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CompletionResult{}, apperr.NotFound("follow-up not found")
		}
		return transport.CompletionResult{}, err
	}

	if err := s.checkLeadBranch(ctx, record.LeadID, actor); err != nil {
		return transport.CompletionResult{}, err
	}
	if actor.BranchID != nil && record.UserID != actor.UserID {
		return transport.CompletionResult{}, apperr.Forbidden("follow-up is assigned to another user")
	}

	if record.Status != repository.StatusScheduled {
		return transport.CompletionResult{}, apperr.Conflict("follow-up is already finalized")
	}

	now := s.now()
	update := repository.CompletionUpdate{
		ID:              record.ID,
		ExpectedVersion: record.Version,
		Attempts:        record.Attempts,
		AdaRespon:       req.HasResponse,
		Notes:           sanitize.TextPtr(req.Notes),
		Outcome:         sanitize.TextPtr(req.Outcome),
		CompletedAt:     record.CompletedAt,
		Status:          record.Status,
	}

	// Mark the lowest unused attempt slot.
	n := record.NextAttemptNumber()
	if n <= repository.MaxAttempts {
		update.Attempts[n-1] = repository.Attempt{Completed: true, CompletedAt: &now}
	}

	completedNow := countCompleted(update.Attempts)

	// A response, or exhausting the third slot, finalizes the record.
	if req.HasResponse || completedNow == repository.MaxAttempts {
		update.CompletedAt = &now
		if req.HasResponse {
			update.Status = repository.StatusCompleted
		} else {
			update.Status = repository.StatusNoResponse
		}
	}

	decision, err := s.decideProgression(ctx, record, req, completedNow)
	if err != nil {
		return transport.CompletionResult{}, err
	}

	params := repository.ApplyCompletionParams{Update: update}
	if decision.successorStage != "" {
		params.Successor = &repository.CreateFollowUpParams{
			LeadID:        record.LeadID,
			UserID:        record.UserID,
			StageKey:      decision.successorStage,
			AttemptCount:  decision.successorAttempt,
			ScheduledAt:   s.defaultScheduleTime(),
			AutoScheduled: true,
		}
	}
	if decision.markCold {
		leadID := record.LeadID
		params.MarkLeadCold = &leadID
	}

	updated, successor, leadWentCold, err := s.repo.ApplyCompletion(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return transport.CompletionResult{}, apperr.Conflict("follow-up was completed by someone else")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CompletionResult{}, apperr.NotFound("follow-up not found")
		}
		return transport.CompletionResult{}, err
	}

	s.bus.Publish(ctx, events.FollowUpCompleted{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  updated.ID,
		LeadID:      updated.LeadID,
		UserID:      updated.UserID,
		StageKey:    updated.StageKey,
		HasResponse: req.HasResponse,
		Status:      string(updated.Status),
	})
	if successor != nil {
		s.announceScheduled(ctx, *successor)
	}
	// An already-cold lead stays cold without a second cold announcement.
	if decision.markCold && leadWentCold {
		s.bus.Publish(ctx, events.LeadWentCold{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.LeadID,
			UserID:    updated.UserID,
			StageKey:  updated.StageKey,
		})
	}

	return transport.CompletionResult{Record: updated, Successor: successor, LeadMarkedCold: decision.markCold}, nil
}

// progressionDecision is the outcome of the policy branches (a)-(d).
type progressionDecision struct {
	successorStage   string
	successorAttempt int
	markCold         bool
}

// decideProgression evaluates the progression branches in priority order.
// Every branch is gated on auto-scheduling being enabled: with the gate off,
// nothing fires, including COLD escalation.
func (s *Service) decideProgression(ctx context.Context, record repository.FollowUp, req transport.CompleteFollowUpRequest, completedNow int) (progressionDecision, error) {
	var decision progressionDecision

	if !s.cfg.GetFollowUpAutoScheduling() || !req.AutoScheduleNext() {
		return decision, nil
	}

	switch {
	case req.HasResponse && req.ProgressToNextStage:
		nextKey, err := s.resolveNextStage(ctx, record.StageKey, req.NextStageKey)
		if err != nil {
			return decision, err
		}
		if nextKey == "" {
			// No successor stage available; treated as no stage advancement.
			if completedNow < repository.MaxAttempts {
				decision.successorStage = record.StageKey
				decision.successorAttempt = completedNow + 1
			}
			return decision, nil
		}
		decision.successorStage = nextKey
		decision.successorAttempt = 1

	case req.HasResponse && completedNow < repository.MaxAttempts:
		decision.successorStage = record.StageKey
		decision.successorAttempt = completedNow + 1

	case !req.HasResponse && completedNow < repository.MaxAttempts:
		decision.successorStage = record.StageKey
		decision.successorAttempt = completedNow + 1

	case !req.HasResponse && completedNow == repository.MaxAttempts:
		decision.markCold = true
	}

	return decision, nil
}

// resolveNextStage picks the caller-supplied next stage, falling back to the
// registry's progression chain.
func (s *Service) resolveNextStage(ctx context.Context, currentKey string, requested *string) (string, error) {
	if requested != nil && *requested != "" {
		return *requested, nil
	}

	next, err := s.stages.NextStageOf(ctx, currentKey)
	if err != nil {
		return "", err
	}
	if next == nil {
		return "", nil
	}
	return next.Key, nil
}

// Reschedule moves a scheduled record to a new time. Branch-scoped callers
// may only touch records of their own branch.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, actor Actor, scheduledAt time.Time) (repository.FollowUp, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.FollowUp{}, apperr.NotFound("follow-up not found")
		}
		return repository.FollowUp{}, err
	}
	if err := s.checkLeadBranch(ctx, record.LeadID, actor); err != nil {
		return repository.FollowUp{}, err
	}

	record, err = s.repo.Reschedule(ctx, id, scheduledAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.FollowUp{}, apperr.NotFound("no scheduled follow-up to reschedule")
		}
		return repository.FollowUp{}, err
	}

	s.announceScheduled(ctx, record)
	return record, nil
}

// MarkLeadCold unconditionally sets the lead's status to COLD. Marking an
// already-cold lead is a no-op at the storage layer.
func (s *Service) MarkLeadCold(ctx context.Context, leadID uuid.UUID) error {
	return s.leads.MarkCold(ctx, leadID)
}

func (s *Service) defaultScheduleTime() time.Time {
	return s.now().AddDate(0, 0, s.cfg.GetFollowUpDefaultIntervalDays())
}

func (s *Service) announceScheduled(ctx context.Context, record repository.FollowUp) {
	s.bus.Publish(ctx, events.FollowUpScheduled{
		BaseEvent:     events.NewBaseEvent(),
		FollowUpID:    record.ID,
		LeadID:        record.LeadID,
		UserID:        record.UserID,
		StageKey:      record.StageKey,
		AttemptNumber: record.AttemptCount,
		ScheduledAt:   record.ScheduledAt,
		AutoScheduled: record.AutoScheduled,
	})

	if s.reminders != nil {
		_ = s.reminders.ScheduleFollowUpReminder(ctx, record.ID, record.UserID, record.ScheduledAt)
	}
}

func countCompleted(attempts [repository.MaxAttempts]repository.Attempt) int {
	count := 0
	for _, attempt := range attempts {
		if attempt.Completed {
			count++
		}
	}
	return count
}
