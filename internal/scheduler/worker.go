package scheduler

import (
	"context"
	"errors"
	"fmt"

	"karpet_crm_backend/internal/events"
	fuprepo "karpet_crm_backend/internal/followups/repository"
	leadrepo "karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/platform/config"
	"karpet_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker processes reminder tasks. A reminder whose follow-up is no longer
// scheduled, or was moved to a different time, is dropped silently.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	followups *fuprepo.Repository
	leads     *leadrepo.Repository
	bus       events.Bus
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		followups: fuprepo.New(pool),
		leads:     leadrepo.New(pool),
		bus:       bus,
		log:       log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

// reminderCurrent reports whether an enqueued reminder still matches its
// record. A finalized record, or one rescheduled after the reminder was
// enqueued, invalidates the reminder; the reschedule enqueues a fresh one.
func reminderCurrent(record fuprepo.FollowUp, payload FollowUpReminderPayload) bool {
	if record.Status != fuprepo.StatusScheduled {
		return false
	}
	return record.ScheduledAt.Equal(payload.ScheduledAt)
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	followUpID, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return err
	}

	record, err := w.followups.GetByID(ctx, followUpID)
	if err != nil {
		if errors.Is(err, fuprepo.ErrNotFound) {
			return nil
		}
		return err
	}

	if !reminderCurrent(record, payload) {
		return nil
	}

	lead, err := w.leads.GetByID(ctx, record.LeadID)
	if err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			return nil
		}
		return err
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.FollowUpReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  record.ID,
		LeadID:      lead.ID,
		UserID:      record.UserID,
		StageKey:    record.StageKey,
		LeadName:    lead.Name,
		LeadPhone:   lead.Phone,
		ScheduledAt: record.ScheduledAt,
	})

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
