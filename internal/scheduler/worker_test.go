package scheduler

import (
	"testing"
	"time"

	fuprepo "karpet_crm_backend/internal/followups/repository"

	"github.com/google/uuid"
)

func TestReminderCurrent(t *testing.T) {
	at := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  fuprepo.Status
		recAt   time.Time
		taskAt  time.Time
		current bool
	}{
		{"scheduled and matching", fuprepo.StatusScheduled, at, at, true},
		{"completed record", fuprepo.StatusCompleted, at, at, false},
		{"no-response record", fuprepo.StatusNoResponse, at, at, false},
		{"rescheduled after enqueue", fuprepo.StatusScheduled, at.Add(48 * time.Hour), at, false},
		{"same instant, different zone", fuprepo.StatusScheduled, at.In(time.FixedZone("WIB", 7*3600)), at, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := fuprepo.FollowUp{Status: tt.status, ScheduledAt: tt.recAt}
			payload := FollowUpReminderPayload{ScheduledAt: tt.taskAt}
			if got := reminderCurrent(record, payload); got != tt.current {
				t.Fatalf("reminderCurrent = %v, want %v", got, tt.current)
			}
		})
	}
}

func TestFollowUpReminderPayload_CarriesScheduledTime(t *testing.T) {
	at := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	task, err := NewFollowUpReminderTask(FollowUpReminderPayload{
		FollowUpID:  uuid.New().String(),
		UserID:      uuid.New().String(),
		ScheduledAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.ScheduledAt.Equal(at) {
		t.Fatalf("expected scheduled time %v, got %v", at, payload.ScheduledAt)
	}
}
