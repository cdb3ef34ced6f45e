// Package events defines the domain events exchanged between modules, plus a
// convenience re-export of the platform event bus.
package events

import (
	"time"

	platformevents "karpet_crm_backend/platform/events"
	"karpet_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-exported platform types so modules only import internal/events.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	InMemoryBus = platformevents.InMemoryBus
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// LeadCreated fires when a new lead is taken in. The followups module
// subscribes to create the first auto-scheduled follow-up.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID
	BranchID uuid.UUID
	UserID   uuid.UUID
	LeadName string
}

// EventName returns the event identifier.
func (LeadCreated) EventName() string { return "leads.created" }

// FollowUpScheduled fires when a follow-up record enters the scheduled state,
// whether manually created or auto-chained.
type FollowUpScheduled struct {
	BaseEvent
	FollowUpID    uuid.UUID
	LeadID        uuid.UUID
	UserID        uuid.UUID
	StageKey      string
	AttemptNumber int
	ScheduledAt   time.Time
	AutoScheduled bool
}

// EventName returns the event identifier.
func (FollowUpScheduled) EventName() string { return "followups.scheduled" }

// FollowUpCompleted fires when an attempt is recorded against a follow-up.
type FollowUpCompleted struct {
	BaseEvent
	FollowUpID  uuid.UUID
	LeadID      uuid.UUID
	UserID      uuid.UUID
	StageKey    string
	HasResponse bool
	Status      string
}

// EventName returns the event identifier.
func (FollowUpCompleted) EventName() string { return "followups.completed" }

// FollowUpReminderDue fires when a scheduled follow-up's reminder time
// arrives. Published by the scheduler worker.
type FollowUpReminderDue struct {
	BaseEvent
	FollowUpID  uuid.UUID
	LeadID      uuid.UUID
	UserID      uuid.UUID
	StageKey    string
	LeadName    string
	LeadPhone   string
	ScheduledAt time.Time
}

// EventName returns the event identifier.
func (FollowUpReminderDue) EventName() string { return "followups.reminder_due" }

// LeadWentCold fires when the policy engine escalates a lead to the COLD
// terminal status after exhausting all attempts without a response.
type LeadWentCold struct {
	BaseEvent
	LeadID   uuid.UUID
	UserID   uuid.UUID
	StageKey string
}

// EventName returns the event identifier.
func (LeadWentCold) EventName() string { return "leads.went_cold" }
