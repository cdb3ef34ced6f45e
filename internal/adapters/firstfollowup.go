// Package adapters wires cross-module event subscriptions at the composition
// root.
package adapters

import (
	"context"

	"karpet_crm_backend/internal/events"
	fupservice "karpet_crm_backend/internal/followups/service"
	"karpet_crm_backend/platform/logger"
)

// FirstFollowUpSubscriber creates the first auto-scheduled follow-up when a
// lead is taken in.
type FirstFollowUpSubscriber struct {
	followups *fupservice.Service
	log       *logger.Logger
}

// NewFirstFollowUpSubscriber wires the subscription onto the bus.
func NewFirstFollowUpSubscriber(bus events.Bus, followups *fupservice.Service, log *logger.Logger) *FirstFollowUpSubscriber {
	s := &FirstFollowUpSubscriber{followups: followups, log: log}
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(s.onLeadCreated))
	return s
}

func (s *FirstFollowUpSubscriber) onLeadCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}

	record, err := s.followups.CreateFirstFollowUp(ctx, e.LeadID, e.UserID)
	if err != nil {
		s.log.Error("failed to create first follow-up", "error", err, "lead_id", e.LeadID)
		return err
	}
	if record != nil {
		s.log.FollowUpEvent("first_follow_up_created", record.ID.String(), record.LeadID.String(), record.StageKey)
	}
	return nil
}
