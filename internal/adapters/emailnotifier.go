package adapters

import (
	"context"
	"errors"

	authrepo "karpet_crm_backend/internal/auth/repository"
	"karpet_crm_backend/internal/email"
	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// UserDirectory resolves user accounts for outbound mail.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (authrepo.User, error)
}

// LeadNameResolver resolves a lead's display name.
type LeadNameResolver interface {
	LeadName(ctx context.Context, leadID uuid.UUID) (string, error)
}

// EmailNotifier sends mail to the owning sales user when a reminder fires or
// a lead goes cold. Failures are logged, not retried.
type EmailNotifier struct {
	users  UserDirectory
	leads  LeadNameResolver
	sender email.Sender
	log    *logger.Logger
}

// NewEmailNotifier wires the subscriptions onto the bus.
func NewEmailNotifier(bus events.Bus, users UserDirectory, leads LeadNameResolver, sender email.Sender, log *logger.Logger) *EmailNotifier {
	n := &EmailNotifier{users: users, leads: leads, sender: sender, log: log}
	bus.Subscribe(events.FollowUpReminderDue{}.EventName(), events.HandlerFunc(n.onReminderDue))
	bus.Subscribe(events.LeadWentCold{}.EventName(), events.HandlerFunc(n.onLeadWentCold))
	return n
}

func (n *EmailNotifier) onReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpReminderDue)
	if !ok {
		return nil
	}

	user, err := n.users.GetUserByID(ctx, e.UserID)
	if err != nil {
		if errors.Is(err, authrepo.ErrNotFound) {
			return nil
		}
		return err
	}

	err = n.sender.SendFollowUpReminderEmail(ctx, user.Email, user.Name,
		e.LeadName, e.LeadPhone, e.StageKey, e.ScheduledAt.Format("02 Jan 2006 15:04"))
	if err != nil {
		n.log.Error("failed to send reminder email", "error", err, "user_id", e.UserID)
	}
	return nil
}

func (n *EmailNotifier) onLeadWentCold(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadWentCold)
	if !ok {
		return nil
	}

	user, err := n.users.GetUserByID(ctx, e.UserID)
	if err != nil {
		if errors.Is(err, authrepo.ErrNotFound) {
			return nil
		}
		return err
	}

	leadName, err := n.leads.LeadName(ctx, e.LeadID)
	if err != nil {
		leadName = "lead"
	}

	if err := n.sender.SendLeadWentColdEmail(ctx, user.Email, user.Name, leadName); err != nil {
		n.log.Error("failed to send lead-cold email", "error", err, "user_id", e.UserID)
	}
	return nil
}
