// Package notification provides the in-app notification module and its
// domain event subscriptions.
package notification

import (
	"context"
	"fmt"

	"karpet_crm_backend/internal/events"
	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/notification/handler"
	"karpet_crm_backend/internal/notification/inapp"
	"karpet_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	resourceTypeLead     = "lead"
	resourceTypeFollowUp = "follow_up"
)

// Module is the notification module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *inapp.Service
}

// NewModule creates the notification module and wires its event
// subscriptions on the bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)
	svc := inapp.NewService(repo, log)
	h := handler.New(svc)

	m := &Module{handler: h, service: svc}
	m.subscribe(bus)
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notifications"
}

// Service returns the in-app notification service.
func (m *Module) Service() *inapp.Service {
	return m.service
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), events.HandlerFunc(m.onFollowUpScheduled))
	bus.Subscribe(events.FollowUpReminderDue{}.EventName(), events.HandlerFunc(m.onFollowUpReminderDue))
	bus.Subscribe(events.LeadWentCold{}.EventName(), events.HandlerFunc(m.onLeadWentCold))
}

func (m *Module) onFollowUpReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpReminderDue)
	if !ok {
		return nil
	}

	followUpID := e.FollowUpID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:       e.UserID,
		Title:        "Waktunya follow-up",
		Content:      fmt.Sprintf("Hubungi %s (%s) untuk tahap %s.", e.LeadName, e.LeadPhone, e.StageKey),
		ResourceID:   &followUpID,
		ResourceType: resourceTypeFollowUp,
		Category:     "info",
	})
}

func (m *Module) onFollowUpScheduled(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpScheduled)
	if !ok {
		return nil
	}
	if !e.AutoScheduled {
		return nil
	}

	followUpID := e.FollowUpID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:       e.UserID,
		Title:        "Follow-up dijadwalkan",
		Content:      fmt.Sprintf("Follow-up tahap %s (percobaan ke-%d) dijadwalkan %s.", e.StageKey, e.AttemptNumber, e.ScheduledAt.Format("02 Jan 2006 15:04")),
		ResourceID:   &followUpID,
		ResourceType: resourceTypeFollowUp,
		Category:     "info",
	})
}

func (m *Module) onLeadWentCold(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadWentCold)
	if !ok {
		return nil
	}

	leadID := e.LeadID
	return m.service.Send(ctx, inapp.SendParams{
		UserID:       e.UserID,
		Title:        "Lead menjadi COLD",
		Content:      "Lead tidak merespon setelah tiga kali follow-up dan otomatis ditandai COLD.",
		ResourceID:   &leadID,
		ResourceType: resourceTypeLead,
		Category:     "warning",
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
