// Package followups provides the follow-up lifecycle bounded context module.
package followups

import (
	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/followups/handler"
	"karpet_crm_backend/internal/followups/repository"
	"karpet_crm_backend/internal/followups/service"
	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/platform/config"
	"karpet_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the follow-ups module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the follow-ups module. The stage
// resolver, lead status writer, and reminder scheduler are ports provided by
// the composition root; reminders may be nil.
func NewModule(
	pool *pgxpool.Pool,
	stages service.StageResolver,
	leads service.LeadStatusWriter,
	bus events.Bus,
	reminders service.ReminderScheduler,
	cfg config.FollowUpConfig,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, stages, leads, bus, reminders, cfg)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "followups"
}

// Service returns the follow-up service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts follow-up routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/followups"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
