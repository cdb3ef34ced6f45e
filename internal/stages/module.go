// Package stages provides the stage registry bounded context module.
package stages

import (
	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/stages/cache"
	"karpet_crm_backend/internal/stages/handler"
	"karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/internal/stages/service"
	"karpet_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the stage registry module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the stages module. The projection cache
// is injected so the composition root can pick the in-memory or redis
// backend.
func NewModule(pool *pgxpool.Pool, projections cache.Cache, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, projections)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "stages"
}

// Service returns the stage registry service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts stage routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/stages"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/stages"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
