// Package leads provides the lead management bounded context module.
package leads

import (
	"karpet_crm_backend/internal/events"
	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/leads/handler"
	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/service"
	"karpet_crm_backend/internal/storage"
	"karpet_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module. store may be nil when
// object storage is not configured, which disables attachment routes.
func NewModule(pool *pgxpool.Pool, bus events.Bus, store storage.ObjectStore, attachmentBucket string, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus)

	var attachments *service.AttachmentService
	if store != nil {
		attachments = service.NewAttachmentService(repo, store, attachmentBucket)
	}

	h := handler.New(svc, attachments, val)
	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAttachmentRoutes(ctx.Protected.Group("/attachments"))
	m.handler.RegisterCatalogRoutes(ctx.Protected, ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
