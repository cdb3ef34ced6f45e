package handler

import (
	"context"
	"net/http"

	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ListSources handles GET /api/v1/sources
func (h *Handler) ListSources(c *gin.Context) {
	items, err := h.svc.ListSources(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"sources": toCatalogResponses(items)})
}

// ListCarpetTypes handles GET /api/v1/carpet-types
func (h *Handler) ListCarpetTypes(c *gin.Context) {
	items, err := h.svc.ListCarpetTypes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"carpet_types": toCatalogResponses(items)})
}

// CreateSource handles POST /api/v1/admin/sources
func (h *Handler) CreateSource(c *gin.Context) {
	h.createCatalogEntry(c, h.svc.CreateSource)
}

// CreateCarpetType handles POST /api/v1/admin/carpet-types
func (h *Handler) CreateCarpetType(c *gin.Context) {
	h.createCatalogEntry(c, h.svc.CreateCarpetType)
}

func (h *Handler) createCatalogEntry(c *gin.Context, create func(context.Context, string) (repository.CatalogEntry, error)) {
	var req transport.CreateCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	entry, err := create(c.Request.Context(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toCatalogResponse(entry))
}

func toCatalogResponse(entry repository.CatalogEntry) transport.CatalogEntryResponse {
	return transport.CatalogEntryResponse{ID: entry.ID, Name: entry.Name}
}

func toCatalogResponses(items []repository.CatalogEntry) []transport.CatalogEntryResponse {
	out := make([]transport.CatalogEntryResponse, 0, len(items))
	for _, entry := range items {
		out = append(out, toCatalogResponse(entry))
	}
	return out
}
