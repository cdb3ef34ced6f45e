package handler

import (
	"net/http"

	"karpet_crm_backend/internal/stages/repository"
	"karpet_crm_backend/internal/stages/service"
	"karpet_crm_backend/internal/stages/transport"
	"karpet_crm_backend/platform/httpkit"
	"karpet_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the stage registry.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new stages handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the read-only stage routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListActive)
	rg.GET("/progression", h.GetProgression)
}

// RegisterAdminRoutes registers the stage catalog management routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListAll)
	rg.POST("", h.Create)
	rg.PATCH("/:key", h.Update)
	rg.DELETE("/:key", h.Delete)
}

// ListActive handles GET /api/v1/stages
func (h *Handler) ListActive(c *gin.Context) {
	options, err := h.svc.ActiveStages(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"stages": options})
}

// GetProgression handles GET /api/v1/stages/progression
func (h *Handler) GetProgression(c *gin.Context) {
	progression, err := h.svc.Progression(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ProgressionResponse{Progression: progression})
}

// ListAll handles GET /api/v1/admin/stages
func (h *Handler) ListAll(c *gin.Context) {
	stages, err := h.svc.ListAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.StageResponse, len(stages))
	for i, stage := range stages {
		items[i] = toStageResponse(stage)
	}
	httpkit.OK(c, gin.H{"stages": items})
}

// Create handles POST /api/v1/admin/stages
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toStageResponse(stage))
}

// Update handles PATCH /api/v1/admin/stages/:key
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Update(c.Request.Context(), c.Param("key"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toStageResponse(stage))
}

// Delete handles DELETE /api/v1/admin/stages/:key
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("key")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func toStageResponse(stage repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:           stage.ID,
		Key:          stage.Key,
		Name:         stage.Name,
		DisplayOrder: stage.DisplayOrder,
		NextStageKey: stage.NextStageKey,
		IsActive:     stage.IsActive,
		CreatedAt:    stage.CreatedAt,
		UpdatedAt:    stage.UpdatedAt,
	}
}
