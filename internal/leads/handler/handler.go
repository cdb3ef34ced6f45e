// Package handler exposes the leads HTTP surface.
package handler

import (
	"net/http"
	"strconv"

	"karpet_crm_backend/internal/leads/repository"
	"karpet_crm_backend/internal/leads/service"
	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/platform/httpkit"
	"karpet_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead id"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc         *service.Service
	attachments *service.AttachmentService
	val         *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, attachments *service.AttachmentService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, attachments: attachments, val: val}
}

// RegisterRoutes registers the lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/counts", h.Counts)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
	rg.PATCH("/:id/status", h.ChangeStatus)

	if h.attachments != nil {
		rg.POST("/:id/attachments/upload-url", h.RequestUpload)
		rg.POST("/:id/attachments", h.ConfirmUpload)
		rg.GET("/:id/attachments", h.ListAttachments)
	}
}

// RegisterAttachmentRoutes registers routes addressed by attachment id.
func (h *Handler) RegisterAttachmentRoutes(rg *gin.RouterGroup) {
	if h.attachments == nil {
		return
	}
	rg.GET("/:id/download-url", h.AttachmentDownloadURL)
	rg.DELETE("/:id", h.DeleteAttachment)
}

// RegisterCatalogRoutes registers the source and carpet type catalogs.
func (h *Handler) RegisterCatalogRoutes(protected, admin *gin.RouterGroup) {
	protected.GET("/sources", h.ListSources)
	protected.GET("/carpet-types", h.ListCarpetTypes)
	admin.POST("/sources", h.CreateSource)
	admin.POST("/carpet-types", h.CreateCarpetType)
}

// Create handles POST /api/v1/leads
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ident := httpkit.MustGetIdentity(c)
	req.UserID = ident.UserID()
	// Branch staff always create leads in their own branch.
	if branchID := ident.BranchID(); branchID != nil {
		req.BranchID = *branchID
	}
	if req.BranchID == uuid.Nil {
		httpkit.Error(c, http.StatusBadRequest, "branch_id is required", nil)
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

// List handles GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	params := repository.ListParams{
		BranchID: ident.BranchID(),
		Search:   c.Query("search"),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := repository.LeadStatus(raw)
		if !status.Valid() {
			httpkit.Error(c, http.StatusBadRequest, "unknown lead status", nil)
			return
		}
		params.Status = &status
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid user_id", nil)
			return
		}
		params.UserID = &userID
	}

	leads, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": leads})
}

// Counts handles GET /api/v1/leads/counts
func (h *Handler) Counts(c *gin.Context) {
	counts, err := h.svc.CountByStatus(c.Request.Context(), httpkit.MustGetIdentity(c).BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"counts": counts})
}

// Get handles GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lead, err := h.svc.GetByID(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Update handles PATCH /api/v1/leads/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// ChangeStatus handles PATCH /api/v1/leads/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStatus(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID(), req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Deactivate handles DELETE /api/v1/leads/:id
func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
