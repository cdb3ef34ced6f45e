// Package handler exposes the follow-ups HTTP surface.
package handler

import (
	"net/http"
	"time"

	"karpet_crm_backend/internal/followups/service"
	"karpet_crm_backend/internal/followups/transport"
	"karpet_crm_backend/platform/httpkit"
	"karpet_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid follow-up id"
)

// Handler handles HTTP requests for follow-ups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new follow-ups handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the follow-up routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/today", h.Today)
	rg.GET("/overdue", h.Overdue)
	rg.GET("/upcoming", h.Upcoming)
	rg.GET("/statistics", h.Statistics)
	rg.POST("/:id/complete", h.Complete)
	rg.PATCH("/:id/reschedule", h.Reschedule)
}

// Create handles POST /api/v1/followups
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	record, err := h.svc.CreateFollowUp(c.Request.Context(), actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToFollowUpResponse(record))
}

// Complete handles POST /api/v1/followups/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.CompleteFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.CompleteFollowUp(c.Request.Context(), id, actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.CompletionResponse{
		FollowUp:       transport.ToFollowUpResponse(result.Record),
		LeadMarkedCold: result.LeadMarkedCold,
	}
	if result.Successor != nil {
		next := transport.ToFollowUpResponse(*result.Successor)
		resp.Next = &next
	}
	httpkit.OK(c, resp)
}

// Reschedule handles PATCH /api/v1/followups/:id/reschedule
func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	record, err := h.svc.Reschedule(c.Request.Context(), id, actorFrom(c), req.ScheduledAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(record))
}

// Today handles GET /api/v1/followups/today
func (h *Handler) Today(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)
	items, err := h.svc.TodaysFollowUps(c.Request.Context(), ident.UserID(), ident.BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"follow_ups": transport.ToFollowUpResponses(items)})
}

// Overdue handles GET /api/v1/followups/overdue
func (h *Handler) Overdue(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)
	items, err := h.svc.OverdueFollowUps(c.Request.Context(), ident.UserID(), ident.BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"follow_ups": transport.ToFollowUpResponses(items)})
}

// Upcoming handles GET /api/v1/followups/upcoming
func (h *Handler) Upcoming(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)
	items, err := h.svc.UpcomingFollowUps(c.Request.Context(), ident.UserID(), ident.BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"follow_ups": transport.ToFollowUpResponses(items)})
}

// Statistics handles GET /api/v1/followups/statistics
func (h *Handler) Statistics(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)

	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	until, ok := parseTimeQuery(c, "until")
	if !ok {
		return
	}

	stats, err := h.svc.Statistics(c.Request.Context(), ident.UserID(), from, until, ident.BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// actorFrom builds the service actor from the authenticated identity.
func actorFrom(c *gin.Context) service.Actor {
	ident := httpkit.MustGetIdentity(c)
	return service.Actor{UserID: ident.UserID(), BranchID: ident.BranchID()}
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name+" timestamp", nil)
		return nil, false
	}
	return &t, true
}
