// Package handler exposes the in-app notification HTTP surface.
package handler

import (
	"net/http"
	"strconv"

	"karpet_crm_backend/internal/notification/inapp"
	"karpet_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for in-app notifications.
type Handler struct {
	svc *inapp.Service
}

// New creates a new notification handler.
func New(svc *inapp.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
	rg.DELETE("/:id", h.Delete)
}

// List handles GET /api/v1/notifications
func (h *Handler) List(c *gin.Context) {
	userID := httpkit.MustGetIdentity(c).UserID()
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 20)

	items, total, err := h.svc.List(c.Request.Context(), userID, page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"notifications": items, "total": total})
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.CountUnread(c.Request.Context(), httpkit.MustGetIdentity(c).UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"unread": count})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), httpkit.MustGetIdentity(c).UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), httpkit.MustGetIdentity(c).UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/notifications/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), httpkit.MustGetIdentity(c).UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
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
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
