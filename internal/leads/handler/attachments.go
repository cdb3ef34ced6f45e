package handler

import (
	"net/http"

	"karpet_crm_backend/internal/leads/transport"
	"karpet_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// RequestUpload handles POST /api/v1/leads/:id/attachments/upload-url
func (h *Handler) RequestUpload(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	slot, err := h.attachments.RequestUpload(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.UploadSlotResponse{Upload: slot})
}

// ConfirmUpload handles POST /api/v1/leads/:id/attachments
func (h *Handler) ConfirmUpload(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ident := httpkit.MustGetIdentity(c)
	attachment, err := h.attachments.ConfirmUpload(c.Request.Context(), id, ident.UserID(), ident.BranchID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToAttachmentResponse(attachment))
}

// ListAttachments handles GET /api/v1/leads/:id/attachments
func (h *Handler) ListAttachments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	items, err := h.attachments.List(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.AttachmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, transport.ToAttachmentResponse(a))
	}
	httpkit.OK(c, gin.H{"attachments": out})
}

// AttachmentDownloadURL handles GET /api/v1/attachments/:id/download-url
func (h *Handler) AttachmentDownloadURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	slot, err := h.attachments.DownloadURL(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"download": slot})
}

// DeleteAttachment handles DELETE /api/v1/attachments/:id
func (h *Handler) DeleteAttachment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), id, httpkit.MustGetIdentity(c).BranchID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
