package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/http/response"
	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"github.com/openshelf/openshelf-backend/internal/requestdata"
	"github.com/openshelf/openshelf-backend/internal/services"
)

type CollabHandler struct {
	log    *logger.Logger
	collab services.CollaborationService
}

func NewCollabHandler(log *logger.Logger, collab services.CollaborationService) *CollabHandler {
	return &CollabHandler{
		log:    log.With("handler", "CollabHandler"),
		collab: collab,
	}
}

func (h *CollabHandler) Accept(c *gin.Context) {
	h.respond(c, "accepted", h.collab.Accept)
}

func (h *CollabHandler) Reject(c *gin.Context) {
	h.respond(c, "rejected", h.collab.Reject)
}

func (h *CollabHandler) respond(
	c *gin.Context,
	action string,
	fn func(ctx context.Context, requestID, inviteeID uuid.UUID) (*types.CollabRequest, error),
) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_id", err)
		return
	}
	request, err := fn(c.Request.Context(), requestID, rd.UserID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	observability.Current().IncCollabResponse(action)
	response.RespondOK(c, gin.H{"request": request})
}

func (h *CollabHandler) Pending(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	invitations, err := h.collab.GetPendingForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"invitations": invitations})
}

func (h *CollabHandler) ByMaterial(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	requests, err := h.collab.GetRequestsByMaterial(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requests": requests})
}
