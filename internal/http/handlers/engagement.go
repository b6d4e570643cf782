package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/http/response"
	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"github.com/openshelf/openshelf-backend/internal/requestdata"
	"github.com/openshelf/openshelf-backend/internal/services"
)

type EngagementHandler struct {
	log        *logger.Logger
	engagement services.EngagementService
}

func NewEngagementHandler(log *logger.Logger, engagement services.EngagementService) *EngagementHandler {
	return &EngagementHandler{
		log:        log.With("handler", "EngagementHandler"),
		engagement: engagement,
	}
}

func (h *EngagementHandler) AddComment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	comment, err := h.engagement.AddComment(c.Request.Context(), materialID, rd.UserID, req.Body)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	observability.Current().IncComment("add")
	response.RespondOK(c, gin.H{"comment": comment})
}

func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_comment_id", err)
		return
	}
	if err := h.engagement.DeleteComment(c.Request.Context(), commentID, rd.UserID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	observability.Current().IncComment("delete")
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *EngagementHandler) ListComments(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	comments, err := h.engagement.ListComments(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

func (h *EngagementHandler) Rate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	var req struct {
		Value int `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	average, err := h.engagement.RateMaterial(c.Request.Context(), materialID, rd.UserID, req.Value)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	observability.Current().IncRating()
	response.RespondOK(c, gin.H{"average_rating": average})
}

func (h *EngagementHandler) MyRating(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	rating, err := h.engagement.GetUserRating(c.Request.Context(), materialID, rd.UserID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rating": rating})
}

func (h *EngagementHandler) ReadingList(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	entries, err := h.engagement.GetReadingList(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reading_list": entries})
}
