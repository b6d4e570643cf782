package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	materialsrepo "github.com/openshelf/openshelf-backend/internal/data/repos/materials"
	"github.com/openshelf/openshelf-backend/internal/http/response"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"github.com/openshelf/openshelf-backend/internal/services"
)

type BrowseHandler struct {
	log    *logger.Logger
	browse services.BrowseService
}

func NewBrowseHandler(log *logger.Logger, browse services.BrowseService) *BrowseHandler {
	return &BrowseHandler{
		log:    log.With("handler", "BrowseHandler"),
		browse: browse,
	}
}

func (h *BrowseHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	query := materialsrepo.SearchQuery{
		Text:           c.Query("q"),
		Discipline:     c.Query("discipline"),
		MaterialType:   c.Query("material_type"),
		TargetAudience: c.Query("target_audience"),
		Limit:          limit,
	}
	materials, err := h.browse.Search(c.Request.Context(), query)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": materials})
}

func (h *BrowseHandler) FilterOptions(c *gin.Context) {
	options, err := h.browse.FilterOptions(c.Request.Context())
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, options)
}
