package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/http/response"
	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"github.com/openshelf/openshelf-backend/internal/requestdata"
	"github.com/openshelf/openshelf-backend/internal/services"
)

const maxUploadBytes = 64 << 20

type MaterialHandler struct {
	log       *logger.Logger
	ingest    services.IngestionService
	retrieval services.RetrievalService
	materials services.MaterialService
}

func NewMaterialHandler(
	log *logger.Logger,
	ingest services.IngestionService,
	retrieval services.RetrievalService,
	materials services.MaterialService,
) *MaterialHandler {
	return &MaterialHandler{
		log:       log.With("handler", "MaterialHandler"),
		ingest:    ingest,
		retrieval: retrieval,
		materials: materials,
	}
}

// Upload accepts a multipart form: the document under "file", an optional
// cover under "cover", and the metadata as plain form values. Contributors
// come as repeated "contributors" values holding either a user id or a
// free-text name.
func (h *MaterialHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	form := c.Request.MultipartForm

	payload, err := readFormFile(c, "file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	cover, _ := readFormFile(c, "cover")

	input := services.UploadMaterialInput{
		Title:            formValue(form, "title"),
		Description:      formValue(form, "description"),
		PrimaryAuthorID:  rd.UserID,
		Payload:          payload,
		CoverImage:       cover,
		Contributors:     formValues(form, "contributors"),
		MaterialType:     formValue(form, "material_type"),
		TechnicalType:    formValue(form, "technical_type"),
		TargetAudience:   formValue(form, "target_audience"),
		Disciplines:      formValues(form, "disciplines"),
		AuthorPermission: strings.EqualFold(formValue(form, "author_permission"), "true"),
	}

	rule, err := types.ParseAccessRule([]byte(formValue(form, "accessibility")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_accessibility", err)
		return
	}
	input.Accessibility = rule

	result, err := h.ingest.Upload(c.Request.Context(), input)
	if err != nil {
		observability.Current().ObserveUpload("error", len(payload))
		response.RespondAppError(c, err)
		return
	}
	observability.Current().ObserveUpload("ok", len(payload))
	response.RespondOK(c, result)
}

// Open returns the full material view: decompressed content, document
// stats, combined authors, similar materials, ratings, and comments. The
// route is public; a token only changes what the access gate sees.
func (h *MaterialHandler) Open(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	requesterID := uuid.Nil
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		requesterID = rd.UserID
	}

	start := time.Now()
	view, err := h.retrieval.Retrieve(c.Request.Context(), materialID, requesterID)
	if err != nil {
		outcome := "error"
		if errors.Is(err, apperr.ErrIntegrity) {
			outcome = "integrity_failure"
		}
		observability.Current().ObserveRetrieval(outcome, time.Since(start))
		response.RespondAppError(c, err)
		return
	}
	observability.Current().ObserveRetrieval("ok", time.Since(start))
	response.RespondOK(c, view)
}

func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	material, err := h.materials.Get(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"material": material})
}

func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.materials.List(c.Request.Context())
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": materials})
}

func (h *MaterialHandler) ListMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	materials, err := h.materials.ListByAuthor(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": materials})
}

func (h *MaterialHandler) Update(c *gin.Context) {
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

	var input services.UpdateMaterialInput
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return
		}
		form := c.Request.MultipartForm
		input = services.UpdateMaterialInput{
			Title:          formValuePtr(form, "title"),
			Description:    formValuePtr(form, "description"),
			MaterialType:   formValuePtr(form, "material_type"),
			TechnicalType:  formValuePtr(form, "technical_type"),
			TargetAudience: formValuePtr(form, "target_audience"),
			Disciplines:    formValues(form, "disciplines"),
		}
		if raw := formValue(form, "accessibility"); raw != "" {
			rule, err := types.ParseAccessRule([]byte(raw))
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_accessibility", err)
				return
			}
			input.Accessibility = &rule
		}
		input.Payload, _ = readFormFile(c, "file")
		input.CoverImage, _ = readFormFile(c, "cover")
	} else {
		var req struct {
			Title          *string           `json:"title"`
			Description    *string           `json:"description"`
			MaterialType   *string           `json:"material_type"`
			TechnicalType  *string           `json:"technical_type"`
			TargetAudience *string           `json:"target_audience"`
			Disciplines    []string          `json:"disciplines"`
			Accessibility  *types.AccessRule `json:"accessibility"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		input = services.UpdateMaterialInput{
			Title:          req.Title,
			Description:    req.Description,
			MaterialType:   req.MaterialType,
			TechnicalType:  req.TechnicalType,
			TargetAudience: req.TargetAudience,
			Disciplines:    req.Disciplines,
			Accessibility:  req.Accessibility,
		}
	}

	material, err := h.materials.Update(c.Request.Context(), materialID, rd.UserID, input)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"material": material})
}

func (h *MaterialHandler) Delete(c *gin.Context) {
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
	if err := h.materials.Delete(c.Request.Context(), materialID, rd.UserID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *MaterialHandler) Download(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	requesterID := uuid.Nil
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		requesterID = rd.UserID
	}
	raw, material, err := h.materials.Download(c.Request.Context(), materialID, requesterID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+material.Title+`"`)
	c.Data(http.StatusOK, "application/octet-stream", raw)
}

func (h *MaterialHandler) Image(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	img, err := h.materials.GetImage(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func readFormFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formValuePtr(form *multipart.Form, key string) *string {
	if form == nil {
		return nil
	}
	if v := form.Value[key]; len(v) > 0 {
		s := strings.TrimSpace(v[0])
		return &s
	}
	return nil
}

func formValues(form *multipart.Form, key string) []string {
	if form == nil {
		return nil
	}
	var out []string
	for _, v := range form.Value[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
