package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/http/response"
	"github.com/codezs3/edusight-ai-new-sub001/internal/ingestion/extractor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/services"
)

const maxMultipartMemory = 8 << 20

var validate = validator.New()

type AssessmentHandler struct {
	log      *logger.Logger
	svc      services.AssessmentService
	maxBytes int64
}

func NewAssessmentHandler(log *logger.Logger, svc services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		log:      log.With("handler", "AssessmentHandler"),
		svc:      svc,
		maxBytes: extractor.DefaultMaxBytes,
	}
}

// studentFields are the identity and declared-metadata fields shared by every upload route.
type studentFields struct {
	UploadID    string `form:"upload_id" json:"upload_id"`
	StudentID   string `form:"student_id" json:"student_id" validate:"required"`
	StudentName string `form:"student_name" json:"student_name"`
	Age         int    `form:"age" json:"age" validate:"gte=0,lte=25"`
	Gender      string `form:"gender" json:"gender"`
	Grade       int    `form:"grade" json:"grade" validate:"gte=0,lte=12"`
	Curriculum  string `form:"curriculum" json:"curriculum"`
	Semester    string `form:"semester" json:"semester"`
	Year        string `form:"year" json:"year"`
}

func (f studentFields) artifact() assessment.UploadArtifact {
	return assessment.UploadArtifact{
		UploadID: strings.TrimSpace(f.UploadID),
		Student: assessment.Student{
			ID:     strings.TrimSpace(f.StudentID),
			Name:   strings.TrimSpace(f.StudentName),
			Age:    f.Age,
			Gender: strings.TrimSpace(f.Gender),
			Grade:  f.Grade,
		},
		Declared: assessment.DeclaredMetadata{
			Curriculum: strings.TrimSpace(f.Curriculum),
			Semester:   strings.TrimSpace(f.Semester),
			Year:       strings.TrimSpace(f.Year),
		},
	}
}

type multipartRequest struct {
	studentFields
	Forms string `form:"forms"`
}

type storageRequest struct {
	studentFields
	Key      string                      `json:"key" validate:"required"`
	MimeType string                      `json:"mime_type"`
	FileName string                      `json:"file_name"`
	Forms    []assessment.AssessmentForm `json:"forms" validate:"omitempty,dive"`
}

// POST /api/assessments
func (h *AssessmentHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	var req multipartRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fh.Size > h.maxBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", h.maxBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	a := req.artifact()
	a.FileName = fh.Filename
	a.MimeType = fh.Header.Get("Content-Type")
	a.Data = data
	if raw := strings.TrimSpace(req.Forms); raw != "" {
		forms, err := decodeForms([]byte(raw))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_forms", err)
			return
		}
		a.Forms = forms
	}
	h.assess(c, &a)
}

// POST /api/assessments/manual
// The body is a manual score document; student fields may also come from the query string.
func (h *AssessmentHandler) Manual(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_body", err)
		return
	}
	var req studentFields
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := extractor.DecodeManual(body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_manual_document", err)
		return
	}
	if doc.Student != nil {
		mergeStudent(&req, *doc.Student)
	}
	if err := validate.Struct(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a := req.artifact()
	a.FileName = "manual.json"
	a.MimeType = "application/json"
	a.Data = body
	h.assess(c, &a)
}

// POST /api/assessments/from-storage
func (h *AssessmentHandler) FromStorage(c *gin.Context) {
	var req storageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a := req.artifact()
	a.MimeType = strings.TrimSpace(req.MimeType)
	a.FileName = strings.TrimSpace(req.FileName)
	a.Forms = req.Forms

	ctx := withUpload(c, a.UploadID)
	payload, err := h.svc.AssessFromStorage(ctx, services.StorageArtifact{Key: req.Key, Artifact: a})
	if err != nil {
		if errors.Is(err, services.ErrStorageUnavailable) {
			response.RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", err)
			return
		}
		response.RespondAssessmentError(c, err)
		return
	}
	h.respondPayload(c, payload)
}

// GET /api/assessments/:upload_id
func (h *AssessmentHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("upload_id"))
	payload, err := h.svc.GetPayload(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	response.RespondOK(c, payload)
}

// GET /api/assessments/:upload_id/charts/:chart?width=
func (h *AssessmentHandler) Chart(c *gin.Context) {
	width := 0
	if raw := strings.TrimSpace(c.Query("width")); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w <= 0 || w > 4096 {
			response.RespondError(c, http.StatusBadRequest, "invalid_width", fmt.Errorf("width must be between 1 and 4096"))
			return
		}
		width = w
	}
	png, err := h.svc.RenderChart(c.Request.Context(), c.Param("upload_id"), c.Param("chart"), width)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *AssessmentHandler) assess(c *gin.Context, a *assessment.UploadArtifact) {
	payload, err := h.svc.Assess(withUpload(c, a.UploadID), a)
	if err != nil {
		response.RespondAssessmentError(c, err)
		return
	}
	h.respondPayload(c, payload)
}

// respondPayload records the derived upload id on the request before writing the payload.
func (h *AssessmentHandler) respondPayload(c *gin.Context, payload assessment.ReportPayload) {
	withUpload(c, payload.UploadID)
	c.Header("X-Upload-Id", payload.UploadID)
	response.RespondOK(c, payload)
}

func (h *AssessmentHandler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrUnknownChart):
		response.RespondError(c, http.StatusNotFound, "unknown_chart", err)
	case errors.Is(err, services.ErrRendererMissing):
		response.RespondError(c, http.StatusServiceUnavailable, "renderer_unavailable", err)
	default:
		h.log.Error("assessment lookup failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func withUpload(c *gin.Context, uploadID string) context.Context {
	ctx := c.Request.Context()
	if uploadID == "" {
		return ctx
	}
	// Set in place so the request log line carries the upload id too.
	if cur := ctxutil.GetTraceData(ctx); cur != nil {
		cur.UploadID = uploadID
		return ctx
	}
	return ctxutil.WithTraceData(ctx, &ctxutil.TraceData{UploadID: uploadID})
}

// mergeStudent fills request fields the query string left empty from the document's student block.
func mergeStudent(req *studentFields, s assessment.Student) {
	if strings.TrimSpace(req.StudentID) == "" {
		req.StudentID = s.ID
	}
	if req.StudentName == "" {
		req.StudentName = s.Name
	}
	if req.Age == 0 {
		req.Age = s.Age
	}
	if req.Gender == "" {
		req.Gender = s.Gender
	}
	if req.Grade == 0 {
		req.Grade = s.Grade
	}
}

func decodeForms(raw []byte) ([]assessment.AssessmentForm, error) {
	var forms []assessment.AssessmentForm
	if err := json.Unmarshal(raw, &forms); err != nil {
		return nil, fmt.Errorf("decode forms: %w", err)
	}
	for i := range forms {
		if err := validate.Struct(&forms[i]); err != nil {
			return nil, fmt.Errorf("validate forms[%d]: %w", i, err)
		}
	}
	return forms, nil
}
