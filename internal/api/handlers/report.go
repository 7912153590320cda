package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/advisorlens/advisorlens/internal/api/dto"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/pkg/utils"
	"github.com/advisorlens/advisorlens/internal/pkg/validator"
	"github.com/advisorlens/advisorlens/internal/report"
	"github.com/advisorlens/advisorlens/internal/services"
	"github.com/advisorlens/advisorlens/internal/upload"
)

// ReportHandler exposes the CSV processing pipeline over HTTP.
type ReportHandler struct {
	pipeline      *services.Pipeline
	repo          recommendation.Repository
	maxUploadSize int64
	logger        *logger.Logger
	validator     *validator.Validator
}

// NewReportHandler creates a report handler.
func NewReportHandler(pipeline *services.Pipeline, repo recommendation.Repository, maxUploadSize int64, log *logger.Logger, val *validator.Validator) *ReportHandler {
	return &ReportHandler{
		pipeline:      pipeline,
		repo:          repo,
		maxUploadSize: maxUploadSize,
		logger:        log,
		validator:     val,
	}
}

// Upload accepts a multipart CSV upload, runs the pipeline, and returns the
// persisted report plus its statistics.
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// one extra byte so an over-limit file is detected rather than truncated
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.WriteError(w, errors.BadRequest("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, errors.BadRequest("missing file field"))
		return
	}
	defer file.Close()

	req := dto.UploadRequest{ReportType: r.FormValue("report_type")}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("invalid upload request", verrs))
		return
	}

	reportType := report.TypeDetailed
	if req.ReportType != "" {
		reportType, _ = report.ParseType(req.ReportType)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(w, errors.BadRequest("failed to read uploaded file"))
		return
	}

	size := header.Size
	if size == 0 {
		size = int64(len(data))
	}

	result, err := h.pipeline.Process(r.Context(), upload.RawUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
		Data:        data,
	}, reportType)
	if err != nil {
		h.logger.WithError(err).Warn("upload processing failed")
		utils.WriteAnyError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.UploadResponse{
		Report:     dto.FromReport(result.Report),
		Statistics: result.Statistics,
	})
}

// List returns persisted reports, newest first.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	reports, total, err := h.repo.ListReports(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		utils.WriteAnyError(w, err)
		return
	}

	dtos := make([]dto.ReportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = dto.FromReport(rep)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, page, pageSize, total))
}

// Get returns one report by ID.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.repo.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteAnyError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.FromReport(rep))
}

// ListRecommendations returns a report's recommendations with pagination.
func (h *ReportHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, pageSize := pagination(r)

	recs, total, err := h.repo.ListByReport(r.Context(), id, pageSize, (page-1)*pageSize)
	if err != nil {
		utils.WriteAnyError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(recs, page, pageSize, total))
}

// GetContext rebuilds the render context for a persisted report. The context
// is recomputed from the stored recommendations, so it reflects the current
// generator profiles.
func (h *ReportHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rep, err := h.repo.GetReport(r.Context(), id)
	if err != nil {
		utils.WriteAnyError(w, err)
		return
	}

	reportType, ok := report.ParseType(rep.ReportType)
	if !ok {
		reportType = report.TypeDetailed
	}

	// the recomputation needs the full set, not a page
	recs, _, err := h.repo.ListByReport(r.Context(), id, int(^uint(0)>>1), 0)
	if err != nil {
		utils.WriteAnyError(w, err)
		return
	}

	renderCtx, err := report.Build(reportType, recs, time.Now().UTC())
	if err != nil {
		utils.WriteError(w, errors.Internal("failed to build report context", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, renderCtx)
}

// Delete removes a report and its recommendations.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteAnyError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]string{"message": "report deleted"})
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
