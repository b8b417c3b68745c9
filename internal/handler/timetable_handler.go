package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/models"
	"github.com/noah-isme/academic-timetable-api/internal/service"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
	"github.com/noah-isme/academic-timetable-api/pkg/response"
)

type timetableService interface {
	CreateTimetable(ctx context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error)
	GetTimetable(ctx context.Context, id int64) (*models.Timetable, error)
	ListTimetables(ctx context.Context, query dto.TimetableListQuery) (*dto.TimetableListResponse, error)
	UpdateStatus(ctx context.Context, id int64, req dto.UpdateTimetableStatusRequest) error
	DeleteTimetable(ctx context.Context, id int64) error
	ListEntries(ctx context.Context, timetableID int64, query dto.EntryListQuery) (*dto.EntryListResponse, error)
	GetReport(ctx context.Context, timetableID int64) (*dto.GenerationReportResponse, error)
	Generate(ctx context.Context, timetableID int64, req dto.GenerateTimetableRequest) (*dto.GenerationRunResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, timetableID int64, format string) (*service.ExportFile, error)
}

// TimetableHandler exposes timetable lifecycle and generation endpoints.
type TimetableHandler struct {
	service  timetableService
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.GenerationService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid timetable id"))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary Create a draft timetable for a semester
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimetableRequest true "Create timetable payload"
// @Success 201 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	timetable, err := h.service.CreateTimetable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// List godoc
// @Summary List a semester's timetables
// @Tags Timetables
// @Produce json
// @Param semesterId query int true "Semester ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return
	}
	result, err := h.service.ListTimetables(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}

// Get godoc
// @Summary Get one timetable
// @Tags Timetables
// @Produce json
// @Param id path int true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	timetable, err := h.service.GetTimetable(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// UpdateStatus godoc
// @Summary Move a timetable between lifecycle phases
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path int true "Timetable ID"
// @Param payload body dto.UpdateTimetableStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/status [patch]
func (h *TimetableHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTimetableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "status": req.Status}, nil)
}

// Delete godoc
// @Summary Delete a draft timetable
// @Tags Timetables
// @Produce json
// @Param id path int true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTimetable(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Run timetable generation
// @Description Builds the constraint model for the timetable's semester and searches for a conflict-free assignment. With async set, the run is queued and a run id returned immediately.
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path int true "Timetable ID"
// @Param payload body dto.GenerateTimetableRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /timetables/{id}/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}
	run, err := h.service.Generate(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if run.Queued {
		response.Accepted(c, run)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Report godoc
// @Summary Get the latest generation report
// @Tags Generation
// @Produce json
// @Param id path int true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/report [get]
func (h *TimetableHandler) Report(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	report, err := h.service.GetReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Entries godoc
// @Summary List a timetable's entries with display names
// @Tags Timetables
// @Produce json
// @Param id path int true "Timetable ID"
// @Param teacherId query int false "Only entries taught by this teacher"
// @Param sectionId query int false "Only entries of this section"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/entries [get]
func (h *TimetableHandler) Entries(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var query dto.EntryListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry query"))
		return
	}
	entries, err := h.service.ListEntries(c.Request.Context(), id, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export a timetable as CSV or PDF
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Timetable ID"
// @Param format query string true "Export format" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), id, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
