package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/models"
	"github.com/noah-isme/academic-timetable-api/internal/service"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
)

type stubTimetableService struct {
	run        *dto.GenerationRunResponse
	runErr     error
	timetable  *models.Timetable
	getErr     error
	report     *dto.GenerationReportResponse
	reportErr  error
	deletedID  int64
	entryQuery dto.EntryListQuery
}

func (s *stubTimetableService) CreateTimetable(_ context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{ID: 42, Name: req.Name, SemesterID: req.SemesterID, Status: models.TimetableDraft}, nil
}

func (s *stubTimetableService) GetTimetable(_ context.Context, _ int64) (*models.Timetable, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.timetable, nil
}

func (s *stubTimetableService) ListTimetables(_ context.Context, query dto.TimetableListQuery) (*dto.TimetableListResponse, error) {
	return &dto.TimetableListResponse{Items: []models.Timetable{*s.timetable}, Pagination: query.Paginate(1)}, nil
}

func (s *stubTimetableService) UpdateStatus(_ context.Context, _ int64, _ dto.UpdateTimetableStatusRequest) error {
	return nil
}

func (s *stubTimetableService) DeleteTimetable(_ context.Context, id int64) error {
	s.deletedID = id
	return nil
}

func (s *stubTimetableService) ListEntries(_ context.Context, timetableID int64, query dto.EntryListQuery) (*dto.EntryListResponse, error) {
	s.entryQuery = query
	return &dto.EntryListResponse{TimetableID: timetableID, Entries: []models.TimetableEntryDetail{}}, nil
}

func (s *stubTimetableService) GetReport(_ context.Context, _ int64) (*dto.GenerationReportResponse, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return s.report, nil
}

func (s *stubTimetableService) Generate(_ context.Context, _ int64, _ dto.GenerateTimetableRequest) (*dto.GenerationRunResponse, error) {
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.run, nil
}

type stubExporter struct {
	file *service.ExportFile
	err  error
}

func (s *stubExporter) Export(_ context.Context, _ int64, _ string) (*service.ExportFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.file, nil
}

func newRouter(svc *stubTimetableService, exporter *stubExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: svc, exporter: exporter}

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/timetables", h.Create)
	api.GET("/timetables", h.List)
	api.GET("/timetables/:id", h.Get)
	api.DELETE("/timetables/:id", h.Delete)
	api.PATCH("/timetables/:id/status", h.UpdateStatus)
	api.POST("/timetables/:id/generate", h.Generate)
	api.GET("/timetables/:id/report", h.Report)
	api.GET("/timetables/:id/entries", h.Entries)
	api.GET("/timetables/:id/export", h.Export)
	return r
}

func TestGenerateEndpointQueued(t *testing.T) {
	svc := &stubTimetableService{
		timetable: &models.Timetable{ID: 42, Status: models.TimetableDraft},
		run:       &dto.GenerationRunResponse{RunID: "run-1", TimetableID: 42, Queued: true},
	}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timetables/42/generate", strings.NewReader(`{"async":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "run-1")
}

func TestGenerateEndpointAlreadyRunning(t *testing.T) {
	svc := &stubTimetableService{runErr: appErrors.ErrGenerationRunning}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timetables/42/generate", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "GENERATION_RUNNING")
}

func TestGenerateEndpointBadID(t *testing.T) {
	r := newRouter(&stubTimetableService{}, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timetables/abc/generate", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEndpointNotFound(t *testing.T) {
	svc := &stubTimetableService{getErr: appErrors.Clone(appErrors.ErrNotFound, "timetable not found")}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetables/42", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpointStreamsCSV(t *testing.T) {
	exporter := &stubExporter{
		file: &service.ExportFile{Filename: "timetable-42.csv", ContentType: "text/csv", Data: []byte("Section,Day\n")},
	}
	r := newRouter(&stubTimetableService{}, exporter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetables/42/export?format=csv", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-42.csv")
}

func TestCreateEndpoint(t *testing.T) {
	svc := &stubTimetableService{timetable: &models.Timetable{ID: 42}}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timetables", strings.NewReader(`{"name":"Fall draft","semesterId":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Fall draft")
}

func TestDeleteEndpoint(t *testing.T) {
	svc := &stubTimetableService{timetable: &models.Timetable{ID: 42, Status: models.TimetableDraft}}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/timetables/42", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(42), svc.deletedID)
}

func TestEntriesEndpointBindsFilter(t *testing.T) {
	svc := &stubTimetableService{timetable: &models.Timetable{ID: 42, Status: models.TimetablePublished}}
	r := newRouter(svc, &stubExporter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetables/42/entries?teacherId=10&sectionId=100", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.entryQuery.TeacherID)
	assert.Equal(t, int64(10), *svc.entryQuery.TeacherID)
	require.NotNil(t, svc.entryQuery.SectionID)
	assert.Equal(t, int64(100), *svc.entryQuery.SectionID)
}
