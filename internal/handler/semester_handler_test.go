package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/models"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
)

type stubSemesterService struct {
	resp *dto.SemesterListResponse
	err  error
}

func (s *stubSemesterService) ListSemesters(_ context.Context, _ dto.SemesterListQuery) (*dto.SemesterListResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newSemesterRouter(svc *stubSemesterService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &SemesterHandler{service: svc}

	r := gin.New()
	r.GET("/api/v1/semesters", h.List)
	return r
}

func TestSemesterListEndpoint(t *testing.T) {
	svc := &stubSemesterService{
		resp: &dto.SemesterListResponse{
			Items:      []models.Semester{{ID: 1, Name: "Fall 2026"}},
			Pagination: models.Pagination{Page: 1, PageSize: 20, Total: 1, TotalPages: 1},
		},
	}
	r := newSemesterRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/semesters?departmentId=1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fall 2026")
}

func TestSemesterListEndpointValidationError(t *testing.T) {
	svc := &stubSemesterService{err: appErrors.Clone(appErrors.ErrValidation, "invalid semester query")}
	r := newSemesterRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/semesters", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
