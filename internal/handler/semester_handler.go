package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/service"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
	"github.com/noah-isme/academic-timetable-api/pkg/response"
)

type semesterService interface {
	ListSemesters(ctx context.Context, query dto.SemesterListQuery) (*dto.SemesterListResponse, error)
}

// SemesterHandler exposes the semester catalogue backing timetable creation.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(svc *service.GenerationService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// List godoc
// @Summary List a department's semesters
// @Tags Semesters
// @Produce json
// @Param departmentId query int true "Department ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	var query dto.SemesterListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid semester query"))
		return
	}
	result, err := h.service.ListSemesters(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}
