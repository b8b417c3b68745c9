package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-timetable-api/internal/models"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
)

func exportFixture() (*ExportService, *stubEntries) {
	timetables := &stubTimetables{
		timetable: &models.Timetable{ID: 42, Name: "Fall 2026", SemesterID: 1, Status: models.TimetablePublished},
	}
	entries := &stubEntries{
		details: []models.TimetableEntryDetail{
			{
				TimetableEntry: models.TimetableEntry{ID: 1, TimetableID: 42, CourseID: 1, TeacherID: 10, RoomID: 20, SectionID: 100, TimeSlotID: 30},
				CourseCode:     "CS301",
				CourseName:     "Algorithms",
				TeacherName:    "Ada Park",
				RoomNumber:     "B-101",
				SectionName:    "A",
				SlotName:       "Mon 1",
				DayOfWeek:      models.Monday,
				StartTime:      "09:00:00",
				EndTime:        "10:00:00",
			},
		},
	}
	return NewExportService(timetables, entries, nil, nil, nil), entries
}

func TestExportCSV(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.Export(context.Background(), 42, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Data)
	assert.Contains(t, body, "Section,Day,Start,End,Course Code,Course,Teacher,Room")
	assert.Contains(t, body, "CS301")
	assert.Contains(t, body, "Ada Park")
}

func TestExportPDF(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.Export(context.Background(), 42, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Data)
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _ := exportFixture()

	_, err := svc.Export(context.Background(), 42, "xlsx")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportEmptyTimetable(t *testing.T) {
	svc, entries := exportFixture()
	entries.details = nil

	_, err := svc.Export(context.Background(), 42, "csv")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
