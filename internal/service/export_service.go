package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-timetable-api/internal/models"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
	"github.com/noah-isme/academic-timetable-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered timetable ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a timetable's weekly grid as CSV or PDF.
type ExportService struct {
	timetables timetableRepository
	entries    entryRepository
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableRepository, entries entryRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{timetables: timetables, entries: entries, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the timetable in the requested format ("csv" or "pdf").
func (s *ExportService) Export(ctx context.Context, timetableID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	timetable, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	details, err := s.entries.ListDetails(ctx, timetableID, models.EntryFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}
	if len(details) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable has no entries to export")
	}

	dataset := buildDataset(details)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%d-%s.csv", timetableID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		data, err := s.pdf.Render(dataset, timetable.Name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%d-%s.pdf", timetableID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
}

func buildDataset(details []models.TimetableEntryDetail) export.Dataset {
	headers := []string{"Section", "Day", "Start", "End", "Course Code", "Course", "Teacher", "Room"}
	rows := make([]map[string]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, map[string]string{
			"Section":     d.SectionName,
			"Day":         string(d.DayOfWeek),
			"Start":       d.StartTime,
			"End":         d.EndTime,
			"Course Code": d.CourseCode,
			"Course":      d.CourseName,
			"Teacher":     d.TeacherName,
			"Room":        d.RoomNumber,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
