package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/engine"
	"github.com/noah-isme/academic-timetable-api/internal/models"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
	"github.com/noah-isme/academic-timetable-api/pkg/jobs"
)

type stubTimetables struct {
	timetable   *models.Timetable
	findErr     error
	savedReport models.JSONMap
	savedBy     string
	createdID   int64
	deletedID   int64
}

func (s *stubTimetables) Create(_ context.Context, t *models.Timetable) error {
	t.ID = s.createdID
	return nil
}

func (s *stubTimetables) FindByID(_ context.Context, _ int64) (*models.Timetable, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.timetable, nil
}

func (s *stubTimetables) ListBySemester(_ context.Context, _ int64, _ models.ListQuery) ([]models.Timetable, int, error) {
	return []models.Timetable{*s.timetable}, 1, nil
}

func (s *stubTimetables) UpdateStatus(_ context.Context, _ int64, status models.TimetableStatus) error {
	s.timetable.Status = status
	return nil
}

func (s *stubTimetables) SaveGenerationResult(_ context.Context, _ sqlx.ExtContext, _ int64, report models.JSONMap, _ time.Time, by string) error {
	s.savedReport = report
	s.savedBy = by
	return nil
}

func (s *stubTimetables) Delete(_ context.Context, _ int64) error {
	s.deletedID = s.timetable.ID
	return nil
}

type stubSemesters struct {
	items []models.Semester
}

func (s *stubSemesters) List(_ context.Context, _ int64, _ models.ListQuery) ([]models.Semester, int, error) {
	return s.items, len(s.items), nil
}

type stubEntries struct {
	inserted []models.TimetableEntry
	deleted  bool
	details  []models.TimetableEntryDetail
	filter   models.EntryFilter
}

func (s *stubEntries) ListByTimetable(_ context.Context, _ int64) ([]models.TimetableEntry, error) {
	return s.inserted, nil
}

func (s *stubEntries) ListDetails(_ context.Context, _ int64, filter models.EntryFilter) ([]models.TimetableEntryDetail, error) {
	s.filter = filter
	return s.details, nil
}

func (s *stubEntries) DeleteByTimetable(_ context.Context, _ sqlx.ExtContext, _ int64) error {
	s.deleted = true
	return nil
}

func (s *stubEntries) InsertBatch(_ context.Context, _ sqlx.ExtContext, entries []models.TimetableEntry) error {
	s.inserted = append(s.inserted, entries...)
	return nil
}

type stubLoader struct {
	snap *engine.Snapshot
	err  error
	opts engine.LoadOptions
}

func (s *stubLoader) Load(_ context.Context, _ int64, opts engine.LoadOptions) (*engine.Snapshot, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type stubGenerator struct {
	outcome *engine.Outcome
	err     error
	rules   engine.Rules
}

func (s *stubGenerator) Run(_ context.Context, _ *engine.Snapshot, rules engine.Rules, _ int64, _ string) (*engine.Outcome, error) {
	s.rules = rules
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

type stubLock struct {
	held     bool
	acquired int
	released int
}

func (s *stubLock) Acquire(_ context.Context, _ int64, _ string) (bool, error) {
	if s.held {
		return false, nil
	}
	s.acquired++
	return true, nil
}

func (s *stubLock) Release(_ context.Context, _ int64, _ string) error {
	s.released++
	return nil
}

type stubQueue struct {
	jobs []jobs.Job
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

type fixture struct {
	svc        *GenerationService
	timetables *stubTimetables
	semesters  *stubSemesters
	entries    *stubEntries
	loader     *stubLoader
	generator  *stubGenerator
	lock       *stubLock
	queue      *stubQueue
	mock       sqlmock.Sqlmock
	cleanup    func()
}

func newFixture(t *testing.T) *fixture {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	f := &fixture{
		timetables: &stubTimetables{
			createdID: 42,
			timetable: &models.Timetable{ID: 42, Name: "Fall draft", SemesterID: 1, Status: models.TimetableDraft},
		},
		semesters: &stubSemesters{},
		entries:   &stubEntries{},
		loader:    &stubLoader{snap: &engine.Snapshot{SemesterID: 1}},
		generator: &stubGenerator{},
		lock:      &stubLock{},
		queue:     &stubQueue{},
		mock:      mock,
		cleanup:   func() { db.Close() },
	}
	f.svc = NewGenerationService(
		f.timetables, f.semesters, f.entries, f.loader, f.generator, f.lock, f.queue,
		sqlx.NewDb(db, "sqlmock"), nil, nil, nil,
		GenerationConfig{GeneratedBy: "scheduler"},
	)
	return f
}

func successOutcome() *engine.Outcome {
	return &engine.Outcome{
		Status: engine.StatusSuccess,
		Entries: []models.TimetableEntry{
			{TimetableID: 42, CourseID: 1, TeacherID: 10, RoomID: 20, SectionID: 100, TimeSlotID: 30},
		},
		Report: engine.Report{
			Status:      engine.StatusSuccess,
			Score:       1.0,
			GeneratedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
			GeneratedBy: "scheduler",
			Rules:       engine.DefaultRules(),
		},
	}
}

func TestGenerateSyncSuccess(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.generator.outcome = successOutcome()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Queued)
	assert.NotEmpty(t, resp.RunID)

	assert.True(t, f.entries.deleted)
	require.Len(t, f.entries.inserted, 1)
	assert.Equal(t, "success", f.timetables.savedReport["status"])
	assert.Equal(t, "scheduler", f.timetables.savedBy)
	assert.Equal(t, 1, f.lock.acquired)
	assert.Equal(t, 1, f.lock.released)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGenerateLockHeld(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.lock.held = true

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGenerationRunning.Code, appErr.Code)
}

func TestGenerateNonDraftRejected(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.timetables.timetable.Status = models.TimetablePublished

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTimetableFinalized.Code, appErr.Code)
	assert.Zero(t, f.lock.acquired)
}

func TestGenerateInfeasiblePersistsReportOnly(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.generator.outcome = &engine.Outcome{
		Status: engine.StatusInfeasible,
		Report: engine.Report{
			Status:      engine.StatusInfeasible,
			Conflicts:   []engine.Conflict{{Kind: engine.ConstraintTeacherLoad, CourseID: 1, SectionID: 100, Message: "overloaded"}},
			GeneratedAt: time.Now().UTC(),
			GeneratedBy: "scheduler",
		},
	}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// Previous entries survive an infeasible rerun: only the report lands.
	assert.False(t, f.entries.deleted)
	assert.Empty(t, f.entries.inserted)
	assert.Equal(t, "infeasible", f.timetables.savedReport["status"])
	assert.Equal(t, 1, f.lock.released)
}

func TestGenerateTimeoutPersistsReport(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.generator.outcome = &engine.Outcome{
		Status: engine.StatusTimeout,
		Report: engine.Report{
			Status:      engine.StatusTimeout,
			Detail:      "search budget of 10 steps exhausted with 1 of 4 units placed",
			GeneratedAt: time.Now().UTC(),
			GeneratedBy: "scheduler",
		},
	}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSearchBudget.Code, appErr.Code)
	assert.Equal(t, "timeout", f.timetables.savedReport["status"])
}

func TestGenerateNothingToSchedule(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.loader.err = &engine.SnapshotError{SemesterID: 1, Reason: "no active sections"}

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNothingToSchedule.Code, appErr.Code)
	assert.Equal(t, 1, f.lock.released)
}

func TestGenerateInfeasibleModel(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.generator.err = &engine.ModelError{CourseID: 1, SectionID: 100, Kind: engine.ConstraintTeacherEligibility, Reason: "no eligible teacher"}

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInfeasibleModel.Code, appErr.Code)
}

func TestGenerateAsyncQueues(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	resp, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{Async: true})
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "timetable.generate", f.queue.jobs[0].Type)

	// The lock stays held until the queued run finishes.
	assert.Equal(t, 1, f.lock.acquired)
	assert.Zero(t, f.lock.released)
}

func TestHandleJobReleasesLock(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.generator.outcome = successOutcome()
	f.lock.acquired = 1

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	job := jobs.Job{
		ID:   "run-1",
		Type: "timetable.generate",
		Payload: generationJob{
			TimetableID: 42, SemesterID: 1, Rules: engine.DefaultRules(), RunID: "run-1",
		},
	}
	require.NoError(t, f.svc.HandleJob(context.Background(), job))
	assert.Equal(t, 1, f.lock.released)
}

func TestGenerateRuleOverridesApplied(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.timetables.timetable.GenerationRules = models.JSONMap{"max_search_steps": float64(1000)}
	f.generator.outcome = successOutcome()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{
		RuleOverrides: map[string]any{"lock_existing_entries": true, "max_search_steps": 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, 5000, f.generator.rules.MaxSearchSteps)
	assert.True(t, f.generator.rules.LockExistingEntries)
	assert.True(t, f.loader.opts.LockExistingEntries)
}

func TestGenerateUsesConfiguredSearchBudget(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.svc.cfg.MaxSearchSteps = 500
	f.generator.outcome = successOutcome()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// A timetable without its own budget runs with the configured one.
	_, err := f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Equal(t, 500, f.generator.rules.MaxSearchSteps)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// The timetable's own rules still win over the configured default.
	f.timetables.timetable.GenerationRules = models.JSONMap{"max_search_steps": float64(1000)}
	_, err = f.svc.Generate(context.Background(), 42, dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1000, f.generator.rules.MaxSearchSteps)
}

func TestGetReportMissing(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	_, err := f.svc.GetReport(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGetTimetableNotFound(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.timetables.findErr = sql.ErrNoRows

	_, err := f.svc.GetTimetable(context.Background(), 99)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestCreateTimetableRejectsBadRules(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	_, err := f.svc.CreateTimetable(context.Background(), dto.CreateTimetableRequest{
		Name:            "Spring draft",
		SemesterID:      1,
		GenerationRules: map[string]any{"soft_weight_preferred_slot": -2},
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestListEntriesForwardsFilter(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	teacherID := int64(10)
	f.entries.details = []models.TimetableEntryDetail{{CourseCode: "CS101"}}

	resp, err := f.svc.ListEntries(context.Background(), 42, dto.EntryListQuery{TeacherID: &teacherID})
	require.NoError(t, err)
	require.NotNil(t, f.entries.filter.TeacherID)
	assert.Equal(t, teacherID, *f.entries.filter.TeacherID)
	assert.Nil(t, f.entries.filter.SectionID)
	assert.Len(t, resp.Entries, 1)
}

func TestDeleteTimetableDraftOnly(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	require.NoError(t, f.svc.DeleteTimetable(context.Background(), 42))
	assert.Equal(t, int64(42), f.timetables.deletedID)

	f.timetables.timetable.Status = models.TimetablePublished
	err := f.svc.DeleteTimetable(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTimetableFinalized.Code, appErr.Code)
}

func TestListSemesters(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()
	f.semesters.items = []models.Semester{{ID: 1, Name: "Fall 2026"}, {ID: 2, Name: "Spring 2027"}}

	resp, err := f.svc.ListSemesters(context.Background(), dto.SemesterListQuery{DepartmentID: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 2, resp.Pagination.Total)

	_, err = f.svc.ListSemesters(context.Background(), dto.SemesterListQuery{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
