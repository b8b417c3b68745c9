package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-timetable-api/internal/dto"
	"github.com/noah-isme/academic-timetable-api/internal/engine"
	"github.com/noah-isme/academic-timetable-api/internal/models"
	appErrors "github.com/noah-isme/academic-timetable-api/pkg/errors"
	"github.com/noah-isme/academic-timetable-api/pkg/jobs"
)

type timetableRepository interface {
	Create(ctx context.Context, timetable *models.Timetable) error
	FindByID(ctx context.Context, id int64) (*models.Timetable, error)
	ListBySemester(ctx context.Context, semesterID int64, page models.ListQuery) ([]models.Timetable, int, error)
	UpdateStatus(ctx context.Context, id int64, status models.TimetableStatus) error
	SaveGenerationResult(ctx context.Context, exec sqlx.ExtContext, id int64, report models.JSONMap, generatedAt time.Time, generatedBy string) error
	Delete(ctx context.Context, id int64) error
}

type semesterRepository interface {
	List(ctx context.Context, departmentID int64, page models.ListQuery) ([]models.Semester, int, error)
}

type entryRepository interface {
	ListByTimetable(ctx context.Context, timetableID int64) ([]models.TimetableEntry, error)
	ListDetails(ctx context.Context, timetableID int64, filter models.EntryFilter) ([]models.TimetableEntryDetail, error)
	DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, timetableID int64) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

type snapshotLoader interface {
	Load(ctx context.Context, semesterID int64, opts engine.LoadOptions) (*engine.Snapshot, error)
}

type timetableGenerator interface {
	Run(ctx context.Context, snap *engine.Snapshot, rules engine.Rules, timetableID int64, generatedBy string) (*engine.Outcome, error)
}

type runLocker interface {
	Acquire(ctx context.Context, timetableID int64, token string) (bool, error)
	Release(ctx context.Context, timetableID int64, token string) error
}

type runQueue interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type runObserver interface {
	ObserveGeneration(status string, duration time.Duration)
}

// GenerationConfig governs run behaviour. MaxSearchSteps is the operator
// default for the search budget; a timetable's own rules still win.
type GenerationConfig struct {
	GeneratedBy    string
	RunTimeout     time.Duration
	MaxSearchSteps int
}

// GenerationService owns the timetable lifecycle and the generation pipeline:
// load snapshot, build and solve the model, then replace the timetable's
// entries and report in one transaction.
type GenerationService struct {
	timetables timetableRepository
	semesters  semesterRepository
	entries    entryRepository
	loader     snapshotLoader
	generator  timetableGenerator
	lock       runLocker
	queue      runQueue
	tx         txProvider
	metrics    runObserver
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        GenerationConfig
}

// NewGenerationService wires the generation pipeline.
func NewGenerationService(
	timetables timetableRepository,
	semesters semesterRepository,
	entries entryRepository,
	loader snapshotLoader,
	generator timetableGenerator,
	lock runLocker,
	queue runQueue,
	tx txProvider,
	metrics runObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GeneratedBy == "" {
		cfg.GeneratedBy = "system"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	return &GenerationService{
		timetables: timetables,
		semesters:  semesters,
		entries:    entries,
		loader:     loader,
		generator:  generator,
		lock:       lock,
		queue:      queue,
		tx:         tx,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// AttachQueue wires the async run queue. The queue's handler is this
// service's HandleJob, so it is constructed after the service and
// attached here.
func (s *GenerationService) AttachQueue(queue runQueue) {
	s.queue = queue
}

// CreateTimetable opens a new draft for a semester.
func (s *GenerationService) CreateTimetable(ctx context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	if _, err := engine.DecodeRules(req.GenerationRules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation rules")
	}

	timetable := &models.Timetable{
		Name:            req.Name,
		SemesterID:      req.SemesterID,
		Status:          models.TimetableDraft,
		GenerationRules: models.JSONMap(req.GenerationRules),
	}
	if err := s.timetables.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return timetable, nil
}

// GetTimetable fetches one timetable.
func (s *GenerationService) GetTimetable(ctx context.Context, id int64) (*models.Timetable, error) {
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// ListTimetables pages a semester's timetables.
func (s *GenerationService) ListTimetables(ctx context.Context, query dto.TimetableListQuery) (*dto.TimetableListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	items, total, err := s.timetables.ListBySemester(ctx, query.SemesterID, query.ListQuery)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	if items == nil {
		items = []models.Timetable{}
	}
	return &dto.TimetableListResponse{Items: items, Pagination: query.Paginate(total)}, nil
}

// UpdateStatus moves a timetable between lifecycle phases.
func (s *GenerationService) UpdateStatus(ctx context.Context, id int64, req dto.UpdateTimetableStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timetable status %q", req.Status))
	}
	timetable, err := s.GetTimetable(ctx, id)
	if err != nil {
		return err
	}
	if timetable.Status == models.TimetableArchived {
		return appErrors.Clone(appErrors.ErrTimetableFinalized, "archived timetables cannot change status")
	}
	if err := s.timetables.UpdateStatus(ctx, id, req.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable status")
	}
	return nil
}

// ListEntries returns the placement rows of a timetable with display names,
// optionally narrowed to one teacher or section.
func (s *GenerationService) ListEntries(ctx context.Context, timetableID int64, query dto.EntryListQuery) (*dto.EntryListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry query")
	}
	if _, err := s.GetTimetable(ctx, timetableID); err != nil {
		return nil, err
	}
	details, err := s.entries.ListDetails(ctx, timetableID, models.EntryFilter{
		TeacherID: query.TeacherID,
		SectionID: query.SectionID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	if details == nil {
		details = []models.TimetableEntryDetail{}
	}
	return &dto.EntryListResponse{TimetableID: timetableID, Entries: details}, nil
}

// ListSemesters pages a department's semesters, newest first.
func (s *GenerationService) ListSemesters(ctx context.Context, query dto.SemesterListQuery) (*dto.SemesterListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester query")
	}
	items, total, err := s.semesters.List(ctx, query.DepartmentID, query.ListQuery)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if items == nil {
		items = []models.Semester{}
	}
	return &dto.SemesterListResponse{Items: items, Pagination: query.Paginate(total)}, nil
}

// DeleteTimetable removes a draft. Published and archived timetables are
// immutable history and stay.
func (s *GenerationService) DeleteTimetable(ctx context.Context, id int64) error {
	timetable, err := s.GetTimetable(ctx, id)
	if err != nil {
		return err
	}
	if timetable.Status != models.TimetableDraft {
		return appErrors.Clone(appErrors.ErrTimetableFinalized, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// GetReport returns the persisted outcome of the latest generation run.
func (s *GenerationService) GetReport(ctx context.Context, timetableID int64) (*dto.GenerationReportResponse, error) {
	timetable, err := s.GetTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if len(timetable.Report) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable has not been generated yet")
	}
	status, _ := timetable.Report["status"].(string)
	return &dto.GenerationReportResponse{
		TimetableID: timetableID,
		Status:      status,
		Report:      timetable.Report,
		GeneratedAt: timetable.GeneratedAt,
		GeneratedBy: timetable.GeneratedBy,
	}, nil
}

// Generate runs the pipeline for a timetable. With Async set the run is
// queued and a run id returned immediately; otherwise the call blocks until
// the run lands.
func (s *GenerationService) Generate(ctx context.Context, timetableID int64, req dto.GenerateTimetableRequest) (*dto.GenerationRunResponse, error) {
	timetable, err := s.GetTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if timetable.Status != models.TimetableDraft {
		return nil, appErrors.Clone(appErrors.ErrTimetableFinalized, "only draft timetables can be generated")
	}

	rules, err := s.resolveRules(timetable, req.RuleOverrides)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	acquired, err := s.lock.Acquire(ctx, timetableID, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrGenerationRunning, "")
	}

	if req.Async && s.queue != nil {
		job := jobs.Job{
			ID:      runID,
			Type:    "timetable.generate",
			Payload: generationJob{TimetableID: timetableID, SemesterID: timetable.SemesterID, Rules: rules, RunID: runID},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.releaseLock(timetableID, runID)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation run")
		}
		return &dto.GenerationRunResponse{RunID: runID, TimetableID: timetableID, Queued: true}, nil
	}

	defer s.releaseLock(timetableID, runID)
	if err := s.execute(ctx, timetable.SemesterID, timetableID, rules); err != nil {
		return nil, err
	}
	return &dto.GenerationRunResponse{RunID: runID, TimetableID: timetableID, Queued: false}, nil
}

// generationJob is the queue payload of an asynchronous run.
type generationJob struct {
	TimetableID int64
	SemesterID  int64
	Rules       engine.Rules
	RunID       string
}

// HandleJob processes one queued generation run. Wire it as the queue handler.
func (s *GenerationService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	defer s.releaseLock(payload.TimetableID, payload.RunID)

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	if err := s.execute(runCtx, payload.SemesterID, payload.TimetableID, payload.Rules); err != nil {
		s.logger.Error("generation run failed",
			zap.String("run_id", payload.RunID),
			zap.Int64("timetable_id", payload.TimetableID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *GenerationService) resolveRules(timetable *models.Timetable, overrides map[string]any) (engine.Rules, error) {
	merged := map[string]interface{}{}
	if s.cfg.MaxSearchSteps > 0 {
		merged["max_search_steps"] = s.cfg.MaxSearchSteps
	}
	for k, v := range timetable.GenerationRules {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	rules, err := engine.DecodeRules(merged)
	if err != nil {
		return rules, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation rules")
	}
	return rules, nil
}

// execute runs load, solve and persist for one timetable. Every terminal
// outcome, including infeasibility and budget exhaustion, is persisted as the
// timetable's report; only the success path touches the entries.
func (s *GenerationService) execute(ctx context.Context, semesterID, timetableID int64, rules engine.Rules) error {
	start := time.Now()
	snap, err := s.loader.Load(ctx, semesterID, engine.LoadOptions{
		TimetableID:         timetableID,
		LockExistingEntries: rules.LockExistingEntries,
	})
	if err != nil {
		var snapErr *engine.SnapshotError
		if errors.As(err, &snapErr) {
			s.observe("nothing_to_schedule", start)
			return appErrors.Wrap(err, appErrors.ErrNothingToSchedule.Code, appErrors.ErrNothingToSchedule.Status, snapErr.Reason)
		}
		s.observe("error", start)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling snapshot")
	}

	outcome, err := s.generator.Run(ctx, snap, rules, timetableID, s.cfg.GeneratedBy)
	if err != nil {
		var modelErr *engine.ModelError
		if errors.As(err, &modelErr) {
			s.observe("infeasible_model", start)
			return appErrors.Wrap(err, appErrors.ErrInfeasibleModel.Code, appErrors.ErrInfeasibleModel.Status, modelErr.Reason)
		}
		s.observe("error", start)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation run failed")
	}

	if err := s.persist(ctx, timetableID, outcome); err != nil {
		s.observe("error", start)
		return err
	}
	s.observe(string(outcome.Status), start)

	s.logger.Info("generation run finished",
		zap.Int64("timetable_id", timetableID),
		zap.String("status", string(outcome.Status)),
		zap.Int("entries", len(outcome.Entries)),
		zap.Int("steps", outcome.Report.Steps),
		zap.Float64("score", outcome.Report.Score),
	)

	switch outcome.Status {
	case engine.StatusInfeasible:
		return appErrors.Clone(appErrors.ErrConflict, "no conflict-free timetable exists for the current data")
	case engine.StatusTimeout:
		return appErrors.Clone(appErrors.ErrSearchBudget, outcome.Report.Detail)
	}
	return nil
}

// persist lands the outcome atomically: replaced entries plus the report. On
// non-success outcomes existing entries stay in place and only the report is
// written, so a failed rerun never destroys a published schedule.
func (s *GenerationService) persist(ctx context.Context, timetableID int64, outcome *engine.Outcome) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if outcome.Status == engine.StatusSuccess {
		if !outcome.Report.Rules.LockExistingEntries {
			if err := s.entries.DeleteByTimetable(ctx, tx, timetableID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous entries")
			}
		}
		if err := s.entries.InsertBatch(ctx, tx, outcome.Entries); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert entries")
		}
	}

	report, err := reportDocument(outcome.Report)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode report")
	}
	if err := s.timetables.SaveGenerationResult(ctx, tx, timetableID, report, outcome.Report.GeneratedAt, outcome.Report.GeneratedBy); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation result")
	}
	return nil
}

// reportDocument flattens the typed report into the JSON document stored on
// the timetable row.
func reportDocument(report engine.Report) (models.JSONMap, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	var doc models.JSONMap
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode report document: %w", err)
	}
	return doc, nil
}

func (s *GenerationService) releaseLock(timetableID int64, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.lock.Release(ctx, timetableID, token); err != nil {
		s.logger.Warn("failed to release generation lock", zap.Int64("timetable_id", timetableID), zap.Error(err))
	}
}

func (s *GenerationService) observe(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveGeneration(status, time.Since(start))
	}
}
