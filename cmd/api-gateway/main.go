package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academic-timetable-api/api/swagger"
	"github.com/noah-isme/academic-timetable-api/internal/engine"
	"github.com/noah-isme/academic-timetable-api/internal/handler"
	"github.com/noah-isme/academic-timetable-api/internal/middleware"
	"github.com/noah-isme/academic-timetable-api/internal/repository"
	"github.com/noah-isme/academic-timetable-api/internal/service"
	"github.com/noah-isme/academic-timetable-api/pkg/cache"
	"github.com/noah-isme/academic-timetable-api/pkg/config"
	"github.com/noah-isme/academic-timetable-api/pkg/database"
	"github.com/noah-isme/academic-timetable-api/pkg/jobs"
	"github.com/noah-isme/academic-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-timetable-api/pkg/middleware/requestid"
)

// @title Academic Timetable API
// @version 0.1.0
// @description Constraint-based timetable generation for academic semesters
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	semesters := repository.NewSemesterRepository(db)
	sections := repository.NewSectionRepository(db)
	courses := repository.NewCourseRepository(db)
	assignments := repository.NewCourseAssignmentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	rooms := repository.NewRoomRepository(db)
	timeSlots := repository.NewTimeSlotRepository(db)
	timetables := repository.NewTimetableRepository(db)
	entries := repository.NewTimetableEntryRepository(db)

	loader := engine.NewLoader(semesters, sections, courses, assignments, teachers, rooms, timeSlots, entries, logr)
	generator := engine.NewGenerator()
	runLock := cache.NewRunLock(redisClient, cfg.Engine.RunLockTTL)
	metrics := service.NewMetricsService()
	for _, repo := range []interface {
		Observe(repository.QueryObserver)
	}{
		semesters, sections, courses, assignments, teachers, rooms, timeSlots, timetables, entries,
	} {
		repo.Observe(metrics.ObserveDBQuery)
	}

	generationSvc := service.NewGenerationService(
		timetables, semesters, entries, loader, generator, runLock, nil, db, metrics, nil, logr,
		service.GenerationConfig{
			GeneratedBy:    cfg.Engine.GeneratedByLabel,
			MaxSearchSteps: cfg.Engine.MaxSearchSteps,
		},
	)
	queue := jobs.NewQueue("generation", generationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Engine.Workers,
		BufferSize: cfg.Engine.QueueSize,
		Logger:     logr,
	})
	generationSvc.AttachQueue(queue)

	exportSvc := service.NewExportService(timetables, entries, nil, nil, logr)

	timetableHandler := handler.NewTimetableHandler(generationSvc, exportSvc)
	semesterHandler := handler.NewSemesterHandler(generationSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/semesters", semesterHandler.List)
	api.POST("/timetables", timetableHandler.Create)
	api.GET("/timetables", timetableHandler.List)
	api.GET("/timetables/:id", timetableHandler.Get)
	api.DELETE("/timetables/:id", timetableHandler.Delete)
	api.PATCH("/timetables/:id/status", timetableHandler.UpdateStatus)
	api.POST("/timetables/:id/generate", timetableHandler.Generate)
	api.GET("/timetables/:id/report", timetableHandler.Report)
	api.GET("/timetables/:id/entries", timetableHandler.Entries)
	if cfg.Export.Enabled {
		api.GET("/timetables/:id/export", timetableHandler.Export)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
