package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/handler"
	"github.com/KasumiMercury/primind-dose-reminder/internal/health"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/planrecorder"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/middleware"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/action"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/grouping"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/medication"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/occurrence"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/plan"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/reconcile"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
)

// Version is set via ldflags at build time
var Version = "dev"

const serviceModule = logging.Module("dose-reminder")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	plannerMetrics, err := metrics.NewPlannerMetrics()
	if err != nil {
		slog.Error("failed to initialize planner metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB for local, BigQuery for gcloud
	resultRecorder, err := planrecorder.NewRecorder(ctx, planrecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize plan result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := resultRecorder.Close(); err != nil {
			slog.Warn("failed to close plan result recorder", slog.String("error", err.Error()))
		}
	}()

	taskQueue, cleanup, err := initTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("task queue cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	redisClient := redis.NewClient(cfg.Redis.Options())

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	medRepo := repository.NewMedicationRepository(redisClient)
	settingsRepo := repository.NewSettingsRepository(redisClient)

	clock := domain.SystemClock{Location: cfg.Planner.Location}
	evaluator := recurrence.NewEvaluator(cfg.Planner.EmptyWeekdays)
	builder := occurrence.NewBuilder(evaluator)
	grouper := grouping.NewGrouper(cfg.Planner.Collation, cfg.Planner.Location)

	planService := plan.NewService(medRepo, settingsRepo, builder, grouper, cfg.Planner)
	reconciler := reconcile.NewReconciler(planService, taskQueue, clock, resultRecorder, plannerMetrics, cfg.Planner)

	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("reconciler stopped",
				slog.String("event", "reconcile.run.fail"),
				slog.String("error", err.Error()),
			)
		}
	}()
	reconciler.RequestPlanning("startup")

	medicationService := medication.NewService(medRepo, settingsRepo, evaluator, reconciler, clock, cfg.Planner)
	actionService := action.NewService(medRepo, settingsRepo, taskQueue, reconciler, clock, cfg.Planner)

	medicationHandler := handler.NewMedicationHandler(medicationService)
	statusHandler := handler.NewStatusHandler(medicationService)
	settingsHandler := handler.NewSettingsHandler(medicationService)
	planningHandler := handler.NewPlanningHandler(reconciler)
	actionHandler := handler.NewActionHandler(actionService)

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", "/metrics"},
		Module:      serviceModule,
		TracerName:  "github.com/KasumiMercury/primind-dose-reminder/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(redisClient, reconciler, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/medications", medicationHandler.List)
		v1.POST("/medications", medicationHandler.Create)
		v1.GET("/medications/:id", medicationHandler.Get)
		v1.PUT("/medications/:id", medicationHandler.Update)
		v1.DELETE("/medications/:id", medicationHandler.Delete)
		v1.POST("/medications/:id/pause", medicationHandler.Pause)

		v1.GET("/statuses", statusHandler.History)
		v1.PUT("/statuses", statusHandler.Set)
		v1.GET("/progress", statusHandler.Progress)

		v1.GET("/settings", settingsHandler.Get)
		v1.PUT("/settings", settingsHandler.Update)

		v1.POST("/planning/trigger", planningHandler.Trigger)
		v1.GET("/planning/snapshot", planningHandler.Snapshot)

		v1.POST("/notifications/actions", actionHandler.Handle)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("window_days", cfg.Planner.WindowDays),
			slog.Duration("debounce", cfg.Planner.Debounce),
			slog.Duration("schedule_lead", cfg.Planner.ScheduleLead),
			slog.String("timezone", cfg.Planner.Location.String()),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
