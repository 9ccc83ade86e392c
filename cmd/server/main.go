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

	"pomofocus/backend/internal/config"
	"pomofocus/backend/internal/db"
	"pomofocus/backend/internal/engine"
	"pomofocus/backend/internal/events"
	"pomofocus/backend/internal/handler"
	"pomofocus/backend/internal/notify"
	"pomofocus/backend/internal/prioritize"
	"pomofocus/backend/internal/repository"
	"pomofocus/backend/internal/router"
	"pomofocus/backend/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	historyRepo := repository.NewHistoryRepository(database)
	taskRepo := repository.NewTaskRepository(database)

	hub := events.NewHub(events.DefaultBuffer)
	permissions := notify.NewPermissions()

	authService := service.NewAuthService(userRepo, settingsRepo, cfg.Timer, cfg.JWTSecret, cfg.TokenTTL)
	taskService := service.NewTaskService(taskRepo)
	timerService := service.NewTimerService(
		settingsRepo,
		historyRepo,
		taskService,
		hub,
		permissions,
		cfg.Timer,
		logger,
		engine.WithTickInterval(cfg.TickInterval),
	)

	limiter := service.NewPerMinuteLimiter(cfg.AI.RatePerMinute)
	defer limiter.Close()
	client := prioritize.NewAnthropicClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	prioritizeService := service.NewPrioritizeService(prioritize.New(client), limiter, logger)
	if cfg.AI.APIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, task prioritization disabled")
	}

	routes := router.New(authService, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Timer:         handler.NewTimerHandler(timerService),
		Tasks:         handler.NewTaskHandler(taskService),
		Notifications: handler.NewNotificationHandler(permissions),
		Events:        handler.NewEventsHandler(hub, timerService),
		Prioritize:    handler.NewPrioritizeHandler(prioritizeService),
	}, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("run server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// Event streams only end when the hub closes, so close it before draining.
	timerService.Close()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped")
}
