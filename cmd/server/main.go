package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	aishiftsroot "github.com/set-night/aishifts"
	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/handler"
	"github.com/set-night/aishifts/internal/repository"
	"github.com/set-night/aishifts/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	systemPrompt := config.LoadSystemPrompt(cfg.SystemPromptPath)

	profiles, err := config.LoadModelProfiles(cfg.ModelProfilesPath)
	if err != nil {
		slog.Error("failed to load model profiles", "error", err)
		os.Exit(1)
	}

	// Initialize services
	gemini := service.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.ProviderTimeout)
	fal := service.NewFalService(cfg.FalKey, cfg.FalBaseURL, cfg.ProviderTimeout)
	orchestrator := service.NewOrchestrator(gemini, fal, profiles, systemPrompt)

	var store service.CatalogStore
	if cfg.CatalogEnabled() {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(aishiftsroot.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		store = repository.NewCatalogRepository(pool)
	} else {
		slog.Warn("DATABASE_URL not set, catalog serves sample content")
	}
	catalog := service.NewCatalogService(store, config.CatalogCacheDuration)

	h := handler.New(handler.Deps{
		Cfg:          cfg,
		Orchestrator: orchestrator,
		Catalog:      catalog,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"gemini_configured", gemini.Configured(),
			"fal_configured", fal.Configured(),
			"model_profiles", profiles.Len(),
			"catalog_store", store != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}
