package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/accounts"
	h "github.com/Iautonoma/tiktok-to-tube-automator/internal/api/http"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/client"
	cfgpkg "github.com/Iautonoma/tiktok-to-tube-automator/internal/config"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/pipeline"
	svc "github.com/Iautonoma/tiktok-to-tube-automator/internal/service"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully", "environment", cfg.Environment)

	batchStore, err := storage.NewBatchStore(cfg.StateFile)
	if err != nil {
		slog.Error("failed to initialize batch store", "error", err)
		os.Exit(1)
	}

	artifacts := storage.NewArtifactStore(cfg.StagingDir)
	if err := artifacts.Sweep(); err != nil {
		slog.Warn("failed to sweep staging directory", "error", err)
	}

	logger := slog.Default()

	platform := client.NewPlatformClient(client.PlatformOptions{
		BaseURL:         cfg.PlatformBaseURL,
		ProxyURL:        cfg.ResolverProxyURL,
		SearchTimeout:   cfg.SearchTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
		MaxFileSize:     cfg.MaxFileSize,
	}, artifacts, logger)

	uploaders := map[string]stages.Uploader{
		domain.UploadTargetFileHost: client.NewFileHostClient(cfg.FileHostURL, cfg.FileHostToken, cfg.UploadTimeout, artifacts, logger),
		domain.UploadTargetTube:     client.NewTubeHostClient(cfg.TubeHostURL, cfg.TubeHostToken, cfg.UploadTimeout, artifacts, logger),
	}

	defaults := domain.UserSettings{
		UploadTarget: domain.UploadTargetFileHost,
		MaxRetries:   cfg.MaxRetries,
	}
	var provider accounts.Provider = accounts.Static{Settings: defaults}
	if cfg.AccountsURL != "" {
		provider = accounts.NewHTTPProvider(cfg.AccountsURL, cfg.SearchTimeout, defaults, logger)
	}

	batchService := svc.NewBatchService(
		batchStore,
		artifacts,
		platform,
		platform,
		uploaders,
		provider,
		pipeline.Config{
			MaxRetries:       cfg.MaxRetries,
			RetryBaseDelay:   cfg.RetryBaseDelay,
			InterItemDelay:   cfg.InterItemDelay,
			PreDownloadDelay: cfg.PreDownloadDelay,
		},
		logger,
	)

	if err := batchService.RecoverStale(context.Background()); err != nil {
		slog.Error("failed to recover stale batches", "error", err)
		os.Exit(1)
	}

	router := h.NewRouter(batchService, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	} else {
		slog.Info("server stopped gracefully")
	}

	if err := batchService.Shutdown(shutdownCtx); err != nil {
		slog.Error("batch service shutdown failed", "error", err)
	}
}
