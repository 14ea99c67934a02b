package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/accounts"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	errpkg "github.com/Iautonoma/tiktok-to-tube-automator/internal/errors"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/metrics"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/pacing"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/pipeline"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/progress"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/registry"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
)

// BatchService creates batches and runs each one's pipeline on a background
// goroutine. Items within a batch remain strictly sequential.
type BatchService struct {
	store     *storage.BatchStore
	artifacts *storage.ArtifactStore
	collector stages.Collector
	fetcher   stages.Fetcher
	uploaders map[string]stages.Uploader
	provider  accounts.Provider
	cfg       pipeline.Config
	logger    *slog.Logger

	mu         sync.RWMutex
	registries map[uuid.UUID]*registry.Registry
	countdowns map[uuid.UUID]*atomic.Int32

	runCtx    context.Context
	cancelRun context.CancelFunc
	group     *errgroup.Group
	closed    bool
}

func NewBatchService(
	store *storage.BatchStore,
	artifacts *storage.ArtifactStore,
	collector stages.Collector,
	fetcher stages.Fetcher,
	uploaders map[string]stages.Uploader,
	provider accounts.Provider,
	cfg pipeline.Config,
	logger *slog.Logger,
) *BatchService {
	runCtx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		store:      store,
		artifacts:  artifacts,
		collector:  collector,
		fetcher:    fetcher,
		uploaders:  uploaders,
		provider:   provider,
		cfg:        cfg,
		logger:     logger,
		registries: make(map[uuid.UUID]*registry.Registry),
		countdowns: make(map[uuid.UUID]*atomic.Int32),
		runCtx:     runCtx,
		cancelRun:  cancel,
		group:      &errgroup.Group{},
	}
}

// CreateBatch resolves the user's settings, runs the collect stage, and
// starts the pipeline in the background. The returned batch is already
// persisted in pending state.
func (s *BatchService) CreateBatch(ctx context.Context, req *domain.CreateBatchRequest) (*domain.Batch, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errpkg.ErrShuttingDown
	}

	settings, err := s.provider.Resolve(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user settings: %w", err)
	}

	filters := mergeFilters(req, settings)
	items, err := s.collector.Collect(ctx, req.Keyword, req.Count, filters)
	if err != nil {
		return nil, fmt.Errorf("collect candidates: %w", err)
	}

	batch := &domain.Batch{
		ID:        uuid.New(),
		Keyword:   req.Keyword,
		Filters:   filters,
		Items:     items,
		Status:    domain.BatchStatusPending,
		CreatedAt: time.Now(),
	}

	reg := registry.New()
	reg.Initialize(items)
	batch.States = reg.Snapshot()

	if err := s.store.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}

	s.mu.Lock()
	s.registries[batch.ID] = reg
	s.countdowns[batch.ID] = &atomic.Int32{}
	s.mu.Unlock()

	maxRetries := s.cfg.MaxRetries
	if settings.MaxRetries > 0 {
		maxRetries = settings.MaxRetries
	}
	uploader := s.uploaderFor(settings.UploadTarget)

	// The run goroutine keeps mutating its batch; callers get a snapshot.
	snapshot := batch.Clone()

	s.group.Go(func() error {
		s.runBatch(batch, reg, uploader, maxRetries)
		return nil
	})

	metrics.BatchesStarted.Inc()
	s.logger.Info("batch created",
		"batch_id", snapshot.ID,
		"keyword", req.Keyword,
		"items_count", len(items),
	)
	return snapshot, nil
}

// RecoverStale finalizes batches a previous process left in running state.
// Their persisted per-item states are kept as they were; the batch is closed
// out with the counts those states reached. Called once on startup before
// the HTTP server accepts traffic.
func (s *BatchService) RecoverStale(ctx context.Context) error {
	stale, err := s.store.GetByStatus(ctx, domain.BatchStatusRunning)
	if err != nil {
		return err
	}

	for _, batch := range stale {
		batch.Status = domain.BatchStatusCompleted
		if batch.Result == nil {
			result := domain.BatchResult{Succeeded: []string{}}
			for _, state := range batch.States {
				switch state.Status {
				case domain.StatusCompleted:
					result.Succeeded = append(result.Succeeded, state.ItemID)
					result.SuccessCount++
				case domain.StatusFailed:
					result.FailureCount++
				}
			}
			batch.Result = &result
		}

		if err := s.store.Save(ctx, batch); err != nil {
			return fmt.Errorf("finalize stale batch %s: %w", batch.ID, err)
		}
		s.logger.Warn("finalized batch left running by a previous process",
			"batch_id", batch.ID,
			"success_count", batch.Result.SuccessCount,
			"failure_count", batch.Result.FailureCount,
		)
	}
	return nil
}

func (s *BatchService) runBatch(batch *domain.Batch, reg *registry.Registry, uploader stages.Uploader, maxRetries int) {
	ctx := s.runCtx

	batch.Status = domain.BatchStatusRunning
	if err := s.store.Save(ctx, batch); err != nil {
		s.logger.Error("failed to persist running batch", "batch_id", batch.ID, "error", err)
	}

	cfg := s.cfg
	cfg.MaxRetries = maxRetries

	pacer := pacing.NewSleeper(func(remaining time.Duration) {
		s.setCountdown(batch.ID, int(remaining.Seconds()))
		if remaining > 0 {
			s.logger.Debug("countdown", "batch_id", batch.ID, "remaining_seconds", int(remaining.Seconds()))
		}
	})

	driver := pipeline.NewDriver(reg, s.fetcher, uploader, s.artifacts, pacer, cfg, s.logger.With("batch_id", batch.ID))
	result := driver.Run(ctx, batch.Items)

	s.setCountdown(batch.ID, 0)

	batch.Status = domain.BatchStatusCompleted
	batch.States = reg.Snapshot()
	batch.Result = &result
	if err := s.store.Save(context.Background(), batch); err != nil {
		s.logger.Error("failed to persist finished batch", "batch_id", batch.ID, "error", err)
	}

	metrics.BatchesCompleted.Inc()
	s.logger.Info("batch completed",
		"batch_id", batch.ID,
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount,
	)
}

// GetBatch returns the stored batch overlaid with the live registry snapshot
// and the derived progress projection.
func (s *BatchService) GetBatch(ctx context.Context, id uuid.UUID) (*domain.BatchResponse, error) {
	batch, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	states := batch.States
	s.mu.RLock()
	if reg, ok := s.registries[id]; ok {
		states = reg.Snapshot()
	}
	countdown := 0
	if c, ok := s.countdowns[id]; ok {
		countdown = int(c.Load())
	}
	s.mu.RUnlock()

	return &domain.BatchResponse{
		ID:               batch.ID,
		Keyword:          batch.Keyword,
		Status:           batch.Status,
		Items:            states,
		OverallProgress:  progress.Overall(states),
		StatusCounts:     progress.Counts(states),
		CountdownSeconds: countdown,
		Result:           batch.Result,
		CreatedAt:        batch.CreatedAt,
		UpdatedAt:        batch.UpdatedAt,
	}, nil
}

// ListBatches returns every stored batch, newest first.
func (s *BatchService) ListBatches(ctx context.Context) ([]*domain.Batch, error) {
	return s.store.List(ctx)
}

// Shutdown stops accepting batches, cancels in-flight pipelines, and waits
// for them to drain.
func (s *BatchService) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down batch service")

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancelRun()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("batch service shutdown completed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("batch service shutdown timed out")
		return ctx.Err()
	}
}

func (s *BatchService) setCountdown(id uuid.UUID, seconds int) {
	s.mu.RLock()
	c, ok := s.countdowns[id]
	s.mu.RUnlock()
	if ok {
		c.Store(int32(seconds))
	}
}

func (s *BatchService) uploaderFor(target string) stages.Uploader {
	if u, ok := s.uploaders[target]; ok {
		return u
	}
	return s.uploaders[domain.UploadTargetFileHost]
}

func mergeFilters(req *domain.CreateBatchRequest, settings domain.UserSettings) domain.Filters {
	filters := domain.Filters{
		MinDurationSec: req.MinDurationSec,
		MaxDurationSec: req.MaxDurationSec,
		Blacklist:      req.Blacklist,
	}
	if filters.MinDurationSec == 0 {
		filters.MinDurationSec = settings.MinDurationSec
	}
	if filters.MaxDurationSec == 0 {
		filters.MaxDurationSec = settings.MaxDurationSec
	}
	filters.Blacklist = append(filters.Blacklist, settings.Blacklist...)
	return filters
}
