package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	errpkg "github.com/Iautonoma/tiktok-to-tube-automator/internal/errors"
)

// BatchStore provides in-memory and file-based storage for batches.
// Persistence is best effort: the whole map is rewritten atomically on every
// mutation, and a broken state file fails startup.
//
// The store holds detached snapshots. Save copies the caller's batch and
// every read returns a fresh copy, so the pipeline goroutine mutating its
// own Batch never races HTTP readers.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*domain.Batch
	file    string
}

// NewBatchStore creates a new BatchStore and loads batches from the file if it exists.
func NewBatchStore(filePath string) (*BatchStore, error) {
	store := &BatchStore{
		batches: make(map[uuid.UUID]*domain.Batch),
		file:    filepath.Clean(filePath),
	}

	if err := store.restore(); err != nil {
		return nil, fmt.Errorf("failed to load state from file: %w", err)
	}

	slog.Info("batch store initialized", "file_path", store.file, "batches_count", len(store.batches))
	return store, nil
}

func (s *BatchStore) restore() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("state file does not exist, starting with empty state", "file_path", s.file)
			return nil
		}
		return fmt.Errorf("%w: %v", errpkg.ErrStateFileBroken, err)
	}

	if len(data) == 0 {
		slog.Warn("state file is empty")
		return nil
	}

	var batches []*domain.Batch
	if err := json.Unmarshal(data, &batches); err != nil {
		return fmt.Errorf("%w: %v", errpkg.ErrStateFileBroken, err)
	}

	for _, batch := range batches {
		s.batches[batch.ID] = batch
	}

	slog.Info("state loaded from file", "batches_count", len(batches), "file_path", s.file)
	return nil
}

func (s *BatchStore) persist() error {
	s.mu.RLock()
	batches := make([]*domain.Batch, 0, len(s.batches))
	for _, batch := range s.batches {
		batches = append(batches, batch)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(batches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batches: %w", err)
	}

	tempFile := s.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	slog.Debug("state saved to file", "batches_count", len(batches), "file_path", s.file)
	return nil
}

// Save inserts or replaces a snapshot of the batch and persists the state
// file.
func (s *BatchStore) Save(ctx context.Context, batch *domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch.UpdatedAt = time.Now()

	s.mu.Lock()
	s.batches[batch.ID] = batch.Clone()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to save state after writing batch: %w", err)
	}

	slog.Debug("batch saved", "batch_id", batch.ID, "status", batch.Status)
	return nil
}

// Get retrieves a copy of the batch by ID.
func (s *BatchStore) Get(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	batch, exists := s.batches[id]
	s.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrBatchNotFound
	}
	return batch.Clone(), nil
}

// List returns copies of all stored batches, newest first.
func (s *BatchStore) List(ctx context.Context) ([]*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	batches := make([]*domain.Batch, 0, len(s.batches))
	for _, batch := range s.batches {
		batches = append(batches, batch.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	return batches, nil
}

// GetByStatus returns copies of all batches with the specified status.
func (s *BatchStore) GetByStatus(ctx context.Context, status domain.BatchStatus) ([]*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var filtered []*domain.Batch
	for _, batch := range s.batches {
		if batch.Status == status {
			filtered = append(filtered, batch.Clone())
		}
	}
	s.mu.RUnlock()

	return filtered, nil
}
