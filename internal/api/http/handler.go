package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	errpkg "github.com/Iautonoma/tiktok-to-tube-automator/internal/errors"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
)

// BatchServiceI defines the interface for batch-related business logic.
type BatchServiceI interface {
	CreateBatch(ctx context.Context, req *domain.CreateBatchRequest) (*domain.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*domain.BatchResponse, error)
	ListBatches(ctx context.Context) ([]*domain.Batch, error)
}

// BatchHandler handles HTTP requests for batches.
type BatchHandler struct {
	batchService BatchServiceI
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewBatchHandler creates a new BatchHandler with the provided service and logger.
func NewBatchHandler(batchService BatchServiceI, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		validator:    validator.New(),
		logger:       logger,
	}
}

// CreateBatch handles the HTTP POST /batches request to collect items and
// start a pipeline run.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := h.batchService.CreateBatch(ctx, &req)
	if err != nil {
		switch {
		case stages.IsValidation(err):
			h.logger.Warn("collect rejected input", "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, errpkg.ErrShuttingDown):
			writeError(w, http.StatusServiceUnavailable, "service is shutting down")
		default:
			h.logger.Error("failed to create batch", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("batch created", "batch_id", batch.ID, "items_count", len(batch.Items))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"batch_id":    batch.ID,
		"items_count": len(batch.Items),
	})
}

// GetBatch handles the HTTP GET /batches/{batchID} request to fetch a batch
// with its live per-item states and progress projection.
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	batchIDStr := chi.URLParam(r, "batchID")
	batchID, err := uuid.Parse(batchIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch ID")
		return
	}

	response, err := h.batchService.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, errpkg.ErrBatchNotFound) {
			writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		h.logger.Error("failed to get batch", "batch_id", batchID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListBatches handles the HTTP GET /batches request.
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batchService.ListBatches(r.Context())
	if err != nil {
		h.logger.Error("failed to list batches", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batches": batches,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
