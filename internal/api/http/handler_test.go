package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	errpkg "github.com/Iautonoma/tiktok-to-tube-automator/internal/errors"
)

type mockBatchService struct {
	createErr error
}

func (m *mockBatchService) CreateBatch(ctx context.Context, req *domain.CreateBatchRequest) (*domain.Batch, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Batch{
		ID:      uuid.New(),
		Keyword: req.Keyword,
		Status:  domain.BatchStatusPending,
		Items:   []domain.CandidateItem{{ID: "a"}, {ID: "b"}},
	}, nil
}

func (m *mockBatchService) GetBatch(ctx context.Context, id uuid.UUID) (*domain.BatchResponse, error) {
	if id == (uuid.UUID{}) {
		return nil, errpkg.ErrBatchNotFound
	}
	return &domain.BatchResponse{
		ID:              id,
		Status:          domain.BatchStatusCompleted,
		OverallProgress: 100,
	}, nil
}

func (m *mockBatchService) ListBatches(ctx context.Context) ([]*domain.Batch, error) {
	return []*domain.Batch{{ID: uuid.New()}}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

func TestBatchHandler_CreateBatch(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	body, _ := json.Marshal(domain.CreateBatchRequest{Keyword: "cats", Count: 5})
	req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBatch(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var data map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&data)
	assert.Contains(t, data, "batch_id")
	assert.EqualValues(t, 2, data["items_count"])
}

func TestBatchHandler_CreateBatch_InvalidBody(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler.CreateBatch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestBatchHandler_CreateBatch_ValidationFailure(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	// Missing keyword and count.
	body, _ := json.Marshal(map[string]interface{}{})
	req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBatch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestBatchHandler_CreateBatch_ShuttingDown(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{createErr: errpkg.ErrShuttingDown}, testLogger())

	body, _ := json.Marshal(domain.CreateBatchRequest{Keyword: "cats", Count: 5})
	req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBatch(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Result().StatusCode)
}

func TestBatchHandler_GetBatch(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/batches/"+id.String(), nil)

	r := chi.NewRouter()
	r.Get("/batches/{batchID}", handler.GetBatch)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data domain.BatchResponse
	_ = json.NewDecoder(resp.Body).Decode(&data)
	assert.Equal(t, id, data.ID)
	assert.Equal(t, 100, data.OverallProgress)
}

func TestBatchHandler_GetBatch_InvalidID(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/batches/not-a-uuid", nil)

	r := chi.NewRouter()
	r.Get("/batches/{batchID}", handler.GetBatch)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestBatchHandler_GetBatch_NotFound(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/batches/"+uuid.UUID{}.String(), nil)

	r := chi.NewRouter()
	r.Get("/batches/{batchID}", handler.GetBatch)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestBatchHandler_ListBatches(t *testing.T) {
	handler := NewBatchHandler(&mockBatchService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	w := httptest.NewRecorder()

	handler.ListBatches(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&data)
	assert.Contains(t, data, "batches")
}
