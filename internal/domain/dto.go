package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateBatchRequest represents the request body for starting a new batch.
type CreateBatchRequest struct {
	Keyword        string   `json:"keyword" validate:"required,min=1,max=100"`
	Count          int      `json:"count" validate:"required,min=1,max=50"`
	UserID         string   `json:"user_id,omitempty" validate:"omitempty,uuid4"`
	MinDurationSec int      `json:"min_duration_sec,omitempty" validate:"omitempty,min=0"`
	MaxDurationSec int      `json:"max_duration_sec,omitempty" validate:"omitempty,min=0"`
	Blacklist      []string `json:"blacklist,omitempty" validate:"omitempty,max=50,dive,min=1"`
}

// BatchResponse represents the response returned for a batch, including
// per-item states and the derived progress projection.
type BatchResponse struct {
	ID               uuid.UUID         `json:"batch_id"`
	Keyword          string            `json:"keyword"`
	Status           BatchStatus       `json:"status"`
	Items            []ProcessingState `json:"items"`
	OverallProgress  int               `json:"overall_progress"`
	StatusCounts     StatusCounts      `json:"status_counts"`
	CountdownSeconds int               `json:"countdown_seconds"`
	Result           *BatchResult      `json:"result,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// StatusCounts is a fixed-key histogram of item statuses. Downloading and
// uploading are collapsed into a single processing bucket for display.
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Waiting    int `json:"waiting"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
