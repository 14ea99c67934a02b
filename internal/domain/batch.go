package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle of a whole batch run.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
)

// Batch is the ordered set of items submitted together for one run.
// It is owned by the pipeline driver; readers get snapshots.
type Batch struct {
	ID        uuid.UUID         `json:"id"`
	Keyword   string            `json:"keyword"`
	Filters   Filters           `json:"filters"`
	Items     []CandidateItem   `json:"items"`
	Status    BatchStatus       `json:"status"`
	States    []ProcessingState `json:"states,omitempty"`
	Result    *BatchResult      `json:"result,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a deep copy that can be handed to another goroutine while
// the pipeline keeps mutating the original.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}

	out := *b
	out.Items = append([]CandidateItem(nil), b.Items...)
	out.States = append([]ProcessingState(nil), b.States...)
	out.Filters.Blacklist = append([]string(nil), b.Filters.Blacklist...)
	if b.Result != nil {
		result := *b.Result
		result.Succeeded = append([]string(nil), b.Result.Succeeded...)
		out.Result = &result
	}
	return &out
}

// BatchResult is the tally delivered after the full item list is exhausted.
type BatchResult struct {
	Succeeded    []string `json:"succeeded"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
}

// UserSettings is per-user configuration resolved before a batch starts.
type UserSettings struct {
	Blacklist      []string `json:"blacklist,omitempty"`
	MinDurationSec int      `json:"min_duration_sec,omitempty"`
	MaxDurationSec int      `json:"max_duration_sec,omitempty"`
	UploadTarget   string   `json:"upload_target,omitempty"`
	MaxRetries     int      `json:"max_retries,omitempty"`
}

// UploadTarget values accepted in UserSettings.
const (
	UploadTargetFileHost = "filehost"
	UploadTargetTube     = "tube"
)
