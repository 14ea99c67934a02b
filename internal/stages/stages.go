// Package stages defines the contracts for the three pipeline stage
// executors and the error envelope they normalize outcomes into.
package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

// MaxCollectResults caps the collect result set regardless of the requested
// count.
const MaxCollectResults = 20

// Kind classifies a stage error by origin.
type Kind int

const (
	// KindTransient covers HTTP errors, timeouts, and malformed upstream
	// responses. Retried on a fixed schedule.
	KindTransient Kind = iota
	// KindValidation covers malformed or disallowed input. Never retried.
	KindValidation
)

// Error is the failure half of the stage envelope. RetryAfter carries an
// upstream backoff hint; the driver uses its fixed schedule and ignores it.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a non-retryable input error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Transient builds a retryable service error wrapping its cause.
func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// IsValidation reports whether err originates from disallowed input.
func IsValidation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindValidation
}

// Retryable reports whether a failed stage call may be attempted again.
func Retryable(err error) bool {
	return !IsValidation(err)
}

// Collector returns candidate items matching a keyword, bounded by count and
// capped at MaxCollectResults, with filters applied.
type Collector interface {
	Collect(ctx context.Context, keyword string, count int, filters domain.Filters) ([]domain.CandidateItem, error)
}

// Fetcher resolves an item's downloadable reference and stages a local copy.
type Fetcher interface {
	Fetch(ctx context.Context, item domain.CandidateItem) (domain.ArtifactFile, error)
}

// Uploader moves a staged artifact to the hosting backend and returns a
// durable reference.
type Uploader interface {
	Upload(ctx context.Context, file domain.ArtifactFile, fileName string) (domain.Artifact, error)
}

// ApplyFilters drops candidates rejected by the filters and bounds the
// result to count, never exceeding MaxCollectResults.
func ApplyFilters(items []domain.CandidateItem, count int, filters domain.Filters) []domain.CandidateItem {
	limit := count
	if limit <= 0 || limit > MaxCollectResults {
		limit = MaxCollectResults
	}

	out := make([]domain.CandidateItem, 0, limit)
	for _, item := range items {
		if !filters.Allows(item) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
