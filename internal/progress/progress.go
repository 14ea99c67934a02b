// Package progress derives display projections from per-item states.
package progress

import (
	"math"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

// Overall returns the rounded mean progress across all items, or 0 for an
// empty batch.
func Overall(states []domain.ProcessingState) int {
	if len(states) == 0 {
		return 0
	}

	sum := 0
	for _, s := range states {
		sum += s.Progress
	}
	return int(math.Round(float64(sum) / float64(len(states))))
}

// Counts folds all states into a fixed-key histogram. Downloading and
// uploading are collapsed into the processing bucket.
func Counts(states []domain.ProcessingState) domain.StatusCounts {
	var c domain.StatusCounts
	for _, s := range states {
		switch s.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusDownloading, domain.StatusUploading:
			c.Processing++
		case domain.StatusWaiting:
			c.Waiting++
		case domain.StatusCompleted:
			c.Completed++
		case domain.StatusFailed:
			c.Failed++
		}
	}
	return c
}
