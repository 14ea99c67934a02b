// Package pipeline moves a batch of collected items through download and
// upload, one item at a time, with a shared per-item retry budget and fixed
// pacing delays between operations.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/metrics"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/pacing"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/registry"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/retry"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
)

// Progress milestones within one item pass.
const (
	progressDownloading = 5
	progressUploading   = 50
	progressCompleted   = 100
)

// Config carries the retry and pacing policy for one driver.
type Config struct {
	// MaxRetries is the total failed stage calls allowed per item, shared
	// between the download and upload stages.
	MaxRetries int
	// RetryBaseDelay is multiplied by the attempt number between retries.
	RetryBaseDelay time.Duration
	// InterItemDelay runs between items, never before the first one.
	InterItemDelay time.Duration
	// PreDownloadDelay runs once per item before the first download call.
	PreDownloadDelay time.Duration
}

// Driver runs the per-item state machine over an ordered batch. It is the
// sole writer to the registry while running.
type Driver struct {
	reg       *registry.Registry
	fetcher   stages.Fetcher
	uploader  stages.Uploader
	artifacts *storage.ArtifactStore
	pacer     pacing.Pacer
	cfg       Config
	logger    *slog.Logger
}

func NewDriver(
	reg *registry.Registry,
	fetcher stages.Fetcher,
	uploader stages.Uploader,
	artifacts *storage.ArtifactStore,
	pacer pacing.Pacer,
	cfg Config,
	logger *slog.Logger,
) *Driver {
	return &Driver{
		reg:       reg,
		fetcher:   fetcher,
		uploader:  uploader,
		artifacts: artifacts,
		pacer:     pacer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run processes every item in order and returns the tally once the full
// list is exhausted. A failed item never aborts the batch; an empty batch
// performs no stage calls. If ctx is canceled mid-batch, unprocessed items
// are left pending and the tally covers only what ran.
func (d *Driver) Run(ctx context.Context, items []domain.CandidateItem) domain.BatchResult {
	result := domain.BatchResult{Succeeded: []string{}}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("batch interrupted", "processed", i, "total", len(items))
			break
		}

		if i > 0 {
			d.waitBetweenItems(ctx, item.ID)
		}

		if err := d.runItem(ctx, item); err != nil {
			result.FailureCount++
			continue
		}
		result.Succeeded = append(result.Succeeded, item.ID)
		result.SuccessCount++
	}

	d.logger.Info("batch finished",
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount,
		"total", len(items),
	)
	return result
}

// waitBetweenItems parks the upcoming item in waiting while the inter-item
// countdown runs.
func (d *Driver) waitBetweenItems(ctx context.Context, nextItemID string) {
	d.reg.Update(nextItemID, registry.Patch{Status: statusPtr(domain.StatusWaiting)})
	d.logger.Info("pacing before next item", "item_id", nextItemID, "delay", d.cfg.InterItemDelay)
	if err := d.pacer.Wait(ctx, d.cfg.InterItemDelay); err != nil {
		d.logger.Warn("inter-item wait interrupted", "item_id", nextItemID, "error", err)
	}
}

func (d *Driver) runItem(ctx context.Context, item domain.CandidateItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item panicked: %v", r)
			d.failItem(item.ID, err)
		}
	}()

	attempts := 0
	opts := retry.Options{
		MaxAttempts: d.cfg.MaxRetries,
		Backoff:     retry.Linear(d.cfg.RetryBaseDelay),
		Sleep:       d.pacer.Wait,
		Retryable:   stages.Retryable,
		OnRetry: func(attempt int, stageErr error) {
			metrics.StageRetries.Inc()
			d.reg.Update(item.ID, registry.Patch{
				Status:  statusPtr(domain.StatusWaiting),
				Attempt: &attempts,
			})
			d.logger.Warn("stage call failed",
				"item_id", item.ID,
				"attempt", attempt,
				"max_retries", d.cfg.MaxRetries,
				"error", stageErr,
			)
		},
	}

	// Download stage.
	d.reg.Update(item.ID, registry.Patch{
		Status:   statusPtr(domain.StatusDownloading),
		Progress: intPtr(progressDownloading),
	})
	d.logger.Info("downloading item", "item_id", item.ID, "title", item.Title)

	if d.cfg.PreDownloadDelay > 0 {
		d.logger.Info("pacing before download", "item_id", item.ID, "delay", d.cfg.PreDownloadDelay)
		if werr := d.pacer.Wait(ctx, d.cfg.PreDownloadDelay); werr != nil {
			d.failItem(item.ID, werr)
			return werr
		}
	}

	var file domain.ArtifactFile
	err = retry.Do(ctx, &attempts, opts, func(ctx context.Context) error {
		d.reg.Update(item.ID, registry.Patch{
			Status:   statusPtr(domain.StatusDownloading),
			Progress: intPtr(progressDownloading),
		})
		f, ferr := d.fetcher.Fetch(ctx, item)
		if ferr != nil {
			return ferr
		}
		file = f
		return nil
	})
	if err != nil {
		d.failItem(item.ID, err)
		return err
	}

	defer func() {
		if derr := d.artifacts.Discard(file.Path); derr != nil {
			d.logger.Warn("failed to discard staged artifact", "item_id", item.ID, "error", derr)
		}
	}()

	// Upload stage, sharing the attempt budget with the download stage.
	d.reg.Update(item.ID, registry.Patch{
		Status:   statusPtr(domain.StatusUploading),
		Progress: intPtr(progressUploading),
	})
	d.logger.Info("uploading item", "item_id", item.ID, "bytes", file.Size)

	fileName := item.ID + ".mp4"
	var artifact domain.Artifact
	err = retry.Do(ctx, &attempts, opts, func(ctx context.Context) error {
		d.reg.Update(item.ID, registry.Patch{Status: statusPtr(domain.StatusUploading)})
		a, uerr := d.uploader.Upload(ctx, file, fileName)
		if uerr != nil {
			return uerr
		}
		artifact = a
		return nil
	})
	if err != nil {
		d.failItem(item.ID, err)
		return err
	}

	d.reg.Update(item.ID, registry.Patch{
		Status:     statusPtr(domain.StatusCompleted),
		Progress:   intPtr(progressCompleted),
		ResultURL:  &artifact.PageURL,
		DirectLink: &artifact.DirectLink,
		Error:      strPtr(""),
	})
	metrics.ItemsCompleted.Inc()
	d.logger.Info("item completed", "item_id", item.ID, "result_url", artifact.PageURL)
	return nil
}

func (d *Driver) failItem(itemID string, cause error) {
	msg := cause.Error()
	d.reg.Update(itemID, registry.Patch{
		Status: statusPtr(domain.StatusFailed),
		Error:  &msg,
	})
	metrics.ItemsFailed.Inc()
	d.logger.Error("item failed", "item_id", itemID, "error", cause)
}

func statusPtr(s domain.Status) *domain.Status { return &s }
func intPtr(v int) *int                        { return &v }
func strPtr(v string) *string                  { return &v }
