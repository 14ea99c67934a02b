// Package client holds the thin HTTP clients for the three external APIs:
// the platform search/resolve proxy, the file-hosting upload service, and
// the video-sharing upload service. Every outcome is normalized into the
// stage error envelope; timeouts and HTTP errors both surface as transient
// failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/metrics"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/validation"
)

// PlatformClient talks to the short-video platform through the search API
// and the same-origin resolver proxy. It implements stages.Collector and
// stages.Fetcher.
type PlatformClient struct {
	baseURL        string
	proxyURL       string
	searchClient   *http.Client
	downloadClient *http.Client
	artifacts      *storage.ArtifactStore
	maxFileSize    int64
	logger         *slog.Logger
}

type PlatformOptions struct {
	BaseURL         string
	ProxyURL        string
	SearchTimeout   time.Duration
	DownloadTimeout time.Duration
	MaxFileSize     int64
}

func NewPlatformClient(opts PlatformOptions, artifacts *storage.ArtifactStore, logger *slog.Logger) *PlatformClient {
	return &PlatformClient{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		proxyURL:       strings.TrimRight(opts.ProxyURL, "/"),
		searchClient:   &http.Client{Timeout: opts.SearchTimeout},
		downloadClient: &http.Client{Timeout: opts.DownloadTimeout},
		artifacts:      artifacts,
		maxFileSize:    opts.MaxFileSize,
		logger:         logger,
	}
}

type searchResponse struct {
	Videos []struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
		Duration    int      `json:"duration"`
		ShareURL    string   `json:"share_url"`
	} `json:"videos"`
}

// Collect searches the platform for candidates matching the keyword and
// applies the inclusion and exclusion filters. The result set is capped at
// stages.MaxCollectResults regardless of the requested count.
func (c *PlatformClient) Collect(ctx context.Context, keyword string, count int, filters domain.Filters) ([]domain.CandidateItem, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, stages.Validation("keyword cannot be empty")
	}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/search?"+q.Encode(), nil)
	if err != nil {
		return nil, stages.Transient("create search request", err)
	}

	start := time.Now()
	resp, err := c.searchClient.Do(req)
	metrics.StageDuration.WithLabelValues("collect").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, stages.Transient("search request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, stages.Transient("decode search response", err)
	}

	items := make([]domain.CandidateItem, 0, len(body.Videos))
	for _, v := range body.Videos {
		items = append(items, domain.CandidateItem{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			Tags:        v.Tags,
			DurationSec: v.Duration,
			ShareURL:    v.ShareURL,
		})
	}

	filtered := stages.ApplyFilters(items, count, filters)
	c.logger.Info("search completed",
		"keyword", keyword,
		"returned", len(items),
		"after_filters", len(filtered),
	)
	return filtered, nil
}

type resolveResponse struct {
	DownloadURL string `json:"download_url"`
	FileName    string `json:"file_name"`
}

// Resolve asks the proxy for a downloadable reference. The share URL is
// validated against the platform pattern first; a mismatch is a validation
// failure and is never retried.
func (c *PlatformClient) Resolve(ctx context.Context, item domain.CandidateItem) (domain.DownloadRef, error) {
	if err := validation.ValidateShareURL(item.ShareURL); err != nil {
		return domain.DownloadRef{}, stages.Validation(err.Error())
	}

	payload, err := json.Marshal(map[string]string{"url": item.ShareURL})
	if err != nil {
		return domain.DownloadRef{}, stages.Transient("encode resolve request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL+"/api/resolve", bytes.NewReader(payload))
	if err != nil {
		return domain.DownloadRef{}, stages.Transient("create resolve request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return domain.DownloadRef{}, stages.Transient("resolve request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.DownloadRef{}, err
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.DownloadRef{}, stages.Transient("decode resolve response", err)
	}
	if body.DownloadURL == "" {
		return domain.DownloadRef{}, stages.Transient("resolve response missing download URL", nil)
	}

	if body.FileName == "" {
		body.FileName = item.ID + ".mp4"
	}
	return domain.DownloadRef{URL: body.DownloadURL, FileName: body.FileName}, nil
}

// Fetch resolves the item and stages a local copy of the media file.
func (c *PlatformClient) Fetch(ctx context.Context, item domain.CandidateItem) (domain.ArtifactFile, error) {
	ref, err := c.Resolve(ctx, item)
	if err != nil {
		return domain.ArtifactFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return domain.ArtifactFile{}, stages.Transient("create download request", err)
	}

	start := time.Now()
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		metrics.StageDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
		return domain.ArtifactFile{}, stages.Transient("download request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.ArtifactFile{}, err
	}

	path, size, err := c.artifacts.Stage(ref.FileName, resp.Body, c.maxFileSize)
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ArtifactFile{}, stages.Transient("stage artifact", err)
	}

	c.logger.Debug("artifact staged", "item_id", item.ID, "path", path, "bytes", size)
	return domain.ArtifactFile{Path: path, Size: size}, nil
}

// checkStatus folds an HTTP response status into the stage error envelope.
// 4xx maps to validation (no retry), everything else non-2xx to transient,
// keeping the Retry-After hint when the upstream sends one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := fmt.Sprintf("unexpected status: %s", resp.Status)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return stages.Validation(msg)
	}

	serr := stages.Transient(msg, nil)
	if after := resp.Header.Get("Retry-After"); after != "" {
		if secs, err := strconv.Atoi(after); err == nil {
			serr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return serr
}
