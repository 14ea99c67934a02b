package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/metrics"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
)

// TubeHostClient uploads staged artifacts to the video-sharing service.
// Selected per user instead of the file host; implements stages.Uploader.
type TubeHostClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	artifacts  *storage.ArtifactStore
	logger     *slog.Logger
}

func NewTubeHostClient(baseURL, token string, timeout time.Duration, artifacts *storage.ArtifactStore, logger *slog.Logger) *TubeHostClient {
	return &TubeHostClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		artifacts:  artifacts,
		logger:     logger,
	}
}

type tubeHostResponse struct {
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
}

// Upload publishes the staged file as a new video. The title form field is
// derived from the file name without its extension.
func (c *TubeHostClient) Upload(ctx context.Context, file domain.ArtifactFile, fileName string) (domain.Artifact, error) {
	src, err := c.artifacts.Open(file.Path)
	if err != nil {
		return domain.Artifact{}, stages.Transient("open staged artifact", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	title := strings.TrimSuffix(fileName, ".mp4")

	go func() {
		if err := form.WriteField("title", title); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := form.CreateFormFile("video", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/videos", pr)
	if err != nil {
		return domain.Artifact{}, stages.Transient("create publish request", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Artifact{}, stages.Transient("publish request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.Artifact{}, err
	}

	var body tubeHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Artifact{}, stages.Transient("decode publish response", err)
	}
	if body.VideoURL == "" {
		return domain.Artifact{}, stages.Transient("publish response missing video URL", nil)
	}

	metrics.UploadBytes.Add(float64(file.Size))
	c.logger.Info("video published",
		"file_name", fileName,
		"bytes", file.Size,
		"video_url", body.VideoURL,
	)

	return domain.Artifact{
		PageURL: body.VideoURL,
		FileID:  body.VideoID,
	}, nil
}
