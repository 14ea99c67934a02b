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

// FileHostClient uploads staged artifacts to the file-hosting backend.
// It implements stages.Uploader.
type FileHostClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	artifacts  *storage.ArtifactStore
	logger     *slog.Logger
}

func NewFileHostClient(baseURL, token string, timeout time.Duration, artifacts *storage.ArtifactStore, logger *slog.Logger) *FileHostClient {
	return &FileHostClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		artifacts:  artifacts,
		logger:     logger,
	}
}

type fileHostResponse struct {
	Status string `json:"status"`
	Data   struct {
		PageURL    string `json:"page_url"`
		DirectLink string `json:"direct_link"`
		FileID     string `json:"file_id"`
	} `json:"data"`
}

// Upload streams the staged file to the hosting backend as a multipart form
// and returns the durable page URL and direct link.
func (c *FileHostClient) Upload(ctx context.Context, file domain.ArtifactFile, fileName string) (domain.Artifact, error) {
	src, err := c.artifacts.Open(file.Path)
	if err != nil {
		return domain.Artifact{}, stages.Transient("open staged artifact", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", fileName)
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return domain.Artifact{}, stages.Transient("create upload request", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Artifact{}, stages.Transient("upload request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.Artifact{}, err
	}

	var body fileHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Artifact{}, stages.Transient("decode upload response", err)
	}
	if body.Data.PageURL == "" {
		return domain.Artifact{}, stages.Transient("upload response missing page URL", nil)
	}

	metrics.UploadBytes.Add(float64(file.Size))
	c.logger.Info("artifact uploaded",
		"file_name", fileName,
		"bytes", file.Size,
		"page_url", body.Data.PageURL,
	)

	return domain.Artifact{
		PageURL:    body.Data.PageURL,
		DirectLink: body.Data.DirectLink,
		FileID:     body.Data.FileID,
	}, nil
}
