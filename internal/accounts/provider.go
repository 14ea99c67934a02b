// Package accounts resolves per-user configuration from the hosted
// auth/database provider before a batch starts. The provider itself (session
// lifecycle, row-level policies) is an external collaborator; only the
// settings lookup is needed here.
package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

// Provider resolves per-user settings. Implementations must be safe for
// concurrent use.
type Provider interface {
	Resolve(ctx context.Context, userID string) (domain.UserSettings, error)
}

// Static returns the same settings for every user. Used when no accounts
// backend is configured.
type Static struct {
	Settings domain.UserSettings
}

func (s Static) Resolve(context.Context, string) (domain.UserSettings, error) {
	return s.Settings, nil
}

// HTTPProvider fetches settings from the accounts backend. Lookups fall back
// to defaults on any failure so a flaky backend never blocks a batch.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	defaults   domain.UserSettings
	logger     *slog.Logger
}

func NewHTTPProvider(baseURL string, timeout time.Duration, defaults domain.UserSettings, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		defaults:   defaults,
		logger:     logger,
	}
}

func (p *HTTPProvider) Resolve(ctx context.Context, userID string) (domain.UserSettings, error) {
	if userID == "" {
		return p.defaults, nil
	}

	url := fmt.Sprintf("%s/api/users/%s/settings", p.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p.defaults, fmt.Errorf("create settings request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("settings lookup failed, using defaults", "user_id", userID, "error", err)
		return p.defaults, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("settings lookup returned non-OK, using defaults", "user_id", userID, "status", resp.Status)
		return p.defaults, nil
	}

	var settings domain.UserSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		p.logger.Warn("settings response not decodable, using defaults", "user_id", userID, "error", err)
		return p.defaults, nil
	}

	if settings.UploadTarget == "" {
		settings.UploadTarget = p.defaults.UploadTarget
	}
	if settings.MaxRetries == 0 {
		settings.MaxRetries = p.defaults.MaxRetries
	}
	return settings, nil
}
