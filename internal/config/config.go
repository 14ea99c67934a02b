package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"TTT_ENV" default:"development"`

	HTTPPort int `envconfig:"TTT_HTTP_PORT" default:"8080"`

	// HTTPTimeout must cover the synchronous collect call made while
	// creating a batch.
	HTTPTimeout time.Duration `envconfig:"TTT_HTTP_TIMEOUT" default:"60s"`

	PlatformBaseURL  string `envconfig:"TTT_PLATFORM_BASE_URL" default:"https://tikwm.example.com"`
	ResolverProxyURL string `envconfig:"TTT_RESOLVER_PROXY_URL" default:"http://localhost:8080/proxy"`
	FileHostURL      string `envconfig:"TTT_FILEHOST_URL" default:"https://upload.gofile.example.com"`
	FileHostToken    string `envconfig:"TTT_FILEHOST_TOKEN" default:""`
	TubeHostURL      string `envconfig:"TTT_TUBEHOST_URL" default:"https://tube.example.com"`
	TubeHostToken    string `envconfig:"TTT_TUBEHOST_TOKEN" default:""`
	AccountsURL      string `envconfig:"TTT_ACCOUNTS_URL" default:""`

	SearchTimeout   time.Duration `envconfig:"TTT_SEARCH_TIMEOUT" default:"30s"`
	DownloadTimeout time.Duration `envconfig:"TTT_DOWNLOAD_TIMEOUT" default:"120s"`
	UploadTimeout   time.Duration `envconfig:"TTT_UPLOAD_TIMEOUT" default:"300s"`

	MaxRetries       int           `envconfig:"TTT_MAX_RETRIES" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"TTT_RETRY_BASE_DELAY" default:"2s"`
	InterItemDelay   time.Duration `envconfig:"TTT_INTER_ITEM_DELAY" default:"60s"`
	PreDownloadDelay time.Duration `envconfig:"TTT_PRE_DOWNLOAD_DELAY" default:"60s"`
	MaxFileSize      int64         `envconfig:"TTT_MAX_FILE_SIZE" default:"524288000"`

	StagingDir string `envconfig:"TTT_STAGING_DIR" default:"./staging"`
	StateFile  string `envconfig:"TTT_STATE_FILE" default:"./state/batches.json"`

	ShutdownTimeout time.Duration `envconfig:"TTT_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"TTT_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"TTT_LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive: %d", c.MaxRetries)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive: %d", c.MaxFileSize)
	}

	if c.RetryBaseDelay < 0 || c.InterItemDelay < 0 || c.PreDownloadDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}

	if c.PlatformBaseURL == "" {
		return fmt.Errorf("platform base URL cannot be empty")
	}
	if c.FileHostURL == "" {
		return fmt.Errorf("file host URL cannot be empty")
	}

	if c.StagingDir == "" {
		return fmt.Errorf("staging directory cannot be empty")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state file cannot be empty")
	}

	return nil
}
