package domain

import "strings"

// Status represents the current state of an item moving through the pipeline.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusUploading   Status = "uploading"
	StatusWaiting     Status = "waiting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// ProcessingState tracks one item's position in the pipeline.
//
// Invariants maintained by the driver: Status == StatusCompleted implies
// Progress == 100 and ResultURL is set; Status == StatusFailed implies
// Error is set.
type ProcessingState struct {
	ItemID     string `json:"item_id"`
	Status     Status `json:"status"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	ResultURL  string `json:"result_url,omitempty"`
	DirectLink string `json:"direct_link,omitempty"`
	Attempt    int    `json:"attempt"`
}

// CandidateItem is one piece of content returned by the platform search.
type CandidateItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	DurationSec int      `json:"duration_sec"`
	ShareURL    string   `json:"share_url"`
}

// Filters bounds and excludes candidates returned by a search.
// Blacklist entries are matched as case-insensitive substrings against
// the description and every tag.
type Filters struct {
	MinDurationSec int      `json:"min_duration_sec"`
	MaxDurationSec int      `json:"max_duration_sec"`
	Blacklist      []string `json:"blacklist,omitempty"`
}

// Allows reports whether the item passes the duration bounds and does not
// match any blacklist entry.
func (f Filters) Allows(item CandidateItem) bool {
	if f.MinDurationSec > 0 && item.DurationSec < f.MinDurationSec {
		return false
	}
	if f.MaxDurationSec > 0 && item.DurationSec > f.MaxDurationSec {
		return false
	}

	for _, word := range f.Blacklist {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if strings.Contains(strings.ToLower(item.Description), word) {
			return false
		}
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), word) {
				return false
			}
		}
	}
	return true
}

// DownloadRef is the resolved downloadable reference for an item.
type DownloadRef struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// ArtifactFile is a staged local copy of a downloaded item.
type ArtifactFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Artifact is the durable reference returned by the hosting backend.
type Artifact struct {
	PageURL    string `json:"page_url"`
	DirectLink string `json:"direct_link,omitempty"`
	FileID     string `json:"file_id,omitempty"`
}
