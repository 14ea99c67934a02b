package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/stages"
	"github.com/Iautonoma/tiktok-to-tube-automator/internal/storage"
)

func stageTestFile(t *testing.T, artifacts *storage.ArtifactStore, name, content string) domain.ArtifactFile {
	t.Helper()
	path, size, err := artifacts.Stage(name, strings.NewReader(content), 1<<20)
	if err != nil {
		t.Fatalf("failed to stage test file: %v", err)
	}
	return domain.ArtifactFile{Path: path, Size: size}
}

func TestFileHostClient_Upload(t *testing.T) {
	artifacts := storage.NewArtifactStore(makeTempDir(t))
	file := stageTestFile(t, artifacts, "clip.mp4", "video payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}

		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()

		if header.Filename != "clip.mp4" {
			t.Errorf("expected file name clip.mp4, got %q", header.Filename)
		}
		body, _ := io.ReadAll(f)
		if string(body) != "video payload" {
			t.Errorf("unexpected uploaded content: %q", string(body))
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"data": map[string]string{
				"page_url":    "https://host.example.com/d/abc",
				"direct_link": "https://cdn.example.com/abc.mp4",
				"file_id":     "abc",
			},
		})
	}))
	defer server.Close()

	c := NewFileHostClient(server.URL, "secret", 5*time.Second, artifacts, newTestLogger())
	artifact, err := c.Upload(context.Background(), file, "clip.mp4")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if artifact.PageURL != "https://host.example.com/d/abc" {
		t.Errorf("unexpected page URL: %q", artifact.PageURL)
	}
	if artifact.DirectLink != "https://cdn.example.com/abc.mp4" {
		t.Errorf("unexpected direct link: %q", artifact.DirectLink)
	}
	if artifact.FileID != "abc" {
		t.Errorf("unexpected file ID: %q", artifact.FileID)
	}
}

func TestFileHostClient_UploadServerError(t *testing.T) {
	artifacts := storage.NewArtifactStore(makeTempDir(t))
	file := stageTestFile(t, artifacts, "clip.mp4", "x")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewFileHostClient(server.URL, "", 5*time.Second, artifacts, newTestLogger())
	_, err := c.Upload(context.Background(), file, "clip.mp4")
	if err == nil {
		t.Fatalf("expected error")
	}
	if stages.IsValidation(err) {
		t.Errorf("expected transient error for 503")
	}
}

func TestFileHostClient_UploadMissingPageURL(t *testing.T) {
	artifacts := storage.NewArtifactStore(makeTempDir(t))
	file := stageTestFile(t, artifacts, "clip.mp4", "x")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "data": map[string]string{}})
	}))
	defer server.Close()

	c := NewFileHostClient(server.URL, "", 5*time.Second, artifacts, newTestLogger())
	if _, err := c.Upload(context.Background(), file, "clip.mp4"); err == nil {
		t.Fatalf("expected error for malformed response")
	}
}

func TestTubeHostClient_Upload(t *testing.T) {
	artifacts := storage.NewArtifactStore(makeTempDir(t))
	file := stageTestFile(t, artifacts, "clip.mp4", "video payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/videos" {
			http.NotFound(w, r)
			return
		}
		if got := r.FormValue("title"); got != "clip" {
			t.Errorf("expected title clip, got %q", got)
		}
		f, _, err := r.FormFile("video")
		if err != nil {
			t.Errorf("expected video part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.Close()

		_ = json.NewEncoder(w).Encode(map[string]string{
			"video_id":  "yt123",
			"video_url": "https://tube.example.com/watch/yt123",
		})
	}))
	defer server.Close()

	c := NewTubeHostClient(server.URL, "", 5*time.Second, artifacts, newTestLogger())
	artifact, err := c.Upload(context.Background(), file, "clip.mp4")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if artifact.PageURL != "https://tube.example.com/watch/yt123" {
		t.Errorf("unexpected page URL: %q", artifact.PageURL)
	}
	if artifact.FileID != "yt123" {
		t.Errorf("unexpected video ID: %q", artifact.FileID)
	}
}
