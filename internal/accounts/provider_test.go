package accounts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/Iautonoma/tiktok-to-tube-automator/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var defaults = domain.UserSettings{
	UploadTarget: domain.UploadTargetFileHost,
	MaxRetries:   3,
}

func TestStatic_ReturnsSameSettings(t *testing.T) {
	p := Static{Settings: defaults}
	got, err := p.Resolve(context.Background(), "anyone")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !reflect.DeepEqual(got, defaults) {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestHTTPProvider_ResolvesSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/user-1/settings" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.UserSettings{
			Blacklist:    []string{"spam"},
			UploadTarget: domain.UploadTargetTube,
			MaxRetries:   5,
		})
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, 5*time.Second, defaults, newTestLogger())
	got, err := p.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.UploadTarget != domain.UploadTargetTube {
		t.Errorf("expected tube target, got %q", got.UploadTarget)
	}
	if got.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", got.MaxRetries)
	}
	if len(got.Blacklist) != 1 || got.Blacklist[0] != "spam" {
		t.Errorf("expected blacklist [spam], got %v", got.Blacklist)
	}
}

func TestHTTPProvider_EmptyUserGetsDefaults(t *testing.T) {
	p := NewHTTPProvider("http://unused", 5*time.Second, defaults, newTestLogger())
	got, err := p.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !reflect.DeepEqual(got, defaults) {
		t.Errorf("expected defaults for empty user, got %+v", got)
	}
}

func TestHTTPProvider_FallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, 5*time.Second, defaults, newTestLogger())
	got, err := p.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected fallback without error, got %v", err)
	}
	if !reflect.DeepEqual(got, defaults) {
		t.Errorf("expected defaults on failure, got %+v", got)
	}
}

func TestHTTPProvider_FillsMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.UserSettings{Blacklist: []string{"ads"}})
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, 5*time.Second, defaults, newTestLogger())
	got, err := p.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.UploadTarget != domain.UploadTargetFileHost {
		t.Errorf("expected default upload target, got %q", got.UploadTarget)
	}
	if got.MaxRetries != 3 {
		t.Errorf("expected default max retries, got %d", got.MaxRetries)
	}
}
