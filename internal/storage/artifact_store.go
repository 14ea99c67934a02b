package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArtifactStore stages downloaded artifacts on disk between the download
// and upload stages. Files are removed once the upload stage is done with
// them; leftovers from interrupted runs are swept on startup.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Stage copies data from the reader into a new staging file and returns its
// path and size. The name is reduced to its base component so an
// upstream-supplied value cannot escape the staging directory. limit bounds
// the number of bytes accepted; exceeding it removes the partial file and
// fails.
func (s *ArtifactStore) Stage(name string, src io.Reader, limit int64) (string, int64, error) {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", 0, fmt.Errorf("invalid artifact name %q", name)
	}

	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create staging file: %w", err)
	}
	defer file.Close()

	// One byte past the limit distinguishes exactly-at-limit from over.
	limited := &io.LimitedReader{R: src, N: limit + 1}
	written, err := io.Copy(file, limited)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write staging file: %w", err)
	}
	if written > limit {
		os.Remove(path)
		return "", 0, fmt.Errorf("artifact exceeds size limit: %d bytes", limit)
	}

	return path, written, nil
}

// Open opens a staged artifact for reading.
func (s *ArtifactStore) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Discard removes a staged artifact. Missing files are not an error.
func (s *ArtifactStore) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged artifact: %w", err)
	}
	return nil
}

// Sweep removes every file left in the staging directory.
func (s *ArtifactStore) Sweep() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read staging dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("sweep staging dir: %w", err)
		}
	}
	return nil
}
