package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirSource serves source documents from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a document source over the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns the relative names of regular files in the directory,
// sorted for deterministic ingestion order.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Fetch reads one document's bytes.
func (s *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}
