// Package extract turns source documents into typed content units.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/airobotics/docqa/internal/domain"
)

// Extractor extracts typed content units from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether the file name has an ingestible extension.
func (e *Extractor) Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// ExtractFile reads the file at path and extracts its content units.
// The path is used as the unit source label.
func (e *Extractor) ExtractFile(path string) ([]domain.ContentUnit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(path, content)
}

// ExtractBytes extracts content units from raw document bytes. Units
// come out in deterministic order: page ascending, and within a page
// text, then tables, then images.
func (e *Extractor) ExtractBytes(name string, content []byte) ([]domain.ContentUnit, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(name, content)
	case ".txt", ".md", "":
		return extractPlain(name, content)
	default:
		return nil, fmt.Errorf("unsupported document format: %s", name)
	}
}

// extractPlain treats the whole file as a single page-1 text unit.
func extractPlain(name string, content []byte) ([]domain.ContentUnit, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, nil
	}
	return []domain.ContentUnit{
		domain.NewContentUnit(name, 1, domain.ContentKindText, 0, text),
	}, nil
}
