package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ContentKind represents the type of an extracted content unit
type ContentKind string

const (
	ContentKindText  ContentKind = "text"
	ContentKindTable ContentKind = "table"
	ContentKindImage ContentKind = "image"
)

// ContentUnit represents one extracted piece of a source document.
// Payload holds plain text for text/table units and a base64-encoded
// blob for image units.
type ContentUnit struct {
	Source  string
	Page    int
	Kind    ContentKind
	Ordinal int
	Payload string
}

// NewContentUnit creates a new ContentUnit instance
func NewContentUnit(source string, page int, kind ContentKind, ordinal int, payload string) ContentUnit {
	return ContentUnit{
		Source:  source,
		Page:    page,
		Kind:    kind,
		Ordinal: ordinal,
		Payload: payload,
	}
}

// UnitID derives the stable identifier for a content unit:
// source:page:kind:ordinal:<first 16 hex chars of SHA-256(payload)>.
// Equal inputs always yield equal ids, so re-ingesting an unchanged
// corpus is idempotent. SHA-256 is used deliberately instead of a
// runtime hash so ids are stable across processes and platforms.
// The id doubles as the citation string returned to end users.
func UnitID(u ContentUnit) string {
	sum := sha256.Sum256([]byte(u.Payload))
	return fmt.Sprintf("%s:%d:%s:%d:%s", u.Source, u.Page, u.Kind, u.Ordinal, hex.EncodeToString(sum[:8]))
}

// ValidateContentUnit validates a ContentUnit instance
func ValidateContentUnit(u ContentUnit) error {
	if u.Source == "" {
		return fmt.Errorf("content unit source is required")
	}
	if u.Page < 1 {
		return fmt.Errorf("content unit page must be 1-based, got %d", u.Page)
	}
	if !isValidContentKind(u.Kind) {
		return fmt.Errorf("content unit Kind is invalid: %s", u.Kind)
	}
	if u.Ordinal < 0 {
		return fmt.Errorf("content unit Ordinal cannot be negative")
	}
	if u.Payload == "" {
		return fmt.Errorf("content unit payload is required")
	}
	return nil
}

func isValidContentKind(k ContentKind) bool {
	switch k {
	case ContentKindText, ContentKindTable, ContentKindImage:
		return true
	}
	return false
}
