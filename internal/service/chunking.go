package service

import (
	"strings"

	"github.com/airobotics/docqa/internal/domain"
)

// ChunkConfig controls splitting of long text units before indexing.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 5000,
		Overlap:  200,
	}
}

// chunkSeparators is the preference ladder for cut points: paragraph
// break, line break, sentence end, word break, then a hard cut.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// SplitUnits splits every text unit longer than MaxChars into
// overlapping windows. Table and image units pass through untouched.
// Windows keep the parent unit's source, page, kind and ordinal; the
// payload hash distinguishes their identifiers.
func SplitUnits(units []domain.ContentUnit, cfg ChunkConfig) []domain.ContentUnit {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	out := make([]domain.ContentUnit, 0, len(units))
	for _, u := range units {
		if u.Kind != domain.ContentKindText {
			out = append(out, u)
			continue
		}
		for _, window := range splitText(u.Payload, cfg) {
			out = append(out, domain.ContentUnit{
				Source:  u.Source,
				Page:    u.Page,
				Kind:    u.Kind,
				Ordinal: u.Ordinal,
				Payload: window,
			})
		}
	}
	return out
}

// splitText cuts text into windows of at most cfg.MaxChars runes.
// Adjacent windows overlap by exactly cfg.Overlap runes; the cut point
// inside each window prefers the earliest separator in
// chunkSeparators, falling back to a hard character cut.
func splitText(text string, cfg ChunkConfig) []string {
	runes := []rune(text)
	if len(runes) <= cfg.MaxChars {
		return []string{text}
	}

	overlap := cfg.Overlap
	if overlap < 0 || overlap >= cfg.MaxChars {
		overlap = 0
	}

	chunks := make([]string, 0, len(runes)/cfg.MaxChars+1)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut scans the window [start, end) backwards for the best
// separator, never retreating further than half the window so chunks
// stay reasonably full.
func findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	floor := start + (end-start)/2

	for _, sep := range chunkSeparators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + len([]rune(window[:idx+len(sep)]))
		if cut > floor {
			return cut
		}
	}

	return end
}
