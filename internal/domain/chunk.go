package domain

// ChunkMetadata carries the origin of an indexed chunk.
type ChunkMetadata struct {
	Source  string
	Page    int
	Kind    ContentKind
	Ordinal int
}

// IndexedChunk represents a content unit (or a window of a long text
// unit) as stored in the vector index. Created once at ingestion time
// and immutable thereafter.
type IndexedChunk struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkFromUnit builds the IndexedChunk for a content unit, assigning
// its stable id. The embedding is filled in by the index on insert.
func ChunkFromUnit(u ContentUnit) IndexedChunk {
	return IndexedChunk{
		ID:      UnitID(u),
		Content: u.Payload,
		Metadata: ChunkMetadata{
			Source:  u.Source,
			Page:    u.Page,
			Kind:    u.Kind,
			Ordinal: u.Ordinal,
		},
	}
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
// Higher scores are more relevant; the score is otherwise opaque.
type ScoredChunk struct {
	Chunk IndexedChunk
	Score float32
}
