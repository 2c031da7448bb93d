package service

import (
	"context"
	"log"

	"github.com/airobotics/docqa/internal/domain"
)

// DocumentSource lists and fetches raw source documents.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ContentExtractor turns one raw document into typed content units.
type ContentExtractor interface {
	Supported(name string) bool
	ExtractBytes(name string, content []byte) ([]domain.ContentUnit, error)
}

// ChunkIndex is the slice of the vector index the ingestion pipeline uses.
type ChunkIndex interface {
	UpsertNew(ctx context.Context, units []domain.ContentUnit) (int, error)
	Reset(ctx context.Context) error
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Documents int
	Failed    int
	Units     int
	Inserted  int
}

// IngestService runs the ingestion pipeline: source documents are
// extracted into content units, long text units are split, and the
// result is deduplicated into the vector index.
type IngestService struct {
	source    DocumentSource
	extractor ContentExtractor
	index     ChunkIndex
	chunkCfg  ChunkConfig
}

// NewIngestService creates a new IngestService instance
func NewIngestService(source DocumentSource, extractor ContentExtractor, index ChunkIndex) *IngestService {
	return &IngestService{
		source:    source,
		extractor: extractor,
		index:     index,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// Run ingests every supported document from the source. A document
// that fails to extract is logged and skipped; the rest of the corpus
// still ingests. Index and embedding errors abort the run.
func (s *IngestService) Run(ctx context.Context, reset bool) (*IngestResult, error) {
	if reset {
		log.Println("ingest: clearing index")
		if err := s.index.Reset(ctx); err != nil {
			return nil, err
		}
	}

	names, err := s.source.List(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to list source documents", err)
	}

	result := &IngestResult{}
	var units []domain.ContentUnit
	for _, name := range names {
		if !s.extractor.Supported(name) {
			continue
		}

		content, err := s.source.Fetch(ctx, name)
		if err != nil {
			log.Printf("ingest: skipping %s: fetch failed: %v", name, err)
			result.Failed++
			continue
		}

		extracted, err := s.extractor.ExtractBytes(name, content)
		if err != nil {
			log.Printf("ingest: skipping %s: extraction failed: %v", name, err)
			result.Failed++
			continue
		}

		log.Printf("ingest: %s: %d content units", name, len(extracted))
		units = append(units, extracted...)
		result.Documents++
	}

	chunks := SplitUnits(units, s.chunkCfg)
	result.Units = len(chunks)

	inserted, err := s.index.UpsertNew(ctx, chunks)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	if inserted > 0 {
		log.Printf("ingest: added %d new chunks to the index", inserted)
	} else {
		log.Println("ingest: no new chunks to add")
	}

	return result, nil
}
