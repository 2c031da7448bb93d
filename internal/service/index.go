package service

import (
	"context"
	"fmt"

	"github.com/airobotics/docqa/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkRepository defines the persistence interface for the vector index
type ChunkRepository interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Insert(ctx context.Context, chunk domain.IndexedChunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error)
	Reset(ctx context.Context) error
}

// VectorIndex maps stable chunk ids to embeddings, content and
// metadata. Writes are id-keyed upserts, so concurrent independent
// ingestions and duplicate runs are safe.
type VectorIndex struct {
	client EmbeddingClient
	repo   ChunkRepository
}

// NewVectorIndex creates a new VectorIndex instance
func NewVectorIndex(client EmbeddingClient, repo ChunkRepository) *VectorIndex {
	return &VectorIndex{
		client: client,
		repo:   repo,
	}
}

// UpsertNew indexes the content units that are not already present,
// skipping ids that exist. Embeddings are computed only for new
// chunks, which is what makes re-ingesting an unchanged corpus a
// no-op. Returns the number of chunks inserted. An embedding failure
// aborts the whole batch.
func (ix *VectorIndex) UpsertNew(ctx context.Context, units []domain.ContentUnit) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}

	chunks := make([]domain.IndexedChunk, 0, len(units))
	ids := make([]string, 0, len(units))
	for _, u := range units {
		if err := domain.ValidateContentUnit(u); err != nil {
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid content unit", err)
		}
		chunk := domain.ChunkFromUnit(u)
		chunks = append(chunks, chunk)
		ids = append(ids, chunk.ID)
	}

	existing, err := ix.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to check existing chunks", err)
	}

	inserted := 0
	seen := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		if existing[chunk.ID] || seen[chunk.ID] {
			continue
		}
		seen[chunk.ID] = true

		embedding, err := ix.client.GenerateEmbedding(ctx, chunk.Content)
		if err != nil {
			return inserted, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding,
				fmt.Sprintf("failed to embed chunk %s", chunk.ID), err)
		}
		chunk.Embedding = embedding

		if err := ix.repo.Insert(ctx, chunk); err != nil {
			return inserted, domain.NewDomainErrorWithCause(domain.ErrCodeStorage,
				fmt.Sprintf("failed to insert chunk %s", chunk.ID), err)
		}
		inserted++
	}

	return inserted, nil
}

// Search embeds the query and returns the k most similar chunks with
// scores, ranked descending.
func (ix *VectorIndex) Search(ctx context.Context, queryText string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	embedding, err := ix.client.GenerateEmbedding(ctx, queryText)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "failed to embed query", err)
	}

	results, err := ix.repo.Search(ctx, embedding, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "vector search failed", err)
	}
	return results, nil
}

// Reset irreversibly clears the index.
func (ix *VectorIndex) Reset(ctx context.Context) error {
	if err := ix.repo.Reset(ctx); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to reset index", err)
	}
	return nil
}
