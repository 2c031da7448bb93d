package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/airobotics/docqa/internal/domain"
)

// ChunkRepository handles persistence of indexed chunks and their
// embeddings in the vector index table.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

// ExistingIDs returns which of the given chunk ids are already present
// in the index.
func (r *ChunkRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id FROM indexed_chunks WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// Insert persists a chunk with its embedding. Inserts are id-keyed and
// idempotent: a chunk that already exists is left untouched.
func (r *ChunkRepository) Insert(ctx context.Context, chunk domain.IndexedChunk) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO indexed_chunks (id, content, embedding, source, page, kind, ordinal)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		chunk.ID,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		chunk.Metadata.Source,
		chunk.Metadata.Page,
		string(chunk.Metadata.Kind),
		chunk.Metadata.Ordinal,
	)
	return err
}

// Search returns the k nearest chunks to the query embedding by cosine
// similarity, ranked descending by score.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content, source, page, kind, ordinal,
		        1 - (embedding <=> $1) AS score
		 FROM indexed_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		var kind string
		err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.Content,
			&sc.Chunk.Metadata.Source,
			&sc.Chunk.Metadata.Page,
			&kind,
			&sc.Chunk.Metadata.Ordinal,
			&sc.Score,
		)
		if err != nil {
			return nil, err
		}
		sc.Chunk.Metadata.Kind = domain.ContentKind(kind)
		results = append(results, sc)
	}
	return results, rows.Err()
}

// Count returns the number of indexed chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM indexed_chunks`).Scan(&count)
	return count, err
}

// Reset irreversibly clears all persisted index entries.
func (r *ChunkRepository) Reset(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE TABLE indexed_chunks`)
	return err
}
