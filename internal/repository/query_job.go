package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airobotics/docqa/internal/domain"
)

// QueryJobRepository handles persistence of query jobs. Put is a
// full-record upsert keyed by id (last writer wins), which is what
// makes duplicate worker processing of the same job converge.
type QueryJobRepository struct {
	db dbtx
}

func NewQueryJobRepository(pool *pgxpool.Pool) *QueryJobRepository {
	return &QueryJobRepository{db: pool}
}

// Put upserts a query job by id, fully replacing any existing record.
func (r *QueryJobRepository) Put(ctx context.Context, job *domain.QueryJob) error {
	var answerText *string
	if job.AnswerText != "" {
		answerText = &job.AnswerText
	}
	sources := job.Sources
	if sources == nil {
		sources = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO query_jobs (query_id, create_time, query_text, answer_text, sources, is_complete)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (query_id) DO UPDATE SET
			create_time = EXCLUDED.create_time,
			query_text  = EXCLUDED.query_text,
			answer_text = EXCLUDED.answer_text,
			sources     = EXCLUDED.sources,
			is_complete = EXCLUDED.is_complete`,
		job.ID, job.CreateTime, job.QueryText, answerText, sources, job.IsComplete,
	)
	return err
}

// Get returns the query job for the given id, or ErrQueryJobNotFound.
func (r *QueryJobRepository) Get(ctx context.Context, id string) (*domain.QueryJob, error) {
	var job domain.QueryJob
	var answerText pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT query_id, create_time, query_text, answer_text, sources, is_complete
		 FROM query_jobs WHERE query_id = $1`,
		id,
	).Scan(&job.ID, &job.CreateTime, &job.QueryText, &answerText, &job.Sources, &job.IsComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQueryJobNotFound
		}
		return nil, err
	}
	if answerText.Valid {
		job.AnswerText = answerText.String
	}
	if job.Sources == nil {
		job.Sources = []string{}
	}
	return &job, nil
}
