//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/airobotics/docqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryJobRepository_PutAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQueryJobRepository(pool)

	t.Run("pending job round trips", func(t *testing.T) {
		job := domain.NewQueryJob("How are robots built?")
		require.NoError(t, repo.Put(ctx, job))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.CreateTime, got.CreateTime)
		assert.Equal(t, "How are robots built?", got.QueryText)
		assert.Empty(t, got.AnswerText)
		assert.NotNil(t, got.Sources)
		assert.Empty(t, got.Sources)
		assert.False(t, got.IsComplete)
	})

	t.Run("completion overwrites the pending record", func(t *testing.T) {
		job := domain.NewQueryJob("How are robots built?")
		require.NoError(t, repo.Put(ctx, job))

		job.Complete("At AIR Lab.", []string{"m.pdf:1:text:0:aaaa", "m.pdf:2:table:0:bbbb"})
		require.NoError(t, repo.Put(ctx, job))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, got.IsComplete)
		assert.Equal(t, "At AIR Lab.", got.AnswerText)
		assert.Equal(t, []string{"m.pdf:1:text:0:aaaa", "m.pdf:2:table:0:bbbb"}, got.Sources)
	})

	t.Run("duplicate completion converges", func(t *testing.T) {
		job := domain.NewQueryJob("q")
		job.Complete("answer", []string{"a"})
		require.NoError(t, repo.Put(ctx, job))
		require.NoError(t, repo.Put(ctx, job))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "answer", got.AnswerText)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrQueryJobNotFound)
	})
}
