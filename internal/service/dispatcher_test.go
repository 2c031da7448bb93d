package service

import (
	"context"
	"errors"
	"testing"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockJobStore is a mock implementation of JobStore
type MockJobStore struct {
	mock.Mock
}

func (m *MockJobStore) Put(ctx context.Context, job *domain.QueryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobStore) Get(ctx context.Context, id string) (*domain.QueryJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryJob), args.Error(1)
}

// MockPipeline is a mock implementation of Pipeline
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Answer(ctx context.Context, queryText string) (*QueryResponse, error) {
	args := m.Called(ctx, queryText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QueryResponse), args.Error(1)
}

// MockWorkerInvoker is a mock implementation of WorkerInvoker
type MockWorkerInvoker struct {
	mock.Mock
}

func (m *MockWorkerInvoker) Invoke(job *domain.QueryJob) {
	m.Called(job)
}

func TestDispatcher_Submit(t *testing.T) {
	resp := &QueryResponse{
		QueryText:  "How are robots built?",
		AnswerText: "At AIR Lab.",
		Sources:    []string{"m.pdf:1:text:0:aaaa"},
	}

	t.Run("synchronous submission returns a completed job", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		d := NewDispatcher(store, pipeline)

		pipeline.On("Answer", mock.Anything, "How are robots built?").Return(resp, nil)
		store.On("Put", mock.Anything, mock.MatchedBy(func(j *domain.QueryJob) bool {
			return j.IsComplete && j.AnswerText == "At AIR Lab."
		})).Return(nil)

		job, err := d.Submit(context.Background(), "How are robots built?")
		require.NoError(t, err)
		assert.True(t, job.IsComplete)
		assert.Equal(t, "At AIR Lab.", job.AnswerText)
		assert.Equal(t, resp.Sources, job.Sources)
		store.AssertNumberOfCalls(t, "Put", 1)
	})

	t.Run("worker submission persists pending and invokes", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		invoker := new(MockWorkerInvoker)
		d := NewDispatcherWithInvoker(store, pipeline, invoker)

		store.On("Put", mock.Anything, mock.MatchedBy(func(j *domain.QueryJob) bool {
			return !j.IsComplete && j.AnswerText == ""
		})).Return(nil)
		invoker.On("Invoke", mock.AnythingOfType("*domain.QueryJob")).Return()

		job, err := d.Submit(context.Background(), "How are robots built?")
		require.NoError(t, err)
		assert.False(t, job.IsComplete)
		assert.Empty(t, job.AnswerText)
		invoker.AssertExpectations(t)
		pipeline.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("blank query text is rejected", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		d := NewDispatcher(store, pipeline)

		_, err := d.Submit(context.Background(), "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyQueryText)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})

	t.Run("pending persist failure aborts the worker handoff", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		invoker := new(MockWorkerInvoker)
		d := NewDispatcherWithInvoker(store, pipeline, invoker)

		store.On("Put", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := d.Submit(context.Background(), "q")
		require.Error(t, err)
		invoker.AssertNotCalled(t, "Invoke", mock.Anything)
	})
}

func TestDispatcher_Process(t *testing.T) {
	t.Run("completes the job and performs the terminal write", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		d := NewDispatcher(store, pipeline)

		job := domain.NewQueryJob("How are robots built?")
		resp := &QueryResponse{QueryText: job.QueryText, AnswerText: "At AIR Lab.", Sources: []string{"a"}}

		pipeline.On("Answer", mock.Anything, job.QueryText).Return(resp, nil)
		store.On("Put", mock.Anything, job).Return(nil)

		require.NoError(t, d.Process(context.Background(), job))
		assert.True(t, job.IsComplete)
		assert.Equal(t, "At AIR Lab.", job.AnswerText)
		assert.Equal(t, []string{"a"}, job.Sources)
	})

	t.Run("pipeline failure leaves the job pending", func(t *testing.T) {
		store := new(MockJobStore)
		pipeline := new(MockPipeline)
		d := NewDispatcher(store, pipeline)

		job := domain.NewQueryJob("q")
		pipeline.On("Answer", mock.Anything, "q").Return(nil, errors.New("index unavailable"))

		require.Error(t, d.Process(context.Background(), job))
		assert.False(t, job.IsComplete)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})
}

func TestDispatcher_Get(t *testing.T) {
	store := new(MockJobStore)
	pipeline := new(MockPipeline)
	d := NewDispatcher(store, pipeline)

	job := domain.NewQueryJob("q")
	store.On("Get", mock.Anything, job.ID).Return(job, nil)
	store.On("Get", mock.Anything, "missing").Return(nil, domain.ErrQueryJobNotFound)

	got, err := d.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	_, err = d.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQueryJobNotFound)
}
