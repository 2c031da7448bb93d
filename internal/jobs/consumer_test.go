package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	err       error
}

func (p *recordingProcessor) Process(ctx context.Context, job *domain.QueryJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, job.ID)
	return p.err
}

func (p *recordingProcessor) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestConsumerProcessesEnqueuedJobs(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := NewConsumer(processor, 8)

	go consumer.Start(context.Background())
	defer consumer.Stop()

	first := domain.NewQueryJob("first question")
	second := domain.NewQueryJob("second question")
	require.True(t, consumer.Enqueue(first))
	require.True(t, consumer.Enqueue(second))

	waitFor(t, func() bool { return len(processor.ids()) == 2 })
	assert.Equal(t, []string{first.ID, second.ID}, processor.ids())
}

func TestConsumerContinuesAfterProcessorError(t *testing.T) {
	processor := &recordingProcessor{err: assert.AnError}
	consumer := NewConsumer(processor, 8)

	go consumer.Start(context.Background())
	defer consumer.Stop()

	require.True(t, consumer.Enqueue(domain.NewQueryJob("one")))
	require.True(t, consumer.Enqueue(domain.NewQueryJob("two")))

	waitFor(t, func() bool { return len(processor.ids()) == 2 })
}

func TestConsumerEnqueueFullQueue(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := NewConsumer(processor, 1)

	// Not started, so the queue never drains.
	assert.True(t, consumer.Enqueue(domain.NewQueryJob("fits")))
	assert.False(t, consumer.Enqueue(domain.NewQueryJob("overflows")))
}

func TestConsumerStop(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := NewConsumer(processor, 8)

	go consumer.Start(context.Background())
	consumer.Stop()

	assert.False(t, consumer.Enqueue(domain.NewQueryJob("after stop")))
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := NewConsumer(processor, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}

func TestConsumerDefaultCapacity(t *testing.T) {
	consumer := NewConsumer(&recordingProcessor{}, 0)
	assert.Equal(t, 64, cap(consumer.queue))
}
