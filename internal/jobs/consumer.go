package jobs

import (
	"context"
	"log"

	"github.com/airobotics/docqa/internal/domain"
)

// JobProcessor runs the query pipeline for one job and performs the
// terminal store write.
type JobProcessor interface {
	Process(ctx context.Context, job *domain.QueryJob) error
}

// Consumer drains job submissions from a queue and processes them one
// at a time. Submissions arrive over the worker invoke endpoint;
// because the terminal write is an id-keyed upsert, a duplicate
// submission for the same job converges to the same final state.
type Consumer struct {
	processor JobProcessor
	queue     chan *domain.QueryJob
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewConsumer creates a new Consumer with the given queue capacity.
func NewConsumer(processor JobProcessor, capacity int) *Consumer {
	if capacity <= 0 {
		capacity = 64
	}
	return &Consumer{
		processor: processor,
		queue:     make(chan *domain.QueryJob, capacity),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Enqueue hands a deserialized job submission to the consumer loop.
// Returns false when the queue is full or the consumer is stopping.
func (c *Consumer) Enqueue(job *domain.QueryJob) bool {
	select {
	case <-c.stopChan:
		return false
	default:
	}
	select {
	case c.queue <- job:
		return true
	default:
		return false
	}
}

// Start begins the consumer loop
func (c *Consumer) Start(ctx context.Context) {
	defer close(c.doneChan)

	log.Println("worker consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Println("worker consumer stopped: context cancelled")
			return
		case <-c.stopChan:
			log.Println("worker consumer stopped: stop signal received")
			return
		case job := <-c.queue:
			log.Printf("worker: processing job %s", job.ID)
			if err := c.processor.Process(ctx, job); err != nil {
				log.Printf("worker: job %s failed: %v", job.ID, err)
			}
		}
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	close(c.stopChan)
	<-c.doneChan
	log.Println("worker consumer shutdown complete")
}
