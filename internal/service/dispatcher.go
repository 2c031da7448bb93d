package service

import (
	"context"
	"log"
	"strings"

	"github.com/airobotics/docqa/internal/domain"
)

// JobStore is the persistence contract for query jobs: id-keyed
// upserts and fetch-by-id with an explicit not-found signal.
type JobStore interface {
	Put(ctx context.Context, job *domain.QueryJob) error
	Get(ctx context.Context, id string) (*domain.QueryJob, error)
}

// Pipeline runs retrieval, assembly and generation for one question.
type Pipeline interface {
	Answer(ctx context.Context, queryText string) (*QueryResponse, error)
}

// WorkerInvoker hands a pending job to the detached worker. The send
// is one-way: the dispatcher never observes the worker's outcome, and
// delivery is at-least-once from the substrate's perspective.
type WorkerInvoker interface {
	Invoke(job *domain.QueryJob)
}

// Dispatcher decides, once per submission, whether a query runs inline
// or on the detached worker. Both paths execute the identical pipeline.
type Dispatcher struct {
	store    JobStore
	pipeline Pipeline
	invoker  WorkerInvoker
}

// NewDispatcher creates a Dispatcher that processes queries inline.
func NewDispatcher(store JobStore, pipeline Pipeline) *Dispatcher {
	return NewDispatcherWithInvoker(store, pipeline, nil)
}

// NewDispatcherWithInvoker creates a Dispatcher that hands queries to
// a detached worker when invoker is non-nil.
func NewDispatcherWithInvoker(store JobStore, pipeline Pipeline, invoker WorkerInvoker) *Dispatcher {
	return &Dispatcher{
		store:    store,
		pipeline: pipeline,
		invoker:  invoker,
	}
}

// Submit creates a job for the question and dispatches it. With a
// worker configured the caller gets the pending job back immediately;
// otherwise the job is processed synchronously and returned complete.
func (d *Dispatcher) Submit(ctx context.Context, queryText string) (*domain.QueryJob, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, domain.ErrEmptyQueryText
	}

	job := domain.NewQueryJob(queryText)

	if d.invoker != nil {
		if err := d.store.Put(ctx, job); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to persist pending job", err)
		}
		d.invoker.Invoke(job)
		log.Printf("dispatcher: job %s handed to worker", job.ID)
		return job, nil
	}

	if err := d.Process(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Process runs the pipeline for a job and performs the terminal write,
// setting answer, sources and completion together. Shared by the
// synchronous path and the worker consumer so both dispatch modes stay
// behaviorally equivalent.
func (d *Dispatcher) Process(ctx context.Context, job *domain.QueryJob) error {
	resp, err := d.pipeline.Answer(ctx, job.QueryText)
	if err != nil {
		return err
	}

	job.Complete(resp.AnswerText, resp.Sources)

	if err := d.store.Put(ctx, job); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to persist completed job", err)
	}
	log.Printf("dispatcher: job %s complete", job.ID)
	return nil
}

// Get fetches a job by id.
func (d *Dispatcher) Get(ctx context.Context, id string) (*domain.QueryJob, error) {
	return d.store.Get(ctx, id)
}
