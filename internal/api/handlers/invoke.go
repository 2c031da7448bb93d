package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/airobotics/docqa/internal/api"
	"github.com/airobotics/docqa/internal/domain"
)

// JobEnqueuer accepts a deserialized job submission for processing.
type JobEnqueuer interface {
	Enqueue(job *domain.QueryJob) bool
}

// InvokeHandler receives fire-and-forget worker invocations carrying a
// full job record and hands them to the consumer loop.
type InvokeHandler struct {
	consumer JobEnqueuer
}

func NewInvokeHandler(consumer JobEnqueuer) *InvokeHandler {
	return &InvokeHandler{consumer: consumer}
}

// Invoke decodes the job payload and enqueues it. The 202 response
// acknowledges receipt only; the sender never waits for the outcome.
func (h *InvokeHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	var job domain.QueryJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid job payload")
		return
	}

	if err := domain.ValidateQueryJob(&job); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.consumer.Enqueue(&job) {
		api.Error(w, http.StatusServiceUnavailable, "worker queue full")
		return
	}

	api.Success(w, http.StatusAccepted, map[string]string{"query_id": job.ID})
}
