package jobs

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/airobotics/docqa/internal/domain"
)

// HTTPInvoker sends the full job record to a named worker target as a
// fire-and-forget asynchronous invocation. The caller never blocks on
// or observes the worker's outcome.
type HTTPInvoker struct {
	targetURL string
	client    *http.Client
}

// NewHTTPInvoker creates an invoker for the given worker invoke URL.
func NewHTTPInvoker(targetURL string) *HTTPInvoker {
	return &HTTPInvoker{
		targetURL: targetURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Invoke serializes the job and posts it to the worker target in the
// background. Delivery failures are logged, not surfaced: the job is
// already persisted as pending and retry is the substrate's concern.
func (i *HTTPInvoker) Invoke(job *domain.QueryJob) {
	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("invoker: failed to serialize job %s: %v", job.ID, err)
		return
	}

	go func() {
		resp, err := i.client.Post(i.targetURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("invoker: failed to invoke worker for job %s: %v", job.ID, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("invoker: worker rejected job %s: %s", job.ID, resp.Status)
			return
		}
		log.Printf("invoker: worker invoked for job %s", job.ID)
	}()
}
