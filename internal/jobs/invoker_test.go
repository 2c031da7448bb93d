package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPInvokerPostsFullJobRecord(t *testing.T) {
	received := make(chan *domain.QueryJob, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var job domain.QueryJob
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		received <- &job
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	job := domain.NewQueryJob("How are robots built?")
	NewHTTPInvoker(server.URL).Invoke(job)

	select {
	case got := <-received:
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.QueryText, got.QueryText)
		assert.Equal(t, job.CreateTime, got.CreateTime)
		assert.False(t, got.IsComplete)
	case <-time.After(2 * time.Second):
		t.Fatal("worker was never invoked")
	}
}

func TestHTTPInvokerUnreachableWorkerDoesNotBlock(t *testing.T) {
	invoker := NewHTTPInvoker("http://127.0.0.1:1/invoke")

	done := make(chan struct{})
	go func() {
		invoker.Invoke(domain.NewQueryJob("q"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Invoke blocked on an unreachable worker")
	}
}
