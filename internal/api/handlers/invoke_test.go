package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobEnqueuer struct {
	mock.Mock
}

func (m *MockJobEnqueuer) Enqueue(job *domain.QueryJob) bool {
	args := m.Called(job)
	return args.Bool(0)
}

func TestInvokeHandler_Invoke(t *testing.T) {
	t.Run("enqueues a valid job and acknowledges receipt", func(t *testing.T) {
		consumer := new(MockJobEnqueuer)
		handler := NewInvokeHandler(consumer)

		job := domain.NewQueryJob("How are robots built?")
		consumer.On("Enqueue", mock.MatchedBy(func(j *domain.QueryJob) bool {
			return j.ID == job.ID && j.QueryText == job.QueryText
		})).Return(true)

		body, _ := json.Marshal(job)
		req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Invoke(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)

		var data map[string]string
		decodeData(t, w.Body, &data)
		assert.Equal(t, job.ID, data["query_id"])
	})

	t.Run("rejects a malformed payload", func(t *testing.T) {
		consumer := new(MockJobEnqueuer)
		handler := NewInvokeHandler(consumer)

		req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader([]byte("{broken")))
		w := httptest.NewRecorder()
		handler.Invoke(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		consumer.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("rejects an invalid job record", func(t *testing.T) {
		consumer := new(MockJobEnqueuer)
		handler := NewInvokeHandler(consumer)

		body, _ := json.Marshal(map[string]string{"query_id": "abc"})
		req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Invoke(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		consumer.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("full queue is service unavailable", func(t *testing.T) {
		consumer := new(MockJobEnqueuer)
		handler := NewInvokeHandler(consumer)

		consumer.On("Enqueue", mock.Anything).Return(false)

		body, _ := json.Marshal(domain.NewQueryJob("q"))
		req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Invoke(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
