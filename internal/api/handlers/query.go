package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/airobotics/docqa/internal/api"
	"github.com/airobotics/docqa/internal/domain"
)

// QueryDispatcher submits new queries and fetches jobs by id.
type QueryDispatcher interface {
	Submit(ctx context.Context, queryText string) (*domain.QueryJob, error)
	Get(ctx context.Context, id string) (*domain.QueryJob, error)
}

// QueryHandler serves the end-user query surface.
type QueryHandler struct {
	dispatcher QueryDispatcher
}

func NewQueryHandler(dispatcher QueryDispatcher) *QueryHandler {
	return &QueryHandler{dispatcher: dispatcher}
}

type SubmitQueryRequest struct {
	QueryText string `json:"query_text"`
}

// Index returns the liveness payload.
func (h *QueryHandler) Index(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok", "service": "docqa"})
}

// GetQuery returns the query job for the query_id parameter.
func (h *QueryHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	queryID := r.URL.Query().Get("query_id")
	if queryID == "" {
		api.Error(w, http.StatusBadRequest, "query_id is required")
		return
	}

	job, err := h.dispatcher.Get(r.Context(), queryID)
	if err != nil {
		if errors.Is(err, domain.ErrQueryJobNotFound) {
			api.Error(w, http.StatusNotFound, "no such query job")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, job)
}

// SubmitQuery creates a job for the submitted question. The response
// carries the pending record when a worker is configured, or the
// completed record when the query was processed synchronously.
func (h *QueryHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req SubmitQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.dispatcher.Submit(r.Context(), req.QueryText)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, job)
}
