package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airobotics/docqa/internal/api"
	"github.com/airobotics/docqa/internal/api/handlers"
	"github.com/airobotics/docqa/internal/api/middleware"
)

const maxBodyBytes int64 = 1 * 1024 * 1024

// NewRouter builds the end-user API surface.
func NewRouter(queryHandler *handlers.QueryHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/", queryHandler.Index)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/get_query", queryHandler.GetQuery)
	r.Post("/submit_query", queryHandler.SubmitQuery)

	return r
}

// NewWorkerRouter builds the worker invocation surface.
func NewWorkerRouter(invokeHandler *handlers.InvokeHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/invoke", invokeHandler.Invoke)

	return r
}
