//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/airobotics/docqa/internal/api/handlers"
	"github.com/airobotics/docqa/internal/domain"
	"github.com/airobotics/docqa/internal/extract"
	"github.com/airobotics/docqa/internal/jobs"
	"github.com/airobotics/docqa/internal/repository"
	"github.com/airobotics/docqa/internal/server"
	"github.com/airobotics/docqa/internal/service"
	"github.com/airobotics/docqa/internal/storage"
	"github.com/airobotics/docqa/internal/testutil"
)

// stubEmbedder produces deterministic embeddings from token counts so
// that near-identical texts land near each other in the vector space
// without calling a real model.
type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(word))
		idx := binary.BigEndian.Uint32(sum[:4]) % 1536
		v[idx] += 1
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

// stubGenerator echoes the retrieved context so assertions can check
// that the right chunks reached the prompt.
type stubGenerator struct{}

func (stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "ANSWER BASED ON: " + prompt, nil
}

// Env is a full query stack over a real database: repositories, vector
// index, query pipeline and the end-user HTTP surface.
type Env struct {
	Ctx       context.Context
	Pool      *pgxpool.Pool
	Index     *service.VectorIndex
	Ingest    *service.IngestService
	JobRepo   *repository.QueryJobRepository
	Server    *httptest.Server
	Client    *http.Client
	terminate func()
}

// SetupEnv starts a pgvector container and wires the synchronous query
// stack on top of it.
func SetupEnv(t *testing.T, sourceDir string) *Env {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")

	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewQueryJobRepository(pool)

	index := service.NewVectorIndex(stubEmbedder{}, chunkRepo)
	ingest := service.NewIngestService(storage.NewDirSource(sourceDir), extract.NewExtractor(), index)
	pipeline := service.NewQueryService(index, stubGenerator{}, 5)
	dispatcher := service.NewDispatcher(jobRepo, pipeline)

	srv := httptest.NewServer(server.NewRouter(handlers.NewQueryHandler(dispatcher)))

	return &Env{
		Ctx:     ctx,
		Pool:    pool,
		Index:   index,
		Ingest:  ingest,
		JobRepo: jobRepo,
		Server:  srv,
		Client:  &http.Client{Timeout: 10 * time.Second},
		terminate: func() {
			srv.Close()
			pool.Close()
			pc.Terminate(ctx)
		},
	}
}

// WithWorker rewires the stack into split dispatch: the query server
// hands submissions to a worker server over the invoke endpoint.
func (e *Env) WithWorker(t *testing.T) (querySrv, workerSrv *httptest.Server, stop func()) {
	chunkRepo := repository.NewChunkRepository(e.Pool)
	pipeline := service.NewQueryService(service.NewVectorIndex(stubEmbedder{}, chunkRepo), stubGenerator{}, 5)

	workerDispatcher := service.NewDispatcher(e.JobRepo, pipeline)
	consumer := jobs.NewConsumer(workerDispatcher, 16)
	ctx, cancel := context.WithCancel(e.Ctx)
	go consumer.Start(ctx)

	workerSrv = httptest.NewServer(server.NewWorkerRouter(handlers.NewInvokeHandler(consumer)))

	invoker := jobs.NewHTTPInvoker(workerSrv.URL + "/invoke")
	queryDispatcher := service.NewDispatcherWithInvoker(e.JobRepo, pipeline, invoker)
	querySrv = httptest.NewServer(server.NewRouter(handlers.NewQueryHandler(queryDispatcher)))

	stop = func() {
		querySrv.Close()
		workerSrv.Close()
		consumer.Stop()
		cancel()
	}
	return querySrv, workerSrv, stop
}

func (e *Env) Teardown() {
	e.terminate()
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// PostJSON posts a JSON payload and decodes the response envelope.
func (e *Env) PostJSON(t *testing.T, url string, payload interface{}) (int, envelope) {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := e.Client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeEnvelope(t, resp.Body)
}

// GetJSON fetches a URL and decodes the response envelope.
func (e *Env) GetJSON(t *testing.T, url string) (int, envelope) {
	resp, err := e.Client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeEnvelope(t, resp.Body)
}

func decodeEnvelope(t *testing.T, r io.Reader) envelope {
	var env envelope
	require.NoError(t, json.NewDecoder(r).Decode(&env))
	return env
}

// SubmitQuery submits a question and returns the job from the response.
func (e *Env) SubmitQuery(t *testing.T, baseURL, queryText string) *domain.QueryJob {
	status, env := e.PostJSON(t, baseURL+"/submit_query", map[string]string{"query_text": queryText})
	require.Equal(t, http.StatusOK, status, env.Error)

	var job domain.QueryJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	return &job
}

// GetQuery polls get_query once and returns the job.
func (e *Env) GetQuery(t *testing.T, baseURL, queryID string) *domain.QueryJob {
	status, env := e.GetJSON(t, fmt.Sprintf("%s/get_query?query_id=%s", baseURL, queryID))
	require.Equal(t, http.StatusOK, status, env.Error)

	var job domain.QueryJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	return &job
}

// WaitForCompletion polls get_query until the job completes.
func (e *Env) WaitForCompletion(t *testing.T, baseURL, queryID string) *domain.QueryJob {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		job := e.GetQuery(t, baseURL, queryID)
		if job.IsComplete {
			return job
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("query job %s never completed", queryID)
	return nil
}
