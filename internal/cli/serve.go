package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/airobotics/docqa/internal/api/handlers"
	"github.com/airobotics/docqa/internal/config"
	"github.com/airobotics/docqa/internal/jobs"
	"github.com/airobotics/docqa/internal/openai"
	"github.com/airobotics/docqa/internal/repository"
	"github.com/airobotics/docqa/internal/server"
	"github.com/airobotics/docqa/internal/service"
	"github.com/airobotics/docqa/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the query API server",
		Long:  "Start the docqa API server for submitting and polling query jobs",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry()
	defer shutdownTelemetry()

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("DOCQA_OPENAI_API_KEY is required for query processing")
	}

	// The vector index handle is built once per process and shared by
	// every request; writes are id-keyed upserts so no exclusive
	// access is needed.
	client := openai.NewClient(cfg.OpenAIAPIKey)
	index := service.NewVectorIndex(client, repository.NewChunkRepository(pool))
	pipeline := service.NewQueryService(index, client, cfg.RetrievalK)
	jobStore := repository.NewQueryJobRepository(pool)

	var dispatcher *service.Dispatcher
	if cfg.HasWorker() {
		dispatcher = service.NewDispatcherWithInvoker(jobStore, pipeline, jobs.NewHTTPInvoker(cfg.WorkerURL))
		log.Printf("dispatching queries to worker at %s", cfg.WorkerURL)
	} else {
		dispatcher = service.NewDispatcher(jobStore, pipeline)
		log.Println("processing queries synchronously (no worker configured)")
	}

	router := server.NewRouter(handlers.NewQueryHandler(dispatcher))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// initTelemetry wires Sentry when SENTRY_DSN is set.
func initTelemetry() func() {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return func() {}
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	sampleRate := 0.1
	if environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}
