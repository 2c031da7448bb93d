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
)

// WorkCmd returns the work command
func WorkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Start the detached query worker",
		Long: `Start the worker that receives fire-and-forget job invocations,
runs the query pipeline, and writes back the completed job record`,
		RunE: runWork,
	}

	cmd.Flags().StringP("port", "p", "8090", "Port to listen on")
	cmd.Flags().Int("queue-size", 64, "Capacity of the in-process job queue")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runWork(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry()
	defer shutdownTelemetry()

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

	// Same pipeline wiring as the synchronous path: dispatch mode must
	// not change query behavior.
	client := openai.NewClient(cfg.OpenAIAPIKey)
	index := service.NewVectorIndex(client, repository.NewChunkRepository(pool))
	pipeline := service.NewQueryService(index, client, cfg.RetrievalK)
	jobStore := repository.NewQueryJobRepository(pool)
	dispatcher := service.NewDispatcher(jobStore, pipeline)

	queueSize, _ := cmd.Flags().GetInt("queue-size")
	consumer := jobs.NewConsumer(dispatcher, queueSize)
	go consumer.Start(ctx)

	router := server.NewWorkerRouter(handlers.NewInvokeHandler(consumer))

	port, _ := cmd.Flags().GetString("port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("starting worker on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	consumer.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("worker forced to shutdown: %w", err)
	}

	log.Println("worker exited")
	return nil
}
