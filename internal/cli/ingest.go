package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/airobotics/docqa/internal/config"
	"github.com/airobotics/docqa/internal/extract"
	"github.com/airobotics/docqa/internal/openai"
	"github.com/airobotics/docqa/internal/repository"
	"github.com/airobotics/docqa/internal/service"
	"github.com/airobotics/docqa/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build or refresh the document index",
		Long: `Extract, chunk and index the configured document source.
Re-running over an unchanged corpus inserts nothing; only new or
changed content is embedded and stored.`,
		RunE: runIngest,
	}

	cmd.Flags().Bool("reset", false, "Irreversibly clear the index before ingesting")
	cmd.Flags().String("source", "", "Source directory (overrides DOCQA_SOURCE_DIR)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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
		return fmt.Errorf("DOCQA_OPENAI_API_KEY is required for ingestion")
	}

	sourceDir, _ := cmd.Flags().GetString("source")
	if sourceDir != "" {
		cfg.SourceDir = sourceDir
	}

	var source service.DocumentSource
	if cfg.HasS3() {
		s3Source, err := storage.NewS3Source(ctx, storage.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 source: %w", err)
		}
		source = s3Source
		log.Printf("ingesting from s3 bucket %s", cfg.S3Bucket)
	} else {
		source = storage.NewDirSource(cfg.SourceDir)
		log.Printf("ingesting from %s", cfg.SourceDir)
	}

	client := openai.NewClient(cfg.OpenAIAPIKey)
	index := service.NewVectorIndex(client, repository.NewChunkRepository(pool))
	ingest := service.NewIngestService(source, extract.NewExtractor(), index)

	reset, _ := cmd.Flags().GetBool("reset")
	result, err := ingest.Run(ctx, reset)
	if err != nil {
		return err
	}

	log.Printf("ingest finished: %d documents (%d failed), %d chunks, %d inserted",
		result.Documents, result.Failed, result.Units, result.Inserted)
	return nil
}
