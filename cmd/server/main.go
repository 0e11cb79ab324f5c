package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/document-extractor/internal/analyzer"
	"github.com/BerylCAtieno/document-extractor/internal/config"
	"github.com/BerylCAtieno/document-extractor/internal/router"
	"github.com/BerylCAtieno/document-extractor/internal/services"
	"github.com/BerylCAtieno/document-extractor/internal/storage"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "document-extractor",
	Short: "Extract structured data from documents and chat about it",
	Long: `document-extractor turns PDFs and images into labelled fields, tables,
logos and signatures using an OpenAI-compatible model API.

Run without a subcommand to start the HTTP server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything a command needs, built once from Config.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	store    *store.Store
	services router.Services
}

func newApp(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*app, error) {
	st := store.New()

	model := analyzer.NewOpenAIModel(analyzer.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		TextModel:   cfg.OpenAITextModel,
		VisionModel: cfg.OpenAIVisionModel,
		ChatModel:   cfg.OpenAIChatModel,
	}, logger)
	if !cfg.HasCredentials() {
		logger.Warn("OPENAI_API_KEY is not set; model calls will fail")
	}

	var archive storage.Archive
	if cfg.ArchiveEnabled() {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3BucketName,
			UseSSL:          cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		archive = s3
		logger.Info("Archiving originals", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketName)
	}

	opts := services.ExtractionOptions{
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		Timeout:        cfg.UpstreamTimeout,
		MaxPromptChars: cfg.MaxPromptChars,
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		services: router.Services{
			Documents: services.NewDocumentService(st, model, nil, archive, opts, logger),
			Chat:      services.NewChatService(st, model, cfg.ChatTimeout, cfg.MaxPromptChars, logger),
			Export:    services.NewExportService(st, logger),
		},
	}, nil
}
