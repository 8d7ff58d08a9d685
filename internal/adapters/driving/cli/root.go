// Package cli implements the paperbase command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperbase/paperbase/internal/adapters/driven/embedding/ollama"
	"github.com/paperbase/paperbase/internal/adapters/driven/embedding/openai"
	openaillm "github.com/paperbase/paperbase/internal/adapters/driven/llm/openai"
	"github.com/paperbase/paperbase/internal/adapters/driven/ocr/tesseract"
	"github.com/paperbase/paperbase/internal/adapters/driven/storage/sqlite"
	"github.com/paperbase/paperbase/internal/adapters/driven/vectorindex/flat"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/core/services"
	"github.com/paperbase/paperbase/internal/extractors"
	"github.com/paperbase/paperbase/internal/extractors/image"
	"github.com/paperbase/paperbase/internal/extractors/pdf"
	"github.com/paperbase/paperbase/internal/extractors/plaintext"
	"github.com/paperbase/paperbase/internal/logger"
	"github.com/paperbase/paperbase/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile     string
	verboseFlag bool
)

// Services wired at startup. Commands nil-check these so a partially
// configured binary fails with a clear message instead of a panic.
var (
	ingestService   driving.Ingestor
	queryService    driving.Querier
	answerService   driving.Answerer
	documentService driving.DocumentService
)

var (
	appConfig *config.Config
	closers   []func() error
)

var rootCmd = &cobra.Command{
	Use:   "paperbase",
	Short: "Document ingestion and semantic retrieval",
	Long: `Paperbase ingests documents (plain text, PDF, scanned images),
chunks and embeds them, and answers semantic queries and grounded
questions over the result.`,
	SilenceUsage:      true,
	PersistentPreRunE: initRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the CLI. Wired resources are released on the way out.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initRoot loads configuration and wires the services. Commands that
// never touch the pipeline skip wiring, and pre-set service variables
// (tests inject fakes) are kept as-is.
func initRoot(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}
	if ingestService != nil {
		return nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	logger.SetVerbose(cfg.Verbose)
	appConfig = cfg

	return initServices(cfg)
}

// initServices builds the driven adapters and core services from cfg.
// The SQLite store and the vector index share the index directory so
// one volume carries all derived state.
func initServices(cfg *config.Config) error {
	store, err := sqlite.NewStore(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	closers = append(closers, store.Close)

	index, err := flat.Open(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	closers = append(closers, index.Close)

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	embedder := services.NewEmbedder(provider,
		services.WithBatchSize(cfg.BatchSize),
		services.WithMaxRetries(cfg.MaxRetries),
		services.WithRetryDelay(cfg.RetryDelay),
		services.WithRateLimit(cfg.EmbedRatePerSec),
	)

	chk := chunker.New(
		chunker.WithMaxSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	ingest := services.NewIngestService(store, buildRegistry(cfg), chk, embedder, index,
		extractors.MediaTypeFor,
		services.WithLockTimeout(cfg.LockTimeout),
		services.WithIngestMismatchPolicy(cfg.OnModelMismatch),
	)

	query := services.NewQueryService(store, embedder, index,
		services.WithTopK(cfg.TopK),
		services.WithOverfetch(cfg.Overfetch),
		services.WithDedupePolicy(cfg.Dedupe),
		services.WithQueryMismatchPolicy(cfg.OnModelMismatch, ingest),
	)

	ingestService = ingest
	queryService = query
	documentService = services.NewDocumentService(store, index)

	if llm := buildLLM(cfg); llm != nil {
		answerService = services.NewAnswerService(query, store, llm, cfg.TopK)
	} else {
		logger.Info("No LLM configured; ask and summary commands are unavailable")
	}

	return nil
}

func buildProvider(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.EmbeddingBaseURL,
			Model:   cfg.EmbeddingModel,
			Timeout: config.DefaultEmbeddingTimeout,
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.EmbeddingBaseURL,
			Model:   cfg.EmbeddingModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// buildRegistry assembles the extractors. When tesseract is not on the
// PATH, scanned PDFs fail extraction instead of falling back and image
// types are not registered at all.
func buildRegistry(cfg *config.Config) *extractors.Registry {
	var ocr driven.OCREngine
	engine := tesseract.New(tesseract.Config{Language: cfg.OCRLanguage})
	if engine.Available() {
		ocr = engine
	} else {
		logger.Warn("tesseract not found; OCR fallback is disabled")
	}

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(pdf.New(ocr, pdf.WithOCRThreshold(cfg.OCRThreshold)))
	if ocr != nil {
		registry.Register(image.New(ocr))
	}
	return registry
}

// buildLLM returns nil when no API key is configured; answering and
// summarisation then report the capability as unavailable.
func buildLLM(cfg *config.Config) driven.LLMService {
	if cfg.APIKey == "" {
		return nil
	}
	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey: cfg.APIKey,
		Model:  cfg.LLMModel,
	})
	if err != nil {
		logger.Warn("Configuring LLM: %v", err)
		return nil
	}
	return llm
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Closing resources: %v", err)
		}
	}
	closers = nil
}
