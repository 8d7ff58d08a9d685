// Package config builds the immutable runtime configuration for Paperbase.
// Values come from an optional TOML file overridden by environment
// variables; the resulting Config is constructed once at startup and passed
// explicitly, never read ad hoc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// Defaults. Chunk size and overlap match the original service settings.
const (
	DefaultDataDir          = "/data/docs"
	DefaultIndexDir         = "/data/index"
	DefaultPort             = 8000
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultLLMModel         = "gpt-4o-mini"
	DefaultChunkSize        = 700
	DefaultChunkOverlap     = 100
	DefaultBatchSize        = 32
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = 2 * time.Second
	DefaultLockTimeout      = 5 * time.Second
	DefaultTopK             = 3
	DefaultOverfetch        = 4
	DefaultOCRThreshold     = 100
	DefaultEmbedRatePerSec  = 10.0
	DefaultWatchDebounce    = 2 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultEmbeddingTimeout = 60 * time.Second
)

// Config holds all runtime configuration. It is immutable after Load.
type Config struct {
	// DataDir is the documents root read by ingestion.
	DataDir string `toml:"data_dir"`

	// IndexDir is where the vector index persists across restarts.
	IndexDir string `toml:"index_dir"`

	// Port is the HTTP listen port.
	Port int `toml:"port"`

	// EmbeddingProvider selects the embedding adapter: openai or ollama.
	EmbeddingProvider string `toml:"embedding_provider"`

	// EmbeddingModel is the model identifier recorded in the index.
	EmbeddingModel string `toml:"embedding_model"`

	// EmbeddingBaseURL overrides the provider's API base URL.
	EmbeddingBaseURL string `toml:"embedding_base_url"`

	// APIKey authenticates against OpenAI-compatible APIs.
	APIKey string `toml:"-"`

	// LLMModel is the chat model for answers and summaries.
	LLMModel string `toml:"llm_model"`

	// ChunkSize is the maximum chunk size in bytes.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the shared window between adjacent chunks in bytes.
	ChunkOverlap int `toml:"chunk_overlap"`

	// BatchSize is the number of texts per embedding request.
	BatchSize int `toml:"batch_size"`

	// MaxRetries bounds retry attempts for a failing embedding batch.
	MaxRetries int `toml:"max_retries"`

	// RetryDelay is the base backoff delay between retries.
	RetryDelay time.Duration `toml:"retry_delay"`

	// LockTimeout bounds how long an ingestion waits for the
	// per-document lock before failing with a conflict.
	LockTimeout time.Duration `toml:"lock_timeout"`

	// TopK is the default number of query results.
	TopK int `toml:"top_k"`

	// Overfetch multiplies K for the candidate pool before dedup.
	Overfetch int `toml:"overfetch"`

	// Dedupe selects the result dedupe policy: best or all.
	Dedupe domain.DedupePolicy `toml:"dedupe"`

	// OnModelMismatch selects the stale-index policy: reject or reembed.
	OnModelMismatch domain.MismatchPolicy `toml:"on_model_mismatch"`

	// OCRThreshold is the minimum extracted character count below which
	// a PDF falls back to OCR.
	OCRThreshold int `toml:"ocr_threshold"`

	// OCRLanguage is passed to the OCR engine (tesseract -l).
	OCRLanguage string `toml:"ocr_language"`

	// EmbedRatePerSec throttles outbound embedding requests.
	EmbedRatePerSec float64 `toml:"embed_rate_per_sec"`

	// Watch enables the filesystem watcher on DataDir.
	Watch bool `toml:"watch"`

	// WatchDebounce delays ingestion after a file event settles.
	WatchDebounce time.Duration `toml:"watch_debounce"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// Load builds the configuration: defaults, then the TOML file at path (if
// path is empty, no file is read; a missing explicit file is an error),
// then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DataDir:           DefaultDataDir,
		IndexDir:          DefaultIndexDir,
		Port:              DefaultPort,
		EmbeddingProvider: "openai",
		EmbeddingModel:    DefaultEmbeddingModel,
		LLMModel:          DefaultLLMModel,
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		BatchSize:         DefaultBatchSize,
		MaxRetries:        DefaultMaxRetries,
		RetryDelay:        DefaultRetryDelay,
		LockTimeout:       DefaultLockTimeout,
		TopK:              DefaultTopK,
		Overfetch:         DefaultOverfetch,
		Dedupe:            domain.DedupeBest,
		OnModelMismatch:   domain.MismatchReject,
		OCRThreshold:      DefaultOCRThreshold,
		OCRLanguage:       "eng",
		EmbedRatePerSec:   DefaultEmbedRatePerSec,
		WatchDebounce:     DefaultWatchDebounce,
	}
}

// applyEnv overrides config fields from PAPERBASE_* environment variables.
// PORT and OPENAI_API_KEY are also honoured for container conventions.
func applyEnv(cfg *Config) {
	cfg.DataDir = getEnv("PAPERBASE_DATA_DIR", cfg.DataDir)
	cfg.IndexDir = getEnv("PAPERBASE_INDEX_DIR", cfg.IndexDir)
	cfg.Port = getEnvInt("PAPERBASE_PORT", getEnvInt("PORT", cfg.Port))
	cfg.EmbeddingProvider = getEnv("PAPERBASE_EMBEDDING_PROVIDER", cfg.EmbeddingProvider)
	cfg.EmbeddingModel = getEnv("PAPERBASE_EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.EmbeddingBaseURL = getEnv("PAPERBASE_EMBEDDING_BASE_URL", cfg.EmbeddingBaseURL)
	cfg.APIKey = getEnv("PAPERBASE_API_KEY", getEnv("OPENAI_API_KEY", cfg.APIKey))
	cfg.LLMModel = getEnv("PAPERBASE_LLM_MODEL", cfg.LLMModel)
	cfg.ChunkSize = getEnvInt("PAPERBASE_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = getEnvInt("PAPERBASE_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.BatchSize = getEnvInt("PAPERBASE_BATCH_SIZE", cfg.BatchSize)
	cfg.MaxRetries = getEnvInt("PAPERBASE_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelay = getEnvDuration("PAPERBASE_RETRY_DELAY", cfg.RetryDelay)
	cfg.LockTimeout = getEnvDuration("PAPERBASE_LOCK_TIMEOUT", cfg.LockTimeout)
	cfg.TopK = getEnvInt("PAPERBASE_TOP_K", cfg.TopK)
	cfg.Overfetch = getEnvInt("PAPERBASE_OVERFETCH", cfg.Overfetch)
	cfg.Dedupe = domain.DedupePolicy(getEnv("PAPERBASE_DEDUPE", string(cfg.Dedupe)))
	cfg.OnModelMismatch = domain.MismatchPolicy(
		getEnv("PAPERBASE_ON_MODEL_MISMATCH", string(cfg.OnModelMismatch)))
	cfg.OCRThreshold = getEnvInt("PAPERBASE_OCR_THRESHOLD", cfg.OCRThreshold)
	cfg.OCRLanguage = getEnv("PAPERBASE_OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.EmbedRatePerSec = getEnvFloat("PAPERBASE_EMBED_RATE", cfg.EmbedRatePerSec)
	cfg.Watch = getEnvBool("PAPERBASE_WATCH", cfg.Watch)
	cfg.WatchDebounce = getEnvDuration("PAPERBASE_WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.Verbose = getEnvBool("PAPERBASE_VERBOSE", cfg.Verbose)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be 0-10, got %d", c.MaxRetries)
	}
	if c.Overfetch < 1 {
		return fmt.Errorf("overfetch must be >= 1, got %d", c.Overfetch)
	}
	if !c.Dedupe.IsValid() {
		return fmt.Errorf("dedupe must be %q or %q, got %q",
			domain.DedupeBest, domain.DedupeAll, c.Dedupe)
	}
	if !c.OnModelMismatch.IsValid() {
		return fmt.Errorf("on_model_mismatch must be %q or %q, got %q",
			domain.MismatchReject, domain.MismatchReembed, c.OnModelMismatch)
	}
	return nil
}

// Helper functions.
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
