// Package config holds configuration loading and validation for the
// concierge backend.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration reports configuration that cannot produce a
// working system, such as a chunk size not larger than the overlap.
// It is fatal at startup.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Provider identifies an LLM/embedding backend.
type Provider string

const (
	ProviderGoogleAI Provider = "googleai"
	ProviderOllama   Provider = "ollama"
	ProviderOpenAI   Provider = "openai"
	ProviderBedrock  Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	HTTPAddr string `yaml:"http_addr"`

	// LLM generation
	LLMProvider Provider `yaml:"llm_provider"`
	LLMModel    string   `yaml:"llm_model"`
	Temperature float64  `yaml:"temperature"`

	// Embedding
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Provider credentials / endpoints
	GoogleAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	OllamaHost   string `yaml:"ollama_host"`

	// Chunking
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	ChunkSeparator string `yaml:"chunk_separator"`

	// Retrieval
	TopK int `yaml:"top_k"`

	// Collaborator call bounds
	EmbedTimeout    time.Duration `yaml:"embed_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`

	// Index recovery
	AutoRetry bool `yaml:"auto_retry"`

	// Record store: "memory" or "surrealdb"
	StoreBackend string `yaml:"store_backend"`

	// SurrealDB connection (only used when StoreBackend is "surrealdb")
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"-"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables, applying an
// optional YAML file first (CONCIERGE_CONFIG). Environment variables
// always win over file values.
func Load() Config {
	cfg := defaults()

	if path := os.Getenv("CONCIERGE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("failed to load config file, using env/defaults", "path", path, "error", err)
		}
	}

	cfg.HTTPAddr = getEnv("CONCIERGE_HTTP_ADDR", cfg.HTTPAddr)

	cfg.LLMProvider = Provider(getEnv("CONCIERGE_LLM_PROVIDER", string(cfg.LLMProvider)))
	cfg.LLMModel = getEnv("CONCIERGE_LLM_MODEL", cfg.LLMModel)

	cfg.EmbedProvider = Provider(getEnv("CONCIERGE_EMBED_PROVIDER", string(cfg.EmbedProvider)))
	cfg.EmbedModel = getEnv("CONCIERGE_EMBED_MODEL", cfg.EmbedModel)
	cfg.EmbedDimension = getEnvInt("CONCIERGE_EMBED_DIMENSION", cfg.EmbedDimension)

	cfg.GoogleAPIKey = getEnv("GEMINI_API_KEY", cfg.GoogleAPIKey)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)

	cfg.ChunkSize = getEnvInt("CONCIERGE_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = getEnvInt("CONCIERGE_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.TopK = getEnvInt("CONCIERGE_TOP_K", cfg.TopK)

	cfg.AutoRetry = getEnv("CONCIERGE_AUTO_RETRY", boolString(cfg.AutoRetry)) == "true"

	cfg.StoreBackend = getEnv("CONCIERGE_STORE", cfg.StoreBackend)
	cfg.SurrealDBURL = getEnv("SURREALDB_URL", cfg.SurrealDBURL)
	cfg.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", cfg.SurrealDBNamespace)
	cfg.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", cfg.SurrealDBDatabase)
	cfg.SurrealDBUser = getEnv("SURREALDB_USER", cfg.SurrealDBUser)
	cfg.SurrealDBPass = getEnv("SURREALDB_PASS", cfg.SurrealDBPass)

	cfg.LogFile = getEnv("CONCIERGE_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = parseLogLevel(getEnv("CONCIERGE_LOG_LEVEL", "INFO"))

	return cfg
}

func defaults() Config {
	return Config{
		HTTPAddr: ":5090",

		// Defaults match the original deployment: Gemini for generation,
		// a local MiniLM-class model for embeddings.
		LLMProvider: ProviderGoogleAI,
		LLMModel:    "gemini-2.0-flash",
		Temperature: 0.4,

		EmbedProvider:  ProviderOllama,
		EmbedModel:     "all-minilm:l6-v2",
		EmbedDimension: 384,

		OllamaHost: "http://localhost:11434",

		ChunkSize:      1000,
		ChunkOverlap:   100,
		ChunkSeparator: "\n",

		TopK: 5,

		EmbedTimeout:    30 * time.Second,
		GenerateTimeout: 60 * time.Second,

		AutoRetry: true,

		StoreBackend: "memory",

		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "cribconcierge",
		SurrealDBDatabase:  "listings",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",

		LogFile:  "/tmp/concierge.log",
		LogLevel: slog.LevelInfo,
	}
}

// Validate checks configuration invariants that cannot be defaulted
// around. A violation is fatal at startup.
func (c Config) Validate() error {
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap %d must not be negative", ErrInvalidConfiguration, c.ChunkOverlap)
	}
	if c.ChunkSize <= c.ChunkOverlap {
		return fmt.Errorf("%w: chunk size %d must be greater than overlap %d",
			ErrInvalidConfiguration, c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top-k %d must be positive", ErrInvalidConfiguration, c.TopK)
	}
	switch c.StoreBackend {
	case "memory", "surrealdb":
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfiguration, c.StoreBackend)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("ignoring non-numeric env value", "key", key, "value", val)
		return defaultVal
	}
	return n
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
