package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM / embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// IndexBackend identifies the vector store implementation.
type IndexBackend string

const (
	// IndexMemory keeps the collection in process memory (lost on exit).
	IndexMemory IndexBackend = "memory"

	// IndexSurreal persists the collection in SurrealDB.
	IndexSurreal IndexBackend = "surreal"
)

// Config holds all configuration values.
type Config struct {
	// LLM generation
	LLMProvider Provider `yaml:"llm_provider"`
	LLMModel    string   `yaml:"llm_model"`

	// Embedding
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Provider credentials / endpoints
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// Web search (Serper). Empty key disables the web source.
	SerperAPIKey string `yaml:"-"`

	// Index backend
	IndexBackend IndexBackend `yaml:"index_backend"`
	Collection   string       `yaml:"collection"`

	// SurrealDB connection (only used with IndexSurreal)
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"-"`

	// Chunking
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Research
	MaxContextChars int `yaml:"max_context_chars"`
	MaxSubtasks     int `yaml:"max_subtasks"`
	RetrievalLimit  int `yaml:"retrieval_limit"`
	WorkflowWorkers int `yaml:"workflow_workers"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables, then overlays values
// from an optional deepscout.yaml config file (env wins for credentials).
func Load() Config {
	cfg := Config{
		LLMProvider: Provider(getEnv("DEEPSCOUT_LLM_PROVIDER", "ollama")),
		LLMModel:    getEnv("DEEPSCOUT_LLM_MODEL", "llama3.1"),

		EmbedProvider:  Provider(getEnv("DEEPSCOUT_EMBED_PROVIDER", "ollama")),
		EmbedModel:     getEnv("DEEPSCOUT_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("DEEPSCOUT_EMBED_DIMENSION", 384),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		SerperAPIKey:    os.Getenv("SERPER_API_KEY"),

		IndexBackend: IndexBackend(getEnv("DEEPSCOUT_INDEX_BACKEND", "memory")),
		Collection:   getEnv("DEEPSCOUT_COLLECTION", "research_documents"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "deepscout"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "research"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),

		ChunkSize:    getEnvInt("DEEPSCOUT_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("DEEPSCOUT_CHUNK_OVERLAP", 200),

		MaxContextChars: getEnvInt("DEEPSCOUT_MAX_CONTEXT_CHARS", 12000),
		MaxSubtasks:     getEnvInt("DEEPSCOUT_MAX_SUBTASKS", 5),
		RetrievalLimit:  getEnvInt("DEEPSCOUT_RETRIEVAL_LIMIT", 5),
		WorkflowWorkers: getEnvInt("DEEPSCOUT_WORKFLOW_WORKERS", 4),

		LogFile:  getEnv("DEEPSCOUT_LOG_FILE", "/tmp/deepscout.log"),
		LogLevel: parseLogLevel(getEnv("DEEPSCOUT_LOG_LEVEL", "INFO")),
	}

	if path := configFilePath(); path != "" {
		cfg.applyFile(path)
	}

	return cfg
}

// configFilePath returns the config file to load, or "" if none exists.
// DEEPSCOUT_CONFIG takes precedence over ./deepscout.yaml.
func configFilePath() string {
	if p := os.Getenv("DEEPSCOUT_CONFIG"); p != "" {
		return p
	}
	for _, p := range []string{"deepscout.yaml", filepath.Join(os.Getenv("HOME"), ".deepscout.yaml")} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyFile overlays non-zero values from a YAML config file.
// Credentials stay env-only.
func (c *Config) applyFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read config file", "path", path, "error", err)
		return
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("failed to parse config file", "path", path, "error", err)
		return
	}

	if file.LLMProvider != "" {
		c.LLMProvider = file.LLMProvider
	}
	if file.LLMModel != "" {
		c.LLMModel = file.LLMModel
	}
	if file.EmbedProvider != "" {
		c.EmbedProvider = file.EmbedProvider
	}
	if file.EmbedModel != "" {
		c.EmbedModel = file.EmbedModel
	}
	if file.EmbedDimension > 0 {
		c.EmbedDimension = file.EmbedDimension
	}
	if file.OllamaHost != "" {
		c.OllamaHost = file.OllamaHost
	}
	if file.IndexBackend != "" {
		c.IndexBackend = file.IndexBackend
	}
	if file.Collection != "" {
		c.Collection = file.Collection
	}
	if file.SurrealDBURL != "" {
		c.SurrealDBURL = file.SurrealDBURL
	}
	if file.SurrealDBNamespace != "" {
		c.SurrealDBNamespace = file.SurrealDBNamespace
	}
	if file.SurrealDBDatabase != "" {
		c.SurrealDBDatabase = file.SurrealDBDatabase
	}
	if file.SurrealDBUser != "" {
		c.SurrealDBUser = file.SurrealDBUser
	}
	if file.ChunkSize > 0 {
		c.ChunkSize = file.ChunkSize
	}
	if file.ChunkOverlap > 0 {
		c.ChunkOverlap = file.ChunkOverlap
	}
	if file.MaxContextChars > 0 {
		c.MaxContextChars = file.MaxContextChars
	}
	if file.MaxSubtasks > 0 {
		c.MaxSubtasks = file.MaxSubtasks
	}
	if file.RetrievalLimit > 0 {
		c.RetrievalLimit = file.RetrievalLimit
	}
	if file.WorkflowWorkers > 0 {
		c.WorkflowWorkers = file.WorkflowWorkers
	}
	if file.LogFile != "" {
		c.LogFile = file.LogFile
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
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
