package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the backend reads from the
// environment. Values are loaded once at startup; nothing re-reads the
// environment afterwards.
type Config struct {
	Port        string
	Mode        string // "debug" or "release"
	CORSOrigins []string

	// Corpus loading
	CorpusDir    string
	CorpusSQLite string // optional sqlite corpus database

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Embeddings
	EmbeddingProvider string // "openai", "jina", "local"
	EmbeddingModel    string
	EmbeddingDim      int
	OpenAIAPIKey      string
	JinaAPIKey        string

	// Embedding cache
	EmbeddingCacheSize int
	EmbeddingCacheTTL  int // seconds

	// Retrieval
	MaxResults         int
	QueryCacheSize     int
	QueryCacheTTL      int // seconds
	InitWorkers        int

	// Chat / LLM
	ChatProvider string // "openai", "ollama", "template"
	ChatModel    string
	OllamaURL    string

	// Sessions
	SessionTTL        int // seconds
	SessionMaxHistory int
	SessionCacheSize  int

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Plugins
	WeatherAPIURL string
}

// Load reads configuration from the environment, consulting a .env file
// when one is present in the working directory.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Mode:        getEnv("ASKDOCS_MODE", "debug"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),

		CorpusDir:    getEnv("CORPUS_DIR", "./corpus"),
		CorpusSQLite: getEnv("CORPUS_SQLITE", ""),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1200),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
		EmbeddingDim:      getEnvInt("EMBEDDING_DIM", 1536),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		JinaAPIKey:        getEnv("JINA_API_KEY", ""),

		EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 10000),
		EmbeddingCacheTTL:  getEnvInt("EMBEDDING_CACHE_TTL", 3600),

		MaxResults:     getEnvInt("MAX_RESULTS", 5),
		QueryCacheSize: getEnvInt("QUERY_CACHE_SIZE", 1000),
		QueryCacheTTL:  getEnvInt("QUERY_CACHE_TTL", 300),
		InitWorkers:    getEnvInt("INIT_WORKERS", 4),

		ChatProvider: getEnv("CHAT_PROVIDER", "template"),
		ChatModel:    getEnv("CHAT_MODEL", ""),
		OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),

		SessionTTL:        getEnvInt("SESSION_TTL", 1800),
		SessionMaxHistory: getEnvInt("SESSION_MAX_HISTORY", 20),
		SessionCacheSize:  getEnvInt("SESSION_CACHE_SIZE", 1000),

		RateLimitRPS:   getEnvFloat64("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		WeatherAPIURL: getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
	}

	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	if cfg.MaxResults <= 0 {
		return nil, fmt.Errorf("MAX_RESULTS must be positive, got %d", cfg.MaxResults)
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
