package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL     string
	LLMModelName   string
	LLMAPIKey      string
	LLMMaxTokens   int
	LLMTemperature float32

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	DBPath string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantVectorSize int

	ChunkMaxLength      int
	ChunkOverlap        int
	IngestConcurrency   int
	RetrievalLimit      int
	AskScoreThreshold   float32
	QueryLimit          int
	QueryScoreThreshold float32
	MaxFileSizeBytes    int64

	JWTSecretKey string
	JWTIssuer    string
	TokenTTL     time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// A .env file in the current directory or one of its parents is loaded first;
// variables already present in the environment take precedence.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-ada-002"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		DBPath:             getEnv("DB_PATH", "./data/docqa.db"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documents"),
		JWTSecretKey:       getEnv("JWT_SECRET_KEY", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "docqa"),
		APIPort:            getEnv("API_PORT", "8000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// The embedding key falls back to the LLM key when both talk to the same provider.
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}

	var err error
	if cfg.QdrantVectorSize, err = requiredPositiveInt("QDRANT_VECTOR_SIZE"); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens, err = positiveInt("LLM_MAX_TOKENS", 500); err != nil {
		return nil, err
	}
	if cfg.LLMTemperature, err = float("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.ChunkMaxLength, err = positiveInt("CHUNK_MAX_LENGTH", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = nonNegativeInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.IngestConcurrency, err = positiveInt("INGEST_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.RetrievalLimit, err = positiveInt("RETRIEVAL_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.AskScoreThreshold, err = float("ASK_SCORE_THRESHOLD", 0.1); err != nil {
		return nil, err
	}
	if cfg.QueryLimit, err = positiveInt("QUERY_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.QueryScoreThreshold, err = float("QUERY_SCORE_THRESHOLD", 0.01); err != nil {
		return nil, err
	}

	maxFileMB, err := positiveInt("MAX_FILE_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSizeBytes = int64(maxFileMB) * 1024 * 1024

	ttlMinutes, err := positiveInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = time.Duration(ttlMinutes) * time.Minute

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, searching at most five directories up.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requiredPositiveInt(key string) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func positiveInt(key string, def int) (int, error) {
	v, err := intValue(key, def)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func nonNegativeInt(key string, def int) (int, error) {
	v, err := intValue(key, def)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}

func intValue(key string, def int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func float(key string, def float32) (float32, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return float32(v), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}
