package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Embeddings configuration
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	EmbeddingDimensions   int
	EmbeddingTimeout      int // seconds, per inference call
	EmbeddingConcurrency  int // bounded worker pool for inference
	EmbeddingRPM          int // provider requests per minute
	EmbeddingCacheTTL     int // seconds

	// Circuit breaker policy for the embedding provider
	BreakerFailures int // consecutive failures before the breaker opens
	BreakerCooldown int // seconds before a half-open trial

	// Scoring policy
	SimilarityWeight float64
	SkillWeight      float64

	// Text preprocessing
	MaxTextLength int

	// Matching
	MatchConcurrency int

	// Explanation enhancement (optional LLM collaborator)
	ExplanationLLMEnabled bool
	GeminiModel           string

	// API rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Embedding backfill sweep
	BackfillIntervalMinutes int

	// Resume content compression at rest
	CompressionThreshold int

	// Telemetry
	OTLPEndpoint     string
	TracingEnabled   bool
	TraceSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/talent_match"),
		DBName:      getEnv("DB_NAME", "talent_match"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIM", 768),
		EmbeddingTimeout:      getEnvInt("EMBEDDING_TIMEOUT", 10),
		EmbeddingConcurrency:  getEnvInt("EMBEDDING_CONCURRENCY", 4),
		EmbeddingRPM:          getEnvInt("EMBEDDING_RPM", 600),
		EmbeddingCacheTTL:     getEnvInt("EMBEDDING_CACHE_TTL", 86400),

		BreakerFailures: getEnvInt("BREAKER_FAILURES", 5),
		BreakerCooldown: getEnvInt("BREAKER_COOLDOWN", 30),

		SimilarityWeight: getEnvFloat64("SIMILARITY_WEIGHT", 0.6),
		SkillWeight:      getEnvFloat64("SKILL_WEIGHT", 0.4),

		MaxTextLength: getEnvInt("MAX_TEXT_LENGTH", 8000),

		MatchConcurrency: getEnvInt("MATCH_CONCURRENCY", 10),

		ExplanationLLMEnabled: getEnvBool("EXPLANATION_LLM_ENABLED", false),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		BackfillIntervalMinutes: getEnvInt("BACKFILL_INTERVAL_MINUTES", 15),

		CompressionThreshold: getEnvInt("COMPRESSION_THRESHOLD", 4096),

		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled:   getEnvBool("TRACING_ENABLED", false),
		TraceSampleRatio: getEnvFloat64("TRACE_SAMPLE_RATIO", 0.1),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.SimilarityWeight < 0 || cfg.SkillWeight < 0 || cfg.SimilarityWeight+cfg.SkillWeight <= 0 {
		return nil, fmt.Errorf("invalid score weights: similarity=%v skill=%v", cfg.SimilarityWeight, cfg.SkillWeight)
	}

	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDimensions)
	}

	return cfg, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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
