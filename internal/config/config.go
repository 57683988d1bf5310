package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/generator"
)

// Auth modes
const (
	AuthModeNone    = "none"
	AuthModeGateway = "gateway"
	AuthModeJWT     = "jwt"
)

// Config holds the application configuration
// Database and redis are optional: without them generations are neither
// persisted nor cached.
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    string

	// Storage
	DatabaseURL string // Postgres DSN for generation history
	RedisURL    string // Redis URL for the result cache
	CacheTTL    time.Duration

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": Validate HS256 bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Batch limits
	BatchConcurrency int
	MaxBatchSize     int

	// Generation defaults applied before per-request overrides
	Generation generator.Config
}

func Load() *Config {
	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AuthMode:         getEnv("AUTH_MODE", AuthModeNone), // Default to no auth for self-hosted
		JWTSecret:        getEnv("JWT_SECRET", ""),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 4),
		MaxBatchSize:     getEnvInt("MAX_BATCH_SIZE", 64),
		Generation: generator.Config{
			RestProbability: getEnvFloat("REST_PROBABILITY", generator.DefaultRestProbability),
			CandidateCount:  getEnvInt("CANDIDATE_COUNT", generator.DefaultCandidateCount),
			ScoreThreshold:  getEnvFloat("SCORE_THRESHOLD", generator.DefaultScoreThreshold),
			NgramOrder:      getEnvInt("NGRAM_ORDER", generator.DefaultNgramOrder),
			OctaveUpChance:  getEnvFloat("OCTAVE_UP_CHANCE", generator.DefaultOctaveUpChance),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == AuthModeGateway
}

// IsJWTMode returns true if bearer tokens are validated locally
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == AuthModeJWT
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether generation history is persisted
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasCache reports whether results are cached in redis
func (c *Config) HasCache() bool {
	return c.RedisURL != ""
}
