package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/api"
	"github.com/Conceptual-Machines/magda-melody/internal/cache"
	"github.com/Conceptual-Machines/magda-melody/internal/config"
	"github.com/Conceptual-Machines/magda-melody/internal/database"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/metrics"
	"github.com/Conceptual-Machines/magda-melody/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
	startupTimeout        = 10 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger.Configure(cfg.LogLevel, cfg.IsProduction())

	if err := cfg.Generation.Validate(); err != nil {
		log.Fatal("Invalid generation defaults: ", err)
	}

	recorders := metrics.Multi{}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "magda-melody@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
			recorders = append(recorders, metrics.NewSentryMetrics())
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("CloudWatch metrics unavailable: %v", err)
	} else if cloudwatch.Enabled() {
		recorders = append(recorders, cloudwatch)
	}

	opts := services.Options{
		Defaults:     cfg.Generation,
		Registry:     generator.NewRegistry(),
		Recorder:     recorders,
		Concurrency:  cfg.BatchConcurrency,
		MaxBatchSize: cfg.MaxBatchSize,
	}

	// Initialize database (optional)
	var db *gorm.DB
	if cfg.HasDatabase() {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}
		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
		opts.Store = services.NewGormStore(db)
		log.Println("🗄️  Generation history: ENABLED")
	} else {
		log.Println("🗄️  Generation history: DISABLED (DATABASE_URL not set)")
	}

	// Initialize result cache (optional)
	if cfg.HasCache() {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to redis:", err)
		}
		defer rdb.Close()
		opts.Cache = cache.NewRedis(rdb, cfg.CacheTTL)
		log.Printf("⚡ Result cache: ENABLED (ttl: %s)", cfg.CacheTTL)
	} else {
		opts.Cache = cache.NewMemory(cfg.CacheTTL)
		log.Println("⚡ Result cache: in-process (REDIS_URL not set)")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Deps{
		DB:       db,
		Melodies: services.NewMelodyService(opts),
		Recorder: recorders,
	}, cfg, GetVersion())

	log.Printf("🚀 Starting server on port %s (auth: %s)", cfg.Port, cfg.AuthMode)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
