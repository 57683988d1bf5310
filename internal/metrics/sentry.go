package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records spans for requests and generations
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))
	span.SetData("duration_ms", duration.Milliseconds())

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration tags the current transaction and adds a child span
func (m *SentryMetrics) RecordGeneration(ctx context.Context, g Generation) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("melody.strategy", g.Strategy)
		transaction.SetTag("melody.status", g.Status)
		transaction.SetTag("melody.cache_hit", fmt.Sprintf("%t", g.CacheHit))
	}

	span := sentry.StartSpan(ctx, "melody.generation")
	defer span.Finish()

	span.SetTag("strategy", g.Strategy)
	span.SetTag("status", g.Status)
	span.SetData("attempts", g.Attempts)
	span.SetData("score", g.Score)
	span.SetData("duration_ms", g.Duration.Milliseconds())
	span.SetData("cache_hit", g.CacheHit)

	if g.Success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation: %s", g.Strategy)
}
