package logger

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Configure sets the level and output format. Unknown levels fall back to info.
func Configure(level string, jsonOutput bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
	if jsonOutput {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects log output, mainly for tests
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}

	if userID, exists := c.Get("user_id"); exists {
		fields["user_id"] = userID
	}

	return fields
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	base.WithFields(logrus.Fields(fields)).Info(msg)
	breadcrumb("info", sentry.LevelInfo, msg, fields)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	base.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for key, value := range fields {
				scope.SetContext(key, map[string]interface{}{
					"value": value,
				})
			}

			// Set tags for better filtering in Sentry
			if requestID, ok := fields["request_id"].(string); ok {
				scope.SetTag("request_id", requestID)
			}
			if method, ok := fields["strategy"].(string); ok {
				scope.SetTag("strategy", method)
			}

			hub.CaptureException(err)
		})
	}
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	base.WithFields(logrus.Fields(fields)).Warn(msg)
	breadcrumb("warning", sentry.LevelWarning, msg, fields)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	base.WithFields(logrus.Fields(fields)).Debug(msg)
	breadcrumb("debug", sentry.LevelDebug, msg, fields)
}

// LogAPIRequest logs a finished API request, at warn level for 4xx and 5xx
func LogAPIRequest(c *gin.Context, duration time.Duration, statusCode int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["duration_ms"] = duration.Milliseconds()
	fields["status_code"] = statusCode
	fields["request_id"] = c.GetString("request_id")
	fields["method"] = c.Request.Method
	fields["path"] = c.Request.URL.Path
	fields["client_ip"] = c.ClientIP()

	switch {
	case statusCode >= http.StatusInternalServerError:
		Warn("Request failed with server error", fields)
	case statusCode >= http.StatusBadRequest:
		Warn("Request failed with client error", fields)
	default:
		Info("Request completed", fields)
	}
}

// LogGenerationRequest logs a finished melody generation and records a span for it
func LogGenerationRequest(ctx context.Context, strategy string, seed int64, duration time.Duration, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["strategy"] = strategy
	fields["seed"] = seed
	fields["duration_ms"] = duration.Milliseconds()

	Info("Generation completed", fields)

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "melody.generate")
		span.Description = strategy
		span.SetData("seed", seed)
		span.Finish()
	}
}

func breadcrumb(kind string, level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() == nil {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     kind,
		Category: "log",
		Message:  msg,
		Data:     convertFieldsToMap(fields),
		Level:    level,
	})
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		result[k] = v
	}
	return result
}
