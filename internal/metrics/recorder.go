package metrics

import (
	"context"
	"time"
)

// Generation describes one finished generation for metric backends.
type Generation struct {
	Strategy string
	Status   string
	Attempts int
	Score    float64
	Duration time.Duration
	CacheHit bool
	Success  bool
}

// Recorder is implemented by every metric backend.
type Recorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
	RecordGeneration(ctx context.Context, g Generation)
}

// Multi fans out to several recorders. The zero value records nothing.
type Multi []Recorder

func (m Multi) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

func (m Multi) RecordGeneration(ctx context.Context, g Generation) {
	for _, r := range m {
		r.RecordGeneration(ctx, g)
	}
}
