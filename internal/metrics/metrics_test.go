package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recording struct {
	requests    []string
	generations []Generation
}

func (r *recording) RecordAPIRequest(_ context.Context, endpoint string, _ int, _ time.Duration) {
	r.requests = append(r.requests, endpoint)
}

func (r *recording) RecordGeneration(_ context.Context, g Generation) {
	r.generations = append(r.generations, g)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recording{}, &recording{}
	m := Multi{a, b}

	m.RecordAPIRequest(context.Background(), "/api/v1/melodies", 200, time.Millisecond)
	m.RecordGeneration(context.Background(), Generation{Strategy: "random", Success: true})

	for _, r := range []*recording{a, b} {
		assert.Equal(t, []string{"/api/v1/melodies"}, r.requests)
		require.Len(t, r.generations, 1)
		assert.Equal(t, "random", r.generations[0].Strategy)
	}
}

func TestZeroMultiIsNoop(t *testing.T) {
	var m Multi
	assert.NotPanics(t, func() {
		m.RecordGeneration(context.Background(), Generation{})
	})
}

func TestCloudWatchDisabledOutsideProduction(t *testing.T) {
	c, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.NotPanics(t, func() {
		c.RecordGeneration(context.Background(), Generation{Strategy: "scored"})
		c.RecordAPIRequest(context.Background(), "/health", 200, time.Millisecond)
	})
}

func TestSentryMetricsWithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	assert.NotPanics(t, func() {
		m.RecordGeneration(context.Background(), Generation{Strategy: "ngram", Success: true})
	})
}
