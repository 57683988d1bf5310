package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Cache stores JSON-serializable results under content-derived keys.
// Generation is deterministic, so a key built from the full request is stable.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, key string) error
	Stats() Stats
}

// Stats reports hit/miss counters since startup
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type counters struct {
	hits   int64
	misses int64
}

func (c *counters) hit()  { atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.misses, 1) }

func (c *counters) stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	s := Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// Key hashes a namespace and request into a stable cache key
func Key(namespace string, request interface{}) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to serialize cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", namespace, hex.EncodeToString(sum[:])), nil
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error { return nil }
func (Noop) Invalidate(context.Context, string) error { return nil }
func (Noop) Stats() Stats { return Stats{} }

// Memory is a process-local cache with per-entry expiry
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
	counters
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemory returns a memory cache; ttl <= 0 keeps entries forever
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && m.ttl > 0 && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		m.miss()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to parse cache entry: %w", err)
	}
	m.hit()
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Stats() Stats {
	return m.stats()
}
