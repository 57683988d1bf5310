package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no generation has the requested id
	ErrNotFound = errors.New("generation not found")
	// ErrStoreDisabled is returned by history lookups when no store is configured
	ErrStoreDisabled = errors.New("generation history is disabled")
)

// GenerationStore persists generation records
type GenerationStore interface {
	Save(ctx context.Context, g *models.Generation) error
	Get(ctx context.Context, id string) (*models.Generation, error)
}

// GormStore keeps generations in postgres
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, g *models.Generation) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to save generation: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Generation, error) {
	var g models.Generation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load generation: %w", err)
	}
	return &g, nil
}

// MemoryStore keeps generations in process, for tests and local runs
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Generation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.Generation)}
}

func (s *MemoryStore) Save(_ context.Context, g *models.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[g.ID] = *g
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

// Len returns the number of stored generations
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
