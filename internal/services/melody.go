package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/cache"
	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/eval"
	"github.com/Conceptual-Machines/magda-melody/internal/export"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/metrics"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidRequest wraps every validation failure so handlers can map it to 400
var ErrInvalidRequest = errors.New("invalid request")

const cacheNamespace = "melody:v1"

// Options wires the optional collaborators of a MelodyService
type Options struct {
	Defaults     generator.Config
	Registry     *generator.Registry
	Cache        cache.Cache
	Store        GenerationStore
	Recorder     metrics.Recorder
	Concurrency  int
	MaxBatchSize int
}

// MelodyService validates requests, runs the generation pipeline and takes
// care of caching and persistence
type MelodyService struct {
	defaults     generator.Config
	registry     *generator.Registry
	cache        cache.Cache
	store        GenerationStore
	recorder     metrics.Recorder
	concurrency  int
	maxBatchSize int
}

func NewMelodyService(opts Options) *MelodyService {
	s := &MelodyService{
		defaults:     opts.Defaults,
		registry:     opts.Registry,
		cache:        opts.Cache,
		store:        opts.Store,
		recorder:     opts.Recorder,
		concurrency:  opts.Concurrency,
		maxBatchSize: opts.MaxBatchSize,
	}
	if s.defaults == (generator.Config{}) {
		s.defaults = generator.DefaultConfig()
	}
	if s.registry == nil {
		s.registry = generator.NewRegistry()
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.recorder == nil {
		s.recorder = metrics.Multi{}
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.maxBatchSize < 1 {
		s.maxBatchSize = 64
	}
	return s
}

// Strategies lists the registered strategy names
func (s *MelodyService) Strategies() []string {
	return s.registry.Names()
}

// CacheStats reports the result cache counters
func (s *MelodyService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// HistoryEnabled reports whether generations are persisted
func (s *MelodyService) HistoryEnabled() bool {
	return s.store != nil
}

// plan is a validated generation request
type plan struct {
	strategy  generator.Strategy
	cfg       generator.Config
	harmony   harmony.Options
	structure *models.StructureSpec
	target    *constraint.Target
	seed      int64
}

// cacheKey covers everything that determines the output
type cacheKey struct {
	Strategy  string                `json:"strategy"`
	Seed      int64                 `json:"seed"`
	Harmony   harmony.Options       `json:"harmony"`
	Config    generator.Config      `json:"config"`
	Structure *models.StructureSpec `json:"structure"`
	Target    *constraint.Target    `json:"target"`
}

func (s *MelodyService) prepare(strategy string, seed int64, opts harmony.Options, overrides *generator.Overrides,
	structure *models.StructureSpec) (plan, error) {
	strat, err := s.registry.Lookup(strategy)
	if err != nil {
		return plan{}, invalid(err)
	}
	cfg := overrides.Apply(s.defaults)
	if err := cfg.Validate(); err != nil {
		return plan{}, invalid(err)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return plan{}, invalid(err)
	}
	if err := structure.Validate(); err != nil {
		return plan{}, invalid(err)
	}
	return plan{strategy: strat, cfg: cfg, harmony: opts, structure: structure, seed: seed}, nil
}

func (s *MelodyService) prepareGenerate(req GenerateRequest) (plan, error) {
	p, err := s.prepare(req.Strategy, req.Seed, req.Harmony, req.Config, req.Structure)
	if err != nil {
		return plan{}, err
	}
	if req.Target != nil {
		target := *req.Target
		if target.MaxAttempts == 0 {
			target.MaxAttempts = constraint.DefaultMaxAttempts
		}
		if err := target.Validate(); err != nil {
			return plan{}, invalid(err)
		}
		p.target = &target
	}
	return p, nil
}

// Generate runs one generation, serving it from the cache when possible
func (s *MelodyService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	p, err := s.prepareGenerate(req)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, p, req.RequestID, req.UserID)
}

func (s *MelodyService) generate(ctx context.Context, p plan, requestID, userID string) (*GenerateResponse, error) {
	start := time.Now()
	fields := logger.Fields{"request_id": requestID, "strategy": p.strategy.Name(), "seed": p.seed}

	key, keyErr := cache.Key(cacheNamespace, cacheKey{
		Strategy:  p.strategy.Name(),
		Seed:      p.seed,
		Harmony:   p.harmony,
		Config:    p.cfg,
		Structure: p.structure,
		Target:    p.target,
	})
	if keyErr == nil {
		var cached GenerateResponse
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			// an unreadable entry would fail every lookup until it expires
			logger.Warn("Cache lookup failed, dropping entry", withErr(fields, err))
			if err := s.cache.Invalidate(ctx, key); err != nil {
				logger.Warn("Cache invalidation failed", withErr(fields, err))
			}
		} else if hit {
			cached.Cached = true
			s.record(ctx, &cached, time.Since(start), true)
			return &cached, nil
		}
	}

	resp, err := s.run(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		record := toRecord(resp, requestID, userID)
		if err := s.store.Save(ctx, record); err != nil {
			logger.Error("Failed to persist generation", err, fields)
		} else {
			resp.ID = record.ID
		}
	}

	if keyErr == nil {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			logger.Warn("Cache write failed", withErr(fields, err))
		}
	}

	s.record(ctx, resp, time.Since(start), false)
	logger.LogGenerationRequest(ctx, resp.Strategy, resp.Seed, time.Since(start), logger.Fields{
		"request_id": requestID,
		"status":     string(resp.Status),
		"attempts":   resp.Attempts,
		"score":      resp.Score,
	})
	return resp, nil
}

// run is the synchronous core: harmony once per request, then the retry loop
func (s *MelodyService) run(ctx context.Context, p plan) (*GenerateResponse, error) {
	h, err := harmony.Build(p.seed, p.harmony)
	if err != nil {
		return nil, invalid(err)
	}

	outcome, err := constraint.RunContext(ctx, p.seed, p.target, func(seed int64) models.GenerationResult {
		return p.strategy.Generate(h, seed, p.cfg, p.structure)
	})
	if err != nil {
		return nil, err
	}
	result := outcome.Result

	return &GenerateResponse{
		Strategy:     p.strategy.Name(),
		RequestSeed:  p.seed,
		Seed:         result.Seed,
		Harmony:      h,
		Config:       p.cfg,
		Melody:       result.Melody,
		Score:        result.Score,
		Metrics:      result.Metrics,
		Stats:        result.Stats,
		ThresholdMet: result.ThresholdMet,
		Candidates:   result.Candidates,
		Status:       outcome.Status,
		Attempts:     outcome.Attempts,
		MeanPitch:    outcome.MeanPitch,
		Reason:       outcome.Reason,
		PitchStats:   constraint.ComputePitchStats(result.Melody.Pitches),
	}, nil
}

// Harmony returns the harmony context a seed produces
func (s *MelodyService) Harmony(req HarmonyRequest) (models.HarmonyContext, error) {
	h, err := harmony.Build(req.Seed, req.Harmony)
	if err != nil {
		return models.HarmonyContext{}, invalid(err)
	}
	return h, nil
}

// Evaluate scores a caller-supplied melody
func (s *MelodyService) Evaluate(req models.EvaluateRequest) (models.EvaluationResult, error) {
	if err := req.Validate(); err != nil {
		return models.EvaluationResult{}, invalid(err)
	}
	return eval.Evaluate(req.Melody.Pitches, req.Melody.Durations, req.Structure), nil
}

// Get loads a stored generation
func (s *MelodyService) Get(ctx context.Context, id string) (*models.Generation, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// MIDI renders a stored generation as a Standard MIDI File
func (s *MelodyService) MIDI(ctx context.Context, id string) ([]byte, *models.Generation, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := export.Encode(g.Melody(), g.Harmony)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode generation %s: %w", id, err)
	}
	return data, g, nil
}

func (s *MelodyService) record(ctx context.Context, resp *GenerateResponse, elapsed time.Duration, cacheHit bool) {
	s.recorder.RecordGeneration(ctx, metrics.Generation{
		Strategy: resp.Strategy,
		Status:   string(resp.Status),
		Attempts: resp.Attempts,
		Score:    resp.Score,
		Duration: elapsed,
		CacheHit: cacheHit,
		Success:  true,
	})
}

func toRecord(resp *GenerateResponse, requestID, userID string) *models.Generation {
	return &models.Generation{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		UserID:        userID,
		Strategy:      resp.Strategy,
		Seed:          resp.Seed,
		Harmony:       resp.Harmony,
		Pitches:       resp.Melody.Pitches,
		Durations:     resp.Melody.Durations,
		Metrics:       resp.Metrics,
		Stats:         resp.Stats,
		Score:         resp.Score,
		Status:        string(resp.Status),
		Attempts:      resp.Attempts,
		ConstraintMet: resp.Status == constraint.StatusAccepted,
		MeanPitch:     resp.MeanPitch,
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

func withErr(fields logger.Fields, err error) logger.Fields {
	out := make(logger.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
