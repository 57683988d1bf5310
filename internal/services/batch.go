package services

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"golang.org/x/sync/errgroup"
)

// Batch runs one generation per seed in [Seed, Seed+Count). Jobs run
// concurrently; results land in seed order.
func (s *MelodyService) Batch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if req.Count < 1 || req.Count > s.maxBatchSize {
		return nil, invalid(fmt.Errorf("count must be within [1,%d], got %d", s.maxBatchSize, req.Count))
	}
	base, err := s.prepareGenerate(req.GenerateRequest)
	if err != nil {
		return nil, err
	}

	results := make([]*GenerateResponse, req.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := 0; i < req.Count; i++ {
		i := i
		g.Go(func() error {
			p := base
			p.seed = base.seed + int64(i)
			resp, err := s.generate(gctx, p, req.RequestID, req.UserID)
			if err != nil {
				return fmt.Errorf("seed %d: %w", p.seed, err)
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResponse{Results: results}
	for _, r := range results {
		if r.Status == constraint.StatusAccepted {
			out.Accepted++
		} else {
			out.Fallbacks++
		}
	}
	return out, nil
}
