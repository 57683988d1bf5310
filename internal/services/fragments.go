package services

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/export"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"golang.org/x/sync/errgroup"
)

type fragmentPlan struct {
	plan
	bars        int
	gapBeats    float64
	maxAttempts int
	bounds      constraint.Bounds
}

func (s *MelodyService) prepareFragments(req FragmentsRequest) (fragmentPlan, error) {
	if req.Count < 1 || req.Count > maxFragmentCount {
		return fragmentPlan{}, invalid(fmt.Errorf("count must be within [1,%d], got %d", maxFragmentCount, req.Count))
	}
	fp := fragmentPlan{
		bars:        req.Bars,
		gapBeats:    DefaultFragmentGapBeats,
		maxAttempts: req.MaxAttempts,
		bounds:      req.Bounds,
	}
	if fp.bars == 0 {
		fp.bars = DefaultFragmentBars
	}
	if req.GapBeats != nil {
		fp.gapBeats = *req.GapBeats
	}
	if fp.maxAttempts == 0 {
		fp.maxAttempts = DefaultFragmentMaxAttempts
	}
	switch {
	case fp.bars < 0:
		return fragmentPlan{}, invalid(fmt.Errorf("bars must be positive, got %d", fp.bars))
	case fp.gapBeats < 0:
		return fragmentPlan{}, invalid(fmt.Errorf("gap_beats must not be negative, got %v", fp.gapBeats))
	case fp.maxAttempts < 1 || fp.maxAttempts > constraint.MaxAttemptsLimit:
		return fragmentPlan{}, invalid(fmt.Errorf("max_attempts must be within [1,%d], got %d",
			constraint.MaxAttemptsLimit, fp.maxAttempts))
	}
	if err := fp.bounds.Validate(); err != nil {
		return fragmentPlan{}, invalid(err)
	}

	opts := req.Harmony
	opts.Bars = fp.bars
	p, err := s.prepare(req.Strategy, req.Seed, opts, req.Config, req.Structure)
	if err != nil {
		return fragmentPlan{}, err
	}
	fp.plan = p
	return fp, nil
}

// Fragments generates Count short melodies and joins them into one SMF.
// Fragment i starts from seed Seed+i; each attempt rebuilds the harmony from
// its own seed until the pitch bounds hold or attempts run out, in which case
// the last attempt is kept.
func (s *MelodyService) Fragments(ctx context.Context, req FragmentsRequest) (*FragmentsResponse, error) {
	fp, err := s.prepareFragments(req)
	if err != nil {
		return nil, err
	}

	infos := make([]FragmentInfo, req.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := 0; i < req.Count; i++ {
		i := i
		g.Go(func() error {
			info, err := s.fragment(gctx, fp, i)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fragments := make([]export.Fragment, len(infos))
	for i, info := range infos {
		fragments[i] = export.Fragment{Melody: info.Melody, Harmony: info.Harmony}
	}
	data, placements, err := export.EncodeFragments(fragments, fp.gapBeats)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble fragments: %w", err)
	}
	for i, pl := range placements {
		infos[i].StartBeat = pl.StartBeat
		infos[i].EndBeat = pl.EndBeat
	}

	met := 0
	for _, info := range infos {
		if info.ConstraintMet {
			met++
		}
	}
	logger.Info("Fragments assembled", logger.Fields{
		"request_id":     req.RequestID,
		"strategy":       fp.strategy.Name(),
		"count":          req.Count,
		"constraint_met": met,
	})

	return &FragmentsResponse{
		Strategy:   fp.strategy.Name(),
		BaseSeed:   fp.seed,
		GapBeats:   fp.gapBeats,
		TotalBeats: placements[len(placements)-1].EndBeat,
		Fragments:  infos,
		MIDI:       data,
	}, nil
}

func (s *MelodyService) fragment(ctx context.Context, fp fragmentPlan, index int) (FragmentInfo, error) {
	fragmentSeed := fp.seed + int64(index)

	var (
		h       models.HarmonyContext
		result  models.GenerationResult
		seed    int64
		met     bool
		attempt int
	)
	for attempt = 0; attempt < fp.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return FragmentInfo{}, fmt.Errorf("fragment %d stopped after %d attempts: %w", index, attempt, err)
		}
		seed = fragmentSeed + int64(attempt)*fragmentAttemptSeedStride
		var err error
		h, err = harmony.Build(seed, fp.harmony)
		if err != nil {
			return FragmentInfo{}, invalid(err)
		}
		result = fp.strategy.Generate(h, seed, fp.cfg, fp.structure)
		if fp.bounds.Check(result.Melody.Pitches) {
			met = true
			break
		}
	}
	attempts := attempt + 1
	if !met {
		attempts = fp.maxAttempts
	}

	return FragmentInfo{
		Index:         index,
		Seed:          fragmentSeed,
		AttemptSeed:   seed,
		Attempts:      attempts,
		ConstraintMet: met,
		Harmony:       h,
		Melody:        result.Melody,
		Score:         result.Score,
		PitchStats:    constraint.ComputePitchStats(result.Melody.Pitches),
	}, nil
}
