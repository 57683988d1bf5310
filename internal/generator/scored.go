package generator

import (
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

const (
	candidateSeedStride = 1000
	minSoundingNotes    = 4
)

// Scored generates several Random candidates and keeps the best one that passes
// validation and clears the score threshold.
type Scored struct{}

func (Scored) Name() string { return MethodScored }

func (Scored) Generate(h models.HarmonyContext, seed int64, cfg Config, spec *models.StructureSpec) models.GenerationResult {
	scale := theory.ResolveScale(h)
	var extra []float64
	if spec.HasRhythmProfile() {
		extra = spec.RhythmProfile.Durations()
	}

	merged := models.NewDebugStats()
	var best *models.GenerationResult

	for i := 0; i < cfg.CandidateCount; i++ {
		candidate := Random{}.Generate(h, seed+int64(i)*candidateSeedStride, cfg, spec)

		if !pitchesInScale(candidate.Melody.Pitches, scale) {
			merged.ScaleCorrections++
			continue
		}
		if !durationsAllowed(candidate.Melody.Durations, extra) {
			continue
		}
		if len(candidate.Melody.Sounding()) < minSoundingNotes {
			continue
		}

		merged.Merge(candidate.Stats)
		if candidate.Score >= cfg.ScoreThreshold && (best == nil || candidate.Score > best.Score) {
			c := candidate
			best = &c
		}
	}

	if best == nil {
		fallback := Random{}.Generate(h, seed+int64(cfg.CandidateCount)*candidateSeedStride, cfg, spec)
		merged.Merge(fallback.Stats)
		fallback.Stats = withRealized(merged, fallback.Stats)
		fallback.ThresholdMet = false
		fallback.Candidates = cfg.CandidateCount
		return fallback
	}

	best.Stats = withRealized(merged, best.Stats)
	best.ThresholdMet = true
	best.Candidates = cfg.CandidateCount
	return *best
}

// withRealized takes the merged counters and the winner's realized measurements
func withRealized(merged, winner models.DebugStats) models.DebugStats {
	merged.TotalBeats = winner.TotalBeats
	merged.RepeatCount = winner.RepeatCount
	merged.RepetitionApplied = winner.RepetitionApplied
	merged.MotifVariations = winner.MotifVariations
	merged.ActualDurationDistribution = winner.ActualDurationDistribution
	return merged
}

func pitchesInScale(pitches []int, scale theory.ScaleSet) bool {
	for _, p := range pitches {
		if p > models.Rest && !scale.Contains(p) {
			return false
		}
	}
	return true
}

func durationsAllowed(durations []float64, extra []float64) bool {
	for _, d := range durations {
		if !theory.IsAllowedDuration(d, extra...) {
			return false
		}
	}
	return true
}
