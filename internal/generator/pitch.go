package generator

import (
	"math/rand"

	"github.com/Conceptual-Machines/magda-melody/internal/eval"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/structure"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

const (
	stepwiseBias = 0.6
	octave       = 12
)

var neighborOffsets = []int{-2, -1, 1, 2}

// pickDuration draws from the rhythm profile when one is set. If the weighted
// value overshoots, it picks uniformly among the profile values that still fit,
// and only then falls back to the plain alphabet.
func pickDuration(remaining float64, spec *models.StructureSpec, rng *rand.Rand) float64 {
	if spec.HasRhythmProfile() {
		d := spec.RhythmProfile.Choose(rng)
		if d <= remaining+theory.DurationEpsilon {
			return d
		}
		var fitting []float64
		for _, candidate := range spec.RhythmProfile.Durations() {
			if candidate <= remaining+theory.DurationEpsilon {
				fitting = append(fitting, candidate)
			}
		}
		if len(fitting) > 0 {
			return fitting[rng.Intn(len(fitting))]
		}
	}
	return theory.ChooseDuration(remaining, theory.DurationValues(), rng)
}

// octaveJump moves prev up an octave with the given chance when the result stays in scale
func octaveJump(prev int, hasPrev bool, chance float64, scale theory.ScaleSet, rng *rand.Rand) (int, bool) {
	if !hasPrev || rng.Float64() >= chance {
		return 0, false
	}
	if scale.Contains(prev + octave) {
		return prev + octave, true
	}
	return 0, false
}

// pickScalePitch selects the next pitch: an occasional octave jump, otherwise a
// stepwise neighbour of prev with 60% probability, otherwise any scale pitch.
func pickScalePitch(scale theory.ScaleSet, prev int, hasPrev bool, octaveUpChance float64, rng *rand.Rand) (int, bool) {
	if pitch, jumped := octaveJump(prev, hasPrev, octaveUpChance, scale, rng); jumped {
		return pitch, true
	}
	if hasPrev {
		if idx, ok := scale.Index(prev); ok {
			neighbors := make([]int, 0, len(neighborOffsets))
			for _, offset := range neighborOffsets {
				if j := idx + offset; j >= 0 && j < scale.Len() {
					neighbors = append(neighbors, scale.At(j))
				}
			}
			if len(neighbors) > 0 && rng.Float64() < stepwiseBias {
				return neighbors[rng.Intn(len(neighbors))], false
			}
		}
	}
	return scale.Choose(rng), false
}

// ensureInRange resamples an out-of-range pitch from the in-range scale pitches
func ensureInRange(pitch int, scale theory.ScaleSet, low, high int, rng *rand.Rand) (int, bool) {
	if pitch >= low && pitch <= high {
		return pitch, false
	}
	valid := scale.InRange(low, high)
	if len(valid) > 0 {
		return valid[rng.Intn(len(valid))], true
	}
	if pitch < low {
		return low, true
	}
	return high, true
}

// advance moves the cursor by d, snapped to the grid so float error cannot accumulate
func advance(elapsed, d float64) float64 {
	next := theory.SnapToGrid(elapsed + d)
	if next <= elapsed {
		// off-grid tail shorter than half a grid step
		return elapsed + d
	}
	return next
}

// finish applies repetition, records realized stats and scores the melody
func finish(h models.HarmonyContext, seed int64, melody models.Melody, stats models.DebugStats,
	spec *models.StructureSpec, scale theory.ScaleSet, rng *rand.Rand) models.GenerationResult {
	if spec.HasRepeatUnit() {
		applied := structure.ApplyRepetition(melody, spec, scale, rng)
		melody = applied.Melody
		stats.RepeatCount = applied.RepeatCount
		stats.RepetitionApplied = applied.Applied
		stats.MotifVariations = applied.Variations
		stats.ScaleCorrections += applied.ScaleCorrections
	}
	stats.TotalBeats = melody.TotalBeats()
	stats.ActualDurationDistribution = eval.DurationDistribution(melody.Durations)

	result := eval.Evaluate(melody.Pitches, melody.Durations, spec)
	return models.GenerationResult{
		Melody:  melody,
		Score:   result.Score,
		Metrics: result.Metrics,
		Stats:   stats,
		Seed:    seed,
	}
}
