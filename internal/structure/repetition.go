package structure

import (
	"math"
	"math/rand"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

// Variation is a way of altering a repeated motif's pitches
type Variation int

const (
	Transpose Variation = iota
	Neighbor
	Inversion
)

func (v Variation) String() string {
	switch v {
	case Transpose:
		return "transpose"
	case Neighbor:
		return "neighbor"
	case Inversion:
		return "inversion"
	default:
		return "unknown"
	}
}

var transposeOffsets = []int{-2, -1, 1, 2}

// Result is the outcome of applying a structure spec to a melody
type Result struct {
	Melody           models.Melody
	Applied          bool
	RepeatCount      int
	Variations       int
	ScaleCorrections int
}

// ApplyRepetition tiles the melody's opening motif across its whole length.
//
// The motif is the prefix clipped to exactly one repeat unit. The rebuilt
// melody has the same total length as the input: floor(total/unit) copies of
// the motif followed by a clipped motif prefix for any remainder. Repeats after
// the first may be varied; varied pitches are pulled back into scale.
func ApplyRepetition(melody models.Melody, spec *models.StructureSpec, scale theory.ScaleSet, rng *rand.Rand) Result {
	result := Result{Melody: melody}
	if !spec.HasRepeatUnit() || melody.Len() == 0 {
		return result
	}
	unit := *spec.RepeatUnitBeats
	if unit <= 0 {
		return result
	}

	total := melody.TotalBeats()
	repeats := RepeatCount(melody.Durations, unit)
	result.RepeatCount = repeats
	if repeats < 2 {
		return result
	}

	motif := clip(melody, unit)
	out := models.Melody{
		Pitches:   make([]int, 0, motif.Len()*(repeats+1)),
		Durations: make([]float64, 0, motif.Len()*(repeats+1)),
	}

	for r := 0; r < repeats; r++ {
		pitches := motif.Pitches
		if r > 0 && spec.AllowMotifVariation && rng.Float64() < spec.VariationProbability {
			kind := Variation(rng.Intn(3))
			pitches = Vary(motif.Pitches, kind, rng)
			result.ScaleCorrections += snapToScale(pitches, scale)
			result.Variations++
		}
		out.Pitches = append(out.Pitches, pitches...)
		out.Durations = append(out.Durations, motif.Durations...)
	}

	if remainder := total - float64(repeats)*unit; remainder > theory.DurationEpsilon {
		tail := clip(motif, remainder)
		out.Pitches = append(out.Pitches, tail.Pitches...)
		out.Durations = append(out.Durations, tail.Durations...)
	}

	result.Melody = out
	result.Applied = true
	return result
}

// RepeatCount returns how many whole units fit in the sequence
func RepeatCount(durations []float64, unitBeats float64) int {
	if unitBeats <= 0 || len(durations) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range durations {
		total += d
	}
	return int(math.Floor(total/unitBeats + theory.DurationEpsilon))
}

// Vary returns a varied copy of a motif's pitches. Rests stay rests.
func Vary(pitches []int, kind Variation, rng *rand.Rand) []int {
	varied := append([]int(nil), pitches...)
	switch kind {
	case Transpose:
		offset := transposeOffsets[rng.Intn(len(transposeOffsets))]
		for i, p := range varied {
			if p > models.Rest {
				varied[i] = maxInt(1, p+offset)
			}
		}
	case Neighbor:
		sounding := soundingIndices(varied)
		if len(sounding) == 0 {
			return varied
		}
		idx := sounding[rng.Intn(len(sounding))]
		if rng.Intn(2) == 0 {
			varied[idx]--
		} else {
			varied[idx]++
		}
	case Inversion:
		sounding := soundingIndices(varied)
		if len(sounding) < 2 {
			return varied
		}
		prevOriginal := pitches[sounding[0]]
		prevInverted := prevOriginal
		for _, idx := range sounding[1:] {
			interval := pitches[idx] - prevOriginal
			prevInverted = maxInt(1, prevInverted-interval)
			prevOriginal = pitches[idx]
			varied[idx] = prevInverted
		}
	}
	return varied
}

// clip returns the prefix of m spanning exactly length beats. A note crossing
// the boundary is shortened and split into alphabet values when needed.
func clip(m models.Melody, length float64) models.Melody {
	out := models.Melody{}
	acc := 0.0
	for i, d := range m.Durations {
		if acc >= length-theory.DurationEpsilon {
			break
		}
		remaining := length - acc
		if d <= remaining+theory.DurationEpsilon {
			out.Pitches = append(out.Pitches, m.Pitches[i])
			out.Durations = append(out.Durations, d)
			acc += d
			continue
		}
		for _, part := range splitRemaining(remaining) {
			out.Pitches = append(out.Pitches, m.Pitches[i])
			out.Durations = append(out.Durations, part)
		}
		acc = length
	}
	return out
}

func splitRemaining(remaining float64) []float64 {
	if theory.IsAllowedDuration(remaining) {
		return []float64{remaining}
	}
	parts := theory.SplitDuration(remaining)
	used := 0.0
	for _, p := range parts {
		used += p
	}
	if leftover := remaining - used; leftover > theory.DurationEpsilon {
		parts = append(parts, leftover)
	}
	return parts
}

func snapToScale(pitches []int, scale theory.ScaleSet) int {
	if scale.Len() == 0 {
		return 0
	}
	corrections := 0
	for i, p := range pitches {
		if p > models.Rest && !scale.Contains(p) {
			pitches[i] = scale.Nearest(p)
			corrections++
		}
	}
	return corrections
}

func soundingIndices(pitches []int) []int {
	var idx []int
	for i, p := range pitches {
		if p > models.Rest {
			idx = append(idx, i)
		}
	}
	return idx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
