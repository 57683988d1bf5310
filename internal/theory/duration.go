package theory

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// GridResolution is the finest position grid in beats (a 32nd note)
	GridResolution = 0.125
	// DurationEpsilon absorbs float error when comparing beat values
	DurationEpsilon = 0.001
)

// Discrete note values in beats, whole down to 32nd
const (
	Whole        = 4.0
	Half         = 2.0
	Quarter      = 1.0
	Eighth       = 0.5
	Sixteenth    = 0.25
	ThirtySecond = 0.125
)

var durationValues = []float64{Whole, Half, Quarter, Eighth, Sixteenth, ThirtySecond}

// DurationValues returns the duration alphabet, longest first
func DurationValues() []float64 {
	return append([]float64(nil), durationValues...)
}

// SnapToGrid rounds a beat position to the nearest 32nd-note grid point
func SnapToGrid(position float64) float64 {
	return SnapToResolution(position, GridResolution)
}

// SnapToResolution rounds a beat position to the nearest multiple of resolution
func SnapToResolution(position, resolution float64) float64 {
	return math.Round(position/resolution) * resolution
}

// ChooseDuration picks uniformly among the allowed values that fit in remaining.
// When nothing fits, remaining itself is snapped to the grid; this is the only
// source of non-alphabet durations and only happens at the tail of a sequence.
func ChooseDuration(remaining float64, allowed []float64, rng *rand.Rand) float64 {
	valid := make([]float64, 0, len(allowed))
	for _, d := range allowed {
		if d <= remaining+DurationEpsilon {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		snapped := SnapToGrid(remaining)
		if snapped <= 0 || snapped > remaining+DurationEpsilon {
			return remaining
		}
		return snapped
	}
	return valid[rng.Intn(len(valid))]
}

// LargestFitting returns the longest alphabet value not exceeding remaining, or 0
func LargestFitting(remaining float64) float64 {
	for _, d := range durationValues {
		if d <= remaining+DurationEpsilon {
			return d
		}
	}
	return 0
}

// SplitDuration breaks a span into alphabet values, longest first.
// Anything below the smallest value is dropped.
func SplitDuration(span float64) []float64 {
	var parts []float64
	for span > DurationEpsilon {
		d := LargestFitting(span)
		if d == 0 {
			break
		}
		parts = append(parts, d)
		span -= d
	}
	return parts
}

// IsAllowedDuration reports whether d matches the alphabet or one of extra within epsilon
func IsAllowedDuration(d float64, extra ...float64) bool {
	for _, v := range durationValues {
		if math.Abs(d-v) < DurationEpsilon {
			return true
		}
	}
	for _, v := range extra {
		if math.Abs(d-v) < DurationEpsilon {
			return true
		}
	}
	return false
}

// DurationKey formats a duration for histograms
func DurationKey(d float64) string {
	return fmt.Sprintf("%.3f", d)
}
