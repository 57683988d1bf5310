package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidStructure is returned when a StructureSpec cannot be honoured
var ErrInvalidStructure = errors.New("invalid structure spec")

const (
	structureGrid    = 0.125
	structureEpsilon = 1e-3
)

// RhythmWeight is one entry of a rhythm profile
type RhythmWeight struct {
	Duration float64 `json:"duration"`
	Weight   float64 `json:"weight"`
}

// RhythmProfile is a target distribution over duration values.
// Weights need not sum to 1; they are renormalized. Entry order is kept so
// weighted draws are reproducible.
type RhythmProfile []RhythmWeight

// Durations returns the profile's duration values in entry order
func (p RhythmProfile) Durations() []float64 {
	durations := make([]float64, len(p))
	for i, entry := range p {
		durations[i] = entry.Duration
	}
	return durations
}

// Normalized returns the profile proportions keyed by duration, summing to 1
func (p RhythmProfile) Normalized() map[float64]float64 {
	total := 0.0
	for _, entry := range p {
		total += entry.Weight
	}
	out := make(map[float64]float64, len(p))
	if total <= 0 {
		return out
	}
	for _, entry := range p {
		out[entry.Duration] += entry.Weight / total
	}
	return out
}

// Choose draws a duration with probability proportional to its weight
func (p RhythmProfile) Choose(rng *rand.Rand) float64 {
	total := 0.0
	for _, entry := range p {
		total += entry.Weight
	}
	r := rng.Float64() * total
	for _, entry := range p {
		if r < entry.Weight {
			return entry.Duration
		}
		r -= entry.Weight
	}
	// float rounding: return the last weighted entry
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Weight > 0 {
			return p[i].Duration
		}
	}
	return p[len(p)-1].Duration
}

// StructureSpec carries optional structural constraints for one generation call
type StructureSpec struct {
	RepeatUnitBeats      *float64      `json:"repeat_unit_beats,omitempty"`
	RhythmProfile        RhythmProfile `json:"rhythm_profile,omitempty"`
	AllowMotifVariation  bool          `json:"allow_motif_variation"`
	VariationProbability float64       `json:"variation_probability"`
}

// HasRepeatUnit reports whether motif repetition is requested
func (s *StructureSpec) HasRepeatUnit() bool {
	return s != nil && s.RepeatUnitBeats != nil
}

// HasRhythmProfile reports whether duration selection is profile-weighted
func (s *StructureSpec) HasRhythmProfile() bool {
	return s != nil && len(s.RhythmProfile) > 0
}

// Validate rejects specs no generation fallback can make sensible.
// A present-but-empty rhythm profile is rejected; use nil for "no profile".
func (s *StructureSpec) Validate() error {
	if s == nil {
		return nil
	}
	if s.RepeatUnitBeats != nil {
		unit := *s.RepeatUnitBeats
		if unit <= 0 || !onGrid(unit) {
			return fmt.Errorf("%w: repeat_unit_beats must be a positive multiple of %.3f, got %v",
				ErrInvalidStructure, structureGrid, unit)
		}
	}
	if s.RhythmProfile != nil {
		if len(s.RhythmProfile) == 0 {
			return fmt.Errorf("%w: rhythm_profile is empty", ErrInvalidStructure)
		}
		seen := make(map[float64]bool, len(s.RhythmProfile))
		total := 0.0
		for _, entry := range s.RhythmProfile {
			if entry.Duration <= 0 || !onGrid(entry.Duration) {
				return fmt.Errorf("%w: rhythm_profile duration must be a positive multiple of %.3f, got %v",
					ErrInvalidStructure, structureGrid, entry.Duration)
			}
			if entry.Weight < 0 {
				return fmt.Errorf("%w: rhythm_profile weight for %v is negative",
					ErrInvalidStructure, entry.Duration)
			}
			if seen[entry.Duration] {
				return fmt.Errorf("%w: duplicate rhythm_profile duration %v", ErrInvalidStructure, entry.Duration)
			}
			seen[entry.Duration] = true
			total += entry.Weight
		}
		if total <= 0 {
			return fmt.Errorf("%w: rhythm_profile weights sum to zero", ErrInvalidStructure)
		}
	}
	if s.VariationProbability < 0 || s.VariationProbability > 1 {
		return fmt.Errorf("%w: variation_probability must be within [0,1], got %v",
			ErrInvalidStructure, s.VariationProbability)
	}
	return nil
}

func onGrid(value float64) bool {
	steps := value / structureGrid
	return math.Abs(steps-math.Round(steps)) < structureEpsilon
}

// NewStructuredSpec builds a spec with repetition and an optional rhythm profile
func NewStructuredSpec(repeatUnitBeats float64, profile RhythmProfile, allowVariation bool, variationProbability float64) *StructureSpec {
	unit := repeatUnitBeats
	return &StructureSpec{
		RepeatUnitBeats:      &unit,
		RhythmProfile:        profile,
		AllowMotifVariation:  allowVariation,
		VariationProbability: variationProbability,
	}
}
