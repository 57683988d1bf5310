package constraint

import (
	"fmt"
)

// Bounds limits the sounding pitches of a fragment. Nil fields are unchecked;
// Mean, when set, is checked like a Target.
type Bounds struct {
	MinPitch *int    `json:"min_pitch,omitempty"`
	MaxPitch *int    `json:"max_pitch,omitempty"`
	Mean     *Target `json:"mean,omitempty"`
}

// IsZero reports whether no bound is set
func (b Bounds) IsZero() bool {
	return b.MinPitch == nil && b.MaxPitch == nil && b.Mean == nil
}

// Validate rejects an inverted range or an invalid mean target
func (b Bounds) Validate() error {
	if b.MinPitch != nil && b.MaxPitch != nil && *b.MinPitch > *b.MaxPitch {
		return fmt.Errorf("%w: min_pitch %d is above max_pitch %d", ErrInvalidTarget, *b.MinPitch, *b.MaxPitch)
	}
	if b.Mean != nil && b.Mean.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative, got %v", ErrInvalidTarget, b.Mean.Tolerance)
	}
	return nil
}

// Check reports whether pitches satisfy every set bound. With no bounds any
// melody passes; otherwise a melody without sounding notes fails.
func (b Bounds) Check(pitches []int) bool {
	if b.IsZero() {
		return true
	}
	stats := ComputePitchStats(pitches)
	if stats.SoundingCount == 0 {
		return false
	}
	if b.MinPitch != nil && *stats.Min < *b.MinPitch {
		return false
	}
	if b.MaxPitch != nil && *stats.Max > *b.MaxPitch {
		return false
	}
	if b.Mean != nil && !CheckPitchConstraint(pitches, b.Mean.MeanPitch, b.Mean.Tolerance) {
		return false
	}
	return true
}
