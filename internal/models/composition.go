package models

import "fmt"

// MaxEvaluateNotes bounds the melodies accepted for scoring
const MaxEvaluateNotes = 4096

// EvaluateRequest wraps a caller-supplied melody for scoring
type EvaluateRequest struct {
	Melody    Melody         `json:"melody"`
	Structure *StructureSpec `json:"structure,omitempty"`
}

// Validate checks the melody and the optional structure
func (r EvaluateRequest) Validate() error {
	if n := r.Melody.Len(); n > MaxEvaluateNotes {
		return fmt.Errorf("%w: %d notes exceeds the limit of %d", ErrInvalidMelody, n, MaxEvaluateNotes)
	}
	if err := r.Melody.Validate(); err != nil {
		return err
	}
	return r.Structure.Validate()
}
