package generator

import (
	"errors"
	"fmt"
)

// Generation defaults
const (
	DefaultRestProbability = 0.15
	DefaultCandidateCount  = 10
	DefaultScoreThreshold  = 0.3
	DefaultNgramOrder      = 2
	DefaultOctaveUpChance  = 0.03

	MaxCandidateCount = 100
	MaxNgramOrder     = 8
)

// ErrInvalidConfig is returned when a generation config is out of range
var ErrInvalidConfig = errors.New("invalid generation config")

// Config holds the tunable parameters shared by all strategies
type Config struct {
	RestProbability float64 `json:"rest_probability"`
	CandidateCount  int     `json:"candidate_count"`
	ScoreThreshold  float64 `json:"score_threshold"`
	NgramOrder      int     `json:"ngram_order"`
	OctaveUpChance  float64 `json:"octave_up_chance"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		RestProbability: DefaultRestProbability,
		CandidateCount:  DefaultCandidateCount,
		ScoreThreshold:  DefaultScoreThreshold,
		NgramOrder:      DefaultNgramOrder,
		OctaveUpChance:  DefaultOctaveUpChance,
	}
}

// Validate rejects out-of-range values instead of clamping them
func (c Config) Validate() error {
	if c.RestProbability < 0 || c.RestProbability > 1 {
		return fmt.Errorf("%w: rest_probability must be within [0,1], got %v", ErrInvalidConfig, c.RestProbability)
	}
	if c.CandidateCount < 1 || c.CandidateCount > MaxCandidateCount {
		return fmt.Errorf("%w: candidate_count must be within [1,%d], got %d", ErrInvalidConfig, MaxCandidateCount, c.CandidateCount)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score_threshold must be within [0,1], got %v", ErrInvalidConfig, c.ScoreThreshold)
	}
	if c.NgramOrder < 1 || c.NgramOrder > MaxNgramOrder {
		return fmt.Errorf("%w: ngram_order must be within [1,%d], got %d", ErrInvalidConfig, MaxNgramOrder, c.NgramOrder)
	}
	if c.OctaveUpChance < 0 || c.OctaveUpChance > 1 {
		return fmt.Errorf("%w: octave_up_chance must be within [0,1], got %v", ErrInvalidConfig, c.OctaveUpChance)
	}
	return nil
}

// Overrides carries optional per-request changes to a base Config
type Overrides struct {
	RestProbability *float64 `json:"rest_probability,omitempty"`
	CandidateCount  *int     `json:"candidate_count,omitempty"`
	ScoreThreshold  *float64 `json:"score_threshold,omitempty"`
	NgramOrder      *int     `json:"ngram_order,omitempty"`
	OctaveUpChance  *float64 `json:"octave_up_chance,omitempty"`
}

// Apply returns base with every set override replacing its field
func (o *Overrides) Apply(base Config) Config {
	if o == nil {
		return base
	}
	if o.RestProbability != nil {
		base.RestProbability = *o.RestProbability
	}
	if o.CandidateCount != nil {
		base.CandidateCount = *o.CandidateCount
	}
	if o.ScoreThreshold != nil {
		base.ScoreThreshold = *o.ScoreThreshold
	}
	if o.NgramOrder != nil {
		base.NgramOrder = *o.NgramOrder
	}
	if o.OctaveUpChance != nil {
		base.OctaveUpChance = *o.OctaveUpChance
	}
	return base
}
