package constraint

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// Status tags how a generation outcome was reached
type Status string

const (
	// StatusAccepted means the melody met the target, or no target was set
	StatusAccepted Status = "accepted"
	// StatusFallback means attempts ran out and the last melody was kept
	StatusFallback Status = "fallback"
)

// ErrInvalidTarget is returned for pitch targets that cannot be evaluated
var ErrInvalidTarget = errors.New("invalid pitch target")

const (
	// DefaultMaxAttempts bounds the retry loop when a target omits it
	DefaultMaxAttempts = 200
	// MaxAttemptsLimit is the largest attempt budget a caller may ask for
	MaxAttemptsLimit = 1000
)

// Target is a mean-pitch constraint
type Target struct {
	MeanPitch   float64 `json:"target_mean_pitch"`
	Tolerance   float64 `json:"tolerance"`
	MaxAttempts int     `json:"max_attempts"`
}

// Validate rejects a negative tolerance and attempt budgets outside [1, MaxAttemptsLimit]
func (t *Target) Validate() error {
	if t == nil {
		return nil
	}
	if t.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative, got %v", ErrInvalidTarget, t.Tolerance)
	}
	if t.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidTarget, t.MaxAttempts)
	}
	if t.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("%w: max_attempts must not exceed %d, got %d", ErrInvalidTarget, MaxAttemptsLimit, t.MaxAttempts)
	}
	return nil
}

// Outcome is the tagged result of the retry loop
type Outcome struct {
	Status    Status
	Result    models.GenerationResult
	Attempts  int
	MeanPitch *float64
	Reason    string
}

// Accepted reports whether the constraint was met
func (o Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}

// GenerateFunc produces one melody for a seed
type GenerateFunc func(seed int64) models.GenerationResult

// Run calls gen with seeds baseSeed, baseSeed+1, ... until the melody's mean
// pitch meets target or MaxAttempts is exhausted. Without a target the first
// melody is accepted. A melody with no sounding notes never meets a target.
func Run(baseSeed int64, target *Target, gen GenerateFunc) Outcome {
	outcome, _ := RunContext(context.Background(), baseSeed, target, gen)
	return outcome
}

// RunContext is Run that checks ctx before every attempt and gives up with
// ctx's error once it is done.
func RunContext(ctx context.Context, baseSeed int64, target *Target, gen GenerateFunc) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if target == nil {
		result := gen(baseSeed)
		return Outcome{
			Status:    StatusAccepted,
			Result:    result,
			Attempts:  1,
			MeanPitch: meanPtr(result.Melody.Pitches),
		}, nil
	}

	attempts := target.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last models.GenerationResult
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("stopped after %d attempts: %w", i, err)
		}
		last = gen(baseSeed + int64(i))
		if CheckPitchConstraint(last.Melody.Pitches, target.MeanPitch, target.Tolerance) {
			return Outcome{
				Status:    StatusAccepted,
				Result:    last,
				Attempts:  i + 1,
				MeanPitch: meanPtr(last.Melody.Pitches),
			}, nil
		}
	}

	mean := meanPtr(last.Melody.Pitches)
	reason := fmt.Sprintf("no melody within %.2f of mean pitch %.2f after %d attempts",
		target.Tolerance, target.MeanPitch, attempts)
	if mean != nil {
		reason += fmt.Sprintf(" (last mean %.2f)", *mean)
	} else {
		reason += " (last melody had no sounding notes)"
	}
	return Outcome{
		Status:    StatusFallback,
		Result:    last,
		Attempts:  attempts,
		MeanPitch: mean,
		Reason:    reason,
	}, nil
}

func meanPtr(pitches []int) *float64 {
	mean, ok := MeanPitch(pitches)
	if !ok {
		return nil
	}
	return &mean
}
