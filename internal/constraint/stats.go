package constraint

import (
	"math"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// PitchStats summarizes the sounding notes of a melody. Pointer fields are nil
// when there are no sounding notes.
type PitchStats struct {
	Mean          *float64 `json:"mean"`
	Min           *int     `json:"min"`
	Max           *int     `json:"max"`
	Range         int      `json:"range"`
	Std           *float64 `json:"std"`
	SoundingCount int      `json:"sounding_count"`
	NoteCount     int      `json:"note_count"`
}

// MeanPitch returns the mean of the sounding pitches; ok is false for an all-rest melody
func MeanPitch(pitches []int) (mean float64, ok bool) {
	sounding := models.SoundingPitches(pitches)
	if len(sounding) == 0 {
		return 0, false
	}
	sum := 0
	for _, p := range sounding {
		sum += p
	}
	return float64(sum) / float64(len(sounding)), true
}

// CheckPitchConstraint reports whether the mean pitch lies in [target-tolerance, target+tolerance]
func CheckPitchConstraint(pitches []int, target, tolerance float64) bool {
	mean, ok := MeanPitch(pitches)
	if !ok {
		return false
	}
	return mean >= target-tolerance && mean <= target+tolerance
}

// ComputePitchStats returns descriptive statistics over the sounding notes
func ComputePitchStats(pitches []int) PitchStats {
	sounding := models.SoundingPitches(pitches)
	stats := PitchStats{NoteCount: len(pitches), SoundingCount: len(sounding)}
	if len(sounding) == 0 {
		return stats
	}

	mean, _ := MeanPitch(sounding)
	lo, hi := sounding[0], sounding[0]
	variance := 0.0
	for _, p := range sounding {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
		variance += (float64(p) - mean) * (float64(p) - mean)
	}
	std := math.Sqrt(variance / float64(len(sounding)))

	stats.Mean = &mean
	stats.Min = &lo
	stats.Max = &hi
	stats.Range = hi - lo
	stats.Std = &std
	return stats
}

// MeanInterval is the mean absolute distance between adjacent pitches
func MeanInterval(pitches []int) float64 {
	if len(pitches) < 2 {
		return 0
	}
	total := 0
	for i := 1; i < len(pitches); i++ {
		d := pitches[i] - pitches[i-1]
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(len(pitches)-1)
}
