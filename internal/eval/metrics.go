package eval

import (
	"math"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

const (
	maxIntervalVariety = 12
	maxLeap            = 7
	pitchVarietyNorm   = 7.0
	rhythmVarietyNorm  = 5.0
	phraseLength       = 4
	neutralCoherence   = 0.5
)

// IntervalComplexity is the share of distinct absolute interval sizes,
// normalized by min(12, number of intervals).
func IntervalComplexity(notes []int) float64 {
	if len(notes) < 2 {
		return 0
	}
	seen := make(map[int]bool)
	for i := 1; i < len(notes); i++ {
		seen[absInt(notes[i]-notes[i-1])] = true
	}
	denominator := len(notes) - 1
	if denominator > maxIntervalVariety {
		denominator = maxIntervalVariety
	}
	return math.Min(float64(len(seen))/float64(denominator), 1)
}

// ContourBalance is min(up, down) / (up + down); 0 without directional motion
func ContourBalance(notes []int) float64 {
	up, down := 0, 0
	for i := 1; i < len(notes); i++ {
		switch {
		case notes[i] > notes[i-1]:
			up++
		case notes[i] < notes[i-1]:
			down++
		}
	}
	if up+down == 0 {
		return 0
	}
	return float64(minInt(up, down)) / float64(up+down)
}

// LeapSmoothness penalizes intervals wider than a fifth
func LeapSmoothness(notes []int) float64 {
	if len(notes) < 2 {
		return 1
	}
	violations := 0
	for i := 1; i < len(notes); i++ {
		if absInt(notes[i]-notes[i-1]) > maxLeap {
			violations++
		}
	}
	return 1 - float64(violations)/float64(len(notes)-1)
}

// PitchVariety is the distinct pitch count normalized to seven scale degrees
func PitchVariety(notes []int) float64 {
	if len(notes) == 0 {
		return 0
	}
	seen := make(map[int]bool, len(notes))
	for _, n := range notes {
		seen[n] = true
	}
	return math.Min(float64(len(seen))/pitchVarietyNorm, 1)
}

// RhythmicEntropy is the distinct duration count normalized to five
func RhythmicEntropy(durations []float64) float64 {
	if len(durations) < 2 {
		return 0
	}
	seen := make(map[string]bool, len(durations))
	for _, d := range durations {
		seen[theory.DurationKey(d)] = true
	}
	return math.Min(float64(len(seen))/rhythmVarietyNorm, 1)
}

// PhraseCoherence is the fraction of non-overlapping 4-note phrase pairs that match exactly.
// Short melodies get a neutral 0.5.
func PhraseCoherence(notes []int) float64 {
	if len(notes) < phraseLength*2 {
		return neutralCoherence
	}
	var phrases [][]int
	for start := 0; start+phraseLength <= len(notes); start += phraseLength {
		phrases = append(phrases, notes[start:start+phraseLength])
	}
	matches, comparisons := 0, 0
	for i := range phrases {
		for j := i + 1; j < len(phrases); j++ {
			comparisons++
			if equalInts(phrases[i], phrases[j]) {
				matches++
			}
		}
	}
	if comparisons == 0 {
		return neutralCoherence
	}
	return float64(matches) / float64(comparisons)
}

// SelfSimilarity segments the melody into unit-length windows by note onset and
// averages the positional match ratio of consecutive segments.
func SelfSimilarity(pitches []int, durations []float64, unitBeats float64) float64 {
	if unitBeats <= 0 {
		return 0
	}
	segments := SegmentByUnit(pitches, durations, unitBeats)
	if len(segments) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(segments); i++ {
		total += matchRatio(segments[i-1], segments[i])
	}
	return total / float64(len(segments)-1)
}

// SegmentByUnit groups pitches by the unit window their onset falls in.
// Empty windows (a long note spanning several units) are skipped.
func SegmentByUnit(pitches []int, durations []float64, unitBeats float64) [][]int {
	var segments [][]int
	current := -1
	onset := 0.0
	for i, p := range pitches {
		if i >= len(durations) {
			break
		}
		window := int(math.Floor(onset/unitBeats + theory.DurationEpsilon))
		if window != current {
			segments = append(segments, nil)
			current = window
		}
		segments[len(segments)-1] = append(segments[len(segments)-1], p)
		onset += durations[i]
	}
	return segments
}

// RhythmAlignment compares the realized duration distribution against a profile:
// 1 - total variation distance.
func RhythmAlignment(durations []float64, profile models.RhythmProfile) float64 {
	if len(durations) == 0 || len(profile) == 0 {
		return 0
	}
	actual := DurationDistribution(durations)
	target := make(map[string]float64, len(profile))
	for d, share := range profile.Normalized() {
		target[theory.DurationKey(d)] += share
	}

	diff := 0.0
	for key, share := range actual {
		diff += math.Abs(share - target[key])
	}
	for key, share := range target {
		if _, ok := actual[key]; !ok {
			diff += share
		}
	}
	return math.Max(0, math.Min(1, 1-diff/2))
}

// DurationDistribution returns the share of each duration, keyed by DurationKey
func DurationDistribution(durations []float64) map[string]float64 {
	dist := make(map[string]float64)
	if len(durations) == 0 {
		return dist
	}
	for _, d := range durations {
		dist[theory.DurationKey(d)]++
	}
	for key := range dist {
		dist[key] /= float64(len(durations))
	}
	return dist
}

func matchRatio(a, b []int) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(longest)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
