package eval

import (
	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// Weights assigns a relative importance to each metric. Only metrics that were
// actually computed take part, and their weights are renormalized to sum to 1.
type Weights map[string]float64

// DefaultWeights returns the standard weight table
func DefaultWeights() Weights {
	return Weights{
		models.MetricComplexity:      0.15,
		models.MetricContour:         0.20,
		models.MetricSmoothness:      0.25,
		models.MetricVariety:         0.20,
		models.MetricRhythm:          0.10,
		models.MetricCoherence:       0.10,
		models.MetricSelfSimilarity:  0.15,
		models.MetricRhythmAlignment: 0.15,
	}
}

// metricOrder fixes summation order so scores are bit-for-bit reproducible
var metricOrder = []string{
	models.MetricComplexity,
	models.MetricContour,
	models.MetricSmoothness,
	models.MetricVariety,
	models.MetricRhythm,
	models.MetricCoherence,
	models.MetricSelfSimilarity,
	models.MetricRhythmAlignment,
}

// Evaluate scores a melody with the default weights. pitches may contain rests;
// base metrics look only at sounding notes.
func Evaluate(pitches []int, durations []float64, structure *models.StructureSpec) models.EvaluationResult {
	return EvaluateWeighted(pitches, durations, structure, DefaultWeights())
}

// EvaluateWeighted scores a melody with a custom weight table
func EvaluateWeighted(pitches []int, durations []float64, structure *models.StructureSpec, weights Weights) models.EvaluationResult {
	sounding := models.SoundingPitches(pitches)

	metrics := map[string]float64{
		models.MetricComplexity: IntervalComplexity(sounding),
		models.MetricContour:    ContourBalance(sounding),
		models.MetricSmoothness: LeapSmoothness(sounding),
		models.MetricVariety:    PitchVariety(sounding),
		models.MetricRhythm:     RhythmicEntropy(durations),
		models.MetricCoherence:  PhraseCoherence(sounding),
	}
	if structure.HasRepeatUnit() {
		metrics[models.MetricSelfSimilarity] = SelfSimilarity(pitches, durations, *structure.RepeatUnitBeats)
	}
	if structure.HasRhythmProfile() {
		metrics[models.MetricRhythmAlignment] = RhythmAlignment(durations, structure.RhythmProfile)
	}

	return models.EvaluationResult{Metrics: metrics, Score: Aggregate(metrics, weights)}
}

// Aggregate combines metric values into a weighted score over the metrics present
func Aggregate(metrics map[string]float64, weights Weights) float64 {
	totalWeight := 0.0
	for _, name := range metricOrder {
		if _, ok := metrics[name]; ok {
			totalWeight += weights[name]
		}
	}
	if totalWeight <= 0 {
		return 0
	}
	score := 0.0
	for _, name := range metricOrder {
		if value, ok := metrics[name]; ok {
			score += value * weights[name] / totalWeight
		}
	}
	return score
}
