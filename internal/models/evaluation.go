package models

// Metric names reported by the evaluation suite
const (
	MetricComplexity      = "complexity"
	MetricContour         = "contour"
	MetricSmoothness      = "smoothness"
	MetricVariety         = "variety"
	MetricRhythm          = "rhythm"
	MetricCoherence       = "coherence"
	MetricSelfSimilarity  = "self_similarity"
	MetricRhythmAlignment = "rhythm_alignment"
)

// EvaluationResult maps metric names to [0,1] scores plus their weighted aggregate
type EvaluationResult struct {
	Metrics map[string]float64 `json:"metrics"`
	Score   float64            `json:"score"`
}

// GenerationResult is the output contract shared by every generation strategy
type GenerationResult struct {
	Melody  Melody             `json:"melody"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
	Stats   DebugStats         `json:"stats"`
	Seed    int64              `json:"seed"`

	// Scored strategy only
	ThresholdMet bool `json:"threshold_met"`
	Candidates   int  `json:"candidates,omitempty"`
}
