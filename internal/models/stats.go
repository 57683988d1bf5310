package models

// DebugStats are diagnostic counters collected during one generation call.
// They are never used for correctness.
type DebugStats struct {
	DurationHistogram          map[string]int     `json:"duration_distribution"`
	ScaleCorrections           int                `json:"scale_corrections"`
	OctaveJumps                int                `json:"octave_jumps"`
	TotalBeats                 float64            `json:"total_beats"`
	RepeatCount                int                `json:"repeat_count"`
	RepetitionApplied          bool               `json:"repetition_applied"`
	MotifVariations            int                `json:"motif_variations"`
	ActualDurationDistribution map[string]float64 `json:"actual_duration_distribution"`
}

// NewDebugStats returns stats with initialized maps
func NewDebugStats() DebugStats {
	return DebugStats{
		DurationHistogram:          make(map[string]int),
		ActualDurationDistribution: make(map[string]float64),
	}
}

// Merge adds the counters and histogram of other into s.
// TotalBeats, the repetition fields and the realized distribution are left to the caller.
func (s *DebugStats) Merge(other DebugStats) {
	if s.DurationHistogram == nil {
		s.DurationHistogram = make(map[string]int)
	}
	for key, count := range other.DurationHistogram {
		s.DurationHistogram[key] += count
	}
	s.ScaleCorrections += other.ScaleCorrections
	s.OctaveJumps += other.OctaveJumps
}
