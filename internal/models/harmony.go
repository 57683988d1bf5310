package models

import "fmt"

// Meter is a time signature
type Meter struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// CommonTime is 4/4
var CommonTime = Meter{Numerator: 4, Denominator: 4}

// BeatsPerBar returns the bar length in quarter-note beats
func (m Meter) BeatsPerBar() float64 {
	return float64(m.Numerator) * (4.0 / float64(m.Denominator))
}

func (m Meter) String() string {
	return fmt.Sprintf("%d/%d", m.Numerator, m.Denominator)
}

// HarmonyContext is the harmonic and rhythmic framework for one generation run.
// It is created once from a seed and never mutated afterwards.
type HarmonyContext struct {
	Tonic           string   `json:"tonic"`
	ScaleName       string   `json:"scale_name"`
	ScaleIntervals  []int    `json:"scale_intervals"`
	ChordSequence   []string `json:"chord_sequence"` // decorative, not enforced on pitch choice
	Tempo           int      `json:"tempo_bpm"`
	Meter           Meter    `json:"meter"`
	LowestMIDI      int      `json:"lowest_midi"`
	HighestMIDI     int      `json:"highest_midi"`
	SubdivisionUnit float64  `json:"subdivision_unit"`
	TotalMeasures   int      `json:"total_measures"`
}

// BeatsPerBar returns the bar length in quarter-note beats
func (h HarmonyContext) BeatsPerBar() float64 {
	return h.Meter.BeatsPerBar()
}

// TotalBeats returns the number of beats a melody must fill
func (h HarmonyContext) TotalBeats() float64 {
	return h.BeatsPerBar() * float64(h.TotalMeasures)
}
