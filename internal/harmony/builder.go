package harmony

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

// Default tempo bounds
const (
	DefaultMinBPM = 80
	DefaultMaxBPM = 140
)

// ErrInvalidOptions is returned for option bags no harmony can satisfy
var ErrInvalidOptions = errors.New("invalid harmony options")

// Scale is a named interval pattern
type Scale struct {
	Name      string `json:"name"`
	Intervals []int  `json:"intervals"`
}

// scaleLibrary is ordered so seeded selection is stable
var scaleLibrary = []Scale{
	{Name: "ionian", Intervals: []int{0, 2, 4, 5, 7, 9, 11}},
	{Name: "dorian", Intervals: []int{0, 2, 3, 5, 7, 9, 10}},
	{Name: "phrygian", Intervals: []int{0, 1, 3, 5, 7, 8, 10}},
	{Name: "lydian", Intervals: []int{0, 2, 4, 6, 7, 9, 11}},
	{Name: "mixolydian", Intervals: []int{0, 2, 4, 5, 7, 9, 10}},
	{Name: "aeolian", Intervals: []int{0, 2, 3, 5, 7, 8, 10}},
	{Name: "harmonic_minor", Intervals: []int{0, 2, 3, 5, 7, 8, 11}},
	{Name: "melodic_minor", Intervals: []int{0, 2, 3, 5, 7, 9, 11}},
	{Name: "pentatonic_major", Intervals: []int{0, 2, 4, 7, 9}},
	{Name: "pentatonic_minor", Intervals: []int{0, 3, 5, 7, 10}},
}

var (
	romanDegrees  = []string{"I", "ii", "iii", "IV", "V", "vi", "vii°"}
	meters        = []models.Meter{{Numerator: 3, Denominator: 4}, {Numerator: 4, Denominator: 4}, {Numerator: 5, Denominator: 4}, {Numerator: 6, Denominator: 8}, {Numerator: 7, Denominator: 8}}
	subdivisions  = []float64{0.0625, 0.125, 0.25, 0.5}
	measureCounts = []int{4, 8, 12, 16}
)

const (
	minProgression = 4
	maxProgression = 8
	minAnchor      = 3
	maxAnchor      = 5
	minSpan        = 14
	maxSpan        = 24
)

// Options tune harmony generation. Zero tempo bounds take the defaults.
type Options struct {
	MinBPM int `json:"min_bpm,omitempty"`
	MaxBPM int `json:"max_bpm,omitempty"`
	// Bars forces 4/4 and the measure count when positive
	Bars int `json:"bars,omitempty"`
	// CommonTime forces 4/4 without touching the measure count
	CommonTime bool `json:"common_time,omitempty"`
}

// WithDefaults fills zero tempo bounds
func (o Options) WithDefaults() Options {
	if o.MinBPM == 0 {
		o.MinBPM = DefaultMinBPM
	}
	if o.MaxBPM == 0 {
		o.MaxBPM = DefaultMaxBPM
	}
	return o
}

// Validate rejects malformed options. Call after WithDefaults.
func (o Options) Validate() error {
	if o.MinBPM <= 0 {
		return fmt.Errorf("%w: min_bpm must be positive, got %d", ErrInvalidOptions, o.MinBPM)
	}
	if o.MinBPM >= o.MaxBPM {
		return fmt.Errorf("%w: min_bpm (%d) must be below max_bpm (%d)", ErrInvalidOptions, o.MinBPM, o.MaxBPM)
	}
	if o.Bars < 0 {
		return fmt.Errorf("%w: bars must not be negative, got %d", ErrInvalidOptions, o.Bars)
	}
	return nil
}

// Build derives a complete harmonic framework from seed.
// Every value is drawn in a fixed order even when an option overrides it,
// so overriding bars never changes the key, tempo or range of a seed.
func Build(seed int64, opts Options) (models.HarmonyContext, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return models.HarmonyContext{}, err
	}

	rng := rand.New(rand.NewSource(seed))

	pc := rng.Intn(12)
	preferFlat := rng.Intn(2) == 1
	tonic := theory.SpellPitchClass(pc, preferFlat)

	scale := scaleLibrary[rng.Intn(len(scaleLibrary))]

	progression := make([]string, minProgression+rng.Intn(maxProgression-minProgression+1))
	for i := range progression {
		progression[i] = romanDegrees[rng.Intn(len(romanDegrees))]
	}

	tempo := opts.MinBPM + rng.Intn(opts.MaxBPM-opts.MinBPM+1)
	meter := meters[rng.Intn(len(meters))]

	anchor := minAnchor + rng.Intn(maxAnchor-minAnchor+1)
	span := minSpan + rng.Intn(maxSpan-minSpan+1)
	low := (anchor + 1) * 12

	subdivision := subdivisions[rng.Intn(len(subdivisions))]
	measures := measureCounts[rng.Intn(len(measureCounts))]

	if opts.Bars > 0 || opts.CommonTime {
		meter = models.CommonTime
	}
	if opts.Bars > 0 {
		measures = opts.Bars
	}

	return models.HarmonyContext{
		Tonic:           tonic,
		ScaleName:       scale.Name,
		ScaleIntervals:  append([]int(nil), scale.Intervals...),
		ChordSequence:   progression,
		Tempo:           tempo,
		Meter:           meter,
		LowestMIDI:      low,
		HighestMIDI:     low + span,
		SubdivisionUnit: subdivision,
		TotalMeasures:   measures,
	}, nil
}

// Scales returns the scale library in selection order
func Scales() []Scale {
	out := make([]Scale, len(scaleLibrary))
	for i, s := range scaleLibrary {
		out[i] = Scale{Name: s.Name, Intervals: append([]int(nil), s.Intervals...)}
	}
	return out
}
