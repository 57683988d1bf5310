package theory

import (
	"math/rand"
	"testing"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteToMIDI(t *testing.T) {
	tests := []struct {
		name     string
		note     string
		octave   int
		expected int
	}{
		{name: "middle C", note: "C", octave: 4, expected: 60},
		{name: "A440", note: "A", octave: 4, expected: 69},
		{name: "sharp", note: "F#", octave: 3, expected: 54},
		{name: "flat", note: "Bb", octave: 2, expected: 46},
		{name: "Cb is B of the same octave number", note: "Cb", octave: 4, expected: 71},
		{name: "B# wraps to next C", note: "B#", octave: 4, expected: 72},
		{name: "lowercase letter", note: "eb", octave: 4, expected: 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NoteToMIDI(tt.note, tt.octave))
		})
	}
}

func TestPitchClass(t *testing.T) {
	pc, err := PitchClass("Db")
	require.NoError(t, err)
	assert.Equal(t, 1, pc)

	_, err = PitchClass("H")
	assert.Error(t, err)
}

func TestSpellPitchClass(t *testing.T) {
	assert.Equal(t, "C#", SpellPitchClass(1, false))
	assert.Equal(t, "Db", SpellPitchClass(1, true))
	assert.Equal(t, "E", SpellPitchClass(4, true))
	assert.Equal(t, "B", SpellPitchClass(-1, false))
}

func TestPitchName(t *testing.T) {
	assert.Equal(t, "C4", PitchName(60))
	assert.Equal(t, "A#3", PitchName(58))
	assert.Equal(t, "rest", PitchName(0))
}

func TestBuildScaleSet(t *testing.T) {
	major := []int{0, 2, 4, 5, 7, 9, 11}

	set := BuildScaleSet("C", major, 60, 72)
	assert.Equal(t, []int{60, 62, 64, 65, 67, 69, 71, 72}, set.Pitches())

	t.Run("filters to range", func(t *testing.T) {
		set := BuildScaleSet("D", major, 61, 66)
		assert.Equal(t, []int{61, 62, 64, 66}, set.Pitches())
	})

	t.Run("covers wide ranges", func(t *testing.T) {
		set := BuildScaleSet("C", major, 24, 108)
		assert.True(t, set.Contains(24))
		assert.True(t, set.Contains(107))
		for _, p := range set.Pitches() {
			assert.Contains(t, major, p%12)
		}
	})

	t.Run("empty for a pathological range", func(t *testing.T) {
		set := BuildScaleSet("C", []int{0, 7}, 61, 62)
		assert.Equal(t, 0, set.Len())
	})
}

func TestResolveScaleFallsBackToChromatic(t *testing.T) {
	h := models.HarmonyContext{Tonic: "C", ScaleIntervals: []int{0, 7}, LowestMIDI: 61, HighestMIDI: 63}
	set := ResolveScale(h)
	assert.Equal(t, []int{61, 62, 63}, set.Pitches())
}

func TestScaleSetLookups(t *testing.T) {
	set := NewScaleSet([]int{67, 60, 64, 60, 72})
	assert.Equal(t, []int{60, 64, 67, 72}, set.Pitches())

	idx, ok := set.Index(67)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = set.Index(61)
	assert.False(t, ok)

	assert.Equal(t, []int{64, 67}, set.InRange(62, 70))

	t.Run("nearest", func(t *testing.T) {
		assert.Equal(t, 64, set.Nearest(65))
		assert.Equal(t, 60, set.Nearest(2))
		assert.Equal(t, 72, set.Nearest(100))
		// 62 is equidistant from 60 and 64
		assert.Equal(t, 60, set.Nearest(62))
		assert.Equal(t, 55, NewScaleSet(nil).Nearest(55))
	})
}

func TestSnapToGrid(t *testing.T) {
	assert.Equal(t, 1.0, SnapToGrid(1.0000001))
	assert.Equal(t, 0.125, SnapToGrid(0.1))
	assert.Equal(t, 2.5, SnapToGrid(2.49))
	assert.Equal(t, 0.5, SnapToResolution(0.4, 0.25))
}

func TestChooseDuration(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	t.Run("only fitting values", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			d := ChooseDuration(1.0, DurationValues(), rng)
			assert.LessOrEqual(t, d, 1.0)
			assert.True(t, IsAllowedDuration(d))
		}
	})

	t.Run("tail snap when nothing fits", func(t *testing.T) {
		assert.Equal(t, 0.0625, ChooseDuration(0.0625, DurationValues(), rng))
		assert.Equal(t, 0.5, ChooseDuration(0.5, []float64{1.0}, rng))
	})

	t.Run("deterministic", func(t *testing.T) {
		a := rand.New(rand.NewSource(99))
		b := rand.New(rand.NewSource(99))
		for i := 0; i < 50; i++ {
			assert.Equal(t, ChooseDuration(4, DurationValues(), a), ChooseDuration(4, DurationValues(), b))
		}
	})
}

func TestSplitDuration(t *testing.T) {
	assert.Equal(t, []float64{2, 1, 0.5}, SplitDuration(3.5))
	assert.Equal(t, []float64{0.25, 0.125}, SplitDuration(0.375))
	assert.Empty(t, SplitDuration(0))
	assert.Equal(t, 0.0, LargestFitting(0.1))
}

func TestIsAllowedDuration(t *testing.T) {
	assert.True(t, IsAllowedDuration(0.5))
	assert.True(t, IsAllowedDuration(0.5004))
	assert.False(t, IsAllowedDuration(0.75))
	assert.True(t, IsAllowedDuration(0.75, 0.75))
	assert.Equal(t, "0.125", DurationKey(0.125))
}
