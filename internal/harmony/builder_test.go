package harmony

import (
	"testing"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(42, Options{})
	require.NoError(t, err)
	b, err := Build(42, Options{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildInvariants(t *testing.T) {
	validMeters := map[models.Meter]bool{}
	for _, m := range meters {
		validMeters[m] = true
	}

	for seed := int64(0); seed < 300; seed++ {
		h, err := Build(seed, Options{MinBPM: 90, MaxBPM: 120})
		require.NoError(t, err)

		assert.Less(t, h.LowestMIDI, h.HighestMIDI)
		span := h.HighestMIDI - h.LowestMIDI
		assert.GreaterOrEqual(t, span, minSpan)
		assert.LessOrEqual(t, span, maxSpan)
		assert.Equal(t, 0, h.LowestMIDI%12)

		assert.GreaterOrEqual(t, h.Tempo, 90)
		assert.LessOrEqual(t, h.Tempo, 120)

		assert.GreaterOrEqual(t, len(h.ChordSequence), minProgression)
		assert.LessOrEqual(t, len(h.ChordSequence), maxProgression)
		for _, degree := range h.ChordSequence {
			assert.Contains(t, romanDegrees, degree)
		}

		assert.GreaterOrEqual(t, len(h.ScaleIntervals), 5)
		assert.LessOrEqual(t, len(h.ScaleIntervals), 7)
		assert.True(t, validMeters[h.Meter], "unexpected meter %s", h.Meter)
		assert.Contains(t, measureCounts, h.TotalMeasures)
		assert.Contains(t, subdivisions, h.SubdivisionUnit)

		_, err = theory.PitchClass(h.Tonic)
		assert.NoError(t, err)
	}
}

func TestBuildBarsOverride(t *testing.T) {
	free, err := Build(7, Options{})
	require.NoError(t, err)
	forced, err := Build(7, Options{Bars: 2})
	require.NoError(t, err)

	assert.Equal(t, models.CommonTime, forced.Meter)
	assert.Equal(t, 2, forced.TotalMeasures)
	assert.Equal(t, 8.0, forced.TotalBeats())

	// the override must not shift any other draw
	assert.Equal(t, free.Tonic, forced.Tonic)
	assert.Equal(t, free.ScaleName, forced.ScaleName)
	assert.Equal(t, free.Tempo, forced.Tempo)
	assert.Equal(t, free.LowestMIDI, forced.LowestMIDI)
	assert.Equal(t, free.HighestMIDI, forced.HighestMIDI)
}

func TestBuildCommonTime(t *testing.T) {
	free, err := Build(11, Options{})
	require.NoError(t, err)
	h, err := Build(11, Options{CommonTime: true})
	require.NoError(t, err)
	assert.Equal(t, models.CommonTime, h.Meter)
	assert.Equal(t, free.TotalMeasures, h.TotalMeasures)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{}, wantErr: false},
		{name: "equal bounds", opts: Options{MinBPM: 120, MaxBPM: 120}, wantErr: true},
		{name: "inverted bounds", opts: Options{MinBPM: 150, MaxBPM: 100}, wantErr: true},
		{name: "negative min", opts: Options{MinBPM: -5, MaxBPM: 100}, wantErr: true},
		{name: "negative bars", opts: Options{Bars: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(1, tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptions)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScalesReturnsCopy(t *testing.T) {
	scales := Scales()
	require.Len(t, scales, 10)
	scales[0].Intervals[0] = 99
	assert.Equal(t, 0, Scales()[0].Intervals[0])
}
