package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHarmony = models.HarmonyContext{
	Tonic:          "C",
	ScaleName:      "ionian",
	ScaleIntervals: []int{0, 2, 4, 5, 7, 9, 11},
	Tempo:          96,
	Meter:          models.Meter{Numerator: 3, Denominator: 4},
	LowestMIDI:     48,
	HighestMIDI:    72,
	TotalMeasures:  2,
}

func TestBeatsToTicks(t *testing.T) {
	assert.Equal(t, uint32(480), BeatsToTicks(1))
	assert.Equal(t, uint32(60), BeatsToTicks(0.125))
	assert.Equal(t, uint32(0), BeatsToTicks(-1))
}

func TestEncodeRoundTrip(t *testing.T) {
	melody := models.Melody{
		Pitches:   []int{60, 0, 64, 67},
		Durations: []float64{1, 0.5, 0.5, 4},
	}

	data, err := Encode(melody, testHarmony)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("MThd")))

	parsed, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, uint32(TicksPerQuarter), parsed.TicksPerQuarter)
	assert.InDelta(t, 96.0, parsed.Tempo, 0.01)
	assert.Equal(t, uint8(3), parsed.Numerator)
	assert.Equal(t, uint8(4), parsed.Denominator)

	require.Len(t, parsed.Notes, 3)
	assert.Equal(t, Note{Pitch: 60, Velocity: DefaultVelocity, StartTick: 0, EndTick: 480}, parsed.Notes[0])
	// the rest shifts the second note to beat 1.5
	assert.Equal(t, uint32(720), parsed.Notes[1].StartTick)
	assert.Equal(t, uint32(960), parsed.Notes[1].EndTick)
	assert.Equal(t, uint32(960), parsed.Notes[2].StartTick)
	assert.Equal(t, uint32(2880), parsed.Notes[2].EndTick)

	assert.Equal(t, []int{60, 64, 67}, parsed.MelodyPitches())
}

func TestEncodeRejectsMismatchedLengths(t *testing.T) {
	_, err := Encode(models.Melody{Pitches: []int{60}, Durations: nil}, testHarmony)
	assert.Error(t, err)
}

func TestMelodyPitchesKeepsHighest(t *testing.T) {
	p := &Parsed{Notes: []Note{
		{Pitch: 60, StartTick: 0},
		{Pitch: 67, StartTick: 0},
		{Pitch: 62, StartTick: 480},
	}}
	assert.Equal(t, []int{67, 62}, p.MelodyPitches())
}

func TestConcat(t *testing.T) {
	first := Fragment{
		Melody:  models.Melody{Pitches: []int{60, 62, 0}, Durations: []float64{1, 1, 2}},
		Harmony: testHarmony,
	}
	secondHarmony := testHarmony
	secondHarmony.Tempo = 150
	second := Fragment{
		Melody:  models.Melody{Pitches: []int{0, 65}, Durations: []float64{1, 1}},
		Harmony: secondHarmony,
	}

	data, placements, err := EncodeFragments([]Fragment{first, second}, 2)
	require.NoError(t, err)

	assert.Equal(t, []Placement{
		{StartBeat: 0, EndBeat: 2},
		{StartBeat: 4, EndBeat: 6},
	}, placements)

	parsed, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 96.0, parsed.Tempo, 0.01)
	require.Len(t, parsed.Notes, 3)
	assert.Equal(t, uint32(0), parsed.Notes[0].StartTick)
	assert.Equal(t, uint32(480), parsed.Notes[1].StartTick)
	// second fragment starts at beat 4, its note after a one-beat rest
	assert.Equal(t, uint32(5*480), parsed.Notes[2].StartTick)
	assert.Equal(t, 65, parsed.Notes[2].Pitch)
}

func TestConcatErrors(t *testing.T) {
	_, _, err := Concat(nil, 1)
	assert.Error(t, err)

	_, _, err = Concat([]Fragment{{Harmony: testHarmony}}, -1)
	assert.Error(t, err)
}

func TestSoundingLength(t *testing.T) {
	assert.Equal(t, 0.0, SoundingLength(models.Melody{Pitches: []int{0}, Durations: []float64{4}}))
	assert.Equal(t, 3.0, SoundingLength(models.Melody{Pitches: []int{0, 60, 0}, Durations: []float64{1, 2, 1}}))
}

func TestMetadata(t *testing.T) {
	outcome := constraint.Outcome{
		Status:   constraint.StatusFallback,
		Attempts: 3,
		Reason:   "no match",
		Result: models.GenerationResult{
			Melody: models.Melody{Pitches: []int{60, 0, 64}, Durations: []float64{1, 1, 2}},
			Score:  0.5,
			Seed:   7,
			Stats:  models.NewDebugStats(),
		},
	}

	meta := NewMetadata(generator.MethodScored, testHarmony, generator.DefaultConfig(), nil, nil, outcome)
	assert.Equal(t, int64(7), meta.Seed)
	assert.Equal(t, 3, meta.NoteCount)
	assert.Equal(t, 4.0, meta.TotalBeats)
	assert.Equal(t, 4.0, meta.MeanInterval)
	require.NotNil(t, meta.PitchStats.Mean)
	assert.Equal(t, 62.0, *meta.PitchStats.Mean)

	var buf bytes.Buffer
	require.NoError(t, meta.WriteJSON(&buf))
	out := buf.String()
	assert.True(t, strings.Contains(out, `"status": "fallback"`))
	assert.True(t, strings.Contains(out, `"tempo_bpm": 96`))
	assert.False(t, strings.Contains(out, `"structure"`))

	assert.Equal(t, "melody_scored_seed7", FileBase(generator.MethodScored, 7))
}
