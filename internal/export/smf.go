package export

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the SMF resolution
	TicksPerQuarter = 480
	// DefaultVelocity is used for every note
	DefaultVelocity = 80
	channel         = 0
)

// BeatsToTicks converts quarter-note beats to SMF ticks
func BeatsToTicks(beats float64) uint32 {
	if beats <= 0 {
		return 0
	}
	return uint32(math.Round(beats * TicksPerQuarter))
}

// BuildSMF renders a melody as a single-track SMF: tempo and meter at tick 0,
// then one note on/off pair per sounding note. Rests only advance time.
func BuildSMF(melody models.Melody, tempo int, meter models.Meter) (*smf.SMF, error) {
	if len(melody.Pitches) != len(melody.Durations) {
		return nil, fmt.Errorf("melody has %d pitches but %d durations", len(melody.Pitches), len(melody.Durations))
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	addHeader(&tr, tempo, meter)
	cursor := addNotes(&tr, melody.NoteEvents(DefaultVelocity), 0, 0)
	// trailing rests keep the track at full length
	end := BeatsToTicks(melody.TotalBeats())
	if end < cursor {
		end = cursor
	}
	tr.Close(end - cursor)

	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	return s, nil
}

// Encode returns the SMF bytes for a melody in the given harmony
func Encode(melody models.Melody, h models.HarmonyContext) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, melody, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the SMF for a melody to w
func Write(w io.Writer, melody models.Melody, h models.HarmonyContext) error {
	s, err := BuildSMF(melody, h.Tempo, h.Meter)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write SMF: %w", err)
	}
	return nil
}

func addHeader(tr *smf.Track, tempo int, meter models.Meter) {
	tr.Add(0, smf.MetaTempo(float64(tempo)))
	tr.Add(0, smf.MetaMeter(uint8(meter.Numerator), uint8(meter.Denominator)))
}

// addNotes appends events shifted by offset ticks. cursor is the absolute tick
// of the last event already in tr; the updated cursor is returned.
func addNotes(tr *smf.Track, events []models.NoteEvent, offset, cursor uint32) uint32 {
	for _, ev := range events {
		start := offset + BeatsToTicks(ev.StartBeats)
		end := offset + BeatsToTicks(ev.StartBeats+ev.DurationBeats)
		if start < cursor {
			start = cursor
		}
		if end <= start {
			end = start + 1
		}
		key := uint8(ev.MidiNoteNumber)
		tr.Add(start-cursor, midi.NoteOn(channel, key, uint8(ev.Velocity)))
		tr.Add(end-start, midi.NoteOff(channel, key))
		cursor = end
	}
	return cursor
}
