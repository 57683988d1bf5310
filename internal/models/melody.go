package models

import (
	"errors"
	"fmt"
)

// ErrInvalidMelody is returned for melodies that break the pitch/duration contract
var ErrInvalidMelody = errors.New("invalid melody")

// Rest is the pitch value used for silence
const Rest = 0

// NoteEvent represents a single musical note with timing and pitch information
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
}

// Melody holds parallel pitch and duration sequences.
// Pitch 0 is a rest; durations are in quarter-note beats.
type Melody struct {
	Pitches   []int     `json:"pitches"`
	Durations []float64 `json:"durations"`
}

// Len returns the number of events (notes and rests)
func (m Melody) Len() int {
	return len(m.Pitches)
}

// Sounding returns the non-rest pitches in order
func (m Melody) Sounding() []int {
	return SoundingPitches(m.Pitches)
}

// TotalBeats returns the sum of all durations
func (m Melody) TotalBeats() float64 {
	total := 0.0
	for _, d := range m.Durations {
		total += d
	}
	return total
}

// Validate checks that pitches and durations are parallel, durations are
// positive and every pitch is a rest or a MIDI note
func (m Melody) Validate() error {
	if len(m.Pitches) == 0 {
		return fmt.Errorf("%w: melody is empty", ErrInvalidMelody)
	}
	if len(m.Pitches) != len(m.Durations) {
		return fmt.Errorf("%w: %d pitches but %d durations", ErrInvalidMelody, len(m.Pitches), len(m.Durations))
	}
	for i, p := range m.Pitches {
		if p < Rest || p > 127 {
			return fmt.Errorf("%w: pitch %d at index %d is outside 0-127", ErrInvalidMelody, p, i)
		}
		if m.Durations[i] <= 0 {
			return fmt.Errorf("%w: duration %v at index %d is not positive", ErrInvalidMelody, m.Durations[i], i)
		}
	}
	return nil
}

// NoteEvents converts the sounding notes to timed note events. Rests only advance time.
func (m Melody) NoteEvents(velocity int) []NoteEvent {
	events := make([]NoteEvent, 0, len(m.Pitches))
	position := 0.0
	for i, pitch := range m.Pitches {
		if i >= len(m.Durations) {
			break
		}
		if pitch > Rest {
			events = append(events, NoteEvent{
				MidiNoteNumber: pitch,
				Velocity:       velocity,
				StartBeats:     position,
				DurationBeats:  m.Durations[i],
			})
		}
		position += m.Durations[i]
	}
	return events
}

// SoundingPitches filters rests out of a pitch sequence
func SoundingPitches(pitches []int) []int {
	sounding := make([]int, 0, len(pitches))
	for _, p := range pitches {
		if p > Rest {
			sounding = append(sounding, p)
		}
	}
	return sounding
}
