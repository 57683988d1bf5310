package export

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Note is a sounding note read back from an SMF
type Note struct {
	Pitch     int
	Velocity  int
	StartTick uint32
	EndTick   uint32
}

// Parsed is the content of an SMF relevant to melodies
type Parsed struct {
	TicksPerQuarter uint32
	Tempo           float64
	Numerator       uint8
	Denominator     uint8
	Notes           []Note
}

// Read parses an SMF, pairing note on/off events across all tracks.
// Notes are ordered by start tick, then pitch.
func Read(r io.Reader) (*Parsed, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read SMF: %w", err)
	}

	parsed := &Parsed{TicksPerQuarter: TicksPerQuarter}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		parsed.TicksPerQuarter = uint32(mt)
	}

	for _, tr := range s.Tracks {
		var abs uint32
		open := make(map[uint8]Note)
		for _, ev := range tr {
			abs += ev.Delta
			msg := midi.Message(ev.Message)

			var bpm float64
			var num, den uint8
			var ch, key, vel uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				if parsed.Tempo == 0 {
					parsed.Tempo = bpm
				}
			case ev.Message.GetMetaMeter(&num, &den):
				if parsed.Numerator == 0 {
					parsed.Numerator, parsed.Denominator = num, den
				}
			case msg.GetNoteStart(&ch, &key, &vel):
				open[key] = Note{Pitch: int(key), Velocity: int(vel), StartTick: abs}
			case msg.GetNoteEnd(&ch, &key):
				if n, ok := open[key]; ok {
					n.EndTick = abs
					parsed.Notes = append(parsed.Notes, n)
					delete(open, key)
				}
			}
		}
	}

	sort.SliceStable(parsed.Notes, func(i, j int) bool {
		if parsed.Notes[i].StartTick != parsed.Notes[j].StartTick {
			return parsed.Notes[i].StartTick < parsed.Notes[j].StartTick
		}
		return parsed.Notes[i].Pitch < parsed.Notes[j].Pitch
	})
	return parsed, nil
}

// MelodyPitches returns one pitch per onset tick, keeping the highest pitch
// when several notes start together.
func (p *Parsed) MelodyPitches() []int {
	var pitches []int
	lastTick := uint32(0)
	for i, n := range p.Notes {
		if i > 0 && n.StartTick == lastTick {
			if n.Pitch > pitches[len(pitches)-1] {
				pitches[len(pitches)-1] = n.Pitch
			}
			continue
		}
		pitches = append(pitches, n.Pitch)
		lastTick = n.StartTick
	}
	return pitches
}
