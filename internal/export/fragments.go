package export

import (
	"bytes"
	"fmt"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Fragment is one melody placed on a shared timeline
type Fragment struct {
	Melody  models.Melody
	Harmony models.HarmonyContext
}

// Placement locates a fragment on the concatenated timeline, in beats
type Placement struct {
	StartBeat float64 `json:"start_beat"`
	EndBeat   float64 `json:"end_beat"`
}

// SoundingLength is the beat at which the last sounding note of m ends
func SoundingLength(m models.Melody) float64 {
	end := 0.0
	for _, ev := range m.NoteEvents(DefaultVelocity) {
		if e := ev.StartBeats + ev.DurationBeats; e > end {
			end = e
		}
	}
	return end
}

// Concat lays fragments end to end, each followed by gapBeats of silence.
// A fragment occupies the span up to its last sounding note. The tempo and
// meter of the first fragment apply to the whole file.
func Concat(fragments []Fragment, gapBeats float64) (*smf.SMF, []Placement, error) {
	if len(fragments) == 0 {
		return nil, nil, fmt.Errorf("no fragments to concatenate")
	}
	if gapBeats < 0 {
		return nil, nil, fmt.Errorf("gap_beats must not be negative, got %v", gapBeats)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	first := fragments[0].Harmony
	addHeader(&tr, first.Tempo, first.Meter)

	placements := make([]Placement, len(fragments))
	var cursor uint32
	position := 0.0
	for i, f := range fragments {
		length := SoundingLength(f.Melody)
		cursor = addNotes(&tr, f.Melody.NoteEvents(DefaultVelocity), BeatsToTicks(position), cursor)
		placements[i] = Placement{StartBeat: position, EndBeat: position + length}
		position += length + gapBeats
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return nil, nil, fmt.Errorf("failed to add track: %w", err)
	}
	return s, placements, nil
}

// EncodeFragments returns the concatenated SMF bytes and fragment placements
func EncodeFragments(fragments []Fragment, gapBeats float64) ([]byte, []Placement, error) {
	s, placements, err := Concat(fragments, gapBeats)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("failed to write SMF: %w", err)
	}
	return buf.Bytes(), placements, nil
}
