package theory

import (
	"fmt"
	"strings"
)

// ReferencePitch is the fallback pitch (C4) used when no better choice exists
const ReferencePitch = 60

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1,
	"D": 2, "D#": 3, "Eb": 3,
	"E": 4, "Fb": 4, "E#": 5,
	"F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8,
	"A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": 11, "B#": 0,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// PitchClass returns the pitch class (0-11) of a note name like "F#" or "Bb"
func PitchClass(noteName string) (int, error) {
	pc, ok := pitchClasses[normalizeName(noteName)]
	if !ok {
		return 0, fmt.Errorf("unknown note name: %q", noteName)
	}
	return pc, nil
}

// NoteToMIDI converts a note name at the given octave to a MIDI number (C4 = 60).
// B# belongs to the next octave's C; Cb stays in the octave below its letter.
// Unknown names resolve to C.
func NoteToMIDI(noteName string, octave int) int {
	name := normalizeName(noteName)
	midi := (octave+1)*12 + pitchClasses[name]
	if name == "B#" {
		midi += 12
	}
	return midi
}

// SpellPitchClass names a pitch class, using flats when preferFlat is set
func SpellPitchClass(pc int, preferFlat bool) string {
	pc = ((pc % 12) + 12) % 12
	if preferFlat {
		return flatNames[pc]
	}
	return sharpNames[pc]
}

// PitchName formats a MIDI pitch like "C#4"; 0 is a rest
func PitchName(pitch int) string {
	if pitch <= 0 {
		return "rest"
	}
	return fmt.Sprintf("%s%d", sharpNames[pitch%12], pitch/12-1)
}

func normalizeName(noteName string) string {
	name := strings.TrimSpace(noteName)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
