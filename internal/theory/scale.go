package theory

import (
	"math/rand"
	"sort"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

const (
	referenceOctave = 4
	minOctaveOffset = -3
	maxOctaveOffset = 4
)

// ScaleSet is a sorted, duplicate-free set of MIDI pitches considered in key
type ScaleSet struct {
	pitches []int
	index   map[int]int
}

// NewScaleSet builds a set from arbitrary pitches
func NewScaleSet(pitches []int) ScaleSet {
	unique := make(map[int]bool, len(pitches))
	sorted := make([]int, 0, len(pitches))
	for _, p := range pitches {
		if !unique[p] {
			unique[p] = true
			sorted = append(sorted, p)
		}
	}
	sort.Ints(sorted)
	index := make(map[int]int, len(sorted))
	for i, p := range sorted {
		index[p] = i
	}
	return ScaleSet{pitches: sorted, index: index}
}

// BuildScaleSet enumerates tonic + intervals over several octaves around C4
// and keeps the pitches inside [low, high].
func BuildScaleSet(tonic string, intervals []int, low, high int) ScaleSet {
	base := NoteToMIDI(tonic, referenceOctave)
	pitches := make([]int, 0, len(intervals)*(maxOctaveOffset-minOctaveOffset+1))
	for offset := minOctaveOffset; offset <= maxOctaveOffset; offset++ {
		for _, interval := range intervals {
			candidate := base + offset*12 + interval
			if candidate >= low && candidate <= high {
				pitches = append(pitches, candidate)
			}
		}
	}
	return NewScaleSet(pitches)
}

// ChromaticSet returns every pitch in [low, high]
func ChromaticSet(low, high int) ScaleSet {
	pitches := make([]int, 0, high-low+1)
	for p := low; p <= high; p++ {
		pitches = append(pitches, p)
	}
	return NewScaleSet(pitches)
}

// ResolveScale builds the scale set for a harmony context, falling back to the
// chromatic range when the range is too narrow to hold any scale tone.
func ResolveScale(h models.HarmonyContext) ScaleSet {
	set := BuildScaleSet(h.Tonic, h.ScaleIntervals, h.LowestMIDI, h.HighestMIDI)
	if set.Len() == 0 {
		return ChromaticSet(h.LowestMIDI, h.HighestMIDI)
	}
	return set
}

// Len returns the number of pitches
func (s ScaleSet) Len() int {
	return len(s.pitches)
}

// Pitches returns a copy of the sorted pitches
func (s ScaleSet) Pitches() []int {
	return append([]int(nil), s.pitches...)
}

// At returns the i-th pitch in ascending order
func (s ScaleSet) At(i int) int {
	return s.pitches[i]
}

// Contains reports membership
func (s ScaleSet) Contains(pitch int) bool {
	_, ok := s.index[pitch]
	return ok
}

// Index returns the position of pitch in the set
func (s ScaleSet) Index(pitch int) (int, bool) {
	i, ok := s.index[pitch]
	return i, ok
}

// InRange returns the members inside [low, high]
func (s ScaleSet) InRange(low, high int) []int {
	out := make([]int, 0, len(s.pitches))
	for _, p := range s.pitches {
		if p >= low && p <= high {
			out = append(out, p)
		}
	}
	return out
}

// Nearest returns the member closest to pitch; ties go to the lower member.
// An empty set returns pitch unchanged.
func (s ScaleSet) Nearest(pitch int) int {
	if len(s.pitches) == 0 {
		return pitch
	}
	best := s.pitches[0]
	bestDist := abs(pitch - best)
	for _, p := range s.pitches[1:] {
		if d := abs(pitch - p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Choose picks a member uniformly
func (s ScaleSet) Choose(rng *rand.Rand) int {
	return s.pitches[rng.Intn(len(s.pitches))]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
