package generator

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

const (
	runLength     = 5
	arpeggioSpan  = 8
	walkCount     = 10
	minWalkLength = 6
	maxWalkLength = 10
	maxWalkStep   = 2
)

// TransitionModel is an order-N pitch n-gram table
type TransitionModel struct {
	Order       int
	transitions map[string][]int
	pool        []int
}

// NewTransitionModel returns an empty model of the given order
func NewTransitionModel(order int) *TransitionModel {
	if order < 1 {
		order = 1
	}
	return &TransitionModel{Order: order, transitions: make(map[string][]int)}
}

// Train records every (context, successor) pair of each sequence
func (m *TransitionModel) Train(sequences [][]int) {
	for _, seq := range sequences {
		for i := 0; i+m.Order < len(seq); i++ {
			key := contextKey(seq[i : i+m.Order])
			next := seq[i+m.Order]
			m.transitions[key] = append(m.transitions[key], next)
			m.pool = append(m.pool, next)
		}
	}
}

// Predict samples a successor of context. Unseen contexts sample from every
// observed successor; an untrained model returns the reference pitch.
func (m *TransitionModel) Predict(context []int, rng *rand.Rand) int {
	if successors := m.transitions[contextKey(context)]; len(successors) > 0 {
		return successors[rng.Intn(len(successors))]
	}
	if len(m.pool) > 0 {
		return m.pool[rng.Intn(len(m.pool))]
	}
	return theory.ReferencePitch
}

func contextKey(context []int) string {
	var b strings.Builder
	for i, p := range context {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}

// TrainingCorpus builds the synthetic sequences the model learns from:
// scale runs in both directions, skip-note arpeggios, neighbour figures and
// short random walks over the scale.
func TrainingCorpus(scale theory.ScaleSet, rng *rand.Rand) [][]int {
	notes := scale.Pitches()
	var corpus [][]int

	for start := 0; start < len(notes)-runLength; start++ {
		run := append([]int(nil), notes[start:start+runLength]...)
		corpus = append(corpus, run, reversed(run))
	}

	for start := 0; start < len(notes)-arpeggioSpan; start += 2 {
		arpeggio := make([]int, 0, arpeggioSpan/2)
		for i := 0; i < arpeggioSpan; i += 2 {
			arpeggio = append(arpeggio, notes[start+i])
		}
		corpus = append(corpus, arpeggio)
	}

	for center := 1; center < len(notes)-1; center++ {
		corpus = append(corpus, []int{notes[center], notes[center+1], notes[center], notes[center-1], notes[center]})
	}

	if len(notes) == 0 {
		return corpus
	}
	for w := 0; w < walkCount; w++ {
		length := minWalkLength + rng.Intn(maxWalkLength-minWalkLength+1)
		idx := rng.Intn(len(notes))
		walk := []int{notes[idx]}
		for len(walk) < length {
			idx += rng.Intn(2*maxWalkStep+1) - maxWalkStep
			if idx < 0 {
				idx = 0
			}
			if idx >= len(notes) {
				idx = len(notes) - 1
			}
			walk = append(walk, notes[idx])
		}
		corpus = append(corpus, walk)
	}
	return corpus
}

// Ngram generates pitches from an n-gram model trained on synthetic patterns.
// It never emits rests.
type Ngram struct{}

func (Ngram) Name() string { return MethodNgram }

func (Ngram) Generate(h models.HarmonyContext, seed int64, cfg Config, spec *models.StructureSpec) models.GenerationResult {
	rng := rand.New(rand.NewSource(seed))
	scale := theory.ResolveScale(h)
	stats := models.NewDebugStats()

	model := NewTransitionModel(cfg.NgramOrder)
	model.Train(TrainingCorpus(scale, rng))

	pitches := make([]int, 0, model.Order)
	for i := 0; i < model.Order; i++ {
		pitches = append(pitches, scale.Choose(rng))
	}

	total := h.TotalBeats()
	var durations []float64
	elapsed := 0.0

	for elapsed < total-theory.DurationEpsilon {
		d := pickDuration(total-elapsed, spec, rng)
		stats.DurationHistogram[theory.DurationKey(d)]++
		durations = append(durations, d)

		if len(pitches) < len(durations) {
			prev := pitches[len(pitches)-1]
			predicted := model.Predict(pitches[len(pitches)-model.Order:], rng)

			pitch := scale.Nearest(predicted)
			if pitch != predicted {
				stats.ScaleCorrections++
			}
			if jumped, ok := octaveJump(prev, true, cfg.OctaveUpChance, scale, rng); ok {
				pitch = jumped
				stats.OctaveJumps++
			}
			pitch, corrected := ensureInRange(pitch, scale, h.LowestMIDI, h.HighestMIDI, rng)
			if corrected {
				stats.ScaleCorrections++
			}
			pitches = append(pitches, pitch)
		}

		elapsed = advance(elapsed, d)
	}

	if len(pitches) > len(durations) {
		pitches = pitches[:len(durations)]
	}
	return finish(h, seed, models.Melody{Pitches: pitches, Durations: durations}, stats, spec, scale, rng)
}

func reversed(in []int) []int {
	out := make([]int, len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}
