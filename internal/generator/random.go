package generator

import (
	"math/rand"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
)

// Random fills the harmony's length with scale pitches, rests and grid durations,
// biased toward stepwise motion.
type Random struct{}

func (Random) Name() string { return MethodRandom }

func (Random) Generate(h models.HarmonyContext, seed int64, cfg Config, spec *models.StructureSpec) models.GenerationResult {
	rng := rand.New(rand.NewSource(seed))
	scale := theory.ResolveScale(h)
	stats := models.NewDebugStats()
	total := h.TotalBeats()

	var melody models.Melody
	prev, hasPrev := 0, false
	elapsed := 0.0

	for elapsed < total-theory.DurationEpsilon {
		d := pickDuration(total-elapsed, spec, rng)
		stats.DurationHistogram[theory.DurationKey(d)]++

		pitch := models.Rest
		if rng.Float64() >= cfg.RestProbability {
			var jumped, corrected bool
			pitch, jumped = pickScalePitch(scale, prev, hasPrev, cfg.OctaveUpChance, rng)
			if jumped {
				stats.OctaveJumps++
			}
			pitch, corrected = ensureInRange(pitch, scale, h.LowestMIDI, h.HighestMIDI, rng)
			if corrected {
				stats.ScaleCorrections++
			}
			prev, hasPrev = pitch, true
		}

		melody.Pitches = append(melody.Pitches, pitch)
		melody.Durations = append(melody.Durations, d)
		elapsed = advance(elapsed, d)
	}

	return finish(h, seed, melody, stats, spec, scale, rng)
}
