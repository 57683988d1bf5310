package generator

import (
	"math/rand"
	"testing"

	"github.com/Conceptual-Machines/magda-melody/internal/eval"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHarmony(t *testing.T, seed int64, bars int) models.HarmonyContext {
	t.Helper()
	h, err := harmony.Build(seed, harmony.Options{Bars: bars})
	require.NoError(t, err)
	return h
}

func allStrategies() []Strategy {
	return []Strategy{Random{}, Scored{}, Ngram{}}
}

func TestStrategiesDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			for seed := int64(0); seed < 10; seed++ {
				h := testHarmony(t, seed, 0)
				a := s.Generate(h, seed, cfg, nil)
				b := s.Generate(h, seed, cfg, nil)
				assert.Equal(t, a.Melody, b.Melody)
				assert.Equal(t, a.Score, b.Score)
			}
		})
	}
}

func TestStrategiesFillHarmonyLength(t *testing.T) {
	cfg := DefaultConfig()
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			for seed := int64(0); seed < 25; seed++ {
				h := testHarmony(t, seed, 0)
				result := s.Generate(h, seed*7+1, cfg, nil)

				require.Equal(t, len(result.Melody.Pitches), len(result.Melody.Durations))
				assert.InDelta(t, h.TotalBeats(), result.Melody.TotalBeats(), theory.DurationEpsilon)
				assert.InDelta(t, result.Melody.TotalBeats(), result.Stats.TotalBeats, 1e-9)

				for _, d := range result.Melody.Durations {
					assert.Greater(t, d, 0.0)
					assert.True(t, theory.IsAllowedDuration(d), "duration %v", d)
				}
				assert.GreaterOrEqual(t, result.Score, 0.0)
				assert.LessOrEqual(t, result.Score, 1.0)
			}
		})
	}
}

func TestStrategiesStayInScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OctaveUpChance = 0.2
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			for seed := int64(0); seed < 25; seed++ {
				h := testHarmony(t, seed, 4)
				scale := theory.ResolveScale(h)
				result := s.Generate(h, seed, cfg, nil)
				for _, p := range result.Melody.Pitches {
					if p == models.Rest {
						continue
					}
					assert.True(t, scale.Contains(p), "pitch %d outside scale", p)
					assert.GreaterOrEqual(t, p, h.LowestMIDI)
					assert.LessOrEqual(t, p, h.HighestMIDI)
				}
			}
		})
	}
}

func TestNgramNeverRests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RestProbability = 0.9
	for seed := int64(0); seed < 10; seed++ {
		result := Ngram{}.Generate(testHarmony(t, seed, 2), seed, cfg, nil)
		assert.NotContains(t, result.Melody.Pitches, models.Rest)
	}
}

func TestRandomRestProbability(t *testing.T) {
	h := testHarmony(t, 3, 8)

	cfg := DefaultConfig()
	cfg.RestProbability = 0
	assert.NotContains(t, Random{}.Generate(h, 1, cfg, nil).Melody.Pitches, models.Rest)

	cfg.RestProbability = 1
	assert.Empty(t, Random{}.Generate(h, 1, cfg, nil).Melody.Sounding())
}

func TestRandomRhythmProfile(t *testing.T) {
	h := testHarmony(t, 5, 4)
	profile := models.RhythmProfile{{Duration: 0.5, Weight: 3}, {Duration: 1, Weight: 1}}
	spec := &models.StructureSpec{RhythmProfile: profile}

	result := Random{}.Generate(h, 5, DefaultConfig(), spec)

	for _, d := range result.Melody.Durations {
		assert.Contains(t, []float64{0.5, 1}, d)
	}
	assert.Contains(t, result.Metrics, models.MetricRhythmAlignment)
	assert.NotContains(t, result.Metrics, models.MetricSelfSimilarity)
}

func TestPickDurationFallbacks(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dotted := &models.StructureSpec{RhythmProfile: models.RhythmProfile{{Duration: 0.75, Weight: 2}, {Duration: 1.5, Weight: 1}}}
	long := &models.StructureSpec{RhythmProfile: models.RhythmProfile{{Duration: 3, Weight: 1}}}

	for i := 0; i < 50; i++ {
		// 1.5 overshoots, 0.75 is the only profile value that fits
		assert.Equal(t, 0.75, pickDuration(1, dotted, rng))

		d := pickDuration(0.5, dotted, rng)
		assert.Contains(t, []float64{0.5, 0.25, 0.125}, d)

		d = pickDuration(2, long, rng)
		assert.True(t, theory.IsAllowedDuration(d), "duration %v", d)
		assert.LessOrEqual(t, d, 2.0)

		assert.Equal(t, 3.0, pickDuration(3, long, rng))
	}
}

func TestStrategiesWithOffAlphabetProfiles(t *testing.T) {
	// 4/4 over 8 bars is 32 beats, which neither profile divides evenly
	profiles := map[string]models.RhythmProfile{
		"dotted half":        {{Duration: 3, Weight: 1}},
		"dotted quarter mix": {{Duration: 0.75, Weight: 2}, {Duration: 1.5, Weight: 1}},
	}
	cfg := DefaultConfig()
	cfg.RestProbability = 0
	cfg.ScoreThreshold = 0

	for name, profile := range profiles {
		spec := &models.StructureSpec{RhythmProfile: profile}
		require.NoError(t, spec.Validate())
		keys := profile.Durations()

		for _, s := range allStrategies() {
			t.Run(name+"/"+s.Name(), func(t *testing.T) {
				usedProfile, usedAlphabetOnly := false, false
				for seed := int64(0); seed < 10; seed++ {
					h := testHarmony(t, seed, 8)
					result := s.Generate(h, seed, cfg, spec)

					require.Equal(t, len(result.Melody.Pitches), len(result.Melody.Durations))
					assert.InDelta(t, h.TotalBeats(), result.Melody.TotalBeats(), theory.DurationEpsilon)
					for _, d := range result.Melody.Durations {
						require.True(t, theory.IsAllowedDuration(d, keys...), "duration %v", d)
						if !theory.IsAllowedDuration(d) {
							usedProfile = true
						}
						if !containsDuration(keys, d) {
							usedAlphabetOnly = true
						}
					}
					if s.Name() == MethodScored {
						assert.True(t, result.ThresholdMet, "seed %d", seed)
					}
				}
				assert.True(t, usedProfile, "no off-alphabet profile value was used")
				assert.True(t, usedAlphabetOnly, "the alphabet fallback never filled a tail")
			})
		}
	}
}

func containsDuration(values []float64, d float64) bool {
	for _, v := range values {
		if v == d {
			return true
		}
	}
	return false
}

func TestRandomRepetitionWithoutVariation(t *testing.T) {
	h := testHarmony(t, 8, 2)
	spec := models.NewStructuredSpec(4, nil, false, 0)

	result := Random{}.Generate(h, 8, DefaultConfig(), spec)

	assert.Equal(t, 2, result.Stats.RepeatCount)
	assert.True(t, result.Stats.RepetitionApplied)
	assert.Zero(t, result.Stats.MotifVariations)
	assert.InDelta(t, 8.0, result.Melody.TotalBeats(), 1e-9)

	var first, second []int
	var firstDur, secondDur []float64
	position := 0.0
	for i, p := range result.Melody.Pitches {
		if position < 4-theory.DurationEpsilon {
			first = append(first, p)
			firstDur = append(firstDur, result.Melody.Durations[i])
		} else {
			second = append(second, p)
			secondDur = append(secondDur, result.Melody.Durations[i])
		}
		position += result.Melody.Durations[i]
	}
	assert.Equal(t, first, second)
	assert.Equal(t, firstDur, secondDur)
	assert.Contains(t, result.Metrics, models.MetricSelfSimilarity)
}

func TestRepetitionStatsReported(t *testing.T) {
	h := testHarmony(t, 8, 2)
	varied := models.NewStructuredSpec(4, nil, true, 1)

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			result := s.Generate(h, 8, DefaultConfig(), varied)
			assert.True(t, result.Stats.RepetitionApplied)
			assert.Equal(t, result.Stats.RepeatCount-1, result.Stats.MotifVariations)

			plain := s.Generate(h, 8, DefaultConfig(), nil)
			assert.False(t, plain.Stats.RepetitionApplied)
			assert.Zero(t, plain.Stats.MotifVariations)
		})
	}
}

func TestScoredPicksBestCandidate(t *testing.T) {
	h := testHarmony(t, 42, 0)
	cfg := DefaultConfig()
	cfg.CandidateCount = 5
	cfg.ScoreThreshold = 0.3

	result := Scored{}.Generate(h, 42, cfg, nil)
	scale := theory.ResolveScale(h)

	best := -1.0
	var bestSeed int64
	for _, s := range []int64{42, 1042, 2042, 3042, 4042} {
		c := Random{}.Generate(h, s, cfg, nil)
		if !pitchesInScale(c.Melody.Pitches, scale) || !durationsAllowed(c.Melody.Durations, nil) {
			continue
		}
		if len(c.Melody.Sounding()) < minSoundingNotes || c.Score < cfg.ScoreThreshold {
			continue
		}
		if c.Score > best {
			best, bestSeed = c.Score, s
		}
	}

	if best < 0 {
		assert.False(t, result.ThresholdMet)
		assert.Equal(t, int64(42+5*1000), result.Seed)
		return
	}
	assert.True(t, result.ThresholdMet)
	assert.Equal(t, best, result.Score)
	assert.Equal(t, bestSeed, result.Seed)
	assert.Equal(t, Random{}.Generate(h, bestSeed, cfg, nil).Melody, result.Melody)
	assert.Equal(t, 5, result.Candidates)
}

func TestScoredFallback(t *testing.T) {
	h := testHarmony(t, 2, 2)
	cfg := DefaultConfig()
	cfg.CandidateCount = 3
	cfg.ScoreThreshold = 1.0
	cfg.RestProbability = 1

	result := Scored{}.Generate(h, 10, cfg, nil)

	assert.False(t, result.ThresholdMet)
	assert.Equal(t, int64(10+3*1000), result.Seed)
	assert.Equal(t, Random{}.Generate(h, 3010, cfg, nil).Melody, result.Melody)
	assert.InDelta(t, h.TotalBeats(), result.Stats.TotalBeats, 1e-9)
}

func TestScoredMergesStats(t *testing.T) {
	h := testHarmony(t, 12, 4)
	cfg := DefaultConfig()
	cfg.CandidateCount = 4
	cfg.ScoreThreshold = 0

	result := Scored{}.Generate(h, 12, cfg, nil)

	single := Random{}.Generate(h, result.Seed, cfg, nil)
	histogramTotal := 0
	for _, n := range result.Stats.DurationHistogram {
		histogramTotal += n
	}
	singleTotal := 0
	for _, n := range single.Stats.DurationHistogram {
		singleTotal += n
	}
	assert.GreaterOrEqual(t, histogramTotal, singleTotal)
	assert.Equal(t, single.Stats.TotalBeats, result.Stats.TotalBeats)
}

func TestTransitionModel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("empty model falls back to reference pitch", func(t *testing.T) {
		m := NewTransitionModel(2)
		assert.Equal(t, theory.ReferencePitch, m.Predict([]int{1, 2}, rng))
	})

	t.Run("known context", func(t *testing.T) {
		m := NewTransitionModel(2)
		m.Train([][]int{{60, 62, 64}, {60, 62, 64}})
		assert.Len(t, m.transitions, 1)
		for i := 0; i < 20; i++ {
			assert.Equal(t, 64, m.Predict([]int{60, 62}, rng))
		}
	})

	t.Run("unseen context uses successor pool", func(t *testing.T) {
		m := NewTransitionModel(1)
		m.Train([][]int{{60, 62}, {64, 65}})
		for i := 0; i < 20; i++ {
			assert.Contains(t, []int{62, 65}, m.Predict([]int{99}, rng))
		}
	})

	t.Run("order is at least one", func(t *testing.T) {
		assert.Equal(t, 1, NewTransitionModel(0).Order)
	})
}

func TestTrainingCorpus(t *testing.T) {
	scale := theory.BuildScaleSet("C", []int{0, 2, 4, 5, 7, 9, 11}, 60, 84)
	corpus := TrainingCorpus(scale, rand.New(rand.NewSource(4)))

	require.NotEmpty(t, corpus)
	assert.Equal(t, []int{60, 62, 64, 65, 67}, corpus[0])
	assert.Equal(t, []int{67, 65, 64, 62, 60}, corpus[1])
	for _, seq := range corpus {
		for _, p := range seq {
			assert.True(t, scale.Contains(p))
		}
	}

	walks := corpus[len(corpus)-walkCount:]
	for _, walk := range walks {
		assert.GreaterOrEqual(t, len(walk), minWalkLength)
		assert.LessOrEqual(t, len(walk), maxWalkLength)
	}
}

func TestScoreMatchesEvaluation(t *testing.T) {
	h := testHarmony(t, 21, 4)
	result := Random{}.Generate(h, 21, DefaultConfig(), nil)
	expected := eval.Evaluate(result.Melody.Pitches, result.Melody.Durations, nil)
	assert.Equal(t, expected.Score, result.Score)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{MethodNgram, MethodRandom, MethodScored}, r.Names())

	s, err := r.Lookup(MethodScored)
	require.NoError(t, err)
	assert.Equal(t, MethodScored, s.Name())

	_, err = r.Lookup("genetic")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "rest probability above one", mutate: func(c *Config) { c.RestProbability = 1.5 }, wantErr: true},
		{name: "zero candidates", mutate: func(c *Config) { c.CandidateCount = 0 }, wantErr: true},
		{name: "too many candidates", mutate: func(c *Config) { c.CandidateCount = MaxCandidateCount + 1 }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.ScoreThreshold = -0.1 }, wantErr: true},
		{name: "zero ngram order", mutate: func(c *Config) { c.NgramOrder = 0 }, wantErr: true},
		{name: "octave chance above one", mutate: func(c *Config) { c.OctaveUpChance = 2 }, wantErr: true},
		{name: "octave chance one", mutate: func(c *Config) { c.OctaveUpChance = 1 }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	order := 3
	rest := 0.0
	cfg := (&Overrides{NgramOrder: &order, RestProbability: &rest}).Apply(DefaultConfig())
	assert.Equal(t, 3, cfg.NgramOrder)
	assert.Equal(t, 0.0, cfg.RestProbability)
	assert.Equal(t, DefaultCandidateCount, cfg.CandidateCount)

	var nilOverrides *Overrides
	assert.Equal(t, DefaultConfig(), nilOverrides.Apply(DefaultConfig()))
}
