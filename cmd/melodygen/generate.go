package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/export"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/theory"
	"github.com/urfave/cli"
)

func harmonyFlags() []cli.Flag {
	return []cli.Flag{
		cli.Int64Flag{Name: "seed, s", Value: 42, Usage: "random seed"},
		cli.IntFlag{Name: "bars", Usage: "force 4/4 with this many bars"},
		cli.IntFlag{Name: "min-bpm", Value: harmony.DefaultMinBPM, Usage: "lowest tempo"},
		cli.IntFlag{Name: "max-bpm", Value: harmony.DefaultMaxBPM, Usage: "highest tempo"},
	}
}

func generationFlags() []cli.Flag {
	defaults := generator.DefaultConfig()
	return []cli.Flag{
		cli.StringFlag{Name: "method, m", Value: generator.MethodRandom, Usage: "random, scored or ngram"},
		cli.Float64Flag{Name: "rest-probability", Value: defaults.RestProbability, Usage: "chance of a rest per event"},
		cli.IntFlag{Name: "candidates", Value: defaults.CandidateCount, Usage: "scored: candidates to try"},
		cli.Float64Flag{Name: "score-threshold", Value: defaults.ScoreThreshold, Usage: "scored: minimum accepted score"},
		cli.IntFlag{Name: "ngram-order", Value: defaults.NgramOrder, Usage: "ngram: context length"},
		cli.Float64Flag{Name: "octave-up-chance", Value: defaults.OctaveUpChance, Usage: "chance of an octave jump"},
		cli.Float64Flag{Name: "repeat-unit", Usage: "motif length in beats, 0 disables repetition"},
		cli.BoolFlag{Name: "allow-variation", Usage: "vary repeated motifs"},
		cli.Float64Flag{Name: "variation-probability", Value: 0.5, Usage: "chance each repeat is varied"},
		cli.StringFlag{Name: "output-dir, o", Value: "output", Usage: "directory for .mid and .json files"},
	}
}

func generateCommand() cli.Command {
	flags := append(harmonyFlags(), generationFlags()...)
	flags = append(flags,
		cli.IntFlag{Name: "count, n", Value: 1, Usage: "melodies to generate with seeds seed..seed+count-1"},
		cli.Float64Flag{Name: "target-mean", Usage: "target mean pitch (enables the retry loop)"},
		cli.Float64Flag{Name: "tolerance", Value: 2, Usage: "allowed distance from the target mean"},
		cli.IntFlag{Name: "max-attempts", Value: constraint.DefaultMaxAttempts, Usage: "retry budget for the target"},
	)
	return cli.Command{
		Name:   "generate",
		Usage:  "generate melodies and write .mid + .json files",
		Flags:  flags,
		Action: runGenerate,
	}
}

func harmonyOptions(c *cli.Context) harmony.Options {
	return harmony.Options{
		MinBPM: c.Int("min-bpm"),
		MaxBPM: c.Int("max-bpm"),
		Bars:   c.Int("bars"),
	}
}

func generationConfig(c *cli.Context) (generator.Config, error) {
	cfg := generator.Config{
		RestProbability: c.Float64("rest-probability"),
		CandidateCount:  c.Int("candidates"),
		ScoreThreshold:  c.Float64("score-threshold"),
		NgramOrder:      c.Int("ngram-order"),
		OctaveUpChance:  c.Float64("octave-up-chance"),
	}
	return cfg, cfg.Validate()
}

func structureSpec(c *cli.Context) (*models.StructureSpec, error) {
	unit := c.Float64("repeat-unit")
	if unit == 0 {
		return nil, nil
	}
	spec := models.NewStructuredSpec(unit, nil, c.Bool("allow-variation"), c.Float64("variation-probability"))
	return spec, spec.Validate()
}

func pitchTarget(c *cli.Context) (*constraint.Target, error) {
	if !c.IsSet("target-mean") {
		return nil, nil
	}
	target := &constraint.Target{
		MeanPitch:   c.Float64("target-mean"),
		Tolerance:   c.Float64("tolerance"),
		MaxAttempts: c.Int("max-attempts"),
	}
	return target, target.Validate()
}

func runGenerate(c *cli.Context) error {
	strategy, err := generator.NewRegistry().Lookup(c.String("method"))
	if err != nil {
		return err
	}
	cfg, err := generationConfig(c)
	if err != nil {
		return err
	}
	structure, err := structureSpec(c)
	if err != nil {
		return err
	}
	target, err := pitchTarget(c)
	if err != nil {
		return err
	}
	count := c.Int("count")
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}
	dir := c.String("output-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	for i := 0; i < count; i++ {
		seed := c.Int64("seed") + int64(i)
		h, err := harmony.Build(seed, harmonyOptions(c))
		if err != nil {
			return err
		}
		outcome := constraint.Run(seed, target, func(s int64) models.GenerationResult {
			return strategy.Generate(h, s, cfg, structure)
		})

		meta := export.NewMetadata(strategy.Name(), h, cfg, structure, target, outcome)
		base := filepath.Join(dir, export.FileBase(strategy.Name(), seed))
		if err := writeMelody(base, meta, h); err != nil {
			return err
		}

		fields := logger.Fields{
			"file":     base + ".mid",
			"score":    outcome.Result.Score,
			"status":   string(outcome.Status),
			"attempts": outcome.Attempts,
			"notes":    outcome.Result.Melody.Len(),
		}
		if stats := constraint.ComputePitchStats(outcome.Result.Melody.Pitches); stats.Min != nil {
			fields["range"] = theory.PitchName(*stats.Min) + "-" + theory.PitchName(*stats.Max)
		}
		if outcome.Accepted() {
			logger.Info("Melody written", fields)
		} else {
			fields["reason"] = outcome.Reason
			logger.Warn("Melody written without meeting the pitch target", fields)
		}
	}
	return nil
}

func writeMelody(base string, meta export.Metadata, h models.HarmonyContext) error {
	err := writeFile(base+".mid", func(w io.Writer) error {
		return export.Write(w, meta.Melody, h)
	})
	if err != nil {
		return err
	}
	return writeFile(base+".json", meta.WriteJSON)
}

// writeFile creates path and fills it with write. A failed Close is reported
// like any other write error.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func harmonyCommand() cli.Command {
	return cli.Command{
		Name:  "harmony",
		Usage: "print the harmony context a seed produces",
		Flags: harmonyFlags(),
		Action: func(c *cli.Context) error {
			h, err := harmony.Build(c.Int64("seed"), harmonyOptions(c))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(h)
		},
	}
}
