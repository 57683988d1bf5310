package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/services"
	"github.com/urfave/cli"
)

func fragmentsCommand() cli.Command {
	flags := append(harmonyFlags(), generationFlags()...)
	flags = append(flags,
		cli.IntFlag{Name: "count, n", Value: 4, Usage: "number of fragments"},
		cli.IntFlag{Name: "fragment-bars", Value: services.DefaultFragmentBars, Usage: "bars per fragment"},
		cli.Float64Flag{Name: "gap-beats", Value: services.DefaultFragmentGapBeats, Usage: "silence between fragments"},
		cli.IntFlag{Name: "max-attempts", Value: services.DefaultFragmentMaxAttempts, Usage: "attempts per fragment"},
		cli.IntFlag{Name: "min-pitch", Usage: "lowest allowed sounding pitch"},
		cli.IntFlag{Name: "max-pitch", Usage: "highest allowed sounding pitch"},
		cli.Float64Flag{Name: "target-mean", Usage: "target mean pitch per fragment"},
		cli.Float64Flag{Name: "tolerance", Value: 2, Usage: "allowed distance from the target mean"},
		cli.IntFlag{Name: "concurrency", Value: 4, Usage: "fragments generated in parallel"},
	)
	return cli.Command{
		Name:   "fragments",
		Usage:  "generate short fragments and join them into one MIDI file",
		Flags:  flags,
		Action: runFragments,
	}
}

func fragmentBounds(c *cli.Context) constraint.Bounds {
	var b constraint.Bounds
	if c.IsSet("min-pitch") {
		v := c.Int("min-pitch")
		b.MinPitch = &v
	}
	if c.IsSet("max-pitch") {
		v := c.Int("max-pitch")
		b.MaxPitch = &v
	}
	if c.IsSet("target-mean") {
		b.Mean = &constraint.Target{MeanPitch: c.Float64("target-mean"), Tolerance: c.Float64("tolerance")}
	}
	return b
}

func runFragments(c *cli.Context) error {
	cfg, err := generationConfig(c)
	if err != nil {
		return err
	}
	structure, err := structureSpec(c)
	if err != nil {
		return err
	}

	svc := services.NewMelodyService(services.Options{
		Defaults:    cfg,
		Registry:    generator.NewRegistry(),
		Concurrency: c.Int("concurrency"),
	})

	gap := c.Float64("gap-beats")
	resp, err := svc.Fragments(context.Background(), services.FragmentsRequest{
		Strategy:    c.String("method"),
		Seed:        c.Int64("seed"),
		Count:       c.Int("count"),
		Bars:        c.Int("fragment-bars"),
		GapBeats:    &gap,
		MaxAttempts: c.Int("max-attempts"),
		Harmony:     harmonyOptions(c),
		Structure:   structure,
		Bounds:      fragmentBounds(c),
	})
	if err != nil {
		return err
	}

	dir := c.String("output-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	base := filepath.Join(dir, fmt.Sprintf("fragments_%s_seed%d", resp.Strategy, resp.BaseSeed))
	if err := os.WriteFile(base+".mid", resp.MIDI, 0o644); err != nil {
		return fmt.Errorf("failed to write midi file: %w", err)
	}

	summary := *resp
	summary.MIDI = nil
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fragment summary: %w", err)
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return fmt.Errorf("failed to write fragment summary: %w", err)
	}

	met := 0
	for _, f := range resp.Fragments {
		if f.ConstraintMet {
			met++
		}
	}
	logger.Info("Fragments written", logger.Fields{
		"file":           base + ".mid",
		"fragments":      len(resp.Fragments),
		"constraint_met": met,
		"total_beats":    resp.TotalBeats,
	})
	return nil
}
