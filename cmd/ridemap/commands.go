package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/meikuraledutech/ridemap"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel   string
	biomesFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "ridemap",
		Short:        "Generate ride run maps and synthetic road terrain",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.biomesFile, "biomes", "", "YAML biome table (defaults to the built-in table)")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newProfileCmd(opts),
		newBiomesCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (o *rootOptions) biomes() (ridemap.BiomeTable, error) {
	if o.biomesFile == "" {
		return ridemap.DefaultBiomes(), nil
	}
	return ridemap.LoadBiomes(o.biomesFile)
}

func source(cmd *cobra.Command, seed int64) ridemap.Source {
	if cmd.Flags().Changed("seed") {
		return ridemap.SeededSource(seed)
	}
	return ridemap.RandomSource()
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		km         float64
		difficulty string
		seed       int64
		validate   bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a run map and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			biomes, err := root.biomes()
			if err != nil {
				return err
			}
			diff, err := ridemap.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			cfg := ridemap.RunConfig{TotalDistanceKm: km, Difficulty: diff}
			if err := cfg.Validate(); err != nil {
				return err
			}

			gen := ridemap.NewGenerator(
				ridemap.WithSource(source(cmd, seed)),
				ridemap.WithBiomes(biomes),
				ridemap.WithLogger(logger),
			)
			run := gen.NewRun(cfg)
			if validate {
				if err := ridemap.Validate(run); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}
	cmd.Flags().Float64Var(&km, "km", 100, "target total distance in kilometers")
	cmd.Flags().StringVar(&difficulty, "difficulty", "normal", "difficulty tier (easy, normal, hard)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for a reproducible map")
	cmd.Flags().BoolVar(&validate, "validate", true, "check graph invariants before printing")
	return cmd
}

func newProfileCmd(root *rootOptions) *cobra.Command {
	var (
		km       float64
		maxGrade float64
		surface  string
		step     float64
		seed     int64
		invert   bool
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Synthesize a single terrain profile and print elevation samples as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if km <= 0 {
				return fmt.Errorf("--km must be positive")
			}
			s := ridemap.Surface(surface)
			if !s.Valid() {
				return fmt.Errorf("--surface: unknown surface %q", surface)
			}

			p := ridemap.Synthesize(source(cmd, seed), km, maxGrade, s)
			if invert {
				p = ridemap.Invert(p)
			}

			out := cmd.OutOrStdout()
			sum := ridemap.Summarize(p)
			fmt.Fprintf(out, "# %d segments, %.1f m, +%.1f/-%.1f m, grade %.3f..%.3f\n",
				sum.Segments, sum.TotalDistanceM, sum.AscentM, sum.DescentM, sum.MinGrade, sum.MaxGrade)
			fmt.Fprintln(out, "distance_m,elevation_m,grade,surface,crr")
			for d, elev := range ridemap.SampleElevation(p, step) {
				sf := ridemap.SurfaceAt(p, d)
				fmt.Fprintf(out, "%.1f,%.2f,%.3f,%s,%.3f\n", d, elev, ridemap.GradeAt(p, d), sf, ridemap.RollingResistance(sf))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&km, "km", 10, "profile length in kilometers")
	cmd.Flags().Float64Var(&maxGrade, "max-grade", 0.05, "maximum grade magnitude as a fraction")
	cmd.Flags().StringVar(&surface, "surface", "", "road surface (asphalt, gravel, dirt, mud)")
	cmd.Flags().Float64Var(&step, "step", 100, "sample spacing in meters")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for a reproducible profile")
	cmd.Flags().BoolVar(&invert, "invert", false, "print the return leg")
	return cmd
}

func newBiomesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "biomes [name]",
		Short: "List the biome table, or show the biome closest to name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := root.biomes()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				b, ok := table.Lookup(args[0])
				if !ok {
					return fmt.Errorf("no biome matches %q", args[0])
				}
				table = ridemap.BiomeTable{b}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCOLOR\tHAZARD SURFACE\tHAZARD GRADE")
			for _, b := range table {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\n", b.Name, b.Color, b.HazardSurface.OrDefault(), b.HazardGrade)
			}
			return tw.Flush()
		},
	}
}
