package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/ensemble"
	"github.com/njchilds90/apoptosim/store"
)

var (
	stochasticCmd = &cobra.Command{
		Use:   "stochastic",
		Short: "Run an ensemble of Gillespie simulations and store the trajectories",
		Long: `Runs the cell with each mitochondria count, volume and seed, storing
the saved species under ARM{count}/{volume}/{seed}. Runs already in the
store are skipped, so an interrupted ensemble resumes where it stopped.`,
		Args: cobra.NoArgs,
		RunE: runStochastic,
	}

	stochasticSeeds   string
	stochasticMito    []int
	stochasticVolumes []float64
	stochasticWorkers int
	stochasticStore   string
	stochasticTMax    float64
	stochasticSteps   int
)

func init() {
	stochasticCmd.Flags().StringVar(&stochasticSeeds, "seeds", "0:10", "Seed range from:to, end exclusive")
	stochasticCmd.Flags().IntSliceVar(&stochasticMito, "mito", []int{1}, "Mitochondria counts")
	stochasticCmd.Flags().Float64SliceVar(&stochasticVolumes, "volumes", []float64{1}, "Cell volumes")
	stochasticCmd.Flags().IntVarP(&stochasticWorkers, "workers", "w", 0, "Concurrent runs, overrides ensemble.workers")
	stochasticCmd.Flags().StringVar(&stochasticStore, "store", "", "Result database directory, overrides store.path")
	stochasticCmd.Flags().Float64Var(&stochasticTMax, "t-max", 0, "Simulated seconds, overrides ensemble.t_max")
	stochasticCmd.Flags().IntVar(&stochasticSteps, "steps", 0, "Samples after t=0, overrides ensemble.steps")
}

// parseSeeds reads "from:to" or a single seed.
func parseSeeds(s string) ([]uint64, error) {
	from, to, found := strings.Cut(s, ":")
	lo, err := strconv.ParseUint(from, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seeds %q: %w", s, err)
	}
	if !found {
		return []uint64{lo}, nil
	}
	hi, err := strconv.ParseUint(to, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seeds %q: %w", s, err)
	}
	if hi <= lo {
		return nil, fmt.Errorf("seeds %q: empty range", s)
	}
	return ensemble.SeedRange(lo, hi), nil
}

func runStochastic(cmd *cobra.Command, _ []string) error {
	seeds, err := parseSeeds(stochasticSeeds)
	if err != nil {
		return err
	}
	ecfg := cfg.Ensemble
	if stochasticWorkers > 0 {
		ecfg.Workers = stochasticWorkers
	}
	if stochasticTMax > 0 {
		ecfg.TMax = stochasticTMax
	}
	if stochasticSteps > 0 {
		ecfg.Steps = stochasticSteps
	}
	scfg := cfg.Store
	if stochasticStore != "" {
		scfg.Path = stochasticStore
	}
	scfg.Logger = slog.Default()

	st, err := store.Open(scfg)
	if err != nil {
		return err
	}
	defer st.Close()

	jobs := ensemble.Grid(seeds, stochasticVolumes, stochasticMito)
	slog.Info("ensemble started", slog.Int("jobs", len(jobs)), slog.Int("workers", ecfg.Workers))
	start := time.Now()
	sum, err := ensemble.NewRunner(st, ecfg, slog.Default()).Run(cmd.Context(), jobs)
	slog.Info("ensemble finished",
		slog.Int64("ran", sum.Ran),
		slog.Int64("skipped", sum.Skipped),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ran %d, skipped %d\n", sum.Ran, sum.Skipped)
	return nil
}
