package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/config"
	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/plot"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
	"github.com/njchilds90/apoptosim/table"
)

var (
	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Integrate the configured model and write the trajectory as CSV",
		Long: `Integrates simulation.t_end seconds of the configured model. The catalog
model arm_loop replicates the mitochondrion --replicates times; a YAML
main/loop pair from model.main and model.loop is solved the same way.`,
		Args: cobra.NoArgs,
		RunE: runSolve,
	}

	solveModel      string
	solveReplicates int
	solveOutput     string
	solveCSV        string
	solvePlot       string
	solveColumns    []string
	solveLogY       bool
)

func init() {
	solveCmd.Flags().StringVarP(&solveModel, "model", "m", "", "Catalog model, overrides model.name")
	solveCmd.Flags().IntVarP(&solveReplicates, "replicates", "n", -1, "Loop replicates, overrides simulation.replicates")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "", "Loop output policy: ignore, sum or index_as_suffix")
	solveCmd.Flags().StringVar(&solveCSV, "csv", "", "Write CSV here instead of stdout")
	solveCmd.Flags().StringVar(&solvePlot, "plot", "", "Also render a PNG chart to this file")
	solveCmd.Flags().StringSliceVar(&solveColumns, "columns", nil, "Columns to write and plot (default all)")
	solveCmd.Flags().BoolVar(&solveLogY, "log-y", false, "Plot log10(1 + amount)")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	sim := cfg.Simulation
	if solveReplicates >= 0 {
		sim.Replicates = solveReplicates
	}
	if solveOutput != "" {
		sim.Output = solveOutput
	}
	if solveModel != "" {
		cfg.Model.Name, cfg.Model.Main, cfg.Model.Loop = solveModel, "", ""
	}
	solver, ok := ode.ByName(sim.Solver)
	if !ok {
		return fmt.Errorf("unknown solver %q", sim.Solver)
	}

	start := time.Now()
	var (
		tb  *table.Table
		err error
	)
	switch {
	case cfg.Model.Main != "" && cfg.Model.Loop != "":
		tb, err = solveLoopFiles(cmd, sim, solver)
	case cfg.Model.Main != "":
		var n *reaction.Network
		n, err = reaction.LoadYAMLFile(cfg.Model.Main)
		if err == nil {
			tb, err = loop.SolveAlone(cmd.Context(), n, sim.Values, sim.SaveTimes(), solver, sim.ODEOptions())
		}
	default:
		tb, err = models.Solve(cmd.Context(), models.Request{
			Model:        cfg.Model.Name,
			Mitochondria: cfg.Model.Mitochondria,
			Values:       sim.Values,
			LoopValues:   sim.LoopValues,
			Replicates:   sim.Replicates,
			SaveAt:       sim.SaveTimes(),
			Output:       sim.Output,
			Solver:       sim.Solver,
			Options:      sim.ODEOptions(),
		}, loop.WithLogger(slog.Default()))
	}
	if err != nil {
		return err
	}
	slog.Info("solve finished",
		slog.Int("rows", tb.Len()),
		slog.Int("columns", len(tb.Columns)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if len(solveColumns) > 0 {
		if tb, err = tb.Select(solveColumns...); err != nil {
			return err
		}
	}
	if err := writeCSV(cmd.OutOrStdout(), tb); err != nil {
		return err
	}
	if solvePlot != "" {
		return writePlot(tb)
	}
	return nil
}

func solveLoopFiles(cmd *cobra.Command, sim config.SimulationConfig, solver *ode.Solver) (*table.Table, error) {
	top, err := reaction.LoadYAMLFile(cfg.Model.Main)
	if err != nil {
		return nil, err
	}
	body, err := reaction.LoadYAMLFile(cfg.Model.Loop)
	if err != nil {
		return nil, err
	}
	shared := make([]*symbolic.Sym, len(cfg.Model.Shared))
	for i, name := range cfg.Model.Shared {
		shared[i] = symbolic.S(name)
	}
	s, err := loop.New(top, body, shared, loop.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	return s.Solve(cmd.Context(), loop.SolveOptions{
		MainValues: sim.Values,
		LoopValues: sim.LoopValues,
		Replicates: sim.Replicates,
		SaveAt:     sim.SaveTimes(),
		Solver:     solver,
		Options:    sim.ODEOptions(),
		Output:     loop.Policy(sim.Output),
	})
}

func writeCSV(stdout io.Writer, tb *table.Table) error {
	if solveCSV == "" {
		return tb.WriteCSV(stdout)
	}
	f, err := os.Create(solveCSV)
	if err != nil {
		return err
	}
	if err := tb.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePlot(tb *table.Table) error {
	f, err := os.Create(solvePlot)
	if err != nil {
		return err
	}
	title := cfg.Model.Name
	if cfg.Model.Main != "" {
		title = cfg.Model.Main
	}
	if err := plot.Render(f, tb, nil, plot.Options{Title: title, LogY: solveLogY}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
