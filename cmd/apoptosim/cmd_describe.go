package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

var (
	describeCmd = &cobra.Command{
		Use:   "describe",
		Short: "Print the compiled program of the configured model",
		Args:  cobra.NoArgs,
		RunE:  runDescribe,
	}

	describeLaTeX bool
)

func init() {
	describeCmd.Flags().BoolVar(&describeLaTeX, "latex", false, "Print the rate equations as LaTeX instead")
}

func runDescribe(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if cfg.Model.Main != "" {
		top, err := reaction.LoadYAMLFile(cfg.Model.Main)
		if err != nil {
			return err
		}
		if cfg.Model.Loop == "" {
			return describeNetwork(w, top)
		}
		body, err := reaction.LoadYAMLFile(cfg.Model.Loop)
		if err != nil {
			return err
		}
		shared := make([]*symbolic.Sym, len(cfg.Model.Shared))
		for i, name := range cfg.Model.Shared {
			shared[i] = symbolic.S(name)
		}
		sim, err := loop.New(top, body, shared, loop.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		return describeProgram(w, sim)
	}

	n, sim, err := models.Build(cfg.Model.Name, cfg.Model.Mitochondria, loop.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	if sim != nil {
		return describeProgram(w, sim)
	}
	return describeNetwork(w, n)
}

func describeNetwork(w io.Writer, n *reaction.Network) error {
	c, err := reaction.Compile(n)
	if err != nil {
		return err
	}
	if describeLaTeX {
		return writeLaTeX(w, c)
	}
	sys, err := loop.Standalone(c)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, sys.Source())
	return err
}

func describeProgram(w io.Writer, sim *loop.Simulator) error {
	if describeLaTeX {
		top, body := sim.Systems()
		if err := writeLaTeX(w, top); err != nil {
			return err
		}
		return writeLaTeX(w, body)
	}
	_, err := io.WriteString(w, sim.Program().System.Source())
	return err
}

func writeLaTeX(w io.Writer, c *reaction.Compiled) error {
	fmt.Fprintf(w, "%% %s\n\\begin{align}\n", c.Name)
	for i, v := range c.Variables {
		sep := ` \\`
		if i == len(c.Variables)-1 {
			sep = ""
		}
		fmt.Fprintf(w, "\\frac{d\\,%s}{dt} &= %s%s\n", symbolic.LaTeX(v), symbolic.LaTeX(c.Equations[i]), sep)
	}
	_, err := fmt.Fprintln(w, `\end{align}`)
	return err
}
