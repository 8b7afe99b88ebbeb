package models

import (
	"context"
	"fmt"

	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/table"
)

// Request is a deterministic solve of a catalog model.
type Request struct {
	Model string `json:"model" yaml:"model" validate:"required"`

	// Mitochondria is the nesting depth of the arm model.
	Mitochondria int `json:"mitochondria" yaml:"mitochondria" validate:"gte=0"`

	Values     reaction.Values `json:"values,omitempty" yaml:"values,omitempty"`
	LoopValues loop.LoopValues `json:"loop_values,omitempty" yaml:"loop_values,omitempty"`
	Replicates int             `json:"replicates,omitempty" yaml:"replicates,omitempty" validate:"gte=0"`

	SaveAt []float64 `json:"save_at" yaml:"save_at" validate:"required,min=1"`
	Output string    `json:"output,omitempty" yaml:"output,omitempty"`
	Solver string    `json:"solver,omitempty" yaml:"solver,omitempty"`

	Options *ode.Options `json:"-" yaml:"-"`
}

// Solve runs req. Loop models fill in the mitochondrial volume and
// translocation rate from the cell values when the request leaves them
// out, so that N loop replicates reproduce the nested arm model with N
// mitochondria.
func Solve(ctx context.Context, req Request, opts ...loop.Option) (*table.Table, error) {
	solver, ok := ode.ByName(req.Solver)
	if !ok {
		return nil, fmt.Errorf("models: unknown solver %q", req.Solver)
	}
	n, sim, err := Build(req.Model, req.Mitochondria, opts...)
	if err != nil {
		return nil, err
	}
	if sim == nil {
		return loop.SolveAlone(ctx, n, req.Values, req.SaveAt, solver, req.Options)
	}

	loopValues, err := defaultLoopValues(req)
	if err != nil {
		return nil, err
	}
	return sim.Solve(ctx, loop.SolveOptions{
		MainValues: req.Values,
		LoopValues: loopValues,
		Replicates: req.Replicates,
		SaveAt:     req.SaveAt,
		Solver:     solver,
		Options:    req.Options,
		Output:     loop.Policy(req.Output),
	})
}

func defaultLoopValues(req Request) (loop.LoopValues, error) {
	count, err := loop.ReplicateCount(req.LoopValues, req.Replicates)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return req.LoopValues, nil
	}
	volume, fraction := 1.0, AlbeckVolumeFraction
	if v, ok := req.Values["volume"]; ok {
		volume = v
	}
	if f, ok := req.Values["mitochondria_volume_fraction"]; ok {
		fraction = f
	}
	out := MitochondriaValues(volume, fraction, count)
	for name, o := range req.LoopValues {
		out[name] = o
	}
	return out, nil
}

// Source renders the compiled right-hand side of a catalog model as
// program text.
func Source(name string, mitochondria int, opts ...loop.Option) (string, error) {
	n, sim, err := Build(name, mitochondria, opts...)
	if err != nil {
		return "", err
	}
	if sim != nil {
		return sim.Program().System.Source(), nil
	}
	c, err := reaction.Compile(n)
	if err != nil {
		return "", err
	}
	sys, err := loop.Standalone(c)
	if err != nil {
		return "", err
	}
	return sys.Source(), nil
}
