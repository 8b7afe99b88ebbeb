package ode

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decay(t float64, y, p, dy []float64) error {
	dy[0] = -p[0] * y[0]
	return nil
}

func TestSolve_ExponentialDecay(t *testing.T) {
	for _, solver := range []*Solver{DormandPrince(), BogackiShampine()} {
		t.Run(solver.Name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.RTol, opts.ATol = 1e-10, 1e-12
			opts.SaveAt = []float64{0, 0.25, 0.5, 1, 2}
			prob := &Problem{F: decay, TSpan: [2]float64{0, 2}, Y0: []float64{1}, P: []float64{1.5}}

			sol, err := Solve(context.Background(), prob, solver, opts)
			require.NoError(t, err)
			require.Equal(t, opts.SaveAt, sol.T)
			for i, tt := range sol.T {
				assert.InDelta(t, math.Exp(-1.5*tt), sol.Y[i][0], 1e-6, "t=%g", tt)
			}
			assert.Greater(t, sol.Stats.Steps, 0)
		})
	}
}

func TestSolve_LinearGrowthIsExact(t *testing.T) {
	f := func(t float64, y, p, dy []float64) error {
		dy[0] = 1
		return nil
	}
	save := []float64{0, 0.1, 0.3, 0.7, 1}
	sol, err := Solve(context.Background(), &Problem{F: f, TSpan: [2]float64{0, 1}, Y0: []float64{2}},
		nil, &Options{RTol: 1e-6, ATol: 1e-9, SaveAt: save})
	require.NoError(t, err)
	for i, tt := range save {
		assert.InDelta(t, 2+tt, sol.Y[i][0], 1e-12)
	}
}

func TestSolve_SaveEveryStep(t *testing.T) {
	prob := &Problem{F: decay, TSpan: [2]float64{0, 3}, Y0: []float64{1}, P: []float64{1}}
	sol, err := Solve(context.Background(), prob, nil, nil)
	require.NoError(t, err)
	require.Greater(t, len(sol.T), 2)
	assert.Equal(t, 0.0, sol.T[0])
	assert.Equal(t, 3.0, sol.T[len(sol.T)-1])
	assert.InDelta(t, math.Exp(-3), sol.Final()[0], 1e-6)
	assert.Len(t, sol.Column(0), len(sol.T))
}

func TestSolve_Errors(t *testing.T) {
	ctx := context.Background()
	prob := &Problem{F: decay, TSpan: [2]float64{0, 1}, Y0: []float64{1}, P: []float64{1}}

	_, err := Solve(ctx, prob, nil, &Options{SaveAt: []float64{0.5, 0.2}})
	assert.ErrorIs(t, err, ErrSaveAtOrder)

	_, err = Solve(ctx, prob, nil, &Options{SaveAt: []float64{2}})
	assert.ErrorIs(t, err, ErrSaveAtOrder)

	_, err = Solve(ctx, &Problem{F: decay, TSpan: [2]float64{1, 0}, Y0: []float64{1}, P: []float64{1}}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSpan)

	_, err = Solve(ctx, prob, nil, &Options{RTol: 1e-6, ATol: 1e-9, MaxStep: 1e-3, MaxSteps: 3})
	assert.ErrorIs(t, err, ErrMaxSteps)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 3, stepErr.Step)

	nan := func(t float64, y, p, dy []float64) error {
		dy[0] = math.NaN()
		return nil
	}
	_, err = Solve(ctx, &Problem{F: nan, TSpan: [2]float64{0, 1}, Y0: []float64{1}}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSolve_DerivativeErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	f := func(t float64, y, p, dy []float64) error {
		calls++
		if calls > 3 {
			return boom
		}
		dy[0] = 1
		return nil
	}
	_, err := Solve(context.Background(), &Problem{F: f, TSpan: [2]float64{0, 1}, Y0: []float64{0}}, nil, nil)
	assert.Same(t, boom, err)
}

func TestSolve_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prob := &Problem{F: decay, TSpan: [2]float64{0, 1}, Y0: []float64{1}, P: []float64{1}}
	_, err := Solve(ctx, prob, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolve_EmptyState(t *testing.T) {
	f := func(t float64, y, p, dy []float64) error { return nil }
	sol, err := Solve(context.Background(), &Problem{F: f, TSpan: [2]float64{0, 1}},
		nil, &Options{SaveAt: []float64{0, 0.5, 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, sol.T)
	for _, y := range sol.Y {
		assert.Empty(t, y)
	}
}

func TestByName(t *testing.T) {
	s, ok := ByName("bs3")
	require.True(t, ok)
	assert.Equal(t, "BogackiShampine", s.Name)
	_, ok = ByName("euler")
	assert.False(t, ok)
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Linspace[%d] = %g, want %g", i, got[i], want[i])
		}
	}
	if got := Linspace(0, 3, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("Linspace(0, 3, 1) = %v", got)
	}
	if got := Linspace(0, 3, 0); got != nil {
		t.Errorf("Linspace(0, 3, 0) = %v, want nil", got)
	}
}
