package ode

import (
	"context"
	"math"
)

// Solve integrates prob over prob.TSpan. A nil solver selects
// DormandPrince and nil options select DefaultOptions. Errors returned by
// prob.F are passed back unchanged; integrator failures are StepErrors.
func Solve(ctx context.Context, prob *Problem, solver *Solver, opts *Options) (*Solution, error) {
	if solver == nil {
		solver = DormandPrince()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	t0, tf := prob.TSpan[0], prob.TSpan[1]
	if math.IsNaN(t0) || math.IsInf(t0, 0) || math.IsNaN(tf) || math.IsInf(tf, 0) || tf < t0 {
		return nil, ErrInvalidSpan
	}
	save := opts.SaveAt
	for i, s := range save {
		if s < t0 || s > tf || (i > 0 && s < save[i-1]) {
			return nil, ErrSaveAtOrder
		}
	}
	if !finite(prob.Y0) {
		return nil, ErrInvalidState
	}

	in := newIntegrator(prob, solver, opts)
	if err := in.eval(t0, in.y, in.k[0]); err != nil {
		return nil, err
	}
	if !finite(in.k[0]) {
		return nil, &StepError{Time: t0, Err: ErrInvalidState}
	}

	sol := &Solution{}
	record := func(t float64, y []float64) {
		sol.T = append(sol.T, t)
		sol.Y = append(sol.Y, append([]float64(nil), y...))
	}
	si := 0
	if len(save) == 0 {
		record(t0, in.y)
	}
	for si < len(save) && save[si] == t0 {
		record(t0, in.y)
		si++
	}
	if tf == t0 {
		sol.Stats = in.stats
		return sol, nil
	}

	h := opts.InitialStep
	if h <= 0 {
		var err error
		if h, err = in.initialStep(t0); err != nil {
			return nil, err
		}
	}
	maxStep := opts.MaxStep
	if maxStep <= 0 {
		maxStep = tf - t0
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultOptions().MaxSteps
	}

	t := t0
	last := solver.Stages() - 1
	for t < tf {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.stats.Steps+in.stats.Rejected >= maxSteps {
			return nil, &StepError{Step: in.stats.Steps, Time: t, Err: ErrMaxSteps}
		}
		h = math.Min(h, maxStep)
		final := false
		if t+h >= tf || tf-(t+h) < in.minStep(tf, 0) {
			h = tf - t
			final = true
		}
		if !final && h < in.minStep(t, opts.MinStep) {
			return nil, &StepError{Step: in.stats.Steps, Time: t, Err: ErrStepTooSmall}
		}

		errNorm, err := in.step(t, h)
		if err != nil {
			return nil, err
		}
		if errNorm > 1 || math.IsNaN(errNorm) {
			in.stats.Rejected++
			if math.IsNaN(errNorm) {
				h *= 0.2
			} else {
				h *= math.Max(0.2, 0.9*math.Pow(errNorm, -1/float64(solver.Order)))
			}
			if h < in.minStep(t, opts.MinStep) {
				return nil, &StepError{Step: in.stats.Steps, Time: t, Err: ErrStepTooSmall}
			}
			continue
		}
		if !finite(in.ynew) {
			return nil, &StepError{Step: in.stats.Steps, Time: t + h, Err: ErrInvalidState}
		}

		tnew := t + h
		if final {
			tnew = tf
		}
		fnew := in.k[last]
		if !solver.FSAL {
			if err := in.eval(tnew, in.ynew, in.fnew); err != nil {
				return nil, err
			}
			fnew = in.fnew
		}
		if len(save) == 0 {
			record(tnew, in.ynew)
		}
		for si < len(save) && save[si] <= tnew {
			if save[si] == tnew {
				record(tnew, in.ynew)
			} else {
				record(save[si], in.hermite(t, tnew, fnew, save[si]))
			}
			si++
		}

		t = tnew
		in.accept(fnew)
		in.stats.Steps++

		factor := 5.0
		if errNorm > 0 {
			factor = math.Min(5, math.Max(0.2, 0.9*math.Pow(errNorm, -1/float64(solver.Order))))
		}
		h *= factor
	}
	sol.Stats = in.stats
	return sol, nil
}

type integrator struct {
	prob   *Problem
	solver *Solver
	rtol   float64
	atol   float64

	y, ynew, ytmp, fnew, dense []float64
	k                          [][]float64
	stats                      Stats
}

func newIntegrator(prob *Problem, solver *Solver, opts *Options) *integrator {
	n := len(prob.Y0)
	in := &integrator{
		prob:   prob,
		solver: solver,
		rtol:   opts.RTol,
		atol:   opts.ATol,
		y:      append([]float64(nil), prob.Y0...),
		ynew:   make([]float64, n),
		ytmp:   make([]float64, n),
		fnew:   make([]float64, n),
		dense:  make([]float64, n),
		k:      make([][]float64, solver.Stages()),
	}
	for i := range in.k {
		in.k[i] = make([]float64, n)
	}
	return in
}

func (in *integrator) eval(t float64, y, dy []float64) error {
	in.stats.Evaluations++
	return in.prob.F(t, y, in.prob.P, dy)
}

// step computes all stages from (t, y) with step h, leaves the propagated
// solution in ynew and returns the RMS norm of the scaled error estimate.
func (in *integrator) step(t, h float64) (float64, error) {
	s := in.solver
	for st := 1; st < s.Stages(); st++ {
		for i := range in.y {
			acc := 0.0
			for j, a := range s.A[st] {
				acc += a * in.k[j][i]
			}
			in.ytmp[i] = in.y[i] + h*acc
		}
		if err := in.eval(t+s.C[st]*h, in.ytmp, in.k[st]); err != nil {
			return 0, err
		}
	}
	sum := 0.0
	for i := range in.y {
		acc, est := 0.0, 0.0
		for j := range s.B {
			acc += s.B[j] * in.k[j][i]
			est += (s.B[j] - s.Bhat[j]) * in.k[j][i]
		}
		in.ynew[i] = in.y[i] + h*acc
		sc := in.atol + in.rtol*math.Max(math.Abs(in.y[i]), math.Abs(in.ynew[i]))
		if sc == 0 {
			sc = math.SmallestNonzeroFloat64
		}
		e := h * est / sc
		sum += e * e
	}
	if len(in.y) == 0 {
		return 0, nil
	}
	return math.Sqrt(sum / float64(len(in.y))), nil
}

// accept moves ynew into y and fnew into the first stage.
func (in *integrator) accept(fnew []float64) {
	in.y, in.ynew = in.ynew, in.y
	copy(in.k[0], fnew)
}

// hermite interpolates between (t0, y, k[0]) and (t1, ynew, f1).
func (in *integrator) hermite(t0, t1 float64, f1 []float64, s float64) []float64 {
	h := t1 - t0
	th := (s - t0) / h
	th2, th3 := th*th, th*th*th
	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2
	for i := range in.dense {
		in.dense[i] = h00*in.y[i] + h10*h*in.k[0][i] + h01*in.ynew[i] + h11*h*f1[i]
	}
	return in.dense
}

// initialStep picks a first step from the scale of y and its derivative.
func (in *integrator) initialStep(t0 float64) (float64, error) {
	n := len(in.y)
	span := in.prob.TSpan[1] - in.prob.TSpan[0]
	if n == 0 {
		return span, nil
	}
	sc := make([]float64, n)
	for i, v := range in.y {
		sc[i] = in.atol + in.rtol*math.Abs(v)
		if sc[i] == 0 {
			sc[i] = 1e-12
		}
	}
	d0 := rmsScaled(in.y, sc)
	d1 := rmsScaled(in.k[0], sc)
	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)
	for i := range in.y {
		in.ytmp[i] = in.y[i] + h0*in.k[0][i]
	}
	if err := in.eval(t0+h0, in.ytmp, in.fnew); err != nil {
		return 0, err
	}
	for i := range in.dense {
		in.dense[i] = in.fnew[i] - in.k[0][i]
	}
	d2 := rmsScaled(in.dense, sc) / h0
	var h1 float64
	if m := math.Max(d1, d2); m <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/m, 1/float64(in.solver.Order))
	}
	return math.Min(math.Min(100*h0, h1), span), nil
}

func (in *integrator) minStep(t, floor float64) float64 {
	return math.Max(floor, 16*epsilon*math.Max(math.Abs(t), 1))
}

const epsilon = 2.220446049250313e-16

func rmsScaled(v, sc []float64) float64 {
	sum := 0.0
	for i, x := range v {
		r := x / sc[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
