// Package ode integrates initial value problems y' = f(t, y, p) with
// embedded explicit Runge-Kutta pairs and adaptive step-size control.
package ode

import (
	"errors"
	"fmt"
)

// Func writes the derivative of y at time t into dy. The parameter vector p
// is passed through unchanged on every call.
type Func func(t float64, y, p, dy []float64) error

// Problem is an initial value problem.
type Problem struct {
	F     Func
	TSpan [2]float64
	Y0    []float64
	P     []float64
}

// Solution holds the state at each saved time.
type Solution struct {
	T     []float64   // Saved time points
	Y     [][]float64 // Y[i] is the state at T[i]
	Stats Stats
}

// Stats counts integrator work.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

// Column returns the time series of state component i.
func (s *Solution) Column(i int) []float64 {
	out := make([]float64, len(s.Y))
	for k, y := range s.Y {
		out[k] = y[i]
	}
	return out
}

// Final returns the last saved state.
func (s *Solution) Final() []float64 {
	if len(s.Y) == 0 {
		return nil
	}
	return s.Y[len(s.Y)-1]
}

// Options contains solver configuration parameters.
type Options struct {
	RTol        float64   // Relative error tolerance
	ATol        float64   // Absolute error tolerance
	InitialStep float64   // First step; 0 selects one automatically
	MaxStep     float64   // Upper bound on the step; 0 means the span length
	MinStep     float64   // Steps below this fail with ErrStepTooSmall
	MaxSteps    int       // Accepted plus rejected steps before ErrMaxSteps
	SaveAt      []float64 // Output times; empty saves every accepted step
}

// DefaultOptions returns default solver options.
func DefaultOptions() *Options {
	return &Options{
		RTol:     1e-6,
		ATol:     1e-9,
		MaxSteps: 1_000_000,
	}
}

var (
	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("ode: step size below minimum")

	// ErrMaxSteps indicates the step budget was exhausted before the end of the span.
	ErrMaxSteps = errors.New("ode: maximum number of steps exceeded")

	// ErrInvalidState indicates a NaN or Inf in the state or its derivative.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")

	// ErrSaveAtOrder indicates save points that are unsorted or outside the span.
	ErrSaveAtOrder = errors.New("ode: save points must be sorted and inside the time span")

	// ErrInvalidSpan indicates a time span that runs backwards or is not finite.
	ErrInvalidSpan = errors.New("ode: invalid time span")
)

// StepError wraps an integrator failure with the time and step at which it
// happened.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d at t=%g: %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Linspace returns n evenly spaced points from a to b inclusive. One
// point yields b alone.
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{b}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = a + (b-a)*float64(i)/float64(n-1)
	}
	out[n-1] = b
	return out
}
