package symbolic

import (
	"fmt"
	"math"
)

// Env is the evaluation environment of a compiled expression: the current
// time, the state and parameter vectors, and the offsets of the replicate
// being evaluated.
type Env struct {
	T       float64
	Y       []float64
	P       []float64
	YOffset int
	POffset int
}

// EvalFunc evaluates a compiled expression against an Env.
type EvalFunc func(env *Env) float64

// Compile turns a fully substituted expression into a closure tree. Slot
// arithmetic is resolved here once so that each evaluation is a plain walk
// over closures.
func Compile(e Expr) (EvalFunc, error) {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(*Env) float64 { return c }, nil
	case *Sym:
		return nil, &UnresolvedSymbolError{Name: v.name}
	case *Slot:
		return compileSlot(v), nil
	case *Add:
		terms, err := compileAll(v.terms)
		if err != nil {
			return nil, err
		}
		if len(terms) == 2 {
			a, b := terms[0], terms[1]
			return func(env *Env) float64 { return a(env) + b(env) }, nil
		}
		return func(env *Env) float64 {
			acc := 0.0
			for _, t := range terms {
				acc += t(env)
			}
			return acc
		}, nil
	case *Mul:
		factors, err := compileAll(v.factors)
		if err != nil {
			return nil, err
		}
		if len(factors) == 2 {
			a, b := factors[0], factors[1]
			return func(env *Env) float64 { return a(env) * b(env) }, nil
		}
		return func(env *Env) float64 {
			acc := 1.0
			for _, f := range factors {
				acc *= f(env)
			}
			return acc
		}, nil
	case *Pow:
		return compilePow(v)
	}
	return nil, fmt.Errorf("symbolic: cannot compile %s node", e.exprType())
}

func compileAll(es []Expr) ([]EvalFunc, error) {
	out := make([]EvalFunc, len(es))
	for i, e := range es {
		f, err := Compile(e)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func compileSlot(s *Slot) EvalFunc {
	i := s.index
	switch {
	case s.vec == TimeVector:
		return func(env *Env) float64 { return env.T }
	case s.vec == StateVector && s.replicate:
		return func(env *Env) float64 { return env.Y[env.YOffset+i] }
	case s.vec == StateVector:
		return func(env *Env) float64 { return env.Y[i] }
	case s.replicate:
		return func(env *Env) float64 { return env.P[env.POffset+i] }
	default:
		return func(env *Env) float64 { return env.P[i] }
	}
}

func compilePow(p *Pow) (EvalFunc, error) {
	base, err := Compile(p.base)
	if err != nil {
		return nil, err
	}
	if n, ok := p.exp.(*Num); ok && n.IsInteger() {
		switch n.val.Num().Int64() {
		case -1:
			return func(env *Env) float64 { return 1 / base(env) }, nil
		case 2:
			return func(env *Env) float64 { b := base(env); return b * b }, nil
		case -2:
			return func(env *Env) float64 { b := base(env); return 1 / (b * b) }, nil
		}
	}
	exp, err := Compile(p.exp)
	if err != nil {
		return nil, err
	}
	return func(env *Env) float64 { return math.Pow(base(env), exp(env)) }, nil
}
