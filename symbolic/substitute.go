package symbolic

import (
	"fmt"
	"math"
)

// Mapping maps symbol names to their replacements.
type Mapping map[string]Expr

// UnresolvedSymbolError reports a free symbol that a rewrite or an evaluation
// could not resolve.
type UnresolvedSymbolError struct {
	Name string
}

func (e *UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("symbolic: unresolved symbol %q", e.Name)
}

// Substitute replaces every symbol in e by its mapping entry. The mapping
// must cover every free symbol; partial substitution is refused and the
// first missing name, in lexical order, is reported.
func Substitute(e Expr, m Mapping) (Expr, error) {
	for _, name := range SortedFreeSymbols(e) {
		if r, ok := m[name]; !ok || r == nil {
			return nil, &UnresolvedSymbolError{Name: name}
		}
	}
	return replace(e, m), nil
}

func replace(e Expr, m Mapping) Expr {
	switch v := e.(type) {
	case *Sym:
		return m[v.name]
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = replace(t, m)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = replace(f, m)
		}
		return MulOf(factors...)
	case *Pow:
		return PowOf(replace(v.base, m), replace(v.exp, m))
	}
	return e
}

// Render returns the textual formula of e.
func Render(e Expr) string { return e.String() }

// Evaluate computes e in float64, resolving symbols through lookup.
// Slots cannot be evaluated without an Env and are rejected.
func Evaluate(e Expr, lookup func(name string) (float64, error)) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Sym:
		return lookup(v.name)
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			x, err := Evaluate(t, lookup)
			if err != nil {
				return 0, err
			}
			acc += x
		}
		return acc, nil
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			x, err := Evaluate(f, lookup)
			if err != nil {
				return 0, err
			}
			acc *= x
		}
		return acc, nil
	case *Pow:
		b, err := Evaluate(v.base, lookup)
		if err != nil {
			return 0, err
		}
		x, err := Evaluate(v.exp, lookup)
		if err != nil {
			return 0, err
		}
		return math.Pow(b, x), nil
	}
	return 0, fmt.Errorf("symbolic: cannot evaluate %s %s without an environment", e.exprType(), e)
}
