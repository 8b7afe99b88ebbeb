package reaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/apoptosim/symbolic"
)

// Values overrides quantity values by qualified name.
type Values map[string]float64

// Resolver evaluates quantity values for one compiled system. Overrides win
// over defaults; defaults are evaluated lazily and memoized.
type Resolver struct {
	c        *Compiled
	values   Values
	memo     map[string]float64
	visiting map[string]bool
	stack    []string
}

// NewResolver validates the override names against c.
func (c *Compiled) NewResolver(values Values) (*Resolver, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := c.quantities[name]; !ok {
			return nil, &UnknownQuantityError{Name: name, Network: c.Name}
		}
	}
	return &Resolver{
		c:        c,
		values:   values,
		memo:     map[string]float64{},
		visiting: map[string]bool{},
	}, nil
}

// Value returns the resolved value of the named quantity.
func (r *Resolver) Value(name string) (float64, error) {
	if v, ok := r.values[name]; ok {
		return v, nil
	}
	if v, ok := r.memo[name]; ok {
		return v, nil
	}
	q, ok := r.c.quantities[name]
	if !ok {
		return 0, &UnknownQuantityError{Name: name, Network: r.c.Name}
	}
	if r.visiting[name] {
		return 0, fmt.Errorf("%w: %s -> %s", ErrCyclicDefault, strings.Join(r.stack, " -> "), name)
	}
	if q.Default == nil {
		if q.Kind == Species {
			r.memo[name] = 0
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s %q", ErrMissingValue, q.Kind, name)
	}
	r.visiting[name] = true
	r.stack = append(r.stack, name)
	v, err := symbolic.Evaluate(q.Default, r.Value)
	r.stack = r.stack[:len(r.stack)-1]
	delete(r.visiting, name)
	if err != nil {
		return 0, err
	}
	r.memo[name] = v
	return v, nil
}

// Vector resolves the given symbols in order.
func (r *Resolver) Vector(syms []*symbolic.Sym) ([]float64, error) {
	out := make([]float64, len(syms))
	for i, s := range syms {
		v, err := r.Value(s.Name())
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", s.Name(), err)
		}
		out[i] = v
	}
	return out, nil
}

// Resolve evaluates the wanted quantities under the given overrides.
func (c *Compiled) Resolve(values Values, wanted []*symbolic.Sym) ([]float64, error) {
	r, err := c.NewResolver(values)
	if err != nil {
		return nil, err
	}
	return r.Vector(wanted)
}

// Initials returns the initial state and parameter vectors in slot order.
func (c *Compiled) Initials(values Values) (y, p []float64, err error) {
	r, err := c.NewResolver(values)
	if err != nil {
		return nil, nil, err
	}
	if y, err = r.Vector(c.Variables); err != nil {
		return nil, nil, err
	}
	if p, err = r.Vector(c.Parameters); err != nil {
		return nil, nil, err
	}
	return y, p, nil
}
