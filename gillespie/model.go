// Package gillespie runs reaction networks as stochastic jump processes
// with Gillespie's direct method.
package gillespie

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

var (
	// ErrNegativeRate indicates a reaction whose evaluated rate is negative or not finite.
	ErrNegativeRate = errors.New("gillespie: invalid rate")
	// ErrUnknownSpecies indicates a name that is not a species of the model.
	ErrUnknownSpecies = errors.New("gillespie: unknown species")
	// ErrNoReplicates indicates a replicate count below one.
	ErrNoReplicates = errors.New("gillespie: replicate count must be positive")
)

// Reaction is a mass-action step with a numeric rate. Reactants and
// Products list one entry per molecule, so 2A appears twice.
type Reaction struct {
	Name      string
	Rate      float64
	Reactants []string
	Products  []string
}

// Model is a stochastic reaction system with integer initial counts.
type Model struct {
	Species   []string
	Initial   map[string]int64
	Reactions []Reaction
}

// FromNetwork evaluates every rate of n with the resolved parameter values
// and truncates the resolved initial amounts to counts. Terms on linked
// constants are folded into the rate.
func FromNetwork(n *reaction.Network, values reaction.Values) (*Model, error) {
	c, err := reaction.Compile(n)
	if err != nil {
		return nil, err
	}
	res, err := c.NewResolver(values)
	if err != nil {
		return nil, err
	}

	m := &Model{Initial: make(map[string]int64, len(c.Variables))}
	for _, v := range c.Variables {
		x, err := res.Value(v.Name())
		if err != nil {
			return nil, fmt.Errorf("initial %s: %w", v.Name(), err)
		}
		m.Species = append(m.Species, v.Name())
		m.Initial[v.Name()] = int64(math.Trunc(x))
	}

	expand := func(ts []reaction.Term, rate *float64) ([]string, error) {
		var out []string
		for _, t := range ts {
			q, ok := c.Quantity(t.Species.Name())
			if !ok {
				return nil, &reaction.UnknownQuantityError{Name: t.Species.Name(), Network: c.Name}
			}
			if q.Kind != reaction.Species {
				x, err := res.Value(q.Name())
				if err != nil {
					return nil, err
				}
				*rate *= math.Pow(x, float64(t.Stoichiometry))
				continue
			}
			for i := 0; i < t.Stoichiometry; i++ {
				out = append(out, q.Name())
			}
		}
		return out, nil
	}
	for _, r := range c.Reactions {
		rate, err := symbolic.Evaluate(r.Rate, res.Value)
		if err != nil {
			return nil, fmt.Errorf("rate of %s: %w", r.Name, err)
		}
		rx := Reaction{Name: r.Name}
		if rx.Reactants, err = expand(r.Reactants, &rate); err != nil {
			return nil, fmt.Errorf("reactants of %s: %w", r.Name, err)
		}
		discard := 1.0
		if rx.Products, err = expand(r.Products, &discard); err != nil {
			return nil, fmt.Errorf("products of %s: %w", r.Name, err)
		}
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("%w: %s has rate %g", ErrNegativeRate, r.Name, rate)
		}
		rx.Rate = rate
		m.Reactions = append(m.Reactions, rx)
	}
	return m, nil
}

// ReplicateOptions selects the species cloned by Replicate.
type ReplicateOptions struct {
	// Prefix selects species named Prefix + "." + rest.
	Prefix string
	// Name returns the prefix of replica i. The default is Prefix_i.
	Name func(i int) string
	// Count is the number of replicas.
	Count int
	// Divide splits each cloned initial count evenly over the replicas,
	// truncating, instead of copying it.
	Divide bool
}

// Replicate clones the species under opts.Prefix into opts.Count copies.
// Reactions touching any cloned species are duplicated per replica; other
// reactions are kept once.
func Replicate(m *Model, opts ReplicateOptions) (*Model, error) {
	if opts.Count < 1 {
		return nil, ErrNoReplicates
	}
	name := opts.Name
	if name == nil {
		name = func(i int) string { return opts.Prefix + "_" + strconv.Itoa(i) }
	}
	from := opts.Prefix + "."
	rename := func(s string, i int) string {
		if rest, ok := strings.CutPrefix(s, from); ok {
			return name(i) + "." + rest
		}
		return s
	}
	inLoop := func(s string) bool { return strings.HasPrefix(s, from) }

	out := &Model{Initial: make(map[string]int64, len(m.Initial))}
	for _, s := range m.Species {
		if !inLoop(s) {
			out.Species = append(out.Species, s)
			out.Initial[s] = m.Initial[s]
			continue
		}
		v := m.Initial[s]
		if opts.Divide {
			v /= int64(opts.Count)
		}
		for i := 0; i < opts.Count; i++ {
			r := rename(s, i)
			out.Species = append(out.Species, r)
			out.Initial[r] = v
		}
	}

	renameAll := func(ss []string, i int) []string {
		if len(ss) == 0 {
			return nil
		}
		res := make([]string, len(ss))
		for j, s := range ss {
			res[j] = rename(s, i)
		}
		return res
	}
	for _, r := range m.Reactions {
		touches := false
		for _, s := range append(append([]string(nil), r.Reactants...), r.Products...) {
			if inLoop(s) {
				touches = true
				break
			}
		}
		if !touches {
			out.Reactions = append(out.Reactions, r)
			continue
		}
		for i := 0; i < opts.Count; i++ {
			out.Reactions = append(out.Reactions, Reaction{
				Name:      rename(r.Name, i),
				Rate:      r.Rate,
				Reactants: renameAll(r.Reactants, i),
				Products:  renameAll(r.Products, i),
			})
		}
	}
	return out, nil
}
