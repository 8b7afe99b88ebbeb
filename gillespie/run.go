package gillespie

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/njchilds90/apoptosim/table"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apoptosim_gillespie_runs_total",
		Help: "Stochastic runs by result",
	}, []string{"result"})

	eventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apoptosim_gillespie_events_total",
		Help: "Reaction events fired across all stochastic runs",
	})
)

// RunOptions configures one stochastic trajectory.
type RunOptions struct {
	TMax  float64
	Steps int      // the trajectory is sampled at Steps+1 evenly spaced times
	Seed  uint64
	Save  []string // species to report; all when empty
}

type compiled struct {
	rate      float64
	reactants []factor
	delta     []change
}

type factor struct {
	idx  int
	mult int
}

type change struct {
	idx int
	d   int64
}

// Run simulates the model with the direct method. The state at each
// sample time is the state after the last event before it.
func (m *Model) Run(ctx context.Context, opts RunOptions) (tb *table.Table, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		runsTotal.WithLabelValues(result).Inc()
	}()
	if opts.Steps < 1 || opts.TMax <= 0 {
		return nil, fmt.Errorf("gillespie: need TMax > 0 and Steps >= 1, got %g and %d", opts.TMax, opts.Steps)
	}

	index := make(map[string]int, len(m.Species))
	for i, s := range m.Species {
		index[s] = i
	}
	save := opts.Save
	if len(save) == 0 {
		save = m.Species
	}
	cols := make([]int, len(save))
	for i, s := range save {
		j, ok := index[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, s)
		}
		cols[i] = j
	}
	rxns, err := m.compile(index)
	if err != nil {
		return nil, err
	}

	x := make([]int64, len(m.Species))
	for i, s := range m.Species {
		x[i] = m.Initial[s]
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	props := make([]float64, len(rxns))

	tb = table.New(append([]string(nil), save...))
	sample := func(t float64) error {
		row := make([]float64, len(cols))
		for i, j := range cols {
			row[i] = float64(x[j])
		}
		return tb.Append(t, row)
	}

	dt := opts.TMax / float64(opts.Steps)
	next := 0
	t := 0.0
	var events int64
	defer func() { eventsTotal.Add(float64(events)) }()
	for next <= opts.Steps {
		if events&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		total := 0.0
		for i, r := range rxns {
			props[i] = r.propensity(x)
			total += props[i]
		}
		tnext := t
		if total > 0 {
			tnext = t + rng.ExpFloat64()/total
		}
		for next <= opts.Steps && (total == 0 || float64(next)*dt < tnext) {
			if err := sample(float64(next) * dt); err != nil {
				return nil, err
			}
			next++
		}
		if total == 0 || next > opts.Steps {
			break
		}

		u := rng.Float64() * total
		k := len(rxns) - 1
		for i, a := range props {
			if u < a {
				k = i
				break
			}
			u -= a
		}
		for _, c := range rxns[k].delta {
			x[c.idx] += c.d
		}
		t = tnext
		events++
	}
	return tb, nil
}

func (m *Model) compile(index map[string]int) ([]compiled, error) {
	out := make([]compiled, len(m.Reactions))
	for i, r := range m.Reactions {
		net := map[int]int64{}
		mult := map[int]int{}
		var order []int
		for _, s := range r.Reactants {
			j, ok := index[s]
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", ErrUnknownSpecies, s, r.Name)
			}
			if mult[j] == 0 {
				order = append(order, j)
			}
			mult[j]++
			net[j]--
		}
		for _, s := range r.Products {
			j, ok := index[s]
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", ErrUnknownSpecies, s, r.Name)
			}
			if _, seen := net[j]; !seen {
				net[j] = 0
			}
			net[j]++
		}
		c := compiled{rate: r.Rate}
		for _, j := range order {
			c.reactants = append(c.reactants, factor{idx: j, mult: mult[j]})
		}
		for j := range net {
			if net[j] != 0 {
				c.delta = append(c.delta, change{idx: j, d: net[j]})
			}
		}
		out[i] = c
	}
	return out, nil
}

// propensity is rate times the falling factorial n(n-1)...(n-k+1) of each
// reactant count n with multiplicity k.
func (c *compiled) propensity(x []int64) float64 {
	a := c.rate
	for _, f := range c.reactants {
		n := x[f.idx]
		for k := 0; k < f.mult; k++ {
			if n-int64(k) <= 0 {
				return 0
			}
			a *= float64(n - int64(k))
		}
	}
	return a
}
