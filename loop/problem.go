package loop

import (
	"fmt"
	"sort"

	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// Override is a loop value: either one scalar broadcast to every replicate
// or one value per replicate.
type Override struct {
	scalar float64
	values []float64
	seq    bool
}

// Scalar broadcasts x to every replicate.
func Scalar(x float64) Override { return Override{scalar: x} }

// PerReplicate gives replicate i the value xs[i].
func PerReplicate(xs ...float64) Override {
	return Override{values: append([]float64(nil), xs...), seq: true}
}

// IsSequence reports whether the override carries one value per replicate.
func (o Override) IsSequence() bool { return o.seq }

// Len returns the number of values of a sequence override.
func (o Override) Len() int { return len(o.values) }

// At returns the value for replicate i.
func (o Override) At(i int) float64 {
	if o.seq {
		return o.values[i]
	}
	return o.scalar
}

// LoopValues overrides loop quantities by name.
type LoopValues map[string]Override

// ReplicateCount determines N. An explicit count wins and every sequence
// must match it; otherwise all sequences must share one length, which
// becomes N. Without explicit count or sequences N is zero.
func ReplicateCount(values LoopValues, explicit int) (int, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	want := -1
	if explicit > 0 {
		want = explicit
	}
	for _, name := range names {
		o := values[name]
		if !o.seq {
			continue
		}
		if want < 0 {
			want = o.Len()
			continue
		}
		if o.Len() != want {
			return 0, &OverrideLengthError{Name: name, Got: o.Len(), Want: want}
		}
	}
	if want < 0 {
		return 0, nil
	}
	return want, nil
}

// Initials builds the concatenated state and parameter vectors. The main
// resolver runs once; the loop resolver runs once per replicate with that
// replicate's overrides.
func Initials(main, loop *reaction.Compiled, plan *Plan, mainValues reaction.Values, loopValues LoopValues, replicates int) (y, p []float64, err error) {
	n, err := ReplicateCount(loopValues, replicates)
	if err != nil {
		return nil, nil, err
	}
	y, p, err = main.Initials(mainValues)
	if err != nil {
		return nil, nil, fmt.Errorf("main initials: %w", err)
	}

	private := make([]*symbolic.Sym, len(plan.Layout.Private))
	for i, name := range plan.Layout.Private {
		private[i] = loop.Variables[loop.VariableIndex(name)]
	}
	replicate := func(r int) reaction.Values {
		vals := make(reaction.Values, len(loopValues))
		for name, o := range loopValues {
			vals[name] = o.At(r)
		}
		return vals
	}
	if n == 0 && len(loopValues) > 0 {
		// Still reject names the loop does not declare.
		declared := make(reaction.Values, len(loopValues))
		for name := range loopValues {
			declared[name] = 0
		}
		if _, err := loop.NewResolver(declared); err != nil {
			return nil, nil, fmt.Errorf("loop initials: %w", err)
		}
	}

	y = growTo(y, plan.Layout.StateSize(n))
	p = growTo(p, plan.Layout.ParamSize(n))
	for r := 0; r < n; r++ {
		res, err := loop.NewResolver(replicate(r))
		if err != nil {
			return nil, nil, fmt.Errorf("loop initials: %w", err)
		}
		yr, err := res.Vector(private)
		if err != nil {
			return nil, nil, fmt.Errorf("loop initials, replicate %d: %w", r, err)
		}
		pr, err := res.Vector(loop.Parameters)
		if err != nil {
			return nil, nil, fmt.Errorf("loop initials, replicate %d: %w", r, err)
		}
		y = append(y, yr...)
		p = append(p, pr...)
	}
	return y, p, nil
}

func growTo(v []float64, capacity int) []float64 {
	if cap(v) >= capacity {
		return v
	}
	out := make([]float64, len(v), capacity)
	copy(out, v)
	return out
}

// NewProblem builds an integrator problem and checks the vectors against
// the layout before any step is taken.
func NewProblem(sys *System, tspan [2]float64, y0, p0 []float64) (*ode.Problem, error) {
	l := sys.Layout()
	if _, err := l.Replicates(len(y0), len(p0)); err != nil {
		return nil, err
	}
	return &ode.Problem{F: sys.Func(), TSpan: tspan, Y0: y0, P: p0}, nil
}
