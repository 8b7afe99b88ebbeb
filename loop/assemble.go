package loop

import (
	"fmt"
	"strings"

	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// System is the assembled derivative function. It is immutable and safe
// for concurrent use.
type System struct {
	layout Layout
	main   *Body
	loop   *Body

	mainTargets []int
	loopTargets []target
}

type target struct {
	index    int
	relative bool
	op       Op
}

// Assemble joins the main body and the replicated loop body.
func Assemble(plan *Plan, main, loop *Body) *System {
	s := &System{layout: plan.Layout, main: main, loop: loop}
	s.mainTargets = make([]int, len(main.Instructions))
	for i, in := range main.Instructions {
		s.mainTargets[i] = in.Target.Index()
	}
	s.loopTargets = make([]target, len(loop.Instructions))
	for i, in := range loop.Instructions {
		s.loopTargets[i] = target{index: in.Target.Index(), relative: in.Target.Replicate(), op: in.Op}
	}
	return s
}

// Standalone assembles main with an empty loop, so that a network can be
// solved on its own through the same machinery.
func Standalone(main *reaction.Compiled) (*System, error) {
	empty := &reaction.Compiled{Name: "empty", Independent: main.Independent}
	plan, err := NewPlan(main, empty, nil)
	if err != nil {
		return nil, err
	}
	mb, err := generateMainBody(main)
	if err != nil {
		return nil, err
	}
	return Assemble(plan, mb, &Body{Replicated: true}), nil
}

// Layout returns the slot layout of the system.
func (s *System) Layout() Layout { return s.layout }

// Derivative writes ydot into dy. The replicate count is inferred from
// len(y) and len(p) on every call.
func (s *System) Derivative(t float64, y, p, dy []float64) error {
	n, err := s.layout.Replicates(len(y), len(p))
	if err != nil {
		return err
	}
	if len(dy) != len(y) {
		return &LayoutMismatchError{Vector: "dy", Length: len(dy), Want: len(y)}
	}
	env := symbolic.Env{T: t, Y: y, P: p}
	for i, in := range s.main.Instructions {
		dy[s.mainTargets[i]] = in.eval(&env)
	}
	ys, ps := s.layout.Ys, s.layout.Ps
	for r := 0; r < n; r++ {
		env.YOffset = r*ys + s.layout.Y0
		env.POffset = r*ps + s.layout.P0
		for i, in := range s.loop.Instructions {
			tg := s.loopTargets[i]
			idx := tg.index
			if tg.relative {
				idx += env.YOffset
			}
			v := in.eval(&env)
			if tg.op == Accumulate {
				dy[idx] += v
			} else {
				dy[idx] = v
			}
		}
	}
	return nil
}

// Func adapts the system to the integrator.
func (s *System) Func() ode.Func { return s.Derivative }

// Source renders the assembled function as program text.
func (s *System) Source() string {
	var sb strings.Builder
	sb.WriteString("func ode_step(t, y, p) ydot {\n")
	sb.WriteString(s.main.Source("\t"))
	l := s.layout
	if len(s.loop.Instructions) > 0 {
		switch {
		case l.Ys > 0:
			fmt.Fprintf(&sb, "\tN_loops = (len(y) - %d) / %d\n", l.Y0, l.Ys)
		case l.Ps > 0:
			fmt.Fprintf(&sb, "\tN_loops = (len(p) - %d) / %d\n", l.P0, l.Ps)
		default:
			sb.WriteString("\tN_loops = 0\n")
		}
		sb.WriteString("\tfor loop_num in 0 .. N_loops-1 {\n")
		fmt.Fprintf(&sb, "\t\ty_offset = loop_num * %d + %d\n", l.Ys, l.Y0)
		fmt.Fprintf(&sb, "\t\tp_offset = loop_num * %d + %d\n", l.Ps, l.P0)
		sb.WriteString(s.loop.Source("\t\t"))
		sb.WriteString("\t}\n")
	}
	sb.WriteString("\treturn ydot\n}\n")
	return sb.String()
}
