// Package loop compiles a main reaction system and a loop system that is
// replicated N times into a single derivative function.
//
// The state vector is laid out as
//
//	[main variables (Y0) | replicate 0 private (Ys) | replicate 1 private | ...]
//
// and the parameter vector as
//
//	[main parameters (P0) | replicate 0 loop parameters (Ps) | ...]
//
// N is not fixed at compile time. Every call infers it from the vector
// lengths, so one compiled System serves any replicate count.
package loop

import (
	"fmt"

	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// Layout describes the slot arrangement of the replicated vectors.
type Layout struct {
	Y0 int // main variables
	P0 int // main parameters
	Ys int // private variables per replicate
	Ps int // parameters per replicate

	MainVariables  []string
	MainParameters []string
	Private        []string // loop variables minus the shared set, in loop order
	Parameters     []string // every loop parameter, in loop order
	Shared         []string
}

// StateSize returns the state length for n replicates.
func (l *Layout) StateSize(n int) int { return l.Y0 + n*l.Ys }

// ParamSize returns the parameter length for n replicates.
func (l *Layout) ParamSize(n int) int { return l.P0 + n*l.Ps }

// Replicates infers N from the state and parameter lengths. The state
// vector decides when replicates own state slots; otherwise the parameter
// vector does. When neither has per-replicate slots N is zero and both
// lengths must equal the main sizes.
func (l *Layout) Replicates(ny, np int) (int, error) {
	switch {
	case l.Ys > 0:
		n, err := infer("y", ny, l.Y0, l.Ys)
		if err != nil {
			return 0, err
		}
		if want := l.ParamSize(n); np != want {
			return 0, &LayoutMismatchError{Vector: "p", Length: np, Base: l.P0, Step: l.Ps, Want: want}
		}
		return n, nil
	case l.Ps > 0:
		if ny != l.Y0 {
			return 0, &LayoutMismatchError{Vector: "y", Length: ny, Base: l.Y0, Want: l.Y0}
		}
		return infer("p", np, l.P0, l.Ps)
	default:
		if ny != l.Y0 {
			return 0, &LayoutMismatchError{Vector: "y", Length: ny, Base: l.Y0, Want: l.Y0}
		}
		if np != l.P0 {
			return 0, &LayoutMismatchError{Vector: "p", Length: np, Base: l.P0, Want: l.P0}
		}
		return 0, nil
	}
}

func infer(vec string, size, base, step int) (int, error) {
	if size < base || (size-base)%step != 0 {
		return 0, &LayoutMismatchError{Vector: vec, Length: size, Base: base, Step: step, Want: -1}
	}
	return (size - base) / step, nil
}

// Plan is the output of the offset planner: the layout and the substitution
// map shared by every replicate. Only y_offset and p_offset vary between
// replicates.
type Plan struct {
	Layout  Layout
	Mapping symbolic.Mapping

	sharedSlot  map[string]int // shared name -> main slot
	privateSlot map[string]int // private name -> local index
}

// NewPlan lays out the main and loop systems. Shared variables must be
// variables of main; they are read from and accumulated into their main
// slot. Every other loop variable is private to its replicate. All loop
// parameters are per replicate; callers wanting a common value pass a
// scalar override.
func NewPlan(main, loop *reaction.Compiled, shared []string) (*Plan, error) {
	p := &Plan{
		Mapping:     symbolic.Mapping{reaction.TimeName: symbolic.Time()},
		sharedSlot:  make(map[string]int, len(shared)),
		privateSlot: map[string]int{},
	}
	l := &p.Layout
	l.MainVariables = main.VariableNames()
	l.MainParameters = main.ParameterNames()
	l.Y0, l.P0 = len(l.MainVariables), len(l.MainParameters)

	for _, name := range shared {
		i := main.VariableIndex(name)
		if i < 0 {
			return nil, &DanglingSharedVariableError{Name: name}
		}
		if loop.ParameterIndex(name) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrSharedParameter, name)
		}
		if _, dup := p.sharedSlot[name]; dup {
			continue
		}
		p.sharedSlot[name] = i
		l.Shared = append(l.Shared, name)
		p.Mapping[name] = symbolic.StateAt(i)
	}
	for _, v := range loop.Variables {
		name := v.Name()
		if _, ok := p.sharedSlot[name]; ok {
			continue
		}
		p.privateSlot[name] = len(l.Private)
		p.Mapping[name] = symbolic.ReplicateStateAt(len(l.Private))
		l.Private = append(l.Private, name)
	}
	for i, s := range loop.Parameters {
		l.Parameters = append(l.Parameters, s.Name())
		p.Mapping[s.Name()] = symbolic.ReplicateParamAt(i)
	}
	l.Ys, l.Ps = len(l.Private), len(l.Parameters)

	if l.Ys == 0 && l.Ps == 0 {
		for i, v := range loop.Variables {
			if _, ok := p.sharedSlot[v.Name()]; ok && !isZero(loop.Equations[i]) {
				return nil, fmt.Errorf("%w: loop writes %q", ErrUninferableReplicates, v.Name())
			}
		}
	}
	return p, nil
}

// IsShared reports whether name is read from the main state.
func (p *Plan) IsShared(name string) bool {
	_, ok := p.sharedSlot[name]
	return ok
}

// SharedSlot returns the main slot of a shared variable.
func (p *Plan) SharedSlot(name string) (int, bool) {
	i, ok := p.sharedSlot[name]
	return i, ok
}

// PrivateIndex returns the replicate-local index of a private variable.
func (p *Plan) PrivateIndex(name string) (int, bool) {
	i, ok := p.privateSlot[name]
	return i, ok
}

func isZero(e symbolic.Expr) bool {
	n, ok := e.(*symbolic.Num)
	return ok && n.IsZero()
}

// mainMapping maps main variables and parameters to absolute slots.
func mainMapping(main *reaction.Compiled) symbolic.Mapping {
	m := symbolic.Mapping{reaction.TimeName: symbolic.Time()}
	for i, v := range main.Variables {
		m[v.Name()] = symbolic.StateAt(i)
	}
	for i, s := range main.Parameters {
		m[s.Name()] = symbolic.ParamAt(i)
	}
	return m
}
