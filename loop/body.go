package loop

import (
	"fmt"
	"strings"

	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// Op says how an instruction writes its value into the derivative vector.
type Op int

const (
	// Assign overwrites the target slot. Used for slots with a single writer.
	Assign Op = iota
	// Accumulate adds to the target slot. Used for shared main variables,
	// whose derivative is the main term plus one term per replicate.
	Accumulate
)

func (o Op) String() string {
	if o == Accumulate {
		return "+="
	}
	return "="
}

// Instruction computes one derivative term.
type Instruction struct {
	Variable string
	Op       Op
	Target   *symbolic.Slot // slot of ydot written by this instruction
	Expr     symbolic.Expr  // right-hand side with every symbol replaced by a slot

	eval symbolic.EvalFunc
}

// Body is an ordered list of instructions. A replicated body runs once per
// replicate with that replicate's offsets.
type Body struct {
	Instructions []Instruction
	Replicated   bool
}

// GenerateBody rewrites the loop equations through the plan mapping. The
// instructions keep the order of loop.Equations. Shared variables
// accumulate into their main slot; private variables assign to their
// replicate-relative slot.
func GenerateBody(loop *reaction.Compiled, plan *Plan) (*Body, error) {
	b := &Body{Replicated: true, Instructions: make([]Instruction, 0, len(loop.Equations))}
	for i, v := range loop.Variables {
		name := v.Name()
		in := Instruction{Variable: name}
		if slot, ok := plan.SharedSlot(name); ok {
			in.Op = Accumulate
			in.Target = symbolic.StateAt(slot)
		} else {
			idx, _ := plan.PrivateIndex(name)
			in.Op = Assign
			in.Target = symbolic.ReplicateStateAt(idx)
		}
		if err := in.compile(loop.Equations[i], plan.Mapping); err != nil {
			return nil, fmt.Errorf("loop equation of %s: %w", name, err)
		}
		b.Instructions = append(b.Instructions, in)
	}
	return b, nil
}

// generateMainBody assigns every main derivative from absolute slots.
func generateMainBody(main *reaction.Compiled) (*Body, error) {
	m := mainMapping(main)
	b := &Body{Instructions: make([]Instruction, 0, len(main.Equations))}
	for i, v := range main.Variables {
		in := Instruction{Variable: v.Name(), Op: Assign, Target: symbolic.StateAt(i)}
		if err := in.compile(main.Equations[i], m); err != nil {
			return nil, fmt.Errorf("main equation of %s: %w", v.Name(), err)
		}
		b.Instructions = append(b.Instructions, in)
	}
	return b, nil
}

func (in *Instruction) compile(eq symbolic.Expr, m symbolic.Mapping) error {
	rewritten, err := symbolic.Substitute(eq, m)
	if err != nil {
		return err
	}
	f, err := symbolic.Compile(rewritten)
	if err != nil {
		return err
	}
	in.Expr, in.eval = rewritten, f
	return nil
}

// Source renders the body as program text, one statement per line, each
// prefixed by indent.
func (b *Body) Source(indent string) string {
	var sb strings.Builder
	for _, in := range b.Instructions {
		fmt.Fprintf(&sb, "%sydot%s %s %s\n", indent, strings.TrimPrefix(in.Target.String(), "y"), in.Op, in.Expr)
	}
	return sb.String()
}
