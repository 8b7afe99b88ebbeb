// Package reaction declares biochemical reaction networks and compiles them
// into first-order ODE systems over symbolic expressions.
//
// A Network is a view over a shared registry of quantities and reactions.
// Sub-compartments are views with a name prefix; links bind a declaration
// name of the sub-compartment to a quantity that already exists elsewhere,
// so that nested models can share species and parameters with their parent.
package reaction

import (
	"fmt"
	"strings"

	"github.com/njchilds90/apoptosim/symbolic"
)

// Kind classifies a declared quantity.
type Kind int

const (
	// Species are state variables with an initial value.
	Species Kind = iota
	// Parameter is a value that may be overridden per simulation.
	Parameter
	// Constant is a fixed value; it still occupies a parameter slot.
	Constant
)

func (k Kind) String() string {
	switch k {
	case Species:
		return "species"
	case Parameter:
		return "parameter"
	case Constant:
		return "constant"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Quantity is a declared symbol together with its kind and default value.
// Default may reference other quantities; it is resolved at problem
// construction time.
type Quantity struct {
	Sym     *symbolic.Sym
	Kind    Kind
	Default symbolic.Expr
}

// Name returns the fully qualified name of the quantity.
func (q *Quantity) Name() string { return q.Sym.Name() }

// Links binds local declaration names of a sub-compartment to existing symbols.
type Links map[string]*symbolic.Sym

type registry struct {
	quantities []*Quantity
	index      map[string]*Quantity
	reactions  []*MassAction
	errs       []error
}

// Network is a reaction network, or a prefixed view into one.
type Network struct {
	name   string
	prefix string
	links  Links
	reg    *registry
}

// NewNetwork returns an empty network.
func NewNetwork(name string) *Network {
	return &Network{
		name: name,
		reg:  &registry{index: map[string]*Quantity{}},
	}
}

// Name returns the network name. Views share the name of their root.
func (n *Network) Name() string { return n.name }

// Prefix returns the qualified-name prefix of this view, empty at the root.
func (n *Network) Prefix() string { return n.prefix }

// Sub returns a view whose declarations are prefixed by "prefix.". Names
// present in links resolve to the linked symbols instead of new ones.
func (n *Network) Sub(prefix string, links Links) *Network {
	return &Network{
		name:   n.name,
		prefix: n.prefix + prefix + ".",
		links:  links,
		reg:    n.reg,
	}
}

// WithLinks returns a view of n with the same prefix and the given links.
func (n *Network) WithLinks(links Links) *Network {
	return &Network{name: n.name, prefix: n.prefix, links: links, reg: n.reg}
}

// Species declares a state variable. A nil initial value means zero.
func (n *Network) Species(name string, initial symbolic.Expr) *symbolic.Sym {
	return n.declare(name, Species, initial)
}

// Parameter declares an overridable value.
func (n *Network) Parameter(name string, value symbolic.Expr) *symbolic.Sym {
	return n.declare(name, Parameter, value)
}

// Constant declares a fixed value.
func (n *Network) Constant(name string, value symbolic.Expr) *symbolic.Sym {
	return n.declare(name, Constant, value)
}

// Lookup finds a quantity by its name relative to this view.
func (n *Network) Lookup(name string) (*Quantity, bool) {
	if s, ok := n.links[name]; ok {
		q, found := n.reg.index[s.Name()]
		return q, found
	}
	q, ok := n.reg.index[n.prefix+name]
	return q, ok
}

// Quantities returns all declared quantities in declaration order.
func (n *Network) Quantities() []*Quantity {
	out := make([]*Quantity, len(n.reg.quantities))
	copy(out, n.reg.quantities)
	return out
}

// Reactions returns all mass-action steps in declaration order.
func (n *Network) Reactions() []*MassAction {
	out := make([]*MassAction, len(n.reg.reactions))
	copy(out, n.reg.reactions)
	return out
}

func (n *Network) declare(name string, kind Kind, def symbolic.Expr) *symbolic.Sym {
	if s, ok := n.links[name]; ok {
		// A link to a quantity the root has not seen yet registers it with
		// the kind and default of this declaration.
		if _, known := n.reg.index[s.Name()]; !known {
			n.register(&Quantity{Sym: s, Kind: kind, Default: def})
		}
		return s
	}
	full := n.prefix + name
	switch {
	case name == "":
		n.fail(fmt.Errorf("%w: empty name in %q", ErrInvalidName, n.name))
	case strings.ContainsAny(name, " \t\n+-*/^()"):
		n.fail(fmt.Errorf("%w: %q", ErrInvalidName, full))
	case full == TimeName:
		n.fail(fmt.Errorf("%w: %q", ErrReservedName, full))
	}
	s := symbolic.S(full)
	if _, dup := n.reg.index[full]; dup {
		n.fail(fmt.Errorf("%w: %q", ErrDuplicateName, full))
		return s
	}
	n.register(&Quantity{Sym: s, Kind: kind, Default: def})
	return s
}

func (n *Network) register(q *Quantity) {
	n.reg.quantities = append(n.reg.quantities, q)
	n.reg.index[q.Name()] = q
}

func (n *Network) fail(err error) {
	n.reg.errs = append(n.reg.errs, err)
}
