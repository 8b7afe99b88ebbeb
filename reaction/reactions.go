package reaction

import (
	"fmt"

	"github.com/njchilds90/apoptosim/symbolic"
)

// Term is a species with its stoichiometric coefficient.
type Term struct {
	Species       *symbolic.Sym
	Stoichiometry int
}

// One is a term with stoichiometry 1.
func One(s *symbolic.Sym) Term { return Term{Species: s, Stoichiometry: 1} }

// Times is a term with stoichiometry k.
func Times(k int, s *symbolic.Sym) Term { return Term{Species: s, Stoichiometry: k} }

func (t Term) String() string {
	if t.Stoichiometry == 1 {
		return t.Species.Name()
	}
	return fmt.Sprintf("%d*%s", t.Stoichiometry, t.Species.Name())
}

// MassAction is a single irreversible step whose flux is
// Rate * prod(reactant^stoichiometry). Every other reaction kind expands
// into one or more of these.
type MassAction struct {
	Name      string
	Reactants []Term
	Products  []Term
	Rate      symbolic.Expr
}

// Flux returns the symbolic flux of the step.
func (r *MassAction) Flux() symbolic.Expr {
	factors := []symbolic.Expr{r.Rate}
	for _, t := range r.Reactants {
		factors = append(factors, symbolic.PowOf(t.Species, symbolic.N(int64(t.Stoichiometry))))
	}
	return symbolic.MulOf(factors...)
}

// Order is the sum of reactant stoichiometries.
func (r *MassAction) Order() int {
	k := 0
	for _, t := range r.Reactants {
		k += t.Stoichiometry
	}
	return k
}

func (r *MassAction) String() string {
	return fmt.Sprintf("%s: %s -> %s [%s]", r.Name, side(r.Reactants), side(r.Products), r.Rate)
}

func side(ts []Term) string {
	if len(ts) == 0 {
		return "0"
	}
	s := ts[0].String()
	for _, t := range ts[1:] {
		s += " + " + t.String()
	}
	return s
}

// MassAction adds a single step to the network.
func (n *Network) MassAction(name string, reactants, products []Term, rate symbolic.Expr) {
	full := n.prefix + name
	for _, t := range append(append([]Term(nil), reactants...), products...) {
		if t.Species == nil {
			n.fail(fmt.Errorf("%w: nil species in %q", ErrBadTerm, full))
			return
		}
		if t.Stoichiometry <= 0 {
			n.fail(fmt.Errorf("%w: %s in %q", ErrBadTerm, t, full))
			return
		}
	}
	if rate == nil {
		n.fail(fmt.Errorf("%w: %q has no rate", ErrBadTerm, full))
		return
	}
	n.reg.reactions = append(n.reg.reactions, &MassAction{
		Name:      full,
		Reactants: reactants,
		Products:  products,
		Rate:      rate,
	})
}

// Creation adds 0 -> A at a constant rate.
func (n *Network) Creation(name string, a Term, rate symbolic.Expr) {
	n.MassAction(name, nil, []Term{a}, rate)
}

// Destruction adds A -> 0.
func (n *Network) Destruction(name string, a Term, rate symbolic.Expr) {
	n.MassAction(name, []Term{a}, nil, rate)
}

// Equilibration adds A <-> B.
func (n *Network) Equilibration(name string, a, b Term, forward, reverse symbolic.Expr) {
	n.MassAction(name+".forward", []Term{a}, []Term{b}, forward)
	n.MassAction(name+".reverse", []Term{b}, []Term{a}, reverse)
}

// ReversibleSynthesis adds A + B <-> AB and returns the complex, which
// starts at zero.
func (n *Network) ReversibleSynthesis(name string, a, b Term, forward, reverse symbolic.Expr) *symbolic.Sym {
	ab := n.Species(name+".AB", nil)
	n.MassAction(name+".forward", []Term{a, b}, []Term{One(ab)}, forward)
	n.MassAction(name+".reverse", []Term{One(ab)}, []Term{a, b}, reverse)
	return ab
}

// MichaelisMenten adds E + S <-> ES -> E + P and returns the complex.
func (n *Network) MichaelisMenten(name string, e, s, p Term, forward, reverse, catalytic symbolic.Expr) *symbolic.Sym {
	es := n.Species(name+".ES", nil)
	n.MassAction(name+".forward", []Term{e, s}, []Term{One(es)}, forward)
	n.MassAction(name+".reverse", []Term{One(es)}, []Term{e, s}, reverse)
	n.MassAction(name+".catalysis", []Term{One(es)}, []Term{e, p}, catalytic)
	return es
}

// CatalyzeConvert adds A + B <-> AB -> P and returns the complex.
func (n *Network) CatalyzeConvert(name string, a, b, p Term, forward, reverse, conversion symbolic.Expr) *symbolic.Sym {
	ab := n.Species(name+".AB", nil)
	n.MassAction(name+".forward", []Term{a, b}, []Term{One(ab)}, forward)
	n.MassAction(name+".reverse", []Term{One(ab)}, []Term{a, b}, reverse)
	n.MassAction(name+".conversion", []Term{One(ab)}, []Term{p}, conversion)
	return ab
}
