package reaction

import (
	"errors"
	"fmt"

	"github.com/njchilds90/apoptosim/symbolic"
)

// Compiled is the first-order ODE form of a network. Variables and
// Parameters define slot order; Equations[i] is the derivative of
// Variables[i].
type Compiled struct {
	Name        string
	Independent *symbolic.Sym
	Variables   []*symbolic.Sym
	Parameters  []*symbolic.Sym
	Equations   []symbolic.Expr
	Reactions   []*MassAction

	quantities map[string]*Quantity
}

// Compile turns a network into its ODE system. Each reaction contributes
// its flux, weighted by stoichiometry, to the derivative of every species
// it consumes or produces. Parameters and constants both take parameter
// slots, in declaration order.
func Compile(n *Network) (*Compiled, error) {
	if len(n.reg.errs) > 0 {
		return nil, errors.Join(n.reg.errs...)
	}
	c := &Compiled{
		Name:        n.name,
		Independent: symbolic.S(TimeName),
		Reactions:   n.Reactions(),
		quantities:  make(map[string]*Quantity, len(n.reg.quantities)),
	}
	slot := map[string]int{}
	for _, q := range n.reg.quantities {
		c.quantities[q.Name()] = q
		if q.Kind == Species {
			slot[q.Name()] = len(c.Variables)
			c.Variables = append(c.Variables, q.Sym)
		} else {
			c.Parameters = append(c.Parameters, q.Sym)
		}
	}

	terms := make([][]symbolic.Expr, len(c.Variables))
	contribute := func(ts []Term, sign int64, flux symbolic.Expr) error {
		for _, t := range ts {
			q, ok := c.quantities[t.Species.Name()]
			if !ok {
				return &UnknownQuantityError{Name: t.Species.Name(), Network: c.Name}
			}
			if q.Kind != Species {
				continue
			}
			i := slot[q.Name()]
			terms[i] = append(terms[i], symbolic.MulOf(symbolic.N(sign*int64(t.Stoichiometry)), flux))
		}
		return nil
	}
	for _, r := range c.Reactions {
		flux := r.Flux()
		if err := contribute(r.Reactants, -1, flux); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r.Name, err)
		}
		if err := contribute(r.Products, 1, flux); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r.Name, err)
		}
	}

	c.Equations = make([]symbolic.Expr, len(c.Variables))
	for i := range c.Variables {
		if len(terms[i]) == 0 {
			c.Equations[i] = symbolic.N(0)
			continue
		}
		c.Equations[i] = symbolic.AddOf(terms[i]...)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compiled) validate() error {
	for i, eq := range c.Equations {
		for _, name := range symbolic.SortedFreeSymbols(eq) {
			if name == TimeName {
				continue
			}
			if _, ok := c.quantities[name]; !ok {
				return fmt.Errorf("equation of %s: %w", c.Variables[i].Name(), &symbolic.UnresolvedSymbolError{Name: name})
			}
		}
	}
	return nil
}

// Quantity returns the declaration behind a variable or parameter name.
func (c *Compiled) Quantity(name string) (*Quantity, bool) {
	q, ok := c.quantities[name]
	return q, ok
}

// VariableIndex returns the slot of a variable, or -1.
func (c *Compiled) VariableIndex(name string) int {
	return indexOf(c.Variables, name)
}

// ParameterIndex returns the slot of a parameter, or -1.
func (c *Compiled) ParameterIndex(name string) int {
	return indexOf(c.Parameters, name)
}

// Equation returns the derivative of the named variable.
func (c *Compiled) Equation(name string) (symbolic.Expr, bool) {
	i := c.VariableIndex(name)
	if i < 0 {
		return nil, false
	}
	return c.Equations[i], true
}

// VariableNames returns the variable names in slot order.
func (c *Compiled) VariableNames() []string { return names(c.Variables) }

// ParameterNames returns the parameter names in slot order.
func (c *Compiled) ParameterNames() []string { return names(c.Parameters) }

func indexOf(syms []*symbolic.Sym, name string) int {
	for i, s := range syms {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func names(syms []*symbolic.Sym) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name()
	}
	return out
}
