package reaction

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njchilds90/apoptosim/symbolic"
)

// Formula is a YAML scalar holding an infix expression. Plain numbers are
// accepted as well.
type Formula string

// UnmarshalYAML accepts any scalar node.
func (f *Formula) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: formula must be a scalar", value.Line)
	}
	*f = Formula(value.Value)
	return nil
}

// QuantityDef is a YAML quantity declaration.
type QuantityDef struct {
	Name  string  `yaml:"name" json:"name"`
	Value Formula `yaml:"value,omitempty" json:"value,omitempty"`
}

// ReactionDef is a YAML reaction declaration. Which fields are used depends
// on Kind.
type ReactionDef struct {
	Name      string   `yaml:"name" json:"name"`
	Kind      string   `yaml:"kind" json:"kind"`
	A         string   `yaml:"a,omitempty" json:"a,omitempty"`
	B         string   `yaml:"b,omitempty" json:"b,omitempty"`
	E         string   `yaml:"e,omitempty" json:"e,omitempty"`
	S         string   `yaml:"s,omitempty" json:"s,omitempty"`
	P         string   `yaml:"p,omitempty" json:"p,omitempty"`
	Reactants []string `yaml:"reactants,omitempty" json:"reactants,omitempty"`
	Products  []string `yaml:"products,omitempty" json:"products,omitempty"`
	Rate      Formula  `yaml:"rate,omitempty" json:"rate,omitempty"`
	Forward   Formula  `yaml:"forward,omitempty" json:"forward,omitempty"`
	Reverse   Formula  `yaml:"reverse,omitempty" json:"reverse,omitempty"`
	Catalytic Formula  `yaml:"catalytic,omitempty" json:"catalytic,omitempty"`
}

// NetworkDef is the YAML document describing one network.
type NetworkDef struct {
	Name       string        `yaml:"name" json:"name"`
	Species    []QuantityDef `yaml:"species" json:"species"`
	Parameters []QuantityDef `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Constants  []QuantityDef `yaml:"constants,omitempty" json:"constants,omitempty"`
	Reactions  []ReactionDef `yaml:"reactions" json:"reactions"`
}

// LoadYAML decodes a network definition. Unknown fields are rejected.
func LoadYAML(r io.Reader) (*Network, error) {
	var def NetworkDef
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	return def.Build()
}

// LoadYAMLFile reads a network definition from path.
func LoadYAMLFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	n, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Build declares the definition into a new network.
func (d *NetworkDef) Build() (*Network, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: network has no name", ErrInvalidName)
	}
	n := NewNetwork(d.Name)
	b := &builder{n: n}
	// Constants and parameters first so species defaults may reference them.
	for _, q := range d.Constants {
		n.Constant(q.Name, b.formula(q.Value, "constant "+q.Name))
	}
	for _, q := range d.Parameters {
		n.Parameter(q.Name, b.formula(q.Value, "parameter "+q.Name))
	}
	for _, q := range d.Species {
		n.Species(q.Name, b.formula(q.Value, "species "+q.Name))
	}
	for _, r := range d.Reactions {
		b.reaction(r)
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return n, nil
}

type builder struct {
	n    *Network
	errs []error
}

func (b *builder) formula(f Formula, where string) symbolic.Expr {
	if strings.TrimSpace(string(f)) == "" {
		return nil
	}
	e, err := symbolic.Parse(string(f))
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", where, err))
		return nil
	}
	return e
}

func (b *builder) term(src, where string) Term {
	src = strings.TrimSpace(src)
	k := 1
	if i := strings.IndexAny(src, " *"); i > 0 {
		if v, err := strconv.Atoi(src[:i]); err == nil {
			k = v
			src = strings.TrimLeft(src[i:], " *")
		}
	}
	q, ok := b.n.Lookup(src)
	if !ok || q.Kind != Species {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", where, &UnknownQuantityError{Name: src, Network: b.n.Name()}))
		return Term{Species: symbolic.S(src), Stoichiometry: k}
	}
	return Term{Species: q.Sym, Stoichiometry: k}
}

func (b *builder) terms(srcs []string, where string) []Term {
	out := make([]Term, len(srcs))
	for i, s := range srcs {
		out[i] = b.term(s, where)
	}
	return out
}

func (b *builder) reaction(r ReactionDef) {
	where := "reaction " + r.Name
	rate := func(f Formula, field string) symbolic.Expr {
		if f == "" {
			b.errs = append(b.errs, fmt.Errorf("%s: missing %s", where, field))
			return symbolic.N(0)
		}
		if e := b.formula(f, where+" "+field); e != nil {
			return e
		}
		return symbolic.N(0)
	}
	n := b.n
	switch strings.ToLower(r.Kind) {
	case "mass_action":
		n.MassAction(r.Name, b.terms(r.Reactants, where), b.terms(r.Products, where), rate(r.Rate, "rate"))
	case "creation":
		n.Creation(r.Name, b.term(r.A, where), rate(r.Rate, "rate"))
	case "destruction":
		n.Destruction(r.Name, b.term(r.A, where), rate(r.Rate, "rate"))
	case "equilibration":
		n.Equilibration(r.Name, b.term(r.A, where), b.term(r.B, where),
			rate(r.Forward, "forward"), rate(r.Reverse, "reverse"))
	case "reversible_synthesis":
		n.ReversibleSynthesis(r.Name, b.term(r.A, where), b.term(r.B, where),
			rate(r.Forward, "forward"), rate(r.Reverse, "reverse"))
	case "michaelis_menten":
		n.MichaelisMenten(r.Name, b.term(r.E, where), b.term(r.S, where), b.term(r.P, where),
			rate(r.Forward, "forward"), rate(r.Reverse, "reverse"), rate(r.Catalytic, "catalytic"))
	case "catalyze_convert":
		n.CatalyzeConvert(r.Name, b.term(r.A, where), b.term(r.B, where), b.term(r.P, where),
			rate(r.Forward, "forward"), rate(r.Reverse, "reverse"), rate(r.Catalytic, "catalytic"))
	default:
		b.errs = append(b.errs, fmt.Errorf("%s: unknown kind %q", where, r.Kind))
	}
}
