// Package models declares the apoptosis reaction networks: the cytoplasmic
// ARM model, the mitochondrion and the cell that nests both.
//
// Concentrations follow Albeck et al. (2008). Bimolecular forward rates are
// divided by the compartment volume so that amounts, not concentrations, are
// the state variables.
package models

import (
	"fmt"
	"sort"

	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// Rates are the shared kinetic parameters of the ARM compartments.
type Rates struct {
	KF, KR, KC   *symbolic.Sym
	TranslocRate *symbolic.Sym
}

func declareRates(n *reaction.Network, transloc symbolic.Expr) Rates {
	return Rates{
		KF:           n.Parameter("KF", symbolic.NFloat(1e-6)),
		KR:           n.Parameter("KR", symbolic.NFloat(1e-3)),
		KC:           n.Parameter("KC", symbolic.N(1)),
		TranslocRate: n.Parameter("transloc_rate", transloc),
	}
}

func num(x float64) symbolic.Expr { return symbolic.NFloat(x) }

func per(rate symbolic.Expr, volume *symbolic.Sym) symbolic.Expr {
	return symbolic.DivOf(rate, volume)
}

// Info describes a registered model.
type Info struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Loop        bool   `json:"loop" yaml:"loop"`
}

var catalog = map[string]Info{
	"arm": {
		Name:        "arm",
		Description: "Cell with cytoplasmic ARM and a fixed number of hand-nested mitochondria",
	},
	"arm_loop": {
		Name:        "arm_loop",
		Description: "Cell cytoplasm as main system with the mitochondrion replicated as a loop",
		Loop:        true,
	},
	"cytoplasm": {
		Name:        "cytoplasm",
		Description: "Cytoplasmic ARM compartment on its own",
	},
	"mitochondria": {
		Name:        "mitochondria",
		Description: "Single mitochondrion with free Bax, Smac and cytochrome c",
	},
}

// Catalog lists the registered models by name.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Info, error) {
	info, ok := catalog[name]
	if !ok {
		return Info{}, fmt.Errorf("models: unknown model %q", name)
	}
	return info, nil
}
