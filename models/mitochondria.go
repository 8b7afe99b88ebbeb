package models

import (
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// AlbeckVolumeFraction is the mitochondrial share of the cell volume in
// Albeck's model. Mitochondrial concentrations are scaled by it.
const AlbeckVolumeFraction = 0.07

// Mitochondrion holds the species a mitochondrion exchanges with the
// cytoplasm and the pore-forming outputs.
type Mitochondrion struct {
	Volume  *symbolic.Sym
	CytoC_C *symbolic.Sym
	Smac_C  *symbolic.Sym
	Bax_A   *symbolic.Sym
	Mito_A  *symbolic.Sym
	CytoC_M *symbolic.Sym
	Smac_M  *symbolic.Sym
}

// DeclareMitochondrion declares one mitochondrion on n. Its free Bax,
// Smac and cytochrome c are meant to be linked to the cytoplasm.
func DeclareMitochondrion(n *reaction.Network) Mitochondrion {
	vol := n.Constant("volume", num(AlbeckVolumeFraction))
	scaled := func(x float64) symbolic.Expr {
		return symbolic.MulOf(num(x/AlbeckVolumeFraction), vol)
	}
	rates := declareRates(n, scaled(1e-2))
	kf, kr, kc := rates.KF, rates.KR, rates.KC
	pore := n.Parameter("pore_transport_rate", scaled(10))

	cytoC := n.Species("CytoC_C", nil)
	smac := n.Species("Smac_C", nil)
	baxA := n.Species("Bax_A", nil)

	amount := func(name string, concentration float64) *symbolic.Sym {
		c0 := n.Constant(name+"_0", num(concentration/AlbeckVolumeFraction))
		return n.Species(name, symbolic.MulOf(c0, vol))
	}
	bcl2 := amount("Bcl2", 2e4)
	cytoCM := amount("CytoC_M", 1e5)
	smacM := amount("Smac_M", 1e5)
	mitoI := amount("Mito_I", 5e5)
	mitoA := amount("Mito_A", 0)
	bax := amount("Bax", 0)
	bax2 := amount("Bax2", 0)
	bax4 := amount("Bax4", 0)

	one, two := reaction.One, func(s *symbolic.Sym) reaction.Term { return reaction.Times(2, s) }
	tr := rates.TranslocRate
	n.Equilibration("r_Bax_transloc", one(baxA), one(bax), tr, tr)
	n.Equilibration("r_Bax_dimerization", two(bax), one(bax2), per(kf, vol), kr)
	n.Equilibration("r_Bax_tetramerization", two(bax2), one(bax4), per(kf, vol), kr)
	n.ReversibleSynthesis("r_Bax_Bcl2", one(bax), one(bcl2), per(kf, vol), kr)
	n.ReversibleSynthesis("r_Bax2_Bcl2", one(bax2), one(bcl2), per(kf, vol), kr)
	n.ReversibleSynthesis("r_Bax4_Bcl2", one(bax4), one(bcl2), per(kf, vol), kr)
	n.CatalyzeConvert("r_Bax4_Mito", one(bax4), one(mitoI), one(mitoA), per(kf, vol), kr, kc)
	twice := symbolic.MulOf(symbolic.N(2), per(kf, vol))
	n.MichaelisMenten("r_Smac_pore", one(mitoA), one(smacM), one(smac), twice, kr, pore)
	n.MichaelisMenten("r_CytoC_pore", one(mitoA), one(cytoCM), one(cytoC), twice, kr, pore)

	return Mitochondrion{
		Volume:  vol,
		CytoC_C: cytoC,
		Smac_C:  smac,
		Bax_A:   baxA,
		Mito_A:  mitoA,
		CytoC_M: cytoCM,
		Smac_M:  smacM,
	}
}

// NewMitochondria returns a standalone mitochondrion network.
func NewMitochondria() *reaction.Network {
	n := reaction.NewNetwork("mitochondria")
	DeclareMitochondrion(n)
	return n
}
