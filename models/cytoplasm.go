package models

import (
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// Cytoplasm holds the cytoplasmic species that other compartments link to.
type Cytoplasm struct {
	Volume   *symbolic.Sym
	Rates    Rates
	CytoC_C  *symbolic.Sym
	Smac_C   *symbolic.Sym
	Bax_A    *symbolic.Sym
	PARP_C   *symbolic.Sym
	C3_A     *symbolic.Sym
	C8_A     *symbolic.Sym
	Bid_T    *symbolic.Sym
	Apop     *symbolic.Sym
	Ligand   *symbolic.Sym
	Stimulus *symbolic.Sym
}

// DeclareCytoplasm declares the ARM cytoplasm on n. Names in n's links,
// typically volume, the rates, L and IntrinsicStimuli, resolve to the
// linked symbols.
func DeclareCytoplasm(n *reaction.Network) Cytoplasm {
	vol := n.Constant("volume", symbolic.N(1))
	rates := declareRates(n, num(1e-2))
	kf, kr, kc := rates.KF, rates.KR, rates.KC

	initial := func(name string, amount float64) *symbolic.Sym {
		return n.Species(name, symbolic.MulOf(num(amount), vol))
	}
	L := initial("L", 0)
	R := initial("R", 200)
	DISC := initial("DISC", 0)
	flip := initial("flip", 100)
	C8pro := initial("C8_pro", 20_000)
	C8A := initial("C8_A", 0)
	BAR := initial("BAR", 1_000)
	BidU := initial("Bid_U", 4e4)
	BidT := initial("Bid_T", 0)
	BaxC := initial("Bax_C", 1e5)
	BaxA := initial("Bax_A", 0)
	CytoCC := initial("CytoC_C", 0)
	CytoCA := initial("CytoC_A", 0)
	SmacC := initial("Smac_C", 0)
	SmacA := initial("Smac_A", 0)
	ApafI := initial("Apaf_I", 1e3)
	ApafA := initial("Apaf_A", 0)
	Apop := initial("Apop", 0)
	C3pro := initial("C3_pro", 1e4)
	C3A := initial("C3_A", 0)
	C3ub := initial("C3_ub", 0)
	C6pro := initial("C6_pro", 1e4)
	C6A := initial("C6_A", 0)
	PARPU := initial("PARP_U", 1e6)
	PARPC := initial("PARP_C", 0)
	XIAP := initial("XIAP", 1e4)
	Bcl2c := initial("Bcl2c", 2e4)
	stimuli := initial("IntrinsicStimuli", 0)

	one := reaction.One
	tr := rates.TranslocRate
	n.Equilibration("r_Smac_transloc", one(SmacC), one(SmacA), tr, tr)
	n.Equilibration("r_CytoC_transloc", one(CytoCC), one(CytoCA), tr, tr)

	n.CatalyzeConvert("r_L_R", one(L), one(R), one(DISC), per(num(4e-7), vol), kr, num(1e-5))
	n.MichaelisMenten("r_DISC_C8", one(DISC), one(C8pro), one(C8A), per(kf, vol), kr, kc)
	n.MichaelisMenten("r_C8_Bid", one(C8A), one(BidU), one(BidT), per(num(1e-7), vol), kr, kc)
	n.ReversibleSynthesis("r_DISC_flip", one(DISC), one(flip), per(kf, vol), kr)
	n.ReversibleSynthesis("r_BAR_C8", one(BAR), one(C8A), per(kf, vol), kr)
	n.MichaelisMenten("r_CytoC_Apaf", one(CytoCA), one(ApafI), one(ApafA), per(num(5e-7), vol), kr, kc)
	n.MichaelisMenten("r_ApafA_C3pro", one(ApafA), one(C3pro), one(C3A), per(num(5e-9), vol), kr, kc)
	n.MichaelisMenten("r_C3A_ApafA", one(C3A), one(ApafA), one(Apop), per(num(1.3e-6), vol), kr, kc)
	n.MichaelisMenten("r_Apop_C3", one(Apop), one(C3pro), one(C3A), per(num(5e-9), vol), kr, kc)
	n.ReversibleSynthesis("r_ApafA_XIAP", one(ApafA), one(XIAP), per(num(2e-6), vol), kr)
	n.ReversibleSynthesis("r_Smac_XIAP", one(SmacA), one(XIAP), per(num(7e-6), vol), kr)
	n.MichaelisMenten("r_C8_C3", one(C8A), one(C3pro), one(C3A), per(num(1e-7), vol), kr, kc)
	n.MichaelisMenten("r_XIAP_C3", one(XIAP), one(C3A), one(C3ub), per(num(2e-6), vol), kr, num(1e-1))
	n.MichaelisMenten("r_C3_PARP", one(C3A), one(PARPU), one(PARPC), per(kf, vol), num(1e-2), kc)
	n.MichaelisMenten("r_C3_C6", one(C3A), one(C6pro), one(C6A), per(kf, vol), kr, kc)
	n.MichaelisMenten("r_C6_C8", one(C6A), one(C8pro), one(C8A), per(num(3e-8), vol), kr, kc)
	n.MichaelisMenten("r_Bid_Bax", one(BidT), one(BaxC), one(BaxA), per(num(1e-7), vol), kr, kc)
	n.ReversibleSynthesis("r_Bcl2_Bid", one(BidT), one(Bcl2c), per(kf, vol), kr)
	n.MichaelisMenten("r_intrinsic", one(stimuli), one(BidU), one(BidT), per(kf, vol), kr, kc)

	return Cytoplasm{
		Volume:   vol,
		Rates:    rates,
		CytoC_C:  CytoCC,
		Smac_C:   SmacC,
		Bax_A:    BaxA,
		PARP_C:   PARPC,
		C3_A:     C3A,
		C8_A:     C8A,
		Bid_T:    BidT,
		Apop:     Apop,
		Ligand:   L,
		Stimulus: stimuli,
	}
}

// NewCytoplasm returns the cytoplasm as a standalone network.
func NewCytoplasm() *reaction.Network {
	n := reaction.NewNetwork("cytoplasm")
	DeclareCytoplasm(n)
	return n
}
