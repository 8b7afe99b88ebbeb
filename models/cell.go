package models

import (
	"fmt"

	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// CytoplasmPrefix qualifies the cytoplasm's names inside a cell.
const CytoplasmPrefix = "cytoplasm"

// MitochondrionPrefix returns the prefix of the i-th nested mitochondrion.
func MitochondrionPrefix(i int) string { return fmt.Sprintf("mitochondria_%d", i) }

// Cell is a cell-level declaration: the cytoplasm plus any hand-nested
// mitochondria.
type Cell struct {
	Volume             *symbolic.Sym
	MitochondriaVolume *symbolic.Sym
	Rates              Rates
	Cytoplasm          Cytoplasm
	Mitochondria       []Mitochondrion
}

// DeclareCell declares the cell constants, the cytoplasm under
// CytoplasmPrefix and count mitochondria, each with the full
// mitochondrial volume fraction, linked to the cytoplasm.
func DeclareCell(n *reaction.Network, count int) Cell {
	vol := n.Constant("volume", symbolic.N(1))
	fraction := n.Constant("mitochondria_volume_fraction", num(AlbeckVolumeFraction))
	mitoVol := n.Constant("mitochondria_volume", symbolic.MulOf(vol, fraction))
	lc := n.Constant("L_concentration", symbolic.N(1000))
	sc := n.Constant("IntrinsicStimuli_concentration", symbolic.N(0))
	ligand := n.Constant("L", symbolic.MulOf(lc, vol))
	stimuli := n.Constant("IntrinsicStimuli", symbolic.MulOf(sc, vol))
	rates := declareRates(n, num(1e-2))

	cyto := DeclareCytoplasm(n.Sub(CytoplasmPrefix, reaction.Links{
		"volume":           vol,
		"KF":               rates.KF,
		"KR":               rates.KR,
		"KC":               rates.KC,
		"transloc_rate":    rates.TranslocRate,
		"L":                ligand,
		"IntrinsicStimuli": stimuli,
	}))
	cell := Cell{Volume: vol, MitochondriaVolume: mitoVol, Rates: rates, Cytoplasm: cyto}
	for i := 0; i < count; i++ {
		m := DeclareMitochondrion(n.Sub(MitochondrionPrefix(i), reaction.Links{
			"volume":        mitoVol,
			"KF":            rates.KF,
			"KR":            rates.KR,
			"KC":            rates.KC,
			"transloc_rate": rates.TranslocRate,
			"CytoC_C":       cyto.CytoC_C,
			"Smac_C":        cyto.Smac_C,
			"Bax_A":         cyto.Bax_A,
		}))
		cell.Mitochondria = append(cell.Mitochondria, m)
	}
	return cell
}

// NewARM returns a cell with count hand-nested mitochondria.
func NewARM(count int) *reaction.Network {
	n := reaction.NewNetwork(fmt.Sprintf("ARM%d", count))
	DeclareCell(n, count)
	return n
}

// NewCell returns the cell without mitochondria, the main system of the
// mitochondrial loop.
func NewCell() *reaction.Network {
	n := reaction.NewNetwork("cell")
	DeclareCell(n, 0)
	return n
}

// SharedSpecies are the cytoplasmic species a mitochondrion exchanges with
// the cell, by their qualified names in NewCell.
func SharedSpecies() []*symbolic.Sym {
	out := make([]*symbolic.Sym, 0, 3)
	for _, name := range []string{"CytoC_C", "Smac_C", "Bax_A"} {
		out = append(out, symbolic.S(CytoplasmPrefix+"."+name))
	}
	return out
}

// NewMitochondriaLoop returns the mitochondrion as a loop system: its free
// Bax, Smac and cytochrome c carry the cell's names so that they are
// shared with NewCell.
func NewMitochondriaLoop() *reaction.Network {
	n := reaction.NewNetwork("mitochondria")
	shared := SharedSpecies()
	DeclareMitochondrion(n.WithLinks(reaction.Links{
		"CytoC_C": shared[0],
		"Smac_C":  shared[1],
		"Bax_A":   shared[2],
	}))
	return n
}

// NewARMLoop compiles the cell and the mitochondrial loop into a simulator.
func NewARMLoop(opts ...loop.Option) (*loop.Simulator, error) {
	return loop.New(NewCell(), NewMitochondriaLoop(), SharedSpecies(), opts...)
}

// MitochondriaValues returns loop overrides that give each of count
// mitochondria an equal share of fraction of the cell volume and the
// cell-level translocation rate. The result matches NewARM(count) with
// mitochondria_volume_fraction set to fraction/count.
func MitochondriaValues(cellVolume, fraction float64, count int) loop.LoopValues {
	return loop.LoopValues{
		"volume":        loop.Scalar(cellVolume * fraction / float64(count)),
		"transloc_rate": loop.Scalar(1e-2),
	}
}

// Build returns the simulator-ready form of a catalog model: either a
// single network or a main/loop pair.
func Build(name string, mitochondria int, opts ...loop.Option) (*reaction.Network, *loop.Simulator, error) {
	info, err := Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	if info.Loop {
		sim, err := NewARMLoop(opts...)
		return nil, sim, err
	}
	switch name {
	case "arm":
		return NewARM(mitochondria), nil, nil
	case "cytoplasm":
		return NewCytoplasm(), nil, nil
	default:
		return NewMitochondria(), nil, nil
	}
}
