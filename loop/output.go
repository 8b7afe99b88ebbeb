package loop

import (
	"fmt"
	"strconv"

	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/table"
)

// Policy selects how replicate trajectories appear in the output table.
type Policy string

const (
	// Ignore reports the main variables only.
	Ignore Policy = "ignore"
	// Sum adds one column per private loop variable holding the sum over replicates.
	Sum Policy = "sum"
	// IndexAsSuffix adds one column per replicate and private variable, named name_i.
	IndexAsSuffix Policy = "index_as_suffix"
)

// ParsePolicy validates a policy name. The empty name selects Ignore.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return Ignore, nil
	case Ignore, Sum, IndexAsSuffix:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOutputPolicy, s)
}

// Reassemble reshapes integrator output into a labeled table. It never
// re-solves; every policy is a pure function of sol.
func Reassemble(sol *ode.Solution, layout Layout, policy Policy) (*table.Table, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = Ignore
	}
	n := 0
	if len(sol.Y) > 0 && layout.Ys > 0 {
		var err error
		if n, err = infer("y", len(sol.Y[0]), layout.Y0, layout.Ys); err != nil {
			return nil, err
		}
	}

	cols := append([]string(nil), layout.MainVariables...)
	switch policy {
	case Sum:
		cols = append(cols, layout.Private...)
	case IndexAsSuffix:
		for r := 0; r < n; r++ {
			for _, name := range layout.Private {
				cols = append(cols, name+"_"+strconv.Itoa(r))
			}
		}
	}

	tb := table.New(cols)
	tb.Index = append([]float64(nil), sol.T...)
	tb.Rows = make([][]float64, len(sol.Y))
	for i, y := range sol.Y {
		row := make([]float64, len(cols))
		copy(row, y[:layout.Y0])
		switch policy {
		case Sum:
			for r := 0; r < n; r++ {
				off := layout.Y0 + r*layout.Ys
				for j := 0; j < layout.Ys; j++ {
					row[layout.Y0+j] += y[off+j]
				}
			}
		case IndexAsSuffix:
			copy(row[layout.Y0:], y[layout.Y0:layout.StateSize(n)])
		}
		tb.Rows[i] = row
	}
	return tb, nil
}
