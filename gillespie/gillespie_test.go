package gillespie

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

func swapModel() *Model {
	return &Model{
		Species: []string{"A", "B"},
		Initial: map[string]int64{"A": 100, "B": 0},
		Reactions: []Reaction{
			{Name: "fwd", Rate: 0.3, Reactants: []string{"A"}, Products: []string{"B"}},
			{Name: "rev", Rate: 0.1, Reactants: []string{"B"}, Products: []string{"A"}},
		},
	}
}

func TestRun_ConservesMass(t *testing.T) {
	tb, err := swapModel().Run(context.Background(), RunOptions{TMax: 20, Steps: 40, Seed: 7})
	require.NoError(t, err)
	require.Equal(t, 41, tb.Len())
	assert.Equal(t, []string{"A", "B"}, tb.Columns)
	assert.Equal(t, 0.0, tb.Index[0])
	assert.InDelta(t, 20, tb.Index[40], 1e-12)
	for _, row := range tb.Rows {
		assert.Equal(t, 100.0, row[0]+row[1])
	}
	assert.Equal(t, []float64{100, 0}, tb.Rows[0])
}

func TestRun_Reproducible(t *testing.T) {
	m := swapModel()
	a, err := m.Run(context.Background(), RunOptions{TMax: 10, Steps: 10, Seed: 42})
	require.NoError(t, err)
	b, err := m.Run(context.Background(), RunOptions{TMax: 10, Steps: 10, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
}

func TestRun_DecayMean(t *testing.T) {
	m := &Model{
		Species:   []string{"A"},
		Initial:   map[string]int64{"A": 1000},
		Reactions: []Reaction{{Name: "decay", Rate: 0.1, Reactants: []string{"A"}}},
	}
	const runs = 20
	var sum float64
	for seed := uint64(0); seed < runs; seed++ {
		tb, err := m.Run(context.Background(), RunOptions{TMax: 10, Steps: 1, Seed: seed})
		require.NoError(t, err)
		sum += tb.Rows[1][0]
	}
	assert.InDelta(t, 1000*math.Exp(-1), sum/runs, 20)
}

func TestRun_FallingFactorial(t *testing.T) {
	m := &Model{
		Species:   []string{"A", "B"},
		Initial:   map[string]int64{"A": 1},
		Reactions: []Reaction{{Name: "dimerize", Rate: 100, Reactants: []string{"A", "A"}, Products: []string{"B"}}},
	}
	tb, err := m.Run(context.Background(), RunOptions{TMax: 5, Steps: 5, Save: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, tb.Columns)
	for _, row := range tb.Rows {
		assert.Equal(t, 1.0, row[0])
	}
}

func TestRun_Errors(t *testing.T) {
	m := swapModel()
	_, err := m.Run(context.Background(), RunOptions{TMax: 1, Steps: 1, Save: []string{"C"}})
	assert.ErrorIs(t, err, ErrUnknownSpecies)

	_, err = m.Run(context.Background(), RunOptions{TMax: 0, Steps: 1})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Run(ctx, RunOptions{TMax: 1, Steps: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromNetwork(t *testing.T) {
	n := reaction.NewNetwork("decay")
	k := n.Parameter("k", symbolic.F(1, 4))
	src := n.Constant("source", symbolic.N(3))
	a := n.Species("A", symbolic.NFloat(10.9))
	n.Destruction("decay", reaction.Times(2, a), k)
	n.MassAction("feed", []reaction.Term{reaction.One(src)}, []reaction.Term{reaction.One(a)}, k)

	m, err := FromNetwork(n, reaction.Values{"k": 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, m.Species)
	assert.Equal(t, int64(10), m.Initial["A"])
	require.Len(t, m.Reactions, 2)
	assert.Equal(t, []string{"A", "A"}, m.Reactions[0].Reactants)
	assert.Equal(t, 0.5, m.Reactions[0].Rate)
	assert.Empty(t, m.Reactions[1].Reactants)
	assert.Equal(t, 1.5, m.Reactions[1].Rate)

	_, err = FromNetwork(n, reaction.Values{"k": -1})
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestReplicate_DivideConservesCounts(t *testing.T) {
	m := &Model{
		Species: []string{"cyto.X", "mito.Y", "mito.Z"},
		Initial: map[string]int64{"cyto.X": 5, "mito.Y": 10, "mito.Z": 7},
		Reactions: []Reaction{
			{Name: "mito.leak", Rate: 1, Reactants: []string{"mito.Y"}, Products: []string{"cyto.X"}},
			{Name: "cyto.decay", Rate: 1, Reactants: []string{"cyto.X"}},
		},
	}
	r, err := Replicate(m, ReplicateOptions{Prefix: "mito", Count: 3, Divide: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"cyto.X", "mito_0.Y", "mito_1.Y", "mito_2.Y", "mito_0.Z", "mito_1.Z", "mito_2.Z"}, r.Species)
	assert.Equal(t, int64(5), r.Initial["cyto.X"])
	var y, z int64
	for _, s := range []string{"0", "1", "2"} {
		y += r.Initial["mito_"+s+".Y"]
		z += r.Initial["mito_"+s+".Z"]
	}
	assert.Equal(t, int64(9), y)
	assert.Equal(t, int64(6), z)
	require.Len(t, r.Reactions, 4)
	assert.Equal(t, "mito_1.leak", r.Reactions[1].Name)
	assert.Equal(t, []string{"mito_1.Y"}, r.Reactions[1].Reactants)
	assert.Equal(t, []string{"cyto.X"}, r.Reactions[1].Products)

	_, err = Replicate(m, ReplicateOptions{Prefix: "mito"})
	assert.ErrorIs(t, err, ErrNoReplicates)
}

func TestReplicate_MatchesNestedCell(t *testing.T) {
	values := reaction.Values{"mitochondria_volume_fraction": 0.02}
	one, err := FromNetwork(models.NewARM(1), values)
	require.NoError(t, err)
	three, err := FromNetwork(models.NewARM(3), values)
	require.NoError(t, err)

	r, err := Replicate(one, ReplicateOptions{
		Prefix: models.MitochondrionPrefix(0),
		Name:   models.MitochondrionPrefix,
		Count:  3,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, three.Species, r.Species)
	assert.Equal(t, three.Initial, r.Initial)
	assert.Equal(t, byName(three.Reactions), byName(r.Reactions))
}

func byName(rs []Reaction) []Reaction {
	out := append([]Reaction(nil), rs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
