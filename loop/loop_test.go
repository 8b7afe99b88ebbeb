package loop

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
)

// decayMain is x' = -k*x.
func decayMain() (*reaction.Network, *symbolic.Sym) {
	n := reaction.NewNetwork("main")
	k := n.Parameter("k", symbolic.F(1, 2))
	x := n.Species("x", symbolic.N(10))
	n.Destruction("decay", reaction.One(x), k)
	return n, x
}

// growthLoop is z' = c, with z private.
func growthLoop() *reaction.Network {
	n := reaction.NewNetwork("loop")
	c := n.Parameter("c", symbolic.N(1))
	z := n.Species("z", nil)
	n.Creation("make", reaction.One(z), c)
	return n
}

// drainLoop removes the shared x at rate r*x and keeps a private counter.
func drainLoop() *reaction.Network {
	n := reaction.NewNetwork("loop")
	r := n.Parameter("r", symbolic.N(2))
	x := n.Species("x", nil)
	w := n.Species("w", nil)
	n.MassAction("drain", []reaction.Term{reaction.One(x)}, []reaction.Term{reaction.One(w)}, r)
	return n
}

func tightOptions() *ode.Options {
	o := ode.DefaultOptions()
	o.RTol, o.ATol = 1e-10, 1e-12
	return o
}

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + (b-a)*float64(i)/float64(n-1)
	}
	return out
}

func TestSimulator_Disconnection(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)

	save := linspace(0, 2, 11)
	coupled, err := sim.Solve(context.Background(), SolveOptions{
		LoopValues: LoopValues{"c": PerReplicate(1, 2, 3)},
		SaveAt:     save,
		Options:    tightOptions(),
	})
	require.NoError(t, err)

	alone, err := SolveAlone(context.Background(), main, nil, save, nil, tightOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, coupled.Columns)
	assert.Equal(t, alone.Index, coupled.Index)
	xc, _ := coupled.Column("x")
	xa, _ := alone.Column("x")
	assert.InDeltaSlice(t, xa, xc, 1e-8)
}

func TestLayout_ReplicateInference(t *testing.T) {
	main, _ := decayMain()
	loop := reaction.NewNetwork("loop")
	a := loop.Species("a", symbolic.N(1))
	b := loop.Species("b", nil)
	loop.Equilibration("swap", reaction.One(a), reaction.One(b), symbolic.N(1), symbolic.N(1))

	sim, err := New(main, loop, nil)
	require.NoError(t, err)
	sys := sim.Program().System
	l := sys.Layout()
	require.Equal(t, 1, l.Y0)
	require.Equal(t, 2, l.Ys)
	require.Equal(t, 1, l.P0)
	require.Equal(t, 0, l.Ps)

	for _, n := range []int{0, 1, 4} {
		y := make([]float64, l.StateSize(n))
		for r := 0; r < n; r++ {
			y[l.Y0+r*l.Ys] = float64(r + 1)
		}
		dy := make([]float64, len(y))
		require.NoError(t, sys.Derivative(0, y, []float64{0.5}, dy), "N=%d", n)
		for r := 0; r < n; r++ {
			// a' = -a + b, b' = a - b
			assert.Equal(t, -float64(r+1), dy[l.Y0+r*l.Ys], "N=%d r=%d", n, r)
			assert.Equal(t, float64(r+1), dy[l.Y0+r*l.Ys+1], "N=%d r=%d", n, r)
		}

		bad := make([]float64, l.StateSize(n)+1)
		err := sys.Derivative(0, bad, []float64{0.5}, make([]float64, len(bad)))
		var mismatch *LayoutMismatchError
		require.ErrorAs(t, err, &mismatch, "N=%d", n)
		assert.Equal(t, "y", mismatch.Vector)
	}
}

func TestLayout_ParameterLengthMustAgree(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)
	sys := sim.Program().System

	y := []float64{1, 0, 0}
	err = sys.Derivative(0, y, []float64{0.5, 1}, make([]float64, 3))
	var mismatch *LayoutMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "p", mismatch.Vector)
	assert.Equal(t, 3, mismatch.Want)

	err = sys.Derivative(0, y, []float64{0.5, 1, 1}, make([]float64, 2))
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "dy", mismatch.Vector)
}

func TestSimulator_AccumulatesSharedDerivative(t *testing.T) {
	main := reaction.NewNetwork("main")
	x := main.Species("x", symbolic.N(1))
	main.Creation("feed", reaction.One(x), symbolic.N(3))
	sim, err := New(main, drainLoop(), []*symbolic.Sym{x})
	require.NoError(t, err)
	assert.True(t, sim.Program().Plan.IsShared("x"))
	assert.Equal(t, []string{"w"}, sim.Layout().Private)

	for _, n := range []int{1, 3, 7} {
		y, p, err := sim.CreateInitials(SolveOptions{
			LoopValues: LoopValues{"r": Scalar(0.25)},
			Replicates: n,
		})
		require.NoError(t, err)
		require.Len(t, y, 1+n)
		require.Len(t, p, n)

		dy := make([]float64, len(y))
		require.NoError(t, sim.Program().System.Derivative(0, y, p, dy))
		// x' = 3 - N*r*x with x = 1
		assert.InDelta(t, 3-float64(n)*0.25, dy[0], 1e-15, "N=%d", n)
		for r := 0; r < n; r++ {
			assert.InDelta(t, 0.25, dy[1+r], 1e-15)
		}
	}
}

func TestSimulator_SumMatchesSuffixColumns(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)

	opts := SolveOptions{
		LoopValues: LoopValues{"c": PerReplicate(1, 2, 3.5)},
		SaveAt:     linspace(0, 1, 6),
	}
	opts.Output = Sum
	summed, err := sim.Solve(context.Background(), opts)
	require.NoError(t, err)
	opts.Output = IndexAsSuffix
	split, err := sim.Solve(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "z"}, summed.Columns)
	assert.Equal(t, []string{"x", "z_0", "z_1", "z_2"}, split.Columns)

	total, _ := summed.Column("z")
	for i := range total {
		var want float64
		for _, name := range []string{"z_0", "z_1", "z_2"} {
			col, ok := split.Column(name)
			require.True(t, ok)
			want += col[i]
		}
		assert.InDelta(t, want, total[i], 1e-9)
	}
	last, _ := split.Column("z_2")
	assert.InDelta(t, 3.5, last[len(last)-1], 1e-9)
}

func TestSimulator_ScalarEqualsRepeatedSequence(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)

	save := linspace(0, 1, 5)
	scalar, err := sim.Solve(context.Background(), SolveOptions{
		LoopValues: LoopValues{"c": Scalar(2)},
		Replicates: 3,
		SaveAt:     save,
		Output:     IndexAsSuffix,
	})
	require.NoError(t, err)
	seq, err := sim.Solve(context.Background(), SolveOptions{
		LoopValues: LoopValues{"c": PerReplicate(2, 2, 2)},
		SaveAt:     save,
		Output:     IndexAsSuffix,
	})
	require.NoError(t, err)
	assert.Equal(t, scalar.Columns, seq.Columns)
	assert.Equal(t, scalar.Rows, seq.Rows)
}

func TestSimulator_EndToEnd(t *testing.T) {
	main := reaction.NewNetwork("main")
	x := main.Species("x", symbolic.N(3))
	main.Creation("make_x", reaction.One(x), symbolic.N(1))

	loop := reaction.NewNetwork("loop")
	y := loop.Species("y", nil)
	loop.Creation("make_y", reaction.One(y), symbolic.N(1))

	sim, err := New(main, loop, nil)
	require.NoError(t, err)

	save := linspace(0, 1, 10)
	tb, err := sim.Solve(context.Background(), SolveOptions{
		Replicates: 2,
		SaveAt:     save,
		Output:     Ignore,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tb.Columns)
	assert.False(t, tb.Has("y"))
	assert.False(t, tb.Has("y_0"))

	alone, err := SolveAlone(context.Background(), main, nil, save, nil, nil)
	require.NoError(t, err)

	xs, _ := tb.Column("x")
	xa, _ := alone.Column("x")
	require.Len(t, xs, 10)
	for i, ti := range tb.Index {
		assert.InDelta(t, 3+ti, xs[i], 1e-12)
		assert.InDelta(t, xa[i], xs[i], 1e-12)
	}
}

func TestNewPlan_Errors(t *testing.T) {
	main, _ := decayMain()
	mc, err := reaction.Compile(main)
	require.NoError(t, err)

	t.Run("dangling shared", func(t *testing.T) {
		lc, err := reaction.Compile(growthLoop())
		require.NoError(t, err)
		_, err = NewPlan(mc, lc, []string{"ghost"})
		var dangling *DanglingSharedVariableError
		require.ErrorAs(t, err, &dangling)
		assert.Equal(t, "ghost", dangling.Name)
	})

	t.Run("shared parameter", func(t *testing.T) {
		loop := reaction.NewNetwork("loop")
		loop.Parameter("x", symbolic.N(1))
		loop.Species("z", nil)
		lc, err := reaction.Compile(loop)
		require.NoError(t, err)
		_, err = NewPlan(mc, lc, []string{"x"})
		assert.ErrorIs(t, err, ErrSharedParameter)
	})

	t.Run("uninferable replicates", func(t *testing.T) {
		loop := reaction.NewNetwork("loop")
		x := loop.Species("x", nil)
		loop.Creation("leak", reaction.One(x), symbolic.N(1))
		lc, err := reaction.Compile(loop)
		require.NoError(t, err)
		_, err = NewPlan(mc, lc, []string{"x"})
		assert.ErrorIs(t, err, ErrUninferableReplicates)
	})

	t.Run("unresolved loop symbol", func(t *testing.T) {
		lc, err := reaction.Compile(growthLoop())
		require.NoError(t, err)
		plan, err := NewPlan(mc, lc, nil)
		require.NoError(t, err)
		delete(plan.Mapping, "c")
		_, err = GenerateBody(lc, plan)
		var unresolved *symbolic.UnresolvedSymbolError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "c", unresolved.Name)
	})
}

func TestInitials_Errors(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)

	_, _, err = sim.CreateInitials(SolveOptions{
		LoopValues: LoopValues{"c": PerReplicate(1, 2), "z": PerReplicate(0, 0, 0)},
	})
	var length *OverrideLengthError
	require.ErrorAs(t, err, &length)
	assert.Equal(t, "z", length.Name)
	assert.Equal(t, 3, length.Got)
	assert.Equal(t, 2, length.Want)

	_, _, err = sim.CreateInitials(SolveOptions{
		LoopValues: LoopValues{"c": PerReplicate(1, 2)},
		Replicates: 4,
	})
	require.ErrorAs(t, err, &length)
	assert.Equal(t, 4, length.Want)

	_, _, err = sim.CreateInitials(SolveOptions{LoopValues: LoopValues{"nope": Scalar(1)}})
	var unknown *reaction.UnknownQuantityError
	require.ErrorAs(t, err, &unknown)

	_, _, err = sim.CreateInitials(SolveOptions{MainValues: reaction.Values{"nope": 1}})
	require.ErrorAs(t, err, &unknown)
}

func TestSolve_Errors(t *testing.T) {
	main, _ := decayMain()
	sim, err := New(main, growthLoop(), nil)
	require.NoError(t, err)

	_, err = sim.Solve(context.Background(), SolveOptions{SaveAt: []float64{1}, Output: "average"})
	assert.ErrorIs(t, err, ErrUnknownOutputPolicy)

	_, err = sim.Solve(context.Background(), SolveOptions{})
	assert.ErrorIs(t, err, ErrNoSavePoints)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Solve(ctx, SolveOptions{Replicates: 1, SaveAt: []float64{1}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNew_CompileErrors(t *testing.T) {
	main, _ := decayMain()
	loop := reaction.NewNetwork("loop")
	z := loop.Species("z", nil)
	loop.Creation("make", reaction.One(z), symbolic.S("ghost"))
	_, err := New(main, loop, nil)
	var unresolved *symbolic.UnresolvedSymbolError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, err.Error(), "compile loop")
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": Ignore, "ignore": Ignore, "sum": Sum, "index_as_suffix": IndexAsSuffix} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("mean")
	assert.ErrorIs(t, err, ErrUnknownOutputPolicy)
}

func TestSystem_Source(t *testing.T) {
	main := reaction.NewNetwork("main")
	x := main.Species("x", symbolic.N(1))
	main.Creation("feed", reaction.One(x), symbolic.N(3))
	sim, err := New(main, drainLoop(), []*symbolic.Sym{x})
	require.NoError(t, err)

	src := sim.Program().System.Source()
	for _, line := range []string{
		"func ode_step(t, y, p) ydot {",
		"\tydot[0] = 0\n",
		"\tN_loops = (len(y) - 1) / 1\n",
		"\tfor loop_num in 0 .. N_loops-1 {",
		"\t\ty_offset = loop_num * 1 + 1\n",
		"\t\tp_offset = loop_num * 1 + 0\n",
		"\t\tydot[0] += ",
		"\t\tydot[y_offset + 0] = ",
		"\treturn ydot\n}",
	} {
		assert.Contains(t, src, line)
	}
	assert.True(t, strings.Contains(src, "p[p_offset + 0]"))
}

func TestCache_SharesCompilation(t *testing.T) {
	main, _ := decayMain()
	mc, err := reaction.Compile(main)
	require.NoError(t, err)
	lc, err := reaction.Compile(growthLoop())
	require.NoError(t, err)

	c := NewCache()
	var wg sync.WaitGroup
	progs := make([]*Program, 8)
	for i := range progs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Get(context.Background(), mc, lc, nil)
			assert.NoError(t, err)
			progs[i] = p
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
	for _, p := range progs[1:] {
		assert.Same(t, progs[0], p)
	}

	again, err := NewCompiled(context.Background(), mc, lc, nil, WithCache(c))
	require.NoError(t, err)
	assert.Same(t, progs[0], again.Program())
	hits, misses := c.Stats()
	assert.Equal(t, int64(9), hits+misses)
	assert.GreaterOrEqual(t, hits, int64(1))

	assert.NotEqual(t, Fingerprint(mc, lc, nil), Fingerprint(mc, lc, []string{"x"}))

	// Same equations, different default for x.
	other := reaction.NewNetwork("main")
	k := other.Parameter("k", symbolic.F(1, 2))
	x := other.Species("x", symbolic.N(99))
	other.Destruction("decay", reaction.One(x), k)
	oc, err := reaction.Compile(other)
	require.NoError(t, err)
	require.Equal(t, Fingerprint(mc, lc, nil), Fingerprint(oc, lc, nil))

	second, err := NewCompiled(context.Background(), oc, lc, nil, WithCache(c))
	require.NoError(t, err)
	assert.Same(t, again.Program(), second.Program())
	assert.Equal(t, 1, c.Len())

	y, _, err := again.CreateInitials(SolveOptions{Replicates: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 0}, y)
	y, _, err = second.CreateInitials(SolveOptions{Replicates: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{99, 0}, y)

	top, body := second.Systems()
	assert.Same(t, oc, top)
	assert.Same(t, lc, body)
}

func TestOverride_Decode(t *testing.T) {
	var fromJSON LoopValues
	require.NoError(t, json.Unmarshal([]byte(`{"r": [1, 2, 3], "c": 0.5}`), &fromJSON))
	assert.Equal(t, PerReplicate(1, 2, 3), fromJSON["r"])
	assert.Equal(t, Scalar(0.5), fromJSON["c"])

	var fromYAML LoopValues
	require.NoError(t, yaml.Unmarshal([]byte("r: [1, 2, 3]\nc: 0.5\n"), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)

	out, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"r": [1, 2, 3], "c": 0.5}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"r": "x"}`), &fromJSON))
	assert.Error(t, yaml.Unmarshal([]byte("r: {a: 1}\n"), &fromYAML))
}
