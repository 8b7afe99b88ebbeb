package symbolic_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/apoptosim/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_FloatLiteral(t *testing.T) {
	n := symbolic.NFloat(1e-6)
	if n.String() != "1e-06" {
		t.Errorf("want 1e-06, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

// ============================================================
// Sym / Add / Mul tests
// ============================================================

func TestSym_Substitute_Match(t *testing.T) {
	result, err := symbolic.Substitute(symbolic.S("x"), symbolic.Mapping{"x": symbolic.N(3)})
	if err != nil {
		t.Fatal(err)
	}
	if symbolic.String(result) != "3" {
		t.Errorf("want 3, got %s", symbolic.String(result))
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.S("x"))
	if symbolic.String(expr) != "2*x" {
		t.Errorf("want '2*x', got %s", symbolic.String(expr))
	}
}

func TestAdd_Difference(t *testing.T) {
	expr := symbolic.SubOf(symbolic.S("x"), symbolic.S("y"))
	if symbolic.String(expr) != "x - y" {
		t.Errorf("want 'x - y', got %s", symbolic.String(expr))
	}
}

func TestMul_ZeroCollapses(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(0), symbolic.S("volume"))
	if symbolic.String(expr) != "0" {
		t.Errorf("want 0, got %s", symbolic.String(expr))
	}
}

// ============================================================
// Substitution tests
// ============================================================

func TestSubstitute_Slots(t *testing.T) {
	expr := symbolic.MulOf(symbolic.S("KF"), symbolic.S("A"), symbolic.S("B"))
	m := symbolic.Mapping{
		"KF": symbolic.ReplicateParamAt(0),
		"A":  symbolic.ReplicateStateAt(1),
		"B":  symbolic.StateAt(3),
	}
	out, err := symbolic.Substitute(expr, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "p[p_offset + 0]*y[3]*y[y_offset + 1]"
	if symbolic.Render(out) != want {
		t.Errorf("want %s, got %s", want, symbolic.Render(out))
	}
	if expr.String() != "A*B*KF" {
		t.Errorf("input expression changed: %s", expr.String())
	}
}

func TestSubstitute_MissingSymbol(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.MulOf(symbolic.S("k"), symbolic.S("t")))
	_, err := symbolic.Substitute(expr, symbolic.Mapping{"x": symbolic.StateAt(0), "k": symbolic.ParamAt(0)})
	var unresolved *symbolic.UnresolvedSymbolError
	if !errors.As(err, &unresolved) {
		t.Fatalf("want UnresolvedSymbolError, got %v", err)
	}
	if unresolved.Name != "t" {
		t.Errorf("want missing symbol t, got %s", unresolved.Name)
	}
}

func TestSubstitute_TimeSlot(t *testing.T) {
	expr := symbolic.MulOf(symbolic.S("k"), symbolic.S("t"))
	out, err := symbolic.Substitute(expr, symbolic.Mapping{"k": symbolic.ParamAt(2), "t": symbolic.Time()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "p[2]*t" {
		t.Errorf("want p[2]*t, got %s", out.String())
	}
}

// ============================================================
// Compile tests
// ============================================================

func TestCompile_ReplicateOffsets(t *testing.T) {
	expr := symbolic.AddOf(
		symbolic.MulOf(symbolic.ReplicateParamAt(0), symbolic.ReplicateStateAt(1)),
		symbolic.StateAt(0),
	)
	f, err := symbolic.Compile(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := &symbolic.Env{
		Y:       []float64{10, 1, 2, 3, 4},
		P:       []float64{0.5, 2, 3},
		YOffset: 3,
		POffset: 1,
	}
	if got := f(env); got != 18 {
		t.Errorf("want 18, got %v", got)
	}
}

func TestCompile_Reciprocal(t *testing.T) {
	f, err := symbolic.Compile(symbolic.DivOf(symbolic.N(1), symbolic.StateAt(0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f(&symbolic.Env{Y: []float64{4}}); got != 0.25 {
		t.Errorf("want 0.25, got %v", got)
	}
}

func TestCompile_RejectsSymbols(t *testing.T) {
	_, err := symbolic.Compile(symbolic.AddOf(symbolic.StateAt(0), symbolic.S("q")))
	var unresolved *symbolic.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "q" {
		t.Errorf("want unresolved q, got %v", err)
	}
}

// ============================================================
// Parser tests
// ============================================================

func TestParse_Evaluate(t *testing.T) {
	expr, err := symbolic.Parse("2*KF/volume - x^2 + 1e-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values := map[string]float64{"KF": 3, "volume": 0.5, "x": 2}
	got, err := symbolic.Evaluate(expr, func(name string) (float64, error) {
		v, ok := values[name]
		if !ok {
			return 0, &symbolic.UnresolvedSymbolError{Name: name}
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-(12-4+1e-3)) > 1e-12 {
		t.Errorf("want 8.001, got %v", got)
	}
}

func TestParse_PowerBindsTighterThanMinus(t *testing.T) {
	expr, err := symbolic.Parse("-x**2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := symbolic.Evaluate(expr, func(string) (float64, error) { return 3, nil })
	if got != -9 {
		t.Errorf("want -9, got %v", got)
	}
}

func TestParse_DottedIdentifier(t *testing.T) {
	expr, err := symbolic.Parse("mitochondria_0.Bax * 10/0.07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := symbolic.FreeSymbols(expr)["mitochondria_0.Bax"]; !ok {
		t.Errorf("dotted identifier not kept: %s", expr)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(x", "x $ y", "2 3"} {
		if _, err := symbolic.Parse(src); err == nil {
			t.Errorf("Parse(%q) should fail", src)
		}
	}
}

// ============================================================
// JSON tests
// ============================================================

func TestJSON_Slot(t *testing.T) {
	expr := symbolic.MulOf(symbolic.ReplicateParamAt(1), symbolic.StateAt(2))
	m := symbolic.JSONValue(expr)
	back, err := symbolic.FromJSON(roundTrip(t, m))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(expr) {
		t.Errorf("want %s, got %s", expr, back)
	}
}

func roundTrip(t *testing.T, m map[string]interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}
