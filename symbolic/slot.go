package symbolic

import "strconv"

// ============================================================
// Slot: indexed reference into t, y or p
// ============================================================

// Vector names the flat vector a Slot reads from.
type Vector byte

const (
	TimeVector  Vector = 't'
	StateVector Vector = 'y'
	ParamVector Vector = 'p'
)

// Slot is the target of a substitution: a leaf that reads the independent
// variable, a fixed position of y or p, or a position relative to the
// current replicate offset.
type Slot struct {
	vec       Vector
	replicate bool
	index     int
}

func Time() *Slot                  { return &Slot{vec: TimeVector} }
func StateAt(i int) *Slot          { return &Slot{vec: StateVector, index: i} }
func ParamAt(i int) *Slot          { return &Slot{vec: ParamVector, index: i} }
func ReplicateStateAt(i int) *Slot { return &Slot{vec: StateVector, replicate: true, index: i} }
func ReplicateParamAt(i int) *Slot { return &Slot{vec: ParamVector, replicate: true, index: i} }

func (s *Slot) Vector() Vector   { return s.vec }
func (s *Slot) Replicate() bool  { return s.replicate }
func (s *Slot) Index() int       { return s.index }
func (s *Slot) Simplify() Expr   { return s }
func (s *Slot) LaTeX() string    { return s.String() }
func (s *Slot) exprType() string { return "slot" }

func (s *Slot) Equal(other Expr) bool {
	o, ok := other.(*Slot)
	return ok && *s == *o
}

func (s *Slot) String() string {
	if s.vec == TimeVector {
		return "t"
	}
	v := string(s.vec)
	if !s.replicate {
		return v + "[" + strconv.Itoa(s.index) + "]"
	}
	return v + "[" + v + "_offset + " + strconv.Itoa(s.index) + "]"
}

func (s *Slot) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"type":      "slot",
		"vector":    string(s.vec),
		"replicate": s.replicate,
		"index":     s.index,
	}
}
