package ode

// Solver is an embedded Runge-Kutta pair. B gives the propagated solution
// and Bhat the embedded one of lower order; their difference estimates the
// local error.
type Solver struct {
	Name  string
	Order int
	C     []float64   // Runge-Kutta nodes
	A     [][]float64 // Runge-Kutta matrix
	B     []float64   // Solution weights
	Bhat  []float64   // Embedded solution weights
	FSAL  bool        // Last stage is the derivative at the new point
}

// Stages returns the number of stages.
func (s *Solver) Stages() int { return len(s.C) }

// DormandPrince returns the Dormand-Prince 5(4) pair.
func DormandPrince() *Solver {
	return &Solver{
		Name:  "DormandPrince",
		Order: 5,
		C:     []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
		A: [][]float64{
			{},
			{1.0 / 5},
			{3.0 / 40, 9.0 / 40},
			{44.0 / 45, -56.0 / 15, 32.0 / 9},
			{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
			{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
			{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
		},
		B:    []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
		Bhat: []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
		FSAL: true,
	}
}

// BogackiShampine returns the Bogacki-Shampine 3(2) pair.
func BogackiShampine() *Solver {
	return &Solver{
		Name:  "BogackiShampine",
		Order: 3,
		C:     []float64{0, 1.0 / 2, 3.0 / 4, 1},
		A: [][]float64{
			{},
			{1.0 / 2},
			{0, 3.0 / 4},
			{2.0 / 9, 1.0 / 3, 4.0 / 9},
		},
		B:    []float64{2.0 / 9, 1.0 / 3, 4.0 / 9, 0},
		Bhat: []float64{7.0 / 24, 1.0 / 4, 1.0 / 3, 1.0 / 8},
		FSAL: true,
	}
}

// ByName looks up a solver by its Name, case-sensitively. The empty name
// selects DormandPrince.
func ByName(name string) (*Solver, bool) {
	switch name {
	case "", "DormandPrince", "dopri5":
		return DormandPrince(), true
	case "BogackiShampine", "bs3":
		return BogackiShampine(), true
	}
	return nil, false
}
