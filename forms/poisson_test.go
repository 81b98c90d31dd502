package forms

import (
	"math"
	"testing"

	"github.com/rwcarlsen/hpfem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, dp *hpfem.DiscreteProblem, m *hpfem.Mesh) {
	t.Helper()
	newton := &hpfem.Newton{Tol: 1e-10, MaxIter: 50}
	_, err := newton.Solve(dp, m)
	require.NoError(t, err)
}

func TestHeatConduction(t *testing.T) {
	tests := []struct {
		NElem, P int
	}{
		{NElem: 2, P: 2},
		{NElem: 4, P: 1},
		{NElem: 3, P: 4},
	}
	want := map[float64]float64{0: 0, 1: 85, 2: 145, 3: 180, 4: 190}

	for _, test := range tests {
		m, err := hpfem.NewMesh(0, 4, test.NElem, test.P, 1)
		require.NoError(t, err)
		m.SetBCLeftDirichlet(0, 0)

		dp := hpfem.NewDiscreteProblem(1)
		(&Poisson{K: Const(2), F: Const(50)}).Register(dp)
		Neumann{Side: hpfem.Right, Deriv: -5}.Register(dp, 0)
		solve(t, dp, m)

		u := make([]float64, 1)
		for _, e := range m.Active() {
			for _, x := range []float64{e.X1, e.X2} {
				require.NoError(t, m.Eval(x, u, nil))
				assert.InDelta(t, -12.5*x*x+97.5*x, u[0], 1e-9, "%v elems p=%v x=%v", test.NElem, test.P, x)
				if v, ok := want[x]; ok {
					assert.InDelta(t, v, u[0], 1e-9)
				}
			}
		}
	}
}

func TestPoissonDirichlet(t *testing.T) {
	m, err := hpfem.NewMesh(0, 2*math.Pi, 20, 5, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.SetBCRightDirichlet(0, 1)

	dp := hpfem.NewDiscreteProblem(1)
	(&Poisson{F: math.Sin}).Register(dp)
	solve(t, dp, m)

	u, du := make([]float64, 1), make([]float64, 1)
	for x := 0.0; x <= 2*math.Pi; x += 0.3 {
		require.NoError(t, m.Eval(x, u, du))
		assert.InDelta(t, math.Sin(x)+1, u[0], 1e-6)
		assert.InDelta(t, math.Cos(x), du[0], 1e-4)
	}
}

func TestNeumannLeft(t *testing.T) {
	m, err := hpfem.NewMesh(0, math.Pi, 20, 5, 1)
	require.NoError(t, err)
	m.SetBCRightDirichlet(0, math.Pi)

	dp := hpfem.NewDiscreteProblem(1)
	(&Poisson{F: math.Sin}).Register(dp)
	Neumann{Side: hpfem.Left, Deriv: 2}.Register(dp, 0)
	solve(t, dp, m)

	u := make([]float64, 1)
	for _, x := range []float64{0, 0.5, 1.5, 3} {
		require.NoError(t, m.Eval(x, u, nil))
		assert.InDelta(t, math.Sin(x)+x, u[0], 1e-6, "u(%v)", x)
	}
}

func TestFirstOrder(t *testing.T) {
	m, err := hpfem.NewMesh(0, 1, 10, 5, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.SetVertexCoeffs(0, 1)

	dp := hpfem.NewDiscreteProblem(1)
	f := &FirstOrder{
		F:    func(y, x float64) float64 { return -y * y },
		DFDY: func(y, x float64) float64 { return -2 * y },
	}
	f.Register(dp)
	solve(t, dp, m)

	u := make([]float64, 1)
	for _, x := range []float64{0.1, 0.5, 1} {
		require.NoError(t, m.Eval(x, u, nil))
		assert.InDelta(t, 1/(1+x), u[0], 1e-6)
	}
}

func TestSineSystem(t *testing.T) {
	s := SineSystem{K: 2}
	m, err := hpfem.NewMesh(0, math.Pi, 20, 4, 2)
	require.NoError(t, err)
	dp := hpfem.NewDiscreteProblem(2)
	s.Register(dp, m)
	solve(t, dp, m)

	u, du := make([]float64, 2), make([]float64, 2)
	v, dv := make([]float64, 2), make([]float64, 2)
	for _, x := range []float64{0, 0.7, 1.9, math.Pi} {
		require.NoError(t, m.Eval(x, u, du))
		s.Exact(x, v, dv)
		assert.InDeltaSlice(t, v, u, 1e-5, "x=%v", x)
	}

	errL2 := hpfem.ExactSolError(hpfem.NormL2, m, s.Exact)
	assert.Less(t, errL2, 1e-5)
}

func TestPoissonDirichletCoarse(t *testing.T) {
	m, err := hpfem.NewMesh(0, 2*math.Pi, 3, 3, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.SetBCRightDirichlet(0, 1)

	dp := hpfem.NewDiscreteProblem(1)
	(&Poisson{F: math.Sin}).Register(dp)
	iters, err := (&hpfem.Newton{Tol: 1e-8, MaxIter: 10}).Solve(dp, m)
	require.NoError(t, err)
	assert.Equal(t, 2, iters)

	u := make([]float64, 1)
	for _, e := range m.Active() {
		// nodal values are exact up to quadrature of the load
		require.NoError(t, m.Eval(e.X2, u, nil))
		assert.InDelta(t, math.Sin(e.X2)+1, u[0], 1e-6)
		require.NoError(t, m.Eval(e.Mid(), u, nil))
		assert.InDelta(t, math.Sin(e.Mid())+1, u[0], 0.1)
	}
}
