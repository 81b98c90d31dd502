package hpfem

import (
	"testing"

	"github.com/rwcarlsen/hpfem/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// poisson registers -u'' = f for equation 0.
func poisson(f func(x float64) float64) *DiscreteProblem {
	dp := NewDiscreteProblem(1)
	dp.AddMatrixForm(0, 0, MatrixFormFunc(func(p *FormParams) float64 {
		return p.Sum(func(i int) float64 { return p.DPhi[i] * p.DV[i] })
	}))
	dp.AddVectorForm(0, VectorFormFunc(func(p *FormParams) float64 {
		return p.Sum(func(i int) float64 { return p.DU[0][i]*p.DV[i] - f(p.X[i])*p.V[i] })
	}))
	return dp
}

func TestNewtonLinearExact(t *testing.T) {
	m, err := NewMesh(0, 1, 3, 2, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 0)
	m.SetBCRightDirichlet(0, 0)

	newton := &Newton{Tol: 1e-10, MaxIter: 10}
	iters, err := newton.Solve(poisson(func(float64) float64 { return 2 }), m)
	require.NoError(t, err)
	assert.Equal(t, 2, iters)

	u, du := make([]float64, 1), make([]float64, 1)
	for _, x := range []float64{0.1, 0.3, 0.5, 0.99} {
		require.NoError(t, m.Eval(x, u, du))
		assert.InDelta(t, x-x*x, u[0], 1e-12, "u(%v)", x)
		assert.InDelta(t, 1-2*x, du[0], 1e-11, "u'(%v)", x)
	}
}

func TestNewtonNonlinear(t *testing.T) {
	// y' = -y^2, y(0) = 1
	dp := NewDiscreteProblem(1)
	dp.AddMatrixForm(0, 0, MatrixFormFunc(func(p *FormParams) float64 {
		return p.Sum(func(i int) float64 { return (p.DPhi[i] + 2*p.U[0][i]*p.Phi[i]) * p.V[i] })
	}))
	dp.AddVectorForm(0, VectorFormFunc(func(p *FormParams) float64 {
		return p.Sum(func(i int) float64 { return (p.DU[0][i] + p.U[0][i]*p.U[0][i]) * p.V[i] })
	}))

	m, err := NewMesh(0, 1, 10, 5, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.SetVertexCoeffs(0, 1)

	newton := &Newton{Tol: 1e-10, MaxIter: 50, Solver: sparse.GaussJordanSym{}}
	iters, err := newton.Solve(dp, m)
	require.NoError(t, err)
	assert.Greater(t, iters, 2)

	u := make([]float64, 1)
	for _, x := range []float64{0.25, 0.5, 1} {
		require.NoError(t, m.Eval(x, u, nil))
		assert.InDelta(t, 1/(1+x), u[0], 1e-6, "y(%v)", x)
	}
}

func TestNewtonNoConvergence(t *testing.T) {
	m, err := NewMesh(0, 1, 3, 2, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 0)
	m.SetBCRightDirichlet(0, 0)

	newton := &Newton{Tol: 1e-10, MaxIter: 1}
	iters, err := newton.Solve(poisson(func(float64) float64 { return 2 }), m)
	assert.ErrorIs(t, err, ErrNewtonNoConvergence)
	assert.Equal(t, 1, iters)
}

func TestNewtonSolverFailure(t *testing.T) {
	dp := NewDiscreteProblem(1)
	dp.AddMatrixForm(0, 0, MatrixFormFunc(func(p *FormParams) float64 { return 0 }))
	dp.AddVectorForm(0, VectorFormFunc(func(p *FormParams) float64 { return p.Sum(func(i int) float64 { return p.V[i] }) }))

	m, err := NewMesh(0, 1, 2, 1, 1)
	require.NoError(t, err)
	_, err = (&Newton{Tol: 1e-10, MaxIter: 5}).Solve(dp, m)
	assert.ErrorIs(t, err, sparse.ErrSingular)
}

func TestAssembleSkipsDirichlet(t *testing.T) {
	m, err := NewMesh(0, 1, 2, 2, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.AssignDofs()

	J, R := poisson(func(float64) float64 { return 0 }).Assemble(m)
	n, _ := J.Dims()
	assert.Equal(t, m.NDof, n)
	assert.Len(t, R, m.NDof)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, J.At(i, j), J.At(j, i), 1e-14)
		}
	}
	// the boundary value enters through the iterate
	assert.Less(t, R[0], 0.0)
}

func TestNewtonDebugLog(t *testing.T) {
	m, err := NewMesh(0, 1, 3, 2, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 0)
	m.SetBCRightDirichlet(0, 0)

	core, logs := observer.New(zap.DebugLevel)
	newton := &Newton{Tol: 1e-10, MaxIter: 10, Solver: sparse.GaussJordan{}, Logger: zap.New(core)}
	iters, err := newton.Solve(poisson(func(float64) float64 { return 2 }), m)
	require.NoError(t, err)

	entries := logs.FilterMessage("newton iteration").All()
	require.Len(t, entries, iters)
	for _, e := range entries {
		ctx := e.ContextMap()
		assert.EqualValues(t, 5, ctx["ndof"])
		// vertices 0 and 2 of the middle element are coupled
		assert.GreaterOrEqual(t, ctx["bandwidth"], int64(2))
	}
}

func TestNewtonInfoSkipsDebugFields(t *testing.T) {
	m, err := NewMesh(0, 1, 2, 1, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 0)

	core, logs := observer.New(zap.InfoLevel)
	newton := &Newton{Tol: 1e-10, MaxIter: 10, Logger: zap.New(core)}
	_, err = newton.Solve(poisson(func(float64) float64 { return 1 }), m)
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}
