package forms

import (
	"testing"

	"github.com/rwcarlsen/hpfem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// reactor is the three region slab of core, reflector and absorber with an
// albedo condition on the outer boundary.
func reactor(t *testing.T) (*NeutronDiffusion, *hpfem.DiscreteProblem, *hpfem.Mesh) {
	nd := &NeutronDiffusion{
		Materials: map[int]Material{
			0: {D: 0.65, SigmaA: 0.12, NuSigmaF: 0.185},
			1: {D: 0.75, SigmaA: 0.10, NuSigmaF: 0.15},
			2: {D: 1.15, SigmaA: 0.01, NuSigmaF: 0},
		},
		Albedo: 0.5,
	}
	dp := hpfem.NewDiscreteProblem(1)
	nd.Register(dp)

	m, err := hpfem.NewMaterialMesh([]float64{0, 50, 100, 125}, []int{2, 2, 2}, []int{0, 1, 2}, []int{10, 10, 5}, 1)
	require.NoError(t, err)
	m.SetVertexCoeffs(0, 1)
	return nd, dp, m
}

func newPowerIteration(t *testing.T) *PowerIteration {
	return &PowerIteration{
		Tol:     1e-7,
		MaxIter: 5000,
		Newton:  hpfem.Newton{Tol: 1e-9, MaxIter: 10},
		Logger:  zaptest.NewLogger(t),
	}
}

func TestPowerIterationInfiniteMedium(t *testing.T) {
	nd := &NeutronDiffusion{Materials: map[int]Material{0: {D: 1, SigmaA: 0.1, NuSigmaF: 0.12}}}
	dp := hpfem.NewDiscreteProblem(1)
	nd.Register(dp)
	m, err := hpfem.NewMesh(0, 10, 5, 2, 1)
	require.NoError(t, err)
	m.SetVertexCoeffs(0, 1)

	k, iters, err := newPowerIteration(t).Solve(nd, dp, m)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, k, 1e-9)
	assert.Equal(t, k, nd.K)
	assert.LessOrEqual(t, iters, 3)

	u := make([]float64, 1)
	for _, x := range []float64{0, 3.3, 10} {
		require.NoError(t, m.Eval(x, u, nil))
		assert.InDelta(t, 1.2, u[0], 1e-9)
	}
}

func TestPowerIterationReactor(t *testing.T) {
	nd, dp, m := reactor(t)
	k, _, err := newPowerIteration(t).Solve(nd, dp, m)
	require.NoError(t, err)
	assert.Greater(t, k, 1.0)
	assert.Less(t, k, 0.185/0.12)

	// the flux peaks in the core and falls off through the absorber
	u := make([]float64, 1)
	flux := func(x float64) float64 {
		require.NoError(t, m.Eval(x, u, nil))
		return u[0]
	}
	assert.Greater(t, flux(0), 0.0)
	assert.Greater(t, flux(0), flux(75))
	assert.Greater(t, flux(75), flux(125))
	assert.Greater(t, flux(125), 0.0)
}

func TestPowerIterationNoConvergence(t *testing.T) {
	nd, dp, m := reactor(t)
	pi := newPowerIteration(t)
	pi.MaxIter = 1
	_, iters, err := pi.Solve(nd, dp, m)
	assert.ErrorIs(t, err, ErrPowerNoConvergence)
	assert.Equal(t, 1, iters)
}

func TestPowerIterationErrors(t *testing.T) {
	nd, dp, m := reactor(t)
	delete(nd.Materials, 1)
	_, _, err := newPowerIteration(t).Solve(nd, dp, m)
	assert.ErrorIs(t, err, ErrUnknownMaterial)

	nd = &NeutronDiffusion{Materials: map[int]Material{0: {D: 1, SigmaA: 0.1}}}
	dp = hpfem.NewDiscreteProblem(1)
	nd.Register(dp)
	m, err = hpfem.NewMesh(0, 1, 2, 1, 1)
	require.NoError(t, err)
	m.SetVertexCoeffs(0, 1)
	_, _, err = newPowerIteration(t).Solve(nd, dp, m)
	assert.ErrorIs(t, err, ErrZeroYield)
}

func TestNormalizeToPower(t *testing.T) {
	const (
		power = 1e6
		eps   = 3.204e-11
		nu    = 2.43
	)
	nd, dp, m := reactor(t)
	_, _, err := newPowerIteration(t).Solve(nd, dp, m)
	require.NoError(t, err)

	require.NoError(t, NormalizeToPower(m, nd, power, eps, nu))
	assert.InEpsilon(t, power, eps*nd.Yield(m)/nu, 1e-12)

	zero := &NeutronDiffusion{Materials: map[int]Material{0: {}, 1: {}, 2: {}}}
	assert.ErrorIs(t, NormalizeToPower(m, zero, power, eps, nu), ErrZeroYield)
}
