package hpfem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubic(x float64, u, dudx []float64) {
	u[0] = x*x*x - 2*x + 1
	u[1] = 3 - x
	if dudx != nil {
		dudx[0] = 3*x*x - 2
		dudx[1] = -1
	}
}

func assertReproduces(t *testing.T, m *Mesh, f ExactSolution, tol float64) {
	t.Helper()
	u, du := make([]float64, m.NEq), make([]float64, m.NEq)
	v, dv := make([]float64, m.NEq), make([]float64, m.NEq)
	for _, e := range m.Active() {
		for _, xref := range []float64{-1, -0.4, 0.3, 1} {
			x := e.ToPhys(xref)
			e.Eval(xref, u, du)
			f(x, v, dv)
			assert.InDeltaSlice(t, v, u, tol, "u at %v in %v", x, e)
			assert.InDeltaSlice(t, dv, du, tol, "du at %v in %v", x, e)
		}
	}
}

func TestTransferPolynomialExact(t *testing.T) {
	cands := []Candidate{
		{PLeft: 3},
		{PLeft: 6},
		{Split: true, PLeft: 3, PRight: 3},
		{Split: true, PLeft: 4, PRight: 5},
	}
	for _, c := range cands {
		src, err := NewMesh(-1, 2, 3, 3, 2)
		require.NoError(t, err)
		ProjectFunc(src, cubic)
		assertReproduces(t, src, cubic, 1e-12)

		dst := src.Replicate()
		for _, e := range src.Active() {
			require.NoError(t, dst.Refine(e.ID, c))
		}
		require.NoError(t, dst.ReferenceRefinement(0, 1))
		require.NoError(t, TransferSolution(src, dst))
		assertReproduces(t, dst, cubic, 1e-11)
	}
}

func TestTransferKeepsCoarseInterpolant(t *testing.T) {
	src, err := NewMesh(0, 1, 2, 1, 1)
	require.NoError(t, err)
	ProjectFunc(src, square)

	dst := src.Replicate()
	require.NoError(t, dst.Refine(0, Candidate{PLeft: 4}))
	require.NoError(t, TransferSolution(src, dst))

	// the source is linear on each element so the bubbles stay zero
	for k := 2; k <= 4; k++ {
		assert.InDelta(t, 0, dst.Elem(0).Coeffs[0][k], 1e-14)
	}
	assert.InDelta(t, 0.25, dst.Elem(0).Coeffs[0][1], 1e-15)
}

func TestTransferMismatch(t *testing.T) {
	src, err := NewMesh(0, 1, 2, 1, 1)
	require.NoError(t, err)

	other, err := NewMesh(0, 1, 2, 1, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, TransferSolution(src, other), ErrMeshMismatch)

	finer, err := NewMesh(0, 1, 5, 1, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, TransferSolution(src, finer), ErrMeshMismatch)
}

func TestReferenceMesh(t *testing.T) {
	m, err := NewMaterialMesh([]float64{0, 1, 2}, []int{3, MaxDegree}, []int{0, 1}, []int{1, 2}, 2)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	ProjectFunc(m, cubic)
	m.AssignDofs()

	ref, err := ReferenceMesh(m)
	require.NoError(t, err)
	assert.Equal(t, 2*m.NActive, ref.NActive)
	assert.Equal(t, 3, m.NActive, "coarse mesh untouched")

	for _, e := range m.Active() {
		sons := ref.ActiveDescendants(e.ID)
		require.Len(t, sons, 2)
		for _, s := range sons {
			assert.Equal(t, min(e.P+1, MaxDegree), s.P)
			assert.Equal(t, e.Marker, s.Marker)
		}
	}
	assert.Greater(t, ref.NDof, m.NDof)
	assertReproduces(t, ref, cubic, 1e-11)
}
