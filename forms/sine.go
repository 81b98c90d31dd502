package forms

import (
	"math"

	"github.com/rwcarlsen/hpfem"
)

// SineSystem is the first order system
//
//    u' - v = 0
//    v' + K^2 u = 0
//
// whose solution with u(0) = 0 and v(0) = K is u = sin(Kx), v = K cos(Kx).
type SineSystem struct {
	K float64
}

// Register adds the forms of both equations and the initial conditions on
// the left end of m.
func (s SineSystem) Register(dp *hpfem.DiscreteProblem, m *hpfem.Mesh) {
	k2 := s.K * s.K
	dp.AddMatrixForm(0, 0, hpfem.MatrixFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return p.DPhi[i] * p.V[i] })
	}))
	dp.AddMatrixForm(0, 1, hpfem.MatrixFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return -p.Phi[i] * p.V[i] })
	}))
	dp.AddMatrixForm(1, 0, hpfem.MatrixFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return k2 * p.Phi[i] * p.V[i] })
	}))
	dp.AddMatrixForm(1, 1, hpfem.MatrixFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return p.DPhi[i] * p.V[i] })
	}))
	dp.AddVectorForm(0, hpfem.VectorFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return (p.DU[0][i] - p.U[1][i]) * p.V[i] })
	}))
	dp.AddVectorForm(1, hpfem.VectorFormFunc(func(p *hpfem.FormParams) float64 {
		return p.Sum(func(i int) float64 { return (p.DU[1][i] + k2*p.U[0][i]) * p.V[i] })
	}))

	m.SetBCLeftDirichlet(0, 0)
	m.SetBCLeftDirichlet(1, s.K)
}

// Exact evaluates the exact solution.
func (s SineSystem) Exact(x float64, u, dudx []float64) {
	sin, cos := math.Sincos(s.K * x)
	u[0], u[1] = sin, s.K*cos
	dudx[0], dudx[1] = s.K*cos, -s.K*s.K*sin
}
