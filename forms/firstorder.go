package forms

import "github.com/rwcarlsen/hpfem"

// FirstOrder implements the scalar ODE y' = F(y, x) with the residual
// int (y' - F(y, x)) v and Jacobian int (phi' - dF/dy(y, x) phi) v.
type FirstOrder struct {
	F    func(y, x float64) float64
	DFDY func(y, x float64) float64
}

func (f *FirstOrder) Matrix(p *hpfem.FormParams) float64 {
	return p.Sum(func(i int) float64 {
		return (p.DPhi[i] - f.DFDY(p.U[0][i], p.X[i])*p.Phi[i]) * p.V[i]
	})
}

func (f *FirstOrder) Vector(p *hpfem.FormParams) float64 {
	return p.Sum(func(i int) float64 {
		return (p.DU[0][i] - f.F(p.U[0][i], p.X[i])) * p.V[i]
	})
}

func (f *FirstOrder) Register(dp *hpfem.DiscreteProblem) {
	dp.AddMatrixForm(0, 0, f)
	dp.AddVectorForm(0, f)
}
