// Package forms provides weak forms of model problems for the fem engine and
// the neutron diffusion power iteration.
package forms

import "github.com/rwcarlsen/hpfem"

// Func is a scalar function of the physical coordinate.
type Func func(x float64) float64

// Const returns a Func with the constant value v.
func Const(v float64) Func { return func(float64) float64 { return v } }

// Poisson implements -(K u')' = F for one equation:
//
//    residual: int K u' v' - F v
//    jacobian: int K phi' v'
type Poisson struct {
	// K is the conductivity.  Nil means one.
	K Func
	F Func
}

func (p *Poisson) k(x float64) float64 {
	if p.K == nil {
		return 1
	}
	return p.K(x)
}

func (p *Poisson) Matrix(fp *hpfem.FormParams) float64 {
	return fp.Sum(func(i int) float64 { return p.k(fp.X[i]) * fp.DPhi[i] * fp.DV[i] })
}

func (p *Poisson) Vector(fp *hpfem.FormParams) float64 {
	eq := 0
	return fp.Sum(func(i int) float64 {
		return p.k(fp.X[i])*fp.DU[eq][i]*fp.DV[i] - p.F(fp.X[i])*fp.V[i]
	})
}

// Register adds the volume forms of p for equation 0 of dp.
func (p *Poisson) Register(dp *hpfem.DiscreteProblem) {
	dp.AddMatrixForm(0, 0, p)
	dp.AddVectorForm(0, p)
}

// Neumann prescribes the flux K u' = Deriv on one side of the domain.  It
// supplies the boundary term of the integration by parts in Poisson.
type Neumann struct {
	Side  hpfem.Side
	Deriv float64
}

func (n Neumann) SurfVector(p *hpfem.SurfParams) float64 {
	if n.Side == hpfem.Left {
		return n.Deriv * p.V
	}
	return -n.Deriv * p.V
}

// Register adds the boundary term for equation eq.
func (n Neumann) Register(dp *hpfem.DiscreteProblem, eq int) {
	dp.AddVectorFormSurf(eq, n, n.Side)
}
