package hpfem

import (
	"fmt"
	"math"

	"github.com/rwcarlsen/hpfem/basis"
)

// Norm selects the norm errors are measured in.
type Norm int

const (
	// NormL2 measures value differences only.
	NormL2 Norm = iota
	// NormH1 adds derivative differences to NormL2.
	NormH1
)

// Defaults of the exact solution diagnostics.
const (
	DefaultExactSubdivision = 500
	DefaultExactOrder       = 20
)

// ExactSolution evaluates a known solution of every equation at x.
type ExactSolution func(x float64, u, dudx []float64)

func (n Norm) pointSq(u, du, v, dv []float64) float64 {
	tot := 0.0
	for eq := range u {
		d := u[eq] - v[eq]
		tot += d * d
		if n == NormH1 {
			dd := du[eq] - dv[eq]
			tot += dd * dd
		}
	}
	return tot
}

// elemErrSq integrates the squared difference between coarse element e and
// the active descendants of the same id in ref.
func elemErrSq(norm Norm, e *Element, ref *Mesh) float64 {
	if e.ID >= len(ref.Elems) {
		panic(fmt.Sprintf("element %v not in reference mesh", e.ID))
	}
	neq := e.NEq()
	u, du := make([]float64, neq), make([]float64, neq)
	v, dv := make([]float64, neq), make([]float64, neq)

	tot := 0.0
	for _, r := range ref.ActiveDescendants(e.ID) {
		rule := basis.Gauss(2*max(e.P, r.P) + 2)
		xs, ws := rule.Map(r.X1, r.X2)
		for i, x := range xs {
			e.EvalPhys(x, u, du)
			r.Eval(rule.X[i], v, dv)
			tot += ws[i] * norm.pointSq(u, du, v, dv)
		}
	}
	return tot
}

// ElemErrorsEst returns the squared error of every active element of m
// (left to right) measured against the reference mesh ref, which must have
// been obtained by refining a replica of m.  total is the square root of
// their sum.
func ElemErrorsEst(norm Norm, m, ref *Mesh) (errSq []float64, total float64) {
	act := m.Active()
	errSq = make([]float64, len(act))
	sum := 0.0
	for k, e := range act {
		errSq[k] = elemErrSq(norm, e, ref)
		sum += errSq[k]
	}
	return errSq, math.Sqrt(sum)
}

// ApproxSolNorm returns the norm of the solution on m.
func ApproxSolNorm(norm Norm, m *Mesh) float64 {
	zero := make([]float64, m.NEq)
	sum := m.Integrate(func(e *Element, x float64, u, dudx []float64) float64 {
		return norm.pointSq(u, dudx, zero, zero)
	})
	return math.Sqrt(sum)
}

// ExactSolError returns the norm of the difference between the solution on
// m and exact.  It is a diagnostic and never drives adaptivity.
func ExactSolError(norm Norm, m *Mesh, exact ExactSolution) float64 {
	v, dv := make([]float64, m.NEq), make([]float64, m.NEq)
	u, du := make([]float64, m.NEq), make([]float64, m.NEq)
	sum := 0.0
	for _, e := range m.Active() {
		rule := basis.Gauss(max(DefaultExactOrder, 2*e.P+2))
		xs, ws := rule.Map(e.X1, e.X2)
		for i, x := range xs {
			e.Eval(rule.X[i], u, du)
			exact(x, v, dv)
			sum += ws[i] * norm.pointSq(u, du, v, dv)
		}
	}
	return math.Sqrt(sum)
}

// ExactSolNorm returns the norm of exact over [a, b] using a Gauss rule of
// the given order on each of subdivision equal intervals.
func ExactSolNorm(norm Norm, exact ExactSolution, nEq int, a, b float64, subdivision, order int) float64 {
	v, dv := make([]float64, nEq), make([]float64, nEq)
	zero := make([]float64, nEq)
	rule := basis.Gauss(order)
	h := (b - a) / float64(subdivision)
	sum := 0.0
	for k := 0; k < subdivision; k++ {
		xs, ws := rule.Map(a+float64(k)*h, a+float64(k+1)*h)
		for i, x := range xs {
			exact(x, v, dv)
			sum += ws[i] * norm.pointSq(v, dv, zero, zero)
		}
	}
	return math.Sqrt(sum)
}
