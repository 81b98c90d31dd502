package hpfem

import (
	"fmt"

	"github.com/rwcarlsen/hpfem/basis"
)

const (
	// NoSon marks an absent son link.
	NoSon = -1
	// NoParent is the parent id of base elements.
	NoParent = -1
	// DirichletDof marks a vertex whose value is fixed by a Dirichlet
	// condition.  It is never assembled.
	DirichletDof = -1
	// MaxDegree is the highest polynomial degree an element may carry.
	MaxDegree = 10
)

// Element is a node of a binary refinement tree over the sub-interval
// [X1, X2].  Elements live in their mesh's arena and refer to each other by
// id.  Only active (leaf) elements carry meaningful Dof and Coeffs.
type Element struct {
	ID     int
	X1, X2 float64
	// P is the polynomial degree, shared by all equations of the element.
	P      int
	Level  int
	Marker int
	Active bool
	Parent int
	Sons   [2]int
	// Dof[eq][k] is the global index of local shape function k of equation
	// eq.  Index 0 is the left vertex function, 1 the right one and 2..P
	// the bubbles.
	Dof [][]int
	// Coeffs[eq][k] is the coefficient of local shape function k.
	Coeffs [][]float64
}

func newElement(id int, x1, x2 float64, p, level, marker, parent, neq int) *Element {
	e := &Element{
		ID:     id,
		X1:     x1,
		X2:     x2,
		Level:  level,
		Marker: marker,
		Active: true,
		Parent: parent,
		Sons:   [2]int{NoSon, NoSon},
		Dof:    make([][]int, neq),
		Coeffs: make([][]float64, neq),
	}
	e.setDegree(p)
	return e
}

// setDegree changes the element degree keeping the coefficients of the
// shape functions both degrees share.
func (e *Element) setDegree(p int) {
	for eq := range e.Coeffs {
		dof := make([]int, p+1)
		coeffs := make([]float64, p+1)
		copy(dof, e.Dof[eq])
		copy(coeffs, e.Coeffs[eq])
		e.Dof[eq] = dof
		e.Coeffs[eq] = coeffs
	}
	e.P = p
}

func (e *Element) clone() *Element {
	c := *e
	c.Dof = make([][]int, len(e.Dof))
	c.Coeffs = make([][]float64, len(e.Coeffs))
	for eq := range e.Dof {
		c.Dof[eq] = append([]int{}, e.Dof[eq]...)
		c.Coeffs[eq] = append([]float64{}, e.Coeffs[eq]...)
	}
	return &c
}

// NEq returns the number of equations the element carries.
func (e *Element) NEq() int { return len(e.Coeffs) }

// Len returns the element length.
func (e *Element) Len() float64 { return e.X2 - e.X1 }

// Jacobian returns dx/dxref of the map from [-1, 1] onto the element.
func (e *Element) Jacobian() float64 { return (e.X2 - e.X1) / 2 }

// Mid returns the element midpoint.
func (e *Element) Mid() float64 { return (e.X1 + e.X2) / 2 }

// ToPhys maps a reference coordinate in [-1, 1] onto the element.
func (e *Element) ToPhys(xref float64) float64 {
	return (e.X1*(1-xref) + e.X2*(1+xref)) / 2
}

// ToRef maps a physical coordinate onto the reference interval [-1, 1].
func (e *Element) ToRef(x float64) float64 {
	return (2*x - e.X1 - e.X2) / (e.X2 - e.X1)
}

// Contains returns true if x lies within the closed element interval.
func (e *Element) Contains(x float64) bool { return e.X1 <= x && x <= e.X2 }

// Eval evaluates the solution of every equation at reference coordinate
// xref, storing values in u and physical derivatives in dudx.  Either slice
// may be nil.
func (e *Element) Eval(xref float64, u, dudx []float64) {
	val := make([]float64, e.P+1)
	der := make([]float64, e.P+1)
	basis.LobattoAll(e.P, xref, val, der)
	e.combine(val, der, u, dudx)
}

// EvalPhys is Eval at the physical coordinate x.
func (e *Element) EvalPhys(x float64, u, dudx []float64) {
	e.Eval(e.ToRef(x), u, dudx)
}

// combine forms the coefficient weighted sums of precomputed shape function
// values and reference derivatives.
func (e *Element) combine(val, der, u, dudx []float64) {
	jac := e.Jacobian()
	for eq, c := range e.Coeffs {
		uu, du := 0.0, 0.0
		for k := 0; k <= e.P; k++ {
			uu += c[k] * val[k]
			du += c[k] * der[k]
		}
		if u != nil {
			u[eq] = uu
		}
		if dudx != nil {
			dudx[eq] = du / jac
		}
	}
}

// shapeTable holds shape function values and physical derivatives at a set
// of quadrature points: Val[k][pt] and Der[k][pt].
type shapeTable struct {
	Val [][]float64
	Der [][]float64
}

// shapes tabulates the element shape functions at the reference points
// xrefs.
func (e *Element) shapes(xrefs []float64) shapeTable {
	jac := e.Jacobian()
	t := shapeTable{Val: make([][]float64, e.P+1), Der: make([][]float64, e.P+1)}
	for k := range t.Val {
		t.Val[k] = make([]float64, len(xrefs))
		t.Der[k] = make([]float64, len(xrefs))
		for i, x := range xrefs {
			v, d := basis.Lobatto(k, x)
			t.Val[k][i] = v
			t.Der[k][i] = d / jac
		}
	}
	return t
}

// solution evaluates every equation at the reference points xrefs
// returning u[eq][pt] and dudx[eq][pt].
func (e *Element) solution(xrefs []float64) (u, dudx [][]float64) {
	u = make([][]float64, e.NEq())
	dudx = make([][]float64, e.NEq())
	t := e.shapes(xrefs)
	for eq, c := range e.Coeffs {
		u[eq] = make([]float64, len(xrefs))
		dudx[eq] = make([]float64, len(xrefs))
		for k := 0; k <= e.P; k++ {
			for i := range xrefs {
				u[eq][i] += c[k] * t.Val[k][i]
				dudx[eq][i] += c[k] * t.Der[k][i]
			}
		}
	}
	return u, dudx
}

func (e *Element) String() string {
	return fmt.Sprintf("elem %v [%v, %v] p=%v level=%v marker=%v", e.ID, e.X1, e.X2, e.P, e.Level, e.Marker)
}
