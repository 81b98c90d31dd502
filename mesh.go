// Package hpfem implements a one dimensional hp-adaptive finite element
// engine: hierarchical meshes, weak form assembly, Newton iteration, error
// estimation against a reference solution and hp refinement selection.
package hpfem

import (
	"fmt"
	"sort"

	"github.com/rwcarlsen/hpfem/basis"
)

// Dirichlet holds an optional fixed boundary value for one equation.
type Dirichlet struct {
	Set bool
	Val float64
}

// Mesh represents a collection of elements constituting an approximation for
// a differential equation solution over the interval [A, B].  Elements are
// stored in an arena indexed by their id; Base lists the macro element ids
// from left to right, each the root of a refinement tree.
type Mesh struct {
	A, B float64
	// NEq is the number of equations solved on the mesh.
	NEq int
	// Elems is the element arena.  Ids are stable and preserved by
	// Replicate so the same element is found by the same id in copies.
	Elems   []*Element
	Base    []int
	NActive int
	// NDof is the number of free degrees of freedom after AssignDofs.
	NDof    int
	LeftBC  []Dirichlet
	RightBC []Dirichlet
}

// NewMesh creates a uniform mesh of nElem elements of degree p on [a, b]
// for nEq equations.
func NewMesh(a, b float64, nElem, p, nEq int) (*Mesh, error) {
	if nElem < 1 {
		return nil, fmt.Errorf("%w: need at least one element, got %v", ErrBadGeometry, nElem)
	}
	return NewMaterialMesh([]float64{a, b}, []int{p}, []int{0}, []int{nElem}, nEq)
}

// NewMaterialMesh creates a piecewise material mesh.  Macro interval i spans
// [interfaces[i], interfaces[i+1]] and is subdivided equidistantly into
// subdivisions[i] elements, each carrying degrees[i] and markers[i].
func NewMaterialMesh(interfaces []float64, degrees, markers, subdivisions []int, nEq int) (*Mesh, error) {
	n := len(interfaces) - 1
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least two interfaces", ErrBadGeometry)
	}
	if len(degrees) != n || len(markers) != n || len(subdivisions) != n {
		return nil, fmt.Errorf("%w: %v macro elements but %v degrees, %v markers, %v subdivisions",
			ErrBadGeometry, n, len(degrees), len(markers), len(subdivisions))
	}
	if nEq < 1 {
		return nil, fmt.Errorf("%w: need at least one equation, got %v", ErrBadGeometry, nEq)
	}

	m := &Mesh{
		A:       interfaces[0],
		B:       interfaces[n],
		NEq:     nEq,
		LeftBC:  make([]Dirichlet, nEq),
		RightBC: make([]Dirichlet, nEq),
	}
	for i := 0; i < n; i++ {
		x1, x2 := interfaces[i], interfaces[i+1]
		switch {
		case !(x1 < x2):
			return nil, fmt.Errorf("%w: interfaces not increasing at %v (%v >= %v)", ErrBadGeometry, i, x1, x2)
		case degrees[i] < 1 || degrees[i] > MaxDegree:
			return nil, fmt.Errorf("%w: degree %v of macro element %v outside [1, %v]", ErrBadGeometry, degrees[i], i, MaxDegree)
		case subdivisions[i] < 1:
			return nil, fmt.Errorf("%w: subdivision %v of macro element %v", ErrBadGeometry, subdivisions[i], i)
		}
		h := (x2 - x1) / float64(subdivisions[i])
		for j := 0; j < subdivisions[i]; j++ {
			left, right := x1+float64(j)*h, x1+float64(j+1)*h
			if j == subdivisions[i]-1 {
				right = x2
			}
			id := len(m.Elems)
			m.Elems = append(m.Elems, newElement(id, left, right, degrees[i], 0, markers[i], NoParent, nEq))
			m.Base = append(m.Base, id)
		}
	}
	m.NActive = len(m.Base)
	return m, nil
}

// Elem returns the element with the given id.
func (m *Mesh) Elem(id int) *Element { return m.Elems[id] }

// SetBCLeftDirichlet fixes equation eq to v at the left end of the domain.
func (m *Mesh) SetBCLeftDirichlet(eq int, v float64) { m.LeftBC[eq] = Dirichlet{Set: true, Val: v} }

// SetBCRightDirichlet fixes equation eq to v at the right end of the domain.
func (m *Mesh) SetBCRightDirichlet(eq int, v float64) { m.RightBC[eq] = Dirichlet{Set: true, Val: v} }

// AssignDofs numbers the free degrees of freedom of all active elements,
// equation by equation from left to right.  Adjacent elements share their
// common vertex index and Dirichlet vertices receive DirichletDof with their
// coefficient set to the boundary value.  It returns the number of free
// dofs and must be called again after every refinement.
func (m *Mesh) AssignDofs() int {
	act := m.Active()
	m.NActive = len(act)
	count := 0
	for eq := 0; eq < m.NEq; eq++ {
		for i, e := range act {
			switch {
			case i > 0:
				e.Dof[eq][0] = act[i-1].Dof[eq][1]
			case m.LeftBC[eq].Set:
				e.Dof[eq][0] = DirichletDof
				e.Coeffs[eq][0] = m.LeftBC[eq].Val
			default:
				e.Dof[eq][0] = count
				count++
			}

			if i == len(act)-1 && m.RightBC[eq].Set {
				e.Dof[eq][1] = DirichletDof
				e.Coeffs[eq][1] = m.RightBC[eq].Val
			} else {
				e.Dof[eq][1] = count
				count++
			}

			for k := 2; k <= e.P; k++ {
				e.Dof[eq][k] = count
				count++
			}
		}
	}
	m.NDof = count
	return count
}

// Refine applies candidate c to the active element id.  A p candidate raises
// the element degree keeping its hierarchical coefficients.  A split
// candidate deactivates the element and creates two sons meeting at its
// midpoint with degrees c.PLeft and c.PRight; the son coefficients are zero
// until TransferSolution initializes them.
func (m *Mesh) Refine(id int, c Candidate) error {
	if id < 0 || id >= len(m.Elems) {
		return fmt.Errorf("%w: no element %v", ErrBadRefinement, id)
	}
	e := m.Elems[id]
	if !e.Active {
		return fmt.Errorf("%w: element %v is not active", ErrBadRefinement, id)
	}
	if c.PLeft < 1 || c.PLeft > MaxDegree || (c.Split && (c.PRight < 1 || c.PRight > MaxDegree)) {
		return fmt.Errorf("%w: degrees %v/%v outside [1, %v]", ErrBadRefinement, c.PLeft, c.PRight, MaxDegree)
	}

	if !c.Split {
		if c.PLeft < e.P {
			return fmt.Errorf("%w: degree %v below current %v of element %v", ErrBadRefinement, c.PLeft, e.P, id)
		}
		e.setDegree(c.PLeft)
		return nil
	}

	mid := e.Mid()
	left := newElement(len(m.Elems), e.X1, mid, c.PLeft, e.Level+1, e.Marker, id, m.NEq)
	right := newElement(len(m.Elems)+1, mid, e.X2, c.PRight, e.Level+1, e.Marker, id, m.NEq)
	m.Elems = append(m.Elems, left, right)
	e.Sons = [2]int{left.ID, right.ID}
	e.Active = false
	m.NActive++
	return nil
}

// Replicate returns an independent deep copy of the mesh.
func (m *Mesh) Replicate() *Mesh {
	c := *m
	c.Elems = make([]*Element, len(m.Elems))
	for i, e := range m.Elems {
		c.Elems[i] = e.clone()
	}
	c.Base = append([]int{}, m.Base...)
	c.LeftBC = append([]Dirichlet{}, m.LeftBC...)
	c.RightBC = append([]Dirichlet{}, m.RightBC...)
	return &c
}

// ReferenceRefinement splits count consecutive active elements starting at
// active position start, raising the degree of both sons by one (capped at
// MaxDegree).
func (m *Mesh) ReferenceRefinement(start, count int) error {
	act := m.Active()
	if start < 0 || count < 0 || start+count > len(act) {
		return fmt.Errorf("%w: elements [%v, %v) outside %v active", ErrBadRefinement, start, start+count, len(act))
	}
	for _, e := range act[start : start+count] {
		p := min(e.P+1, MaxDegree)
		if err := m.Refine(e.ID, Candidate{Split: true, PLeft: p, PRight: p}); err != nil {
			return err
		}
	}
	return nil
}

// ActiveDescendants returns the active elements of the subtree rooted at id
// from left to right.
func (m *Mesh) ActiveDescendants(id int) []*Element {
	var elems []*Element
	it := &Iterator{m: m, stack: []int{id}}
	for e := it.Next(); e != nil; e = it.Next() {
		elems = append(elems, e)
	}
	return elems
}

// Find returns the active element containing x.  Points on an interface
// belong to the element on their left.
func (m *Mesh) Find(x float64) (*Element, error) {
	if x < m.A || x > m.B {
		return nil, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutsideDomain, x, m.A, m.B)
	}
	act := m.Active()
	i := sort.Search(len(act), func(i int) bool { return act[i].X2 >= x })
	if i == len(act) {
		i = len(act) - 1
	}
	return act[i], nil
}

// Eval evaluates the solution of every equation at physical point x,
// storing values in u and derivatives in dudx (either may be nil).
func (m *Mesh) Eval(x float64, u, dudx []float64) error {
	e, err := m.Find(x)
	if err != nil {
		return err
	}
	e.EvalPhys(x, u, dudx)
	return nil
}

// CoeffVector gathers the coefficients of the free dofs into a vector
// indexed by dof.
func (m *Mesh) CoeffVector() []float64 {
	y := make([]float64, m.NDof)
	for _, e := range m.Active() {
		for eq := range e.Dof {
			for k, dof := range e.Dof[eq] {
				if dof != DirichletDof {
					y[dof] = e.Coeffs[eq][k]
				}
			}
		}
	}
	return y
}

// SetCoeffVector scatters y into the element coefficients.  Dirichlet
// vertices receive their boundary value.
func (m *Mesh) SetCoeffVector(y []float64) {
	if len(y) != m.NDof {
		panic(fmt.Sprintf("coefficient vector length %v does not match %v dofs", len(y), m.NDof))
	}
	act := m.Active()
	for i, e := range act {
		for eq := range e.Dof {
			for k, dof := range e.Dof[eq] {
				switch {
				case dof != DirichletDof:
					e.Coeffs[eq][k] = y[dof]
				case k == 0 && i == 0:
					e.Coeffs[eq][k] = m.LeftBC[eq].Val
				case k == 1 && i == len(act)-1:
					e.Coeffs[eq][k] = m.RightBC[eq].Val
				}
			}
		}
	}
}

// ScaleCoeffs multiplies the solution by c.
func (m *Mesh) ScaleCoeffs(c float64) {
	for _, e := range m.Active() {
		for eq := range e.Coeffs {
			for k := range e.Coeffs[eq] {
				e.Coeffs[eq][k] *= c
			}
		}
	}
}

// SetVertexCoeffs sets equation eq to the constant v: vertex coefficients
// become v and bubble coefficients zero.
func (m *Mesh) SetVertexCoeffs(eq int, v float64) {
	for _, e := range m.Active() {
		c := e.Coeffs[eq]
		c[0], c[1] = v, v
		for k := 2; k < len(c); k++ {
			c[k] = 0
		}
	}
}

// Integrate sums the integral of f over the active elements.  f receives
// the element, the physical point and the solution of every equation there.
func (m *Mesh) Integrate(f func(e *Element, x float64, u, dudx []float64) float64) float64 {
	tot := 0.0
	u := make([]float64, m.NEq)
	du := make([]float64, m.NEq)
	for _, e := range m.Active() {
		rule := basis.Gauss(3*e.P + 2)
		xs, ws := rule.Map(e.X1, e.X2)
		sol, dsol := e.solution(rule.X)
		for i, x := range xs {
			for eq := range u {
				u[eq], du[eq] = sol[eq][i], dsol[eq][i]
			}
			tot += ws[i] * f(e, x, u, du)
		}
	}
	return tot
}
