package hpfem

import (
	"fmt"

	"github.com/rwcarlsen/hpfem/basis"
)

// coveringElem returns the active element of src that covers element id of
// dst: the element itself or its nearest ancestor active in src.
func coveringElem(src, dst *Mesh, id int) (*Element, error) {
	for id != NoParent {
		if id < len(src.Elems) && src.Elems[id].Active {
			return src.Elems[id], nil
		}
		id = dst.Elems[id].Parent
	}
	return nil, ErrMeshMismatch
}

// TransferSolution projects the solution of src onto dst.  dst must be a
// refinement of src: every active element of dst lies inside an active
// element of src with the same id or the id of one of its ancestors.
// Vertex coefficients interpolate the source and bubble coefficients come
// from the H1 seminorm projection of the remainder, so a source polynomial
// of degree at most the target degree is reproduced exactly.
func TransferSolution(src, dst *Mesh) error {
	if src.NEq != dst.NEq {
		return fmt.Errorf("%w: %v vs %v equations", ErrMeshMismatch, src.NEq, dst.NEq)
	}
	for _, d := range dst.Active() {
		s, err := coveringElem(src, dst, d.ID)
		if err != nil {
			return fmt.Errorf("element %v: %w", d.ID, err)
		}
		project(d, s.P, s.EvalPhys)
	}
	return nil
}

// ProjectFunc sets the solution on m to the projection of f used by
// TransferSolution.  Polynomials up to the element degrees are reproduced
// exactly.
func ProjectFunc(m *Mesh, f ExactSolution) {
	for _, e := range m.Active() {
		project(e, DefaultExactOrder/2, f)
	}
}

// project fills the coefficients of d from f, a function whose derivative
// has polynomial degree below srcP.
func project(d *Element, srcP int, f func(x float64, u, dudx []float64)) {
	neq := d.NEq()
	u1, u2 := make([]float64, neq), make([]float64, neq)
	u, du := make([]float64, neq), make([]float64, neq)
	f(d.X1, u1, du)
	f(d.X2, u2, du)
	for eq := 0; eq < neq; eq++ {
		c := d.Coeffs[eq]
		c[0], c[1] = u1[eq], u2[eq]
		for k := 2; k < len(c); k++ {
			c[k] = 0
		}
	}
	if d.P < 2 {
		return
	}

	// b_k = int r'(xi) l_k'(xi) dxi with r the source minus its vertex
	// interpolant; the bubble derivatives are orthonormal.
	rule := basis.Gauss(2*max(d.P, srcP) + 2)
	jac := d.Jacobian()
	for i, xi := range rule.X {
		f(d.ToPhys(xi), u, du)
		for k := 2; k <= d.P; k++ {
			_, lk := basis.Lobatto(k, xi)
			for eq := 0; eq < neq; eq++ {
				dr := du[eq]*jac - (u2[eq]-u1[eq])/2
				d.Coeffs[eq][k] += rule.W[i] * dr * lk
			}
		}
	}
}

// ReferenceMesh returns a global hp refinement of m (every active element
// split with both sons one degree higher) carrying the solution of m with
// its dofs assigned.
func ReferenceMesh(m *Mesh) (*Mesh, error) {
	ref := m.Replicate()
	if err := ref.ReferenceRefinement(0, len(m.Active())); err != nil {
		return nil, err
	}
	if err := TransferSolution(m, ref); err != nil {
		return nil, err
	}
	ref.AssignDofs()
	return ref, nil
}
