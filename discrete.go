package hpfem

import (
	"fmt"

	"github.com/rwcarlsen/hpfem/basis"
	"github.com/rwcarlsen/hpfem/sparse"
)

// AnyMarker registers a volume form for elements of every material.
const AnyMarker = -1

type matrixEntry struct {
	i, j, marker int
	f            MatrixForm
}

type vectorEntry struct {
	i, marker int
	f         VectorForm
}

type surfMatrixEntry struct {
	i, j int
	side Side
	f    SurfMatrixForm
}

type surfVectorEntry struct {
	i    int
	side Side
	f    SurfVectorForm
}

// DiscreteProblem is a registry of weak forms over NEq coupled equations.
// Registration is additive: every form matching an element contributes.
type DiscreteProblem struct {
	NEq        int
	matrix     []matrixEntry
	vector     []vectorEntry
	surfMatrix []surfMatrixEntry
	surfVector []surfVectorEntry
}

// NewDiscreteProblem returns an empty registry for neq equations.
func NewDiscreteProblem(neq int) *DiscreteProblem { return &DiscreteProblem{NEq: neq} }

func (dp *DiscreteProblem) checkEq(eqs ...int) {
	for _, eq := range eqs {
		if eq < 0 || eq >= dp.NEq {
			panic(fmt.Sprintf("equation %v out of range [0, %v)", eq, dp.NEq))
		}
	}
}

// AddMatrixForm registers f as the Jacobian block (i, j) on all elements.
func (dp *DiscreteProblem) AddMatrixForm(i, j int, f MatrixForm) {
	dp.AddMatrixFormMarker(i, j, AnyMarker, f)
}

// AddMatrixFormMarker registers f as the Jacobian block (i, j) on elements
// with the given material marker.
func (dp *DiscreteProblem) AddMatrixFormMarker(i, j, marker int, f MatrixForm) {
	dp.checkEq(i, j)
	dp.matrix = append(dp.matrix, matrixEntry{i: i, j: j, marker: marker, f: f})
}

// AddVectorForm registers f as residual of equation i on all elements.
func (dp *DiscreteProblem) AddVectorForm(i int, f VectorForm) {
	dp.AddVectorFormMarker(i, AnyMarker, f)
}

// AddVectorFormMarker registers f as residual of equation i on elements
// with the given material marker.
func (dp *DiscreteProblem) AddVectorFormMarker(i, marker int, f VectorForm) {
	dp.checkEq(i)
	dp.vector = append(dp.vector, vectorEntry{i: i, marker: marker, f: f})
}

// AddMatrixFormSurf registers f as the boundary Jacobian block (i, j) at side.
func (dp *DiscreteProblem) AddMatrixFormSurf(i, j int, f SurfMatrixForm, side Side) {
	dp.checkEq(i, j)
	dp.surfMatrix = append(dp.surfMatrix, surfMatrixEntry{i: i, j: j, side: side, f: f})
}

// AddVectorFormSurf registers f as boundary residual of equation i at side.
func (dp *DiscreteProblem) AddVectorFormSurf(i int, f SurfVectorForm, side Side) {
	dp.checkEq(i)
	dp.surfVector = append(dp.surfVector, surfVectorEntry{i: i, side: side, f: f})
}

func markerMatch(registered, marker int) bool {
	return registered == AnyMarker || registered == marker
}

// Assemble builds the Jacobian J and residual R at the current mesh
// coefficients.  Element integrals use a Gauss rule of order 3P+2.  Rows
// and columns of Dirichlet vertices are skipped; their values enter the
// forms through the current iterate.  The mesh dofs must be assigned.
func (dp *DiscreteProblem) Assemble(m *Mesh) (J *sparse.Sparse, R []float64) {
	if m.NEq != dp.NEq {
		panic(fmt.Sprintf("mesh has %v equations, problem %v", m.NEq, dp.NEq))
	}
	J = sparse.NewSparse(m.NDof)
	R = make([]float64, m.NDof)

	act := m.Active()
	for n, e := range act {
		rule := basis.Gauss(3*e.P + 2)
		xs, ws := rule.Map(e.X1, e.X2)
		shapes := e.shapes(rule.X)
		u, du := e.solution(rule.X)
		p := &FormParams{Elem: e, X: xs, W: ws, U: u, DU: du}
		dp.assembleVol(J, R, e, p, shapes)

		if n == 0 {
			dp.assembleSurf(J, R, e, Left)
		}
		if n == len(act)-1 {
			dp.assembleSurf(J, R, e, Right)
		}
	}
	return J, R
}

func (dp *DiscreteProblem) assembleVol(J *sparse.Sparse, R []float64, e *Element, p *FormParams, shapes shapeTable) {
	for _, mf := range dp.matrix {
		if !markerMatch(mf.marker, e.Marker) {
			continue
		}
		for i := 0; i <= e.P; i++ {
			row := e.Dof[mf.i][i]
			if row == DirichletDof {
				continue
			}
			p.I, p.V, p.DV = i, shapes.Val[i], shapes.Der[i]
			for j := 0; j <= e.P; j++ {
				col := e.Dof[mf.j][j]
				if col == DirichletDof {
					continue
				}
				p.J, p.Phi, p.DPhi = j, shapes.Val[j], shapes.Der[j]
				J.Add(row, col, mf.f.Matrix(p))
			}
		}
	}
	p.J, p.Phi, p.DPhi = 0, nil, nil

	for _, vf := range dp.vector {
		if !markerMatch(vf.marker, e.Marker) {
			continue
		}
		for i := 0; i <= e.P; i++ {
			row := e.Dof[vf.i][i]
			if row == DirichletDof {
				continue
			}
			p.I, p.V, p.DV = i, shapes.Val[i], shapes.Der[i]
			R[row] += vf.f.Vector(p)
		}
	}
}

func (dp *DiscreteProblem) assembleSurf(J *sparse.Sparse, R []float64, e *Element, side Side) {
	xref, x := -1.0, e.X1
	if side == Right {
		xref, x = 1, e.X2
	}
	shapes := e.shapes([]float64{xref})
	u, du := make([]float64, e.NEq()), make([]float64, e.NEq())
	e.Eval(xref, u, du)
	p := &SurfParams{Elem: e, Side: side, X: x, U: u, DU: du}

	for _, mf := range dp.surfMatrix {
		if mf.side != side {
			continue
		}
		for i := 0; i <= e.P; i++ {
			row := e.Dof[mf.i][i]
			if row == DirichletDof {
				continue
			}
			p.I, p.V, p.DV = i, shapes.Val[i][0], shapes.Der[i][0]
			for j := 0; j <= e.P; j++ {
				col := e.Dof[mf.j][j]
				if col == DirichletDof {
					continue
				}
				p.J, p.Phi, p.DPhi = j, shapes.Val[j][0], shapes.Der[j][0]
				J.Add(row, col, mf.f.SurfMatrix(p))
			}
		}
	}

	for _, vf := range dp.surfVector {
		if vf.side != side {
			continue
		}
		for i := 0; i <= e.P; i++ {
			row := e.Dof[vf.i][i]
			if row == DirichletDof {
				continue
			}
			p.I, p.V, p.DV = i, shapes.Val[i][0], shapes.Der[i][0]
			R[row] += vf.f.SurfVector(p)
		}
	}
}
