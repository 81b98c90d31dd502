package hpfem

import (
	"fmt"
	"io"
)

// Sample is the solution of every equation at one point.
type Sample struct {
	X    float64
	U    []float64
	DUDX []float64
}

// ElemInfo describes one active element.
type ElemInfo struct {
	ID     int
	X1, X2 float64
	P      int
	Level  int
	Marker int
}

// Samples evaluates the solution at n evenly spaced points per active
// element, both element ends included.
func (m *Mesh) Samples(n int) []Sample {
	if n < 2 {
		n = 2
	}
	var samples []Sample
	for _, e := range m.Active() {
		for i := 0; i < n; i++ {
			xref := -1 + 2*float64(i)/float64(n-1)
			s := Sample{X: e.ToPhys(xref), U: make([]float64, m.NEq), DUDX: make([]float64, m.NEq)}
			e.Eval(xref, s.U, s.DUDX)
			samples = append(samples, s)
		}
	}
	return samples
}

// Layout lists the active elements from left to right.
func (m *Mesh) Layout() []ElemInfo {
	var infos []ElemInfo
	for _, e := range m.Active() {
		infos = append(infos, ElemInfo{ID: e.ID, X1: e.X1, X2: e.X2, P: e.P, Level: e.Level, Marker: e.Marker})
	}
	return infos
}

// WriteSolution prints the solution sampled n times per element in
// tab-separated form (one sample per line, one blank line between
// elements):
//
//    [x]	[u_0]	[du_0/dx]	[u_1]	...
func WriteSolution(w io.Writer, m *Mesh, n int) error {
	samples := m.Samples(n)
	perElem := max(n, 2)
	for i, s := range samples {
		if i > 0 && i%perElem == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%v", s.X); err != nil {
			return err
		}
		for eq := range s.U {
			if _, err := fmt.Fprintf(w, "\t%v\t%v", s.U[eq], s.DUDX[eq]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteMesh prints the element layout with columns
//
//    [x1]	[x2]	[p]	[level]	[marker]
func WriteMesh(w io.Writer, m *Mesh) error {
	for _, e := range m.Layout() {
		if _, err := fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", e.X1, e.X2, e.P, e.Level, e.Marker); err != nil {
			return err
		}
	}
	return nil
}

// WriteHistory prints the convergence history with columns
//
//    [step]	[ndof]	[ndof_ref]	[err_rel%]	[err_exact%]
func WriteHistory(w io.Writer, h History) error {
	for _, s := range h {
		if _, err := fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", s.Step, s.NDof, s.NDofRef, s.ErrRel, s.ErrExact); err != nil {
			return err
		}
	}
	return nil
}
