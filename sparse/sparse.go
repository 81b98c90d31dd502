// Package sparse holds the sparse matrix type assembled by the finite element
// kernel and the linear solvers that consume it.
package sparse

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Nonzero is a single stored entry of a sparse matrix.
type Nonzero struct {
	I, J int
	Val  float64
}

// Matrix is a square matrix that stores only nonzero entries.  It satisfies
// gonum's mat.Matrix so dense algorithms can consume it directly.
type Matrix interface {
	mat.Matrix
	Set(i, j int, v float64)
	// SweepRow returns the nonzeros of row i ordered by column.
	SweepRow(i int) []Nonzero
	// SweepCol returns the nonzeros of column j ordered by row.
	SweepCol(j int) []Nonzero
}

// Sparse is a map based sparse matrix with both row and column access.
type Sparse struct {
	// rows[i][j] = val
	rows []map[int]float64
	// cols[j][i] = val
	cols []map[int]float64
	size int
}

func NewSparse(size int) *Sparse {
	return &Sparse{
		rows: make([]map[int]float64, size),
		cols: make([]map[int]float64, size),
		size: size,
	}
}

func (s *Sparse) Dims() (int, int)    { return s.size, s.size }
func (s *Sparse) At(i, j int) float64 { return s.rows[i][j] }
func (s *Sparse) T() mat.Matrix       { return mat.Transpose{Matrix: s} }

// Set stores v at (i, j).  Storing an exact zero removes the entry.
func (s *Sparse) Set(i, j int, v float64) {
	if v == 0 {
		delete(s.rows[i], j)
		delete(s.cols[j], i)
		return
	}
	if s.rows[i] == nil {
		s.rows[i] = make(map[int]float64)
	}
	if s.cols[j] == nil {
		s.cols[j] = make(map[int]float64)
	}
	s.rows[i][j] = v
	s.cols[j][i] = v
}

// Add accumulates v into entry (i, j).
func (s *Sparse) Add(i, j int, v float64) { s.Set(i, j, s.At(i, j)+v) }

// NNZ returns the number of stored entries.
func (s *Sparse) NNZ() int {
	n := 0
	for _, r := range s.rows {
		n += len(r)
	}
	return n
}

func (s *Sparse) SweepRow(i int) []Nonzero {
	nz := make([]Nonzero, 0, len(s.rows[i]))
	for j, v := range s.rows[i] {
		nz = append(nz, Nonzero{I: i, J: j, Val: v})
	}
	sort.Slice(nz, func(a, b int) bool { return nz[a].J < nz[b].J })
	return nz
}

func (s *Sparse) SweepCol(j int) []Nonzero {
	nz := make([]Nonzero, 0, len(s.cols[j]))
	for i, v := range s.cols[j] {
		nz = append(nz, Nonzero{I: i, J: j, Val: v})
	}
	sort.Slice(nz, func(a, b int) bool { return nz[a].I < nz[b].I })
	return nz
}

// Clone returns an independent copy of s.
func (s *Sparse) Clone() *Sparse {
	clone := NewSparse(s.size)
	Copy(clone, s)
	return clone
}

// Copy copies all nonzeros of src into dst.
func Copy(dst, src Matrix) {
	size, _ := src.Dims()
	for i := 0; i < size; i++ {
		for _, nz := range src.SweepRow(i) {
			dst.Set(nz.I, nz.J, nz.Val)
		}
	}
}

// Permute maps i and j indices to new i and j values identified by the given
// mapping.  Values stored in src.At(i,j) are stored into dst at
// dst.At(mapping[i], mapping[j]).
func Permute(dst, src Matrix, mapping []int) {
	size, _ := src.Dims()
	for i := 0; i < size; i++ {
		for _, nz := range src.SweepRow(i) {
			dst.Set(mapping[nz.I], mapping[nz.J], nz.Val)
		}
	}
}

// Mul returns A*x.
func Mul(A Matrix, x []float64) []float64 {
	size, _ := A.Dims()
	result := make([]float64, size)
	for i := 0; i < size; i++ {
		tot := 0.0
		for _, nz := range A.SweepRow(i) {
			tot += x[nz.J] * nz.Val
		}
		result[i] = tot
	}
	return result
}

// RowCombination adds mult times row pivrow to row dstrow.
func RowCombination(A Matrix, pivrow, dstrow int, mult float64) {
	for _, nz := range A.SweepRow(pivrow) {
		A.Set(dstrow, nz.J, A.At(dstrow, nz.J)+nz.Val*mult)
	}
}

// RowMult scales row by mult.
func RowMult(A Matrix, row int, mult float64) {
	for _, nz := range A.SweepRow(row) {
		A.Set(row, nz.J, nz.Val*mult)
	}
}
