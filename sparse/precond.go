package sparse

import (
	"fmt"
	"math"
)

// IncompleteCholesky returns a zero fill-in incomplete Cholesky IC(0)
// preconditioner for the symmetric positive definite matrix A.  The factor L
// keeps the sparsity pattern of the lower triangle of A.
func IncompleteCholesky(A Matrix) (Preconditioner, error) {
	size, _ := A.Dims()
	L := NewSparse(size)
	for i := 0; i < size; i++ {
		for _, nz := range A.SweepRow(i) {
			j := nz.J
			if j > i {
				break
			}
			s := nz.Val
			for _, lnz := range L.SweepRow(i) {
				if lnz.J >= j {
					break
				}
				s -= lnz.Val * L.At(j, lnz.J)
			}
			if j < i {
				L.Set(i, j, s/L.At(j, j))
				continue
			}
			if s <= 0 {
				return nil, fmt.Errorf("%w: nonpositive pivot at row %v", ErrNotSPD, i)
			}
			L.Set(i, i, math.Sqrt(s))
		}
		if L.At(i, i) == 0 {
			return nil, fmt.Errorf("%w: empty diagonal at row %v", ErrNotSPD, i)
		}
	}

	return func(z, r []float64) {
		// forward: L*y = r
		for i := 0; i < size; i++ {
			s := r[i]
			for _, nz := range L.SweepRow(i) {
				if nz.J < i {
					s -= nz.Val * z[nz.J]
				}
			}
			z[i] = s / L.At(i, i)
		}
		// backward: L^T*z = y
		for i := size - 1; i >= 0; i-- {
			s := z[i]
			for _, nz := range L.SweepCol(i) {
				if nz.I > i {
					s -= nz.Val * z[nz.I]
				}
			}
			z[i] = s / L.At(i, i)
		}
	}, nil
}
