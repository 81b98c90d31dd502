package sparse

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solver solves the linear system A*x = b.  Implementations must not modify
// A or b.
type Solver interface {
	Solve(A Matrix, b []float64) (soln []float64, err error)
	Status() string
}

// NewSolver returns the solver registered under name.  Recognized names are
// "lu" (default for ""), "gauss-jordan", "cg", "cg-ic" and "gauss-seidel".
// tol and maxIter only apply to the iterative solvers.
func NewSolver(name string, tol float64, maxIter int) (Solver, error) {
	switch name {
	case "", "lu":
		return DenseLU{}, nil
	case "gauss-jordan":
		return GaussJordanSym{}, nil
	case "cg":
		return &CG{MaxIter: maxIter, Tol: tol}, nil
	case "cg-ic":
		return &CG{MaxIter: maxIter, Tol: tol, Preconditioner: IncompleteCholesky}, nil
	case "gauss-seidel":
		return &GaussSeidel{MaxIter: maxIter, Tol: tol}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSolver, name)
}

func checkDims(A Matrix, b []float64) error {
	if size, _ := A.Dims(); size != len(b) {
		return fmt.Errorf("%w: matrix %v, rhs %v", ErrDimensionMismatch, size, len(b))
	}
	return nil
}

// DenseLU solves the system with gonum's dense LU factorization.
type DenseLU struct{}

func (DenseLU) Status() string { return "" }

func (DenseLU) Solve(A Matrix, b []float64) ([]float64, error) {
	if err := checkDims(A, b); err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	var u mat.VecDense
	err := u.SolveVec(A, mat.NewVecDense(len(b), append([]float64{}, b...)))
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		// ill-conditioned but still solved
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return u.RawVector().Data, nil
}

// GaussJordan performs Gauss-Jordan elimination with partial pivoting on the
// augmented matrix [A|b] to solve the system A*x=b.
type GaussJordan struct{}

func (GaussJordan) Status() string { return "" }

func (GaussJordan) Solve(A Matrix, b []float64) ([]float64, error) {
	if err := checkDims(A, b); err != nil {
		return nil, err
	}
	size, _ := A.Dims()
	AA := NewSparse(size)
	Copy(AA, A)
	bb := append([]float64{}, b...)

	// The first pass eliminates each column from the rows that have not been
	// used as pivots yet.  Pivot rows then hold nonzeros only at and right
	// of their pivot column, and the second pass walks the pivots in reverse
	// clearing entries above them.
	done := make([]bool, size)
	pivots := make([]int, size)
	for j := 0; j < size; j++ {
		piv, best := -1, 0.0
		for _, nz := range AA.SweepCol(j) {
			if !done[nz.I] && math.Abs(nz.Val) > best {
				piv, best = nz.I, math.Abs(nz.Val)
			}
		}
		if piv < 0 {
			return nil, fmt.Errorf("%w: no pivot in column %v", ErrSingular, j)
		}
		pivots[j] = piv
		done[piv] = true
		mult := 1 / AA.At(piv, j)
		RowMult(AA, piv, mult)
		bb[piv] *= mult
		ApplyPivot(AA, bb, j, piv, func(i int) bool { return !done[i] })
	}

	for j := size - 1; j >= 0; j-- {
		ApplyPivot(AA, bb, j, pivots[j], nil)
	}

	// pivot rows are normalized so row pivots[j] now reads x_j = bb
	x := make([]float64, size)
	for j, i := range pivots {
		x[j] = bb[i]
	}
	return x, nil
}

// ApplyPivot uses row piv to zero out column col in every other row for
// which eliminate returns true (all rows if eliminate is nil).  The same
// operations are applied to b to keep it in sync.
func ApplyPivot(A Matrix, b []float64, col, piv int, eliminate func(row int) bool) {
	pval := A.At(piv, col)
	bval := b[piv]
	for _, nz := range A.SweepCol(col) {
		i := nz.I
		if i == piv || (eliminate != nil && !eliminate(i)) {
			continue
		}
		mult := -nz.Val / pval
		RowCombination(A, piv, i, mult)
		A.Set(i, col, 0)
		b[i] += bval * mult
	}
}

// GaussJordanSym uses Gauss-Jordan elimination after a reverse Cuthill-McKee
// permutation of the dofs to reduce bandwidth and fill-in.
type GaussJordanSym struct{}

func (GaussJordanSym) Status() string { return "" }

func (GaussJordanSym) Solve(A Matrix, b []float64) ([]float64, error) {
	if err := checkDims(A, b); err != nil {
		return nil, err
	}
	size, _ := A.Dims()

	mapping := RCM(A)
	AA := NewSparse(size)
	Permute(AA, A, mapping)
	bb := make([]float64, size)
	for i, inew := range mapping {
		bb[inew] = b[i]
	}

	x, err := GaussJordan{}.Solve(AA, bb)
	if err != nil {
		return nil, err
	}

	// re-sequence solution based on RCM permutation/reordering
	xx := make([]float64, size)
	for i, inew := range mapping {
		xx[i] = x[inew]
	}
	return xx, nil
}

// Preconditioner applies an approximate inverse M^(-1) to r and stores the
// result in z.
type Preconditioner func(z, r []float64)

// PreconditionerFunc builds a preconditioner for A.
type PreconditionerFunc func(A Matrix) (Preconditioner, error)

// Jacobi returns the diagonal preconditioner of A.
func Jacobi(A Matrix) (Preconditioner, error) {
	size, _ := A.Dims()
	inv := make([]float64, size)
	for i := range inv {
		d := A.At(i, i)
		if d == 0 {
			return nil, fmt.Errorf("%w: zero diagonal at %v", ErrSingular, i)
		}
		inv[i] = 1 / d
	}
	return func(z, r []float64) { floats.MulTo(z, inv, r) }, nil
}

// CG implements a preconditioned linear conjugate gradient solver (see
// http://wikipedia.org/wiki/Conjugate_gradient_method).  A must be
// symmetric positive definite.
type CG struct {
	MaxIter int
	Tol     float64
	// Preconditioner builds the preconditioner used for each iteration.
	// If it is nil, Jacobi is used.
	Preconditioner PreconditionerFunc
	niter          int
	ndof           int
}

func (cg *CG) Status() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "CG Solver Stats:\n")
	fmt.Fprintf(&buf, "    %v dof\n", cg.ndof)
	fmt.Fprintf(&buf, "    converged in %v iterations", cg.niter)
	return buf.String()
}

func (cg *CG) Solve(A Matrix, b []float64) (x []float64, err error) {
	if err := checkDims(A, b); err != nil {
		return nil, err
	}
	build := cg.Preconditioner
	if build == nil {
		build = Jacobi
	}
	precond, err := build(A)
	if err != nil {
		return nil, err
	}

	size := len(b)
	cg.ndof = size
	x = make([]float64, size)
	if size == 0 {
		return x, nil
	}
	r := append([]float64{}, b...)
	z := make([]float64, size)
	precond(z, r)
	p := append([]float64{}, z...)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return x, nil
	}

	for cg.niter = 1; cg.niter <= cg.MaxIter; cg.niter++ {
		Ap := Mul(A, p)
		rz := floats.Dot(r, z)
		alpha := rz / floats.Dot(p, Ap)
		floats.AddScaled(x, alpha, p)   // xnext = x+alpha*p
		floats.AddScaled(r, -alpha, Ap) // rnext = r-alpha*A*p
		if floats.Norm(r, 2) < cg.Tol*bnorm {
			return x, nil
		}
		precond(z, r)
		beta := floats.Dot(r, z) / rz
		floats.AddScaledTo(p, z, beta, p) // pnext = z + beta*p
	}
	return x, fmt.Errorf("%w after %v iterations", ErrNoConvergence, cg.MaxIter)
}

// GaussSeidel is a symmetric successive over-relaxation solver: each
// iteration performs a forward and a backward Gauss-Seidel sweep.
type GaussSeidel struct {
	MaxIter int
	Tol     float64
	// Omega is the relaxation factor in (0, 2).  Zero means 1.8.
	Omega float64
	niter int
}

func (g *GaussSeidel) Status() string { return fmt.Sprintf("converged in %v iterations", g.niter) }

func (g *GaussSeidel) solveRow(A Matrix, i int, b, soln []float64, omega float64) {
	xold := soln[i]
	tot, diag := 0.0, 0.0
	for _, nz := range A.SweepRow(i) {
		if nz.J == i {
			diag = nz.Val
			continue
		}
		tot += nz.Val * soln[nz.J]
	}
	soln[i] = (1-omega)*xold + omega*(b[i]-tot)/diag
}

func (g *GaussSeidel) Solve(A Matrix, b []float64) ([]float64, error) {
	if err := checkDims(A, b); err != nil {
		return nil, err
	}
	size := len(b)
	for i := 0; i < size; i++ {
		if A.At(i, i) == 0 {
			return nil, fmt.Errorf("%w: zero diagonal at %v", ErrSingular, i)
		}
	}
	omega := g.Omega
	if omega == 0 {
		omega = 1.8
	}

	soln := make([]float64, size)
	prev := make([]float64, size)
	diff := make([]float64, size)
	for g.niter = 1; g.niter <= g.MaxIter; g.niter++ {
		for i := 0; i < size; i++ {
			g.solveRow(A, i, b, soln, omega)
		}
		for i := size - 1; i >= 0; i-- {
			g.solveRow(A, i, b, soln, omega)
		}

		floats.SubTo(diff, soln, prev)
		norm := floats.Norm(soln, 2)
		if norm == 0 || floats.Norm(diff, 2)/norm < g.Tol {
			return soln, nil
		}
		copy(prev, soln)
	}
	return soln, fmt.Errorf("%w after %v iterations", ErrNoConvergence, g.MaxIter)
}

// CloneSolver returns a solver with the same settings as s and its own
// iteration state so it can run concurrently with s.
func CloneSolver(s Solver) Solver {
	switch s := s.(type) {
	case *CG:
		c := *s
		return &c
	case *GaussSeidel:
		g := *s
		return &g
	}
	return s
}
