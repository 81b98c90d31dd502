package sparse

import "errors"

var (
	// ErrSingular indicates the system matrix is (numerically) singular.
	ErrSingular = errors.New("sparse: singular matrix")
	// ErrNoConvergence indicates an iterative solver hit its iteration cap.
	ErrNoConvergence = errors.New("sparse: iterative solver did not converge")
	// ErrNotSPD indicates a factorization requiring a symmetric positive
	// definite matrix met a non-positive pivot.
	ErrNotSPD = errors.New("sparse: matrix is not symmetric positive definite")
	// ErrDimensionMismatch indicates the right hand side does not match the
	// matrix size.
	ErrDimensionMismatch = errors.New("sparse: dimension mismatch")
	// ErrUnknownSolver is returned by NewSolver for unrecognized names.
	ErrUnknownSolver = errors.New("sparse: unknown solver")
)
