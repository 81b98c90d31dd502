package hpfem

import (
	"fmt"

	"github.com/rwcarlsen/hpfem/sparse"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Newton drives the nonlinear solve of a DiscreteProblem on a mesh.
type Newton struct {
	// Tol is the bound on the Euclidean norm of the residual.
	Tol     float64
	MaxIter int
	// Solver solves the linear system of every iteration.  Nil means
	// sparse.DenseLU.
	Solver sparse.Solver
	Logger *zap.Logger
}

func (n *Newton) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

// Solve runs Newton iteration starting from the mesh coefficients: it
// assembles the residual and Jacobian, stops once the residual norm drops
// below Tol and otherwise solves J*delta = -R and updates the iterate.
// Dofs are (re)assigned first.  The mesh holds the last iterate on return.
// It returns the number of assemblies performed; err is nil on convergence
// and wraps ErrNewtonNoConvergence or the linear solver failure otherwise.
func (n *Newton) Solve(dp *DiscreteProblem, m *Mesh) (iters int, err error) {
	log := n.logger()
	solver := n.Solver
	if solver == nil {
		solver = sparse.DenseLU{}
	}

	m.AssignDofs()
	y := m.CoeffVector()
	for iters = 1; iters <= n.MaxIter; iters++ {
		J, R := dp.Assemble(m)
		res := floats.Norm(R, 2)
		if ce := log.Check(zap.DebugLevel, "newton iteration"); ce != nil {
			ce.Write(
				zap.Int("iter", iters),
				zap.Int("ndof", m.NDof),
				zap.Int("bandwidth", sparse.Bandwidth(J)),
				zap.Float64("residual", res),
			)
		}
		if res < n.Tol {
			return iters, nil
		}

		floats.Scale(-1, R)
		delta, err := solver.Solve(J, R)
		if err != nil {
			return iters, fmt.Errorf("newton iteration %v: %w", iters, err)
		}
		floats.Add(y, delta)
		m.SetCoeffVector(y)
	}
	return n.MaxIter, fmt.Errorf("%w: residual above %v after %v iterations", ErrNewtonNoConvergence, n.Tol, n.MaxIter)
}
