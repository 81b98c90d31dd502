package hpfem

import (
	"fmt"
	"math"

	"github.com/rwcarlsen/hpfem/sparse"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RefMode selects how elements are ranked for refinement.
type RefMode int

const (
	// RefGlobal ranks elements by their error against the global hp
	// reference solution.
	RefGlobal RefMode = iota
	// RefFastTrial ranks each element by the error revealed when only that
	// element is reference refined and solved on its own replica.
	// Candidates are still scored against the global reference.
	RefFastTrial
)

// Step records one adaptivity iteration.
type Step struct {
	Step     int
	NActive  int
	NDof     int
	NDofRef  int
	ErrRel   float64 // relative estimate in percent
	ErrExact float64 // relative exact error in percent, NaN without an exact solution
	Iters    int     // coarse Newton iterations
}

// History is the convergence history of an adaptivity run.
type History []Step

// Result holds the meshes of the last adaptivity step.
type Result struct {
	Coarse  *Mesh
	Ref     *Mesh
	History History
}

// Adaptivity runs the hp adaptation loop.
type Adaptivity struct {
	Type AdaptType
	Mode RefMode
	Norm Norm
	// Threshold selects elements whose squared error exceeds Threshold
	// times the largest one.
	Threshold float64
	// TolErrRel is the relative error tolerance in percent.
	TolErrRel float64
	MaxSteps  int
	// Workers bounds the concurrent trials of RefFastTrial.  Values below
	// two run trials sequentially.
	Workers int
	// Coarse and Ref solve the coarse and reference problems.
	Coarse Newton
	Ref    Newton
	// Exact, when set, adds the exact relative error to the history.
	Exact  ExactSolution
	Logger *zap.Logger
}

func (a *Adaptivity) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Run adapts m until the relative error estimate in percent drops below
// TolErrRel.  m is refined in place.  On reaching MaxSteps, or when a step
// finds no element left to refine, the error wraps ErrAdaptNoConvergence and
// the result still holds the last meshes.
func (a *Adaptivity) Run(dp *DiscreteProblem, m *Mesh) (*Result, error) {
	log := a.logger()
	res := &Result{Coarse: m}
	for step := 1; step <= a.MaxSteps; step++ {
		iters, err := a.Coarse.Solve(dp, m)
		if err != nil {
			return res, fmt.Errorf("adapt step %v: coarse solve: %w", step, err)
		}

		ref, err := ReferenceMesh(m)
		if err != nil {
			return res, fmt.Errorf("adapt step %v: %w", step, err)
		}
		if _, err := a.Ref.Solve(dp, ref); err != nil {
			return res, fmt.Errorf("adapt step %v: reference solve: %w", step, err)
		}
		res.Ref = ref

		errSq, total := ElemErrorsEst(a.Norm, m, ref)
		rel := relative(total, ApproxSolNorm(a.Norm, ref))
		s := Step{
			Step:     step,
			NActive:  m.NActive,
			NDof:     m.NDof,
			NDofRef:  ref.NDof,
			ErrRel:   100 * rel,
			ErrExact: math.NaN(),
			Iters:    iters,
		}
		if a.Exact != nil {
			s.ErrExact = 100 * relative(ExactSolError(a.Norm, m, a.Exact),
				ExactSolNorm(a.Norm, a.Exact, m.NEq, m.A, m.B, DefaultExactSubdivision, DefaultExactOrder))
		}
		res.History = append(res.History, s)
		log.Info("adapt step",
			zap.Int("step", step),
			zap.Int("elements", m.NActive),
			zap.Int("ndof", m.NDof),
			zap.Int("ndof_ref", ref.NDof),
			zap.Float64("err_rel_percent", s.ErrRel),
		)

		if s.ErrRel < a.TolErrRel {
			return res, nil
		}
		if step == a.MaxSteps {
			break
		}

		rank := errSq
		if a.Mode == RefFastTrial {
			if rank, err = a.trialErrors(dp, m); err != nil {
				return res, fmt.Errorf("adapt step %v: %w", step, err)
			}
		}
		n, err := a.refine(m, ref, rank)
		if err != nil {
			return res, fmt.Errorf("adapt step %v: %w", step, err)
		}
		if n == 0 {
			return res, fmt.Errorf("%w: no element can be refined after step %v", ErrAdaptNoConvergence, step)
		}
	}
	return res, fmt.Errorf("%w: %v steps", ErrAdaptNoConvergence, a.MaxSteps)
}

func relative(err, norm float64) float64 {
	if norm == 0 {
		return err
	}
	return err / norm
}

// refine applies the best candidate to every element whose squared error
// exceeds the threshold and carries the old solution over to the refined
// mesh.  The threshold is relative to the largest error among elements that
// still have an eligible candidate.  It returns the number of refined
// elements.
func (a *Adaptivity) refine(m, ref *Mesh, errSq []float64) (int, error) {
	log := a.logger()
	old := m.Replicate()
	act := old.Active()

	maxErr := 0.0
	for k, e := range act {
		if hasCandidate(a.Type, e) {
			maxErr = math.Max(maxErr, errSq[k])
		}
	}

	n := 0
	for k, e := range act {
		if errSq[k] <= a.Threshold*maxErr || !hasCandidate(a.Type, e) {
			continue
		}
		c, ok := SelectCandidate(a.Type, e, ref)
		if !ok {
			log.Debug("no eligible candidate", zap.Int("elem", e.ID), zap.Int("p", e.P))
			continue
		}
		log.Debug("refine",
			zap.Int("elem", e.ID),
			zap.Bool("split", c.Split),
			zap.Int("p_left", c.PLeft),
			zap.Int("p_right", c.PRight),
			zap.Int("dof_added", c.Dof),
		)
		if err := m.Refine(e.ID, c); err != nil {
			return n, err
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if err := TransferSolution(old, m); err != nil {
		return n, err
	}
	m.AssignDofs()
	return n, nil
}

// trialErrors reference refines each active element alone on a replica of
// m, solves there and returns the squared error the trial reveals for that
// element.
func (a *Adaptivity) trialErrors(dp *DiscreteProblem, m *Mesh) ([]float64, error) {
	n := len(m.Active())
	errSq := make([]float64, n)

	trial := func(k int, newton Newton) error {
		t := m.Replicate()
		if err := t.ReferenceRefinement(k, 1); err != nil {
			return err
		}
		if err := TransferSolution(m, t); err != nil {
			return err
		}
		if _, err := newton.Solve(dp, t); err != nil {
			return fmt.Errorf("trial %v: %w", k, err)
		}
		errSq[k] = elemErrSq(a.Norm, m.Active()[k], t)
		return nil
	}

	if a.Workers < 2 {
		for k := 0; k < n; k++ {
			if err := trial(k, a.Ref); err != nil {
				return nil, err
			}
		}
		return errSq, nil
	}

	var g errgroup.Group
	g.SetLimit(a.Workers)
	for k := 0; k < n; k++ {
		newton := a.Ref
		if newton.Solver != nil {
			newton.Solver = sparse.CloneSolver(newton.Solver)
		}
		k := k
		g.Go(func() error { return trial(k, newton) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return errSq, nil
}
