package forms

import (
	"fmt"
	"math"

	"github.com/rwcarlsen/hpfem"
	"go.uber.org/zap"
)

// Material holds the one group cross sections of a region.
type Material struct {
	// D is the diffusion coefficient.
	D float64
	// SigmaA is the absorption cross section.
	SigmaA float64
	// NuSigmaF is the fission yield cross section nu*Sigma_f.
	NuSigmaF float64
}

// NeutronDiffusion implements the one group fixed source problem solved in
// every sweep of the power iteration:
//
//    -(D u')' + SigmaA u = NuSigmaF u_prev / K
//
// The left boundary is reflective (zero flux derivative) and the right one
// carries the Newton condition Albedo u + D u' = 0.
type NeutronDiffusion struct {
	// Materials maps element markers to cross sections.
	Materials map[int]Material
	Albedo    float64
	// K and Prev are the eigenvalue estimate and flux of the previous
	// sweep.  PowerIteration sets them.
	K    float64
	Prev *hpfem.Mesh
}

// prevFlux evaluates the previous flux at the quadrature points of p.
func (nd *NeutronDiffusion) prevFlux(p *hpfem.FormParams) []float64 {
	vals := make([]float64, len(p.X))
	if nd.Prev == nil {
		return vals
	}
	u := make([]float64, nd.Prev.NEq)
	if p.Elem.ID < len(nd.Prev.Elems) {
		if e := nd.Prev.Elem(p.Elem.ID); e.Active && e.X1 == p.Elem.X1 && e.X2 == p.Elem.X2 {
			for i, x := range p.X {
				e.EvalPhys(x, u, nil)
				vals[i] = u[0]
			}
			return vals
		}
	}
	for i, x := range p.X {
		if err := nd.Prev.Eval(x, u, nil); err == nil {
			vals[i] = u[0]
		}
	}
	return vals
}

type diffusionForm struct {
	nd  *NeutronDiffusion
	mat Material
}

func (f diffusionForm) Matrix(p *hpfem.FormParams) float64 {
	return p.Sum(func(i int) float64 {
		return f.mat.D*p.DPhi[i]*p.DV[i] + f.mat.SigmaA*p.Phi[i]*p.V[i]
	})
}

func (f diffusionForm) Vector(p *hpfem.FormParams) float64 {
	src := f.nd.prevFlux(p)
	k := f.nd.K
	if k == 0 {
		k = 1
	}
	return p.Sum(func(i int) float64 {
		return f.mat.D*p.DU[0][i]*p.DV[i] + f.mat.SigmaA*p.U[0][i]*p.V[i] - f.mat.NuSigmaF/k*src[i]*p.V[i]
	})
}

// Register adds marker keyed volume forms for every material and the
// albedo condition on the right.
func (nd *NeutronDiffusion) Register(dp *hpfem.DiscreteProblem) {
	for marker, mat := range nd.Materials {
		f := diffusionForm{nd: nd, mat: mat}
		dp.AddMatrixFormMarker(0, 0, marker, f)
		dp.AddVectorFormMarker(0, marker, f)
	}
	if nd.Albedo == 0 {
		return
	}
	dp.AddMatrixFormSurf(0, 0, hpfem.SurfMatrixFormFunc(func(p *hpfem.SurfParams) float64 {
		return nd.Albedo * p.Phi * p.V
	}), hpfem.Right)
	dp.AddVectorFormSurf(0, hpfem.SurfVectorFormFunc(func(p *hpfem.SurfParams) float64 {
		return nd.Albedo * p.U[0] * p.V
	}), hpfem.Right)
}

// Yield returns the total fission neutron production int NuSigmaF u.
func (nd *NeutronDiffusion) Yield(m *hpfem.Mesh) float64 {
	return m.Integrate(func(e *hpfem.Element, x float64, u, dudx []float64) float64 {
		return nd.Materials[e.Marker].NuSigmaF * u[0]
	})
}

func (nd *NeutronDiffusion) checkMaterials(m *hpfem.Mesh) error {
	for _, e := range m.Active() {
		if _, ok := nd.Materials[e.Marker]; !ok {
			return fmt.Errorf("%w: marker %v of element %v", ErrUnknownMaterial, e.Marker, e.ID)
		}
	}
	return nil
}

// PowerIteration finds the fundamental mode of a NeutronDiffusion problem
// by source iteration.
type PowerIteration struct {
	// Tol bounds the relative eigenvalue change between sweeps.
	Tol     float64
	MaxIter int
	Newton  hpfem.Newton
	Logger  *zap.Logger
}

// Solve iterates from the flux held by m (and nd.K, one if unset) until the
// eigenvalue settles.  Every sweep solves the fixed source problem for the
// current flux from the previous one and updates
// k <- k * yield(cur) / yield(prev).  m holds the final flux.
func (pi *PowerIteration) Solve(nd *NeutronDiffusion, dp *hpfem.DiscreteProblem, m *hpfem.Mesh) (k float64, iters int, err error) {
	log := pi.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := nd.checkMaterials(m); err != nil {
		return 0, 0, err
	}

	k = nd.K
	if k == 0 {
		k = 1
	}
	m.AssignDofs()
	prev := m.Replicate()
	cur := m
	for iters = 1; iters <= pi.MaxIter; iters++ {
		nd.K, nd.Prev = k, prev
		if _, err := pi.Newton.Solve(dp, cur); err != nil {
			return k, iters, fmt.Errorf("power iteration %v: %w", iters, err)
		}

		yPrev := nd.Yield(prev)
		if yPrev == 0 {
			return k, iters, ErrZeroYield
		}
		knew := k * nd.Yield(cur) / yPrev
		log.Debug("power iteration", zap.Int("iter", iters), zap.Float64("k", knew))

		prev = cur.Replicate()
		if math.Abs(knew-k)/knew < pi.Tol {
			nd.K = knew
			return knew, iters, nil
		}
		k = knew
	}
	nd.K = k
	return k, pi.MaxIter, fmt.Errorf("%w: %v iterations", ErrPowerNoConvergence, pi.MaxIter)
}

// NormalizeToPower scales the flux on m so it produces the given power,
// where each fission releases energyPerFission and nu neutrons.
func NormalizeToPower(m *hpfem.Mesh, nd *NeutronDiffusion, power, energyPerFission, nu float64) error {
	p := energyPerFission * nd.Yield(m) / nu
	if p == 0 {
		return ErrZeroYield
	}
	m.ScaleCoeffs(power / p)
	return nil
}
