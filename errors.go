package hpfem

import "errors"

var (
	// ErrNewtonNoConvergence is returned when the Newton residual does not
	// drop below tolerance within the iteration cap.
	ErrNewtonNoConvergence = errors.New("hpfem: newton iteration did not converge")
	// ErrAdaptNoConvergence is returned when adaptivity reaches its step cap
	// before the relative error tolerance.
	ErrAdaptNoConvergence = errors.New("hpfem: adaptivity did not reach tolerance")
	// ErrBadGeometry reports invalid mesh construction input.
	ErrBadGeometry = errors.New("hpfem: invalid mesh geometry")
	// ErrBadConfig reports an invalid configuration value.
	ErrBadConfig = errors.New("hpfem: invalid configuration")
	// ErrOutsideDomain is returned when evaluating a solution outside the mesh.
	ErrOutsideDomain = errors.New("hpfem: point outside mesh domain")
	// ErrMeshMismatch is returned when two meshes are not related by
	// refinement of a common refinement tree.
	ErrMeshMismatch = errors.New("hpfem: meshes do not share a refinement tree")
	// ErrBadRefinement reports a refinement that would coarsen an element or
	// target an inactive one.
	ErrBadRefinement = errors.New("hpfem: invalid refinement")
)
