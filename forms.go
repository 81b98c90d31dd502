package hpfem

// Side selects a boundary of the domain.
type Side int

// Domain ends.
const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// FormParams carries the quadrature data of one element to volume forms.
// Forms return the contribution summed over all points.
type FormParams struct {
	Elem *Element
	// X holds the physical quadrature points and W the weights including
	// the element Jacobian.
	X []float64
	W []float64
	// U and DU hold the current iterate and its derivative per equation per
	// point: U[eq][pt].
	U  [][]float64
	DU [][]float64
	// I is the local index of the test function V with derivative DV at
	// every point.
	I  int
	V  []float64
	DV []float64
	// J is the local index of the trial function Phi with derivative DPhi.
	// Only set for matrix forms.
	J    int
	Phi  []float64
	DPhi []float64
}

// Sum returns the quadrature sum of f over the points of the element.
func (p *FormParams) Sum(f func(pt int) float64) float64 {
	tot := 0.0
	for i, w := range p.W {
		tot += w * f(i)
	}
	return tot
}

// SurfParams carries the data of a boundary point to surface forms.
type SurfParams struct {
	Elem *Element
	Side Side
	X    float64
	// U and DU hold the current iterate per equation at X.
	U  []float64
	DU []float64
	I  int
	V  float64
	DV float64
	// J, Phi and DPhi describe the trial function (matrix forms only).
	J    int
	Phi  float64
	DPhi float64
}

// MatrixForm is a volumetric Jacobian contribution dF_i/du_j.
type MatrixForm interface {
	Matrix(p *FormParams) float64
}

// VectorForm is a volumetric residual contribution F_i.
type VectorForm interface {
	Vector(p *FormParams) float64
}

// SurfMatrixForm is a boundary Jacobian contribution.
type SurfMatrixForm interface {
	SurfMatrix(p *SurfParams) float64
}

// SurfVectorForm is a boundary residual contribution.
type SurfVectorForm interface {
	SurfVector(p *SurfParams) float64
}

// MatrixFormFunc adapts a function to MatrixForm.
type MatrixFormFunc func(p *FormParams) float64

func (f MatrixFormFunc) Matrix(p *FormParams) float64 { return f(p) }

// VectorFormFunc adapts a function to VectorForm.
type VectorFormFunc func(p *FormParams) float64

func (f VectorFormFunc) Vector(p *FormParams) float64 { return f(p) }

// SurfMatrixFormFunc adapts a function to SurfMatrixForm.
type SurfMatrixFormFunc func(p *SurfParams) float64

func (f SurfMatrixFormFunc) SurfMatrix(p *SurfParams) float64 { return f(p) }

// SurfVectorFormFunc adapts a function to SurfVectorForm.
type SurfVectorFormFunc func(p *SurfParams) float64

func (f SurfVectorFormFunc) SurfVector(p *SurfParams) float64 { return f(p) }
