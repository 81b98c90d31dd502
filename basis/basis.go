// Package basis provides the hierarchic shape functions and Gauss-Legendre
// quadrature rules used by the finite element kernel.  All functions operate on
// the reference interval [-1, 1].
package basis

import "math"

// Legendre returns the value and derivative of the Legendre polynomial of
// degree k at x.
func Legendre(k int, x float64) (val, deriv float64) {
	if k < 0 {
		panic("basis: negative polynomial degree")
	}
	p0, d0 := 1.0, 0.0
	if k == 0 {
		return p0, d0
	}
	p1, d1 := x, 1.0
	for n := 1; n < k; n++ {
		fn := float64(n)
		p2 := ((2*fn+1)*x*p1 - fn*p0) / (fn + 1)
		d2 := d0 + (2*fn+1)*p1
		p0, p1 = p1, p2
		d0, d1 = d1, d2
	}
	return p1, d1
}

// LegendreNormalized returns the Legendre polynomial of degree k scaled to
// unit L2 norm on [-1, 1] together with its derivative.
func LegendreNormalized(k int, x float64) (val, deriv float64) {
	v, d := Legendre(k, x)
	s := math.Sqrt((2*float64(k) + 1) / 2)
	return s * v, s * d
}

// Lobatto returns the value and derivative of the k-th Lobatto shape
// function at x.  Functions 0 and 1 are the left and right vertex functions;
// k >= 2 are bubbles vanishing at both end points whose derivatives are
// orthonormal in L2(-1, 1).
//
//    l_k(x) = (P_k(x) - P_k-2(x)) / sqrt(2(2k-1))
func Lobatto(k int, x float64) (val, deriv float64) {
	switch k {
	case 0:
		return (1 - x) / 2, -0.5
	case 1:
		return (1 + x) / 2, 0.5
	}
	pk, _ := Legendre(k, x)
	pk2, _ := Legendre(k-2, x)
	pk1, _ := Legendre(k-1, x)
	fk := float64(k)
	return (pk - pk2) / math.Sqrt(2*(2*fk-1)), math.Sqrt((2*fk-1)/2) * pk1
}

// LobattoAll evaluates the Lobatto functions 0..p at x, storing values in
// val and derivatives in deriv.  Both slices must have length >= p+1.
func LobattoAll(p int, x float64, val, deriv []float64) {
	for k := 0; k <= p; k++ {
		val[k], deriv[k] = Lobatto(k, x)
	}
}
