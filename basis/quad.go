package basis

import (
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

// Rule is a quadrature rule on [-1, 1].  Rules returned by Gauss are shared
// and must not be modified.
type Rule struct {
	X []float64
	W []float64
}

// Len returns the number of quadrature points.
func (r Rule) Len() int { return len(r.X) }

// Map returns the points and weights of r transformed to the physical
// interval [a, b].
func (r Rule) Map(a, b float64) (xs, ws []float64) {
	xs = make([]float64, len(r.X))
	ws = make([]float64, len(r.W))
	jac := (b - a) / 2
	for i, x := range r.X {
		xs[i] = (a*(1-x) + b*(1+x)) / 2
		ws[i] = r.W[i] * jac
	}
	return xs, ws
}

var (
	rulesMu sync.Mutex
	rules   = map[int]Rule{}
)

// Gauss returns the Gauss-Legendre rule integrating polynomials up to degree
// order exactly.
func Gauss(order int) Rule {
	if order < 0 {
		order = 0
	}
	rulesMu.Lock()
	defer rulesMu.Unlock()
	if r, ok := rules[order]; ok {
		return r
	}
	n := NumPoints(order)
	r := Rule{X: make([]float64, n), W: make([]float64, n)}
	quad.Legendre{}.FixedLocations(r.X, r.W, -1, 1)
	rules[order] = r
	return r
}

// NumPoints returns the number of Gauss points needed to integrate a
// polynomial of the given degree exactly.
func NumPoints(order int) int { return order/2 + 1 }
