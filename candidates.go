package hpfem

import (
	"math"

	"github.com/rwcarlsen/hpfem/basis"
)

// AdaptType restricts which refinement candidates are eligible.
type AdaptType int

const (
	AdaptHP AdaptType = iota // degree raises and splits
	AdaptH                   // splits keeping the degree
	AdaptP                   // degree raises only
)

// Candidate is a refinement option for one element: either a degree raise
// to PLeft or a split into sons of degrees PLeft and PRight.  Err (squared
// projection error) and Dof (dofs added) are filled during selection.
type Candidate struct {
	Split  bool
	PLeft  int
	PRight int
	Err    float64
	Dof    int
}

// dofAdded returns the number of dofs c adds to an element of degree p
// carrying neq equations.
func (c Candidate) dofAdded(p, neq int) int {
	if c.Split {
		return (c.PLeft + c.PRight - p) * neq
	}
	return (c.PLeft - p) * neq
}

// Candidates lists the refinement options for an element of degree p.
// Degrees are capped at MaxDegree and duplicates produced by the cap are
// dropped.
func Candidates(t AdaptType, p int) []Candidate {
	var cands []Candidate
	seen := map[Candidate]bool{}
	add := func(c Candidate) {
		if !c.Split {
			c.PRight = 0
		}
		if !seen[c] {
			seen[c] = true
			cands = append(cands, c)
		}
	}

	if t == AdaptH {
		add(Candidate{Split: true, PLeft: p, PRight: p})
		return cands
	}

	add(Candidate{PLeft: min(p+1, MaxDegree)})
	add(Candidate{PLeft: min(p+2, MaxDegree)})
	if t == AdaptP {
		return cands
	}

	base := max(1, (p+1)/2)
	for pl := base; pl <= base+2; pl++ {
		for pr := base; pr <= base+2; pr++ {
			add(Candidate{Split: true, PLeft: min(pl, MaxDegree), PRight: min(pr, MaxDegree)})
		}
	}
	return cands
}

// projErrSq returns the squared L2 error of the best approximation of the
// solution on leaves by polynomials of degree p on [a, b].  The projection
// uses orthonormal Legendre polynomials and is integrated piecewise over the
// parts of the leaves inside [a, b].
func projErrSq(leaves []*Element, a, b float64, p int) float64 {
	type piece struct {
		e      *Element
		xs, ws []float64
	}
	var pieces []piece
	for _, e := range leaves {
		lo, hi := math.Max(a, e.X1), math.Min(b, e.X2)
		if hi <= lo {
			continue
		}
		rule := basis.Gauss(2*max(e.P, p) + 2)
		xs, ws := rule.Map(lo, hi)
		pieces = append(pieces, piece{e: e, xs: xs, ws: ws})
	}
	if len(pieces) == 0 {
		return 0
	}

	neq := pieces[0].e.NEq()
	scale := math.Sqrt(2 / (b - a))
	toRef := func(x float64) float64 { return (2*x - a - b) / (b - a) }
	u := make([]float64, neq)

	coeffs := make([][]float64, neq)
	for eq := range coeffs {
		coeffs[eq] = make([]float64, p+1)
	}
	for _, pc := range pieces {
		for i, x := range pc.xs {
			pc.e.EvalPhys(x, u, nil)
			for k := 0; k <= p; k++ {
				lk, _ := basis.LegendreNormalized(k, toRef(x))
				for eq := range u {
					coeffs[eq][k] += pc.ws[i] * u[eq] * lk * scale
				}
			}
		}
	}

	tot := 0.0
	for _, pc := range pieces {
		for i, x := range pc.xs {
			pc.e.EvalPhys(x, u, nil)
			for eq := range u {
				proj := 0.0
				for k := 0; k <= p; k++ {
					lk, _ := basis.LegendreNormalized(k, toRef(x))
					proj += coeffs[eq][k] * lk * scale
				}
				d := u[eq] - proj
				tot += pc.ws[i] * d * d
			}
		}
	}
	return tot
}

// candidateErrSq scores c for element e against the reference leaves
// covering it.
func candidateErrSq(c Candidate, e *Element, leaves []*Element) float64 {
	if !c.Split {
		return projErrSq(leaves, e.X1, e.X2, c.PLeft)
	}
	mid := e.Mid()
	return projErrSq(leaves, e.X1, mid, c.PLeft) + projErrSq(leaves, mid, e.X2, c.PRight)
}

// hasCandidate reports whether some candidate of type t adds dofs to e.
func hasCandidate(t AdaptType, e *Element) bool {
	for _, c := range Candidates(t, e.P) {
		if c.dofAdded(e.P, e.NEq()) > 0 {
			return true
		}
	}
	return false
}

// SelectCandidate picks the refinement of the active coarse element e
// with the largest error reduction per added dof with respect to the
// reference mesh ref.  Candidates adding no dofs are skipped.  ok is false
// when no candidate is eligible.
func SelectCandidate(t AdaptType, e *Element, ref *Mesh) (best Candidate, ok bool) {
	leaves := ref.ActiveDescendants(e.ID)
	errCur := projErrSq(leaves, e.X1, e.X2, e.P)
	bestScore := math.Inf(-1)
	for _, c := range Candidates(t, e.P) {
		c.Dof = c.dofAdded(e.P, e.NEq())
		if c.Dof <= 0 {
			continue
		}
		c.Err = candidateErrSq(c, e, leaves)
		if score := (errCur - c.Err) / float64(c.Dof); score > bestScore {
			best, bestScore, ok = c, score, true
		}
	}
	return best, ok
}
