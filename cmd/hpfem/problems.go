package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rwcarlsen/hpfem"
	"github.com/rwcarlsen/hpfem/forms"
)

// problem is a stock problem with known exact solution.
type problem struct {
	Desc  string
	A, B  float64
	NEq   int
	Exact hpfem.ExactSolution
	// Register adds the forms to dp and the boundary data to m.
	Register func(dp *hpfem.DiscreteProblem, m *hpfem.Mesh)
}

var sine = forms.SineSystem{K: 1}

var problems = map[string]problem{
	"poisson": {
		Desc: "-u'' = sin(x) on (0, 2pi), u = 1 on both ends",
		A:    0,
		B:    2 * math.Pi,
		NEq:  1,
		Exact: func(x float64, u, dudx []float64) {
			u[0], dudx[0] = math.Sin(x)+1, math.Cos(x)
		},
		Register: func(dp *hpfem.DiscreteProblem, m *hpfem.Mesh) {
			(&forms.Poisson{F: math.Sin}).Register(dp)
			m.SetBCLeftDirichlet(0, 1)
			m.SetBCRightDirichlet(0, 1)
		},
	},
	"heat": {
		Desc: "-(2 u')' = 50 on (0, 4), u(0) = 0, 2 u'(4) = -5",
		A:    0,
		B:    4,
		NEq:  1,
		Exact: func(x float64, u, dudx []float64) {
			u[0], dudx[0] = -12.5*x*x+97.5*x, -25*x+97.5
		},
		Register: func(dp *hpfem.DiscreteProblem, m *hpfem.Mesh) {
			(&forms.Poisson{K: forms.Const(2), F: forms.Const(50)}).Register(dp)
			forms.Neumann{Side: hpfem.Right, Deriv: -5}.Register(dp, 0)
			m.SetBCLeftDirichlet(0, 0)
		},
	},
	"riccati": {
		Desc: "y' = -y^2 on (0, 10), y(0) = 1",
		A:    0,
		B:    10,
		NEq:  1,
		Exact: func(x float64, u, dudx []float64) {
			u[0], dudx[0] = 1/(1+x), -1/((1+x)*(1+x))
		},
		Register: func(dp *hpfem.DiscreteProblem, m *hpfem.Mesh) {
			f := &forms.FirstOrder{
				F:    func(y, x float64) float64 { return -y * y },
				DFDY: func(y, x float64) float64 { return -2 * y },
			}
			f.Register(dp)
			m.SetBCLeftDirichlet(0, 1)
		},
	},
	"sine": {
		Desc:     "u' = v, v' = -u on (0, 2pi), u(0) = 0, v(0) = 1",
		A:        0,
		B:        2 * math.Pi,
		NEq:      2,
		Exact:    sine.Exact,
		Register: sine.Register,
	},
}

func problemNames() []string {
	var names []string
	for name := range problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupProblem(name string) (problem, error) {
	p, ok := problems[name]
	if !ok {
		return p, fmt.Errorf("unknown problem %q (want one of %v)", name, strings.Join(problemNames(), ", "))
	}
	return p, nil
}
