// Package solver provides linear solvers for the assembled Newton systems.
package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/equations"
	"github.com/porousflow/gores/utils"
)

// Interface solves J dx = -r for one Newton iteration, returning an
// increment vector per primary variable in the problem's declared order.
type Interface interface {
	Solve(p *equations.LinearizedProblem) ([][]float64, error)
}

// Dense assembles the full Jacobian into a dense matrix and factorizes it
// with LU. Suitable for the problem sizes this code targets; larger grids
// want an iterative backend behind the same interface.
type Dense struct{}

func (Dense) Solve(p *equations.LinearizedProblem) ([][]float64, error) {
	var (
		sizes = varSizes(p)
		n     = 0
	)
	if len(p.Equations) == 0 {
		return nil, fmt.Errorf("solve: empty problem")
	}
	for _, s := range sizes {
		n += s
	}
	rows := 0
	for _, eq := range p.Equations {
		rows += len(eq.V)
	}
	if rows != n {
		return nil, fmt.Errorf("solve: system is %d x %d, not square", rows, n)
	}

	var (
		A   = mat.NewDense(n, n, nil)
		rhs = mat.NewVecDense(n, nil)
		r0  = 0
	)
	for k, eq := range p.Equations {
		if len(eq.J) != len(sizes) {
			return nil, fmt.Errorf("solve: equation %q has %d blocks, want %d", p.Names[k], len(eq.J), len(sizes))
		}
		c0 := 0
		for _, b := range eq.J {
			if b.Kind != ad.Zero {
				utils.SparseFillDense(A, r0, c0, b.ToCSR())
			}
			c0 += b.Cols
		}
		for i, v := range eq.V {
			rhs.SetVec(r0+i, -v)
		}
		r0 += len(eq.V)
	}

	var lu mat.LU
	lu.Factorize(A)
	dx := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(dx, false, rhs); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	out := make([][]float64, len(sizes))
	off := 0
	for j, s := range sizes {
		out[j] = make([]float64, s)
		for i := 0; i < s; i++ {
			out[j][i] = dx.AtVec(off + i)
		}
		off += s
	}
	return out, nil
}

// varSizes reads column counts off the first equation's Jacobian blocks.
func varSizes(p *equations.LinearizedProblem) []int {
	if len(p.Equations) == 0 {
		return nil
	}
	sizes := make([]int, len(p.Equations[0].J))
	for j, b := range p.Equations[0].J {
		sizes[j] = b.Cols
	}
	return sizes
}
