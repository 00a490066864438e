package nonlinear

import (
	"fmt"
	"math"

	"github.com/porousflow/gores/equations"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/utils"
)

// LinearSolver returns one increment vector per primary variable, aligned to
// the problem's PrimaryVars order, solving J dx = -r.
type LinearSolver interface {
	Solve(p *equations.LinearizedProblem) ([][]float64, error)
}

// Report summarizes one timestep's Newton loop.
type Report struct {
	Iterations    int
	Converged     bool
	ResidualNorms []float64
}

// Driver runs the assemble / solve / update loop for a single timestep.
type Driver struct {
	Assembler equations.Assembler
	Linear    LinearSolver
	Updater   *Updater

	MaxIter int
	Tol     float64 // scaled residual inf-norm tolerance

	// UseIncTol replaces the residual check on the first equation with a
	// relative-pressure-increment check against IncTol. Used by the
	// pressure variant, whose volume-balance residual is not a useful
	// convergence metric.
	UseIncTol bool
	IncTol    float64

	Verbose bool
}

// Step advances st0 by dt. The returned state is the converged state; st0 is
// never modified. A non-converged loop returns ErrMaxIterations along with
// the last report.
func (d *Driver) Step(st0 *state.Reservoir, dt float64, forces equations.DrivingForces) (*state.Reservoir, Report, error) {
	var (
		st     = st0.Copy()
		rep    Report
		dpIncr = math.Inf(1) // last iteration's relative pressure move
	)
	for i := range st.DpRel {
		st.DpRel[i] = 0
	}
	for it := 0; it < d.MaxIter; it++ {
		prob, stA, err := d.Assembler.Assemble(st0, st, dt, forces, equations.Options{Iteration: it})
		if err != nil {
			return nil, rep, &StepError{Iteration: it, Wrapped: err}
		}
		norms, err := prob.ResidualNorms()
		if err != nil {
			return nil, rep, &StepError{Iteration: it, Wrapped: fmt.Errorf("%w: %v", ErrNonFinite, err)}
		}
		rep.ResidualNorms = norms
		if d.Verbose {
			fmt.Printf("newton it %2d: %s\n", it, formatNorms(prob.Names, norms))
		}
		if d.converged(norms, dpIncr) {
			rep.Iterations = it
			rep.Converged = true
			return stA, rep, nil
		}

		var dx [][]float64
		if d.Verbose {
			// count hardware instructions spent in the backend where
			// the platform supports it
			cycles, serr := utils.ProfileSolve(func() (e error) {
				dx, e = d.Linear.Solve(prob)
				return
			})
			err = serr
			utils.PrintPerf("linear solve", cycles)
		} else {
			dx, err = d.Linear.Solve(prob)
		}
		if err != nil {
			return nil, rep, &StepError{Iteration: it, Wrapped: err}
		}
		inc, err := splitIncrement(prob.PrimaryVars, dx)
		if err != nil {
			return nil, rep, &StepError{Iteration: it, Wrapped: err}
		}

		next, err := d.Updater.Apply(stA, inc)
		if err != nil {
			return nil, rep, &StepError{Iteration: it, Wrapped: err}
		}
		dpIncr = 0
		for i := range next.DpRel {
			dpIncr = math.Max(dpIncr, math.Abs(next.DpRel[i]-stA.DpRel[i]))
		}
		st = next
		rep.Iterations = it + 1
	}
	return nil, rep, ErrMaxIterations
}

func (d *Driver) converged(norms []float64, dpIncr float64) bool {
	start := 0
	if d.UseIncTol {
		// The first variable converges on the size of the last
		// pressure move; before any move has happened dpIncr is +Inf.
		if dpIncr > d.IncTol {
			return false
		}
		start = 1
	}
	for _, v := range norms[start:] {
		if v > d.Tol {
			return false
		}
	}
	return true
}

// splitIncrement maps solver output to named increment slices.
func splitIncrement(names []string, dx [][]float64) (Increment, error) {
	var inc Increment
	if len(names) != len(dx) {
		return inc, fmt.Errorf("increment count %d does not match %d primary variables", len(dx), len(names))
	}
	for i, name := range names {
		switch name {
		case "pressure":
			inc.Dp = dx[i]
		case "sw":
			inc.Dsw = dx[i]
		case "x":
			inc.Dx = dx[i]
		case "pom":
			inc.Dpom = dx[i]
		case "swm":
			inc.Dswm = dx[i]
		case "qWs":
			inc.DqW = dx[i]
		case "qOs":
			inc.DqO = dx[i]
		case "qGs":
			inc.DqG = dx[i]
		case "bhp":
			inc.Dbhp = dx[i]
		default:
			return inc, fmt.Errorf("unknown primary variable %q", name)
		}
	}
	return inc, nil
}

func formatNorms(names []string, norms []float64) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += "  "
		}
		s += fmt.Sprintf("%s=%.3e", n, norms[i])
	}
	return s
}
