// Package equations assembles the conservation residuals and their
// Jacobians: the three-phase black-oil system, the oil/water dual-porosity
// system with matrix/fracture exchange, and the pressure-reduced variant
// used for sequential solves. Assemblers are pure: they take the previous
// and current states and return a LinearizedProblem plus an updated state,
// mutating neither input.
package equations

import (
	"errors"
	"fmt"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/utils"
	"github.com/porousflow/gores/wells"
)

// ErrConfig marks unsupported assembler configurations, raised before any
// assembly work happens.
var ErrConfig = errors.New("equations: unsupported configuration")

// Phases is the capability set deciding which residual terms exist.
type Phases struct {
	Water, Oil, Gas bool
	DisGas, VapOil  bool
	DualPorosity    bool
}

// Options is the fixed per-assembly option set.
type Options struct {
	// ResOnly skips Jacobian propagation, evaluating residuals only.
	ResOnly bool
	// ReverseMode seeds the primary variables from the previous state
	// for adjoint evaluation.
	ReverseMode bool
	// Iteration is the nonlinear iteration counter; -1 means "not yet
	// in an iteration" and gates the well model's first-iteration
	// hydrostatic refresh.
	Iteration int
	// StaticWells freezes the well solution record.
	StaticWells bool
}

// SourceTerm is an explicit per-cell surface-volume source.
type SourceTerm struct {
	Cell       int
	QW, QO, QG float64
}

// DrivingForces is a struct of optional fields; every member may be empty.
type DrivingForces struct {
	Wells *wells.System
	Src   []SourceTerm
}

// LinearizedProblem is the assembler output handed to the linear solver:
// ordered residual equations plus the ordered primary-variable names the
// increments must align to. It lives for one Newton iteration.
type LinearizedProblem struct {
	Equations   []ad.Value
	Names       []string
	Types       []string
	PrimaryVars []string
	Dt          float64
	State       *state.Reservoir
}

// ResidualNorms returns the inf-norm of every equation, erroring on any
// non-finite entry rather than letting NaN propagate into a convergence
// decision.
func (p *LinearizedProblem) ResidualNorms() (norms []float64, err error) {
	norms = make([]float64, len(p.Equations))
	for i, eq := range p.Equations {
		if norms[i], err = utils.NewVector(len(eq.V), eq.V).NormInf(); err != nil {
			err = fmt.Errorf("equations: non-finite residual in %q: %w", p.Names[i], err)
			return
		}
	}
	return
}

// Assembler is the model-to-solver contract.
type Assembler interface {
	Assemble(st0, st *state.Reservoir, dt float64, forces DrivingForces, opt Options) (*LinearizedProblem, *state.Reservoir, error)
}

// complement returns the elementwise 1-m mask.
func complement(m []float64) []float64 {
	return utils.NewVectorConst(len(m), 1).Subtract(utils.NewVector(len(m), m)).DataP()
}
