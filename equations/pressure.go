package equations

import (
	"fmt"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/state"
)

// PressureDP is the pressure-reduced (sequential/IMPES-style) variant: it
// assembles the full oil-water system, then collapses the per-phase cell
// residuals into a single pressure equation using compressibility-weighted
// combination coefficients. Non-pressure equations (matrix blocks, wells)
// pass through unchanged.
type PressureDP struct {
	Inner OilWaterDP
}

func (m *PressureDP) Assemble(st0, st *state.Reservoir, dt float64, forces DrivingForces, opt Options) (prob *LinearizedProblem, stOut *state.Reservoir, err error) {
	if opt.ReverseMode {
		// sequential splitting has no consistent adjoint; refuse before
		// any assembly happens
		err = fmt.Errorf("%w: reverse-mode adjoints are not available for the sequential pressure variant", ErrConfig)
		return
	}
	var inner *LinearizedProblem
	if inner, stOut, err = m.Inner.Assemble(st0, st, dt, forces, opt); err != nil {
		return
	}

	// Combination weights 1/b per phase, evaluated at the current
	// pressure. The disgas*vapoil denominator of the general black-oil
	// formula collapses to one for the immiscible oil-water system.
	var (
		fl       = m.Inner.Fluid
		nc       = m.Inner.Ops.G.NumCells
		noRs     = make([]float64, nc)
		noSat    = make([]bool, nc)
		bW, _    = fl.BW(st.Pressure)
		bO, _, _ = fl.BO(st.Pressure, noRs, noSat)
		aW       = make([]float64, nc)
		aO       = make([]float64, nc)
	)
	for i := 0; i < nc; i++ {
		aW[i] = 1 / bW[i]
		aO[i] = 1 / bO[i]
	}
	pEq := inner.Equations[0].ScaleVec(aW).Add(inner.Equations[1].ScaleVec(aO))

	eqs := []ad.Value{pEq}
	names := []string{"pressure"}
	types := []string{"cell"}
	for i := 2; i < len(inner.Equations); i++ {
		eqs = append(eqs, inner.Equations[i])
		names = append(names, inner.Names[i])
		types = append(types, inner.Types[i])
	}

	// Saturation is frozen during the pressure solve: drop its column so
	// the reduced system stays square.
	vars := make([]string, 0, len(inner.PrimaryVars)-1)
	for _, v := range inner.PrimaryVars {
		if v != "sw" {
			vars = append(vars, v)
		}
	}
	for k := range eqs {
		eqs[k] = dropColumn(eqs[k], 1)
	}
	prob = &LinearizedProblem{
		Equations:   eqs,
		Names:       names,
		Types:       types,
		PrimaryVars: vars,
		Dt:          dt,
		State:       stOut,
	}
	return
}

// dropColumn removes the j-th variable block from a residual.
func dropColumn(v ad.Value, j int) ad.Value {
	if v.J == nil {
		return v
	}
	blocks := make([]ad.Block, 0, len(v.J)-1)
	for k, b := range v.J {
		if k != j {
			blocks = append(blocks, b)
		}
	}
	return ad.Value{V: v.V, J: blocks}
}
