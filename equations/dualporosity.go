package equations

import (
	"fmt"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/operators"
	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/wells"
)

// TransferFields holds the AD quantities a transfer model may draw on for
// one continuum.
type TransferFields struct {
	P, Sw, So ad.Value
}

// TransferModel computes the volumetric fracture/matrix exchange rate per
// phase and cell. Positive means flow from fracture into matrix.
type TransferModel interface {
	CalculateTransfer(m props.Model, fracture, matrix TransferFields) (qW, qO ad.Value)
}

// LinearTransfer is the default shape-factor model: exchange proportional
// to the fracture/matrix pressure difference, split between phases by the
// matrix water saturation.
type LinearTransfer struct {
	Sigma float64
}

func (t LinearTransfer) CalculateTransfer(m props.Model, fracture, matrix TransferFields) (qW, qO ad.Value) {
	dp := fracture.P.Sub(matrix.P).Scale(t.Sigma)
	qW = dp.Mul(matrix.Sw)
	qO = dp.Mul(matrix.So)
	return
}

// OilWaterDP assembles the two-phase oil/water system. With DualPorosity
// set, every fracture equation gets a matrix-block twin that carries no
// flux divergence (matrix blocks do not talk to their neighbors) and the
// negated transfer term, conserving fracture+matrix mass exactly.
type OilWaterDP struct {
	Ops   *operators.Bundle
	Fluid props.Model
	Ph    Phases
	// Transfer must be set when Ph.DualPorosity is true.
	Transfer TransferModel
	// MatrixPoreVolume defaults to the fracture pore volume if nil.
	MatrixPoreVolume []float64
}

func owVarNames(dual, hasWells bool) []string {
	names := []string{"pressure", "sw"}
	if dual {
		names = append(names, "pom", "swm")
	}
	if hasWells {
		names = append(names, "qWs", "qOs", "bhp")
	}
	return names
}

func (m *OilWaterDP) check() error {
	if !m.Ph.Water || !m.Ph.Oil || m.Ph.Gas {
		return fmt.Errorf("%w: oil-water assembly needs exactly the water and oil phases", ErrConfig)
	}
	if m.Ph.DisGas || m.Ph.VapOil {
		return fmt.Errorf("%w: dissolution is a black-oil feature", ErrConfig)
	}
	if m.Ph.DualPorosity && m.Transfer == nil {
		return fmt.Errorf("%w: dual porosity requires a transfer model", ErrConfig)
	}
	return nil
}

func (m *OilWaterDP) Assemble(st0, st *state.Reservoir, dt float64, forces DrivingForces, opt Options) (prob *LinearizedProblem, stOut *state.Reservoir, err error) {
	if err = m.check(); err != nil {
		return
	}
	var (
		op       = m.Ops
		fl       = m.Fluid
		nc       = op.G.NumCells
		dual     = m.Ph.DualPorosity
		hasWells = forces.Wells != nil && forces.Wells.NumWells() > 0
	)
	if dual && st.Pom == nil {
		err = fmt.Errorf("%w: dual porosity state has no matrix mirrors", ErrConfig)
		return
	}

	seed := st
	if opt.ReverseMode {
		seed = st0
	}
	raw := [][]float64{seed.Pressure, seed.Sw}
	if dual {
		raw = append(raw, seed.Pom, seed.Swm)
	}
	var sol []state.WellSol
	if hasWells {
		sol = seed.Wells
		if len(sol) != forces.Wells.NumWells() {
			err = fmt.Errorf("%w: state carries %d well solutions for %d wells", ErrConfig, len(sol), forces.Wells.NumWells())
			return
		}
		qw, qo, bh := make([]float64, len(sol)), make([]float64, len(sol)), make([]float64, len(sol))
		for i, w := range sol {
			qw[i], qo[i], bh[i] = w.QWs, w.QOs, w.BHP
		}
		raw = append(raw, qw, qo, bh)
	}
	var (
		vars  []ad.Value
		sizes ad.VarSizes
	)
	if opt.ResOnly {
		sizes = make(ad.VarSizes, len(raw))
		for k, r := range raw {
			sizes[k] = len(r)
		}
		vars = make([]ad.Value, len(raw))
		for k, r := range raw {
			vars[k] = ad.Constant(r, sizes)
		}
	} else {
		vars, sizes = ad.Vars(raw...)
	}
	p, sw := vars[0], vars[1]
	so := sw.Scale(-1).AddScalar(1)

	eqW, eqO, mobW, mobO, bW, bO := m.phaseResiduals(p, sw, so, st0.Pressure, st0.Sw, op.PoreVolume, dt, sizes, true)

	names := []string{"water", "oil"}
	types := []string{"cell", "cell"}
	var eqWm, eqOm ad.Value
	if dual {
		pom, swm := vars[2], vars[3]
		som := swm.Scale(-1).AddScalar(1)
		// matrix blocks: accumulation only, no neighbor flux
		eqWm, eqOm, _, _, _, _ = m.phaseResiduals(pom, swm, som, st0.Pom, st0.Swm, m.matrixPV(), dt, sizes, false)
		qW, qO := m.Transfer.CalculateTransfer(fl,
			TransferFields{P: p, Sw: sw, So: so},
			TransferFields{P: pom, Sw: swm, So: som})
		// transfer leaves the fracture and enters the matrix; the pair
		// sums to zero by construction
		eqW = eqW.Add(qW)
		eqO = eqO.Add(qO)
		eqWm = eqWm.Sub(qW)
		eqOm = eqOm.Sub(qO)
		names = append(names, "waterMatrix", "oilMatrix")
		types = append(types, "cell", "cell")
	}

	if len(forces.Src) > 0 {
		srcW, srcO := make([]float64, nc), make([]float64, nc)
		for _, s := range forces.Src {
			srcW[s.Cell] -= s.QW
			srcO[s.Cell] -= s.QO
		}
		eqW = eqW.AddVec(srcW)
		eqO = eqO.AddVec(srcO)
	}

	stOut = st.Copy()
	eqs := []ad.Value{eqW, eqO}
	if dual {
		eqs = append(eqs, eqWm, eqOm)
	}

	if hasWells {
		ws := forces.Wells
		gather := op.CellGather(ws.PerfCells)
		base := 2
		if dual {
			base = 4
		}
		zero := ad.Constant(make([]float64, ws.NumWells()), sizes)
		zeroPerf := ad.Constant(make([]float64, ws.NumPerf()), sizes)
		in := wells.FluxInput{
			Bhp: vars[base+2], QW: vars[base], QO: vars[base+1], QG: zero,
			PerfPressure: ad.MatMul(gather, p),
			MobW:         ad.MatMul(gather, mobW),
			MobO:         ad.MatMul(gather, mobO),
			MobG:         zeroPerf,
			BW:           ad.MatMul(gather, bW),
			BO:           ad.MatMul(gather, bO),
			BG:           zeroPerf,
			Rs:           zeroPerf,
			Rv:           zeroPerf,
			Sol:          sol,
			Iteration:    opt.Iteration,
		}
		var out wells.FluxResult
		if out, err = ws.ComputeFlux(fl, in); err != nil {
			return
		}
		scatter := op.CellScatter(out.PerfCells)
		eqs[0] = eqs[0].Sub(ad.MatMul(scatter, out.PerfW))
		eqs[1] = eqs[1].Sub(ad.MatMul(scatter, out.PerfO))
		eqs = append(eqs, out.EqW, out.EqO, out.ControlEq)
		names = append(names, "waterWells", "oilWells", "closureWells")
		types = append(types, "well", "well", "well")
		if !opt.StaticWells {
			stOut.Wells = out.Sol
		}
	}

	prob = &LinearizedProblem{
		Equations:   eqs,
		Names:       names,
		Types:       types,
		PrimaryVars: owVarNames(dual, hasWells),
		Dt:          dt,
		State:       stOut,
	}
	return
}

func (m *OilWaterDP) matrixPV() []float64 {
	if m.MatrixPoreVolume != nil {
		return m.MatrixPoreVolume
	}
	return m.Ops.PoreVolume
}

// phaseResiduals builds accumulation (always) and flux divergence (for the
// fracture continuum) for both phases against the given unknowns.
func (m *OilWaterDP) phaseResiduals(p, sw, so ad.Value, p0, sw0, pv []float64, dt float64, sizes ad.VarSizes, withFlux bool) (eqW, eqO, mobW, mobO, bW, bO ad.Value) {
	var (
		op = m.Ops
		fl = m.Fluid
		nc = len(p.V)
	)
	bWv, dbWdp := fl.BW(p.V)
	bW = ad.Compose(bWv, []ad.Value{p}, [][]float64{dbWdp}, sizes)
	noRs := make([]float64, nc)
	sat := make([]bool, nc)
	bOv, dbOdp, _ := fl.BO(p.V, noRs, sat)
	bO = ad.Compose(bOv, []ad.Value{p}, [][]float64{dbOdp}, sizes)

	pvMv, dpvM := fl.PvMult(p.V)
	pvM := ad.Compose(pvMv, []ad.Value{p}, [][]float64{dpvM}, sizes)
	bW0, _ := fl.BW(p0)
	bO0, _, _ := fl.BO(p0, noRs, sat)
	pvM0, _ := fl.PvMult(p0)

	pvdt := make([]float64, nc)
	prevW := make([]float64, nc)
	prevO := make([]float64, nc)
	for i := range pvdt {
		pvdt[i] = pv[i] / dt
		prevW[i] = -pvdt[i] * pvM0[i] * bW0[i] * sw0[i]
		prevO[i] = -pvdt[i] * pvM0[i] * bO0[i] * (1 - sw0[i])
	}
	eqW = bW.Mul(sw).Mul(pvM).ScaleVec(pvdt).AddVec(prevW)
	eqO = bO.Mul(so).Mul(pvM).ScaleVec(pvdt).AddVec(prevO)

	krw, dkrw, kro, dkro, _, _ := fl.RelPerm(sw.V, so.V, make([]float64, nc))
	muW, muO, _ := fl.Viscosity()
	mobW = ad.Compose(krw, []ad.Value{sw}, [][]float64{dkrw}, sizes).Scale(1 / muW)
	mobO = ad.Compose(kro, []ad.Value{so}, [][]float64{dkro}, sizes).Scale(1 / muO)

	if !withFlux {
		return
	}
	g := fl.Gravity()
	rhoWS, rhoOS, _ := fl.SurfaceDensity()
	rhoW := bW.Scale(rhoWS)
	rhoO := bO.Scale(rhoOS)
	flux := func(rho, b, mob ad.Value) ad.Value {
		gz := op.FaceAvg(rho).ScaleVec(op.Dz).Scale(g)
		dp := op.Grad(p).Sub(gz)
		up := make([]bool, len(dp.V))
		for f, v := range dp.V {
			up[f] = v > 0
		}
		return op.FaceUpstr(up, b.Mul(mob)).Mul(dp).ScaleVec(op.Trans).Scale(-1)
	}
	eqW = eqW.Add(op.Div(flux(rhoW, bW, mobW)))
	eqO = eqO.Add(op.Div(flux(rhoO, bO, mobO)))
	return
}
