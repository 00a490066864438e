package equations

import (
	"fmt"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/operators"
	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/wells"
)

// BlackOil assembles the three-phase water/oil/gas conservation residuals
// with optional dissolved gas and vaporized oil. The gas-related primary
// variable x switches meaning per cell with the phase status: rs where the
// oil is undersaturated, rv where the gas is, sg where free gas exists.
type BlackOil struct {
	Ops   *operators.Bundle
	Fluid props.Model
	Ph    Phases
}

// blackOilVarNames is the declaration order increments must align to.
func blackOilVarNames(hasWells bool) []string {
	names := []string{"pressure", "sw", "x"}
	if hasWells {
		names = append(names, "qWs", "qOs", "qGs", "bhp")
	}
	return names
}

func (bo *BlackOil) check() error {
	if !bo.Ph.Water || !bo.Ph.Oil || !bo.Ph.Gas {
		return fmt.Errorf("%w: black-oil assembly needs all three phases", ErrConfig)
	}
	if bo.Ph.DualPorosity {
		return fmt.Errorf("%w: dual porosity is handled by the oil-water assembler", ErrConfig)
	}
	return nil
}

// statusMasks expands the per-cell status into 0/1 mask vectors for the
// data-parallel variable substitution.
func statusMasks(status []state.PhaseStatus) (m1, m2, m3 []float64) {
	n := len(status)
	m1, m2, m3 = make([]float64, n), make([]float64, n), make([]float64, n)
	for i, s := range status {
		switch s {
		case state.UndersatOil:
			m1[i] = 1
		case state.UndersatGas:
			m2[i] = 1
		default:
			m3[i] = 1
		}
	}
	return
}

func (bo *BlackOil) Assemble(st0, st *state.Reservoir, dt float64, forces DrivingForces, opt Options) (prob *LinearizedProblem, stOut *state.Reservoir, err error) {
	if err = bo.check(); err != nil {
		return
	}
	var (
		op       = bo.Ops
		fl       = bo.Fluid
		nc       = op.G.NumCells
		hasWells = forces.Wells != nil && forces.Wells.NumWells() > 0
	)

	// Phase status from the previous converged state, held fixed within
	// the iteration so the variable switch cannot chase the iterate.
	rsSat0, _ := fl.RsSat(st0.Pressure)
	rvSat0, _ := fl.RvSat(st0.Pressure)
	status := state.Classify(st0.Sg, st0.So, st0.Rs, st0.Rv, rsSat0, rvSat0, bo.Ph.DisGas, bo.Ph.VapOil)
	m1, m2, m3 := statusMasks(status)

	// Seed the primary variables. x carries rs, rv or sg per status.
	seed := st
	if opt.ReverseMode {
		seed = st0
	}
	xv := make([]float64, nc)
	for i := range xv {
		switch status[i] {
		case state.UndersatOil:
			xv[i] = seed.Rs[i]
		case state.UndersatGas:
			xv[i] = seed.Rv[i]
		default:
			xv[i] = seed.Sg[i]
		}
	}
	raw := [][]float64{seed.Pressure, seed.Sw, xv}
	var sol []state.WellSol
	if hasWells {
		sol = seed.Wells
		if len(sol) != forces.Wells.NumWells() {
			err = fmt.Errorf("%w: state carries %d well solutions for %d wells", ErrConfig, len(sol), forces.Wells.NumWells())
			return
		}
		qw, qo, qg, bh := make([]float64, len(sol)), make([]float64, len(sol)), make([]float64, len(sol)), make([]float64, len(sol))
		for i, w := range sol {
			qw[i], qo[i], qg[i], bh[i] = w.QWs, w.QOs, w.QGs, w.BHP
		}
		raw = append(raw, qw, qo, qg, bh)
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
	p, sw, x := vars[0], vars[1], vars[2]

	// Substituted secondary quantities.
	swCompl := sw.Scale(-1).AddScalar(1) // 1 - sw
	sg := x.ScaleVec(m3).Add(swCompl.ScaleVec(m2))
	so := swCompl.Sub(sg)

	rsSatV, drsSat := fl.RsSat(p.V)
	rvSatV, drvSat := fl.RvSat(p.V)
	rsSat := ad.Compose(rsSatV, []ad.Value{p}, [][]float64{drsSat}, sizes)
	rvSat := ad.Compose(rvSatV, []ad.Value{p}, [][]float64{drvSat}, sizes)
	rs := x.ScaleVec(m1).Add(rsSat.ScaleVec(complement(m1)))
	rv := x.ScaleVec(m2).Add(rvSat.ScaleVec(complement(m2)))
	if !bo.Ph.DisGas {
		rs = ad.Constant(make([]float64, nc), sizes)
	}
	if !bo.Ph.VapOil {
		rv = ad.Constant(make([]float64, nc), sizes)
	}

	saturated := make([]bool, nc)
	for i, s := range status {
		saturated[i] = s == state.Saturated
	}
	bWv, dbWdp := fl.BW(p.V)
	bW := ad.Compose(bWv, []ad.Value{p}, [][]float64{dbWdp}, sizes)
	bOv, dbOdp, dbOdrs := fl.BO(p.V, rs.V, saturated)
	bO := ad.Compose(bOv, []ad.Value{p, rs}, [][]float64{dbOdp, dbOdrs}, sizes)
	bGv, dbGdp, dbGdrv := fl.BG(p.V, rv.V, saturated)
	bG := ad.Compose(bGv, []ad.Value{p, rv}, [][]float64{dbGdp, dbGdrv}, sizes)

	pvMv, dpvM := fl.PvMult(p.V)
	pvM := ad.Compose(pvMv, []ad.Value{p}, [][]float64{dpvM}, sizes)

	// Previous-state factors evaluate as plain numbers.
	sat0 := make([]bool, nc)
	for i, s := range st0.Status {
		sat0[i] = s == state.Saturated
	}
	bW0, _ := fl.BW(st0.Pressure)
	bO0, _, _ := fl.BO(st0.Pressure, st0.Rs, sat0)
	bG0, _, _ := fl.BG(st0.Pressure, st0.Rv, sat0)
	pvM0, _ := fl.PvMult(st0.Pressure)

	pvdt := make([]float64, nc)
	for i, v := range op.PoreVolume {
		pvdt[i] = v / dt
	}
	accum := func(cur ad.Value, prev []float64) ad.Value {
		prior := make([]float64, nc)
		for i := range prior {
			prior[i] = -pvdt[i] * pvM0[i] * prev[i]
		}
		return cur.Mul(pvM).ScaleVec(pvdt).AddVec(prior)
	}
	prevW := make([]float64, nc)
	prevO := make([]float64, nc)
	prevG := make([]float64, nc)
	for i := 0; i < nc; i++ {
		prevW[i] = bW0[i] * st0.Sw[i]
		prevO[i] = bO0[i]*st0.So[i] + st0.Rv[i]*bG0[i]*st0.Sg[i]
		prevG[i] = bG0[i]*st0.Sg[i] + st0.Rs[i]*bO0[i]*st0.So[i]
	}
	eqW := accum(bW.Mul(sw), prevW)
	curO := bO.Mul(so)
	curG := bG.Mul(sg)
	eqO := accum(curO.Add(rv.Mul(curG)), prevO)
	eqG := accum(curG.Add(rs.Mul(curO)), prevG)

	// Mobilities.
	krw, dkrw, kro, dkro, krg, dkrg := fl.RelPerm(sw.V, so.V, sg.V)
	muW, muO, muG := fl.Viscosity()
	mobW := ad.Compose(krw, []ad.Value{sw}, [][]float64{dkrw}, sizes).Scale(1 / muW)
	mobO := ad.Compose(kro, []ad.Value{so}, [][]float64{dkro}, sizes).Scale(1 / muO)
	mobG := ad.Compose(krg, []ad.Value{sg}, [][]float64{dkrg}, sizes).Scale(1 / muG)

	// Reservoir-condition densities for the buoyancy term.
	g := fl.Gravity()
	rhoWS, rhoOS, rhoGS := fl.SurfaceDensity()
	rhoW := bW.Scale(rhoWS)
	rhoO := bO.Mul(rs.Scale(rhoGS).AddScalar(rhoOS))
	rhoG := bG.Mul(rv.Scale(rhoOS).AddScalar(rhoGS))

	flux := func(rho, b, mob ad.Value) (vb ad.Value, up []bool) {
		gz := op.FaceAvg(rho).ScaleVec(op.Dz).Scale(g)
		dp := op.Grad(p).Sub(gz)
		up = make([]bool, len(dp.V))
		for f, v := range dp.V {
			up[f] = v > 0
		}
		vb = op.FaceUpstr(up, b.Mul(mob)).Mul(dp).ScaleVec(op.Trans).Scale(-1)
		return
	}
	vbW, _ := flux(rhoW, bW, mobW)
	vbO, upO := flux(rhoO, bO, mobO)
	vbG, upG := flux(rhoG, bG, mobG)

	eqW = eqW.Add(op.Div(vbW))
	eqO = eqO.Add(op.Div(vbO))
	eqG = eqG.Add(op.Div(vbG))
	if bo.Ph.DisGas {
		// dissolved gas rides the oil flux, upstream-weighted by the
		// carrying phase's flag
		rsF := op.FaceUpstr(upO, rs)
		eqG = eqG.Add(op.Div(rsF.Mul(vbO)))
	}
	if bo.Ph.VapOil {
		rvF := op.FaceUpstr(upG, rv)
		eqO = eqO.Add(op.Div(rvF.Mul(vbG)))
	}

	// Explicit sources.
	if len(forces.Src) > 0 {
		srcW, srcO, srcG := make([]float64, nc), make([]float64, nc), make([]float64, nc)
		for _, s := range forces.Src {
			srcW[s.Cell] -= s.QW
			srcO[s.Cell] -= s.QO
			srcG[s.Cell] -= s.QG
		}
		eqW = eqW.AddVec(srcW)
		eqO = eqO.AddVec(srcO)
		eqG = eqG.AddVec(srcG)
	}

	stOut = st.Copy()
	stOut.Status = status
	names := []string{"water", "oil", "gas"}
	types := []string{"cell", "cell", "cell"}
	eqs := []ad.Value{eqW, eqO, eqG}

	if hasWells {
		ws := forces.Wells
		gather := op.CellGather(ws.PerfCells)
		in := wells.FluxInput{
			Bhp: vars[6], QW: vars[3], QO: vars[4], QG: vars[5],
			PerfPressure: ad.MatMul(gather, p),
			MobW:         ad.MatMul(gather, mobW),
			MobO:         ad.MatMul(gather, mobO),
			MobG:         ad.MatMul(gather, mobG),
			BW:           ad.MatMul(gather, bW),
			BO:           ad.MatMul(gather, bO),
			BG:           ad.MatMul(gather, bG),
			Rs:           ad.MatMul(gather, rs),
			Rv:           ad.MatMul(gather, rv),
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
		eqs[2] = eqs[2].Sub(ad.MatMul(scatter, out.PerfG))
		eqs = append(eqs, out.EqW, out.EqO, out.EqG, out.ControlEq)
		names = append(names, "waterWells", "oilWells", "gasWells", "closureWells")
		types = append(types, "well", "well", "well", "well")
		if !opt.StaticWells {
			stOut.Wells = out.Sol
		}
	}

	prob = &LinearizedProblem{
		Equations:   eqs,
		Names:       names,
		Types:       types,
		PrimaryVars: blackOilVarNames(hasWells),
		Dt:          dt,
		State:       stOut,
	}
	return
}
