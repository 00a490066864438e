package wells

import (
	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/utils"
)

// FluxInput carries the AD quantities the well model needs: well-level
// unknowns (bhp, surface rates) and perforation-level reservoir fields
// gathered at the well cells.
type FluxInput struct {
	Bhp        ad.Value // numWells
	QW, QO, QG ad.Value // numWells

	PerfPressure     ad.Value // numPerf
	MobW, MobO, MobG ad.Value // numPerf
	BW, BO, BG       ad.Value // numPerf
	Rs, Rv           ad.Value // numPerf

	Sol       []state.WellSol
	Iteration int
}

// FluxResult is the well model output per the assembler contract.
type FluxResult struct {
	// Surface-condition perforation fluxes per phase, positive into the
	// reservoir.
	PerfW, PerfO, PerfG ad.Value
	// Reservoir-condition fluxes.
	ResW, ResO, ResG ad.Value
	// Rate closure residuals (surface rate minus summed perforation flux).
	EqW, EqO, EqG ad.Value
	// Control equation residuals.
	ControlEq ad.Value

	PerfCells []int
	Sol       []state.WellSol
}

// perfSum builds the numWells x numPerf summation matrix.
func (s *System) perfSum() *utils.DOK {
	d := utils.NewDOK(s.NumWells(), s.NumPerf())
	for p, wi := range s.PerfWell {
		d.Set(wi, p, 1)
	}
	return &d
}

// wellToPerf replicates a well-level value onto its perforations.
func (s *System) wellToPerf() *utils.DOK {
	d := utils.NewDOK(s.NumPerf(), s.NumWells())
	for p, wi := range s.PerfWell {
		d.Set(p, wi, 1)
	}
	return &d
}

// mixtureDensity derives a wellbore density from the well's surface-rate
// mix; an idle well falls back to its injection composition.
func mixtureDensity(w *Well, sol state.WellSol, rhoW, rhoO, rhoG float64) float64 {
	var (
		aw = abs(sol.QWs)
		ao = abs(sol.QOs)
		ag = abs(sol.QGs)
	)
	total := aw + ao + ag
	if total == 0 {
		return w.Compi[0]*rhoW + w.Compi[1]*rhoO + w.Compi[2]*rhoG
	}
	return (aw*rhoW + ao*rhoO + ag*rhoG) / total
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// ComputeFlux evaluates perforation fluxes, rate-closure equations and
// control equations for all wells at once.
//
// The wellbore column density is refreshed from the previous iterate's
// surface rates on the first Newton iteration of a step (Iteration <= 0)
// and frozen afterwards, so the hydrostatic head does not chase the
// iterate. The drawdown sign decides per perforation whether the well-cell
// phase mobilities (producing) or the total mobility split by injection
// composition (injecting) carries the flux, the same donor rule the face
// upstream weighting uses.
func (s *System) ComputeFlux(m props.Model, in FluxInput) (out FluxResult, err error) {
	var (
		np               = s.NumPerf()
		g                = m.Gravity()
		rhoW, rhoO, rhoG = m.SurfaceDensity()
	)
	out.PerfCells = s.PerfCells
	out.Sol = make([]state.WellSol, len(in.Sol))
	copy(out.Sol, in.Sol)

	// hydrostatic head per perforation
	head := make([]float64, np)
	for p, wi := range s.PerfWell {
		rhoMix := in.Sol[wi].RhoMix
		if in.Iteration <= 0 || rhoMix == 0 {
			rhoMix = mixtureDensity(s.Wells[wi], in.Sol[wi], rhoW, rhoO, rhoG)
			out.Sol[wi].RhoMix = rhoMix
		}
		head[p] = g * rhoMix * s.PerfDz[p]
	}

	// drawdown = bhp + head - p_cell per perforation
	pConn := ad.MatMul(s.wellToPerf().ToCSR(), in.Bhp).AddVec(head)
	dd := pConn.Sub(in.PerfPressure)

	// donor selection per perforation
	var (
		prod  = make([]float64, np)
		injW  = make([]float64, np)
		injO  = make([]float64, np)
		injG  = make([]float64, np)
		wiVec = s.PerfWI
	)
	for p := range dd.V {
		w := s.Wells[s.PerfWell[p]]
		if dd.V[p] > 0 {
			injW[p] = w.Compi[0]
			injO[p] = w.Compi[1]
			injG[p] = w.Compi[2]
		} else {
			prod[p] = 1
		}
	}
	mobT := in.MobW.Add(in.MobO).Add(in.MobG)
	mobW := in.MobW.ScaleVec(prod).Add(mobT.ScaleVec(injW))
	mobO := in.MobO.ScaleVec(prod).Add(mobT.ScaleVec(injO))
	mobG := in.MobG.ScaleVec(prod).Add(mobT.ScaleVec(injG))

	out.ResW = mobW.Mul(dd).ScaleVec(wiVec)
	out.ResO = mobO.Mul(dd).ScaleVec(wiVec)
	out.ResG = mobG.Mul(dd).ScaleVec(wiVec)

	// surface-condition fluxes carry the dissolved/vaporized components
	out.PerfW = in.BW.Mul(out.ResW)
	out.PerfO = in.BO.Mul(out.ResO).Add(in.Rv.Mul(in.BG).Mul(out.ResG))
	out.PerfG = in.BG.Mul(out.ResG).Add(in.Rs.Mul(in.BO).Mul(out.ResO))

	sum := s.perfSum().ToCSR()
	out.EqW = in.QW.Sub(ad.MatMul(sum, out.PerfW))
	out.EqO = in.QO.Sub(ad.MatMul(sum, out.PerfO))
	out.EqG = in.QG.Sub(ad.MatMul(sum, out.PerfG))

	if out.ControlEq, err = s.ControlEquations(in.Bhp, in.QW, in.QO, in.QG); err != nil {
		return
	}

	for wi := range out.Sol {
		out.Sol[wi].FluxW = perfSlice(out.PerfW.V, s.PerfWell, wi)
		out.Sol[wi].FluxO = perfSlice(out.PerfO.V, s.PerfWell, wi)
		out.Sol[wi].FluxG = perfSlice(out.PerfG.V, s.PerfWell, wi)
	}
	return
}

func perfSlice(v []float64, perfWell []int, wi int) (r []float64) {
	for p, w := range perfWell {
		if w == wi {
			r = append(r, v[p])
		}
	}
	return
}
