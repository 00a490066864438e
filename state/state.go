// Package state holds the mutable simulation unknowns: per-cell pressure,
// saturations, dissolution ratios and phase status, the dual-porosity
// matrix-block mirrors, and the per-well solution record. The assemblers
// and the updater treat states as values: each step takes a state in and
// returns a new one, previous and current states never alias.
package state

// PhaseStatus classifies the hydrocarbon system of one cell and selects the
// meaning of the switched primary variable x.
type PhaseStatus uint8

const (
	// UndersatOil: gas is fully dissolved, x carries rs, sg pinned at 0.
	UndersatOil PhaseStatus = iota
	// UndersatGas: oil exists only as vapor, x carries rv.
	UndersatGas
	// Saturated: free gas present, x carries sg, rs/rv pinned at their
	// solubility limits.
	Saturated
)

func (s PhaseStatus) String() string {
	switch s {
	case UndersatOil:
		return "undersaturated-oil"
	case UndersatGas:
		return "undersaturated-gas"
	default:
		return "saturated"
	}
}

// Reservoir is the per-cell state record.
type Reservoir struct {
	Pressure []float64
	Sw       []float64
	So       []float64
	Sg       []float64
	Rs       []float64
	Rv       []float64
	Status   []PhaseStatus

	// Dual-porosity matrix-block mirrors; nil for single-porosity runs.
	Pom []float64
	Swm []float64
	Sgm []float64

	// DpRel tracks the relative pressure change since the last converged
	// step, for the optional increment-based convergence check.
	DpRel []float64

	Wells []WellSol
}

// WellSol is the per-well solution sub-record.
type WellSol struct {
	Name string
	BHP  float64
	// Surface rates per phase; zero for phases absent from the model.
	QWs, QOs, QGs float64
	// Perforation fluxes per phase, one entry per perforation.
	FluxW, FluxO, FluxG []float64
	// RhoMix is the wellbore mixture density, refreshed on the first
	// Newton iteration of a step and frozen afterwards.
	RhoMix float64
}

// New allocates a single-porosity state with unit oil saturation.
func New(nc int) *Reservoir {
	st := &Reservoir{
		Pressure: make([]float64, nc),
		Sw:       make([]float64, nc),
		So:       make([]float64, nc),
		Sg:       make([]float64, nc),
		Rs:       make([]float64, nc),
		Rv:       make([]float64, nc),
		Status:   make([]PhaseStatus, nc),
		DpRel:    make([]float64, nc),
	}
	for i := range st.So {
		st.So[i] = 1
	}
	return st
}

// EnableDualPorosity allocates the matrix-block mirrors.
func (st *Reservoir) EnableDualPorosity() *Reservoir {
	nc := len(st.Pressure)
	st.Pom = make([]float64, nc)
	st.Swm = make([]float64, nc)
	st.Sgm = make([]float64, nc)
	return st
}

func copyF(a []float64) []float64 {
	if a == nil {
		return nil
	}
	b := make([]float64, len(a))
	copy(b, a)
	return b
}

// Copy returns a deep copy; the receiver is untouched by any later
// mutation of the copy.
func (st *Reservoir) Copy() *Reservoir {
	c := &Reservoir{
		Pressure: copyF(st.Pressure),
		Sw:       copyF(st.Sw),
		So:       copyF(st.So),
		Sg:       copyF(st.Sg),
		Rs:       copyF(st.Rs),
		Rv:       copyF(st.Rv),
		Pom:      copyF(st.Pom),
		Swm:      copyF(st.Swm),
		Sgm:      copyF(st.Sgm),
		DpRel:    copyF(st.DpRel),
	}
	c.Status = make([]PhaseStatus, len(st.Status))
	copy(c.Status, st.Status)
	c.Wells = make([]WellSol, len(st.Wells))
	for i, w := range st.Wells {
		c.Wells[i] = WellSol{
			Name: w.Name, BHP: w.BHP,
			QWs: w.QWs, QOs: w.QOs, QGs: w.QGs,
			FluxW: copyF(w.FluxW), FluxO: copyF(w.FluxO), FluxG: copyF(w.FluxG),
			RhoMix: w.RhoMix,
		}
	}
	return c
}

// Classify derives per-cell phase status from a previous converged state.
// It compares free-gas saturation and the dissolution ratios against the
// supplied solubility limits; disgas/vapoil gate which undersaturated
// branches are reachable. Called once per Newton iteration so the switch
// cannot oscillate with the iterate.
func Classify(sg, so, rs, rv, rsSat, rvSat []float64, disgas, vapoil bool) []PhaseStatus {
	status := make([]PhaseStatus, len(sg))
	for i := range sg {
		switch {
		case disgas && sg[i] <= 0 && rs[i] < rsSat[i]:
			status[i] = UndersatOil
		case vapoil && so[i] <= 0 && sg[i] > 0 && rv[i] < rvSat[i]:
			status[i] = UndersatGas
		default:
			status[i] = Saturated
		}
	}
	return status
}
