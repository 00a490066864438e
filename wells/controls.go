// Package wells translates well control targets into algebraic constraint
// residuals and computes perforation fluxes coupling wells to the
// reservoir equations.
package wells

import (
	"errors"
	"fmt"
	"math"

	"github.com/porousflow/gores/ad"
)

// ErrUnsupported marks an unknown control type at its point of use.
var ErrUnsupported = errors.New("wells: unsupported control type")

// ControlType selects which quantity the control equation pins.
type ControlType string

const (
	BHP  ControlType = "bhp"
	Rate ControlType = "rate"
	ORat ControlType = "orat"
	WRat ControlType = "wrat"
	GRat ControlType = "grat"
	LRat ControlType = "lrat"
	VRat ControlType = "vrat"
)

// Well is one well's static description. Exactly one control is active per
// iteration; the surrounding schedule logic may switch it between steps.
type Well struct {
	Name    string
	Control ControlType
	Target  float64

	// Perforated cell indices, well index and depth offset below the
	// well's reference depth, one entry each per perforation.
	Cells []int
	WI    []float64
	Dz    []float64

	// Sign is +1 for injectors, -1 for producers.
	Sign float64
	// Compi is the injected surface-volume composition (water, oil, gas).
	Compi [3]float64
}

// System concatenates all wells' perforations for vectorized assembly.
type System struct {
	Wells []*Well

	PerfCells []int
	PerfWell  []int // owning well index per perforation
	PerfWI    []float64
	PerfDz    []float64
}

func NewSystem(ws []*Well) *System {
	s := &System{Wells: ws}
	for wi, w := range ws {
		if len(w.Cells) != len(w.WI) || len(w.Cells) != len(w.Dz) {
			err := fmt.Errorf("well %s: %d cells, %d well indices, %d depths", w.Name, len(w.Cells), len(w.WI), len(w.Dz))
			panic(err)
		}
		for p := range w.Cells {
			s.PerfCells = append(s.PerfCells, w.Cells[p])
			s.PerfWell = append(s.PerfWell, wi)
			s.PerfWI = append(s.PerfWI, w.WI[p])
			s.PerfDz = append(s.PerfDz, w.Dz[p])
		}
	}
	return s
}

func (s *System) NumWells() int { return len(s.Wells) }
func (s *System) NumPerf() int  { return len(s.PerfCells) }

// ControlEquations builds one residual per well enforcing its active
// control. Every control reduces to a linear form
//
//	cB*pBH + cW*qWs + cO*qOs + cG*qGs - target
//
// with coefficients chosen per the control type. A rate-controlled well
// whose target phase fraction is zero, or whose target is exactly zero,
// falls back to the zero-total-rate residual so an unsatisfiable phase
// target cannot destabilize the Newton iteration.
func (s *System) ControlEquations(bhp, qW, qO, qG ad.Value) (eq ad.Value, err error) {
	var (
		nw = s.NumWells()
		cB = make([]float64, nw)
		cW = make([]float64, nw)
		cO = make([]float64, nw)
		cG = make([]float64, nw)
		tg = make([]float64, nw)
	)
	for i, w := range s.Wells {
		total := math.Abs(qW.V[i]) + math.Abs(qO.V[i]) + math.Abs(qG.V[i])
		frac := func(q float64) float64 {
			if total == 0 {
				return 0
			}
			return math.Abs(q) / total
		}
		zeroRate := func() {
			cW[i], cO[i], cG[i], tg[i] = 1, 1, 1, 0
		}
		switch w.Control {
		case BHP, Rate, VRat, ORat, WRat, GRat, LRat:
		default:
			err = fmt.Errorf("%w: %q on well %s", ErrUnsupported, w.Control, w.Name)
			return
		}
		// crossflow shutoff: a zero target on any rate control is
		// replaced by the zero-total-rate residual
		if w.Control != BHP && w.Target == 0 {
			zeroRate()
			continue
		}
		switch w.Control {
		case BHP:
			cB[i], tg[i] = 1, w.Target
		case Rate, VRat:
			cW[i], cO[i], cG[i], tg[i] = 1, 1, 1, w.Target
		case ORat:
			if frac(qO.V[i]) == 0 {
				zeroRate()
			} else {
				cO[i], tg[i] = 1, w.Target
			}
		case WRat:
			if frac(qW.V[i]) == 0 {
				zeroRate()
			} else {
				cW[i], tg[i] = 1, w.Target
			}
		case GRat:
			if frac(qG.V[i]) == 0 {
				zeroRate()
			} else {
				cG[i], tg[i] = 1, w.Target
			}
		case LRat:
			if frac(qW.V[i])+frac(qO.V[i]) == 0 {
				zeroRate()
			} else {
				cW[i], cO[i], tg[i] = 1, 1, w.Target
			}
		}
	}
	neg := make([]float64, nw)
	for i := range neg {
		neg[i] = -tg[i]
	}
	eq = bhp.ScaleVec(cB).
		Add(qW.ScaleVec(cW)).
		Add(qO.ScaleVec(cO)).
		Add(qG.ScaleVec(cG)).
		AddVec(neg)
	return
}
