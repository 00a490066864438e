package nonlinear

import (
	"fmt"
	"math"

	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/utils"
)

// Increment holds one Newton increment per primary variable. Slices that do
// not apply to the active model (Dx for two-phase, matrix fields for single
// porosity) are left nil.
type Increment struct {
	Dp   []float64 // pressure
	Dsw  []float64 // water saturation
	Dx   []float64 // switched variable: rs, rv or sg depending on cell status
	Dpom []float64 // matrix pressure (dual porosity)
	Dswm []float64 // matrix water saturation (dual porosity)
	DqW  []float64 // well water surface rates
	DqO  []float64
	DqG  []float64
	Dbhp []float64
}

// Config bounds the per-iteration state change.
type Config struct {
	DpMaxRel  float64 // pressure increment cap, fraction of |p|
	DsMax     float64 // saturation increment cap, absolute
	DrsMaxRel float64 // dissolved ratio increment cap, fraction of |rs|
	RsAdjust  float64 // safety factor on the solubility comparison
	DisGas    bool
	VapOil    bool
}

// DefaultConfig matches common black-oil chopping limits.
func DefaultConfig() Config {
	return Config{
		DpMaxRel:  0.2,
		DsMax:     0.2,
		DrsMaxRel: 0.2,
		RsAdjust:  1,
		DisGas:    true,
	}
}

// Updater maps unconstrained Newton increments into admissible states.
type Updater struct {
	Fluid props.Model
	Cfg   Config
}

func NewUpdater(fluid props.Model, cfg Config) *Updater {
	return &Updater{Fluid: fluid, Cfg: cfg}
}

// clampAbs limits v to [-cap, cap], preserving sign.
func clampAbs(v, capAbs float64) float64 {
	if v > capAbs {
		return capAbs
	}
	if v < -capAbs {
		return -capAbs
	}
	return v
}

// Apply produces a new state from st and inc. The input state is not
// modified. Cell phase status is reassessed by Appleyard switching: the
// free-gas epsilon and its near-zero band derive from machine precision.
func (u *Updater) Apply(st *state.Reservoir, inc Increment) (*state.Reservoir, error) {
	var (
		out     = st.Copy()
		nc      = len(st.Pressure)
		epsilon = utils.SqrtEps
	)
	for i := 0; i < nc; i++ {
		// Bounded pressure move, relative to the current magnitude.
		dp := 0.
		if inc.Dp != nil {
			dp = clampAbs(inc.Dp[i], u.Cfg.DpMaxRel*math.Abs(st.Pressure[i]))
		}
		p := st.Pressure[i] + dp
		if p < 0 {
			p = 0
		}
		out.Pressure[i] = p
		if pAbs := math.Abs(st.Pressure[i]); pAbs > 0 {
			out.DpRel[i] = st.DpRel[i] + dp/pAbs
		}
	}
	rsSatV, _ := u.Fluid.RsSat(out.Pressure)
	rvSatV, _ := u.Fluid.RvSat(out.Pressure)

	for i := 0; i < nc; i++ {
		dsw := 0.
		if inc.Dsw != nil {
			dsw = clampAbs(inc.Dsw[i], u.Cfg.DsMax)
		}
		sw := st.Sw[i] + dsw

		var (
			sg     = st.Sg[i]
			rs     = st.Rs[i]
			rv     = st.Rv[i]
			status = st.Status[i]
		)
		if inc.Dx != nil {
			switch status {
			case state.UndersatOil:
				rs += clampAbs(inc.Dx[i], u.Cfg.DrsMaxRel*math.Abs(st.Rs[i]))
			case state.UndersatGas:
				rv += clampAbs(inc.Dx[i], u.Cfg.DrsMaxRel*math.Abs(st.Rv[i]))
			default:
				sg += clampAbs(inc.Dx[i], u.Cfg.DsMax)
			}
		}

		// Two-step saturation clamp, then ratio non-negativity.
		sw = math.Max(sw, 0)
		sw = math.Min(sw, 1)
		sg = math.Max(sg, 0)
		sg = math.Min(sg, 1)
		rs = math.Max(rs, 0)
		rv = math.Max(rv, 0)

		rsSat := rsSatV[i]
		rvSat := rvSatV[i]

		// Appleyard switching.
		switch status {
		case state.UndersatOil:
			if rs > u.Cfg.RsAdjust*rsSat {
				// Free gas appears at the solubility limit.
				sg = epsilon
				rs = rsSat
				status = state.Saturated
			}
		case state.UndersatGas:
			if rv > u.Cfg.RsAdjust*rvSat {
				// Free oil appears at the vaporization limit: shave
				// the gas column so so comes out at epsilon.
				sg = math.Max(1-sw-epsilon, 0)
				rv = rvSat
				status = state.Saturated
			}
		default:
			if sg <= 0 {
				if st.Sg[i] <= 2*epsilon {
					// Already at the boundary: let the phase vanish.
					sg = 0
					if u.Cfg.DisGas {
						status = state.UndersatOil
						rs = rsSat
					}
				} else {
					// Overshot from a meaningful saturation: hold at
					// the boundary instead of leaving the region.
					sg = epsilon
				}
			}
			if status == state.Saturated {
				if u.Cfg.DisGas {
					rs = rsSat
				}
				if u.Cfg.VapOil {
					rv = rvSat
				}
			}
		}

		so := 1 - sw - sg
		so = math.Max(so, 0)
		so = math.Min(so, 1)

		// Remove round-off drift in the saturation sum.
		if sum := sw + so + sg; sum > 0 {
			sw /= sum
			so /= sum
			sg /= sum
		}

		// No hydrocarbon phase present: pin the ratio to a consistent value.
		if sw == 1 {
			if u.Cfg.DisGas {
				rs = rsSat
			}
			if u.Cfg.VapOil {
				rv = rvSat
			}
		}

		out.Sw[i] = sw
		out.So[i] = so
		out.Sg[i] = sg
		out.Rs[i] = rs
		out.Rv[i] = rv
		out.Status[i] = status

		if err := checkCell(i, sw, so, sg, rs, rsSat); err != nil {
			return nil, err
		}
	}

	if out.Pom != nil {
		for i := 0; i < nc; i++ {
			dp := 0.
			if inc.Dpom != nil {
				dp = clampAbs(inc.Dpom[i], u.Cfg.DpMaxRel*math.Abs(st.Pom[i]))
			}
			out.Pom[i] = math.Max(st.Pom[i]+dp, 0)

			dsw := 0.
			if inc.Dswm != nil {
				dsw = clampAbs(inc.Dswm[i], u.Cfg.DsMax)
			}
			swm := utils.Clamp(st.Swm[i]+dsw, 0, 1)
			out.Swm[i] = swm
			out.Sgm[i] = st.Sgm[i]
		}
	}

	for w := range out.Wells {
		ws := &out.Wells[w]
		if inc.Dbhp != nil {
			ws.BHP += inc.Dbhp[w]
		}
		if inc.DqW != nil {
			ws.QWs += inc.DqW[w]
		}
		if inc.DqO != nil {
			ws.QOs += inc.DqO[w]
		}
		if inc.DqG != nil {
			ws.QGs += inc.DqG[w]
		}
	}
	return out, nil
}

// checkCell enforces the post-update invariants. A violation means the
// iteration produced a corrupted state and must abort.
func checkCell(i int, sw, so, sg, rs, rsSat float64) error {
	const tol = 1.e-8
	if d := math.Abs(sw + so + sg - 1); d > tol {
		return fmt.Errorf("%w: cell %d saturation sum off by %g", ErrInvariant, i, d)
	}
	if sw < 0 || so < 0 || sg < 0 {
		return fmt.Errorf("%w: cell %d negative saturation (%g, %g, %g)", ErrInvariant, i, sw, so, sg)
	}
	if rs < 0 {
		return fmt.Errorf("%w: cell %d negative rs %g", ErrInvariant, i, rs)
	}
	if rs > rsSat+tol {
		return fmt.Errorf("%w: cell %d rs %g exceeds solubility limit %g", ErrInvariant, i, rs, rsSat)
	}
	return nil
}
