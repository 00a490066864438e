package props

import "math"

// Analytic is a compressibility-exponential black-oil model: b factors grow
// exponentially with pressure, the solubility limits are linear in
// pressure, and relative permeabilities follow quadratic Corey curves.
// It is the stand-in the tests and the driver run against.
type Analytic struct {
	Pref float64 // reference pressure

	BWref, CW float64
	BOref, CO float64
	BGref, CG float64

	// RsSlope and RvSlope give rsSat = RsSlope*p, rvSat = RvSlope*p.
	RsSlope, RvSlope float64

	MuW, MuO, MuG    float64
	RhoW, RhoO, RhoG float64 // surface densities

	// Connate/residual saturations for the Corey curves.
	Swc, Sor, Sgc float64

	CR float64 // rock compressibility for the pore-volume multiplier
	G  float64 // gravity
}

// NewAnalytic fills in a mildly compressible waterflood-friendly default.
func NewAnalytic() *Analytic {
	return &Analytic{
		Pref:    200,
		BWref:   1, CW: 1.e-5,
		BOref:   1, CO: 5.e-5,
		BGref:   100, CG: 1.e-3,
		RsSlope: 0.5,
		RvSlope: 1.e-4,
		MuW:     1, MuO: 5, MuG: 0.02,
		RhoW:    1000, RhoO: 850, RhoG: 1.2,
		CR:      0,
		G:       9.80665,
	}
}

func expFactor(p []float64, ref, c float64, pref float64) (b, dbdp []float64) {
	b = make([]float64, len(p))
	dbdp = make([]float64, len(p))
	for i, pv := range p {
		b[i] = ref * math.Exp(c*(pv-pref))
		dbdp[i] = c * b[i]
	}
	return
}

func (m *Analytic) BW(p []float64) (b, dbdp []float64) {
	return expFactor(p, m.BWref, m.CW, m.Pref)
}

func (m *Analytic) BO(p, rs []float64, saturated []bool) (b, dbdp, dbdrs []float64) {
	b, dbdp = expFactor(p, m.BOref, m.CO, m.Pref)
	dbdrs = make([]float64, len(p))
	return
}

func (m *Analytic) BG(p, rv []float64, saturated []bool) (b, dbdp, dbdrv []float64) {
	b, dbdp = expFactor(p, m.BGref, m.CG, m.Pref)
	dbdrv = make([]float64, len(p))
	return
}

func (m *Analytic) RsSat(p []float64) (rs, drsdp []float64) {
	rs = make([]float64, len(p))
	drsdp = make([]float64, len(p))
	for i, pv := range p {
		rs[i] = m.RsSlope * pv
		drsdp[i] = m.RsSlope
	}
	return
}

func (m *Analytic) RvSat(p []float64) (rv, drvdp []float64) {
	rv = make([]float64, len(p))
	drvdp = make([]float64, len(p))
	for i, pv := range p {
		rv[i] = m.RvSlope * pv
		drvdp[i] = m.RvSlope
	}
	return
}

func corey(s, sr, span float64) (kr, dkr float64) {
	se := (s - sr) / span
	if se <= 0 {
		return 0, 0
	}
	if se >= 1 {
		return 1, 0
	}
	return se * se, 2 * se / span
}

func (m *Analytic) RelPerm(sw, so, sg []float64) (krw, dkrw, kro, dkro, krg, dkrg []float64) {
	var (
		n = len(sw)
	)
	krw, dkrw = make([]float64, n), make([]float64, n)
	kro, dkro = make([]float64, n), make([]float64, n)
	krg, dkrg = make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		krw[i], dkrw[i] = corey(sw[i], m.Swc, 1-m.Swc)
		kro[i], dkro[i] = corey(so[i], m.Sor, 1-m.Sor)
		krg[i], dkrg[i] = corey(sg[i], m.Sgc, 1-m.Sgc)
	}
	return
}

func (m *Analytic) Viscosity() (muW, muO, muG float64) { return m.MuW, m.MuO, m.MuG }

func (m *Analytic) SurfaceDensity() (rhoW, rhoO, rhoG float64) { return m.RhoW, m.RhoO, m.RhoG }

func (m *Analytic) PvMult(p []float64) (mult, dmdp []float64) {
	mult = make([]float64, len(p))
	dmdp = make([]float64, len(p))
	for i, pv := range p {
		mult[i] = 1 + m.CR*(pv-m.Pref)
		dmdp[i] = m.CR
	}
	return
}

func (m *Analytic) Gravity() float64 { return m.G }
