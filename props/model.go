// Package props defines the fluid and rock property contract consumed by
// the residual assemblers, plus an analytic default model. Deck-table
// ingestion (PVT/SCAL parsing) is an external collaborator; everything here
// returns pointwise values together with the partial derivatives the AD
// layer composes through.
package props

// Model evaluates black-oil properties per cell. All slice arguments and
// results are cell-sized; derivative slices align with the value slice.
type Model interface {
	// BW is the reciprocal water formation-volume factor.
	BW(p []float64) (b, dbdp []float64)
	// BO is the reciprocal oil FVF. saturated marks cells on the
	// saturated curve (rs pinned at RsSat); rs enters only off-curve.
	BO(p, rs []float64, saturated []bool) (b, dbdp, dbdrs []float64)
	// BG is the reciprocal gas FVF, with rv entering for vapoil runs.
	BG(p, rv []float64, saturated []bool) (b, dbdp, dbdrv []float64)

	// RsSat is the pressure-dependent dissolved-gas solubility limit.
	RsSat(p []float64) (rs, drsdp []float64)
	// RvSat is the vaporized-oil limit.
	RvSat(p []float64) (rv, drvdp []float64)

	// RelPerm returns per-phase relative permeabilities and the
	// derivative with respect to each phase's own saturation.
	RelPerm(sw, so, sg []float64) (krw, dkrw, kro, dkro, krg, dkrg []float64)

	// Viscosity returns constant phase viscosities (water, oil, gas).
	Viscosity() (muW, muO, muG float64)
	// SurfaceDensity returns phase densities at surface conditions.
	SurfaceDensity() (rhoW, rhoO, rhoG float64)
	// PvMult is the pressure-dependent pore-volume multiplier.
	PvMult(p []float64) (m, dmdp []float64)
	// Gravity is the gravitational acceleration used in buoyancy terms.
	Gravity() float64
}
