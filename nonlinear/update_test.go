package nonlinear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/utils"
)

func saturatedState(nc int) *state.Reservoir {
	st := state.New(nc)
	for i := 0; i < nc; i++ {
		st.Pressure[i] = 200
		st.Sw[i] = 0.3
		st.So[i] = 0.5
		st.Sg[i] = 0.2
		st.Rs[i] = 100 // rsSat at p=200 for the analytic model
		st.Status[i] = state.Saturated
	}
	return st
}

func TestZeroIncrementLeavesStateUnchanged(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(2)
	out, err := u.Apply(st, Increment{})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.Equal(t, st.Pressure[i], out.Pressure[i])
		assert.InDelta(t, st.Sw[i], out.Sw[i], 1.e-14)
		assert.InDelta(t, st.So[i], out.So[i], 1.e-14)
		assert.InDelta(t, st.Sg[i], out.Sg[i], 1.e-14)
		assert.Equal(t, st.Rs[i], out.Rs[i])
		assert.Equal(t, st.Status[i], out.Status[i])
	}
}

func TestIncrementsAreClipped(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(1)
	out, err := u.Apply(st, Increment{
		Dp:  []float64{100}, // cap is 0.2*200 = 40
		Dsw: []float64{0.5}, // cap is 0.2
		Dx:  []float64{0},
	})
	require.NoError(t, err)
	assert.InDelta(t, 240, out.Pressure[0], 1.e-12)
	assert.InDelta(t, 0.2, out.DpRel[0], 1.e-12)
	assert.InDelta(t, 0.5, out.Sw[0], 1.e-12)
}

func TestGasAppearsAtSolubilityLimit(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := state.New(1)
	st.Pressure[0] = 200
	st.Sw[0] = 0.2
	st.So[0] = 0.8
	st.Rs[0] = 90
	st.Status[0] = state.UndersatOil

	// rs cap is 0.2*90 = 18; an increment of 15 pushes rs to 105,
	// past rsSat(200) = 100: free gas appears.
	out, err := u.Apply(st, Increment{Dx: []float64{15}})
	require.NoError(t, err)
	assert.Equal(t, state.Saturated, out.Status[0])
	assert.Equal(t, utils.SqrtEps, out.Sg[0])
	assert.Equal(t, 100., out.Rs[0], "rs pinned at rsSat(200)")
}

func TestOilAppearsAtVaporizationLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisGas = false
	cfg.VapOil = true
	u := NewUpdater(props.NewAnalytic(), cfg)
	st := state.New(1)
	st.Pressure[0] = 200
	st.Sw[0] = 0.3
	st.So[0] = 0
	st.Sg[0] = 0.7
	st.Rv[0] = 0.019
	st.Status[0] = state.UndersatGas

	// rv cap is 0.2*0.019; the clipped increment still crosses
	// rvSat(200) = 0.02, so free oil condenses out
	out, err := u.Apply(st, Increment{Dx: []float64{0.01}})
	require.NoError(t, err)
	assert.Equal(t, state.Saturated, out.Status[0])
	assert.InDelta(t, utils.SqrtEps, out.So[0], 1.e-15)
	rvSat, _ := u.Fluid.RvSat(out.Pressure)
	assert.Equal(t, rvSat[0], out.Rv[0])
}

func TestGasDisappearsNearZero(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(1)
	st.Sg[0] = 1.e-9 // inside the 2*sqrt(machEps) band
	st.So[0] = 1 - st.Sw[0] - st.Sg[0]
	out, err := u.Apply(st, Increment{Dx: []float64{-0.05}})
	require.NoError(t, err)
	assert.Equal(t, state.UndersatOil, out.Status[0])
	assert.Equal(t, 0., out.Sg[0])
	assert.Equal(t, 100., out.Rs[0], "rs pinned at rsSat(200)")
}

func TestGasOvershootHeldAtEpsilon(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(1)
	st.Sg[0] = 0.1
	st.So[0] = 0.6
	out, err := u.Apply(st, Increment{Dx: []float64{-0.2}})
	require.NoError(t, err)
	// a jump from a meaningful saturation stops at the boundary
	assert.Equal(t, state.Saturated, out.Status[0])
	assert.Equal(t, utils.SqrtEps, out.Sg[0])
}

func TestSaturationsRenormalized(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(3)
	out, err := u.Apply(st, Increment{
		Dp:  []float64{13, -27, 4},
		Dsw: []float64{0.17, -0.08, 0.02},
		Dx:  []float64{-0.05, 0.11, 0.19},
	})
	require.NoError(t, err)
	rsSat, _ := u.Fluid.RsSat(out.Pressure)
	for i := 0; i < 3; i++ {
		sum := out.Sw[i] + out.So[i] + out.Sg[i]
		assert.InDelta(t, 1, sum, 1.e-8)
		assert.LessOrEqual(t, out.Rs[i], rsSat[i]+1.e-8)
		assert.GreaterOrEqual(t, out.Sw[i], 0.)
		assert.GreaterOrEqual(t, out.So[i], 0.)
		assert.GreaterOrEqual(t, out.Sg[i], 0.)
	}
}

func TestRatioBoundViolationIsFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RsAdjust = 2 // delays switching past the physical limit
	u := NewUpdater(props.NewAnalytic(), cfg)
	st := state.New(1)
	st.Pressure[0] = 200
	st.Sw[0] = 0.2
	st.So[0] = 0.8
	st.Rs[0] = 90
	st.Status[0] = state.UndersatOil

	_, err := u.Apply(st, Increment{Dx: []float64{15}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestWellIncrementsApplied(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(1)
	st.Wells = []state.WellSol{{Name: "W1", BHP: 210, QWs: 1}}
	out, err := u.Apply(st, Increment{
		Dbhp: []float64{-5},
		DqW:  []float64{0.5},
		DqO:  []float64{0.25},
	})
	require.NoError(t, err)
	assert.Equal(t, 205., out.Wells[0].BHP)
	assert.Equal(t, 1.5, out.Wells[0].QWs)
	assert.Equal(t, 0.25, out.Wells[0].QOs)
}

func TestMatrixFieldsUpdated(t *testing.T) {
	u := NewUpdater(props.NewAnalytic(), DefaultConfig())
	st := saturatedState(1).EnableDualPorosity()
	st.Pom[0] = 180
	st.Swm[0] = 0.4
	out, err := u.Apply(st, Increment{
		Dpom: []float64{10},
		Dswm: []float64{-0.1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 190, out.Pom[0], 1.e-12)
	assert.InDelta(t, 0.3, out.Swm[0], 1.e-12)
}
