package equations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPressureVariantCombinesPhaseResiduals(t *testing.T) {
	inner, st := owModel(t, 1, false)
	m := &PressureDP{Inner: *inner}
	st0 := st.Copy()
	st.Sw[0] = 0.35
	st.So[0] = 0.65

	full, _, err := inner.Assemble(st0, st, 1, DrivingForces{}, Options{})
	require.NoError(t, err)
	red, _, err := m.Assemble(st0, st, 1, DrivingForces{}, Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"pressure"}, red.Names)
	var (
		noRs     = make([]float64, 1)
		noSat    = make([]bool, 1)
		bW, _    = inner.Fluid.BW(st.Pressure)
		bO, _, _ = inner.Fluid.BO(st.Pressure, noRs, noSat)
	)
	want := full.Equations[0].V[0]/bW[0] + full.Equations[1].V[0]/bO[0]
	assert.InDelta(t, want, red.Equations[0].V[0], 1.e-12)

	// saturation is frozen: the reduced system is square in pressure
	require.Equal(t, []string{"pressure"}, red.PrimaryVars)
	require.Len(t, red.Equations[0].J, 1)
	assert.Equal(t, 1, red.Equations[0].J[0].Cols)
}

func TestPressureVariantKeepsMatrixEquations(t *testing.T) {
	inner, st := owModel(t, 1, true)
	inner.Transfer = constTransfer{w: 2, o: 1}
	m := &PressureDP{Inner: *inner}
	red, _, err := m.Assemble(st.Copy(), st, 1, DrivingForces{}, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"pressure", "waterMatrix", "oilMatrix"}, red.Names)
	require.Equal(t, []string{"pressure", "pom", "swm"}, red.PrimaryVars)
	assert.InDelta(t, -2, red.Equations[1].V[0], 1.e-10, "matrix equations pass through unchanged")
}

func TestPressureVariantRejectsReverseMode(t *testing.T) {
	inner, st := owModel(t, 1, false)
	m := &PressureDP{Inner: *inner}
	_, _, err := m.Assemble(st.Copy(), st, 1, DrivingForces{}, Options{ReverseMode: true})
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "reverse-mode")
}
