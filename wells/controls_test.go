package wells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porousflow/gores/ad"
)

func wellVars(bhp, qw, qo, qg []float64) (b, w, o, g ad.Value) {
	vals, _ := ad.Vars(bhp, qw, qo, qg)
	return vals[0], vals[1], vals[2], vals[3]
}

func TestBHPControlRoundTrip(t *testing.T) {
	s := NewSystem([]*Well{{
		Name: "P1", Control: BHP, Target: 150, Sign: -1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	b, w, o, g := wellVars([]float64{170}, []float64{-1}, []float64{-2}, []float64{0})
	eq, err := s.ControlEquations(b, w, o, g)
	require.NoError(t, err)
	assert.Equal(t, 20., eq.V[0], "bhp residual is exactly pBH - target")
	// derivative of the residual in bhp is exactly one
	assert.Equal(t, 1., eq.J[0].At(0, 0))

	b2, w2, o2, g2 := wellVars([]float64{150}, []float64{-1}, []float64{-2}, []float64{0})
	eq, err = s.ControlEquations(b2, w2, o2, g2)
	require.NoError(t, err)
	assert.Equal(t, 0., eq.V[0], "setting pBH to the target zeroes the residual")
}

func TestRateControls(t *testing.T) {
	s := NewSystem([]*Well{
		{Name: "I1", Control: Rate, Target: 10, Sign: 1, Cells: []int{0}, WI: []float64{1}, Dz: []float64{0}},
		{Name: "P1", Control: ORat, Target: -5, Sign: -1, Cells: []int{1}, WI: []float64{1}, Dz: []float64{0}},
	})
	b, w, o, g := wellVars([]float64{200, 100}, []float64{9, -1}, []float64{0, -4}, []float64{0, 0})
	eq, err := s.ControlEquations(b, w, o, g)
	require.NoError(t, err)
	assert.InDelta(t, 9.-10, eq.V[0], 1.e-12, "rate control sums phases")
	assert.InDelta(t, -4.+5, eq.V[1], 1.e-12, "orat pins the oil rate")
}

func TestLRatZeroFractionFallsBackToZeroRate(t *testing.T) {
	s := NewSystem([]*Well{{
		Name: "P1", Control: LRat, Target: -20, Sign: -1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	// water and oil fractions both zero: only gas flows
	b, w, o, g := wellVars([]float64{100}, []float64{0}, []float64{0}, []float64{-3})
	eq, err := s.ControlEquations(b, w, o, g)
	require.NoError(t, err)
	// fallback residual is qW+qO+qG - 0, not qW+qO-target
	assert.Equal(t, -3., eq.V[0])
	assert.Equal(t, 1., eq.J[3].At(0, 0), "gas rate enters the fallback residual")
}

func TestZeroTargetCrossflowShutoff(t *testing.T) {
	s := NewSystem([]*Well{{
		Name: "P1", Control: WRat, Target: 0, Sign: -1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	b, w, o, g := wellVars([]float64{100}, []float64{-2}, []float64{-3}, []float64{-1})
	eq, err := s.ControlEquations(b, w, o, g)
	require.NoError(t, err)
	assert.Equal(t, -6., eq.V[0], "zero-target rate control is forced onto zero total rate")
}

func TestUnsupportedControlErrors(t *testing.T) {
	s := NewSystem([]*Well{{
		Name: "X", Control: ControlType("resv"), Target: 1, Sign: 1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	b, w, o, g := wellVars([]float64{1}, []float64{1}, []float64{0}, []float64{0})
	_, err := s.ControlEquations(b, w, o, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "resv")
}

func TestUnsupportedControlErrorsBeforeShutoff(t *testing.T) {
	// an unknown control with a zero target must still error, not be
	// silently absorbed by the zero-rate override
	s := NewSystem([]*Well{{
		Name: "X", Control: ControlType("resv"), Target: 0, Sign: 1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	b, w, o, g := wellVars([]float64{1}, []float64{1}, []float64{0}, []float64{0})
	_, err := s.ControlEquations(b, w, o, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestVRatSumsAllPhases(t *testing.T) {
	s := NewSystem([]*Well{{
		Name: "P1", Control: VRat, Target: -9, Sign: -1,
		Cells: []int{0}, WI: []float64{1}, Dz: []float64{0},
	}})
	b, w, o, g := wellVars([]float64{100}, []float64{-2}, []float64{-3}, []float64{-4})
	eq, err := s.ControlEquations(b, w, o, g)
	require.NoError(t, err)
	assert.Equal(t, 0., eq.V[0])
}
