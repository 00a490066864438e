package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBFactorsIncreaseWithPressure(t *testing.T) {
	m := NewAnalytic()
	p := []float64{100, 200, 300}
	b, db := m.BW(p)
	require.Len(t, b, 3)
	assert.Less(t, b[0], b[1])
	assert.Less(t, b[1], b[2])
	for i := range db {
		assert.Greater(t, db[i], 0.)
	}
	bo, dbo, dbrs := m.BO(p, []float64{0, 0, 0}, []bool{true, true, true})
	assert.Less(t, bo[0], bo[2])
	assert.Greater(t, dbo[1], 0.)
	assert.Equal(t, 0., dbrs[1])
}

func TestRsSatLinear(t *testing.T) {
	m := NewAnalytic()
	rs, drs := m.RsSat([]float64{100, 200})
	assert.Equal(t, m.RsSlope*100, rs[0])
	assert.Equal(t, m.RsSlope*200, rs[1])
	assert.Equal(t, m.RsSlope, drs[0])
}

func TestCoreyRelPermBounds(t *testing.T) {
	m := NewAnalytic()
	m.Swc = 0.1
	sw := []float64{0.05, 0.1, 0.55, 1.0, 1.2}
	so := make([]float64, 5)
	sg := make([]float64, 5)
	krw, dkrw, _, _, _, _ := m.RelPerm(sw, so, sg)
	assert.Equal(t, 0., krw[0], "below connate")
	assert.Equal(t, 0., krw[1])
	assert.InDelta(t, 0.25, krw[2], 1.e-12)
	assert.Equal(t, 1., krw[3])
	assert.Equal(t, 1., krw[4], "clamped above unit effective saturation")
	assert.Equal(t, 0., dkrw[4])
	assert.Greater(t, dkrw[2], 0.)
}

func TestPvMult(t *testing.T) {
	m := NewAnalytic()
	m.CR = 1.e-4
	mult, dm := m.PvMult([]float64{m.Pref, m.Pref + 100})
	assert.Equal(t, 1., mult[0])
	assert.InDelta(t, 1.01, mult[1], 1.e-12)
	assert.Equal(t, m.CR, dm[0])
}
