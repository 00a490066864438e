package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	v := NewVector(3, []float64{1, 2, 3})
	require.Equal(t, 3, v.Len())
	assert.Equal(t, 2., v.AtVec(1))

	w := v.Copy().Scale(2)
	assert.Equal(t, []float64{2, 4, 6}, w.DataP())
	// Copy must not alias
	assert.Equal(t, []float64{1, 2, 3}, v.DataP())

	w.Add(v)
	assert.Equal(t, []float64{3, 6, 9}, w.DataP())
	w.Subtract(v).ElDiv(v)
	assert.Equal(t, []float64{2, 2, 2}, w.DataP())

	u := NewVectorConst(3, 4).Apply(math.Sqrt)
	assert.Equal(t, []float64{2, 2, 2}, u.DataP())

	s := v.Subset(Index{2, 0})
	assert.Equal(t, []float64{3, 1}, s.DataP())

	n, err := NewVector(3, []float64{-5, 2, 3}).NormInf()
	require.NoError(t, err)
	assert.Equal(t, 5., n)

	_, err = NewVector(2, []float64{1, math.NaN()}).NormInf()
	require.Error(t, err)
}
