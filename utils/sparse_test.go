package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseKernels(t *testing.T) {
	// a = [1 2; 0 3], b = [0 1; 4 0]
	a := NewDOK(2, 2)
	a.Set(0, 0, 1).Set(0, 1, 2).Set(1, 1, 3)
	b := NewDOK(2, 2)
	b.Set(0, 1, 1).Set(1, 0, 4)
	A, B := a.ToCSR(), b.ToCSR()

	// a*b = [8 1; 12 0]
	P := SparseMul(A, B)
	assert.Equal(t, 8., P.At(0, 0))
	assert.Equal(t, 1., P.At(0, 1))
	assert.Equal(t, 12., P.At(1, 0))
	assert.Equal(t, 0., P.At(1, 1))

	S := SparseAdd(A, B)
	assert.Equal(t, 1., S.At(0, 0))
	assert.Equal(t, 3., S.At(0, 1))
	assert.Equal(t, 4., S.At(1, 0))
	assert.Equal(t, 3., S.At(1, 1))

	R := SparseScaleRows([]float64{2, 10}, A)
	assert.Equal(t, 2., R.At(0, 0))
	assert.Equal(t, 4., R.At(0, 1))
	assert.Equal(t, 30., R.At(1, 1))

	C := SparseScaleCols(A, []float64{2, 10})
	assert.Equal(t, 2., C.At(0, 0))
	assert.Equal(t, 20., C.At(0, 1))
	assert.Equal(t, 30., C.At(1, 1))

	v := SparseMulVec(A, []float64{1, 1})
	require.Equal(t, []float64{3, 3}, v)
}

func TestDOKReadOnly(t *testing.T) {
	m := NewDOK(2, 2)
	m.Set(0, 0, 1)
	m.SetReadOnly("guarded")
	assert.Panics(t, func() { m.Set(1, 1, 2) })
}
