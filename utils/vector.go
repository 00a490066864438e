package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		R = Vector{mat.NewVecDense(n, dataO[0])}
	} else {
		R = Vector{mat.NewVecDense(n, make([]float64, n))}
	}
	return
}

func NewVectorConst(n int, val float64) (R Vector) {
	R = NewVector(n)
	for i := range R.DataP() {
		R.DataP()[i] = val
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) DataP() []float64         { return v.V.RawVector().Data }

func (v Vector) Copy() (R Vector) {
	R = NewVector(v.Len())
	copy(R.DataP(), v.DataP())
	return
}

// Chainable (extended) methods, all mutating the receiver
func (v Vector) Set(val float64) Vector {
	var (
		data = v.DataP()
	)
	for i := range data {
		data[i] = val
	}
	return v
}

func (v Vector) Add(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] += dataA[i]
	}
	return v
}

func (v Vector) Subtract(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] -= dataA[i]
	}
	return v
}

func (v Vector) ElMul(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] *= dataA[i]
	}
	return v
}

func (v Vector) ElDiv(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] /= dataA[i]
	}
	return v
}

func (v Vector) Scale(a float64) Vector {
	floats.Scale(a, v.DataP())
	return v
}

func (v Vector) AddScalar(a float64) Vector {
	floats.AddConst(a, v.DataP())
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func (v Vector) Min() (min float64) {
	return floats.Min(v.DataP())
}

func (v Vector) Max() (max float64) {
	return floats.Max(v.DataP())
}

// NormInf returns the largest absolute entry, or an error when any entry is
// not finite so a NaN residual can not masquerade as convergence.
func (v Vector) NormInf() (n float64, err error) {
	for _, val := range v.DataP() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			err = fmt.Errorf("non-finite entry %v in vector norm", val)
			return
		}
		if a := math.Abs(val); a > n {
			n = a
		}
	}
	return
}

// Subset gathers v at the given indices into a new vector.
func (v Vector) Subset(I Index) (R Vector) {
	var (
		n    = v.Len()
		data = v.DataP()
	)
	R = NewVector(len(I))
	for i, ind := range I {
		if ind < 0 || ind > n-1 {
			fmt.Printf("index out of bounds: index = %d, max_bounds = %d\n", ind, n-1)
			panic("unable to subset from vector")
		}
		R.DataP()[i] = data[ind]
	}
	return
}
