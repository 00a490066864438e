package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) DOK {
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m DOK) Accumulate(i, j int, val float64) DOK {
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() *sparse.CSR {
	return m.M.ToCSR()
}

// SparseMul computes a*b for two CSR matrices by row-wise accumulation.
// The b rows are gathered once so the product costs O(nnz(a) * rowNnz(b)).
func SparseMul(a, b *sparse.CSR) (r *sparse.CSR) {
	var (
		ar, ac = a.Dims()
		br, bc = b.Dims()
	)
	if ac != br {
		err := fmt.Errorf("dimension mismatch in sparse multiply: (%d x %d) * (%d x %d)", ar, ac, br, bc)
		panic(err)
	}
	type entry struct {
		col int
		val float64
	}
	bRows := make([][]entry, br)
	b.DoNonZero(func(i, j int, v float64) {
		bRows[i] = append(bRows[i], entry{j, v})
	})
	acc := NewDOK(ar, bc)
	a.DoNonZero(func(i, k int, v float64) {
		for _, e := range bRows[k] {
			acc.Accumulate(i, e.col, v*e.val)
		}
	})
	r = acc.ToCSR()
	return
}

// SparseAdd computes a+b for two CSR matrices of identical shape.
func SparseAdd(a, b *sparse.CSR) (r *sparse.CSR) {
	var (
		ar, ac = a.Dims()
		br, bc = b.Dims()
	)
	if ar != br || ac != bc {
		err := fmt.Errorf("dimension mismatch in sparse add: (%d x %d) + (%d x %d)", ar, ac, br, bc)
		panic(err)
	}
	acc := NewDOK(ar, ac)
	a.DoNonZero(func(i, j int, v float64) {
		acc.Accumulate(i, j, v)
	})
	b.DoNonZero(func(i, j int, v float64) {
		acc.Accumulate(i, j, v)
	})
	r = acc.ToCSR()
	return
}

// SparseScaleRows computes diag(d)*a, scaling row i of a by d[i].
func SparseScaleRows(d []float64, a *sparse.CSR) (r *sparse.CSR) {
	var (
		nr, nc = a.Dims()
	)
	if len(d) != nr {
		err := fmt.Errorf("row scale length %d does not match row count %d", len(d), nr)
		panic(err)
	}
	acc := NewDOK(nr, nc)
	a.DoNonZero(func(i, j int, v float64) {
		acc.Set(i, j, v*d[i])
	})
	r = acc.ToCSR()
	return
}

// SparseScaleCols computes a*diag(d), scaling column j of a by d[j].
func SparseScaleCols(a *sparse.CSR, d []float64) (r *sparse.CSR) {
	var (
		nr, nc = a.Dims()
	)
	if len(d) != nc {
		err := fmt.Errorf("column scale length %d does not match column count %d", len(d), nc)
		panic(err)
	}
	acc := NewDOK(nr, nc)
	a.DoNonZero(func(i, j int, v float64) {
		acc.Set(i, j, v*d[j])
	})
	r = acc.ToCSR()
	return
}

// SparseScale computes s*a.
func SparseScale(s float64, a *sparse.CSR) (r *sparse.CSR) {
	var (
		nr, nc = a.Dims()
	)
	acc := NewDOK(nr, nc)
	a.DoNonZero(func(i, j int, v float64) {
		acc.Set(i, j, v*s)
	})
	r = acc.ToCSR()
	return
}

// SparseMulVec computes a*x for a CSR matrix and a dense vector.
func SparseMulVec(a *sparse.CSR, x []float64) (r []float64) {
	var (
		nr, nc = a.Dims()
	)
	if len(x) != nc {
		err := fmt.Errorf("vector length %d does not match column count %d", len(x), nc)
		panic(err)
	}
	r = make([]float64, nr)
	a.DoNonZero(func(i, j int, v float64) {
		r[i] += v * x[j]
	})
	return
}

// SparseFillDense adds a into the dense block of dst anchored at (r0, c0).
func SparseFillDense(dst *mat.Dense, r0, c0 int, a *sparse.CSR) {
	a.DoNonZero(func(i, j int, v float64) {
		dst.Set(r0+i, c0+j, dst.At(r0+i, c0+j)+v)
	})
}
