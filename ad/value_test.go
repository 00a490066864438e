package ad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porousflow/gores/utils"
)

func TestVarSeeding(t *testing.T) {
	vals, sizes := Vars([]float64{1, 2, 3}, []float64{4, 5})
	require.Equal(t, VarSizes{3, 2}, sizes)
	p, q := vals[0], vals[1]
	assert.Equal(t, Diag, p.J[0].Kind)
	assert.Equal(t, Zero, p.J[1].Kind)
	assert.Equal(t, 1., p.J[0].At(2, 2))
	assert.Equal(t, 0., p.J[1].At(0, 1))
	assert.Equal(t, 1., q.J[1].At(1, 1))
}

func TestProductRule(t *testing.T) {
	vals, _ := Vars([]float64{2, 3}, []float64{5, 7})
	a, b := vals[0], vals[1]
	c := a.Mul(b)
	require.Equal(t, []float64{10, 21}, c.V)
	// d(ab)/da = diag(b), d(ab)/db = diag(a)
	assert.Equal(t, 5., c.J[0].At(0, 0))
	assert.Equal(t, 7., c.J[0].At(1, 1))
	assert.Equal(t, 2., c.J[1].At(0, 0))
	assert.Equal(t, 3., c.J[1].At(1, 1))
	assert.Equal(t, 0., c.J[0].At(0, 1))
}

func TestQuotientRuleAgainstFiniteDifference(t *testing.T) {
	var (
		av = []float64{2, 3}
		bv = []float64{5, 7}
		h  = 1.e-7
	)
	vals, _ := Vars(av, bv)
	c := vals[0].Div(vals[1])
	for i := 0; i < 2; i++ {
		fd := ((av[i] + h) / bv[i]) / h
		fd -= (av[i] / bv[i]) / h
		assert.InDelta(t, fd, c.J[0].At(i, i), 1.e-5)
		fd = (av[i]/(bv[i]+h) - av[i]/bv[i]) / h
		assert.InDelta(t, fd, c.J[1].At(i, i), 1.e-5)
	}
}

func TestComposeChainRule(t *testing.T) {
	vals, sizes := Vars([]float64{1, 4})
	p := vals[0]
	// f(p) = exp(0.1 p)
	var (
		f  = make([]float64, 2)
		df = make([]float64, 2)
	)
	for i, v := range p.V {
		f[i] = math.Exp(0.1 * v)
		df[i] = 0.1 * f[i]
	}
	b := Compose(f, []Value{p}, [][]float64{df}, sizes)
	assert.InDelta(t, math.Exp(0.1), b.V[0], 1.e-14)
	assert.InDelta(t, 0.1*math.Exp(0.4), b.J[0].At(1, 1), 1.e-14)

	// chained product keeps propagating
	c := b.Mul(p)
	// d(p f(p))/dp = f + p f' = f(1 + 0.1 p)
	assert.InDelta(t, f[1]*(1+0.1*4), c.J[0].At(1, 1), 1.e-12)
}

func TestMatMulRepresentationEquivalence(t *testing.T) {
	// C is a 2x3 incidence-like operator
	d := utils.NewDOK(2, 3)
	d.Set(0, 0, 1).Set(0, 1, -1).Set(1, 1, 1).Set(1, 2, -1)
	C := d.ToCSR()

	vals, sizes := Vars([]float64{3, 5, 9})
	x := vals[0]
	require.Equal(t, Diag, x.J[0].Kind)

	// Diag path
	rDiag := MatMul(C, x)
	// Sparse path: force the same block through CSR representation
	xs := x.Copy()
	xs.J[0] = SparseBlock(x.J[0].ToCSR())
	rSparse := MatMul(C, xs)
	// Zero path
	xz := Constant(x.V, sizes)
	rZero := MatMul(C, xz)

	require.Equal(t, []float64{-2, -4}, rDiag.V)
	require.Equal(t, rDiag.V, rSparse.V)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, rSparse.J[0].At(i, j), rDiag.J[0].At(i, j),
				"diag and sparse compositions must agree entrywise")
			assert.Equal(t, 0., rZero.J[0].At(i, j))
		}
	}
	assert.Equal(t, Zero, rZero.J[0].Kind)
	assert.Equal(t, 2, rZero.J[0].Rows)
	assert.Equal(t, 3, rZero.J[0].Cols)
}

func TestValueSemantics(t *testing.T) {
	vals, _ := Vars([]float64{1, 2})
	a := vals[0]
	_ = a.Scale(3).AddScalar(1)
	assert.Equal(t, []float64{1, 2}, a.V, "operands are never mutated")
}
