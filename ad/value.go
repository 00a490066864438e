package ad

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/porousflow/gores/utils"
)

// Value is a numeric vector plus its Jacobian, stored as one block per
// primary variable in declaration order. Operations return new Values;
// operands are never mutated.
type Value struct {
	V []float64
	J []Block
}

// VarSizes lists the declared primary variables' lengths in order. Every
// Value built against the same declaration carries len(sizes) blocks.
type VarSizes []int

// Vars seeds the primary variables: variable k gets a unit Diag block for
// itself and shaped Zero blocks for every other variable.
func Vars(xs ...[]float64) (vals []Value, sizes VarSizes) {
	sizes = make(VarSizes, len(xs))
	for k, x := range xs {
		sizes[k] = len(x)
	}
	vals = make([]Value, len(xs))
	for k, x := range xs {
		v := make([]float64, len(x))
		copy(v, x)
		jac := make([]Block, len(xs))
		for m, sz := range sizes {
			if m == k {
				ones := make([]float64, len(x))
				for i := range ones {
					ones[i] = 1
				}
				jac[m] = DiagBlock(ones)
			} else {
				jac[m] = ZeroBlock(len(x), sz)
			}
		}
		vals[k] = Value{V: v, J: jac}
	}
	return
}

// Constant wraps a plain vector with all-zero derivatives.
func Constant(v []float64, sizes VarSizes) (r Value) {
	r.V = make([]float64, len(v))
	copy(r.V, v)
	r.J = make([]Block, len(sizes))
	for m, sz := range sizes {
		r.J[m] = ZeroBlock(len(v), sz)
	}
	return
}

func (a Value) Len() int { return len(a.V) }

// SizesOf recovers the primary-variable declaration from a value's blocks.
func SizesOf(a Value) (sizes VarSizes) {
	sizes = make(VarSizes, len(a.J))
	for m, b := range a.J {
		sizes[m] = b.Cols
	}
	return
}

func (a Value) Copy() (r Value) {
	r.V = make([]float64, len(a.V))
	copy(r.V, a.V)
	r.J = make([]Block, len(a.J))
	for m, b := range a.J {
		r.J[m] = b.copy()
	}
	return
}

func (a Value) checkConformant(b Value, op string) {
	if len(a.V) != len(b.V) || len(a.J) != len(b.J) {
		err := fmt.Errorf("nonconformant values in %s: len %d/%d, blocks %d/%d",
			op, len(a.V), len(b.V), len(a.J), len(b.J))
		panic(err)
	}
}

func (a Value) Add(b Value) (r Value) {
	a.checkConformant(b, "add")
	r.V = make([]float64, len(a.V))
	for i := range r.V {
		r.V[i] = a.V[i] + b.V[i]
	}
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = addBlocks(a.J[m], b.J[m])
	}
	return
}

func (a Value) Sub(b Value) (r Value) {
	return a.Add(b.Scale(-1))
}

// Mul is the elementwise product with product-rule derivatives:
// d(ab) = diag(b) da + diag(a) db.
func (a Value) Mul(b Value) (r Value) {
	a.checkConformant(b, "mul")
	r.V = make([]float64, len(a.V))
	for i := range r.V {
		r.V[i] = a.V[i] * b.V[i]
	}
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = addBlocks(scaleRowsBlock(b.V, a.J[m]), scaleRowsBlock(a.V, b.J[m]))
	}
	return
}

// Div is the elementwise quotient with quotient-rule derivatives:
// d(a/b) = diag(1/b) da - diag(a/b^2) db.
func (a Value) Div(b Value) (r Value) {
	a.checkConformant(b, "div")
	var (
		n    = len(a.V)
		invB = make([]float64, n)
		q    = make([]float64, n)
	)
	r.V = make([]float64, n)
	for i := range r.V {
		invB[i] = 1 / b.V[i]
		r.V[i] = a.V[i] * invB[i]
		q[i] = -r.V[i] * invB[i]
	}
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = addBlocks(scaleRowsBlock(invB, a.J[m]), scaleRowsBlock(q, b.J[m]))
	}
	return
}

func (a Value) Scale(s float64) (r Value) {
	r.V = make([]float64, len(a.V))
	for i := range r.V {
		r.V[i] = s * a.V[i]
	}
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = scaleBlock(s, a.J[m])
	}
	return
}

// ScaleVec multiplies elementwise by a constant vector.
func (a Value) ScaleVec(c []float64) (r Value) {
	if len(c) != len(a.V) {
		err := fmt.Errorf("scale vector length %d does not match value length %d", len(c), len(a.V))
		panic(err)
	}
	r.V = make([]float64, len(a.V))
	for i := range r.V {
		r.V[i] = c[i] * a.V[i]
	}
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = scaleRowsBlock(c, a.J[m])
	}
	return
}

func (a Value) AddScalar(s float64) (r Value) {
	r = a.Copy()
	for i := range r.V {
		r.V[i] += s
	}
	return
}

// AddVec adds a constant vector, derivatives unchanged.
func (a Value) AddVec(c []float64) (r Value) {
	if len(c) != len(a.V) {
		err := fmt.Errorf("add vector length %d does not match value length %d", len(c), len(a.V))
		panic(err)
	}
	r = a.Copy()
	for i := range r.V {
		r.V[i] += c[i]
	}
	return
}

// Compose evaluates an elementwise function through the chain rule. val is
// f(args...) already evaluated pointwise, partials[k] is df/d(args[k])
// evaluated pointwise. The result Jacobian is sum_k diag(partials[k]) * J_k.
func Compose(val []float64, args []Value, partials [][]float64, sizes VarSizes) (r Value) {
	if len(args) != len(partials) {
		err := fmt.Errorf("compose: %d args but %d partials", len(args), len(partials))
		panic(err)
	}
	r = Constant(val, sizes)
	for k, arg := range args {
		if len(partials[k]) != len(val) || arg.Len() != len(val) {
			err := fmt.Errorf("compose: arg %d length mismatch", k)
			panic(err)
		}
		for m := range r.J {
			r.J[m] = addBlocks(r.J[m], scaleRowsBlock(partials[k], arg.J[m]))
		}
	}
	return
}

// MatMul applies a constant sparse operator to a Value: r = C*a, with every
// Jacobian block pre-multiplied by C. This is how divergence, gradient and
// upstream selection enter the derivative chain.
func MatMul(c *sparse.CSR, a Value) (r Value) {
	var (
		cr, cc = c.Dims()
	)
	if cc != len(a.V) {
		err := fmt.Errorf("operator (%d x %d) does not apply to value of length %d", cr, cc, len(a.V))
		panic(err)
	}
	r.V = utils.SparseMulVec(c, a.V)
	r.J = make([]Block, len(a.J))
	for m := range a.J {
		r.J[m] = matMulBlock(c, a.J[m])
	}
	return
}
