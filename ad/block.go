// Package ad is a forward-mode vector automatic-differentiation layer: a
// Value pairs a numeric array with one sparse partial-derivative block per
// declared primary variable. Arithmetic propagates derivatives by the
// product/quotient/chain rules, and constant sparse operators (divergence,
// gradient, upstream selection) compose against every block at once.
package ad

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/porousflow/gores/utils"
)

type BlockKind uint8

const (
	// Zero is an explicit all-zero derivative of known shape. It
	// short-circuits every operation it participates in.
	Zero BlockKind = iota
	// Diag is a square diagonal derivative, the representation produced
	// by variable seeding and preserved by elementwise arithmetic.
	Diag
	// Sparse is the general CSR representation, produced whenever a
	// non-diagonal operator enters the chain.
	Sparse
)

// Block is one partial-derivative block dV/dx_k of shape Rows x Cols.
type Block struct {
	Kind       BlockKind
	Rows, Cols int
	D          []float64   // Diag entries, len == Rows == Cols
	S          *sparse.CSR // Sparse storage
}

func ZeroBlock(rows, cols int) Block {
	return Block{Kind: Zero, Rows: rows, Cols: cols}
}

func DiagBlock(d []float64) Block {
	return Block{Kind: Diag, Rows: len(d), Cols: len(d), D: d}
}

func SparseBlock(s *sparse.CSR) Block {
	r, c := s.Dims()
	return Block{Kind: Sparse, Rows: r, Cols: c, S: s}
}

// ToCSR expands any representation into CSR form, used when the linear
// solver flattens the Jacobian.
func (b Block) ToCSR() *sparse.CSR {
	switch b.Kind {
	case Sparse:
		return b.S
	case Diag:
		acc := utils.NewDOK(b.Rows, b.Cols)
		for i, v := range b.D {
			if v != 0 {
				acc.Set(i, i, v)
			}
		}
		return acc.ToCSR()
	default:
		return utils.NewDOK(b.Rows, b.Cols).ToCSR()
	}
}

// At reads one derivative entry regardless of representation.
func (b Block) At(i, j int) float64 {
	switch b.Kind {
	case Sparse:
		return b.S.At(i, j)
	case Diag:
		if i == j {
			return b.D[i]
		}
		return 0
	default:
		return 0
	}
}

func (b Block) copy() Block {
	switch b.Kind {
	case Diag:
		d := make([]float64, len(b.D))
		copy(d, b.D)
		return DiagBlock(d)
	case Sparse:
		// CSR contents are never mutated in place, sharing is safe
		return b
	default:
		return b
	}
}

func (b Block) checkShape(rows, cols int, op string) {
	if b.Rows != rows || b.Cols != cols {
		err := fmt.Errorf("block shape (%d x %d) does not match (%d x %d) in %s", b.Rows, b.Cols, rows, cols, op)
		panic(err)
	}
}

// addBlocks returns a+b in the cheapest representation that holds the sum.
func addBlocks(a, b Block) Block {
	a.checkShape(b.Rows, b.Cols, "block add")
	switch {
	case a.Kind == Zero:
		return b.copy()
	case b.Kind == Zero:
		return a.copy()
	case a.Kind == Diag && b.Kind == Diag:
		d := make([]float64, len(a.D))
		for i := range d {
			d[i] = a.D[i] + b.D[i]
		}
		return DiagBlock(d)
	default:
		return SparseBlock(utils.SparseAdd(a.ToCSR(), b.ToCSR()))
	}
}

// scaleRowsBlock returns diag(d)*b, the chain-rule factor for elementwise
// products.
func scaleRowsBlock(d []float64, b Block) Block {
	if len(d) != b.Rows {
		err := fmt.Errorf("scale length %d does not match block rows %d", len(d), b.Rows)
		panic(err)
	}
	switch b.Kind {
	case Zero:
		return b
	case Diag:
		o := make([]float64, len(b.D))
		for i := range o {
			o[i] = d[i] * b.D[i]
		}
		return DiagBlock(o)
	default:
		return SparseBlock(utils.SparseScaleRows(d, b.S))
	}
}

func scaleBlock(s float64, b Block) Block {
	switch b.Kind {
	case Zero:
		return b
	case Diag:
		o := make([]float64, len(b.D))
		for i := range o {
			o[i] = s * b.D[i]
		}
		return DiagBlock(o)
	default:
		return SparseBlock(utils.SparseScale(s, b.S))
	}
}

// matMulBlock returns C*b for a constant matrix C. The three input
// representations land on the same mathematical result: Zero stays a
// shaped no-op, Diag becomes a column-scaled copy of C, and Sparse goes
// through the general sparse product.
func matMulBlock(c *sparse.CSR, b Block) Block {
	var (
		cr, cc = c.Dims()
	)
	if cc != b.Rows {
		err := fmt.Errorf("operator (%d x %d) does not compose with block (%d x %d)", cr, cc, b.Rows, b.Cols)
		panic(err)
	}
	switch b.Kind {
	case Zero:
		return ZeroBlock(cr, b.Cols)
	case Diag:
		return SparseBlock(utils.SparseScaleCols(c, b.D))
	default:
		return SparseBlock(utils.SparseMul(c, b.S))
	}
}
