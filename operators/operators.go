// Package operators builds the discrete TPFA operator bundle for a
// topology: gradient and divergence incidence matrices, upstream-weighted
// face selection, face transmissibilities and pore volumes. The bundle is
// built once per grid and read only afterwards.
package operators

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/porousflow/gores/ad"
	"github.com/porousflow/gores/grid"
	"github.com/porousflow/gores/utils"
)

// Bundle owns the per-face transmissibility, per-cell pore volume and the
// sparse operator matrices derived from the face set.
type Bundle struct {
	G *grid.Topology

	// Trans is the harmonic-averaged face transmissibility.
	Trans []float64
	// PoreVolume per cell.
	PoreVolume []float64
	// Dz per face, N1 depth minus N2 depth.
	Dz []float64

	// GradM computes x[N1]-x[N2] per face; DivM is exactly -GradM'.
	GradM, DivM *sparse.CSR
}

// Options carries the externally supplied overrides.
type Options struct {
	// Trans overrides the harmonic face transmissibilities when non-nil.
	Trans []float64
	// TransMult scales cell half transmissibilities before averaging.
	TransMult []float64
	// PoreVolume overrides the volume*porosity computation when non-nil.
	PoreVolume []float64
}

func New(g *grid.Topology, opt Options) (op *Bundle, err error) {
	if err = g.Validate(); err != nil {
		return
	}
	var (
		nc = g.NumCells
		nf = g.NumFaces()
	)
	op = &Bundle{G: g}

	op.Trans = make([]float64, nf)
	if opt.Trans != nil {
		if len(opt.Trans) != nf {
			err = fmt.Errorf("operators: supplied %d transmissibilities for %d faces", len(opt.Trans), nf)
			return
		}
		copy(op.Trans, opt.Trans)
	} else {
		for i, f := range g.Faces {
			h1, h2 := f.HalfT1, f.HalfT2
			if opt.TransMult != nil {
				h1 *= opt.TransMult[f.N1]
				h2 *= opt.TransMult[f.N2]
			}
			op.Trans[i] = utils.HarmonicMean(h1, h2)
		}
	}

	op.PoreVolume = make([]float64, nc)
	if opt.PoreVolume != nil {
		if len(opt.PoreVolume) != nc {
			err = fmt.Errorf("operators: supplied %d pore volumes for %d cells", len(opt.PoreVolume), nc)
			return
		}
		copy(op.PoreVolume, opt.PoreVolume)
	} else {
		for c := 0; c < nc; c++ {
			op.PoreVolume[c] = g.Volumes[c] * g.Porosity[c]
		}
	}

	op.Dz = make([]float64, nf)
	gradD := utils.NewDOK(nf, nc)
	divD := utils.NewDOK(nc, nf)
	for i, f := range g.Faces {
		op.Dz[i] = f.Dz
		gradD.Set(i, f.N1, 1)
		gradD.Set(i, f.N2, -1)
		divD.Set(f.N1, i, -1)
		divD.Set(f.N2, i, 1)
	}
	op.GradM = gradD.ToCSR()
	op.DivM = divD.ToCSR()
	return
}

// Grad maps a cell value to the per-face difference x[N1]-x[N2].
func (op *Bundle) Grad(x ad.Value) ad.Value { return ad.MatMul(op.GradM, x) }

// Div maps a face value to cells as the negative transpose of Grad,
// guaranteeing discrete conservation: the cell sums of any face quantity
// cancel over a closed domain.
func (op *Bundle) Div(x ad.Value) ad.Value { return ad.MatMul(op.DivM, x) }

// UpstreamMatrix builds the 0/1 per-face selection matrix for the given
// flags (true selects N1, false selects N2). Kept as a matrix multiply so
// it composes linearly with the AD chain.
func (op *Bundle) UpstreamMatrix(flag []bool) *sparse.CSR {
	var (
		nf = op.G.NumFaces()
		nc = op.G.NumCells
	)
	if len(flag) != nf {
		err := fmt.Errorf("operators: %d upstream flags for %d faces", len(flag), nf)
		panic(err)
	}
	d := utils.NewDOK(nf, nc)
	for i, f := range op.G.Faces {
		if flag[i] {
			d.Set(i, f.N1, 1)
		} else {
			d.Set(i, f.N2, 1)
		}
	}
	return d.ToCSR()
}

// FaceUpstr selects the upstream cell value of x per face.
func (op *Bundle) FaceUpstr(flag []bool, x ad.Value) ad.Value {
	return ad.MatMul(op.UpstreamMatrix(flag), x)
}

// FaceAvg is the arithmetic two-point average, used for face densities in
// the buoyancy term.
func (op *Bundle) FaceAvg(x ad.Value) ad.Value {
	var (
		nf = op.G.NumFaces()
		nc = op.G.NumCells
	)
	d := utils.NewDOK(nf, nc)
	for i, f := range op.G.Faces {
		d.Set(i, f.N1, 0.5)
		d.Set(i, f.N2, 0.5)
	}
	return ad.MatMul(d.ToCSR(), x)
}

// CellScatter builds the numCells x len(cells) matrix that adds one value
// per listed cell into a cell-sized vector; cells may repeat.
func (op *Bundle) CellScatter(cells []int) *sparse.CSR {
	d := utils.NewDOK(op.G.NumCells, len(cells))
	for j, c := range cells {
		d.Accumulate(c, j, 1)
	}
	return d.ToCSR()
}

// CellGather builds the len(cells) x numCells selection matrix extracting
// the listed cells from a cell-sized vector.
func (op *Bundle) CellGather(cells []int) *sparse.CSR {
	d := utils.NewDOK(len(cells), op.G.NumCells)
	for i, c := range cells {
		d.Set(i, c, 1)
	}
	return d.ToCSR()
}
