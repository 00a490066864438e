// Package grid holds the immutable cell/face topology the simulator runs on.
// Construction of real corner-point geometry is out of scope; the package
// provides the connectivity contract plus simple Cartesian builders used by
// the driver and the tests.
package grid

import "fmt"

// Face is one interior connection between two cells. The (N1, N2) order is
// fixed for the lifetime of the topology: positive flux means flow N1 -> N2.
type Face struct {
	N1, N2 int
	// Dz is depth(N1) - depth(N2), used for the buoyancy term.
	Dz float64
	// Area over distance factor for the half transmissibility computation.
	HalfT1, HalfT2 float64
}

// Topology is read only after construction.
type Topology struct {
	NumCells int
	Faces    []Face
	// Volumes are bulk cell volumes.
	Volumes []float64
	// Porosity per cell, used when pore volumes are not supplied externally.
	Porosity []float64
	// Depth per cell center.
	Depth []float64
}

// Validate checks the face set references valid cells and has no
// degenerate self connections.
func (g *Topology) Validate() error {
	if g.NumCells <= 0 {
		return fmt.Errorf("grid: topology has %d cells", g.NumCells)
	}
	if len(g.Volumes) != g.NumCells || len(g.Porosity) != g.NumCells {
		return fmt.Errorf("grid: volumes/porosity length does not match %d cells", g.NumCells)
	}
	for i, f := range g.Faces {
		if f.N1 < 0 || f.N1 >= g.NumCells || f.N2 < 0 || f.N2 >= g.NumCells {
			return fmt.Errorf("grid: face %d references cell out of range [%d, %d]", i, f.N1, f.N2)
		}
		if f.N1 == f.N2 {
			return fmt.Errorf("grid: face %d connects cell %d to itself", i, f.N1)
		}
	}
	return nil
}

// NumFaces returns the interior face count.
func (g *Topology) NumFaces() int { return len(g.Faces) }
