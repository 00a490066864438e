package grid

// NewCartesian builds an nx x ny x nz box of cells with uniform spacing
// dx, dy, dz, homogeneous permeability perm and porosity poro. Cells are
// numbered x fastest. Only interior connections are generated; boundary
// faces belong to the boundary-condition path and never enter the face set.
func NewCartesian(nx, ny, nz int, dx, dy, dz, perm, poro float64) (g *Topology) {
	var (
		nc  = nx * ny * nz
		vol = dx * dy * dz
	)
	g = &Topology{
		NumCells: nc,
		Volumes:  make([]float64, nc),
		Porosity: make([]float64, nc),
		Depth:    make([]float64, nc),
	}
	cell := func(i, j, k int) int { return i + nx*(j+ny*k) }
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := cell(i, j, k)
				g.Volumes[c] = vol
				g.Porosity[c] = poro
				g.Depth[c] = (float64(k) + 0.5) * dz
			}
		}
	}
	// Half transmissibility is perm * area / half-distance per side.
	htx := perm * dy * dz / (dx / 2)
	hty := perm * dx * dz / (dy / 2)
	htz := perm * dx * dy / (dz / 2)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := cell(i, j, k)
				if i+1 < nx {
					g.Faces = append(g.Faces, Face{N1: c, N2: cell(i+1, j, k), HalfT1: htx, HalfT2: htx})
				}
				if j+1 < ny {
					g.Faces = append(g.Faces, Face{N1: c, N2: cell(i, j+1, k), HalfT1: hty, HalfT2: hty})
				}
				if k+1 < nz {
					g.Faces = append(g.Faces, Face{
						N1: c, N2: cell(i, j, k+1),
						Dz:     g.Depth[c] - (float64(k)+1.5)*dz,
						HalfT1: htz, HalfT2: htz,
					})
				}
			}
		}
	}
	return
}
