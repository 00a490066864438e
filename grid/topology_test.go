package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartesianConnectivity(t *testing.T) {
	g := NewCartesian(3, 2, 1, 10, 10, 2, 100, 0.3)
	require.NoError(t, g.Validate())
	require.Equal(t, 6, g.NumCells)
	// 2*2 x-faces + 3 y-faces
	assert.Equal(t, 7, g.NumFaces())
	for _, f := range g.Faces {
		assert.Less(t, f.N1, f.N2, "cartesian faces are oriented low to high cell index")
		assert.Greater(t, f.HalfT1, 0.)
	}
	assert.Equal(t, 10.*10*2, g.Volumes[0])
}

func TestCartesianDepth(t *testing.T) {
	g := NewCartesian(1, 1, 3, 1, 1, 2, 100, 0.3)
	require.NoError(t, g.Validate())
	assert.Equal(t, 1., g.Depth[0])
	assert.Equal(t, 3., g.Depth[1])
	// z-face Dz is shallower minus deeper
	assert.Equal(t, -2., g.Faces[0].Dz)
}

func TestValidateRejectsBadFace(t *testing.T) {
	g := NewCartesian(2, 1, 1, 1, 1, 1, 1, 0.2)
	g.Faces = append(g.Faces, Face{N1: 0, N2: 5})
	require.Error(t, g.Validate())
	g = NewCartesian(2, 1, 1, 1, 1, 1, 1, 0.2)
	g.Faces[0].N2 = g.Faces[0].N1
	require.Error(t, g.Validate())
}
