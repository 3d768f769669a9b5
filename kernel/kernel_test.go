package kernel

import (
	"errors"
	"github.com/notargets/vismesh/vismesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"math"
	"testing"
)

func totalVolume(t *testing.T, points []r3.Vec, tets [][4]int) (vol float64) {
	t.Helper()
	for _, tet := range tets {
		v := SignedVolume(points[tet[0]], points[tet[1]], points[tet[2]], points[tet[3]])
		if v <= 0 {
			t.Errorf("tet %v has non-positive volume %g", tet, v)
		}
		vol += v
	}
	return
}

func TestDelaunay3D(t *testing.T) {
	t.Run("tet with interior point", func(t *testing.T) {
		points := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.2, Y: 0.2, Z: 0.2}}
		tets, err := Delaunay3D{}.Tetrahedralize(points, nil)
		require.NoError(t, err)
		assert.Len(t, tets, 4)
		assert.InDelta(t, 1.0/6, totalVolume(t, points, tets), 1e-12)
	})
	t.Run("octahedron", func(t *testing.T) {
		points := []r3.Vec{
			{X: 1}, {X: -2}, {Y: 1.5}, {Y: -0.5}, {Z: 1.2}, {Z: -0.8},
		}
		tets, err := Delaunay3D{}.Tetrahedralize(points, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, tets)
		assert.InDelta(t, 2.0, totalVolume(t, points, tets), 1e-9)
		used := make(map[int]bool)
		for _, tet := range tets {
			for _, v := range tet {
				used[v] = true
			}
		}
		assert.Len(t, used, len(points))
	})
	t.Run("too few points", func(t *testing.T) {
		tets, err := Delaunay3D{}.Tetrahedralize([]r3.Vec{{}, {X: 1}, {Y: 1}}, nil)
		require.NoError(t, err)
		assert.Empty(t, tets)
	})
	t.Run("coplanar", func(t *testing.T) {
		points := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {X: 0.3, Y: 0.6}}
		tets, err := Delaunay3D{}.Tetrahedralize(points, nil)
		require.NoError(t, err)
		assert.Empty(t, tets)
	})
	t.Run("bad face index", func(t *testing.T) {
		_, err := Delaunay3D{}.Tetrahedralize([]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}, [][]int{{0, 1, 7}})
		assert.Error(t, err)
	})
}

func voxelMesh(t *testing.T, nx, ny, nz int) *vismesh.Mesh {
	t.Helper()
	m, err := vismesh.NewMesh(3, r3.Vec{}, r3.Vec{X: float64(nx), Y: float64(ny), Z: float64(nz)})
	require.NoError(t, err)
	reg := vismesh.NewPointRegistry(vismesh.DefaultPrecision)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				var v vismesh.Voxel
				for c := 0; c < 8; c++ {
					v.PointIndices[c] = reg.GetOrInsert(r3.Vec{
						X: float64(i + c&1), Y: float64(j + (c>>1)&1), Z: float64(k + (c>>2)&1),
					})
				}
				m.Voxels = append(m.Voxels, v)
			}
		}
	}
	m.Points = reg.Points()
	return m
}

func TestExtractBoundary(t *testing.T) {
	m := voxelMesh(t, 2, 2, 2)
	s, err := ExtractBoundary(m)
	require.NoError(t, err)
	assert.Len(t, s.Polys, 24)
	assert.Len(t, s.Points, 26)
	require.Len(t, s.OriginalIDs, len(s.Points))
	for i, id := range s.OriginalIDs {
		assert.Equal(t, m.Points[id], s.Points[i])
		assert.NotEqual(t, r3.Vec{X: 1, Y: 1, Z: 1}, s.Points[i], "interior point on boundary")
	}

	// Boundary quads face away from the block center
	center := r3.Vec{X: 1, Y: 1, Z: 1}
	for _, poly := range s.Polys {
		n := polygonNormal(s.Points, poly)
		assert.Greater(t, r3.Dot(n, r3.Sub(s.Points[poly[0]], center)), 0.0)
	}

	t.Run("2D mesh", func(t *testing.T) {
		m2, err := vismesh.NewMesh(2, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		_, err = ExtractBoundary(m2)
		assert.True(t, errors.Is(err, vismesh.ErrUnsupportedConfiguration))
	})
	t.Run("broken point id", func(t *testing.T) {
		bad := m.Clone()
		bad.Voxels[0].PointIndices[3] = 99
		_, err := ExtractBoundary(bad)
		assert.True(t, errors.Is(err, vismesh.ErrInternal))
	})
	t.Run("non-manifold face", func(t *testing.T) {
		_, err := ExtractBoundary(finTets(t))
		assert.True(t, errors.Is(err, vismesh.ErrInternal))
		assert.ErrorContains(t, err, "shared by 3 cells")
	})
}

// finTets returns three tetrahedra hinged on the triangle (0, 1, 2)
func finTets(t *testing.T) *vismesh.Mesh {
	t.Helper()
	m, err := vismesh.NewMesh(3, r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 3, Y: 3, Z: 3})
	require.NoError(t, err)
	m.Points = []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {Z: -1}, {X: 1, Y: 1, Z: 1}}
	m.Tetrahedra = []vismesh.Tetrahedron{
		{PointIndices: [4]int{0, 1, 2, 3}},
		{PointIndices: [4]int{0, 2, 1, 4}},
		{PointIndices: [4]int{0, 1, 2, 5}},
	}
	return m
}

func TestSincCoefficients(t *testing.T) {
	p := DefaultSmoothParams()
	c := sincCoefficients(p.Iterations, p.PassBand)
	require.Len(t, c, p.Iterations+1)
	thetaPB := math.Acos(1 - 0.5*p.PassBand)
	f := 0.0
	for i, ci := range c {
		f += ci * math.Cos(float64(i)*thetaPB)
	}
	assert.InDelta(t, 1.0, f, 1e-3)
}

func TestWindowedSinc_FixedBoundary(t *testing.T) {
	// 3x3 grid of points, center raised
	s := &Surface{}
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			s.Points = append(s.Points, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	s.Points[4].Z = 1
	s.Polys = [][]int{{0, 1, 4, 3}, {1, 2, 5, 4}, {3, 4, 7, 6}, {4, 5, 8, 7}}

	out, err := WindowedSinc(s, DefaultSmoothParams())
	require.NoError(t, err)
	require.Len(t, out, 9)
	for i, p := range out {
		if i == 4 {
			continue
		}
		assert.Equal(t, s.Points[i], p, "boundary point %d moved", i)
	}
	assert.Less(t, math.Abs(out[4].Z), 0.5)
	assert.Equal(t, 1.0, s.Points[4].Z, "input modified")
}

func TestWindowedSinc_ClosedSurface(t *testing.T) {
	s, err := ExtractBoundary(voxelMesh(t, 1, 1, 1))
	require.NoError(t, err)
	out, err := WindowedSinc(s, DefaultSmoothParams())
	require.NoError(t, err)

	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	var centroid r3.Vec
	for i, p := range out {
		centroid = r3.Add(centroid, p)
		assert.Less(t, r3.Norm(r3.Sub(p, center)), r3.Norm(r3.Sub(s.Points[i], center)))
	}
	centroid = r3.Scale(1/float64(len(out)), centroid)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(centroid, center)), 1e-9)
}

func TestSmoothParams_Validate(t *testing.T) {
	require.NoError(t, DefaultSmoothParams().Validate())
	p := DefaultSmoothParams()
	p.Iterations = 0
	assert.Error(t, p.Validate())
	p = DefaultSmoothParams()
	p.PassBand = 2
	assert.Error(t, p.Validate())
	_, err := WindowedSinc(&Surface{Points: []r3.Vec{{}}, Polys: [][]int{{0, 1, 2}}}, DefaultSmoothParams())
	assert.Error(t, err)
}
