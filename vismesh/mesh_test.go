package vismesh

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"testing"
)

func TestNewMesh_Dimension(t *testing.T) {
	_, err := NewMesh(1, r3.Vec{}, r3.Vec{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))

	m, err := NewMesh(3, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumCells())
}

func TestMesh_VolumeCellsOrder(t *testing.T) {
	m := &Mesh{Dimension: 3}
	m.Polygons = []Polygon{{PointIndices: []int{0, 1, 2, 3}, Tag: FiniteVolumeIndex{GlobalIndex: 30}}}
	m.Voxels = []Voxel{{Tag: FiniteVolumeIndex{GlobalIndex: 10}}, {Tag: FiniteVolumeIndex{GlobalIndex: 11}}}
	m.Tetrahedra = []Tetrahedron{{PointIndices: [4]int{0, 1, 2, 4}, Tag: FiniteVolumeIndex{GlobalIndex: 20}}}

	cells := m.VolumeCells()
	require.Len(t, cells, 4)
	var got []int
	for _, c := range cells {
		got = append(got, c.Tag.(FiniteVolumeIndex).GlobalIndex)
	}
	assert.Equal(t, []int{10, 11, 20, 30}, got)
	assert.Equal(t, QuadCell, cells[3].Type)
	assert.Equal(t, TetraCell, cells[2].Type)
	assert.Equal(t, 1, cells[1].Position)

	m2 := &Mesh{Dimension: 2}
	m2.Lines = []Line{{P1: 0, P2: 1}}
	m2.Polygons = []Polygon{{PointIndices: []int{0, 1, 2}}}
	cells = m2.VolumeCells()
	require.Len(t, cells, 2)
	assert.Equal(t, TriangleCell, cells[0].Type)
	assert.Equal(t, LineCell, cells[1].Type)
	assert.Equal(t, []int{0, 1}, cells[1].Points)

	elems := m2.ElementCells()
	require.Len(t, elems, 1)
	assert.Equal(t, "polygon", elems[0].Collection)
	assert.Len(t, m.ElementCells(), 4)
}

func TestMesh_Clone(t *testing.T) {
	m := &Mesh{
		Dimension: 3,
		Points:    []r3.Vec{{X: 1}, {Y: 1}},
		Polygons:  []Polygon{{PointIndices: []int{0, 1}}},
		IrregularPolyhedra: []IrregularPolyhedron{{
			Faces: []PolyhedronFace{{Vertices: []int{0, 1, 2}}},
			Tag:   ChomboVolumeIndex{Level: 1, Fraction: 0.5},
		}},
	}
	c := m.Clone()
	c.Points[0].X = 42
	c.Polygons[0].PointIndices[0] = 7
	c.IrregularPolyhedra[0].Faces[0].Vertices[0] = 9
	c.IrregularPolyhedra = nil

	assert.Equal(t, 1.0, m.Points[0].X)
	assert.Equal(t, 0, m.Polygons[0].PointIndices[0])
	assert.Equal(t, 0, m.IrregularPolyhedra[0].Faces[0].Vertices[0])
	assert.Len(t, m.IrregularPolyhedra, 1)
}

func TestCellTypeTable(t *testing.T) {
	for _, ct := range []CellType{VoxelCell, TetraCell, PolyhedronCell, QuadCell, TriangleCell, PolygonCell, LineCell} {
		back, err := CellTypeFromVTK(ct.Info().VTKType)
		require.NoError(t, err)
		assert.Equal(t, ct, back, ct.String())
	}
	_, err := CellTypeFromVTK(99)
	assert.Error(t, err)
	assert.Equal(t, PolygonCell, PolygonCellType(6))
}

// Each voxel face loop must wind outward from the unit cube
func TestVoxelFacesOutward(t *testing.T) {
	corners := [8]r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1},
	}
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	for f, face := range VoxelCell.Info().Faces {
		p0, p1, p2 := corners[face[0]], corners[face[1]], corners[face[2]]
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		out := r3.Sub(p0, center)
		assert.Greater(t, r3.Dot(n, out), 0.0, "face %d", f)
	}
}

func TestWarnings(t *testing.T) {
	var ws Warnings
	ws.Addf(ZeroCells, "domain %q", "ec")
	ws.Addf(NoTetrahedra, "%d points", 7)
	ws.Addf(ZeroCells, "again")
	assert.Equal(t, 2, ws.Count(ZeroCells))
	assert.Equal(t, `zero-cells: domain "ec"`, ws[0].String())
	assert.Contains(t, ws.String(), "no-tetrahedra: 7 points")
}
