package indexdata

import (
	"bytes"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/notargets/vismesh/vismesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"strings"
	"testing"
)

func newMesh(t *testing.T, dim int) *vismesh.Mesh {
	t.Helper()
	m, err := vismesh.NewMesh(dim, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	return m
}

func TestFiniteVolume_Order(t *testing.T) {
	m := newMesh(t, 3)
	m.Voxels = []vismesh.Voxel{
		{Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 4, RegionIndex: 1}},
		{Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 5, RegionIndex: 1}},
	}
	m.Tetrahedra = []vismesh.Tetrahedron{{Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 9, RegionIndex: 2}}}
	m.Polygons = []vismesh.Polygon{{PointIndices: []int{0, 1, 2, 3}, Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 0, RegionIndex: 7}}}

	doc, ws, err := FiniteVolume(m, "cytosol")
	require.NoError(t, err)
	assert.Empty(t, ws)
	want := []vismesh.FiniteVolumeIndex{
		{GlobalIndex: 4, RegionIndex: 1},
		{GlobalIndex: 5, RegionIndex: 1},
		{GlobalIndex: 9, RegionIndex: 2},
		{GlobalIndex: 0, RegionIndex: 7},
	}
	if diff := cmp.Diff(want, doc.FiniteVolumeIndices); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	// one record per geometry cell, same order
	cells := m.VolumeCells()
	require.Len(t, cells, doc.NumRecords())
	for i, c := range cells {
		assert.Equal(t, c.Tag, doc.FiniteVolumeIndices[i])
	}
}

func TestFiniteVolume_MissingTag(t *testing.T) {
	m := newMesh(t, 3)
	m.Voxels = []vismesh.Voxel{
		{Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 0}},
		{Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 1}},
		{},
	}
	doc, _, err := FiniteVolume(m, "cytosol")
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vismesh.ErrInvariantViolation))
	assert.Contains(t, err.Error(), "voxel 2")

	m.Voxels[2].Tag = vismesh.ChomboVolumeIndex{}
	_, _, err = FiniteVolume(m, "cytosol")
	assert.ErrorContains(t, err, "carries a ChomboVolumeIndex")
}

func TestFiniteVolume_Polyhedra(t *testing.T) {
	m := newMesh(t, 3)
	m.IrregularPolyhedra = []vismesh.IrregularPolyhedron{{Tag: vismesh.FiniteVolumeIndex{}}}
	_, _, err := FiniteVolume(m, "cytosol")
	assert.True(t, errors.Is(err, vismesh.ErrInvariantViolation))
}

func TestFiniteVolume_2D(t *testing.T) {
	m := newMesh(t, 2)
	m.Lines = []vismesh.Line{{P1: 0, P2: 1, Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 3, RegionIndex: 0}}}
	m.Polygons = []vismesh.Polygon{{PointIndices: []int{0, 1, 2}, Tag: vismesh.FiniteVolumeIndex{GlobalIndex: 8, RegionIndex: 1}}}
	doc, _, err := FiniteVolume(m, "ec")
	require.NoError(t, err)
	want := []vismesh.FiniteVolumeIndex{{GlobalIndex: 8, RegionIndex: 1}, {GlobalIndex: 3, RegionIndex: 0}}
	assert.Equal(t, want, doc.FiniteVolumeIndices)
}

func TestFiniteVolume_Empty(t *testing.T) {
	doc, ws, err := FiniteVolume(newMesh(t, 3), "nucleus")
	require.NoError(t, err)
	assert.Equal(t, 1, ws.Count(vismesh.ZeroCells))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.JSONEq(t, `{"domainName":"nucleus","finiteVolumeIndices":[]}`, buf.String())
}

func TestChomboVolume(t *testing.T) {
	m := newMesh(t, 3)
	m.Tetrahedra = []vismesh.Tetrahedron{{Tag: vismesh.ChomboVolumeIndex{Level: 0, BoxNumber: 1, BoxIndex: 7, Fraction: 0.25}}}
	m.Voxels = []vismesh.Voxel{{Tag: vismesh.ChomboVolumeIndex{Level: 1, BoxNumber: 0, BoxIndex: 2, Fraction: 1}}}

	doc, _, err := ChomboVolume(m, "cytosol")
	require.NoError(t, err)
	want := []vismesh.ChomboVolumeIndex{
		{Level: 1, BoxNumber: 0, BoxIndex: 2, Fraction: 1},
		{Level: 0, BoxNumber: 1, BoxIndex: 7, Fraction: 0.25},
	}
	assert.Equal(t, want, doc.ChomboVolumeIndices)
	assert.Nil(t, doc.ChomboSurfaceIndices)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.JSONEq(t, `{
		"domainName": "cytosol",
		"chomboSurfaceIndices": null,
		"chomboVolumeIndices": [
			{"level": 1, "boxNumber": 0, "boxIndex": 2, "fraction": 1},
			{"level": 0, "boxNumber": 1, "boxIndex": 7, "fraction": 0.25}
		]}`, buf.String())

	var back ChomboIndexData
	require.NoError(t, Decode(&buf, &back))
	if diff := cmp.Diff(doc, &back); diff != "" {
		t.Errorf("decoded document (-want +got):\n%s", diff)
	}
}

func TestChomboVolume_Polyhedra(t *testing.T) {
	m := newMesh(t, 3)
	m.Voxels = []vismesh.Voxel{{Tag: vismesh.ChomboVolumeIndex{BoxIndex: 2, Fraction: 1}}}
	m.IrregularPolyhedra = []vismesh.IrregularPolyhedron{{
		Faces: []vismesh.PolyhedronFace{{Vertices: []int{0, 1, 2}}},
		Tag:   vismesh.ChomboVolumeIndex{BoxIndex: 3, Fraction: 0.5},
	}}
	doc, _, err := ChomboVolume(m, "cytosol")
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, vismesh.ErrInvariantViolation))
	assert.ErrorContains(t, err, "1 irregular polyhedra remain")
}

// Chombo lines live on SurfacePoints: the volume document skips them and
// the membrane document holds them
func TestChomboVolume_2D(t *testing.T) {
	m := newMesh(t, 2)
	m.Points = []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	m.SurfacePoints = []r3.Vec{{X: 0.5}, {X: 0.5, Y: 1}}
	m.Polygons = []vismesh.Polygon{{
		PointIndices: []int{0, 1, 2, 3},
		Tag:          vismesh.ChomboVolumeIndex{Level: 0, BoxNumber: 0, BoxIndex: 5, Fraction: 1},
	}}
	m.Lines = []vismesh.Line{{P1: 0, P2: 1, Tag: vismesh.ChomboSurfaceIndex{Index: 4}}}

	doc, ws, err := ChomboVolume(m, "cytosol")
	require.NoError(t, err)
	assert.Empty(t, ws)
	assert.Equal(t, []vismesh.ChomboVolumeIndex{{Level: 0, BoxNumber: 0, BoxIndex: 5, Fraction: 1}}, doc.ChomboVolumeIndices)
	assert.Equal(t, len(m.ElementCells()), doc.NumRecords())

	mem, _, err := ChomboMembrane(m, "cytosol_membrane")
	require.NoError(t, err)
	assert.Equal(t, []vismesh.ChomboSurfaceIndex{{Index: 4}}, mem.ChomboSurfaceIndices)
}

func TestChomboMembrane(t *testing.T) {
	m := newMesh(t, 3)
	m.SurfaceTriangles = []vismesh.SurfaceTriangle{
		{PointIndices: [3]int{0, 1, 2}, Tag: vismesh.ChomboSurfaceIndex{Index: 11}},
		{PointIndices: [3]int{1, 3, 2}, Tag: vismesh.ChomboSurfaceIndex{Index: 12}},
	}

	t.Run("membrane domain", func(t *testing.T) {
		doc, _, err := ChomboMembrane(m, "Cytosol_ec_Membrane")
		require.NoError(t, err)
		assert.Equal(t, []vismesh.ChomboSurfaceIndex{{Index: 11}, {Index: 12}}, doc.ChomboSurfaceIndices)
		assert.Nil(t, doc.ChomboVolumeIndices)
		assert.Len(t, m.MembraneCells(), doc.NumRecords())
	})
	t.Run("volume domain name", func(t *testing.T) {
		doc, _, err := ChomboMembrane(m, "Cytosol")
		assert.Nil(t, doc)
		assert.True(t, errors.Is(err, vismesh.ErrInvariantViolation))
	})
}

func TestMovingBoundary(t *testing.T) {
	m := newMesh(t, 2)
	m.Polygons = []vismesh.Polygon{
		{PointIndices: []int{0, 1, 2, 3}, Tag: vismesh.MovingBoundaryVolumeIndex{Index: 0}},
		{PointIndices: []int{1, 4, 5, 2}, Tag: vismesh.MovingBoundaryVolumeIndex{Index: 1}},
	}

	doc, _, err := MovingBoundary(m, "cell", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.TimeIndex)
	assert.Len(t, doc.MovingBoundaryVolumeIndices, 2)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.True(t, strings.Contains(buf.String(), `"movingBoundarySurfaceIndices":null`), buf.String())

	m.Lines = []vismesh.Line{{P1: 0, P2: 1}}
	_, _, err = MovingBoundary(m, "cell", 3)
	assert.True(t, errors.Is(err, vismesh.ErrInvariantViolation))

	_, _, err = MovingBoundary(newMesh(t, 3), "cell", 0)
	assert.True(t, errors.Is(err, vismesh.ErrUnsupportedConfiguration))
}

func TestIsMembraneDomain(t *testing.T) {
	assert.True(t, IsMembraneDomain("pm_membrane"))
	assert.True(t, IsMembraneDomain("PlasmaMEMBRANE"))
	assert.False(t, IsMembraneDomain("membrane_pm"))
	assert.False(t, IsMembraneDomain("Cytosol"))
}
