// Package meshio reads and writes the geometry side of a conversion: VTK XML
// unstructured grid files, plus import of typed-cell meshes from Gmsh, SU2
// and Gambit files.
package meshio

import (
	"fmt"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cell is one cell of an unstructured grid. Polyhedra carry their face
// loops in Faces and their distinct points in Points.
type Cell struct {
	Type   vismesh.CellType
	Points []int
	Faces  [][]int
}

// DataArray is a named per-cell scalar field
type DataArray struct {
	Name   string
	Values []float64
}

// Grid is the file-level view of a mesh: points, cells and cell data
type Grid struct {
	Points   []r3.Vec
	Cells    []Cell
	CellData []DataArray
}

// VolumeGrid returns the grid of the cells that reference m.Points, in
// vismesh.Mesh.VolumeCells order
func VolumeGrid(m *vismesh.Mesh) *Grid {
	return newGrid(m.Points, m.VolumeCells())
}

// ElementGrid returns the grid of the volume elements over m.Points, in
// vismesh.Mesh.ElementCells order
func ElementGrid(m *vismesh.Mesh) *Grid {
	return newGrid(m.Points, m.ElementCells())
}

// MembraneGrid returns the grid of the cells that reference m.SurfacePoints,
// in vismesh.Mesh.MembraneCells order
func MembraneGrid(m *vismesh.Mesh) *Grid {
	return newGrid(m.SurfacePoints, m.MembraneCells())
}

func newGrid(points []r3.Vec, refs []vismesh.CellRef) *Grid {
	g := &Grid{Points: points, Cells: make([]Cell, len(refs))}
	for i, ref := range refs {
		g.Cells[i] = Cell{Type: ref.Type, Points: ref.Points, Faces: ref.Faces}
		if ref.Type == vismesh.PolyhedronCell {
			g.Cells[i].Points = distinctPoints(ref.Faces)
		}
	}
	return g
}

// AddCellData attaches a cell data array; values must hold one entry per cell
func (g *Grid) AddCellData(name string, values []float64) error {
	if len(values) != len(g.Cells) {
		return fmt.Errorf("cell data %q has %d values for %d cells", name, len(values), len(g.Cells))
	}
	for _, da := range g.CellData {
		if da.Name == name {
			return fmt.Errorf("cell data %q already present", name)
		}
	}
	g.CellData = append(g.CellData, DataArray{Name: name, Values: values})
	return nil
}

// Validate checks point references and cell vertex counts
func (g *Grid) Validate() error {
	for c, cell := range g.Cells {
		if n := cell.Type.Info().NumVerts; n > 0 && len(cell.Points) != n {
			return fmt.Errorf("cell %d: %s with %d points", c, cell.Type, len(cell.Points))
		}
		if cell.Type == vismesh.PolyhedronCell && len(cell.Faces) < 4 {
			return fmt.Errorf("cell %d: polyhedron with %d faces", c, len(cell.Faces))
		}
		for _, p := range cell.Points {
			if p < 0 || p >= len(g.Points) {
				return fmt.Errorf("cell %d references point %d of %d", c, p, len(g.Points))
			}
		}
		for _, face := range cell.Faces {
			for _, p := range face {
				if p < 0 || p >= len(g.Points) {
					return fmt.Errorf("cell %d face references point %d of %d", c, p, len(g.Points))
				}
			}
		}
	}
	for _, da := range g.CellData {
		if len(da.Values) != len(g.Cells) {
			return fmt.Errorf("cell data %q has %d values for %d cells", da.Name, len(da.Values), len(g.Cells))
		}
	}
	return nil
}

// Mesh converts the grid to an untagged vismesh.Mesh. The dimension is 3
// when any cell is a volume cell, otherwise 2.
func (g *Grid) Mesh() (*vismesh.Mesh, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dim := 2
	for _, cell := range g.Cells {
		switch cell.Type {
		case vismesh.VoxelCell, vismesh.TetraCell, vismesh.PolyhedronCell:
			dim = 3
		}
	}
	m, err := vismesh.NewMesh(dim, r3.Vec{}, r3.Vec{})
	if err != nil {
		return nil, err
	}
	m.Points = append([]r3.Vec(nil), g.Points...)
	box := m.Bounds()
	m.Origin, m.Extent = box.Min, r3.Sub(box.Max, box.Min)
	for _, cell := range g.Cells {
		switch cell.Type {
		case vismesh.VoxelCell:
			var v vismesh.Voxel
			copy(v.PointIndices[:], cell.Points)
			m.Voxels = append(m.Voxels, v)
		case vismesh.TetraCell:
			var t vismesh.Tetrahedron
			copy(t.PointIndices[:], cell.Points)
			m.Tetrahedra = append(m.Tetrahedra, t)
		case vismesh.PolyhedronCell:
			ph := vismesh.IrregularPolyhedron{Faces: make([]vismesh.PolyhedronFace, len(cell.Faces))}
			for f, face := range cell.Faces {
				ph.Faces[f].Vertices = append([]int(nil), face...)
			}
			m.IrregularPolyhedra = append(m.IrregularPolyhedra, ph)
		case vismesh.QuadCell, vismesh.TriangleCell, vismesh.PolygonCell:
			m.Polygons = append(m.Polygons, vismesh.Polygon{PointIndices: append([]int(nil), cell.Points...)})
		case vismesh.LineCell:
			m.Lines = append(m.Lines, vismesh.Line{P1: cell.Points[0], P2: cell.Points[1]})
		}
	}
	return m, nil
}

func distinctPoints(faces [][]int) []int {
	seen := make(map[int]bool)
	var pts []int
	for _, face := range faces {
		for _, p := range face {
			if !seen[p] {
				seen[p] = true
				pts = append(pts, p)
			}
		}
	}
	return pts
}
