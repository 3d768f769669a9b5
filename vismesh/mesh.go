// Package vismesh holds the unstructured visualization mesh produced from a
// structured finite volume mesh: deduplicated points, typed cell
// collections and the index tags that tie each cell back to a solver's
// addressing scheme.
package vismesh

import (
	"fmt"
	"gonum.org/v1/gonum/spatial/r3"
	"strings"
)

// Polygon is a planar cell: a volume element of a 2D mesh or a membrane
// quad of a 3D mesh
type Polygon struct {
	PointIndices []int
	Tag          IndexTag
}

// Voxel is an axis-aligned hexahedron with corners in VTK voxel order
type Voxel struct {
	PointIndices [8]int
	Tag          IndexTag
}

// Tetrahedron is a 4-point volume cell
type Tetrahedron struct {
	PointIndices [4]int
	Tag          IndexTag
}

// PolyhedronFace is one ordered loop of global point indices
type PolyhedronFace struct {
	Vertices []int
}

// IrregularPolyhedron is a volume cell bounded by arbitrary faces
type IrregularPolyhedron struct {
	Faces []PolyhedronFace
	Tag   IndexTag
}

// SurfaceTriangle is a membrane element of a 3D embedded boundary surface.
// Point indices refer to Mesh.SurfacePoints.
type SurfaceTriangle struct {
	PointIndices [3]int
	Face         string
	Tag          IndexTag
}

// Line is a membrane element of a 2D mesh
type Line struct {
	P1, P2 int
	Tag    IndexTag
}

// Mesh is the unstructured mesh for one domain. Cell collections are sparse:
// only those that apply to the domain are populated, and a 2D mesh may hold
// polygons and lines at the same time.
type Mesh struct {
	Dimension int
	Origin    r3.Vec
	Extent    r3.Vec

	Points []r3.Vec

	Polygons           []Polygon
	Voxels             []Voxel
	Tetrahedra         []Tetrahedron
	IrregularPolyhedra []IrregularPolyhedron
	SurfaceTriangles   []SurfaceTriangle
	Lines              []Line

	SurfacePoints []r3.Vec
}

// NewMesh creates an empty mesh of the given dimension
func NewMesh(dimension int, origin, extent r3.Vec) (*Mesh, error) {
	if dimension != 2 && dimension != 3 {
		return nil, fmt.Errorf("%w: mesh dimension %d", ErrUnsupportedConfiguration, dimension)
	}
	return &Mesh{
		Dimension: dimension,
		Origin:    origin,
		Extent:    extent,
	}, nil
}

// NumCells returns the number of cells over all collections
func (m *Mesh) NumCells() int {
	return len(m.Polygons) + len(m.Voxels) + len(m.Tetrahedra) +
		len(m.IrregularPolyhedra) + len(m.SurfaceTriangles) + len(m.Lines)
}

// Bounds returns the axis-aligned box of the volume points
func (m *Mesh) Bounds() r3.Box {
	if len(m.Points) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Points[0], Max: m.Points[0]}
	for _, p := range m.Points[1:] {
		b.Min = r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
		b.Max = r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	}
	return b
}

// Clone returns a deep copy. Tags are values and are shared safely.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Dimension:        m.Dimension,
		Origin:           m.Origin,
		Extent:           m.Extent,
		Points:           cloneSlice(m.Points),
		Voxels:           cloneSlice(m.Voxels),
		Tetrahedra:       cloneSlice(m.Tetrahedra),
		SurfaceTriangles: cloneSlice(m.SurfaceTriangles),
		Lines:            cloneSlice(m.Lines),
		SurfacePoints:    cloneSlice(m.SurfacePoints),
	}
	if m.Polygons != nil {
		c.Polygons = make([]Polygon, len(m.Polygons))
		for i, p := range m.Polygons {
			c.Polygons[i] = Polygon{PointIndices: cloneSlice(p.PointIndices), Tag: p.Tag}
		}
	}
	if m.IrregularPolyhedra != nil {
		c.IrregularPolyhedra = make([]IrregularPolyhedron, len(m.IrregularPolyhedra))
		for i, ph := range m.IrregularPolyhedra {
			faces := make([]PolyhedronFace, len(ph.Faces))
			for j, f := range ph.Faces {
				faces[j] = PolyhedronFace{Vertices: cloneSlice(f.Vertices)}
			}
			c.IrregularPolyhedra[i] = IrregularPolyhedron{Faces: faces, Tag: ph.Tag}
		}
	}
	return c
}

// String returns a short summary of the populated collections
func (m *Mesh) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dD mesh: %d points", m.Dimension, len(m.Points))
	counts := []struct {
		name string
		n    int
	}{
		{"polygons", len(m.Polygons)},
		{"voxels", len(m.Voxels)},
		{"tetrahedra", len(m.Tetrahedra)},
		{"irregular polyhedra", len(m.IrregularPolyhedra)},
		{"surface triangles", len(m.SurfaceTriangles)},
		{"lines", len(m.Lines)},
		{"surface points", len(m.SurfacePoints)},
	}
	for _, c := range counts {
		if c.n > 0 {
			fmt.Fprintf(&sb, ", %d %s", c.n, c.name)
		}
	}
	return sb.String()
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
