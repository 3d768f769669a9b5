package meshio

import (
	"bytes"
	"fmt"
	"github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/gocfd/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
	"os"
	"path/filepath"
	"strings"
)

// Face tables in Gmsh node order, outward for a positively oriented element
var (
	hexFaces     = [][]int{{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}}
	prismFaces   = [][]int{{0, 2, 1}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}}
	pyramidFaces = [][]int{{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}
)

// Gmsh hexahedron node i sits at voxel corner hexToVoxel[i]
var hexToVoxel = [8]int{0, 1, 3, 2, 4, 5, 7, 6}

// ImportMesh reads an untagged mesh from a VTU file or from a Gmsh (.msh),
// SU2 (.su2) or Gambit neutral (.neu) file
func ImportMesh(path string) (*vismesh.Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtu":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		g, err := ReadVTU(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g.Mesh()
	case ".msh", ".su2", ".neu":
		msh, err := readers.ReadMeshFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return FromElementMesh(msh)
	default:
		return nil, fmt.Errorf("%w: mesh file extension %q", vismesh.ErrUnsupportedConfiguration, ext)
	}
}

// FromElementMesh converts a typed-element mesh. Axis-aligned hexahedra
// become voxels, other hexahedra, prisms and pyramids become irregular
// polyhedra. Higher order elements keep their corner nodes.
func FromElementMesh(msh *mesh.Mesh) (*vismesh.Mesh, error) {
	if len(msh.ElementTypes) != len(msh.EtoV) {
		return nil, fmt.Errorf("mesh has %d element types for %d elements", len(msh.ElementTypes), len(msh.EtoV))
	}
	points := make([]r3.Vec, len(msh.Vertices))
	for i, v := range msh.Vertices {
		var p [3]float64
		copy(p[:], v)
		points[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}

	g := &Grid{Points: points}
	for e, etype := range msh.ElementTypes {
		nodes := msh.EtoV[e]
		corners := func(n int) ([]int, error) {
			if len(nodes) < n {
				return nil, fmt.Errorf("element %d (%v) has %d nodes, want at least %d", e, etype, len(nodes), n)
			}
			return append([]int(nil), nodes[:n]...), nil
		}
		var (
			cell Cell
			err  error
		)
		switch etype {
		case utils.Line, utils.Line3:
			cell.Type = vismesh.LineCell
			cell.Points, err = corners(2)
		case utils.Triangle, utils.Triangle6, utils.Triangle9, utils.Triangle10:
			cell.Type = vismesh.TriangleCell
			cell.Points, err = corners(3)
		case utils.Quad, utils.Quad8, utils.Quad9:
			cell.Type = vismesh.QuadCell
			cell.Points, err = corners(4)
		case utils.Tet, utils.Tet10:
			cell.Type = vismesh.TetraCell
			cell.Points, err = corners(4)
		case utils.Hex, utils.Hex20, utils.Hex27:
			var hex []int
			if hex, err = corners(8); err == nil {
				cell = hexCell(points, hex)
			}
		case utils.Prism, utils.Prism15, utils.Prism18:
			var prism []int
			if prism, err = corners(6); err == nil {
				cell = polyhedronCell(prism, prismFaces)
			}
		case utils.Pyramid, utils.Pyramid13, utils.Pyramid14:
			var pyr []int
			if pyr, err = corners(5); err == nil {
				cell = polyhedronCell(pyr, pyramidFaces)
			}
		default:
			err = fmt.Errorf("%w: element %d has type %v", vismesh.ErrUnsupportedConfiguration, e, etype)
		}
		if err != nil {
			return nil, err
		}
		g.Cells = append(g.Cells, cell)
	}
	return g.Mesh()
}

func hexCell(points []r3.Vec, hex []int) Cell {
	voxel := make([]int, 8)
	for i, n := range hex {
		voxel[hexToVoxel[i]] = n
	}
	if isAxisAlignedVoxel(points, voxel) {
		return Cell{Type: vismesh.VoxelCell, Points: voxel}
	}
	return polyhedronCell(hex, hexFaces)
}

// isAxisAlignedVoxel reports whether corner c of the voxel sits at
// (x or X, y or Y, z or Z) chosen by the bits of c
func isAxisAlignedVoxel(points []r3.Vec, voxel []int) bool {
	lo, hi := points[voxel[0]], points[voxel[7]]
	if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
		return false
	}
	for c, id := range voxel {
		want := lo
		if c&1 != 0 {
			want.X = hi.X
		}
		if c&2 != 0 {
			want.Y = hi.Y
		}
		if c&4 != 0 {
			want.Z = hi.Z
		}
		if points[id] != want {
			return false
		}
	}
	return true
}

func polyhedronCell(nodes []int, table [][]int) Cell {
	faces := make([][]int, len(table))
	for f, local := range table {
		faces[f] = make([]int, len(local))
		for i, l := range local {
			faces[f][i] = nodes[l]
		}
	}
	return Cell{Type: vismesh.PolyhedronCell, Points: distinctPoints(faces), Faces: faces}
}

// AttachCellData reads the VTU file meshFile, attaches one cell data array
// and writes the result to newFile in the given format
func AttachCellData(meshFile, name string, data []float64, newFile string, format Format) error {
	f, err := os.Open(meshFile)
	if err != nil {
		return err
	}
	g, err := ReadVTU(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", meshFile, err)
	}
	if err := g.AddCellData(name, data); err != nil {
		return fmt.Errorf("%s: %w", meshFile, err)
	}
	var buf bytes.Buffer
	if err := WriteVTU(&buf, g, format); err != nil {
		return err
	}
	return os.WriteFile(newFile, buf.Bytes(), 0o644)
}
