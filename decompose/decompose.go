// Package decompose replaces irregular polyhedra with tetrahedra that carry
// the polyhedron's index tag, using a pluggable tetrahedralization kernel.
package decompose

import (
	"fmt"
	"github.com/notargets/vismesh/kernel"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tetrahedralizer fills the hull of a local point set with tetrahedra.
// faces are the polyhedron's face loops in local numbering.
type Tetrahedralizer interface {
	Tetrahedralize(points []r3.Vec, faces [][]int) ([][4]int, error)
}

// Decomposer splits irregular polyhedra into tetrahedra
type Decomposer struct {
	Kernel Tetrahedralizer
}

// New returns a Decomposer using the package kernel's Delaunay3D
func New() *Decomposer {
	return &Decomposer{Kernel: kernel.Delaunay3D{}}
}

// Decompose returns the tetrahedra of one polyhedron of mesh, in global
// point numbering, each carrying poly.Tag. Degenerate input is reported as
// a warning, never as an error.
func (d *Decomposer) Decompose(poly vismesh.IrregularPolyhedron, mesh *vismesh.Mesh) ([]vismesh.Tetrahedron, vismesh.Warnings, error) {
	var (
		localToGlobal []int
		globalToLocal = make(map[int]int)
		localFaces    = make([][]int, len(poly.Faces))
	)
	for f, face := range poly.Faces {
		localFaces[f] = make([]int, len(face.Vertices))
		for i, g := range face.Vertices {
			if g < 0 || g >= len(mesh.Points) {
				return nil, nil, fmt.Errorf("%w: polyhedron face %d references point %d of %d",
					vismesh.ErrInternal, f, g, len(mesh.Points))
			}
			l, ok := globalToLocal[g]
			if !ok {
				l = len(localToGlobal)
				globalToLocal[g] = l
				localToGlobal = append(localToGlobal, g)
			}
			localFaces[f][i] = l
		}
	}
	points := make([]r3.Vec, len(localToGlobal))
	for l, g := range localToGlobal {
		points[l] = mesh.Points[g]
	}

	local, err := d.Kernel.Tetrahedralize(points, localFaces)
	if err != nil {
		return nil, nil, fmt.Errorf("tetrahedralize polyhedron with %d points: %w", len(points), err)
	}

	var warnings vismesh.Warnings
	if len(local) == 0 {
		if len(points) == 4 {
			warnings.Addf(vismesh.TrivialTetrahedron,
				"kernel produced no tetrahedra for a 4-point polyhedron %v, emitting it as one tetrahedron", localToGlobal)
			return []vismesh.Tetrahedron{{
				PointIndices: [4]int{localToGlobal[0], localToGlobal[1], localToGlobal[2], localToGlobal[3]},
				Tag:          poly.Tag,
			}}, warnings, nil
		}
		warnings.Addf(vismesh.NoTetrahedra,
			"kernel produced no tetrahedra for a %d-point polyhedron, dropping it", len(points))
		return nil, warnings, nil
	}

	tets := make([]vismesh.Tetrahedron, len(local))
	for i, lt := range local {
		for c, l := range lt {
			if l < 0 || l >= len(localToGlobal) {
				return nil, nil, fmt.Errorf("%w: kernel returned local point %d of %d",
					vismesh.ErrInternal, l, len(localToGlobal))
			}
			tets[i].PointIndices[c] = localToGlobal[l]
		}
		tets[i].Tag = poly.Tag
	}
	return tets, warnings, nil
}

// DecomposeMesh replaces every irregular polyhedron of mesh with its
// tetrahedra, appended to mesh.Tetrahedra in polyhedron order. On error the
// mesh is left unchanged.
func (d *Decomposer) DecomposeMesh(mesh *vismesh.Mesh) (vismesh.Warnings, error) {
	var (
		warnings vismesh.Warnings
		added    []vismesh.Tetrahedron
	)
	for i, poly := range mesh.IrregularPolyhedra {
		tets, ws, err := d.Decompose(poly, mesh)
		if err != nil {
			return nil, fmt.Errorf("irregular polyhedron %d: %w", i, err)
		}
		warnings = append(warnings, ws...)
		added = append(added, tets...)
	}
	utils.Diagf("decomposition: %d polyhedra -> %d tetrahedra, %d warnings",
		len(mesh.IrregularPolyhedra), len(added), len(warnings))
	mesh.Tetrahedra = append(mesh.Tetrahedra, added...)
	mesh.IrregularPolyhedra = nil
	return warnings, nil
}
