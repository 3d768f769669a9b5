package kernel

import (
	"fmt"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a polygonal boundary surface lifted out of a volume mesh.
// Polys index Points; OriginalIDs[i] is the mesh point that Points[i] came
// from.
type Surface struct {
	Points      []r3.Vec
	Polys       [][]int
	OriginalIDs []int
}

// ExtractBoundary returns the faces of the 3D cells of m that belong to
// exactly one cell, with each point traceable to its mesh point id. A face
// shared by more than two cells is an ErrInternal.
func ExtractBoundary(m *vismesh.Mesh) (*Surface, error) {
	if m.Dimension != 3 {
		return nil, fmt.Errorf("%w: boundary extraction of a %dD mesh", vismesh.ErrUnsupportedConfiguration, m.Dimension)
	}

	var cellFaces [][][]int
	addCell := func(faceTable [][]int, verts []int) {
		faces := make([][]int, len(faceTable))
		for f, local := range faceTable {
			faces[f] = make([]int, len(local))
			for i, lv := range local {
				faces[f][i] = verts[lv]
			}
		}
		cellFaces = append(cellFaces, faces)
	}
	for _, v := range m.Voxels {
		addCell(vismesh.VoxelCell.Info().Faces, v.PointIndices[:])
	}
	for _, t := range m.Tetrahedra {
		addCell(vismesh.TetraCell.Info().Faces, t.PointIndices[:])
	}
	for _, ph := range m.IrregularPolyhedra {
		faces := make([][]int, len(ph.Faces))
		for f, face := range ph.Faces {
			faces[f] = face.Vertices
		}
		cellFaces = append(cellFaces, faces)
	}

	for c, faces := range cellFaces {
		for f, verts := range faces {
			for _, v := range verts {
				if v < 0 || v >= len(m.Points) {
					return nil, fmt.Errorf("%w: cell %d face %d references point %d of %d",
						vismesh.ErrInternal, c, f, v, len(m.Points))
				}
			}
		}
	}

	fc, err := utils.NewFaceConnector(cellFaces)
	if err != nil {
		return nil, fmt.Errorf("boundary extraction: %w", err)
	}
	// a face of three or more cells would silently drop out of the surface
	if err := fc.Verify(); err != nil {
		return nil, fmt.Errorf("%w: boundary extraction: %v", vismesh.ErrInternal, err)
	}

	s := &Surface{}
	local := make(map[int]int)
	for _, face := range fc.BoundaryFaces() {
		poly := make([]int, len(face))
		for i, id := range face {
			l, ok := local[id]
			if !ok {
				l = len(s.Points)
				local[id] = l
				s.Points = append(s.Points, m.Points[id])
				s.OriginalIDs = append(s.OriginalIDs, id)
			}
			poly[i] = l
		}
		s.Polys = append(s.Polys, poly)
	}
	utils.Diagf("boundary surface: %d cells -> %d polygons, %d of %d points",
		fc.NumCells, len(s.Polys), len(s.Points), len(m.Points))
	return s, nil
}

// Native is the default surface kernel: ExtractBoundary plus WindowedSinc
type Native struct{}

// ExtractBoundary calls the package-level ExtractBoundary
func (Native) ExtractBoundary(m *vismesh.Mesh) (*Surface, error) {
	return ExtractBoundary(m)
}

// Smooth calls WindowedSinc
func (Native) Smooth(s *Surface, params SmoothParams) ([]r3.Vec, error) {
	return WindowedSinc(s, params)
}
