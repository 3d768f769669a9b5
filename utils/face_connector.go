package utils

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FaceConnector matches the faces of a set of cells by their vertex sets.
// A face seen once is a boundary face; a face seen twice connects two cells.
type FaceConnector struct {
	NumCells int

	// Input connectivity
	CellFaces [][][]int // [cell][face] → vertex ids in the cell's winding

	// Output connectivity
	EToE [][]int // [cell][face] → neighbor cell, the cell itself on the boundary
	EToF [][]int // [cell][face] → face index within the neighbor

	uses map[string]int // canonical face key → number of cells using it
}

// FaceKey returns the canonical key of a face: its sorted vertex ids
func FaceKey(verts []int) string {
	sorted := slices.Clone(verts)
	slices.Sort(sorted)
	var sb strings.Builder
	for i, v := range sorted {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// NewFaceConnector creates a face connector from per-cell face loops
func NewFaceConnector(cellFaces [][][]int) (*FaceConnector, error) {
	for c, faces := range cellFaces {
		for f, verts := range faces {
			if len(verts) < 2 {
				return nil, fmt.Errorf("cell %d face %d: %d vertices", c, f, len(verts))
			}
			sorted := slices.Clone(verts)
			slices.Sort(sorted)
			if len(slices.Compact(sorted)) != len(verts) {
				return nil, fmt.Errorf("cell %d face %d: repeated vertex in %v", c, f, verts)
			}
		}
	}

	fc := &FaceConnector{
		NumCells:  len(cellFaces),
		CellFaces: cellFaces,
	}
	fc.buildConnectivity()
	return fc, nil
}

// buildConnectivity fills EToE/EToF, initialized with self connections
func (fc *FaceConnector) buildConnectivity() {
	type faceSignature struct {
		cell, face int
	}
	fc.EToE = make([][]int, fc.NumCells)
	fc.EToF = make([][]int, fc.NumCells)
	fc.uses = make(map[string]int)
	first := make(map[string]faceSignature)

	for c, faces := range fc.CellFaces {
		fc.EToE[c] = make([]int, len(faces))
		fc.EToF[c] = make([]int, len(faces))
		for f, verts := range faces {
			fc.EToE[c][f] = c
			fc.EToF[c][f] = f

			key := FaceKey(verts)
			fc.uses[key]++
			if existing, found := first[key]; found {
				// Only the first pair is connected; later uses are non-manifold
				if fc.uses[key] == 2 {
					fc.EToE[c][f] = existing.cell
					fc.EToF[c][f] = existing.face
					fc.EToE[existing.cell][existing.face] = c
					fc.EToF[existing.cell][existing.face] = f
				}
			} else {
				first[key] = faceSignature{c, f}
			}
		}
	}
}

// Uses returns how many cells share the face of cell c with index f
func (fc *FaceConnector) Uses(c, f int) int {
	return fc.uses[FaceKey(fc.CellFaces[c][f])]
}

// IsBoundary reports whether face f of cell c belongs to exactly one cell
func (fc *FaceConnector) IsBoundary(c, f int) bool {
	return fc.Uses(c, f) == 1
}

// BoundaryFaces returns the boundary faces in cell then face order, each
// in the winding of the cell that owns it
func (fc *FaceConnector) BoundaryFaces() [][]int {
	var faces [][]int
	for c, cellFaces := range fc.CellFaces {
		for f, verts := range cellFaces {
			if fc.IsBoundary(c, f) {
				faces = append(faces, slices.Clone(verts))
			}
		}
	}
	return faces
}

// Verify checks that connections are symmetric and reports faces shared by
// more than two cells
func (fc *FaceConnector) Verify() error {
	for c := range fc.EToE {
		for f, nbr := range fc.EToE[c] {
			if nbr == c {
				continue
			}
			nf := fc.EToF[c][f]
			if fc.EToE[nbr][nf] != c || fc.EToF[nbr][nf] != f {
				return fmt.Errorf("asymmetric connection: cell %d face %d -> cell %d face %d", c, f, nbr, nf)
			}
		}
	}
	for key, n := range fc.uses {
		if n > 2 {
			return fmt.Errorf("non-manifold face %s shared by %d cells", key, n)
		}
	}
	return nil
}
