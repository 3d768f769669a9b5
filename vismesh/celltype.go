package vismesh

import "fmt"

// CellType identifies the shape of an emitted cell
type CellType uint8

const (
	// 3D cell types
	VoxelCell      CellType = iota // Axis-aligned hexahedron, VTK voxel ordering
	TetraCell                      // Tetrahedron
	PolyhedronCell                 // Irregular polyhedron given by face loops

	// 2D cell types
	QuadCell     // Quadrilateral polygon
	TriangleCell // Triangle
	PolygonCell  // General polygon

	// 1D cell type
	LineCell // Line segment
)

// CellTypeInfo describes a cell type as the geometry file format sees it
type CellTypeInfo struct {
	Name     string
	VTKType  uint8
	NumVerts int     // 0 means variable
	Faces    [][]int // Local vertex loops of each face, nil for 2D/1D cells
}

// cellTypes is built once; every conversion reads it without copying
var cellTypes = [...]CellTypeInfo{
	VoxelCell: {
		Name:     "voxel",
		VTKType:  11,
		NumVerts: 8,
		// Outward winding for p0..p7 = (x-,y-,z-) (x+,y-,z-) (x-,y+,z-) (x+,y+,z-)
		// (x-,y-,z+) (x+,y-,z+) (x-,y+,z+) (x+,y+,z+)
		Faces: [][]int{
			{0, 4, 6, 2}, // x-
			{1, 3, 7, 5}, // x+
			{0, 1, 5, 4}, // y-
			{2, 6, 7, 3}, // y+
			{0, 2, 3, 1}, // z-
			{4, 5, 7, 6}, // z+
		},
	},
	TetraCell: {
		Name:     "tetra",
		VTKType:  10,
		NumVerts: 4,
		Faces: [][]int{
			{0, 2, 1},
			{0, 1, 3},
			{1, 2, 3},
			{0, 3, 2},
		},
	},
	PolyhedronCell: {Name: "polyhedron", VTKType: 42},
	QuadCell:       {Name: "quad", VTKType: 9, NumVerts: 4},
	TriangleCell:   {Name: "triangle", VTKType: 5, NumVerts: 3},
	PolygonCell:    {Name: "polygon", VTKType: 7},
	LineCell:       {Name: "line", VTKType: 3, NumVerts: 2},
}

// vtkToCellType inverts the VTK ids of cellTypes
var vtkToCellType = func() map[uint8]CellType {
	m := make(map[uint8]CellType, len(cellTypes))
	for ct, info := range cellTypes {
		m[info.VTKType] = CellType(ct)
	}
	return m
}()

// Info returns the descriptor of the cell type
func (ct CellType) Info() CellTypeInfo {
	return cellTypes[ct]
}

func (ct CellType) String() string {
	if int(ct) < len(cellTypes) {
		return cellTypes[ct].Name
	}
	return fmt.Sprintf("CellType(%d)", ct)
}

// CellTypeFromVTK maps a VTK cell type id back to a CellType
func CellTypeFromVTK(vtkType uint8) (CellType, error) {
	ct, ok := vtkToCellType[vtkType]
	if !ok {
		return 0, fmt.Errorf("unsupported VTK cell type %d", vtkType)
	}
	return ct, nil
}

// PolygonCellType picks the geometry file type for a polygon with n vertices
func PolygonCellType(n int) CellType {
	switch n {
	case 3:
		return TriangleCell
	case 4:
		return QuadCell
	default:
		return PolygonCell
	}
}
