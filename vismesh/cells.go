package vismesh

// CellRef is a read-only view of one cell in emission order
type CellRef struct {
	Collection string   // collection the cell lives in
	Position   int      // index within that collection
	Type       CellType // geometry file cell type
	Points     []int    // point indices, nil for polyhedra
	Faces      [][]int  // face loops, polyhedra only
	Tag        IndexTag
}

// VolumeCells lists the cells that reference Points in the order both the
// geometry file and the index document emit them.
//
//	2D: polygons, lines
//	3D: voxels, tetrahedra, irregular polyhedra, polygons
func (m *Mesh) VolumeCells() []CellRef {
	cells := make([]CellRef, 0, m.NumCells())
	if m.Dimension == 2 {
		cells = m.appendPolygons(cells)
		return m.appendLines(cells)
	}
	for i := range m.Voxels {
		v := &m.Voxels[i]
		cells = append(cells, CellRef{
			Collection: "voxel", Position: i, Type: VoxelCell, Points: v.PointIndices[:], Tag: v.Tag,
		})
	}
	for i := range m.Tetrahedra {
		t := &m.Tetrahedra[i]
		cells = append(cells, CellRef{
			Collection: "tetrahedron", Position: i, Type: TetraCell, Points: t.PointIndices[:], Tag: t.Tag,
		})
	}
	for i, ph := range m.IrregularPolyhedra {
		faces := make([][]int, len(ph.Faces))
		for j, f := range ph.Faces {
			faces[j] = f.Vertices
		}
		cells = append(cells, CellRef{
			Collection: "irregular polyhedron", Position: i, Type: PolyhedronCell, Faces: faces, Tag: ph.Tag,
		})
	}
	return m.appendPolygons(cells)
}

// ElementCells lists the volume elements among VolumeCells: polygons in 2D,
// where lines belong to the membrane, and all of VolumeCells in 3D
func (m *Mesh) ElementCells() []CellRef {
	if m.Dimension == 2 {
		return m.appendPolygons(make([]CellRef, 0, len(m.Polygons)))
	}
	return m.VolumeCells()
}

// MembraneCells lists the cells that reference SurfacePoints: lines in 2D,
// surface triangles in 3D
func (m *Mesh) MembraneCells() []CellRef {
	if m.Dimension == 2 {
		return m.appendLines(make([]CellRef, 0, len(m.Lines)))
	}
	cells := make([]CellRef, 0, len(m.SurfaceTriangles))
	for i := range m.SurfaceTriangles {
		st := &m.SurfaceTriangles[i]
		cells = append(cells, CellRef{
			Collection: "surface triangle", Position: i, Type: TriangleCell, Points: st.PointIndices[:], Tag: st.Tag,
		})
	}
	return cells
}

func (m *Mesh) appendPolygons(cells []CellRef) []CellRef {
	for i, p := range m.Polygons {
		cells = append(cells, CellRef{
			Collection: "polygon", Position: i, Type: PolygonCellType(len(p.PointIndices)),
			Points: p.PointIndices, Tag: p.Tag,
		})
	}
	return cells
}

func (m *Mesh) appendLines(cells []CellRef) []CellRef {
	for i, l := range m.Lines {
		cells = append(cells, CellRef{
			Collection: "line", Position: i, Type: LineCell, Points: []int{l.P1, l.P2}, Tag: l.Tag,
		})
	}
	return cells
}
