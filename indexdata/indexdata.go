// Package indexdata derives the per-cell index documents that map each cell
// of a geometry file back to a solver's addressing scheme. Records follow
// the cell order of vismesh.Mesh.VolumeCells and MembraneCells, the same
// order the geometry writer uses, so record i describes cell i.
package indexdata

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"io"
	"strings"
)

// Document is an index document ready to be encoded
type Document interface {
	Domain() string
	NumRecords() int
}

// FiniteVolumeIndexData maps cells to the flat finite volume scheme
type FiniteVolumeIndexData struct {
	DomainName          string                      `json:"domainName"`
	FiniteVolumeIndices []vismesh.FiniteVolumeIndex `json:"finiteVolumeIndices"`
}

// ChomboIndexData maps cells to AMR boxes or embedded boundary elements
type ChomboIndexData struct {
	DomainName           string                       `json:"domainName"`
	ChomboSurfaceIndices []vismesh.ChomboSurfaceIndex `json:"chomboSurfaceIndices"`
	ChomboVolumeIndices  []vismesh.ChomboVolumeIndex  `json:"chomboVolumeIndices"`
}

// MovingBoundaryIndexData maps cells of one time step of a moving boundary
// solution
type MovingBoundaryIndexData struct {
	DomainName                   string                               `json:"domainName"`
	TimeIndex                    int                                  `json:"timeIndex"`
	MovingBoundarySurfaceIndices []vismesh.MovingBoundarySurfaceIndex `json:"movingBoundarySurfaceIndices"`
	MovingBoundaryVolumeIndices  []vismesh.MovingBoundaryVolumeIndex  `json:"movingBoundaryVolumeIndices"`
}

func (d *FiniteVolumeIndexData) Domain() string { return d.DomainName }
func (d *FiniteVolumeIndexData) NumRecords() int { return len(d.FiniteVolumeIndices) }

func (d *ChomboIndexData) Domain() string { return d.DomainName }
func (d *ChomboIndexData) NumRecords() int {
	return len(d.ChomboSurfaceIndices) + len(d.ChomboVolumeIndices)
}

func (d *MovingBoundaryIndexData) Domain() string { return d.DomainName }
func (d *MovingBoundaryIndexData) NumRecords() int {
	return len(d.MovingBoundarySurfaceIndices) + len(d.MovingBoundaryVolumeIndices)
}

// FiniteVolume builds the finite volume document of a volume or membrane
// mesh. Every cell must carry a FiniteVolumeIndex, and a 3D mesh must not
// hold irregular polyhedra.
func FiniteVolume(m *vismesh.Mesh, domain string) (*FiniteVolumeIndexData, vismesh.Warnings, error) {
	if err := rejectPolyhedra(m); err != nil {
		return nil, nil, err
	}
	cells := m.VolumeCells()
	doc := &FiniteVolumeIndexData{
		DomainName:          domain,
		FiniteVolumeIndices: make([]vismesh.FiniteVolumeIndex, 0, len(cells)),
	}
	for _, c := range cells {
		tag, ok := c.Tag.(vismesh.FiniteVolumeIndex)
		if !ok {
			return nil, nil, missingTag(c, vismesh.FiniteVolumeTag)
		}
		doc.FiniteVolumeIndices = append(doc.FiniteVolumeIndices, tag)
	}
	return doc, finish(doc, "finite volume"), nil
}

// ChomboVolume builds the Chombo document of a volume mesh: one
// ChomboVolumeIndex per polygon in 2D, per voxel then tetrahedron in 3D.
// 2D lines index SurfacePoints and are left to ChomboMembrane.
func ChomboVolume(m *vismesh.Mesh, domain string) (*ChomboIndexData, vismesh.Warnings, error) {
	if err := rejectPolyhedra(m); err != nil {
		return nil, nil, err
	}
	cells := m.ElementCells()
	doc := &ChomboIndexData{
		DomainName:          domain,
		ChomboVolumeIndices: make([]vismesh.ChomboVolumeIndex, 0, len(cells)),
	}
	for _, c := range cells {
		tag, ok := c.Tag.(vismesh.ChomboVolumeIndex)
		if !ok {
			return nil, nil, missingTag(c, vismesh.ChomboVolumeTag)
		}
		doc.ChomboVolumeIndices = append(doc.ChomboVolumeIndices, tag)
	}
	return doc, finish(doc, "chombo volume"), nil
}

// ChomboMembrane builds the Chombo document of a membrane mesh: one
// ChomboSurfaceIndex per line in 2D, per surface triangle in 3D. The domain
// must be a membrane domain, named with a "membrane" suffix.
func ChomboMembrane(m *vismesh.Mesh, domain string) (*ChomboIndexData, vismesh.Warnings, error) {
	if !IsMembraneDomain(domain) {
		return nil, nil, fmt.Errorf("%w: chombo membrane index requested for domain %q, which is not a membrane domain",
			vismesh.ErrInvariantViolation, domain)
	}
	cells := m.MembraneCells()
	doc := &ChomboIndexData{
		DomainName:           domain,
		ChomboSurfaceIndices: make([]vismesh.ChomboSurfaceIndex, 0, len(cells)),
	}
	for _, c := range cells {
		tag, ok := c.Tag.(vismesh.ChomboSurfaceIndex)
		if !ok {
			return nil, nil, missingTag(c, vismesh.ChomboSurfaceTag)
		}
		doc.ChomboSurfaceIndices = append(doc.ChomboSurfaceIndices, tag)
	}
	return doc, finish(doc, "chombo membrane"), nil
}

// MovingBoundary builds the moving boundary document of a 2D mesh for one
// time step: polygons carry volume indices, lines carry surface indices. A
// list stays nil when the mesh has no cells of its kind.
func MovingBoundary(m *vismesh.Mesh, domain string, timeIndex int) (*MovingBoundaryIndexData, vismesh.Warnings, error) {
	if m.Dimension != 2 {
		return nil, nil, fmt.Errorf("%w: moving boundary index data for a %dD mesh",
			vismesh.ErrUnsupportedConfiguration, m.Dimension)
	}
	doc := &MovingBoundaryIndexData{DomainName: domain, TimeIndex: timeIndex}
	for _, c := range m.VolumeCells() {
		switch c.Collection {
		case "polygon":
			tag, ok := c.Tag.(vismesh.MovingBoundaryVolumeIndex)
			if !ok {
				return nil, nil, missingTag(c, vismesh.MovingBoundaryVolumeTag)
			}
			doc.MovingBoundaryVolumeIndices = append(doc.MovingBoundaryVolumeIndices, tag)
		default:
			tag, ok := c.Tag.(vismesh.MovingBoundarySurfaceIndex)
			if !ok {
				return nil, nil, missingTag(c, vismesh.MovingBoundarySurfaceTag)
			}
			doc.MovingBoundarySurfaceIndices = append(doc.MovingBoundarySurfaceIndices, tag)
		}
	}
	return doc, finish(doc, "moving boundary"), nil
}

// IsMembraneDomain reports whether a domain name ends in "membrane",
// ignoring case
func IsMembraneDomain(domain string) bool {
	return strings.HasSuffix(strings.ToUpper(domain), "MEMBRANE")
}

// Encode writes doc as JSON
func Encode(w io.Writer, doc Document) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode index data for domain %q: %w", doc.Domain(), err)
	}
	return nil
}

// Decode reads a JSON index document into doc
func Decode(r io.Reader, doc Document) error {
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return fmt.Errorf("decode index data: %w", err)
	}
	return nil
}

func rejectPolyhedra(m *vismesh.Mesh) error {
	if m.Dimension == 3 && len(m.IrregularPolyhedra) > 0 {
		return fmt.Errorf("%w: %d irregular polyhedra remain, decompose them into tetrahedra first",
			vismesh.ErrInvariantViolation, len(m.IrregularPolyhedra))
	}
	return nil
}

func missingTag(c vismesh.CellRef, want vismesh.TagKind) error {
	if c.Tag == nil {
		return fmt.Errorf("%w: %s %d has no index tag, want %s",
			vismesh.ErrInvariantViolation, c.Collection, c.Position, want)
	}
	return fmt.Errorf("%w: %s %d carries a %s, want %s",
		vismesh.ErrInvariantViolation, c.Collection, c.Position, c.Tag.Kind(), want)
}

func finish(doc Document, scheme string) (ws vismesh.Warnings) {
	if doc.NumRecords() == 0 {
		ws.Addf(vismesh.ZeroCells, "%s index data for domain %q has no records", scheme, doc.Domain())
	}
	utils.Diagf("%s index data for domain %q: %d records", scheme, doc.Domain(), doc.NumRecords())
	return
}
