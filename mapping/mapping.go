// Package mapping turns a structured finite volume mesh into the unstructured
// vismesh.Mesh of one domain: voxels or quads for volume domains, oriented
// quads or lines for membrane domains.
package mapping

import (
	"fmt"
	"github.com/notargets/vismesh/structured"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options tunes the mapping
type Options struct {
	// Precision is the number of decimals that identify a point.
	// Zero or negative selects vismesh.DefaultPrecision.
	Precision int
}

// FromMeshData dispatches on the mesh dimension and on whether the domain
// is a volume or a membrane domain. The mesh is validated by the selected
// builder.
func FromMeshData(cm *structured.CartesianMesh, domain string, volume bool, opts Options) (*vismesh.Mesh, vismesh.Warnings, error) {
	switch {
	case cm.Dimension == 3 && volume:
		return FromMesh3DVolume(cm, domain, opts)
	case cm.Dimension == 3 && !volume:
		return FromMesh3DMembrane(cm, cm.MembraneRegionIDs(domain), opts)
	case cm.Dimension == 2 && volume:
		return FromMesh2DVolume(cm, domain, opts)
	case cm.Dimension == 2 && !volume:
		return FromMesh2DMembrane(cm, cm.MembraneRegionIDs(domain), opts)
	}
	return nil, nil, fmt.Errorf("%w: mesh dimension = %d, volume domain = %v",
		vismesh.ErrUnsupportedConfiguration, cm.Dimension, volume)
}

// builder pairs a fresh mesh with its point registry for one conversion
type builder struct {
	cm   *structured.CartesianMesh
	reg  *vismesh.PointRegistry
	mesh *vismesh.Mesh
}

func newBuilder(cm *structured.CartesianMesh, opts Options) (*builder, error) {
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	m, err := vismesh.NewMesh(cm.Dimension, cm.Origin, cm.Extent)
	if err != nil {
		return nil, err
	}
	return &builder{
		cm:   cm,
		reg:  vismesh.NewPointRegistry(opts.Precision),
		mesh: m,
	}, nil
}

// register returns the registry index of each point, writing into dst
func (b *builder) register(dst []int, pts ...r3.Vec) {
	for i, p := range pts {
		dst[i] = b.reg.GetOrInsert(p)
	}
}

// finish moves the registered points into the mesh
func (b *builder) finish() *vismesh.Mesh {
	b.mesh.Points = b.reg.Points()
	return b.mesh
}

// cellIJK returns (i, j, k) of a flat volume index as an array so axes can
// be addressed by number
func (b *builder) cellIJK(flat int) (ijk [3]int) {
	ijk[0], ijk[1], ijk[2] = b.cm.CellIJK(flat)
	return
}

// zeroCellWarning records an empty selection; scope names what was searched
func zeroCellWarning(ws *vismesh.Warnings, what, scope string) {
	ws.Addf(vismesh.ZeroCells, "no %s selected for %s", what, scope)
}
