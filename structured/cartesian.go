// Package structured describes the regular-grid finite volume mesh a PDE
// solver writes: cell sizes, per-cell region ids, membrane elements and the
// domain names that group regions.
package structured

import (
	"fmt"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// MembraneElement is the interface between two face-adjacent volume cells
type MembraneElement struct {
	Index              int // membrane element index
	InsideVolumeIndex  int // flat index of the inside cell
	OutsideVolumeIndex int // flat index of the outside cell
	RegionID           int // membrane region
}

// CartesianMesh is a regular grid addressed by a flat index
// i + j*nx + k*nx*ny. A 2D mesh has Size[2] == 1.
type CartesianMesh struct {
	Dimension int
	Size      [3]int // nx, ny, nz
	Origin    r3.Vec
	Extent    r3.Vec

	VolumeRegionMap  []int // region id of each cell, length nx*ny*nz
	MembraneElements []MembraneElement

	VolumeDomains   map[string][]int // domain name -> volume region ids
	MembraneDomains map[string][]int // domain name -> membrane region ids
}

// Box is the axis-aligned extent of one structured cell
type Box struct {
	Lo, Hi r3.Vec
}

// Key formats the box corners with the same canonical rounding the point
// registry uses
func (b Box) Key(precision int) string {
	return "(" + vismesh.PointKey(b.Lo, precision) + " : " + vismesh.PointKey(b.Hi, precision) + ")"
}

// Validate checks the grid before any mapping is attempted
func (cm *CartesianMesh) Validate() error {
	if cm.Dimension != 2 && cm.Dimension != 3 {
		return fmt.Errorf("%w: mesh dimension %d", vismesh.ErrUnsupportedConfiguration, cm.Dimension)
	}
	for axis, n := range cm.Size {
		if n <= 0 {
			return fmt.Errorf("invalid size along axis %d: %d", axis, n)
		}
	}
	if cm.Dimension == 2 && cm.Size[2] != 1 {
		return fmt.Errorf("2D mesh must have nz == 1, got %d", cm.Size[2])
	}
	n := cm.NumVolumeElements()
	if len(cm.VolumeRegionMap) != n {
		return fmt.Errorf("volume region map length %d does not match %dx%dx%d = %d",
			len(cm.VolumeRegionMap), cm.Size[0], cm.Size[1], cm.Size[2], n)
	}
	for _, me := range cm.MembraneElements {
		if me.InsideVolumeIndex < 0 || me.InsideVolumeIndex >= n ||
			me.OutsideVolumeIndex < 0 || me.OutsideVolumeIndex >= n {
			return fmt.Errorf("membrane element %d: volume indices (%d, %d) outside [0, %d)",
				me.Index, me.InsideVolumeIndex, me.OutsideVolumeIndex, n)
		}
	}
	return nil
}

// NumVolumeElements returns nx*ny*nz
func (cm *CartesianMesh) NumVolumeElements() int {
	return cm.Size[0] * cm.Size[1] * cm.Size[2]
}

// FlatIndex returns the flat index of cell (i, j, k)
func (cm *CartesianMesh) FlatIndex(i, j, k int) int {
	return i + j*cm.Size[0] + k*cm.Size[0]*cm.Size[1]
}

// CellIJK decomposes a flat index into (i, j, k)
func (cm *CartesianMesh) CellIJK(flat int) (i, j, k int) {
	nx, nxy := cm.Size[0], cm.Size[0]*cm.Size[1]
	i = flat % nx
	j = (flat % nxy) / nx
	k = flat / nxy
	return
}

// CellSize returns the edge lengths of one cell
func (cm *CartesianMesh) CellSize() r3.Vec {
	return r3.Vec{
		X: cm.Extent.X / float64(cm.Size[0]),
		Y: cm.Extent.Y / float64(cm.Size[1]),
		Z: cm.Extent.Z / float64(cm.Size[2]),
	}
}

// VolumeElementBox returns the physical box of cell (i, j, k)
func (cm *CartesianMesh) VolumeElementBox(i, j, k int) Box {
	d := cm.CellSize()
	return Box{
		Lo: r3.Vec{
			X: cm.Origin.X + float64(i)*d.X,
			Y: cm.Origin.Y + float64(j)*d.Y,
			Z: cm.Origin.Z + float64(k)*d.Z,
		},
		Hi: r3.Vec{
			X: cm.Origin.X + float64(i+1)*d.X,
			Y: cm.Origin.Y + float64(j+1)*d.Y,
			Z: cm.Origin.Z + float64(k+1)*d.Z,
		},
	}
}

// VolumeRegionIDs resolves a volume domain name to its region set. An
// unknown name yields an empty set.
func (cm *CartesianMesh) VolumeRegionIDs(domain string) map[int]bool {
	return toSet(cm.VolumeDomains[domain])
}

// MembraneRegionIDs resolves a membrane domain name to its region set
func (cm *CartesianMesh) MembraneRegionIDs(domain string) map[int]bool {
	return toSet(cm.MembraneDomains[domain])
}

// CountVolumeElements returns how many cells have a region id in regions
func (cm *CartesianMesh) CountVolumeElements(regions map[int]bool) (n int) {
	for _, r := range cm.VolumeRegionMap {
		if regions[r] {
			n++
		}
	}
	return
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
