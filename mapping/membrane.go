package mapping

import (
	"fmt"
	"github.com/notargets/vismesh/structured"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
	"slices"
)

// faceDirection is one of the directed axis cases that place the outside
// cell next to the inside cell
type faceDirection struct {
	name string
	axis int
	// outside is the offset of the outside cell along axis, -1 or +1
	outside int
}

func (d faceDirection) matches(in, out [3]int) bool {
	for axis := 0; axis < 3; axis++ {
		if axis == d.axis {
			if out[axis]-in[axis] != d.outside {
				return false
			}
		} else if out[axis] != in[axis] {
			return false
		}
	}
	return true
}

// Priority order of the membrane directions
var membraneDirections3D = []faceDirection{
	{name: "-x", axis: 0, outside: -1},
	{name: "+x", axis: 0, outside: +1},
	{name: "-y", axis: 1, outside: -1},
	{name: "+y", axis: 1, outside: +1},
	{name: "-z", axis: 2, outside: -1},
	{name: "+z", axis: 2, outside: +1},
}

var membraneDirections2D = membraneDirections3D[:4]

// quadCorners returns the face of box on the side given by dir, wound so
// (p1-p0)x(p2-p0) points out of the box
func quadCorners(dir faceDirection, box structured.Box) [4]r3.Vec {
	lo, hi := box.Lo, box.Hi
	switch dir.name {
	case "-x":
		return [4]r3.Vec{
			{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: lo.X, Y: lo.Y, Z: hi.Z},
			{X: lo.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z}}
	case "+x":
		return [4]r3.Vec{
			{X: hi.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z},
			{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z}}
	case "-y":
		return [4]r3.Vec{
			{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: lo.Y, Z: hi.Z}, {X: lo.X, Y: lo.Y, Z: hi.Z}}
	case "+y":
		return [4]r3.Vec{
			{X: lo.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z},
			{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z}}
	case "-z":
		return [4]r3.Vec{
			{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z},
			{X: hi.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z}}
	default: // +z
		return [4]r3.Vec{
			{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
			{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z}}
	}
}

// lineEnds returns the edge of a 2D box on the side given by dir, running
// counter-clockwise around the box
func lineEnds(dir faceDirection, box structured.Box, z float64) (p1, p2 r3.Vec) {
	lo, hi := box.Lo, box.Hi
	switch dir.name {
	case "-x":
		return r3.Vec{X: lo.X, Y: hi.Y, Z: z}, r3.Vec{X: lo.X, Y: lo.Y, Z: z}
	case "+x":
		return r3.Vec{X: hi.X, Y: lo.Y, Z: z}, r3.Vec{X: hi.X, Y: hi.Y, Z: z}
	case "-y":
		return r3.Vec{X: lo.X, Y: lo.Y, Z: z}, r3.Vec{X: hi.X, Y: lo.Y, Z: z}
	default: // +y
		return r3.Vec{X: hi.X, Y: hi.Y, Z: z}, r3.Vec{X: lo.X, Y: hi.Y, Z: z}
	}
}

func findDirection(dirs []faceDirection, in, out [3]int) (faceDirection, bool) {
	for _, d := range dirs {
		if d.matches(in, out) {
			return d, true
		}
	}
	return faceDirection{}, false
}

// FromMesh3DMembrane emits one oriented quad per membrane element whose
// region is in regionIDs. The quad is the face of the inside cell shared
// with the outside cell, tagged with the membrane index and region.
func FromMesh3DMembrane(cm *structured.CartesianMesh, regionIDs map[int]bool, opts Options) (*vismesh.Mesh, vismesh.Warnings, error) {
	b, err := newBuilder(cm, opts)
	if err != nil {
		return nil, nil, err
	}
	b.mesh.Polygons = []vismesh.Polygon{}

	for _, me := range cm.MembraneElements {
		if !regionIDs[me.RegionID] {
			continue
		}
		in, out := b.cellIJK(me.InsideVolumeIndex), b.cellIJK(me.OutsideVolumeIndex)
		dir, ok := findDirection(membraneDirections3D, in, out)
		if !ok {
			return nil, nil, fmt.Errorf("%w: membrane element %d, inside %v and outside %v are not face neighbors",
				vismesh.ErrGeometryConsistency, me.Index, in, out)
		}
		if utils.TraceEnabled() {
			utils.Tracef("membrane element %d: %s face of cell %v", me.Index, dir.name, in)
		}
		corners := quadCorners(dir, cm.VolumeElementBox(in[0], in[1], in[2]))
		indices := make([]int, 4)
		b.register(indices, corners[:]...)
		b.mesh.Polygons = append(b.mesh.Polygons, vismesh.Polygon{
			PointIndices: indices,
			Tag:          vismesh.FiniteVolumeIndex{GlobalIndex: me.Index, RegionIndex: me.RegionID},
		})
	}

	var warnings vismesh.Warnings
	if len(b.mesh.Polygons) == 0 {
		zeroCellWarning(&warnings, "membrane elements", fmt.Sprintf("membrane regions %v", sortedIDs(regionIDs)))
	}
	m := b.finish()
	utils.Diagf("membrane regions %v: %d of %d elements -> %d quads, %d points",
		sortedIDs(regionIDs), len(m.Polygons), len(cm.MembraneElements), len(m.Polygons), len(m.Points))
	return m, warnings, nil
}

// FromMesh2DMembrane emits one line per selected membrane element along the
// edge the inside cell shares with the outside cell
func FromMesh2DMembrane(cm *structured.CartesianMesh, regionIDs map[int]bool, opts Options) (*vismesh.Mesh, vismesh.Warnings, error) {
	b, err := newBuilder(cm, opts)
	if err != nil {
		return nil, nil, err
	}
	b.mesh.Lines = []vismesh.Line{}
	z := cm.Origin.Z

	for _, me := range cm.MembraneElements {
		if !regionIDs[me.RegionID] {
			continue
		}
		in, out := b.cellIJK(me.InsideVolumeIndex), b.cellIJK(me.OutsideVolumeIndex)
		dir, ok := findDirection(membraneDirections2D, in, out)
		if !ok {
			return nil, nil, fmt.Errorf("%w: membrane element %d, inside %v and outside %v are not edge neighbors",
				vismesh.ErrGeometryConsistency, me.Index, in, out)
		}
		p1, p2 := lineEnds(dir, cm.VolumeElementBox(in[0], in[1], 0), z)
		var ends [2]int
		b.register(ends[:], p1, p2)
		b.mesh.Lines = append(b.mesh.Lines, vismesh.Line{
			P1:  ends[0],
			P2:  ends[1],
			Tag: vismesh.FiniteVolumeIndex{GlobalIndex: me.Index, RegionIndex: me.RegionID},
		})
	}

	var warnings vismesh.Warnings
	if len(b.mesh.Lines) == 0 {
		zeroCellWarning(&warnings, "membrane elements", fmt.Sprintf("membrane regions %v", sortedIDs(regionIDs)))
	}
	m := b.finish()
	utils.Diagf("membrane regions %v: %d of %d elements -> %d lines, %d points",
		sortedIDs(regionIDs), len(m.Lines), len(cm.MembraneElements), len(m.Lines), len(m.Points))
	return m, warnings, nil
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
