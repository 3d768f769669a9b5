package mapping

import (
	"fmt"
	"github.com/notargets/vismesh/structured"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromMesh3DVolume emits one voxel per structured cell whose region belongs
// to the domain, tagged with its flat index and region.
//
// Voxel corners follow VTK voxel order:
//
//	       p6-------------------p7
//	      /|                   /|
//	     / |                  / |
//	   p4-------------------p5  |
//	    |  |                 |  |
//	    |  p2................|..p3        z   y
//	    | /                  | /          |  /
//	    |/                   |/           | /
//	   p0-------------------p1            O----- x
func FromMesh3DVolume(cm *structured.CartesianMesh, domain string, opts Options) (*vismesh.Mesh, vismesh.Warnings, error) {
	b, err := newBuilder(cm, opts)
	if err != nil {
		return nil, nil, err
	}
	regions := cm.VolumeRegionIDs(domain)
	b.mesh.Voxels = []vismesh.Voxel{}

	volumeIndex := 0
	for k := 0; k < cm.Size[2]; k++ {
		for j := 0; j < cm.Size[1]; j++ {
			for i := 0; i < cm.Size[0]; i++ {
				region := cm.VolumeRegionMap[volumeIndex]
				if regions[region] {
					box := cm.VolumeElementBox(i, j, k)
					lo, hi := box.Lo, box.Hi
					var voxel vismesh.Voxel
					b.register(voxel.PointIndices[:],
						r3.Vec{X: lo.X, Y: lo.Y, Z: lo.Z}, // p0
						r3.Vec{X: hi.X, Y: lo.Y, Z: lo.Z}, // p1
						r3.Vec{X: lo.X, Y: hi.Y, Z: lo.Z}, // p2
						r3.Vec{X: hi.X, Y: hi.Y, Z: lo.Z}, // p3
						r3.Vec{X: lo.X, Y: lo.Y, Z: hi.Z}, // p4
						r3.Vec{X: hi.X, Y: lo.Y, Z: hi.Z}, // p5
						r3.Vec{X: lo.X, Y: hi.Y, Z: hi.Z}, // p6
						r3.Vec{X: hi.X, Y: hi.Y, Z: hi.Z}, // p7
					)
					voxel.Tag = vismesh.FiniteVolumeIndex{GlobalIndex: volumeIndex, RegionIndex: region}
					b.mesh.Voxels = append(b.mesh.Voxels, voxel)
				}
				volumeIndex++
			}
		}
	}

	var warnings vismesh.Warnings
	if len(b.mesh.Voxels) == 0 {
		zeroCellWarning(&warnings, "volume elements", fmt.Sprintf("domain %q", domain))
	}
	m := b.finish()
	utils.Diagf("volume domain %q: %d of %d cells -> %d voxels, %d points",
		domain, len(m.Voxels), cm.NumVolumeElements(), len(m.Voxels), len(m.Points))
	return m, warnings, nil
}

// FromMesh2DVolume emits one counter-clockwise quad per selected cell in the
// plane z = origin z
func FromMesh2DVolume(cm *structured.CartesianMesh, domain string, opts Options) (*vismesh.Mesh, vismesh.Warnings, error) {
	b, err := newBuilder(cm, opts)
	if err != nil {
		return nil, nil, err
	}
	regions := cm.VolumeRegionIDs(domain)
	b.mesh.Polygons = []vismesh.Polygon{}
	z := cm.Origin.Z

	volumeIndex := 0
	for j := 0; j < cm.Size[1]; j++ {
		for i := 0; i < cm.Size[0]; i++ {
			region := cm.VolumeRegionMap[volumeIndex]
			if regions[region] {
				box := cm.VolumeElementBox(i, j, 0)
				lo, hi := box.Lo, box.Hi
				indices := make([]int, 4)
				b.register(indices,
					r3.Vec{X: lo.X, Y: lo.Y, Z: z},
					r3.Vec{X: hi.X, Y: lo.Y, Z: z},
					r3.Vec{X: hi.X, Y: hi.Y, Z: z},
					r3.Vec{X: lo.X, Y: hi.Y, Z: z},
				)
				b.mesh.Polygons = append(b.mesh.Polygons, vismesh.Polygon{
					PointIndices: indices,
					Tag:          vismesh.FiniteVolumeIndex{GlobalIndex: volumeIndex, RegionIndex: region},
				})
			}
			volumeIndex++
		}
	}

	var warnings vismesh.Warnings
	if len(b.mesh.Polygons) == 0 {
		zeroCellWarning(&warnings, "volume elements", fmt.Sprintf("domain %q", domain))
	}
	m := b.finish()
	utils.Diagf("volume domain %q: %d of %d cells -> %d polygons, %d points",
		domain, len(m.Polygons), cm.NumVolumeElements(), len(m.Polygons), len(m.Points))
	return m, warnings, nil
}
