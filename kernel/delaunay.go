// Package kernel holds the pure Go geometry kernels the mesh pipeline calls
// through interfaces: Delaunay tetrahedralization of a point set, boundary
// surface extraction and windowed sinc surface smoothing.
package kernel

import (
	"fmt"
	"github.com/notargets/vismesh/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"math"
)

const (
	superScale      = 1.0e3  // super tetrahedron size relative to the input
	insideTolerance = 1.0e-10 // relative circumsphere tolerance
	volumeTolerance = 1.0e-12 // relative volume below which a tet is dropped
)

// Delaunay3D tetrahedralizes the convex hull of a point set with the
// Bowyer-Watson algorithm. Face loops are accepted for interface
// compatibility but are not enforced as constraints.
type Delaunay3D struct{}

type delaunayTet struct {
	v      [4]int
	center r3.Vec
	r2     float64 // squared circumradius, negative for degenerate tets
	dead   bool
}

// Tetrahedralize returns positively oriented tetrahedra over points. Fewer
// than four points, or points that span no volume, give no tetrahedra.
func (Delaunay3D) Tetrahedralize(points []r3.Vec, faces [][]int) ([][4]int, error) {
	for f, loop := range faces {
		for _, v := range loop {
			if v < 0 || v >= len(points) {
				return nil, fmt.Errorf("face %d references point %d of %d", f, v, len(points))
			}
		}
	}
	if len(points) < 4 {
		return nil, nil
	}

	box := bounds(points)
	size := max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y, box.Max.Z-box.Min.Z)
	if size == 0 {
		return nil, nil
	}
	center := r3.Scale(0.5, r3.Add(box.Min, box.Max))

	n := len(points)
	all := make([]r3.Vec, n, n+4)
	copy(all, points)
	for _, dir := range []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}} {
		all = append(all, r3.Add(center, r3.Scale(superScale*size, dir)))
	}

	tets := []delaunayTet{newDelaunayTet(all, [4]int{n, n + 1, n + 2, n + 3})}
	for p := 0; p < n; p++ {
		tets = insertPoint(all, tets, p)
		if utils.TraceEnabled() {
			utils.Tracef("delaunay: inserted point %d of %d, %d tets", p+1, n, len(tets))
		}
	}

	minVolume := volumeTolerance * size * size * size
	var result [][4]int
	for _, t := range tets {
		if t.dead || t.v[0] >= n || t.v[1] >= n || t.v[2] >= n || t.v[3] >= n {
			continue
		}
		v := t.v
		vol := SignedVolume(all[v[0]], all[v[1]], all[v[2]], all[v[3]])
		if math.Abs(vol) <= minVolume {
			continue
		}
		if vol < 0 {
			v[1], v[2] = v[2], v[1]
		}
		result = append(result, v)
	}
	return result, nil
}

// insertPoint removes every tet whose circumsphere strictly contains point p
// and fills the cavity with tets joining p to the cavity boundary
func insertPoint(all []r3.Vec, tets []delaunayTet, p int) []delaunayTet {
	x := all[p]
	var bad []int
	for i := range tets {
		t := &tets[i]
		if t.dead || t.r2 < 0 {
			continue
		}
		if r3.Norm2(r3.Sub(x, t.center)) < t.r2*(1-insideTolerance) {
			bad = append(bad, i)
		}
	}
	if len(bad) == 0 {
		return tets
	}

	type cavityFace struct {
		v     [3]int
		count int
	}
	faceCount := make(map[[3]int]*cavityFace)
	var order [][3]int
	for _, i := range bad {
		tets[i].dead = true
		v := tets[i].v
		for _, f := range [4][3]int{{v[0], v[1], v[2]}, {v[0], v[1], v[3]}, {v[0], v[2], v[3]}, {v[1], v[2], v[3]}} {
			key := sortedTriple(f)
			if cf, ok := faceCount[key]; ok {
				cf.count++
				continue
			}
			faceCount[key] = &cavityFace{v: f, count: 1}
			order = append(order, key)
		}
	}

	live := tets[:0]
	for _, t := range tets {
		if !t.dead {
			live = append(live, t)
		}
	}
	for _, key := range order {
		cf := faceCount[key]
		if cf.count != 1 {
			continue
		}
		live = append(live, newDelaunayTet(all, [4]int{cf.v[0], cf.v[1], cf.v[2], p}))
	}
	return live
}

func newDelaunayTet(all []r3.Vec, v [4]int) delaunayTet {
	t := delaunayTet{v: v, r2: -1}
	a := all[v[0]]
	A := mat.NewDense(3, 3, nil)
	rhs := mat.NewVecDense(3, nil)
	for row := 0; row < 3; row++ {
		e := r3.Sub(all[v[row+1]], a)
		A.SetRow(row, []float64{e.X, e.Y, e.Z})
		rhs.SetVec(row, 0.5*r3.Norm2(e))
	}
	var x mat.VecDense
	if err := x.SolveVec(A, rhs); err != nil {
		// coplanar or near coplanar: never contains a point
		return t
	}
	offset := r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	t.center = r3.Add(a, offset)
	t.r2 = r3.Norm2(offset)
	return t
}

func sortedTriple(f [3]int) [3]int {
	if f[0] > f[1] {
		f[0], f[1] = f[1], f[0]
	}
	if f[1] > f[2] {
		f[1], f[2] = f[2], f[1]
	}
	if f[0] > f[1] {
		f[0], f[1] = f[1], f[0]
	}
	return f
}

// SignedVolume returns the volume of tetrahedron (a, b, c, d), positive when
// d lies on the side of triangle (a, b, c) its right-handed normal points to
func SignedVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a))) / 6
}

func bounds(points []r3.Vec) r3.Box {
	box := r3.Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = r3.Vec{X: min(box.Min.X, p.X), Y: min(box.Min.Y, p.Y), Z: min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: max(box.Max.X, p.X), Y: max(box.Max.Y, p.Y), Z: max(box.Max.Z, p.Z)}
	}
	return box
}
