package kernel

import (
	"fmt"
	"github.com/notargets/vismesh/utils"
	"gonum.org/v1/gonum/spatial/r3"
	"math"
	"slices"
)

// SmoothParams configures WindowedSinc
type SmoothParams struct {
	Iterations           int
	PassBand             float64 // in (0, 2)
	FeatureAngle         float64 // degrees, used only with FeatureEdgeSmoothing
	BoundarySmoothing    bool
	FeatureEdgeSmoothing bool
	NonManifoldSmoothing bool
	NormalizeCoordinates bool
}

// DefaultSmoothParams returns the configuration used for membrane surfaces
func DefaultSmoothParams() SmoothParams {
	return SmoothParams{
		Iterations:           12,
		PassBand:             0.05,
		FeatureAngle:         120,
		BoundarySmoothing:    false,
		FeatureEdgeSmoothing: false,
		NonManifoldSmoothing: false,
		NormalizeCoordinates: true,
	}
}

// Validate checks the parameter ranges
func (p SmoothParams) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("smoothing iterations must be positive, got %d", p.Iterations)
	}
	if p.PassBand <= 0 || p.PassBand >= 2 {
		return fmt.Errorf("pass band must be in (0, 2), got %g", p.PassBand)
	}
	if p.FeatureAngle < 0 || p.FeatureAngle > 180 {
		return fmt.Errorf("feature angle must be in [0, 180], got %g", p.FeatureAngle)
	}
	return nil
}

// WindowedSinc low-pass filters the surface point positions with a Hamming
// windowed sinc polynomial in the graph Laplacian. It returns one position
// per surface point; s is not modified. Points on boundary or non-manifold
// edges stay fixed unless the matching smoothing flag is set.
func WindowedSinc(s *Surface, p SmoothParams) ([]r3.Vec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for i, poly := range s.Polys {
		for _, v := range poly {
			if v < 0 || v >= len(s.Points) {
				return nil, fmt.Errorf("polygon %d references point %d of %d", i, v, len(s.Points))
			}
		}
	}

	nbrs := smoothingNeighbors(s, p)
	c := sincCoefficients(p.Iterations, p.PassBand)

	x0 := slices.Clone(s.Points)
	var center r3.Vec
	scale := 1.0
	if p.NormalizeCoordinates && len(x0) > 0 {
		box := bounds(x0)
		center = r3.Scale(0.5, r3.Add(box.Min, box.Max))
		if l := max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y, box.Max.Z-box.Min.Z); l > 0 {
			scale = l
		}
		for i := range x0 {
			x0[i] = r3.Scale(1/scale, r3.Sub(x0[i], center))
		}
	}

	laplacian := func(x []r3.Vec, i int) (d r3.Vec) {
		for _, n := range nbrs[i] {
			d = r3.Add(d, r3.Sub(x[n], x[i]))
		}
		return r3.Scale(1/float64(len(nbrs[i])), d)
	}

	// x_1 = x_0 + 0.5 Δx_0, then x_{n+1} = 2 (x_n + 0.5 Δx_n) - x_{n-1}
	prev := x0
	cur := make([]r3.Vec, len(x0))
	out := make([]r3.Vec, len(x0))
	for i := range x0 {
		if nbrs[i] == nil {
			cur[i] = x0[i]
			continue
		}
		cur[i] = r3.Add(x0[i], r3.Scale(0.5, laplacian(x0, i)))
		out[i] = r3.Add(r3.Scale(c[0], x0[i]), r3.Scale(c[1], cur[i]))
	}
	for n := 2; n <= p.Iterations; n++ {
		next := make([]r3.Vec, len(x0))
		for i := range x0 {
			if nbrs[i] == nil {
				next[i] = x0[i]
				continue
			}
			step := r3.Add(cur[i], r3.Scale(0.5, laplacian(cur, i)))
			next[i] = r3.Sub(r3.Scale(2, step), prev[i])
			out[i] = r3.Add(out[i], r3.Scale(c[n], next[i]))
		}
		prev, cur = cur, next
		if utils.TraceEnabled() {
			utils.Tracef("windowed sinc: iteration %d of %d", n, p.Iterations)
		}
	}

	for i := range out {
		if nbrs[i] == nil {
			out[i] = s.Points[i]
			continue
		}
		if p.NormalizeCoordinates {
			out[i] = r3.Add(r3.Scale(scale, out[i]), center)
		}
	}
	return out, nil
}

// sincCoefficients returns the Chebyshev coefficients c[0..n] of the
// windowed sinc transfer function, with the pass band edge shifted so the
// response at the pass band is one
func sincCoefficients(n int, passBand float64) []float64 {
	thetaPB := math.Acos(1 - 0.5*passBand)
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 0.54 + 0.46*math.Cos(float64(i)*math.Pi/float64(n+1))
	}
	c := make([]float64, n+1)
	coefficients := func(sigma float64) {
		c[0] = w[0] * (thetaPB + sigma) / math.Pi
		for i := 1; i <= n; i++ {
			c[i] = 2 * w[i] * math.Sin(float64(i)*(thetaPB+sigma)) / (float64(i) * math.Pi)
		}
	}

	sigma := 0.0
	coefficients(sigma)
	if n <= 1 {
		return c
	}
	for iter := 0; iter < 500; iter++ {
		// f and df/dsigma at the pass band edge, T_i(cos θ) = cos(iθ)
		f, fprime := 0.0, w[0]/math.Pi
		for i := 0; i <= n; i++ {
			f += c[i] * math.Cos(float64(i)*thetaPB)
		}
		if math.Abs(f-1) < 1e-3 {
			break
		}
		for i := 1; i <= n; i++ {
			fprime += 2 * w[i] * math.Cos(float64(i)*(thetaPB+sigma)) / math.Pi * math.Cos(float64(i)*thetaPB)
		}
		if fprime == 0 {
			break
		}
		sigma -= (f - 1) / fprime
		coefficients(sigma)
	}
	return c
}

// smoothingNeighbors returns, per point, the neighbors its Laplacian
// averages over; nil marks a fixed point
func smoothingNeighbors(s *Surface, p SmoothParams) [][]int {
	type edge [2]int
	edgePolys := make(map[edge][]int)
	var edgeOrder []edge
	for pi, poly := range s.Polys {
		for i, a := range poly {
			b := poly[(i+1)%len(poly)]
			if a == b {
				continue
			}
			e := edge{min(a, b), max(a, b)}
			if _, ok := edgePolys[e]; !ok {
				edgeOrder = append(edgeOrder, e)
			}
			edgePolys[e] = append(edgePolys[e], pi)
		}
	}

	cosFeature := math.Cos(p.FeatureAngle * math.Pi / 180)
	all := make([][]int, len(s.Points))
	boundary := make([][]int, len(s.Points))
	feature := make([][]int, len(s.Points))
	nonManifold := make([]bool, len(s.Points))
	link := func(lists [][]int, a, b int) {
		lists[a] = append(lists[a], b)
		lists[b] = append(lists[b], a)
	}
	for _, e := range edgeOrder {
		a, b := e[0], e[1]
		link(all, a, b)
		switch polys := edgePolys[e]; {
		case len(polys) == 1:
			link(boundary, a, b)
		case len(polys) > 2:
			nonManifold[a], nonManifold[b] = true, true
		case p.FeatureEdgeSmoothing:
			n0 := polygonNormal(s.Points, s.Polys[polys[0]])
			n1 := polygonNormal(s.Points, s.Polys[polys[1]])
			if r3.Dot(n0, n1) <= cosFeature {
				link(feature, a, b)
			}
		}
	}

	nbrs := make([][]int, len(s.Points))
	for i := range s.Points {
		switch {
		case len(all[i]) == 0:
		case nonManifold[i] && !p.NonManifoldSmoothing:
		case len(boundary[i]) > 0:
			if p.BoundarySmoothing && len(boundary[i]) == 2 {
				nbrs[i] = boundary[i]
			}
		case len(feature[i]) > 0:
			if len(feature[i]) == 2 {
				nbrs[i] = feature[i]
			}
		default:
			nbrs[i] = all[i]
		}
	}
	return nbrs
}

// polygonNormal is the unit Newell normal of a polygon
func polygonNormal(points []r3.Vec, poly []int) r3.Vec {
	var n r3.Vec
	for i, a := range poly {
		p, q := points[a], points[poly[(i+1)%len(poly)]]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	if r3.Norm(n) == 0 {
		return n
	}
	return r3.Unit(n)
}
