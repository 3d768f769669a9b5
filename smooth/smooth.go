// Package smooth smooths the boundary surface of a 3D volume mesh in place,
// leaving interior points where they are.
package smooth

import (
	"fmt"
	"github.com/notargets/vismesh/kernel"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// SurfaceKernel extracts a boundary surface that remembers its mesh point
// ids, and smooths a surface
type SurfaceKernel interface {
	ExtractBoundary(m *vismesh.Mesh) (*kernel.Surface, error)
	Smooth(s *kernel.Surface, params kernel.SmoothParams) ([]r3.Vec, error)
}

// Smoother moves the boundary points of a mesh to their smoothed positions
type Smoother struct {
	Kernel SurfaceKernel
	Params kernel.SmoothParams
}

// New returns a Smoother with the native kernel and default parameters
func New() *Smoother {
	return &Smoother{Kernel: kernel.Native{}, Params: kernel.DefaultSmoothParams()}
}

// Smooth replaces the coordinates of every boundary point of m by its
// smoothed position. Only 3D meshes are supported. If the kernel output
// cannot be mapped back onto m, m is left unmodified.
func (s *Smoother) Smooth(m *vismesh.Mesh) error {
	if m.Dimension != 3 {
		return fmt.Errorf("%w: smoothing a %dD mesh", vismesh.ErrUnsupportedConfiguration, m.Dimension)
	}
	surface, err := s.Kernel.ExtractBoundary(m)
	if err != nil {
		return fmt.Errorf("extract boundary: %w", err)
	}
	smoothed, err := s.Kernel.Smooth(surface, s.Params)
	if err != nil {
		return fmt.Errorf("smooth surface: %w", err)
	}

	if len(surface.OriginalIDs) != len(surface.Points) || len(smoothed) != len(surface.Points) {
		return fmt.Errorf("%w: surface has %d points, %d original ids, %d smoothed points",
			vismesh.ErrInternal, len(surface.Points), len(surface.OriginalIDs), len(smoothed))
	}
	seen := make(map[int]bool, len(surface.OriginalIDs))
	for i, id := range surface.OriginalIDs {
		if id < 0 || id >= len(m.Points) {
			return fmt.Errorf("%w: surface point %d maps to mesh point %d of %d",
				vismesh.ErrInternal, i, id, len(m.Points))
		}
		if seen[id] {
			return fmt.Errorf("%w: mesh point %d appears twice on the surface", vismesh.ErrInternal, id)
		}
		seen[id] = true
	}

	var maxShift float64
	for i, id := range surface.OriginalIDs {
		maxShift = max(maxShift, r3.Norm(r3.Sub(smoothed[i], m.Points[id])))
		m.Points[id] = smoothed[i]
	}
	utils.Diagf("smoothing: moved %d of %d points, max displacement %g",
		len(surface.OriginalIDs), len(m.Points), maxShift)
	return nil
}
