package smooth

import (
	"errors"
	"github.com/notargets/vismesh/kernel"
	"github.com/notargets/vismesh/vismesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"slices"
	"testing"
)

func blockMesh(t *testing.T, n int) *vismesh.Mesh {
	t.Helper()
	m, err := vismesh.NewMesh(3, r3.Vec{}, r3.Vec{X: float64(n), Y: float64(n), Z: float64(n)})
	require.NoError(t, err)
	reg := vismesh.NewPointRegistry(vismesh.DefaultPrecision)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				var v vismesh.Voxel
				for c := 0; c < 8; c++ {
					v.PointIndices[c] = reg.GetOrInsert(r3.Vec{
						X: float64(i + c&1), Y: float64(j + (c>>1)&1), Z: float64(k + (c>>2)&1),
					})
				}
				m.Voxels = append(m.Voxels, v)
			}
		}
	}
	m.Points = reg.Points()
	return m
}

func TestSmooth_InteriorPointsFixed(t *testing.T) {
	m := blockMesh(t, 2)
	before := slices.Clone(m.Points)
	require.NoError(t, New().Smooth(m))

	center := r3.Vec{X: 1, Y: 1, Z: 1}
	moved := 0
	for i, p := range m.Points {
		if before[i] == center {
			assert.Equal(t, center, p)
			continue
		}
		if p != before[i] {
			moved++
		}
	}
	assert.Equal(t, 26, moved)
}

// badKernel wraps the native kernel and corrupts its output
type badKernel struct {
	kernel.Native
	corrupt func(s *kernel.Surface, out []r3.Vec) []r3.Vec
}

func (b badKernel) Smooth(s *kernel.Surface, p kernel.SmoothParams) ([]r3.Vec, error) {
	out, err := b.Native.Smooth(s, p)
	if err != nil {
		return nil, err
	}
	return b.corrupt(s, out), nil
}

func TestSmooth_BadKernelOutput(t *testing.T) {
	for name, corrupt := range map[string]func(s *kernel.Surface, out []r3.Vec) []r3.Vec{
		"short output": func(s *kernel.Surface, out []r3.Vec) []r3.Vec { return out[1:] },
		"out of range id": func(s *kernel.Surface, out []r3.Vec) []r3.Vec {
			s.OriginalIDs[0] = 1000
			return out
		},
		"duplicate id": func(s *kernel.Surface, out []r3.Vec) []r3.Vec {
			s.OriginalIDs[1] = s.OriginalIDs[0]
			return out
		},
	} {
		t.Run(name, func(t *testing.T) {
			m := blockMesh(t, 2)
			before := slices.Clone(m.Points)
			sm := &Smoother{Kernel: badKernel{corrupt: corrupt}, Params: kernel.DefaultSmoothParams()}
			err := sm.Smooth(m)
			assert.True(t, errors.Is(err, vismesh.ErrInternal), "got %v", err)
			assert.Equal(t, before, m.Points)
		})
	}
}

func TestSmooth_Unsupported2D(t *testing.T) {
	m, err := vismesh.NewMesh(2, r3.Vec{}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	assert.True(t, errors.Is(New().Smooth(m), vismesh.ErrUnsupportedConfiguration))
}

func TestSmooth_NonManifold(t *testing.T) {
	m, err := vismesh.NewMesh(3, r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 3, Y: 3, Z: 3})
	require.NoError(t, err)
	m.Points = []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {Z: -1}, {X: 1, Y: 1, Z: 1}}
	for _, apex := range []int{3, 4, 5} {
		m.Tetrahedra = append(m.Tetrahedra, vismesh.Tetrahedron{PointIndices: [4]int{0, 1, 2, apex}})
	}
	before := slices.Clone(m.Points)

	err = New().Smooth(m)
	assert.True(t, errors.Is(err, vismesh.ErrInternal))
	assert.Equal(t, before, m.Points)
}
