// Package convert runs complete conversions: it builds the unstructured mesh
// of a domain, decomposes and smooths it as configured, derives the index
// document and commits the geometry and index files together.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/notargets/vismesh/config"
	"github.com/notargets/vismesh/decompose"
	"github.com/notargets/vismesh/indexdata"
	"github.com/notargets/vismesh/mapping"
	"github.com/notargets/vismesh/meshio"
	"github.com/notargets/vismesh/smooth"
	"github.com/notargets/vismesh/structured"
	"github.com/notargets/vismesh/utils"
	"github.com/notargets/vismesh/vismesh"
	"golang.org/x/sync/errgroup"
	"path/filepath"
)

// Scheme selects the index document written next to the geometry
type Scheme uint8

const (
	FiniteVolume Scheme = iota
	Chombo
	MovingBoundary
)

func (s Scheme) String() string {
	switch s {
	case FiniteVolume:
		return "FiniteVolume"
	case Chombo:
		return "Chombo"
	case MovingBoundary:
		return "MovingBoundary"
	}
	return fmt.Sprintf("Scheme(%d)", s)
}

// Job describes one (domain, target) conversion. The source is either a
// structured mesh, mapped here, or an already tagged mesh such as one
// built from Chombo data; Mesh takes precedence and is cloned before use.
type Job struct {
	Structured *structured.CartesianMesh
	Mesh       *vismesh.Mesh

	Domain    string
	Scheme    Scheme
	Volume    bool // volume domain, otherwise membrane
	TimeIndex int  // MovingBoundary only

	// Name overrides the base name of the output files
	Name string
}

// OutputName is the base name of the job's geometry and index files: Name
// when set, otherwise the domain, suffixed with "_chombo" for Chombo and
// with "_mb_<time index>" for MovingBoundary
func (j Job) OutputName() string {
	switch {
	case j.Name != "":
		return j.Name
	case j.Scheme == Chombo:
		return j.Domain + "_chombo"
	case j.Scheme == MovingBoundary:
		return fmt.Sprintf("%s_mb_%d", j.Domain, j.TimeIndex)
	}
	return j.Domain
}

// Result reports the committed files of one job
type Result struct {
	RunID        string
	Domain       string
	GeometryFile string
	IndexFile    string
	NumCells     int
	Warnings     vismesh.Warnings
}

type Converter struct {
	Config     *config.Config
	FS         FileSystem
	Decomposer *decompose.Decomposer
	Smoother   *smooth.Smoother
}

// New returns a Converter with the native kernels, configured by cfg
func New(cfg *config.Config, fsys FileSystem) *Converter {
	sm := smooth.New()
	sm.Params = cfg.Smoothing.Params()
	return &Converter{
		Config:     cfg,
		FS:         fsys,
		Decomposer: decompose.New(),
		Smoother:   sm,
	}
}

// Convert runs one job. Both output files are produced in memory first; on
// any fatal error nothing is left on the file system.
func (c *Converter) Convert(job Job) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Domain: job.Domain}
	fail := func(err error) (*Result, error) {
		utils.Opsf("run %s: %s %s conversion of %q failed: %v", res.RunID, job.Scheme, kind(job.Volume), job.Domain, err)
		return nil, err
	}

	m, err := c.buildMesh(job, &res.Warnings)
	if err != nil {
		return fail(err)
	}

	if len(m.IrregularPolyhedra) > 0 && c.Config.Decomposition.Enabled {
		ws, err := c.Decomposer.DecomposeMesh(m)
		if err != nil {
			return fail(fmt.Errorf("decompose %q: %w", job.Domain, err))
		}
		res.Warnings = append(res.Warnings, ws...)
	}

	if c.Config.Smoothing.Enabled && job.Volume && m.Dimension == 3 && len(m.VolumeCells()) > 0 {
		if err := c.Smoother.Smooth(m); err != nil {
			return fail(fmt.Errorf("smooth %q: %w", job.Domain, err))
		}
	}

	doc, grid, err := c.index(job, m, &res.Warnings)
	if err != nil {
		return fail(err)
	}
	if doc.NumRecords() != len(grid.Cells) {
		return fail(fmt.Errorf("%w: %d index records for %d geometry cells",
			vismesh.ErrInternal, doc.NumRecords(), len(grid.Cells)))
	}

	var geometry, index bytes.Buffer
	if err := meshio.WriteVTU(&geometry, grid, c.Config.OutputFormat()); err != nil {
		return fail(err)
	}
	if err := indexdata.Encode(&index, doc); err != nil {
		return fail(err)
	}

	dir := c.Config.Output.Directory
	res.GeometryFile = filepath.Join(dir, job.OutputName()+".vtu")
	res.IndexFile = filepath.Join(dir, job.OutputName()+".json")
	if err := c.commit(dir, res.GeometryFile, geometry.Bytes(), res.IndexFile, index.Bytes()); err != nil {
		return fail(err)
	}
	res.NumCells = len(grid.Cells)

	for _, w := range res.Warnings {
		utils.Opsf("run %s: %s", res.RunID, w)
	}
	utils.Diagf("run %s: %s %s %q -> %s (%d cells), %s", res.RunID, job.Scheme, kind(job.Volume),
		job.Domain, res.GeometryFile, res.NumCells, res.IndexFile)
	return res, nil
}

func (c *Converter) buildMesh(job Job, ws *vismesh.Warnings) (*vismesh.Mesh, error) {
	switch {
	case job.Mesh != nil:
		return job.Mesh.Clone(), nil
	case job.Structured != nil:
		m, w, err := mapping.FromMeshData(job.Structured, job.Domain, job.Volume,
			mapping.Options{Precision: c.Config.Mapping.Precision})
		*ws = append(*ws, w...)
		return m, err
	}
	return nil, fmt.Errorf("%w: job for %q has no source mesh", vismesh.ErrUnsupportedConfiguration, job.Domain)
}

// index builds the index document of the job's scheme and the geometry grid
// whose cells it describes, in the same order
func (c *Converter) index(job Job, m *vismesh.Mesh, ws *vismesh.Warnings) (indexdata.Document, *meshio.Grid, error) {
	var (
		doc indexdata.Document
		w   vismesh.Warnings
		err error
	)
	grid := meshio.VolumeGrid
	switch {
	case job.Scheme == FiniteVolume:
		var fv *indexdata.FiniteVolumeIndexData
		fv, w, err = indexdata.FiniteVolume(m, job.Domain)
		doc = fv
	case job.Scheme == Chombo && job.Volume:
		grid = meshio.ElementGrid
		var ch *indexdata.ChomboIndexData
		ch, w, err = indexdata.ChomboVolume(m, job.Domain)
		doc = ch
	case job.Scheme == Chombo:
		grid = meshio.MembraneGrid
		var ch *indexdata.ChomboIndexData
		ch, w, err = indexdata.ChomboMembrane(m, job.Domain)
		doc = ch
	case job.Scheme == MovingBoundary:
		var mb *indexdata.MovingBoundaryIndexData
		mb, w, err = indexdata.MovingBoundary(m, job.Domain, job.TimeIndex)
		doc = mb
	default:
		err = fmt.Errorf("%w: index scheme %s", vismesh.ErrUnsupportedConfiguration, job.Scheme)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s index for %q: %w", job.Scheme, job.Domain, err)
	}
	*ws = append(*ws, w...)
	return doc, grid(m), nil
}

// commit writes the geometry then the index file, removing the geometry
// file again if the index cannot be written
func (c *Converter) commit(dir, geometryFile string, geometry []byte, indexFile string, index []byte) error {
	if err := c.FS.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := c.FS.WriteFile(geometryFile, geometry, 0o644); err != nil {
		return err
	}
	if err := c.FS.WriteFile(indexFile, index, 0o644); err != nil {
		if rmErr := c.FS.Remove(geometryFile); rmErr != nil {
			utils.Opsf("remove %s after failed commit: %v", geometryFile, rmErr)
		}
		return err
	}
	return nil
}

// ConvertAll runs independent jobs concurrently, at most
// Config.Convert.Parallelism at a time. The first error stops jobs that
// have not started yet and is returned; results are in job order. Jobs that
// would write the same files are rejected before any job runs.
func (c *Converter) ConvertAll(ctx context.Context, jobs []Job) ([]*Result, error) {
	seen := make(map[string]int, len(jobs))
	for i, job := range jobs {
		if j, ok := seen[job.OutputName()]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d both write %q",
				vismesh.ErrUnsupportedConfiguration, j, i, job.OutputName())
		}
		seen[job.OutputName()] = i
	}

	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Config.Convert.Parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Convert(job)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func kind(volume bool) string {
	if volume {
		return "volume"
	}
	return "membrane"
}
