// Package config holds the conversion settings: point precision,
// decomposition and smoothing switches, output location and parallelism.
package config

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/notargets/vismesh/kernel"
	"github.com/notargets/vismesh/meshio"
	"github.com/notargets/vismesh/vismesh"
	"os"
	"path/filepath"
)

// MaxFileSize bounds the size of a configuration file
const MaxFileSize = 1 << 20

type Mapping struct {
	Precision int `json:"precision"` // decimal digits of the point dedup key
}

type Decomposition struct {
	Enabled bool `json:"enabled"`
}

// Smoothing mirrors kernel.SmoothParams plus an on/off switch
type Smoothing struct {
	Enabled              bool    `json:"enabled"`
	Iterations           int     `json:"iterations"`
	PassBand             float64 `json:"passBand"`
	FeatureAngle         float64 `json:"featureAngle"`
	BoundarySmoothing    bool    `json:"boundarySmoothing"`
	FeatureEdgeSmoothing bool    `json:"featureEdgeSmoothing"`
	NonManifoldSmoothing bool    `json:"nonManifoldSmoothing"`
	NormalizeCoordinates bool    `json:"normalizeCoordinates"`
}

// Params returns the kernel parameters for these settings
func (s Smoothing) Params() kernel.SmoothParams {
	return kernel.SmoothParams{
		Iterations:           s.Iterations,
		PassBand:             s.PassBand,
		FeatureAngle:         s.FeatureAngle,
		BoundarySmoothing:    s.BoundarySmoothing,
		FeatureEdgeSmoothing: s.FeatureEdgeSmoothing,
		NonManifoldSmoothing: s.NonManifoldSmoothing,
		NormalizeCoordinates: s.NormalizeCoordinates,
	}
}

type Output struct {
	Directory string `json:"directory"`
	Format    string `json:"format"` // "ascii" or "binary"
}

type Convert struct {
	Parallelism int `json:"parallelism"`
}

// Config is the resolved configuration; every field holds a usable value
type Config struct {
	Mapping       Mapping       `json:"mapping"`
	Decomposition Decomposition `json:"decomposition"`
	Smoothing     Smoothing     `json:"smoothing"`
	Output        Output        `json:"output"`
	Convert       Convert       `json:"convert"`
}

// Default returns the built-in configuration
func Default() *Config {
	sp := kernel.DefaultSmoothParams()
	return &Config{
		Mapping:       Mapping{Precision: vismesh.DefaultPrecision},
		Decomposition: Decomposition{Enabled: true},
		Smoothing: Smoothing{
			Enabled:              true,
			Iterations:           sp.Iterations,
			PassBand:             sp.PassBand,
			FeatureAngle:         sp.FeatureAngle,
			BoundarySmoothing:    sp.BoundarySmoothing,
			FeatureEdgeSmoothing: sp.FeatureEdgeSmoothing,
			NonManifoldSmoothing: sp.NonManifoldSmoothing,
			NormalizeCoordinates: sp.NormalizeCoordinates,
		},
		Output:  Output{Directory: ".", Format: meshio.ASCII.String()},
		Convert: Convert{Parallelism: 4},
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Mapping.Precision < 1 || c.Mapping.Precision > 15 {
		return fmt.Errorf("mapping.precision must be in [1, 15], got %d", c.Mapping.Precision)
	}
	if c.Smoothing.Enabled {
		if err := c.Smoothing.Params().Validate(); err != nil {
			return fmt.Errorf("smoothing: %w", err)
		}
	}
	if _, err := meshio.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory must not be empty")
	}
	if c.Convert.Parallelism < 1 {
		return fmt.Errorf("convert.parallelism must be positive, got %d", c.Convert.Parallelism)
	}
	return nil
}

// OutputFormat returns the parsed output format
func (c *Config) OutputFormat() meshio.Format {
	f, _ := meshio.ParseFormat(c.Output.Format)
	return f
}

// File schema: omitted fields keep their defaults
type fileConfig struct {
	Mapping *struct {
		Precision *int `json:"precision,omitempty"`
	} `json:"mapping,omitempty"`
	Decomposition *struct {
		Enabled *bool `json:"enabled,omitempty"`
	} `json:"decomposition,omitempty"`
	Smoothing *struct {
		Enabled              *bool    `json:"enabled,omitempty"`
		Iterations           *int     `json:"iterations,omitempty"`
		PassBand             *float64 `json:"passBand,omitempty"`
		FeatureAngle         *float64 `json:"featureAngle,omitempty"`
		BoundarySmoothing    *bool    `json:"boundarySmoothing,omitempty"`
		FeatureEdgeSmoothing *bool    `json:"featureEdgeSmoothing,omitempty"`
		NonManifoldSmoothing *bool    `json:"nonManifoldSmoothing,omitempty"`
		NormalizeCoordinates *bool    `json:"normalizeCoordinates,omitempty"`
	} `json:"smoothing,omitempty"`
	Output *struct {
		Directory *string `json:"directory,omitempty"`
		Format    *string `json:"format,omitempty"`
	} `json:"output,omitempty"`
	Convert *struct {
		Parallelism *int `json:"parallelism,omitempty"`
	} `json:"convert,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (f *fileConfig) overlay(c *Config) {
	if m := f.Mapping; m != nil {
		set(&c.Mapping.Precision, m.Precision)
	}
	if d := f.Decomposition; d != nil {
		set(&c.Decomposition.Enabled, d.Enabled)
	}
	if s := f.Smoothing; s != nil {
		set(&c.Smoothing.Enabled, s.Enabled)
		set(&c.Smoothing.Iterations, s.Iterations)
		set(&c.Smoothing.PassBand, s.PassBand)
		set(&c.Smoothing.FeatureAngle, s.FeatureAngle)
		set(&c.Smoothing.BoundarySmoothing, s.BoundarySmoothing)
		set(&c.Smoothing.FeatureEdgeSmoothing, s.FeatureEdgeSmoothing)
		set(&c.Smoothing.NonManifoldSmoothing, s.NonManifoldSmoothing)
		set(&c.Smoothing.NormalizeCoordinates, s.NormalizeCoordinates)
	}
	if o := f.Output; o != nil {
		set(&c.Output.Directory, o.Directory)
		set(&c.Output.Format, o.Format)
	}
	if cv := f.Convert; cv != nil {
		set(&c.Convert.Parallelism, cv.Parallelism)
	}
}

// Parse overlays a JSON document on Default and validates the result
func Parse(data []byte) (*Config, error) {
	var f fileConfig
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg := Default()
	f.overlay(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load reads a .json configuration file of at most MaxFileSize bytes.
// Fields omitted from the file keep their Default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}
