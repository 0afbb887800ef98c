package probe

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/notargets/DGMesh/partitions"
	"github.com/notargets/DGMesh/utils"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure of a probe description
var ErrInvalidConfig = errors.New("invalid probe config")

const DefaultPartitionSize = 256

// Config describes a mesh and the queries to run against it
type Config struct {
	Workers       int           `toml:"workers" yaml:"workers"`               // Concurrent partitions, 0 for GOMAXPROCS
	PartitionSize int           `toml:"partition_size" yaml:"partition_size"` // Query points per partition
	Strategy      string        `toml:"strategy" yaml:"strategy"`             // block, roundrobin or morton
	Mesh          MeshConfig    `toml:"mesh" yaml:"mesh"`
	Queries       []QueryConfig `toml:"query" yaml:"queries"`
}

// MeshConfig describes the mesh to build. Regular and structured kinds take
// Dims; PointCloud, Curve and StructQuadSurf take their node Points.
type MeshConfig struct {
	Kind      string           `toml:"kind" yaml:"kind"`
	Dims      []int            `toml:"dims" yaml:"dims"`
	Min       []float64        `toml:"min" yaml:"min"` // Image and LatVol corners
	Max       []float64        `toml:"max" yaml:"max"`
	Points    [][]float64      `toml:"points" yaml:"points"`
	Elems     [][]int          `toml:"elems" yaml:"elems"` // Curve segments, a polyline when empty
	Transform *TransformConfig `toml:"transform" yaml:"transform"`
}

// TransformConfig is applied to the mesh after it is built: scale, then
// rotation by Angle radians about Axis, then translation
type TransformConfig struct {
	Scale     []float64 `toml:"scale" yaml:"scale"`
	Angle     float64   `toml:"angle" yaml:"angle"`
	Axis      []float64 `toml:"axis" yaml:"axis"`
	Translate []float64 `toml:"translate" yaml:"translate"`
}

// QueryConfig is one query evaluated at every one of its points
type QueryConfig struct {
	Op      string      `toml:"op" yaml:"op"`
	Points  [][]float64 `toml:"points" yaml:"points"`
	Random  int         `toml:"random" yaml:"random"` // Extra points drawn in the mesh bounding box
	Seed    int64       `toml:"seed" yaml:"seed"`
	MaxDist float64     `toml:"max_dist" yaml:"max_dist"`
	Radius  float64     `toml:"radius" yaml:"radius"` // Search radius, or box half width for locate_elems
}

// Load reads a probe description, choosing the decoder from the file
// extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a probe description in the given format, toml or yaml,
// fills in defaults and validates it. Unknown keys are rejected.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, err
		}
		if und := md.Undecoded(); len(und) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, und)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.PartitionSize <= 0 {
		c.PartitionSize = DefaultPartitionSize
	}
	if c.Strategy == "" {
		c.Strategy = partitions.SpaceFillingCurve.String()
	}
}

// Validate checks the description without building the mesh
func (c *Config) Validate() error {
	if _, err := partitions.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Mesh.Kind == "" {
		return fmt.Errorf("%w: mesh kind is required", ErrInvalidConfig)
	}
	if len(c.Queries) == 0 {
		return fmt.Errorf("%w: no queries", ErrInvalidConfig)
	}
	for i, q := range c.Queries {
		if _, err := ParseOp(q.Op); err != nil {
			return fmt.Errorf("%w: query %d: %v", ErrInvalidConfig, i, err)
		}
		if len(q.Points) == 0 && q.Random <= 0 {
			return fmt.Errorf("%w: query %d has no points", ErrInvalidConfig, i)
		}
		if q.Random < 0 {
			return fmt.Errorf("%w: query %d: negative random count", ErrInvalidConfig, i)
		}
		if _, err := toPoints(q.Points); err != nil {
			return fmt.Errorf("%w: query %d: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// toPoint accepts two or three coordinates, z defaulting to zero
func toPoint(c []float64) (utils.Point, error) {
	switch len(c) {
	case 2:
		return utils.NewPoint(c[0], c[1], 0), nil
	case 3:
		return utils.NewPoint(c[0], c[1], c[2]), nil
	}
	return utils.Point{}, fmt.Errorf("point %v needs 2 or 3 coordinates", c)
}

func toPoints(cs [][]float64) ([]utils.Point, error) {
	pts := make([]utils.Point, len(cs))
	for i, c := range cs {
		p, err := toPoint(c)
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}
