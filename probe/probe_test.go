package probe

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/mesh"
	"github.com/notargets/DGMesh/partitions"
	"github.com/notargets/DGMesh/utils"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageTOML = `
workers = 2
partition_size = 2
strategy = "block"

[mesh]
kind = "Image"
dims = [4, 4]

[[query]]
op = "locate_node"
points = [[2.0, 1.0, 0.0], [2.5, 1.0]]

[[query]]
op = "closest_node"
points = [[2.49, 1.0, 0.0]]
max_dist = 0.6

[[query]]
op = "locate_elem"
points = [[2.5, 1.5, 0.0]]

[[query]]
op = "closest_elems"
points = [[1.0, 1.0, 5.0]]
`

const cloudYAML = `
mesh:
  kind: pointcloud
  points:
    - [0, 0, 0]
    - [1, 0, 0]
    - [0, 1, 0]
queries:
  - op: closest_node
    points: [[0.9, 0.1, 0]]
  - op: closest_nodes
    points: [[0, 0, 0]]
    radius: 1
`

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(imageTOML), "toml")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 2, cfg.PartitionSize)
	assert.Equal(t, "block", cfg.Strategy)
	assert.Equal(t, "Image", cfg.Mesh.Kind)
	assert.Equal(t, []int{4, 4}, cfg.Mesh.Dims)
	require.Len(t, cfg.Queries, 4)
	assert.Equal(t, [][]float64{{2, 1, 0}, {2.5, 1}}, cfg.Queries[0].Points)
	assert.Equal(t, 0.6, cfg.Queries[1].MaxDist)

	_, err = Parse([]byte(imageTOML+"\ncolour = 1\n"), "toml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(cloudYAML), "yml")
	require.NoError(t, err)
	assert.Equal(t, "pointcloud", cfg.Mesh.Kind)
	assert.Len(t, cfg.Mesh.Points, 3)
	assert.Equal(t, 1., cfg.Queries[1].Radius)

	// Defaults
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, DefaultPartitionSize, cfg.PartitionSize)
	assert.Equal(t, partitions.SpaceFillingCurve.String(), cfg.Strategy)

	_, err = Parse([]byte("mesh: {kind: Image, dimz: [2, 2]}\n"), "yaml")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		data, format string
	}{
		"format":   {cloudYAML, "json"},
		"kind":     {"queries: [{op: closest_node, points: [[0, 0]]}]", "yaml"},
		"op":       {"mesh: {kind: Curve}\nqueries: [{op: nearest, points: [[0, 0]]}]", "yaml"},
		"points":   {"mesh: {kind: Curve}\nqueries: [{op: closest_node}]", "yaml"},
		"arity":    {"mesh: {kind: Curve}\nqueries: [{op: closest_node, points: [[0]]}]", "yaml"},
		"queries":  {"mesh: {kind: Curve}", "yaml"},
		"strategy": {"strategy: metis\nmesh: {kind: Curve}\nqueries: [{op: closest_node, random: 3}]", "yaml"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.toml")
	require.NoError(t, os.WriteFile(path, []byte(imageTOML), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Image", cfg.Mesh.Kind)

	path = filepath.Join(dir, "probe.YAML")
	require.NoError(t, os.WriteFile(path, []byte(cloudYAML), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pointcloud", cfg.Mesh.Kind)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildMesh(t *testing.T) {
	t.Run("curve", func(t *testing.T) {
		m, err := BuildMesh(MeshConfig{
			Kind:   "curve",
			Points: [][]float64{{0, 0}, {1, 0}, {1, 1}},
			Elems:  [][]int{{0, 1}, {1, 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumElems())

		_, err = BuildMesh(MeshConfig{Kind: "curve", Points: [][]float64{{0, 0}}, Elems: [][]int{{0, 5}}})
		assert.ErrorIs(t, err, mesh.ErrIndexOutOfRange)
	})
	t.Run("image", func(t *testing.T) {
		m, err := BuildMesh(MeshConfig{Kind: "Image", Dims: []int{3, 3}, Min: []float64{0, 0, 0}, Max: []float64{2, 4, 0}})
		require.NoError(t, err)
		assert.Equal(t, utils.NewPoint(2, 4, 0), m.Point(8))

		_, err = BuildMesh(MeshConfig{Kind: "Image", Dims: []int{3, 3}, Min: []float64{0, 0, 0}})
		assert.Error(t, err)
		_, err = BuildMesh(MeshConfig{Kind: "Image", Dims: []int{3, 0}})
		assert.Error(t, err)
		_, err = BuildMesh(MeshConfig{Kind: "Image", Dims: []int{3, 3, 3}})
		assert.Error(t, err)
	})
	t.Run("latvol", func(t *testing.T) {
		m, err := BuildMesh(MeshConfig{
			Kind:      "LatVol",
			Dims:      []int{2, 2, 2},
			Transform: &TransformConfig{Scale: []float64{2, 2, 2}, Translate: []float64{1, 2, 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, utils.NewPoint(1, 2, 3), m.Point(0))
		assert.Equal(t, utils.NewPoint(3, 4, 5), m.Point(7))

		_, err = BuildMesh(MeshConfig{
			Kind:      "LatVol",
			Dims:      []int{2, 2, 2},
			Transform: &TransformConfig{Angle: 1, Axis: []float64{0, 0, 0}},
		})
		assert.Error(t, err)
		_, err = BuildMesh(MeshConfig{
			Kind:      "LatVol",
			Dims:      []int{2, 2, 2},
			Transform: &TransformConfig{Scale: []float64{1, 1}},
		})
		assert.ErrorIs(t, err, utils.ErrSingularTransform)
	})
	t.Run("structquadsurf", func(t *testing.T) {
		m, err := BuildMesh(MeshConfig{
			Kind:   "StructQuadSurf",
			Dims:   []int{2, 2},
			Points: [][]float64{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}},
		})
		require.NoError(t, err)
		assert.InDelta(t, 1, m.Size(0), 1e-12)

		_, err = BuildMesh(MeshConfig{Kind: "StructQuadSurf", Dims: []int{2, 2}, Points: [][]float64{{0, 0}}})
		assert.Error(t, err)
	})
	_, err := BuildMesh(MeshConfig{Kind: "TetVol"})
	assert.ErrorIs(t, err, mesh.ErrUnknownMeshKind)
}

func TestRunImage(t *testing.T) {
	hook := logtest.NewLocal(Log)
	cfg, err := Parse([]byte(imageTOML), "toml")
	require.NoError(t, err)
	m, err := BuildMesh(cfg.Mesh)
	require.NoError(t, err)

	reports, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)
	require.Len(t, reports, 4)

	ln := reports[0]
	assert.Equal(t, "locate_node", ln.Op)
	assert.Equal(t, 2, ln.Points)
	assert.Equal(t, 1, ln.Hits)
	assert.Equal(t, 1, ln.Partitions)
	assert.True(t, ln.Results[0].Found)
	assert.Equal(t, 6, ln.Results[0].Index)
	assert.False(t, ln.Results[1].Found)
	assert.Equal(t, -1, ln.Results[1].Index)

	cn := reports[1].Results[0]
	assert.Equal(t, 6, cn.Index)
	assert.InDelta(t, 0.49, cn.Dist, 1e-12)
	assert.Equal(t, [3]float64{2, 1, 0}, cn.Closest)
	require.NotNil(t, reports[1].Dist)
	assert.InDelta(t, 0.49, reports[1].Dist.Mean, 1e-12)

	le := reports[2].Results[0]
	assert.Equal(t, 5, le.Index)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, le.Coords, 1e-12)

	ce := reports[3].Results[0]
	assert.Equal(t, []int{0, 1, 3, 4}, ce.Indices)
	assert.InDelta(t, 5, ce.Dist, 1e-12)

	ran := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "ran query" {
			ran++
		}
	}
	assert.Equal(t, 4, ran)
	assert.True(t, m.IsSynchronized(mesh.Locate))
}

func TestRunMatchesDirectQueries(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	var pts [][]float64
	for i := 0; i < 300; i++ {
		pts = append(pts, []float64{rng.Float64() * 4, rng.Float64() * 2, rng.Float64()})
	}
	cfg := &Config{
		Workers:       4,
		PartitionSize: 16,
		Strategy:      "morton",
		Mesh:          MeshConfig{Kind: "PointCloud", Points: pts},
		Queries: []QueryConfig{
			{Op: "closest_node", Random: 400, Seed: 3},
			{Op: "locate_node", Points: pts[:20]},
			{Op: "closest_nodes", Random: 50, Seed: 9, Radius: 0.3},
		},
	}
	require.NoError(t, cfg.Validate())
	m, err := BuildMesh(cfg.Mesh)
	require.NoError(t, err)

	reports, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)

	cn := reports[0]
	assert.Equal(t, 400, cn.Points)
	assert.Equal(t, 400, cn.Hits)
	assert.Equal(t, 25, cn.Partitions)
	for _, r := range cn.Results {
		p := utils.NewPoint(r.Point[0], r.Point[1], r.Point[2])
		assert.True(t, m.BoundingBox().Contains(p))
		want, ok := m.FindClosestNode(p, 0)
		require.True(t, ok)
		assert.Equal(t, int(want.Node), r.Index)
		assert.Equal(t, want.Dist, r.Dist)
	}
	assert.LessOrEqual(t, cn.Dist.Min, cn.Dist.Mean)
	assert.LessOrEqual(t, cn.Dist.Mean, cn.Dist.Max)

	for i, r := range reports[1].Results {
		assert.True(t, r.Found)
		assert.Equal(t, i, r.Index)
		assert.Zero(t, r.Dist)
	}

	for _, r := range reports[2].Results {
		p := utils.NewPoint(r.Point[0], r.Point[1], r.Point[2])
		want := m.FindClosestNodes(p, 0.3)
		assert.Equal(t, len(want) > 0, r.Found)
		for j, n := range want {
			assert.Equal(t, int(n), r.Indices[j])
		}
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := &Config{
		Workers:       1,
		PartitionSize: 4,
		Strategy:      "roundrobin",
		Mesh:          MeshConfig{Kind: "Curve", Points: [][]float64{{0, 0}, {1, 0}, {1, 1}}},
		Queries:       []QueryConfig{{Op: "closest_elem", Random: 20}},
	}
	m, err := BuildMesh(cfg.Mesh)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, m, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyMesh(t *testing.T) {
	cfg := &Config{
		Workers:       2,
		PartitionSize: 8,
		Strategy:      "block",
		Mesh:          MeshConfig{Kind: "PointCloud"},
		Queries: []QueryConfig{
			{Op: "closest_node", Points: [][]float64{{1, 2, 3}}, Random: 5},
			{Op: "locate_elems", Points: [][]float64{{0, 0, 0}}, Radius: 1},
		},
	}
	m, err := BuildMesh(cfg.Mesh)
	require.NoError(t, err)
	reports, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].Points)
	assert.Zero(t, reports[0].Hits)
	assert.Nil(t, reports[0].Dist)
	assert.Equal(t, -1, reports[0].Results[0].Index)
	assert.False(t, reports[1].Results[0].Found)
}

func TestOps(t *testing.T) {
	for o := LocateNode; o <= ClosestElems; o++ {
		got, err := ParseOp(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	assert.Equal(t, mesh.NodeLocate, ClosestNodes.Sync())
	assert.Equal(t, mesh.ElemLocate, LocateElems.Sync())
	assert.Equal(t, "Op(12)", Op(12).String())

	hintN, hintE := element.NoNode, element.NoElem
	m := mesh.NewPolyline(utils.NewPoint(0, 0, 0), utils.NewPoint(2, 0, 0))
	m.Synchronize(mesh.Locate)
	r := query(m, LocateElem, QueryConfig{}, utils.NewPoint(0.5, 0, 0), &hintN, &hintE)
	assert.True(t, r.Found)
	assert.Equal(t, element.ElemIndex(0), hintE)
	assert.InDeltaSlice(t, []float64{0.25}, r.Coords, 1e-12)
}
