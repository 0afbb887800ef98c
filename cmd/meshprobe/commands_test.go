package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/DGMesh/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const latvolTOML = `
strategy = "block"

[mesh]
kind = "latvol"
dims = [3, 3, 3]

[mesh.transform]
translate = [10.0, 0.0, 0.0]

[[query]]
op = "closest_node"
points = [[10.9, 1.1, 0.2], [-5.0, 0.0, 0.0]]
max_dist = 1.0

[[query]]
op = "locate_elem"
random = 16
seed = 2
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latvol.toml")
	require.NoError(t, os.WriteFile(path, []byte(latvolTOML), 0o644))
	return path
}

func TestRunYAML(t *testing.T) {
	out, err := execute(t, "run", writeConfig(t), "--format", "yaml", "-w", "3", "-q")
	require.NoError(t, err)

	var reports []probe.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)

	cn := reports[0]
	assert.Equal(t, "closest_node", cn.Op)
	assert.Equal(t, 1, cn.Hits)
	assert.Equal(t, 4, cn.Results[0].Index)
	assert.Equal(t, [3]float64{11, 1, 0}, cn.Results[0].Closest)
	assert.False(t, cn.Results[1].Found)

	le := reports[1]
	assert.Equal(t, 16, le.Points)
	assert.Equal(t, 16, le.Hits)
	for _, r := range le.Results {
		assert.Len(t, r.Coords, 3)
	}
}

func TestRunSummary(t *testing.T) {
	out, err := execute(t, "run", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "LatVol: 27 nodes, 8 elems")
	assert.Contains(t, out, "closest_node")
	assert.Contains(t, out, "locate_elem")

	_, err = execute(t, "run", writeConfig(t), "--format", "json")
	assert.ErrorContains(t, err, "unknown output format")
	_, err = execute(t, "run")
	assert.Error(t, err)
	_, err = execute(t, "run", writeConfig(t), "-v", "-q")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "LatVol: 27 nodes, 8 elems, 2 queries")
	assert.Contains(t, out, "epsilon")

	_, err = execute(t, "check", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	for _, s := range []string{"PointCloud", "Curve", "Image", "StructQuadSurf", "LatVol", "locate_elems", "closest_elems"} {
		assert.Contains(t, out, s)
	}
}

func TestRunExitCode(t *testing.T) {
	assert.Equal(t, 0, run([]string{"check", writeConfig(t), "-q"}))
	assert.Equal(t, 1, run([]string{"check", filepath.Join(t.TempDir(), "none.toml")}))
	assert.Equal(t, 1, run([]string{"frobnicate"}))
}
