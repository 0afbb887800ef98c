package mesh

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomCloud(rng *rand.Rand, n int, scale utils.Point) *PointCloud {
	pts := make([]utils.Point, n)
	for i := range pts {
		pts[i] = utils.NewPoint(
			rng.Float64()*scale.X, rng.Float64()*scale.Y, rng.Float64()*scale.Z)
	}
	return NewPointCloud(pts...)
}

// topologyPanic runs fn and returns the topology error it panicked with
func topologyPanic(t *testing.T, fn func()) (te *element.TopologyError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		te, ok = r.(*element.TopologyError)
		require.True(t, ok, "panic value %v is not a topology error", r)
	}()
	fn()
	return nil
}

func TestSyncFlagString(t *testing.T) {
	assert.Equal(t, "None", SyncFlag(0).String())
	assert.Equal(t, "NodeLocate|ElemLocate", Locate.String())
	assert.Equal(t, "BoundingBox|Epsilon|NodeLocate", (NodeLocate | Epsilon | BoundingBox).String())
}

func TestSyncDependencies(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(0, 0, 0), utils.NewPoint(1, 2, 3))
	assert.False(t, pc.IsSynchronized(BoundingBox))

	pc.Synchronize(FindClosestNode)
	assert.True(t, pc.IsSynchronized(NodeLocate|Epsilon|BoundingBox))
	assert.False(t, pc.IsSynchronized(ElemLocate))

	// Dropping the bounding box invalidates everything built from it
	pc.Unsynchronize(BoundingBox)
	assert.False(t, pc.IsSynchronized(Epsilon))
	assert.False(t, pc.IsSynchronized(NodeLocate))

	pc.Synchronize(ElemNeighbors)
	assert.True(t, pc.IsSynchronized(NodeNeighbors))
	pc.Unsynchronize(NodeNeighbors)
	assert.False(t, pc.IsSynchronized(ElemNeighbors))
}

func TestClearSynchronizationIdempotent(t *testing.T) {
	pc := randomCloud(rand.New(rand.NewSource(1)), 50, utils.NewPoint(1, 1, 1))
	pc.Synchronize(AllSync)
	require.True(t, pc.IsSynchronized(AllSync))

	pc.ClearSynchronization()
	pc.ClearSynchronization()
	for _, f := range buildOrder {
		assert.False(t, pc.IsSynchronized(f), f.String())
	}
	n, ok := pc.LocateNode(pc.Point(3), element.NoNode)
	assert.False(t, ok)
	assert.Equal(t, element.NoNode, n)

	pc.Synchronize(Locate)
	n, ok = pc.LocateNode(pc.Point(3), element.NoNode)
	assert.True(t, ok)
	assert.Equal(t, element.NodeIndex(3), n)
}

func TestConcurrentSynchronizeBuildsOnce(t *testing.T) {
	hook := logtest.NewLocal(Log)
	level := Log.GetLevel()
	Log.SetLevel(logrus.DebugLevel)
	defer Log.SetLevel(level)

	pc := randomCloud(rand.New(rand.NewSource(2)), 2000, utils.NewPoint(3, 2, 1))
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pc.Synchronize(Locate)
		}()
	}
	wg.Wait()
	require.True(t, pc.IsSynchronized(Locate))

	builds := map[string]int{}
	for _, e := range hook.AllEntries() {
		if e.Message == "built search grid" {
			builds[e.Data["table"].(string)]++
		}
	}
	assert.Equal(t, map[string]int{"NodeLocate": 1, "ElemLocate": 1}, builds)

	for i := 0; i < pc.NumNodes(); i += 97 {
		n, ok := pc.LocateNode(pc.Point(element.NodeIndex(i)), element.NoNode)
		assert.True(t, ok)
		assert.Equal(t, element.NodeIndex(i), n)
	}
}

func TestDebugMissingSynchronization(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(0, 0, 0))
	_, ok := pc.FindClosestNode(utils.NewPoint(0, 0, 0), 0)
	assert.False(t, ok)

	Debug = true
	defer func() { Debug = false }()
	assert.Panics(t, func() { pc.FindClosestNode(utils.NewPoint(0, 0, 0), 0) })
	pc.Synchronize(FindClosestNode)
	assert.NotPanics(t, func() { pc.FindClosestNode(utils.NewPoint(0, 0, 0), 0) })
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{PointCloudKind, CurveKind, ImageKind, StructQuadSurfKind, LatVolKind} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("latvol")
	require.NoError(t, err)
	assert.Equal(t, LatVolKind, got)

	_, err = ParseKind("TetVol")
	assert.ErrorIs(t, err, ErrUnknownMeshKind)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestHandleStale(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(0, 0, 0), utils.NewPoint(1, 0, 0))
	h := NewHandle(pc)
	assert.False(t, h.Stale())

	pc.AddNode(utils.NewPoint(2, 0, 0))
	pc.SetPoint(0, utils.NewPoint(-1, 0, 0))
	assert.False(t, h.Stale())
	assert.Equal(t, 3, h.Mesh().NumNodes())

	require.NoError(t, pc.DeleteNode(1))
	assert.True(t, h.Stale())
	assert.Panics(t, func() { h.Mesh() })
	assert.True(t, Handle{}.Stale())
	assert.Panics(t, func() { Handle{}.Mesh() })

	im := NewImage(3, 3)
	h = NewHandle(im)
	im.SetDim(4, 4)
	assert.True(t, h.Stale())
}
