package mesh

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func bruteClosestNode(m VMesh, p utils.Point) (element.NodeIndex, float64) {
	best, best2 := element.NoNode, math.Inf(1)
	for n := 0; n < m.NumNodes(); n++ {
		if d2 := utils.Dist2(p, m.Point(element.NodeIndex(n))); d2 < best2 {
			best, best2 = element.NodeIndex(n), d2
		}
	}
	return best, math.Sqrt(best2)
}

func TestEmptyPointCloud(t *testing.T) {
	pc := NewPointCloud()
	pc.Synchronize(AllSync)
	assert.Equal(t, 0, pc.NumNodes())
	assert.False(t, pc.BoundingBox().Valid())

	n, ok := pc.LocateNode(utils.NewPoint(0, 0, 0), element.NoNode)
	assert.False(t, ok)
	assert.Equal(t, element.NoNode, n)
	_, ok = pc.FindClosestNode(utils.NewPoint(1, 2, 3), 0)
	assert.False(t, ok)
	_, ok = pc.FindClosestElem(utils.NewPoint(1, 2, 3), 0)
	assert.False(t, ok)
	_, _, _, ok = pc.FindClosestElems(utils.NewPoint(1, 2, 3))
	assert.False(t, ok)
	assert.Empty(t, pc.FindClosestNodes(utils.NewPoint(0, 0, 0), 10))
}

func TestSinglePointCloud(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(1, 1, 1))
	pc.Synchronize(Locate)
	assert.Equal(t, 0., pc.Epsilon())
	n, ok := pc.LocateNode(utils.NewPoint(1, 1, 1), element.NoNode)
	require.True(t, ok)
	assert.Equal(t, element.NodeIndex(0), n)
	c, ok := pc.FindClosestNode(utils.NewPoint(4, 5, 1), 0)
	require.True(t, ok)
	assert.InDelta(t, 5, c.Dist, 1e-12)
}

func TestPointCloudQueriesMatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, scale := range []utils.Point{
		utils.NewPoint(1, 1, 1),
		utils.NewPoint(500, 1, 0.02),
		utils.NewPoint(4, 4, 0),
	} {
		pc := randomCloud(rng, 400, scale)
		pc.Synchronize(Locate)
		for i := 0; i < 150; i++ {
			p := utils.NewPoint(
				(rng.Float64()*1.4-0.2)*scale.X,
				(rng.Float64()*1.4-0.2)*scale.Y,
				(rng.Float64()*1.4-0.2)*scale.Z)
			want, wantDist := bruteClosestNode(pc, p)

			got, ok := pc.FindClosestNode(p, 0)
			require.True(t, ok)
			assert.InDelta(t, wantDist, got.Dist, 1e-12)
			assert.Equal(t, pc.Point(want), got.Point)

			e, ok := pc.FindClosestElem(p, 0)
			require.True(t, ok)
			assert.Equal(t, element.ElemIndex(want), e.Elem)
			assert.InDelta(t, wantDist, e.Dist, 1e-12)

			r := wantDist * 1.5
			var brute []element.NodeIndex
			for n := 0; n < pc.NumNodes(); n++ {
				if utils.Dist(p, pc.Point(element.NodeIndex(n))) <= r {
					brute = append(brute, element.NodeIndex(n))
				}
			}
			assert.Equal(t, brute, pc.FindClosestNodes(p, r))
		}
		for n := 0; n < pc.NumNodes(); n += 7 {
			got, ok := pc.LocateNode(pc.Point(element.NodeIndex(n)), element.NoNode)
			require.True(t, ok)
			assert.Equal(t, element.NodeIndex(n), got)
		}
	}
}

func TestFindClosestNodeMaxDist(t *testing.T) {
	pc := NewPointCloud(
		utils.NewPoint(0, 0, 0), utils.NewPoint(10, 0, 0), utils.NewPoint(0, 10, 0))
	pc.Synchronize(FindClosestNode)
	p := utils.NewPoint(3, 4, 0)

	_, ok := pc.FindClosestNode(p, 4.999)
	assert.False(t, ok)
	prev := math.Inf(1)
	for _, maxDist := range []float64{5, 6, 50, 0} {
		c, ok := pc.FindClosestNode(p, maxDist)
		require.True(t, ok, "maxDist %g", maxDist)
		assert.Equal(t, element.NodeIndex(0), c.Node)
		assert.InDelta(t, 5, c.Dist, 1e-12)
		assert.LessOrEqual(t, c.Dist, prev)
		prev = c.Dist
	}
}

// The closest point sits alone in an empty interior between two dense rows
func TestFindClosestNodeSparseInterior(t *testing.T) {
	var pts []utils.Point
	for i := 0; i <= 20; i++ {
		pts = append(pts, utils.NewPoint(float64(i), 0, 0), utils.NewPoint(float64(i), 20, 0))
	}
	pts = append(pts, utils.NewPoint(10, 13, 0))
	pc := NewPointCloud(pts...)
	pc.Synchronize(FindClosestNode)

	p := utils.NewPoint(10, 9.9, 0)
	c, ok := pc.FindClosestNode(p, 0)
	require.True(t, ok)
	assert.Equal(t, element.NodeIndex(len(pts)-1), c.Node)
	assert.InDelta(t, 3.1, c.Dist, 1e-12)
}

func TestPointCloudLocateHint(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(0, 0, 0), utils.NewPoint(1, 0, 0))
	pc.Synchronize(Locate)
	n, ok := pc.LocateNode(utils.NewPoint(1, 0, 0), 1)
	assert.True(t, ok)
	assert.Equal(t, element.NodeIndex(1), n)
	n, ok = pc.LocateNode(utils.NewPoint(1, 0, 0), 0)
	assert.True(t, ok)
	assert.Equal(t, element.NodeIndex(1), n)
	_, ok = pc.LocateNode(utils.NewPoint(0.5, 0, 0), 7)
	assert.False(t, ok)

	e, coords, ok := pc.LocateElemCoords(utils.NewPoint(0, 0, 0), element.NoElem)
	require.True(t, ok)
	assert.Equal(t, element.ElemIndex(0), e)
	assert.Empty(t, coords)
}

func TestPointCloudEdits(t *testing.T) {
	pc := NewPointCloud()
	pc.Reserve(4, 0)
	for i := 0; i < 4; i++ {
		assert.Equal(t, element.NodeIndex(i), pc.AddNode(utils.NewPoint(float64(i), 0, 0)))
	}
	e, err := pc.AddElem(2)
	require.NoError(t, err)
	assert.Equal(t, element.ElemIndex(4), e)
	assert.Equal(t, pc.Point(2), pc.Point(4))

	_, err = pc.AddElem(9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = pc.AddElem(0, 1)
	assert.Error(t, err)

	gen := pc.Generation()
	require.NoError(t, pc.DeleteNode(0))
	assert.Equal(t, gen+1, pc.Generation())
	assert.Equal(t, 4, pc.NumNodes())
	assert.Equal(t, utils.NewPoint(1, 0, 0), pc.Point(0))
	assert.ErrorIs(t, pc.DeleteElem(4), ErrIndexOutOfRange)
	assert.ErrorIs(t, pc.DeleteNode(-1), ErrIndexOutOfRange)

	pc.Synchronize(Locate)
	pc.SetPoint(0, utils.NewPoint(7, 7, 7))
	assert.False(t, pc.IsSynchronized(NodeLocate))
	pc.Synchronize(Locate)
	n, ok := pc.LocateNode(utils.NewPoint(7, 7, 7), element.NoNode)
	assert.True(t, ok)
	assert.Equal(t, element.NodeIndex(0), n)
}

func TestPointCloudTopology(t *testing.T) {
	pc := NewPointCloud(utils.NewPoint(0, 0, 0), utils.NewPoint(2, 0, 0))
	assert.Equal(t, element.D0, pc.Dimensions())
	assert.Equal(t, element.NodePrimitive, pc.ElemPrimitive())
	assert.Equal(t, element.NodePrimitive, pc.DElemPrimitive())
	assert.Equal(t, 2, pc.NumElems())
	assert.Equal(t, []element.NodeIndex{1}, pc.NodesOfElem(nil, 1))
	assert.Equal(t, utils.NewPoint(2, 0, 0), pc.CenterOfElem(1))
	assert.False(t, pc.HasNormals())
	assert.Panics(t, func() { pc.Normal(0) })

	te := topologyPanic(t, func() { pc.NumFaces() })
	assert.Equal(t, "PointCloud", te.Mesh)
	assert.Equal(t, element.FacePrimitive, te.Primitive)
	te = topologyPanic(t, func() { pc.NodesOfEdge(nil, 0) })
	assert.Equal(t, element.EdgePrimitive, te.Primitive)
	topologyPanic(t, func() { pc.CenterOfCell(0) })
}

func TestPointCloudTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pc := randomCloud(rng, 300, utils.NewPoint(2, 1, 1))
	pc.Synchronize(Locate)
	orig := make([]utils.Point, pc.NumNodes())
	for i := range orig {
		orig[i] = pc.Point(element.NodeIndex(i))
	}
	box := pc.BoundingBox()

	tr := utils.Identity()
	tr.Rotate(0.7, utils.NewPoint(1, 2, 3))
	tr.Translate(utils.NewPoint(5, -1, 2))
	require.NoError(t, pc.Transform(tr))
	assert.True(t, pc.IsSynchronized(Locate))

	// Queries keep working on the moved grid
	for i := 0; i < 100; i++ {
		p := r3.Add(tr.Translation(), utils.NewPoint(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1))
		_, wantDist := bruteClosestNode(pc, p)
		got, ok := pc.FindClosestNode(p, 0)
		require.True(t, ok)
		assert.InDelta(t, wantDist, got.Dist, 1e-12)
	}

	inv, err := tr.Inverse()
	require.NoError(t, err)
	require.NoError(t, pc.Transform(inv))
	for i, p := range orig {
		assert.InDelta(t, 0, utils.Dist(p, pc.Point(element.NodeIndex(i))), 1e-12)
	}
	got := pc.BoundingBox()
	assert.InDelta(t, 0, utils.Dist(box.Min, got.Min), 1e-12)
	assert.InDelta(t, 0, utils.Dist(box.Max, got.Max), 1e-12)

	for n := 0; n < pc.NumNodes(); n += 13 {
		m, ok := pc.LocateNode(orig[n], element.NoNode)
		require.True(t, ok)
		assert.Equal(t, element.NodeIndex(n), m)
	}
	assert.True(t, slices.IsSorted(pc.FindClosestNodes(orig[0], 0.5)))
}

func TestPointCloudFlattenRebuildsGrids(t *testing.T) {
	var pts []utils.Point
	for k := 0; k < 4; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 4; i++ {
				pts = append(pts, utils.NewPoint(float64(i), float64(j), float64(k)))
			}
		}
	}
	pc := NewPointCloud(pts...)
	pc.Synchronize(Locate)

	flat := utils.Identity()
	flat.Scale(utils.NewPoint(1, 1, 0))
	require.NoError(t, pc.Transform(flat))
	assert.False(t, pc.IsSynchronized(NodeLocate))
	assert.False(t, pc.IsSynchronized(ElemLocate))
	assert.True(t, pc.IsSynchronized(BoundingBox|Epsilon))
	assert.Equal(t, 0.0, pc.BoundingBox().Max.Z)

	pc.Synchronize(Locate)
	rng := rand.New(rand.NewSource(12))
	queries := []utils.Point{utils.NewPoint(3, 0, 0), utils.NewPoint(0, 0, 3)}
	for i := 0; i < 100; i++ {
		queries = append(queries, utils.NewPoint(rng.Float64()*5-1, rng.Float64()*5-1, rng.Float64()*2-1))
	}
	for _, p := range queries {
		_, wantDist := bruteClosestNode(pc, p)
		got, ok := pc.FindClosestNode(p, 0)
		require.True(t, ok)
		assert.InDelta(t, wantDist, got.Dist, 1e-12)
		ce, ok := pc.FindClosestElem(p, 0)
		require.True(t, ok)
		assert.InDelta(t, wantDist, ce.Dist, 1e-12)
	}
	got, ok := pc.FindClosestNode(utils.NewPoint(3, 0, 0), 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, got.Dist)
}
