package searchgrid

import (
	"fmt"
	"math"

	"github.com/notargets/DGMesh/utils"
	"gonum.org/v1/gonum/mat"
)

// MarginFactor scales the mesh epsilon into the padding added around the
// bounding box a grid is built on
const MarginFactor = 10.

// Grid is a uniform 3D bucket grid over object space. Buckets hold item
// indices, either points (one bucket per item) or bounding regions (every
// bucket the region overlaps). A Grid is built complete by New and then only
// read; it is not safe for concurrent Insert/Remove.
type Grid struct {
	ni, nj, nk int
	buckets    [][]int

	toIndex   utils.Transform // World to continuous index coordinates
	fromIndex utils.Transform
	// Per axis world length of one index unit, used for bucket lower bounds.
	// Once a rotation is applied this is the smallest singular value on every
	// axis, which keeps the bound conservative.
	scale [3]float64

	spread bool // Some item lives in more than one bucket
	count  int
}

// Dims returns the bucket counts along each axis
func (g *Grid) Dims() (ni, nj, nk int) { return g.ni, g.nj, g.nk }

// NumItems is the number of Insert/InsertBox calls not yet removed
func (g *Grid) NumItems() int { return g.count }

// String summarizes the grid
func (g *Grid) String() string {
	return fmt.Sprintf("SearchGrid[%dx%dx%d, %d items]", g.ni, g.nj, g.nk, g.count)
}

// New builds an empty grid covering box padded by MarginFactor*eps, sized for
// about n items: the dominant axis gets ceil(cbrt(n)) buckets and the others a
// count proportional to their share of the extent, at least one.
func New(box utils.BBox, n int, eps float64) *Grid {
	if !box.Valid() {
		panic("searchgrid: cannot build a grid on an empty bounding box")
	}
	if n < 1 {
		n = 1
	}
	box.ExtendBy(MarginFactor * eps)
	ext := box.Diagonal()
	extMax := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	s := int(math.Ceil(math.Cbrt(float64(n)) - 1.e-9))

	axisCount := func(e float64) int {
		if extMax <= 0 {
			return 1
		}
		c := int(math.Round(float64(s) * e / extMax))
		return max(c, 1)
	}
	g := &Grid{
		ni: axisCount(ext.X),
		nj: axisCount(ext.Y),
		nk: axisCount(ext.Z),
	}
	g.buckets = make([][]int, g.ni*g.nj*g.nk)

	// Index space [0,ni]x[0,nj]x[0,nk] maps onto the padded box
	sz := utils.NewPoint(
		cellSize(ext.X, g.ni), cellSize(ext.Y, g.nj), cellSize(ext.Z, g.nk))
	g.place(utils.NewTransform(
		[9]float64{sz.X, 0, 0, 0, sz.Y, 0, 0, 0, sz.Z}, box.Min))
	return g
}

func cellSize(extent float64, n int) float64 {
	if extent <= 0 {
		return 1
	}
	return extent / float64(n)
}

// Transform moves the grid along with the geometry it indexes: every item
// stays in its bucket and only the bucket placement changes
func (g *Grid) Transform(t utils.Transform) error {
	from := g.fromIndex
	from.PreMult(t)
	return g.place(from)
}

// place installs from as the index to world map, leaving the grid unchanged
// when from cannot be inverted
func (g *Grid) place(from utils.Transform) error {
	inv, err := from.Inverse()
	if err != nil {
		return fmt.Errorf("searchgrid: %w", err)
	}
	scale, err := minScale(from.Linear())
	if err != nil {
		return err
	}
	g.fromIndex, g.toIndex, g.scale = from, inv, scale
	return nil
}

// minScale bounds from below how far one index unit reaches along each axis
func minScale(lin mat.Matrix) ([3]float64, error) {
	aligned := true
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && lin.At(i, j) != 0 {
				aligned = false
			}
		}
	}
	if aligned {
		return [3]float64{math.Abs(lin.At(0, 0)), math.Abs(lin.At(1, 1)), math.Abs(lin.At(2, 2))}, nil
	}
	var svd mat.SVD
	if !svd.Factorize(lin, mat.SVDNone) {
		return [3]float64{}, fmt.Errorf("searchgrid: %w", utils.ErrSingularTransform)
	}
	vals := svd.Values(nil)
	smin := vals[len(vals)-1]
	return [3]float64{smin, smin, smin}, nil
}

func (g *Grid) bucket(i, j, k int) int { return i + g.ni*(j+g.nj*k) }

// indexCoords returns p in continuous index space
func (g *Grid) indexCoords(p utils.Point) utils.Point {
	return g.toIndex.Project(p)
}

func clampIndex(x float64, n int) int {
	i := int(math.Floor(x))
	return min(max(i, 0), n-1)
}

// Locate returns the bucket holding p, clamped to the grid, and whether p lies
// inside the grid
func (g *Grid) Locate(p utils.Point) (i, j, k int, inside bool) {
	q := g.indexCoords(p)
	inside = q.X >= 0 && q.X <= float64(g.ni) &&
		q.Y >= 0 && q.Y <= float64(g.nj) &&
		q.Z >= 0 && q.Z <= float64(g.nk)
	return clampIndex(q.X, g.ni), clampIndex(q.Y, g.nj), clampIndex(q.Z, g.nk), inside
}

// Items returns the items of bucket (i,j,k). The slice belongs to the grid.
func (g *Grid) Items(i, j, k int) []int {
	return g.buckets[g.bucket(i, j, k)]
}

// Insert adds item at point p
func (g *Grid) Insert(item int, p utils.Point) {
	i, j, k, _ := g.Locate(p)
	b := g.bucket(i, j, k)
	g.buckets[b] = append(g.buckets[b], item)
	g.count++
}

// Remove takes item out of the bucket holding p
func (g *Grid) Remove(item int, p utils.Point) bool {
	i, j, k, _ := g.Locate(p)
	if g.removeFrom(g.bucket(i, j, k), item) {
		g.count--
		return true
	}
	return false
}

// indexRange returns the clamped bucket ranges overlapped by box
func (g *Grid) indexRange(box utils.BBox) (lo, hi [3]int) {
	ib := box.Transformed(&g.toIndex)
	n := [3]int{g.ni, g.nj, g.nk}
	for d := 0; d < 3; d++ {
		lo[d] = clampIndex(utils.Component(ib.Min, d), n[d])
		hi[d] = clampIndex(utils.Component(ib.Max, d), n[d])
	}
	return
}

// InsertBox adds item to every bucket overlapped by box
func (g *Grid) InsertBox(item int, box utils.BBox) {
	if !box.Valid() {
		return
	}
	lo, hi := g.indexRange(box)
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				b := g.bucket(i, j, k)
				g.buckets[b] = append(g.buckets[b], item)
			}
		}
	}
	if lo != hi {
		g.spread = true
	}
	g.count++
}

// RemoveBox takes item out of every bucket overlapped by box
func (g *Grid) RemoveBox(item int, box utils.BBox) bool {
	if !box.Valid() {
		return false
	}
	lo, hi := g.indexRange(box)
	var found bool
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				if g.removeFrom(g.bucket(i, j, k), item) {
					found = true
				}
			}
		}
	}
	if found {
		g.count--
	}
	return found
}

func (g *Grid) removeFrom(b, item int) bool {
	items := g.buckets[b]
	for n, it := range items {
		if it == item {
			items[n] = items[len(items)-1]
			g.buckets[b] = items[:len(items)-1]
			return true
		}
	}
	return false
}

// LookupBox calls fn once for every item stored in a bucket overlapped by box
func (g *Grid) LookupBox(box utils.BBox, fn func(item int)) {
	if !box.Valid() {
		return
	}
	lo, hi := g.indexRange(box)
	seen := make(map[int]struct{})
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				for _, it := range g.buckets[g.bucket(i, j, k)] {
					if _, ok := seen[it]; ok {
						continue
					}
					seen[it] = struct{}{}
					fn(it)
				}
			}
		}
	}
}

// bucketDist2 is a lower bound on the squared world distance from the point
// with index coordinates q to anything inside bucket (i,j,k)
func (g *Grid) bucketDist2(q utils.Point, i, j, k int) float64 {
	gap := func(x float64, c int) float64 {
		switch {
		case x < float64(c):
			return float64(c) - x
		case x > float64(c+1):
			return x - float64(c+1)
		}
		return 0
	}
	dx := gap(q.X, i) * g.scale[0]
	dy := gap(q.Y, j) * g.scale[1]
	dz := gap(q.Z, k) * g.scale[2]
	return dx*dx + dy*dy + dz*dz
}
