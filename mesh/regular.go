package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// regular places a lattice in space through an affine map from continuous
// index coordinates (i,j,k) to world coordinates. Images use the first two
// index axes, volumes all three. Its queries replace the search grids with
// index arithmetic, so hints are not needed and are ignored.
type regular struct {
	b       *base
	nd      int
	dims    [3]int // Node counts, unused axes 1
	toWorld utils.Transform
	toIndex utils.Transform // Inverse of toWorld, volumes only
	sigma   float64         // Smallest singular value over the used axes
}

func (r *regular) init(b *base, nd int) {
	r.b, r.nd = b, nd
}

// setDims resets the lattice to dims nodes placed on the integer coordinates
func (r *regular) setDims(dims [3]int) {
	for d := 0; d < 3; d++ {
		if dims[d] < 1 || (d >= r.nd && dims[d] != 1) {
			panic(fmt.Sprintf("%s: invalid dimensions %v", r.b.name(), dims[:r.nd]))
		}
	}
	r.dims = dims
	r.toWorld, r.toIndex, r.sigma = utils.Identity(), utils.Identity(), 1
	r.b.replaced()
}

// place makes t the index to world map
func (r *regular) place(t utils.Transform) error {
	cols := make([]utils.Point, r.nd)
	for d := range cols {
		cols[d] = t.Column(d)
	}
	sigma, smax := singularRange(cols)
	if sigma <= 1e-12*smax {
		return utils.ErrSingularTransform
	}
	if r.nd == 3 {
		inv, err := t.Inverse()
		if err != nil {
			return err
		}
		r.toIndex = inv
	}
	r.toWorld, r.sigma = t, sigma
	return nil
}

// singularRange returns the smallest and largest singular values of the matrix
// whose columns are cols. The smallest is the least stretch the map applies to
// an index displacement.
func singularRange(cols []utils.Point) (lo, hi float64) {
	a := mat.NewDense(3, len(cols), nil)
	for j, c := range cols {
		a.Set(0, j, c.X)
		a.Set(1, j, c.Y)
		a.Set(2, j, c.Z)
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0, 0
	}
	vals := svd.Values(nil)
	return vals[len(vals)-1], vals[0]
}

// SetTransform places the lattice with the index to world map t
func (r *regular) SetTransform(t utils.Transform) error {
	if err := r.place(t); err != nil {
		return fmt.Errorf("%s: %w", r.b.name(), err)
	}
	r.b.ClearSynchronization()
	return nil
}

// IndexTransform returns the index to world map
func (r *regular) IndexTransform() utils.Transform { return r.toWorld }

// SetMinMax stretches the lattice so its first node lands on min and its last
// on max
func (r *regular) SetMinMax(min, max utils.Point) error {
	var sc [3]float64
	for d := range sc {
		sc[d] = 1
		if d < r.nd && r.dims[d] > 1 {
			sc[d] = 1 / float64(r.dims[d]-1)
		}
	}
	t := utils.Identity()
	t.Scale(utils.NewPoint(sc[0], sc[1], sc[2]))
	t.PreMult(utils.BoxTransform(min, max))
	return r.SetTransform(t)
}

// Transform composes t after the current placement
func (r *regular) Transform(t utils.Transform) error {
	w := r.toWorld
	w.PreMult(t)
	if err := r.place(w); err != nil {
		return fmt.Errorf("%s: transform: %w", r.b.name(), err)
	}
	r.b.transformDerived(t)
	return nil
}

func (r *regular) IsRegular() bool { return true }

func (r *regular) world(x [3]float64) utils.Point {
	return r.toWorld.Project(utils.NewPoint(x[0], x[1], x[2]))
}

func (r *regular) nodeIJK(n element.NodeIndex) [3]int {
	v := int(n)
	return [3]int{v % r.dims[0], (v / r.dims[0]) % r.dims[1], v / (r.dims[0] * r.dims[1])}
}

func (r *regular) nodeAt(c [3]int) element.NodeIndex {
	return element.NodeIndex(c[0] + r.dims[0]*(c[1]+r.dims[1]*c[2]))
}

// cells returns the element counts along each axis, unused axes 1
func (r *regular) cells() [3]int {
	c := [3]int{1, 1, 1}
	for d := 0; d < r.nd; d++ {
		c[d] = r.dims[d] - 1
	}
	return c
}

func (r *regular) numCells() int {
	c := r.cells()
	return c[0] * c[1] * c[2]
}

func (r *regular) elemAt(c [3]int) element.ElemIndex {
	cl := r.cells()
	return element.ElemIndex(c[0] + cl[0]*(c[1]+cl[1]*c[2]))
}

func (r *regular) Point(n element.NodeIndex) utils.Point {
	c := r.nodeIJK(n)
	return r.world([3]float64{float64(c[0]), float64(c[1]), float64(c[2])})
}

func (r *regular) latticeBox() utils.BBox {
	var box utils.BBox
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				box.Extend(r.world([3]float64{
					float64(i * (r.dims[0] - 1)),
					float64(j * (r.dims[1] - 1)),
					float64(k * (r.dims[2] - 1)),
				}))
			}
		}
	}
	return box
}

// indexCoords returns p in continuous index coordinates. Images project p on
// their plane first and report the squared distance to it as h2.
func (r *regular) indexCoords(p utils.Point) (x [3]float64, h2 float64) {
	if r.nd == 3 {
		q := r.toIndex.Project(p)
		return [3]float64{q.X, q.Y, q.Z}, 0
	}
	s, t, h2, _ := utils.PlaneCoords(r3.Sub(p, r.toWorld.Translation()),
		r.toWorld.Column(0), r.toWorld.Column(1))
	return [3]float64{s, t, 0}, h2
}

func clampInt(v, lo, hi int) int { return min(max(v, lo), hi) }

func (r *regular) roundIndex(x [3]float64) (c [3]int) {
	for d := 0; d < r.nd; d++ {
		c[d] = clampInt(int(math.Round(x[d])), 0, r.dims[d]-1)
	}
	return
}

// elemOf returns the element holding index point x, clamped to the lattice,
// with the local coordinates of x inside it
func (r *regular) elemOf(x [3]float64) (element.ElemIndex, []float64) {
	cl := r.cells()
	var c [3]int
	coords := make([]float64, r.nd)
	for d := 0; d < r.nd; d++ {
		c[d] = clampInt(int(math.Floor(x[d])), 0, cl[d]-1)
		coords[d] = math.Min(math.Max(x[d]-float64(c[d]), 0), 1)
	}
	return r.elemAt(c), coords
}

// span returns the index range of lattice positions within w of x along each
// used axis, bounded by top. Element ranges pass elems=true so that element i,
// covering [i,i+1], is kept when it touches the window.
func (r *regular) span(x [3]float64, w float64, top [3]int, elems bool) (lo, hi [3]int, ok bool) {
	for d := 0; d < r.nd; d++ {
		l := int(math.Ceil(x[d] - w))
		if elems {
			l--
		}
		lo[d] = max(l, 0)
		hi[d] = min(int(math.Floor(x[d]+w)), top[d])
		if lo[d] > hi[d] {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

func each(lo, hi [3]int, fn func(c [3]int)) {
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				fn([3]int{i, j, k})
			}
		}
	}
}

// closestOnBlock returns the point closest to p of the lattice block starting
// at index lo and spanning ext along each used axis, its index coordinates and
// the squared distance
func (r *regular) closestOnBlock(p utils.Point, lo, ext [3]int) (q utils.Point, x [3]float64, d2 float64) {
	o := r.world([3]float64{float64(lo[0]), float64(lo[1]), float64(lo[2])})
	var a [3]utils.Point
	for d := 0; d < r.nd; d++ {
		a[d] = r3.Scale(float64(ext[d]), r.toWorld.Column(d))
	}
	if r.nd == 2 {
		q, s, t, d2 := utils.ClosestOnParallelogram(p, o, a[0], a[1])
		return q, [3]float64{float64(lo[0]) + s*float64(ext[0]), float64(lo[1]) + t*float64(ext[1]), 0}, d2
	}
	x, _ = r.indexCoords(p)
	inside := true
	for d := 0; d < 3; d++ {
		if x[d] < float64(lo[d]) || x[d] > float64(lo[d]+ext[d]) {
			inside = false
		}
	}
	if inside {
		return p, x, 0
	}
	d2 = math.Inf(1)
	for n := 0; n < 3; n++ {
		u, v := faceAxes(n)
		for side := 0; side < 2; side++ {
			fo := r3.Add(o, r3.Scale(float64(side), a[n]))
			qf, s, t, df := utils.ClosestOnParallelogram(p, fo, a[u], a[v])
			if df >= d2 {
				continue
			}
			q, d2 = qf, df
			x[n] = float64(lo[n] + side*ext[n])
			x[u] = float64(lo[u]) + s*float64(ext[u])
			x[v] = float64(lo[v]) + t*float64(ext[v])
		}
	}
	return q, x, d2
}

// LocateNode returns the node within epsilon of p
func (r *regular) LocateNode(p utils.Point, hint element.NodeIndex) (element.NodeIndex, bool) {
	b := r.b
	if !b.require(NodeLocate|Epsilon, "LocateNode") {
		return element.NoNode, false
	}
	if hint.Valid(b.self.NumNodes()) && utils.Dist2(p, r.Point(hint)) <= b.eps2() {
		return hint, true
	}
	x, _ := r.indexCoords(p)
	n := r.nodeAt(r.roundIndex(x))
	if utils.Dist2(p, r.Point(n)) > b.eps2() {
		return element.NoNode, false
	}
	return n, true
}

// FindClosestNode rounds p to the lattice for a first guess, then scans the
// index window the guess distance bounds
func (r *regular) FindClosestNode(p utils.Point, maxDist float64) (ClosestNode, bool) {
	miss := ClosestNode{Node: element.NoNode}
	if !r.b.require(NodeLocate|Epsilon, "FindClosestNode") {
		return miss, false
	}
	x, h2 := r.indexCoords(p)
	best := r.nodeAt(r.roundIndex(x))
	best2 := utils.Dist2(p, r.Point(best))
	top := [3]int{r.dims[0] - 1, r.dims[1] - 1, r.dims[2] - 1}
	w := math.Sqrt(math.Max(best2-h2, 0))/r.sigma + 1e-9
	if lo, hi, ok := r.span(x, w, top, false); ok {
		each(lo, hi, func(c [3]int) {
			n := r.nodeAt(c)
			if d2 := utils.Dist2(p, r.Point(n)); d2 < best2 || (d2 == best2 && n < best) {
				best, best2 = n, d2
			}
		})
	}
	if lim := limit2(maxDist); lim > 0 && best2 >= lim {
		return miss, false
	}
	return ClosestNode{Node: best, Point: r.Point(best), Dist: math.Sqrt(best2)}, true
}

// FindClosestNodes returns every node within radius of p in index order
func (r *regular) FindClosestNodes(p utils.Point, radius float64) []element.NodeIndex {
	if !r.b.require(NodeLocate, "FindClosestNodes") {
		return nil
	}
	r2 := radius * radius
	x, h2 := r.indexCoords(p)
	if h2 > r2 {
		return nil
	}
	w := math.Sqrt(r2-h2) / r.sigma
	top := [3]int{r.dims[0] - 1, r.dims[1] - 1, r.dims[2] - 1}
	lo, hi, ok := r.span(x, w, top, false)
	if !ok {
		return nil
	}
	var out []element.NodeIndex
	each(lo, hi, func(c [3]int) {
		n := r.nodeAt(c)
		if utils.Dist2(p, r.Point(n)) <= r2 {
			out = append(out, n)
		}
	})
	return out
}

// LocateElemCoords returns the element holding p and the local coordinates of
// p inside it
func (r *regular) LocateElemCoords(p utils.Point, _ element.ElemIndex) (element.ElemIndex, []float64, bool) {
	if !r.b.require(ElemLocate|Epsilon, "LocateElem") || r.numCells() == 0 {
		return element.NoElem, nil, false
	}
	x, _ := r.indexCoords(p)
	cl := r.cells()
	var xc [3]float64
	for d := 0; d < r.nd; d++ {
		xc[d] = math.Min(math.Max(x[d], 0), float64(cl[d]))
	}
	if utils.Dist2(p, r.world(xc)) > r.b.eps2() {
		return element.NoElem, nil, false
	}
	e, coords := r.elemOf(x)
	return e, coords, true
}

// LocateElems returns the elements whose bounding box overlaps box
func (r *regular) LocateElems(box utils.BBox) []element.ElemIndex {
	b := r.b
	if !b.require(ElemLocate|Epsilon, "LocateElems") || r.numCells() == 0 || !box.Valid() {
		return nil
	}
	var lo, hi [3]float64
	for d := range lo {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for _, c := range box.Corners() {
		x, _ := r.indexCoords(c)
		for d := 0; d < r.nd; d++ {
			lo[d], hi[d] = math.Min(lo[d], x[d]), math.Max(hi[d], x[d])
		}
	}
	// Every element is congruent, so any point of an element box lies within
	// one element box diagonal of the element itself
	scratch := make([]element.NodeIndex, 0, 8)
	reach := r3.Norm(b.elemBox(0, scratch).Diagonal()) / r.sigma
	var mid [3]float64
	half := 0.
	for d := 0; d < r.nd; d++ {
		mid[d] = (lo[d] + hi[d]) / 2
		half = math.Max(half, (hi[d]-lo[d])/2)
	}
	top := r.cells()
	for d := range top {
		top[d]--
	}
	ilo, ihi, ok := r.span(mid, half+reach, top, true)
	if !ok {
		return nil
	}
	var out []element.ElemIndex
	each(ilo, ihi, func(c [3]int) {
		e := r.elemAt(c)
		if b.elemBox(e, scratch).Overlaps(box) {
			out = append(out, e)
		}
	})
	return out
}

// FindClosestElem returns the element nearest to p no farther than maxDist,
// maxDist <= 0 being unbounded
func (r *regular) FindClosestElem(p utils.Point, maxDist float64) (ClosestElem, bool) {
	miss := ClosestElem{Elem: element.NoElem}
	if !r.b.require(ElemLocate|Epsilon, "FindClosestElem") || r.numCells() == 0 {
		return miss, false
	}
	q, x, d2 := r.closestOnBlock(p, [3]int{}, r.cells())
	if lim := limit2(maxDist); lim > 0 && d2 >= lim {
		return miss, false
	}
	e, coords := r.elemOf(x)
	return ClosestElem{Elem: e, Coords: coords, Point: q, Dist: math.Sqrt(d2)}, true
}

// FindClosestElems returns every element within epsilon of the closest
// distance from p, in index order, with the closest point and its distance
func (r *regular) FindClosestElems(p utils.Point) ([]element.ElemIndex, utils.Point, float64, bool) {
	best, ok := r.FindClosestElem(p, 0)
	if !ok {
		return nil, utils.Point{}, 0, false
	}
	tol := best.Dist + r.b.epsilon
	tol2 := tol * tol
	x, h2 := r.indexCoords(p)
	w := math.Sqrt(math.Max(tol2-h2, 0)) / r.sigma
	top := r.cells()
	for d := range top {
		top[d]--
	}
	var out []element.ElemIndex
	if lo, hi, ok := r.span(x, w, top, true); ok {
		unit := [3]int{1, 1, 1}
		each(lo, hi, func(c [3]int) {
			if _, _, d2 := r.closestOnBlock(p, c, unit); d2 <= tol2 {
				out = append(out, r.elemAt(c))
			}
		})
	}
	if len(out) == 0 {
		out = append(out, best.Elem)
	}
	return out, best.Point, best.Dist, true
}
