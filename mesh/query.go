package mesh

import (
	"math"
	"slices"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
)

// The generic queries below serve meshes with explicit node positions through
// the node and element search grids. Regular lattices override the locate and
// closest queries with index arithmetic.

func (b *base) eps2() float64 { return b.epsilon * b.epsilon }

// exact2 is the squared search limit accepting distances up to epsilon
func (b *base) exact2() float64 {
	return math.Nextafter(b.eps2(), math.Inf(1))
}

func (b *base) nodeDist(p utils.Point) func(int) float64 {
	return func(i int) float64 {
		return utils.Dist2(p, b.self.Point(element.NodeIndex(i)))
	}
}

// LocateNode returns the node within epsilon of p
func (b *base) LocateNode(p utils.Point, hint element.NodeIndex) (element.NodeIndex, bool) {
	if !b.require(NodeLocate|Epsilon, "LocateNode") {
		return element.NoNode, false
	}
	if hint.Valid(b.self.NumNodes()) && utils.Dist2(p, b.self.Point(hint)) <= b.eps2() {
		return hint, true
	}
	if b.nodeGrid == nil {
		return element.NoNode, false
	}
	n, _, ok := b.nodeGrid.Nearest(p, b.exact2(), b.eps2(), b.nodeDist(p))
	if !ok {
		return element.NoNode, false
	}
	return element.NodeIndex(n), true
}

// FindClosestNode returns the node nearest to p no farther than maxDist,
// maxDist <= 0 being unbounded
func (b *base) FindClosestNode(p utils.Point, maxDist float64) (ClosestNode, bool) {
	if !b.require(NodeLocate|Epsilon, "FindClosestNode") || b.nodeGrid == nil {
		return ClosestNode{Node: element.NoNode}, false
	}
	n, d2, ok := b.nodeGrid.Nearest(p, limit2(maxDist), b.eps2(), b.nodeDist(p))
	if !ok {
		return ClosestNode{Node: element.NoNode}, false
	}
	ni := element.NodeIndex(n)
	return ClosestNode{Node: ni, Point: b.self.Point(ni), Dist: math.Sqrt(d2)}, true
}

// FindClosestNodes returns every node within radius of p in index order
func (b *base) FindClosestNodes(p utils.Point, radius float64) []element.NodeIndex {
	if !b.require(NodeLocate, "FindClosestNodes") || b.nodeGrid == nil {
		return nil
	}
	r2 := radius * radius
	var out []element.NodeIndex
	b.nodeGrid.Within(p, r2, func(i int) {
		n := element.NodeIndex(i)
		if utils.Dist2(p, b.self.Point(n)) <= r2 {
			out = append(out, n)
		}
	})
	slices.Sort(out)
	return out
}

// elemPoints returns the node positions of e in basis vertex order
func (b *base) elemPoints(e element.ElemIndex) []utils.Point {
	nodes := b.self.NodesOfElem(make([]element.NodeIndex, 0, 8), e)
	pts := make([]utils.Point, len(nodes))
	for i, n := range nodes {
		pts[i] = b.self.Point(n)
	}
	return pts
}

// Coords returns the local coordinates of p in element e, false when p is not
// inside e within epsilon
func (b *base) Coords(p utils.Point, e element.ElemIndex) ([]float64, bool) {
	return element.Coords(b.self.Basis(), p, b.elemPoints(e), b.eps2())
}

func (b *base) Interpolate(coords []float64, e element.ElemIndex) utils.Point {
	return element.Interpolate(b.self.Basis(), coords, b.elemPoints(e))
}

func (b *base) Derivate(coords []float64, e element.ElemIndex) []utils.Point {
	return element.Derivate(b.self.Basis(), coords, b.elemPoints(e))
}

func (b *base) Jacobian(coords []float64, e element.ElemIndex) [9]float64 {
	return element.Jacobian(b.self.Basis(), coords, b.elemPoints(e))
}

func (b *base) InverseJacobian(coords []float64, e element.ElemIndex) ([9]float64, float64) {
	return element.InverseJacobian(b.self.Basis(), coords, b.elemPoints(e))
}

// JacobianMetric returns the smallest and largest jacobian determinant over
// the element vertices and center
func (b *base) JacobianMetric(e element.ElemIndex) (lo, hi float64) {
	basis := b.self.Basis()
	pts := b.elemPoints(e)
	nd := int(basis.Dimensions())
	samples := append(basis.UnitVertices(), basis.UnitCenter())
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		_, det := element.InverseJacobian(basis, s[:nd], pts)
		lo, hi = math.Min(lo, det), math.Max(hi, det)
	}
	return
}

// Size returns the length, area or volume of element e
func (b *base) Size(e element.ElemIndex) float64 {
	return element.Size(b.self.Basis(), b.elemPoints(e))
}

func (b *base) inside(p utils.Point, e element.ElemIndex) ([]float64, bool) {
	return b.self.Coords(p, e)
}

// LocateElem returns the element holding p
func (b *base) LocateElem(p utils.Point, hint element.ElemIndex) (element.ElemIndex, bool) {
	e, _, ok := b.self.LocateElemCoords(p, hint)
	return e, ok
}

// LocateElemCoords returns the element holding p and the local coordinates of
// p inside it
func (b *base) LocateElemCoords(p utils.Point, hint element.ElemIndex) (element.ElemIndex, []float64, bool) {
	if !b.require(ElemLocate|Epsilon, "LocateElem") {
		return element.NoElem, nil, false
	}
	if hint.Valid(b.self.NumElems()) {
		if c, ok := b.inside(p, hint); ok {
			return hint, c, true
		}
	}
	if b.elemGrid == nil {
		return element.NoElem, nil, false
	}
	i, j, k, in := b.elemGrid.Locate(p)
	if !in {
		return element.NoElem, nil, false
	}
	// Element boxes are inserted in every bucket they overlap, so the bucket
	// of p holds every element that may contain it
	for _, it := range b.elemGrid.Items(i, j, k) {
		e := element.ElemIndex(it)
		if c, ok := b.inside(p, e); ok {
			return e, c, true
		}
	}
	return element.NoElem, nil, false
}

// LocateElems returns the elements whose bounding box overlaps box
func (b *base) LocateElems(box utils.BBox) []element.ElemIndex {
	if !b.require(ElemLocate|Epsilon, "LocateElems") || b.elemGrid == nil {
		return nil
	}
	var out []element.ElemIndex
	scratch := make([]element.NodeIndex, 0, 8)
	b.elemGrid.LookupBox(box, func(it int) {
		e := element.ElemIndex(it)
		if b.elemBox(e, scratch).Overlaps(box) {
			out = append(out, e)
		}
	})
	slices.Sort(out)
	return out
}

// closestOnElem returns the point of element e closest to p, its local
// coordinates and the squared distance
func (b *base) closestOnElem(p utils.Point, e element.ElemIndex) (q utils.Point, coords []float64, d2 float64) {
	basis := b.self.Basis()
	pts := b.elemPoints(e)
	switch basis.GeometryType() {
	case element.Point:
		return pts[0], []float64{}, utils.Dist2(p, pts[0])
	case element.Line:
		var t float64
		q, t, d2 = utils.ClosestOnSegment(p, pts[0], pts[1])
		return q, []float64{t}, d2
	case element.Rectangle, element.Hex, element.Tet:
		c, res2, conv := element.Newton(basis, p, pts)
		if conv && res2 <= b.eps2() && element.InsideUnit(basis.GeometryType(), c, element.CoordsTolerance) {
			return p, c, 0
		}
	}
	// Closest point over the faces: four corner faces are bilinear patches,
	// the others triangles
	d2 = math.Inf(1)
	for _, f := range element.LocalFaces(basis.GeometryType()) {
		if len(f) == 4 {
			qf, u, v, df := utils.ClosestOnBilinear(p, pts[f[0]], pts[f[1]], pts[f[2]], pts[f[3]])
			if df < d2 {
				q, d2 = qf, df
				if basis.GeometryType() == element.Rectangle {
					coords = []float64{u, v}
				}
			}
			continue
		}
		for t := 1; t+1 < len(f); t++ {
			qt, dt := utils.ClosestOnTriangle(p, pts[f[0]], pts[f[t]], pts[f[t+1]])
			if dt < d2 {
				q, d2 = qt, dt
			}
		}
	}
	if basis.GeometryType() == element.Rectangle {
		q = element.Interpolate(basis, coords, pts)
		return q, coords, utils.Dist2(p, q)
	}
	coords, _, _ = element.Newton(basis, q, pts)
	element.ClampUnit(coords)
	return q, coords, d2
}

func (b *base) elemDist(p utils.Point) func(int) float64 {
	return func(i int) float64 {
		_, _, d2 := b.closestOnElem(p, element.ElemIndex(i))
		return d2
	}
}

// FindClosestElem returns the element nearest to p no farther than maxDist,
// maxDist <= 0 being unbounded
func (b *base) FindClosestElem(p utils.Point, maxDist float64) (ClosestElem, bool) {
	if !b.require(ElemLocate|Epsilon, "FindClosestElem") || b.elemGrid == nil {
		return ClosestElem{Elem: element.NoElem}, false
	}
	it, _, ok := b.elemGrid.Nearest(p, limit2(maxDist), b.eps2(), b.elemDist(p))
	if !ok {
		return ClosestElem{Elem: element.NoElem}, false
	}
	e := element.ElemIndex(it)
	q, c, d2 := b.closestOnElem(p, e)
	return ClosestElem{Elem: e, Coords: c, Point: q, Dist: math.Sqrt(d2)}, true
}

// FindClosestElems returns every element within epsilon of the closest
// distance from p, in index order, with the closest point and its distance
func (b *base) FindClosestElems(p utils.Point) ([]element.ElemIndex, utils.Point, float64, bool) {
	best, ok := b.self.FindClosestElem(p, 0)
	if !ok {
		return nil, utils.Point{}, 0, false
	}
	tol := best.Dist + b.epsilon
	tol2 := tol * tol
	var out []element.ElemIndex
	dist := b.elemDist(p)
	b.elemGrid.Within(p, tol2, func(it int) {
		if dist(it) <= tol2 {
			out = append(out, element.ElemIndex(it))
		}
	})
	slices.Sort(out)
	return out, best.Point, best.Dist, true
}
