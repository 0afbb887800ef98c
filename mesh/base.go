package mesh

import (
	"fmt"
	"math"
	"slices"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/searchgrid"
	"github.com/notargets/DGMesh/utils"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// EpsilonFactor relates the distance tolerance of a mesh to the length of its
// bounding box diagonal
const EpsilonFactor = 1.e-8

// Debug turns reads of unsynchronized derived tables into panics. When off
// such reads behave as query misses.
var Debug = false

// base carries the derived state shared by every representation, and the
// default behavior of operations a representation does not support. Concrete
// meshes embed it and set self to themselves.
type base struct {
	self VMesh
	sync syncState
	gen  uint64

	bbox      utils.BBox
	epsilon   float64
	nodeGrid  *searchgrid.Grid
	elemGrid  *searchgrid.Grid
	nodeElems [][]element.ElemIndex
	elemNbrs  [][]element.ElemIndex
	normals   []utils.Point
}

func (b *base) name() string { return b.self.Kind().String() }

func (b *base) unsupported(op string, p element.Primitive) {
	element.Unsupported(b.name(), op, p)
}

// require reports whether flags are synchronized, panicking in Debug mode
// when they are not
func (b *base) require(flags SyncFlag, op string) bool {
	if b.sync.has(flags) {
		return true
	}
	if Debug {
		panic(fmt.Sprintf("%s: %s needs Synchronize(%s)", b.name(), op, flags))
	}
	return false
}

func (b *base) Generation() uint64 { return b.gen }

// replaced is called after the mesh storage was reallocated or renumbered
func (b *base) replaced() {
	b.ClearSynchronization()
	b.gen++
}

func (b *base) NumEdges() int {
	b.unsupported("NumEdges", element.EdgePrimitive)
	return 0
}

func (b *base) NumFaces() int {
	b.unsupported("NumFaces", element.FacePrimitive)
	return 0
}

func (b *base) NumCells() int {
	b.unsupported("NumCells", element.CellPrimitive)
	return 0
}

func (b *base) NodesOfEdge(dst []element.NodeIndex, _ element.EdgeIndex) []element.NodeIndex {
	b.unsupported("NodesOfEdge", element.EdgePrimitive)
	return dst
}

func (b *base) NodesOfFace(dst []element.NodeIndex, _ element.FaceIndex) []element.NodeIndex {
	b.unsupported("NodesOfFace", element.FacePrimitive)
	return dst
}

func (b *base) NodesOfCell(dst []element.NodeIndex, _ element.CellIndex) []element.NodeIndex {
	b.unsupported("NodesOfCell", element.CellPrimitive)
	return dst
}

func (b *base) EdgesOfFace(dst []element.EdgeIndex, _ element.FaceIndex) []element.EdgeIndex {
	b.unsupported("EdgesOfFace", element.FacePrimitive)
	return dst
}

func (b *base) EdgesOfElem(dst []element.EdgeIndex, _ element.ElemIndex) []element.EdgeIndex {
	b.unsupported("EdgesOfElem", element.EdgePrimitive)
	return dst
}

func (b *base) FacesOfCell(dst []element.FaceIndex, _ element.CellIndex) []element.FaceIndex {
	b.unsupported("FacesOfCell", element.CellPrimitive)
	return dst
}

func (b *base) CenterOfEdge(element.EdgeIndex) utils.Point {
	b.unsupported("CenterOfEdge", element.EdgePrimitive)
	return utils.Point{}
}

func (b *base) CenterOfFace(element.FaceIndex) utils.Point {
	b.unsupported("CenterOfFace", element.FacePrimitive)
	return utils.Point{}
}

func (b *base) CenterOfCell(element.CellIndex) utils.Point {
	b.unsupported("CenterOfCell", element.CellPrimitive)
	return utils.Point{}
}

func (b *base) centroid(nodes []element.NodeIndex) utils.Point {
	var c utils.Point
	for _, n := range nodes {
		c = r3.Add(c, b.self.Point(n))
	}
	return r3.Scale(1/float64(len(nodes)), c)
}

func (b *base) CenterOfElem(e element.ElemIndex) utils.Point {
	return b.centroid(b.self.NodesOfElem(nil, e))
}

func (b *base) CenterOfDElem(d element.DElemIndex) utils.Point {
	return b.centroid(b.self.NodesOfDElem(nil, d))
}

func (b *base) HasNormals() bool { return b.self.Dimensions() == element.D2 }

// Normal returns the unit normal at node n of a surface mesh
func (b *base) Normal(n element.NodeIndex) utils.Point {
	if !b.HasNormals() {
		panic(fmt.Sprintf("%s: Normal needs a surface mesh", b.name()))
	}
	if !b.require(Normals, "Normal") {
		return utils.Point{}
	}
	return b.normals[n]
}

// BoundingBox returns the cached box once synchronized and computes it
// otherwise
func (b *base) BoundingBox() utils.BBox {
	if b.sync.has(BoundingBox) {
		return b.bbox
	}
	return b.computeBBox()
}

func (b *base) Epsilon() float64 {
	b.require(Epsilon, "Epsilon")
	return b.epsilon
}

// latticeBoxer is implemented by regular meshes that place their bounding box
// from the lattice corners
type latticeBoxer interface {
	latticeBox() utils.BBox
}

func (b *base) computeBBox() utils.BBox {
	if lb, ok := b.self.(latticeBoxer); ok {
		return lb.latticeBox()
	}
	var box utils.BBox
	for n := 0; n < b.self.NumNodes(); n++ {
		box.Extend(b.self.Point(element.NodeIndex(n)))
	}
	return box
}

func (b *base) Synchronize(flags SyncFlag) { b.sync.ensure(flags, b.build) }

func (b *base) Unsynchronize(flags SyncFlag) { b.sync.drop(flags, b.free) }

func (b *base) ClearSynchronization() { b.sync.drop(AllSync, b.free) }

func (b *base) IsSynchronized(flags SyncFlag) bool { return b.sync.has(flags) }

func (b *base) logger(f SyncFlag) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"mesh":  b.name(),
		"table": flagNames[f],
	})
}

func (b *base) build(f SyncFlag) {
	_, structured := b.self.(Structured)
	switch f {
	case BoundingBox:
		b.bbox = b.computeBBox()
		b.logger(f).WithField("bbox", b.bbox).Debug("computed bounding box")
	case Epsilon:
		b.epsilon = EpsilonFactor * r3.Norm(b.bbox.Diagonal())
		b.logger(f).WithField("epsilon", b.epsilon).Debug("computed epsilon")
	case NodeNeighbors:
		if !structured {
			b.buildNodeElems()
			b.logger(f).WithField("nodes", len(b.nodeElems)).Debug("built node neighbors")
		}
	case ElemNeighbors:
		if !structured {
			b.buildElemNeighbors()
			b.logger(f).WithField("elems", len(b.elemNbrs)).Debug("built element neighbors")
		}
	case NodeLocate:
		if !b.self.IsRegular() {
			b.nodeGrid = b.buildNodeGrid()
			b.logGrid(f, b.nodeGrid)
		}
	case ElemLocate:
		if !b.self.IsRegular() {
			b.elemGrid = b.buildElemGrid()
			b.logGrid(f, b.elemGrid)
		}
	case Normals:
		if b.HasNormals() {
			b.buildNormals()
			b.logger(f).WithField("nodes", len(b.normals)).Debug("built normals")
		}
	}
}

func (b *base) logGrid(f SyncFlag, g *searchgrid.Grid) {
	if g == nil {
		b.logger(f).Debug("empty mesh, no search grid")
		return
	}
	ni, nj, nk := g.Dims()
	b.logger(f).WithFields(logrus.Fields{
		"items": g.NumItems(),
		"grid":  [3]int{ni, nj, nk},
	}).Debug("built search grid")
}

func (b *base) free(f SyncFlag) {
	switch f {
	case BoundingBox:
		b.bbox.Reset()
	case Epsilon:
		b.epsilon = 0
	case NodeNeighbors:
		b.nodeElems = nil
	case ElemNeighbors:
		b.elemNbrs = nil
	case NodeLocate:
		b.nodeGrid = nil
	case ElemLocate:
		b.elemGrid = nil
	case Normals:
		b.normals = nil
	}
}

func (b *base) buildNodeGrid() *searchgrid.Grid {
	nn := b.self.NumNodes()
	if nn == 0 || !b.bbox.Valid() {
		return nil
	}
	g := searchgrid.New(b.bbox, nn, b.epsilon)
	for n := 0; n < nn; n++ {
		g.Insert(n, b.self.Point(element.NodeIndex(n)))
	}
	return g
}

// elemBox is the bounding box of element e padded by the mesh epsilon
func (b *base) elemBox(e element.ElemIndex, scratch []element.NodeIndex) utils.BBox {
	var box utils.BBox
	for _, n := range b.self.NodesOfElem(scratch[:0], e) {
		box.Extend(b.self.Point(n))
	}
	box.ExtendBy(b.epsilon)
	return box
}

func (b *base) buildElemGrid() *searchgrid.Grid {
	ne := b.self.NumElems()
	if ne == 0 || !b.bbox.Valid() {
		return nil
	}
	g := searchgrid.New(b.bbox, ne, b.epsilon)
	scratch := make([]element.NodeIndex, 0, 8)
	for e := 0; e < ne; e++ {
		g.InsertBox(e, b.elemBox(element.ElemIndex(e), scratch))
	}
	return g
}

func (b *base) buildNodeElems() {
	b.nodeElems = make([][]element.ElemIndex, b.self.NumNodes())
	var nodes []element.NodeIndex
	for e := 0; e < b.self.NumElems(); e++ {
		nodes = b.self.NodesOfElem(nodes[:0], element.ElemIndex(e))
		for _, n := range nodes {
			b.nodeElems[n] = append(b.nodeElems[n], element.ElemIndex(e))
		}
	}
}

func (b *base) buildElemNeighbors() {
	ne := b.self.NumElems()
	b.elemNbrs = make([][]element.ElemIndex, ne)
	var (
		ds, cds []element.DElemIndex
		dn      []element.NodeIndex
	)
	for e := 0; e < ne; e++ {
		ei := element.ElemIndex(e)
		ds = b.self.DElemsOfElem(ds[:0], ei)
		for _, d := range ds {
			dn = b.self.NodesOfDElem(dn[:0], d)
			// Any element sharing d holds its first node
			for _, c := range b.nodeElems[dn[0]] {
				if c == ei || slices.Contains(b.elemNbrs[e], c) {
					continue
				}
				cds = b.self.DElemsOfElem(cds[:0], c)
				if slices.Contains(cds, d) {
					b.elemNbrs[e] = append(b.elemNbrs[e], c)
				}
			}
		}
	}
}

// ElemsOfNode returns the elements that hold node n
func (b *base) ElemsOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex {
	if !b.require(NodeNeighbors, "ElemsOfNode") {
		return dst
	}
	return append(dst, b.nodeElems[n]...)
}

// NodeNeighbors returns the nodes joined to n by an element edge
func (b *base) NodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex {
	if !b.require(NodeNeighbors, "NodeNeighbors") {
		return dst
	}
	edges := element.LocalEdges(b.self.Basis().GeometryType())
	start := len(dst)
	var nodes []element.NodeIndex
	for _, e := range b.nodeElems[n] {
		nodes = b.self.NodesOfElem(nodes[:0], e)
		for _, le := range edges {
			a, c := nodes[le[0]], nodes[le[1]]
			var other element.NodeIndex
			switch n {
			case a:
				other = c
			case c:
				other = a
			default:
				continue
			}
			if !slices.Contains(dst[start:], other) {
				dst = append(dst, other)
			}
		}
	}
	return dst
}

// ElemNeighbors returns the elements sharing a DElem with e
func (b *base) ElemNeighbors(dst []element.ElemIndex, e element.ElemIndex) []element.ElemIndex {
	if !b.require(ElemNeighbors, "ElemNeighbors") {
		return dst
	}
	return append(dst, b.elemNbrs[e]...)
}

// buildNormals accumulates area weighted element normals on their nodes
func (b *base) buildNormals() {
	nn := b.self.NumNodes()
	b.normals = make([]utils.Point, nn)
	var nodes []element.NodeIndex
	for e := 0; e < b.self.NumElems(); e++ {
		nodes = b.self.NodesOfElem(nodes[:0], element.ElemIndex(e))
		var a utils.Point
		switch len(nodes) {
		case 3:
			p0, p1, p2 := b.self.Point(nodes[0]), b.self.Point(nodes[1]), b.self.Point(nodes[2])
			a = r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		case 4:
			// The diagonal cross product is twice the projected quad area
			p0, p1 := b.self.Point(nodes[0]), b.self.Point(nodes[1])
			p2, p3 := b.self.Point(nodes[2]), b.self.Point(nodes[3])
			a = r3.Cross(r3.Sub(p2, p0), r3.Sub(p3, p1))
		default:
			continue
		}
		for _, n := range nodes {
			b.normals[n] = r3.Add(b.normals[n], a)
		}
	}
	for n, v := range b.normals {
		if l := r3.Norm(v); l > 0 {
			b.normals[n] = r3.Scale(1/l, v)
		}
	}
}

// transformDerived keeps synchronized tables valid after the node positions
// were mapped through t. Search grids are moved in place; a grid that t
// cannot carry (a singular t) is dropped and rebuilt by the next Synchronize.
func (b *base) transformDerived(t utils.Transform) {
	b.sync.mu.Lock()
	defer b.sync.mu.Unlock()
	if b.sync.has(BoundingBox) {
		b.bbox = b.computeBBox()
	}
	if b.sync.has(Epsilon) {
		b.epsilon = EpsilonFactor * r3.Norm(b.bbox.Diagonal())
	}
	for _, f := range []SyncFlag{NodeLocate, ElemLocate} {
		g := b.nodeGrid
		if f == ElemLocate {
			g = b.elemGrid
		}
		if g == nil {
			continue
		}
		if err := g.Transform(t); err != nil {
			b.logger(f).WithError(err).Debug("dropped search grid")
			b.free(f)
			b.sync.flags.And(^uint32(f))
		}
	}
	if b.sync.has(Normals) {
		b.buildNormals()
	}
}

// limit2 turns a caller distance bound into a squared search limit, zero for
// unbounded
func limit2(maxDist float64) float64 {
	if maxDist <= 0 {
		return 0
	}
	return math.Nextafter(maxDist*maxDist, math.Inf(1))
}
