package mesh

import (
	"fmt"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/element/library"
	"github.com/notargets/DGMesh/utils"
)

// PointCloud is a set of unconnected nodes. Its elements and DElems are the
// nodes themselves.
type PointCloud struct {
	base
	points []utils.Point
	basis  element.Basis
}

// NewPointCloud returns a point cloud holding pts
func NewPointCloud(pts ...utils.Point) *PointCloud {
	pc := &PointCloud{basis: library.ConstantBasis{}}
	pc.self = pc
	pc.points = append(pc.points, pts...)
	return pc
}

func (pc *PointCloud) Kind() Kind                         { return PointCloudKind }
func (pc *PointCloud) Basis() element.Basis               { return pc.basis }
func (pc *PointCloud) Dimensions() element.Dimensionality { return element.D0 }
func (pc *PointCloud) ElemPrimitive() element.Primitive   { return element.NodePrimitive }
func (pc *PointCloud) DElemPrimitive() element.Primitive  { return element.NodePrimitive }
func (pc *PointCloud) IsRegular() bool                    { return false }

func (pc *PointCloud) NumNodes() int  { return len(pc.points) }
func (pc *PointCloud) NumElems() int  { return len(pc.points) }
func (pc *PointCloud) NumDElems() int { return len(pc.points) }

func (pc *PointCloud) Point(n element.NodeIndex) utils.Point { return pc.points[n] }

func (pc *PointCloud) NodesOfElem(dst []element.NodeIndex, e element.ElemIndex) []element.NodeIndex {
	return append(dst, element.NodeIndex(e))
}

func (pc *PointCloud) NodesOfDElem(dst []element.NodeIndex, d element.DElemIndex) []element.NodeIndex {
	return append(dst, element.NodeIndex(d))
}

func (pc *PointCloud) DElemsOfElem(dst []element.DElemIndex, e element.ElemIndex) []element.DElemIndex {
	return append(dst, element.DElemIndex(e))
}

func (pc *PointCloud) CenterOfElem(e element.ElemIndex) utils.Point   { return pc.points[e] }
func (pc *PointCloud) CenterOfDElem(d element.DElemIndex) utils.Point { return pc.points[d] }

// AddNode appends p and returns its index
func (pc *PointCloud) AddNode(p utils.Point) element.NodeIndex {
	pc.points = append(pc.points, p)
	pc.ClearSynchronization()
	return element.NodeIndex(len(pc.points) - 1)
}

// AddElem adds a new node at the position of nodes[0]; point cloud elements
// are nodes
func (pc *PointCloud) AddElem(nodes ...element.NodeIndex) (element.ElemIndex, error) {
	if len(nodes) != 1 {
		return element.NoElem, fmt.Errorf("%s: an element has 1 node, got %d", pc.Kind(), len(nodes))
	}
	if !nodes[0].Valid(len(pc.points)) {
		return element.NoElem, fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, nodes[0], len(pc.points))
	}
	return element.ElemIndex(pc.AddNode(pc.points[nodes[0]])), nil
}

// DeleteNode removes node n, renumbering the nodes after it
func (pc *PointCloud) DeleteNode(n element.NodeIndex) error {
	if !n.Valid(len(pc.points)) {
		return fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, n, len(pc.points))
	}
	pc.points = append(pc.points[:n], pc.points[n+1:]...)
	pc.replaced()
	return nil
}

// DeleteElem removes the node of element e
func (pc *PointCloud) DeleteElem(e element.ElemIndex) error {
	return pc.DeleteNode(element.NodeIndex(e))
}

// SetPoint moves node n
func (pc *PointCloud) SetPoint(n element.NodeIndex, p utils.Point) {
	pc.points[n] = p
	pc.ClearSynchronization()
}

// Reserve grows the node storage; elems is ignored since elements are nodes
func (pc *PointCloud) Reserve(nodes, _ int) {
	pc.points = reservePoints(pc.points, nodes)
}

// Transform maps every node through t
func (pc *PointCloud) Transform(t utils.Transform) error {
	transformPoints(pc.points, t)
	pc.transformDerived(t)
	return nil
}

func reservePoints(pts []utils.Point, n int) []utils.Point {
	if n <= cap(pts) {
		return pts
	}
	out := make([]utils.Point, len(pts), n)
	copy(out, pts)
	return out
}

func transformPoints(pts []utils.Point, t utils.Transform) {
	for i, p := range pts {
		pts[i] = t.Project(p)
	}
}

var _ Editable = (*PointCloud)(nil)
