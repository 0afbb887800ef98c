package mesh

import (
	"fmt"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/element/library"
	"github.com/notargets/DGMesh/utils"
)

// Curve is a set of nodes joined by line segments. Elements are edges and
// DElems are nodes.
type Curve struct {
	base
	points []utils.Point
	edges  []element.NodeIndex // Node pairs, two per edge
	basis  element.Basis
}

// NewCurve returns an empty curve with the linear Lagrange basis
func NewCurve() *Curve {
	c := &Curve{basis: library.CrvLinearLgn{}}
	c.self = c
	return c
}

// NewPolyline returns a curve through pts joined in order
func NewPolyline(pts ...utils.Point) *Curve {
	c := NewCurve()
	c.Reserve(len(pts), max(len(pts)-1, 0))
	for i, p := range pts {
		c.AddNode(p)
		if i > 0 {
			c.edges = append(c.edges, element.NodeIndex(i-1), element.NodeIndex(i))
		}
	}
	return c
}

func (c *Curve) Kind() Kind                         { return CurveKind }
func (c *Curve) Basis() element.Basis               { return c.basis }
func (c *Curve) Dimensions() element.Dimensionality { return element.D1 }
func (c *Curve) ElemPrimitive() element.Primitive   { return element.EdgePrimitive }
func (c *Curve) DElemPrimitive() element.Primitive  { return element.NodePrimitive }
func (c *Curve) IsRegular() bool                    { return false }

func (c *Curve) NumNodes() int  { return len(c.points) }
func (c *Curve) NumEdges() int  { return len(c.edges) / 2 }
func (c *Curve) NumElems() int  { return len(c.edges) / 2 }
func (c *Curve) NumDElems() int { return len(c.points) }

func (c *Curve) Point(n element.NodeIndex) utils.Point { return c.points[n] }

func (c *Curve) NodesOfEdge(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex {
	return append(dst, c.edges[2*e], c.edges[2*e+1])
}

func (c *Curve) NodesOfElem(dst []element.NodeIndex, e element.ElemIndex) []element.NodeIndex {
	return c.NodesOfEdge(dst, element.EdgeIndex(e))
}

func (c *Curve) NodesOfDElem(dst []element.NodeIndex, d element.DElemIndex) []element.NodeIndex {
	return append(dst, element.NodeIndex(d))
}

func (c *Curve) EdgesOfElem(dst []element.EdgeIndex, e element.ElemIndex) []element.EdgeIndex {
	return append(dst, element.EdgeIndex(e))
}

func (c *Curve) DElemsOfElem(dst []element.DElemIndex, e element.ElemIndex) []element.DElemIndex {
	return append(dst, element.DElemIndex(c.edges[2*e]), element.DElemIndex(c.edges[2*e+1]))
}

func (c *Curve) CenterOfEdge(e element.EdgeIndex) utils.Point {
	return utils.Lerp(c.points[c.edges[2*e]], c.points[c.edges[2*e+1]], 0.5)
}

func (c *Curve) CenterOfElem(e element.ElemIndex) utils.Point {
	return c.CenterOfEdge(element.EdgeIndex(e))
}

func (c *Curve) CenterOfDElem(d element.DElemIndex) utils.Point { return c.points[d] }

// AddNode appends p and returns its index
func (c *Curve) AddNode(p utils.Point) element.NodeIndex {
	c.points = append(c.points, p)
	c.ClearSynchronization()
	return element.NodeIndex(len(c.points) - 1)
}

// AddElem appends the edge joining two existing nodes
func (c *Curve) AddElem(nodes ...element.NodeIndex) (element.ElemIndex, error) {
	if len(nodes) != 2 {
		return element.NoElem, fmt.Errorf("%s: an element has 2 nodes, got %d", c.Kind(), len(nodes))
	}
	for _, n := range nodes {
		if !n.Valid(len(c.points)) {
			return element.NoElem, fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, n, len(c.points))
		}
	}
	c.edges = append(c.edges, nodes[0], nodes[1])
	c.ClearSynchronization()
	return element.ElemIndex(c.NumElems() - 1), nil
}

// DeleteNode removes a node no edge refers to, renumbering the nodes after it
func (c *Curve) DeleteNode(n element.NodeIndex) error {
	if !n.Valid(len(c.points)) {
		return fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, n, len(c.points))
	}
	for i, en := range c.edges {
		if en == n {
			return fmt.Errorf("%w: node %d, edge %d", ErrNodeInUse, n, i/2)
		}
	}
	c.points = append(c.points[:n], c.points[n+1:]...)
	for i, en := range c.edges {
		if en > n {
			c.edges[i] = en - 1
		}
	}
	c.replaced()
	return nil
}

// DeleteElem removes edge e, renumbering the edges after it
func (c *Curve) DeleteElem(e element.ElemIndex) error {
	if !e.Valid(c.NumElems()) {
		return fmt.Errorf("%w: edge %d of %d", ErrIndexOutOfRange, e, c.NumElems())
	}
	c.edges = append(c.edges[:2*e], c.edges[2*e+2:]...)
	c.replaced()
	return nil
}

// SetPoint moves node n
func (c *Curve) SetPoint(n element.NodeIndex, p utils.Point) {
	c.points[n] = p
	c.ClearSynchronization()
}

// Reserve grows the node and edge storage
func (c *Curve) Reserve(nodes, elems int) {
	c.points = reservePoints(c.points, nodes)
	if 2*elems > cap(c.edges) {
		e := make([]element.NodeIndex, len(c.edges), 2*elems)
		copy(e, c.edges)
		c.edges = e
	}
}

// Transform maps every node through t
func (c *Curve) Transform(t utils.Transform) error {
	transformPoints(c.points, t)
	c.transformDerived(t)
	return nil
}

var _ Editable = (*Curve)(nil)
