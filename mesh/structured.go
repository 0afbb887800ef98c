package mesh

import (
	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/element/library"
	"github.com/notargets/DGMesh/utils"
)

// quads exposes a lattice2 as the connectivity of a quadrilateral surface.
// Elements are faces and DElems are edges. Indices are not bounds checked.
type quads struct {
	base
	lattice2
}

func (q *quads) Dims() [3]int { return [3]int{q.ni, q.nj, 1} }

func (q *quads) Basis() element.Basis               { return library.QuadBilinearLgn{} }
func (q *quads) Dimensions() element.Dimensionality { return element.D2 }
func (q *quads) ElemPrimitive() element.Primitive   { return element.FacePrimitive }
func (q *quads) DElemPrimitive() element.Primitive  { return element.EdgePrimitive }

func (q *quads) NumNodes() int  { return q.numNodes() }
func (q *quads) NumEdges() int  { return q.numEdges() }
func (q *quads) NumFaces() int  { return q.numFaces() }
func (q *quads) NumElems() int  { return q.numFaces() }
func (q *quads) NumDElems() int { return q.numEdges() }

// Node returns the index of lattice node (i,j)
func (q *quads) Node(i, j int) element.NodeIndex { return q.node(i, j) }

// Elem returns the index of lattice face (i,j)
func (q *quads) Elem(i, j int) element.ElemIndex { return element.ElemIndex(q.face(i, j)) }

func (q *quads) NodesOfEdge(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex {
	return q.edgeNodes(dst, e)
}

func (q *quads) NodesOfFace(dst []element.NodeIndex, f element.FaceIndex) []element.NodeIndex {
	return q.faceNodes(dst, f)
}

func (q *quads) NodesOfElem(dst []element.NodeIndex, e element.ElemIndex) []element.NodeIndex {
	return q.faceNodes(dst, element.FaceIndex(e))
}

func (q *quads) NodesOfDElem(dst []element.NodeIndex, d element.DElemIndex) []element.NodeIndex {
	return q.edgeNodes(dst, element.EdgeIndex(d))
}

func (q *quads) EdgesOfFace(dst []element.EdgeIndex, f element.FaceIndex) []element.EdgeIndex {
	return q.faceEdges(dst, f)
}

func (q *quads) EdgesOfElem(dst []element.EdgeIndex, e element.ElemIndex) []element.EdgeIndex {
	return q.faceEdges(dst, element.FaceIndex(e))
}

func (q *quads) DElemsOfElem(dst []element.DElemIndex, e element.ElemIndex) []element.DElemIndex {
	var buf [4]element.EdgeIndex
	for _, ed := range q.faceEdges(buf[:0], element.FaceIndex(e)) {
		dst = append(dst, element.DElemIndex(ed))
	}
	return dst
}

func (q *quads) ElemsOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex {
	return q.facesOfNode(dst, n)
}

func (q *quads) NodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex {
	return q.nodeNeighbors(dst, n)
}

func (q *quads) ElemNeighbors(dst []element.ElemIndex, e element.ElemIndex) []element.ElemIndex {
	return q.faceNeighbors(dst, element.FaceIndex(e))
}

func (q *quads) CenterOfEdge(e element.EdgeIndex) utils.Point {
	var buf [2]element.NodeIndex
	return q.centroid(q.edgeNodes(buf[:0], e))
}

func (q *quads) CenterOfFace(f element.FaceIndex) utils.Point {
	var buf [4]element.NodeIndex
	return q.centroid(q.faceNodes(buf[:0], f))
}

// hexes exposes a lattice3 as the connectivity of a hexahedral volume.
// Elements are cells and DElems are faces.
type hexes struct {
	base
	lattice3
}

func (h *hexes) Dims() [3]int { return [3]int{h.ni, h.nj, h.nk} }

func (h *hexes) Basis() element.Basis               { return library.HexTrilinearLgn{} }
func (h *hexes) Dimensions() element.Dimensionality { return element.D3 }
func (h *hexes) ElemPrimitive() element.Primitive   { return element.CellPrimitive }
func (h *hexes) DElemPrimitive() element.Primitive  { return element.FacePrimitive }

func (h *hexes) NumNodes() int  { return h.numNodes() }
func (h *hexes) NumEdges() int  { return h.numEdges() }
func (h *hexes) NumFaces() int  { return h.numFaces() }
func (h *hexes) NumCells() int  { return h.numCells() }
func (h *hexes) NumElems() int  { return h.numCells() }
func (h *hexes) NumDElems() int { return h.numFaces() }

// Node returns the index of lattice node (i,j,k)
func (h *hexes) Node(i, j, k int) element.NodeIndex { return h.node(i, j, k) }

// Elem returns the index of lattice cell (i,j,k)
func (h *hexes) Elem(i, j, k int) element.ElemIndex { return element.ElemIndex(h.cell(i, j, k)) }

func (h *hexes) NodesOfEdge(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex {
	return h.edgeNodes(dst, e)
}

func (h *hexes) NodesOfFace(dst []element.NodeIndex, f element.FaceIndex) []element.NodeIndex {
	return h.faceNodes(dst, f)
}

func (h *hexes) NodesOfCell(dst []element.NodeIndex, c element.CellIndex) []element.NodeIndex {
	return h.cellNodes(dst, c)
}

func (h *hexes) NodesOfElem(dst []element.NodeIndex, e element.ElemIndex) []element.NodeIndex {
	return h.cellNodes(dst, element.CellIndex(e))
}

func (h *hexes) NodesOfDElem(dst []element.NodeIndex, d element.DElemIndex) []element.NodeIndex {
	return h.faceNodes(dst, element.FaceIndex(d))
}

func (h *hexes) EdgesOfFace(dst []element.EdgeIndex, f element.FaceIndex) []element.EdgeIndex {
	return h.faceEdges(dst, f)
}

func (h *hexes) EdgesOfElem(dst []element.EdgeIndex, e element.ElemIndex) []element.EdgeIndex {
	return h.cellEdges(dst, element.CellIndex(e))
}

func (h *hexes) FacesOfCell(dst []element.FaceIndex, c element.CellIndex) []element.FaceIndex {
	return h.cellFaces(dst, c)
}

func (h *hexes) DElemsOfElem(dst []element.DElemIndex, e element.ElemIndex) []element.DElemIndex {
	var buf [6]element.FaceIndex
	for _, f := range h.cellFaces(buf[:0], element.CellIndex(e)) {
		dst = append(dst, element.DElemIndex(f))
	}
	return dst
}

func (h *hexes) ElemsOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex {
	return h.cellsOfNode(dst, n)
}

func (h *hexes) NodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex {
	return h.nodeNeighbors(dst, n)
}

func (h *hexes) ElemNeighbors(dst []element.ElemIndex, e element.ElemIndex) []element.ElemIndex {
	return h.cellNeighbors(dst, element.CellIndex(e))
}

func (h *hexes) CenterOfEdge(e element.EdgeIndex) utils.Point {
	var buf [2]element.NodeIndex
	return h.centroid(h.edgeNodes(buf[:0], e))
}

func (h *hexes) CenterOfFace(f element.FaceIndex) utils.Point {
	var buf [4]element.NodeIndex
	return h.centroid(h.faceNodes(buf[:0], f))
}

func (h *hexes) CenterOfCell(c element.CellIndex) utils.Point {
	var buf [8]element.NodeIndex
	return h.centroid(h.cellNodes(buf[:0], c))
}
