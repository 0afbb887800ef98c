package mesh

import (
	"github.com/notargets/DGMesh/element"
)

// lattice2 is the implicit topology of an ni x nj structured surface. Nodes
// and faces are numbered row major:
//
//	node (i,j) = i + ni*j
//	face (i,j) = i + (ni-1)*j
//
// Edges along i come first, (i,j)-(i+1,j) = i + (ni-1)*j, followed by edges
// along j, (i,j)-(i,j+1) = (ni-1)*nj + i + ni*j.
type lattice2 struct {
	ni, nj int
}

func (l lattice2) numNodes() int { return l.ni * l.nj }

func (l lattice2) numFaces() int {
	if l.ni < 2 || l.nj < 2 {
		return 0
	}
	return (l.ni - 1) * (l.nj - 1)
}

func (l lattice2) numIEdges() int { return max(l.ni-1, 0) * l.nj }

func (l lattice2) numEdges() int { return l.numIEdges() + l.ni*max(l.nj-1, 0) }

func (l lattice2) node(i, j int) element.NodeIndex { return element.NodeIndex(i + l.ni*j) }

func (l lattice2) nodeIJ(n element.NodeIndex) (i, j int) { return int(n) % l.ni, int(n) / l.ni }

func (l lattice2) face(i, j int) element.FaceIndex { return element.FaceIndex(i + (l.ni-1)*j) }

func (l lattice2) faceIJ(f element.FaceIndex) (i, j int) {
	return int(f) % (l.ni - 1), int(f) / (l.ni - 1)
}

func (l lattice2) iEdge(i, j int) element.EdgeIndex { return element.EdgeIndex(i + (l.ni-1)*j) }

func (l lattice2) jEdge(i, j int) element.EdgeIndex {
	return element.EdgeIndex(l.numIEdges() + i + l.ni*j)
}

func (l lattice2) edgeNodes(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex {
	h := l.numIEdges()
	if int(e) < h {
		i, j := int(e)%(l.ni-1), int(e)/(l.ni-1)
		return append(dst, l.node(i, j), l.node(i+1, j))
	}
	v := int(e) - h
	i, j := v%l.ni, v/l.ni
	return append(dst, l.node(i, j), l.node(i, j+1))
}

// faceNodes returns the quad nodes counter clockwise from (i,j)
func (l lattice2) faceNodes(dst []element.NodeIndex, f element.FaceIndex) []element.NodeIndex {
	i, j := l.faceIJ(f)
	return append(dst, l.node(i, j), l.node(i+1, j), l.node(i+1, j+1), l.node(i, j+1))
}

// faceEdges returns the bottom, right, top and left edges of face f
func (l lattice2) faceEdges(dst []element.EdgeIndex, f element.FaceIndex) []element.EdgeIndex {
	i, j := l.faceIJ(f)
	return append(dst, l.iEdge(i, j), l.jEdge(i+1, j), l.iEdge(i, j+1), l.jEdge(i, j))
}

func (l lattice2) facesOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex {
	i, j := l.nodeIJ(n)
	for fj := j - 1; fj <= j; fj++ {
		for fi := i - 1; fi <= i; fi++ {
			if fi >= 0 && fj >= 0 && fi < l.ni-1 && fj < l.nj-1 {
				dst = append(dst, element.ElemIndex(l.face(fi, fj)))
			}
		}
	}
	return dst
}

func (l lattice2) nodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex {
	i, j := l.nodeIJ(n)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		a, b := i+d[0], j+d[1]
		if a >= 0 && b >= 0 && a < l.ni && b < l.nj {
			dst = append(dst, l.node(a, b))
		}
	}
	return dst
}

func (l lattice2) faceNeighbors(dst []element.ElemIndex, f element.FaceIndex) []element.ElemIndex {
	i, j := l.faceIJ(f)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		a, b := i+d[0], j+d[1]
		if a >= 0 && b >= 0 && a < l.ni-1 && b < l.nj-1 {
			dst = append(dst, element.ElemIndex(l.face(a, b)))
		}
	}
	return dst
}

// lattice3 is the implicit topology of an ni x nj x nk lattice volume. Nodes
// and cells are numbered row major:
//
//	node (i,j,k) = i + ni*(j + nj*k)
//	cell (i,j,k) = i + (ni-1)*(j + (nj-1)*k)
//
// Edges are grouped by direction (i, then j, then k) and faces by normal
// (k, then j, then i), each group numbered row major over its own extents.
type lattice3 struct {
	ni, nj, nk int
}

func (l lattice3) numNodes() int { return l.ni * l.nj * l.nk }

func (l lattice3) numCells() int {
	if l.ni < 2 || l.nj < 2 || l.nk < 2 {
		return 0
	}
	return (l.ni - 1) * (l.nj - 1) * (l.nk - 1)
}

// edge and face group extents
func (l lattice3) edgeDims(dir int) [3]int {
	d := [3]int{l.ni, l.nj, l.nk}
	d[dir] = max(d[dir]-1, 0)
	return d
}

func (l lattice3) faceDims(normal int) [3]int {
	d := [3]int{max(l.ni-1, 0), max(l.nj-1, 0), max(l.nk-1, 0)}
	d[normal] = [3]int{l.ni, l.nj, l.nk}[normal]
	return d
}

func count3(d [3]int) int { return d[0] * d[1] * d[2] }

func (l lattice3) numEdges() int {
	return count3(l.edgeDims(0)) + count3(l.edgeDims(1)) + count3(l.edgeDims(2))
}

// faces with normal k are first, then j, then i
var faceOrder = [3]int{2, 1, 0}

func (l lattice3) numFaces() int {
	return count3(l.faceDims(0)) + count3(l.faceDims(1)) + count3(l.faceDims(2))
}

func (l lattice3) node(i, j, k int) element.NodeIndex {
	return element.NodeIndex(i + l.ni*(j+l.nj*k))
}

func (l lattice3) nodeIJK(n element.NodeIndex) (i, j, k int) {
	v := int(n)
	return v % l.ni, (v / l.ni) % l.nj, v / (l.ni * l.nj)
}

func (l lattice3) cell(i, j, k int) element.CellIndex {
	return element.CellIndex(i + (l.ni-1)*(j+(l.nj-1)*k))
}

func (l lattice3) cellIJK(c element.CellIndex) (i, j, k int) {
	v := int(c)
	return v % (l.ni - 1), (v / (l.ni - 1)) % (l.nj - 1), v / ((l.ni - 1) * (l.nj - 1))
}

func (l lattice3) edge(dir, i, j, k int) element.EdgeIndex {
	off := 0
	for d := 0; d < dir; d++ {
		off += count3(l.edgeDims(d))
	}
	ed := l.edgeDims(dir)
	return element.EdgeIndex(off + i + ed[0]*(j+ed[1]*k))
}

func (l lattice3) face(normal, i, j, k int) element.FaceIndex {
	off := 0
	for _, n := range faceOrder {
		if n == normal {
			break
		}
		off += count3(l.faceDims(n))
	}
	fd := l.faceDims(normal)
	return element.FaceIndex(off + i + fd[0]*(j+fd[1]*k))
}

var unit3 = [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (l lattice3) edgeNodes(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex {
	v := int(e)
	for dir := 0; dir < 3; dir++ {
		ed := l.edgeDims(dir)
		if c := count3(ed); v >= c {
			v -= c
			continue
		}
		i, j, k := v%ed[0], (v/ed[0])%ed[1], v/(ed[0]*ed[1])
		u := unit3[dir]
		return append(dst, l.node(i, j, k), l.node(i+u[0], j+u[1], k+u[2]))
	}
	return dst
}

// faceAxes returns the two in-plane axes of a face with the given normal,
// ordered so the node loop runs counter clockwise about the normal
func faceAxes(normal int) (a, b int) {
	switch normal {
	case 2:
		return 0, 1
	case 1:
		return 2, 0
	default:
		return 1, 2
	}
}

func (l lattice3) faceIJK(f element.FaceIndex) (normal, i, j, k int) {
	v := int(f)
	for _, n := range faceOrder {
		fd := l.faceDims(n)
		if c := count3(fd); v >= c {
			v -= c
			continue
		}
		return n, v % fd[0], (v / fd[0]) % fd[1], v / (fd[0] * fd[1])
	}
	return -1, 0, 0, 0
}

func (l lattice3) faceNodes(dst []element.NodeIndex, f element.FaceIndex) []element.NodeIndex {
	normal, i, j, k := l.faceIJK(f)
	a, b := faceAxes(normal)
	ua, ub := unit3[a], unit3[b]
	return append(dst,
		l.node(i, j, k),
		l.node(i+ua[0], j+ua[1], k+ua[2]),
		l.node(i+ua[0]+ub[0], j+ua[1]+ub[1], k+ua[2]+ub[2]),
		l.node(i+ub[0], j+ub[1], k+ub[2]))
}

func (l lattice3) faceEdges(dst []element.EdgeIndex, f element.FaceIndex) []element.EdgeIndex {
	normal, i, j, k := l.faceIJK(f)
	a, b := faceAxes(normal)
	ua, ub := unit3[a], unit3[b]
	return append(dst,
		l.edge(a, i, j, k),
		l.edge(b, i+ua[0], j+ua[1], k+ua[2]),
		l.edge(a, i+ub[0], j+ub[1], k+ub[2]),
		l.edge(b, i, j, k))
}

// cellNodes returns the bottom quad then the top quad, each counter clockwise
func (l lattice3) cellNodes(dst []element.NodeIndex, c element.CellIndex) []element.NodeIndex {
	i, j, k := l.cellIJK(c)
	return append(dst,
		l.node(i, j, k), l.node(i+1, j, k), l.node(i+1, j+1, k), l.node(i, j+1, k),
		l.node(i, j, k+1), l.node(i+1, j, k+1), l.node(i+1, j+1, k+1), l.node(i, j+1, k+1))
}

func (l lattice3) cellEdges(dst []element.EdgeIndex, c element.CellIndex) []element.EdgeIndex {
	i, j, k := l.cellIJK(c)
	return append(dst,
		l.edge(0, i, j, k), l.edge(0, i, j+1, k), l.edge(0, i, j, k+1), l.edge(0, i, j+1, k+1),
		l.edge(1, i, j, k), l.edge(1, i+1, j, k), l.edge(1, i, j, k+1), l.edge(1, i+1, j, k+1),
		l.edge(2, i, j, k), l.edge(2, i+1, j, k), l.edge(2, i, j+1, k), l.edge(2, i+1, j+1, k))
}

// cellFaces returns the bottom, top, front, back, left and right faces
func (l lattice3) cellFaces(dst []element.FaceIndex, c element.CellIndex) []element.FaceIndex {
	i, j, k := l.cellIJK(c)
	return append(dst,
		l.face(2, i, j, k), l.face(2, i, j, k+1),
		l.face(1, i, j, k), l.face(1, i, j+1, k),
		l.face(0, i, j, k), l.face(0, i+1, j, k))
}

func (l lattice3) cellsOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex {
	i, j, k := l.nodeIJK(n)
	for ck := k - 1; ck <= k; ck++ {
		for cj := j - 1; cj <= j; cj++ {
			for ci := i - 1; ci <= i; ci++ {
				if ci >= 0 && cj >= 0 && ck >= 0 && ci < l.ni-1 && cj < l.nj-1 && ck < l.nk-1 {
					dst = append(dst, element.ElemIndex(l.cell(ci, cj, ck)))
				}
			}
		}
	}
	return dst
}

var axisSteps = [6][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}}

func (l lattice3) nodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex {
	i, j, k := l.nodeIJK(n)
	for _, d := range axisSteps {
		a, b, c := i+d[0], j+d[1], k+d[2]
		if a >= 0 && b >= 0 && c >= 0 && a < l.ni && b < l.nj && c < l.nk {
			dst = append(dst, l.node(a, b, c))
		}
	}
	return dst
}

func (l lattice3) cellNeighbors(dst []element.ElemIndex, c element.CellIndex) []element.ElemIndex {
	i, j, k := l.cellIJK(c)
	for _, d := range axisSteps {
		a, b, cc := i+d[0], j+d[1], k+d[2]
		if a >= 0 && b >= 0 && cc >= 0 && a < l.ni-1 && b < l.nj-1 && cc < l.nk-1 {
			dst = append(dst, element.ElemIndex(l.cell(a, b, cc)))
		}
	}
	return dst
}
