package element

import "fmt"

// Primitive names a topological entity kind
type Primitive uint8

const (
	NodePrimitive Primitive = iota
	EdgePrimitive
	FacePrimitive
	CellPrimitive
)

func (p Primitive) String() string {
	switch p {
	case NodePrimitive:
		return "Node"
	case EdgePrimitive:
		return "Edge"
	case FacePrimitive:
		return "Face"
	case CellPrimitive:
		return "Cell"
	default:
		return fmt.Sprintf("Primitive(%d)", uint8(p))
	}
}

// PrimitiveFor returns the primitive of dimension d
func PrimitiveFor(d Dimensionality) Primitive {
	return Primitive(d)
}

// Typed indices. An index is a plain position in [0, count) and does not refer
// back to the mesh it came from, the mesh is passed alongside at every call.
type (
	NodeIndex  int
	EdgeIndex  int
	FaceIndex  int
	CellIndex  int
	ElemIndex  int // Highest dimensional primitive of the mesh
	DElemIndex int // Primitive one dimension below Elem
)

// InvalidIndex marks "no index", used for absent hints and results
const InvalidIndex = -1

const (
	NoNode  = NodeIndex(InvalidIndex)
	NoElem  = ElemIndex(InvalidIndex)
	NoDElem = DElemIndex(InvalidIndex)
)

// Valid reports whether n is a usable index for a mesh with count nodes
func (n NodeIndex) Valid(count int) bool { return n >= 0 && int(n) < count }

// Valid reports whether e is a usable index for a mesh with count elements
func (e ElemIndex) Valid(count int) bool { return e >= 0 && int(e) < count }

// Valid reports whether d is a usable index for a mesh with count d-elements
func (d DElemIndex) Valid(count int) bool { return d >= 0 && int(d) < count }

// TopologyError describes an operation invoked on a primitive kind the mesh
// does not carry. It is raised with panic: it is a programming error at the
// call site, never a runtime condition.
type TopologyError struct {
	Mesh      string
	Operation string
	Primitive Primitive
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s: %s is not supported, the mesh has no %s primitive",
		e.Mesh, e.Operation, e.Primitive)
}

// Unsupported panics with a TopologyError
func Unsupported(mesh, operation string, p Primitive) {
	panic(&TopologyError{Mesh: mesh, Operation: operation, Primitive: p})
}

var (
	lineEdges = [][2]int{{0, 1}}
	triEdges  = [][2]int{{0, 1}, {1, 2}, {2, 0}}
	quadEdges = [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	tetEdges  = [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}}
	hexEdges  = [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	tetFaces = [][]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {2, 0, 3}}
	hexFaces = [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	}
)

// LocalEdges returns the vertex pairs of each edge of the unit element
func LocalEdges(g ElementGeometry) [][2]int {
	switch g {
	case Line:
		return lineEdges
	case Tri:
		return triEdges
	case Rectangle:
		return quadEdges
	case Tet:
		return tetEdges
	case Hex:
		return hexEdges
	}
	return nil
}

// LocalFaces returns the vertices of each face of the unit element, counter
// clockwise seen from outside. Surface elements have the single face of all
// their vertices.
func LocalFaces(g ElementGeometry) [][]int {
	switch g {
	case Tri:
		return [][]int{{0, 1, 2}}
	case Rectangle:
		return [][]int{{0, 1, 2, 3}}
	case Tet:
		return tetFaces
	case Hex:
		return hexFaces
	}
	return nil
}
