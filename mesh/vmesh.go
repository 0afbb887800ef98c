package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
)

var (
	// ErrIndexOutOfRange is returned by the bounds checked edits of irregular
	// meshes
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNodeInUse is returned when deleting a node an element still refers to
	ErrNodeInUse = errors.New("node referenced by an element")
	// ErrUnknownMeshKind is returned when a mesh kind name cannot be parsed
	ErrUnknownMeshKind = errors.New("unknown mesh kind")
)

// Kind enumerates the concrete mesh representations
type Kind uint8

const (
	PointCloudKind     Kind = iota // Unconnected nodes
	CurveKind                      // Nodes joined by line segments
	ImageKind                      // Regular 2D lattice placed by an affine map
	StructQuadSurfKind             // Structured quads with explicit node positions
	LatVolKind                     // Regular 3D lattice placed by an affine map
)

var kindNames = [...]string{
	PointCloudKind:     "PointCloud",
	CurveKind:          "Curve",
	ImageKind:          "Image",
	StructQuadSurfKind: "StructQuadSurf",
	LatVolKind:         "LatVol",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind matches a kind name case insensitively
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMeshKind, s)
}

// ClosestNode is the result of a closest node query
type ClosestNode struct {
	Node  element.NodeIndex
	Point utils.Point // Position of Node
	Dist  float64
}

// ClosestElem is the result of a closest element query
type ClosestElem struct {
	Elem   element.ElemIndex
	Coords []float64   // Local coordinates of Point inside Elem
	Point  utils.Point // Closest point of the element
	Dist   float64
}

// VMesh is the operation set every concrete mesh provides, so callers can be
// written once against any representation. Operations on a primitive kind the
// mesh does not carry panic with an *element.TopologyError. Query misses are
// reported with a false return.
//
// Queries read derived state without locking; Synchronize the flags a query
// needs before issuing it. Structural edits must not run concurrently with
// queries.
type VMesh interface {
	Kind() Kind
	Basis() element.Basis
	Dimensions() element.Dimensionality
	ElemPrimitive() element.Primitive
	DElemPrimitive() element.Primitive
	IsRegular() bool
	HasNormals() bool
	// Generation changes whenever the mesh storage is structurally replaced
	Generation() uint64

	NumNodes() int
	NumEdges() int
	NumFaces() int
	NumCells() int
	NumElems() int
	NumDElems() int

	NodesOfEdge(dst []element.NodeIndex, e element.EdgeIndex) []element.NodeIndex
	NodesOfFace(dst []element.NodeIndex, f element.FaceIndex) []element.NodeIndex
	NodesOfCell(dst []element.NodeIndex, c element.CellIndex) []element.NodeIndex
	NodesOfElem(dst []element.NodeIndex, e element.ElemIndex) []element.NodeIndex
	NodesOfDElem(dst []element.NodeIndex, d element.DElemIndex) []element.NodeIndex
	EdgesOfFace(dst []element.EdgeIndex, f element.FaceIndex) []element.EdgeIndex
	EdgesOfElem(dst []element.EdgeIndex, e element.ElemIndex) []element.EdgeIndex
	FacesOfCell(dst []element.FaceIndex, c element.CellIndex) []element.FaceIndex
	DElemsOfElem(dst []element.DElemIndex, e element.ElemIndex) []element.DElemIndex
	ElemsOfNode(dst []element.ElemIndex, n element.NodeIndex) []element.ElemIndex
	NodeNeighbors(dst []element.NodeIndex, n element.NodeIndex) []element.NodeIndex
	ElemNeighbors(dst []element.ElemIndex, e element.ElemIndex) []element.ElemIndex

	Point(n element.NodeIndex) utils.Point
	CenterOfEdge(e element.EdgeIndex) utils.Point
	CenterOfFace(f element.FaceIndex) utils.Point
	CenterOfCell(c element.CellIndex) utils.Point
	CenterOfElem(e element.ElemIndex) utils.Point
	CenterOfDElem(d element.DElemIndex) utils.Point
	Normal(n element.NodeIndex) utils.Point
	BoundingBox() utils.BBox
	Epsilon() float64
	Size(e element.ElemIndex) float64
	Transform(t utils.Transform) error

	LocateNode(p utils.Point, hint element.NodeIndex) (element.NodeIndex, bool)
	LocateElem(p utils.Point, hint element.ElemIndex) (element.ElemIndex, bool)
	LocateElemCoords(p utils.Point, hint element.ElemIndex) (element.ElemIndex, []float64, bool)
	LocateElems(b utils.BBox) []element.ElemIndex
	FindClosestNode(p utils.Point, maxDist float64) (ClosestNode, bool)
	FindClosestNodes(p utils.Point, radius float64) []element.NodeIndex
	FindClosestElem(p utils.Point, maxDist float64) (ClosestElem, bool)
	FindClosestElems(p utils.Point) (elems []element.ElemIndex, q utils.Point, dist float64, ok bool)

	Coords(p utils.Point, e element.ElemIndex) ([]float64, bool)
	Interpolate(coords []float64, e element.ElemIndex) utils.Point
	Derivate(coords []float64, e element.ElemIndex) []utils.Point
	Jacobian(coords []float64, e element.ElemIndex) [9]float64
	InverseJacobian(coords []float64, e element.ElemIndex) ([9]float64, float64)
	JacobianMetric(e element.ElemIndex) (min, max float64)

	Synchronize(flags SyncFlag)
	Unsynchronize(flags SyncFlag)
	ClearSynchronization()
	IsSynchronized(flags SyncFlag) bool
}

// Editable is implemented by meshes with explicit node and element storage
type Editable interface {
	VMesh
	AddNode(p utils.Point) element.NodeIndex
	AddElem(nodes ...element.NodeIndex) (element.ElemIndex, error)
	DeleteNode(n element.NodeIndex) error
	DeleteElem(e element.ElemIndex) error
	SetPoint(n element.NodeIndex, p utils.Point)
	Reserve(nodes, elems int)
}

// Structured is implemented by meshes whose connectivity follows from their
// lattice dimensions
type Structured interface {
	VMesh
	// Dims returns the node counts along each lattice axis, unused axes are 1
	Dims() [3]int
}

// Handle pins a mesh to its current storage. Reading through a handle after
// the mesh was structurally replaced panics.
type Handle struct {
	m   VMesh
	gen uint64
}

// NewHandle returns a handle on the current storage of m
func NewHandle(m VMesh) Handle {
	return Handle{m: m, gen: m.Generation()}
}

// Mesh returns the mesh, panicking when the handle went stale
func (h Handle) Mesh() VMesh {
	if h.m == nil {
		panic("mesh: use of an empty handle")
	}
	if g := h.m.Generation(); g != h.gen {
		panic(fmt.Sprintf("mesh: stale %s handle, generation %d is now %d",
			h.m.Kind(), h.gen, g))
	}
	return h.m
}

// Stale reports whether the mesh storage changed since the handle was made
func (h Handle) Stale() bool {
	return h.m == nil || h.m.Generation() != h.gen
}
