package element

import "fmt"

type Dimensionality uint8

const (
	D0 Dimensionality = iota // Points
	D1                       // Lines, edges
	D2                       // Triangles, quadrilaterals
	D3                       // Tetrahedra, hexahedra
)

func (d Dimensionality) String() string {
	return fmt.Sprintf("%dD", int(d))
}

type ElementGeometry uint8

const (
	Point ElementGeometry = iota
	Line
	Tri
	Rectangle
	Tet
	Hex
)

func (g ElementGeometry) String() string {
	switch g {
	case Point:
		return "Point"
	case Line:
		return "Line"
	case Tri:
		return "Tri"
	case Rectangle:
		return "Rectangle"
	case Tet:
		return "Tet"
	case Hex:
		return "Hex"
	default:
		return fmt.Sprintf("ElementGeometry(%d)", uint8(g))
	}
}

// Basis is the shape function capability a mesh delegates interpolation to.
// Implementations are stateless and shared between meshes.
//
// Local coordinates live in the unit element: [0,1] for lines, [0,1]^2 for
// quadrilaterals and [0,1]^3 for hexahedra.
type Basis interface {
	Name() string
	GeometryType() ElementGeometry
	Dimensions() Dimensionality
	Order() int
	IsLinear() bool

	NumVertices() int // Number of element nodes the basis weights
	UnitVertices() [][3]float64
	UnitCenter() [3]float64

	// Weights fills w[NumVertices] with the interpolation weight of each node
	// at coords
	Weights(coords []float64, w []float64)

	// DerivativeWeights fills dw[Dimensions][NumVertices] with the partial
	// derivative of each weight along each local axis at coords
	DerivativeWeights(coords []float64, dw [][]float64)
}
