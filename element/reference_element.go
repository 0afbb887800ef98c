package element

import (
	"fmt"
	"strings"
)

// ElementProperties contains metadata describing the reference element a basis
// is defined on
type ElementProperties struct {
	Name       string          // Full descriptive name (e.g., "Linear Lagrange Quadrilateral")
	ShortName  string          // Abbreviated name (e.g., "Quad1")
	Type       ElementGeometry // Element shape
	Order      int             // Polynomial order
	NVp        int             // Number of vertex nodes the basis weights
	NEdges     int             // Number of edges on the reference element
	NFaces     int             // Number of faces on the reference element
	Dimensions Dimensionality  // Spatial dimension of the reference element
}

// ReferenceGeometry is the node layout of the unit element
type ReferenceGeometry struct {
	// Node coordinates in the unit element.
	// For 3D: all three are used; for 2D: only R,S; for 1D: only R
	R, S, T []float64

	Center [3]float64
}

var shortNames = map[ElementGeometry]string{
	Point:     "Pnt",
	Line:      "Crv",
	Tri:       "Tri",
	Rectangle: "Quad",
	Tet:       "Tet",
	Hex:       "Hex",
}

// GetProperties summarizes a basis
func GetProperties(b Basis) ElementProperties {
	var nEdges, nFaces int
	switch b.GeometryType() {
	case Line:
		nEdges = 1
	case Tri:
		nEdges, nFaces = 3, 1
	case Rectangle:
		nEdges, nFaces = 4, 1
	case Tet:
		nEdges, nFaces = 6, 4
	case Hex:
		nEdges, nFaces = 12, 6
	}
	return ElementProperties{
		Name:       b.Name(),
		ShortName:  fmt.Sprintf("%s%d", shortNames[b.GeometryType()], b.Order()),
		Type:       b.GeometryType(),
		Order:      b.Order(),
		NVp:        b.NumVertices(),
		NEdges:     nEdges,
		NFaces:     nFaces,
		Dimensions: b.Dimensions(),
	}
}

// GetReferenceGeometry splits the unit vertices of a basis into coordinate
// arrays
func GetReferenceGeometry(b Basis) ReferenceGeometry {
	uv := b.UnitVertices()
	rg := ReferenceGeometry{
		R:      make([]float64, len(uv)),
		S:      make([]float64, len(uv)),
		T:      make([]float64, len(uv)),
		Center: b.UnitCenter(),
	}
	for i, v := range uv {
		rg.R[i], rg.S[i], rg.T[i] = v[0], v[1], v[2]
	}
	return rg
}

// String returns a short summary of the element properties
func (p ElementProperties) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  Name: %s (%s)\n", p.Name, p.ShortName))
	sb.WriteString(fmt.Sprintf("  Type: %v\n", p.Type))
	sb.WriteString(fmt.Sprintf("  Order: %d\n", p.Order))
	sb.WriteString(fmt.Sprintf("  Vertices per element (NVp): %d\n", p.NVp))
	sb.WriteString(fmt.Sprintf("  Edges/Faces per element: %d/%d\n", p.NEdges, p.NFaces))
	sb.WriteString(fmt.Sprintf("  Dimensions: %v\n", p.Dimensions))
	return sb.String()
}
