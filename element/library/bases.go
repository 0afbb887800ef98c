package library

import (
	"github.com/notargets/DGMesh/element"
)

// The bases below are the linear Lagrange family on unit elements. Vertex
// order follows the structured node order of the meshes: quadrilaterals run
// counter clockwise from the origin, hexahedra are the bottom quadrilateral
// followed by the top one.

// ConstantBasis weights a single node; it serves point cloud elements
type ConstantBasis struct{}

func (ConstantBasis) Name() string                                 { return "Constant Point" }
func (ConstantBasis) GeometryType() element.ElementGeometry        { return element.Point }
func (ConstantBasis) Dimensions() element.Dimensionality           { return element.D0 }
func (ConstantBasis) Order() int                                   { return 0 }
func (ConstantBasis) IsLinear() bool                               { return true }
func (ConstantBasis) NumVertices() int                             { return 1 }
func (ConstantBasis) UnitVertices() [][3]float64                   { return [][3]float64{{0, 0, 0}} }
func (ConstantBasis) UnitCenter() [3]float64                       { return [3]float64{} }
func (ConstantBasis) Weights(_ []float64, w []float64)             { w[0] = 1 }
func (ConstantBasis) DerivativeWeights(_ []float64, _ [][]float64) {}

// CrvLinearLgn is the two node linear basis on [0,1]
type CrvLinearLgn struct{}

func (CrvLinearLgn) Name() string                          { return "Linear Lagrange Curve" }
func (CrvLinearLgn) GeometryType() element.ElementGeometry { return element.Line }
func (CrvLinearLgn) Dimensions() element.Dimensionality    { return element.D1 }
func (CrvLinearLgn) Order() int                            { return 1 }
func (CrvLinearLgn) IsLinear() bool                        { return true }
func (CrvLinearLgn) NumVertices() int                      { return 2 }
func (CrvLinearLgn) UnitVertices() [][3]float64            { return [][3]float64{{0, 0, 0}, {1, 0, 0}} }
func (CrvLinearLgn) UnitCenter() [3]float64                { return [3]float64{0.5, 0, 0} }

func (CrvLinearLgn) Weights(c []float64, w []float64) {
	x := c[0]
	w[0] = 1 - x
	w[1] = x
}

func (CrvLinearLgn) DerivativeWeights(_ []float64, dw [][]float64) {
	dw[0][0] = -1
	dw[0][1] = 1
}

// QuadBilinearLgn is the four node bilinear basis on [0,1]^2
type QuadBilinearLgn struct{}

func (QuadBilinearLgn) Name() string                          { return "Bilinear Lagrange Quadrilateral" }
func (QuadBilinearLgn) GeometryType() element.ElementGeometry { return element.Rectangle }
func (QuadBilinearLgn) Dimensions() element.Dimensionality    { return element.D2 }
func (QuadBilinearLgn) Order() int                            { return 1 }
func (QuadBilinearLgn) IsLinear() bool                        { return false }
func (QuadBilinearLgn) NumVertices() int                      { return 4 }
func (QuadBilinearLgn) UnitCenter() [3]float64                { return [3]float64{0.5, 0.5, 0} }

func (QuadBilinearLgn) UnitVertices() [][3]float64 {
	return [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
}

func (QuadBilinearLgn) Weights(c []float64, w []float64) {
	x, y := c[0], c[1]
	w[0] = (1 - x) * (1 - y)
	w[1] = x * (1 - y)
	w[2] = x * y
	w[3] = (1 - x) * y
}

func (QuadBilinearLgn) DerivativeWeights(c []float64, dw [][]float64) {
	x, y := c[0], c[1]
	dw[0][0], dw[0][1], dw[0][2], dw[0][3] = -(1 - y), 1-y, y, -y
	dw[1][0], dw[1][1], dw[1][2], dw[1][3] = -(1 - x), -x, x, 1-x
}

// HexTrilinearLgn is the eight node trilinear basis on [0,1]^3
type HexTrilinearLgn struct{}

func (HexTrilinearLgn) Name() string                          { return "Trilinear Lagrange Hexahedron" }
func (HexTrilinearLgn) GeometryType() element.ElementGeometry { return element.Hex }
func (HexTrilinearLgn) Dimensions() element.Dimensionality    { return element.D3 }
func (HexTrilinearLgn) Order() int                            { return 1 }
func (HexTrilinearLgn) IsLinear() bool                        { return false }
func (HexTrilinearLgn) NumVertices() int                      { return 8 }
func (HexTrilinearLgn) UnitCenter() [3]float64                { return [3]float64{0.5, 0.5, 0.5} }

var hexVertices = [][3]float64{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

func (HexTrilinearLgn) UnitVertices() [][3]float64 {
	out := make([][3]float64, len(hexVertices))
	copy(out, hexVertices)
	return out
}

// hexFactor returns the 1D linear factor of vertex v along axis d at x and its
// derivative
func hexFactor(v, d int, x float64) (f, df float64) {
	if hexVertices[v][d] == 0 {
		return 1 - x, -1
	}
	return x, 1
}

func (HexTrilinearLgn) Weights(c []float64, w []float64) {
	for v := 0; v < 8; v++ {
		fx, _ := hexFactor(v, 0, c[0])
		fy, _ := hexFactor(v, 1, c[1])
		fz, _ := hexFactor(v, 2, c[2])
		w[v] = fx * fy * fz
	}
}

func (HexTrilinearLgn) DerivativeWeights(c []float64, dw [][]float64) {
	for v := 0; v < 8; v++ {
		fx, dfx := hexFactor(v, 0, c[0])
		fy, dfy := hexFactor(v, 1, c[1])
		fz, dfz := hexFactor(v, 2, c[2])
		dw[0][v] = dfx * fy * fz
		dw[1][v] = fx * dfy * fz
		dw[2][v] = fx * fy * dfz
	}
}

// Compile time interface checks
var (
	_ element.Basis = ConstantBasis{}
	_ element.Basis = CrvLinearLgn{}
	_ element.Basis = QuadBilinearLgn{}
	_ element.Basis = HexTrilinearLgn{}
)
