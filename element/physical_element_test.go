package element_test

import (
	"math"
	"testing"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/element/library"
	"github.com/notargets/DGMesh/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skewQuad() []utils.Point {
	return []utils.Point{
		utils.NewPoint(0, 0, 0),
		utils.NewPoint(2, 0, 0),
		utils.NewPoint(2.5, 1.5, 0.3),
		utils.NewPoint(-0.2, 1, 0),
	}
}

func unitHex(scale float64) []utils.Point {
	var b library.HexTrilinearLgn
	out := make([]utils.Point, 0, 8)
	for _, v := range b.UnitVertices() {
		out = append(out, utils.NewPoint(scale*v[0], scale*v[1], scale*v[2]))
	}
	return out
}

func TestInterpolateAtVertices(t *testing.T) {
	bases := []element.Basis{
		library.CrvLinearLgn{}, library.QuadBilinearLgn{}, library.HexTrilinearLgn{},
	}
	for _, b := range bases {
		t.Run(b.Name(), func(t *testing.T) {
			nodes := unitHex(3)[:b.NumVertices()]
			for i, v := range b.UnitVertices() {
				p := element.Interpolate(b, v[:b.Dimensions()], nodes)
				assert.InDelta(t, 0, utils.Dist(p, nodes[i]), 1e-14, "vertex %d", i)
			}
			// Weights are a partition of unity
			w := make([]float64, b.NumVertices())
			c := b.UnitCenter()
			b.Weights(c[:b.Dimensions()], w)
			var sum float64
			for _, x := range w {
				sum += x
			}
			assert.InDelta(t, 1, sum, 1e-14)
		})
	}
}

func TestConstantBasis(t *testing.T) {
	var b library.ConstantBasis
	p := utils.NewPoint(1, 2, 3)
	assert.Equal(t, p, element.Interpolate(b, nil, []utils.Point{p}))
	assert.Nil(t, element.Derivate(b, nil, []utils.Point{p}))
	assert.Equal(t, 0., element.Size(b, []utils.Point{p}))

	c, ok := element.Coords(b, utils.NewPoint(1, 2, 3+1e-9), []utils.Point{p}, 1e-16)
	assert.True(t, ok)
	assert.Empty(t, c)
	_, ok = element.Coords(b, utils.NewPoint(1, 2, 4), []utils.Point{p}, 1e-16)
	assert.False(t, ok)
}

func TestJacobianInverse(t *testing.T) {
	var b library.QuadBilinearLgn
	nodes := skewQuad()
	coords := []float64{0.3, 0.6}
	J := element.Jacobian(b, coords, nodes)
	Ji, det := element.InverseJacobian(b, coords, nodes)
	require.NotZero(t, det)

	// J and Ji are stored as rows of derivative vectors, their product is I
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += J[3*i+k] * Ji[3*k+j]
			}
			want := 0.
			if i == j {
				want = 1
			}
			assert.InDeltaf(t, want, s, 1e-12, "(%d,%d)", i, j)
		}
	}

	// The completed third column is a unit normal to the surface
	n := utils.NewPoint(J[6], J[7], J[8])
	assert.InDelta(t, 1, math.Sqrt(n.X*n.X+n.Y*n.Y+n.Z*n.Z), 1e-14)
	d := element.Derivate(b, coords, nodes)
	assert.InDelta(t, 0, d[0].X*n.X+d[0].Y*n.Y+d[0].Z*n.Z, 1e-14)

	// Curves complete to an orthonormal frame
	var crv library.CrvLinearLgn
	_, det = element.InverseJacobian(crv, []float64{0.5},
		[]utils.Point{utils.NewPoint(0, 0, 0), utils.NewPoint(0, 0, 2)})
	assert.InDelta(t, 2, math.Abs(det), 1e-12)
}

func TestNewtonRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		b      element.Basis
		nodes  []utils.Point
		coords []float64
	}{
		{"curve", library.CrvLinearLgn{}, []utils.Point{utils.NewPoint(1, 1, 1), utils.NewPoint(3, 2, 0)}, []float64{0.7}},
		{"quad", library.QuadBilinearLgn{}, skewQuad(), []float64{0.25, 0.8}},
		{"hex", library.HexTrilinearLgn{}, unitHex(2), []float64{0.1, 0.5, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := element.Interpolate(tt.b, tt.coords, tt.nodes)
			got, ok := element.Coords(tt.b, p, tt.nodes, 1e-16)
			require.True(t, ok)
			assert.InDeltaSlicef(t, tt.coords, got, 1e-10, "coords")
		})
	}
}

func TestCoordsOutside(t *testing.T) {
	var b library.QuadBilinearLgn
	nodes := unitHex(1)[:4]
	// Beyond the edge
	_, ok := element.Coords(b, utils.NewPoint(1.5, 0.5, 0), nodes, 1e-16)
	assert.False(t, ok)
	// Above the face, the projection is inside but the residual is not
	c, res2, conv := element.Newton(b, utils.NewPoint(0.5, 0.25, 1), nodes)
	assert.True(t, conv)
	assert.InDelta(t, 1, res2, 1e-12)
	assert.InDeltaSlicef(t, []float64{0.5, 0.25}, c, 1e-12, "projected coords")
	_, ok = element.Coords(b, utils.NewPoint(0.5, 0.25, 1), nodes, 1e-16)
	assert.False(t, ok)

	out := []float64{-0.2, 1.3}
	element.ClampUnit(out)
	assert.Equal(t, []float64{0, 1}, out)
}

func TestSize(t *testing.T) {
	assert.InDelta(t, math.Sqrt(6), element.Size(library.CrvLinearLgn{},
		[]utils.Point{utils.NewPoint(0, 0, 0), utils.NewPoint(1, 2, 1)}), 1e-12)
	assert.InDelta(t, 4, element.Size(library.QuadBilinearLgn{}, unitHex(2)[:4]), 1e-12)
	assert.InDelta(t, 27, element.Size(library.HexTrilinearLgn{}, unitHex(3)), 1e-12)

	// A planar trapezoid: bilinear maps of planar quads integrate exactly
	trap := []utils.Point{
		utils.NewPoint(0, 0, 0), utils.NewPoint(4, 0, 0),
		utils.NewPoint(3, 2, 0), utils.NewPoint(1, 2, 0),
	}
	assert.InDelta(t, 6, element.Size(library.QuadBilinearLgn{}, trap), 1e-12)
}

func TestGetProperties(t *testing.T) {
	p := element.GetProperties(library.HexTrilinearLgn{})
	assert.Equal(t, "Hex1", p.ShortName)
	assert.Equal(t, 12, p.NEdges)
	assert.Equal(t, 6, p.NFaces)
	assert.Equal(t, element.D3, p.Dimensions)
	assert.Contains(t, p.String(), "Trilinear")

	rg := element.GetReferenceGeometry(library.QuadBilinearLgn{})
	assert.Equal(t, []float64{0, 1, 1, 0}, rg.R)
	assert.Equal(t, []float64{0, 0, 1, 1}, rg.S)
}

func TestUnsupportedPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		te, ok := r.(*element.TopologyError)
		require.True(t, ok)
		assert.Equal(t, element.FacePrimitive, te.Primitive)
		assert.Contains(t, te.Error(), "PointCloud")
	}()
	element.Unsupported("PointCloud", "NodesOfFace", element.FacePrimitive)
}
