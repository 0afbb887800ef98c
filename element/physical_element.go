package element

import (
	"errors"
	"math"
	"sync"

	"github.com/notargets/DGMesh/element/library/gonudg"
	"github.com/notargets/DGMesh/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// The functions in this file map between the unit element of a basis and a
// physical element given by its node positions. The node positions are passed
// in basis vertex order.

const (
	// CoordsTolerance is the slack allowed on local coordinates when deciding
	// that a point lies inside the unit element
	CoordsTolerance = 1.e-7
	// NewtonMaxIter bounds the coordinate inversion
	NewtonMaxIter = 100
	// QuadratureOrder is the number of Gauss points per axis used by Size
	QuadratureOrder = 3
)

// Interpolate evaluates the basis at coords over the element nodes
func Interpolate(b Basis, coords []float64, nodes []utils.Point) utils.Point {
	nv := b.NumVertices()
	if b.Dimensions() == D0 {
		return nodes[0]
	}
	w := make([]float64, nv)
	b.Weights(coords, w)
	var p utils.Point
	for i := 0; i < nv; i++ {
		p = r3.Add(p, r3.Scale(w[i], nodes[i]))
	}
	return p
}

// Derivate returns the derivative of the physical position along each local
// axis, one vector per basis dimension
func Derivate(b Basis, coords []float64, nodes []utils.Point) []utils.Point {
	nd := int(b.Dimensions())
	if nd == 0 {
		return nil
	}
	nv := b.NumVertices()
	dw := make([][]float64, nd)
	for d := range dw {
		dw[d] = make([]float64, nv)
	}
	b.DerivativeWeights(coords, dw)
	out := make([]utils.Point, nd)
	for d := 0; d < nd; d++ {
		for i := 0; i < nv; i++ {
			out[d] = r3.Add(out[d], r3.Scale(dw[d][i], nodes[i]))
		}
	}
	return out
}

// Jacobian returns the 3x3 jacobian ∂x/∂ξ at coords stored as consecutive
// derivative vectors:
//
//	J[0] = ∂x/∂ξ    J[1] = ∂y/∂ξ    J[2] = ∂z/∂ξ
//	J[3] = ∂x/∂η    J[4] = ∂y/∂η    J[5] = ∂z/∂η
//	J[6] = ∂x/∂ζ    J[7] = ∂y/∂ζ    J[8] = ∂z/∂ζ
//
// Lower dimensional elements are completed with unit vectors orthogonal to
// the element so the matrix stays invertible.
func Jacobian(b Basis, coords []float64, nodes []utils.Point) (J [9]float64) {
	d := Derivate(b, coords, nodes)
	var c0, c1, c2 utils.Point
	switch len(d) {
	case 0:
		c0, c1, c2 = utils.NewPoint(1, 0, 0), utils.NewPoint(0, 1, 0), utils.NewPoint(0, 0, 1)
	case 1:
		c0 = d[0]
		c1, c2 = orthogonalPair(c0)
	case 2:
		c0, c1 = d[0], d[1]
		c2 = safeUnit(r3.Cross(c0, c1))
	default:
		c0, c1, c2 = d[0], d[1], d[2]
	}
	J = [9]float64{c0.X, c0.Y, c0.Z, c1.X, c1.Y, c1.Z, c2.X, c2.Y, c2.Z}
	return
}

// InverseJacobian returns the inverse of Jacobian in the same layout together
// with the jacobian determinant. A singular jacobian returns a zero matrix and
// zero determinant.
func InverseJacobian(b Basis, coords []float64, nodes []utils.Point) (Ji [9]float64, det float64) {
	J := Jacobian(b, coords, nodes)
	// Row i of the dense matrix is derivative vector i; the inverse of its
	// transpose is the transpose of its inverse so the layout carries over
	m := mat.NewDense(3, 3, J[:])
	det = mat.Det(m)
	if det == 0 {
		return
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return [9]float64{}, 0
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			Ji[3*i+j] = inv.At(i, j)
		}
	}
	return
}

// Measure is the local length, area or volume scale of the map at coords:
// |∂x/∂ξ| in 1D, |∂x/∂ξ × ∂x/∂η| in 2D and the jacobian determinant in 3D
func Measure(b Basis, coords []float64, nodes []utils.Point) float64 {
	d := Derivate(b, coords, nodes)
	switch len(d) {
	case 0:
		return 0
	case 1:
		return r3.Norm(d[0])
	case 2:
		return r3.Norm(r3.Cross(d[0], d[1]))
	default:
		return r3.Dot(d[0], r3.Cross(d[1], d[2]))
	}
}

// Newton inverts the basis map for p. It returns the local coordinates of the
// point of the element closest to p in the least squares sense, the squared
// residual distance and whether the iteration converged. Coordinates are not
// clamped to the unit element.
func Newton(b Basis, p utils.Point, nodes []utils.Point) (coords []float64, res2 float64, converged bool) {
	nd := int(b.Dimensions())
	c := b.UnitCenter()
	coords = make([]float64, nd)
	copy(coords, c[:nd])
	if nd == 0 {
		return coords, utils.Dist2(p, nodes[0]), true
	}

	J := mat.NewDense(3, nd, nil)
	r := mat.NewVecDense(3, nil)
	var dx mat.VecDense
	for iter := 0; iter < NewtonMaxIter; iter++ {
		x := Interpolate(b, coords, nodes)
		diff := r3.Sub(x, p)
		r.SetVec(0, diff.X)
		r.SetVec(1, diff.Y)
		r.SetVec(2, diff.Z)

		dv := Derivate(b, coords, nodes)
		for j := 0; j < nd; j++ {
			J.Set(0, j, dv[j].X)
			J.Set(1, j, dv[j].Y)
			J.Set(2, j, dv[j].Z)
		}
		if err := dx.SolveVec(J, r); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return coords, r3.Norm2(diff), false
			}
		}
		var step2 float64
		for j := 0; j < nd; j++ {
			s := dx.AtVec(j)
			coords[j] -= s
			step2 += s * s
		}
		if step2 < 1.e-20 {
			converged = true
			break
		}
	}
	return coords, utils.Dist2(Interpolate(b, coords, nodes), p), converged
}

// InsideUnit reports whether coords lie in the unit element within tol
func InsideUnit(g ElementGeometry, coords []float64, tol float64) bool {
	for _, c := range coords {
		if c < -tol || c > 1+tol {
			return false
		}
	}
	if g == Tri || g == Tet {
		var s float64
		for _, c := range coords {
			s += c
		}
		return s <= 1+tol
	}
	return true
}

// ClampUnit moves coords onto the closed unit element
func ClampUnit(coords []float64) {
	for i, c := range coords {
		coords[i] = math.Max(0, math.Min(1, c))
	}
}

// Coords returns the local coordinates of p inside the element, and false when
// p is farther than sqrt(eps2) from the element or outside its unit domain
func Coords(b Basis, p utils.Point, nodes []utils.Point, eps2 float64) ([]float64, bool) {
	coords, res2, converged := Newton(b, p, nodes)
	if !converged || res2 > math.Max(eps2, 1.e-24) {
		return coords, false
	}
	return coords, InsideUnit(b.GeometryType(), coords, CoordsTolerance)
}

// Size integrates Measure over the unit element with tensor Gauss-Legendre
// quadrature, giving the length, area or volume of the element
func Size(b Basis, nodes []utils.Point) float64 {
	nd := int(b.Dimensions())
	if nd == 0 {
		return 0
	}
	x, w := unitQuadrature()
	n := len(x)
	total := 1
	for d := 0; d < nd; d++ {
		total *= n
	}
	coords := make([]float64, nd)
	var size float64
	for q := 0; q < total; q++ {
		wt := 1.
		idx := q
		for d := 0; d < nd; d++ {
			coords[d] = x[idx%n]
			wt *= w[idx%n]
			idx /= n
		}
		size += wt * math.Abs(Measure(b, coords, nodes))
	}
	return size
}

var (
	quadOnce     sync.Once
	quadX, quadW []float64
)

func unitQuadrature() ([]float64, []float64) {
	quadOnce.Do(func() {
		quadX, quadW = gonudg.GaussLegendre01(QuadratureOrder)
	})
	return quadX, quadW
}

func safeUnit(v utils.Point) utils.Point {
	if n := r3.Norm(v); n > 0 {
		return r3.Scale(1/n, v)
	}
	return v
}

// orthogonalPair returns two unit vectors orthogonal to v and each other
func orthogonalPair(v utils.Point) (a, b utils.Point) {
	u := safeUnit(v)
	ref := utils.NewPoint(1, 0, 0)
	if math.Abs(u.X) > 0.9 {
		ref = utils.NewPoint(0, 1, 0)
	}
	a = safeUnit(r3.Cross(u, ref))
	b = safeUnit(r3.Cross(u, a))
	return
}
