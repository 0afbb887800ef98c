package utils

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSingularTransform is returned when inverting a transform whose linear part
// has no inverse
var ErrSingularTransform = errors.New("singular transform")

// Transform is an affine map x -> M*x + T. The zero value is not the identity,
// use Identity().
type Transform struct {
	m [9]float64 // Row-major linear part
	t Point      // Translation
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{m: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewTransform builds a transform from a row-major 3x3 linear part and a
// translation
func NewTransform(linear [9]float64, translate Point) Transform {
	return Transform{m: linear, t: translate}
}

// BoxTransform maps the unit index box [0,1]^3 onto the box [min,max]. Axes
// with zero extent keep a unit scale so the map stays invertible.
func BoxTransform(min, max Point) Transform {
	sz := r3.Sub(max, min)
	if sz.X == 0 {
		sz.X = 1
	}
	if sz.Y == 0 {
		sz.Y = 1
	}
	if sz.Z == 0 {
		sz.Z = 1
	}
	return Transform{m: [9]float64{sz.X, 0, 0, 0, sz.Y, 0, 0, 0, sz.Z}, t: min}
}

// Linear returns a copy of the linear part as an r3.Mat
func (t Transform) Linear() *r3.Mat {
	vals := make([]float64, 9)
	copy(vals, t.m[:])
	return r3.NewMat(vals)
}

// Translation returns the translation part
func (t Transform) Translation() Point { return t.t }

// Project applies the full affine map to p
func (t *Transform) Project(p Point) Point {
	return Point{
		X: t.m[0]*p.X + t.m[1]*p.Y + t.m[2]*p.Z + t.t.X,
		Y: t.m[3]*p.X + t.m[4]*p.Y + t.m[5]*p.Z + t.t.Y,
		Z: t.m[6]*p.X + t.m[7]*p.Y + t.m[8]*p.Z + t.t.Z,
	}
}

// ProjectVector applies only the linear part to v
func (t *Transform) ProjectVector(v Point) Point {
	return Point{
		X: t.m[0]*v.X + t.m[1]*v.Y + t.m[2]*v.Z,
		Y: t.m[3]*v.X + t.m[4]*v.Y + t.m[5]*v.Z,
		Z: t.m[6]*v.X + t.m[7]*v.Y + t.m[8]*v.Z,
	}
}

// Column returns column j of the linear part, the image of unit axis j
func (t *Transform) Column(j int) Point {
	return Point{X: t.m[j], Y: t.m[3+j], Z: t.m[6+j]}
}

// PreMult makes t apply o after itself: t = o∘t
func (t *Transform) PreMult(o Transform) {
	var m [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[3*i+j] = o.m[3*i]*t.m[j] + o.m[3*i+1]*t.m[3+j] + o.m[3*i+2]*t.m[6+j]
		}
	}
	t.t = o.Project(t.t)
	t.m = m
}

// PostMult makes t apply o before itself: t = t∘o
func (t *Transform) PostMult(o Transform) {
	var m [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[3*i+j] = t.m[3*i]*o.m[j] + t.m[3*i+1]*o.m[3+j] + t.m[3*i+2]*o.m[6+j]
		}
	}
	t.t = t.Project(o.t)
	t.m = m
}

// Translate appends a translation by d
func (t *Transform) Translate(d Point) {
	t.t = r3.Add(t.t, d)
}

// Scale appends a per-axis scale
func (t *Transform) Scale(s Point) {
	t.PreMult(Transform{m: [9]float64{s.X, 0, 0, 0, s.Y, 0, 0, 0, s.Z}})
}

// Rotate appends a rotation of angle radians about axis
func (t *Transform) Rotate(angle float64, axis Point) {
	rm := r3.NewRotation(angle, axis).Mat()
	var o Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			o.m[3*i+j] = rm.At(i, j)
		}
	}
	t.PreMult(o)
}

// Det is the determinant of the linear part
func (t Transform) Det() float64 {
	return t.Linear().Det()
}

// Inverse returns the inverse map
func (t Transform) Inverse() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.Linear()); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}
	var o Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			o.m[3*i+j] = inv.At(i, j)
		}
	}
	o.t = r3.Scale(-1, o.ProjectVector(t.t))
	return o, nil
}

// Equal reports whether every coefficient of t and o agrees within tol
func (t Transform) Equal(o Transform, tol float64) bool {
	for i := range t.m {
		if math.Abs(t.m[i]-o.m[i]) > tol {
			return false
		}
	}
	return Dist(t.t, o.t) <= tol
}
