package utils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a location in object space. It is a plain value and is copied freely.
type Point = r3.Vec

// NewPoint returns the point (x, y, z)
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Dist2 is the squared euclidean distance between a and b
func Dist2(a, b Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// Dist is the euclidean distance between a and b
func Dist(a, b Point) float64 {
	return math.Sqrt(Dist2(a, b))
}

// Lerp returns a + t*(b-a)
func Lerp(a, b Point, t float64) Point {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Centroid returns the arithmetic mean of pts
func Centroid(pts ...Point) Point {
	var sum Point
	if len(pts) == 0 {
		return sum
	}
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Component returns coordinate d (0=X, 1=Y, 2=Z) of p
func Component(p Point, d int) float64 {
	switch d {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	default:
		panic("point component out of range")
	}
}

// ClosestOnSegment returns the point of segment [a,b] closest to p together
// with its parameter t in [0,1] and the squared distance to p
func ClosestOnSegment(p, a, b Point) (q Point, t, d2 float64) {
	ab := r3.Sub(b, a)
	l2 := r3.Norm2(ab)
	if l2 == 0 {
		return a, 0, Dist2(p, a)
	}
	t = r3.Dot(r3.Sub(p, a), ab) / l2
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	q = r3.Add(a, r3.Scale(t, ab))
	return q, t, Dist2(p, q)
}

// ClosestOnTriangle returns the point of triangle (a,b,c) closest to p and
// the squared distance to p. Degenerate triangles fall back to their edges.
func ClosestOnTriangle(p, a, b, c Point) (q Point, d2 float64) {
	// Region tests from Ericson, Real-Time Collision Detection 5.1.5
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1 := r3.Dot(ab, ap)
	d2a := r3.Dot(ac, ap)
	if d1 <= 0 && d2a <= 0 {
		return a, Dist2(p, a)
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, Dist2(p, b)
	}

	vc := d1*d4 - d3*d2a
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		q = r3.Add(a, r3.Scale(v, ab))
		return q, Dist2(p, q)
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, Dist2(p, c)
	}

	vb := d5*d2a - d1*d6
	if vb <= 0 && d2a >= 0 && d6 <= 0 {
		w := d2a / (d2a - d6)
		q = r3.Add(a, r3.Scale(w, ac))
		return q, Dist2(p, q)
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		q = r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
		return q, Dist2(p, q)
	}

	denom := va + vb + vc
	if denom == 0 {
		// Degenerate: take the best of the three edges
		q, _, d2 = ClosestOnSegment(p, a, b)
		if q2, _, e2 := ClosestOnSegment(p, b, c); e2 < d2 {
			q, d2 = q2, e2
		}
		if q3, _, e3 := ClosestOnSegment(p, c, a); e3 < d2 {
			q, d2 = q3, e3
		}
		return q, d2
	}
	v := vb / denom
	w := vc / denom
	q = r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
	return q, Dist2(p, q)
}

// PlaneCoords returns the coordinates (s,t) of the projection of d onto the
// plane spanned by a and b, d ≈ s*a + t*b, and the squared distance from d to
// that plane. ok is false when a and b are parallel.
func PlaneCoords(d, a, b Point) (s, t, h2 float64, ok bool) {
	aa, ab, bb := r3.Dot(a, a), r3.Dot(a, b), r3.Dot(b, b)
	det := aa*bb - ab*ab
	if det <= 0 {
		return 0, 0, 0, false
	}
	da, db := r3.Dot(d, a), r3.Dot(d, b)
	s = (bb*da - ab*db) / det
	t = (aa*db - ab*da) / det
	r := r3.Sub(d, r3.Add(r3.Scale(s, a), r3.Scale(t, b)))
	return s, t, r3.Norm2(r), true
}

// ClosestOnParallelogram returns the point of o + s*a + t*b, (s,t) in [0,1]^2,
// closest to p, its parameters and the squared distance to p
func ClosestOnParallelogram(p, o, a, b Point) (q Point, s, t, d2 float64) {
	if s, t, _, ok := PlaneCoords(r3.Sub(p, o), a, b); ok && s >= 0 && s <= 1 && t >= 0 && t <= 1 {
		q = r3.Add(o, r3.Add(r3.Scale(s, a), r3.Scale(t, b)))
		return q, s, t, Dist2(p, q)
	}
	ob, oa := r3.Add(o, b), r3.Add(o, a)
	d2 = math.Inf(1)
	for _, e := range [4]struct {
		from, to Point
		fixed    float64
		alongA   bool
	}{
		{o, oa, 0, true},
		{ob, r3.Add(oa, b), 1, true},
		{o, ob, 0, false},
		{oa, r3.Add(oa, b), 1, false},
	} {
		qe, u, de := ClosestOnSegment(p, e.from, e.to)
		if de >= d2 {
			continue
		}
		q, d2 = qe, de
		if e.alongA {
			s, t = u, e.fixed
		} else {
			s, t = e.fixed, u
		}
	}
	return q, s, t, d2
}

// BilinearMaxIter bounds the interior Gauss-Newton solve of ClosestOnBilinear
const BilinearMaxIter = 50

// Bilinear evaluates the patch (1-u)(1-v)a + u(1-v)b + uv c + (1-u)v d
func Bilinear(a, b, c, d Point, u, v float64) Point {
	return r3.Add(
		r3.Add(r3.Scale((1-u)*(1-v), a), r3.Scale(u*(1-v), b)),
		r3.Add(r3.Scale(u*v, c), r3.Scale((1-u)*v, d)))
}

// ClosestOnBilinear returns the point of the bilinear patch spanned by the
// corners a,b,c,d (in cyclic order, a at (0,0) and c at (1,1)) closest to p,
// its parameters (u,v) in [0,1]^2 and the squared distance to p. The patch
// edges are straight, so boundary candidates are exact; the interior is
// reached by a clamped Gauss-Newton solve.
func ClosestOnBilinear(p, a, b, c, d Point) (q Point, u, v, d2 float64) {
	d2 = math.Inf(1)
	for _, e := range [4]struct {
		from, to Point
		fixed    float64
		alongU   bool
	}{
		{a, b, 0, true},
		{d, c, 1, true},
		{a, d, 0, false},
		{b, c, 1, false},
	} {
		qe, s, de := ClosestOnSegment(p, e.from, e.to)
		if de >= d2 {
			continue
		}
		q, d2 = qe, de
		if e.alongU {
			u, v = s, e.fixed
		} else {
			u, v = e.fixed, s
		}
	}

	ab, dc, ad, bc := r3.Sub(b, a), r3.Sub(c, d), r3.Sub(d, a), r3.Sub(c, b)
	for _, start := range [2][2]float64{{0.5, 0.5}, {u, v}} {
		s, t := start[0], start[1]
		for iter := 0; iter < BilinearMaxIter; iter++ {
			r := r3.Sub(Bilinear(a, b, c, d, s, t), p)
			xu := r3.Add(r3.Scale(1-t, ab), r3.Scale(t, dc))
			xv := r3.Add(r3.Scale(1-s, ad), r3.Scale(s, bc))
			huu, huv, hvv := r3.Dot(xu, xu), r3.Dot(xu, xv), r3.Dot(xv, xv)
			det := huu*hvv - huv*huv
			if det <= 1e-14*huu*hvv {
				break
			}
			gu, gv := r3.Dot(xu, r), r3.Dot(xv, r)
			ns := clamp01(s - (hvv*gu-huv*gv)/det)
			nt := clamp01(t - (huu*gv-huv*gu)/det)
			step := (ns-s)*(ns-s) + (nt-t)*(nt-t)
			s, t = ns, nt
			if step < 1e-24 {
				break
			}
		}
		if qi := Bilinear(a, b, c, d, s, t); Dist2(p, qi) < d2 {
			q, u, v, d2 = qi, s, t, Dist2(p, qi)
		}
	}
	return q, u, v, d2
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }
