package utils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BBox is an axis aligned bounding box. Unlike r3.Box it distinguishes an
// empty box from a flat one, so a planar surface still has a valid box.
type BBox struct {
	Min, Max Point
	valid    bool
}

// NewBBox returns the smallest box holding every point in pts
func NewBBox(pts ...Point) (b BBox) {
	for _, p := range pts {
		b.Extend(p)
	}
	return
}

// Valid reports whether at least one point has been added
func (b BBox) Valid() bool { return b.valid }

// Reset empties the box
func (b *BBox) Reset() {
	b.Min, b.Max, b.valid = Point{}, Point{}, false
}

// Extend grows the box to hold p
func (b *BBox) Extend(p Point) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = Point{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = Point{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
}

// ExtendBox grows the box to hold o
func (b *BBox) ExtendBox(o BBox) {
	if !o.valid {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// ExtendBy pads every face of the box by d
func (b *BBox) ExtendBy(d float64) {
	if !b.valid {
		return
	}
	pad := Point{X: d, Y: d, Z: d}
	b.Min = r3.Sub(b.Min, pad)
	b.Max = r3.Add(b.Max, pad)
}

// Diagonal returns Max-Min, or the zero vector for an empty box
func (b BBox) Diagonal() Point {
	if !b.valid {
		return Point{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the middle of the box
func (b BBox) Center() Point {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Contains reports whether p lies inside the closed box
func (b BBox) Contains(p Point) bool {
	return b.valid &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps reports whether the two closed boxes share any point
func (b BBox) Overlaps(o BBox) bool {
	if !b.valid || !o.valid {
		return false
	}
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Dist2 returns the squared distance from p to the closest point of the box,
// zero when p is inside
func (b BBox) Dist2(p Point) float64 {
	var d2 float64
	for _, ax := range [3][3]float64{
		{p.X, b.Min.X, b.Max.X},
		{p.Y, b.Min.Y, b.Max.Y},
		{p.Z, b.Min.Z, b.Max.Z},
	} {
		switch {
		case ax[0] < ax[1]:
			d2 += (ax[1] - ax[0]) * (ax[1] - ax[0])
		case ax[0] > ax[2]:
			d2 += (ax[0] - ax[2]) * (ax[0] - ax[2])
		}
	}
	return d2
}

// Corners returns the eight corners in r3.Box vertex order
func (b BBox) Corners() []Point {
	return r3.Box{Min: b.Min, Max: b.Max}.Vertices()
}

// Transformed returns the box around the eight transformed corners
func (b BBox) Transformed(t *Transform) (o BBox) {
	if !b.valid {
		return
	}
	for _, c := range b.Corners() {
		o.Extend(t.Project(c))
	}
	return
}
