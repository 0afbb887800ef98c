package searchgrid

import (
	"math"

	"github.com/notargets/DGMesh/utils"
)

// DistFunc returns the squared distance from the query point to item, or
// +Inf when the item does not qualify
type DistFunc func(item int) float64

// Nearest finds the item closest to p by expanding cubic shells of buckets
// around the bucket holding p. Buckets whose lower bound distance is not below
// the best distance so far are skipped; the search ends on the first shell in
// which every bucket is skipped, since later shells lie farther out still.
//
// limit2 bounds the squared distance of an acceptable result, limit2 <= 0 is
// unbounded. An item closer than eps2 ends the search at once.
func (g *Grid) Nearest(p utils.Point, limit2, eps2 float64, dist DistFunc) (best int, best2 float64, ok bool) {
	best = -1
	best2 = math.Inf(1)
	if limit2 > 0 {
		best2 = limit2
	}
	if g.count == 0 {
		return
	}
	q := g.indexCoords(p)
	hi, hj, hk, _ := g.Locate(p)

	var seen map[int]struct{}
	if g.spread {
		seen = make(map[int]struct{})
	}

	done := false
	scan := func(i, j, k int) bool {
		if g.bucketDist2(q, i, j, k) >= best2 {
			return false
		}
		for _, it := range g.buckets[g.bucket(i, j, k)] {
			if seen != nil {
				if _, dup := seen[it]; dup {
					continue
				}
				seen[it] = struct{}{}
			}
			d2 := dist(it)
			if d2 < best2 {
				best, best2, ok = it, d2, true
				if d2 <= eps2 {
					done = true
					return true
				}
			}
		}
		return true
	}

	maxRing := max(g.ni, g.nj, g.nk)
	for r := 0; r <= maxRing && !done; r++ {
		if !g.shell(hi, hj, hk, r, scan, &done) {
			break
		}
	}
	return
}

// Within calls fn once for every item in a bucket that may hold something no
// farther than sqrt(r2) from p
func (g *Grid) Within(p utils.Point, r2 float64, fn func(item int)) {
	if g.count == 0 {
		return
	}
	q := g.indexCoords(p)
	hi, hj, hk, _ := g.Locate(p)
	seen := make(map[int]struct{})
	var done bool
	visit := func(i, j, k int) bool {
		if g.bucketDist2(q, i, j, k) > r2 {
			return false
		}
		for _, it := range g.buckets[g.bucket(i, j, k)] {
			if _, dup := seen[it]; dup {
				continue
			}
			seen[it] = struct{}{}
			fn(it)
		}
		return true
	}
	maxRing := max(g.ni, g.nj, g.nk)
	for r := 0; r <= maxRing; r++ {
		if !g.shell(hi, hj, hk, r, visit, &done) {
			break
		}
	}
}

// shell visits every in-grid bucket at Chebyshev distance r from (ci,cj,ck)
// and reports whether any visit found the bucket worth scanning. It stops
// early when *done is set.
func (g *Grid) shell(ci, cj, ck, r int, visit func(i, j, k int) bool, done *bool) (live bool) {
	i0, i1 := max(ci-r, 0), min(ci+r, g.ni-1)
	j0, j1 := max(cj-r, 0), min(cj+r, g.nj-1)
	k0, k1 := max(ck-r, 0), min(ck+r, g.nk-1)
	for k := k0; k <= k1; k++ {
		kEdge := k == ck-r || k == ck+r
		for j := j0; j <= j1; j++ {
			jEdge := j == cj-r || j == cj+r
			if kEdge || jEdge {
				for i := i0; i <= i1; i++ {
					if visit(i, j, k) {
						live = true
					}
					if *done {
						return true
					}
				}
				continue
			}
			// Interior rows only touch the two i faces of the shell
			for _, i := range [2]int{ci - r, ci + r} {
				if i < 0 || i >= g.ni {
					continue
				}
				if visit(i, j, k) {
					live = true
				}
				if *done {
					return true
				}
			}
		}
	}
	return
}
