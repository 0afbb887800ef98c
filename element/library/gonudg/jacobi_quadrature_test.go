package gonudg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJacobiGQLegendre(t *testing.T) {
	// Two point Gauss-Legendre: ±1/√3 with unit weights
	x, w := JacobiGQ(0, 0, 1)
	assert.InDeltaSlicef(t, []float64{-1 / math.Sqrt(3), 1 / math.Sqrt(3)}, x, 1e-14, "points")
	assert.InDeltaSlicef(t, []float64{1, 1}, w, 1e-14, "weights")

	x, w = JacobiGQ(0, 0, 0)
	assert.Equal(t, []float64{0}, x)
	assert.Equal(t, []float64{2}, w)
}

func TestGaussLegendre01Exactness(t *testing.T) {
	for n := 1; n <= 5; n++ {
		x, w := GaussLegendre01(n)
		// An n point rule integrates polynomials up to degree 2n-1 exactly
		for deg := 0; deg <= 2*n-1; deg++ {
			var sum float64
			for i := range x {
				sum += w[i] * math.Pow(x[i], float64(deg))
			}
			assert.InDeltaf(t, 1/float64(deg+1), sum, 1e-13, "n=%d deg=%d", n, deg)
		}
	}
	assert.Panics(t, func() { GaussLegendre01(0) })
}
