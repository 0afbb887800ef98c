package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-x)^alpha (1+x)^beta on [-1,1] with the Golub-Welsch eigenvalue method.
// Points are returned in ascending order.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}

	h1 := make([]float64, N+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: -(β²-α²)/((2i+α+β)(2i+α+β+2))
	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i, h := range h1 {
		d0[i] = fac / (h * (h + 2.))
	}
	if alpha+beta < 1.e-15 {
		d0[0] = 0.
	}

	d1 := make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		h := h1[i]
		d1[i] = 2.0 / (h + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h+1)/(h+3),
		)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(NewSymTriDiagonal(d0, d1), true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	var V mat.Dense
	eig.VectorsTo(&V)
	g0 := Gamma0(alpha, beta)
	W = make([]float64, N+1)
	for i := range W {
		v := V.At(0, i)
		W[i] = v * v * g0
	}
	return
}

// GaussLegendre01 returns the n point Gauss-Legendre rule mapped to [0,1].
// The weights sum to one.
func GaussLegendre01(n int) (X, W []float64) {
	if n < 1 {
		panic("quadrature needs at least one point")
	}
	x, w := JacobiGQ(0, 0, n-1)
	X = make([]float64, n)
	W = make([]float64, n)
	for i := range x {
		X[i] = 0.5 * (x[i] + 1)
		W[i] = 0.5 * w[i]
	}
	return
}

// Gamma0 is the integral of the Jacobi weight over [-1,1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

// NewSymTriDiagonal builds the symmetric tridiagonal matrix with diagonal d0
// and off diagonal d1
func NewSymTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	T := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		T.SetSym(i, i, d0[i])
		if i < n-1 {
			T.SetSym(i, i+1, d1[i])
		}
	}
	return T
}
