package mboit

import (
	"math"
	"math/cmplx"
)

// pivotFloor keeps nearly singular moment matrices factorizable.
const pivotFloor = 1e-14

// cholesky factors a symmetric positive definite matrix as L*L^T.
func cholesky(a [][]float64) [][]float64 {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				l[i][i] = math.Sqrt(math.Max(sum, pivotFloor))
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l
}

// forward solves L*y = v.
func forward(l [][]float64, v []float64) []float64 {
	y := make([]float64, len(v))
	for i := range v {
		sum := v[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}
	return y
}

// backward solves L^T*x = y.
func backward(l [][]float64, y []float64) []float64 {
	n := len(y)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x
}

// choleskyHermitian factors a Hermitian positive definite matrix as L*L^H.
func choleskyHermitian(a [][]complex128) [][]complex128 {
	n := len(a)
	l := make([][]complex128, n)
	for i := range l {
		l[i] = make([]complex128, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * cmplx.Conj(l[j][k])
			}
			if i == j {
				l[i][i] = complex(math.Sqrt(math.Max(real(sum), pivotFloor)), 0)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l
}

// forwardC solves L*y = v.
func forwardC(l [][]complex128, v []complex128) []complex128 {
	y := make([]complex128, len(v))
	for i := range v {
		sum := v[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}
	return y
}

// backwardC solves L^H*x = y.
func backwardC(l [][]complex128, y []complex128) []complex128 {
	n := len(y)
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= cmplx.Conj(l[k][i]) * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x
}
