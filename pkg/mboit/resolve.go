package mboit

import (
	"math"
	"math/cmplx"
)

// powerBias is the moment vector of the distribution power moments are
// biased toward, indexed by moment count.
var powerBias = map[int][]float64{
	4: {0, 0.375, 0, 0.375},
	6: {0, 0.48, 0, 0.451, 0, 0.45},
	8: {0, 0.75, 0, 0.67666666666666664, 0, 0.63, 0, 0.60030303030303034},
}

// Resolve reconstructs the transmittance in front of depth (in [-1, 1]).
// An empty pixel is fully transparent.
func Resolve(p Params, px Pixel, depth float64) float64 {
	if px.Empty() {
		return 1
	}
	var absorbance float64
	if p.Trigonometric {
		absorbance = trigonometricAbsorbance(p, px, depth)
	} else {
		absorbance = powerAbsorbance(p, px, depth)
	}
	absorbance = math.Min(math.Max(absorbance, 0), 1)
	return math.Exp(-px.B0 * absorbance)
}

// powerAbsorbance computes the fraction of b0 in front of z0. The biased
// moments are replaced by the discrete distribution that has an atom at z0
// and matches them exactly; its other atoms are the roots of the kernel
// polynomial and each atom's weight is the reciprocal of the kernel on the
// diagonal.
func powerAbsorbance(p Params, px Pixel, z0 float64) float64 {
	n := p.NumMoments / 2
	bias := powerBias[p.NumMoments]

	b := make([]float64, p.NumMoments+1)
	b[0] = 1
	for k := 1; k <= p.NumMoments; k++ {
		b[k] = (1-p.Bias)*(px.M[k-1]/px.B0) + p.Bias*bias[k-1]
	}

	hankel := make([][]float64, n+1)
	for i := range hankel {
		hankel[i] = b[i : i+n+1]
	}
	l := cholesky(hankel)

	powers := func(x float64) []float64 {
		v := make([]float64, n+1)
		v[0] = 1
		for i := 1; i <= n; i++ {
			v[i] = v[i-1] * x
		}
		return v
	}
	kernel := func(x float64) float64 {
		y := forward(l, powers(x))
		s := 0.0
		for _, v := range y {
			s += v * v
		}
		return s
	}

	q := backward(l, forward(l, powers(z0)))
	absorbance := p.Overestimation / kernel(z0)
	for _, x := range realRoots(q) {
		if x < z0 {
			absorbance += 1 / kernel(x)
		}
	}
	return absorbance
}

// trigonometricAbsorbance is the trigonometric counterpart of
// powerAbsorbance: atoms lie on the unit circle, the moment matrix is
// Toeplitz, and atoms in the wrapping zone count partially as in front.
func trigonometricAbsorbance(p Params, px Pixel, depth float64) float64 {
	m := p.NumMoments / 2

	c := make([]complex128, m+1)
	c[0] = 1
	for k := 1; k <= m; k++ {
		c[k] = complex(1-p.Bias, 0) * complex(px.M[2*k-2]/px.B0, px.M[2*k-1]/px.B0)
	}
	moment := func(k int) complex128 {
		if k < 0 {
			return cmplx.Conj(c[-k])
		}
		return c[k]
	}

	toeplitz := make([][]complex128, m+1)
	for j := range toeplitz {
		toeplitz[j] = make([]complex128, m+1)
		for k := range toeplitz[j] {
			toeplitz[j][k] = moment(j - k)
		}
	}
	l := choleskyHermitian(toeplitz)

	powers := func(z complex128) []complex128 {
		v := make([]complex128, m+1)
		v[0] = 1
		for i := 1; i <= m; i++ {
			v[i] = v[i-1] * z
		}
		return v
	}
	kernel := func(z complex128) float64 {
		y := forwardC(l, powers(z))
		s := 0.0
		for _, v := range y {
			s += real(v)*real(v) + imag(v)*imag(v)
		}
		return s
	}

	phi := p.Phase(depth)
	s, co := math.Sincos(phi)
	z0 := complex(co, s)
	param0 := circleParameter(co, s)

	q := backwardC(l, forwardC(l, powers(z0)))
	poly := make([]complex128, m+1)
	for i, v := range q {
		poly[i] = cmplx.Conj(v)
	}

	wz := p.WrappingZone
	absorbance := p.Overestimation / kernel(z0)
	for _, z := range complexRoots(poly) {
		if abs := cmplx.Abs(z); abs > 0 {
			z /= complex(abs, 0)
		}
		param := circleParameter(real(z), imag(z))
		weight := math.Min(math.Max(param*wz[2]+wz[3], 0), 1)
		if param < param0 {
			weight++
		}
		absorbance += weight / kernel(z)
	}
	return absorbance
}
