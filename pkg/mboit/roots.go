package mboit

import (
	"math"
	"math/cmplx"
)

const (
	newtonIterations = 200
	dkIterations     = 500
	negligibleCoeff  = 1e-9
)

// evalPoly evaluates c[0] + c[1]x + ... and its derivative.
func evalPoly(c []float64, x float64) (p, dp float64) {
	for i := len(c) - 1; i >= 0; i-- {
		dp = dp*x + p
		p = p*x + c[i]
	}
	return p, dp
}

// realRoots returns the roots of a real polynomial with only real roots,
// c[i] being the coefficient of x^i. Quadratics use the closed form; higher
// degrees find the largest root by Newton iteration started above every
// root, deflate and repeat. Leading coefficients below negligibleCoeff of
// the largest one are dropped first: their roots lie far outside the depth
// range and deflating by them would destroy the remaining factor.
func realRoots(c []float64) []float64 {
	c = trimReal(c)
	var roots []float64
	for len(c) > 3 {
		x := cauchyBound(c)
		for i := 0; i < newtonIterations; i++ {
			p, dp := evalPoly(c, x)
			if dp == 0 {
				break
			}
			step := p / dp
			x -= step
			if math.Abs(step) <= 1e-13*math.Max(1, math.Abs(x)) {
				break
			}
		}
		roots = append(roots, x)
		c = deflate(c, x)
	}
	return append(roots, quadraticRoots(c)...)
}

func trimReal(c []float64) []float64 {
	scale := 0.0
	for _, v := range c {
		scale = math.Max(scale, math.Abs(v))
	}
	for len(c) > 1 && math.Abs(c[len(c)-1]) <= negligibleCoeff*scale {
		c = c[:len(c)-1]
	}
	return c
}

// cauchyBound is an upper bound on the magnitude of every root.
func cauchyBound(c []float64) float64 {
	lead := c[len(c)-1]
	m := 0.0
	for _, v := range c[:len(c)-1] {
		m = math.Max(m, math.Abs(v/lead))
	}
	return 1 + m
}

// deflate divides c by (x - r).
func deflate(c []float64, r float64) []float64 {
	n := len(c) - 1
	out := make([]float64, n)
	out[n-1] = c[n]
	for i := n - 1; i > 0; i-- {
		out[i-1] = c[i] + r*out[i]
	}
	return out
}

func quadraticRoots(c []float64) []float64 {
	switch len(c) {
	case 0, 1:
		return nil
	case 2:
		return []float64{-c[0] / c[1]}
	}
	a, b, k := c[2], c[1], c[0]
	disc := math.Sqrt(math.Max(b*b-4*a*k, 0))
	q := -0.5 * (b + math.Copysign(disc, b))
	if q == 0 {
		return []float64{0, 0}
	}
	return []float64{q / a, k / q}
}

// complexRoots returns all roots of a complex polynomial, a[i] being the
// coefficient of z^i. Quadratics use the closed form; higher degrees use
// simultaneous Durand-Kerner iteration.
func complexRoots(a []complex128) []complex128 {
	n := len(a) - 1
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []complex128{-a[0] / a[1]}
	}
	if n == 2 {
		disc := cmplx.Sqrt(a[1]*a[1] - 4*a[2]*a[0])
		return []complex128{(-a[1] + disc) / (2 * a[2]), (-a[1] - disc) / (2 * a[2])}
	}

	monic := make([]complex128, n+1)
	for i := range a {
		monic[i] = a[i] / a[n]
	}
	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	z := complex(1, 0)
	for i := range roots {
		roots[i] = z
		z *= seed
	}
	for iter := 0; iter < dkIterations; iter++ {
		maxDelta := 0.0
		for i := range roots {
			num := complex(0, 0)
			for k := n; k >= 0; k-- {
				num = num*roots[i] + monic[k]
			}
			den := complex(1, 0)
			for j := range roots {
				if j != i {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				den = 1e-12
			}
			d := num / den
			roots[i] -= d
			maxDelta = math.Max(maxDelta, cmplx.Abs(d))
		}
		if maxDelta < 1e-14 {
			break
		}
	}
	return roots
}
