// Package mboit is a CPU implementation of moment-based order-independent
// transparency: accumulating per-pixel moments of absorbance over depth and
// reconstructing transmittance at a given depth from them.
//
// It evaluates exactly what the gather and resolve shaders evaluate, in
// float64, and is used to validate configurations offline.
package mboit

import "math"

// EmptyThreshold is the zeroth moment below which a pixel counts as having
// no transparent coverage. It corresponds to a single fragment of alpha 0.001.
const EmptyThreshold = 0.00100050033

// maxAlpha keeps the absorbance of fully opaque fragments finite.
const maxAlpha = 0.999999

// Params selects the moment representation and reconstruction constants.
type Params struct {
	// NumMoments counts real moments excluding b0 (4, 6 or 8).
	NumMoments    int
	Trigonometric bool
	// Quantized stores normalized moments in 16-bit unsigned normalized
	// channels instead of 32-bit floats.
	Quantized      bool
	Bias           float64
	Overestimation float64
	WrappingZone   [4]float64
}

// Pixel holds accumulated moments of one pixel. M stores b_1..b_n for the
// power basis and (Re, Im) pairs of the complex moments for the
// trigonometric basis.
type Pixel struct {
	B0 float64
	M  [8]float64
}

// Absorbance converts opacity to optical depth.
func Absorbance(alpha float64) float64 {
	alpha = math.Min(math.Max(alpha, 0), maxAlpha)
	return -math.Log(1 - alpha)
}

// Phase maps a depth in [-1, 1] to an angle in [0, 2*pi - wrapping angle].
func (p Params) Phase(depth float64) float64 {
	return depth*p.WrappingZone[1] + p.WrappingZone[1]
}

// Accumulate adds one fragment at depth (in [-1, 1]) with the given alpha.
// Accumulation is commutative, so fragment order does not matter.
func (px *Pixel) Accumulate(p Params, depth, alpha float64) {
	a := Absorbance(alpha)
	if a == 0 {
		return
	}
	px.B0 += a
	if p.Trigonometric {
		phi := p.Phase(depth)
		for k := 1; k <= p.NumMoments/2; k++ {
			s, c := math.Sincos(float64(k) * phi)
			px.M[2*k-2] += a * c
			px.M[2*k-1] += a * s
		}
		return
	}
	zk := 1.0
	for k := 0; k < p.NumMoments; k++ {
		zk *= depth
		px.M[k] += a * zk
	}
}

// Empty reports whether the pixel has no transparent coverage.
func (px Pixel) Empty() bool {
	return px.B0 < EmptyThreshold
}

// TotalTransmittance is the transmittance behind every fragment.
func (px Pixel) TotalTransmittance() float64 {
	return math.Exp(-px.B0)
}

// Encode returns the values written to the moment textures: b0 and the
// remaining slots in packing order. An empty pixel encodes to all zeros,
// matching freshly cleared textures.
func (px Pixel) Encode(p Params) (b0 float32, slots []float32) {
	slots = make([]float32, p.NumMoments)
	if px.B0 <= 0 {
		return 0, slots
	}
	for i := range slots {
		if p.Quantized {
			slots[i] = quantize((px.M[i]/px.B0 + 1) / 2)
		} else {
			slots[i] = float32(px.M[i])
		}
	}
	return float32(px.B0), slots
}

// Decode inverts Encode.
func Decode(p Params, b0 float32, slots []float32) Pixel {
	px := Pixel{B0: float64(b0)}
	if b0 <= 0 {
		return Pixel{}
	}
	for i := 0; i < p.NumMoments && i < len(slots); i++ {
		if p.Quantized {
			px.M[i] = px.B0 * (2*float64(slots[i]) - 1)
		} else {
			px.M[i] = float64(slots[i])
		}
	}
	return px
}

func quantize(v float64) float32 {
	v = math.Min(math.Max(v, 0), 1)
	return float32(math.Round(v*65535) / 65535)
}
