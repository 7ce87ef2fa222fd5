package mboit

import (
	"fmt"
	"math"
	"testing"
)

// biases mirror the values the renderer selects per configuration.
var configs = []struct {
	moments int
	trig    bool
	quant   bool
	bias    float64
}{
	{4, false, true, 6e-4},
	{4, false, false, 5e-7},
	{6, false, true, 6e-3},
	{6, false, false, 5e-6},
	{8, false, true, 2.5e-2},
	{8, false, false, 5e-5},
	{4, true, true, 4e-3},
	{4, true, false, 4e-7},
	{6, true, true, 6.5e-3},
	{6, true, false, 8e-6},
	{8, true, true, 8.5e-3},
	{8, true, false, 1.5e-5},
}

func params(moments int, trig, quant bool, bias float64) Params {
	return Params{
		NumMoments:     moments,
		Trigonometric:  trig,
		Quantized:      quant,
		Bias:           bias,
		Overestimation: 0.1,
		WrappingZone:   WrappingZone(0.1 * math.Pi),
	}
}

func name(p Params) string {
	basis := "power"
	if p.Trigonometric {
		basis = "trig"
	}
	prec := "f32"
	if p.Quantized {
		prec = "u16"
	}
	return fmt.Sprintf("%s%d-%s", basis, p.NumMoments, prec)
}

// roundTrip stores the pixel the way the textures would and reads it back.
func roundTrip(p Params, px Pixel) Pixel {
	b0, slots := px.Encode(p)
	return Decode(p, b0, slots)
}

func TestEmptyPixelIsTransparent(t *testing.T) {
	for _, c := range configs {
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var px Pixel
			b0, slots := px.Encode(p)
			if b0 != 0 {
				t.Errorf("empty b0 = %v, want 0", b0)
			}
			for i, s := range slots {
				if s != 0 {
					t.Errorf("empty slot %d = %v, want 0", i, s)
				}
			}
			for _, z := range []float64{-1, -0.3, 0, 0.7, 1} {
				if got := Resolve(p, Decode(p, b0, slots), z); got != 1 {
					t.Errorf("Resolve(empty, %v) = %v, want 1", z, got)
				}
			}
		})
	}
}

func TestSingleFragment(t *testing.T) {
	const alpha = 0.5
	for _, c := range configs {
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var px Pixel
			px.Accumulate(p, 0, alpha)
			px = roundTrip(p, px)

			if got := Resolve(p, px, 0.5); math.Abs(got-(1-alpha)) > 0.03 {
				t.Errorf("behind fragment: transmittance = %.4f, want ~%.2f", got, 1-alpha)
			}
			if got := Resolve(p, px, -0.5); math.Abs(got-1) > 0.03 {
				t.Errorf("in front of fragment: transmittance = %.4f, want ~1", got)
			}
		})
	}
}

func TestTwoFragments(t *testing.T) {
	for _, c := range configs {
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var px Pixel
			px.Accumulate(p, -0.5, 0.5)
			px.Accumulate(p, 0.5, 0.5)

			tests := []struct {
				depth float64
				want  float64
			}{
				{-0.9, 1},
				{0, 0.5},
				{0.9, 0.25},
			}
			for _, tt := range tests {
				if got := Resolve(p, px, tt.depth); math.Abs(got-tt.want) > 0.03 {
					t.Errorf("Resolve(%v) = %.4f, want ~%.2f", tt.depth, got, tt.want)
				}
			}
		})
	}
}

// A depth distribution symmetric around 0 makes the leading kernel
// coefficient vanish at z0 = 0.
func TestSymmetricLayersMonotone(t *testing.T) {
	for _, c := range configs {
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var px Pixel
			for k := 0; k < 50; k++ {
				px.Accumulate(p, -0.98+0.04*float64(k), 0.2)
			}

			prev := Resolve(p, px, -1)
			for i := 1; i <= 40; i++ {
				z := float64(i-20) / 20
				got := Resolve(p, px, z)
				if got > prev+0.05 {
					t.Errorf("Resolve(%v) = %.4f rises above Resolve(%v) = %.4f", z, got, float64(i-21)/20, prev)
				}
				prev = got
			}
		})
	}
}

func TestAccumulationOrderIndependent(t *testing.T) {
	frags := []struct{ depth, alpha float64 }{
		{-0.8, 0.3}, {0.1, 0.6}, {0.4, 0.2}, {-0.2, 0.45},
	}
	for _, c := range configs {
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var fwd, rev Pixel
			for i := range frags {
				fwd.Accumulate(p, frags[i].depth, frags[i].alpha)
				j := len(frags) - 1 - i
				rev.Accumulate(p, frags[j].depth, frags[j].alpha)
			}
			for _, z := range []float64{-0.9, -0.5, 0, 0.3, 0.9} {
				a, b := Resolve(p, fwd, z), Resolve(p, rev, z)
				if math.Abs(a-b) > 1e-6 {
					t.Errorf("Resolve(%v): forward %v, reverse %v", z, a, b)
				}
			}
		})
	}
}

func TestTotalTransmittance(t *testing.T) {
	p := params(4, false, false, 5e-7)
	var px Pixel
	want := 1.0
	for _, a := range []float64{0.2, 0.5, 0.7} {
		px.Accumulate(p, 0, a)
		want *= 1 - a
	}
	if got := px.TotalTransmittance(); math.Abs(got-want) > 1e-12 {
		t.Errorf("TotalTransmittance() = %v, want %v", got, want)
	}
}

func TestTransmittanceMonotoneInDepth(t *testing.T) {
	for _, c := range configs {
		if c.quant {
			continue
		}
		p := params(c.moments, c.trig, c.quant, c.bias)
		t.Run(name(p), func(t *testing.T) {
			var px Pixel
			px.Accumulate(p, -0.6, 0.4)
			px.Accumulate(p, 0.2, 0.4)
			px.Accumulate(p, 0.6, 0.4)
			low := Resolve(p, px, -0.95)
			high := Resolve(p, px, 0.95)
			if high > low {
				t.Errorf("transmittance grows with depth: %v at front, %v at back", low, high)
			}
			if high < px.TotalTransmittance()-1e-9 {
				t.Errorf("transmittance at back %v below total %v", high, px.TotalTransmittance())
			}
		})
	}
}

func TestQuantizedRoundTrip(t *testing.T) {
	p := params(8, false, true, 2.5e-2)
	var px Pixel
	px.Accumulate(p, 0.3, 0.6)
	px.Accumulate(p, -0.7, 0.2)
	got := roundTrip(p, px)
	for i := 0; i < p.NumMoments; i++ {
		if d := math.Abs(got.M[i] - px.M[i]); d > px.B0/65535 {
			t.Errorf("moment %d: got %v, want %v (diff %v)", i+1, got.M[i], px.M[i], d)
		}
	}
}
