package moment

import (
	"encoding/binary"
	"testing"

	"github.com/chewxy/math32"
)

func TestUniformBytesLayout(t *testing.T) {
	u := UniformData{
		MomentBias:             5e-7,
		Overestimation:         0.25,
		WrappingZoneParameters: [4]float32{1, 2, 3, 4},
	}
	b := u.Bytes()
	if len(b) != UniformSize {
		t.Fatalf("len = %d, want %d", len(b), UniformSize)
	}
	f := func(off int) float32 {
		return math32.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if f(0) != u.MomentBias || f(4) != u.Overestimation {
		t.Errorf("scalars = (%v, %v), want (%v, %v)", f(0), f(4), u.MomentBias, u.Overestimation)
	}
	for i := 0; i < 4; i++ {
		if got := f(16 + 4*i); got != u.WrappingZoneParameters[i] {
			t.Errorf("wrapping zone[%d] at offset %d = %v", i, 16+4*i, got)
		}
	}
}

func TestNewUniformData(t *testing.T) {
	cfg := Config{NumMoments: 6, Basis: Trigonometric, Precision: UNorm16}
	u, err := NewUniformData(cfg, 0.3)
	if err != nil {
		t.Fatalf("NewUniformData: %v", err)
	}
	if u.MomentBias != 6.5e-3 || u.Overestimation != 0.3 {
		t.Errorf("got bias %g overestimation %g", u.MomentBias, u.Overestimation)
	}
	if u.WrappingZoneParameters[0] != DefaultWrappingZoneAngle {
		t.Errorf("wrapping angle = %v", u.WrappingZoneParameters[0])
	}
	ref := u.Reference(cfg)
	if !ref.Trigonometric || !ref.Quantized || ref.NumMoments != 6 {
		t.Errorf("Reference() = %+v", ref)
	}
}

func TestDepthRange(t *testing.T) {
	r := NewDepthRange(100, 1)
	if r.LogMin != 0 {
		t.Errorf("LogMin = %v, want 0", r.LogMin)
	}
	tests := []struct {
		dist float32
		want float32
	}{
		{1, -1},
		{10, 0},
		{100, 1},
		{0.01, -1},
		{1e6, 1},
	}
	for _, tt := range tests {
		if got := r.Warp(tt.dist); math32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("Warp(%v) = %v, want %v", tt.dist, got, tt.want)
		}
	}
}
