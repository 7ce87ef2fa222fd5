package moment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Faultbox/moment-oit/internal/gpu"
)

func TestDeriveLayout(t *testing.T) {
	type want struct {
		bFormat  gpu.TextureFormat
		bLayers  int
		extra    bool
		exFormat gpu.TextureFormat
	}
	tests := []struct {
		moments int
		split   bool
		prec    Precision
		want    want
	}{
		{4, false, Float32, want{gpu.RGBA32F, 1, false, 0}},
		{4, false, UNorm16, want{gpu.RGBA16, 1, false, 0}},
		{6, false, Float32, want{gpu.RG32F, 3, false, 0}},
		{6, false, UNorm16, want{gpu.RG16, 3, false, 0}},
		{6, true, Float32, want{gpu.RG32F, 1, true, gpu.RGBA32F}},
		{6, true, UNorm16, want{gpu.RG16, 1, true, gpu.RGBA16}},
		{8, false, Float32, want{gpu.RGBA32F, 2, false, 0}},
		{8, false, UNorm16, want{gpu.RGBA16, 2, false, 0}},
	}
	for _, basis := range []Basis{Power, Trigonometric} {
		for _, tt := range tests {
			cfg := Config{NumMoments: tt.moments, Basis: basis, Precision: tt.prec, SplitChannelLayout: tt.split}
			t.Run(cfg.String(), func(t *testing.T) {
				l, err := DeriveLayout(cfg)
				if err != nil {
					t.Fatalf("DeriveLayout: %v", err)
				}
				if l.B0.Format != gpu.R32F || l.B0.Layers != 1 {
					t.Errorf("b0 = %s x%d, want R32F x1", l.B0.Format, l.B0.Layers)
				}
				if l.B.Format != tt.want.bFormat || l.B.Layers != tt.want.bLayers {
					t.Errorf("b = %s x%d, want %s x%d", l.B.Format, l.B.Layers, tt.want.bFormat, tt.want.bLayers)
				}
				if (l.BExtra != nil) != tt.want.extra {
					t.Fatalf("bExtra present = %v, want %v", l.BExtra != nil, tt.want.extra)
				}
				if l.BExtra != nil && (l.BExtra.Format != tt.want.exFormat || l.BExtra.Layers != 1) {
					t.Errorf("bExtra = %s x%d, want %s x1", l.BExtra.Format, l.BExtra.Layers, tt.want.exFormat)
				}
				if got := l.Slots(); got != tt.moments {
					t.Errorf("Slots() = %d, want %d", got, tt.moments)
				}
			})
		}
	}
}

func TestSplitIgnoredOutsideSix(t *testing.T) {
	for _, n := range []int{4, 8} {
		a, _ := DeriveLayout(Config{NumMoments: n, SplitChannelLayout: true})
		b, _ := DeriveLayout(Config{NumMoments: n})
		if a.B != b.B || a.BExtra != nil {
			t.Errorf("%d moments: split layout %+v differs from unsplit %+v", n, a, b)
		}
		if got := (Config{NumMoments: n, SplitChannelLayout: true}).Normalize(); got.SplitChannelLayout {
			t.Errorf("Normalize kept split flag for %d moments", n)
		}
	}
}

func TestValidate(t *testing.T) {
	for _, n := range []int{0, 2, 3, 5, 7, 10} {
		cfg := Config{NumMoments: n}
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Validate(%d moments) = %v, want ErrInvalidConfig", n, err)
		}
		if _, err := DeriveLayout(cfg); err == nil {
			t.Errorf("DeriveLayout(%d moments) succeeded", n)
		}
	}
	if err := (Config{NumMoments: 4, Precision: Precision(9)}).Validate(); err == nil {
		t.Error("unknown precision accepted")
	}
}

func TestBiasComplete(t *testing.T) {
	want := map[string]float32{
		"power/4/unorm16": 6e-4, "power/4/float32": 5e-7,
		"power/6/unorm16": 6e-3, "power/6/float32": 5e-6,
		"power/8/unorm16": 2.5e-2, "power/8/float32": 5e-5,
		"trigonometric/4/unorm16": 4e-3, "trigonometric/4/float32": 4e-7,
		"trigonometric/6/unorm16": 6.5e-3, "trigonometric/6/float32": 8e-6,
		"trigonometric/8/unorm16": 8.5e-3, "trigonometric/8/float32": 1.5e-5,
	}
	seen := 0
	for _, basis := range []Basis{Power, Trigonometric} {
		for _, n := range []int{4, 6, 8} {
			for _, prec := range []Precision{Float32, UNorm16} {
				cfg := Config{NumMoments: n, Basis: basis, Precision: prec}
				key := fmt.Sprintf("%s/%d/%s", basis, n, prec)
				got, err := Bias(cfg)
				if err != nil {
					t.Errorf("Bias(%s): %v", key, err)
					continue
				}
				if got != want[key] {
					t.Errorf("Bias(%s) = %g, want %g", key, got, want[key])
				}
				seen++
			}
		}
	}
	if seen != 12 {
		t.Errorf("checked %d combinations, want 12", seen)
	}
	if _, err := Bias(Config{NumMoments: 5}); err == nil {
		t.Error("Bias for 5 moments returned no error")
	}
}

func TestModes(t *testing.T) {
	wantMoments := []int{4, 6, 6, 8, 4, 6, 6, 8}
	if len(Modes) != 8 {
		t.Fatalf("len(Modes) = %d, want 8", len(Modes))
	}
	for i, m := range Modes {
		if m.NumMoments != wantMoments[i] {
			t.Errorf("mode %d moments = %d, want %d", i, m.NumMoments, wantMoments[i])
		}
		if (m.Basis == Power) != (i/4 == 0) {
			t.Errorf("mode %d basis = %v", i, m.Basis)
		}
		if m.SplitChannelLayout != (i == 2 || i == 6) {
			t.Errorf("mode %d split = %v", i, m.SplitChannelLayout)
		}
		cfg := m.Apply(Config{Precision: UNorm16})
		if cfg.Precision != UNorm16 {
			t.Errorf("mode %d Apply dropped precision", i)
		}
		if got := ModeIndex(cfg); got != i {
			t.Errorf("ModeIndex(Modes[%d].Apply) = %d", i, got)
		}
	}
	if len(PixelFormats) != 2 || PixelFormats[Float32] != "Float 32-bit" {
		t.Errorf("PixelFormats = %v", PixelFormats)
	}
}
