package moment

import "github.com/Faultbox/moment-oit/internal/gpu"

// TextureSpec is the shape of one moment texture array.
type TextureSpec struct {
	Name   string
	Format gpu.TextureFormat
	Layers int
}

// Channels returns the components per texel.
func (s TextureSpec) Channels() int {
	return s.Format.Channels()
}

// Components returns the moment slots one pixel holds in this texture.
func (s TextureSpec) Components() int {
	return s.Channels() * s.Layers
}

// Layout is the texture set storing one configuration:
// B0 holds the zeroth moment, B (and BExtra for split 6) the rest.
type Layout struct {
	B0     TextureSpec
	B      TextureSpec
	BExtra *TextureSpec
}

// Textures returns the specs in binding order.
func (l Layout) Textures() []TextureSpec {
	out := []TextureSpec{l.B0, l.B}
	if l.BExtra != nil {
		out = append(out, *l.BExtra)
	}
	return out
}

// Slots returns the number of moment components stored outside B0.
func (l Layout) Slots() int {
	n := l.B.Components()
	if l.BExtra != nil {
		n += l.BExtra.Components()
	}
	return n
}

// DeriveLayout maps a configuration onto texture formats and layer counts:
//
//	4 moments     b0 R32F, b 4ch x1
//	6 unsplit     b0 R32F, b 2ch x3
//	6 split       b0 R32F, b 2ch x1, bExtra 4ch x1
//	8 moments     b0 R32F, b 4ch x2
//
// Two-channel and four-channel formats are RG32F/RGBA32F at Float32 and
// RG16/RGBA16 at UNorm16.
func DeriveLayout(cfg Config) (Layout, error) {
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	two, four := gpu.RG32F, gpu.RGBA32F
	if cfg.Precision == UNorm16 {
		two, four = gpu.RG16, gpu.RGBA16
	}

	l := Layout{
		B0: TextureSpec{Name: "b0", Format: gpu.R32F, Layers: 1},
		B:  TextureSpec{Name: "b", Format: four, Layers: 1},
	}
	switch cfg.NumMoments {
	case 6:
		l.B.Format = two
		if cfg.SplitChannelLayout {
			l.BExtra = &TextureSpec{Name: "bExtra", Format: four, Layers: 1}
		} else {
			l.B.Layers = 3
		}
	case 8:
		l.B.Layers = 2
	}
	return l, nil
}
