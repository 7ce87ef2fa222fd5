package moment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
)

// Storage owns the moment textures for one configuration and size. Passes
// hold it by reference and never delete its textures themselves.
type Storage struct {
	dev    gpu.Device
	label  string
	cfg    Config
	layout Layout
	width  int
	height int
	tex    []gpu.Texture
	log    *zap.Logger
}

// NewStorage allocates zeroed textures for cfg at width x height. On error
// nothing stays allocated.
func NewStorage(dev gpu.Device, label string, cfg Config, width, height int) (*Storage, error) {
	cfg = cfg.Normalize()
	layout, err := DeriveLayout(cfg)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("moment storage %s: invalid size %dx%d", label, width, height)
	}

	s := &Storage{
		dev:    dev,
		label:  label,
		cfg:    cfg,
		layout: layout,
		width:  width,
		height: height,
		log:    logger.Named("moment").With(zap.String("storage", label)),
	}
	for _, spec := range layout.Textures() {
		tex, err := dev.NewTextureArray(gpu.TextureArrayDesc{
			Label:  label + "." + spec.Name,
			Width:  width,
			Height: height,
			Layers: spec.Layers,
			Format: spec.Format,
		})
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("allocating %s.%s (%s x%d): %w", label, spec.Name, spec.Format, spec.Layers, err)
		}
		s.tex = append(s.tex, tex)
	}
	// Driver allocations are undefined until written.
	s.Clear()

	s.log.Debug("moment storage allocated",
		zap.Stringer("config", cfg),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", s.Bytes()))
	return s, nil
}

// Config returns the configuration the textures were derived from.
func (s *Storage) Config() Config { return s.cfg }

// Layout returns the derived texture layout.
func (s *Storage) Layout() Layout { return s.layout }

// Size returns the texture dimensions.
func (s *Storage) Size() (width, height int) { return s.width, s.height }

// Textures returns the handles in binding order (b0, b, bExtra).
func (s *Storage) Textures() []gpu.Texture { return s.tex }

// Bytes returns the total allocation size.
func (s *Storage) Bytes() int {
	total := 0
	for _, spec := range s.layout.Textures() {
		total += gpu.TextureArrayDesc{Width: s.width, Height: s.height, Layers: spec.Layers, Format: spec.Format}.Bytes()
	}
	return total
}

// Clear resets every texel to the empty state: zero weight, zero moments.
func (s *Storage) Clear() {
	for _, tex := range s.tex {
		s.dev.ClearTexture(tex)
	}
}

// Resize replaces all textures with new ones of the given size. The
// configuration is kept. On error the old textures stay in place.
func (s *Storage) Resize(width, height int) error {
	if width == s.width && height == s.height {
		return nil
	}
	next, err := NewStorage(s.dev, s.label, s.cfg, width, height)
	if err != nil {
		return err
	}
	s.Release()
	s.tex, s.width, s.height = next.tex, next.width, next.height
	return nil
}

// BindImages binds the textures to consecutive image units.
func (s *Storage) BindImages(firstUnit uint32, access gpu.Access) {
	specs := s.layout.Textures()
	for i, tex := range s.tex {
		s.dev.BindImage(firstUnit+uint32(i), tex, specs[i].Format, access)
	}
}

// BindSamplers binds the textures to consecutive texture units.
func (s *Storage) BindSamplers(firstUnit uint32) {
	for i, tex := range s.tex {
		s.dev.BindTexture(firstUnit+uint32(i), tex)
	}
}

// Release deletes the textures. The storage must not be used afterwards.
func (s *Storage) Release() {
	for _, tex := range s.tex {
		s.dev.DeleteTexture(tex)
	}
	s.tex = nil
}

// Snapshot reads the textures back to the CPU.
func (s *Storage) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{layout: s.layout, width: s.width, height: s.height}
	for i, tex := range s.tex {
		data, err := s.dev.ReadTexture(tex)
		if err != nil {
			return nil, fmt.Errorf("reading %s.%s: %w", s.label, s.layout.Textures()[i].Name, err)
		}
		snap.data = append(snap.data, data)
	}
	return snap, nil
}

// Snapshot is a CPU copy of a Storage.
type Snapshot struct {
	layout Layout
	width  int
	height int
	data   [][]float32
}

// Pixel returns the stored zeroth moment and the remaining slots of one
// pixel in packing order: b layers first, then bExtra.
func (s *Snapshot) Pixel(x, y int) (b0 float32, slots []float32) {
	specs := s.layout.Textures()
	for i, spec := range specs {
		c := spec.Channels()
		for layer := 0; layer < spec.Layers; layer++ {
			base := ((layer*s.height+y)*s.width + x) * c
			for ch := 0; ch < c; ch++ {
				v := s.data[i][base+ch]
				if i == 0 {
					b0 = v
				} else {
					slots = append(slots, v)
				}
			}
		}
	}
	return b0, slots
}

// Size returns the dimensions the snapshot was taken at.
func (s *Snapshot) Size() (width, height int) { return s.width, s.height }
