// Package control owns the active moment configuration of the renderer:
// the shader set, the screen moment buffer and the shadow map moment buffer
// always belong to the same settings, and changing settings is a
// transaction that either installs a complete new generation or leaves the
// old one in place.
package control

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/oit"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/internal/shadow"
)

// Settings is the user-facing renderer configuration.
type Settings struct {
	OIT                  moment.Config
	Shadow               moment.Config
	ShadowsEnabled       bool
	Overestimation       float32
	ShadowOverestimation float32
	ShadowResolution     int
}

// DefaultSettings returns four power moments in single precision for both
// buffers, shadows on and a 2048 shadow map.
func DefaultSettings() Settings {
	return Settings{
		OIT:                  moment.Default(),
		Shadow:               moment.Default(),
		ShadowsEnabled:       true,
		Overestimation:       moment.DefaultOverestimation,
		ShadowOverestimation: moment.DefaultOverestimation,
		ShadowResolution:     shadow.DefaultResolution,
	}
}

// Normalize returns s in canonical form so equal configurations compare
// equal.
func (s Settings) Normalize() Settings {
	s.OIT = s.OIT.Normalize()
	s.Shadow = s.Shadow.Normalize()
	s.ShadowResolution = shadow.ClampResolution(s.ShadowResolution)
	s.Overestimation = math32.Max(0, math32.Min(1, s.Overestimation))
	s.ShadowOverestimation = math32.Max(0, math32.Min(1, s.ShadowOverestimation))
	return s
}

// Validate checks both moment configurations.
func (s Settings) Validate() error {
	if err := s.OIT.Validate(); err != nil {
		return fmt.Errorf("oit: %w", err)
	}
	if err := s.Shadow.Validate(); err != nil {
		return fmt.Errorf("shadow: %w", err)
	}
	return nil
}

// Generation is a consistent snapshot of what the renderer draws with.
type Generation struct {
	Settings Settings
	Programs *shader.Set
}

// Controller coordinates reconfiguration of the shader set and the moment
// buffers. It is used from the render thread only.
type Controller struct {
	dev      gpu.Device
	reg      *shader.Registry
	material string
	log      *zap.Logger

	oit    *oit.MBOIT
	shadow *shadow.MomentShadowMap

	settings   Settings
	programs   *shader.Set
	background [4]float32

	inFrame       bool
	pending       *Settings
	pendingResize *[2]int
}

// New builds the first generation. Missing fragment shader interlock and
// shader build failures are returned as errors; callers treat them as fatal
// at startup.
func New(dev gpu.Device, reg *shader.Registry, settings Settings, width, height int, opts oit.Options) (*Controller, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Material == "" {
		opts.Material = shader.LinesMaterial
	}
	opts.Overestimation = settings.Overestimation

	c := &Controller{
		dev:        dev,
		reg:        reg,
		material:   opts.Material,
		log:        logger.Named("control"),
		background: DefaultBackground,
	}

	var err error
	c.oit, err = oit.New(dev, settings.OIT, width, height, opts)
	if err != nil {
		return nil, err
	}
	c.shadow, err = shadow.NewMomentShadowMap(dev, settings.Shadow, settings.ShadowResolution, shadow.Options{
		Overestimation: settings.ShadowOverestimation,
		Material:       opts.Material,
	})
	if err != nil {
		c.oit.Release()
		return nil, err
	}
	set, err := reg.Build(c.variants(settings)...)
	if err != nil {
		c.oit.Release()
		c.shadow.Release()
		return nil, err
	}
	c.install(settings, set)
	c.log.Info("renderer configured",
		zap.Stringer("oit", settings.OIT),
		zap.Stringer("shadow", settings.Shadow),
		zap.Bool("shadows", settings.ShadowsEnabled),
		zap.Int("programs", set.Len()))
	return c, nil
}

func (c *Controller) variants(s Settings) []shader.Variant {
	return shader.FrameVariants(c.material, s.OIT, s.Shadow, s.ShadowsEnabled)
}

func (c *Controller) install(s Settings, set *shader.Set) {
	c.settings = s
	c.programs = set
	c.oit.UsePrograms(set)
	c.shadow.UsePrograms(set)
	if s.ShadowsEnabled {
		c.oit.SetShadows(c.shadow)
	} else {
		c.oit.SetShadows(nil)
	}
}

// OIT returns the transparency passes.
func (c *Controller) OIT() *oit.MBOIT { return c.oit }

// Shadow returns the shadow map.
func (c *Controller) Shadow() *shadow.MomentShadowMap { return c.shadow }

// Settings returns the active settings.
func (c *Controller) Settings() Settings { return c.settings }

// Active returns the active generation.
func (c *Controller) Active() Generation {
	return Generation{Settings: c.settings, Programs: c.programs}
}

// Program returns the active program for pass.
func (c *Controller) Program(pass shader.Pass) (gpu.Program, error) {
	s := c.settings
	return c.programs.Get(shader.Variant{
		Material: c.material,
		Pass:     pass,
		OIT:      s.OIT,
		Shadow:   s.Shadow,
		Shadows:  s.ShadowsEnabled,
	})
}

// BeginFrame marks the start of a frame. Until EndFrame, Apply and Resize
// are queued.
func (c *Controller) BeginFrame() {
	c.inFrame = true
}

// EndFrame applies requests queued during the frame: resize first, then the
// latest settings.
func (c *Controller) EndFrame() error {
	c.inFrame = false
	var errs []error
	if r := c.pendingResize; r != nil {
		c.pendingResize = nil
		errs = append(errs, c.resize(r[0], r[1]))
	}
	if s := c.pending; s != nil {
		c.pending = nil
		errs = append(errs, c.apply(*s))
	}
	return errors.Join(errs...)
}

// Resize reallocates the screen-sized moment buffer.
func (c *Controller) Resize(width, height int) error {
	if c.inFrame {
		c.pendingResize = &[2]int{width, height}
		return nil
	}
	return c.resize(width, height)
}

func (c *Controller) resize(width, height int) error {
	if err := c.oit.Resize(width, height); err != nil {
		c.log.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		return err
	}
	return nil
}

// Apply switches to s. Called between frames it takes effect immediately;
// during a frame it is queued for EndFrame. On error the previous settings
// stay active with all their resources.
func (c *Controller) Apply(s Settings) error {
	if c.inFrame {
		c.pending = &s
		return nil
	}
	return c.apply(s)
}

func (c *Controller) apply(s Settings) (err error) {
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	cur := c.settings
	if s == cur {
		return nil
	}
	defer func() {
		if err != nil {
			c.log.Error("reconfiguration rejected", zap.Error(err))
		}
	}()

	// The shadow resolution does not affect programs; change it first and
	// undo it if the rest of the transaction fails.
	undoResolution := func() {}
	if s.ShadowResolution != cur.ShadowResolution {
		if err := c.shadow.SetResolution(s.ShadowResolution); err != nil {
			return err
		}
		undoResolution = func() {
			if err := c.shadow.SetResolution(cur.ShadowResolution); err != nil {
				c.log.Warn("restoring shadow resolution failed", zap.Error(err))
			}
		}
	}

	if s.OIT != cur.OIT || s.Shadow != cur.Shadow || s.ShadowsEnabled != cur.ShadowsEnabled {
		if err := c.swap(s); err != nil {
			undoResolution()
			return err
		}
	}

	c.oit.SetOverestimation(s.Overestimation)
	c.shadow.SetOverestimation(s.ShadowOverestimation)
	c.settings = s
	return nil
}

// swap builds the programs and buffers for s and installs them together.
func (c *Controller) swap(s Settings) error {
	cur := c.settings
	set, err := c.reg.Build(c.variants(s)...)
	if err != nil {
		return fmt.Errorf("rebuilding shaders: %w", err)
	}

	var oitStaged *oit.Staged
	if s.OIT != cur.OIT {
		if oitStaged, err = c.oit.Stage(s.OIT); err != nil {
			c.reg.Release(set)
			return err
		}
	}
	var shadowStaged *shadow.Staged
	if s.Shadow != cur.Shadow {
		if shadowStaged, err = c.shadow.Stage(s.Shadow); err != nil {
			if oitStaged != nil {
				oitStaged.Abort()
			}
			c.reg.Release(set)
			return err
		}
	}

	// Everything is constructed; swap and drop the old generation.
	if oitStaged != nil {
		oitStaged.Commit()
	}
	if shadowStaged != nil {
		shadowStaged.Commit()
	}
	old := c.programs
	c.install(s, set)
	c.reg.Release(old)

	c.log.Info("renderer reconfigured",
		zap.Stringer("oit", s.OIT),
		zap.Stringer("shadow", s.Shadow),
		zap.Bool("shadows", s.ShadowsEnabled),
		zap.Int("programs", set.Len()))
	return nil
}

// Release frees the programs and both moment buffers.
func (c *Controller) Release() {
	c.reg.Release(c.programs)
	c.programs = nil
	c.oit.Release()
	c.shadow.Release()
}
