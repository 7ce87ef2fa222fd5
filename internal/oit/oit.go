// Package oit renders transparent geometry with moment-based order
// independent transparency: a gather pass accumulates per-pixel moments of
// the absorbance along depth, a resolve pass re-renders the geometry
// weighted by the reconstructed transmittance, and a composite pass blends
// the result over the opaque image.
package oit

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/shader"
)

// ErrNoPrograms is returned when a pass runs before a shader set is installed
// or the installed set does not match the buffer configuration.
var ErrNoPrograms = errors.New("oit: programs not installed")

// Options tune the passes.
type Options struct {
	// Stencil marks covered pixels during gather so resolve and composite
	// skip pixels without transparent fragments.
	Stencil        bool
	Overestimation float32
	Material       string
}

// DefaultOptions returns stencil masking, the default overestimation and the
// built-in line material.
func DefaultOptions() Options {
	return Options{
		Stencil:        true,
		Overestimation: moment.DefaultOverestimation,
		Material:       shader.LinesMaterial,
	}
}

// ShadowBinder prepares a program for sampling a moment shadow map.
type ShadowBinder interface {
	Config() moment.Config
	BindForScene(p gpu.Program)
}

// MBOIT owns the screen-sized moment storage, its uniform buffer and the
// accumulation target. Programs are borrowed from an installed shader.Set.
type MBOIT struct {
	dev  gpu.Device
	opts Options
	log  *zap.Logger

	storage *moment.Storage
	uniform moment.UniformData
	ubo     gpu.Buffer

	programs *shader.Set
	shadows  ShadowBinder

	accum       gpu.Framebuffer
	accumTarget gpu.Framebuffer
	accumShared bool
}

// New checks for fragment shader interlock and allocates storage for cfg at
// width x height. A missing interlock is reported as gpu.ErrMissingCapability.
func New(dev gpu.Device, cfg moment.Config, width, height int, opts Options) (*MBOIT, error) {
	log := logger.Named("oit")
	if err := gpu.RequireExtension(dev, gpu.ExtFragmentShaderInterlock); err != nil {
		log.Error("fragment shader interlock unsupported", zap.String("renderer", dev.Info().Renderer))
		return nil, err
	}
	if opts.Material == "" {
		opts.Material = shader.LinesMaterial
	}
	opts.Overestimation = clampUnit(opts.Overestimation)

	uniform, err := moment.NewUniformData(cfg.Normalize(), opts.Overestimation)
	if err != nil {
		return nil, err
	}
	storage, err := moment.NewStorage(dev, "oit", cfg, width, height)
	if err != nil {
		return nil, fmt.Errorf("oit storage: %w", err)
	}
	ubo, err := dev.NewUniformBuffer(moment.UniformSize)
	if err != nil {
		storage.Release()
		return nil, fmt.Errorf("oit uniform buffer: %w", err)
	}

	m := &MBOIT{
		dev:     dev,
		opts:    opts,
		log:     log,
		storage: storage,
		uniform: uniform,
		ubo:     ubo,
	}
	m.uploadUniform()
	log.Info("moment OIT ready",
		zap.Stringer("config", storage.Config()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("stencil", opts.Stencil))
	return m, nil
}

func clampUnit(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func (m *MBOIT) uploadUniform() {
	m.dev.WriteUniformBuffer(m.ubo, 0, m.uniform.Bytes())
}

// Config returns the configuration of the active storage.
func (m *MBOIT) Config() moment.Config { return m.storage.Config() }

// Storage returns the active storage. It stays owned by m.
func (m *MBOIT) Storage() *moment.Storage { return m.storage }

// Uniform returns the data last uploaded to the uniform buffer.
func (m *MBOIT) Uniform() moment.UniformData { return m.uniform }

// Options returns the pass options.
func (m *MBOIT) Options() Options { return m.opts }

// UsePrograms installs the shader set the passes draw with. The set is not
// owned by m.
func (m *MBOIT) UsePrograms(set *shader.Set) { m.programs = set }

// SetShadows makes resolve use the shadow-receiving variant bound through b.
// A nil binder disables shadows.
func (m *MBOIT) SetShadows(b ShadowBinder) { m.shadows = b }

// SetOverestimation updates the uniform in place.
func (m *MBOIT) SetOverestimation(beta float32) {
	m.opts.Overestimation = clampUnit(beta)
	m.uniform.Overestimation = m.opts.Overestimation
	m.uploadUniform()
}

// Variants returns the programs the passes need for the active configuration.
func (m *MBOIT) Variants() []shader.Variant {
	return []shader.Variant{m.variant(shader.Gather), m.variant(shader.Resolve), {Pass: shader.Composite}}
}

func (m *MBOIT) variant(p shader.Pass) shader.Variant {
	v := shader.Variant{Material: m.opts.Material, Pass: p, OIT: m.storage.Config()}
	if m.shadows != nil {
		v.Shadows = true
		v.Shadow = m.shadows.Config()
	}
	return v.Normalize()
}

func (m *MBOIT) program(p shader.Pass) (gpu.Program, error) {
	if m.programs == nil {
		return 0, ErrNoPrograms
	}
	prog, err := m.programs.Get(m.variant(p))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoPrograms, err)
	}
	return prog, nil
}

// Staged is a storage reconfiguration that has been allocated but not yet
// installed. Exactly one of Commit or Abort must be called.
type Staged struct {
	m       *MBOIT
	storage *moment.Storage
	uniform moment.UniformData
}

// Stage allocates storage for cfg at the current size. The active storage is
// untouched until Commit.
func (m *MBOIT) Stage(cfg moment.Config) (*Staged, error) {
	cfg = cfg.Normalize()
	uniform, err := moment.NewUniformData(cfg, m.opts.Overestimation)
	if err != nil {
		return nil, err
	}
	w, h := m.storage.Size()
	storage, err := moment.NewStorage(m.dev, "oit", cfg, w, h)
	if err != nil {
		return nil, fmt.Errorf("oit storage: %w", err)
	}
	return &Staged{m: m, storage: storage, uniform: uniform}, nil
}

// Config returns the staged configuration.
func (s *Staged) Config() moment.Config { return s.storage.Config() }

// Commit swaps the staged storage in and releases the old one.
func (s *Staged) Commit() {
	m := s.m
	old := m.storage
	m.storage = s.storage
	m.uniform = s.uniform
	m.uploadUniform()
	old.Release()
	m.log.Info("moment OIT reconfigured",
		zap.Stringer("from", old.Config()),
		zap.Stringer("to", m.storage.Config()),
		zap.Float32("bias", m.uniform.MomentBias))
}

// Abort releases the staged storage.
func (s *Staged) Abort() {
	s.storage.Release()
}

// Reconfigure replaces the storage for cfg. On error the old storage stays
// active.
func (m *MBOIT) Reconfigure(cfg moment.Config) error {
	staged, err := m.Stage(cfg)
	if err != nil {
		return err
	}
	staged.Commit()
	return nil
}

// Resize reallocates the screen-sized storage, keeping the configuration.
func (m *MBOIT) Resize(width, height int) error {
	if err := m.storage.Resize(width, height); err != nil {
		return fmt.Errorf("oit resize: %w", err)
	}
	m.dropAccumulation()
	m.log.Debug("moment OIT resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (m *MBOIT) dropAccumulation() {
	if m.accum != 0 {
		m.dev.DeleteFramebuffer(m.accum)
		m.accum = 0
	}
}

// accumulation returns the resolve target, recreating it when the scene
// target changed. It shares target's depth-stencil buffer unless target is
// the default framebuffer.
func (m *MBOIT) accumulation(target gpu.Framebuffer) (gpu.Framebuffer, error) {
	if m.accum != 0 && m.accumTarget == target {
		return m.accum, nil
	}
	m.dropAccumulation()
	w, h := m.storage.Size()
	fb, err := m.dev.NewFramebuffer(gpu.FramebufferDesc{
		Label:             "oit.accumulation",
		Width:             w,
		Height:            h,
		Color:             gpu.RGBA16F,
		DepthStencil:      target == 0,
		ShareDepthStencil: target,
	})
	if err != nil {
		return 0, fmt.Errorf("oit accumulation target: %w", err)
	}
	m.accum, m.accumTarget, m.accumShared = fb, target, target != 0
	return fb, nil
}

// Release frees all GPU objects owned by m.
func (m *MBOIT) Release() {
	m.dropAccumulation()
	if m.storage != nil {
		m.storage.Release()
		m.storage = nil
	}
	if m.ubo != 0 {
		m.dev.DeleteBuffer(m.ubo)
		m.ubo = 0
	}
}
