// Package shadow generates moment shadow maps: the scene is drawn from the
// light into a square moment buffer with the same accumulation the
// transparency gather uses, and receivers reconstruct the light's
// transmittance from it.
package shadow

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/pkg/math"
)

// Shadow map resolution limits.
const (
	MinResolution     = 256
	MaxResolution     = 4096
	DefaultResolution = 2048
)

// ErrNoPrograms is returned when no shadow generation program is installed
// for the active configuration.
var ErrNoPrograms = errors.New("shadow: programs not installed")

// State is the light-space setup of one shadow map.
type State struct {
	LightView       math.Mat4
	LightProjection math.Mat4
	Resolution      int
	LogDepthMin     float32
	LogDepthMax     float32
	Storage         *moment.Storage
}

// LightSpace returns projection * view.
func (s State) LightSpace() math.Mat4 {
	return s.LightProjection.Mul(s.LightView)
}

// Options tune the shadow map.
type Options struct {
	Overestimation float32
	Material       string
}

// DefaultOptions returns the default overestimation and the line material.
func DefaultOptions() Options {
	return Options{Overestimation: moment.DefaultOverestimation, Material: shader.LinesMaterial}
}

// MomentShadowMap owns the light-space moment storage.
type MomentShadowMap struct {
	dev  gpu.Device
	opts Options
	log  *zap.Logger

	state   State
	uniform moment.UniformData
	ubo     gpu.Buffer
	fb      gpu.Framebuffer

	programs *shader.Set
	lightDir math.Vec3
	bounds   math.AABB
}

// NewMomentShadowMap allocates a resolution x resolution moment buffer for
// cfg. The resolution is clamped and rounded like SetResolution.
func NewMomentShadowMap(dev gpu.Device, cfg moment.Config, resolution int, opts Options) (*MomentShadowMap, error) {
	log := logger.Named("shadow")
	if err := gpu.RequireExtension(dev, gpu.ExtFragmentShaderInterlock); err != nil {
		log.Error("fragment shader interlock unsupported", zap.String("renderer", dev.Info().Renderer))
		return nil, err
	}
	if opts.Material == "" {
		opts.Material = shader.LinesMaterial
	}
	opts.Overestimation = math32.Max(0, math32.Min(1, opts.Overestimation))
	resolution = ClampResolution(resolution)

	uniform, err := moment.NewUniformData(cfg.Normalize(), opts.Overestimation)
	if err != nil {
		return nil, err
	}
	storage, err := moment.NewStorage(dev, "shadow", cfg, resolution, resolution)
	if err != nil {
		return nil, fmt.Errorf("shadow storage: %w", err)
	}
	fb, err := newTarget(dev, resolution)
	if err != nil {
		storage.Release()
		return nil, err
	}
	ubo, err := dev.NewUniformBuffer(moment.UniformSize)
	if err != nil {
		storage.Release()
		dev.DeleteFramebuffer(fb)
		return nil, fmt.Errorf("shadow uniform buffer: %w", err)
	}

	sm := &MomentShadowMap{
		dev:     dev,
		opts:    opts,
		log:     log,
		uniform: uniform,
		ubo:     ubo,
		fb:      fb,
		state: State{
			LightView:       math.Identity(),
			LightProjection: math.Identity(),
			Resolution:      resolution,
			Storage:         storage,
		},
		lightDir: math.Vec3{X: 0, Y: 1, Z: 0},
		bounds:   math.EmptyAABB(),
	}
	sm.setClipRange(LightNearClipDistance, LightFarClipDistance)
	sm.uploadUniform()
	log.Info("moment shadow map ready",
		zap.Stringer("config", storage.Config()),
		zap.Int("resolution", resolution))
	return sm, nil
}

// newTarget creates the framebuffer the generation pass rasterizes into. Only
// its size matters; color writes are masked.
func newTarget(dev gpu.Device, resolution int) (gpu.Framebuffer, error) {
	fb, err := dev.NewFramebuffer(gpu.FramebufferDesc{
		Label:  "shadow.target",
		Width:  resolution,
		Height: resolution,
		Color:  gpu.RGBA8,
	})
	if err != nil {
		return 0, fmt.Errorf("shadow target: %w", err)
	}
	return fb, nil
}

func (sm *MomentShadowMap) uploadUniform() {
	sm.dev.WriteUniformBuffer(sm.ubo, 0, sm.uniform.Bytes())
}

// State returns a copy of the light-space setup.
func (sm *MomentShadowMap) State() State { return sm.state }

// Config implements oit.ShadowBinder.
func (sm *MomentShadowMap) Config() moment.Config { return sm.state.Storage.Config() }

// Uniform returns the data last uploaded to the uniform buffer.
func (sm *MomentShadowMap) Uniform() moment.UniformData { return sm.uniform }

// UsePrograms installs the shader set holding the generation variant. The
// set is not owned by sm.
func (sm *MomentShadowMap) UsePrograms(set *shader.Set) { sm.programs = set }

// Variant returns the generation program the pass needs.
func (sm *MomentShadowMap) Variant() shader.Variant {
	return shader.Variant{Material: sm.opts.Material, Pass: shader.ShadowGenerate, Shadow: sm.Config()}.Normalize()
}

// SetLight points the light along direction (towards the light) and fits
// the light frustum to sceneBounds.
func (sm *MomentShadowMap) SetLight(direction math.Vec3, sceneBounds math.AABB) {
	sm.lightDir = direction
	view, proj := DirectionalLightMatrices(direction, sceneBounds)
	sm.state.LightView = view
	sm.state.LightProjection = proj
	sm.SetSceneBoundingBox(sceneBounds)
}

// SetSceneBoundingBox derives the logarithmic depth range of the shadow
// moments from bb as seen by the light. It must run after SetLight and
// before the pass that writes or samples the map.
func (sm *MomentShadowMap) SetSceneBoundingBox(bb math.AABB) {
	sm.bounds = bb
	near, far := ClipRange(sm.state.LightView, bb)
	sm.setClipRange(near, far)
	sm.log.Debug("shadow depth range", zap.Float32("near", near), zap.Float32("far", far))
}

func (sm *MomentShadowMap) setClipRange(near, far float32) {
	sm.state.LogDepthMin = math32.Log(near)
	sm.state.LogDepthMax = math32.Log(far)
}

// CreateShadowMapPass clears the moment buffer and accumulates the geometry
// draw emits as seen from the light. Blending, depth test and write, stencil
// and color writes are disabled for the pass; the previous state including
// viewport and framebuffer is restored on every exit path, also when draw
// fails or panics.
func (sm *MomentShadowMap) CreateShadowMapPass(draw shader.DrawFunc) error {
	prog, err := sm.program()
	if err != nil {
		return err
	}
	defer gpu.Save(sm.dev)()

	s := sm.dev.State()
	s.Blend = false
	s.DepthWrite = false
	s.DepthTest = false
	s.StencilWriteMask = 0
	s.StencilTest = false
	s.ColorWrite = [4]bool{}
	s.Framebuffer = sm.fb
	sm.dev.Apply(s)

	sm.state.Storage.Clear()
	sm.dev.MemoryBarrier(gpu.BarrierAll)

	rc := shader.RenderContext{
		Pass:       shader.ShadowGenerate,
		PreRender:  true,
		Program:    prog,
		View:       sm.state.LightView,
		Projection: sm.state.LightProjection,
		Near:       math32.Exp(sm.state.LogDepthMin),
		Far:        math32.Exp(sm.state.LogDepthMax),
		Target:     sm.fb,
	}
	sm.dev.UseProgram(prog)
	shader.SetCamera(sm.dev, rc)
	sm.setLightUniforms(prog)
	sm.dev.BindUniformBuffer(shader.ShadowUniformBinding, sm.ubo)
	sm.state.Storage.BindImages(shader.ShadowImageUnit, gpu.ReadWrite)

	s.Viewport = [4]int32{0, 0, int32(sm.state.Resolution), int32(sm.state.Resolution)}
	sm.dev.Apply(s)

	if err := draw(rc); err != nil {
		return fmt.Errorf("shadow map pass: %w", err)
	}
	sm.dev.MemoryBarrier(gpu.BarrierAll)
	return nil
}

func (sm *MomentShadowMap) program() (gpu.Program, error) {
	if sm.programs == nil {
		return 0, ErrNoPrograms
	}
	p, err := sm.programs.Get(sm.Variant())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoPrograms, err)
	}
	return p, nil
}

func (sm *MomentShadowMap) setLightUniforms(p gpu.Program) {
	sm.dev.SetMat4(p, "lightViewMatrix", sm.state.LightView)
	sm.dev.SetMat4(p, "lightSpaceMatrix", sm.state.LightSpace())
	sm.dev.SetFloat(p, "logDepthMinShadow", sm.state.LogDepthMin)
	sm.dev.SetFloat(p, "logDepthMaxShadow", sm.state.LogDepthMax)
}

// BindForScene prepares a shadow-receiving program: the moment textures are
// bound as samplers and the light uniforms uploaded.
func (sm *MomentShadowMap) BindForScene(p gpu.Program) {
	sm.state.Storage.BindSamplers(shader.ShadowSamplerUnit)
	sm.setLightUniforms(p)
	sm.dev.BindUniformBuffer(shader.ShadowUniformBinding, sm.ubo)
}

// SetOverestimation updates the uniform in place.
func (sm *MomentShadowMap) SetOverestimation(beta float32) {
	sm.opts.Overestimation = math32.Max(0, math32.Min(1, beta))
	sm.uniform.Overestimation = sm.opts.Overestimation
	sm.uploadUniform()
}

// SetResolution clamps r to [MinResolution, MaxResolution], rounds it to a
// power of two and reallocates the textures. The configuration is kept.
func (sm *MomentShadowMap) SetResolution(r int) error {
	r = ClampResolution(r)
	if r == sm.state.Resolution {
		return nil
	}
	fb, err := newTarget(sm.dev, r)
	if err != nil {
		return err
	}
	if err := sm.state.Storage.Resize(r, r); err != nil {
		sm.dev.DeleteFramebuffer(fb)
		return fmt.Errorf("shadow resize: %w", err)
	}
	sm.dev.DeleteFramebuffer(sm.fb)
	sm.fb = fb
	sm.state.Resolution = r
	sm.log.Info("shadow map resolution changed", zap.Int("resolution", r))
	return nil
}

// Staged is a moment mode change allocated but not yet installed.
type Staged struct {
	sm      *MomentShadowMap
	storage *moment.Storage
	uniform moment.UniformData
}

// Stage allocates storage for cfg and selects its bias. The active storage
// is untouched until Commit.
func (sm *MomentShadowMap) Stage(cfg moment.Config) (*Staged, error) {
	cfg = cfg.Normalize()
	uniform, err := moment.NewUniformData(cfg, sm.opts.Overestimation)
	if err != nil {
		return nil, err
	}
	r := sm.state.Resolution
	storage, err := moment.NewStorage(sm.dev, "shadow", cfg, r, r)
	if err != nil {
		return nil, fmt.Errorf("shadow storage: %w", err)
	}
	return &Staged{sm: sm, storage: storage, uniform: uniform}, nil
}

// Config returns the staged configuration.
func (s *Staged) Config() moment.Config { return s.storage.Config() }

// Commit installs the staged storage and uniform data and releases the old
// storage.
func (s *Staged) Commit() {
	sm := s.sm
	old := sm.state.Storage
	sm.state.Storage = s.storage
	sm.uniform = s.uniform
	sm.uploadUniform()
	old.Release()
	sm.log.Info("shadow moment mode changed",
		zap.Stringer("from", old.Config()),
		zap.Stringer("to", s.storage.Config()),
		zap.Float32("bias", sm.uniform.MomentBias))
}

// Abort releases the staged storage.
func (s *Staged) Abort() { s.storage.Release() }

// UpdateMomentMode reallocates the moment textures for cfg and re-selects the
// bias. Programs for the new mode are installed separately with UsePrograms.
func (sm *MomentShadowMap) UpdateMomentMode(cfg moment.Config) error {
	staged, err := sm.Stage(cfg)
	if err != nil {
		return err
	}
	staged.Commit()
	return nil
}

// Release frees all GPU objects owned by sm.
func (sm *MomentShadowMap) Release() {
	if sm.state.Storage != nil {
		sm.state.Storage.Release()
		sm.state.Storage = nil
	}
	if sm.fb != 0 {
		sm.dev.DeleteFramebuffer(sm.fb)
		sm.fb = 0
	}
	if sm.ubo != 0 {
		sm.dev.DeleteBuffer(sm.ubo)
		sm.ubo = 0
	}
}

// LightDirection returns the direction towards the light last passed to
// SetLight.
func (sm *MomentShadowMap) LightDirection() math.Vec3 { return sm.lightDir }

// SceneBounds returns the box last passed to SetSceneBoundingBox.
func (sm *MomentShadowMap) SceneBounds() math.AABB { return sm.bounds }
