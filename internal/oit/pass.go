package oit

import (
	"fmt"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/shader"
)

// Default view distances used when the render context leaves Near/Far unset.
const (
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 100
)

func depthRange(rc shader.RenderContext) moment.DepthRange {
	near, far := rc.Near, rc.Far
	if near <= 0 {
		near = DefaultNear
	}
	if far <= near {
		far = DefaultFar
	}
	return moment.NewDepthRange(near, far)
}

func (m *MBOIT) prepare(rc shader.RenderContext, p shader.Pass) (shader.RenderContext, error) {
	prog, err := m.program(p)
	if err != nil {
		return rc, err
	}
	rc.Pass = p
	rc.PreRender = false
	rc.Program = prog

	m.dev.UseProgram(prog)
	shader.SetCamera(m.dev, rc)
	dr := depthRange(rc)
	m.dev.SetFloat(prog, "logDepthMin", dr.LogMin)
	m.dev.SetFloat(prog, "logDepthMax", dr.LogMax)
	m.dev.BindUniformBuffer(shader.OITUniformBinding, m.ubo)
	return rc, nil
}

func (m *MBOIT) viewport() [4]int32 {
	w, h := m.storage.Size()
	return [4]int32{0, 0, int32(w), int32(h)}
}

// Gather clears the moment storage and accumulates every fragment draw
// emits. Depth and color writes are off; the depth test against the opaque
// image stays on. The previous state is restored on return.
func (m *MBOIT) Gather(rc shader.RenderContext, draw shader.DrawFunc) error {
	rc, err := m.prepare(rc, shader.Gather)
	if err != nil {
		return err
	}
	defer gpu.Save(m.dev)()

	s := m.dev.State()
	s.Framebuffer = rc.Target
	s.Viewport = m.viewport()
	s.Blend = false
	s.DepthTest = true
	s.DepthWrite = false
	s.ColorWrite = [4]bool{}
	if m.opts.Stencil {
		s.StencilTest = true
		s.StencilWriteMask = 0xFF
		s.StencilFunc = gpu.CompareAlways
		s.StencilRef = 1
		s.StencilReadMask = 0xFF
		s.StencilFail = gpu.StencilKeep
		s.StencilDepthFail = gpu.StencilKeep
		s.StencilPass = gpu.StencilReplace
	} else {
		s.StencilTest = false
	}
	m.dev.Apply(s)

	m.storage.Clear()
	m.dev.MemoryBarrier(gpu.BarrierAll)
	if m.opts.Stencil {
		m.dev.ClearStencil()
	}

	m.storage.BindImages(shader.OITImageUnit, gpu.ReadWrite)
	if err := draw(rc); err != nil {
		return fmt.Errorf("oit gather: %w", err)
	}
	m.dev.MemoryBarrier(gpu.BarrierAll)
	return nil
}

// Resolve re-renders the transparent geometry into the accumulation target,
// each fragment weighted by the transmittance reconstructed at its depth.
// Color, depth and stencil write masks are back at their defaults on return.
func (m *MBOIT) Resolve(rc shader.RenderContext, draw shader.DrawFunc) error {
	accum, err := m.accumulation(rc.Target)
	if err != nil {
		return err
	}
	rc, err = m.prepare(rc, shader.Resolve)
	if err != nil {
		return err
	}
	prev := m.dev.State()
	defer func() { m.dev.Apply(gpu.DefaultMasks(prev)) }()

	s := prev
	s.Framebuffer = accum
	s.Viewport = m.viewport()
	s.ColorWrite = gpu.AllColor
	s.StencilWriteMask = 0
	s.StencilTest = false
	m.dev.Apply(s)
	m.dev.ClearColor([4]float32{0, 0, 0, 0})

	s.Blend = true
	s.BlendSrc = gpu.BlendOne
	s.BlendDst = gpu.BlendOne
	s.DepthTest = true
	s.DepthWrite = false
	if m.opts.Stencil && m.accumShared {
		s.StencilTest = true
		s.StencilFunc = gpu.CompareEqual
		s.StencilRef = 1
		s.StencilReadMask = 0xFF
		s.StencilFail, s.StencilDepthFail, s.StencilPass = gpu.StencilKeep, gpu.StencilKeep, gpu.StencilKeep
	}
	m.dev.Apply(s)

	m.storage.BindSamplers(shader.OITSamplerUnit)
	if m.shadows != nil {
		m.shadows.BindForScene(rc.Program)
	}
	if err := draw(rc); err != nil {
		return fmt.Errorf("oit resolve: %w", err)
	}
	return nil
}

// Composite blends the accumulated transparent color over target using the
// total transmittance exp(-b0) of each pixel.
func (m *MBOIT) Composite(target gpu.Framebuffer) error {
	if m.accum == 0 || m.accumTarget != target {
		return fmt.Errorf("oit composite: no accumulation for framebuffer %d", target)
	}
	prog, err := m.program(shader.Composite)
	if err != nil {
		return err
	}
	prev := m.dev.State()
	defer func() { m.dev.Apply(gpu.DefaultMasks(prev)) }()

	s := prev
	s.Framebuffer = target
	s.Viewport = m.viewport()
	s.Blend = true
	s.BlendSrc = gpu.BlendOne
	s.BlendDst = gpu.BlendSrcAlpha
	s.DepthTest = false
	s.DepthWrite = false
	s.ColorWrite = gpu.AllColor
	s.StencilWriteMask = 0
	s.StencilTest = m.opts.Stencil
	if m.opts.Stencil {
		s.StencilFunc = gpu.CompareEqual
		s.StencilRef = 1
		s.StencilReadMask = 0xFF
		s.StencilFail, s.StencilDepthFail, s.StencilPass = gpu.StencilKeep, gpu.StencilKeep, gpu.StencilKeep
	}
	m.dev.Apply(s)

	m.dev.UseProgram(prog)
	m.dev.BindTexture(shader.OITSamplerUnit, m.storage.Textures()[0])
	m.dev.BindTexture(shader.AccumulationUnit, m.dev.FramebufferTexture(m.accum))
	m.dev.DrawFullscreen()
	return nil
}

// Render runs gather, resolve and composite for one frame.
func (m *MBOIT) Render(rc shader.RenderContext, draw shader.DrawFunc) error {
	if err := m.Gather(rc, draw); err != nil {
		return err
	}
	if err := m.Resolve(rc, draw); err != nil {
		return err
	}
	return m.Composite(rc.Target)
}
