package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Faultbox/moment-oit/internal/gpu"
)

var blendFactors = [...]uint32{
	gpu.BlendZero:             gl.ZERO,
	gpu.BlendOne:              gl.ONE,
	gpu.BlendSrcAlpha:         gl.SRC_ALPHA,
	gpu.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
}

var compareFuncs = [...]uint32{
	gpu.CompareAlways:   gl.ALWAYS,
	gpu.CompareEqual:    gl.EQUAL,
	gpu.CompareNotEqual: gl.NOTEQUAL,
	gpu.CompareNever:    gl.NEVER,
}

var stencilOps = [...]uint32{
	gpu.StencilKeep:    gl.KEEP,
	gpu.StencilReplace: gl.REPLACE,
	gpu.StencilZero:    gl.ZERO,
}

func lookup(table []uint32, v uint32) int {
	for i, e := range table {
		if e == v {
			return i
		}
	}
	return 0
}

func getInt(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func enable(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// State implements gpu.Device by querying the context.
func (d *Device) State() gpu.State {
	var s gpu.State
	s.Blend = gl.IsEnabled(gl.BLEND)
	s.BlendSrc = gpu.BlendFactor(lookup(blendFactors[:], uint32(getInt(gl.BLEND_SRC_RGB))))
	s.BlendDst = gpu.BlendFactor(lookup(blendFactors[:], uint32(getInt(gl.BLEND_DST_RGB))))

	s.DepthTest = gl.IsEnabled(gl.DEPTH_TEST)
	var depthMask bool
	gl.GetBooleanv(gl.DEPTH_WRITEMASK, &depthMask)
	s.DepthWrite = depthMask
	gl.GetBooleanv(gl.COLOR_WRITEMASK, &s.ColorWrite[0])

	s.StencilTest = gl.IsEnabled(gl.STENCIL_TEST)
	s.StencilWriteMask = uint32(getInt(gl.STENCIL_WRITEMASK))
	s.StencilFunc = gpu.CompareFunc(lookup(compareFuncs[:], uint32(getInt(gl.STENCIL_FUNC))))
	s.StencilRef = getInt(gl.STENCIL_REF)
	s.StencilReadMask = uint32(getInt(gl.STENCIL_VALUE_MASK))
	s.StencilFail = gpu.StencilOp(lookup(stencilOps[:], uint32(getInt(gl.STENCIL_FAIL))))
	s.StencilDepthFail = gpu.StencilOp(lookup(stencilOps[:], uint32(getInt(gl.STENCIL_PASS_DEPTH_FAIL))))
	s.StencilPass = gpu.StencilOp(lookup(stencilOps[:], uint32(getInt(gl.STENCIL_PASS_DEPTH_PASS))))

	gl.GetIntegerv(gl.VIEWPORT, &s.Viewport[0])
	s.Framebuffer = gpu.Framebuffer(getInt(gl.DRAW_FRAMEBUFFER_BINDING))
	return s
}

// Apply implements gpu.Device.
func (d *Device) Apply(s gpu.State) {
	enable(gl.BLEND, s.Blend)
	gl.BlendFunc(blendFactors[s.BlendSrc], blendFactors[s.BlendDst])

	enable(gl.DEPTH_TEST, s.DepthTest)
	gl.DepthMask(s.DepthWrite)
	gl.ColorMask(s.ColorWrite[0], s.ColorWrite[1], s.ColorWrite[2], s.ColorWrite[3])

	enable(gl.STENCIL_TEST, s.StencilTest)
	gl.StencilMask(s.StencilWriteMask)
	gl.StencilFunc(compareFuncs[s.StencilFunc], s.StencilRef, s.StencilReadMask)
	gl.StencilOp(stencilOps[s.StencilFail], stencilOps[s.StencilDepthFail], stencilOps[s.StencilPass])

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(s.Framebuffer))
	gl.Viewport(s.Viewport[0], s.Viewport[1], s.Viewport[2], s.Viewport[3])
}
