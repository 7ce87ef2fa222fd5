package gpu

// BlendFactor is a blend equation factor.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// CompareFunc is a stencil comparison.
type CompareFunc int

const (
	CompareAlways CompareFunc = iota
	CompareEqual
	CompareNotEqual
	CompareNever
)

// StencilOp is a stencil update action.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilReplace
	StencilZero
)

// State is the fixed-function state the passes touch. Passes read the current
// state, change what they need and restore the previous value on exit.
type State struct {
	Blend    bool
	BlendSrc BlendFactor
	BlendDst BlendFactor

	DepthTest  bool
	DepthWrite bool
	ColorWrite [4]bool

	StencilTest      bool
	StencilWriteMask uint32
	StencilFunc      CompareFunc
	StencilRef       int32
	StencilReadMask  uint32
	StencilFail      StencilOp
	StencilDepthFail StencilOp
	StencilPass      StencilOp

	Viewport    [4]int32
	Framebuffer Framebuffer
}

// AllColor enables writes to every color channel.
var AllColor = [4]bool{true, true, true, true}

// DefaultState is the state a freshly created context is put in.
func DefaultState(width, height int32) State {
	return DefaultMasks(State{
		Blend:           true,
		BlendSrc:        BlendSrcAlpha,
		BlendDst:        BlendOneMinusSrcAlpha,
		DepthTest:       true,
		StencilFunc:     CompareAlways,
		StencilReadMask: 0xFF,
		Viewport:        [4]int32{0, 0, width, height},
	})
}

// DefaultMasks returns s with color, depth and stencil writes all enabled.
func DefaultMasks(s State) State {
	s.ColorWrite = AllColor
	s.DepthWrite = true
	s.StencilWriteMask = 0xFF
	return s
}

// Save captures the device state and returns a function restoring it.
// Use it as `defer gpu.Save(dev)()` so restoration runs on every exit path.
func Save(dev Device) func() {
	prev := dev.State()
	return func() {
		dev.Apply(prev)
	}
}
