package shader

import _ "embed"

// momentMath holds the reconstruction shared by every program reading moments.
//
//go:embed glsl/moment_math.glsl
var momentMath string

// momentStore holds the interlocked accumulation used by gather and shadow generation.
//
//go:embed glsl/moment_store.glsl
var momentStore string

// LinesVertexShader is the vertex shader for tube and ground geometry.
//
//go:embed glsl/mesh.vert
var LinesVertexShader string

// LinesFragmentShader shades tube and ground geometry for every pass.
//
//go:embed glsl/mesh.frag
var LinesFragmentShader string

// FullscreenVertexShader emits a single triangle covering the viewport.
//
//go:embed glsl/fullscreen.vert
var FullscreenVertexShader string

// CompositeFragmentShader blends the resolved transparent layer over the
// opaque image.
//
//go:embed glsl/composite.frag
var CompositeFragmentShader string
