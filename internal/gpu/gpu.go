// Package gpu defines the small device surface the moment passes are written
// against. The OpenGL implementation lives in gpu/opengl; gpu/gputest provides
// a recording fake for tests.
package gpu

import (
	"errors"
	"fmt"

	"github.com/Faultbox/moment-oit/pkg/math"
)

// ErrMissingCapability is returned when the device lacks a required extension.
// It is fatal: there is no degraded fallback.
var ErrMissingCapability = errors.New("gpu: required capability missing")

// ExtFragmentShaderInterlock provides the per-pixel critical section the
// gather passes rely on.
const ExtFragmentShaderInterlock = "GL_ARB_fragment_shader_interlock"

// Handles are opaque, backend-defined object names. Zero is never a valid
// object except for the default framebuffer.
type (
	Texture     uint32
	Buffer      uint32
	Program     uint32
	Framebuffer uint32
)

// TextureFormat is an internal texture format.
type TextureFormat int

const (
	R32F TextureFormat = iota
	RG32F
	RGBA32F
	RG16
	RGBA16
	RGBA8
	RGBA16F
)

var formatInfo = [...]struct {
	name     string
	channels int
	bytes    int
}{
	R32F:    {"R32F", 1, 4},
	RG32F:   {"RG32F", 2, 4},
	RGBA32F: {"RGBA32F", 4, 4},
	RG16:    {"RG16", 2, 2},
	RGBA16:  {"RGBA16", 4, 2},
	RGBA8:   {"RGBA8", 4, 1},
	RGBA16F: {"RGBA16F", 4, 2},
}

func (f TextureFormat) String() string {
	if int(f) < 0 || int(f) >= len(formatInfo) {
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
	return formatInfo[f].name
}

// Channels returns the number of components per texel.
func (f TextureFormat) Channels() int {
	return formatInfo[f].channels
}

// BytesPerChannel returns the storage size of one component.
func (f TextureFormat) BytesPerChannel() int {
	return formatInfo[f].bytes
}

// Normalized reports whether the format stores unsigned normalized integers.
func (f TextureFormat) Normalized() bool {
	return f == RG16 || f == RGBA16 || f == RGBA8
}

// TextureArrayDesc describes a 2D array texture.
type TextureArrayDesc struct {
	Label  string
	Width  int
	Height int
	Layers int
	Format TextureFormat
}

// Bytes returns the storage footprint of the texture.
func (d TextureArrayDesc) Bytes() int {
	return d.Width * d.Height * d.Layers * d.Format.Channels() * d.Format.BytesPerChannel()
}

// FramebufferDesc describes an offscreen render target. When ShareDepthStencil
// is non-zero the new target attaches that framebuffer's depth-stencil buffer
// instead of allocating its own.
type FramebufferDesc struct {
	Label             string
	Width             int
	Height            int
	Color             TextureFormat
	DepthStencil      bool
	ShareDepthStencil Framebuffer
}

// Access selects image load/store access.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Barrier is a set of memory barrier bits.
type Barrier uint32

const (
	BarrierShaderImageAccess Barrier = 1 << iota
	BarrierTextureFetch
	BarrierShaderStorage
	BarrierFramebuffer

	BarrierAll Barrier = BarrierShaderImageAccess | BarrierTextureFetch | BarrierShaderStorage | BarrierFramebuffer
)

// Info describes the driver.
type Info struct {
	Vendor   string
	Renderer string
	Version  string
}

// Device is the GPU surface used by the moment buffers and passes.
type Device interface {
	Info() Info
	HasExtension(name string) bool

	NewTextureArray(desc TextureArrayDesc) (Texture, error)
	// ClearTexture resets every texel of every layer to zero.
	ClearTexture(tex Texture)
	// ReadTexture returns all texels as float32, layer-major, normalized
	// formats converted to [0,1].
	ReadTexture(tex Texture) ([]float32, error)
	DeleteTexture(tex Texture)

	NewUniformBuffer(size int) (Buffer, error)
	WriteUniformBuffer(buf Buffer, offset int, data []byte)
	DeleteBuffer(buf Buffer)
	BindUniformBuffer(binding uint32, buf Buffer)

	NewProgram(vertex, fragment string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	SetInt(p Program, name string, v int32)
	SetFloat(p Program, name string, v float32)
	SetVec3(p Program, name string, v math.Vec3)
	SetVec4(p Program, name string, v [4]float32)
	SetMat4(p Program, name string, m math.Mat4)

	// BindImage binds all layers of tex to an image unit.
	BindImage(unit uint32, tex Texture, format TextureFormat, access Access)
	// BindTexture binds tex as a sampler array to a texture unit.
	BindTexture(unit uint32, tex Texture)
	MemoryBarrier(b Barrier)

	NewFramebuffer(desc FramebufferDesc) (Framebuffer, error)
	FramebufferTexture(fb Framebuffer) Texture
	DeleteFramebuffer(fb Framebuffer)
	// ClearColor clears the color attachment of the bound framebuffer.
	ClearColor(c [4]float32)
	// ClearStencil clears the stencil buffer of the bound framebuffer to 0.
	ClearStencil()
	// ClearDepth clears the depth buffer of the bound framebuffer to 1.
	ClearDepth()
	// DrawFullscreen draws a single triangle covering the viewport.
	DrawFullscreen()

	State() State
	Apply(s State)
}

// RequireExtension returns ErrMissingCapability when the device lacks name.
func RequireExtension(dev Device, name string) error {
	if !dev.HasExtension(name) {
		return fmt.Errorf("%w: %s unsupported by %s", ErrMissingCapability, name, dev.Info().Renderer)
	}
	return nil
}
