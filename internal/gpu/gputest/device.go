// Package gputest provides a CPU-side gpu.Device for tests. Textures are
// backed by float32 slices, programs by their source text, and every call
// that orders GPU work is appended to Events.
package gputest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/pkg/math"
)

// Event kinds recorded in Device.Events.
const (
	EventClearTexture = "clear-texture"
	EventBarrier      = "barrier"
	EventDraw         = "draw-fullscreen"
	EventClearStencil = "clear-stencil"
	EventClearColor   = "clear-color"
	EventClearDepth   = "clear-depth"
	EventUseProgram   = "use-program"
	EventApply        = "apply-state"
)

// Event is one recorded device call.
type Event struct {
	Kind    string
	Texture gpu.Texture
	Program gpu.Program
	Barrier gpu.Barrier
	State   gpu.State
}

// TextureData is the CPU copy of a texture array.
type TextureData struct {
	Desc gpu.TextureArrayDesc
	Data []float32
}

// ProgramData is a linked fake program.
type ProgramData struct {
	Vertex, Fragment string
	Ints             map[string]int32
	Floats           map[string]float32
	Vec3s            map[string]math.Vec3
	Vec4s            map[string][4]float32
	Mat4s            map[string]math.Mat4
}

// Image is an image unit binding.
type Image struct {
	Texture gpu.Texture
	Format  gpu.TextureFormat
	Access  gpu.Access
}

// Device is a fake gpu.Device.
type Device struct {
	Extensions map[string]bool

	// FailProgram, when set, is consulted before linking a program.
	FailProgram func(vertex, fragment string) error
	// FailTexture, when set, is consulted before creating a texture.
	FailTexture func(desc gpu.TextureArrayDesc) error

	Textures     map[gpu.Texture]*TextureData
	Programs     map[gpu.Program]*ProgramData
	Buffers      map[gpu.Buffer][]byte
	Framebuffers map[gpu.Framebuffer]gpu.FramebufferDesc
	Images       map[uint32]Image
	Samplers     map[uint32]gpu.Texture
	UniformBinds map[uint32]gpu.Buffer
	Current      gpu.Program
	Events       []Event

	state gpu.State
	next  uint32
	fbTex map[gpu.Framebuffer]gpu.Texture
}

// New returns a fake device advertising fragment shader interlock.
func New(width, height int32) *Device {
	return &Device{
		Extensions:   map[string]bool{gpu.ExtFragmentShaderInterlock: true},
		Textures:     make(map[gpu.Texture]*TextureData),
		Programs:     make(map[gpu.Program]*ProgramData),
		Buffers:      make(map[gpu.Buffer][]byte),
		Framebuffers: make(map[gpu.Framebuffer]gpu.FramebufferDesc),
		Images:       make(map[uint32]Image),
		Samplers:     make(map[uint32]gpu.Texture),
		UniformBinds: make(map[uint32]gpu.Buffer),
		state:        gpu.DefaultState(width, height),
		fbTex:        make(map[gpu.Framebuffer]gpu.Texture),
	}
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

func (d *Device) record(e Event) {
	d.Events = append(d.Events, e)
}

// Info implements gpu.Device.
func (d *Device) Info() gpu.Info {
	return gpu.Info{Vendor: "gputest", Renderer: "fake", Version: "4.6"}
}

// HasExtension implements gpu.Device.
func (d *Device) HasExtension(name string) bool {
	return d.Extensions[name]
}

// NewTextureArray implements gpu.Device.
func (d *Device) NewTextureArray(desc gpu.TextureArrayDesc) (gpu.Texture, error) {
	if d.FailTexture != nil {
		if err := d.FailTexture(desc); err != nil {
			return 0, err
		}
	}
	if desc.Width <= 0 || desc.Height <= 0 || desc.Layers <= 0 {
		return 0, fmt.Errorf("gputest: invalid texture size %dx%dx%d", desc.Width, desc.Height, desc.Layers)
	}
	tex := gpu.Texture(d.id())
	d.Textures[tex] = &TextureData{
		Desc: desc,
		Data: make([]float32, desc.Width*desc.Height*desc.Layers*desc.Format.Channels()),
	}
	return tex, nil
}

// ClearTexture implements gpu.Device.
func (d *Device) ClearTexture(tex gpu.Texture) {
	if t, ok := d.Textures[tex]; ok {
		clear(t.Data)
	}
	d.record(Event{Kind: EventClearTexture, Texture: tex})
}

// ReadTexture implements gpu.Device.
func (d *Device) ReadTexture(tex gpu.Texture) ([]float32, error) {
	t, ok := d.Textures[tex]
	if !ok {
		return nil, fmt.Errorf("gputest: unknown texture %d", tex)
	}
	return slices.Clone(t.Data), nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(tex gpu.Texture) {
	delete(d.Textures, tex)
}

// NewUniformBuffer implements gpu.Device.
func (d *Device) NewUniformBuffer(size int) (gpu.Buffer, error) {
	buf := gpu.Buffer(d.id())
	d.Buffers[buf] = make([]byte, size)
	return buf, nil
}

// WriteUniformBuffer implements gpu.Device.
func (d *Device) WriteUniformBuffer(buf gpu.Buffer, offset int, data []byte) {
	copy(d.Buffers[buf][offset:], data)
}

// DeleteBuffer implements gpu.Device.
func (d *Device) DeleteBuffer(buf gpu.Buffer) {
	delete(d.Buffers, buf)
}

// BindUniformBuffer implements gpu.Device.
func (d *Device) BindUniformBuffer(binding uint32, buf gpu.Buffer) {
	d.UniformBinds[binding] = buf
}

// NewProgram implements gpu.Device.
func (d *Device) NewProgram(vertex, fragment string) (gpu.Program, error) {
	if d.FailProgram != nil {
		if err := d.FailProgram(vertex, fragment); err != nil {
			return 0, err
		}
	}
	p := gpu.Program(d.id())
	d.Programs[p] = &ProgramData{
		Vertex:   vertex,
		Fragment: fragment,
		Ints:     make(map[string]int32),
		Floats:   make(map[string]float32),
		Vec3s:    make(map[string]math.Vec3),
		Vec4s:    make(map[string][4]float32),
		Mat4s:    make(map[string]math.Mat4),
	}
	return p, nil
}

// DeleteProgram implements gpu.Device.
func (d *Device) DeleteProgram(p gpu.Program) {
	delete(d.Programs, p)
}

// UseProgram implements gpu.Device.
func (d *Device) UseProgram(p gpu.Program) {
	d.Current = p
	d.record(Event{Kind: EventUseProgram, Program: p})
}

func (d *Device) program(p gpu.Program) *ProgramData {
	prog, ok := d.Programs[p]
	if !ok {
		panic(fmt.Sprintf("gputest: uniform set on deleted program %d", p))
	}
	return prog
}

// SetInt implements gpu.Device.
func (d *Device) SetInt(p gpu.Program, name string, v int32) { d.program(p).Ints[name] = v }

// SetFloat implements gpu.Device.
func (d *Device) SetFloat(p gpu.Program, name string, v float32) { d.program(p).Floats[name] = v }

// SetVec3 implements gpu.Device.
func (d *Device) SetVec3(p gpu.Program, name string, v math.Vec3) { d.program(p).Vec3s[name] = v }

// SetVec4 implements gpu.Device.
func (d *Device) SetVec4(p gpu.Program, name string, v [4]float32) { d.program(p).Vec4s[name] = v }

// SetMat4 implements gpu.Device.
func (d *Device) SetMat4(p gpu.Program, name string, m math.Mat4) { d.program(p).Mat4s[name] = m }

// BindImage implements gpu.Device.
func (d *Device) BindImage(unit uint32, tex gpu.Texture, format gpu.TextureFormat, access gpu.Access) {
	d.Images[unit] = Image{Texture: tex, Format: format, Access: access}
}

// BindTexture implements gpu.Device.
func (d *Device) BindTexture(unit uint32, tex gpu.Texture) {
	d.Samplers[unit] = tex
}

// MemoryBarrier implements gpu.Device.
func (d *Device) MemoryBarrier(b gpu.Barrier) {
	d.record(Event{Kind: EventBarrier, Barrier: b})
}

// NewFramebuffer implements gpu.Device.
func (d *Device) NewFramebuffer(desc gpu.FramebufferDesc) (gpu.Framebuffer, error) {
	tex, err := d.NewTextureArray(gpu.TextureArrayDesc{
		Label: desc.Label, Width: desc.Width, Height: desc.Height, Layers: 1, Format: desc.Color,
	})
	if err != nil {
		return 0, err
	}
	fb := gpu.Framebuffer(d.id())
	d.Framebuffers[fb] = desc
	d.fbTex[fb] = tex
	return fb, nil
}

// FramebufferTexture implements gpu.Device.
func (d *Device) FramebufferTexture(fb gpu.Framebuffer) gpu.Texture {
	return d.fbTex[fb]
}

// DeleteFramebuffer implements gpu.Device.
func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	d.DeleteTexture(d.fbTex[fb])
	delete(d.fbTex, fb)
	delete(d.Framebuffers, fb)
}

// ClearColor implements gpu.Device.
func (d *Device) ClearColor(c [4]float32) {
	d.record(Event{Kind: EventClearColor})
}

// ClearStencil implements gpu.Device.
func (d *Device) ClearStencil() {
	d.record(Event{Kind: EventClearStencil})
}

// ClearDepth implements gpu.Device.
func (d *Device) ClearDepth() {
	d.record(Event{Kind: EventClearDepth})
}

// DrawFullscreen implements gpu.Device.
func (d *Device) DrawFullscreen() {
	d.record(Event{Kind: EventDraw, Program: d.Current, State: d.state})
}

// State implements gpu.Device.
func (d *Device) State() gpu.State {
	return d.state
}

// Apply implements gpu.Device.
func (d *Device) Apply(s gpu.State) {
	d.state = s
	d.record(Event{Kind: EventApply, State: s})
}

// Kinds returns the recorded event kinds in order, skipping state applies
// and program binds.
func (d *Device) Kinds() []string {
	var out []string
	for _, e := range d.Events {
		if e.Kind == EventApply || e.Kind == EventUseProgram {
			continue
		}
		out = append(out, e.Kind)
	}
	return out
}

// Reset drops recorded events.
func (d *Device) Reset() {
	d.Events = nil
}

// LiveTextures returns the number of textures not yet deleted.
func (d *Device) LiveTextures() int {
	return len(d.Textures)
}

// ProgramsContaining returns live programs whose fragment source contains s.
func (d *Device) ProgramsContaining(s string) []gpu.Program {
	var out []gpu.Program
	for p, data := range d.Programs {
		if strings.Contains(data.Fragment, s) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}
