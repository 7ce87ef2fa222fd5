// Package opengl implements gpu.Device on an OpenGL 4.5+ core context using
// direct state access.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
)

// Device is the OpenGL gpu.Device. It must be created and used on the
// thread owning the context.
type Device struct {
	info       gpu.Info
	extensions map[string]bool
	log        *zap.Logger

	textures     map[gpu.Texture]gpu.TextureArrayDesc
	uniforms     map[uniformKey]int32
	framebuffers map[gpu.Framebuffer]*framebuffer
	emptyVAO     uint32
}

// New loads the GL entry points and queries the driver.
// IMPORTANT: Must be called AFTER the OpenGL context is current.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		extensions:   make(map[string]bool),
		log:          logger.Named("gl"),
		textures:     make(map[gpu.Texture]gpu.TextureArrayDesc),
		uniforms:     make(map[uniformKey]int32),
		framebuffers: make(map[gpu.Framebuffer]*framebuffer),
	}
	d.info = gpu.Info{
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}

	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		d.extensions[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))] = true
	}

	d.log.Info("OpenGL initialized",
		zap.String("version", d.info.Version),
		zap.String("renderer", d.info.Renderer),
		zap.String("vendor", d.info.Vendor),
		zap.Int32("extensions", n),
		zap.Bool("fragment_shader_interlock", d.extensions[gpu.ExtFragmentShaderInterlock]),
	)

	gl.CreateVertexArrays(1, &d.emptyVAO)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	return d, nil
}

// Close releases device-owned objects.
func (d *Device) Close() {
	d.log.Info("closing device")
	for fb := range d.framebuffers {
		d.DeleteFramebuffer(fb)
	}
	if d.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &d.emptyVAO)
		d.emptyVAO = 0
	}
}

// Info implements gpu.Device.
func (d *Device) Info() gpu.Info { return d.info }

// HasExtension implements gpu.Device.
func (d *Device) HasExtension(name string) bool { return d.extensions[name] }

type glFormat struct {
	internal, format, xtype uint32
}

var formats = map[gpu.TextureFormat]glFormat{
	gpu.R32F:    {gl.R32F, gl.RED, gl.FLOAT},
	gpu.RG32F:   {gl.RG32F, gl.RG, gl.FLOAT},
	gpu.RGBA32F: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	gpu.RG16:    {gl.RG16, gl.RG, gl.UNSIGNED_SHORT},
	gpu.RGBA16:  {gl.RGBA16, gl.RGBA, gl.UNSIGNED_SHORT},
	gpu.RGBA8:   {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.RGBA16F: {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
}

func label(identifier, name uint32, text string) {
	if text == "" {
		return
	}
	gl.ObjectLabel(identifier, name, int32(len(text)), gl.Str(text+"\x00"))
}

// glError drains the error queue and reports the first error.
func glError(op string) error {
	var first uint32
	for {
		e := gl.GetError()
		if e == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = e
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: GL error 0x%x", op, first)
	}
	return nil
}

// NewTextureArray implements gpu.Device.
func (d *Device) NewTextureArray(desc gpu.TextureArrayDesc) (gpu.Texture, error) {
	f, ok := formats[desc.Format]
	if !ok {
		return 0, fmt.Errorf("texture %s: unsupported format %s", desc.Label, desc.Format)
	}
	_ = glError("")

	var tex uint32
	gl.CreateTextures(gl.TEXTURE_2D_ARRAY, 1, &tex)
	gl.TextureStorage3D(tex, 1, f.internal, int32(desc.Width), int32(desc.Height), int32(desc.Layers))
	gl.TextureParameteri(tex, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TextureParameteri(tex, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	label(gl.TEXTURE, tex, desc.Label)
	if err := glError("texture " + desc.Label); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}

	d.textures[gpu.Texture(tex)] = desc
	d.log.Debug("texture created",
		zap.String("label", desc.Label),
		zap.Stringer("format", desc.Format),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Int("layers", desc.Layers),
	)
	return gpu.Texture(tex), nil
}

// ClearTexture implements gpu.Device.
func (d *Device) ClearTexture(tex gpu.Texture) {
	desc := d.textures[tex]
	f := formats[desc.Format]
	gl.ClearTexImage(uint32(tex), 0, f.format, f.xtype, nil)
}

// ReadTexture implements gpu.Device.
func (d *Device) ReadTexture(tex gpu.Texture) ([]float32, error) {
	desc, ok := d.textures[tex]
	if !ok {
		return nil, fmt.Errorf("read texture %d: unknown texture", tex)
	}
	f := formats[desc.Format]
	out := make([]float32, desc.Width*desc.Height*desc.Layers*desc.Format.Channels())
	gl.GetTextureImage(uint32(tex), 0, f.format, gl.FLOAT, int32(len(out)*4), unsafe.Pointer(&out[0]))
	if err := glError("read texture " + desc.Label); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(tex gpu.Texture) {
	delete(d.textures, tex)
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}

// NewUniformBuffer implements gpu.Device.
func (d *Device) NewUniformBuffer(size int) (gpu.Buffer, error) {
	var buf uint32
	gl.CreateBuffers(1, &buf)
	gl.NamedBufferData(buf, size, nil, gl.DYNAMIC_DRAW)
	if err := glError("uniform buffer"); err != nil {
		gl.DeleteBuffers(1, &buf)
		return 0, err
	}
	return gpu.Buffer(buf), nil
}

// WriteUniformBuffer implements gpu.Device.
func (d *Device) WriteUniformBuffer(buf gpu.Buffer, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.NamedBufferSubData(uint32(buf), offset, len(data), gl.Ptr(data))
}

// DeleteBuffer implements gpu.Device.
func (d *Device) DeleteBuffer(buf gpu.Buffer) {
	b := uint32(buf)
	gl.DeleteBuffers(1, &b)
}

// BindUniformBuffer implements gpu.Device.
func (d *Device) BindUniformBuffer(binding uint32, buf gpu.Buffer) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, uint32(buf))
}

var access = map[gpu.Access]uint32{
	gpu.ReadOnly:  gl.READ_ONLY,
	gpu.WriteOnly: gl.WRITE_ONLY,
	gpu.ReadWrite: gl.READ_WRITE,
}

// BindImage implements gpu.Device.
func (d *Device) BindImage(unit uint32, tex gpu.Texture, format gpu.TextureFormat, a gpu.Access) {
	gl.BindImageTexture(unit, uint32(tex), 0, true, 0, access[a], formats[format].internal)
}

// BindTexture implements gpu.Device.
func (d *Device) BindTexture(unit uint32, tex gpu.Texture) {
	gl.BindTextureUnit(unit, uint32(tex))
}

// MemoryBarrier implements gpu.Device.
func (d *Device) MemoryBarrier(b gpu.Barrier) {
	var bits uint32
	if b&gpu.BarrierShaderImageAccess != 0 {
		bits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT
	}
	if b&gpu.BarrierTextureFetch != 0 {
		bits |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if b&gpu.BarrierShaderStorage != 0 {
		bits |= gl.SHADER_STORAGE_BARRIER_BIT
	}
	if b&gpu.BarrierFramebuffer != 0 {
		bits |= gl.FRAMEBUFFER_BARRIER_BIT
	}
	gl.MemoryBarrier(bits)
}

// DrawFullscreen implements gpu.Device.
func (d *Device) DrawFullscreen() {
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// ExtensionList returns the advertised extensions matching prefix.
func (d *Device) ExtensionList(prefix string) []string {
	var out []string
	for name := range d.extensions {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
