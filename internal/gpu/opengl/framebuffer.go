package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
)

// framebuffer is an offscreen render target with a single-layer color array
// and an optional depth-stencil renderbuffer.
type framebuffer struct {
	fbo          uint32
	colorTexture gpu.Texture
	depthRBO     uint32
	ownsDepth    bool
}

// NewFramebuffer implements gpu.Device.
func (d *Device) NewFramebuffer(desc gpu.FramebufferDesc) (gpu.Framebuffer, error) {
	if desc.Width < 1 {
		desc.Width = 1
	}
	if desc.Height < 1 {
		desc.Height = 1
	}

	color, err := d.NewTextureArray(gpu.TextureArrayDesc{
		Label:  desc.Label + ".color",
		Width:  desc.Width,
		Height: desc.Height,
		Layers: 1,
		Format: desc.Color,
	})
	if err != nil {
		return 0, fmt.Errorf("creating framebuffer %s: %w", desc.Label, err)
	}
	gl.TextureParameteri(uint32(color), gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(uint32(color), gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	fb := &framebuffer{colorTexture: color}
	gl.CreateFramebuffers(1, &fb.fbo)
	label(gl.FRAMEBUFFER, fb.fbo, desc.Label)
	gl.NamedFramebufferTextureLayer(fb.fbo, gl.COLOR_ATTACHMENT0, uint32(color), 0, 0)

	switch {
	case desc.ShareDepthStencil != 0:
		shared, ok := d.framebuffers[desc.ShareDepthStencil]
		if !ok || shared.depthRBO == 0 {
			d.destroy(fb)
			return 0, fmt.Errorf("framebuffer %s: no depth-stencil to share on %d", desc.Label, desc.ShareDepthStencil)
		}
		fb.depthRBO = shared.depthRBO
	case desc.DepthStencil:
		gl.CreateRenderbuffers(1, &fb.depthRBO)
		gl.NamedRenderbufferStorage(fb.depthRBO, gl.DEPTH24_STENCIL8, int32(desc.Width), int32(desc.Height))
		fb.ownsDepth = true
	}
	if fb.depthRBO != 0 {
		gl.NamedFramebufferRenderbuffer(fb.fbo, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	}

	status := gl.CheckNamedFramebufferStatus(fb.fbo, gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.destroy(fb)
		return 0, fmt.Errorf("framebuffer %s incomplete: 0x%x", desc.Label, status)
	}

	d.framebuffers[gpu.Framebuffer(fb.fbo)] = fb
	d.log.Debug("framebuffer created",
		zap.String("label", desc.Label),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Bool("shared_depth", desc.ShareDepthStencil != 0),
	)
	return gpu.Framebuffer(fb.fbo), nil
}

// FramebufferTexture implements gpu.Device.
func (d *Device) FramebufferTexture(fb gpu.Framebuffer) gpu.Texture {
	if f, ok := d.framebuffers[fb]; ok {
		return f.colorTexture
	}
	return 0
}

// DeleteFramebuffer implements gpu.Device.
func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	f, ok := d.framebuffers[fb]
	if !ok {
		return
	}
	delete(d.framebuffers, fb)
	d.destroy(f)
}

func (d *Device) destroy(f *framebuffer) {
	if f.fbo != 0 {
		gl.DeleteFramebuffers(1, &f.fbo)
		f.fbo = 0
	}
	if f.colorTexture != 0 {
		d.DeleteTexture(f.colorTexture)
		f.colorTexture = 0
	}
	if f.ownsDepth && f.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &f.depthRBO)
	}
	f.depthRBO = 0
}

// ClearColor implements gpu.Device.
func (d *Device) ClearColor(c [4]float32) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// ClearStencil implements gpu.Device.
func (d *Device) ClearStencil() {
	gl.ClearStencil(0)
	gl.Clear(gl.STENCIL_BUFFER_BIT)
}

// ClearDepth implements gpu.Device.
func (d *Device) ClearDepth() {
	gl.ClearDepth(1)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
}

// ReadPixels reads the RGBA8 color attachment of fb, flipped so row 0 is
// the top of the image.
func (d *Device) ReadPixels(fb gpu.Framebuffer, width, height int) []byte {
	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(fb))
	defer gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))

	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	row := width * 4
	tmp := make([]byte, row)
	for y := 0; y < height/2; y++ {
		top := pixels[y*row : (y+1)*row]
		bottom := pixels[(height-1-y)*row : (height-y)*row]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
	return pixels
}

// Finish blocks until all submitted GL commands have completed.
func (d *Device) Finish() {
	gl.Finish()
}
