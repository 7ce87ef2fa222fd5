package ui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// View is the texture the rendered frame is shown through. The renderer
// draws into its own framebuffer; CopyFrom blits that into the view's
// 2D texture, which ImGui draws as the window background.
type View struct {
	fbo          uint32
	colorTexture uint32
	width        int32
	height       int32
}

// NewView creates a view of the given size.
func NewView(width, height int) *View {
	v := &View{}
	gl.CreateFramebuffers(1, &v.fbo)
	v.Resize(width, height)
	return v
}

// Resize reallocates the texture if the size changed.
func (v *View) Resize(width, height int) {
	w, h := int32(max(width, 1)), int32(max(height, 1))
	if v.colorTexture != 0 && w == v.width && h == v.height {
		return
	}
	if v.colorTexture != 0 {
		gl.DeleteTextures(1, &v.colorTexture)
	}
	v.width, v.height = w, h

	// Immutable storage cannot be resized, so the texture is recreated.
	gl.CreateTextures(gl.TEXTURE_2D, 1, &v.colorTexture)
	gl.TextureStorage2D(v.colorTexture, 1, gl.RGBA8, w, h)
	gl.TextureParameteri(v.colorTexture, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(v.colorTexture, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.NamedFramebufferTexture(v.fbo, gl.COLOR_ATTACHMENT0, v.colorTexture, 0)
}

// CopyFrom blits the color attachment of framebuffer src, which must have
// the view's size.
func (v *View) CopyFrom(src uint32) {
	gl.BlitNamedFramebuffer(src, v.fbo,
		0, 0, v.width, v.height,
		0, 0, v.width, v.height,
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
}

// Draw shows the view across the whole display behind all other windows.
func (v *View) Draw() {
	viewport := imgui.MainViewport()
	imgui.SetNextWindowPos(viewport.Pos())
	imgui.SetNextWindowSize(viewport.Size())
	flags := imgui.WindowFlagsNoDecoration | imgui.WindowFlagsNoMove |
		imgui.WindowFlagsNoBringToFrontOnFocus | imgui.WindowFlagsNoNav |
		imgui.WindowFlagsNoSavedSettings | imgui.WindowFlagsNoInputs
	imgui.PushStyleVarVec2(imgui.StyleVarWindowPadding, imgui.NewVec2(0, 0))
	if imgui.BeginV("##View", nil, flags) {
		texRef := imgui.NewTextureRefTextureID(imgui.TextureID(v.colorTexture))
		imgui.ImageWithBgV(
			*texRef,
			viewport.Size(),
			imgui.NewVec2(0, 1), // GL rows are bottom-up
			imgui.NewVec2(1, 0),
			imgui.NewVec4(0, 0, 0, 1),
			imgui.NewVec4(1, 1, 1, 1),
		)
	}
	imgui.End()
	imgui.PopStyleVar()
}

// Destroy releases the GL objects.
func (v *View) Destroy() {
	if v.fbo != 0 {
		gl.DeleteFramebuffers(1, &v.fbo)
		v.fbo = 0
	}
	if v.colorTexture != 0 {
		gl.DeleteTextures(1, &v.colorTexture)
		v.colorTexture = 0
	}
}
