// Package ui provides the ImGui window, the settings panel and the file
// dialogs of the viewer.
package ui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Backend wraps the ImGui SDL backend. The backend owns the window and the
// GL context; everything else draws inside the Run callback.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
}

// NewBackend creates the window, the ImGui context and loads OpenGL.
func NewBackend(title string, width, height int, bg [4]float32) (*Backend, error) {
	b := &Backend{}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetAfterCreateContextHook(func() {
		io := imgui.CurrentIO()
		io.SetIniFilename("")
	})

	b.backend.SetBgColor(imgui.NewVec4(bg[0], bg[1], bg[2], bg[3]))
	b.backend.CreateWindow(title, width, height)

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init opengl: %w", err)
	}

	return b, nil
}

// Run starts the main loop. renderFunc is called once per frame before the
// ImGui draw data is rendered.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// Close asks the backend to leave Run after the current frame.
func (b *Backend) Close() {
	b.backend.SetShouldClose(true)
}

// FramebufferSize returns the drawable size in pixels. ImGui reports the
// display size in logical units and the scale separately.
func FramebufferSize() (int, int) {
	io := imgui.CurrentIO()
	size := io.DisplaySize()
	scale := io.DisplayFramebufferScale()
	return int(size.X * scale.X), int(size.Y * scale.Y)
}

// Viewport returns the main viewport work area.
func Viewport() (posX, posY, width, height float32) {
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()
	return workPos.X, workPos.Y, workSize.X, workSize.Y
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}

// WantsMouse reports whether ImGui is using the mouse this frame, so the
// camera should ignore it.
func WantsMouse() bool {
	return imgui.CurrentIO().WantCaptureMouse()
}
