package shader

import (
	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/pkg/math"
)

// RenderContext is handed to scene draw callbacks. The pass has already
// bound Program and uploaded the camera uniforms; the callback sets its own
// per-object uniforms (modelMatrix, lightDirection) and issues draws.
type RenderContext struct {
	Pass Pass
	// PreRender is set while drawing into a light-space moment map.
	PreRender bool
	Program   gpu.Program

	View           math.Mat4
	Projection     math.Mat4
	CameraPosition math.Vec3
	// Near and Far bound the view distances of transparent geometry and
	// define the logarithmic depth range of the moments.
	Near, Far float32

	// Target is the framebuffer holding the opaque image and its
	// depth-stencil buffer.
	Target gpu.Framebuffer
}

// DrawFunc draws scene geometry for one pass.
type DrawFunc func(rc RenderContext) error

// SetCamera uploads the view uniforms shared by every material.
func SetCamera(dev gpu.Device, rc RenderContext) {
	dev.SetMat4(rc.Program, "viewMatrix", rc.View)
	dev.SetMat4(rc.Program, "projectionMatrix", rc.Projection)
	dev.SetVec3(rc.Program, "cameraPosition", rc.CameraPosition)
}
