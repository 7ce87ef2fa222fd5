// Package camera provides the orbit camera of the viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/pkg/math"
)

// OrbitCamera circles Center at Distance. Yaw 0 and pitch 0 put the eye
// on the +Z side of the center.
type OrbitCamera struct {
	Center   math.Vec3
	Distance float32
	Pitch    float32 // radians, positive looks down from above
	Yaw      float32 // radians around +Y

	MinDistance float32
	MaxDistance float32
	// PitchLimit bounds |Pitch| short of the poles, where LookAt degenerates.
	PitchLimit float32

	RadiansPerPixel float32
	// ZoomStep is the fraction of Distance one wheel notch moves.
	ZoomStep float32

	FovY float32 // radians

	radius float32
}

func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        4,
		Pitch:           0.4,
		MinDistance:     0.05,
		MaxDistance:     500,
		PitchLimit:      1.5,
		RadiansPerPixel: 0.005,
		ZoomStep:        0.1,
		FovY:            math32.Pi / 4,
		radius:          1,
	}
}

// Position is the eye in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := math32.Sincos(c.Pitch)
	sy, cy := math32.Sincos(c.Yaw)
	offset := math.Vec3{X: cp * sy, Y: sp, Z: cp * cy}
	return c.Center.Add(offset.Scale(c.Distance))
}

func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// DepthRange returns view distances enclosing the fitted bounds, as tight as
// possible so the logarithmic moment depth keeps its resolution.
func (c *OrbitCamera) DepthRange() (near, far float32) {
	near = math32.Max(c.Distance-c.radius, c.Distance*0.01)
	far = c.Distance + c.radius
	return near, far
}

// ProjectionMatrix returns the perspective projection for aspect.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near, far := c.DepthRange()
	return math.Perspective(c.FovY, aspect, near, far)
}

// HandleDrag turns the camera by a mouse movement in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.RadiansPerPixel
	c.Pitch = clamp(c.Pitch+dy*c.RadiansPerPixel, -c.PitchLimit, c.PitchLimit)
}

// HandleZoom moves the eye by wheel notches; positive moves closer.
func (c *OrbitCamera) HandleZoom(notches float32) {
	c.Distance = clamp(c.Distance*(1-notches*c.ZoomStep), c.MinDistance, c.MaxDistance)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// FitToBounds centers the camera on b at a distance that keeps it in view.
func (c *OrbitCamera) FitToBounds(b math.AABB) {
	if b.IsEmpty() {
		return
	}
	c.Center = b.Center()
	c.radius = math32.Max(b.Radius(), 1e-3)
	c.Distance = c.radius / math32.Sin(c.FovY/2)
	c.MinDistance = c.radius * 0.05
	c.MaxDistance = c.radius * 50
}

// RenderContext returns the camera part of a pass context for a viewport of
// width x height drawing into target.
func (c *OrbitCamera) RenderContext(width, height int, target gpu.Framebuffer) shader.RenderContext {
	aspect := float32(width) / float32(max(height, 1))
	near, far := c.DepthRange()
	return shader.RenderContext{
		View:           c.ViewMatrix(),
		Projection:     c.ProjectionMatrix(aspect),
		CameraPosition: c.Position(),
		Near:           near,
		Far:            far,
		Target:         target,
	}
}
