package shadow

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/math"
)

// Light-space view distances are clamped into this range before the
// logarithmic depth range is derived from them.
const (
	LightNearClipDistance float32 = 0.1
	LightFarClipDistance  float32 = 200
)

// DirectionalLightMatrices computes the view and orthographic projection of
// a directional light covering sceneBounds. lightDir points towards the
// light.
func DirectionalLightMatrices(lightDir math.Vec3, sceneBounds math.AABB) (view, proj math.Mat4) {
	center := sceneBounds.Center()
	radius := math32.Max(sceneBounds.Radius(), 1e-3)
	dir := lightDir.Normalize()

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2.0
	lightPos := center.Add(dir.Scale(lightDistance))

	// If light is nearly vertical, use a different up vector
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	if math32.Abs(dir.Y) > 0.99 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}
	view = math.LookAt(lightPos, center, up)

	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding
	proj = math.Ortho(-halfSize, halfSize, -halfSize, halfSize, LightNearClipDistance, far)
	return view, proj
}

// ClipRange transforms bb into light space and returns the view distances it
// spans, clamped into [LightNearClipDistance, LightFarClipDistance]. The
// result always satisfies near <= far, also for boxes behind or straddling
// the light.
func ClipRange(lightView math.Mat4, bb math.AABB) (near, far float32) {
	if bb.IsEmpty() {
		return LightNearClipDistance, LightFarClipDistance
	}
	ls := bb.Transformed(lightView)
	// The light looks down -Z: the largest z is the closest point.
	near = clampClip(-ls.Max.Z)
	far = clampClip(-ls.Min.Z)
	if near > far {
		near, far = far, near
	}
	return near, far
}

func clampClip(d float32) float32 {
	if math32.IsNaN(d) {
		return LightNearClipDistance
	}
	return math32.Max(LightNearClipDistance, math32.Min(LightFarClipDistance, d))
}

// ClampResolution limits r to [MinResolution, MaxResolution] and rounds it to
// the nearest power of two.
func ClampResolution(r int) int {
	r = max(MinResolution, min(MaxResolution, r))
	lo := MinResolution
	for lo*2 <= r {
		lo *= 2
	}
	if lo == r || lo == MaxResolution {
		return lo
	}
	if r-lo < lo*2-r {
		return lo
	}
	return lo * 2
}
