package moment

import "github.com/chewxy/math32"

// DepthRange maps positive view-space distances to the moment depth domain
// [-1, 1] logarithmically.
type DepthRange struct {
	LogMin float32
	LogMax float32
}

// NewDepthRange returns the range for distances in [near, far]. Both must be
// positive; near > far is swapped.
func NewDepthRange(near, far float32) DepthRange {
	if near > far {
		near, far = far, near
	}
	return DepthRange{LogMin: math32.Log(near), LogMax: math32.Log(far)}
}

// Warp maps a view distance to [-1, 1], clamping outside the range.
func (r DepthRange) Warp(distance float32) float32 {
	span := r.LogMax - r.LogMin
	if span <= 0 {
		return -1
	}
	t := (math32.Log(math32.Max(distance, 1e-6)) - r.LogMin) / span
	t = math32.Max(0, math32.Min(1, t))
	return 2*t - 1
}
