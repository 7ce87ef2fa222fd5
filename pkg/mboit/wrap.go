package mboit

import "math"

// circleParameter maps a point on the unit circle to a value in [-1, 7)
// that increases monotonically with its angle in [0, 2*pi). It avoids
// trigonometric inverses.
func circleParameter(x, y float64) float64 {
	r := math.Abs(y) - math.Abs(x)
	if x < 0 {
		r = 2 - r
	}
	if y < 0 {
		r = 6 - r
	}
	return r
}

// CircleToParameter maps an angle to the circle parameter. Angles of a full
// turn or more are shifted past the end of the range.
func CircleToParameter(angle float64) float64 {
	s, c := math.Sincos(angle)
	r := circleParameter(c, s)
	if angle >= 2*math.Pi {
		r += 8
	}
	return r
}

// WrappingZone returns the parameters of the zone of the circle past the
// far plane: (angle, pi - angle/2, slope, offset). slope and offset ramp the
// circle parameter from 0 where the zone begins to 1 where it ends.
func WrappingZone(angle float64) [4]float64 {
	p := [4]float64{angle, math.Pi - 0.5*angle, 0, 0}
	if angle <= 0 {
		return p
	}
	const zoneEnd = 7.0
	zoneBegin := CircleToParameter(2*math.Pi - angle)
	p[2] = 1 / (zoneEnd - zoneBegin)
	p[3] = 1 - zoneEnd*p[2]
	return p
}
