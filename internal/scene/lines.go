package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/math"
	"github.com/Faultbox/moment-oit/pkg/mesh"
	"github.com/Faultbox/moment-oit/pkg/voxel"
)

// LinesFromGrid joins the grid's line segments into polylines. A segment
// continues the current line when it starts where the previous one ended.
// Segment attributes become per-point attributes.
func LinesFromGrid(g *voxel.Grid) []mesh.Polyline {
	var lines []mesh.Polyline
	var cur *mesh.Polyline
	for _, seg := range g.Segments {
		if cur != nil && cur.Points[len(cur.Points)-1] == seg.V1 {
			cur.Points = append(cur.Points, seg.V2)
			cur.Attributes = append(cur.Attributes, seg.A2)
			continue
		}
		lines = append(lines, mesh.Polyline{
			Points:     []math.Vec3{seg.V1, seg.V2},
			Attributes: []float32{seg.A1, seg.A2},
		})
		cur = &lines[len(lines)-1]
	}
	return lines
}

// Helices returns n interleaved helices around the y axis, a stand-in
// dataset when no grid is loaded. Attributes run from 0 to 1 along each line.
func Helices(n, pointsPerLine int) []mesh.Polyline {
	lines := make([]mesh.Polyline, 0, n)
	const turns = 3
	for i := 0; i < n; i++ {
		phase := 2 * math32.Pi * float32(i) / float32(n)
		radius := 0.6 + 0.4*float32(i%3)
		line := mesh.Polyline{
			Points:     make([]math.Vec3, pointsPerLine),
			Attributes: make([]float32, pointsPerLine),
		}
		for j := range pointsPerLine {
			t := float32(j) / float32(pointsPerLine-1)
			a := phase + t*turns*2*math32.Pi
			line.Points[j] = math.Vec3{
				X: radius * math32.Cos(a),
				Y: 2*t - 1,
				Z: radius * math32.Sin(a),
			}
			line.Attributes[j] = t
		}
		lines = append(lines, line)
	}
	return lines
}

// TransferFunction maps a normalized attribute to color and opacity by
// linear interpolation between two endpoints.
type TransferFunction struct {
	Low, High    [4]float32
	MaxAttribute float32
}

// DefaultTransferFunction fades from a faint blue to a denser orange.
func DefaultTransferFunction(maxAttribute float32) TransferFunction {
	return TransferFunction{
		Low:          [4]float32{0.2, 0.45, 0.9, 0.08},
		High:         [4]float32{1.0, 0.55, 0.15, 0.6},
		MaxAttribute: maxAttribute,
	}
}

// Color returns the RGBA for attr.
func (tf TransferFunction) Color(attr float32) [4]float32 {
	t := attr
	if tf.MaxAttribute > 0 {
		t = attr / tf.MaxAttribute
	}
	t = math32.Max(0, math32.Min(1, t))
	var c [4]float32
	for i := range c {
		c[i] = tf.Low[i] + (tf.High[i]-tf.Low[i])*t
	}
	return c
}

// HairTransferFunction uses a constant strand color with fixed opacity.
func HairTransferFunction(color math.Vec4, opacity float32) TransferFunction {
	c := [4]float32{color[0], color[1], color[2], opacity}
	return TransferFunction{Low: c, High: c, MaxAttribute: 1}
}

// TransferFunctionFor picks the mapping matching the grid's data type.
func TransferFunctionFor(g *voxel.Grid) TransferFunction {
	if g.DataType == voxel.Hair {
		return HairTransferFunction(g.HairStrandColor, 0.3)
	}
	return DefaultTransferFunction(g.MaxVorticity)
}
