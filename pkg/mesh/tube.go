package mesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/math"
)

// ErrDegeneratePolyline is returned for lines with fewer than two distinct points.
var ErrDegeneratePolyline = errors.New("mesh: polyline needs at least two distinct points")

// MinTubeSides is the smallest accepted tube cross-section.
const MinTubeSides = 3

// Polyline is one trajectory with an optional per-point attribute.
type Polyline struct {
	Points     []math.Vec3
	Attributes []float32
}

// Mesh is an indexed triangle mesh with smooth normals.
type Mesh struct {
	Vertices   []math.Vec3
	Normals    []math.Vec3
	Attributes []float32
	Indices    []uint32
}

// Bounds returns the bounding box of the vertices.
func (m *Mesh) Bounds() math.AABB {
	b := math.EmptyAABB()
	for _, v := range m.Vertices {
		b = b.Extend(v)
	}
	return b
}

// Append adds other to m, offsetting its indices.
func (m *Mesh) Append(other *Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = append(m.Normals, other.Normals...)
	m.Attributes = append(m.Attributes, other.Attributes...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// Tube sweeps a circle of the given radius along line. Ring frames are
// parallel transported so the tube does not twist, and normals come from
// ComputeNormals. Consecutive duplicate points are skipped.
func Tube(line Polyline, radius float32, sides int) (*Mesh, error) {
	if sides < MinTubeSides {
		return nil, fmt.Errorf("mesh: tube needs at least %d sides, got %d", MinTubeSides, sides)
	}
	if len(line.Attributes) != 0 && len(line.Attributes) != len(line.Points) {
		return nil, fmt.Errorf("mesh: %d attributes for %d points", len(line.Attributes), len(line.Points))
	}

	points, attrs := dedupe(line)
	if len(points) < 2 {
		return nil, ErrDegeneratePolyline
	}

	m := &Mesh{
		Vertices:   make([]math.Vec3, 0, len(points)*sides),
		Attributes: make([]float32, 0, len(points)*sides),
		Indices:    make([]uint32, 0, (len(points)-1)*sides*6),
	}

	var normal math.Vec3
	for i, p := range points {
		t := tangent(points, i)
		if i == 0 {
			normal = perpendicular(t)
		} else {
			normal = transport(normal, t)
		}
		binormal := t.Cross(normal)
		for j := 0; j < sides; j++ {
			theta := 2 * math32.Pi * float32(j) / float32(sides)
			dir := normal.Scale(math32.Cos(theta)).Add(binormal.Scale(math32.Sin(theta)))
			m.Vertices = append(m.Vertices, p.Add(dir.Scale(radius)))
			m.Attributes = append(m.Attributes, attrs[i])
		}
	}

	s := uint32(sides)
	for i := uint32(0); i+1 < uint32(len(points)); i++ {
		for j := uint32(0); j < s; j++ {
			a := i*s + j
			b := i*s + (j+1)%s
			c := a + s
			d := b + s
			m.Indices = append(m.Indices, a, b, c, b, d, c)
		}
	}

	normals, _, err := ComputeNormals(m.Vertices, m.Indices)
	if err != nil {
		return nil, err
	}
	m.Normals = normals
	return m, nil
}

func dedupe(line Polyline) ([]math.Vec3, []float32) {
	points := make([]math.Vec3, 0, len(line.Points))
	attrs := make([]float32, 0, len(line.Points))
	for i, p := range line.Points {
		if len(points) > 0 && p.Sub(points[len(points)-1]).Length() < 1e-6 {
			continue
		}
		points = append(points, p)
		if len(line.Attributes) > 0 {
			attrs = append(attrs, line.Attributes[i])
		} else {
			attrs = append(attrs, 0)
		}
	}
	return points, attrs
}

func tangent(points []math.Vec3, i int) math.Vec3 {
	prev := points[max(i-1, 0)]
	next := points[min(i+1, len(points)-1)]
	t := next.Sub(prev).Normalize()
	if t == (math.Vec3{}) {
		// Sharp reversal; fall back to the incoming segment.
		t = points[i].Sub(prev).Normalize()
	}
	return t
}

// perpendicular returns a unit vector orthogonal to t.
func perpendicular(t math.Vec3) math.Vec3 {
	axis := math.Vec3{X: 1}
	if math32.Abs(t.X) > 0.9 {
		axis = math.Vec3{Y: 1}
	}
	return axis.Sub(t.Scale(axis.Dot(t))).Normalize()
}

// transport projects the previous ring normal onto the plane of t.
func transport(normal, t math.Vec3) math.Vec3 {
	n := normal.Sub(t.Scale(normal.Dot(t)))
	if n.Length() < 1e-4 {
		return perpendicular(t)
	}
	return n.Normalize()
}
