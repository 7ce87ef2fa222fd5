package mesh

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/math"
)

func near(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func TestComputeNormalsSingleTriangle(t *testing.T) {
	vertices := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	normals, curvature, err := ComputeNormals(vertices, []uint32{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range normals {
		if n != (math.Vec3{Z: 1}) {
			t.Errorf("normal %d = %+v, want +Z", i, n)
		}
		if curvature[i] != 0 {
			t.Errorf("curvature %d = %v, want 0 on a plane", i, curvature[i])
		}
	}
}

func TestComputeNormalsAreaWeighted(t *testing.T) {
	// Vertex 0 is shared by a large triangle facing +Z and a small one facing +X.
	vertices := []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0}, {X: 0, Y: 10, Z: 0},
		{X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
	}
	indices := []uint32{0, 1, 2, 0, 3, 4}
	normals, _, err := ComputeNormals(vertices, indices)
	if err != nil {
		t.Fatal(err)
	}
	n := normals[0]
	if !(n.Z > 0.95 && n.X > 0 && n.X < 0.05) {
		t.Errorf("shared normal %+v should lean to the larger face", n)
	}
	if !near(n.Length(), 1, 1e-5) {
		t.Errorf("normal not unit length: %v", n.Length())
	}
}

func TestComputeNormalsErrors(t *testing.T) {
	tri := []math.Vec3{{}, {X: 1}, {Y: 1}}
	tests := []struct {
		name     string
		vertices []math.Vec3
		indices  []uint32
		want     error
	}{
		{"unreferenced vertex", append(tri, math.Vec3{Z: 5}), []uint32{0, 1, 2}, ErrUnreferencedVertex},
		{"index out of range", tri, []uint32{0, 1, 3}, ErrIndexOutOfRange},
		{"partial triangle", tri, []uint32{0, 1}, ErrNotTriangles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normals, curvature, err := ComputeNormals(tt.vertices, tt.indices)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if normals != nil || curvature != nil {
				t.Error("no output expected on error")
			}
		})
	}
}

func TestTubeStraight(t *testing.T) {
	line := Polyline{
		Points:     []math.Vec3{{Z: 0}, {Z: 1}, {Z: 2}, {Z: 3}},
		Attributes: []float32{0, 0.25, 0.5, 1},
	}
	const sides = 8
	m, err := Tube(line, 0.5, sides)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 4*sides || len(m.Normals) != len(m.Vertices) || len(m.Attributes) != len(m.Vertices) {
		t.Fatalf("got %d vertices, %d normals, %d attributes", len(m.Vertices), len(m.Normals), len(m.Attributes))
	}
	if len(m.Indices) != 3*sides*6 {
		t.Fatalf("got %d indices, want %d", len(m.Indices), 3*sides*6)
	}
	for i, v := range m.Vertices {
		radial := math.Vec3{X: v.X, Y: v.Y}
		if !near(radial.Length(), 0.5, 1e-4) {
			t.Fatalf("vertex %d at radius %v", i, radial.Length())
		}
		// Normals point outward.
		if d := m.Normals[i].Dot(radial.Normalize()); d < 0.9 {
			t.Errorf("normal %d = %+v not radial (dot %v)", i, m.Normals[i], d)
		}
	}
	if m.Attributes[sides] != 0.25 || m.Attributes[len(m.Attributes)-1] != 1 {
		t.Error("attributes not carried per ring")
	}

	b := m.Bounds()
	if !near(b.Min.Z, 0, 1e-6) || !near(b.Max.Z, 3, 1e-6) || !near(b.Max.X, 0.5, 1e-4) {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestTubeBentKeepsRadius(t *testing.T) {
	var points []math.Vec3
	for i := 0; i < 32; i++ {
		a := float32(i) * 0.2
		points = append(points, math.Vec3{X: math32.Cos(a), Y: math32.Sin(a), Z: float32(i) * 0.05})
	}
	m, err := Tube(Polyline{Points: points}, 0.1, 6)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range m.Vertices {
		center := points[i/6]
		if !near(v.Sub(center).Length(), 0.1, 1e-4) {
			t.Fatalf("vertex %d off radius: %v", i, v.Sub(center).Length())
		}
	}
}

func TestTubeErrors(t *testing.T) {
	if _, err := Tube(Polyline{Points: []math.Vec3{{}, {}}}, 1, 6); !errors.Is(err, ErrDegeneratePolyline) {
		t.Errorf("expected ErrDegeneratePolyline, got %v", err)
	}
	if _, err := Tube(Polyline{Points: []math.Vec3{{}, {X: 1}}}, 1, 2); err == nil {
		t.Error("expected error for 2 sides")
	}
	if _, err := Tube(Polyline{Points: []math.Vec3{{}, {X: 1}}, Attributes: []float32{1}}, 1, 4); err == nil {
		t.Error("expected error for attribute count mismatch")
	}
}

func TestAppend(t *testing.T) {
	a, err := Tube(Polyline{Points: []math.Vec3{{}, {X: 1}}}, 0.1, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Tube(Polyline{Points: []math.Vec3{{Y: 1}, {X: 1, Y: 1}}}, 0.1, 4)
	if err != nil {
		t.Fatal(err)
	}
	var m Mesh
	m.Append(a)
	m.Append(b)
	if len(m.Vertices) != 16 || len(m.Indices) != 48 {
		t.Fatalf("got %d vertices, %d indices", len(m.Vertices), len(m.Indices))
	}
	if m.Indices[24] != a.Indices[0]+8 {
		t.Errorf("second mesh indices not offset: %d", m.Indices[24])
	}
}
