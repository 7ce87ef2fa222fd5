package scene

import (
	"path/filepath"
	"testing"

	"github.com/Faultbox/moment-oit/pkg/math"
	"github.com/Faultbox/moment-oit/pkg/mesh"
	"github.com/Faultbox/moment-oit/pkg/voxel"
)

func TestLinesFromGrid(t *testing.T) {
	p := func(x float32) math.Vec3 { return math.Vec3{X: x} }
	g := &voxel.Grid{Segments: []voxel.LineSegment{
		{V1: p(0), A1: 0, V2: p(1), A2: 1},
		{V1: p(1), A1: 1, V2: p(2), A2: 2},
		{V1: p(5), A1: 5, V2: p(6), A2: 6},
		{V1: p(6), A1: 6, V2: p(7), A2: 7},
		{V1: p(9), A1: 9, V2: p(8), A2: 8},
	}}

	lines := LinesFromGrid(g)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	wantLens := []int{3, 3, 2}
	for i, l := range lines {
		if len(l.Points) != wantLens[i] || len(l.Attributes) != wantLens[i] {
			t.Errorf("line %d: %d points, %d attributes, want %d", i, len(l.Points), len(l.Attributes), wantLens[i])
		}
	}
	if lines[1].Points[2] != p(7) || lines[1].Attributes[0] != 5 {
		t.Errorf("second line = %+v", lines[1])
	}
}

func TestHelices(t *testing.T) {
	lines := Helices(6, 50)
	if len(lines) != 6 {
		t.Fatalf("got %d lines", len(lines))
	}
	for i, l := range lines {
		if len(l.Points) != 50 {
			t.Fatalf("line %d has %d points", i, len(l.Points))
		}
		if l.Points[0].Y != -1 || l.Points[49].Y != 1 {
			t.Errorf("line %d spans y %v..%v", i, l.Points[0].Y, l.Points[49].Y)
		}
		if l.Attributes[0] != 0 || l.Attributes[49] != 1 {
			t.Errorf("line %d attributes %v..%v", i, l.Attributes[0], l.Attributes[49])
		}
	}
}

func TestTransferFunction(t *testing.T) {
	tf := TransferFunction{
		Low:          [4]float32{0, 0, 0, 0},
		High:         [4]float32{1, 1, 1, 1},
		MaxAttribute: 4,
	}
	tests := []struct {
		attr float32
		want float32
	}{
		{-1, 0}, {0, 0}, {2, 0.5}, {4, 1}, {10, 1},
	}
	for _, tt := range tests {
		if got := tf.Color(tt.attr); got != [4]float32{tt.want, tt.want, tt.want, tt.want} {
			t.Errorf("Color(%v) = %v, want all %v", tt.attr, got, tt.want)
		}
	}

	hair := TransferFunctionFor(&voxel.Grid{DataType: voxel.Hair, HairStrandColor: math.Vec4{0.5, 0.4, 0.3, 1}})
	if c := hair.Color(123); c != [4]float32{0.5, 0.4, 0.3, 0.3} {
		t.Errorf("hair color = %v", c)
	}
}

func TestTubesAndGround(t *testing.T) {
	lines := []mesh.Polyline{
		{Points: []math.Vec3{{X: -1}, {X: 1}}},
		{Points: []math.Vec3{{Y: 2}, {Y: 2}}}, // degenerate, skipped
		{Points: []math.Vec3{{Z: -1, Y: 1}, {Z: 1, Y: 1}}},
	}
	opts := TubeOptions{Radius: 0.1, Sides: 4}
	tubes, err := Tubes(lines, opts, DefaultTransferFunction(1))
	if err != nil {
		t.Fatal(err)
	}
	if got := tubes.VertexCount(); got != 16 {
		t.Errorf("got %d vertices, want 16", got)
	}
	if len(tubes.Indices) != 48 {
		t.Errorf("got %d indices, want 48", len(tubes.Indices))
	}

	data := NewData(tubes)
	ground := data.Opaque
	if ground.VertexCount() != 4 || len(ground.Indices) != 6 {
		t.Fatalf("ground has %d vertices, %d indices", ground.VertexCount(), len(ground.Indices))
	}
	for v := 0; v < 4; v++ {
		base := v * VertexStride
		if ground.Vertices[base+4] != 1 {
			t.Errorf("ground normal %d = %v, want +y", v, ground.Vertices[base+3:base+6])
		}
		if ground.Vertices[base+9] != 1 {
			t.Errorf("ground must be opaque, alpha %v", ground.Vertices[base+9])
		}
		if ground.Vertices[base+1] >= tubes.Bounds.Min.Y {
			t.Errorf("ground at y=%v not below the tubes", ground.Vertices[base+1])
		}
	}

	b := data.Bounds()
	if b.Min.Y >= tubes.Bounds.Min.Y || b.Max.Y != tubes.Bounds.Max.Y {
		t.Errorf("scene bounds %+v must include ground and tubes %+v", b, tubes.Bounds)
	}
}

func TestFromGrid(t *testing.T) {
	g := &voxel.Grid{
		// Grid space is world space scaled by 2 and shifted by +1 in x.
		WorldToVoxelGrid: math.Translate(1, 0, 0).Mul(math.Scale(2, 2, 2)),
		MaxVorticity:     1,
		Segments: []voxel.LineSegment{
			{V1: math.Vec3{X: 1}, A1: 0, V2: math.Vec3{X: 3}, A2: 1},
		},
	}
	data, err := FromGrid(g, TubeOptions{Radius: 0.05, Sides: 4})
	if err != nil {
		t.Fatal(err)
	}
	b := data.Transparent.Bounds
	if b.Min.X < -0.01 || b.Min.X > 0.01 || b.Max.X < 0.99 || b.Max.X > 1.01 {
		t.Errorf("tube spans x %v..%v, want 0..1 in world space", b.Min.X, b.Max.X)
	}
	if data.Opaque == nil {
		t.Error("expected ground plane")
	}

	if _, err := FromGrid(&voxel.Grid{}, DefaultTubeOptions()); err == nil {
		t.Error("expected error for grid without segments")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.voxel.zst")
	g := &voxel.Grid{
		DataType:        voxel.Hair,
		HairStrandColor: math.Vec4{1, 1, 1, 1},
		HairThickness:   0.2,
		Segments: []voxel.LineSegment{
			{V1: math.Vec3{}, V2: math.Vec3{Y: 1}},
		},
	}
	if err := voxel.SaveFile(path, g); err != nil {
		t.Fatal(err)
	}
	data, err := LoadFile(path, DefaultTubeOptions())
	if err != nil {
		t.Fatal(err)
	}
	// Hair tubes use half the strand thickness as radius.
	if w := data.Transparent.Bounds.Max.X - data.Transparent.Bounds.Min.X; w < 0.19 || w > 0.21 {
		t.Errorf("tube width %v, want 0.2", w)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.voxel"), DefaultTubeOptions()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDemo(t *testing.T) {
	data, err := Demo(TubeOptions{Radius: 0.01, Sides: 3})
	if err != nil {
		t.Fatal(err)
	}
	if data.Transparent.VertexCount() != 24*200*3 {
		t.Errorf("got %d vertices", data.Transparent.VertexCount())
	}
}
