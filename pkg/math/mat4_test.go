package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func nearVec(a, b Vec3) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I = %v, want %v", result, m)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"identity", Identity(), Vec3{-4, 5, 6}, Vec3{-4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); !nearVec(got, tt.want) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	got := Translate(5, 5, 5).TransformDirection(Vec3{0, 1, 0})
	if got != (Vec3{0, 1, 0}) {
		t.Errorf("TransformDirection = %v, want (0,1,0)", got)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math32.Pi/4, 1, 0.1, 100)
	if m[15] != 0 {
		t.Errorf("Perspective [15] = %f, want 0", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] = %f, want -1", m[11])
	}
}

func TestLookAtMapsCenterToNegativeZ(t *testing.T) {
	m := LookAt(Vec3{0, 0, 5}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	got := m.TransformPoint(Vec3{0, 0, 0})
	if !nearVec(got, Vec3{0, 0, -5}) {
		t.Errorf("center in view space = %v, want (0,0,-5)", got)
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, 2, 3).Mul(Scale(2, 4, 8))
	p := Vec3{3, -1, 7}
	got := m.Inverse().TransformPoint(m.TransformPoint(p))
	if !nearVec(got, p) {
		t.Errorf("inverse round trip = %v, want %v", got, p)
	}
}

func TestOrthoMapsDepthRange(t *testing.T) {
	m := Ortho(-1, 1, -1, 1, 1, 10)
	if got := m.TransformPoint(Vec3{0, 0, -1}); !near(got.Z, -1) {
		t.Errorf("near plane z = %f, want -1", got.Z)
	}
	if got := m.TransformPoint(Vec3{0, 0, -10}); !near(got.Z, 1) {
		t.Errorf("far plane z = %f, want 1", got.Z)
	}
}

func TestInverseGeneral(t *testing.T) {
	m := Perspective(1, 1.5, 0.5, 50).Mul(LookAt(Vec3{3, 4, 5}, Vec3{0, 1, 0}, Vec3{0, 1, 0}))
	got := m.Mul(m.Inverse())
	want := Identity()
	for i := range got {
		if !near(got[i], want[i]) {
			t.Fatalf("m * m^-1 = %v, want identity", got)
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(1, 0, 1).Inverse(); got != Identity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}
