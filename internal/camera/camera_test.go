package camera

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/math"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 2
	c.Pitch = 0
	c.Yaw = 0
	if p := c.Position(); !near(p.X, 0) || !near(p.Y, 0) || !near(p.Z, 2) {
		t.Errorf("yaw 0 position = %+v, want (0,0,2)", p)
	}

	c.Yaw = math32.Pi / 2
	if p := c.Position(); !near(p.X, 2) || !near(p.Z, 0) {
		t.Errorf("yaw 90 position = %+v, want (2,0,0)", p)
	}

	c.Center = math.Vec3{X: 1, Y: 1, Z: 1}
	c.Pitch = math32.Pi / 2
	if p := c.Position(); !near(p.Y, 3) {
		t.Errorf("pitch 90 position = %+v, want y=3", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.PitchLimit {
		t.Errorf("pitch %v, want max %v", c.Pitch, c.PitchLimit)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != -c.PitchLimit {
		t.Errorf("pitch %v, want min %v", c.Pitch, -c.PitchLimit)
	}
}

func TestHandleZoomClampsDistance(t *testing.T) {
	c := NewOrbitCamera()
	for i := 0; i < 200; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance %v, want min %v", c.Distance, c.MinDistance)
	}
	for i := 0; i < 500; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance %v, want max %v", c.Distance, c.MaxDistance)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	b := math.AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 3, Y: 1, Z: 1}}
	c.FitToBounds(b)
	if c.Center != (math.Vec3{X: 1}) {
		t.Errorf("center %+v", c.Center)
	}

	// The whole box lies between the near and far planes.
	n, f := c.DepthRange()
	if n <= 0 || n >= f {
		t.Fatalf("depth range %v..%v", n, f)
	}
	pos := c.Position()
	for _, corner := range b.Corners() {
		d := corner.Sub(pos).Length()
		if d < n-1e-3 || d > f+1e-3 {
			t.Errorf("corner %+v at distance %v outside %v..%v", corner, d, n, f)
		}
	}

	rc := c.RenderContext(800, 600, 7)
	if rc.Near != n || rc.Far != f || rc.Target != 7 || rc.CameraPosition != pos {
		t.Errorf("render context %+v", rc)
	}
}
