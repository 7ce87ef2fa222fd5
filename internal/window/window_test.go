package window

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestContextAttrs(t *testing.T) {
	attrs := contextAttrs(Config{})
	want := map[sdl.GLattr]int{
		sdl.GL_CONTEXT_MAJOR_VERSION: 4,
		sdl.GL_CONTEXT_MINOR_VERSION: 6,
		sdl.GL_STENCIL_SIZE:          8,
	}
	for _, a := range attrs {
		if v, ok := want[a.attr]; ok && v != a.value {
			t.Errorf("attribute %d = %d, want %d", a.attr, a.value, v)
		}
		if a.attr == sdl.GL_CONTEXT_FLAGS {
			t.Error("debug flag set without Debug")
		}
	}

	debug := contextAttrs(Config{Debug: true})
	if last := debug[len(debug)-1]; last.attr != sdl.GL_CONTEXT_FLAGS {
		t.Errorf("Debug did not request a debug context")
	}
}

func TestWindowFlags(t *testing.T) {
	tests := []struct {
		cfg  Config
		set  uint32
		hide bool
	}{
		{Config{}, sdl.WINDOW_OPENGL, false},
		{Config{Hidden: true}, sdl.WINDOW_HIDDEN, true},
		{Config{Fullscreen: true}, sdl.WINDOW_FULLSCREEN_DESKTOP, false},
	}
	for _, tt := range tests {
		f := windowFlags(tt.cfg)
		if f&tt.set != tt.set {
			t.Errorf("%+v: flags %#x missing %#x", tt.cfg, f, tt.set)
		}
		if (f&sdl.WINDOW_HIDDEN != 0) != tt.hide {
			t.Errorf("%+v: hidden = %v", tt.cfg, !tt.hide)
		}
	}
}
