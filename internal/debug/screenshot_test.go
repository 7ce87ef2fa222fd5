package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeMoments struct {
	w, h int
	b0   []float32
}

func (f fakeMoments) Size() (int, int) { return f.w, f.h }

func (f fakeMoments) Pixel(x, y int) (float32, []float32) {
	return f.b0[y*f.w+x], nil
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
}

func TestCaptureFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "frame")
	sc.now = fixedClock

	pixels := make([]byte, 2*2*4)
	for i := range pixels {
		pixels[i] = 255
	}
	pixels[0] = 10 // red of the top-left pixel

	path, err := sc.CaptureFromPixels(pixels, 2, 2)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if want := filepath.Join(dir, "frame_2024-05-01_12-30-00.000.png"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	if r>>8 != 10 {
		t.Errorf("expected red 10 at top-left, got %d", r>>8)
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "frame")
	if _, err := sc.CaptureFromPixels(make([]byte, 3), 2, 2); err == nil {
		t.Error("expected error for short pixel data")
	}
}

func TestMomentImage(t *testing.T) {
	m := fakeMoments{w: 2, h: 2, b0: []float32{0, 100, -1, 0.5}}
	img := MomentImage(m)

	tests := []struct {
		x, y int
		want uint16
	}{
		{0, 1, 0xffff}, // b0 = 0, buffer row 0 is the bottom
		{1, 1, 0},      // opaque
		{0, 0, 0xffff}, // negative b0 clamps to empty
	}
	for _, tt := range tests {
		if got := img.Gray16At(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("(%d,%d): expected %d, got %d", tt.x, tt.y, tt.want, got)
		}
	}
	mid := img.Gray16At(1, 0).Y
	if mid < 0x9000 || mid > 0xa000 { // exp(-0.5) ~ 0.607
		t.Errorf("expected ~0.61 transmittance, got %d", mid)
	}
}

func TestCaptureMoments(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "oit")
	sc.now = fixedClock
	path, err := sc.CaptureMoments(fakeMoments{w: 1, h: 1, b0: []float32{1}})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if filepath.Base(path) != "oit_2024-05-01_12-30-00.000_b0.png" {
		t.Errorf("unexpected file name %s", path)
	}
}

func TestCaptureBMP(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "frame")
	sc.now = fixedClock
	sc.SetFormat(BMP)
	path, err := sc.CaptureFromPixels(make([]byte, 4*3*4), 4, 3)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if filepath.Ext(path) != ".bmp" {
		t.Errorf("expected .bmp, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 2 || string(data[:2]) != "BM" {
		t.Errorf("missing BMP signature")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"", PNG, false},
		{"png", PNG, false},
		{"bmp", BMP, false},
		{"jpeg", PNG, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.name, got, err)
		}
	}
}
