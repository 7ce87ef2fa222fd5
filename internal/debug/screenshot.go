// Package debug writes screenshots and moment buffer visualizations.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/chewxy/math32"
	"golang.org/x/image/bmp"
)

// Format is the image file format screenshots are written in.
type Format int

const (
	PNG Format = iota
	BMP
)

// ParseFormat accepts "png" and "bmp".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "png", "":
		return PNG, nil
	case "bmp":
		return BMP, nil
	default:
		return PNG, fmt.Errorf("unknown image format %q", name)
	}
}

func (f Format) ext() string {
	if f == BMP {
		return ".bmp"
	}
	return ".png"
}

// ScreenshotCapture writes image files named <prefix>_<timestamp>[_suffix].
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// SetFormat selects the file format of later captures.
func (sc *ScreenshotCapture) SetFormat(f Format) {
	sc.format = f
}

// CaptureFromPixels saves top-down RGBA pixels, as returned by
// opengl.Device.ReadPixels.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := &image.RGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return sc.save(img, "")
}

// Moments is a CPU copy of a moment buffer.
type Moments interface {
	Size() (width, height int)
	Pixel(x, y int) (b0 float32, slots []float32)
}

// MomentImage maps the zeroth moment of every pixel to the transmittance
// exp(-b0). Row 0 of the buffer is the bottom of the image.
func MomentImage(m Moments) *image.Gray16 {
	w, h := m.Size()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b0, _ := m.Pixel(x, y)
			t := math32.Exp(-math32.Max(0, b0))
			img.SetGray16(x, h-1-y, color.Gray16{Y: uint16(t*0xffff + 0.5)})
		}
	}
	return img
}

// CaptureMoments saves MomentImage(m) with a "_b0" suffix.
func (sc *ScreenshotCapture) CaptureMoments(m Moments) (string, error) {
	return sc.save(MomentImage(m), "_b0")
}

func (sc *ScreenshotCapture) save(img image.Image, suffix string) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.filename(suffix)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if sc.format == BMP {
		err = bmp.Encode(file, img)
	} else {
		err = png.Encode(file, img)
	}
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", filename, err)
	}
	return filename, nil
}

func (sc *ScreenshotCapture) filename(suffix string) string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	filename := sc.prefix + "_" + timestamp + suffix + sc.format.ext()
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}
