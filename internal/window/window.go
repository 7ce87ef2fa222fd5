// Package window opens an SDL2 window with an OpenGL 4.6 core context for
// the commands that render without the imgui backend.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/logger"
)

// The GL context belongs to the thread that created it.
func init() {
	runtime.LockOSThread()
}

// Config describes the window to open.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// Hidden windows still own a working default framebuffer, which is
	// enough for offscreen rendering.
	Hidden bool
	// Debug requests a debug context.
	Debug bool
}

// Window is an SDL window together with its GL context.
type Window struct {
	win *sdl.Window
	ctx sdl.GLContext
	log *zap.Logger
}

type glAttr struct {
	attr  sdl.GLattr
	value int
}

func contextAttrs(cfg Config) []glAttr {
	attrs := []glAttr{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
		{sdl.GL_CONTEXT_MINOR_VERSION, 6},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
		{sdl.GL_DOUBLEBUFFER, 1},
		{sdl.GL_DEPTH_SIZE, 24},
		{sdl.GL_STENCIL_SIZE, 8},
	}
	if cfg.Debug {
		attrs = append(attrs, glAttr{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_DEBUG_FLAG})
	}
	return attrs
}

func windowFlags(cfg Config) uint32 {
	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if cfg.Hidden {
		flags |= sdl.WINDOW_HIDDEN
	}
	return flags
}

// New initializes SDL and opens the window. The context is current on
// the calling thread when New returns.
func New(cfg Config) (_ *Window, err error) {
	log := logger.Named("window")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("window: sdl init: %w", err)
	}
	w := &Window{log: log}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	for _, a := range contextAttrs(cfg) {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			return nil, fmt.Errorf("window: gl attribute %d: %w", a.attr, err)
		}
	}

	w.win, err = sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), windowFlags(cfg))
	if err != nil {
		return nil, fmt.Errorf("window: create: %w", err)
	}
	if w.ctx, err = w.win.GLCreateContext(); err != nil {
		return nil, fmt.Errorf("window: gl context: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		log.Warn("swap interval rejected", zap.Int("interval", interval), zap.Error(err))
	}

	width, height := w.Size()
	log.Info("window opened",
		zap.String("title", cfg.Title),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("hidden", cfg.Hidden))
	return w, nil
}

// Close releases the context and the window and shuts SDL down.
func (w *Window) Close() {
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
		w.ctx = nil
	}
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
}

func (w *Window) SwapBuffers() {
	w.win.GLSwap()
}

// Size is the drawable size in pixels, which differs from the requested
// size on high-DPI displays.
func (w *Window) Size() (width, height int) {
	x, y := w.win.GLGetDrawableSize()
	return int(x), int(y)
}
