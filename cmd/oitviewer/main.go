// oitviewer renders a line dataset with moment-based order-independent
// transparency and moment shadow maps, with a settings panel to switch the
// moment configuration at runtime.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/camera"
	"github.com/Faultbox/moment-oit/internal/config"
	"github.com/Faultbox/moment-oit/internal/control"
	"github.com/Faultbox/moment-oit/internal/debug"
	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/gpu/opengl"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/oit"
	"github.com/Faultbox/moment-oit/internal/scene"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/internal/ui"
)

const title = "Moment OIT Viewer"

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== " + title + " ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	app, err := newApp(cfg)
	if err != nil {
		if errors.Is(err, gpu.ErrMissingCapability) {
			logger.Fatal("GPU cannot run moment-based OIT", zap.Error(err))
		}
		logger.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer app.close()

	app.backend.Run(app.render)

	cfg.SetSettings(app.ctrl.Settings())
	if err := cfg.Save(); err != nil {
		logger.Warn("saving config failed", zap.Error(err))
	}
	logger.Info("viewer closed normally")
}

type app struct {
	cfg     *config.Config
	backend *ui.Backend
	dev     *opengl.Device
	reg     *shader.Registry
	ctrl    *control.Controller
	scene   *scene.Scene
	camera  *camera.OrbitCamera
	panel   *ui.Panel
	view    *ui.View
	shots   *debug.ScreenshotCapture
	log     *zap.Logger

	// target receives the opaque pass and the composite.
	target        gpu.Framebuffer
	width, height int

	lastFrame time.Time
	frameMS   float64
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		camera: camera.NewOrbitCamera(),
		panel:  ui.NewPanel(),
		shots:  debug.NewScreenshotCapture(filepath.Join(config.ConfigDir(), "screenshots"), "oit"),
		log:    logger.Named("viewer"),
	}

	var err error
	a.backend, err = ui.NewBackend(title, cfg.Graphics.Width, cfg.Graphics.Height, control.DefaultBackground)
	if err != nil {
		return nil, err
	}
	a.dev, err = opengl.New()
	if err != nil {
		return nil, err
	}
	a.width, a.height = cfg.Graphics.Width, cfg.Graphics.Height
	if err := a.createTarget(); err != nil {
		a.dev.Close()
		return nil, err
	}

	a.reg = shader.NewRegistry(a.dev)
	opts := oit.DefaultOptions()
	opts.Stencil = cfg.OIT.Stencil
	a.ctrl, err = control.New(a.dev, a.reg, cfg.Settings(), a.width, a.height, opts)
	if err != nil {
		a.dev.Close()
		return nil, err
	}

	if err := a.loadScene(cfg.Data.VoxelGrid); err != nil {
		a.ctrl.Release()
		a.dev.Close()
		return nil, err
	}
	a.view = ui.NewView(a.width, a.height)
	a.lastFrame = time.Now()
	return a, nil
}

func (a *app) createTarget() error {
	if a.target != 0 {
		a.dev.DeleteFramebuffer(a.target)
		a.target = 0
	}
	fb, err := a.dev.NewFramebuffer(gpu.FramebufferDesc{
		Label:        "view",
		Width:        a.width,
		Height:       a.height,
		Color:        gpu.RGBA8,
		DepthStencil: true,
	})
	if err != nil {
		return err
	}
	a.target = fb
	return nil
}

// loadScene replaces the scene with the grid at path, or the demo helices
// when path is empty.
func (a *app) loadScene(path string) error {
	var (
		data *scene.Data
		err  error
	)
	if path == "" {
		data, err = scene.Demo(scene.DefaultTubeOptions())
	} else {
		data, err = scene.LoadFile(path, scene.DefaultTubeOptions())
	}
	if err != nil {
		return err
	}
	s, err := scene.New(a.dev, data)
	if err != nil {
		return err
	}
	if a.scene != nil {
		a.scene.Release()
	}
	a.scene = s
	a.camera.FitToBounds(s.Bounds())
	a.ctrl.Shadow().SetLight(s.LightDirection, s.Bounds())

	name := "helices"
	if path != "" {
		name = filepath.Base(path)
	}
	a.backend.SetWindowTitle(title + " - " + name)
	return nil
}

func (a *app) render() {
	if path, ok := a.panel.PendingPath(); ok {
		if err := a.loadScene(path); err != nil {
			a.log.Error("loading voxel grid failed", zap.String("path", path), zap.Error(err))
		} else {
			a.cfg.Data.VoxelGrid = path
		}
	}

	if w, h := ui.FramebufferSize(); w > 0 && h > 0 && (w != a.width || h != a.height) {
		a.resize(w, h)
	}

	a.handleInput()

	rc := a.camera.RenderContext(a.width, a.height, a.target)
	if err := a.ctrl.Frame(rc, a.scene); err != nil {
		a.log.Error("frame failed", zap.Error(err))
	}
	a.view.CopyFrom(uint32(a.target))

	if ui.IsKeyPressed(imgui.KeyF12) {
		a.screenshot()
	}
	if ui.IsKeyPressed(imgui.KeyF11) {
		a.dumpMoments()
	}

	now := time.Now()
	ms := float64(now.Sub(a.lastFrame).Microseconds()) / 1000
	a.lastFrame = now
	a.frameMS = a.frameMS*0.9 + ms*0.1
	a.panel.Status = ui.StatusLine(a.frameMS, a.ctrl.Settings(), a.width, a.height)

	a.view.Draw()
	next, changed, quit := a.panel.Draw(a.ctrl.Settings())
	if changed {
		if err := a.ctrl.Apply(next); err != nil {
			a.log.Warn("settings rejected, keeping previous configuration", zap.Error(err))
		}
	}
	if quit || ui.IsKeyPressed(imgui.KeyEscape) {
		a.backend.Close()
	}
}

func (a *app) resize(w, h int) {
	a.width, a.height = w, h
	if err := a.createTarget(); err != nil {
		a.log.Error("recreating view target failed", zap.Error(err))
		return
	}
	if err := a.ctrl.Resize(w, h); err != nil {
		a.log.Error("resizing moment buffer failed", zap.Error(err))
	}
	a.view.Resize(w, h)
}

func (a *app) handleInput() {
	if ui.WantsMouse() {
		return
	}
	io := imgui.CurrentIO()
	if imgui.IsMouseDown(imgui.MouseButtonLeft) {
		d := io.MouseDelta()
		a.camera.HandleDrag(d.X, d.Y)
	}
	if wheel := io.MouseWheel(); wheel != 0 {
		a.camera.HandleZoom(wheel)
	}
}

func (a *app) screenshot() {
	pixels := a.dev.ReadPixels(a.target, a.width, a.height)
	path, err := a.shots.CaptureFromPixels(pixels, a.width, a.height)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func (a *app) dumpMoments() {
	snap, err := a.ctrl.OIT().Storage().Snapshot()
	if err != nil {
		a.log.Error("reading moments failed", zap.Error(err))
		return
	}
	path, err := a.shots.CaptureMoments(snap)
	if err != nil {
		a.log.Error("saving moments failed", zap.Error(err))
		return
	}
	a.log.Info("moment image saved", zap.String("path", path))
}

func (a *app) close() {
	if a.view != nil {
		a.view.Destroy()
	}
	if a.scene != nil {
		a.scene.Release()
	}
	a.ctrl.Release()
	if a.target != 0 {
		a.dev.DeleteFramebuffer(a.target)
	}
	a.dev.Close()
}
