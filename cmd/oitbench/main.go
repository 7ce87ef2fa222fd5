// oitbench renders a fixed camera orbit for every moment mode and pixel
// format and reports the mean frame time of each configuration.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/moment-oit/internal/camera"
	"github.com/Faultbox/moment-oit/internal/config"
	"github.com/Faultbox/moment-oit/internal/control"
	"github.com/Faultbox/moment-oit/internal/debug"
	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/gpu/opengl"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/oit"
	"github.com/Faultbox/moment-oit/internal/scene"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/internal/window"
)

var (
	flagFrames      = flag.Int("frames", 120, "Frames rendered per configuration")
	flagWarmup      = flag.Int("warmup", 10, "Untimed frames after each switch")
	flagReport      = flag.String("report", "", "Write results as YAML to this file")
	flagScreenshots = flag.String("screenshots", "", "Save the last frame of every configuration to this directory")
	flagShotFormat  = flag.String("screenshot-format", "png", "Screenshot file format (png or bmp)")
	flagVisible     = flag.Bool("visible", false, "Show the window while benchmarking")
)

// Result is the timing of one configuration.
type Result struct {
	Mode        string  `yaml:"mode"`
	PixelFormat string  `yaml:"pixel_format"`
	Frames      int     `yaml:"frames"`
	MeanMS      float64 `yaml:"mean_ms"`
	MinMS       float64 `yaml:"min_ms"`
	MaxMS       float64 `yaml:"max_ms"`
	MomentBytes int     `yaml:"moment_bytes"`
}

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

	results, err := run(cfg)
	if err != nil {
		if errors.Is(err, gpu.ErrMissingCapability) {
			logger.Fatal("GPU cannot run moment-based OIT", zap.Error(err))
		}
		logger.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("%-38s %-22s %10s %10s %10s\n", "Mode", "Format", "Mean ms", "Min ms", "Max ms")
	for _, r := range results {
		fmt.Printf("%-38s %-22s %10.3f %10.3f %10.3f\n", r.Mode, r.PixelFormat, r.MeanMS, r.MinMS, r.MaxMS)
	}

	if *flagReport != "" {
		data, err := yaml.Marshal(results)
		if err != nil {
			logger.Error("encoding report failed", zap.Error(err))
			os.Exit(1)
		}
		if err := os.WriteFile(*flagReport, data, 0644); err != nil {
			logger.Error("writing report failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("report written", zap.String("path", *flagReport))
	}
}

type bench struct {
	win    *window.Window
	dev    *opengl.Device
	ctrl   *control.Controller
	scene  *scene.Scene
	camera *camera.OrbitCamera
	target gpu.Framebuffer
	shots  *debug.ScreenshotCapture
	log    *zap.Logger

	width, height int
	quit          bool
	events        []window.Event
}

func run(cfg *config.Config) ([]Result, error) {
	b := &bench{
		camera: camera.NewOrbitCamera(),
		log:    logger.Named("bench"),
		width:  cfg.Graphics.Width,
		height: cfg.Graphics.Height,
	}
	if *flagScreenshots != "" {
		format, err := debug.ParseFormat(*flagShotFormat)
		if err != nil {
			return nil, err
		}
		b.shots = debug.NewScreenshotCapture(*flagScreenshots, "bench")
		b.shots.SetFormat(format)
	}

	var err error
	b.win, err = window.New(window.Config{
		Title:  "Moment OIT Benchmark",
		Width:  b.width,
		Height: b.height,
		VSync:  false,
		Hidden: !*flagVisible,
	})
	if err != nil {
		return nil, err
	}
	defer b.win.Close()

	b.dev, err = opengl.New()
	if err != nil {
		return nil, err
	}
	defer b.dev.Close()

	b.target, err = b.dev.NewFramebuffer(gpu.FramebufferDesc{
		Label:        "bench",
		Width:        b.width,
		Height:       b.height,
		Color:        gpu.RGBA8,
		DepthStencil: true,
	})
	if err != nil {
		return nil, err
	}
	defer b.dev.DeleteFramebuffer(b.target)

	opts := oit.DefaultOptions()
	opts.Stencil = cfg.OIT.Stencil
	b.ctrl, err = control.New(b.dev, shader.NewRegistry(b.dev), cfg.Settings(), b.width, b.height, opts)
	if err != nil {
		return nil, err
	}
	defer b.ctrl.Release()

	var data *scene.Data
	if cfg.Data.VoxelGrid != "" {
		data, err = scene.LoadFile(cfg.Data.VoxelGrid, scene.DefaultTubeOptions())
	} else {
		data, err = scene.Demo(scene.DefaultTubeOptions())
	}
	if err != nil {
		return nil, err
	}
	b.scene, err = scene.New(b.dev, data)
	if err != nil {
		return nil, err
	}
	defer b.scene.Release()
	b.camera.FitToBounds(b.scene.Bounds())
	b.ctrl.Shadow().SetLight(b.scene.LightDirection, b.scene.Bounds())

	base := b.ctrl.Settings()
	var results []Result
	for mode := range moment.Modes {
		for format := range moment.PixelFormats {
			if b.quit {
				return results, nil
			}
			s := base
			s.OIT = moment.Modes[mode].Apply(s.OIT)
			s.OIT.Precision = moment.Precision(format)
			r, err := b.measure(s)
			if err != nil {
				return results, fmt.Errorf("%s/%s: %w", moment.Modes[mode].Label, moment.PixelFormats[format], err)
			}
			r.Mode, r.PixelFormat = moment.Modes[mode].Label, moment.PixelFormats[format]
			results = append(results, r)
		}
	}
	return results, nil
}

// measure switches to s, renders the warmup frames and times the rest.
func (b *bench) measure(s control.Settings) (Result, error) {
	if err := b.ctrl.Apply(s); err != nil {
		return Result{}, err
	}
	b.log.Info("benchmarking", zap.Stringer("oit", b.ctrl.Settings().OIT))

	r := Result{Frames: *flagFrames, MinMS: -1, MomentBytes: b.ctrl.OIT().Storage().Bytes()}
	var total time.Duration
	for i := 0; i < *flagWarmup+*flagFrames && !b.quit; i++ {
		b.camera.HandleDrag(4, 0)
		start := time.Now()
		if err := b.frame(); err != nil {
			return r, err
		}
		if i < *flagWarmup {
			continue
		}
		d := time.Since(start)
		ms := float64(d.Microseconds()) / 1000
		total += d
		if r.MinMS < 0 || ms < r.MinMS {
			r.MinMS = ms
		}
		r.MaxMS = max(r.MaxMS, ms)
	}
	if *flagFrames > 0 {
		r.MeanMS = float64(total.Microseconds()) / 1000 / float64(*flagFrames)
	}
	if b.shots != nil {
		path, err := b.shots.CaptureFromPixels(b.dev.ReadPixels(b.target, b.width, b.height), b.width, b.height)
		if err != nil {
			return r, err
		}
		b.log.Info("frame saved", zap.String("path", filepath.Base(path)))
	}
	return r, nil
}

func (b *bench) frame() error {
	b.events = b.win.PollEvents(b.events[:0])
	for _, e := range b.events {
		if e.Type == window.EventQuit {
			b.quit = true
		}
	}
	rc := b.camera.RenderContext(b.width, b.height, b.target)
	if err := b.ctrl.Frame(rc, b.scene); err != nil {
		return err
	}
	b.dev.Finish()
	b.win.SwapBuffers()
	return nil
}
