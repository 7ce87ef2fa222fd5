// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/moment-oit/internal/control"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/shadow"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	OIT      OITConfig      `yaml:"oit"`
	Shadow   ShadowConfig   `yaml:"shadow"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig holds input file paths.
type DataConfig struct {
	VoxelGrid string `yaml:"voxel_grid"` // Optional .voxel or .voxel.zst file
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// OITConfig holds the screen moment buffer settings.
type OITConfig struct {
	MomentMode     int     `yaml:"moment_mode"`  // Index into moment.Modes
	PixelFormat    int     `yaml:"pixel_format"` // 0 float32, 1 unorm16
	Overestimation float32 `yaml:"overestimation"`
	Stencil        bool    `yaml:"stencil"`
}

// ShadowConfig holds the moment shadow map settings.
type ShadowConfig struct {
	Enabled        bool    `yaml:"enabled"`
	MomentMode     int     `yaml:"moment_mode"`
	PixelFormat    int     `yaml:"pixel_format"`
	Overestimation float32 `yaml:"overestimation"`
	Resolution     int     `yaml:"resolution"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		OIT: OITConfig{
			MomentMode:     0,
			PixelFormat:    0,
			Overestimation: moment.DefaultOverestimation,
			Stencil:        true,
		},
		Shadow: ShadowConfig{
			Enabled:        true,
			MomentMode:     0,
			PixelFormat:    0,
			Overestimation: moment.DefaultOverestimation,
			Resolution:     shadow.DefaultResolution,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects out-of-range mode and format indices.
func (c *Config) Validate() error {
	if err := checkMode("oit", c.OIT.MomentMode, c.OIT.PixelFormat); err != nil {
		return err
	}
	if err := checkMode("shadow", c.Shadow.MomentMode, c.Shadow.PixelFormat); err != nil {
		return err
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}

func checkMode(section string, mode, format int) error {
	if mode < 0 || mode >= len(moment.Modes) {
		return fmt.Errorf("%s: moment_mode %d out of range [0, %d]", section, mode, len(moment.Modes)-1)
	}
	if format < 0 || format >= len(moment.PixelFormats) {
		return fmt.Errorf("%s: pixel_format %d out of range [0, %d]", section, format, len(moment.PixelFormats)-1)
	}
	return nil
}

// Settings converts the file representation into renderer settings.
// Call Validate first; out-of-range indices fall back to the defaults.
func (c *Config) Settings() control.Settings {
	s := control.DefaultSettings()
	s.OIT = modeConfig(c.OIT.MomentMode, c.OIT.PixelFormat)
	s.Shadow = modeConfig(c.Shadow.MomentMode, c.Shadow.PixelFormat)
	s.ShadowsEnabled = c.Shadow.Enabled
	s.Overestimation = c.OIT.Overestimation
	s.ShadowOverestimation = c.Shadow.Overestimation
	s.ShadowResolution = c.Shadow.Resolution
	return s.Normalize()
}

// SetSettings stores renderer settings back into c, e.g. before Save.
func (c *Config) SetSettings(s control.Settings) {
	c.OIT.MomentMode = moment.ModeIndex(s.OIT)
	c.OIT.PixelFormat = int(s.OIT.Precision)
	c.OIT.Overestimation = s.Overestimation
	c.Shadow.Enabled = s.ShadowsEnabled
	c.Shadow.MomentMode = moment.ModeIndex(s.Shadow)
	c.Shadow.PixelFormat = int(s.Shadow.Precision)
	c.Shadow.Overestimation = s.ShadowOverestimation
	c.Shadow.Resolution = s.ShadowResolution
}

func modeConfig(mode, format int) moment.Config {
	cfg := moment.Default()
	if mode >= 0 && mode < len(moment.Modes) {
		cfg = moment.Modes[mode].Apply(cfg)
	}
	if format >= 0 && format < len(moment.PixelFormats) {
		cfg.Precision = moment.Precision(format)
	}
	return cfg.Normalize()
}
