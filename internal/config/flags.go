package config

import "flag"

// overrides are the command-line values that win over the config file.
// Negative mode indices and zero sizes mean "not given".
type overrides struct {
	path       string
	debug      bool
	voxel      string
	windowed   bool
	fullscreen bool
	width      int
	height     int
	oitMode    int
	unorm      bool
	noShadows  bool
	shadowRes  int
	shadowMode int
}

func newOverrides() *overrides {
	return &overrides{oitMode: -1, shadowMode: -1}
}

var cli = newOverrides()

func init() {
	cli.register(flag.CommandLine)
}

func (o *overrides) register(fs *flag.FlagSet) {
	fs.StringVar(&o.path, "config", "", "Path to config file (default: $"+EnvPath+", ./config.yaml, then the user config dir)")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.voxel, "voxel", "", "Voxel grid to display (.voxel, .voxel.zst or .voxel.gz)")
	fs.BoolVar(&o.windowed, "windowed", false, "Force windowed mode")
	fs.BoolVar(&o.fullscreen, "fullscreen", false, "Force fullscreen mode")
	fs.IntVar(&o.width, "width", 0, "Window width in pixels")
	fs.IntVar(&o.height, "height", 0, "Window height in pixels")
	fs.IntVar(&o.oitMode, "moments", -1, "OIT moment mode index (0-7)")
	fs.BoolVar(&o.unorm, "unorm16", false, "Store OIT moments as 16-bit UNORM")
	fs.BoolVar(&o.noShadows, "no-shadows", false, "Disable moment shadow mapping")
	fs.IntVar(&o.shadowRes, "shadow-resolution", 0, "Shadow map resolution (256-4096)")
	fs.IntVar(&o.shadowMode, "shadow-moments", -1, "Shadow moment mode index (0-7)")
}

func (o *overrides) apply(cfg *Config) {
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if o.voxel != "" {
		cfg.Data.VoxelGrid = o.voxel
	}
	switch {
	case o.fullscreen:
		cfg.Graphics.Fullscreen = true
	case o.windowed:
		cfg.Graphics.Fullscreen = false
	}
	if o.width > 0 {
		cfg.Graphics.Width = o.width
	}
	if o.height > 0 {
		cfg.Graphics.Height = o.height
	}
	if o.oitMode >= 0 {
		cfg.OIT.MomentMode = o.oitMode
	}
	if o.unorm {
		cfg.OIT.PixelFormat = 1
	}
	if o.shadowMode >= 0 {
		cfg.Shadow.MomentMode = o.shadowMode
	}
	if o.shadowRes > 0 {
		cfg.Shadow.Resolution = o.shadowRes
	}
	if o.noShadows {
		cfg.Shadow.Enabled = false
	}
}

// ParseFlags parses the process arguments. Commands that add their own
// flags must declare them before calling it.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath is the file given with -config, or "".
func ConfigPath() string {
	return cli.path
}
