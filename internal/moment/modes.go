package moment

// Mode is one of the moment-mode presets offered in the settings panel.
type Mode struct {
	Label              string
	Basis              Basis
	NumMoments         int
	SplitChannelLayout bool
}

// Modes lists the presets in panel order.
var Modes = []Mode{
	{"Power Moments: 4", Power, 4, false},
	{"Power Moments: 6 (Layered)", Power, 6, false},
	{"Power Moments: 6 (R_RG_RGBA)", Power, 6, true},
	{"Power Moments: 8", Power, 8, false},
	{"Trigonometric Moments: 2", Trigonometric, 4, false},
	{"Trigonometric Moments: 3 (Layered)", Trigonometric, 6, false},
	{"Trigonometric Moments: 3 (R_RG_RGBA)", Trigonometric, 6, true},
	{"Trigonometric Moments: 4", Trigonometric, 8, false},
}

// Apply returns cfg with the mode's basis, count and layout. Precision is kept.
func (m Mode) Apply(cfg Config) Config {
	cfg.Basis = m.Basis
	cfg.NumMoments = m.NumMoments
	cfg.SplitChannelLayout = m.SplitChannelLayout
	return cfg
}

// ModeIndex returns the preset index describing cfg.
func ModeIndex(cfg Config) int {
	idx := 0
	if cfg.Basis == Trigonometric {
		idx = 4
	}
	idx += cfg.NumMoments/2 - 2
	if cfg.Split() {
		idx++
	}
	if cfg.NumMoments == 8 {
		idx++
	}
	return idx
}

// ModeLabels returns the preset labels for a combo box.
func ModeLabels() []string {
	out := make([]string, len(Modes))
	for i, m := range Modes {
		out[i] = m.Label
	}
	return out
}

// PixelFormats lists the precision presets in panel order, indexed by Precision.
var PixelFormats = []string{"Float 32-bit", "UNORM Integer 16-bit"}
