package ui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/control"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/internal/shadow"
)

// ShadowResolutions are the shadow map sizes offered in the panel.
var ShadowResolutions = []int{256, 512, 1024, 2048, 4096}

// Selection is the panel state as combo indices and slider values.
type Selection struct {
	OITMode      int
	OITFormat    int
	ShadowMode   int
	ShadowFormat int
	Shadows      bool

	Overestimation       float32
	ShadowOverestimation float32
	ShadowResolution     int // index into ShadowResolutions
}

// SelectionFrom describes s in panel terms.
func SelectionFrom(s control.Settings) Selection {
	s = s.Normalize()
	return Selection{
		OITMode:              moment.ModeIndex(s.OIT),
		OITFormat:            int(s.OIT.Precision),
		ShadowMode:           moment.ModeIndex(s.Shadow),
		ShadowFormat:         int(s.Shadow.Precision),
		Shadows:              s.ShadowsEnabled,
		Overestimation:       s.Overestimation,
		ShadowOverestimation: s.ShadowOverestimation,
		ShadowResolution:     resolutionIndex(s.ShadowResolution),
	}
}

// Settings converts the selection back. Out of range indices fall back to
// the first entry.
func (sel Selection) Settings() control.Settings {
	s := control.Settings{
		OIT:                  modeConfig(sel.OITMode, sel.OITFormat),
		Shadow:               modeConfig(sel.ShadowMode, sel.ShadowFormat),
		ShadowsEnabled:       sel.Shadows,
		Overestimation:       sel.Overestimation,
		ShadowOverestimation: sel.ShadowOverestimation,
		ShadowResolution:     ShadowResolutions[clampIndex(sel.ShadowResolution, len(ShadowResolutions))],
	}
	return s.Normalize()
}

func modeConfig(mode, format int) moment.Config {
	cfg := moment.Modes[clampIndex(mode, len(moment.Modes))].Apply(moment.Default())
	cfg.Precision = moment.Precision(clampIndex(format, len(moment.PixelFormats)))
	return cfg.Normalize()
}

func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}

func resolutionIndex(r int) int {
	r = shadow.ClampResolution(r)
	for i, v := range ShadowResolutions {
		if v >= r {
			return i
		}
	}
	return len(ShadowResolutions) - 1
}

// Panel draws the settings window and the File menu.
type Panel struct {
	// Status is shown at the bottom of the panel.
	Status string

	pendingPath chan string
	log         *zap.Logger
}

// NewPanel creates a panel.
func NewPanel() *Panel {
	return &Panel{
		pendingPath: make(chan string, 1),
		log:         logger.Named("ui"),
	}
}

const panelWidth = 340

// Draw renders the panel for current and returns the edited settings when
// any widget changed. quit is set when Exit was chosen.
func (p *Panel) Draw(current control.Settings) (next control.Settings, changed, quit bool) {
	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open Voxel Grid...") {
				p.OpenDialog()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				quit = true
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}

	sel := SelectionFrom(current)
	posX, posY, _, _ := Viewport()
	imgui.SetNextWindowPos(imgui.NewVec2(posX, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(panelWidth, 0))
	imgui.SetNextWindowBgAlpha(0.85)
	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsAlwaysAutoResize
	if imgui.BeginV("Settings", nil, flags) {
		imgui.SeparatorText("Transparency")
		changed = combo("Moment Mode##oit", &sel.OITMode, moment.ModeLabels()) || changed
		changed = combo("Pixel Format##oit", &sel.OITFormat, moment.PixelFormats) || changed
		changed = imgui.SliderFloatV("Overestimation##oit", &sel.Overestimation, 0, 1, "%.2f", imgui.SliderFlagsNone) || changed

		imgui.SeparatorText("Shadows")
		changed = imgui.Checkbox("Enabled##shadow", &sel.Shadows) || changed
		if !sel.Shadows {
			imgui.BeginDisabled()
		}
		changed = combo("Moment Mode##shadow", &sel.ShadowMode, moment.ModeLabels()) || changed
		changed = combo("Pixel Format##shadow", &sel.ShadowFormat, moment.PixelFormats) || changed
		changed = combo("Resolution##shadow", &sel.ShadowResolution, resolutionLabels()) || changed
		changed = imgui.SliderFloatV("Overestimation##shadow", &sel.ShadowOverestimation, 0, 1, "%.2f", imgui.SliderFlagsNone) || changed
		if !sel.Shadows {
			imgui.EndDisabled()
		}

		if p.Status != "" {
			imgui.Separator()
			imgui.TextWrapped(p.Status)
		}
	}
	imgui.End()

	if changed {
		next = sel.Settings()
		changed = next != current.Normalize()
	}
	return next, changed, quit
}

func combo(label string, idx *int, items []string) bool {
	changed := false
	preview := ""
	if *idx >= 0 && *idx < len(items) {
		preview = items[*idx]
	}
	if imgui.BeginCombo(label, preview) {
		for i, item := range items {
			selected := i == *idx
			if imgui.SelectableBoolV(item, selected, 0, imgui.NewVec2(0, 0)) && !selected {
				*idx = i
				changed = true
			}
			if selected {
				imgui.SetItemDefaultFocus()
			}
		}
		imgui.EndCombo()
	}
	return changed
}

func resolutionLabels() []string {
	out := make([]string, len(ShadowResolutions))
	for i, r := range ShadowResolutions {
		out[i] = strconv.Itoa(r) + " x " + strconv.Itoa(r)
	}
	return out
}

// OpenDialog shows a native file dialog for a voxel grid. The dialog runs
// on its own goroutine; the chosen path is picked up by PendingPath on the
// render thread.
func (p *Panel) OpenDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Voxel Grids", "voxel", "zst", "gz").
			Filter("All Files", "*").
			Title("Open Voxel Grid").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				p.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case p.pendingPath <- filename:
		default:
			p.log.Debug("dropping file selection, one is already pending", zap.String("path", filename))
		}
	}()
}

// PendingPath returns a path chosen in the dialog since the last call.
func (p *Panel) PendingPath() (string, bool) {
	select {
	case path := <-p.pendingPath:
		return path, true
	default:
		return "", false
	}
}

// StatusLine formats the frame statistics shown in the panel.
func StatusLine(frameMS float64, s control.Settings, width, height int) string {
	line := fmt.Sprintf("%.2f ms  %dx%d\nOIT: %s", frameMS, width, height, s.OIT)
	if s.ShadowsEnabled {
		line += fmt.Sprintf("\nShadow: %s @ %d", s.Shadow, s.ShadowResolution)
	}
	return line
}
