// oitcheck validates every moment configuration on the CPU: it prints the
// texture layout and moment bias the renderer would use and measures how
// far the reconstructed transmittance is from the exact one on random
// pixels. It needs no GPU.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/moment"
)

func main() {
	var opts Options
	flag.IntVar(&opts.Pixels, "pixels", 2000, "Random pixels per configuration")
	flag.IntVar(&opts.Fragments, "fragments", 8, "Fragments per pixel")
	flag.IntVar(&opts.Probes, "probes", 16, "Depths resolved per pixel")
	flag.Uint64Var(&opts.Seed, "seed", 1, "Random seed")
	overestimation := flag.Float64("overestimation", moment.DefaultOverestimation, "Overestimation weight")
	maxMean := flag.Float64("max-mean-error", 0.1, "Fail when a configuration's mean error exceeds this")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()
	opts.Overestimation = float32(*overestimation)

	level := "warn"
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reports, err := CheckAll(context.Background(), Configs(), opts)
	if err != nil {
		logger.Error("check failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("%-38s %-8s %-34s %10s %6s %9s %9s %7s\n",
		"Mode", "Format", "Layout", "Bias", "B/px", "Mean err", "Max err", "Under")
	failed := false
	for _, r := range reports {
		fmt.Printf("%-38s %-8s %-34s %10.3g %6d %9.4f %9.4f %6.1f%%\n",
			r.Label, r.Config.Precision, describeLayout(r.Layout), r.Bias, r.BytesPerPixel,
			r.MeanError, r.MaxError, 100*r.Underestimated)
		if r.MeanError > *maxMean {
			logger.Error("reconstruction error too large",
				zap.Stringer("config", r.Config),
				zap.Float64("mean", r.MeanError),
				zap.Float64("limit", *maxMean))
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// describeLayout formats a layout as "b0:R32F b:RGBA32Fx2".
func describeLayout(l moment.Layout) string {
	parts := make([]string, 0, 3)
	for _, spec := range l.Textures() {
		s := spec.Name + ":" + spec.Format.String()
		if spec.Layers > 1 {
			s += fmt.Sprintf("x%d", spec.Layers)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
