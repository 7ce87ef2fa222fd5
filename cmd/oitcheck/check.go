package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/moment-oit/internal/moment"
	"github.com/Faultbox/moment-oit/pkg/mboit"
)

// Options control the synthetic pixels every configuration is checked on.
type Options struct {
	Pixels         int
	Fragments      int
	Seed           uint64
	Overestimation float32
	// Probes is the number of depths each pixel is resolved at.
	Probes int
}

// Report summarizes one configuration.
type Report struct {
	Label         string
	Config        moment.Config
	Layout        moment.Layout
	Bias          float32
	BytesPerPixel int

	MeanError float64
	MaxError  float64
	// Underestimated is the fraction of probes where the reconstruction
	// was more transparent than the exact result.
	Underestimated float64
}

// Configs lists every moment mode with every pixel format.
func Configs() []moment.Config {
	var out []moment.Config
	for _, m := range moment.Modes {
		for p := range moment.PixelFormats {
			cfg := m.Apply(moment.Default())
			cfg.Precision = moment.Precision(p)
			out = append(out, cfg.Normalize())
		}
	}
	return out
}

// CheckAll runs Check for cfgs concurrently. Reports keep the order of cfgs.
func CheckAll(ctx context.Context, cfgs []moment.Config, opts Options) ([]Report, error) {
	reports := make([]Report, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cfg := range cfgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Check(cfg, opts)
			if err != nil {
				return fmt.Errorf("%v: %w", cfg, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Check derives the layout and bias of cfg and measures the reconstruction
// error on random pixels. Every configuration sees the same pixels for a
// given seed.
func Check(cfg moment.Config, opts Options) (Report, error) {
	layout, err := moment.DeriveLayout(cfg)
	if err != nil {
		return Report{}, err
	}
	uniform, err := moment.NewUniformData(cfg, opts.Overestimation)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		Label:         moment.Modes[moment.ModeIndex(cfg)].Label,
		Config:        cfg,
		Layout:        layout,
		Bias:          uniform.MomentBias,
		BytesPerPixel: bytesPerPixel(layout),
	}

	p := uniform.Reference(cfg)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	depths := make([]float64, opts.Fragments)
	alphas := make([]float64, opts.Fragments)
	var sum float64
	var n, under int
	for range opts.Pixels {
		var px mboit.Pixel
		for i := range depths {
			depths[i] = rng.Float64()*2 - 1
			alphas[i] = 0.05 + 0.45*rng.Float64()
			px.Accumulate(p, depths[i], alphas[i])
		}
		b0, slots := px.Encode(p)
		stored := mboit.Decode(p, b0, slots)

		for range opts.Probes {
			z := rng.Float64()*2 - 1
			exact := exactTransmittance(depths, alphas, z)
			got := mboit.Resolve(p, stored, z)
			e := math.Abs(got - exact)
			sum += e
			r.MaxError = math.Max(r.MaxError, e)
			if got > exact+1e-3 {
				under++
			}
			n++
		}
	}
	if n > 0 {
		r.MeanError = sum / float64(n)
		r.Underestimated = float64(under) / float64(n)
	}
	return r, nil
}

// exactTransmittance is the product of (1 - alpha) over fragments strictly
// in front of z.
func exactTransmittance(depths, alphas []float64, z float64) float64 {
	t := 1.0
	for i, d := range depths {
		if d < z {
			t *= 1 - alphas[i]
		}
	}
	return t
}

func bytesPerPixel(l moment.Layout) int {
	n := 0
	for _, spec := range l.Textures() {
		n += spec.Components() * spec.Format.BytesPerChannel()
	}
	return n
}
