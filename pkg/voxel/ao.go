package voxel

import (
	"fmt"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"
)

const (
	aoFilterSize   = 7
	aoFilterExtent = (aoFilterSize - 1) / 2
)

// gaussianKernel returns a size³ kernel with standard deviation sigma,
// indexed z-major like the grid.
func gaussianKernel(size int, sigma float32) []float32 {
	extent := (size - 1) / 2
	k := make([]float32, size*size*size)
	norm := 1 / (2 * math32.Pi * sigma * sigma)
	for z := -extent; z <= extent; z++ {
		for y := -extent; y <= extent; y++ {
			for x := -extent; x <= extent; x++ {
				r2 := float32(x*x + y*y + z*z)
				idx := ((z+extent)*size+(y+extent))*size + (x + extent)
				k[idx] = norm * math32.Exp(-r2/(2*sigma*sigma))
			}
		}
	}
	return k
}

// GenerateAOFactors blurs the density grid with a 7³ Gaussian and maps the
// result to occlusion factors in [0, 1], where 1 means unoccluded. Hair
// datasets use a steeper ramp. Slices along z are filtered in parallel.
func GenerateAOFactors(density []float32, size Size, hair bool) ([]float32, error) {
	n := size.Count()
	if len(density) != n {
		return nil, fmt.Errorf("%w: %d densities for %s", ErrSizeMismatch, len(density), size)
	}

	kernel := gaussianKernel(aoFilterSize, aoFilterExtent)
	ao := make([]float32, n)
	sliceMax := make([]float32, size.Z)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for z := 0; z < size.Z; z++ {
		g.Go(func() error {
			sliceMax[z] = blurSlice(ao, density, kernel, size, z)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var maxDensity float32
	for _, m := range sliceMax {
		maxDensity = math32.Max(maxDensity, m)
	}
	normalizeAO(ao, maxDensity, hair)
	return ao, nil
}

// blurSlice filters slice z into dst and returns its maximum.
func blurSlice(dst, src, kernel []float32, size Size, z int) float32 {
	var sliceMax float32
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			var sum float32
			for oz := -aoFilterExtent; oz <= aoFilterExtent; oz++ {
				rz := z + oz
				if rz < 0 || rz >= size.Z {
					continue
				}
				for oy := -aoFilterExtent; oy <= aoFilterExtent; oy++ {
					ry := y + oy
					if ry < 0 || ry >= size.Y {
						continue
					}
					for ox := -aoFilterExtent; ox <= aoFilterExtent; ox++ {
						rx := x + ox
						if rx < 0 || rx >= size.X {
							continue
						}
						k := ((oz+aoFilterExtent)*aoFilterSize+(oy+aoFilterExtent))*aoFilterSize + (ox + aoFilterExtent)
						sum += src[size.Index(rx, ry, rz)] * kernel[k]
					}
				}
			}
			dst[size.Index(x, y, z)] = sum
			sliceMax = math32.Max(sliceMax, sum)
		}
	}
	return sliceMax
}

// normalizeAO divides by the maximum and stores one minus the ramped
// density. An all-empty grid is fully unoccluded.
func normalizeAO(ao []float32, maxDensity float32, hair bool) {
	if maxDensity <= 0 {
		for i := range ao {
			ao[i] = 1
		}
		return
	}
	for i, v := range ao {
		d := v / maxDensity
		if hair {
			d *= 3
		} else {
			d = (d - 0.1) * 2
		}
		ao[i] = 1 - math32.Max(0, math32.Min(1, d))
	}
}
