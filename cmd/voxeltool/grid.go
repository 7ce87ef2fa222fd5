package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/moment-oit/pkg/voxel"
)

var errNoDensities = errors.New("grid has no densities")

func printInfo(w io.Writer, path string, g *voxel.Grid) {
	fmt.Fprintf(w, "File:          %s\n", path)
	fmt.Fprintf(w, "Compression:   %s\n", voxel.CompressionFor(path))
	fmt.Fprintf(w, "Data type:     %s\n", g.DataType)
	fmt.Fprintf(w, "Resolution:    %s (%d voxels)\n", g.Resolution, g.Resolution.Count())
	fmt.Fprintf(w, "Quantization:  %s\n", g.QuantizationResolution)
	switch g.DataType {
	case voxel.Hair:
		fmt.Fprintf(w, "Strand color:  %v\n", g.HairStrandColor)
		fmt.Fprintf(w, "Thickness:     %g\n", g.HairThickness)
	default:
		fmt.Fprintf(w, "Max vorticity: %g\n", g.MaxVorticity)
	}
	fmt.Fprintf(w, "Segments:      %d\n", len(g.Segments))
	fmt.Fprintf(w, "Densities:     %d\n", len(g.Densities))
	fmt.Fprintf(w, "AO factors:    %d\n", len(g.AOFactors))
	if err := g.Validate(); err != nil {
		fmt.Fprintf(w, "Invalid:       %v\n", err)
	}
}

// RecomputeAO replaces the AO factors of g with ones generated from its
// densities.
func RecomputeAO(g *voxel.Grid, hair bool) error {
	if len(g.Densities) == 0 {
		return errNoDensities
	}
	ao, err := voxel.GenerateAOFactors(g.Densities, g.Resolution, hair || g.DataType == voxel.Hair)
	if err != nil {
		return err
	}
	g.AOFactors = ao
	return nil
}

// LODRow describes one pyramid level.
type LODRow struct {
	Level       int
	Size        voxel.Size
	MeanDensity float64
	// Occupied is the fraction of voxels containing at least one line.
	Occupied float64
}

// LODSummary builds both pyramids of g. Occupancy is zero for grids
// without per-voxel line counts.
func LODSummary(g *voxel.Grid) ([]LODRow, error) {
	if len(g.Densities) == 0 {
		return nil, errNoDensities
	}
	densities, err := voxel.DensityLODs(g.Densities, g.Resolution)
	if err != nil {
		return nil, err
	}
	var occupancy []uint32
	if len(g.LinesPerVoxel) > 0 {
		if occupancy, err = voxel.OctreeLODs(g.LinesPerVoxel, g.Resolution); err != nil {
			return nil, err
		}
	}

	levels := voxel.Levels(g.Resolution)
	rows := make([]LODRow, len(levels))
	for i, l := range levels {
		n := l.Size.Count()
		var sum float64
		for _, d := range densities[l.Offset : l.Offset+n] {
			sum += float64(d)
		}
		occupied := 0
		if occupancy != nil {
			for _, c := range occupancy[l.Offset : l.Offset+n] {
				if c > 0 {
					occupied++
				}
			}
		}
		rows[i] = LODRow{
			Level:       i,
			Size:        l.Size,
			MeanDensity: sum / float64(n),
			Occupied:    float64(occupied) / float64(n),
		}
	}
	return rows, nil
}
