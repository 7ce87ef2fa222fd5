package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/pkg/voxel"
)

// FromGrid builds scene data for the line segments of g. Segments are
// stored in grid space and are moved to world space before the tubes are
// swept, so the tube radius is a world-space length.
func FromGrid(g *voxel.Grid, opts TubeOptions) (*Data, error) {
	lines := LinesFromGrid(g)
	if len(lines) == 0 {
		return nil, fmt.Errorf("scene: grid has no line segments")
	}
	toWorld := g.WorldToVoxelGrid.Inverse()
	for _, l := range lines {
		for i, p := range l.Points {
			l.Points[i] = toWorld.TransformPoint(p)
		}
	}
	if g.DataType == voxel.Hair && g.HairThickness > 0 {
		opts.Radius = g.HairThickness * 0.5
	}
	tubes, err := Tubes(lines, opts, TransferFunctionFor(g))
	if err != nil {
		return nil, err
	}
	return NewData(tubes), nil
}

// LoadFile reads a voxel grid and builds its scene data.
func LoadFile(path string, opts TubeOptions) (*Data, error) {
	g, err := voxel.LoadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := FromGrid(g, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Named("scene").Info("scene built",
		zap.String("path", path),
		zap.Stringer("dataType", g.DataType),
		zap.Int("vertices", data.Transparent.VertexCount()))
	return data, nil
}

// Demo returns a bundle of helices, used when no grid is given.
func Demo(opts TubeOptions) (*Data, error) {
	tubes, err := Tubes(Helices(24, 200), opts, DefaultTransferFunction(1))
	if err != nil {
		return nil, err
	}
	return NewData(tubes), nil
}
