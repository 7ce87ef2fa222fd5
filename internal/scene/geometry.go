package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/pkg/math"
	"github.com/Faultbox/moment-oit/pkg/mesh"
)

// VertexStride is the number of floats per interleaved vertex:
// position (3), normal (3), color (4).
const VertexStride = 10

// Geometry is an interleaved triangle mesh ready for upload.
type Geometry struct {
	Vertices []float32
	Indices  []uint32
	Bounds   math.AABB
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices) / VertexStride
}

// Interleave packs m with per-vertex colors from tf.
func Interleave(m *mesh.Mesh, tf TransferFunction) *Geometry {
	g := &Geometry{
		Vertices: make([]float32, 0, len(m.Vertices)*VertexStride),
		Indices:  m.Indices,
		Bounds:   m.Bounds(),
	}
	for i, p := range m.Vertices {
		n := m.Normals[i]
		var attr float32
		if i < len(m.Attributes) {
			attr = m.Attributes[i]
		}
		c := tf.Color(attr)
		g.Vertices = append(g.Vertices, p.X, p.Y, p.Z, n.X, n.Y, n.Z, c[0], c[1], c[2], c[3])
	}
	return g
}

// TubeOptions control the tube sweep.
type TubeOptions struct {
	Radius float32
	Sides  int
}

// DefaultTubeOptions returns thin eight-sided tubes.
func DefaultTubeOptions() TubeOptions {
	return TubeOptions{Radius: 0.01, Sides: 8}
}

// Tubes sweeps every line and merges the result. Lines with fewer than two
// distinct points are skipped; any other failure is returned.
func Tubes(lines []mesh.Polyline, opts TubeOptions, tf TransferFunction) (*Geometry, error) {
	log := logger.Named("scene")
	var merged mesh.Mesh
	skipped := 0
	for i, line := range lines {
		m, err := mesh.Tube(line, opts.Radius, opts.Sides)
		if errors.Is(err, mesh.ErrDegeneratePolyline) {
			skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		merged.Append(m)
	}
	if skipped > 0 {
		log.Warn("skipped degenerate lines", zap.Int("count", skipped))
	}
	log.Debug("tubes built",
		zap.Int("lines", len(lines)-skipped),
		zap.Int("vertices", len(merged.Vertices)),
		zap.Int("triangles", len(merged.Indices)/3))
	return Interleave(&merged, tf), nil
}

// GroundPlane returns an opaque quad below bounds, facing +y, extending
// half the box size beyond it on each side.
func GroundPlane(bounds math.AABB, color [4]float32) *Geometry {
	size := bounds.Max.Sub(bounds.Min)
	pad := math.Vec3{X: size.X * 0.5, Z: size.Z * 0.5}
	y := bounds.Min.Y - 0.05*size.Y
	x0, x1 := bounds.Min.X-pad.X, bounds.Max.X+pad.X
	z0, z1 := bounds.Min.Z-pad.Z, bounds.Max.Z+pad.Z

	m := &mesh.Mesh{
		Vertices: []math.Vec3{{X: x0, Y: y, Z: z0}, {X: x0, Y: y, Z: z1}, {X: x1, Y: y, Z: z0}, {X: x1, Y: y, Z: z1}},
		Indices:  []uint32{0, 1, 2, 2, 1, 3},
	}
	normals, _, err := mesh.ComputeNormals(m.Vertices, m.Indices)
	if err != nil {
		// Every vertex is referenced by construction.
		panic(err)
	}
	m.Normals = normals
	return Interleave(m, TransferFunction{Low: color, High: color})
}
