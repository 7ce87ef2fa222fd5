// Package mesh builds triangle meshes for line data and computes their
// smooth vertex normals.
package mesh

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/moment-oit/pkg/math"
)

// Mesh errors.
var (
	ErrUnreferencedVertex = errors.New("mesh: vertex is not referenced by any triangle")
	ErrIndexOutOfRange    = errors.New("mesh: index out of range")
	ErrNotTriangles       = errors.New("mesh: index count is not a multiple of 3")
)

// adjacency maps each vertex to the triangles using it, in CSR form.
type adjacency struct {
	offsets []int
	faces   []int
}

func (a *adjacency) of(v int) []int {
	return a.faces[a.offsets[v]:a.offsets[v+1]]
}

func buildAdjacency(numVertices int, indices []uint32) (*adjacency, error) {
	a := &adjacency{offsets: make([]int, numVertices+1), faces: make([]int, len(indices))}
	for j, idx := range indices {
		if int(idx) >= numVertices {
			return nil, fmt.Errorf("%w: index %d = %d, %d vertices", ErrIndexOutOfRange, j, idx, numVertices)
		}
		a.offsets[idx+1]++
	}
	for v := 0; v < numVertices; v++ {
		a.offsets[v+1] += a.offsets[v]
	}
	fill := make([]int, numVertices)
	for j, idx := range indices {
		a.faces[a.offsets[idx]+fill[idx]] = j / 3
		fill[idx]++
	}
	return a, nil
}

// ComputeNormals returns area-weighted smooth vertex normals for an indexed
// triangle list with counter-clockwise front faces, and a per-vertex mean
// curvature estimate over the one-ring. Every vertex must be used by at
// least one triangle.
func ComputeNormals(vertices []math.Vec3, indices []uint32) ([]math.Vec3, []float32, error) {
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotTriangles, len(indices))
	}
	adj, err := buildAdjacency(len(vertices), indices)
	if err != nil {
		return nil, nil, err
	}
	for v := range vertices {
		if len(adj.of(v)) == 0 {
			return nil, nil, fmt.Errorf("%w: vertex %d", ErrUnreferencedVertex, v)
		}
	}

	// The unnormalized cross product carries twice the triangle area.
	faceNormals := make([]math.Vec3, len(indices)/3)
	for f := range faceNormals {
		p0 := vertices[indices[3*f]]
		p1 := vertices[indices[3*f+1]]
		p2 := vertices[indices[3*f+2]]
		faceNormals[f] = p1.Sub(p0).Cross(p2.Sub(p0))
	}

	normals := make([]math.Vec3, len(vertices))
	parallelRange(len(vertices), func(v int) {
		var n math.Vec3
		for _, f := range adj.of(v) {
			n = n.Add(faceNormals[f])
		}
		normals[v] = n.Normalize()
	})

	curvature := make([]float32, len(vertices))
	parallelRange(len(vertices), func(v int) {
		curvature[v] = ringCurvature(v, vertices, normals, indices, adj)
	})
	return normals, curvature, nil
}

// ringCurvature estimates the normal curvature along each one-ring edge and
// averages consecutive pairs weighted by the angle between them.
func ringCurvature(v int, vertices, normals []math.Vec3, indices []uint32, adj *adjacency) float32 {
	p0, n0 := vertices[v], normals[v]

	var ring []int
	for _, f := range adj.of(v) {
		for _, idx := range indices[3*f : 3*f+3] {
			w := int(idx)
			if w == v || containsInt(ring, w) {
				continue
			}
			ring = append(ring, w)
		}
	}
	if len(ring) < 2 {
		return 0
	}

	k := make([]float32, len(ring))
	for i, w := range ring {
		p := vertices[w].Sub(p0)
		l2 := p.Dot(p)
		if l2 == 0 {
			continue
		}
		k[i] = normals[w].Sub(n0).Dot(p) / l2
	}

	var total, totalAngle float64
	for e := 0; e+1 < len(ring); e++ {
		e0 := vertices[ring[e]].Sub(p0)
		e1 := vertices[ring[e+1]].Sub(p0)
		denom := e0.Length() * e1.Length()
		if denom == 0 {
			continue
		}
		angle := float64(math32.Asin(math32.Min(1, e0.Cross(e1).Length()/denom)))
		totalAngle += angle
		total += angle * float64(k[e]+k[e+1])
	}
	if totalAngle == 0 {
		return 0
	}
	return float32(total / (2 * totalAngle))
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// parallelRange calls fn for every i in [0, n) across GOMAXPROCS workers.
func parallelRange(n int, fn func(i int)) {
	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	if chunk < 1024 {
		chunk = 1024
	}
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
