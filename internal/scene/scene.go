// Package scene holds the line dataset the viewer renders: transparent
// tubes drawn by every moment pass and an opaque ground plane that
// receives their shadows.
package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
	"github.com/Faultbox/moment-oit/internal/shader"
	"github.com/Faultbox/moment-oit/pkg/math"
)

// DefaultLightDirection points from the scene towards the sun.
var DefaultLightDirection = math.Vec3{X: 0.4, Y: 1, Z: 0.3}

// GroundColor is the albedo of the ground plane.
var GroundColor = [4]float32{0.55, 0.55, 0.5, 1}

// Data is the CPU side of a scene.
type Data struct {
	Transparent *Geometry
	Opaque      *Geometry
}

// Bounds covers both the shadow casters and the receivers.
func (d *Data) Bounds() math.AABB {
	b := math.EmptyAABB()
	if d.Transparent != nil {
		b = b.Union(d.Transparent.Bounds)
	}
	if d.Opaque != nil {
		b = b.Union(d.Opaque.Bounds)
	}
	return b
}

// NewData builds tubes for lines and a ground plane underneath.
func NewData(tubes *Geometry) *Data {
	return &Data{Transparent: tubes, Opaque: GroundPlane(tubes.Bounds, GroundColor)}
}

// vertexArray is an uploaded Geometry.
type vertexArray struct {
	vao, vbo, ebo uint32
	count         int32
}

func upload(g *Geometry) *vertexArray {
	va := &vertexArray{count: int32(len(g.Indices))}
	if len(g.Indices) == 0 {
		return va
	}

	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	gl.GenBuffers(1, &va.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Vertices)*4, unsafe.Pointer(&g.Vertices[0]), gl.STATIC_DRAW)

	stride := int32(VertexStride * 4)
	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	// Color
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &va.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, unsafe.Pointer(&g.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return va
}

func (va *vertexArray) draw() {
	if va.count == 0 {
		return
	}
	gl.BindVertexArray(va.vao)
	gl.DrawElements(gl.TRIANGLES, va.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (va *vertexArray) release() {
	if va.ebo != 0 {
		gl.DeleteBuffers(1, &va.ebo)
	}
	if va.vbo != 0 {
		gl.DeleteBuffers(1, &va.vbo)
	}
	if va.vao != 0 {
		gl.DeleteVertexArrays(1, &va.vao)
	}
	*va = vertexArray{}
}

// Scene is an uploaded Data. It implements control.Scene.
type Scene struct {
	dev gpu.Device

	transparent *vertexArray
	opaque      *vertexArray
	bounds      math.AABB

	Model          math.Mat4
	LightDirection math.Vec3
}

// New uploads data. It must be called with a current GL context.
func New(dev gpu.Device, data *Data) (*Scene, error) {
	if data.Transparent == nil {
		return nil, fmt.Errorf("scene: no transparent geometry")
	}
	s := &Scene{
		dev:            dev,
		transparent:    upload(data.Transparent),
		opaque:         &vertexArray{},
		bounds:         data.Bounds(),
		Model:          math.Identity(),
		LightDirection: DefaultLightDirection,
	}
	if data.Opaque != nil {
		s.opaque = upload(data.Opaque)
	}
	logger.Named("scene").Info("scene uploaded",
		zap.Int("transparentVertices", data.Transparent.VertexCount()),
		zap.Int32("transparentIndices", s.transparent.count),
		zap.Int32("opaqueIndices", s.opaque.count))
	return s, nil
}

// Bounds returns the world-space bounding box of all geometry.
func (s *Scene) Bounds() math.AABB {
	return s.bounds.Transformed(s.Model)
}

func (s *Scene) setObjectUniforms(rc shader.RenderContext) {
	s.dev.SetMat4(rc.Program, "modelMatrix", s.Model)
	s.dev.SetVec3(rc.Program, "lightDirection", s.LightDirection)
}

// DrawTransparent draws the tubes for a moment pass.
func (s *Scene) DrawTransparent(rc shader.RenderContext) error {
	s.setObjectUniforms(rc)
	s.transparent.draw()
	return nil
}

// DrawOpaque draws the ground plane.
func (s *Scene) DrawOpaque(rc shader.RenderContext) error {
	s.setObjectUniforms(rc)
	s.opaque.draw()
	return nil
}

// Release deletes the GL buffers.
func (s *Scene) Release() {
	s.transparent.release()
	s.opaque.release()
}
