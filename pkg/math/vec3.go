// Package math holds the float32 vector and matrix types shared by the
// CPU geometry code and the uniforms uploaded to the GPU.
package math

import "github.com/chewxy/math32"

type Vec3 struct {
	X, Y, Z float32
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float32) Vec3 { return Vec3{s * a.X, s * a.Y, s * a.Z} }
func (a Vec3) Dot(b Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Length() float32 { return math32.Sqrt(a.Dot(a)) }

// Cross follows the right-hand rule: X cross Y is Z.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Normalize maps the zero vector to itself.
func (a Vec3) Normalize() Vec3 {
	if l := a.Length(); l > 0 {
		return a.Scale(1 / l)
	}
	return Vec3{}
}

// Min and Max work per component.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)}
}
