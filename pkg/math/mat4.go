package math

import "github.com/chewxy/math32"

// Mat4 is stored column by column, the layout glUniformMatrix4fv expects
// with transpose false. Element (row r, column c) is m[4*c+r].
type Mat4 [16]float32

type Vec4 [4]float32

func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

func Scale(x, y, z float32) Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = x, y, z, 1
	return m
}

// Perspective maps view-space depths [-near, -far] to NDC [-1, 1].
// fovY is the full vertical angle in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	cot := 1 / math32.Tan(0.5*fovY)
	depth := near - far
	var m Mat4
	m[0] = cot / aspect
	m[5] = cot
	m[10] = (near + far) / depth
	m[11] = -1
	m[14] = 2 * near * far / depth
	return m
}

// Ortho is glOrtho: view-space depths [-near, -far] map to [-1, 1].
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	w, h, d := right-left, top-bottom, far-near
	m := Identity()
	m[0] = 2 / w
	m[5] = 2 / h
	m[10] = -2 / d
	m[12] = -(right + left) / w
	m[13] = -(top + bottom) / h
	m[14] = -(far + near) / d
	return m
}

// LookAt builds a right-handed view matrix; the camera looks down -Z.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	side := fwd.Cross(up).Normalize()
	camUp := side.Cross(fwd)

	m := Identity()
	for i, row := range [3]Vec3{side, camUp, fwd.Scale(-1)} {
		m[i], m[4+i], m[8+i] = row.X, row.Y, row.Z
		m[12+i] = -row.Dot(eye)
	}
	return m
}

// Mul returns m*n, so n is applied first.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[4*k+r] * n[4*c+k]
			}
			out[4*c+r] = sum
		}
	}
	return out
}

func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for c, x := range v {
		out[0] += m[4*c] * x
		out[1] += m[4*c+1] * x
		out[2] += m[4*c+2] * x
		out[3] += m[4*c+3] * x
	}
	return out
}

// TransformPoint applies m with w = 1 and divides by the resulting w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	v := m.MulVec4(Vec4{p.X, p.Y, p.Z, 1})
	if w := v[3]; w != 0 && w != 1 {
		return Vec3{v[0] / w, v[1] / w, v[2] / w}
	}
	return Vec3{v[0], v[1], v[2]}
}

// TransformDirection applies m with w = 0, ignoring translation.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	v := m.MulVec4(Vec4{d.X, d.Y, d.Z, 0})
	return Vec3{v[0], v[1], v[2]}
}

func (m *Mat4) Ptr() *float32 {
	return &m[0]
}

// Inverse uses the 2x2 sub-determinant expansion. A singular matrix
// yields the identity.
func (m Mat4) Inverse() Mat4 {
	a := func(r, c int) float32 { return m[4*c+r] }

	s0 := a(0, 0)*a(1, 1) - a(1, 0)*a(0, 1)
	s1 := a(0, 0)*a(1, 2) - a(1, 0)*a(0, 2)
	s2 := a(0, 0)*a(1, 3) - a(1, 0)*a(0, 3)
	s3 := a(0, 1)*a(1, 2) - a(1, 1)*a(0, 2)
	s4 := a(0, 1)*a(1, 3) - a(1, 1)*a(0, 3)
	s5 := a(0, 2)*a(1, 3) - a(1, 2)*a(0, 3)

	c5 := a(2, 2)*a(3, 3) - a(3, 2)*a(2, 3)
	c4 := a(2, 1)*a(3, 3) - a(3, 1)*a(2, 3)
	c3 := a(2, 1)*a(3, 2) - a(3, 1)*a(2, 2)
	c2 := a(2, 0)*a(3, 3) - a(3, 0)*a(2, 3)
	c1 := a(2, 0)*a(3, 2) - a(3, 0)*a(2, 2)
	c0 := a(2, 0)*a(3, 1) - a(3, 0)*a(2, 1)

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity()
	}
	k := 1 / det

	// rows[r][c] is element (r, c) of the inverse.
	rows := [4][4]float32{
		{
			a(1, 1)*c5 - a(1, 2)*c4 + a(1, 3)*c3,
			-a(0, 1)*c5 + a(0, 2)*c4 - a(0, 3)*c3,
			a(3, 1)*s5 - a(3, 2)*s4 + a(3, 3)*s3,
			-a(2, 1)*s5 + a(2, 2)*s4 - a(2, 3)*s3,
		},
		{
			-a(1, 0)*c5 + a(1, 2)*c2 - a(1, 3)*c1,
			a(0, 0)*c5 - a(0, 2)*c2 + a(0, 3)*c1,
			-a(3, 0)*s5 + a(3, 2)*s2 - a(3, 3)*s1,
			a(2, 0)*s5 - a(2, 2)*s2 + a(2, 3)*s1,
		},
		{
			a(1, 0)*c4 - a(1, 1)*c2 + a(1, 3)*c0,
			-a(0, 0)*c4 + a(0, 1)*c2 - a(0, 3)*c0,
			a(3, 0)*s4 - a(3, 1)*s2 + a(3, 3)*s0,
			-a(2, 0)*s4 + a(2, 1)*s2 - a(2, 3)*s0,
		},
		{
			-a(1, 0)*c3 + a(1, 1)*c1 - a(1, 2)*c0,
			a(0, 0)*c3 - a(0, 1)*c1 + a(0, 2)*c0,
			-a(3, 0)*s3 + a(3, 1)*s1 - a(3, 2)*s0,
			a(2, 0)*s3 - a(2, 1)*s1 + a(2, 2)*s0,
		},
	}

	var inv Mat4
	for r, row := range rows {
		for c, v := range row {
			inv[4*c+r] = v * k
		}
	}
	return inv
}
