package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/pkg/math"
)

type uniformKey struct {
	program gpu.Program
	name    string
}

type shaderStage struct {
	kind   uint32
	name   string
	source string
}

// NewProgram implements gpu.Device. The driver's compile or link log is
// part of the returned error.
func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	stages := [...]shaderStage{
		{gl.VERTEX_SHADER, "vertex", vertexSrc},
		{gl.FRAGMENT_SHADER, "fragment", fragmentSrc},
	}

	prog := gl.CreateProgram()
	for _, st := range stages {
		sh, err := compileStage(st)
		if err != nil {
			gl.DeleteProgram(prog)
			return 0, err
		}
		gl.AttachShader(prog, sh)
		// Freed together with the program.
		gl.DeleteShader(sh)
	}

	gl.LinkProgram(prog)
	if !succeeded(prog, gl.GetProgramiv, gl.LINK_STATUS) {
		msg := infoLog(prog, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("opengl: link: %s", msg)
	}
	return gpu.Program(prog), nil
}

func compileStage(st shaderStage) (uint32, error) {
	sh := gl.CreateShader(st.kind)
	src, free := gl.Strs(st.source + "\x00")
	gl.ShaderSource(sh, 1, src, nil)
	free()
	gl.CompileShader(sh)

	if !succeeded(sh, gl.GetShaderiv, gl.COMPILE_STATUS) {
		msg := infoLog(sh, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("opengl: %s shader: %s", st.name, msg)
	}
	return sh, nil
}

type (
	getIv      func(id, pname uint32, params *int32)
	getInfoLog func(id uint32, bufSize int32, length *int32, log *uint8)
)

func succeeded(id uint32, iv getIv, pname uint32) bool {
	var status int32
	iv(id, pname, &status)
	return status != gl.FALSE
}

func infoLog(id uint32, iv getIv, get getInfoLog) string {
	var n int32
	iv(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 1 {
		return "no info log"
	}
	buf := make([]byte, n)
	get(id, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\r\n ")
}

// DeleteProgram implements gpu.Device.
func (d *Device) DeleteProgram(p gpu.Program) {
	for k := range d.uniforms {
		if k.program == p {
			delete(d.uniforms, k)
		}
	}
	gl.DeleteProgram(uint32(p))
}

func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

// location looks uniforms up once per program. Names the linker dropped
// resolve to -1, which the ProgramUniform calls ignore.
func (d *Device) location(p gpu.Program, name string) (uint32, int32) {
	k := uniformKey{p, name}
	loc, ok := d.uniforms[k]
	if !ok {
		loc = gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
		d.uniforms[k] = loc
	}
	return uint32(p), loc
}

func (d *Device) SetInt(p gpu.Program, name string, v int32) {
	prog, loc := d.location(p, name)
	gl.ProgramUniform1i(prog, loc, v)
}

func (d *Device) SetFloat(p gpu.Program, name string, v float32) {
	prog, loc := d.location(p, name)
	gl.ProgramUniform1f(prog, loc, v)
}

func (d *Device) SetVec3(p gpu.Program, name string, v math.Vec3) {
	prog, loc := d.location(p, name)
	gl.ProgramUniform3f(prog, loc, v.X, v.Y, v.Z)
}

func (d *Device) SetVec4(p gpu.Program, name string, v [4]float32) {
	prog, loc := d.location(p, name)
	gl.ProgramUniform4fv(prog, loc, 1, &v[0])
}

func (d *Device) SetMat4(p gpu.Program, name string, m math.Mat4) {
	prog, loc := d.location(p, name)
	gl.ProgramUniformMatrix4fv(prog, loc, 1, false, m.Ptr())
}
