// Package shader wraps linked GPU programs with cached uniform lookup.
package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
)

// Program is a linked vertex+fragment program.
type Program struct {
	dev  gpu.Device
	id   uint32
	name string
	locs map[string]int32
}

// New compiles and links a program. The name is used in errors and logs.
func New(dev gpu.Device, name, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("%s program: %w", name, err)
	}
	return &Program{dev: dev, id: id, name: name, locs: make(map[string]int32)}, nil
}

// ID returns the device handle, 0 after Destroy.
func (p *Program) ID() uint32 { return p.id }

// Name returns the program name given to New.
func (p *Program) Name() string { return p.name }

// Use makes the program current.
func (p *Program) Use() {
	p.dev.UseProgram(p.id)
}

// Location returns the uniform location for name, -1 if the uniform is
// inactive. Lookups are cached per program.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := p.dev.UniformLocation(p.id, name)
	p.locs[name] = loc
	return loc
}

func (p *Program) SetInt(name string, v int32) {
	p.dev.Uniform1i(p.Location(name), v)
}

func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.dev.Uniform1i(p.Location(name), i)
}

func (p *Program) SetFloat(name string, v float32) {
	p.dev.Uniform1f(p.Location(name), v)
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.dev.Uniform3f(p.Location(name), v[0], v[1], v[2])
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	p.dev.Uniform4f(p.Location(name), v[0], v[1], v[2], v[3])
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.dev.UniformMatrix4fv(p.Location(name), m)
}

// Destroy deletes the program. Safe to call more than once.
func (p *Program) Destroy() {
	if p == nil || p.id == 0 {
		return
	}
	p.dev.DeleteProgram(p.id)
	p.id = 0
	p.locs = make(map[string]int32)
}
