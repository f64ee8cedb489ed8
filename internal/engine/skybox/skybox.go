// Package skybox owns the environment map and the cube it is drawn on.
package skybox

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/internal/engine/shader"
	"github.com/Faultbox/meshspy/internal/engine/texture"
)

// EnvironmentUnit is the texture unit the environment map is bound to.
const EnvironmentUnit = 4

// cubeVertices is a unit cube as 12 triangles, wound to face inwards.
var cubeVertices = [...]float32{
	-1, 1, -1, -1, -1, -1, 1, -1, -1,
	1, -1, -1, 1, 1, -1, -1, 1, -1,

	-1, -1, 1, -1, -1, -1, -1, 1, -1,
	-1, 1, -1, -1, 1, 1, -1, -1, 1,

	1, -1, -1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, -1, 1, -1, -1,

	-1, -1, 1, -1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, -1, 1, -1, -1, 1,

	-1, 1, -1, 1, 1, -1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, 1, -1,

	-1, -1, -1, -1, -1, 1, 1, -1, -1,
	1, -1, -1, -1, -1, 1, 1, -1, 1,
}

// CubeVertexCount is the number of vertices drawn per Draw.
const CubeVertexCount = int32(len(cubeVertices) / 3)

// Skybox holds the cube geometry and the equirectangular environment texture.
type Skybox struct {
	dev      gpu.Device
	vao, vbo uint32
	env      uint32
	envW     int
	envH     int
}

// New returns a skybox with no GPU objects; call Init before Draw.
func New(dev gpu.Device) *Skybox {
	return &Skybox{dev: dev}
}

// Init uploads the cube.
func (s *Skybox) Init() {
	if s.vao != 0 {
		return
	}
	d := s.dev
	s.vao = d.GenVertexArray()
	d.BindVertexArray(s.vao)
	s.vbo = d.GenBuffer()
	d.BindBuffer(gpu.ArrayBuffer, s.vbo)
	d.BufferData(gpu.ArrayBuffer, len(cubeVertices)*4, unsafe.Pointer(&cubeVertices[0]), gpu.StaticDraw)
	d.VertexAttribPointer(0, 3, gpu.Float, false, 3*4, 0)
	d.EnableVertexAttribArray(0)
	d.BindVertexArray(0)
}

// LoadHDR reads a Radiance file and makes it the environment map.
func (s *Skybox) LoadHDR(path string) error {
	img, err := texture.LoadHDR(path)
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	if !s.SetEnvironment(img) {
		return fmt.Errorf("loading environment %s: empty image", path)
	}
	return nil
}

// SetEnvironment replaces the environment texture. It reports false, and
// keeps the previous map, when img cannot be uploaded.
func (s *Skybox) SetEnvironment(img *texture.HDRImage) bool {
	tex := texture.UploadHDR(s.dev, img)
	if tex == 0 {
		return false
	}
	s.releaseEnvironment()
	s.env = tex
	s.envW, s.envH = img.Width, img.Height
	return true
}

func (s *Skybox) releaseEnvironment() {
	if s.env != 0 {
		s.dev.DeleteTexture(s.env)
		s.env = 0
		s.envW, s.envH = 0, 0
	}
}

// HasEnvironment reports whether an environment map is loaded.
func (s *Skybox) HasEnvironment() bool { return s.env != 0 }

// Texture returns the environment texture handle, 0 if none.
func (s *Skybox) Texture() uint32 { return s.env }

// MaxLod is the smallest mip level of the environment map.
func (s *Skybox) MaxLod() float32 {
	return float32(texture.MipLevels(s.envW, s.envH))
}

// BindEnvironment binds the environment map to EnvironmentUnit.
func (s *Skybox) BindEnvironment() {
	s.dev.ActiveTexture(gpu.Texture0 + EnvironmentUnit)
	s.dev.BindTexture(gpu.Texture2D, s.env)
}

// Draw renders the cube at maximum depth with prog already in use. The
// translation of view is discarded so the background never moves.
func (s *Skybox) Draw(prog *shader.Program, view, projection mgl32.Mat4) {
	if s.vao == 0 {
		return
	}
	prog.SetMat4("view", RotationOnly(view))
	prog.SetMat4("projection", projection)
	prog.SetInt("environmentMap", EnvironmentUnit)
	s.BindEnvironment()

	s.dev.DepthFunc(gpu.LessOrEqual)
	s.dev.BindVertexArray(s.vao)
	s.dev.DrawArrays(gpu.Triangles, 0, CubeVertexCount)
	s.dev.BindVertexArray(0)
	s.dev.DepthFunc(gpu.Less)
}

// RotationOnly keeps the upper 3x3 of m.
func RotationOnly(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mat3().Mat4()
}

// Destroy releases the cube and the environment map.
func (s *Skybox) Destroy() {
	s.releaseEnvironment()
	if s.vbo != 0 {
		s.dev.DeleteBuffer(s.vbo)
		s.vbo = 0
	}
	if s.vao != 0 {
		s.dev.DeleteVertexArray(s.vao)
		s.vao = 0
	}
}
