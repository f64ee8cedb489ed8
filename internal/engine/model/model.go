// Package model owns the GPU copies of an imported scene: one vertex array
// per submesh, the uploaded textures and the material table.
package model

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/internal/engine/shader"
	"github.com/Faultbox/meshspy/internal/engine/texture"
	"github.com/Faultbox/meshspy/pkg/scene"
)

// Texture units used by Draw. The geometry program's samplers must match.
const (
	UnitBaseColor         = 0
	UnitMetallicRoughness = 1
	UnitNormal            = 2
)

type mesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
	material      int
}

// Model is the renderable form of a scene.Data.
type Model struct {
	dev       gpu.Device
	meshes    []mesh
	textures  []uint32
	valid     []bool
	materials []scene.MaterialRecord
}

// New returns an empty model bound to dev.
func New(dev gpu.Device) *Model {
	return &Model{dev: dev}
}

// Create uploads data, replacing anything previously held. The CPU buffers
// of data are left untouched; callers may Release them afterwards.
func (m *Model) Create(data *scene.Data) {
	m.Clear()
	if data == nil {
		return
	}

	m.textures = make([]uint32, len(data.Textures))
	m.valid = make([]bool, len(data.Textures))
	for i, rec := range data.Textures {
		m.textures[i] = texture.Upload(m.dev, rec)
		m.valid[i] = m.textures[i] != 0
	}

	m.materials = append([]scene.MaterialRecord(nil), data.Materials...)

	for _, sm := range data.Meshes {
		if len(sm.Vertices) == 0 {
			continue
		}
		m.meshes = append(m.meshes, m.upload(sm))
	}
}

func (m *Model) upload(sm scene.SubMesh) mesh {
	d := m.dev
	out := mesh{material: sm.MaterialIndex}

	out.vao = d.GenVertexArray()
	d.BindVertexArray(out.vao)

	out.vbo = d.GenBuffer()
	d.BindBuffer(gpu.ArrayBuffer, out.vbo)
	d.BufferData(gpu.ArrayBuffer, len(sm.Vertices)*int(scene.VertexStride),
		unsafe.Pointer(&sm.Vertices[0]), gpu.StaticDraw)

	d.VertexAttribPointer(0, 3, gpu.Float, false, scene.VertexStride, scene.OffsetPosition)
	d.EnableVertexAttribArray(0)
	d.VertexAttribPointer(1, 3, gpu.Float, false, scene.VertexStride, scene.OffsetNormal)
	d.EnableVertexAttribArray(1)
	d.VertexAttribPointer(2, 2, gpu.Float, false, scene.VertexStride, scene.OffsetTexCoord)
	d.EnableVertexAttribArray(2)

	if len(sm.Indices) > 0 {
		out.ebo = d.GenBuffer()
		d.BindBuffer(gpu.ElementArrayBuffer, out.ebo)
		d.BufferData(gpu.ElementArrayBuffer, len(sm.Indices)*4,
			unsafe.Pointer(&sm.Indices[0]), gpu.StaticDraw)
		out.count = int32(len(sm.Indices))
		out.indexed = true
	} else {
		out.count = int32(len(sm.Vertices))
	}

	d.BindVertexArray(0)
	return out
}

// Draw issues one draw per submesh with prog already in use. Material
// factors are always set; each map is sampled only when cfg enables it and
// the referenced texture uploaded.
func (m *Model) Draw(prog *shader.Program, cfg scene.RenderConfig) {
	prog.SetInt("uBaseColorMap", UnitBaseColor)
	prog.SetInt("uMetallicRoughnessMap", UnitMetallicRoughness)
	prog.SetInt("uNormalMap", UnitNormal)

	for _, me := range m.meshes {
		mat := m.material(me.material)

		prog.SetVec4("uBaseColor", mgl32.Vec4(mat.BaseColorFactor))
		prog.SetFloat("uMetallic", mat.MetallicFactor)
		prog.SetFloat("uRoughness", mat.RoughnessFactor)

		hasBase := m.bind(UnitBaseColor, mat.BaseColorTexture)
		hasMR := m.bind(UnitMetallicRoughness, mat.MetallicRoughnessTexture)
		hasNormal := m.bind(UnitNormal, mat.NormalTexture)

		prog.SetBool("uUseBaseColorMap", cfg.UseBaseColorMap && hasBase)
		prog.SetBool("uUseMetallicMap", cfg.UseMetallicMap && hasMR)
		prog.SetBool("uUseRoughnessMap", cfg.UseRoughnessMap && hasMR)
		prog.SetBool("uUseNormalMap", cfg.UseNormalMap && hasNormal)

		m.dev.BindVertexArray(me.vao)
		if me.indexed {
			m.dev.DrawElements(gpu.Triangles, me.count, gpu.UnsignedInt, 0)
		} else {
			m.dev.DrawArrays(gpu.Triangles, 0, me.count)
		}
	}
	m.dev.BindVertexArray(0)
}

// bind attaches texture index to unit, or unbinds the unit when the index
// does not name an uploaded texture.
func (m *Model) bind(unit uint32, index int) bool {
	var tex uint32
	if index >= 0 && index < len(m.textures) && m.valid[index] {
		tex = m.textures[index]
	}
	m.dev.ActiveTexture(gpu.Texture0 + unit)
	m.dev.BindTexture(gpu.Texture2D, tex)
	return tex != 0
}

func (m *Model) material(index int) scene.MaterialRecord {
	if index < 0 || index >= len(m.materials) {
		return scene.DefaultMaterial()
	}
	return m.materials[index]
}

// MeshCount returns the number of uploaded submeshes.
func (m *Model) MeshCount() int { return len(m.meshes) }

// TextureCount returns the number of texture slots, placeholders included.
func (m *Model) TextureCount() int { return len(m.textures) }

// Materials returns the material table copied from the scene.
func (m *Model) Materials() []scene.MaterialRecord { return m.materials }

// Empty reports whether nothing is uploaded.
func (m *Model) Empty() bool { return len(m.meshes) == 0 }

// Clear deletes every GPU object the model owns.
func (m *Model) Clear() {
	for _, me := range m.meshes {
		if me.ebo != 0 {
			m.dev.DeleteBuffer(me.ebo)
		}
		m.dev.DeleteBuffer(me.vbo)
		m.dev.DeleteVertexArray(me.vao)
	}
	for _, tex := range m.textures {
		if tex != 0 {
			m.dev.DeleteTexture(tex)
		}
	}
	m.meshes = nil
	m.textures = nil
	m.valid = nil
	m.materials = nil
}

// Destroy is Clear; the model stays usable for a later Create.
func (m *Model) Destroy() { m.Clear() }
