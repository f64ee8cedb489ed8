// Package scene holds the flat, GPU-uploadable description of an imported asset.
package scene

import "unsafe"

// Vertex is the interleaved per-vertex record uploaded to the GPU.
// Attribute offsets are 0 (position), 12 (normal) and 24 (texcoord).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = int32(unsafe.Sizeof(Vertex{}))

// Attribute byte offsets within Vertex.
const (
	OffsetPosition = uintptr(unsafe.Offsetof(Vertex{}.Position))
	OffsetNormal   = uintptr(unsafe.Offsetof(Vertex{}.Normal))
	OffsetTexCoord = uintptr(unsafe.Offsetof(Vertex{}.TexCoord))
)

// Default attribute values for primitives that omit them.
var (
	DefaultNormal   = [3]float32{0, 1, 0}
	DefaultTexCoord = [2]float32{0, 0}
)

// TextureRecord is a decoded image. An empty Pixels slice marks a placeholder
// kept so that texture indices stay positional.
type TextureRecord struct {
	Name     string
	Width    int
	Height   int
	Channels int // 1, 3 or 4
	Pixels   []byte
}

// Valid reports whether the record holds uploadable pixel data.
func (t TextureRecord) Valid() bool {
	return len(t.Pixels) > 0 && t.Width > 0 && t.Height > 0 &&
		len(t.Pixels) >= t.Width*t.Height*t.Channels
}

// NoTexture marks an absent texture reference.
const NoTexture = -1

// MaterialRecord holds the PBR metallic-roughness parameters of a material.
type MaterialRecord struct {
	Name                     string
	BaseColorFactor          [4]float32
	MetallicFactor           float32
	RoughnessFactor          float32
	BaseColorTexture         int
	MetallicRoughnessTexture int
	NormalTexture            int
}

// DefaultMaterial returns white, fully metallic, fully rough, untextured.
func DefaultMaterial() MaterialRecord {
	return MaterialRecord{
		BaseColorFactor:          [4]float32{1, 1, 1, 1},
		MetallicFactor:           1,
		RoughnessFactor:          1,
		BaseColorTexture:         NoTexture,
		MetallicRoughnessTexture: NoTexture,
		NormalTexture:            NoTexture,
	}
}

// SubMesh is one drawable primitive. An empty Indices slice means the
// vertices are drawn as a plain triangle list.
type SubMesh struct {
	Vertices      []Vertex
	Indices       []uint32
	MaterialIndex int
}

// Data is the result of importing one asset.
type Data struct {
	Meshes    []SubMesh
	Materials []MaterialRecord
	Textures  []TextureRecord
	Bounds    Bounds
	Success   bool
	Error     string
}

// NewData returns an empty scene with inverted bounds ready for Extend.
func NewData() *Data {
	return &Data{Bounds: EmptyBounds()}
}

// Material returns the material at index, or the default material when the
// index is out of range.
func (d *Data) Material(index int) MaterialRecord {
	if index < 0 || index >= len(d.Materials) {
		return DefaultMaterial()
	}
	return d.Materials[index]
}

// Stats summarises the size of a scene.
type Stats struct {
	Meshes    int
	Vertices  int
	Triangles int
	Materials int
	Textures  int
}

// Stats counts meshes, vertices and triangles.
func (d *Data) Stats() Stats {
	s := Stats{
		Meshes:    len(d.Meshes),
		Materials: len(d.Materials),
		Textures:  len(d.Textures),
	}
	for _, m := range d.Meshes {
		s.Vertices += len(m.Vertices)
		if len(m.Indices) > 0 {
			s.Triangles += len(m.Indices) / 3
		} else {
			s.Triangles += len(m.Vertices) / 3
		}
	}
	return s
}

// Release drops the CPU-side vertex, index and pixel buffers once they have
// been uploaded. Materials, bounds and counts of textures are kept.
func (d *Data) Release() {
	d.Meshes = nil
	for i := range d.Textures {
		d.Textures[i].Pixels = nil
	}
}
