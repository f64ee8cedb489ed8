package formats

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
)

func ptr(i int) *int { return &i }

// docBuilder assembles a single-buffer glTF document in memory.
type docBuilder struct {
	doc *gltf.Document
	buf []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{Asset: gltf.Asset{Version: "2.0"}}}
}

// view appends data as a buffer view, 4-byte aligned.
func (b *docBuilder) view(data []byte, stride int) int {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.buf),
		ByteLength: len(data),
		ByteStride: stride,
	})
	b.buf = append(b.buf, data...)
	return len(b.doc.BufferViews) - 1
}

func (b *docBuilder) accessor(view, offset int, ct gltf.ComponentType, at gltf.AccessorType, count int) int {
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    ptr(view),
		ByteOffset:    offset,
		ComponentType: ct,
		Type:          at,
		Count:         count,
	})
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) vec3(data [][3]float32) int {
	return b.accessor(b.view(floatBytes(flatten3(data)...), 0), 0, gltf.ComponentFloat, gltf.AccessorVec3, len(data))
}

// mesh adds a mesh with the given primitives under a new root node of the
// default scene.
func (b *docBuilder) mesh(prims ...*gltf.Primitive) int {
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Primitives: prims})
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{Mesh: ptr(len(b.doc.Meshes) - 1)})
	node := len(b.doc.Nodes) - 1
	if len(b.doc.Scenes) == 0 {
		b.doc.Scenes = []*gltf.Scene{{}}
		b.doc.Scene = ptr(0)
	}
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, node)
	return node
}

func (b *docBuilder) finish() *gltf.Document {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.doc.Buffers = []*gltf.Buffer{{ByteLength: len(b.buf), Data: b.buf}}
	return b.doc
}

func triangle() [][3]float32 {
	return [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 2, -1}}
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, p := range v {
		out = append(out, p[:]...)
	}
	return out
}

func floatBytes(fs ...float32) []byte {
	out := make([]byte, 4*len(fs))
	for i, f := range fs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
