package formats

import (
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/meshspy/pkg/scene"
)

func decode(t *testing.T, doc *gltf.Document) *scene.Data {
	t.Helper()
	data, err := DecodeDocument(context.Background(), doc, t.TempDir(), GLTFOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return data
}

func TestDecodePositionsOnly(t *testing.T) {
	b := newDocBuilder()
	pos := b.vec3(triangle())
	b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})

	data := decode(t, b.finish())

	if !data.Success {
		t.Fatal("expected success")
	}
	if len(data.Meshes) != 1 {
		t.Fatalf("expected 1 submesh, got %d", len(data.Meshes))
	}
	sub := data.Meshes[0]
	if len(sub.Vertices) != 3 {
		t.Errorf("vertex count should equal POSITION count, got %d", len(sub.Vertices))
	}
	for i, v := range sub.Vertices {
		if v.Position != triangle()[i] {
			t.Errorf("vertex %d position %v", i, v.Position)
		}
		if v.Normal != [3]float32{0, 1, 0} {
			t.Errorf("vertex %d: expected default normal, got %v", i, v.Normal)
		}
		if v.TexCoord != [2]float32{0, 0} {
			t.Errorf("vertex %d: expected default uv, got %v", i, v.TexCoord)
		}
	}
	if len(sub.Indices) != 0 {
		t.Errorf("expected non-indexed submesh, got %d indices", len(sub.Indices))
	}

	if len(data.Materials) != 1 || data.Materials[0] != scene.DefaultMaterial() {
		t.Errorf("expected one default material, got %+v", data.Materials)
	}
	if sub.MaterialIndex != 0 {
		t.Errorf("expected material 0, got %d", sub.MaterialIndex)
	}

	if data.Bounds.Min != [3]float32{0, 0, -1} || data.Bounds.Max != [3]float32{1, 2, 0} {
		t.Errorf("unexpected bounds %+v", data.Bounds)
	}
	for i := 0; i < 3; i++ {
		if data.Bounds.Min[i] > data.Bounds.Max[i] {
			t.Errorf("axis %d: min > max", i)
		}
	}
}

func TestDecodeInterleavedStride(t *testing.T) {
	type vtx struct {
		pos, nrm [3]float32
		uv       [2]float32
	}
	verts := []vtx{
		{[3]float32{0, 0, 0}, [3]float32{0, 0, 1}, [2]float32{0, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, 1}, [2]float32{1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{0, 0, 1}, [2]float32{0, 1}},
	}
	var raw []byte
	for _, v := range verts {
		raw = append(raw, floatBytes(v.pos[0], v.pos[1], v.pos[2], v.nrm[0], v.nrm[1], v.nrm[2], v.uv[0], v.uv[1])...)
	}

	b := newDocBuilder()
	view := b.view(raw, 32)
	pos := b.accessor(view, 0, gltf.ComponentFloat, gltf.AccessorVec3, 3)
	nrm := b.accessor(view, 12, gltf.ComponentFloat, gltf.AccessorVec3, 3)
	uv := b.accessor(view, 24, gltf.ComponentFloat, gltf.AccessorVec2, 3)
	idx := b.accessor(b.view([]byte{2, 1, 0}, 0), 0, gltf.ComponentUbyte, gltf.AccessorScalar, 3)
	b.mesh(&gltf.Primitive{
		Mode:       gltf.PrimitiveTriangles,
		Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm, gltf.TEXCOORD_0: uv},
		Indices:    ptr(idx),
	})

	data := decode(t, b.finish())
	sub := data.Meshes[0]
	for i, v := range verts {
		got := sub.Vertices[i]
		if got.Position != v.pos || got.Normal != v.nrm || got.TexCoord != v.uv {
			t.Errorf("vertex %d: got %+v, want %+v", i, got, v)
		}
	}
	if !reflect.DeepEqual(sub.Indices, []uint32{2, 1, 0}) {
		t.Errorf("unexpected indices %v", sub.Indices)
	}
}

func TestDecodeIndexWidths(t *testing.T) {
	u16 := func(vals ...uint16) []byte {
		out := make([]byte, 2*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
		return out
	}
	u32 := func(vals ...uint32) []byte {
		out := make([]byte, 4*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		return out
	}

	tests := []struct {
		name   string
		data   []byte
		stride int
		ct     gltf.ComponentType
	}{
		{"uint8", []byte{0, 1, 2}, 0, gltf.ComponentUbyte},
		{"uint16", u16(0, 1, 2), 0, gltf.ComponentUshort},
		{"uint32", u32(0, 1, 2), 0, gltf.ComponentUint},
		{"uint16 strided", []byte{0, 0, 0xff, 0xff, 1, 0, 0xff, 0xff, 2, 0}, 4, gltf.ComponentUshort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDocBuilder()
			pos := b.vec3(triangle())
			idx := b.accessor(b.view(tt.data, tt.stride), 0, tt.ct, gltf.AccessorScalar, 3)
			b.mesh(&gltf.Primitive{
				Mode:       gltf.PrimitiveTriangles,
				Attributes: map[string]int{gltf.POSITION: pos},
				Indices:    ptr(idx),
			})

			data := decode(t, b.finish())
			if got := data.Meshes[0].Indices; !reflect.DeepEqual(got, []uint32{0, 1, 2}) {
				t.Errorf("got indices %v", got)
			}
		})
	}
}

func TestDecodeNormalizedTexCoords(t *testing.T) {
	b := newDocBuilder()
	pos := b.vec3(triangle())
	uv := b.accessor(b.view([]byte{0, 0, 255, 0, 0, 255}, 0), 0, gltf.ComponentUbyte, gltf.AccessorVec2, 3)
	b.doc.Accessors[uv].Normalized = true
	b.mesh(&gltf.Primitive{
		Mode:       gltf.PrimitiveTriangles,
		Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
	})

	data := decode(t, b.finish())
	want := [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	for i, v := range data.Meshes[0].Vertices {
		if v.TexCoord != want[i] {
			t.Errorf("vertex %d: uv %v, want %v", i, v.TexCoord, want[i])
		}
	}
}

func TestDecodeSparse(t *testing.T) {
	tests := []struct {
		name   string
		backed bool
		want   [][3]float32
	}{
		{"over buffer view", true, [][3]float32{{0, 0, 0}, {5, 5, 5}, {0, 2, -1}}},
		{"without buffer view", false, [][3]float32{{0, 0, 0}, {5, 5, 5}, {0, 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDocBuilder()
			pos := b.vec3(triangle())
			if !tt.backed {
				b.doc.Accessors[pos].BufferView = nil
			}
			b.doc.Accessors[pos].Sparse = &gltf.Sparse{
				Count:   1,
				Indices: gltf.SparseIndices{BufferView: b.view([]byte{1}, 0), ComponentType: gltf.ComponentUbyte},
				Values:  gltf.SparseValues{BufferView: b.view(floatBytes(5, 5, 5), 0)},
			}
			b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})

			data := decode(t, b.finish())
			for i, v := range data.Meshes[0].Vertices {
				if v.Position != tt.want[i] {
					t.Errorf("vertex %d: position %v, want %v", i, v.Position, tt.want[i])
				}
			}
			if data.Bounds.Max != [3]float32{5, 5, 5} {
				t.Errorf("bounds should include the sparse override, got %+v", data.Bounds)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *docBuilder)
		wantErr error
	}{
		{
			name: "accessor past view",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				b.doc.Accessors[pos].Count = 4
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "missing accessor",
			build: func(b *docBuilder) {
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: 7}})
			},
			wantErr: ErrIndexOutOfRange,
		},
		{
			name: "integer positions",
			build: func(b *docBuilder) {
				pos := b.accessor(b.view(make([]byte, 36), 0), 0, gltf.ComponentUint, gltf.AccessorVec3, 3)
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrUnsupportedAccessor,
		},
		{
			name: "index past vertex count",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				idx := b.accessor(b.view([]byte{0, 1, 9}, 0), 0, gltf.ComponentUbyte, gltf.AccessorScalar, 3)
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}, Indices: ptr(idx)})
			},
			wantErr: ErrIndexOutOfRange,
		},
		{
			name: "count overflows stride arithmetic",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				b.doc.Accessors[pos].Count = 1<<62 + 1
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "huge count without buffer view",
			build: func(b *docBuilder) {
				b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
					ComponentType: gltf.ComponentFloat,
					Type:          gltf.AccessorVec3,
					Count:         1 << 40,
				})
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: len(b.doc.Accessors) - 1}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "zero count",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				b.doc.Accessors[pos].Count = 0
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "offset past view",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				b.doc.Accessors[pos].ByteOffset = 64
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "sparse values past view",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				b.doc.Accessors[pos].Sparse = &gltf.Sparse{
					Count:   2,
					Indices: gltf.SparseIndices{BufferView: b.view([]byte{0, 1}, 0), ComponentType: gltf.ComponentUbyte},
					Values:  gltf.SparseValues{BufferView: b.view(floatBytes(1, 1, 1), 0)},
				}
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrAccessorBounds,
		},
		{
			name: "non-finite position",
			build: func(b *docBuilder) {
				nan := float32(math.NaN())
				pos := b.vec3([][3]float32{{0, 0, 0}, {nan, 0, 0}, {0, 1, 0}})
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})
			},
			wantErr: ErrUnsupportedAccessor,
		},
		{
			name: "integer texcoords not normalized",
			build: func(b *docBuilder) {
				pos := b.vec3(triangle())
				uv := b.accessor(b.view([]byte{0, 0, 255, 0, 0, 255}, 0), 0, gltf.ComponentUbyte, gltf.AccessorVec2, 3)
				b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv}})
			},
			wantErr: ErrUnsupportedAccessor,
		},
		{
			name: "node references missing mesh",
			build: func(b *docBuilder) {
				b.doc.Nodes = []*gltf.Node{{Mesh: ptr(3)}}
				b.doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
			},
			wantErr: ErrIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDocBuilder()
			tt.build(b)
			data, err := DecodeDocument(context.Background(), b.finish(), "", GLTFOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if data != nil {
				t.Error("no scene should be produced on error")
			}
		})
	}
}

func TestDecodeMaterials(t *testing.T) {
	b := newDocBuilder()
	metal, rough := 0.25, 0.75
	b.doc.Materials = []*gltf.Material{
		{
			Name: "painted",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor:          &[4]float64{0.5, 0.25, 1, 1},
				MetallicFactor:           &metal,
				RoughnessFactor:          &rough,
				BaseColorTexture:         &gltf.TextureInfo{Index: 0},
				MetallicRoughnessTexture: &gltf.TextureInfo{Index: 1},
			},
			NormalTexture: &gltf.NormalTexture{Index: ptr(2)},
		},
		{Name: "bare"},
	}
	pos := b.vec3(triangle())
	b.mesh(
		&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}, Material: ptr(1)},
		&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}, Material: ptr(12)},
	)

	data := decode(t, b.finish())
	if len(data.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(data.Materials))
	}

	m := data.Materials[0]
	if m.BaseColorFactor != [4]float32{0.5, 0.25, 1, 1} {
		t.Errorf("base color %v", m.BaseColorFactor)
	}
	if m.MetallicFactor != 0.25 || m.RoughnessFactor != 0.75 {
		t.Errorf("factors %f/%f", m.MetallicFactor, m.RoughnessFactor)
	}
	if m.BaseColorTexture != 0 || m.MetallicRoughnessTexture != 1 || m.NormalTexture != 2 {
		t.Errorf("texture indices %d/%d/%d", m.BaseColorTexture, m.MetallicRoughnessTexture, m.NormalTexture)
	}

	bare := data.Materials[1]
	want := scene.DefaultMaterial()
	want.Name = "bare"
	if bare != want {
		t.Errorf("material without pbr block should use defaults, got %+v", bare)
	}

	if data.Meshes[0].MaterialIndex != 1 {
		t.Errorf("expected material 1, got %d", data.Meshes[0].MaterialIndex)
	}
	if data.Meshes[1].MaterialIndex != 0 {
		t.Errorf("out-of-range material should fall back to 0, got %d", data.Meshes[1].MaterialIndex)
	}
}

func TestDecodeTextures(t *testing.T) {
	b := newDocBuilder()

	rgba := b.view(pngBytes(t, solidRGBA(4, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 255})), 0)
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	grayView := b.view(pngBytes(t, gray), 0)
	junk := b.view([]byte("definitely not an image"), 0)

	b.doc.Images = []*gltf.Image{
		{Name: "albedo", MimeType: "image/png", BufferView: ptr(rgba)},
		{Name: "mask", MimeType: "image/png", BufferView: ptr(grayView)},
		{Name: "junk", MimeType: "image/png", BufferView: ptr(junk)},
	}
	b.doc.Textures = []*gltf.Texture{
		{Source: ptr(0)},
		{Source: ptr(1)},
		{Source: ptr(2)},
		{},
		{Source: ptr(0)},
	}
	pos := b.vec3(triangle())
	b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})

	data := decode(t, b.finish())
	if len(data.Textures) != 5 {
		t.Fatalf("texture list should stay positional, got %d", len(data.Textures))
	}

	albedo := data.Textures[0]
	if albedo.Width != 4 || albedo.Height != 2 || albedo.Channels != 4 || len(albedo.Pixels) != 32 {
		t.Errorf("unexpected albedo record %dx%dx%d (%d bytes)", albedo.Width, albedo.Height, albedo.Channels, len(albedo.Pixels))
	}
	if albedo.Pixels[0] != 200 || albedo.Pixels[1] != 100 || albedo.Pixels[2] != 50 || albedo.Pixels[3] != 255 {
		t.Errorf("unexpected first pixel %v", albedo.Pixels[:4])
	}
	if data.Textures[1].Channels != 1 {
		t.Errorf("gray image should have 1 channel, got %d", data.Textures[1].Channels)
	}
	for _, i := range []int{2, 3} {
		if data.Textures[i].Valid() {
			t.Errorf("texture %d should be a placeholder", i)
		}
	}
	if !data.Textures[4].Valid() {
		t.Error("shared image should decode for every texture using it")
	}
}

func TestDecodeMaxTextureSize(t *testing.T) {
	b := newDocBuilder()
	v := b.view(pngBytes(t, solidRGBA(64, 32, color.NRGBA{R: 10, G: 20, B: 30, A: 255})), 0)
	b.doc.Images = []*gltf.Image{{BufferView: ptr(v)}}
	b.doc.Textures = []*gltf.Texture{{Source: ptr(0)}}

	data, err := DecodeDocument(context.Background(), b.finish(), "", GLTFOptions{MaxTextureSize: 16, Workers: 1})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tex := data.Textures[0]
	if tex.Width != 16 || tex.Height != 8 {
		t.Errorf("expected 16x8, got %dx%d", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != 16*8*4 {
		t.Errorf("unexpected pixel count %d", len(tex.Pixels))
	}
}

func TestDecodeExternalImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "wood grain.png"), pngBytes(t, solidRGBA(2, 2, color.NRGBA{A: 255})), 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	b := newDocBuilder()
	b.doc.Images = []*gltf.Image{{URI: "wood%20grain.png"}}
	b.doc.Textures = []*gltf.Texture{{Source: ptr(0)}}

	data, err := DecodeDocument(context.Background(), b.finish(), dir, GLTFOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !data.Textures[0].Valid() {
		t.Error("external image should be resolved relative to the asset")
	}
}

func TestDecodeCanceled(t *testing.T) {
	b := newDocBuilder()
	v := b.view(pngBytes(t, solidRGBA(2, 2, color.NRGBA{A: 255})), 0)
	b.doc.Images = []*gltf.Image{{BufferView: ptr(v)}}
	b.doc.Textures = []*gltf.Texture{{Source: ptr(0)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DecodeDocument(ctx, b.finish(), "", GLTFOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSceneTraversal(t *testing.T) {
	b := newDocBuilder()
	pos := b.vec3(triangle())
	prim := func() *gltf.Primitive {
		return &gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}}
	}
	b.doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{prim()}}}
	// 0 -> {1, 2}, 1 -> {2}: node 2 is shared and must be drawn once.
	b.doc.Nodes = []*gltf.Node{
		{Children: []int{1, 2}},
		{Mesh: ptr(0), Children: []int{2}},
		{Mesh: ptr(0)},
		{Mesh: ptr(0)},
	}
	b.doc.Scenes = []*gltf.Scene{{Nodes: []int{3}}, {Nodes: []int{0}}}
	b.doc.Scene = ptr(1)

	data := decode(t, b.finish())
	if len(data.Meshes) != 2 {
		t.Errorf("expected 2 submeshes from scene 1, got %d", len(data.Meshes))
	}
}

func TestSceneRootsWithoutScenes(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Children: []int{2}},
			{},
			{},
		},
	}
	got := sceneRoots(doc)
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("expected roots [0 1], got %v", got)
	}
}

func TestSkipNonTrianglePrimitives(t *testing.T) {
	b := newDocBuilder()
	pos := b.vec3(triangle())
	b.mesh(
		&gltf.Primitive{Mode: gltf.PrimitiveLines, Attributes: map[string]int{gltf.POSITION: pos}},
		&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{}},
		&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}},
	)

	data := decode(t, b.finish())
	if len(data.Meshes) != 1 {
		t.Errorf("expected only the triangle primitive with positions, got %d", len(data.Meshes))
	}
}

func writeGLB(t *testing.T, dir string) string {
	t.Helper()
	b := newDocBuilder()
	pos := b.vec3(triangle())
	nrm := b.vec3([][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	idx := b.accessor(b.view([]byte{0, 1, 2}, 0), 0, gltf.ComponentUbyte, gltf.AccessorScalar, 3)
	b.mesh(&gltf.Primitive{
		Mode:       gltf.PrimitiveTriangles,
		Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm},
		Indices:    ptr(idx),
	})

	path := filepath.Join(dir, "triangle.glb")
	if err := gltf.SaveBinary(b.finish(), path); err != nil {
		t.Fatalf("save glb: %v", err)
	}
	return path
}

func TestDecodeGLTFFileDeterministic(t *testing.T) {
	path := writeGLB(t, t.TempDir())

	first, err := DecodeGLTF(context.Background(), path, GLTFOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := DecodeGLTF(context.Background(), path, GLTFOptions{})
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("decoding the same file twice should give identical scenes")
	}
	if n := len(first.Meshes[0].Vertices); n != 3 {
		t.Errorf("expected 3 vertices, got %d", n)
	}
}

func TestDecodeGLTFCorrupt(t *testing.T) {
	dir := t.TempDir()
	valid, err := os.ReadFile(writeGLB(t, dir))
	if err != nil {
		t.Fatalf("read glb: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("this is not a scene file")},
		{"truncated glb", valid[:30]},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".glb")
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			data, err := DecodeGLTF(context.Background(), path, GLTFOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			if data != nil {
				t.Error("no scene should be produced for a corrupt asset")
			}
			var derr *DecodeError
			if !errors.As(err, &derr) || derr.Path != path {
				t.Errorf("expected DecodeError for %s, got %v", path, err)
			}
			if !errors.Is(err, ErrOpen) {
				t.Errorf("expected ErrOpen, got %v", err)
			}
		})
	}

	if _, err := DecodeGLTF(context.Background(), filepath.Join(dir, "missing.glb"), GLTFOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeGLTFHostileCount(t *testing.T) {
	b := newDocBuilder()
	pos := b.vec3(triangle())
	b.doc.Accessors[pos].Count = 1<<62 + 1
	b.mesh(&gltf.Primitive{Mode: gltf.PrimitiveTriangles, Attributes: map[string]int{gltf.POSITION: pos}})

	path := filepath.Join(t.TempDir(), "hostile.glb")
	if err := gltf.SaveBinary(b.finish(), path); err != nil {
		t.Fatalf("save glb: %v", err)
	}

	data, err := DecodeGLTF(context.Background(), path, GLTFOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if data != nil {
		t.Error("no scene should be produced")
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("expected DecodeError, got %v", err)
	}
}

func TestLoadImageRecoversPanic(t *testing.T) {
	// A nil document makes the buffer view lookup panic.
	_, err := loadImageSafe(nil, &gltf.Image{BufferView: ptr(0)}, "", 0)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 0, 100, 50},
		{100, 50, 200, 100, 50},
		{100, 50, 20, 20, 10},
		{50, 100, 20, 10, 20},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d,%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}
