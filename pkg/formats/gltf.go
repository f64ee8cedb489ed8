package formats

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshspy/pkg/scene"
)

// GLTFOptions controls asset import.
type GLTFOptions struct {
	// MaxTextureSize downsamples images larger than this on either side.
	// Zero keeps the source resolution.
	MaxTextureSize int
	// Workers bounds concurrent image decoding. Zero means GOMAXPROCS.
	Workers int
	// Logger receives warnings about skipped data. Nil discards them.
	Logger *zap.Logger
}

func (o GLTFOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// DecodeGLTF imports the .gltf or .glb file at path. Any failure is returned
// as a *DecodeError and no scene is produced.
func DecodeGLTF(ctx context.Context, path string, opts GLTFOptions) (*scene.Data, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
	}

	data, err := DecodeDocument(ctx, doc, filepath.Dir(path), opts)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return data, nil
}

// DecodeDocument converts a parsed document. External image URIs are
// resolved against baseDir.
func DecodeDocument(ctx context.Context, doc *gltf.Document, baseDir string, opts GLTFOptions) (*scene.Data, error) {
	log := opts.logger()
	data := scene.NewData()

	textures, err := decodeTextures(ctx, doc, baseDir, opts)
	if err != nil {
		return nil, err
	}
	data.Textures = textures
	data.Materials = extractMaterials(doc)

	for _, nodeIdx := range walkNodes(doc, log) {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return nil, fmt.Errorf("node %d: %w", nodeIdx, ErrIndexOutOfRange)
		}
		node := doc.Nodes[nodeIdx]
		if node.Mesh == nil {
			continue
		}
		meshIdx := *node.Mesh
		if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
			return nil, fmt.Errorf("node %d: mesh %d: %w", nodeIdx, meshIdx, ErrIndexOutOfRange)
		}
		for p, prim := range doc.Meshes[meshIdx].Primitives {
			sub, ok, err := decodePrimitive(doc, prim, len(data.Materials), log)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, p, err)
			}
			if !ok {
				continue
			}
			for _, v := range sub.Vertices {
				data.Bounds.Extend(v.Position)
			}
			data.Meshes = append(data.Meshes, sub)
		}
	}

	data.Success = true
	return data, nil
}

// walkNodes returns the nodes of the default scene (or scene 0) in
// depth-first document order. Documents without scenes start from every node
// that is not a child. Nodes reached twice are visited once.
func walkNodes(doc *gltf.Document, log *zap.Logger) []int {
	roots := sceneRoots(doc)

	stack := make([]int, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	visited := make(map[int]bool, len(doc.Nodes))
	order := make([]int, 0, len(doc.Nodes))
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[n] {
			log.Warn("node reached twice, skipping", zap.Int("node", n))
			continue
		}
		visited[n] = true
		order = append(order, n)

		if n < 0 || n >= len(doc.Nodes) {
			continue
		}
		children := doc.Nodes[n].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}

func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// decodePrimitive builds one SubMesh. ok is false for primitives that carry
// nothing drawable as triangles.
func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive, materialCount int, log *zap.Logger) (scene.SubMesh, bool, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		log.Warn("skipping non-triangle primitive", zap.Any("mode", prim.Mode))
		return scene.SubMesh{}, false, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		log.Warn("skipping primitive without POSITION")
		return scene.SubMesh{}, false, nil
	}

	positions, err := readVec3(doc, posIdx)
	if err != nil {
		return scene.SubMesh{}, false, fmt.Errorf("POSITION: %w", err)
	}
	for i, p := range positions {
		if !scene.Finite(p) {
			return scene.SubMesh{}, false, fmt.Errorf("POSITION %d is %v: %w", i, p, ErrUnsupportedAccessor)
		}
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readVec3(doc, idx); err != nil {
			return scene.SubMesh{}, false, fmt.Errorf("NORMAL: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readVec2(doc, idx); err != nil {
			return scene.SubMesh{}, false, fmt.Errorf("TEXCOORD_0: %w", err)
		}
	}

	sub := scene.SubMesh{Vertices: make([]scene.Vertex, len(positions))}
	for i, p := range positions {
		v := scene.Vertex{
			Position: p,
			Normal:   scene.DefaultNormal,
			TexCoord: scene.DefaultTexCoord,
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		sub.Vertices[i] = v
	}

	if prim.Indices != nil {
		if sub.Indices, err = readIndices(doc, *prim.Indices); err != nil {
			return scene.SubMesh{}, false, fmt.Errorf("indices: %w", err)
		}
		for _, ix := range sub.Indices {
			if int(ix) >= len(sub.Vertices) {
				return scene.SubMesh{}, false, fmt.Errorf("vertex index %d of %d: %w", ix, len(sub.Vertices), ErrIndexOutOfRange)
			}
		}
	}

	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < materialCount {
		sub.MaterialIndex = *prim.Material
	}
	return sub, true, nil
}

// extractMaterials copies PBR factors and texture indices. A document
// without materials yields a single default material.
func extractMaterials(doc *gltf.Document) []scene.MaterialRecord {
	if len(doc.Materials) == 0 {
		return []scene.MaterialRecord{scene.DefaultMaterial()}
	}

	out := make([]scene.MaterialRecord, len(doc.Materials))
	for i, m := range doc.Materials {
		rec := scene.DefaultMaterial()
		rec.Name = m.Name
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			c := pbr.BaseColorFactorOrDefault()
			rec.BaseColorFactor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
			rec.MetallicFactor = float32(pbr.MetallicFactorOrDefault())
			rec.RoughnessFactor = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				rec.BaseColorTexture = pbr.BaseColorTexture.Index
			}
			if pbr.MetallicRoughnessTexture != nil {
				rec.MetallicRoughnessTexture = pbr.MetallicRoughnessTexture.Index
			}
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			rec.NormalTexture = *m.NormalTexture.Index
		}
		out[i] = rec
	}
	return out
}

// decodeTextures returns one record per document texture, in order. Each
// distinct image is decoded once, concurrently. Textures whose image is
// missing or undecodable become placeholders.
func decodeTextures(ctx context.Context, doc *gltf.Document, baseDir string, opts GLTFOptions) ([]scene.TextureRecord, error) {
	if len(doc.Textures) == 0 {
		return nil, nil
	}
	log := opts.logger()

	images := make([]scene.TextureRecord, len(doc.Images))
	needed := make([]bool, len(doc.Images))
	for _, t := range doc.Textures {
		if t.Source != nil && *t.Source >= 0 && *t.Source < len(doc.Images) {
			needed[*t.Source] = true
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range doc.Images {
		if !needed[i] {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img := doc.Images[i]
			rec, err := loadImageSafe(doc, img, baseDir, opts.MaxTextureSize)
			if err != nil {
				log.Warn("image not decoded, using placeholder",
					zap.Int("image", i), zap.String("name", img.Name), zap.Error(err))
				rec = scene.TextureRecord{Name: img.Name}
			}
			images[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]scene.TextureRecord, len(doc.Textures))
	for i, t := range doc.Textures {
		if t.Source == nil || *t.Source < 0 || *t.Source >= len(images) {
			log.Warn("texture has no valid source", zap.Int("texture", i))
			out[i] = scene.TextureRecord{Name: t.Name}
			continue
		}
		out[i] = images[*t.Source]
	}
	return out, nil
}

// loadImageSafe is loadImage with decoder panics on malformed image data
// returned as errors.
func loadImageSafe(doc *gltf.Document, img *gltf.Image, baseDir string, maxSize int) (rec scene.TextureRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = scene.TextureRecord{}, fmt.Errorf("%w: decoder panicked: %v", ErrUnsupportedImage, r)
		}
	}()
	return loadImage(doc, img, baseDir, maxSize)
}

func loadImage(doc *gltf.Document, img *gltf.Image, baseDir string, maxSize int) (scene.TextureRecord, error) {
	raw, err := imageBytes(doc, img, baseDir)
	if err != nil {
		return scene.TextureRecord{}, err
	}
	decoded, _, err := decodeImage(raw, img.MimeType, img.URI)
	if err != nil {
		return scene.TextureRecord{}, err
	}
	name := img.Name
	if name == "" {
		name = img.URI
	}
	return toTextureRecord(decoded, name, maxSize), nil
}

func imageBytes(doc *gltf.Document, img *gltf.Image, baseDir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		idx := *img.BufferView
		if idx < 0 || idx >= len(doc.BufferViews) {
			return nil, fmt.Errorf("image buffer view %d: %w", idx, ErrIndexOutOfRange)
		}
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[idx])
		if err != nil {
			return nil, fmt.Errorf("image buffer view %d: %w: %w", idx, ErrAccessorBounds, err)
		}
		return raw, nil
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			name = img.URI
		}
		if filepath.IsAbs(name) || strings.Contains(name, "://") {
			return nil, fmt.Errorf("image uri %q: only relative paths are resolved", img.URI)
		}
		return os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(name)))
	default:
		return nil, fmt.Errorf("image has neither uri nor buffer view")
	}
}
