package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/pkg/scene"
)

// FallbackMaterial is drawn when no model is loaded.
func FallbackMaterial() scene.MaterialRecord {
	m := scene.DefaultMaterial()
	m.Name = "fallback"
	m.BaseColorFactor = [4]float32{0.8, 0.2, 0.2, 1}
	m.MetallicFactor = 0
	m.RoughnessFactor = 0.5
	return m
}

// fallbackCube builds a unit cube centred on the origin with flat face
// normals and counter-clockwise outward winding.
func fallbackCube() *scene.Data {
	axes := []struct{ normal, u mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	data := scene.NewData()
	var sm scene.SubMesh
	for _, a := range axes {
		// u x v == normal keeps the corner order counter-clockwise.
		v := a.normal.Cross(a.u)
		base := uint32(len(sm.Vertices))
		for i, c := range corners {
			p := a.normal.Add(a.u.Mul(c[0])).Add(v.Mul(c[1])).Mul(0.5)
			sm.Vertices = append(sm.Vertices, scene.Vertex{
				Position: p,
				Normal:   a.normal,
				TexCoord: uvs[i],
			})
			data.Bounds.Extend(p)
		}
		sm.Indices = append(sm.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	data.Meshes = []scene.SubMesh{sm}
	data.Materials = []scene.MaterialRecord{FallbackMaterial()}
	data.Success = true
	return data
}

// quadVertices is the full-screen triangle strip: clip-space xy then uv.
var quadVertices = [...]float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	-1, 1, 0, 1,
	1, 1, 1, 1,
}
