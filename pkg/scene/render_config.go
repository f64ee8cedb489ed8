package scene

// RenderConfig selects which material maps are sampled and whether geometry
// is rasterized as wireframe. It only affects how a scene is drawn.
type RenderConfig struct {
	UseBaseColorMap bool
	UseMetallicMap  bool
	UseRoughnessMap bool
	UseNormalMap    bool
	Wireframe       bool
}

// DefaultRenderConfig enables every map with solid rasterization.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		UseBaseColorMap: true,
		UseMetallicMap:  true,
		UseRoughnessMap: true,
		UseNormalMap:    true,
	}
}
