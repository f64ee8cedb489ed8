package viewer

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/config"
	"github.com/Faultbox/meshspy/internal/engine/lighting"
	"github.com/Faultbox/meshspy/internal/engine/renderer"
	"github.com/Faultbox/meshspy/internal/loader"
	"github.com/Faultbox/meshspy/pkg/scene"
)

// Options configure a View.
type Options struct {
	Renderer renderer.Options
	Loader   loader.Options

	AutoRotate        bool
	AutoRotateSpeed   float32 // degrees per second
	IdleDelay         time.Duration
	RotateSensitivity float32
	ZoomSensitivity   float32

	// Watch reloads the current model when it changes on disk.
	Watch bool

	ScreenshotDir    string
	ScreenshotFormat string

	Logger *zap.Logger
}

// OptionsFromConfig maps the application config onto view options.
func OptionsFromConfig(cfg *config.Config) Options {
	l := cfg.Lighting
	return Options{
		Renderer: renderer.Options{
			EnvironmentMap: cfg.Viewer.EnvironmentMap,
			Sun: lighting.Sun{
				Azimuth:   l.SunAzimuth,
				Elevation: l.SunElevation,
				Color:     mgl32.Vec3(l.SunColor),
				Intensity: l.SunIntensity,
				Ambient:   l.Ambient,
			},
			Config: scene.RenderConfig{
				UseBaseColorMap: cfg.Render.BaseColorMap,
				UseMetallicMap:  cfg.Render.MetallicMap,
				UseRoughnessMap: cfg.Render.RoughnessMap,
				UseNormalMap:    cfg.Render.NormalMap,
				Wireframe:       cfg.Render.Wireframe,
			},
		},
		Loader: loader.Options{
			MaxTextureSize: cfg.Loader.MaxTextureSize,
			Workers:        cfg.Loader.DecodeWorkers,
		},
		AutoRotate:        cfg.Viewer.AutoRotate,
		AutoRotateSpeed:   cfg.Viewer.AutoRotateSpeed,
		IdleDelay:         cfg.Viewer.IdleDelay,
		RotateSensitivity: cfg.Viewer.RotateSensitivity,
		ZoomSensitivity:   cfg.Viewer.ZoomSensitivity,
		Watch:             cfg.Viewer.Watch,
		ScreenshotDir:     cfg.Screenshot.Dir,
		ScreenshotFormat:  cfg.Screenshot.Format,
	}
}
