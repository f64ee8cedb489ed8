// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshspy/internal/logger"
)

// Config holds all viewer settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Render     RenderConfig     `yaml:"render"`
	Lighting   LightingConfig   `yaml:"lighting"`
	Loader     LoaderConfig     `yaml:"loader"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Logging    LoggingConfig    `yaml:"logging"`

	// ModelPath is the asset to open at startup. Set from the command line only.
	ModelPath string `yaml:"-"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// ViewerConfig holds interaction and environment settings.
type ViewerConfig struct {
	EnvironmentMap    string        `yaml:"environment_map"`
	AutoRotate        bool          `yaml:"auto_rotate"`
	AutoRotateSpeed   float32       `yaml:"auto_rotate_speed"` // degrees per second
	IdleDelay         time.Duration `yaml:"idle_delay"`
	Watch             bool          `yaml:"watch"`
	RotateSensitivity float32       `yaml:"rotate_sensitivity"`
	ZoomSensitivity   float32       `yaml:"zoom_sensitivity"`
}

// RenderConfig holds the initial material map toggles.
type RenderConfig struct {
	BaseColorMap bool `yaml:"base_color_map"`
	MetallicMap  bool `yaml:"metallic_map"`
	RoughnessMap bool `yaml:"roughness_map"`
	NormalMap    bool `yaml:"normal_map"`
	Wireframe    bool `yaml:"wireframe"`
}

// LightingConfig holds the key light parameters.
type LightingConfig struct {
	SunAzimuth   float32    `yaml:"sun_azimuth"`   // degrees
	SunElevation float32    `yaml:"sun_elevation"` // degrees
	SunColor     [3]float32 `yaml:"sun_color"`
	SunIntensity float32    `yaml:"sun_intensity"`
	Ambient      float32    `yaml:"ambient"`
}

// LoaderConfig holds asset import settings.
type LoaderConfig struct {
	MaxTextureSize int `yaml:"max_texture_size"` // 0 = unlimited
	DecodeWorkers  int `yaml:"decode_workers"`   // 0 = GOMAXPROCS
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or webp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:    1280,
			Height:   720,
			VSync:    true,
			FPSLimit: 60,
		},
		Viewer: ViewerConfig{
			AutoRotate:        true,
			AutoRotateSpeed:   30,
			IdleDelay:         3 * time.Second,
			RotateSensitivity: 0.01,
			ZoomSensitivity:   0.01,
		},
		Render: RenderConfig{
			BaseColorMap: true,
			MetallicMap:  true,
			RoughnessMap: true,
			NormalMap:    true,
		},
		Lighting: LightingConfig{
			SunAzimuth:   45,
			SunElevation: 50,
			SunColor:     [3]float32{1, 1, 1},
			SunIntensity: 3,
			Ambient:      1,
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("graphics: invalid window size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FPSLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("graphics: negative fps_limit %d", c.Graphics.FPSLimit))
	}
	if c.Viewer.IdleDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("viewer: negative idle_delay %s", c.Viewer.IdleDelay))
	}
	if c.Loader.MaxTextureSize < 0 {
		err = multierr.Append(err, fmt.Errorf("loader: negative max_texture_size %d", c.Loader.MaxTextureSize))
	}
	if c.Loader.DecodeWorkers < 0 {
		err = multierr.Append(err, fmt.Errorf("loader: negative decode_workers %d", c.Loader.DecodeWorkers))
	}
	switch c.Screenshot.Format {
	case "png", "webp":
	default:
		err = multierr.Append(err, fmt.Errorf("screenshot: unknown format %q", c.Screenshot.Format))
	}
	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging: %w", lerr))
	}
	return err
}

// FrameInterval returns the render tick derived from FPSLimit.
func (g GraphicsConfig) FrameInterval() time.Duration {
	if g.FPSLimit <= 0 {
		return 0
	}
	return time.Second / time.Duration(g.FPSLimit)
}
