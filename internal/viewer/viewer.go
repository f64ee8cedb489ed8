// Package viewer ties the camera, the deferred renderer and the background
// loader into one interactive view driven by a frame tick.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/engine/camera"
	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/internal/engine/renderer"
	"github.com/Faultbox/meshspy/internal/engine/screenshot"
	"github.com/Faultbox/meshspy/internal/loader"
	"github.com/Faultbox/meshspy/internal/logger"
	"github.com/Faultbox/meshspy/pkg/scene"
)

// WheelStep is the scroll delta of one wheel notch, in eighths of a degree.
const WheelStep = 120

// MouseButton identifies a pointer button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
)

// Action is a discrete user command.
type Action int

const (
	ToggleBaseColorMap Action = iota
	ToggleMetallicMap
	ToggleRoughnessMap
	ToggleNormalMap
	ToggleWireframe
	ToggleAutoRotate
	Reframe
	Screenshot
)

// View is the render-thread side of the viewer. None of its methods are
// safe for concurrent use.
type View struct {
	dev  gpu.Device
	opts Options
	log  *zap.Logger

	renderer *renderer.Deferred
	camera   *camera.OrbitCamera
	loader   *loader.Loader
	watcher  *loader.Watcher
	capture  *screenshot.Capture

	angle      float32 // radians about world Y
	idle       time.Duration
	autoRotate bool

	buttons [3]bool
	lastX   int
	lastY   int
	hasLast bool

	width, height int
	bounds        scene.Bounds
	path          string
	lastShot      string
	pendingShot   bool
	status        string
	onStatus      func(string)
	initialized   bool
}

// New creates a view. GPU work starts with Initialize.
func New(dev gpu.Device, opts Options) (*View, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Named("viewer")
	}
	if opts.Renderer.Logger == nil {
		opts.Renderer.Logger = log.Named("renderer")
	}
	if opts.Loader.Logger == nil {
		opts.Loader.Logger = log.Named("loader")
	}

	capture, err := screenshot.New(opts.ScreenshotDir, "meshspy", opts.ScreenshotFormat)
	if err != nil {
		return nil, err
	}

	v := &View{
		dev:        dev,
		opts:       opts,
		log:        log,
		renderer:   renderer.New(dev, opts.Renderer),
		camera:     camera.NewOrbitCamera(),
		loader:     loader.New(opts.Loader),
		capture:    capture,
		autoRotate: opts.AutoRotate,
		idle:       opts.IdleDelay,
		bounds:     scene.EmptyBounds(),
	}

	if opts.Watch {
		v.watcher, err = loader.NewWatcher(0, log.Named("watcher"))
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Initialize allocates the GPU pipeline for a width x height viewport. A
// rejected G-buffer is reported but leaves the view usable.
func (v *View) Initialize(width, height int) error {
	v.width, v.height = width, height
	v.camera.SetViewportSize(width, height)
	v.initialized = true
	if err := v.renderer.Init(width, height); err != nil {
		v.setStatus(fmt.Sprintf("Renderer error: %v", err))
		return err
	}
	return nil
}

// Resize follows a viewport change.
func (v *View) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	v.camera.SetViewportSize(width, height)
	if err := v.renderer.Resize(width, height); err != nil {
		v.setStatus(fmt.Sprintf("Renderer error: %v", err))
	}
}

// Load starts decoding path in the background.
func (v *View) Load(path string) error {
	if err := v.loader.Request(path); err != nil {
		return err
	}
	v.setStatus("Loading " + filepath.Base(path) + "...")
	return nil
}

// Frame advances the view by dt and draws one frame.
func (v *View) Frame(dt time.Duration) {
	v.pollLoader()
	v.pollWatcher()

	v.idle += dt
	if v.autoRotate && v.idle >= v.opts.IdleDelay {
		v.angle += mgl32.DegToRad(v.opts.AutoRotateSpeed) * float32(dt.Seconds())
		v.angle = math32.Mod(v.angle, 2*math32.Pi)
	}

	v.renderer.RenderFrame(v.camera, v.angle)

	if v.pendingShot {
		v.pendingShot = false
		v.grab()
	}
}

func (v *View) pollLoader() {
	res, ok := v.loader.Poll()
	if !ok {
		return
	}
	name := filepath.Base(res.Path)
	if res.Err != nil {
		v.setStatus(fmt.Sprintf("Error loading %s: %v", name, res.Err))
		return
	}

	data := res.Scene
	st := data.Stats()
	v.renderer.LoadModel(data)
	v.camera.FitBounds(data.Bounds)
	data.Release()

	v.path = res.Path
	v.bounds = data.Bounds
	v.angle = 0
	v.idle = v.opts.IdleDelay
	if v.watcher != nil {
		if err := v.watcher.Watch(res.Path); err != nil {
			v.log.Warn("cannot watch model", zap.String("path", res.Path), zap.Error(err))
		}
	}
	v.setStatus(fmt.Sprintf("Loaded %s (%d meshes, %d triangles, %s)",
		name, st.Meshes, st.Triangles, res.Elapsed.Round(time.Millisecond)))
}

func (v *View) pollWatcher() {
	if v.watcher == nil {
		return
	}
	select {
	case path := <-v.watcher.Changes():
		v.log.Info("model changed on disk, reloading", zap.String("path", path))
		if err := v.Load(path); err != nil {
			v.log.Warn("reload skipped", zap.Error(err))
		}
	default:
	}
}

func (v *View) grab() {
	path, err := v.capture.Grab(v.dev, v.width, v.height)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		v.setStatus(fmt.Sprintf("Screenshot failed: %v", err))
		return
	}
	v.lastShot = path
	v.log.Info("screenshot saved", zap.String("path", path))
	v.setStatus("Saved " + path)
}

// MouseDown starts a drag with button at x, y.
func (v *View) MouseDown(button MouseButton, x, y int) {
	v.interact()
	if button >= 0 && int(button) < len(v.buttons) {
		v.buttons[button] = true
	}
	v.lastX, v.lastY, v.hasLast = x, y, true
}

// MouseUp ends a drag with button.
func (v *View) MouseUp(button MouseButton) {
	if button >= 0 && int(button) < len(v.buttons) {
		v.buttons[button] = false
	}
}

// MouseMove rotates with the left button held and pans with the right.
func (v *View) MouseMove(x, y int) {
	if !v.hasLast {
		v.lastX, v.lastY, v.hasLast = x, y, true
		return
	}
	dx := float32(x - v.lastX)
	dy := float32(y - v.lastY)
	v.lastX, v.lastY = x, y

	switch {
	case v.buttons[ButtonLeft]:
		v.interact()
		s := v.opts.RotateSensitivity
		v.camera.Rotate(dx*s, dy*s)
	case v.buttons[ButtonRight]:
		v.interact()
		v.camera.Pan(dx, dy)
	}
}

// Scroll zooms by notches of the wheel; positive moves closer.
func (v *View) Scroll(notches float32) {
	v.interact()
	v.camera.Zoom(notches * WheelStep * v.opts.ZoomSensitivity)
}

// Do performs a discrete action.
func (v *View) Do(a Action) {
	cfg := v.renderer.Config()
	switch a {
	case ToggleBaseColorMap:
		cfg.UseBaseColorMap = !cfg.UseBaseColorMap
	case ToggleMetallicMap:
		cfg.UseMetallicMap = !cfg.UseMetallicMap
	case ToggleRoughnessMap:
		cfg.UseRoughnessMap = !cfg.UseRoughnessMap
	case ToggleNormalMap:
		cfg.UseNormalMap = !cfg.UseNormalMap
	case ToggleWireframe:
		cfg.Wireframe = !cfg.Wireframe
	case ToggleAutoRotate:
		v.autoRotate = !v.autoRotate
		return
	case Reframe:
		v.interact()
		v.reframe()
		return
	case Screenshot:
		v.pendingShot = true
		return
	}
	v.renderer.SetConfig(cfg)
	v.log.Debug("render config changed", zap.Any("config", cfg))
}

func (v *View) reframe() {
	fresh := camera.NewOrbitCamera()
	fresh.SetViewportSize(v.width, v.height)
	fresh.FitBounds(v.bounds)
	v.camera = fresh
}

func (v *View) interact() {
	v.idle = 0
}

func (v *View) setStatus(s string) {
	v.status = s
	if v.onStatus != nil {
		v.onStatus(s)
	}
}

// SetStatusHandler registers fn to receive every status change.
func (v *View) SetStatusHandler(fn func(string)) { v.onStatus = fn }

// Status returns the latest status line.
func (v *View) Status() string { return v.status }

// Busy reports whether a load is in progress.
func (v *View) Busy() bool { return v.loader.Busy() }

// Path returns the path of the displayed model, empty if none.
func (v *View) Path() string { return v.path }

// Angle returns the auto-rotation angle in radians.
func (v *View) Angle() float32 { return v.angle }

// Camera exposes the orbit camera.
func (v *View) Camera() *camera.OrbitCamera { return v.camera }

// Renderer exposes the pipeline.
func (v *View) Renderer() *renderer.Deferred { return v.renderer }

// LastScreenshot returns the path of the last saved screenshot.
func (v *View) LastScreenshot() string { return v.lastShot }

// Close waits for an in-flight load, then releases every resource.
func (v *View) Close() {
	if v.watcher != nil {
		_ = v.watcher.Close()
	}
	// Drain so a finishing load can deliver and exit.
	done := make(chan struct{})
	go func() {
		v.loader.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			v.loader.Poll()
			v.renderer.Destroy()
			return
		case <-v.loader.Results():
		}
	}
}
