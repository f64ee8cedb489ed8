// Package renderer draws a frame through the deferred pipeline: a geometry
// pass into the G-buffer, a full-screen lighting pass into the default
// framebuffer, and an environment pass composited behind the geometry.
package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/engine/camera"
	"github.com/Faultbox/meshspy/internal/engine/gbuffer"
	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/internal/engine/lighting"
	"github.com/Faultbox/meshspy/internal/engine/model"
	"github.com/Faultbox/meshspy/internal/engine/shader"
	"github.com/Faultbox/meshspy/internal/engine/shader/shaders"
	"github.com/Faultbox/meshspy/internal/engine/skybox"
	"github.com/Faultbox/meshspy/internal/logger"
	"github.com/Faultbox/meshspy/pkg/scene"
)

// State is the pipeline position of the renderer.
type State int

const (
	Uninitialized State = iota
	Ready
	Geometry
	Lighting
	Environment
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Geometry:
		return "geometry"
	case Lighting:
		return "lighting"
	case Environment:
		return "environment"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stages reports which passes will draw on the next frame.
type Stages struct {
	Geometry    bool
	Lighting    bool
	Environment bool
}

// ErrNotInitialized is returned by operations that need Init first.
var ErrNotInitialized = errors.New("renderer not initialized")

// Background is the clear color of the default framebuffer.
var Background = [3]float32{0.1, 0.1, 0.15}

// Options configure a Deferred renderer.
type Options struct {
	// EnvironmentMap is a Radiance .hdr file loaded during Init. Empty
	// means no image-based lighting.
	EnvironmentMap string
	Sun            lighting.Sun
	Config         scene.RenderConfig
	Logger         *zap.Logger
}

// Deferred owns every GPU object of the pipeline. All methods must be
// called from the thread that owns the device context.
type Deferred struct {
	dev  gpu.Device
	log  *zap.Logger
	opts Options

	gbuf     *gbuffer.GBuffer
	gbufOK   bool
	sky      *skybox.Skybox
	model    *model.Model
	fallback *model.Model

	geometryProg *shader.Program
	lightingProg *shader.Program
	skyboxProg   *shader.Program

	quadVAO, quadVBO uint32

	cfg    scene.RenderConfig
	sun    lighting.Sun
	state  State
	width  int32
	height int32
}

// New returns an uninitialized renderer. No device calls are made until
// Init.
func New(dev gpu.Device, opts Options) *Deferred {
	log := opts.Logger
	if log == nil {
		log = logger.Named("renderer")
	}
	return &Deferred{
		dev:   dev,
		log:   log,
		opts:  opts,
		cfg:   opts.Config,
		sun:   opts.Sun,
		state: Uninitialized,
	}
}

// Init compiles the programs and allocates the G-buffer, the full-screen
// quad, the skybox and the fallback cube. A program that fails to compile
// is logged and its pass stays disabled. The returned error reports a
// G-buffer the device rejected; the renderer is still usable and a later
// successful Resize enables the affected passes.
func (r *Deferred) Init(width, height int) error {
	if r.state != Uninitialized {
		return r.Resize(width, height)
	}

	info, vendor := r.dev.Info()
	r.log.Info("initializing deferred renderer",
		zap.String("version", info),
		zap.String("renderer", vendor),
		zap.Int("width", width),
		zap.Int("height", height),
	)

	r.geometryProg = r.compile("geometry", shaders.GeometryVertexShader, shaders.GeometryFragmentShader)
	r.lightingProg = r.compile("lighting", shaders.LightingVertexShader, shaders.LightingFragmentShader)
	r.skyboxProg = r.compile("skybox", shaders.SkyboxVertexShader, shaders.SkyboxFragmentShader)

	r.createQuad()

	r.sky = skybox.New(r.dev)
	r.sky.Init()
	if r.opts.EnvironmentMap != "" {
		if err := r.LoadEnvironment(r.opts.EnvironmentMap); err != nil {
			r.log.Warn("environment map unavailable", zap.Error(err))
		}
	}

	r.model = model.New(r.dev)
	r.fallback = model.New(r.dev)
	r.fallback.Create(fallbackCube())

	r.gbuf = gbuffer.New(r.dev)
	r.state = Ready
	return r.allocate(width, height)
}

func (r *Deferred) compile(name, vs, fs string) *shader.Program {
	p, err := shader.New(r.dev, name, vs, fs)
	if err != nil {
		r.log.Error("shader compile failed, stage disabled",
			zap.String("stage", name),
			zap.Error(err),
		)
		return nil
	}
	r.log.Debug("shader program created", zap.String("stage", name), zap.Uint32("program", p.ID()))
	return p
}

func (r *Deferred) createQuad() {
	d := r.dev
	r.quadVAO = d.GenVertexArray()
	d.BindVertexArray(r.quadVAO)
	r.quadVBO = d.GenBuffer()
	d.BindBuffer(gpu.ArrayBuffer, r.quadVBO)
	d.BufferData(gpu.ArrayBuffer, len(quadVertices)*4, unsafe.Pointer(&quadVertices[0]), gpu.StaticDraw)
	d.VertexAttribPointer(0, 2, gpu.Float, false, 4*4, 0)
	d.EnableVertexAttribArray(0)
	d.VertexAttribPointer(1, 2, gpu.Float, false, 4*4, 2*4)
	d.EnableVertexAttribArray(1)
	d.BindVertexArray(0)
}

func (r *Deferred) allocate(width, height int) error {
	r.width = int32(max(width, 1))
	r.height = int32(max(height, 1))

	err := r.gbuf.Resize(width, height)
	r.gbufOK = err == nil
	if err != nil {
		r.log.Error("gbuffer unavailable, geometry and lighting disabled",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Resize reallocates the G-buffer for a new viewport size.
func (r *Deferred) Resize(width, height int) error {
	if r.state == Uninitialized {
		return ErrNotInitialized
	}
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
	return r.allocate(width, height)
}

// LoadEnvironment replaces the environment map with a Radiance file.
func (r *Deferred) LoadEnvironment(path string) error {
	if r.sky == nil {
		return ErrNotInitialized
	}
	if err := r.sky.LoadHDR(path); err != nil {
		return err
	}
	r.log.Info("environment map loaded", zap.String("path", path))
	return nil
}

// SetConfig replaces the render toggles used from the next frame on.
func (r *Deferred) SetConfig(cfg scene.RenderConfig) { r.cfg = cfg }

// Config returns the current render toggles.
func (r *Deferred) Config() scene.RenderConfig { return r.cfg }

// SetSun replaces the key light.
func (r *Deferred) SetSun(s lighting.Sun) { r.sun = s }

// LoadModel uploads data, replacing the current model.
func (r *Deferred) LoadModel(data *scene.Data) {
	if r.model == nil {
		return
	}
	r.model.Create(data)
	r.log.Info("model uploaded",
		zap.Int("meshes", r.model.MeshCount()),
		zap.Int("textures", r.model.TextureCount()),
	)
}

// UnloadModel releases the model; the fallback cube is drawn instead.
func (r *Deferred) UnloadModel() {
	if r.model != nil {
		r.model.Clear()
	}
}

// HasModel reports whether a non-empty model is loaded.
func (r *Deferred) HasModel() bool {
	return r.model != nil && !r.model.Empty()
}

// State returns the pipeline state. Between frames it is Ready.
func (r *Deferred) State() State { return r.state }

// Stages reports which passes are currently able to draw.
func (r *Deferred) Stages() Stages {
	return Stages{
		Geometry:    r.geometryReady(),
		Lighting:    r.lightingProg != nil && r.geometryReady(),
		Environment: r.skyboxProg != nil,
	}
}

// geometryReady reports whether the geometry pass fills the gbuffer. Passes
// that read it are skipped otherwise, since it would hold stale contents.
func (r *Deferred) geometryReady() bool {
	return r.geometryProg != nil && r.gbufOK
}

// RenderFrame draws one frame. The model is rotated by angle radians about
// the world Y axis. A nil camera clears the screen and draws nothing else.
func (r *Deferred) RenderFrame(cam *camera.OrbitCamera, angle float32) {
	if r.state == Uninitialized {
		return
	}

	var view, projection mgl32.Mat4
	if cam != nil {
		view = cam.ViewMatrix()
		projection = cam.ProjectionMatrix()
	}

	r.state = Geometry
	r.geometryPass(cam, view, projection, angle)

	r.state = Lighting
	r.lightingPass(cam)

	r.state = Environment
	r.environmentPass(cam, view, projection)

	r.state = Ready
}

func (r *Deferred) geometryPass(cam *camera.OrbitCamera, view, projection mgl32.Mat4, angle float32) {
	if cam == nil || !r.geometryReady() {
		return
	}
	d := r.dev

	r.gbuf.BindWrite()
	d.Viewport(0, 0, r.width, r.height)
	d.ClearColor(0, 0, 0, 0)
	d.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)
	d.Enable(gpu.DepthTest)
	d.DepthFunc(gpu.Less)

	if r.cfg.Wireframe {
		d.PolygonMode(gpu.FrontAndBack, gpu.Line)
	} else {
		d.PolygonMode(gpu.FrontAndBack, gpu.Fill)
	}

	p := r.geometryProg
	p.Use()
	p.SetMat4("model", mgl32.HomogRotate3DY(angle))
	p.SetMat4("view", view)
	p.SetMat4("projection", projection)

	if r.HasModel() {
		r.model.Draw(p, r.cfg)
	} else {
		r.fallback.Draw(p, r.cfg)
	}

	d.PolygonMode(gpu.FrontAndBack, gpu.Fill)
	d.BindFramebuffer(gpu.Framebuffer, 0)
}

func (r *Deferred) lightingPass(cam *camera.OrbitCamera) {
	d := r.dev

	d.BindFramebuffer(gpu.Framebuffer, 0)
	d.Viewport(0, 0, r.width, r.height)
	d.ClearColor(Background[0], Background[1], Background[2], 1)
	d.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)
	d.Disable(gpu.DepthTest)

	if cam == nil || r.lightingProg == nil || !r.geometryReady() {
		return
	}

	p := r.lightingProg
	p.Use()
	r.gbuf.BindRead()
	p.SetInt("gPosition", gbuffer.Position)
	p.SetInt("gNormal", gbuffer.Normal)
	p.SetInt("gAlbedo", gbuffer.Albedo)
	p.SetInt("gPBR", gbuffer.PBR)

	r.sky.BindEnvironment()
	p.SetInt("environmentMap", skybox.EnvironmentUnit)
	p.SetBool("uHasEnvironment", r.sky.HasEnvironment())
	p.SetFloat("uEnvironmentLod", r.sky.MaxLod())

	p.SetVec3("viewPos", cam.Position())
	p.SetVec3("uLightDir", r.sun.Direction())
	p.SetVec3("uLightColor", r.sun.Radiance())
	p.SetFloat("uAmbient", r.sun.Ambient)

	d.BindVertexArray(r.quadVAO)
	d.DrawArrays(gpu.TriangleStrip, 0, 4)
	d.BindVertexArray(0)
}

func (r *Deferred) environmentPass(cam *camera.OrbitCamera, view, projection mgl32.Mat4) {
	if cam == nil || r.skyboxProg == nil {
		return
	}
	d := r.dev

	if r.geometryReady() {
		d.BindFramebuffer(gpu.ReadFramebuffer, r.gbuf.FBO())
		d.BindFramebuffer(gpu.DrawFramebuffer, 0)
		d.BlitFramebuffer(0, 0, r.width, r.height, 0, 0, r.width, r.height, gpu.DepthBufferBit, gpu.Nearest)
		d.BindFramebuffer(gpu.Framebuffer, 0)
	}

	d.Enable(gpu.DepthTest)
	r.skyboxProg.Use()
	r.sky.Draw(r.skyboxProg, view, projection)
}

// Destroy releases every GPU object and returns the renderer to
// Uninitialized.
func (r *Deferred) Destroy() {
	if r.state == Uninitialized {
		return
	}
	r.log.Info("closing renderer")

	r.model.Clear()
	r.fallback.Clear()
	r.sky.Destroy()
	r.gbuf.Destroy()
	r.gbufOK = false

	if r.quadVBO != 0 {
		r.dev.DeleteBuffer(r.quadVBO)
		r.quadVBO = 0
	}
	if r.quadVAO != 0 {
		r.dev.DeleteVertexArray(r.quadVAO)
		r.quadVAO = 0
	}
	for _, p := range []*shader.Program{r.geometryProg, r.lightingProg, r.skyboxProg} {
		p.Destroy()
	}
	r.geometryProg, r.lightingProg, r.skyboxProg = nil, nil, nil
	r.state = Uninitialized
}
