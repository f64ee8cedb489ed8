// Package gbuffer manages the multi-target framebuffer written by the
// geometry pass and sampled by the lighting pass.
package gbuffer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
)

// ErrIncomplete is returned when the device rejects the attachment set.
var ErrIncomplete = errors.New("gbuffer incomplete")

// Color target roles, in attachment and texture unit order.
const (
	Position = iota
	Normal
	Albedo
	PBR
	NumTargets
)

type target struct {
	name     string
	internal uint32
	xtype    uint32
}

var targets = [NumTargets]target{
	Position: {"position", gpu.RGBA16F, gpu.Float},
	Normal:   {"normal", gpu.RGBA16F, gpu.Float},
	Albedo:   {"albedo", gpu.RGBA8, gpu.UnsignedByte},
	PBR:      {"pbr", gpu.RGBA8, gpu.UnsignedByte},
}

// GBuffer holds four color textures and a depth/stencil renderbuffer.
type GBuffer struct {
	dev      gpu.Device
	fbo      uint32
	textures [NumTargets]uint32
	depthRBO uint32
	width    int32
	height   int32
}

// New returns an unallocated G-buffer; call Init before use.
func New(dev gpu.Device) *GBuffer {
	return &GBuffer{dev: dev}
}

// Init allocates every attachment at width x height. On failure nothing
// stays allocated.
func (g *GBuffer) Init(width, height int) error {
	g.Destroy()

	g.width = int32(max(width, 1))
	g.height = int32(max(height, 1))

	if err := g.create(); err != nil {
		g.Destroy()
		return fmt.Errorf("creating gbuffer %dx%d: %w", g.width, g.height, err)
	}
	return nil
}

func (g *GBuffer) create() error {
	d := g.dev

	g.fbo = d.GenFramebuffer()
	d.BindFramebuffer(gpu.Framebuffer, g.fbo)
	defer d.BindFramebuffer(gpu.Framebuffer, 0)

	var drawBuffers [NumTargets]uint32
	for i, t := range targets {
		tex := d.GenTexture()
		g.textures[i] = tex
		d.BindTexture(gpu.Texture2D, tex)
		d.TexImage2D(gpu.Texture2D, 0, int32(t.internal), g.width, g.height, gpu.RGBA, t.xtype, nil)
		d.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, int32(gpu.Nearest))
		d.TexParameteri(gpu.Texture2D, gpu.TextureMagFilter, int32(gpu.Nearest))
		d.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, int32(gpu.ClampToEdge))
		d.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, int32(gpu.ClampToEdge))

		attachment := gpu.ColorAttachment0 + uint32(i)
		d.FramebufferTexture2D(gpu.Framebuffer, attachment, gpu.Texture2D, tex, 0)
		drawBuffers[i] = attachment
	}
	d.BindTexture(gpu.Texture2D, 0)
	d.DrawBuffers(drawBuffers[:])

	g.depthRBO = d.GenRenderbuffer()
	d.BindRenderbuffer(gpu.Renderbuffer, g.depthRBO)
	d.RenderbufferStorage(gpu.Renderbuffer, gpu.Depth24Stencil8, g.width, g.height)
	d.FramebufferRenderbuffer(gpu.Framebuffer, gpu.DepthStencilAttachment, gpu.Renderbuffer, g.depthRBO)
	d.BindRenderbuffer(gpu.Renderbuffer, 0)

	if status := d.CheckFramebufferStatus(gpu.Framebuffer); status != gpu.FramebufferComplete {
		return fmt.Errorf("%w: status 0x%x", ErrIncomplete, status)
	}
	return nil
}

// Resize is a no-op while the G-buffer is ready at the requested size.
// Otherwise it releases and reallocates every attachment through Init, so
// a failed Resize leaves the G-buffer not ready.
func (g *GBuffer) Resize(width, height int) error {
	if g.Ready() && int32(width) == g.width && int32(height) == g.height {
		return nil
	}
	return g.Init(width, height)
}

// Ready reports whether the attachments are allocated.
func (g *GBuffer) Ready() bool {
	return g.fbo != 0
}

// BindWrite makes the G-buffer the render target.
func (g *GBuffer) BindWrite() {
	g.dev.BindFramebuffer(gpu.Framebuffer, g.fbo)
}

// BindRead binds the color textures to units 0 through 3.
func (g *GBuffer) BindRead() {
	for i, tex := range g.textures {
		g.dev.ActiveTexture(gpu.Texture0 + uint32(i))
		g.dev.BindTexture(gpu.Texture2D, tex)
	}
}

// FBO returns the framebuffer handle, 0 when not allocated.
func (g *GBuffer) FBO() uint32 { return g.fbo }

// Texture returns the texture of a color target role.
func (g *GBuffer) Texture(role int) uint32 { return g.textures[role] }

// Size returns the allocated dimensions.
func (g *GBuffer) Size() (width, height int32) { return g.width, g.height }

// Destroy releases all attachments. Safe to call more than once.
func (g *GBuffer) Destroy() {
	for i, tex := range g.textures {
		if tex != 0 {
			g.dev.DeleteTexture(tex)
			g.textures[i] = 0
		}
	}
	if g.depthRBO != 0 {
		g.dev.DeleteRenderbuffer(g.depthRBO)
		g.depthRBO = 0
	}
	if g.fbo != 0 {
		g.dev.DeleteFramebuffer(g.fbo)
		g.fbo = 0
	}
}
