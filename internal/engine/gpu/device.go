// Package gpu defines the graphics device capability that rendering
// components are constructed with. Enum values match OpenGL so that a
// backend can pass them through unchanged.
package gpu

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Device is the subset of an OpenGL 4.1 core context used by the viewer.
// All methods must be called from the goroutine that owns the context.
type Device interface {
	Info() (version, renderer string)

	GenTexture() uint32
	DeleteTexture(tex uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, tex uint32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels unsafe.Pointer)
	TexParameteri(target, pname uint32, param int32)
	GenerateMipmap(target uint32)
	PixelStorei(pname uint32, param int32)

	GenFramebuffer() uint32
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(target, fbo uint32)
	FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32)
	GenRenderbuffer() uint32
	DeleteRenderbuffer(rbo uint32)
	BindRenderbuffer(target, rbo uint32)
	RenderbufferStorage(target, internalFormat uint32, width, height int32)
	FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32)
	DrawBuffers(attachments []uint32)
	CheckFramebufferStatus(target uint32) uint32
	BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32)

	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	GenBuffer() uint32
	DeleteBuffer(buf uint32)
	BindBuffer(target, buf uint32)
	BufferData(target uint32, size int, data unsafe.Pointer, usage uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, xtype uint32, offset uintptr)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Enable(capability uint32)
	Disable(capability uint32)
	DepthFunc(fn uint32)
	PolygonMode(face, mode uint32)

	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	UniformMatrix4fv(loc int32, m mgl32.Mat4)

	ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer)
}

// OpenGL enum values used by the viewer.
const (
	Texture2D uint32 = 0x0DE1
	Texture0  uint32 = 0x84C0

	Red     uint32 = 0x1903
	RGB     uint32 = 0x1907
	RGBA    uint32 = 0x1908
	R8      uint32 = 0x8229
	RGB8    uint32 = 0x8051
	RGBA8   uint32 = 0x8058
	RGB16F  uint32 = 0x881B
	RGBA16F uint32 = 0x881A

	UnsignedByte uint32 = 0x1401
	UnsignedInt  uint32 = 0x1405
	Float        uint32 = 0x1406

	TextureMagFilter   uint32 = 0x2800
	TextureMinFilter   uint32 = 0x2801
	TextureWrapS       uint32 = 0x2802
	TextureWrapT       uint32 = 0x2803
	Nearest            uint32 = 0x2600
	Linear             uint32 = 0x2601
	LinearMipmapLinear uint32 = 0x2703
	Repeat             uint32 = 0x2901
	ClampToEdge        uint32 = 0x812F
	UnpackAlignment    uint32 = 0x0CF5
	PackAlignment      uint32 = 0x0D05

	Framebuffer            uint32 = 0x8D40
	ReadFramebuffer        uint32 = 0x8CA8
	DrawFramebuffer        uint32 = 0x8CA9
	Renderbuffer           uint32 = 0x8D41
	ColorAttachment0       uint32 = 0x8CE0
	DepthStencilAttachment uint32 = 0x821A
	Depth24Stencil8        uint32 = 0x88F0
	FramebufferComplete    uint32 = 0x8CD5

	ColorBufferBit uint32 = 0x4000
	DepthBufferBit uint32 = 0x0100

	DepthTest    uint32 = 0x0B71
	Less         uint32 = 0x0201
	LessOrEqual  uint32 = 0x0203
	FrontAndBack uint32 = 0x0408
	Line         uint32 = 0x1B01
	Fill         uint32 = 0x1B02

	ArrayBuffer        uint32 = 0x8892
	ElementArrayBuffer uint32 = 0x8893
	StaticDraw         uint32 = 0x88E4
	Triangles          uint32 = 0x0004
	TriangleStrip      uint32 = 0x0005
)
