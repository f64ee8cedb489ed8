// Package glbackend implements gpu.Device on an OpenGL 4.1 core context
// through go-gl.
package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/internal/logger"
)

// Device forwards gpu.Device calls to the current GL context.
type Device struct {
	version  string
	renderer string
}

var _ gpu.Device = (*Device)(nil)

// New loads GL function pointers for the current context.
// Must be called after the context is created and made current.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	d := &Device{
		version:  gl.GoStr(gl.GetString(gl.VERSION)),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}
	logger.Info("OpenGL initialized",
		zap.String("version", d.version),
		zap.String("renderer", d.renderer),
	)
	return d, nil
}

func (d *Device) Info() (string, string) { return d.version, d.renderer }

func (d *Device) GenTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (d *Device) DeleteTexture(tex uint32)       { gl.DeleteTextures(1, &tex) }
func (d *Device) ActiveTexture(unit uint32)      { gl.ActiveTexture(unit) }
func (d *Device) BindTexture(target, tex uint32) { gl.BindTexture(target, tex) }

func (d *Device) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, pixels)
}

func (d *Device) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}
func (d *Device) GenerateMipmap(target uint32)          { gl.GenerateMipmap(target) }
func (d *Device) PixelStorei(pname uint32, param int32) { gl.PixelStorei(pname, param) }

func (d *Device) GenFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (d *Device) DeleteFramebuffer(fbo uint32)       { gl.DeleteFramebuffers(1, &fbo) }
func (d *Device) BindFramebuffer(target, fbo uint32) { gl.BindFramebuffer(target, fbo) }

func (d *Device) FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32) {
	gl.FramebufferTexture2D(target, attachment, texTarget, tex, level)
}

func (d *Device) GenRenderbuffer() uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return id
}

func (d *Device) DeleteRenderbuffer(rbo uint32)       { gl.DeleteRenderbuffers(1, &rbo) }
func (d *Device) BindRenderbuffer(target, rbo uint32) { gl.BindRenderbuffer(target, rbo) }

func (d *Device) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	gl.RenderbufferStorage(target, internalFormat, width, height)
}

func (d *Device) FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32) {
	gl.FramebufferRenderbuffer(target, attachment, rbTarget, rbo)
}

func (d *Device) DrawBuffers(attachments []uint32) {
	if len(attachments) == 0 {
		return
	}
	gl.DrawBuffers(int32(len(attachments)), &attachments[0])
}

func (d *Device) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (d *Device) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	gl.BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
}

func (d *Device) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (d *Device) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }
func (d *Device) BindVertexArray(vao uint32)   { gl.BindVertexArray(vao) }

func (d *Device) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (d *Device) DeleteBuffer(buf uint32)          { gl.DeleteBuffers(1, &buf) }
func (d *Device) BindBuffer(target, buf uint32)    { gl.BindBuffer(target, buf) }
func (d *Device) EnableVertexAttribArray(i uint32) { gl.EnableVertexAttribArray(i) }

func (d *Device) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	gl.BufferData(target, size, data, usage)
}

func (d *Device) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, offset)
}

func (d *Device) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (d *Device) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	gl.DrawElementsWithOffset(mode, count, xtype, offset)
}

func (d *Device) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (d *Device) ClearColor(r, g, b, a float32)      { gl.ClearColor(r, g, b, a) }
func (d *Device) Clear(mask uint32)                  { gl.Clear(mask) }
func (d *Device) Enable(capability uint32)           { gl.Enable(capability) }
func (d *Device) Disable(capability uint32)          { gl.Disable(capability) }
func (d *Device) DepthFunc(fn uint32)                { gl.DepthFunc(fn) }
func (d *Device) PolygonMode(face, mode uint32)      { gl.PolygonMode(face, mode) }

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (d *Device) UseProgram(program uint32)    { gl.UseProgram(program) }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(loc int32, v int32)             { gl.Uniform1i(loc, v) }
func (d *Device) Uniform1f(loc int32, v float32)           { gl.Uniform1f(loc, v) }
func (d *Device) Uniform3f(loc int32, x, y, z float32)     { gl.Uniform3f(loc, x, y, z) }
func (d *Device) Uniform4f(loc int32, x, y, z, w float32)  { gl.Uniform4f(loc, x, y, z, w) }
func (d *Device) UniformMatrix4fv(loc int32, m mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }

func (d *Device) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.ReadPixels(x, y, width, height, format, xtype, pixels)
}
