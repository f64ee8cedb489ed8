// Package gputest provides a recording gpu.Device for tests that run
// without a GL context.
package gputest

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
)

// Call is one recorded device call.
type Call struct {
	Name string
	Args []any
}

// Upload describes a TexImage2D call.
type Upload struct {
	Texture        uint32
	InternalFormat int32
	Width, Height  int32
	Format, Type   uint32
	HasPixels      bool
}

// Draw describes a draw call and the state it was issued under.
type Draw struct {
	Program     uint32
	VAO         uint32
	Mode        uint32
	Count       int32
	Indexed     bool
	Polygon     uint32
	Framebuffer uint32
	Uniforms    map[string]any
}

// Device records every call and tracks object lifetimes.
type Device struct {
	// FramebufferStatus is returned by CheckFramebufferStatus.
	FramebufferStatus uint32
	// CompileError, when set, decides whether CompileProgram fails.
	CompileError func(vertexSrc, fragmentSrc string) error
	// Pixel is written to every pixel by ReadPixels.
	Pixel [4]byte

	Calls   []Call
	Uploads []Upload
	Draws   []Draw

	Enabled     map[uint32]bool
	DepthFn     uint32
	Polygon     uint32
	ViewportDim [4]int32

	next          uint32
	live          map[string]map[uint32]bool
	boundTex      map[uint32]uint32
	boundFBO      uint32
	boundVAO      uint32
	program       uint32
	locations     map[uint32]map[string]int32
	locNames      map[int32]string
	uniforms      map[uint32]map[string]any
	drawBuffers   []uint32
	activeTexture uint32
	unitTextures  map[uint32]uint32
}

var _ gpu.Device = (*Device)(nil)

// New returns a device whose framebuffers are complete.
func New() *Device {
	return &Device{
		FramebufferStatus: gpu.FramebufferComplete,
		Pixel:             [4]byte{0, 0, 0, 255},
		Enabled:           map[uint32]bool{},
		DepthFn:           gpu.Less,
		Polygon:           gpu.Fill,
		live: map[string]map[uint32]bool{
			"texture": {}, "framebuffer": {}, "renderbuffer": {},
			"vertexarray": {}, "buffer": {}, "program": {},
		},
		boundTex:     map[uint32]uint32{},
		locations:    map[uint32]map[string]int32{},
		locNames:     map[int32]string{},
		uniforms:     map[uint32]map[string]any{},
		unitTextures: map[uint32]uint32{},
	}
}

func (d *Device) record(name string, args ...any) {
	d.Calls = append(d.Calls, Call{Name: name, Args: args})
}

func (d *Device) gen(kind string) uint32 {
	d.next++
	d.live[kind][d.next] = true
	d.record("Gen"+kind, d.next)
	return d.next
}

func (d *Device) del(kind string, id uint32) {
	d.record("Delete"+kind, id)
	if id == 0 {
		return
	}
	if !d.live[kind][id] {
		panic(fmt.Sprintf("gputest: delete of unknown %s %d", kind, id))
	}
	delete(d.live[kind], id)
}

// Live returns the number of live objects of a kind: texture, framebuffer,
// renderbuffer, vertexarray, buffer or program.
func (d *Device) Live(kind string) int {
	return len(d.live[kind])
}

// LiveTotal returns the number of live objects of every kind.
func (d *Device) LiveTotal() int {
	n := 0
	for _, m := range d.live {
		n += len(m)
	}
	return n
}

// IsLive reports whether the object id of kind exists.
func (d *Device) IsLive(kind string, id uint32) bool {
	return d.live[kind][id]
}

// Count returns how many times the named call was made.
func (d *Device) Count(name string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Names returns the recorded call names in order.
func (d *Device) Names() []string {
	out := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		out[i] = c.Name
	}
	return out
}

// Reset forgets recorded calls, uploads and draws but keeps object state.
func (d *Device) Reset() {
	d.Calls = nil
	d.Uploads = nil
	d.Draws = nil
}

// Uniform returns the last value set for name while program was in use.
func (d *Device) Uniform(program uint32, name string) (any, bool) {
	v, ok := d.uniforms[program][name]
	return v, ok
}

// DrawBuffersSet returns the attachments passed to the last DrawBuffers call.
func (d *Device) DrawBuffersSet() []uint32 { return d.drawBuffers }

// TextureOnUnit returns the 2D texture bound to texture unit n.
func (d *Device) TextureOnUnit(n uint32) uint32 { return d.unitTextures[n] }

func (d *Device) Info() (string, string) { return "4.1 fake", "gputest" }

func (d *Device) GenTexture() uint32       { return d.gen("texture") }
func (d *Device) DeleteTexture(tex uint32) { d.del("texture", tex) }

func (d *Device) ActiveTexture(unit uint32) {
	d.record("ActiveTexture", unit)
	d.activeTexture = unit - gpu.Texture0
}

func (d *Device) BindTexture(target, tex uint32) {
	d.record("BindTexture", target, tex)
	d.boundTex[target] = tex
	if target == gpu.Texture2D {
		d.unitTextures[d.activeTexture] = tex
	}
}

func (d *Device) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	d.record("TexImage2D", target, level, internalFormat, width, height, format, xtype)
	d.Uploads = append(d.Uploads, Upload{
		Texture:        d.boundTex[target],
		InternalFormat: internalFormat,
		Width:          width,
		Height:         height,
		Format:         format,
		Type:           xtype,
		HasPixels:      pixels != nil,
	})
}

func (d *Device) TexParameteri(target, pname uint32, param int32) {
	d.record("TexParameteri", target, pname, param)
}
func (d *Device) GenerateMipmap(target uint32)          { d.record("GenerateMipmap", target) }
func (d *Device) PixelStorei(pname uint32, param int32) { d.record("PixelStorei", pname, param) }

func (d *Device) GenFramebuffer() uint32       { return d.gen("framebuffer") }
func (d *Device) DeleteFramebuffer(fbo uint32) { d.del("framebuffer", fbo) }

func (d *Device) BindFramebuffer(target, fbo uint32) {
	d.record("BindFramebuffer", target, fbo)
	if target == gpu.Framebuffer || target == gpu.DrawFramebuffer {
		d.boundFBO = fbo
	}
}

func (d *Device) FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32) {
	d.record("FramebufferTexture2D", target, attachment, texTarget, tex, level)
}

func (d *Device) GenRenderbuffer() uint32       { return d.gen("renderbuffer") }
func (d *Device) DeleteRenderbuffer(rbo uint32) { d.del("renderbuffer", rbo) }
func (d *Device) BindRenderbuffer(target, rbo uint32) {
	d.record("BindRenderbuffer", target, rbo)
}

func (d *Device) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	d.record("RenderbufferStorage", target, internalFormat, width, height)
}

func (d *Device) FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32) {
	d.record("FramebufferRenderbuffer", target, attachment, rbTarget, rbo)
}

func (d *Device) DrawBuffers(attachments []uint32) {
	d.record("DrawBuffers", append([]uint32(nil), attachments...))
	d.drawBuffers = append([]uint32(nil), attachments...)
}

func (d *Device) CheckFramebufferStatus(target uint32) uint32 {
	d.record("CheckFramebufferStatus", target)
	return d.FramebufferStatus
}

func (d *Device) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	d.record("BlitFramebuffer", srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
}

func (d *Device) GenVertexArray() uint32       { return d.gen("vertexarray") }
func (d *Device) DeleteVertexArray(vao uint32) { d.del("vertexarray", vao) }
func (d *Device) BindVertexArray(vao uint32) {
	d.record("BindVertexArray", vao)
	d.boundVAO = vao
}

func (d *Device) GenBuffer() uint32             { return d.gen("buffer") }
func (d *Device) DeleteBuffer(buf uint32)       { d.del("buffer", buf) }
func (d *Device) BindBuffer(target, buf uint32) { d.record("BindBuffer", target, buf) }

func (d *Device) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	d.record("BufferData", target, size, usage)
}

func (d *Device) EnableVertexAttribArray(index uint32) { d.record("EnableVertexAttribArray", index) }

func (d *Device) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	d.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
}

func (d *Device) DrawArrays(mode uint32, first, count int32) {
	d.record("DrawArrays", mode, first, count)
	d.draw(mode, count, false)
}

func (d *Device) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	d.record("DrawElements", mode, count, xtype, offset)
	d.draw(mode, count, true)
}

func (d *Device) draw(mode uint32, count int32, indexed bool) {
	snapshot := make(map[string]any, len(d.uniforms[d.program]))
	for k, v := range d.uniforms[d.program] {
		snapshot[k] = v
	}
	d.Draws = append(d.Draws, Draw{
		Program:     d.program,
		VAO:         d.boundVAO,
		Mode:        mode,
		Count:       count,
		Indexed:     indexed,
		Polygon:     d.Polygon,
		Framebuffer: d.boundFBO,
		Uniforms:    snapshot,
	})
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.record("Viewport", x, y, width, height)
	d.ViewportDim = [4]int32{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) { d.record("ClearColor", r, g, b, a) }
func (d *Device) Clear(mask uint32)             { d.record("Clear", mask) }

func (d *Device) Enable(capability uint32) {
	d.record("Enable", capability)
	d.Enabled[capability] = true
}

func (d *Device) Disable(capability uint32) {
	d.record("Disable", capability)
	d.Enabled[capability] = false
}

func (d *Device) DepthFunc(fn uint32) {
	d.record("DepthFunc", fn)
	d.DepthFn = fn
}

func (d *Device) PolygonMode(face, mode uint32) {
	d.record("PolygonMode", face, mode)
	d.Polygon = mode
}

func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	if d.CompileError != nil {
		if err := d.CompileError(vertexSrc, fragmentSrc); err != nil {
			d.record("CompileProgram", false)
			return 0, err
		}
	}
	id := d.gen("program")
	d.locations[id] = map[string]int32{}
	d.uniforms[id] = map[string]any{}
	return id, nil
}

func (d *Device) DeleteProgram(program uint32) { d.del("program", program) }

func (d *Device) UseProgram(program uint32) {
	d.record("UseProgram", program)
	d.program = program
}

// UniformLocation hands out a unique location per program and name.
func (d *Device) UniformLocation(program uint32, name string) int32 {
	d.record("UniformLocation", program, name)
	locs, ok := d.locations[program]
	if !ok {
		return -1
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := int32(len(d.locNames))
	locs[name] = loc
	d.locNames[loc] = name
	return loc
}

func (d *Device) setUniform(call string, loc int32, v any) {
	d.record(call, loc, v)
	if loc < 0 {
		return
	}
	if u, ok := d.uniforms[d.program]; ok {
		u[d.locNames[loc]] = v
	}
}

func (d *Device) Uniform1i(loc int32, v int32)   { d.setUniform("Uniform1i", loc, v) }
func (d *Device) Uniform1f(loc int32, v float32) { d.setUniform("Uniform1f", loc, v) }
func (d *Device) Uniform3f(loc int32, x, y, z float32) {
	d.setUniform("Uniform3f", loc, mgl32.Vec3{x, y, z})
}
func (d *Device) Uniform4f(loc int32, x, y, z, w float32) {
	d.setUniform("Uniform4f", loc, mgl32.Vec4{x, y, z, w})
}
func (d *Device) UniformMatrix4fv(loc int32, m mgl32.Mat4) { d.setUniform("UniformMatrix4fv", loc, m) }

func (d *Device) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	d.record("ReadPixels", x, y, width, height, format, xtype)
	if pixels == nil || format != gpu.RGBA || xtype != gpu.UnsignedByte {
		return
	}
	buf := unsafe.Slice((*byte)(pixels), int(width)*int(height)*4)
	for i := 0; i < len(buf); i += 4 {
		copy(buf[i:i+4], d.Pixel[:])
	}
}
