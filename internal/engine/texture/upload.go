package texture

import (
	"math/bits"
	"unsafe"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
	"github.com/Faultbox/meshspy/pkg/scene"
)

// PixelFormat returns the internal and client formats for a channel count.
func PixelFormat(channels int) (internal int32, format uint32, ok bool) {
	switch channels {
	case 1:
		return int32(gpu.R8), gpu.Red, true
	case 3:
		return int32(gpu.RGB8), gpu.RGB, true
	case 4:
		return int32(gpu.RGBA8), gpu.RGBA, true
	}
	return 0, 0, false
}

// Upload creates a mipmapped, repeating 2D texture from rec and returns its
// handle. Placeholders and unsupported channel counts return 0 and create
// nothing.
func Upload(dev gpu.Device, rec scene.TextureRecord) uint32 {
	internal, format, ok := PixelFormat(rec.Channels)
	if !ok || !rec.Valid() {
		return 0
	}

	tex := dev.GenTexture()
	dev.BindTexture(gpu.Texture2D, tex)
	dev.PixelStorei(gpu.UnpackAlignment, 1)
	dev.TexImage2D(gpu.Texture2D, 0, internal, int32(rec.Width), int32(rec.Height),
		format, gpu.UnsignedByte, unsafe.Pointer(&rec.Pixels[0]))
	dev.PixelStorei(gpu.UnpackAlignment, 4)
	dev.GenerateMipmap(gpu.Texture2D)

	dev.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, int32(gpu.Repeat))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, int32(gpu.Repeat))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, int32(gpu.LinearMipmapLinear))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureMagFilter, int32(gpu.Linear))
	dev.BindTexture(gpu.Texture2D, 0)
	return tex
}

// UploadHDR creates a mipmapped RGB16F texture clamped at the edges. Rows
// are flipped so the top of the image maps to v=1.
func UploadHDR(dev gpu.Device, img *HDRImage) uint32 {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Width*img.Height*3 {
		return 0
	}
	flipped := &HDRImage{Width: img.Width, Height: img.Height, Pix: append([]float32(nil), img.Pix...)}
	flipped.FlipVertical()

	tex := dev.GenTexture()
	dev.BindTexture(gpu.Texture2D, tex)
	dev.TexImage2D(gpu.Texture2D, 0, int32(gpu.RGB16F), int32(img.Width), int32(img.Height),
		gpu.RGB, gpu.Float, unsafe.Pointer(&flipped.Pix[0]))
	dev.GenerateMipmap(gpu.Texture2D)

	dev.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, int32(gpu.ClampToEdge))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, int32(gpu.ClampToEdge))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, int32(gpu.LinearMipmapLinear))
	dev.TexParameteri(gpu.Texture2D, gpu.TextureMagFilter, int32(gpu.Linear))
	dev.BindTexture(gpu.Texture2D, 0)
	return tex
}

// MipLevels returns the index of the smallest mip level for a w x h image.
func MipLevels(w, h int) int {
	m := max(w, h)
	if m <= 1 {
		return 0
	}
	return bits.Len(uint(m)) - 1
}
