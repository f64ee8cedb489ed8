package formats

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/Faultbox/meshspy/pkg/scene"
)

// decodeImage picks a decoder from the content signature, falling back to
// the declared MIME type or file name for formats without one (TGA).
func decodeImage(data []byte, mimeType, name string) (image.Image, string, error) {
	format := ""
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		format = kind.Extension
	}
	if format == "" {
		switch {
		case strings.Contains(mimeType, "tga"), strings.HasSuffix(strings.ToLower(name), ".tga"):
			format = "tga"
		}
	}

	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch format {
	case "png":
		img, err = png.Decode(r)
	case "jpg":
		img, err = jpeg.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "tga":
		img, err = tga.Decode(r)
	default:
		return nil, "", fmt.Errorf("%q (mime %q): %w", name, mimeType, ErrUnsupportedImage)
	}
	if err != nil {
		return nil, format, fmt.Errorf("%s %q: %w", format, name, err)
	}
	return img, format, nil
}

// toTextureRecord converts img into tightly packed rows, top row first.
// Grayscale images keep one channel; everything else becomes
// non-premultiplied RGBA. Images larger than maxSize on either side are
// downsampled preserving aspect ratio.
func toTextureRecord(img image.Image, name string, maxSize int) scene.TextureRecord {
	src := img.Bounds()
	w, h := fitWithin(src.Dx(), src.Dy(), maxSize)
	dstRect := image.Rect(0, 0, w, h)

	var (
		dst      xdraw.Image
		pix      func() []byte
		channels int
	)
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		g := image.NewGray(dstRect)
		dst, pix, channels = g, func() []byte { return g.Pix }, 1
	default:
		n := image.NewNRGBA(dstRect)
		dst, pix, channels = n, func() []byte { return n.Pix }, 4
	}

	if w == src.Dx() && h == src.Dy() {
		xdraw.Draw(dst, dstRect, img, src.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dstRect, img, src, xdraw.Src, nil)
	}

	return scene.TextureRecord{
		Name:     name,
		Width:    w,
		Height:   h,
		Channels: channels,
		Pixels:   pix(),
	}
}

func fitWithin(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}
