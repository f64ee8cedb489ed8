// Package screenshot writes the default framebuffer to PNG or WebP files.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/HugoSmits86/nativewebp"

	"github.com/Faultbox/meshspy/internal/engine/gpu"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ErrFormat is returned for an unknown output format.
var ErrFormat = errors.New("unsupported screenshot format")

// Capture saves screenshots into a directory with timestamped names.
type Capture struct {
	outputDir string
	prefix    string
	format    string
	now       func() time.Time
}

// New returns a capture handler. An empty format means PNG.
func New(outputDir, prefix, format string) (*Capture, error) {
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatWebP {
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	return &Capture{outputDir: outputDir, prefix: prefix, format: format, now: time.Now}, nil
}

// Filename returns the path the next capture would be written to.
func (c *Capture) Filename() string {
	name := fmt.Sprintf("%s_%s.%s", c.prefix, c.now().Format("2006-01-02_15-04-05"), c.format)
	if c.outputDir != "" {
		name = filepath.Join(c.outputDir, name)
	}
	return name
}

// Grab reads the current default framebuffer and saves it.
func (c *Capture) Grab(dev gpu.Device, width, height int) (string, error) {
	return c.FromPixels(ReadFramebuffer(dev, width, height), width, height)
}

// ReadFramebuffer returns width x height RGBA pixels of the default
// framebuffer, bottom row first.
func ReadFramebuffer(dev gpu.Device, width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	pixels := make([]byte, width*height*4)
	dev.BindFramebuffer(gpu.ReadFramebuffer, 0)
	dev.PixelStorei(gpu.PackAlignment, 1)
	dev.ReadPixels(0, 0, int32(width), int32(height), gpu.RGBA, gpu.UnsignedByte, unsafe.Pointer(&pixels[0]))
	dev.PixelStorei(gpu.PackAlignment, 4)
	return pixels
}

// FromPixels saves bottom-up RGBA pixels and returns the written path.
func (c *Capture) FromPixels(pixels []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	return c.save(FlipRows(pixels, width, height))
}

// FlipRows copies bottom-up RGBA pixels into a top-down image.
func FlipRows(pixels []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img
}

func (c *Capture) save(img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, c.format); err != nil {
		return "", err
	}
	return filename, nil
}

// Encode writes img in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG, "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("encoding WebP: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
	return nil
}
