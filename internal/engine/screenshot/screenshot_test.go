package screenshot

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/meshspy/internal/engine/gpu/gputest"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
}

func TestNewRejectsFormat(t *testing.T) {
	if _, err := New("", "shot", "gif"); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	c, err := New("", "shot", "")
	if err != nil || c.format != FormatPNG {
		t.Errorf("empty format should default to PNG: %v %v", c, err)
	}
}

func TestFilename(t *testing.T) {
	c, _ := New("out", "meshspy", FormatWebP)
	c.now = fixedClock
	want := filepath.Join("out", "meshspy_2024-03-09_14-05-06.webp")
	if got := c.Filename(); got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestFlipRows(t *testing.T) {
	// Two rows, bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img := FlipRows(pixels, 1, 2)
	if r, _, b, _ := img.At(0, 0).RGBA(); r != 0 || b == 0 {
		t.Error("first image row should be the last framebuffer row")
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r == 0 {
		t.Error("last image row should be the first framebuffer row")
	}
}

func TestFromPixelsPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	c, _ := New(dir, "test", FormatPNG)
	c.now = fixedClock

	path, err := c.FromPixels(make([]byte, 4*3*4), 4, 3)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := c.FromPixels(make([]byte, 5), 4, 3); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestEncodeWebP(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := Encode(&buf, img, FormatWebP); err != nil {
		t.Fatalf("encode: %v", err)
	}
	b := buf.Bytes()
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Error("output is not a RIFF/WEBP container")
	}
	if err := Encode(&buf, img, "tiff"); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestGrab(t *testing.T) {
	dev := gputest.New()
	dev.Pixel = [4]byte{10, 20, 30, 255}
	c, _ := New(t.TempDir(), "grab", FormatPNG)

	path, err := c.Grab(dev, 2, 2)
	if err != nil {
		t.Fatalf("grab: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("unexpected pixel %d %d %d", r>>8, g>>8, b>>8)
	}
	if dev.Count("ReadPixels") != 1 {
		t.Error("expected one ReadPixels call")
	}
	if ReadFramebuffer(dev, 0, 5) != nil {
		t.Error("empty viewport should read nothing")
	}
}
