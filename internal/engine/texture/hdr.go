// Package texture decodes environment maps and uploads images to the GPU.
package texture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// HDR decoding errors.
var (
	ErrHDRMagic      = errors.New("not a Radiance HDR file")
	ErrHDRFormat     = errors.New("unsupported HDR pixel format")
	ErrHDRResolution = errors.New("unsupported HDR resolution line")
	ErrHDRScanline   = errors.New("corrupt HDR scanline")
)

// HDRImage is a linear RGB float image, top row first.
type HDRImage struct {
	Width  int
	Height int
	Pix    []float32 // 3 floats per pixel
}

// At returns the RGB value at x, y.
func (m *HDRImage) At(x, y int) [3]float32 {
	i := (y*m.Width + x) * 3
	return [3]float32{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

// FlipVertical reverses the row order in place.
func (m *HDRImage) FlipVertical() {
	row := m.Width * 3
	tmp := make([]float32, row)
	for top, bottom := 0, m.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := m.Pix[top*row : (top+1)*row]
		b := m.Pix[bottom*row : (bottom+1)*row]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// LoadHDR reads a Radiance .hdr file.
func LoadHDR(path string) (*HDRImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeHDR(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeHDR decodes RGBE data, flat or adaptive run-length encoded, with
// the standard "-Y height +X width" orientation.
func DecodeHDR(r io.Reader) (*HDRImage, error) {
	br := bufio.NewReader(r)

	magic, err := readLine(br)
	if err != nil {
		return nil, ErrHDRMagic
	}
	if magic != "#?RADIANCE" && magic != "#?RGBE" {
		return nil, ErrHDRMagic
	}

	for {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok && v != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: %s", ErrHDRFormat, v)
		}
	}

	resLine, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading resolution: %w", err)
	}
	var width, height int
	if n, _ := fmt.Sscanf(resLine, "-Y %d +X %d", &height, &width); n != 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrHDRResolution, resLine)
	}

	img := &HDRImage{Width: width, Height: height, Pix: make([]float32, width*height*3)}
	scan := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scan, width); err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		out := img.Pix[y*width*3:]
		for x := 0; x < width; x++ {
			rgbe := scan[x*4 : x*4+4]
			out[x*3], out[x*3+1], out[x*3+2] = rgbeToFloat(rgbe[0], rgbe[1], rgbe[2], rgbe[3])
		}
	}
	return img, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readScanline fills dst with width RGBE pixels.
func readScanline(br *bufio.Reader, dst []byte, width int) error {
	if width < 8 || width > 0x7fff {
		_, err := io.ReadFull(br, dst)
		return err
	}

	var head [4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		copy(dst, head[:])
		_, err := io.ReadFull(br, dst[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("%w: encoded width mismatch", ErrHDRScanline)
	}

	// Adaptive RLE stores the four components in separate planes.
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count - 128)
				if x+n > width {
					return fmt.Errorf("%w: run overflows row", ErrHDRScanline)
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for ; n > 0; n-- {
					dst[x*4+c] = v
					x++
				}
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("%w: bad literal length %d", ErrHDRScanline, n)
			}
			for ; n > 0; n-- {
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				dst[x*4+c] = v
				x++
			}
		}
	}
	return nil
}

func rgbeToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := float32(math.Ldexp(1, int(e)-(128+8)))
	return float32(r) * f, float32(g) * f, float32(b) * f
}
