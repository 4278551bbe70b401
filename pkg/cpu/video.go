package cpu

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"

	"gochip8/pkg/grid"
)

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Frame is the monochrome framebuffer, row-major, true = lit.
type Frame [Height][Width]bool

// Palette maps lit and unlit pixels to colours.
type Palette struct {
	On  color.RGBA
	Off color.RGBA
}

// DefaultPalette draws white pixels on black.
var DefaultPalette = Palette{
	On:  color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
	Off: color.RGBA{0x00, 0x00, 0x00, 0xFF},
}

// Inverted swaps the on and off colours.
func (p Palette) Inverted() Palette {
	return Palette{On: p.Off, Off: p.On}
}

func (f *Frame) clear() {
	*f = Frame{}
}

// blit XORs sprite rows onto the frame starting at (x, y). Only the start
// position wraps; pixels past the right or bottom edge are clipped.
//
// drawn reports whether any lit sprite bit was drawn, last whether the final
// lit bit landed on a lit pixel and hit whether any lit bit did.
func (f *Frame) blit(x, y byte, rows []byte) (drawn, last, hit bool) {
	x0 := int(x) % Width
	y0 := int(y) % Height

	for r, bits := range rows {
		py := y0 + r
		if py >= Height {
			break
		}
		for b := 0; b < 8; b++ {
			px := x0 + b
			if px >= Width {
				break
			}
			if bits&(0x80>>b) == 0 {
				continue
			}
			drawn = true
			last = f[py][px]
			if last {
				hit = true
			}
			f[py][px] = !f[py][px]
		}
	}
	return drawn, last, hit
}

// Lit returns the number of lit pixels.
func (f Frame) Lit() int {
	n := 0
	for y := range f {
		for x := range f[y] {
			if f[y][x] {
				n++
			}
		}
	}
	return n
}

// String renders the frame as text, '#' for lit and '.' for unlit pixels.
func (f Frame) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)
	for y := range f {
		for x := range f[y] {
			if f[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RGBA decodes the frame into a Width×Height RGBA8888 byte slice suitable
// for ebiten.Image.WritePixels.
func (f Frame) RGBA(p Palette) []byte {
	pixels := make([]byte, Width*Height*4)
	for i := 0; i < Width*Height; i++ {
		x, y := grid.GetGridCoords(i, Width)
		c := p.Off
		if f[y][x] {
			c = p.On
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the frame as an *image.RGBA scaled by an integer factor.
func (f Frame) Image(p Palette, scale int) *image.RGBA {
	src := &image.RGBA{
		Pix:    f.RGBA(p),
		Stride: Width * 4,
		Rect:   image.Rect(0, 0, Width, Height),
	}
	if scale <= 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Framebuffer returns a copy of the current frame.
func (c *CPU) Framebuffer() Frame {
	return c.display
}

// GetFramebufferRGBA decodes the current frame with the given palette.
func (c *CPU) GetFramebufferRGBA(p Palette) []byte {
	return c.display.RGBA(p)
}

// SaveScreenshot encodes the current frame as a PNG and writes it to filename.
func (c *CPU) SaveScreenshot(filename string, p Palette, scale int) error {
	img := c.display.Image(p, scale)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
