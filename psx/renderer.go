package psx

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	WINDOW_WIDTH  = 640
	WINDOW_HEIGHT = 480
)

// Ebitengine frontend: runs the console for one video frame per tick
// and scans the display area of VRAM out to the screen
type Frontend struct {
	Psx *PSX

	framebuffer *ebiten.Image
	pixels      []byte
	fbWidth     int
	fbHeight    int
}

func NewFrontend(psx *PSX) *Frontend {
	return &Frontend{Psx: psx}
}

func (f *Frontend) Update() error {
	f.Psx.RunFrame()
	return nil
}

// Size of the display area in VRAM pixels
func (f *Frontend) displaySize() (int, int) {
	gpu := f.Psx.Inter.Gpu

	// the dotclock divider decides how many VRAM pixels fit in the
	// active video line
	var width int
	switch divider := int(gpu.HRes.DotclockDivider()); divider {
	case 7:
		width = 368
	default:
		width = 2560 / divider
	}

	height := 240
	if gpu.VRes == VRES_480_LINES && gpu.Interlaced {
		height = 480
	}
	return width, height
}

// Decodes one display pixel. In 24 bit mode three bytes per pixel are
// packed across the 16 bit VRAM halfwords
func (f *Frontend) displayPixel(x, y int) color.RGBA {
	gpu := f.Psx.Inter.Gpu
	x0 := int(gpu.DisplayVRamXStart)
	y0 := int(gpu.DisplayVRamYStart)

	if gpu.DisplayDepth == DISPLAY_DEPTH_15BITS {
		return RGBAFromPixel(gpu.Vram.Load(uint16(x0+x), uint16(y0+y)))
	}

	off := x * 3
	h0 := gpu.Vram.Load(uint16(x0+off/2), uint16(y0+y))
	h1 := gpu.Vram.Load(uint16(x0+off/2+1), uint16(y0+y))

	var r, g, b uint8
	if off&1 == 0 {
		r = uint8(h0)
		g = uint8(h0 >> 8)
		b = uint8(h1)
	} else {
		r = uint8(h0 >> 8)
		g = uint8(h1)
		b = uint8(h1 >> 8)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func (f *Frontend) Draw(screen *ebiten.Image) {
	gpu := f.Psx.Inter.Gpu
	if gpu.DisplayDisabled {
		screen.Fill(color.RGBA{A: 255})
		return
	}

	width, height := f.displaySize()
	if f.fbWidth != width || f.fbHeight != height {
		f.framebuffer = ebiten.NewImage(width, height)
		f.pixels = make([]byte, width*height*4)
		f.fbWidth = width
		f.fbHeight = height
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			clr := f.displayPixel(x, y)
			idx := (y*width + x) * 4
			f.pixels[idx] = clr.R
			f.pixels[idx+1] = clr.G
			f.pixels[idx+2] = clr.B
			f.pixels[idx+3] = 255
		}
	}
	f.framebuffer.WritePixels(f.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(WINDOW_WIDTH)/float64(width),
		float64(WINDOW_HEIGHT)/float64(height),
	)
	screen.DrawImage(f.framebuffer, op)
}

func (f *Frontend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WINDOW_WIDTH, WINDOW_HEIGHT
}
