package psx

import (
	"image"
	"image/color"
)

const (
	VRAM_WIDTH_PIXELS  = 1024                                   // Width of the VRAM in 16 bit pixels
	VRAM_HEIGHT_PIXELS = 512                                    // Height of the VRAM in lines
	VRAM_SIZE_PIXELS   = VRAM_WIDTH_PIXELS * VRAM_HEIGHT_PIXELS // 1MB of VRAM
)

// The GPU framebuffer: 1024x512 16 bit pixels. Coordinates wrap
// around the edges
type VRAM struct {
	Data [VRAM_SIZE_PIXELS]uint16
}

func NewVRAM() *VRAM {
	return &VRAM{}
}

// Returns the pixel at `x`,`y`
func (vram *VRAM) Load(x, y uint16) uint16 {
	x &= VRAM_WIDTH_PIXELS - 1
	y &= VRAM_HEIGHT_PIXELS - 1
	return vram.Data[uint32(y)<<10|uint32(x)]
}

// Sets the pixel at `x`,`y`
func (vram *VRAM) Store(x, y, val uint16) {
	x &= VRAM_WIDTH_PIXELS - 1
	y &= VRAM_HEIGHT_PIXELS - 1
	vram.Data[uint32(y)<<10|uint32(x)] = val
}

// A 2 dimensional vector of unsigned values
type Vec2U struct {
	X, Y uint16
}

// Buffers a CPU to VRAM image transfer until all words have arrived
type ImageBuffer struct {
	Position   Vec2U                    // Top-left coordinates in VRAM
	Resolution Vec2U                    // Image resolution
	Buffer     [VRAM_SIZE_PIXELS]uint16 // Worst case: a full VRAM transfer
	Index      uint32                   // Position in the buffer
}

// Returns a new image buffer instance
func NewImageBuffer() *ImageBuffer {
	return &ImageBuffer{}
}

// Resets the image buffer to zeros
func (buf *ImageBuffer) Clear() {
	buf.Position.X = 0
	buf.Position.Y = 0
	buf.Resolution.X = 0
	buf.Resolution.Y = 0
	buf.Index = 0
}

func (buf *ImageBuffer) PushWord(word uint32) {
	buf.Buffer[buf.Index] = uint16(word)
	buf.Buffer[buf.Index+1] = uint16(word >> 16)
	buf.Index += 2
}

func (buf *ImageBuffer) Reset(x, y, width, height uint16) {
	buf.Position.X = x
	buf.Position.Y = y
	buf.Resolution.X = width
	buf.Resolution.Y = height
	buf.Index = 0
}

// Converts a 1555 BGR pixel to an RGBA color, expanding each 5 bit
// channel to 8 bits
func RGBAFromPixel(val uint16) color.RGBA {
	r := uint8(((val & 0x1f) << 3) | ((val & 0x1f) >> 2))
	g := uint8(((val >> 5 & 0x1f) << 3) | ((val >> 5 & 0x1f) >> 2))
	b := uint8(((val >> 10 & 0x1f) << 3) | ((val >> 10 & 0x1f) >> 2))
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Returns the color at `x`,`y`
func (buf *ImageBuffer) At(x, y int) color.Color {
	val := buf.Buffer[y*int(buf.Resolution.X)+x]
	return RGBAFromPixel(val)
}

// Converts the image to an image.RGBA
func (buf *ImageBuffer) ToImage() image.Image {
	width, height := int(buf.Resolution.X), int(buf.Resolution.Y)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// set each pixel
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, buf.At(x, y))
		}
	}
	return img
}
