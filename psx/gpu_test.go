package psx

import "testing"

// GPU with the drawing area opened up to the whole framebuffer
func newTestGPU() *GPU {
	gpu := NewGPU()
	gpu.GP0(0xe3000000)
	gpu.GP0(0xe4000000 | 511<<10 | 1023)
	return gpu
}

func gp0Vertex(x, y int16) uint32 {
	return uint32(uint16(y))<<16 | uint32(uint16(x))
}

// Number of non-zero pixels inside the given VRAM window
func countPixels(vram *VRAM, x0, y0, w, h int) int {
	count := 0
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			if vram.Load(uint16(x), uint16(y)) != 0 {
				count++
			}
		}
	}
	return count
}

// A right triangle of base 4 and height 4 covers exactly 10 pixels
// under the top-to-bottom edge walk: rows of 4, 3, 2 and 1 pixels
func TestFlatTriangleSpanRule(t *testing.T) {
	gpu := newTestGPU()

	gpu.GP0(0x20ffffff) // flat opaque triangle, white
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(4, 0))
	gpu.GP0(gp0Vertex(0, 4))

	if got := countPixels(gpu.Vram, 0, 0, 16, 16); got != 10 {
		t.Errorf("expected 10 filled pixels, got %d", got)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4-y; x++ {
			if gpu.Vram.Load(uint16(x), uint16(y)) != 0x7fff {
				t.Errorf("pixel (%d, %d) not filled with white", x, y)
			}
		}
		// first pixel past the hypotenuse stays empty
		if gpu.Vram.Load(uint16(4-y), uint16(y)) != 0 {
			t.Errorf("pixel (%d, %d) past the edge was filled", 4-y, y)
		}
	}
}

// The two halves of a quad must tile exactly: no gap and no pixel
// covered by both along the shared diagonal
func TestQuadTilesExactly(t *testing.T) {
	verts := [4]Vertex{
		NewVertex(Vec2{0, 0}, ColorFromGP0(0xffffff)),
		NewVertex(Vec2{8, 0}, ColorFromGP0(0xffffff)),
		NewVertex(Vec2{0, 8}, ColorFromGP0(0xffffff)),
		NewVertex(Vec2{8, 8}, ColorFromGP0(0xffffff)),
	}

	gpu := newTestGPU()
	gpu.DrawTriangle(verts[0], verts[1], verts[2], PrimAttrs{})
	first := countPixels(gpu.Vram, 0, 0, 16, 16)

	gpu = newTestGPU()
	gpu.DrawTriangle(verts[2], verts[1], verts[3], PrimAttrs{})
	second := countPixels(gpu.Vram, 0, 0, 16, 16)

	gpu = newTestGPU()
	gpu.GP0(0x28ffffff) // flat opaque quad
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(8, 0))
	gpu.GP0(gp0Vertex(0, 8))
	gpu.GP0(gp0Vertex(8, 8))
	union := countPixels(gpu.Vram, 0, 0, 16, 16)

	if union != 64 {
		t.Errorf("expected the quad to cover 64 pixels, got %d", union)
	}
	if first+second != union {
		t.Errorf("diagonal is not tiled exactly: %d + %d != %d", first, second, union)
	}
}

// Zero-area and winding-reversed triangles draw nothing
func TestDegenerateTriangles(t *testing.T) {
	white := ColorFromGP0(0xffffff)

	gpu := newTestGPU()
	gpu.DrawTriangle(
		NewVertex(Vec2{0, 0}, white),
		NewVertex(Vec2{4, 4}, white),
		NewVertex(Vec2{8, 8}, white),
		PrimAttrs{},
	)
	if got := countPixels(gpu.Vram, 0, 0, 16, 16); got != 0 {
		t.Errorf("zero-area triangle filled %d pixels", got)
	}

	// same triangle as the span rule test with two vertices swapped
	gpu = newTestGPU()
	gpu.DrawTriangle(
		NewVertex(Vec2{0, 0}, white),
		NewVertex(Vec2{0, 4}, white),
		NewVertex(Vec2{4, 0}, white),
		PrimAttrs{},
	)
	if got := countPixels(gpu.Vram, 0, 0, 16, 16); got != 0 {
		t.Errorf("winding-reversed triangle filled %d pixels", got)
	}
}

func TestDrawingAreaClip(t *testing.T) {
	gpu := newTestGPU()
	// clip to a 2x2 window, right/bottom are inclusive
	gpu.GP0(0xe3000000)
	gpu.GP0(0xe4000000 | 1<<10 | 1)

	gpu.GP0(0x20ffffff)
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(8, 0))
	gpu.GP0(gp0Vertex(0, 8))

	if got := countPixels(gpu.Vram, 0, 0, 16, 16); got != 4 {
		t.Errorf("expected 4 pixels inside the clip window, got %d", got)
	}
}

func TestFillRect(t *testing.T) {
	gpu := newTestGPU()
	gpu.GP0(0x02ffffff)
	gpu.GP0(uint32(16)) // x = 16, y = 0
	gpu.GP0(uint32(16)<<16 | 32)

	if got := countPixels(gpu.Vram, 0, 0, 128, 32); got != 32*16 {
		t.Errorf("expected %d filled pixels, got %d", 32*16, got)
	}
	if gpu.Vram.Load(16, 0) != 0x7fff {
		t.Errorf("fill color mismatch: 0x%x", gpu.Vram.Load(16, 0))
	}
	if gpu.Vram.Load(15, 0) != 0 {
		t.Error("fill leaked outside its rectangle")
	}
}

// CPU-to-VRAM image load followed by a VRAM-to-CPU store round trips
// through the GP0/GPUREAD protocol
func TestImageLoadAndStore(t *testing.T) {
	gpu := newTestGPU()

	gpu.GP0(0xa0000000)
	gpu.GP0(gp0Vertex(8, 4))   // destination
	gpu.GP0(uint32(2)<<16 | 4) // 4x2 pixels, 4 words
	gpu.GP0(0x2222_1111)
	gpu.GP0(0x4444_3333)
	gpu.GP0(0x6666_5555)
	gpu.GP0(0x8888_7777)

	expected := []uint16{0x1111, 0x2222, 0x3333, 0x4444}
	for i, want := range expected {
		if got := gpu.Vram.Load(uint16(8+i), 4); got != want {
			t.Errorf("pixel %d: expected 0x%x, got 0x%x", i, want, got)
		}
	}
	if gpu.Vram.Load(8, 5) != 0x5555 {
		t.Errorf("second row mismatch: 0x%x", gpu.Vram.Load(8, 5))
	}

	gpu.GP0(0xc0000000)
	gpu.GP0(gp0Vertex(8, 4))
	gpu.GP0(uint32(2)<<16 | 4)

	for i := 0; i < 4; i++ {
		want := uint32(0x2222_1111 + uint32(i)*0x2222_2222)
		if got := gpu.Read(); got != want {
			t.Errorf("read word %d: expected 0x%x, got 0x%x", i, want, got)
		}
	}
}

// Semi-transparency mode 0 averages the source with the framebuffer
func TestSemiTransparentAverageBlend(t *testing.T) {
	gpu := newTestGPU()

	// white background
	gpu.GP0(0x02ffffff)
	gpu.GP0(0)
	gpu.GP0(uint32(16)<<16 | 16)

	// semi-transparent black triangle
	gpu.GP0(0x22000000)
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(8, 0))
	gpu.GP0(gp0Vertex(0, 8))

	want := uint16(15 | 15<<5 | 15<<10)
	if got := gpu.Vram.Load(1, 1); got != want {
		t.Errorf("expected blended pixel 0x%x, got 0x%x", want, got)
	}
}

// Mask bit handling: force-set writes the mask bit, preserve protects
// masked destination pixels
func TestMaskBits(t *testing.T) {
	gpu := newTestGPU()
	gpu.GP0(0xe6000001) // force-set

	gpu.GP0(0x20ffffff)
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(4, 0))
	gpu.GP0(gp0Vertex(0, 4))

	if got := gpu.Vram.Load(0, 0); got != 0xffff {
		t.Errorf("expected the mask bit to be set, got 0x%x", got)
	}

	// a masked pixel survives an overwrite when preservation is on
	gpu.GP0(0xe6000002)
	gpu.GP0(0x20000040) // dark red triangle
	gpu.GP0(gp0Vertex(0, 0))
	gpu.GP0(gp0Vertex(4, 0))
	gpu.GP0(gp0Vertex(0, 4))

	if got := gpu.Vram.Load(0, 0); got != 0xffff {
		t.Errorf("masked pixel was overwritten: 0x%x", got)
	}
}

// The texture window wraps texel coordinates before the CLUT lookup
func TestTexturedRectClut(t *testing.T) {
	gpu := newTestGPU()

	// texture page at (64, 0): one halfword holds four 4 bit texels
	// with indices 1, 2, 0, 3
	gpu.Vram.Store(64, 0, 0x3021)
	// CLUT at (0, 128)
	gpu.Vram.Store(0, 128, 0x0000) // index 0: transparent
	gpu.Vram.Store(1, 128, 0x001f) // index 1: red
	gpu.Vram.Store(2, 128, 0x03e0) // index 2: green
	gpu.Vram.Store(3, 128, 0x7c00) // index 3: blue

	// page base x = 1 (64 pixels), 4 bit depth
	gpu.GP0(0xe1000001)

	// raw textured rect, 4x1 at (32, 32), texcoord origin. The CLUT
	// attribute packs x/16 in bits 16-21 and y in bits 22-30
	gpu.GP0(0x65000000)
	gpu.GP0(gp0Vertex(32, 32))
	gpu.GP0(uint32(128) << 22)
	gpu.GP0(uint32(1)<<16 | 4)

	red := gpu.Vram.Load(32, 32)
	green := gpu.Vram.Load(33, 32)
	hole := gpu.Vram.Load(34, 32)
	blue := gpu.Vram.Load(35, 32)

	if red != 0x001f || green != 0x03e0 || blue != 0x7c00 {
		t.Errorf("texel lookup mismatch: 0x%x 0x%x 0x%x", red, green, blue)
	}
	if hole != 0 {
		t.Errorf("index 0 texel must stay transparent, got 0x%x", hole)
	}
}

// Opcodes in the unused GP0 and GP1 ranges are silently ignored,
// retail software does send them
func TestIgnoredGpuCommands(t *testing.T) {
	gpu := newTestGPU()

	for op := uint32(0x03); op <= 0x1e; op++ {
		gpu.GP0(op << 24)
	}
	gpu.GP1(0x09000001, NewTimeHandler())

	if gpu.GP0CommandRemaining != 0 {
		t.Errorf("ignored command left %d words pending", gpu.GP0CommandRemaining)
	}
	if gpu.GP0Mode != GP0_MODE_COMMAND {
		t.Error("ignored command changed the GP0 mode")
	}
}
