package psx

import "image/color"

// A 2 dimensional vector
type Vec2 struct {
	X, Y int16
}

// A single vertex with a position, a color and texture coordinates
type Vertex struct {
	Position Vec2
	Color    color.RGBA
	TexX     uint8
	TexY     uint8
}

// Parse position from a GP0 parameter
func Vec2FromGP0(val uint32) Vec2 {
	x := int16(val)
	y := int16(val >> 16)
	return Vec2{X: x, Y: y}
}

// Parse color from a GP0 parameter
func ColorFromGP0(val uint32) color.RGBA {
	r := uint8(val)
	g := uint8(val >> 8)
	b := uint8(val >> 16)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func NewVertex(pos Vec2, clr color.RGBA) Vertex {
	return Vertex{Position: pos, Color: clr}
}

// Rasterization attributes shared by every pixel of a primitive
type PrimAttrs struct {
	Textured        bool
	Raw             bool  // Don't modulate texels with the vertex color
	SemiTransparent bool  // Blend with the framebuffer
	BlendMode       uint8 // Semi-transparency equation (0-3)
	Dither          bool
	ClutX           uint16 // Color lookup table position in VRAM
	ClutY           uint16
	PageX           uint16 // Texture page position in VRAM
	PageY           uint16
	Depth           TextureDepth
}

// The 4x4 ordered dithering offsets applied when converting from 24
// to 15 bit color
var ditherTable = [4][4]int32{
	{-4, 0, -3, 1},
	{2, -2, 3, -1},
	{-3, 1, -4, 0},
	{3, -1, 2, -2},
}

// Rounds a 16.16 fixed point value up to the next whole pixel
func fpCeil(v int64) int32 {
	return int32((v + 0xffff) >> 16)
}

// GP0(0x02): fill a 16 pixel aligned rectangle with a solid color.
// The fill bypasses the mask settings and the drawing area
func (gpu *GPU) GP0FillRect() {
	clr := ColorFromGP0(gpu.GP0Command.Get(0))
	pos := gpu.GP0Command.Get(1)
	size := gpu.GP0Command.Get(2)

	x := pos & 0x3f0
	y := (pos >> 16) & 0x1ff
	w := ((size & 0x3ff) + 0xf) & ^uint32(0xf)
	h := (size >> 16) & 0x1ff

	pixel := uint16(clr.R)>>3 | uint16(clr.G)>>3<<5 | uint16(clr.B)>>3<<10

	for row := uint32(0); row < h; row++ {
		for col := uint32(0); col < w; col++ {
			gpu.Vram.Store(uint16(x+col), uint16(y+row), pixel)
		}
	}
}

// GP0(0x80): copy a rectangle of VRAM onto another
func (gpu *GPU) GP0CopyRect() {
	src := gpu.GP0Command.Get(1)
	dst := gpu.GP0Command.Get(2)
	size := gpu.GP0Command.Get(3)

	w := ((size&0xffff - 1) & 0x3ff) + 1
	h := ((size>>16 - 1) & 0x1ff) + 1

	sx := src & 0x3ff
	sy := (src >> 16) & 0x1ff
	dx := dst & 0x3ff
	dy := (dst >> 16) & 0x1ff

	for row := uint32(0); row < h; row++ {
		for col := uint32(0); col < w; col++ {
			pixel := gpu.Vram.Load(uint16(sx+col), uint16(sy+row))
			gpu.putPixel(int32(dx+col)&0x3ff, int32(dy+row)&0x1ff, pixel)
		}
	}
}

// Writes a pixel to VRAM honoring the mask bit settings
func (gpu *GPU) putPixel(x, y int32, pixel uint16) {
	if gpu.PreserveMaskedPixels && gpu.Vram.Load(uint16(x), uint16(y))&0x8000 != 0 {
		return
	}
	if gpu.ForceSetMaskBit {
		pixel |= 0x8000
	}
	gpu.Vram.Store(uint16(x), uint16(y), pixel)
}

// Blends a single 5 bit channel with the framebuffer
func blendChannel(mode uint8, back, front int32) int32 {
	var r int32
	switch mode {
	case 0:
		r = (back + front) / 2
	case 1:
		r = back + front
	case 2:
		r = back - front
	default:
		r = back + front/4
	}

	if r < 0 {
		return 0
	}
	if r > 0x1f {
		return 0x1f
	}
	return r
}

// Fetches a texel through the texture window, going through the CLUT
// for the paletted modes. Returns the raw 1555 value, 0 denotes a
// fully transparent texel
func (gpu *GPU) sampleTexel(u, v int32, attrs *PrimAttrs) uint16 {
	tu := uint32(uint8(u))
	tv := uint32(uint8(v))

	xmask := uint32(gpu.TextureWindowXMask) << 3
	ymask := uint32(gpu.TextureWindowYMask) << 3
	tu = (tu & ^xmask) | (uint32(gpu.TextureWindowXOffset)<<3)&xmask
	tv = (tv & ^ymask) | (uint32(gpu.TextureWindowYOffset)<<3)&ymask

	switch attrs.Depth {
	case TEXTURE_DEPTH_4BIT:
		texel := gpu.Vram.Load(attrs.PageX+uint16(tu/4), attrs.PageY+uint16(tv))
		index := (texel >> ((tu % 4) * 4)) & 0xf
		return gpu.Vram.Load(attrs.ClutX+index, attrs.ClutY)
	case TEXTURE_DEPTH_8BIT:
		texel := gpu.Vram.Load(attrs.PageX+uint16(tu/2), attrs.PageY+uint16(tv))
		index := (texel >> ((tu % 2) * 8)) & 0xff
		return gpu.Vram.Load(attrs.ClutX+index, attrs.ClutY)
	default:
		return gpu.Vram.Load(attrs.PageX+uint16(tu), attrs.PageY+uint16(tv))
	}
}

// Computes the final framebuffer value for one pixel and writes it.
// `r`, `g`, `b` are the interpolated 8 bit vertex colors
func (gpu *GPU) shadePixel(x, y, r, g, b int32, u, v int32, attrs *PrimAttrs) {
	var mask uint16
	blend := attrs.SemiTransparent

	if attrs.Textured {
		texel := gpu.sampleTexel(u, v, attrs)
		if texel == 0 {
			// fully transparent texel
			return
		}

		mask = texel & 0x8000
		// only texels with the STP bit participate in blending
		blend = blend && mask != 0

		// expand the 5 bit texel channels to 8 bits
		tr := int32(texel&0x1f)<<3 | int32(texel&0x1f)>>2
		tg := int32(texel>>5&0x1f)<<3 | int32(texel>>5&0x1f)>>2
		tb := int32(texel>>10&0x1f)<<3 | int32(texel>>10&0x1f)>>2

		if attrs.Raw {
			r, g, b = tr, tg, tb
		} else {
			// modulate: the neutral vertex color is 128
			r = tr * r >> 7
			g = tg * g >> 7
			b = tb * b >> 7
		}
	}

	if attrs.Dither && !(attrs.Textured && attrs.Raw) {
		offset := ditherTable[y&3][x&3]
		r += offset
		g += offset
		b += offset
	}

	r5 := clampChannel(r) >> 3
	g5 := clampChannel(g) >> 3
	b5 := clampChannel(b) >> 3

	if blend {
		back := gpu.Vram.Load(uint16(x), uint16(y))
		r5 = blendChannel(attrs.BlendMode, int32(back&0x1f), r5)
		g5 = blendChannel(attrs.BlendMode, int32(back>>5&0x1f), g5)
		b5 = blendChannel(attrs.BlendMode, int32(back>>10&0x1f), b5)
	}

	gpu.putPixel(x, y, uint16(r5)|uint16(g5)<<5|uint16(b5)<<10|mask)
}

func clampChannel(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Internal vertex representation with the drawing offset applied
type rasterPoint struct {
	x, y    int32
	r, g, b int32
	u, v    int32
}

func (gpu *GPU) rasterPointFromVertex(vtx Vertex) rasterPoint {
	return rasterPoint{
		x: int32(vtx.Position.X) + int32(gpu.DrawingXOffset),
		y: int32(vtx.Position.Y) + int32(gpu.DrawingYOffset),
		r: int32(vtx.Color.R),
		g: int32(vtx.Color.G),
		b: int32(vtx.Color.B),
		u: int32(vtx.TexX),
		v: int32(vtx.TexY),
	}
}

// Rasterizes a triangle into VRAM: edges are walked top to bottom,
// every scanline span is filled left to right with attributes
// interpolated from the triangle's plane equation. Spans include
// their left bound and exclude their right bound so that two
// triangles sharing an edge tile exactly. Zero area and reversed
// triangles draw nothing
func (gpu *GPU) DrawTriangle(v0, v1, v2 Vertex, attrs PrimAttrs) {
	p := [3]rasterPoint{
		gpu.rasterPointFromVertex(v0),
		gpu.rasterPointFromVertex(v1),
		gpu.rasterPointFromVertex(v2),
	}

	cross := (p[1].x-p[0].x)*(p[2].y-p[0].y) - (p[1].y-p[0].y)*(p[2].x-p[0].x)
	if cross <= 0 {
		return
	}

	// sort by Y, top first
	if p[1].y < p[0].y {
		p[0], p[1] = p[1], p[0]
	}
	if p[2].y < p[0].y {
		p[0], p[2] = p[2], p[0]
	}
	if p[2].y < p[1].y {
		p[1], p[2] = p[2], p[1]
	}

	// signed denominator of the sorted points, the plane gradients
	// are exact for either orientation
	d := int64((p[1].x-p[0].x)*(p[2].y-p[0].y) - (p[1].y-p[0].y)*(p[2].x-p[0].x))
	if d == 0 {
		return
	}

	// 16.16 attribute gradients over the triangle plane
	gradient := func(a0, a1, a2 int32) (int64, int64) {
		da1 := int64(a1 - a0)
		da2 := int64(a2 - a0)
		dy1 := int64(p[1].y - p[0].y)
		dy2 := int64(p[2].y - p[0].y)
		dx1 := int64(p[1].x - p[0].x)
		dx2 := int64(p[2].x - p[0].x)

		dadx := ((da1*dy2 - da2*dy1) << 16) / d
		dady := ((da2*dx1 - da1*dx2) << 16) / d
		return dadx, dady
	}

	drdx, drdy := gradient(p[0].r, p[1].r, p[2].r)
	dgdx, dgdy := gradient(p[0].g, p[1].g, p[2].g)
	dbdx, dbdy := gradient(p[0].b, p[1].b, p[2].b)

	var dudx, dudy, dvdx, dvdy int64
	if attrs.Textured {
		dudx, dudy = gradient(p[0].u, p[1].u, p[2].u)
		dvdx, dvdy = gradient(p[0].v, p[1].v, p[2].v)
	}

	// edge X position at scanline y in 16.16 fixed point
	edgeX := func(a, b rasterPoint, y int32) int64 {
		if b.y == a.y {
			return int64(a.x) << 16
		}
		slope := (int64(b.x-a.x) << 16) / int64(b.y-a.y)
		return int64(a.x)<<16 + slope*int64(y-a.y)
	}

	// the long edge p0-p2 spans the full height, the short chain
	// p0-p1-p2 forms the other side. `cross` of the sorted points
	// tells which side the chain is on
	chainOnRight := d > 0

	clipTop := int32(gpu.DrawingAreaTop)
	clipBottom := int32(gpu.DrawingAreaBottom) + 1
	clipLeft := int32(gpu.DrawingAreaLeft)
	clipRight := int32(gpu.DrawingAreaRight) + 1

	yTop := maxInt32(p[0].y, clipTop)
	yBottom := minInt32(p[2].y, clipBottom)

	for y := yTop; y < yBottom; y++ {
		longX := edgeX(p[0], p[2], y)

		var chainX int64
		if y < p[1].y {
			chainX = edgeX(p[0], p[1], y)
		} else {
			chainX = edgeX(p[1], p[2], y)
		}

		var xl, xr int32
		if chainOnRight {
			xl, xr = fpCeil(longX), fpCeil(chainX)
		} else {
			xl, xr = fpCeil(chainX), fpCeil(longX)
		}

		xl = maxInt32(xl, clipLeft)
		xr = minInt32(xr, clipRight)

		for x := xl; x < xr; x++ {
			dx := int64(x - p[0].x)
			dy := int64(y - p[0].y)

			r := p[0].r + int32((drdx*dx+drdy*dy)>>16)
			g := p[0].g + int32((dgdx*dx+dgdy*dy)>>16)
			b := p[0].b + int32((dbdx*dx+dbdy*dy)>>16)

			var u, v int32
			if attrs.Textured {
				u = p[0].u + int32((dudx*dx+dudy*dy)>>16)
				v = p[0].v + int32((dvdx*dx+dvdy*dy)>>16)
			}

			gpu.shadePixel(x, y, r, g, b, u, v, &attrs)
		}
	}
}

// GP0(0x20-0x3F): draw a polygon. Quads are split into two triangles
// along the 1-2 diagonal
func (gpu *GPU) GP0DrawPolygon() {
	cmd := gpu.GP0Command.Get(0)
	opcode := cmd >> 24

	gouraud := opcode&0x10 != 0
	quad := opcode&0x08 != 0
	textured := opcode&0x04 != 0
	semi := opcode&0x02 != 0
	raw := textured && opcode&0x01 != 0

	numVertices := 3
	if quad {
		numVertices = 4
	}

	var verts [4]Vertex
	var clut, page uint32
	clr := ColorFromGP0(cmd)

	idx := uint8(1)
	for i := 0; i < numVertices; i++ {
		if gouraud && i > 0 {
			clr = ColorFromGP0(gpu.GP0Command.Get(idx))
			idx++
		}

		verts[i] = NewVertex(Vec2FromGP0(gpu.GP0Command.Get(idx)), clr)
		idx++

		if textured {
			uv := gpu.GP0Command.Get(idx)
			idx++
			verts[i].TexX = uint8(uv)
			verts[i].TexY = uint8(uv >> 8)

			switch i {
			case 0:
				clut = uv >> 16
			case 1:
				page = uv >> 16
			}
		}
	}

	attrs := PrimAttrs{
		Textured:        textured && !gpu.TextureDisable,
		Raw:             raw,
		SemiTransparent: semi,
		BlendMode:       gpu.SemiTransparency,
		Dither:          gpu.Dithering,
	}

	if textured {
		// the texture page word updates the global draw mode
		gpu.PageBaseX = uint8(page & 0xf)
		gpu.PageBaseY = uint8((page >> 4) & 1)
		gpu.SemiTransparency = uint8((page >> 5) & 3)
		switch (page >> 7) & 3 {
		case 0:
			gpu.TextureDepth = TEXTURE_DEPTH_4BIT
		case 1:
			gpu.TextureDepth = TEXTURE_DEPTH_8BIT
		default:
			gpu.TextureDepth = TEXTURE_DEPTH_15BIT
		}

		attrs.BlendMode = gpu.SemiTransparency
		attrs.ClutX = uint16(clut&0x3f) << 4
		attrs.ClutY = uint16(clut>>6) & 0x1ff
		attrs.PageX = uint16(gpu.PageBaseX) * 64
		attrs.PageY = uint16(gpu.PageBaseY) * 256
		attrs.Depth = gpu.TextureDepth
	}

	gpu.DrawTriangle(verts[0], verts[1], verts[2], attrs)
	if quad {
		// the second half keeps the winding of the first so a quad is
		// drawn or rejected as a whole, and both halves walk the
		// shared diagonal with identical edge interpolation
		gpu.DrawTriangle(verts[2], verts[1], verts[3], attrs)
	}
}

// GP0(0x60-0x7F): draw a rectangle. Rectangles are not gouraud
// shaded, not dithered and always axis aligned
func (gpu *GPU) GP0DrawRect() {
	cmd := gpu.GP0Command.Get(0)
	opcode := cmd >> 24

	textured := opcode&0x04 != 0
	semi := opcode&0x02 != 0
	raw := textured && opcode&0x01 != 0

	clr := ColorFromGP0(cmd)
	pos := Vec2FromGP0(gpu.GP0Command.Get(1))

	idx := uint8(2)
	var uBase, vBase int32
	attrs := PrimAttrs{
		Textured:        textured && !gpu.TextureDisable,
		Raw:             raw,
		SemiTransparent: semi,
		BlendMode:       gpu.SemiTransparency,
		PageX:           uint16(gpu.PageBaseX) * 64,
		PageY:           uint16(gpu.PageBaseY) * 256,
		Depth:           gpu.TextureDepth,
	}

	if textured {
		uv := gpu.GP0Command.Get(idx)
		idx++
		uBase = int32(uint8(uv))
		vBase = int32(uint8(uv >> 8))
		clut := uv >> 16
		attrs.ClutX = uint16(clut&0x3f) << 4
		attrs.ClutY = uint16(clut>>6) & 0x1ff
	}

	var width, height int32
	switch (opcode >> 3) & 3 {
	case 0:
		size := gpu.GP0Command.Get(idx)
		width = int32(size & 0x3ff)
		height = int32((size >> 16) & 0x1ff)
	case 1:
		width, height = 1, 1
	case 2:
		width, height = 8, 8
	default:
		width, height = 16, 16
	}

	x0 := int32(pos.X) + int32(gpu.DrawingXOffset)
	y0 := int32(pos.Y) + int32(gpu.DrawingYOffset)

	clipTop := int32(gpu.DrawingAreaTop)
	clipBottom := int32(gpu.DrawingAreaBottom) + 1
	clipLeft := int32(gpu.DrawingAreaLeft)
	clipRight := int32(gpu.DrawingAreaRight) + 1

	r := int32(clr.R)
	g := int32(clr.G)
	b := int32(clr.B)

	for row := int32(0); row < height; row++ {
		y := y0 + row
		if y < clipTop || y >= clipBottom {
			continue
		}

		v := vBase + row
		if gpu.RectangleTextureYFlip {
			v = vBase - row
		}

		for col := int32(0); col < width; col++ {
			x := x0 + col
			if x < clipLeft || x >= clipRight {
				continue
			}

			u := uBase + col
			if gpu.RectangleTextureXFlip {
				u = uBase - col
			}

			gpu.shadePixel(x, y, r, g, b, u, v, &attrs)
		}
	}
}

// GP0(0x40-0x5F): draw a line segment from the command buffer
func (gpu *GPU) GP0DrawLine() {
	cmd := gpu.GP0Command.Get(0)
	opcode := cmd >> 24

	gouraud := opcode&0x10 != 0
	semi := opcode&0x02 != 0

	c0 := ColorFromGP0(cmd)
	v0 := NewVertex(Vec2FromGP0(gpu.GP0Command.Get(1)), c0)

	var v1 Vertex
	if gouraud {
		v1 = NewVertex(Vec2FromGP0(gpu.GP0Command.Get(3)), ColorFromGP0(gpu.GP0Command.Get(2)))
	} else {
		v1 = NewVertex(Vec2FromGP0(gpu.GP0Command.Get(2)), c0)
	}

	gpu.DrawLineSegment(v0, v1, semi)

	if opcode&0x08 != 0 {
		// polyline: more vertices follow until the terminator
		gpu.PolylineActive = true
		gpu.PolylineGouraud = gouraud
		gpu.PolylineSemi = semi
		gpu.PolylinePrev = v1
		gpu.PolylineHasCol = false
	}
}

// First command of a polyline, same layout as a plain line
func (gpu *GPU) GP0StartPolyline() {
	gpu.GP0DrawLine()
}

// Handles a word received while a polyline is being drawn
func (gpu *GPU) gp0PolylineWord(val uint32) {
	if val&0xf000f000 == 0x50005000 {
		// terminator
		gpu.PolylineActive = false
		gpu.PolylineHasCol = false
		return
	}

	if gpu.PolylineGouraud && !gpu.PolylineHasCol {
		gpu.PolylineColor = val
		gpu.PolylineHasCol = true
		return
	}

	clr := gpu.PolylinePrev.Color
	if gpu.PolylineGouraud {
		clr = ColorFromGP0(gpu.PolylineColor)
	}
	vtx := NewVertex(Vec2FromGP0(val), clr)

	gpu.DrawLineSegment(gpu.PolylinePrev, vtx, gpu.PolylineSemi)
	gpu.PolylinePrev = vtx
	gpu.PolylineHasCol = false
}

// Draws a shaded line segment with a DDA walk over the major axis
func (gpu *GPU) DrawLineSegment(v0, v1 Vertex, semi bool) {
	p0 := gpu.rasterPointFromVertex(v0)
	p1 := gpu.rasterPointFromVertex(v1)

	dx := p1.x - p0.x
	dy := p1.y - p0.y

	steps := maxInt32(absInt32(dx), absInt32(dy))
	if steps > 1023 {
		// oversized lines are rejected by the hardware
		return
	}

	attrs := PrimAttrs{
		SemiTransparent: semi,
		BlendMode:       gpu.SemiTransparency,
		Dither:          gpu.Dithering,
	}

	clipTop := int32(gpu.DrawingAreaTop)
	clipBottom := int32(gpu.DrawingAreaBottom) + 1
	clipLeft := int32(gpu.DrawingAreaLeft)
	clipRight := int32(gpu.DrawingAreaRight) + 1

	// 16.16 steps for position and color
	n := int64(steps)
	if n == 0 {
		n = 1
	}
	xStep := int64(dx) << 16 / n
	yStep := int64(dy) << 16 / n
	rStep := int64(p1.r-p0.r) << 16 / n
	gStep := int64(p1.g-p0.g) << 16 / n
	bStep := int64(p1.b-p0.b) << 16 / n

	x := int64(p0.x) << 16
	y := int64(p0.y) << 16
	r := int64(p0.r) << 16
	g := int64(p0.g) << 16
	b := int64(p0.b) << 16

	for i := int32(0); i <= steps; i++ {
		px := int32(x >> 16)
		py := int32(y >> 16)

		if px >= clipLeft && px < clipRight && py >= clipTop && py < clipBottom {
			gpu.shadePixel(px, py, int32(r>>16), int32(g>>16), int32(b>>16), 0, 0, &attrs)
		}

		x += xStep
		y += yStep
		r += rStep
		g += gStep
		b += bStep
	}
}
