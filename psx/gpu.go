package psx

// Represents the depth of the pixel values in a texture page
type TextureDepth uint8

const (
	TEXTURE_DEPTH_4BIT  TextureDepth = 0 // 4 bits per pixel
	TEXTURE_DEPTH_8BIT  TextureDepth = 1 // 8 bits per pixel
	TEXTURE_DEPTH_15BIT TextureDepth = 2 // 15 bits per pixel
)

// Interlaced output splits each frame in two fields
type Field uint8

const (
	FIELD_TOP    Field = 1 // Top field (odd lines)
	FIELD_BOTTOM Field = 0 // Bottom field (even lines)
)

// Video output horizontal resolution
type HorizontalRes uint8

// Create a new HorizontalRes instance from the 2 bit field `hr1` and the one
// bit field `hr2`
func HResFromFields(hr1, hr2 uint8) HorizontalRes {
	hr := (hr2 & 1) | ((hr1 & 3) << 1)
	return HorizontalRes(hr)
}

// Return value of bits [18:16] of the status register
func (hr HorizontalRes) IntoStatus() uint32 {
	return uint32(hr) << 16
}

// Returns the divider applied to the GPU clock to generate the pixel
// clock for this resolution
func (hr HorizontalRes) DotclockDivider() uint8 {
	if hr&1 != 0 {
		// 368 pixel mode, the "hr2" bit takes precedence
		return 7
	}

	switch hr >> 1 {
	case 0: // 256 pixels
		return 10
	case 1: // 320 pixels
		return 8
	case 2: // 512 pixels
		return 5
	default: // 640 pixels
		return 4
	}
}

// Video output vertical resolution
type VerticalRes uint8

const (
	VRES_240_LINES VerticalRes = 0 // 240 lines
	VRES_480_LINES VerticalRes = 1 // 480 lines (only available for interlaced output)
)

// Represents a video mode (NTSC/PAL)
type VMode uint8

const (
	VMODE_NTSC VMode = 0 // NTSC: 480i60Hz
	VMODE_PAL  VMode = 1 // PAL: 576i50Hz
)

// Display area color depth
type DisplayDepth uint8

const (
	DISPLAY_DEPTH_15BITS DisplayDepth = 0 // 15 bits per pixel
	DISPLAY_DEPTH_24BITS DisplayDepth = 1 // 24 bits per pixel
)

// Represents the requested DMA direction
type DmaDirection uint8

const (
	DD_DMA_OFF     DmaDirection = 0
	DD_DMA_FIFO    DmaDirection = 1
	DD_CPU_TO_GP0  DmaDirection = 2
	DD_VRAM_TO_CPU DmaDirection = 3
)

// The GP0 port is either assembling commands or receiving an image
// transfer
type GP0Mode uint8

const (
	GP0_MODE_COMMAND    GP0Mode = 0 // Default mode, handling commands
	GP0_MODE_IMAGE_LOAD GP0Mode = 1 // Loading an image into VRAM
)

// Tracks an in-flight VRAM to CPU transfer, read out word by word
// through the GPUREAD register
type VRamReadBuffer struct {
	Position   Vec2U  // Top-left coordinates in VRAM
	Resolution Vec2U  // Rectangle being read
	Index      uint32 // Pixels handed to the CPU so far
	Active     bool
}

type GPU struct {
	PageBaseX uint8 // Texture page base X coordinate (4 bits, 64 byte increment)
	PageBaseY uint8 // Texture page base Y coordinate (1 bit, 256 line increment)
	// Semi-transparency blend mode: how the source and destination
	// colors are combined
	SemiTransparency uint8
	TextureDepth     TextureDepth // Texture page color depth
	Dithering        bool         // Enable dithering from 24 to 15 bits RGB
	DrawToDisplay    bool         // Allow drawing to the display area
	// Force "mask" bit of the pixel to 1 when writing to VRAM (otherwise, don't
	// modify it)
	ForceSetMaskBit      bool
	PreserveMaskedPixels bool // Don't draw to pixels which have the "mask" bit set
	// Currently displayed field. For progressive output this is always FIELD_TOP
	Field          Field
	TextureDisable bool          // When true, all textures are disabled
	VRes           VerticalRes   // Video output vertical resolution
	HRes           HorizontalRes // Video output horizontal resolution
	VMode          VMode         // Video mode
	// Display depth. The GPU itself always draws 15 bit RGB, 24 bit output must
	// use external assets (pre-rendered textures, MDEC, etc.)
	DisplayDepth          DisplayDepth
	Interlaced            bool         // Output interlaced video signal instead of progressive
	DisplayDisabled       bool         // Disable the display
	Interrupt             bool         // True when the interrupt is active
	DmaDirection          DmaDirection // DMA request direction
	RectangleTextureXFlip bool         // Mirror textured rectangles along the X axis
	RectangleTextureYFlip bool         // Mirror textured rectangles along the Y axis
	TextureWindowXMask    uint8        // Texture window X mask (8 pixel steps)
	TextureWindowYMask    uint8        // Texture window Y mask (8 pixel steps)
	TextureWindowXOffset  uint8        // Texture window X offset (8 pixel steps)
	TextureWindowYOffset  uint8        // Texture window Y offset (8 pixel steps)
	DrawingAreaLeft       uint16       // Left-most column of the drawing area
	DrawingAreaTop        uint16       // Top−most line of the drawing area
	DrawingAreaRight      uint16       // Right−most column of the drawing area
	DrawingAreaBottom     uint16       // Bottom−most line of the drawing area
	DrawingXOffset        int16        // Horizontal drawing offset applied to all vertex
	DrawingYOffset        int16        // Vertical drawing offset applied to all vertex
	DisplayVRamXStart     uint16       // First column of the display area in VRAM
	DisplayVRamYStart     uint16       // First line of the display area in VRAM
	DisplayHorizStart     uint16       // Display output horizontal start relative to HSYNC
	DisplayHorizEnd       uint16       // Display output horizontal end relative to HSYNC
	DisplayLineStart      uint16       // Display output first line relative to VSYNC
	DisplayLineEnd        uint16       // Display output last line relative to VSYNC

	Vram                *VRAM          // The framebuffer
	GP0Command          *CommandBuffer // Buffer containing the current GP0 command
	GP0CommandRemaining uint32         // Remaining words for the current GP0 command
	GP0CommandMethod    func()         // Method implementing the current GP0 command
	GP0Mode             GP0Mode        // Current mode of the GP0 port
	LoadBuffer          *ImageBuffer   // Buffer for CPU to VRAM transfers
	ReadBuffer          VRamReadBuffer // State of a VRAM to CPU transfer
	ReadWord            uint32         // Response to GP1(0x10) info requests

	// Polylines are open ended, words keep coming until the
	// terminator shows up
	PolylineActive  bool
	PolylineGouraud bool
	PolylineSemi    bool
	PolylinePrev    Vertex
	PolylineColor   uint32 // Pending gouraud color word
	PolylineHasCol  bool

	// Video timing state
	ClockPhase  uint16 // Leftover fixed point GPU clock (11/7ths of the CPU clock)
	DisplayLine uint16 // Currently displayed video line
	LineTick    uint16 // GPU clock tick within the current line
	InHblank    bool
	InVblank    bool
	HBlankCount uint64 // Total horizontal blanking events
	VBlankCount uint64 // Total vertical blanking events
	FrameCount  uint64 // Completed frames, bumped when vertical blanking starts
}

func NewGPU() *GPU {
	gpu := &GPU{
		Field:      FIELD_TOP,
		Vram:       NewVRAM(),
		GP0Command: NewCommandBuffer(),
		LoadBuffer: NewImageBuffer(),
	}
	// the power on state matches a GP1 soft reset, in particular the
	// display ranges must be sane so that blanking toggles every frame
	// even before the software programs the GPU
	gpu.GP1Reset()
	return gpu
}

// Number of GPU clock ticks in a video line for the current standard
func (gpu *GPU) TicksPerLine() uint64 {
	if gpu.VMode == VMODE_PAL {
		return 3404
	}
	return 3412
}

// Number of video lines in a frame for the current standard
func (gpu *GPU) LinesPerFrame() uint64 {
	if gpu.VMode == VMODE_PAL {
		return 314
	}
	return 263
}

// Synchronizes the video output state with the shared cycle counter,
// raising the vertical blanking interrupt when a frame ends
func (gpu *GPU) Sync(th *TimeHandler, irqState *IrqState) {
	delta := th.Sync(PERIPHERAL_GPU)

	// the GPU clock runs at 11/7 of the CPU clock, carry the
	// remainder between syncs
	clk := delta*11 + uint64(gpu.ClockPhase)
	ticks := clk / 7
	gpu.ClockPhase = uint16(clk % 7)

	ticksPerLine := gpu.TicksPerLine()
	linesPerFrame := gpu.LinesPerFrame()

	lineTick := uint64(gpu.LineTick) + ticks
	newLines := lineTick / ticksPerLine
	gpu.LineTick = uint16(lineTick % ticksPerLine)
	gpu.HBlankCount += newLines

	line := uint64(gpu.DisplayLine) + newLines
	if line >= linesPerFrame {
		line %= linesPerFrame

		// new frame: toggle the field for interlaced output
		if gpu.Interlaced {
			gpu.Field ^= 1
		} else {
			gpu.Field = FIELD_TOP
		}
	}
	gpu.DisplayLine = uint16(line)

	// the output is blanked outside of the horizontal display range
	t := uint32(gpu.LineTick)
	gpu.InHblank = t < uint32(gpu.DisplayHorizStart) || t >= uint32(gpu.DisplayHorizEnd)

	vblank := gpu.InVblankLine(gpu.DisplayLine)
	if vblank && !gpu.InVblank {
		// vertical blanking starts, the frame is complete
		gpu.VBlankCount++
		gpu.FrameCount++
		irqState.SetHigh(INTERRUPT_VBLANK)
	}
	gpu.InVblank = vblank

	if gpu.Interrupt {
		irqState.SetHigh(INTERRUPT_GPU)
	}

	gpu.predictNextSync(th)
}

// Returns true if `line` is within the vertical blanking area
func (gpu *GPU) InVblankLine(line uint16) bool {
	return line < gpu.DisplayLineStart || line >= gpu.DisplayLineEnd
}

// Schedules the next forced sync at the next vertical blanking edge
func (gpu *GPU) predictNextSync(th *TimeHandler) {
	ticksPerLine := gpu.TicksPerLine()
	linesPerFrame := gpu.LinesPerFrame()
	line := uint64(gpu.DisplayLine)
	start := uint64(gpu.DisplayLineStart)
	end := uint64(gpu.DisplayLineEnd)

	var targetLine uint64
	switch {
	case line < start:
		targetLine = start
	case line < end:
		targetLine = end
	default:
		targetLine = linesPerFrame + start
	}

	ticks := (targetLine-line)*ticksPerLine - uint64(gpu.LineTick)

	// convert GPU ticks back to CPU cycles, rounding up
	clk := ticks * 7
	if clk > uint64(gpu.ClockPhase) {
		clk -= uint64(gpu.ClockPhase)
	}
	delta := (clk + 10) / 11
	if delta == 0 {
		delta = 1
	}

	th.SetNextSyncDelta(PERIPHERAL_GPU, delta)
}

// Period of the pixel clock in CPU cycles
func (gpu *GPU) DotclockPeriod() FracCycles {
	divider := uint64(gpu.HRes.DotclockDivider())
	// dotclock = gpu clock / divider, gpu clock = cpu clock * 11/7
	return FracCyclesFromFixed((divider * 7 << FRAC_BITS) / 11)
}

// Current phase of the pixel clock in CPU cycles
func (gpu *GPU) DotclockPhase() FracCycles {
	divider := uint64(gpu.HRes.DotclockDivider())
	tick := uint64(gpu.LineTick) % divider
	return FracCyclesFromFixed((tick * 7 << FRAC_BITS) / 11)
}

// Period of the horizontal sync signal in CPU cycles
func (gpu *GPU) HSyncPeriod() FracCycles {
	return FracCyclesFromFixed((gpu.TicksPerLine() * 7 << FRAC_BITS) / 11)
}

// Current phase within the horizontal sync period in CPU cycles
func (gpu *GPU) HSyncPhase() FracCycles {
	return FracCyclesFromFixed((uint64(gpu.LineTick) * 7 << FRAC_BITS) / 11)
}

// Handle writes to the GP0 command register
func (gpu *GPU) GP0(val uint32) {
	if gpu.GP0Mode == GP0_MODE_IMAGE_LOAD {
		gpu.LoadBuffer.PushWord(val)
		gpu.GP0CommandRemaining--

		if gpu.GP0CommandRemaining == 0 {
			gpu.blitLoadBuffer()
			gpu.GP0Mode = GP0_MODE_COMMAND
		}
		return
	}

	if gpu.PolylineActive {
		gpu.gp0PolylineWord(val)
		return
	}

	if gpu.GP0CommandRemaining == 0 {
		// start a new command
		length, method := gpu.gp0Command(val)
		gpu.GP0CommandRemaining = length
		gpu.GP0CommandMethod = method
		gpu.GP0Command.Clear()
	}

	gpu.GP0Command.PushWord(val)
	gpu.GP0CommandRemaining--

	if gpu.GP0CommandRemaining == 0 {
		gpu.GP0CommandMethod()
	}
}

// Returns the length (in words, including `val` itself) and the
// method implementing the GP0 command starting with `val`
func (gpu *GPU) gp0Command(val uint32) (uint32, func()) {
	opcode := (val >> 24) & 0xff

	switch {
	case opcode == 0x00:
		return 1, gpu.GP0Nop
	case opcode == 0x01:
		// clear cache: we don't emulate the texture cache
		return 1, gpu.GP0Nop
	case opcode == 0x02:
		return 3, gpu.GP0FillRect
	case opcode >= 0x03 && opcode <= 0x1e:
		// unused opcodes, games send them and the hardware ignores them
		return 1, gpu.GP0Nop
	case opcode == 0x1f:
		return 1, gpu.GP0InterruptRequest
	case opcode >= 0x20 && opcode <= 0x3f:
		return gp0PolygonLength(opcode), gpu.GP0DrawPolygon
	case opcode >= 0x40 && opcode <= 0x5f:
		gouraud := opcode&0x10 != 0
		if opcode&0x08 != 0 {
			// polyline: the command word plus the first two vertices,
			// after that words keep coming until the terminator
			if gouraud {
				return 4, gpu.GP0StartPolyline
			}
			return 3, gpu.GP0StartPolyline
		}
		if gouraud {
			return 4, gpu.GP0DrawLine
		}
		return 3, gpu.GP0DrawLine
	case opcode >= 0x60 && opcode <= 0x7f:
		return gp0RectLength(opcode), gpu.GP0DrawRect
	case opcode >= 0x80 && opcode <= 0x9f:
		return 4, gpu.GP0CopyRect
	case opcode >= 0xa0 && opcode <= 0xbf:
		return 3, gpu.GP0ImageLoad
	case opcode >= 0xc0 && opcode <= 0xdf:
		return 3, gpu.GP0ImageStore
	case opcode == 0xe1:
		return 1, gpu.GP0DrawMode
	case opcode == 0xe2:
		return 1, gpu.GP0TextureWindow
	case opcode == 0xe3:
		return 1, gpu.GP0DrawingAreaTopLeft
	case opcode == 0xe4:
		return 1, gpu.GP0DrawingAreaBottomRight
	case opcode == 0xe5:
		return 1, gpu.GP0DrawingOffset
	case opcode == 0xe6:
		return 1, gpu.GP0MaskBitSetting
	default:
		panicFmt("gpu: unhandled GP0 command 0x%x", val)
	}
	return 1, gpu.GP0Nop
}

// Number of words in a polygon command: one vertex word per vertex,
// one color word per vertex when gouraud shaded (the first one is the
// command word itself) and one texture coordinate word per vertex
// when textured
func gp0PolygonLength(opcode uint32) uint32 {
	gouraud := opcode&0x10 != 0
	quad := opcode&0x08 != 0
	textured := opcode&0x04 != 0

	vertices := uint32(3)
	if quad {
		vertices = 4
	}

	length := vertices
	if textured {
		length += vertices
	}
	if gouraud {
		length += vertices
	} else {
		length++
	}
	return length
}

// Number of words in a rectangle command
func gp0RectLength(opcode uint32) uint32 {
	length := uint32(2)
	if opcode&0x04 != 0 {
		// textured
		length++
	}
	if (opcode>>3)&3 == 0 {
		// variable size takes an extra word
		length++
	}
	return length
}

func (gpu *GPU) GP0Nop() {}

// GP0(0x1F): set the GPU interrupt, acknowledged through GP1(0x02)
func (gpu *GPU) GP0InterruptRequest() {
	gpu.Interrupt = true
}

// GP0(0xE1) command
func (gpu *GPU) GP0DrawMode() {
	val := gpu.GP0Command.Get(0)

	gpu.PageBaseX = uint8(val & 0xf)
	gpu.PageBaseY = uint8((val >> 4) & 1)
	gpu.SemiTransparency = uint8((val >> 5) & 3)

	switch (val >> 7) & 3 {
	case 0:
		gpu.TextureDepth = TEXTURE_DEPTH_4BIT
	case 1:
		gpu.TextureDepth = TEXTURE_DEPTH_8BIT
	case 2, 3:
		// depth 3 is a mirror of the 15 bit mode
		gpu.TextureDepth = TEXTURE_DEPTH_15BIT
	}

	gpu.Dithering = ((val >> 9) & 1) != 0
	gpu.DrawToDisplay = ((val >> 10) & 1) != 0
	gpu.TextureDisable = ((val >> 11) & 1) != 0
	gpu.RectangleTextureXFlip = ((val >> 12) & 1) != 0
	gpu.RectangleTextureYFlip = ((val >> 13) & 1) != 0
}

// GP0(0xE3): Set Drawing Area Top Left
func (gpu *GPU) GP0DrawingAreaTopLeft() {
	val := gpu.GP0Command.Get(0)
	gpu.DrawingAreaTop = uint16((val >> 10) & 0x3ff)
	gpu.DrawingAreaLeft = uint16(val & 0x3ff)
}

// GP0(0xE4): Set Drawing Area BottomRight
func (gpu *GPU) GP0DrawingAreaBottomRight() {
	val := gpu.GP0Command.Get(0)
	gpu.DrawingAreaBottom = uint16((val >> 10) & 0x3ff)
	gpu.DrawingAreaRight = uint16(val & 0x3ff)
}

// GP0(0xE5): Set Drawing Offset
func (gpu *GPU) GP0DrawingOffset() {
	val := gpu.GP0Command.Get(0)
	x := uint16(val & 0x7ff)
	y := uint16((val >> 11) & 0x7ff)

	// values are 11 bit *signed* two's complement values, we need to
	// shift the value to 16 bits to force sign extension
	gpu.DrawingXOffset = (int16(x << 5)) >> 5
	gpu.DrawingYOffset = (int16(y << 5)) >> 5
}

// GP0(0xE2): Set Texture Window
func (gpu *GPU) GP0TextureWindow() {
	val := gpu.GP0Command.Get(0)
	gpu.TextureWindowXMask = uint8(val & 0x1f)
	gpu.TextureWindowYMask = uint8((val >> 5) & 0x1f)
	gpu.TextureWindowXOffset = uint8((val >> 10) & 0x1f)
	gpu.TextureWindowYOffset = uint8((val >> 15) & 0x1f)
}

// GP0(0xE6): Set Mask Bit Setting
func (gpu *GPU) GP0MaskBitSetting() {
	val := gpu.GP0Command.Get(0)
	gpu.ForceSetMaskBit = (val & 1) != 0
	gpu.PreserveMaskedPixels = (val & 2) != 0
}

// GP0(0xA0): Image Load: copies a rectangle from the CPU to VRAM
func (gpu *GPU) GP0ImageLoad() {
	res := gpu.GP0Command.Get(2)

	width := res & 0xffff
	height := res >> 16

	// 0 is a mirror of the maximum size
	width = ((width - 1) & 0x3ff) + 1
	height = ((height - 1) & 0x1ff) + 1

	pos := gpu.GP0Command.Get(1)
	x := uint16(pos) & 0x3ff
	y := uint16(pos>>16) & 0x1ff

	gpu.LoadBuffer.Reset(x, y, uint16(width), uint16(height))

	// round up for odd pixel counts, each word holds two pixels
	imgSize := (width*height + 1) & ^uint32(1)

	gpu.GP0CommandRemaining = imgSize / 2
	if gpu.GP0CommandRemaining == 0 {
		// no transfer needed for a zero sized image
		return
	}
	gpu.GP0Mode = GP0_MODE_IMAGE_LOAD
}

// Copies the completed load buffer into VRAM
func (gpu *GPU) blitLoadBuffer() {
	buf := gpu.LoadBuffer
	w := uint32(buf.Resolution.X)
	h := uint32(buf.Resolution.Y)

	for row := uint32(0); row < h; row++ {
		y := (uint32(buf.Position.Y) + row) & 0x1ff
		for col := uint32(0); col < w; col++ {
			x := (uint32(buf.Position.X) + col) & 0x3ff

			if gpu.PreserveMaskedPixels && gpu.Vram.Load(uint16(x), uint16(y))&0x8000 != 0 {
				continue
			}

			pixel := buf.Buffer[row*w+col]
			if gpu.ForceSetMaskBit {
				pixel |= 0x8000
			}
			gpu.Vram.Store(uint16(x), uint16(y), pixel)
		}
	}

	buf.Clear()
}

// GP0(0xC0): Image Store: copies a rectangle from VRAM to the CPU,
// read out through the GPUREAD register
func (gpu *GPU) GP0ImageStore() {
	res := gpu.GP0Command.Get(2)

	width := res & 0xffff
	height := res >> 16

	width = ((width - 1) & 0x3ff) + 1
	height = ((height - 1) & 0x1ff) + 1

	pos := gpu.GP0Command.Get(1)

	gpu.ReadBuffer = VRamReadBuffer{
		Position:   Vec2U{X: uint16(pos) & 0x3ff, Y: uint16(pos>>16) & 0x1ff},
		Resolution: Vec2U{X: uint16(width), Y: uint16(height)},
		Active:     true,
	}
}

// Return value of the `read` register
func (gpu *GPU) Read() uint32 {
	if !gpu.ReadBuffer.Active {
		return gpu.ReadWord
	}

	lo := uint32(gpu.readBufferPixel())
	hi := uint32(gpu.readBufferPixel())
	return lo | hi<<16
}

func (gpu *GPU) readBufferPixel() uint16 {
	buf := &gpu.ReadBuffer
	if !buf.Active {
		return 0
	}

	w := uint32(buf.Resolution.X)
	x := uint16(uint32(buf.Position.X) + buf.Index%w)
	y := uint16(uint32(buf.Position.Y) + buf.Index/w)
	buf.Index++

	if buf.Index >= w*uint32(buf.Resolution.Y) {
		buf.Active = false
	}

	return gpu.Vram.Load(x, y)
}

// Handle writes to the GP1 command register. Returns true when the
// command changed the video timings
func (gpu *GPU) GP1(val uint32, th *TimeHandler) bool {
	opcode := (val >> 24) & 0xff

	switch opcode {
	case 0x00:
		gpu.GP1Reset()
		return true
	case 0x01:
		gpu.GP1ResetCommandBuffer()
	case 0x02:
		gpu.GP1AcknowledgeIrq()
	case 0x03:
		gpu.GP1DisplayEnable(val)
	case 0x04:
		gpu.GP1DmaDirection(val)
	case 0x05:
		gpu.GP1DisplayVRAMStart(val)
	case 0x06:
		gpu.GP1DisplayHorizontalRange(val)
	case 0x07:
		gpu.GP1DisplayVerticalRange(val)
	case 0x08:
		gpu.GP1DisplayMode(val)
		return true
	case 0x09:
		// "new texture disable" flag, ignored on retail units
	case 0x10:
		gpu.GP1GetInfo(val)
	default:
		panicFmt("gpu: unhandled GP1 command 0x%x", val)
	}
	return false
}

// GP1(0x00): soft reset
func (gpu *GPU) GP1Reset() {
	gpu.Interrupt = false
	gpu.PageBaseX = 0
	gpu.PageBaseY = 0
	gpu.SemiTransparency = 0
	gpu.TextureDepth = TEXTURE_DEPTH_4BIT
	gpu.TextureWindowXMask = 0
	gpu.TextureWindowYMask = 0
	gpu.TextureWindowXOffset = 0
	gpu.TextureWindowYOffset = 0
	gpu.Dithering = false
	gpu.DrawToDisplay = false
	gpu.TextureDisable = false
	gpu.RectangleTextureXFlip = false
	gpu.RectangleTextureYFlip = false
	gpu.DrawingAreaLeft = 0
	gpu.DrawingAreaTop = 0
	gpu.DrawingAreaRight = 0
	gpu.DrawingAreaBottom = 0
	gpu.DrawingXOffset = 0
	gpu.DrawingYOffset = 0
	gpu.ForceSetMaskBit = false
	gpu.PreserveMaskedPixels = false
	gpu.DmaDirection = DD_DMA_OFF
	gpu.DisplayDisabled = true
	gpu.DisplayVRamXStart = 0
	gpu.DisplayVRamYStart = 0
	gpu.HRes = HResFromFields(0, 0)
	gpu.VRes = VRES_240_LINES
	gpu.VMode = VMODE_NTSC
	gpu.Interlaced = true
	gpu.DisplayHorizStart = 0x200
	gpu.DisplayHorizEnd = 0xc00
	gpu.DisplayLineStart = 0x10
	gpu.DisplayLineEnd = 0x100
	gpu.DisplayDepth = DISPLAY_DEPTH_15BITS

	gpu.GP1ResetCommandBuffer()
}

// GP1(0x01): clears the command FIFO and any partial command state
func (gpu *GPU) GP1ResetCommandBuffer() {
	gpu.GP0Command.Clear()
	gpu.GP0CommandRemaining = 0
	gpu.GP0Mode = GP0_MODE_COMMAND
	gpu.PolylineActive = false
	gpu.LoadBuffer.Clear()
}

// GP1(0x02): acknowledges the GP0(0x1F) interrupt
func (gpu *GPU) GP1AcknowledgeIrq() {
	gpu.Interrupt = false
}

// GP1(0x03): display enable
func (gpu *GPU) GP1DisplayEnable(val uint32) {
	gpu.DisplayDisabled = val&1 != 0
}

// GP1(0x08): display mode
func (gpu *GPU) GP1DisplayMode(val uint32) {
	hr1 := uint8(val & 3)
	hr2 := uint8((val >> 6) & 1)

	gpu.HRes = HResFromFields(hr1, hr2)

	if val&0x4 != 0 {
		gpu.VRes = VRES_480_LINES
	} else {
		gpu.VRes = VRES_240_LINES
	}

	if val&0x8 != 0 {
		gpu.VMode = VMODE_PAL
	} else {
		gpu.VMode = VMODE_NTSC
	}

	if val&0x10 != 0 {
		gpu.DisplayDepth = DISPLAY_DEPTH_24BITS
	} else {
		gpu.DisplayDepth = DISPLAY_DEPTH_15BITS
	}

	gpu.Interlaced = val&0x20 != 0

	if val&0x80 != 0 {
		panicFmt("gpu: unsupported display mode 0x%x", val)
	}
}

// GP1(0x04): DMA direction
func (gpu *GPU) GP1DmaDirection(val uint32) {
	switch val & 3 {
	case 0:
		gpu.DmaDirection = DD_DMA_OFF
	case 1:
		gpu.DmaDirection = DD_DMA_FIFO
	case 2:
		gpu.DmaDirection = DD_CPU_TO_GP0
	case 3:
		gpu.DmaDirection = DD_VRAM_TO_CPU
	}
}

// GP1(0x05): Display VRAM Start
func (gpu *GPU) GP1DisplayVRAMStart(val uint32) {
	gpu.DisplayVRamXStart = uint16(val & 0x3fe)
	gpu.DisplayVRamYStart = uint16((val >> 10) & 0x1ff)
}

// GP1(0x06): Display Horizontal Range
func (gpu *GPU) GP1DisplayHorizontalRange(val uint32) {
	gpu.DisplayHorizStart = uint16(val & 0xfff)
	gpu.DisplayHorizEnd = uint16((val >> 12) & 0xfff)
}

// GP1(0x07): Display Vertical Range
func (gpu *GPU) GP1DisplayVerticalRange(val uint32) {
	gpu.DisplayLineStart = uint16(val & 0x3ff)
	gpu.DisplayLineEnd = uint16((val >> 10) & 0x3ff)
}

// GP1(0x10): read back internal state through the `read` register
func (gpu *GPU) GP1GetInfo(val uint32) {
	switch val & 0xf {
	case 2:
		r := uint32(gpu.TextureWindowXMask)
		r |= uint32(gpu.TextureWindowYMask) << 5
		r |= uint32(gpu.TextureWindowXOffset) << 10
		r |= uint32(gpu.TextureWindowYOffset) << 15
		gpu.ReadWord = r
	case 3:
		gpu.ReadWord = uint32(gpu.DrawingAreaLeft) | uint32(gpu.DrawingAreaTop)<<10
	case 4:
		gpu.ReadWord = uint32(gpu.DrawingAreaRight) | uint32(gpu.DrawingAreaBottom)<<10
	case 5:
		x := uint32(uint16(gpu.DrawingXOffset)) & 0x7ff
		y := uint32(uint16(gpu.DrawingYOffset)) & 0x7ff
		gpu.ReadWord = x | y<<11
	case 7:
		// GPU version
		gpu.ReadWord = 2
	default:
		// other values leave the read register untouched
	}
}

// Return value of the status register
func (gpu *GPU) Status() uint32 {
	var r uint32

	r |= uint32(gpu.PageBaseX) << 0
	r |= uint32(gpu.PageBaseY) << 4
	r |= uint32(gpu.SemiTransparency) << 5
	r |= uint32(gpu.TextureDepth) << 7
	r |= oneIfTrue(gpu.Dithering) << 9
	r |= oneIfTrue(gpu.DrawToDisplay) << 10
	r |= oneIfTrue(gpu.ForceSetMaskBit) << 11
	r |= oneIfTrue(gpu.PreserveMaskedPixels) << 12
	r |= uint32(gpu.Field) << 13
	// bit 14: not supported (when it's set on real hardware, it just messes up
	// the display in a weird way)
	r |= oneIfTrue(gpu.TextureDisable) << 15
	r |= gpu.HRes.IntoStatus()
	r |= uint32(gpu.VRes) << 19
	r |= uint32(gpu.VMode) << 20
	r |= uint32(gpu.DisplayDepth) << 21
	r |= oneIfTrue(gpu.Interlaced) << 22
	r |= oneIfTrue(gpu.DisplayDisabled) << 23
	r |= oneIfTrue(gpu.Interrupt) << 24

	// we don't emulate the command FIFO depth:
	// ready to receive command
	r |= 1 << 26
	// ready to send VRAM to CPU
	r |= 1 << 27
	// ready to receive DMA block
	r |= 1 << 28

	r |= uint32(gpu.DmaDirection) << 29

	// bit 31 reports the line parity, always even during blanking
	if !gpu.InVblank && gpu.DisplayLine&1 != 0 {
		r |= 1 << 31
	}

	// the signal checked by the DMA when sending data in Request
	// synchronization mode
	var dmaRequest uint32
	switch gpu.DmaDirection {
	case DD_DMA_OFF: // always 0
		dmaRequest = 0
	case DD_DMA_FIFO: // should be 0 if FIFO is full, 1 otherwise
		dmaRequest = 1
	case DD_CPU_TO_GP0: // should be the same as status bit 28
		dmaRequest = (r >> 28) & 1
	case DD_VRAM_TO_CPU: // should be the same as status bit 27
		dmaRequest = (r >> 27) & 1
	}
	r |= dmaRequest << 25

	return r
}
