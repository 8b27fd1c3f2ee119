package psx

// Register block of the gamepad/memory card serial port. Input devices
// are external collaborators: the seam answers every exchange with
// 0xff ("nothing connected") and keeps the handshake bits coherent so
// the firmware's probe loop terminates
type PadMemCard struct {
	Baud       uint16 // Baud rate divider
	Mode       uint8  // Serial mode (character length, parity)
	TxEn       bool   // Transmission enabled
	Select     bool   // Peripheral select signal, active low on the wire
	Unknown    uint8  // Two RW bits of the control register
	RxNotEmpty bool   // A response byte is waiting in the RX buffer
	Response   uint8  // Last response byte
	Interrupt  bool   // IRQ latch
	DsrIt      bool   // IRQ on DSR pulse
}

func NewPadMemCard() *PadMemCard {
	return &PadMemCard{}
}

// Sends one byte on the wire. With no device connected the line stays
// high and the answer is 0xff
func (pad *PadMemCard) SendByte(val uint8, irqState *IrqState) {
	_ = val

	pad.Response = 0xff
	pad.RxNotEmpty = true

	if pad.Select && pad.DsrIt && !pad.Interrupt {
		pad.Interrupt = true
		irqState.SetHigh(INTERRUPT_PAD_MEMCARD)
	}
}

// Value of the stat register at 0x1f801044
func (pad *PadMemCard) Stat() uint32 {
	var r uint32

	// TX ready, TX finished
	r |= 5
	r |= oneIfTrue(pad.RxNotEmpty) << 1
	r |= oneIfTrue(pad.Interrupt) << 9

	return r
}

// Value of the control register at 0x1f80104a
func (pad *PadMemCard) Control() uint16 {
	var r uint16

	r |= uint16(oneIfTrue(pad.TxEn)) << 0
	r |= uint16(oneIfTrue(pad.Select)) << 1
	r |= uint16(pad.Unknown)
	r |= uint16(oneIfTrue(pad.DsrIt)) << 12

	return r
}

func (pad *PadMemCard) SetControl(val uint16) {
	if val&0x40 != 0 {
		// soft reset
		*pad = PadMemCard{}
		return
	}
	if val&0x10 != 0 {
		// interrupt acknowledge
		pad.Interrupt = false
	}

	pad.Unknown = uint8(val) & 0x28
	pad.TxEn = val&1 != 0
	pad.Select = (val>>1)&1 != 0
	pad.DsrIt = (val>>12)&1 != 0
}

// Reads the RX buffer, popping the pending response
func (pad *PadMemCard) RxByte() uint8 {
	if !pad.RxNotEmpty {
		return 0xff
	}
	pad.RxNotEmpty = false
	return pad.Response
}

// Handles loads from the serial port registers
func (pad *PadMemCard) Load(offset uint32, size AccessSize) uint32 {
	switch offset {
	case 0:
		return uint32(pad.RxByte())
	case 4:
		return pad.Stat()
	case 8:
		return uint32(pad.Mode)
	case 10:
		return uint32(pad.Control())
	case 14:
		return uint32(pad.Baud)
	}
	panicFmt("pad_memcard: unhandled load at offset %d", offset)
	return 0
}

// Handles stores to the serial port registers
func (pad *PadMemCard) Store(offset uint32, size AccessSize, val uint32, irqState *IrqState) {
	switch offset {
	case 0:
		pad.SendByte(uint8(val), irqState)
	case 8:
		pad.Mode = uint8(val)
	case 10:
		pad.SetControl(uint16(val))
	case 14:
		pad.Baud = uint16(val)
	default:
		panicFmt("pad_memcard: unhandled store at offset %d", offset)
	}
}
