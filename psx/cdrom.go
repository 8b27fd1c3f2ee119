package psx

// Interrupt codes reported in the CD-ROM IRQ flag register
type IrqCode uint8

const (
	IRQ_CODE_OK    IrqCode = 3 // Command acknowledged
	IRQ_CODE_ERROR IrqCode = 5 // Invalid command or parameters
)

// Register block of the CD-ROM controller. The drive itself (disc
// image parsing, sector reads, audio streams) is an external
// collaborator: this seam implements just enough of the register
// protocol for the firmware to probe the controller and report that no
// disc is present, and forwards everything else to nothing
type CdRom struct {
	Index    uint8  // Selects the register bank at 0x1f801801..3
	Params   []byte // Pending command parameter bytes
	Response []byte // Pending response bytes
	IrqMask  uint8  // 5 bit interrupt mask
	IrqFlags uint8  // 5 bit interrupt flags
}

func NewCdRom() *CdRom {
	return &CdRom{}
}

// Value of the status register at 0x1f801800
func (cdrom *CdRom) Status() uint8 {
	r := cdrom.Index

	r |= uint8(oneIfTrue(len(cdrom.Params) == 0)) << 3
	r |= uint8(oneIfTrue(len(cdrom.Params) >= 16)) << 4
	r |= uint8(oneIfTrue(len(cdrom.Response) > 0)) << 5

	return r
}

func (cdrom *CdRom) Irq() bool {
	return cdrom.IrqFlags&cdrom.IrqMask != 0
}

func (cdrom *CdRom) triggerIrq(irq IrqCode, irqState *IrqState) {
	cdrom.IrqFlags = uint8(irq)
	if cdrom.Irq() {
		irqState.SetHigh(INTERRUPT_CDROM)
	}
}

// Runs a controller command. Everything answers with the "shell open"
// status so the firmware settles into its no-disc idle loop
func (cdrom *CdRom) Command(cmd uint8, irqState *IrqState) {
	cdrom.Response = cdrom.Response[:0]

	switch cmd {
	case 0x01: // GetStat
		cdrom.Response = append(cdrom.Response, 0x10)
		cdrom.triggerIrq(IRQ_CODE_OK, irqState)
	case 0x19: // Test
		if len(cdrom.Params) == 1 && cdrom.Params[0] == 0x20 {
			// CD-ROM controller BIOS date: 18 Aug 1996, version C2
			cdrom.Response = append(cdrom.Response, 0x96, 0x08, 0x18, 0xc2)
			cdrom.triggerIrq(IRQ_CODE_OK, irqState)
		} else {
			cdrom.Response = append(cdrom.Response, 0x11, 0x10)
			cdrom.triggerIrq(IRQ_CODE_ERROR, irqState)
		}
	default:
		cdrom.Response = append(cdrom.Response, 0x11, 0x40)
		cdrom.triggerIrq(IRQ_CODE_ERROR, irqState)
	}

	cdrom.Params = cdrom.Params[:0]
}

func (cdrom *CdRom) popResponse() uint8 {
	if len(cdrom.Response) == 0 {
		return 0
	}
	b := cdrom.Response[0]
	cdrom.Response = cdrom.Response[1:]
	return b
}

// Handles reads from the controller registers
func (cdrom *CdRom) Load(offset uint32) uint8 {
	switch offset {
	case 0:
		return cdrom.Status()
	case 1:
		return cdrom.popResponse()
	case 2:
		// data FIFO: empty without a disc
		return 0
	case 3:
		if cdrom.Index&1 == 1 {
			// the high 3 bits read back as 1
			return cdrom.IrqFlags | 0xe0
		}
		return cdrom.IrqMask | 0xe0
	}
	panicFmt("cdrom: unhandled load at offset %d", offset)
	return 0
}

// Handles writes to the controller registers
func (cdrom *CdRom) Store(offset uint32, val uint8, irqState *IrqState) {
	switch {
	case offset == 0:
		cdrom.Index = val & 3
	case offset == 1 && cdrom.Index == 0:
		cdrom.Command(val, irqState)
	case offset == 2 && cdrom.Index == 0:
		cdrom.Params = append(cdrom.Params, val)
	case offset == 2 && cdrom.Index == 1:
		cdrom.IrqMask = val & 0x1f
	case offset == 3 && cdrom.Index == 1:
		// writing 1 to a flag acknowledges it
		cdrom.IrqFlags &= ^(val & 0x1f)
		if val&0x40 != 0 {
			cdrom.Params = cdrom.Params[:0]
		}
	default:
		// volume and test registers of the other banks, ignored
	}
}

// Word source for the CD-ROM DMA channel. Without a disc the data FIFO
// reads back zeroes
func (cdrom *CdRom) DmaReadWord() uint32 {
	return 0
}
