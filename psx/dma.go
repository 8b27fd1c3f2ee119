package psx

// The 7 DMA ports
type Port uint32

const (
	PORT_MDEC_IN  Port = 0 // Macroblock decoder input
	PORT_MDEC_OUT Port = 1 // Macroblock decoder output
	PORT_GPU      Port = 2 // Graphics Processing Unit
	PORT_CDROM    Port = 3 // CD-ROM drive
	PORT_SPU      Port = 4 // Sound Processing Unit
	PORT_PIO      Port = 5 // Extension port
	PORT_OTC      Port = 6 // Used to clear the GPU ordering table
)

func PortFromIndex(index uint32) Port {
	if index > 6 {
		panicFmt("dma: invalid port %d", index)
	}
	return Port(index)
}

// Direct Memory Access controller: seven channels moving words between
// RAM and the peripheral FIFOs behind the CPU's back
type DMA struct {
	Control         uint32 // DMA control register
	IrqEn           bool   // Master IRQ enable
	ChannelIrqEn    uint8  // IRQ enable for individual channels
	ChannelIrqFlags uint8  // IRQ flags for individual channels
	// When set the interrupt is active unconditionally, even if IrqEn
	// is false
	ForceIrq bool
	// Bits [0:5] of the interrupt register are RW but undocumented,
	// they're sent back untouched on reads
	IrqDummy uint8
	Channels [7]*Channel
}

// Return a new DMA controller in its reset configuration
func NewDMA() *DMA {
	dma := &DMA{
		Control: 0x07654321, // reset value from the Nocash PSX spec
	}

	for i := range dma.Channels {
		dma.Channels[i] = NewChannel()
	}

	return dma
}

func (dma *DMA) SetControl(val uint32) {
	dma.Control = val
}

// Return the state of the DMA interrupt signal
func (dma *DMA) Irq() bool {
	channelIrq := dma.ChannelIrqFlags & dma.ChannelIrqEn
	return dma.ForceIrq || (dma.IrqEn && channelIrq != 0)
}

// Value of the interrupt register
func (dma *DMA) Interrupt() uint32 {
	var r uint32
	r |= uint32(dma.IrqDummy)
	r |= oneIfTrue(dma.ForceIrq) << 15
	r |= uint32(dma.ChannelIrqEn) << 16
	r |= oneIfTrue(dma.IrqEn) << 23
	r |= uint32(dma.ChannelIrqFlags) << 24
	r |= oneIfTrue(dma.Irq()) << 31
	return r
}

// Set the value of the interrupt register
func (dma *DMA) SetInterrupt(val uint32) {
	dma.IrqDummy = uint8(val & 0x3f)
	dma.ForceIrq = (val>>15)&1 != 0
	dma.ChannelIrqEn = uint8((val >> 16) & 0x7f)
	dma.IrqEn = (val>>23)&1 != 0

	// writing 1 to a flag resets it
	ack := uint8((val >> 24) & 0x7f)
	dma.ChannelIrqFlags &= ^ack
}

// Channel priority from the control register: lower values win, ties
// go to the higher port number
func (dma *DMA) priority(port Port) uint32 {
	return (dma.Control >> (uint32(port) * 4)) & 7
}

// Channel master enable bit in the control register
func (dma *DMA) channelEnabled(port Port) bool {
	return dma.Control&(1<<(uint32(port)*4+3)) != 0
}

// Picks the running channel that owns the bus this quantum
func (dma *DMA) nextRunning() (Port, bool) {
	best := Port(0)
	found := false
	for i := 6; i >= 0; i-- {
		port := Port(i)
		ch := dma.Channels[port]
		if !ch.Running || !ch.Enable {
			continue
		}
		if !found || dma.priority(port) < dma.priority(best) {
			best = port
			found = true
		}
	}
	return best, found
}

// Flags the channel as complete and raises the completion interrupt if
// it is enabled for this port
func (dma *DMA) finishChannel(port Port, irqState *IrqState) {
	dma.Channels[port].Done()

	if dma.ChannelIrqEn&(1<<port) != 0 {
		dma.ChannelIrqFlags |= 1 << port
	}
	if dma.Irq() {
		irqState.SetHigh(INTERRUPT_DMA)
	}
}

// Arms any channel whose configuration became active after a register
// write. Called by the bus after every DMA register store
func (dma *DMA) armChannels() {
	for _, ch := range dma.Channels {
		if ch.Active() && !ch.Running {
			ch.Start()
		}
	}
}

// Advances the highest priority running transfer by one scheduling
// quantum. Burst transfers finish in a single call, sliced ones move a
// chop window and give the bus back
func (dma *DMA) Sync(ram *RAM, gpu *GPU, cdrom *CdRom, spu *Spu, irqState *IrqState) {
	port, ok := dma.nextRunning()
	if !ok {
		return
	}

	ch := dma.Channels[port]

	if ch.Sync == SYNC_LINKED_LIST {
		dma.runLinkedList(port, ram, gpu, irqState)
		return
	}

	words := ch.SliceSize()
	if words > ch.Remaining {
		words = ch.Remaining
	}

	for i := uint32(0); i < words; i++ {
		// addresses wrap inside RAM and ignore the two LSBs
		addr := ch.CurAddr & 0x1ffffc

		switch ch.Direction {
		case DIRECTION_FROM_RAM:
			dma.portWrite(port, ram.Load32(addr), gpu, spu)
		case DIRECTION_TO_RAM:
			ram.Store32(addr, dma.portRead(port, ch, gpu, cdrom))
		}

		if ch.Step == STEP_INCREMENT {
			ch.CurAddr += 4
		} else {
			ch.CurAddr -= 4
		}
		ch.Remaining--
	}

	if ch.Remaining == 0 {
		dma.finishChannel(port, irqState)
	}
}

// Word sink for channels transferring from RAM
func (dma *DMA) portWrite(port Port, word uint32, gpu *GPU, spu *Spu) {
	switch port {
	case PORT_GPU:
		gpu.GP0(word)
	case PORT_SPU:
		spu.DmaWriteWord(word)
	case PORT_MDEC_IN:
		// macroblock decoder is an external collaborator
	default:
		panicFmt("dma: unhandled DMA destination port %d", port)
	}
}

// Word source for channels transferring to RAM
func (dma *DMA) portRead(port Port, ch *Channel, gpu *GPU, cdrom *CdRom) uint32 {
	switch port {
	case PORT_OTC:
		// clearing the ordering table: build the reverse-linked empty
		// list the GPU walks in linked list mode
		if ch.Remaining == 1 {
			// last entry holds the end of list marker
			return 0xffffff
		}
		return (ch.CurAddr - 4) & 0x1fffff
	case PORT_GPU:
		return gpu.Read()
	case PORT_CDROM:
		return cdrom.DmaReadWord()
	case PORT_MDEC_OUT:
		return 0
	}
	panicFmt("dma: unhandled DMA source port %d", port)
	return 0
}

// Walks a GPU command list. Each node's header word holds the payload
// size in the high byte and the address of the next node in the low 24
// bits; bit 23 of the address marks the end of the chain
func (dma *DMA) runLinkedList(port Port, ram *RAM, gpu *GPU, irqState *IrqState) {
	ch := dma.Channels[port]

	if port != PORT_GPU {
		panicFmt("dma: linked list transfer on port %d", port)
	}
	if ch.Direction == DIRECTION_TO_RAM {
		panic("dma: invalid linked list DMA direction")
	}

	// the whole chain is processed in one go, the CPU only gets to
	// pause transfers running in slice mode
	addr := ch.CurAddr & 0x1ffffc
	for {
		header := ram.Load32(addr)
		remsz := header >> 24

		for i := uint32(0); i < remsz; i++ {
			addr = (addr + 4) & 0x1ffffc
			gpu.GP0(ram.Load32(addr))
		}

		if header&0x800000 != 0 {
			// end of chain marker
			break
		}
		addr = header & 0x1ffffc
	}

	dma.finishChannel(port, irqState)
}
