package psx

// Global interconnect: routes every CPU load and store to the owning
// component after masking the segment bits off the address. The bus
// has no semantic knowledge of the peripherals, it only forwards
// register accesses of the requested width
type Interconnect struct {
	Bios       *BIOS        // Firmware ROM, read-only
	Ram        *RAM         // Main RAM
	ScratchPad *ScratchPad  // Fast on-chip RAM
	Dma        *DMA         // DMA controller
	Gpu        *GPU         // Graphics processor
	Timers     *Timers      // The three hardware timers
	IrqState   *IrqState    // Interrupt controller
	CdRom      *CdRom       // CD-ROM controller seam
	PadMemCard *PadMemCard  // Gamepad/memory card serial port seam
	Spu        *Spu         // Sound processing unit seam
	Th         *TimeHandler // Shared cycle counter
	CacheCtrl  CacheControl // Cache control register

	// Memory latency/expansion mapping registers, stored raw
	MemControl [9]uint32
	RamSizeReg uint32 // RAM configuration register, set by the BIOS
}

// Creates a new interconnect owning every peripheral behind the bus
func NewInterconnect(bios *BIOS, th *TimeHandler) *Interconnect {
	inter := &Interconnect{
		Bios:       bios,
		Ram:        NewRAM(),
		ScratchPad: NewScratchPad(),
		Dma:        NewDMA(),
		Gpu:        NewGPU(),
		Timers:     NewTimers(),
		IrqState:   NewIrqState(),
		CdRom:      NewCdRom(),
		PadMemCard: NewPadMemCard(),
		Spu:        NewSpu(),
		Th:         th,
	}
	// the blanking-synchronized timers sample GPU state directly
	inter.Timers.Gpu = inter.Gpu
	return inter
}

// Loads a value of `size` bytes at `addr`. Returns false if the
// address doesn't resolve to any mapped window, which the CPU turns
// into a bus error exception
func (inter *Interconnect) Load(addr uint32, size AccessSize) (uint32, bool) {
	abs := MaskRegion(addr)

	switch {
	case RAM_RANGE.Contains(abs):
		return inter.Ram.Load(RAM_RANGE.Offset(abs), size), true
	case SCRATCH_PAD.Contains(abs):
		if addr > 0xa0000000 {
			// the scratchpad is the data cache, it cannot be reached
			// through the uncached segment
			return 0, false
		}
		return inter.ScratchPad.Load(SCRATCH_PAD.Offset(abs), size), true
	case BIOS_RANGE.Contains(abs):
		return inter.Bios.Load(BIOS_RANGE.Offset(abs), size), true
	case IRQ_CONTROL.Contains(abs):
		switch IRQ_CONTROL.Offset(abs) {
		case 0:
			return uint32(inter.IrqState.Status), true
		case 4:
			return uint32(inter.IrqState.Mask), true
		}
		return 0, false
	case DMA_RANGE.Contains(abs):
		return inter.dmaReg(DMA_RANGE.Offset(abs)), true
	case GPU_RANGE.Contains(abs):
		switch GPU_RANGE.Offset(abs) {
		case 0:
			return inter.Gpu.Read(), true
		case 4:
			inter.Gpu.Sync(inter.Th, inter.IrqState)
			return inter.Gpu.Status(), true
		}
		return 0, false
	case TIMERS_RANGE.Contains(abs):
		return inter.Timers.Load(size, inter.Th, TIMERS_RANGE.Offset(abs), inter.IrqState), true
	case CDROM_RANGE.Contains(abs):
		return uint32(inter.CdRom.Load(CDROM_RANGE.Offset(abs))), true
	case PAD_MEMCARD.Contains(abs):
		return inter.PadMemCard.Load(PAD_MEMCARD.Offset(abs), size), true
	case SPU_RANGE.Contains(abs):
		return inter.spuLoad(SPU_RANGE.Offset(abs), size), true
	case MEM_CONTROL.Contains(abs):
		return inter.MemControl[MEM_CONTROL.Offset(abs)>>2], true
	case RAM_SIZE.Contains(abs):
		return inter.RamSizeReg, true
	case CACHE_CONTROL.Contains(abs):
		return uint32(inter.CacheCtrl), true
	case EXPANSION_1.Contains(abs):
		// no expansion hardware: the bus floats high
		return 0xffffffff, true
	case EXPANSION_2.Contains(abs):
		return 0xffffffff, true
	}

	return 0, false
}

// Stores `val` (`size` bytes of it) at `addr`. Returns false for
// unmapped addresses
func (inter *Interconnect) Store(addr uint32, size AccessSize, val uint32) bool {
	abs := MaskRegion(addr)

	switch {
	case RAM_RANGE.Contains(abs):
		inter.Ram.Store(RAM_RANGE.Offset(abs), size, val)
	case SCRATCH_PAD.Contains(abs):
		if addr > 0xa0000000 {
			return false
		}
		inter.ScratchPad.Store(SCRATCH_PAD.Offset(abs), size, val)
	case BIOS_RANGE.Contains(abs):
		// the firmware ROM ignores writes
	case IRQ_CONTROL.Contains(abs):
		switch IRQ_CONTROL.Offset(abs) {
		case 0:
			inter.IrqState.Acknowledge(uint16(val))
		case 4:
			inter.IrqState.SetMask(uint16(val))
		}
	case DMA_RANGE.Contains(abs):
		inter.setDmaReg(DMA_RANGE.Offset(abs), val)
	case GPU_RANGE.Contains(abs):
		inter.Gpu.Sync(inter.Th, inter.IrqState)
		switch GPU_RANGE.Offset(abs) {
		case 0:
			inter.Gpu.GP0(val)
		case 4:
			if inter.Gpu.GP1(val, inter.Th) {
				// display timings changed, timers fed from the GPU
				// clocks must resynchronize
				inter.Timers.VideoTimingsChanged(inter.Th, inter.IrqState, inter.Gpu)
			}
		}
	case TIMERS_RANGE.Contains(abs):
		inter.Timers.Store(size, val, inter.Th, TIMERS_RANGE.Offset(abs), inter.Gpu, inter.IrqState)
	case CDROM_RANGE.Contains(abs):
		inter.CdRom.Store(CDROM_RANGE.Offset(abs), uint8(val), inter.IrqState)
	case PAD_MEMCARD.Contains(abs):
		inter.PadMemCard.Store(PAD_MEMCARD.Offset(abs), size, val, inter.IrqState)
	case SPU_RANGE.Contains(abs):
		inter.spuStore(SPU_RANGE.Offset(abs), size, val)
	case MEM_CONTROL.Contains(abs):
		inter.setMemControl(MEM_CONTROL.Offset(abs), val)
	case RAM_SIZE.Contains(abs):
		inter.RamSizeReg = val
	case CACHE_CONTROL.Contains(abs):
		inter.CacheCtrl = CacheControl(val)
	case EXPANSION_1.Contains(abs), EXPANSION_2.Contains(abs):
		// expansion hardware (including the debug UART) is absent
	default:
		return false
	}

	return true
}

// Additional cycles charged for an access to `addr` on top of the
// base instruction cost. The ROM sits on a slow 8 bit bus, peripheral
// registers pay the bus turnaround
func (inter *Interconnect) AccessCost(addr uint32) uint64 {
	abs := MaskRegion(addr)

	switch {
	case BIOS_RANGE.Contains(abs):
		return 19
	case RAM_RANGE.Contains(abs), SCRATCH_PAD.Contains(abs):
		return 0
	}
	return 2
}

// Fast path for instruction fetches, which only ever target RAM or
// the BIOS in practice
func (inter *Interconnect) LoadInstruction(pc uint32) (uint32, bool) {
	abs := MaskRegion(pc)

	switch {
	case RAM_RANGE.Contains(abs):
		return inter.Ram.Load32(RAM_RANGE.Offset(abs)), true
	case BIOS_RANGE.Contains(abs):
		return inter.Bios.Load32(BIOS_RANGE.Offset(abs)), true
	}
	return inter.Load(pc, ACCESS_WORD)
}

// The SPU registers are 16 bit, word accesses touch a pair
func (inter *Interconnect) spuLoad(offset uint32, size AccessSize) uint32 {
	if size == ACCESS_WORD {
		lo := uint32(inter.Spu.Load(offset))
		hi := uint32(inter.Spu.Load(offset + 2))
		return lo | hi<<16
	}
	return uint32(inter.Spu.Load(offset & ^uint32(1)))
}

func (inter *Interconnect) spuStore(offset uint32, size AccessSize, val uint32) {
	if size == ACCESS_WORD {
		inter.Spu.Store(offset, uint16(val))
		inter.Spu.Store(offset+2, uint16(val>>16))
		return
	}
	inter.Spu.Store(offset & ^uint32(1), uint16(val))
}

// Validates the expansion mapping registers, which the firmware writes
// early in the boot sequence. The expansion base addresses are the
// only values games ever change, and only to the documented ones
func (inter *Interconnect) setMemControl(offset, val uint32) {
	switch offset {
	case 0: // expansion 1 base address
		if val != 0x1f000000 {
			panicFmt("interconnect: bad expansion 1 base address 0x%x", val)
		}
	case 4: // expansion 2 base address
		if val != 0x1f802000 {
			panicFmt("interconnect: bad expansion 2 base address 0x%x", val)
		}
	}
	inter.MemControl[offset>>2] = val
}

// Reads a DMA register: per-channel base/block/control at 0x00..0x6f,
// common control and interrupt at 0x70/0x74
func (inter *Interconnect) dmaReg(offset uint32) uint32 {
	major := (offset & 0x70) >> 4
	minor := offset & 0xf

	switch {
	case major <= 6:
		channel := inter.Dma.Channels[PortFromIndex(major)]
		switch minor {
		case 0:
			return channel.Base
		case 4:
			return channel.BlockControl()
		case 8:
			return channel.Control()
		}
	case major == 7:
		switch minor {
		case 0:
			return inter.Dma.Control
		case 4:
			return inter.Dma.Interrupt()
		}
	}
	panicFmt("interconnect: unhandled DMA read at offset 0x%x", offset)
	return 0
}

func (inter *Interconnect) setDmaReg(offset, val uint32) {
	major := (offset & 0x70) >> 4
	minor := offset & 0xf

	switch {
	case major <= 6:
		channel := inter.Dma.Channels[PortFromIndex(major)]
		switch minor {
		case 0:
			channel.SetBase(val)
		case 4:
			channel.SetBlockControl(val)
		case 8:
			channel.SetControl(val)
		default:
			panicFmt("interconnect: unhandled DMA write at offset 0x%x", offset)
		}
	case major == 7:
		switch minor {
		case 0:
			inter.Dma.SetControl(val)
		case 4:
			inter.Dma.SetInterrupt(val)
		default:
			panicFmt("interconnect: unhandled DMA write at offset 0x%x", offset)
		}
	}

	// a write may have activated a channel
	inter.Dma.armChannels()
}
