package psx

// Register block of the Sound Processing Unit. Audio synthesis is an
// external collaborator: the block stores and reads back the raw
// register values so the firmware's SPU init sequence runs, and eats
// the words pushed down the SPU DMA channel
type Spu struct {
	// The SPU exposes 640 bytes of registers, addressed as halfwords
	Regs [320]uint16
}

func NewSpu() *Spu {
	return &Spu{}
}

// Handles loads from the SPU registers
func (spu *Spu) Load(offset uint32) uint16 {
	r := spu.Regs[offset>>1]

	switch offset {
	case 0x1ae:
		// SPUSTAT: the busy and DMA request bits always read idle
		r &= 0x3f
	}

	return r
}

// Handles stores to the SPU registers
func (spu *Spu) Store(offset uint32, val uint16) {
	spu.Regs[offset>>1] = val
}

// Word sink for the SPU DMA channel. Sample data has nowhere to go
// without the synthesis collaborator
func (spu *Spu) DmaWriteWord(val uint32) {
	_ = val
}
