package psx

// State of the interrupt controller (I_STAT/I_MASK register pair)
type IrqState struct {
	Status uint16 // Latched interrupt status
	Mask   uint16 // Interrupt mask
}

// Hardware interrupt sources, by bit position
type Interrupt uint16

const (
	INTERRUPT_VBLANK      Interrupt = 0  // GPU entered vertical blanking
	INTERRUPT_GPU         Interrupt = 1  // GPU command interrupt (GP0(0x1f))
	INTERRUPT_CDROM       Interrupt = 2  // CD-ROM controller
	INTERRUPT_DMA         Interrupt = 3  // DMA transfer complete
	INTERRUPT_TIMER0      Interrupt = 4  // Timer 0: dotclock
	INTERRUPT_TIMER1      Interrupt = 5  // Timer 1: hsync
	INTERRUPT_TIMER2      Interrupt = 6  // Timer 2: sysclock divider
	INTERRUPT_PAD_MEMCARD Interrupt = 7  // Gamepad and memory card
	INTERRUPT_SIO         Interrupt = 8  // Serial port
	INTERRUPT_SPU         Interrupt = 9  // Sound processing unit
	INTERRUPT_LIGHTPEN    Interrupt = 10 // Lightpen (PIO)
)

// Returns a new interrupt controller state
func NewIrqState() *IrqState {
	return &IrqState{}
}

// Returns true if any unmasked interrupt is pending
func (state *IrqState) Active() bool {
	return (state.Status & state.Mask) != 0
}

// Writing 0 to a status bit acknowledges it, 1 leaves it untouched
func (state *IrqState) Acknowledge(ack uint16) {
	state.Status &= ack
}

func (state *IrqState) SetMask(mask uint16) {
	state.Mask = mask
}

// Latches `interrupt` in the status register
func (state *IrqState) SetHigh(interrupt Interrupt) {
	state.Status |= 1 << interrupt
}
