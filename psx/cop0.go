package psx

// Coprocessor 0: System Control
type Cop0 struct {
	SR    uint32 // Register 12: status register
	Cause uint32 // Register 13: cause register
	Epc   uint32 // Register 14: exception PC
}

// Creates a new Cop0 instance
func NewCop0() *Cop0 {
	return &Cop0{}
}

func (cop *Cop0) SetSR(sr uint32) {
	cop.SR = sr
}

// Sets the writable bits of the cause register (the two software
// interrupt bits)
func (cop *Cop0) SetCause(val uint32) {
	cop.Cause &= ^uint32(0x300)
	cop.Cause |= val & 0x300
}

// Returns the value of the cause register. Bit 10 reflects the current
// state of the external interrupt line and is not latched
func (cop *Cop0) GetCause(irqState *IrqState) uint32 {
	return cop.Cause | (oneIfTrue(irqState.Active()) << 10)
}

// Returns true if the cache is isolated from the bus
func (cop *Cop0) CacheIsolated() bool {
	return cop.SR&0x10000 != 0
}

// Updates the state for an exception entry and returns the address of
// the handler. `pc` must be the address of the faulting instruction
func (cop *Cop0) EnterException(cause Exception, pc uint32, inDelaySlot bool) uint32 {
	// Shift bits [5:0] of the SR two places to the left. Those bits
	// are three pairs of Interrupt Enable/User Mode bits behaving
	// like a stack of 3 entries deep. Entering an exception pushes a
	// pair of zeroes by left shifting the stack which disables
	// interrupts and puts the CPU in kernel mode. The original third
	// entry is discarded (it's up to the kernel to handle more than
	// two recursive exception levels)
	mode := cop.SR & 0x3f
	cop.SR &= ^uint32(0x3f)
	cop.SR |= (mode << 2) & 0x3f

	// update the CAUSE register with the exception code
	cop.Cause &= ^uint32(0x7c)
	cop.Cause |= uint32(cause) << 2

	if inDelaySlot {
		// when the exception occurs in a branch delay slot EPC points
		// at the branch and the BD bit is set
		cop.Epc = pc - 4
		cop.Cause |= 1 << 31
	} else {
		cop.Epc = pc
		cop.Cause &= ^uint32(1 << 31)
	}

	// the BEV bit selects between the ROM and RAM exception vectors
	if cop.SR&(1<<22) != 0 {
		return 0xbfc00180
	}
	return 0x80000080
}

// Pops the interrupt enable stack, undoing EnterException
func (cop *Cop0) ReturnFromException() {
	mode := cop.SR & 0x3f
	cop.SR &= ^uint32(0xf)
	cop.SR |= mode >> 2
}

func (cop *Cop0) IrqEnabled() bool {
	return cop.SR&1 != 0
}

// Returns true if an enabled, unmasked interrupt is pending
func (cop *Cop0) IrqActive(irqState *IrqState) bool {
	cause := cop.GetCause(irqState)

	// bits [9:8] are the software interrupts, bit 10 the hardware line
	pending := (cause & cop.SR) & 0x700

	return cop.IrqEnabled() && pending != 0
}
