package psx

// One in-flight memory load: the value only becomes visible to the
// instruction after the one sitting in the load delay slot
type PendingLoad struct {
	Index uint32 // Target register
	Value uint32 // Loaded value
}

// CPU state
type CPU struct {
	PC        uint32 // Address of the next instruction to fetch
	NextPC    uint32 // Fetch address after that, points past the delay slot
	CurrentPC uint32 // Address of the instruction being executed, saved for EPC
	// General purpose registers as seen by the executing instruction.
	// The first value is always 0
	Regs [32]uint32
	// Register writeback target: the executing instruction writes
	// here, the pending load commits here, and the whole file becomes
	// Regs at the end of the step. Keeping two files gives every load
	// its one instruction of invisibility
	OutRegs   [32]uint32
	Hi        uint32        // Multiply/divide result high word
	Lo        uint32        // Multiply/divide result low word
	Load      PendingLoad   // Pending load delay slot
	Branching bool          // The executing instruction took a branch
	DelaySlot bool          // The executing instruction sits in a delay slot
	Cop0      *Cop0         // System control coprocessor
	Gte       *GTE          // Geometry coprocessor
	Inter     *Interconnect // Memory interface
	ICache    [256]ICacheLine
	Debugger  *Debugger // Optional, nil disables all hooks

	stepCycles uint64 // Cycles charged by the instruction being executed
}

// Creates a new CPU state with the program counter at the BIOS entry
// point
func NewCPU(inter *Interconnect) *CPU {
	cpu := &CPU{
		PC:     0xbfc00000, // PC reset value at the beginning of the BIOS
		NextPC: 0xbfc00004,
		Inter:  inter,
		Cop0:   NewCop0(),
		Gte:    NewGTE(),
	}

	// the registers are not initialized on reset, fill them with a
	// recognizable garbage pattern (the first one stays zero)
	for i := 1; i < len(cpu.Regs); i++ {
		cpu.Regs[i] = 0xdeadbeef
		cpu.OutRegs[i] = 0xdeadbeef
	}

	for i := range cpu.ICache {
		cpu.ICache[i] = NewCacheLine()
	}

	return cpu
}

// Returns the register value at `index`. The first register is always
// zero
func (cpu *CPU) Reg(index uint32) uint32 {
	return cpu.Regs[index]
}

// Sets the register at `index` in the writeback file. The first
// register is pinned to zero
func (cpu *CPU) SetReg(index, val uint32) {
	cpu.OutRegs[index] = val
	cpu.OutRegs[0] = 0
}

// Executes exactly one instruction and returns its cycle cost. An
// exception redirects the program counter instead of advancing it
func (cpu *CPU) Step() uint64 {
	cpu.stepCycles = 1

	if cpu.Debugger != nil {
		cpu.Debugger.PcChanged(cpu.PC)
	}

	cpu.CurrentPC = cpu.PC

	if cpu.CurrentPC%4 != 0 {
		// PC is not correctly aligned
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return cpu.stepCycles
	}

	instruction, ok := cpu.FetchInstruction()
	if !ok {
		cpu.Exception(EXCEPTION_INSTRUCTION_BUS)
		return cpu.stepCycles
	}

	// point PC at the delay slot and NextPC past it. PC wraps around:
	// 0xfffffffc + 4 = 0
	cpu.PC = cpu.NextPC
	cpu.NextPC = cpu.PC + 4

	// bookkeeping for the exception BD bit
	cpu.DelaySlot = cpu.Branching
	cpu.Branching = false

	// commit the load issued by the previous instruction. It lands in
	// the writeback file, so the current instruction still reads the
	// old value through Regs
	cpu.SetReg(cpu.Load.Index, cpu.Load.Value)
	cpu.Load = PendingLoad{}

	if cpu.Cop0.IrqActive(cpu.Inter.IrqState) && !instruction.IsGTEOp() {
		// the fetched instruction is discarded and re-executed on
		// return from the handler. GTE commands are exempt: the
		// hardware would otherwise resume past them
		cpu.Exception(EXCEPTION_INTERRUPT)
	} else {
		cpu.DecodeAndExecute(instruction)
	}

	cpu.Regs = cpu.OutRegs

	return cpu.stepCycles
}

// Fetches the instruction at CurrentPC, through the instruction cache
// when the segment is cached
func (cpu *CPU) FetchInstruction() (Instruction, bool) {
	pc := cpu.CurrentPC

	// KSEG1 is the uncached mirror
	cached := pc < 0xa0000000 || pc >= 0xc0000000

	if cached && cpu.Inter.CacheCtrl.ICacheEnabled() {
		// the line index is in bits [11:4], the word index in [3:2]
		line := &cpu.ICache[(pc>>4)&0xff]
		index := (pc >> 2) & 3

		if line.Tag() != pc&0xfffff000 || line.ValidIndex() > index {
			// miss: refill from the missed word to the end of the line
			cpu.stepCycles += 3
			addr := pc
			for i := index; i < 4; i++ {
				v, ok := cpu.Inter.LoadInstruction(addr)
				if !ok {
					return 0, false
				}
				cpu.stepCycles++
				line.Set(i, Instruction(v))
				addr += 4
			}
			line.SetTagValid(pc)
		}

		return line.Get(index), true
	}

	cpu.stepCycles += cpu.Inter.AccessCost(pc)
	v, ok := cpu.Inter.LoadInstruction(pc)
	return Instruction(v), ok
}

// Redirects execution to the exception vector
func (cpu *CPU) Exception(cause Exception) {
	handler := cpu.Cop0.EnterException(cause, cpu.CurrentPC, cpu.DelaySlot)

	// exceptions don't have a delay slot, the jump is immediate
	cpu.PC = handler
	cpu.NextPC = handler + 4
}

// Loads a value of `size` bytes at `addr`, raising a bus error on
// unmapped addresses. The caller validates alignment
func (cpu *CPU) load(addr uint32, size AccessSize) (uint32, bool) {
	if cpu.Debugger != nil {
		cpu.Debugger.MemoryRead(addr)
	}

	cpu.stepCycles += cpu.Inter.AccessCost(addr)

	v, ok := cpu.Inter.Load(addr, size)
	if !ok {
		cpu.Exception(EXCEPTION_DATA_BUS)
	}
	return v, ok
}

func (cpu *CPU) store(addr uint32, size AccessSize, val uint32) {
	if cpu.Debugger != nil {
		cpu.Debugger.MemoryWrite(addr)
	}

	if cpu.Cop0.CacheIsolated() {
		cpu.cacheMaintenance(addr, val)
		return
	}

	cpu.stepCycles += cpu.Inter.AccessCost(addr)

	if !cpu.Inter.Store(addr, size, val) {
		cpu.Exception(EXCEPTION_DATA_BUS)
	}
}

// Handles writes while the cache is isolated from the bus. The
// firmware uses this to flush the instruction cache
func (cpu *CPU) cacheMaintenance(addr, val uint32) {
	cc := cpu.Inter.CacheCtrl

	if !cc.ICacheEnabled() {
		panicFmt("cpu: cache maintenance while the instruction cache is disabled (0x%x)", addr)
	}

	line := &cpu.ICache[(addr>>4)&0xff]

	if cc.TagTestMode() {
		// in tag test mode any store invalidates the target line
		line.Invalidate()
	} else {
		index := (addr >> 2) & 3
		line.Set(index, Instruction(val))
	}
}

// Sets NextPC to branch `offset` instructions away from the delay slot
func (cpu *CPU) branch(offset uint32) {
	cpu.NextPC = cpu.CurrentPC + 4 + (offset << 2)
	cpu.Branching = true
}

// Decodes and executes an instruction
func (cpu *CPU) DecodeAndExecute(instruction Instruction) {
	switch instruction.Function() {
	case 0x00:
		switch instruction.Subfunction() {
		case 0x00:
			cpu.OpSLL(instruction)
		case 0x02:
			cpu.OpSRL(instruction)
		case 0x03:
			cpu.OpSRA(instruction)
		case 0x04:
			cpu.OpSLLV(instruction)
		case 0x06:
			cpu.OpSRLV(instruction)
		case 0x07:
			cpu.OpSRAV(instruction)
		case 0x08:
			cpu.OpJR(instruction)
		case 0x09:
			cpu.OpJALR(instruction)
		case 0x0c:
			cpu.OpSyscall(instruction)
		case 0x0d:
			cpu.OpBreak(instruction)
		case 0x10:
			cpu.OpMFHI(instruction)
		case 0x11:
			cpu.OpMTHI(instruction)
		case 0x12:
			cpu.OpMFLO(instruction)
		case 0x13:
			cpu.OpMTLO(instruction)
		case 0x18:
			cpu.OpMULT(instruction)
		case 0x19:
			cpu.OpMULTU(instruction)
		case 0x1a:
			cpu.OpDIV(instruction)
		case 0x1b:
			cpu.OpDIVU(instruction)
		case 0x20:
			cpu.OpADD(instruction)
		case 0x21:
			cpu.OpADDU(instruction)
		case 0x22:
			cpu.OpSUB(instruction)
		case 0x23:
			cpu.OpSUBU(instruction)
		case 0x24:
			cpu.OpAND(instruction)
		case 0x25:
			cpu.OpOR(instruction)
		case 0x26:
			cpu.OpXOR(instruction)
		case 0x27:
			cpu.OpNOR(instruction)
		case 0x2a:
			cpu.OpSLT(instruction)
		case 0x2b:
			cpu.OpSLTU(instruction)
		default:
			cpu.OpIllegal(instruction)
		}
	case 0x01:
		cpu.OpBXX(instruction)
	case 0x02:
		cpu.OpJ(instruction)
	case 0x03:
		cpu.OpJAL(instruction)
	case 0x04:
		cpu.OpBEQ(instruction)
	case 0x05:
		cpu.OpBNE(instruction)
	case 0x06:
		cpu.OpBLEZ(instruction)
	case 0x07:
		cpu.OpBGTZ(instruction)
	case 0x08:
		cpu.OpADDI(instruction)
	case 0x09:
		cpu.OpADDIU(instruction)
	case 0x0a:
		cpu.OpSLTI(instruction)
	case 0x0b:
		cpu.OpSLTIU(instruction)
	case 0x0c:
		cpu.OpANDI(instruction)
	case 0x0d:
		cpu.OpORI(instruction)
	case 0x0e:
		cpu.OpXORI(instruction)
	case 0x0f:
		cpu.OpLUI(instruction)
	case 0x10:
		cpu.OpCOP0(instruction)
	case 0x11:
		cpu.OpCOP1(instruction)
	case 0x12:
		cpu.OpCOP2(instruction)
	case 0x13:
		cpu.OpCOP3(instruction)
	case 0x20:
		cpu.OpLB(instruction)
	case 0x21:
		cpu.OpLH(instruction)
	case 0x22:
		cpu.OpLWL(instruction)
	case 0x23:
		cpu.OpLW(instruction)
	case 0x24:
		cpu.OpLBU(instruction)
	case 0x25:
		cpu.OpLHU(instruction)
	case 0x26:
		cpu.OpLWR(instruction)
	case 0x28:
		cpu.OpSB(instruction)
	case 0x29:
		cpu.OpSH(instruction)
	case 0x2a:
		cpu.OpSWL(instruction)
	case 0x2b:
		cpu.OpSW(instruction)
	case 0x2e:
		cpu.OpSWR(instruction)
	case 0x30, 0x31, 0x33:
		// LWC0/LWC1/LWC3: those coprocessors don't exist
		cpu.Exception(EXCEPTION_COPROCESSOR_ERROR)
	case 0x32:
		cpu.OpLWC2(instruction)
	case 0x38, 0x39, 0x3b:
		cpu.Exception(EXCEPTION_COPROCESSOR_ERROR)
	case 0x3a:
		cpu.OpSWC2(instruction)
	default:
		cpu.OpIllegal(instruction)
	}
}

// Shift Left Logical
func (cpu *CPU) OpSLL(instruction Instruction) {
	i := instruction.Shift()
	t := instruction.T()
	d := instruction.D()

	cpu.SetReg(d, cpu.Reg(t)<<i)
}

// Shift Right Logical
func (cpu *CPU) OpSRL(instruction Instruction) {
	i := instruction.Shift()
	t := instruction.T()
	d := instruction.D()

	cpu.SetReg(d, cpu.Reg(t)>>i)
}

// Shift Right Arithmetic
func (cpu *CPU) OpSRA(instruction Instruction) {
	i := instruction.Shift()
	t := instruction.T()
	d := instruction.D()

	cpu.SetReg(d, uint32(int32(cpu.Reg(t))>>i))
}

// Shift Left Logical Variable
func (cpu *CPU) OpSLLV(instruction Instruction) {
	d := instruction.D()
	s := instruction.S()
	t := instruction.T()

	// the shift amount is truncated to 5 bits
	cpu.SetReg(d, cpu.Reg(t)<<(cpu.Reg(s)&0x1f))
}

// Shift Right Logical Variable
func (cpu *CPU) OpSRLV(instruction Instruction) {
	d := instruction.D()
	s := instruction.S()
	t := instruction.T()

	cpu.SetReg(d, cpu.Reg(t)>>(cpu.Reg(s)&0x1f))
}

// Shift Right Arithmetic Variable
func (cpu *CPU) OpSRAV(instruction Instruction) {
	d := instruction.D()
	s := instruction.S()
	t := instruction.T()

	cpu.SetReg(d, uint32(int32(cpu.Reg(t))>>(cpu.Reg(s)&0x1f)))
}

// Jump Register
func (cpu *CPU) OpJR(instruction Instruction) {
	cpu.NextPC = cpu.Reg(instruction.S())
	cpu.Branching = true
}

// Jump And Link Register
func (cpu *CPU) OpJALR(instruction Instruction) {
	d := instruction.D()
	s := instruction.S()

	ra := cpu.NextPC
	cpu.NextPC = cpu.Reg(s)
	cpu.Branching = true

	// the return address lands in `d` instead of the fixed r31
	cpu.SetReg(d, ra)
}

// System Call
func (cpu *CPU) OpSyscall(instruction Instruction) {
	cpu.Exception(EXCEPTION_SYSCALL)
}

// Breakpoint
func (cpu *CPU) OpBreak(instruction Instruction) {
	cpu.Exception(EXCEPTION_BREAK)
}

// Move From HI
func (cpu *CPU) OpMFHI(instruction Instruction) {
	cpu.SetReg(instruction.D(), cpu.Hi)
}

// Move To HI
func (cpu *CPU) OpMTHI(instruction Instruction) {
	cpu.Hi = cpu.Reg(instruction.S())
}

// Move From LO
func (cpu *CPU) OpMFLO(instruction Instruction) {
	cpu.SetReg(instruction.D(), cpu.Lo)
}

// Move To LO
func (cpu *CPU) OpMTLO(instruction Instruction) {
	cpu.Lo = cpu.Reg(instruction.S())
}

// Multiply (signed)
func (cpu *CPU) OpMULT(instruction Instruction) {
	a := int64(int32(cpu.Reg(instruction.S())))
	b := int64(int32(cpu.Reg(instruction.T())))

	v := uint64(a * b)
	cpu.Hi = uint32(v >> 32)
	cpu.Lo = uint32(v)

	cpu.stepCycles += 6
}

// Multiply Unsigned
func (cpu *CPU) OpMULTU(instruction Instruction) {
	a := uint64(cpu.Reg(instruction.S()))
	b := uint64(cpu.Reg(instruction.T()))

	v := a * b
	cpu.Hi = uint32(v >> 32)
	cpu.Lo = uint32(v)

	cpu.stepCycles += 6
}

// Divide (signed)
func (cpu *CPU) OpDIV(instruction Instruction) {
	n := int32(cpu.Reg(instruction.S()))
	d := int32(cpu.Reg(instruction.T()))

	switch {
	case d == 0:
		// division by zero gives bogus sentinel values, no exception
		cpu.Hi = uint32(n)
		if n >= 0 {
			cpu.Lo = 0xffffffff
		} else {
			cpu.Lo = 1
		}
	case uint32(n) == 0x80000000 && d == -1:
		// the result doesn't fit in 32 bits
		cpu.Hi = 0
		cpu.Lo = 0x80000000
	default:
		cpu.Hi = uint32(n % d)
		cpu.Lo = uint32(n / d)
	}

	cpu.stepCycles += 35
}

// Divide Unsigned
func (cpu *CPU) OpDIVU(instruction Instruction) {
	n := cpu.Reg(instruction.S())
	d := cpu.Reg(instruction.T())

	if d == 0 {
		cpu.Hi = n
		cpu.Lo = 0xffffffff
	} else {
		cpu.Hi = n % d
		cpu.Lo = n / d
	}

	cpu.stepCycles += 35
}

// Add (signed, checked overflow)
func (cpu *CPU) OpADD(instruction Instruction) {
	s := int32(cpu.Reg(instruction.S()))
	t := int32(cpu.Reg(instruction.T()))

	v, err := add32Overflow(s, t)
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.D(), uint32(v))
}

// Add Unsigned
func (cpu *CPU) OpADDU(instruction Instruction) {
	s := instruction.S()
	t := instruction.T()
	d := instruction.D()

	cpu.SetReg(d, cpu.Reg(s)+cpu.Reg(t))
}

// Subtract (signed, checked overflow)
func (cpu *CPU) OpSUB(instruction Instruction) {
	s := int32(cpu.Reg(instruction.S()))
	t := int32(cpu.Reg(instruction.T()))

	v, err := sub32Overflow(s, t)
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.D(), uint32(v))
}

// Subtract Unsigned
func (cpu *CPU) OpSUBU(instruction Instruction) {
	s := instruction.S()
	t := instruction.T()
	d := instruction.D()

	cpu.SetReg(d, cpu.Reg(s)-cpu.Reg(t))
}

// Bitwise And
func (cpu *CPU) OpAND(instruction Instruction) {
	cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())&cpu.Reg(instruction.T()))
}

// Bitwise Or
func (cpu *CPU) OpOR(instruction Instruction) {
	cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())|cpu.Reg(instruction.T()))
}

// Bitwise Exclusive Or
func (cpu *CPU) OpXOR(instruction Instruction) {
	cpu.SetReg(instruction.D(), cpu.Reg(instruction.S())^cpu.Reg(instruction.T()))
}

// Bitwise Not Or
func (cpu *CPU) OpNOR(instruction Instruction) {
	cpu.SetReg(instruction.D(), ^(cpu.Reg(instruction.S()) | cpu.Reg(instruction.T())))
}

// Set on Less Than (signed)
func (cpu *CPU) OpSLT(instruction Instruction) {
	s := int32(cpu.Reg(instruction.S()))
	t := int32(cpu.Reg(instruction.T()))

	cpu.SetReg(instruction.D(), oneIfTrue(s < t))
}

// Set on Less Than Unsigned
func (cpu *CPU) OpSLTU(instruction Instruction) {
	v := cpu.Reg(instruction.S()) < cpu.Reg(instruction.T())
	cpu.SetReg(instruction.D(), oneIfTrue(v))
}

// BLTZ, BLTZAL, BGEZ, BGEZAL: the exact variant is encoded in the T
// register field
func (cpu *CPU) OpBXX(instruction Instruction) {
	i := instruction.ImmSE()
	s := instruction.S()

	op := uint32(instruction)
	isBgez := (op >> 16) & 1
	// the "and link" forms are exactly 0x80 and 0x90, not just bit 20
	isLink := (op>>17)&0xf == 8

	v := int32(cpu.Reg(s))

	// test "less than zero", then flip the result for BGEZ
	test := oneIfTrue(v < 0) ^ isBgez

	if isLink {
		// the return address is written even when the branch is not
		// taken
		cpu.SetReg(31, cpu.NextPC)
	}

	if test != 0 {
		cpu.branch(i)
	}
}

// Jump
func (cpu *CPU) OpJ(instruction Instruction) {
	i := instruction.ImmJump()

	cpu.NextPC = (cpu.PC & 0xf0000000) | (i << 2)
	cpu.Branching = true
}

// Jump And Link
func (cpu *CPU) OpJAL(instruction Instruction) {
	ra := cpu.NextPC
	cpu.OpJ(instruction)
	cpu.SetReg(31, ra)
}

// Branch if Equal
func (cpu *CPU) OpBEQ(instruction Instruction) {
	if cpu.Reg(instruction.S()) == cpu.Reg(instruction.T()) {
		cpu.branch(instruction.ImmSE())
	}
}

// Branch if Not Equal
func (cpu *CPU) OpBNE(instruction Instruction) {
	if cpu.Reg(instruction.S()) != cpu.Reg(instruction.T()) {
		cpu.branch(instruction.ImmSE())
	}
}

// Branch if Less than or Equal to Zero
func (cpu *CPU) OpBLEZ(instruction Instruction) {
	if int32(cpu.Reg(instruction.S())) <= 0 {
		cpu.branch(instruction.ImmSE())
	}
}

// Branch if Greater Than Zero
func (cpu *CPU) OpBGTZ(instruction Instruction) {
	if int32(cpu.Reg(instruction.S())) > 0 {
		cpu.branch(instruction.ImmSE())
	}
}

// Add Immediate (signed, checked overflow)
func (cpu *CPU) OpADDI(instruction Instruction) {
	i := int32(instruction.ImmSE())
	s := int32(cpu.Reg(instruction.S()))

	v, err := add32Overflow(s, i)
	if err != nil {
		cpu.Exception(EXCEPTION_OVERFLOW)
		return
	}
	cpu.SetReg(instruction.T(), uint32(v))
}

// Add Immediate Unsigned
func (cpu *CPU) OpADDIU(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())+instruction.ImmSE())
}

// Set on Less Than Immediate (signed)
func (cpu *CPU) OpSLTI(instruction Instruction) {
	v := int32(cpu.Reg(instruction.S())) < int32(instruction.ImmSE())
	cpu.SetReg(instruction.T(), oneIfTrue(v))
}

// Set on Less Than Immediate Unsigned
func (cpu *CPU) OpSLTIU(instruction Instruction) {
	v := cpu.Reg(instruction.S()) < instruction.ImmSE()
	cpu.SetReg(instruction.T(), oneIfTrue(v))
}

// Bitwise And Immediate
func (cpu *CPU) OpANDI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())&instruction.Imm())
}

// Bitwise Or Immediate
func (cpu *CPU) OpORI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())|instruction.Imm())
}

// Bitwise Exclusive Or Immediate
func (cpu *CPU) OpXORI(instruction Instruction) {
	cpu.SetReg(instruction.T(), cpu.Reg(instruction.S())^instruction.Imm())
}

// Load Upper Immediate
func (cpu *CPU) OpLUI(instruction Instruction) {
	// low 16 bits are set to 0
	cpu.SetReg(instruction.T(), instruction.Imm()<<16)
}

// Coprocessor 0 opcodes
func (cpu *CPU) OpCOP0(instruction Instruction) {
	switch instruction.CopOpcode() {
	case 0x00:
		cpu.OpMFC0(instruction)
	case 0x04:
		cpu.OpMTC0(instruction)
	case 0x10:
		cpu.OpRFE(instruction)
	default:
		cpu.OpIllegal(instruction)
	}
}

// Move From Coprocessor 0. The value arrives through the load delay
// slot like a memory load
func (cpu *CPU) OpMFC0(instruction Instruction) {
	t := instruction.T()

	var v uint32
	switch instruction.D() {
	case 12:
		v = cpu.Cop0.SR
	case 13:
		v = cpu.Cop0.GetCause(cpu.Inter.IrqState)
	case 14:
		v = cpu.Cop0.Epc
	case 15:
		// processor ID
		v = 0x00000002
	case 6, 7, 8:
		// breakpoint registers, not wired
		v = 0
	default:
		cpu.OpIllegal(instruction)
		return
	}

	cpu.Load = PendingLoad{Index: t, Value: v}
}

// Move To Coprocessor 0
func (cpu *CPU) OpMTC0(instruction Instruction) {
	v := cpu.Reg(instruction.T())

	switch instruction.D() {
	case 3, 5, 6, 7, 9, 11:
		// breakpoint registers, only zero is meaningful without the
		// debug hardware wired up
		if v != 0 {
			panicFmt("cpu: unhandled write 0x%x to cop0 breakpoint register %d", v, instruction.D())
		}
	case 12:
		cpu.Cop0.SetSR(v)
	case 13:
		cpu.Cop0.SetCause(v)
	default:
		panicFmt("cpu: unhandled cop0 register %d", instruction.D())
	}
}

// Return From Exception
func (cpu *CPU) OpRFE(instruction Instruction) {
	// the only instruction with this coprocessor opcode is RFE, the
	// virtual memory forms of other MIPS implementations don't exist
	if instruction.Subfunction() != 0x10 {
		cpu.OpIllegal(instruction)
		return
	}

	cpu.Cop0.ReturnFromException()
}

// Coprocessor 1 does not exist on this hardware
func (cpu *CPU) OpCOP1(instruction Instruction) {
	cpu.Exception(EXCEPTION_COPROCESSOR_ERROR)
}

// Coprocessor 2: the Geometry Transformation Engine
func (cpu *CPU) OpCOP2(instruction Instruction) {
	op := instruction.CopOpcode()

	if op&0x10 != 0 {
		// GTE command. The cost is fixed per opcode and charged even
		// though no bus access occurs
		cmd := uint32(instruction) & 0x1ffffff
		cpu.Gte.Command(cmd)
		cpu.stepCycles += gteCommandCycles(cmd)
		return
	}

	switch op {
	case 0x00: // MFC2
		v := cpu.Gte.Data(instruction.D())
		cpu.Load = PendingLoad{Index: instruction.T(), Value: v}
	case 0x02: // CFC2
		v := cpu.Gte.Control(instruction.D())
		cpu.Load = PendingLoad{Index: instruction.T(), Value: v}
	case 0x04: // MTC2
		cpu.Gte.SetData(instruction.D(), cpu.Reg(instruction.T()))
	case 0x06: // CTC2
		cpu.Gte.SetControl(instruction.D(), cpu.Reg(instruction.T()))
	default:
		cpu.OpIllegal(instruction)
	}
}

// Coprocessor 3 does not exist on this hardware
func (cpu *CPU) OpCOP3(instruction Instruction) {
	cpu.Exception(EXCEPTION_COPROCESSOR_ERROR)
}

// Load Byte (sign extended)
func (cpu *CPU) OpLB(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	v, ok := cpu.load(addr, ACCESS_BYTE)
	if ok {
		cpu.Load = PendingLoad{Index: instruction.T(), Value: uint32(int8(v))}
	}
}

// Load Halfword (sign extended)
func (cpu *CPU) OpLH(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%2 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}

	v, ok := cpu.load(addr, ACCESS_HALFWORD)
	if ok {
		cpu.Load = PendingLoad{Index: instruction.T(), Value: uint32(int16(v))}
	}
}

// Load Word Left: the unaligned-access helper pairs read around the
// load delay slot, merging with the in-flight value
func (cpu *CPU) OpLWL(instruction Instruction) {
	t := instruction.T()
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	// bypass the load delay: fetch the current in-flight value from
	// the writeback file
	cur := cpu.OutRegs[t]

	aligned, ok := cpu.load(addr & ^uint32(3), ACCESS_WORD)
	if !ok {
		return
	}

	var v uint32
	switch addr & 3 {
	case 0:
		v = (cur & 0x00ffffff) | (aligned << 24)
	case 1:
		v = (cur & 0x0000ffff) | (aligned << 16)
	case 2:
		v = (cur & 0x000000ff) | (aligned << 8)
	case 3:
		v = aligned
	}

	cpu.Load = PendingLoad{Index: t, Value: v}
}

// Load Word
func (cpu *CPU) OpLW(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%4 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}

	v, ok := cpu.load(addr, ACCESS_WORD)
	if ok {
		cpu.Load = PendingLoad{Index: instruction.T(), Value: v}
	}
}

// Load Byte Unsigned
func (cpu *CPU) OpLBU(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	v, ok := cpu.load(addr, ACCESS_BYTE)
	if ok {
		cpu.Load = PendingLoad{Index: instruction.T(), Value: v & 0xff}
	}
}

// Load Halfword Unsigned
func (cpu *CPU) OpLHU(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%2 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}

	v, ok := cpu.load(addr, ACCESS_HALFWORD)
	if ok {
		cpu.Load = PendingLoad{Index: instruction.T(), Value: v & 0xffff}
	}
}

// Load Word Right
func (cpu *CPU) OpLWR(instruction Instruction) {
	t := instruction.T()
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	cur := cpu.OutRegs[t]

	aligned, ok := cpu.load(addr & ^uint32(3), ACCESS_WORD)
	if !ok {
		return
	}

	var v uint32
	switch addr & 3 {
	case 0:
		v = aligned
	case 1:
		v = (cur & 0xff000000) | (aligned >> 8)
	case 2:
		v = (cur & 0xffff0000) | (aligned >> 16)
	case 3:
		v = (cur & 0xffffff00) | (aligned >> 24)
	}

	cpu.Load = PendingLoad{Index: t, Value: v}
}

// Store Byte
func (cpu *CPU) OpSB(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()
	cpu.store(addr, ACCESS_BYTE, cpu.Reg(instruction.T()))
}

// Store Halfword
func (cpu *CPU) OpSH(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%2 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}

	cpu.store(addr, ACCESS_HALFWORD, cpu.Reg(instruction.T()))
}

// Store Word Left
func (cpu *CPU) OpSWL(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()
	v := cpu.Reg(instruction.T())

	aligned := addr & ^uint32(3)
	cur, ok := cpu.load(aligned, ACCESS_WORD)
	if !ok {
		return
	}

	var mem uint32
	switch addr & 3 {
	case 0:
		mem = (cur & 0xffffff00) | (v >> 24)
	case 1:
		mem = (cur & 0xffff0000) | (v >> 16)
	case 2:
		mem = (cur & 0xff000000) | (v >> 8)
	case 3:
		mem = v
	}

	cpu.store(aligned, ACCESS_WORD, mem)
}

// Store Word
func (cpu *CPU) OpSW(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%4 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}

	cpu.store(addr, ACCESS_WORD, cpu.Reg(instruction.T()))
}

// Store Word Right
func (cpu *CPU) OpSWR(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()
	v := cpu.Reg(instruction.T())

	aligned := addr & ^uint32(3)
	cur, ok := cpu.load(aligned, ACCESS_WORD)
	if !ok {
		return
	}

	var mem uint32
	switch addr & 3 {
	case 0:
		mem = v
	case 1:
		mem = (cur & 0x000000ff) | (v << 8)
	case 2:
		mem = (cur & 0x0000ffff) | (v << 16)
	case 3:
		mem = (cur & 0x00ffffff) | (v << 24)
	}

	cpu.store(aligned, ACCESS_WORD, mem)
}

// Load Word to Coprocessor 2
func (cpu *CPU) OpLWC2(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%4 != 0 {
		cpu.Exception(EXCEPTION_LOAD_ADDRESS_ERROR)
		return
	}

	v, ok := cpu.load(addr, ACCESS_WORD)
	if ok {
		cpu.Gte.SetData(instruction.T(), v)
	}
}

// Store Word from Coprocessor 2
func (cpu *CPU) OpSWC2(instruction Instruction) {
	addr := cpu.Reg(instruction.S()) + instruction.ImmSE()

	if addr%4 != 0 {
		cpu.Exception(EXCEPTION_STORE_ADDRESS_ERROR)
		return
	}

	cpu.store(addr, ACCESS_WORD, cpu.Gte.Data(instruction.T()))
}

// Reserved or unknown encoding
func (cpu *CPU) OpIllegal(instruction Instruction) {
	cpu.Exception(EXCEPTION_ILLEGAL_INSTRUCTION)
}
