package psx

type Instruction uint32

// Return the primary opcode in bits [31:26]
func (op Instruction) Function() uint32 {
	return uint32(op) >> 26
}

// Return the secondary opcode in bits [5:0]
func (op Instruction) Subfunction() uint32 {
	return uint32(op) & 0x3f
}

// Return register index in bits [25:21]
func (op Instruction) S() uint32 {
	return (uint32(op) >> 21) & 0x1f
}

// Return register index in bits [20:16]
func (op Instruction) T() uint32 {
	return (uint32(op) >> 16) & 0x1f
}

// Return register index in bits [15:11]
func (op Instruction) D() uint32 {
	return (uint32(op) >> 11) & 0x1f
}

// Return immediate value in bits [15:0]
func (op Instruction) Imm() uint32 {
	return uint32(op) & 0xffff
}

// Return immediate value in bits [15:0] as a sign-extended 32 bit value
func (op Instruction) ImmSE() uint32 {
	return uint32(int16(uint32(op) & 0xffff))
}

// Jump target stored in bits [25:0]
func (op Instruction) ImmJump() uint32 {
	return uint32(op) & 0x3ffffff
}

// Shift immediate values are stored in bits [10:6]
func (op Instruction) Shift() uint32 {
	return (uint32(op) >> 6) & 0x1f
}

// Coprocessor opcode in bits [25:21]
func (op Instruction) CopOpcode() uint32 {
	return (uint32(op) >> 21) & 0x1f
}

// Returns true for coprocessor 2 opcodes. Used by the interrupt logic:
// a pending interrupt must not preempt a GTE command, otherwise the
// BIOS can end up skipping it on return from the handler
func (op Instruction) IsGTEOp() bool {
	return uint32(op)&0xfe000000 == 0x4a000000
}
