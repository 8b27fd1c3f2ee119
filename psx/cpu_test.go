package psx

import (
	"encoding/binary"
	"testing"
)

// Builds a console whose firmware starts with `program`. The CPU
// boots straight into it through the uncached BIOS mirror
func newTestCPU(program []uint32) *CPU {
	bios := &BIOS{Data: make([]byte, BIOS_SIZE)}
	for i, op := range program {
		binary.LittleEndian.PutUint32(bios.Data[i*4:], op)
	}
	return NewCPU(NewInterconnect(bios, NewTimeHandler()))
}

func step(cpu *CPU, count int) {
	for i := 0; i < count; i++ {
		cpu.Step()
	}
}

// Instruction encoders
func opLui(rt, imm uint32) uint32       { return 0x0f<<26 | rt<<16 | imm&0xffff }
func opOri(rt, rs, imm uint32) uint32   { return 0x0d<<26 | rs<<21 | rt<<16 | imm&0xffff }
func opAddiu(rt, rs, imm uint32) uint32 { return 0x09<<26 | rs<<21 | rt<<16 | imm&0xffff }
func opAddi(rt, rs, imm uint32) uint32  { return 0x08<<26 | rs<<21 | rt<<16 | imm&0xffff }
func opAddu(rd, rs, rt uint32) uint32   { return rs<<21 | rt<<16 | rd<<11 | 0x21 }
func opLw(rt, rs, off uint32) uint32    { return 0x23<<26 | rs<<21 | rt<<16 | off&0xffff }
func opSw(rt, rs, off uint32) uint32    { return 0x2b<<26 | rs<<21 | rt<<16 | off&0xffff }
func opBeq(rs, rt, off uint32) uint32   { return 0x04<<26 | rs<<21 | rt<<16 | off&0xffff }
func opJal(target uint32) uint32        { return 0x03<<26 | (target>>2)&0x3ffffff }

func TestZeroRegisterIsPinned(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opAddiu(0, 0, 5), // writes to r0 are discarded
		opAddu(1, 0, 0),
	})
	step(cpu, 2)

	if cpu.Reg(0) != 0 {
		t.Errorf("r0 is not zero: 0x%x", cpu.Reg(0))
	}
	if cpu.Reg(1) != 0 {
		t.Errorf("expected r1 == 0, got 0x%x", cpu.Reg(1))
	}
}

// A load's value must not be visible to the instruction in the load
// delay slot, only to the one after it
func TestLoadDelaySlot(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opLui(1, 0xa000),      // r1 = 0xa0000000 (start of RAM, uncached)
		opAddiu(2, 0, 0x1234), // r2 = 0x1234
		opSw(2, 1, 0),
		opLw(3, 1, 0),
		opAddu(4, 3, 0), // delay slot: sees the stale r3
		opAddu(5, 3, 0), // sees the loaded value
	})
	step(cpu, 6)

	if cpu.Reg(4) != 0xdeadbeef {
		t.Errorf("load delay slot saw the new value: 0x%x", cpu.Reg(4))
	}
	if cpu.Reg(5) != 0x1234 {
		t.Errorf("expected r5 == 0x1234, got 0x%x", cpu.Reg(5))
	}
	if cpu.Reg(3) != 0x1234 {
		t.Errorf("expected r3 == 0x1234, got 0x%x", cpu.Reg(3))
	}
}

// The instruction in the branch delay slot always executes, the one
// after it is skipped when the branch is taken
func TestBranchDelaySlot(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opBeq(0, 0, 2),   // branch to the 4th instruction
		opAddiu(1, 0, 1), // delay slot, executed
		opAddiu(1, 0, 2), // skipped
		opAddiu(2, 0, 3), // branch target
	})
	step(cpu, 3)

	if cpu.Reg(1) != 1 {
		t.Errorf("expected r1 == 1, got 0x%x", cpu.Reg(1))
	}
	if cpu.Reg(2) != 3 {
		t.Errorf("branch target was not reached: r2 == 0x%x", cpu.Reg(2))
	}
}

func TestJalReturnAddress(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opJal(0xbfc00010),
		opAddiu(1, 0, 7), // delay slot
		0, 0,
		opAddiu(2, 0, 9), // call target
	})
	step(cpu, 3)

	if cpu.Reg(31) != 0xbfc00008 {
		t.Errorf("expected ra == 0xbfc00008, got 0x%x", cpu.Reg(31))
	}
	if cpu.Reg(1) != 7 {
		t.Errorf("delay slot was not executed: r1 == 0x%x", cpu.Reg(1))
	}
	if cpu.Reg(2) != 9 {
		t.Errorf("call target was not reached: r2 == 0x%x", cpu.Reg(2))
	}
}

// ADDI overflow raises an exception and leaves the target untouched
func TestAddOverflowException(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opLui(1, 0x7fff),
		opOri(1, 1, 0xffff), // r1 = 0x7fffffff
		opAddi(2, 1, 1),     // overflows
	})
	step(cpu, 3)

	if cpu.Reg(2) != 0xdeadbeef {
		t.Errorf("overflowing ADDI modified its target: 0x%x", cpu.Reg(2))
	}
	if code := Exception((cpu.Cop0.Cause >> 2) & 0x1f); code != EXCEPTION_OVERFLOW {
		t.Errorf("expected overflow exception, got cause 0x%x", code)
	}
	if cpu.Cop0.Epc != 0xbfc00008 {
		t.Errorf("expected EPC == 0xbfc00008, got 0x%x", cpu.Cop0.Epc)
	}
	// BEV is clear, execution continues at the RAM vector
	if cpu.PC != 0x80000080 {
		t.Errorf("expected PC at the exception vector, got 0x%x", cpu.PC)
	}
}

func TestUnalignedLoadException(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opLui(1, 0xa000),
		opOri(1, 1, 1), // r1 = 0xa0000001
		opLw(2, 1, 0),  // misaligned
	})
	step(cpu, 3)

	if code := Exception((cpu.Cop0.Cause >> 2) & 0x1f); code != EXCEPTION_LOAD_ADDRESS_ERROR {
		t.Errorf("expected address error exception, got cause 0x%x", code)
	}
	if cpu.Reg(2) != 0xdeadbeef {
		t.Errorf("faulting load modified its target: 0x%x", cpu.Reg(2))
	}
}

// An exception raised in a branch delay slot must set the BD bit and
// point EPC at the branch itself
func TestExceptionInDelaySlot(t *testing.T) {
	cpu := newTestCPU([]uint32{
		opLui(1, 0xa000),
		opOri(1, 1, 1),
		opBeq(0, 0, 2),
		opLw(2, 1, 0), // delay slot, faults
	})
	step(cpu, 4)

	if cpu.Cop0.Cause&(1<<31) == 0 {
		t.Error("BD bit is not set")
	}
	if cpu.Cop0.Epc != 0xbfc00008 {
		t.Errorf("expected EPC at the branch, got 0x%x", cpu.Cop0.Epc)
	}
}
