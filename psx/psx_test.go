package psx

import (
	"encoding/binary"
	"testing"
)

// Builds a console whose firmware starts with `program`
func newTestPSX(program []uint32) *PSX {
	bios := &BIOS{Data: make([]byte, BIOS_SIZE)}
	for i, op := range program {
		binary.LittleEndian.PutUint32(bios.Data[i*4:], op)
	}
	return NewPSX(bios)
}

// The video output is free running: vertical blanking interrupts and
// frame completion must happen even when the software never touches a
// single GPU register
func TestVblankHeartbeat(t *testing.T) {
	console := newTestPSX([]uint32{
		opBeq(0, 0, 0xffff), // spin forever
		0x00000000,          // nop
	})

	// a bit over two NTSC frames
	console.RunCycles(1_200_000)

	if console.Inter.Gpu.FrameCount < 2 {
		t.Errorf("expected at least 2 frames, got %d", console.Inter.Gpu.FrameCount)
	}
	if console.Inter.IrqState.Status&(1<<INTERRUPT_VBLANK) == 0 {
		t.Error("vertical blanking interrupt was never latched")
	}

	// frame-granular stepping must terminate on GPU-silent code too
	frame := console.Inter.Gpu.FrameCount
	console.RunFrame()
	if console.Inter.Gpu.FrameCount != frame+1 {
		t.Errorf("expected frame %d, got %d", frame+1, console.Inter.Gpu.FrameCount)
	}
}
