package psx

import "testing"

func newTestInterconnect() *Interconnect {
	bios := &BIOS{Data: make([]byte, BIOS_SIZE)}
	return NewInterconnect(bios, NewTimeHandler())
}

func (inter *Interconnect) syncDma() {
	inter.Dma.Sync(inter.Ram, inter.Gpu, inter.CdRom, inter.Spu, inter.IrqState)
}

// A 2-node GPU command chain: node A carries a 3 word fill command and
// points at node B, which carries a draw mode word and the terminator.
// All 4 payload words must reach GP0 in order, then the channel
// completes and raises its interrupt
func TestLinkedListDma(t *testing.T) {
	inter := newTestInterconnect()
	inter.Gpu.GP0(0xe3000000)
	inter.Gpu.GP0(0xe4000000 | 511<<10 | 1023)

	ram := inter.Ram
	ram.Store32(0x0, 3<<24|0x100) // node A: 3 words, next at 0x100
	ram.Store32(0x4, 0x02ffffff)
	ram.Store32(0x8, 0)
	ram.Store32(0xc, 16<<16|16)
	ram.Store32(0x100, 1<<24|0xffffff) // node B: 1 word, end of chain
	ram.Store32(0x104, 0xe1000001)

	// master IRQ enable plus the GPU channel
	inter.Store(0x1f8010f4, ACCESS_WORD, 1<<23|1<<18)
	inter.Store(0x1f8010a0, ACCESS_WORD, 0x0)
	inter.Store(0x1f8010a8, ACCESS_WORD, 1|2<<9|1<<24)

	inter.syncDma()

	if got := countPixels(inter.Gpu.Vram, 0, 0, 32, 32); got != 256 {
		t.Errorf("fill command was not executed: %d pixels", got)
	}
	if inter.Gpu.PageBaseX != 1 {
		t.Errorf("draw mode word was not executed: page base %d", inter.Gpu.PageBaseX)
	}

	ch := inter.Dma.Channels[PORT_GPU]
	if ch.Running || ch.Enable {
		t.Error("channel did not complete")
	}
	if inter.IrqState.Status&(1<<INTERRUPT_DMA) == 0 {
		t.Error("completion interrupt was not raised")
	}
	if inter.Dma.Interrupt()>>24&(1<<PORT_GPU) == 0 {
		t.Error("channel interrupt flag is not set")
	}
}

// Clearing the ordering table: a burst transfer walking RAM backwards,
// writing each entry's predecessor address and the end marker last
func TestOtcDma(t *testing.T) {
	inter := newTestInterconnect()

	inter.Store(0x1f8010e0, ACCESS_WORD, 0x1000)        // base
	inter.Store(0x1f8010e4, ACCESS_WORD, 4)             // 4 words
	inter.Store(0x1f8010e8, ACCESS_WORD, 2|1<<28|1<<24) // decrement, manual, trigger

	inter.syncDma()

	if got := inter.Ram.Load32(0x1000); got != 0xffc {
		t.Errorf("expected 0xffc, got 0x%x", got)
	}
	if got := inter.Ram.Load32(0xff8); got != 0xff4 {
		t.Errorf("expected 0xff4, got 0x%x", got)
	}
	if got := inter.Ram.Load32(0xff4); got != 0xffffff {
		t.Errorf("expected the end marker, got 0x%x", got)
	}
	if inter.Dma.Channels[PORT_OTC].Running {
		t.Error("burst transfer did not finish in one quantum")
	}
}

// Disabling a request-synchronized channel mid-transfer and enabling
// it again must resume from the remaining word count
func TestDmaPauseResume(t *testing.T) {
	inter := newTestInterconnect()

	// 4 blocks of 2 words towards GP0, all NOPs
	inter.Store(0x1f8010a0, ACCESS_WORD, 0x0)
	inter.Store(0x1f8010a4, ACCESS_WORD, 4<<16|2)
	control := uint32(1 | 1<<9 | 1<<24)
	inter.Store(0x1f8010a8, ACCESS_WORD, control)

	ch := inter.Dma.Channels[PORT_GPU]

	inter.syncDma() // one block
	if ch.Remaining != 6 {
		t.Fatalf("expected 6 words remaining, got %d", ch.Remaining)
	}

	inter.Store(0x1f8010a8, ACCESS_WORD, control & ^uint32(1<<24))
	if ch.Running || !ch.Paused {
		t.Fatal("channel was not paused")
	}
	inter.syncDma() // must not move anything
	if ch.Remaining != 6 {
		t.Fatalf("paused channel transferred words: %d remaining", ch.Remaining)
	}

	inter.Store(0x1f8010a8, ACCESS_WORD, control)
	if ch.CurAddr != 2*4 || ch.Remaining != 6 {
		t.Fatalf("resume restarted the transfer: addr 0x%x, %d remaining", ch.CurAddr, ch.Remaining)
	}

	for i := 0; i < 3; i++ {
		inter.syncDma()
	}
	if ch.Running || ch.Remaining != 0 {
		t.Errorf("transfer did not complete: %d remaining", ch.Remaining)
	}
}
