package psx

import "testing"

// The 2MB of RAM appear four times over the first 8MB of the physical
// address space
func TestRamMirrors(t *testing.T) {
	inter := newTestInterconnect()

	inter.Ram.Store32(0x1234, 0xcafebabe)

	for _, base := range []uint32{0x00000000, 0x00200000, 0x00400000, 0x00600000} {
		v, ok := inter.Load(base+0x1234, ACCESS_WORD)
		if !ok {
			t.Fatalf("RAM mirror at 0x%08x raises a bus error", base)
		}
		if v != 0xcafebabe {
			t.Errorf("mirror at 0x%08x: expected 0xcafebabe, got 0x%x", base, v)
		}
	}

	// stores through a mirror land in the same backing memory
	inter.Store(0x00601234, ACCESS_WORD, 0x12345678)
	if got := inter.Ram.Load32(0x1234); got != 0x12345678 {
		t.Errorf("store through mirror: expected 0x12345678, got 0x%x", got)
	}
}
