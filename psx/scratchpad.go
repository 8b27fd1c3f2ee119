package psx

const SCRATCH_PAD_SIZE = 1024 // 1KB of fast on-chip RAM (the data cache)

// The scratchpad is the CPU data cache wired as fast static RAM. It is
// only reachable through the cached segments, the bus rejects uncached
// (KSEG1) accesses to it
type ScratchPad struct {
	Data [SCRATCH_PAD_SIZE]byte
}

// Returns a new ScratchPad instance filled with a garbage pattern
func NewScratchPad() *ScratchPad {
	sp := &ScratchPad{}
	for i := range sp.Data {
		sp.Data[i] = 0xab
	}
	return sp
}

// Loads a little endian value of `size` bytes at `offset`
func (sp *ScratchPad) Load(offset uint32, size AccessSize) uint32 {
	var v uint32
	for i := uint32(0); i < uint32(size); i++ {
		v |= uint32(sp.Data[offset+i]) << (i * 8)
	}
	return v
}

// Stores the `size` low bytes of `val` at `offset`, little endian
func (sp *ScratchPad) Store(offset uint32, size AccessSize, val uint32) {
	for i := uint32(0); i < uint32(size); i++ {
		sp.Data[offset+i] = byte(val >> (i * 8))
	}
}
