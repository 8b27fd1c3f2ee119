package psx

// Address windows of the physical memory map. All of them are given in
// physical addresses, the bus masks the segment bits off before decoding
var (
	// the 2MB of RAM are mirrored four times over the first 8MB
	RAM_RANGE    = NewRange(0x00000000, 4*RAM_ALLOC_SIZE)
	EXPANSION_1  = NewRange(0x1f000000, 8*1024*1024)
	SCRATCH_PAD  = NewRange(0x1f800000, SCRATCH_PAD_SIZE)
	MEM_CONTROL  = NewRange(0x1f801000, 36)
	PAD_MEMCARD  = NewRange(0x1f801040, 32)
	RAM_SIZE     = NewRange(0x1f801060, 4)
	IRQ_CONTROL  = NewRange(0x1f801070, 8)
	DMA_RANGE    = NewRange(0x1f801080, 0x80)
	TIMERS_RANGE = NewRange(0x1f801100, 0x30)
	CDROM_RANGE  = NewRange(0x1f801800, 4)
	GPU_RANGE    = NewRange(0x1f801810, 8)
	SPU_RANGE    = NewRange(0x1f801c00, 640)
	EXPANSION_2  = NewRange(0x1f802000, 66)
	BIOS_RANGE   = NewRange(0x1fc00000, BIOS_SIZE)
	// Cache control register. Full address since it lives in KSEG2,
	// outside of the physical map
	CACHE_CONTROL = NewRange(0xfffe0130, 4)
)

// A contiguous address window
type Range struct {
	Start  uint32 // Start address
	Length uint32 // Length of the mapping
}

func NewRange(start, length uint32) Range {
	return Range{Start: start, Length: length}
}

// Returns whether `addr` is located inside this range
func (r *Range) Contains(addr uint32) bool {
	return addr >= r.Start && addr < r.Start+r.Length
}

// Returns the offset between `addr` and the `Start` of the range.
// The caller must make sure the range contains the address
func (r *Range) Offset(addr uint32) uint32 {
	return addr - r.Start
}

// Segment masks indexed by the 3 most significant address bits: KUSEG
// is mapped as-is, KSEG0/KSEG1 mirror the physical map (cached and
// uncached respectively) and KSEG2 is passed through untouched
var regionMask = [8]uint32{
	// KUSEG: 2048MB
	0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff,
	// KSEG0: 512MB
	0x7fffffff,
	// KSEG1: 512MB
	0x1fffffff,
	// KSEG2: 1024MB
	0xffffffff, 0xffffffff,
}

// Masks the segment bits of `addr`, yielding a physical address
func MaskRegion(addr uint32) uint32 {
	return addr & regionMask[addr>>29]
}
