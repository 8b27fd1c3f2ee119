package psx

// Value of the cache control register at 0xfffe0130
type CacheControl uint32

// Returns whether the instruction cache is enabled
func (cache CacheControl) ICacheEnabled() bool {
	return uint32(cache)&0x800 != 0
}

// Returns whether the cache tag test mode is active
func (cache CacheControl) TagTestMode() bool {
	return uint32(cache)&4 != 0
}

// One 4-word instruction cache line
type ICacheLine struct {
	// Tag: high bits of the address associated with this line.
	// Valid bits: 3 bit index of the first valid word in the line
	TagValid uint32
	Line     [4]Instruction
}

func NewCacheLine() ICacheLine {
	return ICacheLine{
		// tag 0, all words invalid. The words themselves hold a BREAK
		// opcode so a miss that slips through crashes loudly instead
		// of executing garbage
		TagValid: 0x10,
		Line:     [4]Instruction{0x00bad0d, 0x00bad0d, 0x00bad0d, 0x00bad0d},
	}
}

// Returns the tag of the cache line
func (cline *ICacheLine) Tag() uint32 {
	return cline.TagValid & 0xfffff000
}

// Returns the index of the first valid word of the cache line
func (cline *ICacheLine) ValidIndex() uint32 {
	return (cline.TagValid >> 2) & 0x7
}

// Sets the cache line's tag and valid bits. `pc` is the first valid PC
// in the line
func (cline *ICacheLine) SetTagValid(pc uint32) {
	cline.TagValid = pc & 0xfffff00c
}

// Invalidates the entire cache line
func (cline *ICacheLine) Invalidate() {
	// set bit 4, pushing the valid index outside of the line
	cline.TagValid |= 0x10
}

// Returns the instruction at `index`
func (cline *ICacheLine) Get(index uint32) Instruction {
	return cline.Line[index]
}

// Sets the instruction at `index`
func (cline *ICacheLine) Set(index uint32, instruction Instruction) {
	cline.Line[index] = instruction
}
