package psx

const RAM_ALLOC_SIZE = 2 * 1024 * 1024 // Main PlayStation RAM: 2MB

// Main system RAM, mirrored 4 times in the first 8MB of the address
// space
type RAM struct {
	Data []byte
}

// Creates a new RAM instance filled with a garbage pattern, since the
// hardware does not initialize it on reset
func NewRAM() *RAM {
	ram := &RAM{Data: make([]byte, RAM_ALLOC_SIZE)}
	for i := range ram.Data {
		ram.Data[i] = 0xcd
	}
	return ram
}

// Loads a little endian value of `size` bytes at `offset`
func (ram *RAM) Load(offset uint32, size AccessSize) uint32 {
	// handle the 4 RAM mirrors
	offset &= RAM_ALLOC_SIZE - 1

	var v uint32
	for i := uint32(0); i < uint32(size); i++ {
		v |= uint32(ram.Data[offset+i]) << (i * 8)
	}
	return v
}

// Stores the `size` low bytes of `val` at `offset`, little endian
func (ram *RAM) Store(offset uint32, size AccessSize, val uint32) {
	offset &= RAM_ALLOC_SIZE - 1

	for i := uint32(0); i < uint32(size); i++ {
		ram.Data[offset+i] = byte(val >> (i * 8))
	}
}

// Load the 32 bit little endian word at `offset`
func (ram *RAM) Load32(offset uint32) uint32 {
	return ram.Load(offset, ACCESS_WORD)
}

// Store the 32 bit little endian word `val` at `offset`
func (ram *RAM) Store32(offset, val uint32) {
	ram.Store(offset, ACCESS_WORD, val)
}
