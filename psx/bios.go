package psx

import (
	"fmt"
	"io"
)

const BIOS_SIZE uint32 = 512 * 1024 // BIOS images are always 512KB in length

// Read-only firmware image mapped at the top of the physical address
// space. The console boots from it and keeps jumping back into it for
// kernel services, so a session must not start without one
type BIOS struct {
	Data []byte // Raw BIOS data
}

// Loads a BIOS image from a reader. The image must be exactly
// BIOS_SIZE bytes long, anything else is rejected before boot
func LoadBIOS(r io.Reader) (*BIOS, error) {
	data := make([]byte, BIOS_SIZE+1)
	n, err := io.ReadFull(r, data[:BIOS_SIZE])
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("bios: read failed: %w", err)
	}
	if n != int(BIOS_SIZE) {
		return nil, fmt.Errorf("bios: invalid size (expected %d, got %d bytes)", BIOS_SIZE, n)
	}
	// make sure there is no trailing data
	if extra, _ := r.Read(data[BIOS_SIZE:]); extra != 0 {
		return nil, fmt.Errorf("bios: image is larger than %d bytes", BIOS_SIZE)
	}
	return &BIOS{Data: data[:BIOS_SIZE]}, nil
}

// Returns a little endian value of `size` bytes at `offset`. The offset
// is relative to the start of the BIOS range, not an absolute address
func (bios *BIOS) Load(offset uint32, size AccessSize) uint32 {
	var v uint32
	for i := uint32(0); i < uint32(size); i++ {
		v |= uint32(bios.Data[offset+i]) << (i * 8)
	}
	return v
}

// Fetch the 32 bit little endian word at `offset`
func (bios *BIOS) Load32(offset uint32) uint32 {
	return bios.Load(offset, ACCESS_WORD)
}
