package psx

// Reciprocal table for the unsigned Newton-Raphson divider. 257
// entries, one per possible leading byte of the normalized divisor
var unrTable = [0x101]uint8{}

func init() {
	for i := range unrTable {
		r := (0x40000/(i+0x100)+1)/2 - 0x101
		if r < 0 {
			r = 0
		}
		unrTable[i] = uint8(r)
	}
}

// GTE division: approximates `(numerator << 16) / divisor` with a
// single Newton-Raphson refinement step, exactly like the hardware.
// The result saturates to 0x1ffff
func GTEDivide(numerator, divisor uint16) uint32 {
	shift := countLeadingZeroesU16(divisor)

	n := uint64(numerator) << shift
	d := uint64(divisor) << shift

	// reciprocal estimate from the table, refined once
	u := uint64(unrTable[(d-0x7fc0)>>7]) + 0x101
	d = (0x2000080 - d*u) >> 8
	d = (0x0000080 + d*u) >> 8

	res := (n*d + 0x8000) >> 16
	if res > 0x1ffff {
		return 0x1ffff
	}
	return uint32(res)
}

func countLeadingZeroesU16(v uint16) uint32 {
	var n uint32 = 0
	for v&0x8000 == 0 && n < 16 {
		v <<= 1
		n++
	}
	return n
}
