package psx

import (
	"errors"
	"fmt"
)

var errOverflow = errors.New("integer overflow")

// Names of the general purpose registers, in the conventional MIPS order
var RegisterNames = []string{
	"r0", "at", "v0", "v1", "a0", "a1", "a2", "a3", // 00
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", // 08
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", // 10
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra", // 18
}

// Returns the conventional name of the register at `index`
func GetRegisterName(index uint32) string {
	return RegisterNames[index]
}

// Formatted panic()
func panicFmt(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}

// Adds two signed integers and checks for overflow
func add32Overflow(a, b int32) (int32, error) {
	c := a + b
	if (c > a) == (b > 0) {
		return c, nil
	}
	return c, errOverflow
}

// Subtracts two signed integers and checks for overflow
func sub32Overflow(a, b int32) (int32, error) {
	c := a - b
	if (c < a) == (b > 0) {
		return c, nil
	}
	return c, errOverflow
}

// Width of a bus access in bytes
type AccessSize uint32

const (
	ACCESS_BYTE     AccessSize = 1 // 8 bit
	ACCESS_HALFWORD AccessSize = 2 // 16 bit
	ACCESS_WORD     AccessSize = 4 // 32 bit
)

func oneIfTrue(val bool) uint32 {
	if val {
		return 1
	}
	return 0
}

func countLeadingZeroesU32(x uint32) uint32 {
	var n uint32
	if x == 0 {
		return 32
	}
	for x&0x80000000 == 0 {
		x <<= 1
		n++
	}
	return n
}

// Counts the leading bits of `x` that are equal to its sign bit,
// the GTE's LZCR semantics
func countLeadingRedundantBits(x uint32) uint8 {
	if x&0x80000000 != 0 {
		x = ^x
	}
	return uint8(countLeadingZeroesU32(x))
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
