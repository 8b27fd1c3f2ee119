package psx

// Exception codes as stored in bits [6:2] of the CAUSE register
type Exception uint32

const (
	EXCEPTION_INTERRUPT           Exception = 0x0 // External interrupt
	EXCEPTION_LOAD_ADDRESS_ERROR  Exception = 0x4 // Misaligned or invalid address on load
	EXCEPTION_STORE_ADDRESS_ERROR Exception = 0x5 // Misaligned or invalid address on store
	EXCEPTION_INSTRUCTION_BUS     Exception = 0x6 // Bus error on instruction fetch
	EXCEPTION_DATA_BUS            Exception = 0x7 // Bus error on data access
	EXCEPTION_SYSCALL             Exception = 0x8 // System call (SYSCALL opcode)
	EXCEPTION_BREAK               Exception = 0x9 // Breakpoint (BREAK opcode)
	EXCEPTION_ILLEGAL_INSTRUCTION Exception = 0xa // Reserved or unknown instruction
	EXCEPTION_COPROCESSOR_ERROR   Exception = 0xb // Unusable coprocessor
	EXCEPTION_OVERFLOW            Exception = 0xc // Signed arithmetic overflow
)
