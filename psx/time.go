package psx

// Identifies a peripheral for synchronization bookkeeping
type Peripheral uint32

const (
	PERIPHERAL_GPU    Peripheral = 0 // Graphics Processing Unit
	PERIPHERAL_TIMER0 Peripheral = 1 // Timer 0
	PERIPHERAL_TIMER1 Peripheral = 2 // Timer 1
	PERIPHERAL_TIMER2 Peripheral = 3 // Timer 2
	PERIPHERAL_DMA    Peripheral = 4 // DMA controller

	PERIPHERAL_COUNT = 5
)

// Keeps track of the emulation time. The counter is measured in CPU
// clock cycles at 33.8685MHz (~29.525960700946ns per cycle)
type TimeHandler struct {
	Cycles     uint64
	TimeSheets [PERIPHERAL_COUNT]TimeSheet
}

// Returns a new instance of TimeHandler
func NewTimeHandler() *TimeHandler {
	th := &TimeHandler{}
	for i := range th.TimeSheets {
		// no forced synchronization until a peripheral asks for one
		th.TimeSheets[i].NextSync = NEVER_SYNC
	}
	// the video output runs whether or not software touches the GPU,
	// force the first sync so it can schedule its blanking deadlines
	th.TimeSheets[PERIPHERAL_GPU].NextSync = 0
	return th
}

// Advance the current time by `cycles`
func (th *TimeHandler) Tick(cycles uint64) {
	th.Cycles += cycles
}

// Marks `from` as synchronized and returns the number of cycles elapsed
// since its last synchronization
func (th *TimeHandler) Sync(from Peripheral) uint64 {
	return th.TimeSheets[from].Sync(th.Cycles)
}

// Schedules a forced synchronization of `from` in `delta` cycles
func (th *TimeHandler) SetNextSyncDelta(from Peripheral, delta uint64) {
	th.TimeSheets[from].NextSync = th.Cycles + delta
}

// Removes any scheduled forced synchronization for `from`
func (th *TimeHandler) RemoveNextSync(from Peripheral) {
	th.TimeSheets[from].NextSync = NEVER_SYNC
}

// Returns true if the peripheral reached the time of the next forced
// synchronization
func (th *TimeHandler) NeedsSync(from Peripheral) bool {
	return th.TimeSheets[from].NeedsSync(th.Cycles)
}

// Sentinel for "no forced sync scheduled"
const NEVER_SYNC uint64 = 1 << 63

// Keeps track of the synchronization of one peripheral
type TimeSheet struct {
	LastSync uint64 // Time of the last synchronization
	NextSync uint64 // Date of the next forced synchronization
}

// Set the time sheet to the current time and return the time since the
// last synchronization
func (sheet *TimeSheet) Sync(cycles uint64) uint64 {
	delta := cycles - sheet.LastSync
	sheet.LastSync = cycles
	return delta
}

// Returns true if the peripheral reached `NextSync`
func (sheet *TimeSheet) NeedsSync(cycles uint64) bool {
	return sheet.NextSync <= cycles
}

// Fixed point cycle count with 16 fractional bits, used where
// peripheral clocks don't divide the CPU clock evenly
type FracCycles uint64

const FRAC_BITS = 16

func FracCyclesFromCycles(c uint64) FracCycles {
	return FracCycles(c << FRAC_BITS)
}

func FracCyclesFromFixed(f uint64) FracCycles {
	return FracCycles(f)
}

func FracCyclesFromF64(v float64) FracCycles {
	return FracCycles(v * float64(uint64(1)<<FRAC_BITS))
}

func (fc FracCycles) GetFixed() uint64 {
	return uint64(fc)
}

func (fc FracCycles) Add(other FracCycles) FracCycles {
	return fc + other
}

func (fc FracCycles) Multiply(other FracCycles) FracCycles {
	// the shift amount doubles when multiplying two fixed point values
	return FracCycles((uint64(fc) * uint64(other)) >> FRAC_BITS)
}

func (fc FracCycles) Divide(denominator FracCycles) FracCycles {
	// the shift amount cancels out when dividing, pre-shift the
	// numerator to keep the fractional part
	return FracCycles((uint64(fc) << FRAC_BITS) / uint64(denominator))
}

// Rounds up to a whole number of cycles
func (fc FracCycles) Ceil() uint64 {
	cycles := uint64(fc) >> FRAC_BITS
	if uint64(fc)&((1<<FRAC_BITS)-1) != 0 {
		cycles++
	}
	return cycles
}
