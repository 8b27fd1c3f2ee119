package psx

// Represents a timer clock source
type Clock uint8

const (
	CLOCK_SYSCLOCK      Clock = iota // CPU clock at 33.8685MHz
	CLOCK_SYSCLOCK_DIV8 Clock = iota // CPU clock divided by 8 (~4.2335625MHz)
	CLOCK_GPU_DOTCLOCK  Clock = iota // GPU's dotclock (~53MHz)
	CLOCK_GPU_HSYNC     Clock = iota // GPU's HSync signal
)

// Returns true if it's a GPU clock
func (c Clock) NeedsGPU() bool {
	return c == CLOCK_GPU_DOTCLOCK || c == CLOCK_GPU_HSYNC
}

// All timers use different values for sysclocks for some reason
var ClockSourceLookupTable = [][]Clock{
	// timer 0
	{
		CLOCK_SYSCLOCK, CLOCK_GPU_DOTCLOCK,
		CLOCK_SYSCLOCK, CLOCK_GPU_DOTCLOCK,
	},
	// timer 1
	{
		CLOCK_SYSCLOCK, CLOCK_GPU_HSYNC,
		CLOCK_SYSCLOCK, CLOCK_GPU_HSYNC,
	},
	// timer 2
	{
		CLOCK_SYSCLOCK, CLOCK_SYSCLOCK,
		CLOCK_SYSCLOCK_DIV8, CLOCK_SYSCLOCK_DIV8,
	},
}

type ClockSource uint8

func ClockSourceFromField(field uint16) ClockSource {
	return ClockSource(field & 3)
}

func (cs ClockSource) Clock(instance Peripheral) Clock {
	switch instance {
	case PERIPHERAL_TIMER0:
		return ClockSourceLookupTable[0][cs]
	case PERIPHERAL_TIMER1:
		return ClockSourceLookupTable[1][cs]
	case PERIPHERAL_TIMER2:
		return ClockSourceLookupTable[2][cs]
	}
	panic("timer: invalid peripheral for Clock()")
}

// Represents timer synchronization modes when `FreeRun` is false.
// Timers 0 and 1 synchronize with the horizontal and the vertical
// blanking respectively, timer 2 only knows how to stop itself
type TSync uint16

const (
	// Timer 0, timer 1: pause during blank. Timer 2: stop counter.
	TSYNC_PAUSE TSync = 0
	// Timer 0, timer 1: reset counter at blank. Timer 2: free run.
	TSYNC_RESET TSync = 1
	// Timer 0, timer 1: reset at blank, pause outside of it.
	// Timer 2: free run.
	TSYNC_RESET_AND_PAUSE TSync = 2
	// Timer 0, timer 1: wait for the first blank, then free run.
	// Timer 2: stop counter.
	TSYNC_WAIT TSync = 3
)

func TSyncFromField(field uint16) TSync {
	return TSync(field & 3)
}

type Timer struct {
	Instance Peripheral // 0, 1 or 2
	Counter  uint16     // Timer counter
	FreeRun  bool       // If true, the timer does not synchronize with an external signal
	Target   uint16     // Timer counter target
	TSync    TSync      // Synchronization mode when `FreeRun` is false
	// If true, the counter is reset when it reaches `Target`, otherwise it counts to 0xffff
	TargetWrap      bool
	TargetIrq       bool        // Specifies whether to raise an interrupt when `Target` is reached
	WrapIrq         bool        // Raises an interrupt when the counter wraps after 0xffff
	RepeatIrq       bool        // If true, the interrupt can trigger again without a mode rewrite
	NegateIrq       bool        // When true, the IRQ flag is toggled instead of pulsed
	ClockSource     ClockSource // Each timer can use a different clock source
	TargetReached   bool        // True if `Target` has been reached since the last read
	OverflowReached bool        // True when the counter overflowed 0xffff
	Period          FracCycles  // Period of a counter tick, the GPU can be used as a source
	Phase           FracCycles  // Current position in the counter tick
	Interrupt       bool        // True if an interrupt is active
	IrqFired        bool        // One-shot latch, cleared by a mode rewrite
	SyncStarted     bool        // TSYNC_WAIT: the blank that releases the counter happened
	LastBlank       uint64      // Blanking event count at the previous sync
}

// Returns a new Timer instance
func NewTimer(instance Peripheral) *Timer {
	return &Timer{
		Instance:    instance,
		TSync:       TSyncFromField(0),
		ClockSource: ClockSourceFromField(0),
		FreeRun:     true,
		Period:      FracCyclesFromFixed(1),
		Phase:       FracCyclesFromFixed(0),
	}
}

// Resets the timer internal state, gets called when the timer's
// configuration changes or when GPU timings change (if the timer
// relies on them)
func (timer *Timer) Reset(gpu *GPU, th *TimeHandler) {
	switch timer.ClockSource.Clock(timer.Instance) {
	case CLOCK_SYSCLOCK:
		timer.Period = FracCyclesFromCycles(1)
		timer.Phase = FracCyclesFromCycles(0)
	case CLOCK_SYSCLOCK_DIV8:
		timer.Period = FracCyclesFromCycles(8)
		timer.Phase = FracCyclesFromCycles(0)
	case CLOCK_GPU_DOTCLOCK:
		timer.Period = gpu.DotclockPeriod()
		timer.Phase = gpu.DotclockPhase()
	case CLOCK_GPU_HSYNC:
		timer.Period = gpu.HSyncPeriod()
		timer.Phase = gpu.HSyncPhase()
	}

	timer.PredictNextSync(th)
}

// Returns the counting gate for the elapsed slice and applies the
// blanking synchronization. `gpu` may be nil for timer 2
func (timer *Timer) syncGate(gpu *GPU) bool {
	if timer.FreeRun {
		return true
	}

	if timer.Instance == PERIPHERAL_TIMER2 {
		// modes 0 and 3 stop the counter, 1 and 2 free run
		return timer.TSync == TSYNC_RESET || timer.TSync == TSYNC_RESET_AND_PAUSE
	}

	var inBlank bool
	var blanks uint64
	if timer.Instance == PERIPHERAL_TIMER0 {
		inBlank = gpu.InHblank
		blanks = gpu.HBlankCount
	} else {
		inBlank = gpu.InVblank
		blanks = gpu.VBlankCount
	}

	blanked := blanks != timer.LastBlank
	timer.LastBlank = blanks

	switch timer.TSync {
	case TSYNC_PAUSE:
		return !inBlank
	case TSYNC_RESET:
		if blanked {
			timer.Counter = 0
		}
		return true
	case TSYNC_RESET_AND_PAUSE:
		if blanked {
			timer.Counter = 0
		}
		return inBlank
	default:
		if blanked {
			timer.SyncStarted = true
		}
		return timer.SyncStarted
	}
}

// Synchronizes this timer
func (timer *Timer) Sync(th *TimeHandler, irqState *IrqState, gpu *GPU) {
	delta := th.Sync(timer.Instance)
	if delta == 0 {
		return
	}

	if !timer.syncGate(gpu) {
		// counter is paused, the elapsed time is discarded
		timer.PredictNextSync(th)
		return
	}

	deltaFrac := FracCyclesFromCycles(delta)
	ticks := deltaFrac.Add(timer.Phase)

	count := ticks.GetFixed() / timer.Period.GetFixed()
	phase := ticks.GetFixed() % timer.Period.GetFixed()

	// update current phase
	timer.Phase = FracCyclesFromFixed(phase)
	count += uint64(timer.Counter)
	targetPassed := false

	if (timer.Counter <= timer.Target) && (count > uint64(timer.Target)) {
		timer.TargetReached = true
		targetPassed = true
	}

	var wrap uint64
	overflow := false
	if timer.TargetWrap {
		wrap = uint64(timer.Target) + 1
	} else {
		wrap = 0x10000
	}

	if count >= wrap {
		count %= wrap

		if wrap == 0x10000 {
			timer.OverflowReached = true
			overflow = true
		}
	}

	timer.Counter = uint16(count)

	if (timer.WrapIrq && overflow) || (timer.TargetIrq && targetPassed) {
		timer.raiseIrq(irqState)
	} else if !timer.NegateIrq {
		// pulse is over
		timer.Interrupt = false
	}

	timer.PredictNextSync(th)
}

func (timer *Timer) raiseIrq(irqState *IrqState) {
	if timer.IrqFired && !timer.RepeatIrq {
		// one-shot interrupt already delivered
		return
	}
	timer.IrqFired = true

	var interrupt Interrupt
	switch timer.Instance {
	case PERIPHERAL_TIMER0:
		interrupt = INTERRUPT_TIMER0
	case PERIPHERAL_TIMER1:
		interrupt = INTERRUPT_TIMER1
	case PERIPHERAL_TIMER2:
		interrupt = INTERRUPT_TIMER2
	default:
		panic("timer: unreachable")
	}

	if timer.NegateIrq {
		// toggle mode, the IRQ is requested on every assertion
		timer.Interrupt = !timer.Interrupt
		if timer.Interrupt {
			irqState.SetHigh(interrupt)
		}
	} else {
		// start pulse
		irqState.SetHigh(interrupt)
		timer.Interrupt = true
	}
}

// Returns the value of the mode register
func (timer *Timer) Mode() uint16 {
	var r uint16

	r |= uint16(oneIfTrue(!timer.FreeRun))
	r |= uint16(timer.TSync) << 1
	r |= uint16(oneIfTrue(timer.TargetWrap)) << 3
	r |= uint16(oneIfTrue(timer.TargetIrq)) << 4
	r |= uint16(oneIfTrue(timer.WrapIrq)) << 5
	r |= uint16(oneIfTrue(timer.RepeatIrq)) << 6
	r |= uint16(oneIfTrue(timer.NegateIrq)) << 7
	r |= uint16(timer.ClockSource) << 8
	r |= uint16(oneIfTrue(!timer.Interrupt)) << 10
	r |= uint16(oneIfTrue(timer.TargetReached)) << 11
	r |= uint16(oneIfTrue(timer.OverflowReached)) << 12

	// read resets the flags
	timer.TargetReached = false
	timer.OverflowReached = false

	return r
}

// Sets the value of the mode register
func (timer *Timer) SetMode(val uint16) {
	timer.FreeRun = (val & 1) == 0
	timer.TSync = TSyncFromField((val >> 1) & 3)
	timer.TargetWrap = (val>>3)&1 != 0
	timer.TargetIrq = (val>>4)&1 != 0
	timer.WrapIrq = (val>>5)&1 != 0
	timer.RepeatIrq = (val>>6)&1 != 0
	timer.NegateIrq = (val>>7)&1 != 0
	timer.ClockSource = ClockSourceFromField((val >> 8) & 3)

	// writing resets the counter, the interrupt flag and the
	// one-shot latch
	timer.Counter = 0
	timer.Interrupt = false
	timer.IrqFired = false
	timer.SyncStarted = false
}

// True when the timer state depends on the GPU, either through its
// clock source or through blanking synchronization
func (timer *Timer) NeedsGPU() bool {
	if !timer.FreeRun && timer.Instance != PERIPHERAL_TIMER2 {
		return true
	}
	return timer.ClockSource.Clock(timer.Instance).NeedsGPU()
}

func (timer *Timer) PredictNextSync(th *TimeHandler) {
	if !timer.TargetIrq && !timer.WrapIrq {
		// we don't have an IRQ
		th.RemoveNextSync(timer.Instance)
		return
	}

	var countdown uint16
	if timer.TargetIrq && timer.Counter <= timer.Target {
		countdown = timer.Target - timer.Counter
	} else if timer.TargetIrq && !timer.WrapIrq {
		countdown = 0xffff - timer.Counter + timer.Target
	} else {
		// next event is the 0xffff wrap
		countdown = 0xffff - timer.Counter
	}

	// convert timer counter to CPU cycles. the interrupt is generated
	// on the next cycle, so we add 1 to it
	delta := timer.Period.GetFixed() * (uint64(countdown) + 1)
	delta -= timer.Phase.GetFixed()
	// round to the next CPU cycle
	delta = FracCyclesFromFixed(delta).Ceil()

	th.SetNextSyncDelta(timer.Instance, delta)
}

type Timers struct {
	// Timer 0: GPU pixel clock.
	// Timer 1: GPU horizontal blanking.
	// Timer 2: System clock divided by 8
	Timers [3]*Timer
	// Blanking synchronization and the dotclock/hsync sources read
	// GPU state directly
	Gpu *GPU
}

func NewTimers() *Timers {
	timers := &Timers{
		Timers: [3]*Timer{
			NewTimer(PERIPHERAL_TIMER0),
			NewTimer(PERIPHERAL_TIMER1),
			NewTimer(PERIPHERAL_TIMER2),
		},
	}
	return timers
}

func (timers *Timers) Load(size AccessSize, th *TimeHandler, offset uint32, irqState *IrqState) uint32 {
	if size != ACCESS_WORD && size != ACCESS_HALFWORD {
		panicFmt("timer: unsupported load size %d", size)
	}

	instance := offset >> 4
	timer := timers.Timers[instance]
	timer.Sync(th, irqState, timers.Gpu)

	var val uint16
	switch offset & 0xf {
	case 0:
		val = timer.Counter
	case 4:
		val = timer.Mode()
	case 8:
		val = timer.Target
	default:
		panicFmt("timer: unhandled register %d", offset&0xf)
	}

	return uint32(val)
}

func (timers *Timers) Store(
	size AccessSize,
	val uint32,
	th *TimeHandler,
	offset uint32,
	gpu *GPU,
	irqState *IrqState,
) {
	if size != ACCESS_WORD && size != ACCESS_HALFWORD {
		panicFmt("timer: unsupported store size %d", size)
	}

	valU16 := uint16(val)
	instance := offset >> 4
	timer := timers.Timers[instance]
	timer.Sync(th, irqState, gpu)

	switch offset & 0xf {
	case 0:
		timer.Counter = valU16
	case 4:
		timer.SetMode(valU16)
	case 8:
		timer.Target = valU16
	default:
		panicFmt("timer: unhandled store register %d", offset&0xf)
	}

	if timer.NeedsGPU() {
		gpu.Sync(th, irqState)
	}
	timer.Reset(gpu, th)
}

func (timers *Timers) VideoTimingsChanged(th *TimeHandler, irqState *IrqState, gpu *GPU) {
	for _, timer := range timers.Timers {
		if timer.NeedsGPU() {
			timer.Sync(th, irqState, gpu)
			timer.Reset(gpu, th)
		}
	}
}

func (timers *Timers) Sync(th *TimeHandler, irqState *IrqState) {
	for _, timer := range timers.Timers {
		if th.NeedsSync(timer.Instance) {
			timer.Sync(th, irqState, timers.Gpu)
		}
	}
}
