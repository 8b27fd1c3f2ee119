package psx

import "testing"

func newTestTimers() (*Timers, *TimeHandler, *IrqState, *GPU) {
	th := NewTimeHandler()
	irq := NewIrqState()
	gpu := NewGPU()
	timers := NewTimers()
	timers.Gpu = gpu
	return timers, th, irq, gpu
}

func TestTimerTargetIrq(t *testing.T) {
	timers, th, irq, gpu := newTestTimers()

	timers.Store(ACCESS_WORD, 100, th, 0x28, gpu, irq)       // timer 2 target
	timers.Store(ACCESS_WORD, 1<<4|1<<6, th, 0x24, gpu, irq) // target IRQ, repeat

	timer := timers.Timers[2]

	th.Tick(50)
	timer.Sync(th, irq, gpu)
	if timer.Counter != 50 {
		t.Errorf("expected counter 50, got %d", timer.Counter)
	}
	if irq.Status&(1<<INTERRUPT_TIMER2) != 0 {
		t.Error("interrupt raised before the target")
	}

	th.Tick(55)
	timer.Sync(th, irq, gpu)
	if irq.Status&(1<<INTERRUPT_TIMER2) == 0 {
		t.Error("interrupt was not raised after passing the target")
	}

	// the reached flag is visible once and cleared by the read
	mode := timers.Load(ACCESS_WORD, th, 0x24, irq)
	if mode&(1<<11) == 0 {
		t.Error("target reached flag is not set")
	}
	mode = timers.Load(ACCESS_WORD, th, 0x24, irq)
	if mode&(1<<11) != 0 {
		t.Error("target reached flag survived the read")
	}
}

// With target wrap enabled the counter resets after the target value
func TestTimerTargetWrap(t *testing.T) {
	timers, th, irq, gpu := newTestTimers()

	timers.Store(ACCESS_WORD, 9, th, 0x28, gpu, irq)
	timers.Store(ACCESS_WORD, 1<<3, th, 0x24, gpu, irq)

	timer := timers.Timers[2]

	th.Tick(25)
	timer.Sync(th, irq, gpu)
	if timer.Counter != 5 {
		t.Errorf("expected counter 5 after wrapping, got %d", timer.Counter)
	}
}

// Without the repeat bit only the first target hit raises an IRQ
func TestTimerOneShotIrq(t *testing.T) {
	timers, th, irq, gpu := newTestTimers()

	timers.Store(ACCESS_WORD, 10, th, 0x28, gpu, irq)
	timers.Store(ACCESS_WORD, 1<<3|1<<4, th, 0x24, gpu, irq)

	timer := timers.Timers[2]

	th.Tick(11)
	timer.Sync(th, irq, gpu)
	if irq.Status&(1<<INTERRUPT_TIMER2) == 0 {
		t.Fatal("first target hit did not raise an interrupt")
	}

	irq.Acknowledge(^uint16(1 << INTERRUPT_TIMER2))

	th.Tick(11)
	timer.Sync(th, irq, gpu)
	if irq.Status&(1<<INTERRUPT_TIMER2) != 0 {
		t.Error("one-shot interrupt fired twice")
	}
}

// Timer 2 in stop mode must not count
func TestTimerStopped(t *testing.T) {
	timers, th, irq, gpu := newTestTimers()

	// sync enabled, mode 0: stop the counter
	timers.Store(ACCESS_WORD, 1, th, 0x24, gpu, irq)

	timer := timers.Timers[2]
	th.Tick(100)
	timer.Sync(th, irq, gpu)
	if timer.Counter != 0 {
		t.Errorf("stopped timer counted to %d", timer.Counter)
	}
}

func opMtc0(rt, rd uint32) uint32 { return 0x10<<26 | 0x04<<21 | rt<<16 | rd<<11 }

// End-to-end interrupt delivery: the firmware arms timer 2, unmasks
// its interrupt and spins. The timer IRQ raised during a peripheral
// catch-up must redirect the CPU to the exception vector on the
// following step
func TestTimerIrqReachesCpu(t *testing.T) {
	bios := &BIOS{Data: make([]byte, BIOS_SIZE)}
	program := []uint32{
		opLui(8, 0x1f80),
		opOri(8, 8, 0x1000),
		opAddiu(9, 0, 0x40), // unmask timer 2
		opSw(9, 8, 0x74),
		opAddiu(9, 0, 50), // timer 2 target
		opSw(9, 8, 0x128),
		opAddiu(9, 0, 0x50), // target IRQ, repeat
		opSw(9, 8, 0x124),
		opAddiu(9, 0, 0x401), // IEc plus the hardware interrupt mask bit
		opMtc0(9, 12),
		opBeq(0, 0, 0xffff), // spin
		0,
	}
	for i, op := range program {
		bios.Data[i*4] = byte(op)
		bios.Data[i*4+1] = byte(op >> 8)
		bios.Data[i*4+2] = byte(op >> 16)
		bios.Data[i*4+3] = byte(op >> 24)
	}

	console := NewPSX(bios)
	for i := 0; i < 500; i++ {
		console.Step()
	}

	cpu := console.Cpu
	if console.Inter.IrqState.Status&(1<<INTERRUPT_TIMER2) == 0 {
		t.Fatal("timer interrupt was never latched")
	}
	if code := Exception((cpu.Cop0.Cause >> 2) & 0x1f); code != EXCEPTION_INTERRUPT {
		t.Errorf("expected an interrupt exception, got cause 0x%x", code)
	}
	// EPC points into the spin loop (the branch or its delay slot)
	if cpu.Cop0.Epc != 0xbfc00028 && cpu.Cop0.Epc != 0xbfc0002c {
		t.Errorf("unexpected EPC 0x%x", cpu.Cop0.Epc)
	}
	if cpu.PC&0xf0000000 != 0x80000000 {
		t.Errorf("CPU did not reach the exception vector: PC 0x%x", cpu.PC)
	}
}
