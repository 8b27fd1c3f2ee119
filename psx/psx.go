package psx

// The whole console: CPU, bus and the shared cycle counter. The CPU
// drives the emulation, peripherals catch up with it at forced
// synchronization points
type PSX struct {
	Cpu   *CPU
	Inter *Interconnect
	Th    *TimeHandler
}

// Creates a console around the given firmware image
func NewPSX(bios *BIOS) *PSX {
	th := NewTimeHandler()
	inter := NewInterconnect(bios, th)

	return &PSX{
		Cpu:   NewCPU(inter),
		Inter: inter,
		Th:    th,
	}
}

// Runs one CPU instruction and brings the peripherals up to date.
// Interrupts raised here are observed by the CPU on the next step:
// the DMA controller runs first since it can feed the GPU and raise
// its completion IRQ, then the timers, then the GPU which owns the
// blanking signals the timers synchronize with
func (psx *PSX) Step() {
	cycles := psx.Cpu.Step()
	psx.Th.Tick(cycles)

	inter := psx.Inter

	inter.Dma.Sync(inter.Ram, inter.Gpu, inter.CdRom, inter.Spu, inter.IrqState)
	inter.Timers.Sync(psx.Th, inter.IrqState)
	if psx.Th.NeedsSync(PERIPHERAL_GPU) {
		inter.Gpu.Sync(psx.Th, inter.IrqState)
	}
}

// Runs the console until the GPU finishes the current frame
func (psx *PSX) RunFrame() {
	frame := psx.Inter.Gpu.FrameCount
	for psx.Inter.Gpu.FrameCount == frame {
		psx.Step()
	}
}

// Runs the console for at least `cycles` CPU cycles
func (psx *PSX) RunCycles(cycles uint64) {
	end := psx.Th.Cycles + cycles
	for psx.Th.Cycles < end {
		psx.Step()
	}
}
