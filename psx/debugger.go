package psx

import "fmt"

// Code breakpoints and memory watchpoints. The CPU calls the hooks on
// every instruction fetch and memory access, a nil debugger disables
// them entirely
type Debugger struct {
	Breakpoints      []uint32 // All breakpoint addresses
	ReadWatchpoints  []uint32 // All read watchpoints
	WriteWatchpoints []uint32 // All write watchpoints
	Triggered        bool     // Set when a breakpoint or watchpoint is hit
}

func NewDebugger() *Debugger {
	return &Debugger{}
}

// Adds a breakpoint when the instruction at `addr` is about to be executed
func (debugger *Debugger) AddBreakpoint(addr uint32) {
	for _, breakpoint := range debugger.Breakpoints {
		if breakpoint == addr {
			return
		}
	}
	debugger.Breakpoints = append(debugger.Breakpoints, addr)
}

// Deletes a breakpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteBreakpoint(addr uint32) {
	for idx, breakpoint := range debugger.Breakpoints {
		if breakpoint == addr {
			debugger.Breakpoints = append(debugger.Breakpoints[:idx], debugger.Breakpoints[idx+1:]...)
			return
		}
	}
}

// Adds a memory read watchpoint for `addr`
func (debugger *Debugger) AddReadWatchpoint(addr uint32) {
	for _, watchpoint := range debugger.ReadWatchpoints {
		if watchpoint == addr {
			return
		}
	}
	debugger.ReadWatchpoints = append(debugger.ReadWatchpoints, addr)
}

// Adds a memory write watchpoint for `addr`
func (debugger *Debugger) AddWriteWatchpoint(addr uint32) {
	for _, watchpoint := range debugger.WriteWatchpoints {
		if watchpoint == addr {
			return
		}
	}
	debugger.WriteWatchpoints = append(debugger.WriteWatchpoints, addr)
}

// Deletes a memory read watchpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteReadWatchpoint(addr uint32) {
	for idx, watchpoint := range debugger.ReadWatchpoints {
		if watchpoint == addr {
			debugger.ReadWatchpoints = append(
				debugger.ReadWatchpoints[:idx],
				debugger.ReadWatchpoints[idx+1:]...,
			)
			return
		}
	}
}

// Deletes a memory write watchpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteWriteWatchpoint(addr uint32) {
	for idx, watchpoint := range debugger.WriteWatchpoints {
		if watchpoint == addr {
			debugger.WriteWatchpoints = append(
				debugger.WriteWatchpoints[:idx],
				debugger.WriteWatchpoints[idx+1:]...,
			)
			return
		}
	}
}

// Called by the CPU before executing the instruction at `pc`
func (debugger *Debugger) PcChanged(pc uint32) {
	for _, breakpoint := range debugger.Breakpoints {
		if breakpoint == pc {
			fmt.Printf("debugger: reached breakpoint 0x%x\n", pc)
			debugger.Triggered = true
			return
		}
	}
}

// Called by the CPU when it's about to read a value from memory
func (debugger *Debugger) MemoryRead(addr uint32) {
	for _, watchpoint := range debugger.ReadWatchpoints {
		if watchpoint == addr {
			fmt.Printf("debugger: triggered read watchpoint 0x%x\n", addr)
			debugger.Triggered = true
			return
		}
	}
}

// Called by the CPU when it's about to write a value to memory
func (debugger *Debugger) MemoryWrite(addr uint32) {
	for _, watchpoint := range debugger.WriteWatchpoints {
		if watchpoint == addr {
			fmt.Printf("debugger: triggered write watchpoint 0x%x\n", addr)
			debugger.Triggered = true
			return
		}
	}
}
