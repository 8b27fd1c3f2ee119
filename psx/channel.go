package psx

// DMA transfer direction (To/From RAM)
type Direction uint32

const (
	DIRECTION_TO_RAM   Direction = 0
	DIRECTION_FROM_RAM Direction = 1
)

// DMA address step
type Step uint32

const (
	STEP_INCREMENT Step = 0
	STEP_DECREMENT Step = 1
)

// DMA transfer synchronization mode
type Sync uint32

const (
	// Transfer starts when the CPU writes the Trigger bit and moves
	// the whole block at once
	SYNC_MANUAL Sync = 0
	// Transfer is sliced into blocks gated by the peripheral's DMA
	// request line
	SYNC_REQUEST Sync = 1
	// Used to transfer GPU command lists: each node's header holds the
	// payload size and the address of the next node
	SYNC_LINKED_LIST Sync = 2
)

// One DMA channel. A channel that is paused mid-transfer keeps its
// progress in CurAddr/Remaining, so disabling and re-enabling it
// resumes with correct bookkeeping instead of restarting
type Channel struct {
	Enable    bool
	Direction Direction
	Step      Step
	Sync      Sync
	Trigger   bool   // Starts the transfer when Sync is SYNC_MANUAL
	Chop      bool   // Slice the transfer and let the CPU run in the gaps
	ChopDmaSz uint8  // Chopping DMA window size (log2 number of words)
	ChopCpuSz uint8  // Chopping CPU window size (log2 number of cycles)
	Dummy     uint8  // Unknown 2 RW bits of the configuration register
	Base      uint32 // DMA start address

	BlockSize  uint16 // Size of a block in words
	BlockCount uint16 // Block count, only used when Sync is SYNC_REQUEST

	// In-flight transfer state
	Running   bool   // A transfer is in progress
	Paused    bool   // Disabled mid-transfer, progress kept for a resume
	CurAddr   uint32 // Next RAM address touched by the transfer
	Remaining uint32 // Words left in the current transfer
}

// Create a new channel instance
func NewChannel() *Channel {
	return &Channel{
		Direction: DIRECTION_TO_RAM,
		Step:      STEP_INCREMENT,
		Sync:      SYNC_MANUAL,
	}
}

// Value of the channel control register
func (ch *Channel) Control() uint32 {
	var r uint32
	r |= uint32(ch.Direction) << 0
	r |= uint32(ch.Step) << 1
	r |= oneIfTrue(ch.Chop) << 8
	r |= uint32(ch.Sync) << 9
	r |= uint32(ch.ChopDmaSz) << 16
	r |= uint32(ch.ChopCpuSz) << 20
	r |= oneIfTrue(ch.Enable) << 24
	r |= oneIfTrue(ch.Trigger) << 28
	r |= uint32(ch.Dummy) << 29

	return r
}

func (ch *Channel) SetControl(val uint32) {
	if val&1 != 0 {
		ch.Direction = DIRECTION_FROM_RAM
	} else {
		ch.Direction = DIRECTION_TO_RAM
	}

	if (val>>1)&1 != 0 {
		ch.Step = STEP_DECREMENT
	} else {
		ch.Step = STEP_INCREMENT
	}

	ch.Chop = (val>>8)&1 != 0

	switch (val >> 9) & 3 {
	case 0:
		ch.Sync = SYNC_MANUAL
	case 1:
		ch.Sync = SYNC_REQUEST
	case 2:
		ch.Sync = SYNC_LINKED_LIST
	default:
		panicFmt("channel: unknown DMA sync mode %d", (val>>9)&3)
	}

	ch.ChopDmaSz = uint8((val >> 16) & 7)
	ch.ChopCpuSz = uint8((val >> 20) & 7)

	ch.Enable = (val>>24)&1 != 0
	ch.Trigger = (val>>28)&1 != 0
	ch.Dummy = uint8((val >> 29) & 3)

	if !ch.Enable {
		// disabling mid-transfer stops the channel cleanly, the
		// progress stays in CurAddr/Remaining for a resume
		if ch.Running {
			ch.Paused = true
		}
		ch.Running = false
	}
}

// Set the channel base address. Only bits [0:23] are significant, so
// only 16MB are addressable by the DMA
func (ch *Channel) SetBase(val uint32) {
	ch.Base = val & 0xffffff
}

// Value of the block control register
func (ch *Channel) BlockControl() uint32 {
	bs := uint32(ch.BlockSize)
	bc := uint32(ch.BlockCount)
	return (bc << 16) | bs
}

func (ch *Channel) SetBlockControl(val uint32) {
	ch.BlockSize = uint16(val)
	ch.BlockCount = uint16(val >> 16)
}

// Return true if the channel wants to transfer
func (ch *Channel) Active() bool {
	// in manual sync mode the CPU must set the Trigger bit to start
	// the transfer
	trigger := true
	if ch.Sync == SYNC_MANUAL {
		trigger = ch.Trigger
	}

	return ch.Enable && trigger
}

// Number of words in the configured transfer. `valid` is false in
// linked list mode where the length isn't known ahead of time
func (ch *Channel) TransferSize() (valid bool, size uint32) {
	bs := uint32(ch.BlockSize)
	bc := uint32(ch.BlockCount)

	// a block size of 0 means 0x10000 words
	if bs == 0 {
		bs = 0x10000
	}

	switch ch.Sync {
	case SYNC_MANUAL:
		return true, bs
	case SYNC_REQUEST:
		return true, bc * bs
	case SYNC_LINKED_LIST:
		return false, 0
	}
	return false, 0
}

// Words moved per scheduling quantum. Chopped and request-synchronized
// transfers release the bus between slices so the CPU keeps running
func (ch *Channel) SliceSize() uint32 {
	if ch.Chop {
		return 1 << ch.ChopDmaSz
	}
	if ch.Sync == SYNC_REQUEST {
		bs := uint32(ch.BlockSize)
		if bs == 0 {
			bs = 0x10000
		}
		return bs
	}
	// burst: everything at once
	return ch.Remaining
}

// Arms the in-flight state from the channel configuration
func (ch *Channel) Start() {
	ch.Running = true
	if ch.Paused {
		// pick the interrupted transfer back up
		ch.Paused = false
		return
	}
	ch.CurAddr = ch.Base & ^uint32(3)
	if ok, size := ch.TransferSize(); ok {
		ch.Remaining = size
	} else {
		// linked list: the chain terminator ends the transfer
		ch.Remaining = 0
	}
}

// Set the channel to the completed state
func (ch *Channel) Done() {
	ch.Enable = false
	ch.Trigger = false
	ch.Running = false
	ch.Paused = false
}
