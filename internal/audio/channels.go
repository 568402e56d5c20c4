package audio

import (
	"fmt"

	"sound-engine/internal/soundbank"
	"sound-engine/internal/spatial"
)

// Handle refers to a channel slot. Handles of freed slots go stale: the slot
// generation is part of the handle. The zero Handle refers to nothing.
type Handle uint64

func makeHandle(index int32, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() int32 { return int32(uint32(h)) - 1 }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

// Valid reports whether h was returned by a successful Play. The channel may
// have ended since.
func (h Handle) Valid() bool { return h != 0 }

func (h Handle) String() string {
	if h == 0 {
		return "Handle(none)"
	}
	return fmt.Sprintf("Handle(%d@%d)", h.index(), h.gen())
}

type chanState uint8

const (
	stateFree     chanState = iota
	stateNew                // requested, not yet picked up by the mixer
	stateActive             // mixing
	stateStopping           // mixing while fading out
	stateSilent             // handle owned, culled or faded, slot kept
)

var stateNames = [...]string{"free", "new", "active", "stopping", "silent"}

func (s chanState) String() string { return stateNames[s] }

// voice is the playback state of a channel. Only the audio thread touches
// it; parameter frames are written at update boundaries with the engine
// lock held.
type voice struct {
	seg       int
	pos       float64
	gap       int
	gapFrames int
	done      bool
	looping   bool

	randPitch float64
	randVol   float64

	cur, next paramFrame

	fade     float64
	fadeStep float64

	lpL, lpR float64

	reverb     ReverbParams
	reverbInit bool
}

// channel is one slot of the table. The fields above v belong to the logic
// side and are guarded by the engine lock.
type channel struct {
	state chanState
	gen   uint32
	next  int32

	sound      *soundbank.Sound
	persistent bool
	stopReq    bool

	hasPos  bool
	pos     spatial.Vec2
	prevPos spatial.Vec2
	entity  Emitter
	static  bool
	moved   bool
	proxy   int32

	pitchSel   float64
	volume     float64
	loopPeriod int
	doppler    float64

	inRange bool
	seen    uint32

	// mirrored from v at update boundaries for debug output
	dbgSeg int

	v voice
}

// channelTable is a fixed arena of channel slots with a free list.
type channelTable struct {
	slots []channel
	free  int32
	used  int
}

func newChannelTable(n int) *channelTable {
	t := &channelTable{slots: make([]channel, n), free: -1}
	for i := n - 1; i >= 0; i-- {
		t.slots[i].gen = 1
		t.slots[i].next = t.free
		t.slots[i].proxy = -1
		t.free = int32(i)
	}
	return t
}

func (t *channelTable) alloc() (int32, bool) {
	if t.free < 0 {
		return -1, false
	}
	i := t.free
	c := &t.slots[i]
	t.free = c.next
	c.next = -1
	t.used++
	return i, true
}

// release returns slot i to the free list and invalidates its handles.
func (t *channelTable) release(i int32) {
	c := &t.slots[i]
	gen := c.gen + 1
	if gen == 0 {
		gen = 1
	}
	*c = channel{gen: gen, next: t.free, proxy: -1}
	t.free = i
	t.used--
}

// lookup returns the live channel h refers to.
func (t *channelTable) lookup(h Handle) (int32, *channel, bool) {
	if h == 0 {
		return -1, nil, false
	}
	i := h.index()
	if i < 0 || int(i) >= len(t.slots) {
		return -1, nil, false
	}
	c := &t.slots[i]
	if c.state == stateFree || c.gen != h.gen() {
		return -1, nil, false
	}
	return i, c, true
}

func (t *channelTable) handle(i int32) Handle { return makeHandle(i, t.slots[i].gen) }

func (t *channelTable) capacity() int { return len(t.slots) }
