package audio

import (
	"log"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"sound-engine/internal/soundbank"
)

// Mixer is the body of the audio callback. Process is called by the device
// from its own goroutine; everything in Mixer belongs to that goroutine
// except the counters read by Stats.
type Mixer struct {
	eng         *Engine
	rate        int
	stepFrames  int
	invStep     float64
	fadeInStep  float64
	stopStep    float64
	cullRadius  float64
	reverbTable *ReverbTable
	rng         *rand.Rand
	lim         *limiter

	stepPos int
	steps   uint64
	epoch   uint32
	paused  bool
	active  []int32
	nearby  []int32
	hits    []float64

	panicked bool

	callbacks atomic.Uint64
	lastMix   atomic.Int64
}

func newMixer(e *Engine) *Mixer {
	rate := e.cfg.SampleRate
	step := framesFor(UpdatePeriod, rate)
	m := &Mixer{
		eng:         e,
		rate:        rate,
		stepFrames:  step,
		invStep:     1 / float64(step),
		fadeInStep:  1 / float64(framesFor(FadeInTime, rate)),
		stopStep:    1 / float64(framesFor(StopFadeTime, rate)),
		reverbTable: NewReverbTable(rate),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano() + 1)),
		lim:         newLimiter(rate),
		active:      make([]int32, 0, e.table.capacity()),
	}
	for _, id := range e.bank.IDs() {
		if s := e.bank.Get(id); s.MaxDist > m.cullRadius {
			m.cullRadius = s.MaxDist
		}
	}
	return m
}

// Process fills out with interleaved stereo samples. It never blocks on
// I/O and never panics; on an internal failure it outputs silence.
func (m *Mixer) Process(out []float32) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			if !m.panicked {
				log.Printf("Error: sound mixer failed, outputting silence: %v", r)
				m.panicked = true
			}
		}
	}()

	clear(out)
	sfx, mus := m.eng.vol.gains()

	frames := len(out) / 2
	for done := 0; done < frames; {
		if m.stepPos == 0 {
			m.update()
		}
		n := min(frames-done, m.stepFrames-m.stepPos)
		chunk := out[2*done : 2*(done+n)]
		for _, i := range m.active {
			c := &m.eng.table.slots[i]
			if m.paused && !c.sound.UI {
				continue
			}
			m.mixVoice(c, chunk, sfx)
		}
		m.stepPos += n
		if m.stepPos == m.stepFrames {
			m.stepPos = 0
		}
		done += n
	}

	m.eng.deck.Mix(out, float32(mus))
	m.lim.process(out)

	m.callbacks.Add(1)
	m.lastMix.Store(int64(time.Since(start)))
}

// update runs at every update step boundary: it picks up new channels,
// settles stopped ones and recomputes the parameters of the rest.
func (m *Mixer) update() {
	e := m.eng
	e.mu.Lock()
	defer e.mu.Unlock()

	m.steps++
	m.paused = e.paused
	rangeCheck := m.steps%RangeCheckSteps == 0
	if rangeCheck {
		m.checkRange()
	}

	kept := m.active[:0]
	for _, i := range m.active {
		if m.settle(i) {
			kept = append(kept, i)
		}
	}
	m.active = kept

	slots := e.table.slots
	for i := range slots {
		c := &slots[i]
		switch {
		case c.state == stateNew:
		case c.state == stateSilent && rangeCheck && c.persistent && c.inRange:
		default:
			continue
		}
		if m.paused && !c.sound.UI {
			continue
		}
		m.pickup(int32(i))
	}
	e.activeCount = len(m.active)
}

// checkRange marks which channels are within their audible distance of the
// listener, using the emitter index to find candidates.
func (m *Mixer) checkRange() {
	e := m.eng
	m.epoch++
	m.nearby = e.index.QueryNearby(e.listener, m.cullRadius, m.nearby[:0])
	for _, i := range m.nearby {
		e.table.slots[i].seen = m.epoch
	}
	for i := range e.table.slots {
		c := &e.table.slots[i]
		if c.state == stateFree {
			continue
		}
		c.inRange = m.audible(c) && (!c.hasPos || c.sound.UI || c.seen == m.epoch)
	}
}

func (m *Mixer) audible(c *channel) bool {
	if !c.hasPos || c.sound.UI {
		return true
	}
	return c.pos.Dist2(m.eng.listener) <= c.sound.MaxDist2
}

// pickup starts mixing a NEW channel. Its parameters snap to their targets
// and it fades in briefly.
func (m *Mixer) pickup(i int32) {
	e := m.eng
	c := &e.table.slots[i]
	if !m.audible(c) {
		if c.persistent {
			c.state = stateSilent
		} else {
			e.freeLocked(i)
		}
		return
	}

	snd := c.sound
	c.v = voice{
		randPitch: m.randRange(snd.PitchRand),
		randVol:   1,
		fadeStep:  m.fadeInStep,
	}
	if snd.RandomVolume {
		c.v.randVol = 0.75 + 0.25*m.rng.Float64()
	}
	c.moved = false
	c.v.gapFrames = c.loopPeriod
	c.v.looping = c.persistent
	m.computeParams(c, &c.v.next)
	c.v.cur = c.v.next
	c.dbgSeg = 0
	c.state = stateActive
	m.active = append(m.active, i)
}

func (m *Mixer) randRange(r [2]float64) float64 {
	if r[0] == r[1] {
		return r[0]
	}
	return r[0] + (r[1]-r[0])*m.rng.Float64()
}

// settle advances the state machine of an active channel at an update
// boundary. It reports whether the channel keeps mixing.
func (m *Mixer) settle(i int32) bool {
	e := m.eng
	c := &e.table.slots[i]
	v := &c.v
	c.dbgSeg = v.seg

	if m.paused && !c.sound.UI {
		return true
	}

	faded := c.state == stateStopping && v.fade <= 0
	if v.done || faded {
		if c.persistent && !c.stopReq {
			c.state = stateSilent
		} else {
			e.freeLocked(i)
		}
		return false
	}

	if c.stopReq || !m.audible(c) {
		if c.state == stateActive {
			c.state = stateStopping
		}
		v.fadeStep = -m.stopStep
	} else if c.state == stateStopping {
		c.state = stateActive
		v.fadeStep = m.fadeInStep
	}
	v.looping = c.persistent && !c.stopReq && c.state == stateActive
	v.gapFrames = c.loopPeriod

	if c.moved {
		v.reverbInit = false
		c.moved = false
	}
	v.cur = v.next
	m.computeParams(c, &v.next)
	return true
}

// mixVoice adds the next len(out)/2 frames of c to out.
func (m *Mixer) mixVoice(c *channel, out []float32, sfx float64) {
	v := &c.v
	segs := c.sound.Segments
	frames := len(out) / 2
	reverbOn := v.cur.Reverb.Enabled() || v.next.Reverb.Enabled()

	for k := 0; k < frames; k++ {
		if v.done {
			return
		}
		t := float64(m.stepPos+k) * m.invStep
		f := v.cur.lerp(v.next, t)

		v.fade += v.fadeStep
		if v.fade >= 1 {
			v.fade, v.fadeStep = 1, 0
		} else if v.fade <= 0 {
			v.fade = 0
		}

		s := 0.0
		if v.gap > 0 {
			v.gap--
		} else {
			seg := segs[v.seg].Samples
			s = sampleAt(seg, v.pos)
			if reverbOn {
				s += m.taps(seg, v.pos, v.cur.Reverb)*(1-t) + m.taps(seg, v.pos, v.next.Reverb)*t
			}
			v.pos += f.Pitch
			if v.pos >= float64(len(seg)) {
				m.nextSegment(v, segs)
			}
		}

		g := v.fade * sfx
		l := s * f.GainL * g
		r := s * f.GainR * g
		v.lpL = (v.lpL + l) * 0.5
		v.lpR = (v.lpR + r) * 0.5
		out[2*k] += float32(l + (v.lpL-l)*f.Wet)
		out[2*k+1] += float32(r + (v.lpR-r)*f.Wet)
	}
}

// sampleAt reads seg at a fractional position with linear interpolation.
func sampleAt(seg []float32, pos float64) float64 {
	i := int(pos)
	if i >= len(seg) {
		return 0
	}
	s0 := float64(seg[i])
	s1 := 0.0
	if i+1 < len(seg) {
		s1 = float64(seg[i+1])
	}
	return s0 + (s1-s0)*(pos-float64(i))
}

func (m *Mixer) taps(seg []float32, pos float64, rp ReverbParams) float64 {
	if !rp.Enabled() {
		return 0
	}
	at := int(pos)
	sum := 0.0
	for _, tap := range m.reverbTable.Taps(rp.Band) {
		if j := at - tap.Delay; j >= 0 && j < len(seg) {
			sum += float64(seg[j]) * tap.Gain
		}
	}
	return sum * rp.Intensity
}

// nextSegment moves the cursor past the end of the current segment. Loop
// segments of a looping channel repeat, choosing among the loop segments
// at random; otherwise playback advances, and ends after the last segment.
func (m *Mixer) nextSegment(v *voice, segs []soundbank.Segment) {
	over := v.pos - float64(len(segs[v.seg].Samples))
	switch {
	case segs[v.seg].Loop && v.looping:
		v.seg = 2 * m.rng.Intn(len(segs)/2)
		v.gap = v.gapFrames
	case v.seg < len(segs)-1:
		v.seg++
	case v.looping:
		v.seg = 0
		v.gap = v.gapFrames
	default:
		v.done = true
		return
	}
	v.pos = math.Mod(over, float64(len(segs[v.seg].Samples)))
}
