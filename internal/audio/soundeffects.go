package audio

import (
	"log"

	"sound-engine/internal/spatial"
)

// Play starts or updates a sound. When h still refers to a channel playing
// the same sound, that channel is updated and h is returned; a channel that
// was silenced resumes in the same slot. Otherwise the channel of h is
// stopped and a new one allocated.
//
// Continuous sounds are owned by the returned handle: they loop until
// stopped and are only silenced, never freed, when out of range. One-shot
// sounds out of earshot are dropped and yield the zero Handle, as do
// unknown or unplayable sounds.
func (e *Engine) Play(h Handle, p PlayParams, continuous bool) Handle {
	snd := e.bank.Get(p.ID)
	if e.closed.Load() {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !snd.OK() {
		if i, _, ok := e.table.lookup(h); ok {
			e.stopLocked(i)
		}
		return 0
	}

	pos, hasPos := p.position()

	if i, c, ok := e.table.lookup(h); ok {
		if c.sound == snd {
			e.updateLocked(i, c, p, pos, hasPos, continuous)
			return h
		}
		e.stopLocked(i)
	}

	if !continuous && hasPos && !snd.UI && pos.Dist2(e.listener) > snd.MaxDist2 {
		return 0
	}

	i, ok := e.table.alloc()
	if !ok {
		if !e.tableFull {
			log.Printf("Warning: all %d sound channels busy, dropping %s", e.table.capacity(), p.ID)
			e.tableFull = true
		}
		return 0
	}
	e.tableFull = false

	c := &e.table.slots[i]
	c.state = stateNew
	c.sound = snd
	c.persistent = continuous
	c.doppler = 1
	c.hasPos = hasPos
	c.pos, c.prevPos = pos, pos
	c.entity = p.Entity
	c.static = p.Entity == nil
	c.inRange = true
	c.pitchSel = p.PitchSel
	c.volume = p.Volume
	c.loopPeriod = e.loopFrames(p)
	if hasPos {
		c.proxy = e.index.AddEmitter(pos, i)
	}
	return e.table.handle(i)
}

func (p PlayParams) position() (spatial.Vec2, bool) {
	if p.Entity != nil {
		return p.Entity.Position(), true
	}
	if p.Pos != nil {
		return *p.Pos, true
	}
	return spatial.Vec2{}, false
}

func (e *Engine) loopFrames(p PlayParams) int {
	if p.LoopPeriod <= 0 {
		return 0
	}
	return framesFor(p.LoopPeriod, e.cfg.SampleRate)
}

// updateLocked refreshes the request fields of a channel replayed through
// its handle.
func (e *Engine) updateLocked(i int32, c *channel, p PlayParams, pos spatial.Vec2, hasPos, continuous bool) {
	c.persistent = continuous
	c.stopReq = false
	if p.PitchSel >= 0 {
		c.pitchSel = p.PitchSel
	}
	c.volume = p.Volume
	c.loopPeriod = e.loopFrames(p)
	c.entity = p.Entity
	c.static = p.Entity == nil

	switch {
	case hasPos && c.proxy >= 0:
		if pos != c.pos {
			c.moved = true
			e.index.MoveEmitter(c.proxy, pos)
		}
	case hasPos:
		c.proxy = e.index.AddEmitter(pos, i)
		c.moved = true
	case c.proxy >= 0:
		e.index.RemoveEmitter(c.proxy)
		c.proxy = -1
	}
	c.hasPos = hasPos
	c.pos = pos

	if c.state == stateSilent {
		c.state = stateNew
	}
}

// Stop ends the channel of h with a short fade. It returns immediately.
func (e *Engine) Stop(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, _, ok := e.table.lookup(h); ok {
		e.stopLocked(i)
	}
}

// stopLocked releases handle ownership of slot i. Slots the mixer is not
// playing are freed at once; the others fade out first.
func (e *Engine) stopLocked(i int32) {
	c := &e.table.slots[i]
	c.persistent = false
	c.entity = nil
	switch c.state {
	case stateNew, stateSilent:
		e.freeLocked(i)
	case stateActive, stateStopping:
		c.stopReq = true
	}
}

func (e *Engine) freeLocked(i int32) {
	c := &e.table.slots[i]
	if c.proxy >= 0 {
		e.index.RemoveEmitter(c.proxy)
	}
	e.table.release(i)
}

// Playing reports whether the channel of h is currently being mixed.
func (e *Engine) Playing(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, c, ok := e.table.lookup(h)
	return ok && (c.state == stateActive || c.state == stateStopping)
}
