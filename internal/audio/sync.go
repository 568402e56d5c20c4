package audio

import (
	"log"
	"time"

	"sound-engine/internal/music"
	"sound-engine/internal/spatial"
)

// Sync is called once per logic tick with the listener position and the
// time since the previous tick. It moves channels that follow entities,
// computes their Doppler factors and advances the music director.
func (e *Engine) Sync(listener spatial.Vec2, dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	secs := dt.Seconds()
	if secs > 0 {
		e.listenerVel = listener.Sub(e.listener).Scale(1 / secs)
	} else {
		e.listenerVel = spatial.Vec2{}
	}
	e.listener = listener

	for i := range e.table.slots {
		c := &e.table.slots[i]
		if c.state == stateFree || !c.hasPos {
			continue
		}
		if c.entity != nil {
			if p := c.entity.Position(); p != c.pos {
				c.pos = p
				c.moved = true
				e.index.MoveEmitter(c.proxy, p)
			}
		}
		sv := spatial.Vec2{}
		if secs > 0 {
			sv = c.pos.Sub(c.prevPos).Scale(1 / secs)
		}
		c.doppler = doppler(listener, e.listenerVel, c.pos, sv)
		c.prevPos = c.pos
	}

	e.clock += dt
	e.director.Update(e.mode, e.clock)
}

// SetMusicMode sets the intensity signal the music director follows from
// the next Sync on.
func (e *Engine) SetMusicMode(mode music.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode != e.mode {
		log.Printf("Music mode: %s", mode)
	}
	e.mode = mode
}

// SetPause freezes every non-UI sound and fades the music out, or resumes
// them.
func (e *Engine) SetPause(paused bool) {
	e.mu.Lock()
	changed := e.paused != paused
	e.paused = paused
	e.mu.Unlock()
	e.deck.SetPause(paused)
	if changed {
		log.Printf("Sound paused: %v", paused)
	}
}

// GeomStaticAdd registers wall geometry for occlusion and reverb.
func (e *Engine) GeomStaticAdd(tr spatial.Transform, poly spatial.Polyline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index.AddStatic(tr, poly)
	e.invalidateReverbLocked()
}

// GeomStaticClear removes all wall geometry, typically before a level load.
func (e *Engine) GeomStaticClear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index.ClearStatic()
	e.invalidateReverbLocked()
}

// invalidateReverbLocked makes static channels recompute their reverb.
func (e *Engine) invalidateReverbLocked() {
	for i := range e.table.slots {
		if c := &e.table.slots[i]; c.state != stateFree {
			c.moved = true
		}
	}
}
