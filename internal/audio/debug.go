package audio

import (
	"fmt"
	"time"
)

// Stats are performance counters for the debug menu.
type Stats struct {
	Active       int
	Used         int
	Free         int
	Emitters     int
	Walls        int
	Callbacks    uint64
	LimiterGain  float64
	LastMix      time.Duration
	MusicPlaying string
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	s := Stats{
		Active:   e.activeCount,
		Used:     e.table.used,
		Free:     e.table.capacity() - e.table.used,
		Emitters: e.index.Emitters(),
		Walls:    e.index.Walls(),
	}
	e.mu.Unlock()

	s.Callbacks = e.mixer.callbacks.Load()
	s.LimiterGain = e.mixer.lim.gain.Load()
	s.LastMix = time.Duration(e.mixer.lastMix.Load())
	if sel, ok := e.deck.Playing(); ok {
		s.MusicPlaying = sel.String()
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("channels %d active, %d used, %d free | walls %d | limiter %.2f | mix %v",
		s.Active, s.Used, s.Free, s.Walls, s.LimiterGain, s.LastMix)
}

// DebugLines describes every live channel: sound, state and segment.
func (e *Engine) DebugLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var lines []string
	for i := range e.table.slots {
		c := &e.table.slots[i]
		if c.state == stateFree {
			continue
		}
		line := fmt.Sprintf("%-16s %-8s seg %d/%d", c.sound.ID, c.state, c.dbgSeg+1, len(c.sound.Segments))
		if c.hasPos {
			line += fmt.Sprintf(" d=%.1f", c.pos.Dist(e.listener))
		}
		lines = append(lines, line)
	}
	return lines
}
