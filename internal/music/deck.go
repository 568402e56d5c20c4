package music

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	CrossfadeTime = 5 * time.Second
	PauseFadeTime = 3 * time.Second
)

type openResult struct {
	seq    uint64
	sel    Selection
	hard   bool
	stream *Stream
	err    error
}

type deckVoice struct {
	s     *Stream
	power float64 // fade position, amplitude is sqrt(power)
	step  float64 // per frame change of power
}

// Deck is the music sub-mix. Request may be called from any goroutine; Mix
// belongs to the audio thread. New streams are opened on a background
// goroutine and handed to Mix over a channel, so Mix never blocks.
type Deck struct {
	fs         Opener
	sampleRate int
	loop       bool
	fadeStep   float64
	pauseStep  float64

	seq     atomic.Uint64
	pending atomic.Int32
	paused  atomic.Bool
	voices  atomic.Int32
	playing atomic.Pointer[Selection]
	ready   chan openResult
	done    chan struct{}
	wg      sync.WaitGroup

	// audio thread only
	cur       *deckVoice
	old       []*deckVoice
	pauseGain float64
	scratch   []float32
}

// NewDeck returns a deck that opens files through fs and mixes at
// sampleRate. Tracks restart at their end when loop is set.
func NewDeck(fs Opener, sampleRate int, loop bool) *Deck {
	return &Deck{
		fs:         fs,
		sampleRate: sampleRate,
		loop:       loop,
		fadeStep:   1 / (CrossfadeTime.Seconds() * float64(sampleRate)),
		pauseStep:  1 / (PauseFadeTime.Seconds() * float64(sampleRate)),
		ready:      make(chan openResult, 4),
		done:       make(chan struct{}),
		pauseGain:  1,
	}
}

// Request switches to sel. An empty File fades the music out. Only the
// latest request wins when several are in flight.
func (d *Deck) Request(sel Selection, crossfade bool) {
	seq := d.seq.Add(1)
	d.pending.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		r := openResult{seq: seq, sel: sel, hard: !crossfade}
		if sel.File != "" {
			r.stream, r.err = Open(d.fs, sel, d.sampleRate, d.loop)
		}
		select {
		case d.ready <- r:
		case <-d.done:
			if r.stream != nil {
				r.stream.Close()
			}
		}
	}()
}

// Stop fades the music out.
func (d *Deck) Stop() { d.Request(Selection{Track: -1, Subsong: -1}, true) }

// SetPause fades the music out while paused and back in afterwards.
func (d *Deck) SetPause(p bool) { d.paused.Store(p) }

// Idle reports whether no music voice is left, including fading ones.
func (d *Deck) Idle() bool { return d.voices.Load() == 0 && d.pending.Load() == 0 }

// Playing returns the selection currently fading in or playing.
func (d *Deck) Playing() (Selection, bool) {
	p := d.playing.Load()
	if p == nil {
		return Selection{}, false
	}
	return *p, true
}

func (d *Deck) take(r openResult) {
	d.pending.Add(-1)
	if r.seq != d.seq.Load() {
		if r.stream != nil {
			r.stream.Close()
		}
		return
	}
	hard := r.hard
	if r.err != nil {
		log.Printf("Warning: music %s failed to open: %v", r.sel.File, r.err)
	}
	if d.cur != nil {
		if hard {
			d.cur.s.Close()
		} else {
			d.cur.step = -d.fadeStep
			d.old = append(d.old, d.cur)
		}
		d.cur = nil
	}
	if r.stream == nil {
		d.playing.Store(nil)
		return
	}
	v := &deckVoice{s: r.stream, power: 0, step: d.fadeStep}
	if hard {
		v.power, v.step = 1, 0
	}
	d.cur = v
	sel := r.sel
	d.playing.Store(&sel)
}

// Mix adds volume scaled music to the interleaved stereo buffer out.
func (d *Deck) Mix(out []float32, volume float32) {
poll:
	for {
		select {
		case r := <-d.ready:
			d.take(r)
		default:
			break poll
		}
	}

	frames := len(out) / 2
	if cap(d.scratch) < len(out)+frames {
		d.scratch = make([]float32, len(out)+frames)
	}
	buf := d.scratch[:len(out)]
	pause := d.scratch[len(out) : len(out)+frames]

	target := 1.0
	if d.paused.Load() {
		target = 0
	}
	g := d.pauseGain
	for i := range pause {
		switch {
		case g < target:
			g = math.Min(target, g+d.pauseStep)
		case g > target:
			g = math.Max(target, g-d.pauseStep)
		}
		pause[i] = float32(g) * volume
	}
	d.pauseGain = g
	if target == 0 && g == 0 {
		// Fully paused: streams keep their position.
		return
	}

	if d.cur != nil && !d.mixVoice(d.cur, out, buf, pause) {
		d.cur.s.Close()
		d.cur = nil
		d.playing.Store(nil)
	}
	kept := d.old[:0]
	for _, v := range d.old {
		if d.mixVoice(v, out, buf, pause) {
			kept = append(kept, v)
		} else {
			v.s.Close()
		}
	}
	for i := len(kept); i < len(d.old); i++ {
		d.old[i] = nil
	}
	d.old = kept

	n := len(d.old)
	if d.cur != nil {
		n++
	}
	d.voices.Store(int32(n))
}

// mixVoice mixes one voice and reports whether it is still audible.
func (d *Deck) mixVoice(v *deckVoice, out, buf, pause []float32) bool {
	n := v.s.Read(buf)
	p := v.power
	for i := 0; i < n; i++ {
		p += v.step
		if p >= 1 {
			p, v.step = 1, 0
		}
		if p <= 0 {
			p = 0
			n = i
			break
		}
		g := float32(math.Sqrt(p)) * pause[i]
		out[2*i] += buf[2*i] * g
		out[2*i+1] += buf[2*i+1] * g
	}
	v.power = p
	if v.s.Done() {
		if err := v.s.Err(); err != nil {
			log.Printf("Warning: music stream %s failed: %v", v.s.Name(), err)
		}
		return false
	}
	return p > 0
}

// Close releases every stream. It must not run concurrently with Mix.
func (d *Deck) Close() {
	select {
	case <-d.done:
		return
	default:
	}
	close(d.done)
	d.wg.Wait()
drain:
	for {
		select {
		case r := <-d.ready:
			if r.stream != nil {
				r.stream.Close()
			}
		default:
			break drain
		}
	}
	if d.cur != nil {
		d.cur.s.Close()
		d.cur = nil
	}
	for _, v := range d.old {
		v.s.Close()
	}
	d.old = nil
	d.voices.Store(0)
}
