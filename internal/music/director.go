package music

import (
	"fmt"
	"math/rand"
	"time"
)

// Mode is the intensity signal gameplay feeds the director each tick.
type Mode int

const (
	ModeOff Mode = iota // no automatic control
	ModeAmbient
	ModeLight
	ModeHeavy
	ModeEpic
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeAmbient:
		return "ambient"
	case ModeLight:
		return "light"
	case ModeHeavy:
		return "heavy"
	case ModeEpic:
		return "epic"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// level is the minimum Level the mode asks for.
func (m Mode) level() Level {
	switch m {
	case ModeLight:
		return LevelLight
	case ModeHeavy:
		return LevelHeavy
	case ModeEpic:
		return LevelEpic
	}
	return LevelAmbient
}

// Timings are the director's hysteresis constants.
type Timings struct {
	Quiet      time.Duration // heavy, epic and ambient decay after this long without cues
	Short      time.Duration // light decays after this long without a light cue
	Escalation time.Duration // light->heavy, heavy->epic after this long at the level
	RotateMin  time.Duration // no track rotation before this time on a track
	RotateMax  time.Duration // certain rotation after this time on a track
}

func DefaultTimings() Timings {
	return Timings{
		Quiet:      120 * time.Second,
		Short:      6 * time.Second,
		Escalation: 120 * time.Second,
		RotateMin:  3 * time.Minute,
		RotateMax:  8 * time.Minute,
	}
}

// Selection is a resolved piece of music.
type Selection struct {
	Track   int
	Level   Level
	File    string
	Subsong int // -1 for plain files
}

// Same reports whether two selections play the same audio.
func (s Selection) Same(o Selection) bool {
	return s.Track == o.Track && s.File == o.File && s.Subsong == o.Subsong
}

func (s Selection) String() string {
	if s.Subsong >= 0 {
		return fmt.Sprintf("%s#%d (%s)", s.File, s.Subsong, s.Level)
	}
	return fmt.Sprintf("%s (%s)", s.File, s.Level)
}

// Sink receives music switch requests.
type Sink func(sel Selection, crossfade bool)

// State is the director's observable state.
type State struct {
	Mode       Mode
	Track      int // -1 before the first selection
	Level      Level
	TrackStart time.Duration
	LevelStart time.Duration
	LastLight  time.Duration
	LastHeavy  time.Duration
	LongBattle bool
}

// Director picks the track and intensity level to play. It is driven once
// per logic tick with the current time and does no locking of its own.
type Director struct {
	catalog *Catalog
	sink    Sink
	rng     *rand.Rand
	timings Timings

	state   State
	started bool
	last    Selection
	emitted bool
}

// NewDirector returns a director over c. A nil rng uses a time seeded source.
func NewDirector(c *Catalog, sink Sink, rng *rand.Rand) *Director {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Director{
		catalog: c,
		sink:    sink,
		rng:     rng,
		timings: DefaultTimings(),
		state:   State{Track: -1},
	}
}

func (d *Director) State() State { return d.state }

// Update advances the state machine to now under mode.
func (d *Director) Update(mode Mode, now time.Duration) {
	d.state.Mode = mode
	if mode == ModeOff || d.catalog.Len() == 0 {
		return
	}
	st := &d.state
	tm := d.timings

	if !d.started {
		d.started = true
		st.Track = d.rng.Intn(d.catalog.Len())
		st.TrackStart = now
		st.LastLight, st.LastHeavy = now, now
		d.setLevel(mode.level(), now)
		if mode >= ModeHeavy {
			st.LongBattle = true
		}
		d.emit()
		return
	}

	switch mode {
	case ModeLight:
		st.LastLight = now
	case ModeHeavy, ModeEpic:
		st.LastHeavy = now
		st.LongBattle = true
	}

	req := mode.level()
	level := st.Level
	switch {
	case mode != ModeAmbient && req > level:
		level = req
	case mode == ModeLight && level == LevelLight && now-st.LevelStart >= tm.Escalation:
		level = LevelHeavy
		st.LastHeavy = now
		st.LongBattle = true
	case mode == ModeHeavy && level == LevelHeavy && now-st.LevelStart >= tm.Escalation:
		level = LevelEpic
	case level >= LevelHeavy && level > req && now-st.LastHeavy >= tm.Quiet:
		level = d.calm(req)
		st.LongBattle = false
	case level == LevelLight && level > req && now-st.LastLight >= tm.Short:
		level = d.calm(req)
	case level == LevelAmbient && mode == ModeAmbient &&
		now-st.LevelStart >= tm.Quiet && now-max(st.LastLight, st.LastHeavy) >= tm.Quiet:
		level = LevelPeace
	}
	if level != st.Level {
		d.setLevel(level, now)
		if level <= LevelAmbient {
			d.maybeRotate(now)
		}
	}
	d.emit()
}

// calm is the level to fall back to once the action is over.
func (d *Director) calm(req Level) Level {
	if req > LevelAmbient {
		return req
	}
	if d.state.LongBattle {
		return LevelPeace
	}
	return LevelAmbient
}

func (d *Director) setLevel(l Level, now time.Duration) {
	d.state.Level = l
	d.state.LevelStart = now
}

// maybeRotate switches to another track with a probability that grows with
// the time spent on the current one.
func (d *Director) maybeRotate(now time.Duration) {
	n := d.catalog.Len()
	if n < 2 {
		return
	}
	tm := d.timings
	p := float64(now-d.state.TrackStart-tm.RotateMin) / float64(tm.RotateMax-tm.RotateMin)
	if p <= 0 || d.rng.Float64() >= p {
		return
	}
	next := d.rng.Intn(n - 1)
	if next >= d.state.Track {
		next++
	}
	d.state.Track = next
	d.state.TrackStart = now
}

func (d *Director) emit() {
	t := &d.catalog.Tracks[d.state.Track]
	sel := Selection{
		Track:   d.state.Track,
		Level:   d.state.Level,
		File:    t.File(d.state.Level),
		Subsong: t.Subsong(d.state.Level),
	}
	if d.emitted && sel.Same(d.last) {
		d.last.Level = sel.Level
		return
	}
	d.last = sel
	d.emitted = true
	if d.sink != nil {
		d.sink(sel, true)
	}
}
