package audio

import (
	"time"

	"sound-engine/internal/settings"
	"sound-engine/internal/soundbank"
	"sound-engine/internal/spatial"
)

// Mixer timing and shaping constants
const (
	DefaultChannels = 256

	UpdatePeriod    = 20 * time.Millisecond
	RangeCheckSteps = 10
	FadeInTime      = 25 * time.Millisecond
	StopFadeTime    = 100 * time.Millisecond
	ShutdownWait    = 3 * time.Second

	// ChanVolMax is the gain of a single channel at full volume, leaving
	// headroom for several loud sounds at once.
	ChanVolMax = 0.5

	MaxPan      = 0.6
	FullPanDist = 10.0

	// Wetness added by the vertical offset and by each wall crossed.
	VerticalWet = 0.3
	WallWet     = 0.5

	ReverbWetThreshold = 0.99
	OpennessRays       = 16

	// SpeedOfSound is in world units per second.
	SpeedOfSound = 343.0

	minDoppler = 0.5
	maxDoppler = 2.0
)

// Emitter is anything a sound can follow, typically a game entity.
type Emitter interface {
	Position() spatial.Vec2
}

// PlayParams describe a play request.
type PlayParams struct {
	ID     soundbank.ID
	Pos    *spatial.Vec2 // nil for non-positional sounds
	Entity Emitter       // overrides Pos and is followed on Sync

	// PitchSel in [0,1] picks a pitch within the sound's spdmut range.
	// Negative leaves the pitch unchanged.
	PitchSel float64

	// LoopPeriod is the silence inserted between repetitions of a
	// continuous sound.
	LoopPeriod time.Duration

	Volume float64
}

// Params returns play parameters for id at full volume with no position.
func Params(id soundbank.ID) PlayParams {
	return PlayParams{ID: id, PitchSel: -1, Volume: 1}
}

// At returns a copy of p placed at pos.
func (p PlayParams) At(pos spatial.Vec2) PlayParams {
	p.Pos = &pos
	return p
}

// Following returns a copy of p attached to e.
func (p PlayParams) Following(e Emitter) PlayParams {
	p.Entity = e
	return p
}

// Config is the device and mixing configuration of the engine.
type Config struct {
	Backend    string
	Device     string
	SampleRate int
	BufferSize time.Duration
	Reverb     bool
	Channels   int

	MasterVolume float64
	SFXVolume    float64
	MusicVolume  float64
}

// DefaultConfig mirrors settings.DefaultConfig.
func DefaultConfig() Config {
	return ConfigFromSettings(*settings.DefaultConfig())
}

// ConfigFromSettings extracts the audio part of the engine settings.
func ConfigFromSettings(s settings.Config) Config {
	return Config{
		Backend:      s.AudioBackend,
		Device:       s.AudioDevice,
		SampleRate:   s.SampleRate,
		BufferSize:   time.Duration(s.BufferSizeMS) * time.Millisecond,
		Reverb:       s.Reverb,
		Channels:     DefaultChannels,
		MasterVolume: s.MasterVolume,
		SFXVolume:    s.SFXVolume,
		MusicVolume:  s.MusicVolume,
	}
}

func framesFor(d time.Duration, rate int) int {
	n := int(d.Seconds()*float64(rate) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
