package audio

import (
	"log"
	"math"
	"sync/atomic"
)

// atomicFloat is a float64 readable from the audio thread without locking.
type atomicFloat struct{ bits atomic.Uint64 }

func (f *atomicFloat) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

type volumes struct {
	master atomicFloat
	sfx    atomicFloat
	music  atomicFloat
	muted  atomic.Bool
}

func (v *volumes) set(cfg Config) {
	v.master.Store(clampVolume(cfg.MasterVolume))
	v.sfx.Store(clampVolume(cfg.SFXVolume))
	v.music.Store(clampVolume(cfg.MusicVolume))
}

// gains returns the effect and music output gains.
func (v *volumes) gains() (sfx, music float64) {
	if v.muted.Load() {
		return 0, 0
	}
	m := v.master.Load()
	return m * v.sfx.Load(), m * v.music.Load()
}

func clampVolume(volume float64) float64 {
	if volume < 0.0 {
		return 0.0
	} else if volume > 1.0 {
		return 1.0
	}
	return volume
}

// SetMasterVolume sets the overall volume (0.0 to 1.0)
func (e *Engine) SetMasterVolume(volume float64) {
	volume = clampVolume(volume)
	e.vol.master.Store(volume)
	log.Printf("Master volume set to: %.2f", volume)
}

// SetSFXVolume sets the sound effects volume (0.0 to 1.0)
func (e *Engine) SetSFXVolume(volume float64) {
	volume = clampVolume(volume)
	e.vol.sfx.Store(volume)
	log.Printf("SFX volume set to: %.2f", volume)
}

// SetMusicVolume sets the music volume (0.0 to 1.0)
func (e *Engine) SetMusicVolume(volume float64) {
	volume = clampVolume(volume)
	e.vol.music.Store(volume)
	log.Printf("Music volume set to: %.2f", volume)
}

// SetMuted silences all output without touching the volume settings
func (e *Engine) SetMuted(muted bool) {
	e.vol.muted.Store(muted)
	if muted {
		log.Println("Audio muted")
	} else {
		log.Println("Audio unmuted")
	}
}

// IsMuted returns the current mute state
func (e *Engine) IsMuted() bool {
	return e.vol.muted.Load()
}
