package audio

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"sound-engine/internal/music"
	"sound-engine/internal/soundbank"
	"sound-engine/internal/spatial"
)

// ErrDeviceClosed is returned by operations on a closed engine.
var ErrDeviceClosed = errors.New("sound engine closed")

// Engine is the sound system: it accepts play requests and listener updates
// from the game thread and owns the mixer that the audio device pulls from.
// All exported methods are safe to call while the device is running.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	bank     *soundbank.Bank
	table    *channelTable
	index    *spatial.Index
	director *music.Director
	deck     *music.Deck
	mixer    *Mixer
	vol      volumes
	rng      *rand.Rand

	listener    spatial.Vec2
	listenerVel spatial.Vec2
	clock       time.Duration
	mode        music.Mode
	paused      bool
	reverb      bool
	tableFull   bool

	// mirrored by the mixer at update boundaries
	activeCount int

	devMu  sync.Mutex
	dev    Device
	closed atomic.Bool
}

// New builds an engine around bank and opens the configured audio device.
// catalog may be nil when the game has no music; fs is used to open music
// files. bank must have been loaded at cfg.SampleRate.
func New(cfg Config, bank *soundbank.Bank, catalog *music.Catalog, fs music.Opener) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	if bank == nil {
		bank = soundbank.NewBank(cfg.SampleRate)
	}
	if bank.SampleRate() != cfg.SampleRate {
		return nil, fmt.Errorf("sound bank loaded at %d Hz, device runs at %d Hz", bank.SampleRate(), cfg.SampleRate)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}
	if catalog == nil {
		catalog = &music.Catalog{}
	}

	e := &Engine{
		cfg:    cfg,
		bank:   bank,
		table:  newChannelTable(cfg.Channels),
		index:  spatial.NewIndex(),
		deck:   music.NewDeck(fs, cfg.SampleRate, true),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		reverb: cfg.Reverb,
	}
	e.vol.set(cfg)
	e.director = music.NewDirector(catalog, e.onMusic, nil)
	e.mixer = newMixer(e)

	dev, err := openDevice(cfg, e.mixer)
	if err != nil {
		e.deck.Close()
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	e.dev = dev

	log.Printf("Sound engine initialized: backend=%s rate=%d buffer=%v channels=%d",
		cfg.Backend, cfg.SampleRate, cfg.BufferSize, cfg.Channels)
	return e, nil
}

// Render mixes the next len(out)/2 stereo frames into out. It is how the
// "none" backend is driven; with a running device it must not be called.
func (e *Engine) Render(out []float32) {
	e.mixer.Process(out)
}

// Config returns the configuration currently in effect.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// ApplySettings applies a changed configuration. Volumes and reverb take
// effect immediately; a different backend, device or buffer size reopens
// the audio device. The sample rate is fixed for the engine's lifetime.
func (e *Engine) ApplySettings(cfg Config) error {
	e.vol.set(cfg)
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}

	e.mu.Lock()
	old := e.cfg
	if cfg.SampleRate != old.SampleRate {
		log.Printf("Warning: sample rate change to %d ignored until restart", cfg.SampleRate)
		cfg.SampleRate = old.SampleRate
	}
	if cfg.Channels != old.Channels {
		log.Printf("Warning: channel count change to %d ignored until restart", cfg.Channels)
		cfg.Channels = old.Channels
	}
	e.reverb = cfg.Reverb
	e.cfg = cfg
	e.mu.Unlock()

	if cfg.Backend == old.Backend && cfg.Device == old.Device && cfg.BufferSize == old.BufferSize {
		return nil
	}

	e.devMu.Lock()
	defer e.devMu.Unlock()
	if e.closed.Load() {
		return ErrDeviceClosed
	}
	log.Printf("Reinitializing audio device: backend=%s device=%q", cfg.Backend, cfg.Device)
	if e.dev != nil {
		if err := e.dev.Close(); err != nil {
			log.Printf("Warning: closing audio device: %v", err)
		}
		e.dev = nil
	}
	dev, err := openDevice(cfg, e.mixer)
	if err != nil {
		return fmt.Errorf("failed to reopen audio device: %w", err)
	}
	e.dev = dev
	return nil
}

// Close fades out every sound and the music, waits up to ShutdownWait for
// the fades to finish and releases the device.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.devMu.Lock()
	defer e.devMu.Unlock()

	e.mu.Lock()
	e.paused = false
	for i := range e.table.slots {
		c := &e.table.slots[i]
		if c.state != stateFree {
			e.stopLocked(int32(i))
		}
	}
	e.mu.Unlock()
	e.deck.SetPause(false)
	e.deck.Stop()

	var err error
	if e.dev != nil {
		if !e.waitSilent(ShutdownWait) {
			log.Printf("Error: sound engine shutdown timed out after %v, %d channels still playing", ShutdownWait, e.usedChannels())
		}
		err = e.dev.Close()
		e.dev = nil
	}
	e.deck.Close()
	log.Println("Sound engine closed")
	return err
}

func (e *Engine) waitSilent(limit time.Duration) bool {
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		if e.usedChannels() == 0 && e.deck.Idle() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (e *Engine) usedChannels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.used
}
