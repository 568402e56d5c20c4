package audio

import (
	"log"

	"sound-engine/internal/music"
)

// onMusic receives the director's choices. It runs under the engine lock
// and only queues the switch.
func (e *Engine) onMusic(sel music.Selection, crossfade bool) {
	log.Printf("Playing music: %s", sel)
	e.deck.Request(sel, crossfade)
}

// PlayMusic plays file directly, bypassing the director. It is meant for
// music.ModeOff, where the director leaves the music alone.
func (e *Engine) PlayMusic(file string, subsong int, crossfade bool) {
	log.Printf("Playing music: %s", file)
	e.deck.Request(music.Selection{Track: -1, File: file, Subsong: subsong}, crossfade)
}

// StopMusic fades the music out.
func (e *Engine) StopMusic() {
	log.Println("Music stopped")
	e.deck.Stop()
}

// MusicState returns the director state.
func (e *Engine) MusicState() music.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.director.State()
}

// NowPlaying returns the music selection currently audible.
func (e *Engine) NowPlaying() (music.Selection, bool) {
	return e.deck.Playing()
}
