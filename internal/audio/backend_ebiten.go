package audio

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

type ebitenDevice struct {
	player *audio.Player
}

// openEbiten plays through the ebiten audio context. There is one context
// per process, so a second device must use the same sample rate.
func openEbiten(cfg Config, src Source) (Device, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(cfg.SampleRate)
	} else if ctx.SampleRate() != cfg.SampleRate {
		return nil, fmt.Errorf("ebiten audio context already running at %d Hz", ctx.SampleRate())
	}

	player, err := ctx.NewPlayer(newPCMReader(src, formatS16))
	if err != nil {
		return nil, fmt.Errorf("failed to create ebiten player: %w", err)
	}
	if cfg.BufferSize > 0 {
		player.SetBufferSize(cfg.BufferSize)
	}
	player.Play()
	return &ebitenDevice{player: player}, nil
}

func (d *ebitenDevice) Close() error {
	return d.player.Close()
}
