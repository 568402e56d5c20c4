package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process; it is created on first use and
// kept for later devices.
var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int
)

type otoDevice struct {
	player *oto.Player
}

func openOto(cfg Config, src Source) (Device, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.BufferSize,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("oto: %w", err)
		}
		<-ready
		otoCtx, otoRate = ctx, cfg.SampleRate
	} else if otoRate != cfg.SampleRate {
		return nil, fmt.Errorf("oto context already running at %d Hz", otoRate)
	}

	player := otoCtx.NewPlayer(newPCMReader(src, formatF32))
	player.Play()
	return &otoDevice{player: player}, nil
}

func (d *otoDevice) Close() error {
	return d.player.Close()
}
