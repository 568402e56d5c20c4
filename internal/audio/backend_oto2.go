package audio

import (
	"fmt"
	"sync"

	oto2 "github.com/hajimehoshi/oto/v2"
)

var (
	oto2Mu   sync.Mutex
	oto2Ctx  *oto2.Context
	oto2Rate int
)

type oto2Device struct {
	player oto2.Player
}

// openOto2 plays through the legacy oto v2 driver, for systems where the v3
// driver misbehaves.
func openOto2(cfg Config, src Source) (Device, error) {
	oto2Mu.Lock()
	defer oto2Mu.Unlock()

	if oto2Ctx == nil {
		ctx, ready, err := oto2.NewContext(cfg.SampleRate, 2, oto2.FormatFloat32LE)
		if err != nil {
			return nil, fmt.Errorf("oto v2: %w", err)
		}
		<-ready
		oto2Ctx, oto2Rate = ctx, cfg.SampleRate
	} else if oto2Rate != cfg.SampleRate {
		return nil, fmt.Errorf("oto v2 context already running at %d Hz", oto2Rate)
	}

	player := oto2Ctx.NewPlayer(newPCMReader(src, formatF32))
	if bs, ok := player.(interface{ SetBufferSize(int) }); ok && cfg.BufferSize > 0 {
		bs.SetBufferSize(framesFor(cfg.BufferSize, cfg.SampleRate) * formatF32.bytesPerFrame())
	}
	player.Play()
	return &oto2Device{player: player}, nil
}

func (d *oto2Device) Close() error {
	return d.player.Close()
}
