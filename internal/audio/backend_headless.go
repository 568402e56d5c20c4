package audio

import (
	"sync"
	"time"
)

// headlessDevice pulls from the mixer on a timer and discards the output,
// for servers and CI machines without a sound card.
type headlessDevice struct {
	done chan struct{}
	wg   sync.WaitGroup
}

func openHeadless(cfg Config, src Source) *headlessDevice {
	period := cfg.BufferSize
	if period <= 0 {
		period = 40 * time.Millisecond
	}
	frames := framesFor(period, cfg.SampleRate)
	d := &headlessDevice{done: make(chan struct{})}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		buf := make([]float32, 2*frames)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				src.Process(buf)
			case <-d.done:
				return
			}
		}
	}()
	return d
}

func (d *headlessDevice) Close() error {
	close(d.done)
	d.wg.Wait()
	return nil
}
