package audio

import "time"

const (
	limiterHold     = 2 * time.Second
	limiterRecovery = 5 * time.Second
)

// limiter keeps the mix inside [-1, 1]. When a buffer would clip, the gain
// drops at once to the level that just avoids clipping, holds there and
// then climbs back to unity linearly.
type limiter struct {
	gain       atomicFloat // read by Stats
	hold       int
	holdFrames int
	recovery   float64 // gain regained per frame
}

func newLimiter(rate int) *limiter {
	l := &limiter{
		holdFrames: framesFor(limiterHold, rate),
		recovery:   1 / float64(framesFor(limiterRecovery, rate)),
	}
	l.gain.Store(1)
	return l
}

func (l *limiter) process(out []float32) {
	peak := float32(0)
	for _, s := range out {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}

	g := l.gain.Load()
	if float64(peak)*g > 1 {
		g = 1 / float64(peak)
		l.hold = l.holdFrames
	}
	if g < 1 {
		gf := float32(g)
		for i := range out {
			out[i] *= gf
		}
	}

	frames := len(out) / 2
	switch {
	case l.hold > 0:
		l.hold -= frames
	case g < 1:
		g = min(1, g+l.recovery*float64(frames))
	}
	l.gain.Store(g)
}
