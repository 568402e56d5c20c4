package audio

import (
	"math"
	"time"
)

const (
	ReverbBands   = 32
	ReverbLines   = 4
	MaxReverbDist = 40.0

	// ReverbDecay is the time for a reflection to fall by 60 dB.
	ReverbDecay = 1200 * time.Millisecond

	// reflectionLoss is the amplitude kept at each wall bounce.
	reflectionLoss = 0.7
)

// ReverbTap is one delay line of the reverb: an echo of the dry signal
// Delay samples late, scaled by Gain.
type ReverbTap struct {
	Delay int
	Gain  float64
}

// ReverbTable holds the taps for every distance band. It is built once
// and read-only afterwards.
type ReverbTable struct {
	rows [ReverbBands][ReverbLines]ReverbTap
}

// NewReverbTable computes the taps at sampleRate. Band b models walls at
// (b+1)/ReverbBands of MaxReverbDist; line l is the reflection of order l+1.
func NewReverbTable(sampleRate int) *ReverbTable {
	t := &ReverbTable{}
	decay := ReverbDecay.Seconds()
	for b := 0; b < ReverbBands; b++ {
		dist := MaxReverbDist * float64(b+1) / ReverbBands
		for l := 0; l < ReverbLines; l++ {
			order := float64(l + 1)
			secs := 2 * dist * order / SpeedOfSound
			t.rows[b][l] = ReverbTap{
				Delay: int(math.Round(secs * float64(sampleRate))),
				Gain:  math.Pow(10, -3*secs/decay) * math.Pow(reflectionLoss, order),
			}
		}
	}
	return t
}

// Band maps the mean distance to the surrounding walls to a band index.
func (t *ReverbTable) Band(dist float64) int {
	b := int(dist / MaxReverbDist * ReverbBands)
	if b < 0 {
		return 0
	}
	if b >= ReverbBands {
		return ReverbBands - 1
	}
	return b
}

// Taps returns the delay lines of band b.
func (t *ReverbTable) Taps(b int) [ReverbLines]ReverbTap {
	return t.rows[b]
}

// ReverbParams select reverb for a channel. The zero value means no reverb.
type ReverbParams struct {
	Band      int
	Intensity float64
}

func (r ReverbParams) Enabled() bool { return r.Intensity > 0 }
