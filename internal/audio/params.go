package audio

import (
	"math"

	"sound-engine/internal/spatial"
)

// paramFrame is the set of per-channel parameters recomputed every update
// step. The mixer interpolates linearly from the current frame to the next
// one over the step.
type paramFrame struct {
	GainL, GainR float64
	Wet          float64
	Pitch        float64
	Reverb       ReverbParams
}

// lerp returns the frame at fraction t between f and next. It is exact at
// both ends. Reverb does not interpolate; the mixer crossfades the two tap
// sets instead.
func (f paramFrame) lerp(next paramFrame, t float64) paramFrame {
	switch t {
	case 0:
		return f
	case 1:
		return next
	}
	return paramFrame{
		GainL:  f.GainL + (next.GainL-f.GainL)*t,
		GainR:  f.GainR + (next.GainR-f.GainR)*t,
		Wet:    f.Wet + (next.Wet-f.Wet)*t,
		Pitch:  f.Pitch + (next.Pitch-f.Pitch)*t,
		Reverb: f.Reverb,
	}
}

// attenuation is the distance gain for normalised distance kdist in [0,1].
func attenuation(kdist float64) float64 {
	a := 1 - kdist
	return a * a
}

// pan returns the stereo position of a source at offset d from the
// listener, in [-MaxPan, MaxPan]. Sources close to the listener are
// pulled toward the centre.
func pan(d spatial.Vec2, dist float64) float64 {
	if dist <= 0 {
		return 0
	}
	return d.X / dist * MaxPan * math.Min(1, dist/FullPanDist)
}

// stereoGains splits gain g by pan p. Only the far side is attenuated, so a
// centred source gets g on both sides.
func stereoGains(g, p float64) (l, r float64) {
	return g * math.Min(1, 1-p), g * math.Min(1, 1+p)
}

// computeParams fills f for channel c. It runs on the audio thread with the
// engine lock held.
func (m *Mixer) computeParams(c *channel, f *paramFrame) {
	e := m.eng
	v := &c.v
	snd := c.sound

	gain := ChanVolMax * snd.Volume * c.volume * v.randVol
	*f = paramFrame{Pitch: snd.PitchFor(c.pitchSel) * v.randPitch * c.doppler}

	if !c.hasPos || snd.UI {
		f.GainL, f.GainR = gain, gain
		return
	}

	d := c.pos.Sub(e.listener)
	dist := d.Len()
	kdist := math.Min(math.Max(dist/snd.MaxDist, 0), 1)
	f.GainL, f.GainR = stereoGains(gain*attenuation(kdist), pan(d, dist))

	wet := 0.0
	if dist > 0 {
		wet = VerticalWet * math.Abs(d.Y) / dist
	}
	m.hits = e.index.RaycastAppend(e.listener, c.pos, m.hits[:0])
	wet += WallWet * float64(len(m.hits))
	f.Wet = math.Min(wet, 1)

	if !e.reverb || f.Wet < ReverbWetThreshold {
		return
	}
	if c.static && v.reverbInit {
		f.Reverb = v.reverb
		return
	}
	open, meanHit := e.index.Openness(c.pos, OpennessRays, MaxReverbDist)
	v.reverb = ReverbParams{Band: m.reverbTable.Band(meanHit), Intensity: 1 - open}
	v.reverbInit = true
	f.Reverb = v.reverb
}

// doppler returns the pitch factor for a source at src moving with
// velocity sv, heard by a listener at lis moving with velocity lv.
func doppler(lis, lv, src, sv spatial.Vec2) float64 {
	d := src.Sub(lis)
	dist := d.Len()
	if dist < 1e-6 {
		return 1
	}
	u := d.Scale(1 / dist)
	f := (SpeedOfSound + lv.Dot(u)) / (SpeedOfSound + sv.Dot(u))
	return math.Min(math.Max(f, minDoppler), maxDoppler)
}
