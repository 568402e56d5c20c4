package audio

import (
	"math"
	"math/rand"
	"testing"

	"sound-engine/internal/soundbank"
)

func TestParamFrameLerp(t *testing.T) {
	a := paramFrame{GainL: 0.1, GainR: 0.7, Wet: 0.3, Pitch: 0.9}
	b := paramFrame{GainL: 0.4, GainR: 0.2, Wet: 1, Pitch: 1.3, Reverb: ReverbParams{Band: 3, Intensity: 0.5}}

	if got := a.lerp(b, 0); got != a {
		t.Errorf("lerp(0) = %+v, want %+v", got, a)
	}
	if got := a.lerp(b, 1); got != b {
		t.Errorf("lerp(1) = %+v, want %+v", got, b)
	}

	prev := a
	for k := 1; k <= 100; k++ {
		f := a.lerp(b, float64(k)/100)
		if math.Abs(f.GainL-prev.GainL) > 0.0031 || math.Abs(f.Pitch-prev.Pitch) > 0.0041 {
			t.Fatalf("jump at step %d: %+v -> %+v", k, prev, f)
		}
		prev = f
	}
}

func TestReverbTable(t *testing.T) {
	tab := NewReverbTable(48000)
	for b := 0; b < ReverbBands; b++ {
		taps := tab.Taps(b)
		for l := 1; l < ReverbLines; l++ {
			if taps[l].Gain >= taps[l-1].Gain {
				t.Errorf("band %d: gain of line %d (%v) not below line %d (%v)", b, l, taps[l].Gain, l-1, taps[l-1].Gain)
			}
			if taps[l].Delay <= taps[l-1].Delay {
				t.Errorf("band %d: delay of line %d not increasing", b, l)
			}
		}
	}

	tests := []struct {
		dist float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{MaxReverbDist / 2, ReverbBands / 2},
		{MaxReverbDist, ReverbBands - 1},
		{1e9, ReverbBands - 1},
	}
	for _, tt := range tests {
		if got := tab.Band(tt.dist); got != tt.want {
			t.Errorf("Band(%v) = %d, want %d", tt.dist, got, tt.want)
		}
	}
}

func TestStereoGains(t *testing.T) {
	tests := []struct {
		name   string
		pan    float64
		wantL  float64
		wantR  float64
		louder string
	}{
		{"centre", 0, 1, 1, ""},
		{"right", 0.5, 0.5, 1, "R"},
		{"left", -0.5, 1, 0.5, "L"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := stereoGains(1, tt.pan)
			if l != tt.wantL || r != tt.wantR {
				t.Errorf("stereoGains(1, %v) = (%v, %v), want (%v, %v)", tt.pan, l, r, tt.wantL, tt.wantR)
			}
		})
	}

	if p := pan(vec(100, 0), 100); p != MaxPan {
		t.Errorf("pan of distant source on the right = %v, want %v", p, MaxPan)
	}
	if p := pan(vec(1, 0), 1); p >= MaxPan {
		t.Errorf("pan of close source = %v, want less than %v", p, MaxPan)
	}
}

func TestAttenuation(t *testing.T) {
	prev := attenuation(0)
	if prev != 1 {
		t.Fatalf("attenuation(0) = %v", prev)
	}
	for k := 1; k <= 10; k++ {
		a := attenuation(float64(k) / 10)
		if a > prev {
			t.Errorf("attenuation rises at %v", float64(k)/10)
		}
		prev = a
	}
	if prev != 0 {
		t.Errorf("attenuation(1) = %v", prev)
	}
}

func TestDoppler(t *testing.T) {
	tests := []struct {
		name string
		sv   float64 // source velocity along x, listener at the origin
		cmp  func(float64) bool
	}{
		{"approaching", -34.3, func(f float64) bool { return f > 1 }},
		{"receding", 34.3, func(f float64) bool { return f < 1 }},
		{"still", 0, func(f float64) bool { return f == 1 }},
		{"clamped", -300, func(f float64) bool { return f == maxDoppler }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := doppler(vec(0, 0), vec(0, 0), vec(10, 0), vec(tt.sv, 0))
			if !tt.cmp(f) {
				t.Errorf("doppler = %v", f)
			}
		})
	}
}

func TestLimiterRecovers(t *testing.T) {
	l := newLimiter(testRate)
	loud := make([]float32, 200)
	for i := range loud {
		loud[i] = 3
	}
	l.process(loud)
	for i, s := range loud {
		if s > 1 {
			t.Fatalf("sample %d = %v after limiting", i, s)
		}
	}
	g := l.gain.Load()
	if math.Abs(g-1.0/3) > 1e-9 {
		t.Fatalf("gain = %v, want 1/3", g)
	}

	quiet := make([]float32, 200) // 100 frames
	for i := 0; i < 19; i++ {
		l.process(quiet)
	}
	if got := l.gain.Load(); got != g {
		t.Errorf("gain moved during hold: %v", got)
	}
	for i := 0; i < 100; i++ {
		l.process(quiet)
	}
	if got := l.gain.Load(); got != 1 {
		t.Errorf("gain after recovery = %v, want 1", got)
	}
}

func TestNextSegmentLoopsOnLoopSegments(t *testing.T) {
	snd := soundbank.New("SND_SEG", [][]float32{make([]float32, 10), make([]float32, 10), make([]float32, 10), make([]float32, 10), make([]float32, 10)}, soundbank.DefaultOptions())
	m := &Mixer{rng: rand.New(rand.NewSource(1))}

	v := &voice{seg: 0, pos: 10, looping: true}
	for i := 0; i < 50; i++ {
		m.nextSegment(v, snd.Segments)
		if v.seg%2 != 0 || v.seg == len(snd.Segments)-1 {
			t.Fatalf("looping voice moved to segment %d", v.seg)
		}
		v.pos = 10
	}

	v.looping = false
	var path []int
	for !v.done {
		m.nextSegment(v, snd.Segments)
		if !v.done {
			path = append(path, v.seg)
			v.pos = 10
		}
	}
	if path[len(path)-1] != len(snd.Segments)-1 {
		t.Errorf("released voice path %v does not reach the last segment", path)
	}
}
