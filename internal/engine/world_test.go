package engine

import (
	"math"
	"testing"
	"time"

	"sound-engine/internal/audio"
	"sound-engine/internal/soundbank"
	"sound-engine/internal/spatial"
)

func TestOrbiterStaysOnCircle(t *testing.T) {
	o := &orbiter{centre: spatial.Vec2{X: 5, Y: 5}, radius: 10, speed: 2}
	for i := 0; i < 100; i++ {
		o.advance(50 * time.Millisecond)
		if d := o.Position().Dist(o.centre); math.Abs(d-10) > 1e-9 {
			t.Fatalf("step %d: distance from centre %v", i, d)
		}
	}
}

func TestDripRoomIsOccluded(t *testing.T) {
	x := spatial.NewIndex()
	for _, w := range levelWalls() {
		x.AddStatic(w.tr, w.poly)
	}
	if hits := x.Raycast(spatial.Vec2{}, dripPos); len(hits) != 0 {
		t.Errorf("doorway blocked: %v", hits)
	}
	if hits := x.Raycast(spatial.Vec2{X: 30, Y: -30}, dripPos); len(hits) != 1 {
		t.Errorf("room wall not hit from outside: %v", hits)
	}
}

func TestOpenAudioFallsBackToSilence(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() audio.Config
	}{
		{"unknown backend", func() audio.Config {
			cfg := audio.DefaultConfig()
			cfg.Backend = "sb16"
			return cfg
		}},
		{"bad sample rate", func() audio.Config {
			cfg := audio.DefaultConfig()
			cfg.Backend = "sb16"
			cfg.SampleRate = 0
			return cfg
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg()
			e := openAudio(cfg, soundbank.NewBank(cfg.SampleRate), nil, nil)
			if e == nil {
				t.Fatal("openAudio returned nil")
			}
			defer e.Close()
			if got := e.Config().Backend; got != audio.BackendNone {
				t.Errorf("backend = %q, want %q", got, audio.BackendNone)
			}
			if h := e.Play(0, audio.Params(SndBell), false); h.Valid() {
				t.Errorf("silent engine played %v", h)
			}
		})
	}
}
