package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

type fixedSource struct {
	samples []float32
	calls   atomic.Int32
}

func (s *fixedSource) Process(out []float32) {
	s.calls.Add(1)
	for i := range out {
		out[i] = s.samples[i%len(s.samples)]
	}
}

func TestPCMReader(t *testing.T) {
	src := &fixedSource{samples: []float32{2, -2, 0.5, 0}}

	t.Run("s16", func(t *testing.T) {
		buf := make([]byte, 9)
		n, err := newPCMReader(src, formatS16).Read(buf)
		if err != nil || n != 8 {
			t.Fatalf("Read = %d, %v", n, err)
		}
		want := []int16{32767, -32767, 16383, 0}
		for i, w := range want {
			if got := int16(binary.LittleEndian.Uint16(buf[2*i:])); got != w {
				t.Errorf("sample %d = %d, want %d", i, got, w)
			}
		}
	})

	t.Run("f32", func(t *testing.T) {
		buf := make([]byte, 16)
		n, err := newPCMReader(src, formatF32).Read(buf)
		if err != nil || n != 16 {
			t.Fatalf("Read = %d, %v", n, err)
		}
		want := []float32{1, -1, 0.5, 0}
		for i, w := range want {
			if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])); got != w {
				t.Errorf("sample %d = %v, want %v", i, got, w)
			}
		}
	})

	t.Run("short buffer", func(t *testing.T) {
		n, err := newPCMReader(src, formatF32).Read(make([]byte, 7))
		if n != 0 || err != nil {
			t.Errorf("Read = %d, %v", n, err)
		}
	})
}

func TestHeadlessPullsSamples(t *testing.T) {
	src := &fixedSource{samples: []float32{0}}
	cfg := DefaultConfig()
	cfg.Backend = BackendHeadless
	cfg.BufferSize = 5 * time.Millisecond

	dev, err := openDevice(cfg, src)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	if src.calls.Load() < 3 {
		t.Errorf("headless device made %d callbacks", src.calls.Load())
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "alsa-direct"
	if _, err := openDevice(cfg, &fixedSource{samples: []float32{0}}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("openDevice = %v, want ErrUnknownBackend", err)
	}
}

func TestHandleEncoding(t *testing.T) {
	h := makeHandle(7, 3)
	if h.index() != 7 || h.gen() != 3 || !h.Valid() {
		t.Errorf("handle %v decodes to index %d gen %d", h, h.index(), h.gen())
	}
	if makeHandle(0, 1) == 0 {
		t.Error("slot 0 encodes to the zero handle")
	}
}
