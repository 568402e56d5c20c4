package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
)

// Backend names accepted in Config.Backend.
const (
	BackendEbiten   = "ebiten"
	BackendOto      = "oto"
	BackendOto2     = "oto2"
	BackendHeadless = "headless"
	BackendNone     = "none"
)

// ErrUnknownBackend is returned for an unrecognised Config.Backend.
var ErrUnknownBackend = errors.New("unknown audio backend")

// Device is an open audio output pulling samples from the mixer.
type Device interface {
	Close() error
}

// Source produces interleaved stereo float samples. *Mixer implements it.
type Source interface {
	Process(out []float32)
}

// openDevice opens the backend named in cfg. BackendNone returns a nil
// Device: nothing pulls from the mixer and the caller renders by hand.
func openDevice(cfg Config, src Source) (Device, error) {
	if cfg.Device != "" {
		log.Printf("Audio device %q requested, %s backend uses the system default output", cfg.Device, cfg.Backend)
	}
	switch cfg.Backend {
	case BackendEbiten, "":
		return openEbiten(cfg, src)
	case BackendOto:
		return openOto(cfg, src)
	case BackendOto2:
		return openOto2(cfg, src)
	case BackendHeadless:
		return openHeadless(cfg, src), nil
	case BackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// sampleFormat is the byte layout a device expects.
type sampleFormat int

const (
	formatS16 sampleFormat = iota
	formatF32
)

func (f sampleFormat) bytesPerFrame() int {
	if f == formatS16 {
		return 4
	}
	return 8
}

// pcmReader adapts a Source to the io.Reader the device libraries pull
// from, converting to the device sample format with a hard clamp.
type pcmReader struct {
	src    Source
	format sampleFormat
	buf    []float32
}

func newPCMReader(src Source, format sampleFormat) *pcmReader {
	return &pcmReader{src: src, format: format}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / r.format.bytesPerFrame()
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < 2*frames {
		r.buf = make([]float32, 2*frames)
	}
	buf := r.buf[:2*frames]
	r.src.Process(buf)

	switch r.format {
	case formatS16:
		for i, s := range buf {
			binary.LittleEndian.PutUint16(p[2*i:], uint16(toInt16(s)))
		}
	case formatF32:
		for i, s := range buf {
			binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(clampSample(s)))
		}
	}
	return frames * r.format.bytesPerFrame(), nil
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

func toInt16(s float32) int16 {
	return int16(clampSample(s) * 32767)
}
