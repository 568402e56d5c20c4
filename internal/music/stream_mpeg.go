package music

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gen2brain/mpeg"
	"github.com/gopxl/beep/v2"
)

// mpegSource plays the audio track of an MPEG-1 program stream. Seeking
// only supports rewinding to the start, which re-creates the decoder.
type mpegSource struct {
	data []byte
	mpg  *mpeg.MPEG
	r    io.Reader
	raw  []byte
	pos  int
	err  error
}

func decodeMPEG(data []byte, _ int) (beep.StreamSeekCloser, beep.Format, error) {
	s := &mpegSource{data: data}
	if err := s.reset(); err != nil {
		return nil, beep.Format{}, err
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(s.mpg.Samplerate()),
		NumChannels: 2,
		Precision:   2,
	}
	return s, format, nil
}

func (s *mpegSource) reset() error {
	m, err := mpeg.New(bytes.NewReader(s.data))
	if err != nil {
		return fmt.Errorf("mpeg: %w", err)
	}
	if m.NumAudioStreams() == 0 {
		return errors.New("mpeg: no audio stream")
	}
	m.SetVideoEnabled(false)
	m.SetAudioFormat(mpeg.AudioS16)
	s.mpg = m
	s.r = m.Audio().Reader()
	s.pos = 0
	return nil
}

func (s *mpegSource) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	need := len(samples) * 4
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:need]
	nb, err := io.ReadFull(s.r, raw)
	n := nb / 4
	for i := 0; i < n; i++ {
		l := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		r := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		samples[i][0] = float64(l) / 32768
		samples[i][1] = float64(r) / 32768
	}
	s.pos += n
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		s.err = err
	}
	return n, n > 0
}

func (s *mpegSource) Err() error { return s.err }

// Len is unknown before the stream is fully decoded.
func (s *mpegSource) Len() int { return 0 }

func (s *mpegSource) Position() int { return s.pos }

func (s *mpegSource) Seek(p int) error {
	if p != 0 {
		return fmt.Errorf("mpeg: cannot seek to %d", p)
	}
	return s.reset()
}

func (s *mpegSource) Close() error { return nil }
