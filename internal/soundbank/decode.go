package soundbank

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// decodeMono decodes an encoded asset, resampled to sampleRate, into mono
// float samples. The decoders always produce 16-bit little endian stereo.
func decodeMono(name string, data []byte, sampleRate int) ([]float32, error) {
	var (
		stream io.Reader
		err    error
	)
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".ogg" && !bytes.HasPrefix(data, oggPageStart[:4]) {
		if data, err = repairOggHeader(data); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", name, err)
		}
	}
	src := bytes.NewReader(data)
	switch ext {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(sampleRate, src)
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(sampleRate, src)
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(sampleRate, src)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", name, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("reading decoded %q: %w", name, err)
	}
	return stereoI16ToMono(pcm), nil
}

func stereoI16ToMono(pcm []byte) []float32 {
	frames := len(pcm) / 4
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		off := i * 4
		left := int16(binary.LittleEndian.Uint16(pcm[off : off+2]))
		right := int16(binary.LittleEndian.Uint16(pcm[off+2 : off+4]))
		samples[i] = (float32(left) + float32(right)) * (0.5 / 32768.0)
	}
	return samples
}
