package music

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const resampleQuality = 4

// Opener resolves asset names. *filesystem.Manager satisfies it.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// DecodeFunc decodes an in-memory music file. subsong is -1 for plain
// files and the sub-song index for tracker modules.
type DecodeFunc func(data []byte, subsong int) (beep.StreamSeekCloser, beep.Format, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]DecodeFunc{
		".wav":  decodeWAV,
		".ogg":  decodeVorbis,
		".mp3":  decodeMP3,
		".flac": decodeFLAC,
		".mpg":  decodeMPEG,
		".mpeg": decodeMPEG,
	}
)

// RegisterDecoder installs fn for files with extension ext (".xm", ".it").
// Tracker module formats have no built-in decoder.
func RegisterDecoder(ext string, fn DecodeFunc) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[strings.ToLower(ext)] = fn
}

func decoderFor(name string) (DecodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(name))
	decodersMu.RLock()
	fn, ok := decoders[ext]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no music decoder registered for %q", ext)
	}
	return fn, nil
}

// memFile lets decoders that want an io.ReadCloser seek in memory.
type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

func decodeWAV(data []byte, _ int) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(bytes.NewReader(data))
}

func decodeVorbis(data []byte, _ int) (beep.StreamSeekCloser, beep.Format, error) {
	return vorbis.Decode(memFile{bytes.NewReader(data)})
}

func decodeMP3(data []byte, _ int) (beep.StreamSeekCloser, beep.Format, error) {
	return mp3.Decode(memFile{bytes.NewReader(data)})
}

func decodeFLAC(data []byte, _ int) (beep.StreamSeekCloser, beep.Format, error) {
	return flac.Decode(bytes.NewReader(data))
}

// Stream is an opened piece of music producing stereo frames at the device
// rate. Read never blocks on I/O: the whole file is held in memory.
type Stream struct {
	name string
	src  beep.StreamSeekCloser
	out  beep.Streamer
	loop *looper
	buf  [][2]float64
	err  error
	done bool
}

// Open reads sel's file through fs and prepares a stream at sampleRate.
// With loop set the stream restarts when it reaches its end.
func Open(fs Opener, sel Selection, sampleRate int, loop bool) (*Stream, error) {
	decode, err := decoderFor(sel.File)
	if err != nil {
		return nil, err
	}
	rc, err := fs.Open(sel.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open music %s: %w", sel.File, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read music %s: %w", sel.File, err)
	}
	src, format, err := decode(data, sel.Subsong)
	if err != nil {
		return nil, fmt.Errorf("failed to decode music %s: %w", sel.File, err)
	}
	return newStream(sel.String(), src, format, sampleRate, loop), nil
}

func newStream(name string, src beep.StreamSeekCloser, format beep.Format, sampleRate int, loop bool) *Stream {
	s := &Stream{name: name, src: src, buf: make([][2]float64, 512)}
	var st beep.Streamer = src
	if loop {
		s.loop = &looper{s: src}
		st = s.loop
	}
	if int(format.SampleRate) != sampleRate && format.SampleRate > 0 {
		st = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(sampleRate), st)
	}
	s.out = st
	return s
}

func (s *Stream) Name() string { return s.name }

// Read fills dst with interleaved stereo samples and returns the number of
// frames written. Fewer frames than requested means the stream ended or
// failed; Err tells which.
func (s *Stream) Read(dst []float32) int {
	want := len(dst) / 2
	got := 0
	for got < want && !s.done {
		chunk := min(want-got, len(s.buf))
		n, ok := s.out.Stream(s.buf[:chunk])
		for i := 0; i < n; i++ {
			dst[2*(got+i)] = float32(s.buf[i][0])
			dst[2*(got+i)+1] = float32(s.buf[i][1])
		}
		got += n
		if !ok || n < chunk {
			s.done = true
			s.err = s.src.Err()
			if s.err == nil && s.loop != nil {
				s.err = s.loop.err
			}
		}
	}
	return got
}

// Done reports whether the stream has no more audio.
func (s *Stream) Done() bool { return s.done }

func (s *Stream) Err() error { return s.err }

func (s *Stream) Close() error { return s.src.Close() }

// looper rewinds its source whenever it runs dry.
type looper struct {
	s   beep.StreamSeeker
	err error
}

func (l *looper) Stream(samples [][2]float64) (n int, ok bool) {
	if l.err != nil {
		return 0, false
	}
	rewound := false
	for len(samples) > 0 {
		sn, sok := l.s.Stream(samples)
		n += sn
		samples = samples[sn:]
		if sn > 0 {
			rewound = false
			if sok {
				continue
			}
		}
		if err := l.s.Err(); err != nil {
			l.err = err
			return n, n > 0
		}
		if rewound {
			// Empty source.
			return n, n > 0
		}
		if err := l.s.Seek(0); err != nil {
			l.err = err
			return n, n > 0
		}
		rewound = true
	}
	return n, true
}

func (l *looper) Err() error { return l.err }
