// Package soundbank loads the catalog of sound effects and their PCM data.
package soundbank

import "fmt"

// ID is the symbolic name gameplay code uses to request a sound.
type ID string

// Default option values for catalog entries.
const (
	DefaultVolume  = 1.0
	DefaultMaxDist = 60.0
)

// Segment is one mono PCM piece of a sound.
type Segment struct {
	Samples []float32
	Loop    bool
}

// Len returns the sample count.
func (s Segment) Len() int { return len(s.Samples) }

// Options are the per-effect parameters of a catalog entry.
type Options struct {
	Volume       float64
	MaxDist      float64
	UI           bool
	RandomVolume bool
	PitchRand    [2]float64
	PitchMut     [2]float64
}

// DefaultOptions returns the values used for options a catalog entry omits.
func DefaultOptions() Options {
	return Options{
		Volume:    DefaultVolume,
		MaxDist:   DefaultMaxDist,
		PitchRand: [2]float64{1, 1},
		PitchMut:  [2]float64{1, 1},
	}
}

// Sound describes a loaded sound effect. It is immutable after loading.
type Sound struct {
	ID       ID
	Files    []string
	Segments []Segment
	Options

	// MaxDist2 caches MaxDist squared for range checks.
	MaxDist2 float64

	ok bool
}

// New builds a playable sound from raw mono segments. Loop flags follow the
// catalog rule: even, non-final segments loop.
func New(id ID, segments [][]float32, opts Options) *Sound {
	s := &Sound{ID: id, Options: opts, ok: true}
	if len(segments) == 0 {
		segments = [][]float32{nil}
	}
	for _, samples := range segments {
		s.Segments = append(s.Segments, Segment{Samples: samples})
	}
	s.finish()
	return s
}

// finish enforces the segment invariants and caches derived values.
func (s *Sound) finish() {
	last := len(s.Segments) - 1
	for i := range s.Segments {
		if len(s.Segments[i].Samples) == 0 {
			s.Segments[i].Samples = []float32{0}
		}
		s.Segments[i].Loop = i%2 == 0 && i != last
	}
	s.MaxDist2 = s.MaxDist * s.MaxDist
}

// OK reports whether the sound can be played. Sounds whose assets failed to
// load, or that the catalog never mentioned, are not playable.
func (s *Sound) OK() bool {
	return s != nil && s.ok
}

// Looped reports whether the sound has a looping segment.
func (s *Sound) Looped() bool {
	return len(s.Segments) > 1
}

// PitchFor maps a pitch selector in [0,1] onto the sound's mutation range.
// Negative selectors mean "unset" and yield 1.
func (s *Sound) PitchFor(sel float64) float64 {
	if sel < 0 {
		return 1
	}
	if sel > 1 {
		sel = 1
	}
	return s.PitchMut[0] + (s.PitchMut[1]-s.PitchMut[0])*sel
}

func (s *Sound) String() string {
	return fmt.Sprintf("%s(%d seg)", s.ID, len(s.Segments))
}
