package soundbank

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Opener resolves asset names to readable files. *filesystem.Manager
// satisfies it.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// Bank owns every sound descriptor for the engine's lifetime.
type Bank struct {
	sounds     map[ID]*Sound
	missing    []ID
	sampleRate int
}

// NewBank wraps already built sounds, for procedurally generated effects and
// tests.
func NewBank(sampleRate int, sounds ...*Sound) *Bank {
	b := &Bank{sounds: make(map[ID]*Sound, len(sounds)), sampleRate: sampleRate}
	for _, s := range sounds {
		b.sounds[s.ID] = s
	}
	return b
}

// Load parses the catalog at path and decodes every referenced asset at
// sampleRate. Catalog syntax errors are returned; a missing entry or an asset
// that fails to load is only logged and leaves that sound unplayable.
func Load(fs Opener, path string, ids []ID, sampleRate int) (*Bank, error) {
	log.Printf("Loading sound catalog: %s", path)

	rc, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound catalog: %w", err)
	}
	entries, err := ParseCatalog(rc, path, ids)
	rc.Close()
	if err != nil {
		return nil, err
	}

	loaded := make([]*Sound, len(entries))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			loaded[i] = loadEntry(fs, e, sampleRate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := NewBank(sampleRate, loaded...)
	for _, id := range ids {
		if _, ok := b.sounds[id]; ok {
			continue
		}
		log.Printf("Warning: sound %s has no catalog entry", id)
		missing := &Sound{ID: id, Segments: []Segment{{}}, Options: DefaultOptions()}
		missing.finish()
		b.sounds[id] = missing
		b.missing = append(b.missing, id)
	}

	failed := 0
	for _, s := range b.sounds {
		if !s.OK() {
			failed++
		}
	}
	log.Printf("Sound catalog loaded: %d sounds, %d unplayable", len(b.sounds), failed)
	return b, nil
}

func loadEntry(fs Opener, e Entry, sampleRate int) *Sound {
	s := &Sound{ID: e.ID, Files: e.Files, Options: e.Options}
	for _, name := range e.Files {
		if name == SilentFile {
			s.Segments = append(s.Segments, Segment{})
			continue
		}
		samples, err := readAsset(fs, name, sampleRate)
		if err != nil {
			log.Printf("Error: sound %s: %v", e.ID, err)
			s.Segments = []Segment{{}}
			s.finish()
			return s
		}
		s.Segments = append(s.Segments, Segment{Samples: samples})
	}
	s.ok = true
	s.finish()
	return s
}

func readAsset(fs Opener, name string, sampleRate int) ([]float32, error) {
	rc, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return decodeMono(name, data, sampleRate)
}

// Get returns the descriptor for id, or nil when id was never registered.
func (b *Bank) Get(id ID) *Sound {
	return b.sounds[id]
}

// IDs returns all registered sound IDs in sorted order.
func (b *Bank) IDs() []ID {
	ids := make([]ID, 0, len(b.sounds))
	for id := range b.sounds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Missing lists the IDs that had no catalog entry.
func (b *Bank) Missing() []ID {
	return b.missing
}

// SampleRate is the rate every segment was resampled to.
func (b *Bank) SampleRate() int {
	return b.sampleRate
}
