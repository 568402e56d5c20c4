// Package music selects and streams background music. The Director turns an
// intensity signal into track choices; the Deck decodes and crossfades them.
package music

import (
	"errors"
	"fmt"
	"io"
	"log"

	"sound-engine/internal/tokens"
)

// Level is a music intensity sub-track, ordered from calmest to loudest.
type Level int

const (
	LevelPeace Level = iota
	LevelAmbient
	LevelLight
	LevelHeavy
	LevelEpic
	NumLevels
)

var levelNames = [NumLevels]string{"peace", "ambient", "light", "heavy", "epic"}

func (l Level) String() string {
	if l < 0 || l >= NumLevels {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps a catalog keyword to its Level.
func ParseLevel(s string) (Level, bool) {
	for i, n := range levelNames {
		if n == s {
			return Level(i), true
		}
	}
	return 0, false
}

// ErrNoPeace is returned for a track block without the mandatory peace level.
var ErrNoPeace = errors.New("track has no peace level")

// Track is one catalog block. A track is either a tracker module (Song set,
// Subsongs used) or a set of plain files (Files used).
type Track struct {
	Song     string
	Files    [NumLevels]string
	Subsongs [NumLevels]int
}

// IsModule reports whether the track plays sub-songs of a single module.
func (t *Track) IsModule() bool { return t.Song != "" }

// File returns the file that plays at level l.
func (t *Track) File(l Level) string {
	if t.IsModule() {
		return t.Song
	}
	return t.Files[l]
}

// Subsong returns the sub-song index for l, or -1 for plain files.
func (t *Track) Subsong(l Level) int {
	if t.IsModule() {
		return t.Subsongs[l]
	}
	return -1
}

// Catalog is the ordered list of tracks.
type Catalog struct {
	Tracks []Track
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Tracks)
}

// LoadCatalog opens and parses the music catalog at path.
func LoadCatalog(fs Opener, path string) (*Catalog, error) {
	log.Printf("Loading music catalog: %s", path)
	rc, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open music catalog: %w", err)
	}
	defer rc.Close()
	c, err := ParseCatalog(rc, path)
	if err != nil {
		return nil, err
	}
	log.Printf("Music catalog loaded: %d tracks", len(c.Tracks))
	return c, nil
}

// ParseCatalog reads blocks of the form
//
//	track
//	  song <module>          # optional
//	  peace <file|subsong>
//	  ambient|light|heavy|epic <file|subsong>
//
// Levels left out reuse the previous level's choice.
func ParseCatalog(r io.Reader, file string) (*Catalog, error) {
	s, err := tokens.NewScanner(r, file)
	if err != nil {
		return nil, err
	}
	c := &Catalog{}
	for !s.Done() {
		tok, _ := s.Next()
		if tok.Text != "track" {
			return nil, s.ErrorAt(tok, "expected track, got %q", tok.Text)
		}
		t, err := parseTrack(s, tok)
		if err != nil {
			return nil, err
		}
		c.Tracks = append(c.Tracks, t)
	}
	return c, nil
}

func parseTrack(s *tokens.Scanner, start tokens.Token) (Track, error) {
	var (
		t         Track
		set       [NumLevels]bool
		seenLevel bool
	)
	for {
		tok, ok := s.Peek()
		if !ok || tok.Text == "track" {
			break
		}
		s.Next()
		if tok.Text == "song" {
			if seenLevel {
				return t, s.ErrorAt(tok, "song must come before the levels")
			}
			if t.Song != "" {
				return t, s.ErrorAt(tok, "duplicate song")
			}
			f, err := s.Expect("module file after song")
			if err != nil {
				return t, err
			}
			t.Song = f.Text
			continue
		}
		l, ok := ParseLevel(tok.Text)
		if !ok {
			return t, s.ErrorAt(tok, "unknown keyword %q", tok.Text)
		}
		if set[l] {
			return t, s.ErrorAt(tok, "duplicate level %s", l)
		}
		if t.IsModule() {
			n, err := s.Int("subsong index")
			if err != nil {
				return t, err
			}
			if n < 0 {
				return t, s.ErrorAt(tok, "negative subsong index %d", n)
			}
			t.Subsongs[l] = n
		} else {
			f, err := s.Expect("file after " + tok.Text)
			if err != nil {
				return t, err
			}
			t.Files[l] = f.Text
		}
		set[l] = true
		seenLevel = true
	}
	if !set[LevelPeace] {
		return t, tokens.Wrap(s.ErrorAt(start, "%v", ErrNoPeace), ErrNoPeace)
	}
	for l := LevelAmbient; l < NumLevels; l++ {
		if !set[l] {
			t.Files[l] = t.Files[l-1]
			t.Subsongs[l] = t.Subsongs[l-1]
		}
	}
	return t, nil
}
