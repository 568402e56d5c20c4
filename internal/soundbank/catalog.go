package soundbank

import (
	"errors"
	"io"

	"sound-engine/internal/tokens"
)

// SilentFile is the catalog filename that marks deliberate silence.
const SilentFile = "!"

var (
	ErrUnknownID   = errors.New("unknown sound id")
	ErrDuplicateID = errors.New("duplicate sound id")
)

// Entry is one parsed line of the sound catalog, before audio is loaded.
type Entry struct {
	ID    ID
	Files []string
	Options
}

// ParseCatalog reads the sound catalog format:
//
//	SOUND_ID <file|!> [sub <file>]* [vol V] [dist D] [rnd LO HI] [spdmut LO HI] [ui] [rndvol|norndvol]
//
// Every ID must be listed in known.
func ParseCatalog(r io.Reader, file string, known []ID) ([]Entry, error) {
	s, err := tokens.NewScanner(r, file)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[ID]bool, len(known))
	for _, id := range known {
		knownSet[id] = true
	}
	seen := make(map[ID]bool)

	var entries []Entry
	for !s.Done() {
		tok, _ := s.Next()
		id := ID(tok.Text)
		if !knownSet[id] {
			return nil, wrapAt(s, tok, ErrUnknownID, id)
		}
		if seen[id] {
			return nil, wrapAt(s, tok, ErrDuplicateID, id)
		}
		seen[id] = true

		fileTok, err := s.Expect("filename after " + string(id))
		if err != nil {
			return nil, err
		}
		e := Entry{ID: id, Files: []string{fileTok.Text}, Options: DefaultOptions()}
		if err := parseOptions(s, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseOptions(s *tokens.Scanner, e *Entry) error {
	for {
		tok, ok := s.Peek()
		if !ok {
			return nil
		}
		switch tok.Text {
		case "vol":
			s.Next()
			v, err := s.Float("volume")
			if err != nil {
				return err
			}
			if v < 0 {
				return s.ErrorAt(tok, "negative volume %v", v)
			}
			e.Volume = v
		case "dist":
			s.Next()
			v, err := s.Float("distance")
			if err != nil {
				return err
			}
			if v <= 0 {
				return s.ErrorAt(tok, "distance must be positive, got %v", v)
			}
			e.MaxDist = v
		case "rnd", "spdmut":
			s.Next()
			lo, err := s.Float(tok.Text + " low bound")
			if err != nil {
				return err
			}
			hi, err := s.Float(tok.Text + " high bound")
			if err != nil {
				return err
			}
			if lo <= 0 || hi <= 0 {
				return s.ErrorAt(tok, "%s range must be positive", tok.Text)
			}
			if tok.Text == "rnd" {
				e.PitchRand = [2]float64{lo, hi}
			} else {
				e.PitchMut = [2]float64{lo, hi}
			}
		case "sub":
			s.Next()
			f, err := s.Expect("filename after sub")
			if err != nil {
				return err
			}
			e.Files = append(e.Files, f.Text)
		case "ui":
			s.Next()
			e.UI = true
		case "rndvol":
			s.Next()
			e.RandomVolume = true
		case "norndvol":
			s.Next()
			e.RandomVolume = false
		default:
			return nil
		}
	}
}

func wrapAt(s *tokens.Scanner, tok tokens.Token, sentinel error, id ID) error {
	return tokens.Wrap(s.ErrorAt(tok, "%v %q", sentinel, id), sentinel)
}
