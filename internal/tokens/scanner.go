// Package tokens splits the whitespace-separated catalog files used by the
// sound and music loaders into positioned tokens.
package tokens

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Token is a single word of a catalog file with its 1-based position.
type Token struct {
	Text string
	Line int
	Col  int
}

// Error is a parse failure annotated with the offending position.
type Error struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// Scanner hands out the tokens of a catalog one at a time.
// A '#' starts a comment that runs to the end of the line.
type Scanner struct {
	file string
	toks []Token
	pos  int
	eofL int
}

// NewScanner reads all of r and tokenizes it. file is only used to
// annotate errors.
func NewScanner(r io.Reader, file string) (*Scanner, error) {
	s := &Scanner{file: file}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		col := 0
		for col < len(text) {
			for col < len(text) && isSpace(text[col]) {
				col++
			}
			start := col
			for col < len(text) && !isSpace(text[col]) {
				col++
			}
			if col > start {
				s.toks = append(s.toks, Token{Text: text[start:col], Line: line, Col: start + 1})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", file, err)
	}
	s.eofL = line + 1
	return s, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

// Done reports whether every token has been consumed.
func (s *Scanner) Done() bool {
	return s.pos >= len(s.toks)
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, bool) {
	if s.Done() {
		return Token{}, false
	}
	return s.toks[s.pos], true
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (Token, bool) {
	t, ok := s.Peek()
	if ok {
		s.pos++
	}
	return t, ok
}

// Expect consumes the next token, failing with what at EOF.
func (s *Scanner) Expect(what string) (Token, error) {
	t, ok := s.Next()
	if !ok {
		return Token{}, s.ErrorAt(Token{Line: s.eofL, Col: 1}, "unexpected end of file, expected %s", what)
	}
	return t, nil
}

// Float consumes the next token as a floating point number.
func (s *Scanner) Float(what string) (float64, error) {
	t, err := s.Expect(what)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(t.Text, 64)
	if perr != nil {
		return 0, s.ErrorAt(t, "invalid %s %q", what, t.Text)
	}
	return v, nil
}

// Int consumes the next token as a decimal integer.
func (s *Scanner) Int(what string) (int, error) {
	t, err := s.Expect(what)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.Atoi(t.Text)
	if perr != nil {
		return 0, s.ErrorAt(t, "invalid %s %q", what, t.Text)
	}
	return v, nil
}

// Wrap returns an error that reads as pos and matches both pos and sentinel
// under errors.Is and errors.As.
func Wrap(pos, sentinel error) error {
	return &wrapped{pos: pos, sentinel: sentinel}
}

type wrapped struct {
	pos      error
	sentinel error
}

func (w *wrapped) Error() string   { return w.pos.Error() }
func (w *wrapped) Unwrap() []error { return []error{w.sentinel, w.pos} }

// ErrorAt builds an *Error positioned at t.
func (s *Scanner) ErrorAt(t Token, format string, args ...interface{}) error {
	return &Error{File: s.file, Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}
