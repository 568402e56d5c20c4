package tokens

import (
	"errors"
	"strings"
	"testing"
)

func TestScannerPositions(t *testing.T) {
	src := "# header\nSND_A  a.wav vol 0.5 # trailing\n\tSND_B !\n"
	s, err := NewScanner(strings.NewReader(src), "sounds.cfg")
	if err != nil {
		t.Fatal(err)
	}
	want := []Token{
		{"SND_A", 2, 1},
		{"a.wav", 2, 8},
		{"vol", 2, 14},
		{"0.5", 2, 18},
		{"SND_B", 3, 2},
		{"!", 3, 8},
	}
	for i, w := range want {
		got, ok := s.Next()
		if !ok {
			t.Fatalf("token %d: unexpected EOF", i)
		}
		if got != w {
			t.Errorf("token %d = %+v, want %+v", i, got, w)
		}
	}
	if !s.Done() {
		t.Error("expected scanner to be exhausted")
	}
}

func TestScannerNumbers(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"valid", "1.5 3", ""},
		{"bad float", "abc 3", "1:1: invalid volume \"abc\""},
		{"bad int", "1.5 x", "1:5: invalid index \"x\""},
		{"eof", "1.5", "2:1: unexpected end of file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewScanner(strings.NewReader(tc.src), "")
			if err != nil {
				t.Fatal(err)
			}
			_, err = s.Float("volume")
			if err == nil {
				_, err = s.Int("index")
			}
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("error %T is not *Error", err)
			}
		})
	}
}

func TestWrapMatchesSentinelAndPosition(t *testing.T) {
	errDup := errors.New("duplicate id")
	s, err := NewScanner(strings.NewReader("SND_A\nSND_A\n"), "sounds.cfg")
	if err != nil {
		t.Fatal(err)
	}
	s.Next()
	tok, _ := s.Next()
	err = Wrap(s.ErrorAt(tok, "%v %q", errDup, tok.Text), errDup)

	if got, want := err.Error(), `sounds.cfg:2:1: duplicate id "SND_A"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, errDup) {
		t.Error("wrapped error does not match its sentinel")
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Line != 2 {
		t.Errorf("errors.As = %+v", perr)
	}
}
