package music

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCatalog(t *testing.T) {
	src := `
# two tracks
track
  peace   calm.ogg
  light   fight.ogg
  epic    boss.ogg
track
  song    tune.xm
  peace   0
  heavy   3
`
	c, err := ParseCatalog(strings.NewReader(src), "music.cfg")
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	files := c.Tracks[0]
	want := [NumLevels]string{"calm.ogg", "calm.ogg", "fight.ogg", "fight.ogg", "boss.ogg"}
	if files.Files != want {
		t.Errorf("Files = %v, want %v", files.Files, want)
	}
	if files.IsModule() || files.Subsong(LevelEpic) != -1 {
		t.Error("plain track reported as module")
	}

	mod := c.Tracks[1]
	if !mod.IsModule() || mod.File(LevelLight) != "tune.xm" {
		t.Errorf("module track = %+v", mod)
	}
	wantSub := [NumLevels]int{0, 0, 0, 3, 3}
	if mod.Subsongs != wantSub {
		t.Errorf("Subsongs = %v, want %v", mod.Subsongs, wantSub)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no peace", "track\n light a.ogg\n", "music.cfg:1:1: track has no peace level"},
		{"unknown keyword", "track\n peace a.ogg\n loud b.ogg\n", "music.cfg:3:2: unknown keyword"},
		{"bad subsong", "track song m.xm\n peace x\n", "music.cfg:2:8: invalid subsong index"},
		{"song after level", "track peace a.ogg song m.xm\n", "music.cfg:1:19: song must come before"},
		{"missing file", "track peace", "music.cfg:2:1: unexpected end of file"},
		{"not a track", "peace a.ogg\n", "music.cfg:1:1: expected track"},
		{"duplicate level", "track peace a.ogg peace b.ogg\n", "duplicate level peace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(strings.NewReader(tt.src), "music.cfg")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseCatalogNoPeaceIsSentinel(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("track ambient a.ogg"), "m")
	if !errors.Is(err, ErrNoPeace) {
		t.Errorf("error = %v, want ErrNoPeace", err)
	}
}
