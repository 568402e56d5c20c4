package filesystem

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

type testEntry struct {
	name     string
	data     []byte
	compress bool
}

func zlibWithSize(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	return buf.Bytes()
}

// writeTestGPK lays out entry payloads, then the encrypted index, then the trailer.
func writeTestGPK(t *testing.T, path string, entries []testEntry) {
	t.Helper()
	var body, pidx bytes.Buffer
	for _, e := range entries {
		payload := e.data
		uncompressed := uint32(0)
		if e.compress {
			payload = zlibWithSize(t, e.data)
			uncompressed = uint32(len(e.data))
		}
		header := GPKEntryHeader{
			Offset:     uint32(body.Len()),
			ComprLen:   uint32(len(payload)),
			UncomprLen: uncompressed,
		}
		body.Write(payload)
		binary.Write(&pidx, binary.LittleEndian, header)
		for _, c := range utf16.Encode([]rune(e.name)) {
			binary.Write(&pidx, binary.LittleEndian, c)
		}
		binary.Write(&pidx, binary.LittleEndian, uint16(0))
	}
	index := zlibWithSize(t, pidx.Bytes())
	for i := range index {
		index[i] ^= cipherCode[i%16]
	}
	body.Write(index)

	sig := GPKSignature{PidxLength: uint32(len(index))}
	copy(sig.Sig0[:], GPKTailerIdent0)
	copy(sig.Sig1[:], GPKTailerIdent1)
	binary.Write(&body, binary.LittleEndian, sig)

	if err := os.WriteFile(path, body.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGPKArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeTestGPK(t, filepath.Join(dir, "SE.GPK"), []testEntry{
		{name: "sfx\\shot.wav", data: []byte("RIFF-stored")},
		{name: "music/theme.ogg", data: bytes.Repeat([]byte("ogg"), 100), compress: true},
	})

	fs := NewManager(dir)
	if err := fs.MountGPK("SE.GPK"); err != nil {
		t.Fatalf("MountGPK: %v", err)
	}
	defer fs.Close()

	tests := []struct {
		name string
		want []byte
	}{
		{"sfx/shot.wav", []byte("RIFF-stored")},
		{"SFX/SHOT.WAV", []byte("RIFF-stored")},
		{"music/theme.ogg", bytes.Repeat([]byte("ogg"), 100)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fs.ReadFile(tc.name)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("ReadFile = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestManagerFallsBackToDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sfx"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sfx", "step.wav"), []byte("disk"), 0644); err != nil {
		t.Fatal(err)
	}
	fs := NewManager(dir)
	if err := fs.Init(); err != nil {
		t.Fatal(err)
	}
	if !fs.Exists("sfx/step.wav") {
		t.Fatal("expected sfx/step.wav to exist")
	}
	rc, err := fs.Open("sfx/step.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "disk" {
		t.Errorf("got %q", data)
	}
	if _, err := fs.Open("missing.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGPKArchiveLoadThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BGM.GPK")
	writeTestGPK(t, path, []testEntry{
		{name: "bgm\\rain.ogg", data: []byte("OggS-rain"), compress: true},
	})

	var a Archive = NewGPKArchive(path)
	if err := a.(*GPKArchive).Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Close()

	if !a.Exists("bgm/rain.ogg") {
		t.Fatal("expected bgm/rain.ogg to exist after Load")
	}
	rc, err := a.Open("bgm/rain.ogg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "OggS-rain" {
		t.Errorf("Open read %q, want %q", data, "OggS-rain")
	}
}

func TestGPKArchiveLoadMissingFile(t *testing.T) {
	a := NewGPKArchive(filepath.Join(t.TempDir(), "none.GPK"))
	if err := a.Load(); err == nil {
		t.Error("expected Load to fail for a missing package")
	}
}
