package settings

import (
	"os"
	"path/filepath"
	"testing"

	"sound-engine/internal/filesystem"
)

func TestINIApplyTo(t *testing.T) {
	dir := t.TempDir()
	ini := "; device overrides\n" +
		"[audio_backend]=\"oto\"\n" +
		"[sample_rate]=44100\n" +
		"[reverb]=0\n" +
		"[music_volume]=0.25\n" +
		"garbage line\n"
	if err := os.WriteFile(filepath.Join(dir, "audio.ini"), []byte(ini), 0644); err != nil {
		t.Fatal(err)
	}
	m := NewINIManager(filesystem.NewManager(dir))
	if err := m.Load("audio.ini"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := DefaultConfig()
	m.ApplyTo(cfg)
	if cfg.AudioBackend != "oto" {
		t.Errorf("AudioBackend = %q, want oto", cfg.AudioBackend)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Reverb {
		t.Error("Reverb should be disabled")
	}
	if cfg.MusicVolume != 0.25 {
		t.Errorf("MusicVolume = %v, want 0.25", cfg.MusicVolume)
	}
	if cfg.SFXVolume != DefaultConfig().SFXVolume {
		t.Errorf("SFXVolume changed to %v without a key", cfg.SFXVolume)
	}
}

func TestManagerLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "settings.json")
	m := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}

	m2 := NewManager(path)
	if err := m2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := m2.GetConfig().SampleRate; got != 48000 {
		t.Errorf("SampleRate = %d, want 48000", got)
	}
}

func TestManagerUpdateNotifies(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "settings.json"))
	var calls int
	var gotOld, gotNew Config
	m.OnChange(func(old, cur Config) {
		calls++
		gotOld, gotNew = old, cur
	})

	if err := m.Update(func(c *Config) { c.SFXVolume = 3 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
	if gotOld.SFXVolume != 0.8 || gotNew.SFXVolume != 1 {
		t.Errorf("old=%v new=%v, want 0.8 and clamped 1", gotOld.SFXVolume, gotNew.SFXVolume)
	}

	if err := m.Update(func(c *Config) { c.SampleRate = 10 }); err == nil {
		t.Error("expected invalid sample rate to be rejected")
	}
	if calls != 1 {
		t.Errorf("listener called on rejected update")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvBackend: "headless", EnvRate: "22050"}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.AudioBackend != "headless" || cfg.SampleRate != 22050 {
		t.Errorf("got backend=%q rate=%d", cfg.AudioBackend, cfg.SampleRate)
	}
}
