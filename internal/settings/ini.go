package settings

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"sound-engine/internal/filesystem"
)

// INIManager reads `[key]=value` override files, the format the shipped
// audio.ini uses.
type INIManager struct {
	settings map[string]string
	fs       *filesystem.Manager
}

// NewINIManager creates a new INI-based settings manager
func NewINIManager(fs *filesystem.Manager) *INIManager {
	return &INIManager{
		settings: make(map[string]string),
		fs:       fs,
	}
}

// Load loads an INI file and merges it with existing settings
func (m *INIManager) Load(filename string) error {
	log.Printf("Loading INI file: %s", filename)

	reader, err := m.fs.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open INI file %s: %w", filename, err)
	}
	defer reader.Close()

	return m.parseINI(reader)
}

// GetString returns a string value with surrounding quotes removed
func (m *INIManager) GetString(key string) string {
	if value, exists := m.settings[key]; exists {
		return strings.Trim(value, `"`)
	}
	return ""
}

// GetInt returns an integer value, -1 when missing or malformed
func (m *INIManager) GetInt(key string) int {
	value := m.GetString(key)
	if value == "" {
		return -1
	}

	if intVal, err := strconv.Atoi(value); err == nil {
		return intVal
	}
	return -1
}

// GetFloat returns a float value, -1 when missing or malformed
func (m *INIManager) GetFloat(key string) float64 {
	value := m.GetString(key)
	if value == "" {
		return -1.0
	}

	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		return floatVal
	}
	return -1.0
}

// GetBool treats any non-zero integer as true
func (m *INIManager) GetBool(key string) bool {
	value := m.GetString(key)
	if value == "" {
		return false
	}

	if intVal, err := strconv.Atoi(value); err == nil {
		return intVal != 0
	}
	return false
}

// Has reports whether key was present in any loaded file
func (m *INIManager) Has(key string) bool {
	_, ok := m.settings[key]
	return ok
}

// ApplyTo copies the audio keys that were set onto cfg
func (m *INIManager) ApplyTo(cfg *Config) {
	if m.Has("audio_backend") {
		cfg.AudioBackend = m.GetString("audio_backend")
	}
	if m.Has("audio_device") {
		cfg.AudioDevice = m.GetString("audio_device")
	}
	if v := m.GetInt("sample_rate"); v > 0 {
		cfg.SampleRate = v
	}
	if v := m.GetInt("buffer_size_ms"); v > 0 {
		cfg.BufferSizeMS = v
	}
	if m.Has("reverb") {
		cfg.Reverb = m.GetBool("reverb")
	}
	if v := m.GetFloat("master_volume"); v >= 0 {
		cfg.MasterVolume = v
	}
	if v := m.GetFloat("sfx_volume"); v >= 0 {
		cfg.SFXVolume = v
	}
	if v := m.GetFloat("music_volume"); v >= 0 {
		cfg.MusicVolume = v
	}
}

// parseINI parses an INI file from a reader, skipping malformed lines
func (m *INIManager) parseINI(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if err := m.parseLine(line); err != nil {
			log.Printf("Warning: failed to parse line '%s': %v", line, err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading INI file: %w", err)
	}

	return nil
}

// parseLine parses a single line of the form [key]="value"
func (m *INIManager) parseLine(line string) error {
	if !strings.HasPrefix(line, "[") {
		return fmt.Errorf("line does not start with [")
	}

	closeBracketPos := strings.Index(line, "]")
	if closeBracketPos == -1 {
		return fmt.Errorf("missing closing bracket ]")
	}

	key := line[1:closeBracketPos]
	if key == "" {
		return fmt.Errorf("empty key")
	}

	remaining := line[closeBracketPos+1:]
	if !strings.HasPrefix(remaining, "=") {
		return fmt.Errorf("missing = after key")
	}

	value := remaining[1:]
	if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
		value = value[1 : len(value)-1]
	}

	m.settings[key] = value
	return nil
}
