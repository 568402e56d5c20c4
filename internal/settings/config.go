package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Environment variables that override the audio device selection.
const (
	EnvBackend = "SNDENGINE_BACKEND"
	EnvDevice  = "SNDENGINE_DEVICE"
	EnvRate    = "SNDENGINE_RATE"
)

// Config holds all engine configuration
type Config struct {
	ScreenWidth  int      `json:"screen_width"`
	ScreenHeight int      `json:"screen_height"`
	DebugMode    bool     `json:"debug_mode"`
	AssetsPath   string   `json:"assets_path"`
	Archives     []string `json:"archives"`
	SoundCatalog string   `json:"sound_catalog"`
	MusicCatalog string   `json:"music_catalog"`

	AudioBackend string  `json:"audio_backend"`
	AudioDevice  string  `json:"audio_device"`
	SampleRate   int     `json:"sample_rate"`
	BufferSizeMS int     `json:"buffer_size_ms"`
	Reverb       bool    `json:"reverb"`
	MasterVolume float64 `json:"master_volume"`
	SFXVolume    float64 `json:"sfx_volume"`
	MusicVolume  float64 `json:"music_volume"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ScreenWidth:  800,
		ScreenHeight: 600,
		DebugMode:    true,
		AssetsPath:   "./assets",
		SoundCatalog: "sounds.cfg",
		MusicCatalog: "music.cfg",
		AudioBackend: "ebiten",
		SampleRate:   48000,
		BufferSizeMS: 40,
		Reverb:       true,
		MasterVolume: 1.0,
		SFXVolume:    0.8,
		MusicVolume:  0.6,
	}
}

// Validate clamps volumes and rejects unusable device parameters
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range", c.SampleRate)
	}
	if c.BufferSizeMS <= 0 {
		c.BufferSizeMS = 40
	}
	c.MasterVolume = clamp01(c.MasterVolume)
	c.SFXVolume = clamp01(c.SFXVolume)
	c.MusicVolume = clamp01(c.MusicVolume)
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ApplyEnv overlays the device environment variables onto the config
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBackend); v != "" {
		c.AudioBackend = v
	}
	if v := getenv(EnvDevice); v != "" {
		c.AudioDevice = v
	}
	if v := getenv(EnvRate); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			c.SampleRate = rate
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", EnvRate, v, err)
		}
	}
}

// ChangeFunc is called with the previous and the new configuration after
// every Update.
type ChangeFunc func(old, cur Config)

// Manager handles configuration loading, saving and live changes
type Manager struct {
	mu         sync.Mutex
	config     *Config
	configPath string
	listeners  []ChangeFunc
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		config:     DefaultConfig(),
		configPath: configPath,
	}
}

// Load loads configuration from file, writing defaults when it is missing
func (m *Manager) Load() error {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		log.Printf("Config file %s not found, using defaults", m.configPath)
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := json.Unmarshal(data, m.config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", m.configPath, err)
	}

	log.Printf("Loaded configuration from %s", m.configPath)
	return nil
}

// Save saves configuration to file
func (m *Manager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	m.mu.Lock()
	data, err := json.MarshalIndent(m.config, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Printf("Saved configuration to %s", m.configPath)
	return nil
}

// GetConfig returns a copy of the current configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// OnChange registers fn to be called after every Update
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Update mutates the configuration and notifies listeners. Listeners run
// outside the manager lock.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	old := *m.config
	next := old
	fn(&next)
	if err := next.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	*m.config = next
	listeners := append([]ChangeFunc(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(old, next)
	}
	return nil
}
