package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Manager resolves asset names against mounted archives first and the
// asset root directory second.
type Manager struct {
	rootDir  string
	archives []Archive
}

// Archive is a mounted package of assets.
type Archive interface {
	Open(filename string) (io.ReadCloser, error)
	Exists(filename string) bool
	Close() error
}

// NewManager creates a new filesystem manager
func NewManager(rootDir string) *Manager {
	return &Manager{
		rootDir:  rootDir,
		archives: make([]Archive, 0),
	}
}

// Init verifies the asset root exists
func (m *Manager) Init() error {
	if _, err := os.Stat(m.rootDir); os.IsNotExist(err) {
		return fmt.Errorf("root directory does not exist: %s", m.rootDir)
	}

	log.Printf("Filesystem initialized with root: %s", m.rootDir)
	return nil
}

// Mount adds an already opened archive. Archives mounted later shadow
// earlier ones.
func (m *Manager) Mount(a Archive) {
	m.archives = append([]Archive{a}, m.archives...)
}

// MountGPK opens a GPK package relative to the root and mounts it
func (m *Manager) MountGPK(filename string) error {
	archive := NewGPKArchive(m.getFullPath(filename))
	if err := archive.Load(); err != nil {
		return fmt.Errorf("failed to mount %s: %w", filename, err)
	}
	m.Mount(archive)
	log.Printf("Mounted archive %s (%d entries)", filename, len(archive.GetEntries()))
	return nil
}

// Open opens a file, checking archives first, then filesystem
func (m *Manager) Open(filename string) (io.ReadCloser, error) {
	for _, archive := range m.archives {
		if archive.Exists(filename) {
			return archive.Open(filename)
		}
	}

	file, err := os.Open(m.getFullPath(filename))
	if err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", filename, err)
	}
	return file, nil
}

// Exists checks if a file exists in archives or filesystem
func (m *Manager) Exists(filename string) bool {
	for _, archive := range m.archives {
		if archive.Exists(filename) {
			return true
		}
	}

	_, err := os.Stat(m.getFullPath(filename))
	return err == nil
}

// ReadFile reads an entire file into memory
func (m *Manager) ReadFile(filename string) ([]byte, error) {
	file, err := m.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// getFullPath constructs the full filesystem path for a file
func (m *Manager) getFullPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	cleanFilename := strings.ReplaceAll(filename, "\\", string(filepath.Separator))
	cleanFilename = strings.ReplaceAll(cleanFilename, "/", string(filepath.Separator))

	return filepath.Join(m.rootDir, cleanFilename)
}

// GetRootDir returns the root directory
func (m *Manager) GetRootDir() string {
	return m.rootDir
}

// Close closes all mounted archives
func (m *Manager) Close() error {
	for _, archive := range m.archives {
		if err := archive.Close(); err != nil {
			log.Printf("Error closing archive: %v", err)
		}
	}

	m.archives = nil
	log.Println("Filesystem manager closed")
	return nil
}

// bytesReadCloser wraps byte data as ReadCloser
type bytesReadCloser struct {
	*bytes.Reader
}

func newBytesReadCloser(data []byte) *bytesReadCloser {
	return &bytesReadCloser{Reader: bytes.NewReader(data)}
}

func (r *bytesReadCloser) Close() error {
	return nil
}
