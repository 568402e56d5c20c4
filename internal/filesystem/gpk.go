package filesystem

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"
)

// GPK trailer identifiers
const (
	GPKTailerIdent0 = "STKFile0PIDX"
	GPKTailerIdent1 = "STKFile0PACKFILE"

	gpkSignatureSize   = 32
	gpkEntryHeaderSize = 23
)

var cipherCode = [16]byte{
	0x82, 0xEE, 0x1D, 0xB3,
	0x57, 0xE9, 0x2C, 0xC2,
	0x2F, 0x54, 0x7B, 0x10,
	0x4C, 0x9A, 0x75, 0x49,
}

// GPKEntryHeader represents an entry header in the GPK file
type GPKEntryHeader struct {
	SubVersion   uint16
	Version      uint16
	Zero         uint16
	Offset       uint32
	ComprLen     uint32
	Reserved     [4]byte
	UncomprLen   uint32
	ComprHeadLen uint8
}

// GPKEntry represents a file entry in the GPK package
type GPKEntry struct {
	Name   string
	Header GPKEntryHeader
}

// GPKSignature represents the GPK file signature
type GPKSignature struct {
	Sig0       [12]byte
	PidxLength uint32
	Sig1       [16]byte
}

// GPKArchive is a read-only GPK package. It is safe for concurrent Open
// calls once opened.
type GPKArchive struct {
	filename string
	entries  []GPKEntry
	index    map[string]int
	file     *os.File
}

// NewGPKArchive creates a new GPK archive instance
func NewGPKArchive(filename string) *GPKArchive {
	return &GPKArchive{
		filename: filename,
		entries:  make([]GPKEntry, 0),
		index:    make(map[string]int),
	}
}

// Load opens and parses the GPK archive
func (g *GPKArchive) Load() error {
	var err error
	g.file, err = os.Open(g.filename)
	if err != nil {
		return fmt.Errorf("failed to open GPK file %s: %w", g.filename, err)
	}

	fileInfo, err := g.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	fileSize := fileInfo.Size()
	if fileSize < gpkSignatureSize {
		return fmt.Errorf("GPK file %s too short", g.filename)
	}

	sig, err := g.readGPKSignature(fileSize - gpkSignatureSize)
	if err != nil {
		return fmt.Errorf("failed to read GPK signature: %w", err)
	}
	if string(sig.Sig0[:]) != GPKTailerIdent0 || string(sig.Sig1[:]) != GPKTailerIdent1 {
		return fmt.Errorf("invalid GPK signature")
	}

	pidxOffset := fileSize - gpkSignatureSize - int64(sig.PidxLength)
	if pidxOffset < 0 {
		return fmt.Errorf("invalid PIDX length %d", sig.PidxLength)
	}
	pidxData := make([]byte, sig.PidxLength)
	if _, err := g.file.ReadAt(pidxData, pidxOffset); err != nil {
		return fmt.Errorf("failed to read PIDX data: %w", err)
	}

	g.decryptData(pidxData)
	pidx, err := inflatePIDX(pidxData)
	if err != nil {
		return err
	}

	if err := g.parseEntries(pidx); err != nil {
		return fmt.Errorf("failed to parse entries: %w", err)
	}
	return nil
}

// Close closes the GPK archive
func (g *GPKArchive) Close() error {
	if g.file != nil {
		return g.file.Close()
	}
	return nil
}

func (g *GPKArchive) readGPKSignature(offset int64) (*GPKSignature, error) {
	buf := make([]byte, gpkSignatureSize)
	if _, err := g.file.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	sig := &GPKSignature{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// decryptData decrypts data using the cipher code
func (g *GPKArchive) decryptData(data []byte) {
	for i := range data {
		data[i] ^= cipherCode[i%16]
	}
}

// isValidZlibHeader checks the CMF/FLG pair of a zlib stream
func isValidZlibHeader(b1, b2 byte) bool {
	if (b1 & 0x0F) != 8 {
		return false
	}
	header := uint16(b1)<<8 | uint16(b2)
	return (header % 31) == 0
}

// inflatePIDX undoes the optional size-prefixed zlib wrapping of the index
func inflatePIDX(data []byte) ([]byte, error) {
	var compressed []byte
	switch {
	case len(data) >= 6 && isValidZlibHeader(data[4], data[5]):
		compressed = data[4:]
	case len(data) >= 2 && isValidZlibHeader(data[0], data[1]):
		compressed = data
	default:
		return data, nil
	}
	return inflate(compressed)
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	return out, nil
}

// parseEntries parses the entries from PIDX data
func (g *GPKArchive) parseEntries(pidxData []byte) error {
	reader := bytes.NewReader(pidxData)

	for reader.Len() >= gpkEntryHeaderSize {
		header := &GPKEntryHeader{}
		if err := binary.Read(reader, binary.LittleEndian, header); err != nil {
			return err
		}

		filename, err := g.readUTF16String(reader)
		if err != nil {
			return err
		}

		g.index[normalizeName(filename)] = len(g.entries)
		g.entries = append(g.entries, GPKEntry{Name: filename, Header: *header})
	}
	return nil
}

// readUTF16String reads a null-terminated UTF-16LE string
func (g *GPKArchive) readUTF16String(reader *bytes.Reader) (string, error) {
	var utf16Data []uint16

	for {
		var char uint16
		if err := binary.Read(reader, binary.LittleEndian, &char); err != nil {
			return "", err
		}
		if char == 0 {
			break
		}
		utf16Data = append(utf16Data, char)
	}
	return string(utf16.Decode(utf16Data)), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// GetEntries returns all entries in the archive
func (g *GPKArchive) GetEntries() []GPKEntry {
	return g.entries
}

// GetEntry finds an entry by name, ignoring case and separator style
func (g *GPKArchive) GetEntry(name string) (*GPKEntry, bool) {
	i, ok := g.index[normalizeName(name)]
	if !ok {
		return nil, false
	}
	return &g.entries[i], true
}

// Exists reports whether the archive holds name
func (g *GPKArchive) Exists(name string) bool {
	_, ok := g.GetEntry(name)
	return ok
}

// ExtractFile reads and, when needed, inflates an entry
func (g *GPKArchive) ExtractFile(name string) ([]byte, error) {
	entry, found := g.GetEntry(name)
	if !found {
		return nil, fmt.Errorf("file not found: %s", name)
	}

	data := make([]byte, entry.Header.ComprLen)
	if _, err := g.file.ReadAt(data, int64(entry.Header.Offset)); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if entry.Header.UncomprLen == 0 || entry.Header.UncomprLen == entry.Header.ComprLen {
		return data, nil
	}
	if len(data) < 6 || !isValidZlibHeader(data[4], data[5]) {
		return nil, fmt.Errorf("%s: unsupported compression header", name)
	}
	out, err := inflate(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

var _ Archive = (*GPKArchive)(nil)

// Open implements Archive
func (g *GPKArchive) Open(name string) (io.ReadCloser, error) {
	data, err := g.ExtractFile(name)
	if err != nil {
		return nil, err
	}
	return newBytesReadCloser(data), nil
}
