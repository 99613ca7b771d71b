// Package store keeps the lighting configuration image in a file, the way
// the firmware keeps it in a flash page.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

var magic = [4]byte{'K', 'L', 'T', '1'}

// header is magic + payload length; a CRC-32 of the payload trails it.
const (
	headerSize  = 8
	trailerSize = 4
)

// ErrCorrupt is returned when the file is not a valid image.
var ErrCorrupt = errors.New("store: corrupt image")

type File struct {
	Path string
}

// Save writes img, replacing the previous image atomically.
func (f File) Save(img []byte) error {
	var buf bytes.Buffer
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(img)))
	buf.Write(img)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(img))

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".keylight-*")
	if err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("store save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	return nil
}

// Load returns the saved image. A missing file is reported with an error
// satisfying os.IsNotExist.
func (f File) Load() ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if len(b) < headerSize+trailerSize || !bytes.Equal(b[:4], magic[:]) {
		return nil, ErrCorrupt
	}
	n := int(binary.BigEndian.Uint32(b[4:8]))
	if len(b) != headerSize+n+trailerSize {
		return nil, fmt.Errorf("%w: length %d does not match file size %d", ErrCorrupt, n, len(b))
	}
	img := b[headerSize : headerSize+n]
	if crc32.ChecksumIEEE(img) != binary.BigEndian.Uint32(b[headerSize+n:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return img, nil
}
