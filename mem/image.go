// Package mem provides the flat memory image the emulator executes from.
package mem

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is matched by every AccessError.
var ErrOutOfBounds = errors.New("address out of bounds")

// AccessError reports an access that does not fit inside the image.
type AccessError struct {
	Op   string // "read" or "write"
	Addr uint32
	Size int
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s of %d bytes at 0x%08X: %v", e.Op, e.Size, e.Addr, ErrOutOfBounds)
}

// Is makes errors.Is(err, ErrOutOfBounds) succeed for any AccessError.
func (e *AccessError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Image is a contiguous little-endian byte image loaded at a base linear
// address. Absolute accessors take linear addresses; the ...At accessors take
// offsets relative to the base.
type Image struct {
	base uint32
	data []byte
}

// NewImage creates a zero-filled image of size bytes at base.
func NewImage(base, size uint32) *Image {
	return &Image{base: base, data: make([]byte, size)}
}

// NewImageFromBytes creates an image at base holding a copy of data.
func NewImageFromBytes(base uint32, data []byte) *Image {
	img := &Image{base: base, data: make([]byte, len(data))}
	copy(img.data, data)
	return img
}

// BaseAddress returns the linear address of the first byte.
func (m *Image) BaseAddress() uint32 {
	return m.base
}

// Size returns the image size in bytes.
func (m *Image) Size() uint32 {
	return uint32(len(m.data))
}

// End returns the linear address one past the last byte.
func (m *Image) End() uint64 {
	return uint64(m.base) + uint64(len(m.data))
}

// Contains reports whether addr lies inside the image.
func (m *Image) Contains(addr uint32) bool {
	return m.inRange(addr, 1)
}

func (m *Image) inRange(addr uint32, size int) bool {
	if addr < m.base {
		return false
	}
	return uint64(addr-m.base)+uint64(size) <= uint64(len(m.data))
}

func (m *Image) slice(op string, addr uint32, size int) ([]byte, error) {
	if !m.inRange(addr, size) {
		return nil, &AccessError{Op: op, Addr: addr, Size: size}
	}
	off := addr - m.base
	return m.data[off : off+uint32(size)], nil
}

// Read8 reads a byte.
func (m *Image) Read8(addr uint32) (byte, error) {
	b, err := m.slice("read", addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write8 writes a byte.
func (m *Image) Write8(addr uint32, value byte) error {
	b, err := m.slice("write", addr, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// ReadLE32 reads a little-endian 32-bit word.
func (m *Image) ReadLE32(addr uint32) (uint32, error) {
	b, err := m.slice("read", addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteLE32 writes a little-endian 32-bit word.
func (m *Image) WriteLE32(addr uint32, value uint32) error {
	b, err := m.slice("write", addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// ReadLE32At reads a little-endian 32-bit word at an image-relative offset.
func (m *Image) ReadLE32At(offset uint32) (uint32, error) {
	return m.ReadLE32(m.base + offset)
}

// WriteLE32At writes a little-endian 32-bit word at an image-relative
// offset.
func (m *Image) WriteLE32At(offset uint32, value uint32) error {
	return m.WriteLE32(m.base+offset, value)
}

// ReadBytes copies n bytes starting at addr.
func (m *Image) ReadBytes(addr uint32, n int) ([]byte, error) {
	b, err := m.slice("read", addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Load copies data into the image starting at addr.
func (m *Image) Load(addr uint32, data []byte) error {
	b, err := m.slice("write", addr, len(data))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}
