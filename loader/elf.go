// Package loader provides ELF and flat binary loading for IA-32 programs.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/x86emu/mem"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultBaseAddress is where flat binaries are loaded unless told
// otherwise.
const DefaultBaseAddress = 0x00100000

// DefaultStackSize is the default stack size (4KB).
const DefaultStackSize = 0x1000

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the linear address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the linear address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments, in file order.
	Segments []Segment
}

// IsELF reports whether the file at path starts with the ELF magic.
func IsELF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, len(elf.ELFMAG))
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return bytes.Equal(magic, []byte(elf.ELFMAG)), nil
}

// Load parses an i386 ELF binary and returns a Program.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_386 {
		return nil, fmt.Errorf("not an i386 ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadFlat reads a raw binary and places it at base. The entry point is the
// base address.
func LoadFlat(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flat binary: %w", err)
	}
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("flat binary of %d bytes does not fit at 0x%08X", len(data), base)
	}

	return &Program{
		EntryPoint: base,
		Segments: []Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}, nil
}

// LoadFile loads an i386 ELF executable, or any other file as a flat binary
// at base entered entryOffset bytes in. The offset is ignored for ELF files.
func LoadFile(path string, base, entryOffset uint32) (*Program, error) {
	isELF, err := IsELF(path)
	if err != nil {
		return nil, err
	}
	if isELF {
		return Load(path)
	}

	prog, err := LoadFlat(path, base)
	if err != nil {
		return nil, err
	}
	prog.EntryPoint = base + entryOffset
	return prog, nil
}

// Bounds returns the lowest segment address and the address one past the
// highest segment end.
func (p *Program) Bounds() (low uint32, high uint64, err error) {
	if len(p.Segments) == 0 {
		return 0, 0, fmt.Errorf("program has no loadable segments")
	}

	low = p.Segments[0].VirtAddr
	for _, seg := range p.Segments {
		low = min(low, seg.VirtAddr)
		high = max(high, uint64(seg.VirtAddr)+uint64(seg.MemSize))
	}
	return low, high, nil
}

// NewImage lays the segments out in one flat image spanning the lowest to
// the highest segment, followed by stackSize bytes of stack. It returns the
// image and the initial stack pointer, the address just past the stack.
func (p *Program) NewImage(stackSize uint32) (*mem.Image, uint32, error) {
	low, high, err := p.Bounds()
	if err != nil {
		return nil, 0, err
	}

	end := high + uint64(stackSize)
	if end > 1<<32 {
		return nil, 0, fmt.Errorf("image 0x%08X-0x%X does not fit in 32 bits", low, end)
	}

	img := mem.NewImage(low, uint32(end-uint64(low)))
	for _, seg := range p.Segments {
		if err := img.Load(seg.VirtAddr, seg.Data); err != nil {
			return nil, 0, fmt.Errorf("failed to place segment at 0x%08X: %w", seg.VirtAddr, err)
		}
	}

	// An image ending at 2^32 starts with esp = 0; the first push wraps.
	return img, uint32(end), nil
}
