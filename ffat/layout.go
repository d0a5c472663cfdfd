// Package ffat implements the FFAT on-disk file system: sector allocation
// and chaining, directory semantics, and streaming file I/O on top of a
// blockdev.Device. This file defines the bit-exact on-disk structures from
// spec.md §6.2: the sector entry, the allocation table sector, and the root
// sector.
package ffat

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	ffaterrors "github.com/JM4ier/bitOS/errors"
)

// SectorSize is the fixed block size FFAT requires of its underlying
// device, per spec.md §3.
const SectorSize = 4096

// EntriesPerTableSector is the number of 32-byte sector entries packed into
// one 4096-byte allocation table sector.
const EntriesPerTableSector = SectorSize / sectorEntrySize

const sectorEntrySize = 32
const rootSectorNameSize = 64
const maxFilenameLength = 255

// SectorKind identifies what a sector's head entry is used for.
type SectorKind uint8

const (
	KindFree SectorKind = iota
	KindReserved
	KindData
	KindFile
	KindDir
)

func (k SectorKind) String() string {
	switch k {
	case KindFree:
		return "Free"
	case KindReserved:
		return "Reserved"
	case KindData:
		return "Data"
	case KindFile:
		return "File"
	case KindDir:
		return "Dir"
	default:
		return "Unknown"
	}
}

// SectorEntry is the 32-byte allocation table record for one sector
// address: its kind, the byte length of its payload (meaningful only on
// File/Dir head sectors), and the address of the next sector in its chain
// (0 = end).
type SectorEntry struct {
	Kind SectorKind
	Size uint64
	Next uint64
}

// Encode serializes the entry into a 32-byte little-endian buffer using a
// fixed-capacity bytewriter, following the field-by-field binary.Write
// idiom used elsewhere in this codebase for on-disk structures.
func (e SectorEntry) Encode(buf []byte) error {
	if len(buf) != sectorEntrySize {
		return ffaterrors.ErrInternalError.WithMessage("sector entry buffer must be 32 bytes")
	}
	for i := range buf {
		buf[i] = 0
	}
	w := bytewriter.New(buf)
	if _, err := w.Write([]byte{byte(e.Kind)}); err != nil {
		return ffaterrors.ErrInternalError.WrapError(err)
	}
	// Bytes [1:8) are padding to reach 8-byte alignment for Size.
	if _, err := w.Write(make([]byte, 7)); err != nil {
		return ffaterrors.ErrInternalError.WrapError(err)
	}
	if err := binary.Write(w, binary.LittleEndian, e.Size); err != nil {
		return ffaterrors.ErrInternalError.WrapError(err)
	}
	if err := binary.Write(w, binary.LittleEndian, e.Next); err != nil {
		return ffaterrors.ErrInternalError.WrapError(err)
	}
	// Remaining bytes stay zero (reserved).
	return nil
}

// Decode parses a 32-byte buffer into the entry.
func (e *SectorEntry) Decode(buf []byte) error {
	if len(buf) != sectorEntrySize {
		return ffaterrors.ErrInternalError.WithMessage("sector entry buffer must be 32 bytes")
	}
	e.Kind = SectorKind(buf[0])
	e.Size = binary.LittleEndian.Uint64(buf[8:16])
	e.Next = binary.LittleEndian.Uint64(buf[16:24])
	return nil
}

// AllocationTableSector is one 4096-byte sector of the allocation table: an
// array of EntriesPerTableSector sector entries. The concatenation of every
// allocation table sector, in address order starting at RootSector.TableBegin,
// forms the FAT: entry i describes sector i of the volume.
type AllocationTableSector struct {
	Entries [EntriesPerTableSector]SectorEntry
}

// Encode serializes the table sector into a 4096-byte buffer.
func (t AllocationTableSector) Encode(buf []byte) error {
	if len(buf) != SectorSize {
		return ffaterrors.ErrInternalError.WithMessage("allocation table buffer must be 4096 bytes")
	}
	for i, entry := range t.Entries {
		if err := entry.Encode(buf[i*sectorEntrySize : (i+1)*sectorEntrySize]); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a 4096-byte buffer into the table sector.
func (t *AllocationTableSector) Decode(buf []byte) error {
	if len(buf) != SectorSize {
		return ffaterrors.ErrInternalError.WithMessage("allocation table buffer must be 4096 bytes")
	}
	for i := range t.Entries {
		if err := t.Entries[i].Decode(buf[i*sectorEntrySize : (i+1)*sectorEntrySize]); err != nil {
			return err
		}
	}
	return nil
}

// RootSector is the volume's block 0: its name, the address of the first
// allocation table sector, the total sector count, the root directory's
// head sector address, and the head of the free list.
type RootSector struct {
	Name       [rootSectorNameSize]byte
	TableBegin uint64
	Sectors    uint64
	Root       uint64
	Free       uint64
}

// Encode serializes the root sector into a 4096-byte buffer.
func (r RootSector) Encode(buf []byte) error {
	if len(buf) != SectorSize {
		return ffaterrors.ErrInternalError.WithMessage("root sector buffer must be 4096 bytes")
	}
	for i := range buf {
		buf[i] = 0
	}
	w := bytewriter.New(buf)
	if _, err := w.Write(r.Name[:]); err != nil {
		return ffaterrors.ErrInternalError.WrapError(err)
	}
	for _, field := range []uint64{r.TableBegin, r.Sectors, r.Root, r.Free} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return ffaterrors.ErrInternalError.WrapError(err)
		}
	}
	return nil
}

// Decode parses a 4096-byte buffer into the root sector.
func (r *RootSector) Decode(buf []byte) error {
	if len(buf) != SectorSize {
		return ffaterrors.ErrInternalError.WithMessage("root sector buffer must be 4096 bytes")
	}
	copy(r.Name[:], buf[:rootSectorNameSize])
	off := rootSectorNameSize
	r.TableBegin = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	r.Sectors = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	r.Root = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	r.Free = binary.LittleEndian.Uint64(buf[off : off+8])
	return nil
}
