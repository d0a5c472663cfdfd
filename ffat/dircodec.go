package ffat

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	ffaterrors "github.com/JM4ier/bitOS/errors"
	"github.com/JM4ier/bitOS/vpath"
)

// DirEntry is one record of a directory payload: the address of the child's
// head sector and its filename.
type DirEntry struct {
	Addr uint64
	Name vpath.Filename
}

// encodeDirEntries serializes entries per spec.md §6.2: a u64 count, then
// `count` addresses, then `count` length-prefixed names. Addresses are
// grouped before names so every u64 field stays naturally aligned, which
// the spec requires implementers preserve for image-interchange
// compatibility.
func encodeDirEntries(entries []DirEntry) ([]byte, error) {
	size := 8 + 8*len(entries)
	for _, e := range entries {
		if len(e.Name) > maxFilenameLength {
			return nil, ffaterrors.ErrIllegalOperation.WithMessage("name too long")
		}
		size += 1 + len(e.Name)
	}

	buf := make([]byte, size)
	w := bytewriter.New(buf)

	if err := binary.Write(w, binary.LittleEndian, uint64(len(entries))); err != nil {
		return nil, ffaterrors.ErrInternalError.WrapError(err)
	}
	for _, e := range entries {
		if err := binary.Write(w, binary.LittleEndian, e.Addr); err != nil {
			return nil, ffaterrors.ErrInternalError.WrapError(err)
		}
	}
	for _, e := range entries {
		if _, err := w.Write([]byte{byte(len(e.Name))}); err != nil {
			return nil, ffaterrors.ErrInternalError.WrapError(err)
		}
		if len(e.Name) > 0 {
			if _, err := w.Write(e.Name); err != nil {
				return nil, ffaterrors.ErrInternalError.WrapError(err)
			}
		}
	}
	return buf, nil
}

// decodeDirEntries is the inverse of encodeDirEntries.
func decodeDirEntries(buf []byte) ([]DirEntry, error) {
	if len(buf) < 8 {
		return nil, ffaterrors.ErrInternalError.WithMessage("directory payload truncated")
	}
	count := binary.LittleEndian.Uint64(buf[:8])
	offset := 8

	addrs := make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		if offset+8 > len(buf) {
			return nil, ffaterrors.ErrInternalError.WithMessage("directory payload truncated reading addresses")
		}
		addrs[i] = binary.LittleEndian.Uint64(buf[offset : offset+8])
		offset += 8
	}

	entries := make([]DirEntry, count)
	for i := uint64(0); i < count; i++ {
		if offset >= len(buf) {
			return nil, ffaterrors.ErrInternalError.WithMessage("directory payload truncated reading name length")
		}
		nameLen := int(buf[offset])
		offset++
		if offset+nameLen > len(buf) {
			return nil, ffaterrors.ErrInternalError.WithMessage("directory payload truncated reading name bytes")
		}
		name := make(vpath.Filename, nameLen)
		copy(name, buf[offset:offset+nameLen])
		offset += nameLen
		entries[i] = DirEntry{Addr: addrs[i], Name: name}
	}
	return entries, nil
}
