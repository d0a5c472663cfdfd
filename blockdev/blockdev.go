// Package blockdev defines the fixed-size block device contract FFAT sits
// on top of, plus the three canonical in-memory implementations used by
// tests, the image builder, and read-only mounts.
package blockdev

import (
	"encoding/binary"

	ffaterrors "github.com/JM4ier/bitOS/errors"
)

// Device is a fixed-size block device. Implementations are addressable in
// blocks of BlockSize() bytes; ReadBlock and WriteBlock panic on argument
// errors (wrong buffer size, out-of-range index) because those are
// programming errors, not runtime failures -- the same convention the rest
// of this module's argument validation follows.
type Device interface {
	// BlockSize returns the fixed number of bytes per block. Constant for
	// the lifetime of a given device.
	BlockSize() int
	// BlockCount returns the total number of addressable blocks.
	BlockCount() uint64
	// IsReadOnly reports whether WriteBlock will always fail.
	IsReadOnly() bool
	// ReadBlock fills buf (which must be exactly BlockSize() bytes) with
	// the contents of block index.
	ReadBlock(index uint64, buf []byte) error
	// WriteBlock writes buf (which must be exactly BlockSize() bytes) to
	// block index. Fails with errors.KindIllegalOperation on read-only
	// devices.
	WriteBlock(index uint64, buf []byte) error
}

func checkArgs(d Device, index uint64, buf []byte) {
	if len(buf) != d.BlockSize() {
		panic("blockdev: buffer size does not match device block size")
	}
	if index >= d.BlockCount() {
		panic("blockdev: block index out of range")
	}
}

// ReadStruct reads block index into dst using little-endian field order, via
// dst's MarshalBinaryFrom-shaped Decode method. dst must implement Decode.
func ReadStruct(d Device, index uint64, dst interface {
	Decode(buf []byte) error
}) error {
	buf := make([]byte, d.BlockSize())
	if err := d.ReadBlock(index, buf); err != nil {
		return err
	}
	return dst.Decode(buf)
}

// WriteStruct serializes src (which must implement Encode) into a
// block-sized buffer and writes it to block index.
func WriteStruct(d Device, index uint64, src interface {
	Encode(buf []byte) error
}) error {
	buf := make([]byte, d.BlockSize())
	if err := src.Encode(buf); err != nil {
		return err
	}
	return d.WriteBlock(index, buf)
}

// byteOrder is the declared field order for every on-disk structure in this
// module: little-endian, per spec.md §6.2.
var byteOrder = binary.LittleEndian

// illegalWrite is the canned error every read-only device returns from
// WriteBlock.
func illegalWrite(detail string) error {
	return ffaterrors.ErrIllegalOperation.WithMessage(detail)
}

// illegalBlockDeviceError wraps a low-level I/O failure from the backing
// stream as a BlockDeviceError, per spec.md §7's propagation policy: "all
// block-device errors surface unchanged" in kind, even though the
// underlying cause here is an in-memory stream rather than real hardware.
func illegalBlockDeviceError(cause error) error {
	return ffaterrors.ErrBlockDeviceError.WrapError(cause)
}
