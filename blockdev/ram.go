package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// RAM is a mutable, byte-slice-backed block device. It does not own its
// backing storage: writes are visible to the caller's original slice, the
// same way the teacher's blockcache.WrapStream wraps a caller-supplied
// buffer instead of copying it.
type RAM struct {
	stream    io.ReadWriteSeeker
	blockSize int
	blocks    uint64
}

// NewRAM wraps data as a read-write block device with the given block size.
// len(data) must be an exact multiple of blockSize.
func NewRAM(data []byte, blockSize int) *RAM {
	if blockSize <= 0 {
		panic("blockdev: block size must be positive")
	}
	if len(data)%blockSize != 0 {
		panic("blockdev: backing slice is not a multiple of the block size")
	}
	return &RAM{
		stream:    bytesextra.NewReadWriteSeeker(data),
		blockSize: blockSize,
		blocks:    uint64(len(data) / blockSize),
	}
}

func (d *RAM) BlockSize() int     { return d.blockSize }
func (d *RAM) BlockCount() uint64 { return d.blocks }
func (d *RAM) IsReadOnly() bool   { return false }

func (d *RAM) ReadBlock(index uint64, buf []byte) error {
	checkArgs(d, index, buf)
	if _, err := d.stream.Seek(int64(index)*int64(d.blockSize), io.SeekStart); err != nil {
		return illegalBlockDeviceError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return illegalBlockDeviceError(err)
	}
	return nil
}

func (d *RAM) WriteBlock(index uint64, buf []byte) error {
	checkArgs(d, index, buf)
	if _, err := d.stream.Seek(int64(index)*int64(d.blockSize), io.SeekStart); err != nil {
		return illegalBlockDeviceError(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return illegalBlockDeviceError(err)
	}
	return nil
}
