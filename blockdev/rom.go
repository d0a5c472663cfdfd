package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// ROM is an immutable, byte-slice-backed block device. WriteBlock always
// fails with IllegalOperation, matching the "ROM" block device variant
// required by spec.md §6.1 for read-only mounts (e.g. inspecting a built
// image without risking a mutation).
type ROM struct {
	stream    io.ReadWriteSeeker
	blockSize int
	blocks    uint64
}

// NewROM wraps data as a read-only block device with the given block size.
// len(data) must be an exact multiple of blockSize.
func NewROM(data []byte, blockSize int) *ROM {
	if blockSize <= 0 {
		panic("blockdev: block size must be positive")
	}
	if len(data)%blockSize != 0 {
		panic("blockdev: backing slice is not a multiple of the block size")
	}
	return &ROM{
		stream:    bytesextra.NewReadWriteSeeker(data),
		blockSize: blockSize,
		blocks:    uint64(len(data) / blockSize),
	}
}

func (d *ROM) BlockSize() int     { return d.blockSize }
func (d *ROM) BlockCount() uint64 { return d.blocks }
func (d *ROM) IsReadOnly() bool   { return true }

func (d *ROM) ReadBlock(index uint64, buf []byte) error {
	checkArgs(d, index, buf)
	if _, err := d.stream.Seek(int64(index)*int64(d.blockSize), io.SeekStart); err != nil {
		return illegalBlockDeviceError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return illegalBlockDeviceError(err)
	}
	return nil
}

func (d *ROM) WriteBlock(index uint64, buf []byte) error {
	checkArgs(d, index, buf)
	return illegalWrite("cannot write to a read-only block device")
}
