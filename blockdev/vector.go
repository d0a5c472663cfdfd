package blockdev

// Vector is an owned-storage block device: unlike RAM and ROM, it allocates
// and holds its own backing slice rather than wrapping a caller-supplied
// one. The image builder CLI uses it to format a fresh image in memory
// before writing the result out to a file.
type Vector struct {
	ram *RAM
}

// NewVector allocates a zero-filled Vector device of blockCount blocks of
// blockSize bytes each.
func NewVector(blockSize int, blockCount uint64) *Vector {
	data := make([]byte, int(blockCount)*blockSize)
	return &Vector{ram: NewRAM(data, blockSize)}
}

func (d *Vector) BlockSize() int     { return d.ram.BlockSize() }
func (d *Vector) BlockCount() uint64 { return d.ram.BlockCount() }
func (d *Vector) IsReadOnly() bool   { return false }

func (d *Vector) ReadBlock(index uint64, buf []byte) error {
	return d.ram.ReadBlock(index, buf)
}

func (d *Vector) WriteBlock(index uint64, buf []byte) error {
	return d.ram.WriteBlock(index, buf)
}

// Bytes returns the entire backing image as a freshly-copied contiguous
// slice, for writing out to a file or embedding in a kernel binary.
func (d *Vector) Bytes() []byte {
	buf := make([]byte, int(d.BlockCount())*d.BlockSize())
	for i := uint64(0); i < d.BlockCount(); i++ {
		if err := d.ram.ReadBlock(i, buf[int(i)*d.BlockSize():int(i+1)*d.BlockSize()]); err != nil {
			panic(err)
		}
	}
	return buf
}
