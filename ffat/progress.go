package ffat

// fileProgress is the shared positional state for a stream of reads or
// writes against a single open file: the head sector (for size updates),
// the sector currently being read/written, and the number of bytes
// processed from the start of the file.
type fileProgress struct {
	head       uint64
	sector     uint64
	byteOffset uint64
}

// currentSectorOffset returns how many bytes of the current sector have
// already been processed.
func (p *fileProgress) currentSectorOffset() uint64 {
	return p.byteOffset % SectorSize
}

// ReadProgress is an opaque handle returned by Engine.OpenRead and consumed
// by Engine.Read/Engine.Seek. It additionally captures the file's size as
// of the open call, per spec.md §3.
type ReadProgress struct {
	progress fileProgress
	size     uint64
}

// WriteProgress is an opaque handle returned by Engine.OpenWrite and
// consumed by Engine.Write.
type WriteProgress struct {
	progress fileProgress
}
