package ffat

import (
	"github.com/JM4ier/bitOS/blockdev"
	ffaterrors "github.com/JM4ier/bitOS/errors"
	"github.com/JM4ier/bitOS/internal/diskutil"
	"github.com/JM4ier/bitOS/vpath"
)

// Engine is a mounted FFAT volume: sector allocation, directory semantics,
// and streaming file I/O on top of a blockdev.Device. It implements
// fsapi.FileSystem.
type Engine struct {
	device blockdev.Device
}

// Mount opens an existing FFAT volume. It fails with InvalidSuperBlock when
// the device's block size is not SectorSize or when the root sector has
// TableBegin != 1, Sectors == 0 or Root == 0. The root sector is not checked
// further, and the allocation table and directories are not checked at all;
// other corruption surfaces as errors from later operations.
func Mount(device blockdev.Device) (*Engine, error) {
	if device.BlockSize() != SectorSize {
		return nil, ffaterrors.ErrInvalidSuperBlock.WithMessage("block size must be 4096")
	}
	e := &Engine{device: device}
	root, err := e.readRootSector()
	if err != nil {
		return nil, err
	}
	if root.TableBegin != 1 || root.Sectors == 0 || root.Root == 0 {
		return nil, ffaterrors.ErrInvalidSuperBlock.WithMessage("root sector is malformed")
	}
	return e, nil
}

// Format initializes a fresh FFAT volume on device and returns an Engine
// mounted on it, following spec.md §4.3.
func Format(device blockdev.Device) (*Engine, error) {
	if device.IsReadOnly() {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("cannot format a read-only device")
	}
	if device.BlockSize() != SectorSize {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("block size must be 4096")
	}
	if device.BlockCount() < 8 {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("device must have at least 8 blocks")
	}

	sectors := device.BlockCount()
	fatSectors := ceilDiv(sectors, EntriesPerTableSector)
	dataBegin := fatSectors + 1

	var table []SectorEntry
	reserved := SectorEntry{Kind: KindReserved}
	for i := uint64(0); i < fatSectors+1; i++ {
		table = append(table, reserved)
	}
	table = append(table, SectorEntry{Kind: KindDir, Size: 0, Next: 0})

	freeCount := sectors - fatSectors - 2
	for i := uint64(0); i < freeCount; i++ {
		next := dataBegin + 2 + i
		if i == freeCount-1 {
			next = 0
		}
		table = append(table, SectorEntry{Kind: KindFree, Next: next})
	}
	for uint64(len(table))%EntriesPerTableSector != 0 {
		table = append(table, reserved)
	}

	e := &Engine{device: device}
	for i := uint64(0); i < fatSectors; i++ {
		var sector AllocationTableSector
		copy(sector.Entries[:], table[i*EntriesPerTableSector:(i+1)*EntriesPerTableSector])
		if err := blockdev.WriteStruct(device, 1+i, sector); err != nil {
			return nil, err
		}
	}

	root := RootSector{
		TableBegin: 1,
		Sectors:    sectors,
		Root:       dataBegin,
		Free:       dataBegin + 1,
	}
	if err := e.writeRootSector(root); err != nil {
		return nil, err
	}

	if err := e.writeDirEntries(dataBegin, nil); err != nil {
		return nil, err
	}

	return e, nil
}

// IsReadOnly reports whether the underlying device rejects writes.
func (e *Engine) IsReadOnly() bool {
	return e.device.IsReadOnly()
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// readRootSector reads and decodes block 0.
func (e *Engine) readRootSector() (RootSector, error) {
	var root RootSector
	if err := blockdev.ReadStruct(e.device, 0, &root); err != nil {
		return RootSector{}, err
	}
	return root, nil
}

func (e *Engine) writeRootSector(root RootSector) error {
	return blockdev.WriteStruct(e.device, 0, root)
}

// locate translates a sector address into its containing allocation table
// sector and the index of its entry within that sector, per spec.md §4.4.
// It returns ok=false when the address falls into the reserved region or
// beyond the device.
func (e *Engine) locate(root RootSector, addr uint64) (tableAddr uint64, index uint64, ok bool) {
	if addr < root.Root || addr >= root.Sectors {
		return 0, 0, false
	}
	return addr/EntriesPerTableSector + root.TableBegin, addr % EntriesPerTableSector, true
}

// readMeta reads the 32-byte allocation table entry for addr, per spec.md
// §4.5.
func (e *Engine) readMeta(addr uint64) (SectorEntry, error) {
	root, err := e.readRootSector()
	if err != nil {
		return SectorEntry{}, err
	}
	tableAddr, index, ok := e.locate(root, addr)
	if !ok {
		return SectorEntry{}, ffaterrors.ErrIllegalOperation.WithMessage("address is outside the data region")
	}
	var table AllocationTableSector
	if err := blockdev.ReadStruct(e.device, tableAddr, &table); err != nil {
		return SectorEntry{}, err
	}
	return table.Entries[index], nil
}

// writeMeta read-modify-writes the allocation table sector containing
// addr's entry.
func (e *Engine) writeMeta(addr uint64, entry SectorEntry) error {
	root, err := e.readRootSector()
	if err != nil {
		return err
	}
	tableAddr, index, ok := e.locate(root, addr)
	if !ok {
		return ffaterrors.ErrIllegalOperation.WithMessage("address is outside the data region")
	}
	var table AllocationTableSector
	if err := blockdev.ReadStruct(e.device, tableAddr, &table); err != nil {
		return err
	}
	table.Entries[index] = entry
	return blockdev.WriteStruct(e.device, tableAddr, table)
}

// allocate removes and returns the head of the free list, per spec.md §4.6.
func (e *Engine) allocate() (uint64, error) {
	root, err := e.readRootSector()
	if err != nil {
		return 0, err
	}
	addr := root.Free
	meta, err := e.readMeta(addr)
	if err != nil {
		return 0, err
	}
	if meta.Next == 0 {
		return 0, ffaterrors.ErrNotEnoughSpace
	}
	root.Free = meta.Next
	if err := e.writeRootSector(root); err != nil {
		return 0, err
	}
	if err := e.writeMeta(addr, SectorEntry{Kind: KindFree}); err != nil {
		return 0, err
	}
	return addr, nil
}

// freeChain walks the chain starting at addr, marking every sector Free,
// then prepends the whole run to the free list, per spec.md §4.6.
func (e *Engine) freeChain(addr uint64) error {
	root, err := e.readRootSector()
	if err != nil {
		return err
	}
	current := addr
	for {
		meta, err := e.readMeta(current)
		if err != nil {
			return err
		}
		next := meta.Next
		meta.Kind = KindFree
		meta.Size = 0
		if next == 0 {
			meta.Next = root.Free
			if err := e.writeMeta(current, meta); err != nil {
				return err
			}
			break
		}
		if err := e.writeMeta(current, meta); err != nil {
			return err
		}
		current = next
	}
	root.Free = addr
	return e.writeRootSector(root)
}

// walk resolves path to the address of its target sector, per spec.md §4.7.
func (e *Engine) walk(path vpath.Path) (uint64, error) {
	root, err := e.readRootSector()
	if err != nil {
		return 0, err
	}
	return e.walkFrom(root.Root, path)
}

func (e *Engine) walkFrom(addr uint64, path vpath.Path) (uint64, error) {
	head, tail := path.HeadTail()
	if head == nil {
		return addr, nil
	}
	entries, err := e.readDirEntries(addr)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.Name.Equal(vpath.Filename(head)) {
			return e.walkFrom(entry.Addr, tail)
		}
	}
	return 0, ffaterrors.ErrNotFound
}

// readDirEntries reads and decodes the directory payload rooted at addr,
// per spec.md §4.8.
func (e *Engine) readDirEntries(addr uint64) ([]DirEntry, error) {
	meta, err := e.readMeta(addr)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindDir {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("address does not refer to a directory")
	}
	raw, err := e.readChainBytes(addr, meta.Size)
	if err != nil {
		return nil, err
	}
	return decodeDirEntries(raw)
}

// readChainBytes reads ceil(size/SectorSize) sectors following next
// pointers from addr and returns the first size bytes of their
// concatenation.
func (e *Engine) readChainBytes(addr uint64, size uint64) ([]byte, error) {
	numSectors := ceilDiv(size, SectorSize)
	raw := make([]byte, 0, numSectors*SectorSize)
	current := addr
	block := make([]byte, SectorSize)
	for i := uint64(0); i < numSectors; i++ {
		if err := e.device.ReadBlock(current, block); err != nil {
			return nil, err
		}
		raw = append(raw, block...)
		if i < numSectors-1 {
			meta, err := e.readMeta(current)
			if err != nil {
				return nil, err
			}
			if meta.Next == 0 {
				return nil, ffaterrors.ErrInternalError.WithMessage("directory chain ended before expected sector count")
			}
			current = meta.Next
		}
	}
	return raw[:size], nil
}

// writeDirEntries serializes entries and writes them across the chain
// rooted at addr, allocating continuation sectors as needed and freeing any
// surplus tail, per spec.md §4.8.
func (e *Engine) writeDirEntries(addr uint64, entries []DirEntry) error {
	raw, err := encodeDirEntries(entries)
	if err != nil {
		return err
	}

	headMeta, err := e.readMeta(addr)
	if err != nil {
		return err
	}
	headMeta.Size = uint64(len(raw))
	if err := e.writeMeta(addr, headMeta); err != nil {
		return err
	}

	numSectors := ceilDiv(uint64(len(raw)), SectorSize)
	if numSectors == 0 {
		numSectors = 1
	}

	current := addr
	written := uint64(0)
	for i := uint64(0); i < numSectors; i++ {
		block := make([]byte, SectorSize)
		remaining := uint64(len(raw)) - written
		n := remaining
		if n > SectorSize {
			n = SectorSize
		}
		if n > 0 {
			diskutil.CopyOffset(raw, block, int(n), int(written), 0)
		}
		if err := e.device.WriteBlock(current, block); err != nil {
			return err
		}
		written += n

		if i == numSectors-1 {
			break
		}

		meta, err := e.readMeta(current)
		if err != nil {
			return err
		}
		next := meta.Next
		if next == 0 {
			next, err = e.allocate()
			if err != nil {
				return err
			}
			if err := e.writeMeta(next, SectorEntry{Kind: KindData}); err != nil {
				return err
			}
			meta.Next = next
			if err := e.writeMeta(current, meta); err != nil {
				return err
			}
		}
		current = next
	}

	tailMeta, err := e.readMeta(current)
	if err != nil {
		return err
	}
	if tailMeta.Next != 0 {
		surplus := tailMeta.Next
		tailMeta.Next = 0
		if err := e.writeMeta(current, tailMeta); err != nil {
			return err
		}
		if err := e.freeChain(surplus); err != nil {
			return err
		}
	}
	return nil
}

// ReadDir returns the filenames of path's directory entries.
func (e *Engine) ReadDir(path vpath.Path) ([]vpath.Filename, error) {
	addr, err := e.walk(path)
	if err != nil {
		return nil, err
	}
	entries, err := e.readDirEntries(addr)
	if err != nil {
		return nil, err
	}
	names := make([]vpath.Filename, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names, nil
}

// ExistsFile reports whether path resolves to a File sector. Per spec.md
// §9, a NotFound resolution failure collapses to false, but every other
// error (e.g. a block device fault) propagates.
func (e *Engine) ExistsFile(path vpath.Path) (bool, error) {
	return e.exists(path, KindFile)
}

// ExistsDir reports whether path resolves to a Dir sector.
func (e *Engine) ExistsDir(path vpath.Path) (bool, error) {
	return e.exists(path, KindDir)
}

func (e *Engine) exists(path vpath.Path, kind SectorKind) (bool, error) {
	addr, err := e.walk(path)
	if err != nil {
		if ffatErr, ok := err.(*ffaterrors.FFATError); ok && ffatErr.Kind() == ffaterrors.KindNotFound {
			return false, nil
		}
		return false, err
	}
	meta, err := e.readMeta(addr)
	if err != nil {
		return false, err
	}
	return meta.Kind == kind, nil
}

// create allocates a new sector with meta, links it into parent's directory
// under path's final component, per spec.md §4.9.
func (e *Engine) create(path vpath.Path, meta SectorEntry) (uint64, error) {
	parent, ok := path.Parent()
	if !ok {
		return 0, ffaterrors.ErrIllegalOperation.WithMessage("cannot create root")
	}
	parentAddr, err := e.walk(parent)
	if err != nil {
		return 0, err
	}
	parentMeta, err := e.readMeta(parentAddr)
	if err != nil {
		return 0, err
	}
	if parentMeta.Kind != KindDir {
		return 0, ffaterrors.ErrIllegalOperation.WithMessage("parent is not a directory")
	}

	name, _ := path.Name()
	if len(name) > maxFilenameLength {
		return 0, ffaterrors.ErrIllegalOperation.WithMessage("name too long")
	}

	entries, err := e.readDirEntries(parentAddr)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.Name.Equal(name) {
			return 0, ffaterrors.ErrIllegalOperation.WithMessage("exists")
		}
	}

	addr, err := e.allocate()
	if err != nil {
		return 0, err
	}
	if err := e.writeMeta(addr, meta); err != nil {
		return 0, err
	}

	entries = append(entries, DirEntry{Addr: addr, Name: name})
	if err := e.writeDirEntries(parentAddr, entries); err != nil {
		return 0, err
	}
	return addr, nil
}

// CreateFile creates a new, empty file at path.
func (e *Engine) CreateFile(path vpath.Path) error {
	_, err := e.create(path, SectorEntry{Kind: KindFile})
	return err
}

// CreateDir creates a new, empty directory at path.
func (e *Engine) CreateDir(path vpath.Path) error {
	addr, err := e.create(path, SectorEntry{Kind: KindDir})
	if err != nil {
		return err
	}
	return e.writeDirEntries(addr, nil)
}

// Delete removes path and, if it is a directory, all of its descendants,
// per spec.md §4.9.
func (e *Engine) Delete(path vpath.Path) error {
	if path.IsRoot() {
		return ffaterrors.ErrIllegalOperation.WithMessage("cannot delete root")
	}
	addr, err := e.walk(path)
	if err != nil {
		return err
	}
	meta, err := e.readMeta(addr)
	if err != nil {
		return err
	}
	if meta.Kind == KindDir {
		if err := e.deleteChildren(path); err != nil {
			return err
		}
	}

	parent, _ := path.Parent()
	parentAddr, err := e.walk(parent)
	if err != nil {
		return err
	}
	entries, err := e.readDirEntries(parentAddr)
	if err != nil {
		return err
	}
	name, _ := path.Name()
	remaining := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Name.Equal(name) {
			remaining = append(remaining, entry)
		}
	}
	if err := e.writeDirEntries(parentAddr, remaining); err != nil {
		return err
	}
	return e.freeChain(addr)
}

func (e *Engine) deleteChildren(path vpath.Path) error {
	addr, err := e.walk(path)
	if err != nil {
		return err
	}
	entries, err := e.readDirEntries(addr)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := e.Delete(path.Concat(entry.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties a file or directory without deleting it, per spec.md §4.9.
func (e *Engine) Clear(path vpath.Path) error {
	addr, err := e.walk(path)
	if err != nil {
		return err
	}
	meta, err := e.readMeta(addr)
	if err != nil {
		return err
	}
	switch meta.Kind {
	case KindDir:
		if err := e.deleteChildren(path); err != nil {
			return err
		}
		if err := e.clearChain(addr); err != nil {
			return err
		}
		return e.writeDirEntries(addr, nil)
	case KindFile:
		return e.clearChain(addr)
	default:
		return ffaterrors.ErrIllegalOperation.WithMessage("can only clear files or directories")
	}
}

// clearChain frees every sector after addr in its chain and resets addr's
// own size and next pointer, preserving the head sector itself.
func (e *Engine) clearChain(addr uint64) error {
	meta, err := e.readMeta(addr)
	if err != nil {
		return err
	}
	if meta.Next != 0 {
		if err := e.freeChain(meta.Next); err != nil {
			return err
		}
	}
	meta.Size = 0
	meta.Next = 0
	return e.writeMeta(addr, meta)
}

// OpenRead opens path for streaming reads, per spec.md §4.10.
func (e *Engine) OpenRead(path vpath.Path) (*ReadProgress, error) {
	addr, err := e.walk(path)
	if err != nil {
		return nil, err
	}
	meta, err := e.readMeta(addr)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindFile {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("not a file")
	}
	return &ReadProgress{
		progress: fileProgress{head: addr, sector: addr, byteOffset: 0},
		size:     meta.Size,
	}, nil
}

// Read fills buf from progress's current position, following the sector
// chain as needed, per spec.md §4.10.
func (e *Engine) Read(rp *ReadProgress, buf []byte) (int, error) {
	p := &rp.progress
	if p.sector == 0 {
		return 0, nil
	}

	bufIdx := 0
	block := make([]byte, SectorSize)
	for bufIdx < len(buf) {
		if p.byteOffset >= rp.size {
			p.sector = 0
			break
		}
		sectorOff := p.currentSectorOffset()
		remainingInSector := SectorSize - sectorOff
		remainingInBuf := uint64(len(buf) - bufIdx)
		remainingInFile := rp.size - p.byteOffset
		take := min3(remainingInSector, remainingInBuf, remainingInFile)
		if take == 0 {
			break
		}

		if err := e.device.ReadBlock(p.sector, block); err != nil {
			return bufIdx, err
		}
		diskutil.CopyOffset(block, buf, int(take), int(sectorOff), bufIdx)
		bufIdx += int(take)
		p.byteOffset += take

		if p.currentSectorOffset() == 0 {
			meta, err := e.readMeta(p.sector)
			if err != nil {
				return bufIdx, err
			}
			if meta.Next == 0 {
				p.sector = 0
				return bufIdx, nil
			}
			p.sector = meta.Next
		}
	}
	return bufIdx, nil
}

// Seek advances progress's byte offset and re-resolves its current sector
// by walking next pointers from head, resolving the open question in
// spec.md §9 in favor of the "re-walk" recommendation.
func (e *Engine) Seek(rp *ReadProgress, delta uint64) error {
	p := &rp.progress
	p.byteOffset += delta
	hops := p.byteOffset / SectorSize

	current := p.head
	for i := uint64(0); i < hops; i++ {
		meta, err := e.readMeta(current)
		if err != nil {
			return err
		}
		if meta.Next == 0 {
			p.sector = 0
			return nil
		}
		current = meta.Next
	}
	p.sector = current
	return nil
}

// OpenWrite opens path for streaming writes, discarding any existing
// content, per spec.md §4.11.
func (e *Engine) OpenWrite(path vpath.Path) (*WriteProgress, error) {
	addr, err := e.walk(path)
	if err != nil {
		return nil, err
	}
	meta, err := e.readMeta(addr)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindFile {
		return nil, ffaterrors.ErrIllegalOperation.WithMessage("not a file")
	}
	if err := e.clearChain(addr); err != nil {
		return nil, err
	}
	return &WriteProgress{progress: fileProgress{head: addr, sector: addr, byteOffset: 0}}, nil
}

// Write splices buf into progress's sector chain, allocating continuation
// sectors as needed, per spec.md §4.11. If allocation fails with
// NotEnoughSpace partway through, the bytes already spliced into on-disk
// sectors are kept and the head's size is updated to include them before
// the error is returned, matching the documented best-effort behavior in
// spec.md §8.
func (e *Engine) Write(wp *WriteProgress, buf []byte) error {
	p := &wp.progress
	bufIdx := 0
	block := make([]byte, SectorSize)
	var writeErr error

loop:
	for bufIdx < len(buf) {
		sectorOff := p.currentSectorOffset()
		take := SectorSize - sectorOff
		remainingBuf := uint64(len(buf) - bufIdx)
		if take > remainingBuf {
			take = remainingBuf
		}

		if err := e.device.ReadBlock(p.sector, block); err != nil {
			writeErr = err
			break loop
		}
		diskutil.CopyOffset(buf, block, int(take), bufIdx, int(sectorOff))
		if err := e.device.WriteBlock(p.sector, block); err != nil {
			writeErr = err
			break loop
		}
		bufIdx += int(take)
		p.byteOffset += take

		if p.currentSectorOffset() == 0 {
			newAddr, err := e.allocate()
			if err != nil {
				writeErr = err
				break loop
			}
			if err := e.writeMeta(newAddr, SectorEntry{Kind: KindData}); err != nil {
				writeErr = err
				break loop
			}
			prevMeta, err := e.readMeta(p.sector)
			if err != nil {
				writeErr = err
				break loop
			}
			prevMeta.Next = newAddr
			if err := e.writeMeta(p.sector, prevMeta); err != nil {
				writeErr = err
				break loop
			}
			p.sector = newAddr
		}
	}

	if bufIdx > 0 {
		headMeta, err := e.readMeta(p.head)
		if err == nil {
			headMeta.Size += uint64(bufIdx)
			if werr := e.writeMeta(p.head, headMeta); werr != nil && writeErr == nil {
				writeErr = werr
			}
		} else if writeErr == nil {
			writeErr = err
		}
	}
	return writeErr
}
