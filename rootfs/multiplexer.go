// Package rootfs implements the root file system multiplexer: it layers
// any number of mounted fsapi.FileSystem instances into a single namespace,
// routes paths to the mount with the longest matching prefix, and owns the
// descriptor table shared across all of them.
package rootfs

import (
	"github.com/hashicorp/go-multierror"

	ffaterrors "github.com/JM4ier/bitOS/errors"
	"github.com/JM4ier/bitOS/fsapi"
	"github.com/JM4ier/bitOS/vpath"
)

type slot struct {
	fs       mounted
	detached bool
}

// Multiplexer layers mounted file systems into one namespace and tracks
// open file descriptors across all of them. Create one with New; a
// Multiplexer from New mounts nothing. Descriptors are only valid for the
// lifetime of the mount they were opened against.
type Multiplexer struct {
	mounts           []*slot
	nextFD           int64
	readDescriptors  map[int64]*slot
	writeDescriptors map[int64]*slot
}

// New returns an empty Multiplexer.
func New() *Multiplexer {
	return &Multiplexer{
		nextFD:           1,
		readDescriptors:  make(map[int64]*slot),
		writeDescriptors: make(map[int64]*slot),
	}
}

// Attach mounts fs at mountPoint. The first file system attached must mount
// at root; every subsequent attach requires that the new file system's root
// directory not share any entry names with whatever the multiplexer already
// resolves at mountPoint, per spec.md §5.
func Attach[FS fsapi.FileSystem[R, W], R any, W any](m *Multiplexer, fs FS, mountPoint vpath.Path) error {
	wrapped := newMountedFS[FS, R, W](fs, mountPoint)

	if mountPoint.IsRoot() && m.mountCount() == 0 {
		m.mounts = append(m.mounts, &slot{fs: wrapped})
		return nil
	}

	newRootEntries, err := fs.ReadDir(vpath.Root())
	if err != nil {
		return ffaterrors.ErrIllegalOperation.WithMessage("cannot read new file system's root directory")
	}
	existingEntries, err := m.ReadDir(mountPoint)
	if err != nil {
		return err
	}
	for _, want := range newRootEntries {
		for _, have := range existingEntries {
			if want.Equal(have) {
				return ffaterrors.ErrIllegalOperation.WithMessage("mount point has a conflicting entry: " + want.String())
			}
		}
	}

	m.mounts = append(m.mounts, &slot{fs: wrapped})
	return nil
}

// Detach unmounts the file system mounted exactly at mountPoint. It refuses
// to detach a mount that still has open descriptors, since those
// descriptors would otherwise start failing out from under a caller that
// never asked for them to close.
func (m *Multiplexer) Detach(mountPoint vpath.Path) error {
	for _, s := range m.mounts {
		if s.detached || !s.fs.MountPoint().Equal(mountPoint) {
			continue
		}
		if m.hasOpenDescriptors(s) {
			return ffaterrors.ErrIllegalOperation.WithMessage("mount point has open descriptors: " + mountPoint.String())
		}
		s.detached = true
		return nil
	}
	return ffaterrors.ErrNotFound.WithMessage("no file system mounted at " + mountPoint.String())
}

func (m *Multiplexer) hasOpenDescriptors(s *slot) bool {
	for _, owner := range m.readDescriptors {
		if owner == s {
			return true
		}
	}
	for _, owner := range m.writeDescriptors {
		if owner == s {
			return true
		}
	}
	return false
}

// DetachAll unmounts every currently-attached file system it can, skipping
// (and reporting) any that still has open descriptors. Per-mount failures
// are aggregated with go-multierror instead of stopping at the first one.
func (m *Multiplexer) DetachAll() error {
	var result *multierror.Error
	for _, s := range m.mounts {
		if s.detached {
			continue
		}
		if err := m.Detach(s.fs.MountPoint()); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (m *Multiplexer) mountCount() int {
	count := 0
	for _, s := range m.mounts {
		if !s.detached {
			count++
		}
	}
	return count
}

func (m *Multiplexer) allocFD() int64 {
	fd := m.nextFD
	m.nextFD++
	return fd
}

// suitable returns the mount whose mount point is the longest prefix of
// path, along with path relative to that mount point, per spec.md §5's
// longest-prefix-match rule.
func (m *Multiplexer) suitable(path vpath.Path) (*slot, vpath.Path, error) {
	var best *slot
	var bestRel vpath.Path
	shortest := -1

	for _, s := range m.mounts {
		if s.detached {
			continue
		}
		rel, ok := path.RelativeTo(s.fs.MountPoint())
		if !ok {
			continue
		}
		if shortest == -1 || rel.Len() < shortest {
			shortest = rel.Len()
			best = s
			bestRel = rel
		}
	}
	if best == nil {
		return nil, vpath.Path{}, ffaterrors.ErrIllegalOperation.WithMessage("path is not contained in any mounted file system")
	}
	return best, bestRel, nil
}

// ReadDir lists path's directory entries on whichever mount contains it.
func (m *Multiplexer) ReadDir(path vpath.Path) ([]vpath.Filename, error) {
	s, rel, err := m.suitable(path)
	if err != nil {
		return nil, err
	}
	return s.fs.ReadDir(rel)
}

// ExistsFile reports whether path resolves to a file on whichever mount
// contains it.
func (m *Multiplexer) ExistsFile(path vpath.Path) (bool, error) {
	s, rel, err := m.suitable(path)
	if err != nil {
		return false, err
	}
	return s.fs.ExistsFile(rel)
}

// ExistsDir reports whether path resolves to a directory on whichever mount
// contains it.
func (m *Multiplexer) ExistsDir(path vpath.Path) (bool, error) {
	s, rel, err := m.suitable(path)
	if err != nil {
		return false, err
	}
	return s.fs.ExistsDir(rel)
}

// CreateFile creates a new file at path on whichever mount contains it.
func (m *Multiplexer) CreateFile(path vpath.Path) error {
	s, rel, err := m.suitable(path)
	if err != nil {
		return err
	}
	return s.fs.CreateFile(rel)
}

// CreateDir creates a new directory at path on whichever mount contains it.
func (m *Multiplexer) CreateDir(path vpath.Path) error {
	s, rel, err := m.suitable(path)
	if err != nil {
		return err
	}
	return s.fs.CreateDir(rel)
}

// Delete removes path (and, if it's a directory, everything beneath it) on
// whichever mount contains it.
func (m *Multiplexer) Delete(path vpath.Path) error {
	s, rel, err := m.suitable(path)
	if err != nil {
		return err
	}
	return s.fs.Delete(rel)
}

// Clear empties path without deleting it, on whichever mount contains it.
func (m *Multiplexer) Clear(path vpath.Path) error {
	s, rel, err := m.suitable(path)
	if err != nil {
		return err
	}
	return s.fs.Clear(rel)
}

// OpenRead opens path for reading and returns a multiplexer-wide file
// descriptor.
func (m *Multiplexer) OpenRead(path vpath.Path) (int64, error) {
	s, rel, err := m.suitable(path)
	if err != nil {
		return 0, err
	}
	fd := m.allocFD()
	if err := s.fs.OpenRead(fd, rel); err != nil {
		return 0, err
	}
	m.readDescriptors[fd] = s
	return fd, nil
}

// OpenWrite opens path for writing and returns a multiplexer-wide file
// descriptor.
func (m *Multiplexer) OpenWrite(path vpath.Path) (int64, error) {
	s, rel, err := m.suitable(path)
	if err != nil {
		return 0, err
	}
	fd := m.allocFD()
	if err := s.fs.OpenWrite(fd, rel); err != nil {
		return 0, err
	}
	m.writeDescriptors[fd] = s
	return fd, nil
}

// Read reads from the descriptor fd, which must have come from OpenRead.
func (m *Multiplexer) Read(fd int64, buf []byte) (int, error) {
	s, ok := m.readDescriptors[fd]
	if !ok {
		return 0, noSuchDescriptor()
	}
	if s.detached {
		return 0, ffaterrors.ErrIllegalOperation.WithMessage("read after the owning file system was detached")
	}
	return s.fs.Read(fd, buf)
}

// Write writes to the descriptor fd, which must have come from OpenWrite.
func (m *Multiplexer) Write(fd int64, buf []byte) error {
	s, ok := m.writeDescriptors[fd]
	if !ok {
		return noSuchDescriptor()
	}
	if s.detached {
		return ffaterrors.ErrIllegalOperation.WithMessage("write after the owning file system was detached")
	}
	return s.fs.Write(fd, buf)
}

// Seek repositions the read descriptor fd.
func (m *Multiplexer) Seek(fd int64, delta uint64) error {
	s, ok := m.readDescriptors[fd]
	if !ok {
		return noSuchDescriptor()
	}
	if s.detached {
		return ffaterrors.ErrIllegalOperation.WithMessage("seek after the owning file system was detached")
	}
	return s.fs.Seek(fd, delta)
}

// Close releases fd, whether it was opened for reading or writing. Closing
// an unknown or already-closed descriptor is a no-op.
func (m *Multiplexer) Close(fd int64) {
	if s, ok := m.readDescriptors[fd]; ok {
		s.fs.Close(fd)
		delete(m.readDescriptors, fd)
	}
	if s, ok := m.writeDescriptors[fd]; ok {
		s.fs.Close(fd)
		delete(m.writeDescriptors, fd)
	}
}
