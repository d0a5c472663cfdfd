package rootfs

import (
	ffaterrors "github.com/JM4ier/bitOS/errors"
	"github.com/JM4ier/bitOS/fsapi"
	"github.com/JM4ier/bitOS/vpath"
)

// mounted is the type-erased boundary the multiplexer dispatches over. It is
// the non-generic counterpart of mountedFS: the same relationship as a Rust
// trait object (dyn Mounted) sitting behind a generic impl.
type mounted interface {
	MountPoint() vpath.Path
	OpenRead(fd int64, path vpath.Path) error
	OpenWrite(fd int64, path vpath.Path) error
	Read(fd int64, buf []byte) (int, error)
	Write(fd int64, buf []byte) error
	Seek(fd int64, delta uint64) error
	Close(fd int64)
	ReadDir(path vpath.Path) ([]vpath.Filename, error)
	ExistsFile(path vpath.Path) (bool, error)
	ExistsDir(path vpath.Path) (bool, error)
	CreateFile(path vpath.Path) error
	CreateDir(path vpath.Path) error
	Delete(path vpath.Path) error
	Clear(path vpath.Path) error
}

// mountedFS adapts a generic fsapi.FileSystem[R, W] to the mounted
// interface, owning the descriptor-to-progress-handle maps for every
// read/write descriptor opened against it. This mirrors MountedFileSystem
// from the original kernel's file table: the generic type parameters are
// resolved once, at Attach time, and everything above this layer talks in
// terms of plain file descriptors.
type mountedFS[FS fsapi.FileSystem[R, W], R any, W any] struct {
	fs         FS
	mountPoint vpath.Path
	filesRead  map[int64]R
	filesWrite map[int64]W
}

func newMountedFS[FS fsapi.FileSystem[R, W], R any, W any](fs FS, mountPoint vpath.Path) *mountedFS[FS, R, W] {
	return &mountedFS[FS, R, W]{
		fs:         fs,
		mountPoint: mountPoint,
		filesRead:  make(map[int64]R),
		filesWrite: make(map[int64]W),
	}
}

func (m *mountedFS[FS, R, W]) MountPoint() vpath.Path {
	return m.mountPoint
}

func (m *mountedFS[FS, R, W]) OpenRead(fd int64, path vpath.Path) error {
	progress, err := m.fs.OpenRead(path)
	if err != nil {
		return err
	}
	m.filesRead[fd] = progress
	return nil
}

func (m *mountedFS[FS, R, W]) OpenWrite(fd int64, path vpath.Path) error {
	progress, err := m.fs.OpenWrite(path)
	if err != nil {
		return err
	}
	m.filesWrite[fd] = progress
	return nil
}

func (m *mountedFS[FS, R, W]) Read(fd int64, buf []byte) (int, error) {
	progress, ok := m.filesRead[fd]
	if !ok {
		return 0, noSuchDescriptor()
	}
	return m.fs.Read(progress, buf)
}

func (m *mountedFS[FS, R, W]) Write(fd int64, buf []byte) error {
	progress, ok := m.filesWrite[fd]
	if !ok {
		return noSuchDescriptor()
	}
	return m.fs.Write(progress, buf)
}

func (m *mountedFS[FS, R, W]) Seek(fd int64, delta uint64) error {
	progress, ok := m.filesRead[fd]
	if !ok {
		return noSuchDescriptor()
	}
	return m.fs.Seek(progress, delta)
}

func (m *mountedFS[FS, R, W]) Close(fd int64) {
	delete(m.filesRead, fd)
	delete(m.filesWrite, fd)
}

func (m *mountedFS[FS, R, W]) ReadDir(path vpath.Path) ([]vpath.Filename, error) {
	return m.fs.ReadDir(path)
}

func (m *mountedFS[FS, R, W]) ExistsFile(path vpath.Path) (bool, error) {
	return m.fs.ExistsFile(path)
}

func (m *mountedFS[FS, R, W]) ExistsDir(path vpath.Path) (bool, error) {
	return m.fs.ExistsDir(path)
}

func (m *mountedFS[FS, R, W]) CreateFile(path vpath.Path) error {
	return m.fs.CreateFile(path)
}

func (m *mountedFS[FS, R, W]) CreateDir(path vpath.Path) error {
	return m.fs.CreateDir(path)
}

func (m *mountedFS[FS, R, W]) Delete(path vpath.Path) error {
	return m.fs.Delete(path)
}

func (m *mountedFS[FS, R, W]) Clear(path vpath.Path) error {
	return m.fs.Clear(path)
}

func noSuchDescriptor() error {
	return ffaterrors.ErrIllegalOperation.WithMessage("no such file descriptor")
}
