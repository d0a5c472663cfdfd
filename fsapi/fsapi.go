// Package fsapi defines the capability set a mountable file system exposes
// to the root file system multiplexer. It is deliberately one flat
// interface rather than a hierarchy of read/write/manage capabilities: the
// only implementation in this module (ffat.Engine) supports every
// operation, and a multiplexer that dispatches over a single capability set
// is simpler than one that has to reason about partial implementations.
package fsapi

import "github.com/JM4ier/bitOS/vpath"

// FileSystem is the capability set rootfs.Multiplexer dispatches over. R and
// W are the implementation's opaque read/write progress handles -- the Go
// analogue of an associated type, since Go interfaces can't declare one
// directly. ffat.Engine satisfies FileSystem[*ffat.ReadProgress,
// *ffat.WriteProgress].
type FileSystem[R any, W any] interface {
	ReadDir(path vpath.Path) ([]vpath.Filename, error)
	ExistsFile(path vpath.Path) (bool, error)
	ExistsDir(path vpath.Path) (bool, error)
	CreateFile(path vpath.Path) error
	CreateDir(path vpath.Path) error
	Delete(path vpath.Path) error
	Clear(path vpath.Path) error

	OpenRead(path vpath.Path) (R, error)
	OpenWrite(path vpath.Path) (W, error)
	Read(progress R, buf []byte) (int, error)
	Write(progress W, buf []byte) error
	Seek(progress R, delta uint64) error
}
