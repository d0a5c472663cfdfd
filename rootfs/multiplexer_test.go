package rootfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JM4ier/bitOS/ffat"
	"github.com/JM4ier/bitOS/ffattest"
	"github.com/JM4ier/bitOS/rootfs"
	"github.com/JM4ier/bitOS/vpath"
)

func mustAttach(t *testing.T, m *rootfs.Multiplexer, engine *ffat.Engine, mountPoint vpath.Path) {
	t.Helper()
	require.NoError(t, rootfs.Attach[*ffat.Engine, *ffat.ReadProgress, *ffat.WriteProgress](m, engine, mountPoint))
}

func TestAttachRootThenReadWriteThroughMultiplexer(t *testing.T) {
	engine, _ := ffattest.FormatAndMount(t, 32)
	m := rootfs.New()
	mustAttach(t, m, engine, vpath.Root())

	require.NoError(t, m.CreateFile(vpath.FromString("/hello.txt")))

	fd, err := m.OpenWrite(vpath.FromString("/hello.txt"))
	require.NoError(t, err)
	require.NoError(t, m.Write(fd, []byte("hi there")))
	m.Close(fd)

	rfd, err := m.OpenRead(vpath.FromString("/hello.txt"))
	require.NoError(t, err)
	buf := make([]byte, 32)
	n, err := m.Read(rfd, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(buf[:n]))
}

func TestAttachSecondVolumeRoutesByLongestPrefix(t *testing.T) {
	rootEngine, _ := ffattest.FormatAndMount(t, 32)
	subEngine, _ := ffattest.FormatAndMount(t, 32)

	m := rootfs.New()
	mustAttach(t, m, rootEngine, vpath.Root())
	require.NoError(t, rootEngine.CreateDir(vpath.FromString("/mnt")))
	mustAttach(t, m, subEngine, vpath.FromString("/mnt"))

	require.NoError(t, subEngine.CreateFile(vpath.FromString("/only-on-sub.txt")))

	ok, err := m.ExistsFile(vpath.FromString("/mnt/only-on-sub.txt"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.ExistsFile(vpath.FromString("/only-on-sub.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttachRejectsConflictingEntries(t *testing.T) {
	rootEngine, _ := ffattest.FormatAndMount(t, 32)
	subEngine, _ := ffattest.FormatAndMount(t, 32)

	m := rootfs.New()
	mustAttach(t, m, rootEngine, vpath.Root())
	require.NoError(t, rootEngine.CreateDir(vpath.FromString("/mnt")))
	require.NoError(t, rootEngine.CreateFile(vpath.FromString("/mnt/clash")))
	require.NoError(t, subEngine.CreateFile(vpath.FromString("/clash")))

	err := rootfs.Attach[*ffat.Engine, *ffat.ReadProgress, *ffat.WriteProgress](m, subEngine, vpath.FromString("/mnt"))
	assert.Error(t, err)
}

func TestDetachRefusesWhileDescriptorsAreOpen(t *testing.T) {
	rootEngine, _ := ffattest.FormatAndMount(t, 32)
	subEngine, _ := ffattest.FormatAndMount(t, 32)

	m := rootfs.New()
	mustAttach(t, m, rootEngine, vpath.Root())
	require.NoError(t, rootEngine.CreateDir(vpath.FromString("/mnt")))
	mustAttach(t, m, subEngine, vpath.FromString("/mnt"))

	require.NoError(t, subEngine.CreateFile(vpath.FromString("/f")))
	fd, err := m.OpenRead(vpath.FromString("/mnt/f"))
	require.NoError(t, err)

	err = m.Detach(vpath.FromString("/mnt"))
	assert.Error(t, err)

	m.Close(fd)
	assert.NoError(t, m.Detach(vpath.FromString("/mnt")))
}

func TestDetachAllAggregatesFailures(t *testing.T) {
	rootEngine, _ := ffattest.FormatAndMount(t, 32)
	subEngine, _ := ffattest.FormatAndMount(t, 32)

	m := rootfs.New()
	mustAttach(t, m, rootEngine, vpath.Root())
	require.NoError(t, rootEngine.CreateDir(vpath.FromString("/mnt")))
	mustAttach(t, m, subEngine, vpath.FromString("/mnt"))

	require.NoError(t, subEngine.CreateFile(vpath.FromString("/f")))
	_, err := m.OpenRead(vpath.FromString("/mnt/f"))
	require.NoError(t, err)

	err = m.DetachAll()
	assert.Error(t, err, "the /mnt volume still has an open descriptor")

	// The root mount had no open descriptors, so DetachAll took it down
	// even though it failed to take down /mnt; nothing now resolves "/".
	_, err = m.ExistsDir(vpath.Root())
	assert.Error(t, err)

	// /mnt is still attached and usable.
	ok, err := m.ExistsDir(vpath.FromString("/mnt"))
	require.NoError(t, err)
	assert.True(t, ok)
}
