// Package ffattest holds small helpers shared by this module's test files:
// constructing block devices and formatted volumes without repeating the
// same boilerplate in every _test.go file.
package ffattest

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JM4ier/bitOS/blockdev"
	"github.com/JM4ier/bitOS/ffat"
)

// NewZeroDevice returns a blockdev.Vector of the given block count, its
// bytes all zero.
func NewZeroDevice(blockCount uint64) *blockdev.Vector {
	return blockdev.NewVector(ffat.SectorSize, blockCount)
}

// NewRandomDevice returns a blockdev.Vector of the given block count, its
// bytes filled with random garbage, for tests that need to confirm Format
// and writeDirEntries actually overwrite stale on-disk content rather than
// happening to produce correct results only because the backing storage
// started out zeroed.
func NewRandomDevice(t *testing.T, blockCount uint64) *blockdev.Vector {
	t.Helper()
	dev := NewZeroDevice(blockCount)
	backing := make([]byte, ffat.SectorSize)
	for i := uint64(0); i < blockCount; i++ {
		_, err := rand.Read(backing)
		require.NoErrorf(t, err, "failed to fill block %d with random bytes", i)
		require.NoError(t, dev.WriteBlock(i, backing))
	}
	return dev
}

// FormatAndMount formats a fresh device of blockCount blocks and returns the
// mounted Engine, failing the test immediately on any error.
func FormatAndMount(t *testing.T, blockCount uint64) (*ffat.Engine, *blockdev.Vector) {
	t.Helper()
	dev := NewZeroDevice(blockCount)
	engine, err := ffat.Format(dev)
	require.NoError(t, err)
	return engine, dev
}
