package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JM4ier/bitOS/blockdev"
)

func TestRAMReadWriteRoundTrip(t *testing.T) {
	data := make([]byte, 4096*4)
	dev := blockdev.NewRAM(data, 4096)
	require.Equal(t, 4096, dev.BlockSize())
	require.EqualValues(t, 4, dev.BlockCount())
	require.False(t, dev.IsReadOnly())

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, dev.WriteBlock(2, payload))

	out := make([]byte, 4096)
	require.NoError(t, dev.ReadBlock(2, out))
	assert.Equal(t, payload, out)

	// Writes to a RAM device are visible through the original slice.
	assert.Equal(t, payload, data[2*4096:3*4096])
}

func TestROMRejectsWrites(t *testing.T) {
	data := make([]byte, 4096*2)
	dev := blockdev.NewROM(data, 4096)
	assert.True(t, dev.IsReadOnly())

	err := dev.WriteBlock(0, make([]byte, 4096))
	require.Error(t, err)
}

func TestRAMPanicsOnBadBufferSize(t *testing.T) {
	dev := blockdev.NewRAM(make([]byte, 4096), 4096)
	assert.Panics(t, func() {
		_ = dev.ReadBlock(0, make([]byte, 10))
	})
}

func TestRAMPanicsOnOutOfRangeIndex(t *testing.T) {
	dev := blockdev.NewRAM(make([]byte, 4096), 4096)
	assert.Panics(t, func() {
		_ = dev.ReadBlock(5, make([]byte, 4096))
	})
}

func TestVectorOwnsItsStorageAndExtractsBytes(t *testing.T) {
	dev := blockdev.NewVector(4096, 3)
	require.EqualValues(t, 3, dev.BlockCount())

	block := make([]byte, 4096)
	for i := range block {
		block[i] = 0xAB
	}
	require.NoError(t, dev.WriteBlock(1, block))

	out := dev.Bytes()
	assert.Len(t, out, 4096*3)
	assert.Equal(t, block, out[4096:2*4096])
}
