package ffat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JM4ier/bitOS/ffat"
)

func TestSectorEntryRoundTrip(t *testing.T) {
	entry := ffat.SectorEntry{Kind: ffat.KindFile, Size: 1234, Next: 77}
	buf := make([]byte, 32)
	require.NoError(t, entry.Encode(buf))

	var out ffat.SectorEntry
	require.NoError(t, out.Decode(buf))
	assert.Equal(t, entry, out)
}

func TestAllocationTableSectorRoundTrip(t *testing.T) {
	var table ffat.AllocationTableSector
	table.Entries[0] = ffat.SectorEntry{Kind: ffat.KindDir, Size: 10, Next: 5}
	table.Entries[ffat.EntriesPerTableSector-1] = ffat.SectorEntry{Kind: ffat.KindFree, Next: 9}

	buf := make([]byte, ffat.SectorSize)
	require.NoError(t, table.Encode(buf))

	var out ffat.AllocationTableSector
	require.NoError(t, out.Decode(buf))
	assert.Equal(t, table, out)
}

func TestRootSectorRoundTrip(t *testing.T) {
	root := ffat.RootSector{TableBegin: 1, Sectors: 64, Root: 5, Free: 6}
	buf := make([]byte, ffat.SectorSize)
	require.NoError(t, root.Encode(buf))

	var out ffat.RootSector
	require.NoError(t, out.Decode(buf))
	assert.Equal(t, root, out)
}

func TestSectorEntryEncodeRejectsWrongBufferSize(t *testing.T) {
	entry := ffat.SectorEntry{Kind: ffat.KindFile}
	assert.Error(t, entry.Encode(make([]byte, 10)))
}
