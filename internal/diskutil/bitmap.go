package diskutil

import (
	"github.com/boljen/go-bitmap"
)

// SectorBitmap tracks one bit per sector address on a volume. It backs the
// reachability scan in ffat.Engine.ScanIntegrity, which needs two of these
// (one for "reachable from root", one for "reachable from the free list")
// to check the invariant from spec.md §8: every allocated sector is
// reachable from exactly one of the two.
type SectorBitmap struct {
	bits bitmap.Bitmap
	size int
}

// NewSectorBitmap allocates a bitmap covering sector addresses [0, size).
func NewSectorBitmap(size int) *SectorBitmap {
	return &SectorBitmap{bits: bitmap.NewSlice(size), size: size}
}

// Get reports whether the bit for sector addr is set.
func (b *SectorBitmap) Get(addr uint64) bool {
	return b.bits.Get(int(addr))
}

// Set marks the bit for sector addr.
func (b *SectorBitmap) Set(addr uint64, value bool) {
	b.bits.Set(int(addr), value)
}

// Size returns the number of sector addresses this bitmap covers.
func (b *SectorBitmap) Size() int {
	return b.size
}
