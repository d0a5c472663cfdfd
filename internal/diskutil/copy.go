// Package diskutil holds the small, dependency-free-at-the-call-site
// helpers shared by the FFAT engine: offset-aware byte copying and a thin
// wrapper around a bitmap library used for the reachability diagnostics in
// ffat.ScanIntegrity.
package diskutil

// CopyOffset copies n bytes from src (starting at srcOffset) into dst
// (starting at dstOffset). It mirrors the splice-style copy the original
// FFAT engine performs when composing or decomposing sector-sized buffers,
// e.g. copying a run of directory-payload bytes into a single 4096-byte
// sector slice at an arbitrary offset.
func CopyOffset(src []byte, dst []byte, n, srcOffset, dstOffset int) int {
	copied := copy(dst[dstOffset:dstOffset+n], src[srcOffset:srcOffset+n])
	return copied
}
