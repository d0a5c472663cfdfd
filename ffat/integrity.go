package ffat

import (
	"fmt"

	ffaterrors "github.com/JM4ier/bitOS/errors"
	"github.com/JM4ier/bitOS/internal/diskutil"
)

// IntegrityViolation describes one sector that fails the reachability
// invariant from spec.md §8: every non-Reserved sector must be reachable
// from exactly one of the root directory tree or the free list.
type IntegrityViolation struct {
	Addr   uint64
	Reason string
}

// IntegrityReport is the result of a full-volume reachability scan.
type IntegrityReport struct {
	Violations []IntegrityViolation
}

// OK reports whether the scan found no violations.
func (r IntegrityReport) OK() bool {
	return len(r.Violations) == 0
}

// ScanIntegrity walks the root directory tree and the free list, then
// checks every other sector address is reachable from exactly one of them.
// It is a read-only diagnostic; a clean volume always reports OK.
func (e *Engine) ScanIntegrity() (IntegrityReport, error) {
	root, err := e.readRootSector()
	if err != nil {
		return IntegrityReport{}, err
	}

	reachable := diskutil.NewSectorBitmap(int(root.Sectors))
	free := diskutil.NewSectorBitmap(int(root.Sectors))

	if err := e.markReachable(root.Root, reachable); err != nil {
		return IntegrityReport{}, err
	}
	if err := e.markFree(root.Free, free); err != nil {
		return IntegrityReport{}, err
	}

	var report IntegrityReport
	for addr := root.Root; addr < root.Sectors; addr++ {
		meta, err := e.readMeta(addr)
		if err != nil {
			return IntegrityReport{}, err
		}
		if meta.Kind == KindReserved {
			continue
		}
		inReachable := reachable.Get(addr)
		inFree := free.Get(addr)
		switch {
		case inReachable && inFree:
			report.Violations = append(report.Violations, IntegrityViolation{
				Addr: addr, Reason: "sector reachable from both the root tree and the free list",
			})
		case !inReachable && !inFree:
			report.Violations = append(report.Violations, IntegrityViolation{
				Addr: addr, Reason: "sector reachable from neither the root tree nor the free list",
			})
		}
	}
	return report, nil
}

// markReachable walks the chain starting at addr, marking every sector
// visited, and recurses into child entries if addr's head sector is a
// directory.
func (e *Engine) markReachable(addr uint64, seen *diskutil.SectorBitmap) error {
	head, err := e.readMeta(addr)
	if err != nil {
		return err
	}

	current := addr
	for {
		if seen.Get(current) {
			return ffaterrors.ErrInternalError.WithMessage(fmt.Sprintf("cycle detected at sector %d", current))
		}
		seen.Set(current, true)
		meta, err := e.readMeta(current)
		if err != nil {
			return err
		}
		if meta.Next == 0 {
			break
		}
		current = meta.Next
	}

	if head.Kind == KindDir {
		entries, err := e.readDirEntries(addr)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := e.markReachable(entry.Addr, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// markFree walks the free list starting at addr, marking every sector
// visited.
func (e *Engine) markFree(addr uint64, seen *diskutil.SectorBitmap) error {
	current := addr
	for current != 0 {
		if seen.Get(current) {
			return ffaterrors.ErrInternalError.WithMessage(fmt.Sprintf("cycle detected in the free list at sector %d", current))
		}
		seen.Set(current, true)
		meta, err := e.readMeta(current)
		if err != nil {
			return err
		}
		current = meta.Next
	}
	return nil
}
