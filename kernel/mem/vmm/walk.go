package vmm

import (
	"unsafe"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/mem"
)

var errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported at this level"}

// hhdmOffset returns the offset added to a physical address to reach its
// mirror in the higher-half direct map. Every frame - RAM, the kernel's
// own page tables included - is reachable this way the instant bootinfo is
// set, so unlike the teacher's recursive scheme there is no separate
// "map the inactive table so I can touch it" step: any Frame, active PDT
// or not, is just an address away.
func hhdmOffset() uintptr {
	return bootinfo.Get().HHDMOffset
}

// DirectMapAddress returns the kernel-virtual address frame is reachable
// at through the direct map. Used by callers outside this package that
// need a plain writable address for a physical frame without building a
// mapping of their own - kernel/sched's stack allocation, for one.
func DirectMapAddress(frame mem.Frame) uintptr {
	return frame.Address() + hhdmOffset()
}

// ptePtrFn resolves a frame to the address its contents can be read and
// written at. Production code always takes the direct-map route; tests
// override it to point frames at ordinary Go-backed arrays standing in
// for physical page tables, the same seam the teacher's map_test.go used
// for its recursive-mapping equivalent.
var ptePtrFn = func(frame mem.Frame) unsafe.Pointer {
	return unsafe.Pointer(frame.Address() + hhdmOffset())
}

// tableEntries returns the PTE array backing the page table at the given
// frame, viewed through the direct map.
func tableEntries(frame mem.Frame) *[512]pageTableEntry {
	return (*[512]pageTableEntry)(ptePtrFn(frame))
}

// frameBase returns the address frame's contents can be read/written at,
// routed through ptePtrFn so test overrides apply uniformly.
func frameBase(frame mem.Frame) uintptr {
	return uintptr(ptePtrFn(frame))
}

func levelIndex(level uint8, virtAddr uintptr) uintptr {
	return (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
}

// walkFn visits the PTE for virtAddr at the given level. The level
// argument counts down from the top (0 is the top-most table); returning
// false aborts the walk. The last call always has level == pageLevels-1,
// i.e. the leaf level.
type walkFn func(level uint8, pte *pageTableEntry) bool

// allocTableFn is used by tests to substitute a fake frame source for the
// intermediate tables walk() creates on demand.
var allocTableFn = mem.AllocFrame

// walk descends the page table rooted at top, calling visit at every
// level for the entry that corresponds to virtAddr. If an intermediate
// entry is not present, walk allocates a fresh frame for it, zeroes it
// (through the direct map) and wires it in with SetPointerFlags before
// continuing - the same "populate on demand" behaviour the teacher's
// recursive walker had, minus the recursive-mapping bookkeeping.
//
// visit returning false stops the walk immediately; it is how a caller
// reports its own error (via a closure variable, same idiom the teacher's
// Map/Unmap use) without walk needing to know what went wrong. walk's own
// return value only ever reports its internal failures: running out of
// frames for a new intermediate table, or meeting a huge-page entry above
// the leaf level (errNoHugePageSupport).
func walk(top mem.Frame, virtAddr uintptr, visit walkFn) *kernel.Error {
	table := tableEntries(top)

	for level := uint8(0); level < pageLevels; level++ {
		idx := levelIndex(level, virtAddr)
		pte := &table[idx]

		if level == pageLevels-1 {
			visit(level, pte)
			return nil
		}

		if !visit(level, pte) {
			return nil
		}

		if pte.HasFlags(FlagHugePage) {
			return errNoHugePageSupport
		}

		if !pte.HasFlags(FlagPresent) {
			frame, err := allocTableFn()
			if err != nil {
				return err
			}

			*pte = 0
			pte.SetFrame(frame)
			pte.SetPointerFlags()

			kernel.Memset(frameBase(frame), 0, uintptr(mem.PageSize))
		}

		table = tableEntries(pte.Frame())
	}

	return nil
}
