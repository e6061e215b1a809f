package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/cpu"
	"github.com/roscopeco/anos/kernel/mem"
)

// ErrInvalidMapping is returned when looking up a virtual address that has
// no current mapping.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

var errAttemptToRWMapZeroPage = &kernel.Error{Module: "vmm", Message: "zero page cannot be mapped with a RW flag"}

var (
	activePDTFn     = cpu.ActivePDT
	switchPDTFn     = cpu.SwitchPDT
	flushTLBEntryFn = cpu.FlushTLBEntry
)

func activeTop() mem.Frame {
	return mem.Frame(activePDTFn() >> mem.PageShift)
}

// Map establishes a mapping between a virtual page and a physical frame in
// the given address space, allocating and clearing any intermediate page
// tables along the way. Mapping ZeroPage with FlagRW set is rejected: the
// zero page is shared read-only across every address space that lazily
// backs an automapped region with it (see fault.go).
func Map(space *AddressSpace, page mem.Page, frame mem.Frame, flags PageTableEntryFlag) *kernel.Error {
	if zeroPageGuarded && frame == ZeroPage && flags&FlagRW != 0 {
		return errAttemptToRWMapZeroPage
	}

	return walk(space.top, page.Address(), func(level uint8, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return true
		}

		*pte = 0
		pte.SetFrame(frame)
		pte.SetFlags(flags | FlagPresent)

		if space.top == activeTop() {
			flushTLBEntryFn(page.Address())
		}

		return true
	})
}

// Unmap clears a mapping previously installed by Map. Unmapping a page
// that was never mapped is a no-op, matching FreeAddr's "no panic on a
// bad address" posture elsewhere in this package.
func Unmap(space *AddressSpace, page mem.Page) *kernel.Error {
	return walk(space.top, page.Address(), func(level uint8, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return pte.HasFlags(FlagPresent)
		}

		pte.ClearFlags(FlagPresent)

		if space.top == activeTop() {
			flushTLBEntryFn(page.Address())
		}

		return true
	})
}

// Translate returns the physical frame a virtual page currently maps to,
// or ErrInvalidMapping if it is not mapped.
func Translate(space *AddressSpace, page mem.Page) (mem.Frame, *kernel.Error) {
	var (
		frame mem.Frame
		found bool
	)

	err := walk(space.top, page.Address(), func(level uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagPresent) {
			return false
		}
		if level == pageLevels-1 {
			frame = pte.Frame()
			found = true
		}
		return true
	})
	if err != nil {
		return mem.InvalidFrame, err
	}
	if !found {
		return mem.InvalidFrame, ErrInvalidMapping
	}

	return frame, nil
}

// MapRun maps count consecutive pages starting at page to count
// consecutive frames starting at frame, stopping and returning the error
// from the first failing Map call, if any.
func MapRun(space *AddressSpace, page mem.Page, frame mem.Frame, count uint64, flags PageTableEntryFlag) *kernel.Error {
	for i := uint64(0); i < count; i++ {
		if err := Map(space, page+mem.Page(i), frame+mem.Frame(i), flags); err != nil {
			return err
		}
	}
	return nil
}
