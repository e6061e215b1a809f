package vmm

import "github.com/roscopeco/anos/kernel/mem"

// amd64 PTE bit layout (bits 12-51 hold the physical frame address on every
// level; a handful of software-available bits, 9-11, are free for our own
// use, and NX needs the no-execute-enable bit set in EFER to take effect).
const (
	bitPresent             = 1 << 0
	bitRW                  = 1 << 1
	bitUser                = 1 << 2
	bitWriteThrough        = 1 << 3
	bitNoCache             = 1 << 4
	bitAccessed            = 1 << 5
	bitDirty               = 1 << 6
	bitHugeOrPAT           = 1 << 7
	bitGlobal              = 1 << 8
	bitCopyOnWrite         = 1 << 9  // software-available
	bitAutomap             = 1 << 10 // software-available
	bitNoExecute           = 1 << 63

	ptePhysPageMask = uintptr(0x000ffffffffff000)
)

func logicalToRaw(flags PageTableEntryFlag) uintptr {
	var raw uintptr
	if flags&FlagPresent != 0 {
		raw |= bitPresent
	}
	if flags&FlagRW != 0 {
		raw |= bitRW
	}
	if flags&FlagUserAccessible != 0 {
		raw |= bitUser
	}
	if flags&FlagWriteThroughCaching != 0 {
		raw |= bitWriteThrough
	}
	if flags&FlagDoNotCache != 0 {
		raw |= bitNoCache
	}
	if flags&FlagAccessed != 0 {
		raw |= bitAccessed
	}
	if flags&FlagDirty != 0 {
		raw |= bitDirty
	}
	if flags&FlagHugePage != 0 {
		raw |= bitHugeOrPAT
	}
	if flags&FlagGlobal != 0 {
		raw |= bitGlobal
	}
	if flags&FlagCopyOnWrite != 0 {
		raw |= bitCopyOnWrite
	}
	if flags&FlagAutomap != 0 {
		raw |= bitAutomap
	}
	if flags&FlagNoExecute != 0 {
		raw |= bitNoExecute
	}
	return raw
}

func rawToLogical(raw uintptr) PageTableEntryFlag {
	var flags PageTableEntryFlag
	if raw&bitPresent != 0 {
		flags |= FlagPresent
	}
	if raw&bitRW != 0 {
		flags |= FlagRW
	}
	if raw&bitUser != 0 {
		flags |= FlagUserAccessible
	}
	if raw&bitWriteThrough != 0 {
		flags |= FlagWriteThroughCaching
	}
	if raw&bitNoCache != 0 {
		flags |= FlagDoNotCache
	}
	if raw&bitAccessed != 0 {
		flags |= FlagAccessed
	}
	if raw&bitDirty != 0 {
		flags |= FlagDirty
	}
	if raw&bitHugeOrPAT != 0 {
		flags |= FlagHugePage
	}
	if raw&bitGlobal != 0 {
		flags |= FlagGlobal
	}
	if raw&bitCopyOnWrite != 0 {
		flags |= FlagCopyOnWrite
	}
	if raw&bitAutomap != 0 {
		flags |= FlagAutomap
	}
	if raw&bitNoExecute != 0 {
		flags |= FlagNoExecute
	}
	return flags
}

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	want := logicalToRaw(flags)
	return uintptr(pte)&want == want
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return uintptr(pte)&logicalToRaw(flags) != 0
}

// SetFlags sets the input list of flags on the entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | logicalToRaw(flags))
}

// ClearFlags unsets the input list of flags from the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ logicalToRaw(flags))
}

// Flags returns every logical flag currently set on the entry.
func (pte pageTableEntry) Flags() PageTableEntryFlag {
	return rawToLogical(uintptr(pte))
}

// Frame returns the physical frame this entry points to.
func (pte pageTableEntry) Frame() mem.Frame {
	return mem.Frame((uintptr(pte) & ptePhysPageMask) >> mem.PageShift)
}

// SetFrame updates the entry to point at the given physical frame.
func (pte *pageTableEntry) SetFrame(frame mem.Frame) {
	*pte = pageTableEntry((uintptr(*pte) &^ ptePhysPageMask) | frame.Address())
}

// SetPointerFlags marks the entry present and writable so it can be walked
// to reach the next page-table level. On amd64 that's the same Present|RW
// bits a leaf entry uses; riscv64's non-leaf encoding is different (no
// R/W/X bits set at all), which is why this is a separate method instead of
// a SetFlags(FlagPresent|FlagRW) call at every call site.
func (pte *pageTableEntry) SetPointerFlags() {
	pte.SetFlags(FlagPresent | FlagRW)
}
