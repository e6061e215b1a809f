package vmm

import "github.com/roscopeco/anos/kernel/mem"

// Sv39/Sv48 PTE bit layout. Unlike amd64, leaf-ness is carried by the entry
// itself rather than by table level: a pointer-to-next-level entry has
// R=W=X=0, while any of those bits set marks the entry as a terminal
// mapping (a "huge" mapping at a non-final level is just a leaf entry one
// level higher than usual - there is no separate PS bit to flip).
const (
	bitValid       = 1 << 0
	bitRead        = 1 << 1
	bitWrite       = 1 << 2
	bitExecute     = 1 << 3
	bitUser        = 1 << 4
	bitGlobal      = 1 << 5
	bitAccessed    = 1 << 6
	bitDirty       = 1 << 7
	bitCopyOnWrite = 1 << 8 // reserved-for-software bit 0
	bitAutomap     = 1 << 9 // reserved-for-software bit 1

	ppnShift = 10
	ppnMask  = uintptr(0x3fffffffffc00) // bits 10-53
)

func logicalToRawLeaf(flags PageTableEntryFlag) uintptr {
	var raw uintptr = bitValid

	if flags&FlagRW != 0 {
		raw |= bitRead | bitWrite
	} else if flags&FlagPresent != 0 {
		raw |= bitRead
	}
	if flags&FlagNoExecute == 0 {
		raw |= bitExecute
	}
	if flags&FlagUserAccessible != 0 {
		raw |= bitUser
	}
	if flags&FlagGlobal != 0 {
		raw |= bitGlobal
	}
	if flags&FlagAccessed != 0 {
		raw |= bitAccessed
	}
	if flags&FlagDirty != 0 {
		raw |= bitDirty
	}
	if flags&FlagCopyOnWrite != 0 {
		raw |= bitCopyOnWrite
	}
	if flags&FlagAutomap != 0 {
		raw |= bitAutomap
	}

	return raw
}

func rawToLogicalLeaf(raw uintptr) PageTableEntryFlag {
	var flags PageTableEntryFlag

	if raw&bitValid != 0 {
		flags |= FlagPresent
	}
	if raw&bitWrite != 0 {
		flags |= FlagRW
	}
	if raw&bitExecute == 0 {
		flags |= FlagNoExecute
	}
	if raw&bitUser != 0 {
		flags |= FlagUserAccessible
	}
	if raw&(bitRead|bitWrite|bitExecute) != 0 {
		flags |= FlagHugePage
	}
	if raw&bitGlobal != 0 {
		flags |= FlagGlobal
	}
	if raw&bitAccessed != 0 {
		flags |= FlagAccessed
	}
	if raw&bitDirty != 0 {
		flags |= FlagDirty
	}
	if raw&bitCopyOnWrite != 0 {
		flags |= FlagCopyOnWrite
	}
	if raw&bitAutomap != 0 {
		flags |= FlagAutomap
	}

	return flags
}

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return pte.Flags()&flags == flags
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return pte.Flags()&flags != 0
}

// SetFlags sets the input list of flags on the entry, as a leaf mapping.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | logicalToRawLeaf(flags))
}

// ClearFlags unsets the input list of flags from the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ logicalToRawLeaf(flags))
}

// Flags returns every logical flag currently set on the entry.
func (pte pageTableEntry) Flags() PageTableEntryFlag {
	return rawToLogicalLeaf(uintptr(pte))
}

// Frame returns the physical frame this entry points to. The PPN field
// already holds a page index, so unlike amd64 no shift-then-mask round
// trip through a byte address is needed.
func (pte pageTableEntry) Frame() mem.Frame {
	return mem.Frame((uintptr(pte) & ppnMask) >> ppnShift)
}

// SetFrame updates the entry to point at the given physical frame.
func (pte *pageTableEntry) SetFrame(frame mem.Frame) {
	*pte = pageTableEntry((uintptr(*pte) &^ ppnMask) | (uintptr(frame) << ppnShift))
}

// SetPointerFlags marks the entry present and pointing at the next page
// table level. R/W/X are deliberately left clear: on Sv39/Sv48 that's what
// tells the walker this is not a leaf.
func (pte *pageTableEntry) SetPointerFlags() {
	*pte = pageTableEntry(uintptr(*pte) | bitValid)
}
