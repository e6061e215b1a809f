package vmm

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry. The bit positions here are the kernel's own logical encoding;
// pte_<arch>.go translates them to and from whatever bit layout the MMU
// actually expects.
type PageTableEntryFlag uint32

const (
	// FlagPresent marks the entry as valid and resolvable.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW allows the page to be written to.
	FlagRW

	// FlagUserAccessible allows user-mode access; without it, only
	// kernel-mode code can reach the page.
	FlagUserAccessible

	// FlagWriteThroughCaching selects write-through caching over the
	// default write-back policy.
	FlagWriteThroughCaching

	// FlagDoNotCache disables caching for this page entirely.
	FlagDoNotCache

	// FlagAccessed is set by the MMU when the page is read or written.
	FlagAccessed

	// FlagDirty is set by the MMU when the page is written.
	FlagDirty

	// FlagHugePage marks a non-leaf-level entry as a terminal mapping for
	// a larger-than-base page (used by the direct-map bootstrap).
	FlagHugePage

	// FlagGlobal prevents the TLB entry from being flushed on a PDT
	// switch.
	FlagGlobal

	// FlagCopyOnWrite marks a page as copy-on-write; it is always mapped
	// read-only regardless of FlagRW and a fault promotes it to a
	// private copy. Mutually exclusive with FlagRW in practice, though
	// nothing stops a caller from setting both by mistake.
	FlagCopyOnWrite

	// FlagNoExecute forbids instruction fetches from this page.
	FlagNoExecute

	// FlagAutomap marks a page as backed lazily: the entry records
	// intent to map but carries no frame until the first fault resolves
	// it (see fault.go).
	FlagAutomap
)

// pageTableEntry describes one entry at any page-table level. Frame/
// SetFrame and the Has/Set/ClearFlags family are implemented per
// architecture in pte_<arch>.go, since the on-disk bit layout (and, for
// FlagNoExecute on riscv64, the polarity) differs.
type pageTableEntry uintptr
