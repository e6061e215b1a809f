package mem

const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)). The pointer
	// size for this architecture is defined as (1 << PointerShift).
	PointerShift = uintptr(3)

	// PageShift is equal to log2(PageSize). Sv39/Sv48 both use a 4KiB base
	// page; the larger reach of Sv48 comes from an extra page-table level,
	// not a larger base page.
	PageShift = 12

	// PageSize defines the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// KernelSpaceStart is the first address of Sv48's kernel half.
	// Syscalls that accept a user-supplied pointer or region reject
	// anything at or above it.
	KernelSpaceStart = uintptr(0xffff800000000000)
)
