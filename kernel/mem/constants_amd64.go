package mem

const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)). The pointer
	// size for this architecture is defined as (1 << PointerShift).
	PointerShift = uintptr(3)

	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a page number (shift right by PageShift)
	// and vice-versa.
	PageShift = 12

	// PageSize defines the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// KernelSpaceStart is the first address of the canonical-higher-half
	// range the kernel half of every address space occupies. Syscalls
	// that accept a user-supplied pointer or region reject anything at
	// or above it.
	KernelSpaceStart = uintptr(0xffff800000000000)
)
