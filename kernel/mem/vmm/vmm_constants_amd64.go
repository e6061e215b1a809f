package vmm

// amd64 uses a 4-level page table (PML4 -> PDPT -> PD -> PT), 9 bits of
// index per level and a 4KiB base page.
const pageLevels = 4

var (
	pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// topLevelPageSize is the size of the largest huge page the direct map
// uses (a PDPT entry maps a 1GiB region when used as a huge page; PML4
// entries cannot be huge), the largest natural unit buildDirectMap can use
// to cover physical memory.
const topLevelPageSize = 1 << 30

// tempWindowBase is the virtual address of the first of the three
// temporary-mapping windows reserved in the kernel's own address space
// (see TempWindow in window.go). It is carved out of the top of the
// canonical address range, at the start of PML4 slot 509; the windows are
// consecutive 4KiB pages from there, so all three sit inside that slot.
const tempWindowBase = uintptr(0xfffffe8000000000)

// tempWindowCount is the number of scratch windows available to
// AcquireTempWindow at once.
const tempWindowCount = 3
