package vmm

// riscv64 uses Sv48: a 4-level page table with the same 9-bits-per-level,
// 4KiB-base-page shape as amd64's long mode, which is why pageLevelShifts
// below lines up with vmm_constants_amd64.go's. Sv39 (3 levels) would also
// work but original_source's direct-map bootstrap walks a 4-level "PML4"
// with a top-level terapage mapping, so Sv48 is what this kernel targets.
const pageLevels = 4

var (
	pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// topLevelPageSize is the span of a single top-level ("terapage") entry:
// 512GiB, one level up from the 1GiB gigapage x86_64 uses at its top
// level, since Sv48's top level sits one level higher again.
const topLevelPageSize = 1 << 39

// tempWindowBase mirrors the amd64 reservation: three scratch windows
// carved out of the top of the kernel's half of the address space (see
// TempWindow in window.go). Page-table bootstrap does not use them; it
// writes new tables through the direct map.
const tempWindowBase = uintptr(0xffffff8000000000)

const tempWindowCount = 3
