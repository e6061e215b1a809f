package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/mem"
)

// AddressSpace wraps the physical frame backing the top level of a page
// table tree (PML4 on amd64, the Sv48 root table on riscv64). Because
// every frame is reachable through the direct map once bootinfo is set,
// an AddressSpace needs nothing more than that one frame number to be
// fully walkable, whether or not it is the one currently loaded into the
// MMU - there is no separate "inactive PDT" code path.
type AddressSpace struct {
	top mem.Frame
}

// ZeroPage is a single physical frame, allocated once and cleared, shared
// read-only by every automapped page until the first write to it triggers
// a copy-on-write fault (see fault.go). zeroPageGuarded flips true once
// ZeroPage is handed out, after which Map refuses to map it writable.
var (
	ZeroPage        mem.Frame
	zeroPageGuarded bool
)

// New allocates a fresh top-level table frame, clears it through the
// direct map and returns the AddressSpace wrapping it.
func New() (*AddressSpace, *kernel.Error) {
	top, err := mem.AllocFrame()
	if err != nil {
		return nil, err
	}

	kernel.Memset(frameBase(top), 0, uintptr(mem.PageSize))

	return &AddressSpace{top: top}, nil
}

// Current wraps the page table frame presently loaded into the MMU.
func Current() *AddressSpace {
	return &AddressSpace{top: activeTop()}
}

// Activate installs this address space's top-level table as the active
// one and flushes the TLB.
func (s *AddressSpace) Activate() {
	switchPDTFn(s.top.Address())
}

// Top returns the physical frame backing this address space's top-level
// table.
func (s *AddressSpace) Top() mem.Frame {
	return s.top
}

// reserveZeroPage allocates and clears ZeroPage. Called once from Init.
func reserveZeroPage() *kernel.Error {
	frame, err := mem.AllocFrame()
	if err != nil {
		return err
	}

	kernel.Memset(frameBase(frame), 0, uintptr(mem.PageSize))

	ZeroPage = frame
	zeroPageGuarded = true
	return nil
}
