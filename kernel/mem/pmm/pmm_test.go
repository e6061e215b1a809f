package pmm

import (
	"unsafe"

	"testing"

	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/mem"
)

func newTestAllocator(t *testing.T, capacity int) *Allocator {
	t.Helper()
	buf := make([]run, capacity)
	return New(uintptr(unsafe.Pointer(&buf[0])), capacity)
}

func TestInitFromMemMapClipsManagedBase(t *testing.T) {
	a := newTestAllocator(t, 4)

	info := &bootinfo.Info{
		MemMap: []bootinfo.MemMapEntry{
			{Base: 0x0, Length: 0x4000, Type: bootinfo.Usable},
			{Base: 0x10000, Length: 0x10000, Type: bootinfo.Reserved},
			{Base: 0x20000, Length: 0x4000, Type: bootinfo.Usable},
		},
	}

	a.InitFromMemMap(info, 0x2000, false)

	if got, exp := a.Size(), uint64(0x2000+0x4000); got != exp {
		t.Fatalf("expected managed size %d, got %d", exp, got)
	}
	if got, exp := a.FreeBytes(), a.Size(); got != exp {
		t.Fatalf("expected all managed memory free initially, got %d want %d", got, exp)
	}
}

func TestAllocAndFree(t *testing.T) {
	a := newTestAllocator(t, 4)

	info := &bootinfo.Info{
		MemMap: []bootinfo.MemMapEntry{
			{Base: 0x100000, Length: 3 * uint64(mem.PageSize), Type: bootinfo.Usable},
		},
	}
	a.InitFromMemMap(info, 0, false)

	f1, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f3, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f1 == f2 || f2 == f3 || f1 == f3 {
		t.Fatalf("expected three distinct frames, got %v %v %v", f1, f2, f3)
	}

	if _, err := a.Alloc(); err == nil {
		t.Fatal("expected allocator to be exhausted")
	}

	a.Free(f2)
	if got, exp := a.FreeBytes(), uint64(mem.PageSize); got != exp {
		t.Fatalf("expected %d bytes free after single Free, got %d", exp, got)
	}

	f4, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error reallocating freed frame: %v", err)
	}
	if f4 != f2 {
		t.Fatalf("expected reallocated frame to equal freed frame %v, got %v", f2, f4)
	}
}

func TestAllocRunSplitsAndRemoves(t *testing.T) {
	a := newTestAllocator(t, 4)

	info := &bootinfo.Info{
		MemMap: []bootinfo.MemMapEntry{
			{Base: 0x100000, Length: 4 * uint64(mem.PageSize), Type: bootinfo.Usable},
		},
	}
	a.InitFromMemMap(info, 0, false)

	base, err := a.AllocRun(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, exp := a.FreeBytes(), 2*uint64(mem.PageSize); got != exp {
		t.Fatalf("expected %d bytes free after AllocRun(2) of 4, got %d", exp, got)
	}

	rest, err := a.AllocRun(2)
	if err != nil {
		t.Fatalf("unexpected error allocating remaining run: %v", err)
	}
	if rest == base {
		t.Fatal("expected second run to be distinct from the first")
	}

	if _, err := a.AllocRun(1); err == nil {
		t.Fatal("expected allocator to be exhausted after consuming both runs")
	}
}

func TestFreeCoalescesAdjacentRun(t *testing.T) {
	a := newTestAllocator(t, 4)

	info := &bootinfo.Info{
		MemMap: []bootinfo.MemMapEntry{
			{Base: 0x100000, Length: 2 * uint64(mem.PageSize), Type: bootinfo.Usable},
		},
	}
	a.InitFromMemMap(info, 0, false)

	low, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := a.Alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Free(high)
	a.Free(low)

	run, err := a.AllocRun(2)
	if err != nil {
		t.Fatalf("expected coalesced run to satisfy AllocRun(2): %v", err)
	}
	if run != low && run != high {
		t.Fatalf("expected coalesced run to start at one of the freed frames, got %v", run)
	}
}

func TestFreeAddrIgnoresUnalignedAddress(t *testing.T) {
	a := newTestAllocator(t, 4)
	a.FreeAddr(0x100001)

	if got := a.FreeBytes(); got != 0 {
		t.Fatalf("expected unaligned FreeAddr to be a no-op, got %d free bytes", got)
	}
}

func TestRegisterWiresFrameAllocator(t *testing.T) {
	defer mem.SetFrameAllocator(nil)

	a := newTestAllocator(t, 4)
	info := &bootinfo.Info{
		MemMap: []bootinfo.MemMapEntry{
			{Base: 0x100000, Length: uint64(mem.PageSize), Type: bootinfo.Usable},
		},
	}
	a.InitFromMemMap(info, 0, false)
	a.Register()

	f, err := mem.AllocFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Valid() {
		t.Fatal("expected allocated frame to be valid")
	}
}
