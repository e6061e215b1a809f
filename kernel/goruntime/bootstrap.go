// Package goruntime contains code for bootstrapping Go runtime features such
// as the memory allocator.
package goruntime

import (
	"unsafe"

	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sync"
)

var (
	mapFn          = vmm.Map
	currentSpaceFn = vmm.Current
	frameAllocFn   = mem.AllocFrame
)

// heapBase and heapLimit bound the virtual range sysReserve/sysAlloc carve
// pages out of. These calls are wired in ahead of the Go runtime's own
// startup (mallocinit runs before any package's init(), this one included),
// so the range has to be a fixed address rather than something computed at
// boot time: vmm's own layout never places anything else here.
const (
	heapBase  = uintptr(0xffff900100000000)
	heapLimit = heapBase + uintptr(1)*uintptr(mem.Gb)
)

// heapLock guards heapCursor; reserve is the only caller and it is cheap
// enough that a spinlock is not a contention concern at this stage of boot.
var (
	heapLock   sync.Spinlock
	heapCursor uintptr = heapBase
)

// reserve bump-allocates regionSize bytes (rounded up to a whole number of
// pages) of [heapBase, heapLimit). There is no free: the Go heap only ever
// grows over a kernel's lifetime.
func reserve(size uintptr) (uintptr, bool) {
	heapLock.Acquire()
	defer heapLock.Release()

	regionSize := (mem.Size(size) + mem.PageSize - 1) & ^(mem.PageSize - 1)
	if heapCursor+uintptr(regionSize) > heapLimit {
		return 0, false
	}

	start := heapCursor
	heapCursor += uintptr(regionSize)
	return start, true
}

//go:linkname mSysStatInc runtime.mSysStatInc
func mSysStatInc(*uint64, uintptr)

// sysReserve reserves address space without allocating any memory or
// establishing any page mappings.
//
// This function replaces runtime.sysReserve and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	start, ok := reserve(size)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}

	*reserved = true
	return unsafe.Pointer(start)
}

// sysMap establishes a copy-on-write mapping for a particular memory region
// that has been reserved previously via a call to sysReserve.
//
// This function replaces runtime.sysMap and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("sysMap should only be called with reserved=true")
	}

	// We trust the allocator to call sysMap with an address inside a reserved region.
	regionStartAddr := (uintptr(virtAddr) + uintptr(mem.PageSize-1)) & ^uintptr(mem.PageSize-1)
	regionSize := (mem.Size(size) + mem.PageSize - 1) & ^(mem.PageSize - 1)
	pageCount := regionSize >> mem.PageShift

	space := currentSpaceFn()
	mapFlags := vmm.FlagPresent | vmm.FlagNoExecute | vmm.FlagCopyOnWrite
	for page := mem.PageFromAddress(regionStartAddr); pageCount > 0; pageCount, page = pageCount-1, page+1 {
		if err := mapFn(space, page, vmm.ZeroPage, mapFlags); err != nil {
			return unsafe.Pointer(uintptr(0))
		}
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(regionStartAddr)
}

// sysAlloc reserves enough phsysical frames to satisfy the allocation request
// and establishes a contiguous virtual page mapping for them returning back
// the pointer to the virtual region start.
//
// This function replaces runtime.sysAlloc and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	regionSize := (mem.Size(size) + mem.PageSize - 1) & ^(mem.PageSize - 1)
	regionStartAddr, ok := reserve(uintptr(regionSize))
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}

	space := currentSpaceFn()
	mapFlags := vmm.FlagPresent | vmm.FlagNoExecute | vmm.FlagRW
	pageCount := regionSize >> mem.PageShift
	for page := mem.PageFromAddress(regionStartAddr); pageCount > 0; pageCount, page = pageCount-1, page+1 {
		frame, err := frameAllocFn()
		if err != nil {
			return unsafe.Pointer(uintptr(0))
		}

		if err = mapFn(space, page, frame, mapFlags); err != nil {
			return unsafe.Pointer(uintptr(0))
		}
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(regionStartAddr)
}

func init() {
	// Dummy calls so the compiler does not optimize away the functions in
	// this file.
	var (
		reserved bool
		stat     uint64
		zeroPtr  = unsafe.Pointer(uintptr(0))
	)

	sysReserve(zeroPtr, 0, &reserved)
	sysMap(zeroPtr, 0, reserved, &stat)
	sysAlloc(0, &stat)
}
