// Package pmm implements the kernel's physical frame allocator: a stack of
// disjoint, page-aligned frame runs rather than a bitmap. Single-page Alloc
// pops (and possibly shrinks) the top run; AllocRun does a first-fit scan
// across all runs and splits whichever one it finds; Free coalesces back
// into the top run when the freed page is adjacent to it, otherwise pushes
// a new one-page run.
package pmm

import (
	"reflect"
	"unsafe"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sync"
)

// run describes one contiguous, page-aligned span of free frames.
type run struct {
	base  mem.Frame
	count uint64
}

// Allocator is a single region's run-stack allocator. The kernel normally
// has exactly one, covering all reclaimable memory above managedBase, but
// nothing here prevents per-NUMA-node instances later.
type Allocator struct {
	lock sync.Spinlock

	// runs backs the run stack. It is overlaid on a caller-supplied
	// buffer rather than grown with append/make, so the allocator never
	// depends on a heap existing (it's the thing the heap is eventually
	// built out of).
	runs []run
	sp   int // index of the top run; -1 when the stack is empty

	size uint64 // total bytes ever placed under management
	free uint64 // bytes currently free
}

// errOutOfMemory is returned by Alloc/AllocRun when no run can satisfy the
// request.
var errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical memory"}

// New overlays an Allocator's run stack on buffer, which must be at least
// capacity*unsafe.Sizeof(run{}) bytes and must outlive the allocator.
func New(buffer uintptr, capacity int) *Allocator {
	a := &Allocator{sp: -1}

	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&a.runs))
	hdr.Data = buffer
	hdr.Len = 0
	hdr.Cap = capacity

	return a
}

// InitFromMemMap populates the run stack from the bootloader memory map.
// Only memory at or above managedBase is claimed, so callers can reserve a
// low region (the kernel image, the run stack's own backing buffer, early
// page tables) before handing the rest to the allocator. reclaimExecMods
// controls whether the bootloader's "executable and modules" region is
// folded in too; some platforms can't prove that region no longer holds
// tables the firmware still expects to find.
func (a *Allocator) InitFromMemMap(info *bootinfo.Info, managedBase uint64, reclaimExecMods bool) {
	a.lock.Acquire()
	defer a.lock.Release()

	bootinfo.VisitReclaimable(info, reclaimExecMods, func(entry *bootinfo.MemMapEntry) bool {
		start := entry.Base &^ uint64(mem.PageSize-1)
		end := (entry.Base + entry.Length) &^ uint64(mem.PageSize-1)

		if entry.Base > start {
			start += uint64(mem.PageSize)
		}

		if start < managedBase {
			if end <= managedBase {
				return true
			}
			start = managedBase
		}

		if end <= start {
			return true
		}

		totalBytes := end - start

		a.size += totalBytes
		a.free += totalBytes

		a.sp++
		a.runs = a.runs[:a.sp+1]
		a.runs[a.sp] = run{
			base:  mem.FrameFromAddress(uintptr(start)),
			count: totalBytes >> mem.PageShift,
		}

		return true
	})
}

func (a *Allocator) empty() bool {
	return a.sp < 0
}

// Alloc reserves and returns a single free frame.
func (a *Allocator) Alloc() (mem.Frame, *kernel.Error) {
	flags := a.lock.AcquireIrq()
	defer a.lock.ReleaseIrq(flags)

	if a.empty() {
		return mem.InvalidFrame, errOutOfMemory
	}

	a.free -= uint64(mem.PageSize)

	top := &a.runs[a.sp]
	page := top.base

	if top.count > 1 {
		top.base++
		top.count--
	} else {
		a.sp--
		a.runs = a.runs[:a.sp+1]
	}

	return page, nil
}

// AllocRun reserves and returns the first frame of a run of count
// contiguous frames, using a first-fit scan over the run stack.
func (a *Allocator) AllocRun(count uint64) (mem.Frame, *kernel.Error) {
	flags := a.lock.AcquireIrq()
	defer a.lock.ReleaseIrq(flags)

	for i := a.sp; i >= 0; i-- {
		r := &a.runs[i]

		if r.count > count {
			page := r.base
			r.base += mem.Frame(count)
			r.count -= count
			a.free -= count << mem.PageShift
			return page, nil
		}

		if r.count == count {
			page := r.base

			if i != a.sp {
				*r = a.runs[a.sp]
			}
			a.sp--
			a.runs = a.runs[:a.sp+1]

			a.free -= count << mem.PageShift
			return page, nil
		}
	}

	return mem.InvalidFrame, errOutOfMemory
}

// FreeAddr releases the page containing addr back to the allocator.
// Addresses that are not page-aligned are silently ignored, never a panic:
// a caller holding a bad pointer should not be able to corrupt the
// allocator.
func (a *Allocator) FreeAddr(addr uintptr) {
	if addr&uintptr(mem.PageSize-1) != 0 {
		return
	}
	a.Free(mem.FrameFromAddress(addr))
}

// Free releases a single frame back to the allocator.
func (a *Allocator) Free(frame mem.Frame) {
	flags := a.lock.AcquireIrq()
	defer a.lock.ReleaseIrq(flags)

	a.free += uint64(mem.PageSize)

	if !a.empty() {
		top := &a.runs[a.sp]
		if top.base == frame+1 {
			top.base = frame
			top.count++
			return
		}
		if top.base+mem.Frame(top.count) == frame {
			top.count++
			return
		}
	}

	a.sp++
	a.runs = a.runs[:a.sp+1]
	a.runs[a.sp] = run{base: frame, count: 1}
}

// Size returns the total number of bytes ever placed under this
// allocator's management.
func (a *Allocator) Size() uint64 {
	return a.size
}

// FreeBytes returns the number of bytes currently free.
func (a *Allocator) FreeBytes() uint64 {
	return a.free
}

// Register installs this allocator as the package-wide frame allocator
// used by kernel/mem.AllocFrame/FreeFrame (and so, transitively, by
// kernel/mem/vmm, kernel/mem/fba).
func (a *Allocator) Register() {
	mem.SetFrameAllocator(func() (mem.Frame, *kernel.Error) {
		return a.Alloc()
	})
	mem.SetFrameDeallocator(a.Free)
}
