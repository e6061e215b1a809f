package pmm

import (
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/kfmt"
	"github.com/roscopeco/anos/kernel/mem"
)

// EarlyAllocator is the single rudimentary allocator used to bootstrap the
// kernel before New and InitFromMemMap bring up the real run-stack
// allocator. It hands out frames straight from the bootloader memory map
// and cannot free anything. Frames it gave out are never returned to the
// real allocator: InitFromMemMap's managedBase argument is what keeps the
// run stack from handing them out a second time.
var EarlyAllocator BootMemAllocator

// BootMemAllocator implements a rudimentary physical memory allocator. It
// tracks allocations with a single counter (the last page index handed
// out) rather than any free list, so it can run before the kernel has a
// heap: the only state it needs fits in three fields.
type BootMemAllocator struct {
	initialized    bool
	allocCount     uint64
	lastAllocIndex int64
}

func (a *BootMemAllocator) init() {
	a.lastAllocIndex = -1
	a.initialized = true

	info := bootinfo.Get()

	kfmt.Printf("[bootmem] system memory map:\n")
	var totalFree mem.Size
	bootinfo.VisitUsable(info, func(entry *bootinfo.MemMapEntry) bool {
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n",
			entry.Base, entry.Base+entry.Length, entry.Length, entry.Type)
		totalFree += mem.Size(entry.Length)
		return true
	})
	kfmt.Printf("[bootmem] free memory: %dKb\n", uint64(totalFree/mem.Kb))
}

// AllocFrame reserves and returns the next available free frame. It only
// ever hands out single pages (order 0); any other order fails.
//
// A bool return is used deliberately instead of a *kernel.Error: until the
// Go runtime's own heap is bootstrapped, boxing an error into an interface
// would invoke runtime.convT2I, which needs an allocator that doesn't exist
// yet.
func (a *BootMemAllocator) AllocFrame(order mem.PageOrder) (mem.Frame, bool) {
	if !a.initialized {
		a.init()
	}

	if order > 0 {
		return mem.InvalidFrame, false
	}

	info := bootinfo.Get()

	var (
		foundPageIndex                           int64 = -1
		regionStartPageIndex, regionEndPageIndex int64
	)
	bootinfo.VisitUsable(info, func(entry *bootinfo.MemMapEntry) bool {
		regionStartPageIndex = int64(((mem.Size(entry.Base) + (mem.PageSize - 1)) & ^(mem.PageSize - 1)) >> mem.PageShift)
		regionEndPageIndex = int64(((mem.Size(entry.Base+entry.Length) - (mem.PageSize - 1)) & ^(mem.PageSize - 1)) >> mem.PageShift)

		if a.lastAllocIndex >= regionEndPageIndex {
			return true
		}

		if a.lastAllocIndex < regionStartPageIndex {
			foundPageIndex = regionStartPageIndex
		} else {
			foundPageIndex = a.lastAllocIndex + 1
		}
		return false
	})

	if foundPageIndex == -1 {
		return mem.InvalidFrame, false
	}

	a.allocCount++
	a.lastAllocIndex = foundPageIndex

	return mem.Frame(foundPageIndex), true
}
