// Package fba implements the kernel's fixed-block allocator: a single
// virtual arena of 4KiB blocks tracked by a bitmap, each block lazily
// backed by a PMM frame and mapped in on first allocation. It is the
// substrate the slab allocator carves smaller objects out of.
package fba

import (
	"math/bits"
	"reflect"
	"unsafe"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sync"
)

// bitsPerBitmapPage is the number of blocks one 4KiB bitmap page can track
// (one bit per block): 4096 bytes * 8.
const bitsPerBitmapPage = uint64(mem.PageSize) * 8

var (
	errNotPageAligned = &kernel.Error{Module: "fba", Message: "arena base is not page-aligned"}
	errBadSize        = &kernel.Error{Module: "fba", Message: "arena size must be a nonzero multiple of the bitmap's own page size in bits"}
	errBadAlign       = &kernel.Error{Module: "fba", Message: "alignment must be a power of two no greater than 64"}
	errOutOfArena     = &kernel.Error{Module: "fba", Message: "arena exhausted"}
)

// The following seams let tests stand in for vmm/mem without real page
// tables or physical memory, mirroring vmm's own ptePtrFn/allocTableFn
// mocking idiom.
var (
	mapFn          = vmm.Map
	unmapFn        = vmm.Unmap
	translateFn    = vmm.Translate
	currentSpaceFn = vmm.Current
	allocFrameFn   = mem.AllocFrame
	freeFrameFn    = mem.FreeFrame
)

// Arena is a bitmap-backed fixed-block allocator over a single virtual
// range. Block 0..bitmapBlocks-1 hold the bitmap itself and are permanently
// reserved.
type Arena struct {
	lock sync.Spinlock

	begin      mem.Page
	sizeBlocks uint64

	bitmap []uint64
}

// New reserves the bitmap blocks at the head of [beginVirt, beginVirt+
// sizeBlocks*4KiB) and returns an Arena ready to serve the remainder.
// sizeBlocks must be a nonzero multiple of bitsPerBitmapPage so the bitmap
// itself occupies a whole number of blocks; beginVirt must be 4KiB-aligned.
func New(beginVirt uintptr, sizeBlocks uint64) (*Arena, *kernel.Error) {
	if beginVirt%uintptr(mem.PageSize) != 0 {
		return nil, errNotPageAligned
	}
	if sizeBlocks == 0 || sizeBlocks%bitsPerBitmapPage != 0 {
		return nil, errBadSize
	}

	a := &Arena{
		begin:      mem.PageFromAddress(beginVirt),
		sizeBlocks: sizeBlocks,
	}

	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&a.bitmap))
	hdr.Data = beginVirt
	hdr.Len = int(sizeBlocks / 64)
	hdr.Cap = hdr.Len

	bitmapBlocks := sizeBlocks / bitsPerBitmapPage
	space := currentSpaceFn()

	for i := uint64(0); i < bitmapBlocks; i++ {
		page := a.begin + mem.Page(i)

		frame, err := allocFrameFn()
		if err != nil {
			return nil, err
		}
		if err := mapFn(space, page, frame, vmm.FlagPresent|vmm.FlagRW|vmm.FlagNoExecute); err != nil {
			return nil, err
		}
		kernel.Memset(page.Address(), 0, uintptr(mem.PageSize))
	}

	for i := uint64(0); i < bitmapBlocks; i++ {
		a.setBit(i)
	}

	return a, nil
}

func (a *Arena) setBit(i uint64)        { a.bitmap[i>>6] |= 1 << (i & 63) }
func (a *Arena) clearBit(i uint64)      { a.bitmap[i>>6] &^= 1 << (i & 63) }
func (a *Arena) testBit(i uint64) bool  { return a.bitmap[i>>6]&(1<<(i&63)) != 0 }
func (a *Arena) blockAddr(i uint64) uintptr {
	return (a.begin + mem.Page(i)).Address()
}

// materialize maps count consecutive blocks starting at idx, allocating a
// fresh PMM frame for each. On failure already-mapped blocks in this run
// are left mapped; the caller never unwinds a partial allocation, matching
// the baseline's "exhaustion is terminal for this request" contract.
func (a *Arena) materialize(idx, count uint64) *kernel.Error {
	space := currentSpaceFn()
	for i := uint64(0); i < count; i++ {
		frame, err := allocFrameFn()
		if err != nil {
			return err
		}
		page := a.begin + mem.Page(idx+i)
		if err := mapFn(space, page, frame, vmm.FlagPresent|vmm.FlagRW); err != nil {
			return err
		}
	}
	return nil
}

// firstFreeRun finds the first run of count consecutive clear bits whose
// starting index is a multiple of align, or false if the arena has none.
func (a *Arena) firstFreeRun(count, align uint64) (uint64, bool) {
	total := a.sizeBlocks
	for start := uint64(0); start+count <= total; start += align {
		free := true
		for i := uint64(0); i < count; i++ {
			if a.testBit(start + i) {
				free = false
				break
			}
		}
		if free {
			return start, true
		}
	}
	return 0, false
}

// AllocBlock reserves and maps a single 4KiB block, returning its virtual
// address.
func (a *Arena) AllocBlock() (uintptr, *kernel.Error) {
	return a.AllocBlocksAligned(1, 1)
}

// AllocBlocks reserves and maps a run of n consecutive 4KiB blocks,
// returning the base virtual address.
func (a *Arena) AllocBlocks(n uint64) (uintptr, *kernel.Error) {
	return a.AllocBlocksAligned(n, 1)
}

// AllocBlocksAligned reserves a run of n consecutive blocks whose starting
// index is a multiple of align, which must be a power of two no greater
// than 64.
func (a *Arena) AllocBlocksAligned(n, align uint64) (uintptr, *kernel.Error) {
	if align == 0 || align > 64 || bits.OnesCount64(align) != 1 {
		return 0, errBadAlign
	}

	a.lock.Acquire()
	defer a.lock.Release()

	idx, ok := a.firstFreeRun(n, align)
	if !ok {
		return 0, errOutOfArena
	}

	if err := a.materialize(idx, n); err != nil {
		return 0, err
	}

	for i := uint64(0); i < n; i++ {
		a.setBit(idx + i)
	}

	return a.blockAddr(idx), nil
}

// inArena reports whether addr falls within the block range this arena
// manages and is block-aligned.
func (a *Arena) inArena(addr uintptr) (uint64, bool) {
	if addr%uintptr(mem.PageSize) != 0 {
		return 0, false
	}
	base := a.begin.Address()
	limit := base + uintptr(a.sizeBlocks)*uintptr(mem.PageSize)
	if addr < base || addr >= limit {
		return 0, false
	}
	return uint64(addr-base) >> mem.PageShift, true
}

// Free unmaps and releases the single block at addr back to PMM. Addresses
// outside the arena, not block-aligned, or not currently allocated are a
// no-op: a caller holding a bad pointer must not be able to corrupt the
// allocator.
func (a *Arena) Free(addr uintptr) {
	idx, ok := a.inArena(addr)
	if !ok {
		return
	}

	a.lock.Acquire()
	defer a.lock.Release()

	if !a.testBit(idx) {
		return
	}

	space := currentSpaceFn()
	page := a.begin + mem.Page(idx)

	frame, err := translateFn(space, page)
	if err == nil {
		_ = unmapFn(space, page)
		freeFrameFn(frame)
	}

	a.clearBit(idx)
}
