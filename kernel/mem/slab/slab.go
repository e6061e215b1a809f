// Package slab implements a 64-byte object allocator carved out of one
// kernel/mem/fba block per slab. Each slab's first 64 bytes are its own
// header (a next-pointer plus a 256-bit bitmap, of which only the low 64
// bits are ever meaningful given 64 objects per 4KiB block); slabs move
// between empty, partial and full lists as they fill and drain.
package slab

import (
	"math/bits"
	"unsafe"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sync"
)

// BlockSource supplies the fresh 4KiB blocks a Pool carves slabs out of.
// kernel/mem/fba.Arena satisfies this; tests substitute a plain in-memory
// fake so slab logic can be verified without touching vmm/pmm at all.
type BlockSource interface {
	AllocBlock() (uintptr, *kernel.Error)
}

const objectSize = 64

// objectsPerSlab is mem.PageSize/objectSize: exactly 64 for a 4KiB block,
// which is why only bitmap word 0 is ever touched below.
const objectsPerSlab = uint64(mem.PageSize) / objectSize

const slabAddrMask = ^uintptr(mem.PageSize - 1)

var errOutOfMemory = &kernel.Error{Module: "slab", Message: "slab allocator out of memory"}

// header occupies object slot 0 of every slab; bit 0 of the bitmap is
// always set to reflect that.
type header struct {
	next   uintptr
	bitmap [4]uint64
	_      [objectSize - 8 - 4*8]byte
}

func headerAt(base uintptr) *header {
	return (*header)(unsafe.Pointer(base))
}

func (h *header) full() bool  { return h.bitmap[0] == ^uint64(0) }
func (h *header) empty() bool { return h.bitmap[0] == 1 }

func (h *header) testBit(i uint64) bool { return h.bitmap[i>>6]&(1<<(i&63)) != 0 }
func (h *header) setBit(i uint64)       { h.bitmap[i>>6] |= 1 << (i & 63) }
func (h *header) clearBit(i uint64)     { h.bitmap[i>>6] &^= 1 << (i & 63) }

// firstFreeBit returns the index of the first unset bit among
// objectsPerSlab slots.
func (h *header) firstFreeBit() (uint64, bool) {
	inv := ^h.bitmap[0]
	if inv == 0 {
		return 0, false
	}
	return uint64(bits.TrailingZeros64(inv)), true
}

// Pool is a 64-byte object allocator backed by a single fba.Arena. All
// mutations are serialised by one spinlock, matching the baseline's
// single-lock-per-resource model.
type Pool struct {
	lock sync.Spinlock

	arena BlockSource

	emptyHead, partialHead, fullHead uintptr
}

// New returns a Pool that carves 64-byte objects out of blocks requested
// from arena.
func New(arena BlockSource) *Pool {
	return &Pool{arena: arena}
}

func popHead(head *uintptr) uintptr {
	base := *head
	if base == 0 {
		return 0
	}
	*head = headerAt(base).next
	headerAt(base).next = 0
	return base
}

func pushHead(head *uintptr, base uintptr) {
	headerAt(base).next = *head
	*head = base
}

// removeFrom unlinks base from the list rooted at head, scanning from the
// front since slabs carry no prev pointer; the list is expected to be
// short (one slab per partially-filled page class) so this stays cheap.
func removeFrom(head *uintptr, base uintptr) {
	if *head == base {
		*head = headerAt(base).next
		headerAt(base).next = 0
		return
	}
	for prev := *head; prev != 0; prev = headerAt(prev).next {
		h := headerAt(prev)
		if h.next == base {
			h.next = headerAt(base).next
			headerAt(base).next = 0
			return
		}
	}
}

// AllocBlock returns a freshly reserved 64-byte object.
func (p *Pool) AllocBlock() (uintptr, *kernel.Error) {
	p.lock.Acquire()
	defer p.lock.Release()

	base := p.partialHead
	if base == 0 {
		if base = popHead(&p.emptyHead); base != 0 {
			pushHead(&p.partialHead, base)
		}
	}
	if base == 0 {
		newBase, err := p.arena.AllocBlock()
		if err != nil {
			return 0, err
		}
		h := headerAt(newBase)
		*h = header{}
		h.setBit(0)
		pushHead(&p.partialHead, newBase)
		base = newBase
	}

	h := headerAt(base)
	idx, ok := h.firstFreeBit()
	if !ok {
		return 0, errOutOfMemory
	}
	h.setBit(idx)

	if h.full() {
		removeFrom(&p.partialHead, base)
		pushHead(&p.fullHead, base)
	}

	return base + uintptr(idx)*objectSize, nil
}

// Free releases obj back to its slab. Addresses that land on a slab's
// header slot, or whose slab bit is already clear, are a no-op.
func (p *Pool) Free(obj uintptr) {
	base := obj & slabAddrMask
	idx := uint64(obj-base) / objectSize
	if idx == 0 || idx >= objectsPerSlab {
		return
	}

	p.lock.Acquire()
	defer p.lock.Release()

	h := headerAt(base)
	if !h.testBit(idx) {
		return
	}

	wasFull := h.full()
	h.clearBit(idx)

	switch {
	case wasFull:
		removeFrom(&p.fullHead, base)
		pushHead(&p.partialHead, base)
	case h.empty():
		removeFrom(&p.partialHead, base)
		pushHead(&p.emptyHead, base)
	}
}
