package vmm

import (
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sync"
)

// cowRefCounts tracks how many address spaces currently share a
// copy-on-write frame. A frame with no entry is assumed unshared (count
// of 1, i.e. owned outright); Increment is called whenever a COW mapping
// to a frame is duplicated (process fork duplicates every COW page table
// entry, see kernel/sched), Decrement whenever one of those mappings goes
// away, whether by an in-place write promotion or the owning address
// space being torn down.
var (
	cowRefCountLock sync.Spinlock
	cowRefCounts    = map[mem.Frame]uint32{}
)

// IncrementRefCount records an additional address space sharing frame as
// copy-on-write.
func IncrementRefCount(frame mem.Frame) {
	cowRefCountLock.Acquire()
	defer cowRefCountLock.Release()

	if n, ok := cowRefCounts[frame]; ok {
		cowRefCounts[frame] = n + 1
	} else {
		cowRefCounts[frame] = 2
	}
}

// decrementRefCount releases one sharer's claim on frame and returns the
// count remaining. A frame with no tracked entry is treated as having
// exactly one owner, so decrementing it yields zero: nobody else
// references it, no copy is needed before making it writable in place.
func decrementRefCount(frame mem.Frame) uint32 {
	cowRefCountLock.Acquire()
	defer cowRefCountLock.Release()

	n, ok := cowRefCounts[frame]
	if !ok || n <= 1 {
		delete(cowRefCounts, frame)
		return 0
	}

	n--
	cowRefCounts[frame] = n
	return n
}
