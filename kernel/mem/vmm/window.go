package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sync"
)

// TempWindow is a scoped mapping of an arbitrary physical frame into one
// of a handful of reserved scratch virtual addresses in the active
// address space. Ordinary RAM frames - including every page table this
// package manages - never need one, since the direct map already covers
// them; TempWindow exists for the remaining case where something needs a
// normal, flag-bearing PTE pointed at a frame outside that coverage (a
// framebuffer or other MMIO region, or a one-off mapping the caller wants
// torn down deterministically rather than living for the kernel's
// lifetime).
type TempWindow struct {
	slot  int
	frame mem.Frame
}

var (
	tempWindowLock sync.Spinlock
	tempWindowUsed [tempWindowCount]bool
)

var errNoFreeTempWindow = &kernel.Error{Module: "vmm", Message: "no free temporary mapping window"}

func tempWindowPage(slot int) mem.Page {
	return mem.PageFromAddress(tempWindowBase + uintptr(slot)*uintptr(mem.PageSize))
}

// AcquireTempWindow maps frame read-write into a free scratch window of
// the active address space and returns a handle for accessing it. Callers
// must call Release when done; there are only tempWindowCount windows
// available system-wide.
func AcquireTempWindow(frame mem.Frame) (*TempWindow, *kernel.Error) {
	tempWindowLock.Acquire()

	slot := -1
	for i, used := range tempWindowUsed {
		if !used {
			slot = i
			break
		}
	}
	if slot < 0 {
		tempWindowLock.Release()
		return nil, errNoFreeTempWindow
	}
	tempWindowUsed[slot] = true
	tempWindowLock.Release()

	space := Current()
	if err := Map(space, tempWindowPage(slot), frame, FlagPresent|FlagRW); err != nil {
		tempWindowLock.Acquire()
		tempWindowUsed[slot] = false
		tempWindowLock.Release()
		return nil, err
	}

	return &TempWindow{slot: slot, frame: frame}, nil
}

// Address returns the virtual address the window's frame is currently
// mapped at.
func (w *TempWindow) Address() uintptr {
	return tempWindowPage(w.slot).Address()
}

// Release unmaps the window and frees the slot for reuse.
func (w *TempWindow) Release() {
	_ = Unmap(Current(), tempWindowPage(w.slot))

	tempWindowLock.Acquire()
	tempWindowUsed[w.slot] = false
	tempWindowLock.Release()
}
