package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/kfmt"
	"github.com/roscopeco/anos/kernel/mem"
)

var errUnrecoverableFault = &kernel.Error{Module: "vmm", Message: "unrecoverable page fault"}

// automapResolverFn is set by the process/region code (kernel/sched) once
// it exists; it reports whether faultAddr falls inside the current task's
// automap region and, if so, whether access is permitted at all. Until
// it's wired in, no address resolves as automapped and every fault to an
// otherwise-unmapped page is unrecoverable - the same posture the teacher
// has before task support exists.
var automapResolverFn func(faultAddr uintptr) (inRegion bool) = func(uintptr) bool { return false }

// handlePageFault implements the recoverable-fault cases: promoting a
// solely-owned copy-on-write page in place, copying a shared one, and
// populating an automapped region on first touch (read maps the shared
// zero page COW, write allocates and zeroes a private page directly).
// It returns nil when the fault was resolved and execution can be
// retried, or the error that makes the fault fatal otherwise.
func handlePageFault(space *AddressSpace, faultAddr uintptr, isWrite bool) *kernel.Error {
	page := mem.PageFromAddress(faultAddr)

	var pte *pageTableEntry
	_ = walk(space.top, page.Address(), func(level uint8, p *pageTableEntry) bool {
		present := p.HasFlags(FlagPresent)
		if level == pageLevels-1 && present {
			pte = p
		}
		return present
	})

	if pte != nil && pte.HasFlags(FlagCopyOnWrite) && isWrite {
		return resolveCOWFault(space, page, pte)
	}

	if pte == nil && automapResolverFn(faultAddr) {
		return resolveAutomapFault(space, page, isWrite)
	}

	return errUnrecoverableFault
}

func resolveCOWFault(space *AddressSpace, page mem.Page, pte *pageTableEntry) *kernel.Error {
	frame := pte.Frame()

	if frame != ZeroPage && decrementRefCount(frame) == 0 {
		pte.ClearFlags(FlagCopyOnWrite)
		pte.SetFlags(FlagRW)
		if space.top == activeTop() {
			flushTLBEntryFn(page.Address())
		}
		return nil
	}

	newFrame, err := mem.AllocFrame()
	if err != nil {
		return err
	}

	win, err := AcquireTempWindow(newFrame)
	if err != nil {
		return err
	}
	kernel.Memcopy(page.Address(), win.Address(), uintptr(mem.PageSize))
	win.Release()

	pte.ClearFlags(FlagCopyOnWrite)
	pte.SetFrame(newFrame)
	pte.SetFlags(FlagRW)
	if space.top == activeTop() {
		flushTLBEntryFn(page.Address())
	}
	return nil
}

func resolveAutomapFault(space *AddressSpace, page mem.Page, isWrite bool) *kernel.Error {
	if !isWrite {
		return Map(space, page, ZeroPage, FlagPresent|FlagUserAccessible|FlagCopyOnWrite)
	}

	frame, err := mem.AllocFrame()
	if err != nil {
		return err
	}

	kernel.Memset(frameBase(frame), 0, uintptr(mem.PageSize))

	return Map(space, page, frame, FlagPresent|FlagUserAccessible|FlagRW)
}

func reportUnrecoverableFault(faultAddr uintptr, isWrite, userMode bool) {
	kfmt.Printf("\nPage fault while accessing address: 0x%016x\nReason: ", faultAddr)
	switch {
	case isWrite:
		kfmt.Printf("write to non-present or protected page")
	default:
		kfmt.Printf("read from non-present or protected page")
	}
	if userMode {
		kfmt.Printf(" (user mode)")
	}
	kfmt.Printf("\n")

	kfmt.Panic(errUnrecoverableFault)
}
