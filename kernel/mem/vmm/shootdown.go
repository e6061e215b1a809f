package vmm

import (
	"sync/atomic"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/mem"
)

// Shootdown wraps Map/Unmap with a best-effort cross-CPU TLB invalidation
// broadcast: updating a page table is only ever locally visible until
// every other core that might have cached the old translation flushes
// it too. Per the shootdown design decision, this does not wait for
// those cores to acknowledge - it fires the IPIs and returns, trading a
// short window of staleness for never blocking a mapping call on a
// potentially wedged peer core. AckCount lets a future caller busy-wait
// on completion without needing a different API.
type Shootdown struct {
	acks uint64
}

// broadcastInvalidateFn is the seam kernel/smp wires up once it exists
// (it knows the set of online cores and how to IPI them); until then it's
// a no-op, matching this package's stance elsewhere of staying buildable
// and testable ahead of the packages that will drive it.
var broadcastInvalidateFn = func(virtAddr uintptr, ackCounter *uint64) {}

// SetBroadcastInvalidate wires fn as the IPI broadcast Shootdown uses.
// kernel/smp calls this during its own init, once it knows the set of
// online cores and how to IPI them.
func SetBroadcastInvalidate(fn func(uintptr, *uint64)) {
	broadcastInvalidateFn = fn
}

// AckCount returns how many peer cores have acknowledged the most recent
// invalidation this Shootdown issued. Nothing currently blocks on it; it
// exists so a caller that needs stronger ordering later has something to
// poll without an API change.
func (s *Shootdown) AckCount() uint64 {
	return atomic.LoadUint64(&s.acks)
}

// MapRun behaves like the package-level MapRun but additionally
// broadcasts an invalidation for every page it maps.
func (s *Shootdown) MapRun(space *AddressSpace, page mem.Page, frame mem.Frame, count uint64, flags PageTableEntryFlag) *kernel.Error {
	for i := uint64(0); i < count; i++ {
		p := page + mem.Page(i)
		if err := Map(space, p, frame+mem.Frame(i), flags); err != nil {
			return err
		}
		broadcastInvalidateFn(p.Address(), &s.acks)
	}
	return nil
}

// Unmap behaves like the package-level Unmap but additionally broadcasts
// an invalidation for the unmapped page.
func (s *Shootdown) Unmap(space *AddressSpace, page mem.Page) *kernel.Error {
	if err := Unmap(space, page); err != nil {
		return err
	}
	broadcastInvalidateFn(page.Address(), &s.acks)
	return nil
}
