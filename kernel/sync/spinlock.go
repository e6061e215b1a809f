// Package sync provides synchronization primitive implementations for
// spinlocks. Every lock that guards a kernel data structure (PMM run stack,
// VMM mapper, FBA/slab arenas, per-CPU scheduler state, IPC channel tables)
// uses exactly one instance of Spinlock; the kernel deliberately uses coarse,
// single-lock-per-resource locking throughout (see DESIGN.md).
package sync

import (
	"sync/atomic"

	"github.com/roscopeco/anos/kernel/cpu"
)

var (
	// yieldFn is mocked by tests to avoid deadlocking on a single OS thread.
	yieldFn func() = archYield

	// archSaveFlagsAndDisableIrqFn and archRestoreFlagsFn are mocked by
	// tests and are automatically inlined by the compiler when building
	// the kernel.
	archSaveFlagsAndDisableIrqFn = archSaveFlagsAndDisableIrq
	archRestoreFlagsFn           = archRestoreFlags
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will
// cause a deadlock; this is a bug caught in conservative builds, not a
// feature.
func (l *Spinlock) Acquire() {
	for !l.TryToAcquire() {
		if yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// Flags captures the interrupt-enable state saved by AcquireIrq so it can be
// restored by the matching ReleaseIrq.
type Flags uintptr

// AcquireIrq disables interrupts, saves the previous interrupt-enable state
// and acquires the lock, so that an interrupt handler can never observe or
// re-enter the critical section on the same core. pmm's Alloc, AllocRun and
// Free and the per-CPU scheduler lock use this form; the other lock sites in
// the kernel (pmm's InitFromMemMap, ipc tables and channels, fba, slab, vmm,
// process and accounting records) use plain Acquire, which leaves the
// interrupt state unchanged.
func (l *Spinlock) AcquireIrq() Flags {
	flags := archSaveFlagsAndDisableIrqFn()
	l.Acquire()
	return flags
}

// ReleaseIrq releases the lock and restores the interrupt-enable state
// captured by the paired AcquireIrq call.
func (l *Spinlock) ReleaseIrq(flags Flags) {
	l.Release()
	archRestoreFlagsFn(flags)
}

// archYield is the default, architecture-neutral yield used outside of
// tests: a single disable/enable pair gives any pending interrupt a chance
// to run before retrying the lock.
func archYield() {
	cpu.EnableInterrupts()
	cpu.DisableInterrupts()
}
