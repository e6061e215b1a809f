package sched

import "github.com/roscopeco/anos/kernel/sync"

// Accnt is a task's lockable usage-counter record: ticks spent running in
// user mode versus ticks spent running in kernel mode (servicing a syscall
// or fault on the task's behalf). There is no wall clock in the kernel, so
// unlike a userspace accounting record this one counts scheduler ticks
// rather than nanoseconds; a consumer that wants wall time multiplies by
// the active KernelTimer's nanos-per-tick.
type Accnt struct {
	lock sync.Spinlock

	UserTicks   uint64
	SystemTicks uint64
}

// TickUser adds n ticks to the user-mode counter.
func (a *Accnt) TickUser(n uint64) {
	a.lock.Acquire()
	a.UserTicks += n
	a.lock.Release()
}

// TickSystem adds n ticks to the kernel-mode counter.
func (a *Accnt) TickSystem(n uint64) {
	a.lock.Acquire()
	a.SystemTicks += n
	a.lock.Release()
}

// Add merges other's counts into a, under a's lock. Used when a task's
// usage is folded into its owning process's aggregate on exit.
func (a *Accnt) Add(other *Accnt) {
	other.lock.Acquire()
	u, s := other.UserTicks, other.SystemTicks
	other.lock.Release()

	a.lock.Acquire()
	a.UserTicks += u
	a.SystemTicks += s
	a.lock.Release()
}

// Fetch returns a consistent snapshot of the counters.
func (a *Accnt) Fetch() (userTicks, systemTicks uint64) {
	a.lock.Acquire()
	defer a.lock.Release()
	return a.UserTicks, a.SystemTicks
}
