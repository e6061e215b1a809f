// Package timer models the periodic hardware timer the scheduler rides
// its tick on. HPET, the LAPIC's own timer and RISC-V's CLINT all reduce
// to the same small capability set from the scheduler's point of view, so
// kernel/sched never needs to know which one is backing a given core.
package timer

import "github.com/roscopeco/anos/kernel/sched"

// KernelTimer is the capability set a concrete timer driver (LAPIC, HPET,
// CLINT) must expose. The scheduler only ever uses Ack, via OnTick below;
// the rest exists so a driver has somewhere to put the primitives a future
// caller (a sleep() syscall computing a precise deadline, say) will need.
type KernelTimer interface {
	// CurrentTicks returns the timer's own free-running tick count.
	CurrentTicks() uint64
	// NanosPerTick returns how many nanoseconds one tick represents.
	NanosPerTick() uint64
	// DelayNanos busy-waits for approximately the given duration.
	DelayNanos(nanos uint64)
	// DeadlineOneshot arms the timer to fire once at the given tick.
	DeadlineOneshot(deadlineTicks uint64)
	// Ack acknowledges the current interrupt so the timer can fire again.
	Ack()
}

// OnTick is the body of every core's periodic timer interrupt handler:
// acknowledge the hardware, advance that core's own scheduler tick, move
// anything whose sleep has expired back to Ready, then reschedule. t is
// the concrete driver for whichever timer is backing the calling core.
//
// OnTick takes the calling CPU's sched lock itself (via LockThisCPU, which
// saves the interrupt flags and disables interrupts) around Tick,
// CheckSleepers and Schedule, so the caller must not already hold it: the
// lock is not reentrant.
func OnTick(t KernelTimer) {
	t.Ack()

	c := sched.CurrentCPU()
	if c == nil {
		return
	}

	flags := c.LockThisCPU()
	c.Tick()
	c.CheckSleepers()
	c.Schedule()
	c.UnlockThisCPU(flags)
}
