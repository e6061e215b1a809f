package sched

import "github.com/roscopeco/anos/kernel/sync"

// CPU is one core's scheduler state: its four priority run queues, sleep
// queue, and the lock serialising all of them. Every field here is touched
// only while holding lock, except Current, which the owning CPU may read
// without the lock (cross-CPU readers must still take it).
type CPU struct {
	ID      uint32
	LapicID uint32

	lock sync.Spinlock

	Current *Task
	Idle    *Task

	queues [4]runQueue
	sleep  sleepQueue

	// Upticks is the free-running tick counter this CPU's timer advances;
	// only the bootstrap processor's copy is treated as the machine-wide
	// clock (see Upticks in scheduler.go).
	Upticks uint64
}

// NewCPU builds a CPU with its idle task installed as Current and Running:
// idleOwner owns the idle task, and idleStackTop is the top of a dedicated
// kernel stack for it. The idle task's stack is not seeded with a
// trampoline: its SavedSP stays zero until the first Schedule that
// switches away from it stores one.
func NewCPU(id, lapicID uint32, idleOwner *Process, idleStackTop uintptr) *CPU {
	idle := newIdleTask(idleOwner, idleStackTop)
	idle.State = Running
	c := &CPU{ID: id, LapicID: lapicID, Idle: idle, Current: idle}
	return c
}

// LockThisCPU saves interrupt flags, disables interrupts and acquires the
// CPU's sched lock. It is non-reentrant: acquiring it twice from the same
// core without an intervening unlock deadlocks, which is a bug, not
// something this code defends against.
func (c *CPU) LockThisCPU() sync.Flags {
	return c.lock.AcquireIrq()
}

// UnlockThisCPU releases the sched lock and restores the interrupt flags
// captured by the matching LockThisCPU.
func (c *CPU) UnlockThisCPU(flags sync.Flags) {
	c.lock.ReleaseIrq(flags)
}

// LockRemoteCPU and UnlockRemoteCPU are named distinctly from
// LockThisCPU/UnlockThisCPU purely to make call sites say which case
// they're in; the lock itself doesn't care which core calls it.
func (c *CPU) LockRemoteCPU() sync.Flags   { return c.lock.AcquireIrq() }
func (c *CPU) UnlockRemoteCPU(f sync.Flags) { c.lock.ReleaseIrq(f) }

func (c *CPU) queueFor(class Class) *runQueue { return &c.queues[class] }
