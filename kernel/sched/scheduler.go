package sched

import "github.com/roscopeco/anos/kernel/cpu"

// switchTaskFn is mocked by tests; cpu.SwitchTask is an arch-stub with no
// portable implementation to execute off real hardware.
var switchTaskFn = cpu.SwitchTask

// registeredCPUs backs FindTargetCPU's round-robin hint. CPUs register
// themselves once at AP startup and are never removed.
var (
	registeredCPUs []*CPU
	nextTargetCPU  int
)

// RegisterCPU adds c to the set FindTargetCPU rotates across.
func RegisterCPU(c *CPU) {
	registeredCPUs = append(registeredCPUs, c)
}

// CurrentCPU returns the calling core's own CPU, found by matching
// cpu.LocalAPICID() against the registry. Used anywhere a trap or syscall
// handler needs its own CPU's state without one being threaded through as
// a parameter.
func CurrentCPU() *CPU {
	return CPUByLapicID(cpu.LocalAPICID())
}

// CPUByLapicID returns the registered CPU with the given local APIC id, or
// nil if none matches. This is how code running on a core with no Go
// parameter threading it a *CPU (a timer ISR, say) finds its own state:
// read cpu.LocalAPICID(), look it up here.
func CPUByLapicID(lapicID uint32) *CPU {
	for _, c := range registeredCPUs {
		if c.LapicID == lapicID {
			return c
		}
	}
	return nil
}

// FindTargetCPU picks a CPU for a newly runnable task using a simple
// round-robin hint across every registered CPU. It does not itself enqueue
// anything; callers combine it with UnblockOn.
func FindTargetCPU() *CPU {
	if len(registeredCPUs) == 0 {
		return nil
	}
	c := registeredCPUs[nextTargetCPU%len(registeredCPUs)]
	nextTargetCPU++
	return c
}

// Enqueue places a Ready task onto the run queue for its class. Callers
// hold c's lock.
func (c *CPU) Enqueue(t *Task) {
	t.State = Ready
	c.queueFor(t.Class).enqueue(t)
}

// Block marks t as Blocked without touching any queue: a task calls this
// on itself right before the Schedule call that switches it out, so it was
// never on a run queue to begin with. Only Unblock/UnblockOn move it back
// to Ready.
func Block(t *Task) {
	t.State = Blocked
}

// Unblock moves a Blocked task back onto this CPU's run queue. Callers
// hold c's lock already (the same-CPU case: a task unblocking another
// task on its own core).
func (c *CPU) Unblock(t *Task) {
	c.Enqueue(t)
}

// UnblockOn moves a Blocked task onto a (possibly different) CPU's run
// queue, taking that CPU's own lock itself. This is the cross-CPU wakeup
// path: the caller must not already hold target's lock.
func UnblockOn(target *CPU, t *Task) {
	flags := target.LockRemoteCPU()
	target.Enqueue(t)
	target.UnlockRemoteCPU(flags)
}

// SleepTask computes wake_at from the CPU's current tick count and moves t
// from Running/Ready to Sleeping in c's sleep queue. Callers hold c's lock.
func (c *CPU) SleepTask(t *Task, ticks uint64) {
	t.State = Sleeping
	c.sleep.enqueue(t, c.Upticks+ticks)
}

// CheckSleepers moves every task whose wake_at has arrived from the sleep
// queue to Ready on its run queue. Callers hold c's lock; this is always
// called immediately before Schedule on the timer-tick path.
func (c *CPU) CheckSleepers() {
	for t := c.sleep.dequeueDue(c.Upticks); t != nil; {
		woken := t
		t = t.Next
		woken.Next = nil
		c.Enqueue(woken)
	}
}

// Tick advances the CPU's own tick counter and, if a task is Running,
// decrements its remaining timeslice (floored at zero). It does not call
// Schedule; the timer interrupt handler is expected to follow Tick with
// CheckSleepers then Schedule.
func (c *CPU) Tick() {
	c.Upticks++
	if c.Current != nil && c.Current.State == Running && c.Current.TimesliceRemain > 0 {
		c.Current.TimesliceRemain--
	}
}

// peekCandidate returns the best runnable task across all four classes
// without removing it, or nil if every run queue is empty.
func (c *CPU) peekCandidate() *Task {
	for class := Realtime; class <= Idle; class++ {
		if t := c.queues[class].peek(); t != nil {
			return t
		}
	}
	return nil
}

// beats reports whether candidate is strictly better than current: a
// strictly higher class, or the same class with a strictly lower (better)
// priority. Equal class and priority does not beat — the current task
// keeps running.
func beats(candidate, current *Task) bool {
	if candidate.Class != current.Class {
		return candidate.Class < current.Class
	}
	return candidate.Prio < current.Prio
}

// Schedule picks the next task to run and switches to it if warranted.
// Callers hold c's lock with interrupts already disabled; Schedule itself
// releases nothing — the lock is carried across the switch and released by
// whichever path resumes next (the trampoline for a fresh task, or the
// point right after the cpu.SwitchTask call that originally suspended the
// resuming task).
func (c *CPU) Schedule() {
	current := c.Current
	candidate := c.peekCandidate()

	switch {
	case candidate == nil:
		if current.State == Running {
			return
		}
		candidate = c.Idle
	case current.State == Running && current.TimesliceRemain > 0 && !beats(candidate, current):
		return
	}

	if candidate != c.Idle {
		c.queueFor(candidate.Class).dequeue()
	}

	if current.State == Running {
		c.Enqueue(current)
	}

	candidate.State = Running
	candidate.TimesliceRemain = defaultTimeslice
	c.Current = candidate

	switchTaskFn(&current.SavedSP, candidate.SavedSP)
}
