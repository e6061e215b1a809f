// Package sched implements the per-CPU prioritised task scheduler: four
// priority classes over FIFO-within-priority run queues, a time-ordered
// sleep queue, and the task/process records both operate on.
package sched

import (
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/vmm"
)

// State is a task's scheduling state.
type State uint8

const (
	// Ready tasks are sitting on a run queue waiting to be picked.
	Ready State = iota
	// Running is the task currently executing on some CPU; exactly one
	// task per CPU is Running at a time (or the CPU's idle task).
	Running
	// Blocked tasks are off every run queue and are never requeued by
	// Schedule; only Unblock (or UnblockOn, for cross-CPU wakeups) moves
	// them back to Ready.
	Blocked
	// Sleeping tasks sit in a CPU's sleep queue, ordered by wake time,
	// until CheckSleepers moves them to Ready.
	Sleeping
)

// Class is a task's priority class. Lower values preempt higher ones:
// Realtime always preempts Normal, never the other way round.
type Class uint8

const (
	Realtime Class = iota
	High
	Normal
	Idle
)

// idlePriority is the fixed priority of every CPU's permanent idle task:
// lower than any priority a real task can be created with.
const idlePriority = 255

// Task is one schedulable thread of execution. A Task belongs to exactly
// one Process and, at any instant, is on at most one of: a run queue, the
// sleep queue, or neither (Blocked).
type Task struct {
	// Next links this Task into whichever run queue, sleep queue, or
	// channel wait list currently owns it. A Task is never on two lists
	// at once, so a single link field is enough. Exported so packages
	// outside sched (channel receiver/sender lists) can walk it too.
	Next *Task

	ID    uint64
	Owner *Process

	State State
	Class Class
	// Prio is the tie-breaker within Class: lower wins. Every real task
	// is expected to use a small range (0-254); 255 is reserved for the
	// per-CPU idle task.
	Prio uint8

	// TimesliceRemain counts down by one on every timer tick the task
	// spends Running; Schedule requeues the task to the tail of its
	// class once it reaches zero.
	TimesliceRemain uint8

	// KernelStackTop is the highest address of this task's kernel stack;
	// SavedSP is where execution will resume the next time this task is
	// switched in. SavedSP is meaningless while the task is Running.
	KernelStackTop uintptr
	SavedSP        uintptr

	// WakeAt is the tick count this task should be moved from Sleeping
	// back to Ready; meaningful only while State == Sleeping.
	WakeAt uint64

	Accnt Accnt

	// PendingUnmapSpace/PendingUnmapPage record a channel payload mapping
	// this task's last Recv installed, still live because the task hasn't
	// made another channel call since. A nil PendingUnmapSpace means
	// nothing is pending. kernel/ipc clears this at the top of the next
	// Recv or Reply, rather than unmapping it on the sender's Reply.
	PendingUnmapSpace *vmm.AddressSpace
	PendingUnmapPage  mem.Page
}

// defaultTimeslice is the tick allowance a task is given each time
// Schedule switches it in.
const defaultTimeslice = 10

// newIdleTask builds the permanent, lowest-priority task a CPU runs when
// every run queue is empty. It is never destroyed and never leaves the
// Idle class.
func newIdleTask(owner *Process, stackTop uintptr) *Task {
	return &Task{
		Owner:           owner,
		State:           Ready,
		Class:           Idle,
		Prio:            idlePriority,
		TimesliceRemain: defaultTimeslice,
		KernelStackTop:  stackTop,
	}
}
