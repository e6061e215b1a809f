package sched

import (
	"reflect"

	"github.com/roscopeco/anos/kernel/cpu"
)

var (
	kernelTrampolineAddr = reflect.ValueOf(cpu.KernelThreadTrampoline).Pointer()
	userTrampolineAddr   = reflect.ValueOf(cpu.UserThreadTrampoline).Pointer()
)

var nextTaskID uint64 = 1

func newTask(owner *Process, class Class, prio uint8, kernelStackTop uintptr) *Task {
	id := nextTaskID
	nextTaskID++
	return &Task{
		ID:              id,
		Owner:           owner,
		State:           Ready,
		Class:           class,
		Prio:            prio,
		TimesliceRemain: defaultTimeslice,
		KernelStackTop:  kernelStackTop,
	}
}

// CreateKernelTask seeds kernelStackTop so that the first switch into the
// returned Task resumes in KernelThreadTrampoline with entry in its first
// argument slot: a context switch into a brand-new kernel thread looks
// exactly like one returning from an ordinary call.
func CreateKernelTask(owner *Process, kernelStackTop uintptr, entry uintptr, class Class, prio uint8) *Task {
	t := newTask(owner, class, prio, kernelStackTop)
	t.SavedSP = seedStack(kernelStackTop, kernelTrampolineAddr, entry, 0)
	return t
}

// CreateUserTask seeds kernelStackTop so that the first switch into the
// returned Task resumes in UserThreadTrampoline, which drops to user mode
// at entry running on userSP.
func CreateUserTask(owner *Process, userSP, kernelStackTop, entry uintptr, class Class, prio uint8) *Task {
	t := newTask(owner, class, prio, kernelStackTop)
	t.SavedSP = seedStack(kernelStackTop, userTrampolineAddr, entry, userSP)
	return t
}
