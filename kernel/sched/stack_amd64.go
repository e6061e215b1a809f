package sched

import "unsafe"

// initialFrame is the layout cpu.SwitchTask expects to find at the top of
// a task's kernel stack the first time it switches to it: a block of
// callee-saved register slots (don't-care; SwitchTask restores them but
// nothing reads their initial values) under a return address, with the
// trampoline's two System V AMD64 arguments preloaded into the rdi/rsi
// slots SwitchTask's register-restore sequence pops last.
type initialFrame struct {
	r15, r14, r13, r12, rbp, rbx uintptr
	rsi, rdi                    uintptr
	returnAddr                  uintptr
}

// seedStack carves an initialFrame off the top of [stackTop] and returns
// the stack pointer a Task's SavedSP should be set to so that the first
// cpu.SwitchTask onto it lands on trampoline with arg0/arg1 in rdi/rsi.
func seedStack(stackTop uintptr, trampoline uintptr, arg0, arg1 uintptr) uintptr {
	sp := stackTop - unsafe.Sizeof(initialFrame{})
	frame := (*initialFrame)(unsafe.Pointer(sp))
	*frame = initialFrame{rdi: arg0, rsi: arg1, returnAddr: trampoline}
	return sp
}
