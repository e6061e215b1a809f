package sched

import "unsafe"

// initialFrame mirrors stack_amd64.go's layout for RISC-V's calling
// convention: callee-saved s0-s11 as don't-care slots, the trampoline's
// two arguments preloaded into a0/a1, and the trampoline address in the
// return-address (ra) slot.
type initialFrame struct {
	s11, s10, s9, s8, s7, s6, s5, s4, s3, s2, s1, s0 uintptr
	a1, a0                                           uintptr
	returnAddr                                       uintptr
}

// seedStack carves an initialFrame off the top of [stackTop] and returns
// the stack pointer a Task's SavedSP should be set to so that the first
// cpu.SwitchTask onto it lands on trampoline with arg0/arg1 in a0/a1.
func seedStack(stackTop uintptr, trampoline uintptr, arg0, arg1 uintptr) uintptr {
	sp := stackTop - unsafe.Sizeof(initialFrame{})
	frame := (*initialFrame)(unsafe.Pointer(sp))
	*frame = initialFrame{a0: arg0, a1: arg1, returnAddr: trampoline}
	return sp
}
