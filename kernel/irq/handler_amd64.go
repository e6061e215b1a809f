// Package irq owns the IDT/trap-vector boundary: registering exception
// and interrupt gates, and demultiplexing the ones the kernel core itself
// needs (the page-fault vector kernel/mem/vmm wires a handler for, the
// timer tick kernel/sched's scheduler rides on). The gate trampolines
// themselves are architecture assembly with no portable Go body, same as
// kernel/cpu's SwitchTask and friends.
package irq

import "github.com/roscopeco/anos/kernel/mem/vmm"

// ExceptionNum identifies one of the CPU's fixed exception vectors.
type ExceptionNum uint8

const (
	// DoubleFault fires when an exception is unhandled, or when one
	// occurs while the CPU is already trying to call a handler.
	DoubleFault = ExceptionNum(8)

	// GPFException is a general protection fault.
	GPFException = ExceptionNum(13)

	// PageFaultException fires when a page-table walk finds a
	// not-present entry, or a privilege/RW check fails.
	PageFaultException = ExceptionNum(14)
)

// ExceptionHandler handles an exception that pushes no error code.
// Changes to Frame/Regs are propagated back to the faulting context if the
// handler returns.
type ExceptionHandler func(*Frame, *Regs)

// ExceptionHandlerWithCode handles an exception that pushes an error code,
// page faults among them.
type ExceptionHandlerWithCode func(code uint64, frame *Frame, regs *Regs)

// HandleException registers handler for exceptionNum.
func HandleException(exceptionNum ExceptionNum, handler ExceptionHandler)

// HandleExceptionWithCode registers handler for exceptionNum.
func HandleExceptionWithCode(exceptionNum ExceptionNum, handler ExceptionHandlerWithCode)

// Init wires up the exception handlers the kernel core itself depends on.
// Currently that's just the page-fault vector: vmm.Init calls
// installFaultHandlers expecting it to already have been hooked up, so
// Init must run before vmm.Init.
func Init() {
	vmm.SetFaultHandlerInstaller(installPageFaultHandler)
}

func installPageFaultHandler(handler func(uint64)) {
	HandleExceptionWithCode(PageFaultException, func(code uint64, _ *Frame, _ *Regs) {
		handler(code)
	})
}
