package vmm

import "github.com/roscopeco/anos/kernel/cpu"

// readCR2Fn is mocked by tests; cpu.ReadCR2 returns the faulting address
// the CPU latches into CR2 on a #PF.
var readCR2Fn = cpu.ReadCR2

// pageFaultWriteBit is bit 1 of the #PF error code: 0 means the fault was a
// read, 1 a write. pageFaultUserBit is bit 2: set for a user-mode access.
const pageFaultWriteBit = 1 << 1
const pageFaultUserBit = 1 << 2

// handleArchPageFault is called from the vector 14 (#PF) trap stub, once
// kernel/irq exists to wire it in (see installFaultHandlers). errorCode is
// the value pushed by the CPU onto the exception frame.
func handleArchPageFault(errorCode uint64) {
	faultAddr := readCR2Fn()
	isWrite := errorCode&pageFaultWriteBit != 0
	userMode := errorCode&pageFaultUserBit != 0

	if err := handlePageFault(Current(), faultAddr, isWrite); err != nil {
		reportUnrecoverableFault(faultAddr, isWrite, userMode)
	}
}

// installFaultHandlers wires handleArchPageFault into the IDT's #PF
// vector. The actual interrupt-gate registration lives in kernel/irq;
// installFaultHandlerFn is the seam that package wires up, and is a
// deliberate no-op until then so this package builds and tests standalone.
var installFaultHandlerFn = func(func(uint64)) {}

func installFaultHandlers() {
	installFaultHandlerFn(handleArchPageFault)
}

// SetFaultHandlerInstaller wires fn as the installer Init calls to register
// the #PF handler with the IDT. kernel/irq calls this during its own init,
// before vmm.Init runs.
func SetFaultHandlerInstaller(fn func(func(uint64))) {
	installFaultHandlerFn = fn
}
