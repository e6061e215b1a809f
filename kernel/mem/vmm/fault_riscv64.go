package vmm

import "github.com/roscopeco/anos/kernel/cpu"

// readCR2Fn is mocked by tests; on riscv64 there is no CR2, so
// cpu.ReadCR2 is named to match the amd64 sibling but actually returns
// the stval CSR latched by the trap.
var readCR2Fn = cpu.ReadCR2

// scause cause codes for load/store/instruction page faults.
const (
	causeInstructionPageFault = 12
	causeLoadPageFault        = 13
	causeStorePageFault       = 15
)

// handleArchPageFault is called from the trap handler once kernel/irq
// demultiplexes scause to a page-fault cause and hands it off here.
func handleArchPageFault(scause uint64) {
	faultAddr := readCR2Fn()
	isWrite := scause == causeStorePageFault

	if err := handlePageFault(Current(), faultAddr, isWrite); err != nil {
		reportUnrecoverableFault(faultAddr, isWrite, false)
	}
}

// installFaultHandlerFn is the seam kernel/irq wires up once it exists;
// left a no-op so this package builds and tests standalone.
var installFaultHandlerFn = func(func(uint64)) {}

func installFaultHandlers() {
	installFaultHandlerFn(handleArchPageFault)
}

// SetFaultHandlerInstaller wires fn as the installer Init calls to register
// the page-fault cause with the trap vector. kernel/irq calls this during
// its own init, before vmm.Init runs.
func SetFaultHandlerInstaller(fn func(func(uint64))) {
	installFaultHandlerFn = fn
}
