package irq

import "github.com/roscopeco/anos/kernel/mem/vmm"

// ExceptionNum is one of the scause exception codes (interrupt bit clear)
// the single trap vector can demultiplex to.
type ExceptionNum uint8

const (
	// InstructionPageFault, LoadPageFault and StorePageFault are the
	// three scause codes a stage-2/stage-1 page-table miss can raise.
	InstructionPageFault = ExceptionNum(12)
	LoadPageFault        = ExceptionNum(13)
	StorePageFault       = ExceptionNum(15)
)

// ExceptionHandler handles a trap that carries no separate error code;
// scause/stval are already in Frame.
type ExceptionHandler func(*Frame, *Regs)

// ExceptionHandlerWithCode handles a trap, passing scause explicitly so
// callers shared with the amd64 build (which does carry a separate error
// code) can use one signature.
type ExceptionHandlerWithCode func(code uint64, frame *Frame, regs *Regs)

// HandleException registers handler for the given scause code.
func HandleException(exceptionNum ExceptionNum, handler ExceptionHandler)

// HandleExceptionWithCode registers handler for the given scause code.
func HandleExceptionWithCode(exceptionNum ExceptionNum, handler ExceptionHandlerWithCode)

// Init wires up the trap handlers the kernel core itself depends on: every
// scause a page-table miss can raise, all routed to the same vmm callback.
func Init() {
	vmm.SetFaultHandlerInstaller(installPageFaultHandler)
}

func installPageFaultHandler(handler func(uint64)) {
	relay := func(code uint64, _ *Frame, _ *Regs) { handler(code) }
	HandleExceptionWithCode(InstructionPageFault, relay)
	HandleExceptionWithCode(LoadPageFault, relay)
	HandleExceptionWithCode(StorePageFault, relay)
}
