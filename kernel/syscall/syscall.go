// Package syscall implements the kernel-core system-call ABI: one vector
// (69 on amd64, ecall on riscv64), a syscall number plus five register
// arguments in, a single 64-bit result out. Dispatch lives here; the trap
// gate that lands on Dispatch is kernel/irq's concern.
package syscall

import (
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/pmm"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sched"
)

// Result is the single 64-bit value every syscall returns. Most calls
// return one of the four status sentinels below; a few (create_thread,
// create_process, testcall) return a real value on success instead.
type Result uint64

const (
	// OK indicates the call completed with nothing more specific to
	// report.
	OK Result = 0
	// Failure indicates the call could not complete despite well-formed
	// arguments (out of memory, address space setup failed).
	Failure Result = 1<<64 - 1
	// BadArgs indicates a malformed or out-of-range argument.
	BadArgs Result = 1<<64 - 2
	// BadNumber indicates a syscall number with no registered handler.
	BadNumber Result = 1<<64 - 3
)

// Args is the five-register argument vector plus the syscall number,
// matching the gate's calling convention (kernel/irq decodes the trap
// frame's register snapshot into this before calling Dispatch).
type Args struct {
	Num                          uint64
	Arg0, Arg1, Arg2, Arg3, Arg4 uint64
}

var physical *pmm.Allocator

// Init records the live physical-frame allocator so Memstats (syscall 4)
// has something to report on. Must be called once during boot, after the
// allocator has been built by pmm.New and InitFromMemMap.
func Init(p *pmm.Allocator) {
	physical = p
}

// Dispatch routes a decoded syscall to its handler. The switch mirrors
// the fixed seven-entry table; anything else is BadNumber.
func Dispatch(a Args) Result {
	switch a.Num {
	case 0:
		return testcall(a)
	case 1:
		return debugprint(a)
	case 2:
		return debugchar(a)
	case 3:
		return createThread(a)
	case 4:
		return memstats(a)
	case 5:
		return sleep(a)
	case 6:
		return createProcess(a)
	default:
		return BadNumber
	}
}

func testcall(a Args) Result {
	return Result(42)
}

// userPointerOK reports whether addr is a pointer a syscall may dereference:
// below the kernel half of the address space. A zero-extended 32-bit value
// (the high dword clear) is also accepted, matching the ABI's tolerance for
// callers that only ever pass 32-bit-clean pointers.
func userPointerOK(addr uintptr) bool {
	return addr < mem.KernelSpaceStart
}

func debugprint(a Args) Result {
	ptr := uintptr(a.Arg0)
	if !userPointerOK(ptr) {
		return BadArgs
	}
	kfmtPrintString(ptr)
	return OK
}

func debugchar(a Args) Result {
	kfmtPrintChar(byte(a.Arg0))
	return OK
}

// kernelStackTop allocates a single frame to serve as a fresh task's
// kernel stack and returns the top-of-stack address it's reachable at
// through the direct map. One page is enough for the bootstrap/debug
// tasks this syscall surface exists for; a real thread API would size it
// per class.
func kernelStackTop() (uintptr, Result) {
	if physical == nil {
		return 0, Failure
	}
	frame, err := physical.Alloc()
	if err != nil {
		return 0, Failure
	}
	return vmm.DirectMapAddress(frame) + uintptr(mem.PageSize), OK
}

func createThread(a Args) Result {
	c := sched.CurrentCPU()
	if c == nil {
		return Failure
	}

	entry := uintptr(a.Arg0)
	userSP := uintptr(a.Arg1)

	stackTop, res := kernelStackTop()
	if res != OK {
		return res
	}

	flags := c.LockThisCPU()
	owner := c.Current.Owner
	c.UnlockThisCPU(flags)

	t := sched.CreateUserTask(owner, userSP, stackTop, entry, sched.Normal, 127)

	target := sched.FindTargetCPU()
	if target == nil {
		target = c
	}
	sched.UnblockOn(target, t)

	return Result(t.ID)
}

func memstats(a Args) Result {
	ptr := uintptr(a.Arg0)
	if !userPointerOK(ptr) || physical == nil {
		return BadArgs
	}
	writeMemInfo(ptr, physical.Size(), physical.FreeBytes())
	return OK
}

func sleep(a Args) Result {
	c := sched.CurrentCPU()
	if c == nil {
		return Failure
	}

	flags := c.LockThisCPU()
	c.SleepTask(c.Current, a.Arg0/timerNanosPerTick)
	c.Schedule()
	c.UnlockThisCPU(flags)

	return OK
}

// timerNanosPerTick is the fixed nanoseconds-per-tick conversion sleep
// uses to turn its argument into scheduler ticks; no KernelTimer is
// consulted.
const timerNanosPerTick = 1_000_000

const maxProcessRegions = 16

func createProcess(a Args) Result {
	stackBase := uintptr(a.Arg0)
	stackSize := a.Arg1
	regionCount := a.Arg2

	if stackBase >= mem.KernelSpaceStart || stackBase+uintptr(stackSize) >= mem.KernelSpaceStart {
		return BadArgs
	}
	if regionCount > maxProcessRegions {
		return BadArgs
	}

	space, err := vmm.New()
	if err != nil {
		return Failure
	}

	stackTop, res := kernelStackTop()
	if res != OK {
		return res
	}

	p := sched.ProcessCreate(space)
	t := sched.CreateUserTask(p, stackBase+uintptr(stackSize), stackTop, uintptr(a.Arg4), sched.Normal, 127)

	target := sched.FindTargetCPU()
	if target == nil {
		return Failure
	}
	sched.UnblockOn(target, t)

	return Result(p.PID)
}
