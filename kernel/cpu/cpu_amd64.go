package cpu

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table.
func ActivePDT() uintptr

// ReadCR2 returns the contents of the CR2 register, set by the CPU to the
// faulting address on a page fault.
func ReadCR2() uintptr

// ReadTSC returns the current value of the time-stamp counter. Used as the
// monotonic time source mixed into channel cookie generation.
func ReadTSC() uint64

// ReadEntropy returns a hardware-entropy sample (RDSEED, falling back to
// RDRAND) used as one of the inputs to channel cookie generation.
func ReadEntropy() uint64

// LocalAPICID returns the local APIC id of the executing core.
func LocalAPICID() uint32

// SendIPI raises an inter-processor interrupt with the given vector on the
// core identified by its local APIC id.
func SendIPI(lapicID uint32, vector uint8)

// SwitchTask saves the stack pointer of the currently executing task into
// *savedSP, then switches onto the stack pointed to by nextSP. It returns
// when, at some later time, another SwitchTask call restores *savedSP as
// nextSP. The very first switch onto a freshly seeded stack instead lands
// on whichever trampoline (KernelThreadTrampoline or UserThreadTrampoline)
// address was planted as its return address; see kernel/sched's stack
// seeding.
func SwitchTask(savedSP *uintptr, nextSP uintptr)

// KernelThreadTrampoline is the landing point for a kernel task's first
// switch-in. It restores the interrupt flag saved at schedule time, then
// jumps to the entry point and argument seeded into rdi/rsi by
// kernel/sched's stack builder.
func KernelThreadTrampoline()

// UserThreadTrampoline is the landing point for a user task's first
// switch-in. It restores the interrupt flag saved at schedule time, then
// builds an iretq frame from the user entry point and user stack pointer
// seeded into rdi/rsi and drops to ring 3.
func UserThreadTrampoline()
