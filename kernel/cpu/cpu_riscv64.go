package cpu

// EnableInterrupts sets sstatus.SIE, enabling interrupt handling.
func EnableInterrupts()

// DisableInterrupts clears sstatus.SIE, disabling interrupt handling.
func DisableInterrupts()

// Halt issues wfi in a loop, parking the hart until the next interrupt.
func Halt()

// FlushTLBEntry issues sfence.vma for a single virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT writes the physical address of the given root page table (shifted
// and tagged per the Sv39/Sv48 satp encoding) and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active root page
// table, decoded from satp.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded in stval for the most recent
// page fault trap. Named to match the amd64 sibling; there is no CR2 on
// RISC-V, stval plays the equivalent role.
func ReadCR2() uintptr

// ReadTSC returns the rdtime CSR, RISC-V's monotonic cycle counter.
func ReadTSC() uint64

// ReadEntropy returns a hardware-entropy sample. Platforms without a seed
// CSR fall back to mixing rdtime and the hart id; see the assembly stub.
func ReadEntropy() uint64

// LocalAPICID returns the hart id of the executing core.
func LocalAPICID() uint32

// SendIPI raises an inter-processor interrupt (via SBI IPI or the CLINT
// msip register) targeting the given hart id. The vector argument is
// retained for parity with the amd64 signature; RISC-V IPIs carry no
// vector, so handlers demultiplex via a shared software-interrupt cause.
func SendIPI(hartID uint32, vector uint8)

// SwitchTask saves the stack pointer of the currently executing task into
// *savedSP, then switches onto the stack pointed to by nextSP, mirroring
// the amd64 primitive of the same name. The first switch onto a freshly
// seeded stack lands on the trampoline planted as its return address by
// kernel/sched's stack builder.
func SwitchTask(savedSP *uintptr, nextSP uintptr)

// KernelThreadTrampoline is the landing point for a kernel task's first
// switch-in: restores sstatus.SIE as saved at schedule time, then jumps to
// the entry point and argument seeded into a0/a1.
func KernelThreadTrampoline()

// UserThreadTrampoline is the landing point for a user task's first
// switch-in: restores sstatus.SIE, then builds the sepc/sstatus/sscratch
// state from the user entry point and user stack pointer seeded into
// a0/a1 and issues sret.
func UserThreadTrampoline()
