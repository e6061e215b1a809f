// Package kmain assembles every subsystem the kernel core depends on into
// one boot sequence: interrupt setup, the kernel's own address space,
// physical memory, SMP registration, IPC, the syscall ABI and the
// per-core scheduler, in that order.
package kmain

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/cpu"
	_ "github.com/roscopeco/anos/kernel/goruntime"
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/ipc"
	"github.com/roscopeco/anos/kernel/irq"
	"github.com/roscopeco/anos/kernel/kfmt"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/fba"
	"github.com/roscopeco/anos/kernel/mem/pmm"
	"github.com/roscopeco/anos/kernel/mem/slab"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sched"
	"github.com/roscopeco/anos/kernel/smp"
	"github.com/roscopeco/anos/kernel/syscall"
)

// runStackCapacity bounds how many disjoint free runs pmm's allocator can
// track. At 16 bytes per entry that's exactly one page, which is all the
// backing buffer the bootstrap allocator needs to hand over before real
// physical memory management takes over.
const runStackCapacity = uint64(mem.PageSize) / 16

// ipcArenaBase and ipcArenaBlocks describe the virtual range the slab pool
// backing kernel/ipc's channels and messages is carved from: 128MiB, the
// smallest size fba.New accepts (one bitmap page's worth of blocks).
// Chosen well clear of goruntime's own heap range and vmm's temporary
// mapping windows.
const (
	ipcArenaBase   = uintptr(0xffff900000000000)
	ipcArenaBlocks = 32768
)

var errOutOfMemory = &kernel.Error{Module: "kmain", Message: "out of memory during early boot"}

// earlyFrame allocates a single frame via the bootstrap allocator, used
// for everything that needs physical memory before pmm's own allocator
// has taken over.
func earlyFrame() mem.Frame {
	frame, ok := pmm.EarlyAllocator.AllocFrame(0)
	if !ok {
		kfmt.Panic(errOutOfMemory)
	}
	return frame
}

// Kmain is the kernel's entry point, called once by the platform's own
// startup stub after the GDT/IDT scaffolding and a minimal g0 are in
// place. info describes what the bootloader found; Kmain never returns.
func Kmain(info *bootinfo.Info) {
	bootinfo.SetInfo(info)

	kfmt.Printf("anos kernel starting\n")

	// irq.Init must run first: it installs the #PF handler seam vmm.Init
	// wires up before building the kernel's own address space.
	irq.Init()

	if err := vmm.Init(true); err != nil {
		kfmt.Panic(err)
	}

	// Every frame the bootstrap allocator will ever hand out for this
	// boot is claimed up front, so managedBase below can exclude all of
	// them in one go: InitFromMemMap has no way to learn about a frame
	// EarlyAllocator gives out afterwards.
	runStackFrame := earlyFrame()
	idleStackFrame := earlyFrame()
	managedBase := uint64(idleStackFrame.Address()) + uint64(mem.PageSize)

	physical := pmm.New(vmm.DirectMapAddress(runStackFrame), int(runStackCapacity))
	physical.InitFromMemMap(info, managedBase, false)
	physical.Register()

	bootCPUID := cpu.LocalAPICID()
	smp.RegisterCPU(0, bootCPUID)
	smp.Init()

	ipcArena, err := fba.New(ipcArenaBase, ipcArenaBlocks)
	if err != nil {
		kfmt.Panic(err)
	}
	ipc.Init(slab.New(ipcArena))

	syscall.Init(physical)

	system := sched.ProcessCreate(vmm.Current())
	idleStackTop := vmm.DirectMapAddress(idleStackFrame) + uintptr(mem.PageSize)
	bootCPU := sched.NewCPU(0, bootCPUID, system, idleStackTop)
	sched.RegisterCPU(bootCPU)

	cpu.EnableInterrupts()

	for {
		cpu.Halt()
	}
}
