// Package smp tracks which cores are online and broadcasts the
// inter-processor interrupts the rest of the kernel core needs: TLB
// shootdown and the panic-time halt. Bringing a core up in the first place (the realmode
// INIT-SIPI-SIPI trampoline and ACPI MADT walk) is a boot-time driver
// concern outside this module's boundary; by the time anything here runs,
// every core has already registered itself.
package smp

import (
	"github.com/roscopeco/anos/kernel/cpu"
	"github.com/roscopeco/anos/kernel/kfmt"
	"github.com/roscopeco/anos/kernel/mem/vmm"
)

// MaxCPUCount bounds the per-CPU state table, matching the fixed-size
// registry the kernel core boots with.
const MaxCPUCount = 256

// ShootdownVector is the IPI vector peer cores are interrupted on to
// invalidate a stale TLB entry.
const ShootdownVector = 0xFD

// HaltVector is the IPI vector a panicking core uses to freeze every other
// online core.
const HaltVector = 0xFE

var (
	lapicIDs [MaxCPUCount]uint32
	online   [MaxCPUCount]bool
	count    uint8
)

// RegisterCPU records cpu_num as online with the given local APIC id.
// Called once per core during its own bring-up, before that core ever
// issues or receives a shootdown.
func RegisterCPU(cpuNum uint8, lapicID uint32) {
	lapicIDs[cpuNum] = lapicID
	online[cpuNum] = true
	count++
}

// Count returns how many cores have called RegisterCPU.
func Count() uint8 {
	return count
}

// Init wires BroadcastInvalidate into vmm's shootdown seam and
// BroadcastHalt into kfmt's panic halt seam. Called once during early
// boot, after at least the bootstrap core has registered itself.
func Init() {
	vmm.SetBroadcastInvalidate(BroadcastInvalidate)
	kfmt.SetHaltFn(BroadcastHalt)
}

// BroadcastHalt IPIs every online core other than the caller's own with
// HaltVector, then halts the caller. Installed as kfmt's panic halt
// function once SMP bring-up is known, so a fatal error on one core
// freezes all of them rather than leaving the others running.
func BroadcastHalt() {
	self := cpu.LocalAPICID()

	for i := 0; i < MaxCPUCount; i++ {
		if !online[i] || lapicIDs[i] == self {
			continue
		}
		cpu.SendIPI(lapicIDs[i], HaltVector)
	}

	cpu.Halt()
}

// BroadcastInvalidate IPIs every online core other than the caller's own
// with ShootdownVector. It does not wait for acknowledgement: ackCounter
// is incremented by whichever peer's IPI handler eventually runs (that
// handler lives outside this module, alongside the rest of the interrupt
// dispatch the kernel core does not own), and vmm's Shootdown.AckCount is
// there for a caller that wants to poll it.
func BroadcastInvalidate(virtAddr uintptr, ackCounter *uint64) {
	self := cpu.LocalAPICID()

	for i := 0; i < MaxCPUCount; i++ {
		if !online[i] || lapicIDs[i] == self {
			continue
		}
		cpu.SendIPI(lapicIDs[i], ShootdownVector)
	}
}
