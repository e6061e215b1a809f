// Package bootinfo describes the information handed to the kernel by a
// Limine-protocol bootloader: the memory map, the higher-half direct map
// offset, the RSDP pointer and the framebuffer descriptor. Early boot code
// populates a single Info value via SetInfo; every later init stage
// (notably kernel/mem/pmm and kernel/mem/vmm) reads it back via Get.
package bootinfo

// MemMapEntryType classifies a MemMapEntry the way the bootloader does.
type MemMapEntryType uint64

const (
	// Usable marks memory free for the kernel to claim.
	Usable MemMapEntryType = iota

	// Reserved marks memory the kernel must never touch.
	Reserved

	// AcpiReclaimable marks memory holding ACPI tables that can be
	// reclaimed once they have been parsed.
	AcpiReclaimable

	// AcpiNvs marks memory that must be preserved across sleep states.
	AcpiNvs

	// BadMemory marks memory the platform has flagged as faulty.
	BadMemory

	// BootloaderReclaimable marks memory used by the bootloader itself
	// that becomes available once the kernel no longer needs it (e.g.
	// the bootloader's own page tables and the MemMap/Info structures).
	BootloaderReclaimable

	// ExecutableAndModules marks the kernel image and any modules loaded
	// alongside it.
	ExecutableAndModules

	// Framebuffer marks memory backing the boot framebuffer.
	Framebuffer
)

var memMapEntryTypeNames = [...]string{
	Usable:                 "usable",
	Reserved:               "reserved",
	AcpiReclaimable:        "acpi reclaimable",
	AcpiNvs:                "acpi nvs",
	BadMemory:              "bad memory",
	BootloaderReclaimable:  "bootloader reclaimable",
	ExecutableAndModules:   "executable and modules",
	Framebuffer:            "framebuffer",
}

// String implements fmt.Stringer.
func (t MemMapEntryType) String() string {
	if int(t) < len(memMapEntryTypeNames) {
		return memMapEntryTypeNames[t]
	}
	return "unknown"
}

// MemMapEntry describes one physical memory region reported by the
// bootloader.
type MemMapEntry struct {
	Base   uint64
	Length uint64
	Type   MemMapEntryType
}

// FramebufferInfo describes the boot framebuffer, if one was set up by the
// bootloader. It is carried as an opaque descriptor only: pixel pushing is
// out of scope here, this exists so a later console component has somewhere
// to start from.
type FramebufferInfo struct {
	Address     uintptr
	Width       uint64
	Height      uint64
	Pitch       uint64
	Bpp         uint16

	RedMaskSize, RedMaskShift     uint8
	GreenMaskSize, GreenMaskShift uint8
	BlueMaskSize, BlueMaskShift   uint8
}

// Info aggregates everything the kernel's init sequence needs from the
// bootloader before it can bring up its own memory management.
type Info struct {
	// MemMap is the bootloader-reported physical memory map, in no
	// particular order.
	MemMap []MemMapEntry

	// HHDMOffset is the virtual address at which all physical memory is
	// mapped 1:1 (the "higher-half direct map"). PMM/VMM bootstrap uses
	// this to turn a physical frame into a usable virtual address before
	// the kernel's own page tables are live.
	HHDMOffset uintptr

	// RSDP is the physical address of the ACPI root system description
	// pointer, or 0 if the bootloader did not report one. The kernel
	// treats this as opaque; ACPI table parsing is not implemented here.
	RSDP uintptr

	// Framebuffer is nil if the bootloader did not set one up.
	Framebuffer *FramebufferInfo
}

var current *Info

// SetInfo records the boot information gathered during early boot. It must
// be called exactly once, before any other package reads Get.
func SetInfo(info *Info) {
	current = info
}

// Get returns the boot information recorded by SetInfo, or nil if it has
// not been called yet.
func Get() *Info {
	return current
}

// VisitUsable invokes visitor once for every MemMap entry of type Usable,
// in map order, stopping early if visitor returns false. This is the entry
// point the early boot allocator walks before the kernel has a real page
// allocator of its own.
func VisitUsable(info *Info, visitor func(entry *MemMapEntry) bool) {
	for i := range info.MemMap {
		if info.MemMap[i].Type != Usable {
			continue
		}
		if !visitor(&info.MemMap[i]) {
			return
		}
	}
}

// VisitReclaimable invokes visitor once for every MemMap entry the real
// page allocator can claim: Usable and BootloaderReclaimable always, and
// ExecutableAndModules only when reclaimExecMods is set (some
// architectures can't safely prove that region doesn't still hold tables
// the platform depends on). Stops early if visitor returns false.
func VisitReclaimable(info *Info, reclaimExecMods bool, visitor func(entry *MemMapEntry) bool) {
	for i := range info.MemMap {
		switch info.MemMap[i].Type {
		case Usable, BootloaderReclaimable:
		case ExecutableAndModules:
			if !reclaimExecMods {
				continue
			}
		default:
			continue
		}
		if !visitor(&info.MemMap[i]) {
			return
		}
	}
}
