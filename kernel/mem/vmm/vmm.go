package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
)

// Init builds the kernel's own direct-mapped address space from the
// bootloader-supplied memory map, installs the architecture's page-fault
// handler, activates the new address space and then reserves the shared
// zero page. After Init returns, the boot-time mapping the loader
// handed the kernel is no longer relied upon; everything goes through
// this package's own tables.
func Init(reclaimBootloaderRegions bool) *kernel.Error {
	info := bootinfo.Get()

	space, err := buildDirectMap(info, reclaimBootloaderRegions)
	if err != nil {
		return err
	}

	installFaultHandlers()

	space.Activate()

	return reserveZeroPage()
}
