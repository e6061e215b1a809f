package vmm

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/mem"
)

// megaPageSize is the size of a single entry one level above the leaf -
// 2MiB on both amd64 and riscv64, since both use 9-bit levels under a
// 4KiB base page.
const megaPageSize = 1 << 21

var errDirectMapOverflow = &kernel.Error{Module: "vmm", Message: "physical region too large to direct map"}

// ensureTable returns the table frame parentTable[index] points at,
// allocating and clearing a fresh one (through the direct map, which is
// always reachable since every frame PMM hands out is ordinary RAM the
// bootloader already mapped into the still-active boot HHDM) if the entry
// isn't present yet.
func ensureTable(parentTable mem.Frame, index uintptr) (mem.Frame, *kernel.Error) {
	entries := tableEntries(parentTable)
	pte := &entries[index]

	if pte.HasFlags(FlagPresent) {
		return pte.Frame(), nil
	}

	frame, err := mem.AllocFrame()
	if err != nil {
		return mem.InvalidFrame, err
	}

	kernel.Memset(frameBase(frame), 0, uintptr(mem.PageSize))

	*pte = 0
	pte.SetFrame(frame)
	pte.SetPointerFlags()

	return frame, nil
}

// mapDirectRegion installs a direct mapping for [base, base+length) into
// top, at virtual address base+hhdmBase, using the largest naturally
// aligned page available at each step: a topLevelPageSize page first (1GiB
// gigapage on amd64, 512GiB terapage on riscv64's Sv48), falling back to
// a 2MiB megapage and finally to 4KiB pages for whatever doesn't divide
// evenly. This mirrors original_source's vmmapper_init.c strategy of
// using the largest page that fits rather than always walking to the
// leaf level.
func mapDirectRegion(top mem.Frame, hhdmBase, base, length uintptr, flags PageTableEntryFlag) *kernel.Error {
	end := base + length

	// hugeLevel is the table level whose entries span topLevelPageSize:
	// level 0 on riscv64's Sv48, level 1 (the PDPT) on amd64.
	hugeLevel := uint8(0)
	for uintptr(1)<<pageLevelShifts[hugeLevel] != topLevelPageSize {
		hugeLevel++
	}

	for addr := base; addr < end; {
		remaining := end - addr

		switch {
		case addr%topLevelPageSize == 0 && remaining >= topLevelPageSize:
			if err := mapLeaf(top, hhdmBase, addr, hugeLevel, flags|FlagHugePage); err != nil {
				return err
			}
			addr += topLevelPageSize

		case addr%megaPageSize == 0 && remaining >= megaPageSize:
			if err := mapLeaf(top, hhdmBase, addr, pageLevels-2, flags|FlagHugePage); err != nil {
				return err
			}
			addr += megaPageSize

		default:
			if err := mapLeaf(top, hhdmBase, addr, pageLevels-1, flags); err != nil {
				return err
			}
			addr += uintptr(mem.PageSize)
		}
	}

	return nil
}

// mapLeaf walks from the top table down to targetLevel, creating
// intermediate tables as needed, and installs a leaf entry for the
// physical address base pointing at itself (identity-plus-offset: this
// is the direct map, so the leaf's frame number is just base's).
func mapLeaf(top mem.Frame, hhdmBase, base uintptr, targetLevel uint8, flags PageTableEntryFlag) *kernel.Error {
	vaddr := hhdmBase + base
	table := top

	for level := uint8(0); level < targetLevel; level++ {
		idx := levelIndex(level, vaddr)
		next, err := ensureTable(table, idx)
		if err != nil {
			return err
		}
		table = next
	}

	idx := levelIndex(targetLevel, vaddr)
	entries := tableEntries(table)
	pte := &entries[idx]

	*pte = 0
	pte.SetFrame(mem.FrameFromAddress(base))
	pte.SetFlags(flags | FlagPresent)

	return nil
}

// buildDirectMap allocates a fresh top-level table and maps every usable
// and reserved region named in info's memory map into it at
// info.HHDMOffset, reclaiming bootloader-owned regions per
// reclaimExecMods the same way the PMM's own InitFromMemMap does. The
// returned AddressSpace is not activated: callers install whatever other
// mappings they need (kernel image, framebuffer) before calling Activate.
func buildDirectMap(info *bootinfo.Info, reclaimExecMods bool) (*AddressSpace, *kernel.Error) {
	top, err := mem.AllocFrame()
	if err != nil {
		return nil, err
	}
	kernel.Memset(frameBase(top), 0, uintptr(mem.PageSize))

	var mapErr *kernel.Error
	bootinfo.VisitReclaimable(info, reclaimExecMods, func(entry *bootinfo.MemMapEntry) bool {
		if entry.Base+entry.Length > 1<<48 {
			mapErr = errDirectMapOverflow
			return false
		}

		flags := FlagPresent | FlagRW | FlagGlobal
		if mapErr = mapDirectRegion(top, info.HHDMOffset, uintptr(entry.Base), uintptr(entry.Length), flags); mapErr != nil {
			return false
		}
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}

	return &AddressSpace{top: top}, nil
}
