package sync

// archSaveFlagsAndDisableIrq saves sstatus (in particular the SIE bit) and
// clears it, returning the saved value so it can be restored later.
func archSaveFlagsAndDisableIrq() Flags

// archRestoreFlags restores sstatus (and therefore the interrupt-enable bit)
// to the value captured by archSaveFlagsAndDisableIrq.
func archRestoreFlags(flags Flags)
