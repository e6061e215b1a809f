package sync

// archSaveFlagsAndDisableIrq saves RFLAGS (in particular the IF bit) and
// clears it via cli, returning the saved value so it can be restored later.
func archSaveFlagsAndDisableIrq() Flags

// archRestoreFlags restores RFLAGS (and therefore the interrupt-enable bit)
// to the value captured by archSaveFlagsAndDisableIrq.
func archRestoreFlags(flags Flags)
