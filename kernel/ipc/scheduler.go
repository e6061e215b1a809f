package ipc

import (
	"github.com/roscopeco/anos/kernel/sched"
	"github.com/roscopeco/anos/kernel/sync"
)

// scheduler is the slice of *sched.CPU's behaviour Send/Recv/Reply need to
// block the caller and resume whichever task comes next. Defined here,
// rather than depending on the concrete type directly, purely so tests
// can substitute a fake that never reaches cpu.SwitchTask: that stub has
// no portable implementation to execute off real hardware, the same
// reason kernel/sched itself mocks it out for its own tests.
type scheduler interface {
	LockThisCPU() sync.Flags
	UnlockThisCPU(sync.Flags)
	Unblock(*sched.Task)
	Schedule()
}
