package ipc

import (
	"testing"
	"unsafe"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/sched"
	"github.com/roscopeco/anos/kernel/sync"
)

// fakePool is an in-memory blockSource: each AllocBlock carves a fresh,
// independently-allocated 64-byte buffer and hands back its address, same
// trick kernel/mem/slab's own tests use to avoid touching vmm/pmm. Each
// buf is its own backing array, so appending to blocks never moves (and
// so never invalidates) an address already handed out.
type fakePool struct {
	blocks [][]byte
}

func (p *fakePool) AllocBlock() (uintptr, *kernel.Error) {
	buf := make([]byte, 64)
	p.blocks = append(p.blocks, buf)
	return uintptr(unsafe.Pointer(&buf[0])), nil
}

func (p *fakePool) Free(uintptr) {}

func installFakePool(t *testing.T) {
	t.Helper()
	orig := pool
	pool = &fakePool{}
	t.Cleanup(func() { pool = orig })
}

// fakeCPU implements scheduler without ever touching cpu.SwitchTask:
// Schedule here only runs onSchedule and then returns, as if the blocked
// task had been switched back in immediately; it does not change the
// task's State. That is all Send/Recv/Reply need in order to exercise
// their own bookkeeping.
type fakeCPU struct {
	lock sync.Spinlock
	// onSchedule runs inside Schedule, standing in for whatever another
	// task does during the real switch this fake never performs (deliver
	// a message, reply, destroy the channel, ...).
	onSchedule func()
}

func (c *fakeCPU) LockThisCPU() sync.Flags   { return c.lock.AcquireIrq() }
func (c *fakeCPU) UnlockThisCPU(f sync.Flags) { c.lock.ReleaseIrq(f) }
func (c *fakeCPU) Unblock(t *sched.Task)      { t.State = sched.Ready }
func (c *fakeCPU) Schedule() {
	if c.onSchedule != nil {
		c.onSchedule()
	}
}

func newTestTask(id uint64) *sched.Task {
	return &sched.Task{ID: id, State: sched.Running}
}
