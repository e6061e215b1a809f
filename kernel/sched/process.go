package sched

import (
	"github.com/roscopeco/anos/kernel/cookie"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sync"
)

// Process is the owner of one or more Tasks and one address space. PID 1 is
// reserved for the bootstrap system process; process creation elsewhere in
// the kernel is expected to start allocating from PID 2.
type Process struct {
	PID   uint64
	Space *vmm.AddressSpace

	lock sync.Spinlock
	// caps holds the capability cookies this process has been granted;
	// membership is the only thing that matters; the cookie itself
	// already carries all the unforgeability this map needs.
	caps map[uint64]struct{}
	// channelsOwned records the cookies of channels this process created,
	// so process teardown can destroy them without a channel registry
	// walk.
	channelsOwned []uint64
}

var nextPID uint64 = 1

// ProcessCreate assigns the next PID and returns a Process with an empty
// capability set and no threads. PID 1 is handed out exactly once, to the
// bootstrap system process; every later call returns PID 2, 3, ...
func ProcessCreate(space *vmm.AddressSpace) *Process {
	pid := nextPID
	nextPID++
	return &Process{
		PID:   pid,
		Space: space,
		caps:  make(map[uint64]struct{}),
	}
}

// GrantCap mints a fresh capability cookie, records it as held by p, and
// returns it.
func (p *Process) GrantCap() uint64 {
	c := cookie.Generate()
	p.lock.Acquire()
	p.caps[c] = struct{}{}
	p.lock.Release()
	return c
}

// HasCap reports whether p currently holds the capability named by c.
func (p *Process) HasCap(c uint64) bool {
	p.lock.Acquire()
	_, ok := p.caps[c]
	p.lock.Release()
	return ok
}

// RevokeCap removes a capability from p's set; revoking a cookie p does
// not hold is a no-op.
func (p *Process) RevokeCap(c uint64) {
	p.lock.Acquire()
	delete(p.caps, c)
	p.lock.Release()
}

// AddOwnedChannel records that p created the channel identified by cookie
// c, so it can be torn down when p is destroyed.
func (p *Process) AddOwnedChannel(c uint64) {
	p.lock.Acquire()
	p.channelsOwned = append(p.channelsOwned, c)
	p.lock.Release()
}

// OwnedChannels returns the cookies of every channel p has created and not
// yet released.
func (p *Process) OwnedChannels() []uint64 {
	p.lock.Acquire()
	defer p.lock.Release()
	out := make([]uint64, len(p.channelsOwned))
	copy(out, p.channelsOwned)
	return out
}
