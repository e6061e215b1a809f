package ipc

import (
	"unsafe"

	"github.com/roscopeco/anos/kernel/cookie"
	"github.com/roscopeco/anos/kernel/sched"
	"github.com/roscopeco/anos/kernel/sync"
)

// Channel is a cookie-addressed rendezvous point: a FIFO of queued
// messages and a FIFO of blocked receivers, each guarded by its own lock
// so a sender appending to the queue never contends with a receiver
// joining the wait list. Carved from a 64-byte slab object; every field
// above must fit comfortably inside that.
type Channel struct {
	Cookie uint64

	receiversLock sync.Spinlock
	queueLock     sync.Spinlock

	receivers, receiversTail *sched.Task
	queue, queueTail         *Message
}

func channelAt(addr uintptr) *Channel {
	return (*Channel)(unsafe.Pointer(addr))
}

// ChannelCreate carves a Channel from the slab pool, mints its cookie,
// publishes it in the cookie table, and records it against owner (so
// process teardown can find and destroy it) if owner is non-nil. Returns
// 0 if the pool is exhausted.
func ChannelCreate(owner *sched.Process) uint64 {
	if pool == nil {
		return 0
	}
	addr, err := pool.AllocBlock()
	if err != nil {
		return 0
	}

	ch := channelAt(addr)
	*ch = Channel{Cookie: cookie.Generate()}
	insertChannel(ch)

	if owner != nil {
		owner.AddOwnedChannel(ch.Cookie)
	}
	return ch.Cookie
}

// ChannelDestroy removes the channel from the cookie table and unblocks
// every sender and receiver currently waiting on it: senders see their
// message's Handled flag still false (Send returns 0), receivers see the
// channel gone on re-lookup (Recv returns 0). picker supplies the target
// CPU for each wakeup, matching the cross-CPU fan-out the original does
// via sched.FindTargetCPU so a destroy unblocking many waiters doesn't
// pile them all onto the destroying CPU's run queue.
func ChannelDestroy(channelCookie uint64, picker func() *sched.CPU) {
	ch := removeChannel(channelCookie)
	if ch == nil {
		return
	}

	ch.queueLock.Acquire()
	queued := ch.queue
	ch.queue, ch.queueTail = nil, nil
	ch.queueLock.Release()

	for m := queued; m != nil; {
		next := m.next
		if m.Waiter != nil {
			if target := picker(); target != nil {
				sched.UnblockOn(target, m.Waiter)
			}
		}
		m = next
	}

	ch.receiversLock.Acquire()
	waiting := ch.receivers
	ch.receivers, ch.receiversTail = nil, nil
	ch.receiversLock.Release()

	for t := waiting; t != nil; {
		next := t.Next
		t.Next = nil
		if target := picker(); target != nil {
			sched.UnblockOn(target, t)
		}
		t = next
	}

	pool.Free(uintptr(unsafe.Pointer(ch)))
}

// enqueueMessage appends m to the channel's message queue.
func (ch *Channel) enqueueMessage(m *Message) {
	ch.queueLock.Acquire()
	m.next = nil
	if ch.queue == nil {
		ch.queue, ch.queueTail = m, m
	} else {
		ch.queueTail.next = m
		ch.queueTail = m
	}
	ch.queueLock.Release()
}

// dequeueMessage pops the channel's oldest queued message, or nil.
func (ch *Channel) dequeueMessage() *Message {
	ch.queueLock.Acquire()
	m := ch.queue
	if m != nil {
		ch.queue = m.next
		if ch.queue == nil {
			ch.queueTail = nil
		}
		m.next = nil
	}
	ch.queueLock.Release()
	return m
}

// enqueueReceiver appends t to the channel's blocked-receiver list.
func (ch *Channel) enqueueReceiver(t *sched.Task) {
	ch.receiversLock.Acquire()
	t.Next = nil
	if ch.receivers == nil {
		ch.receivers, ch.receiversTail = t, t
	} else {
		ch.receiversTail.Next = t
		ch.receiversTail = t
	}
	ch.receiversLock.Release()
}

// popReceiver removes and returns the oldest blocked receiver, or nil.
func (ch *Channel) popReceiver() *sched.Task {
	ch.receiversLock.Acquire()
	t := ch.receivers
	if t != nil {
		ch.receivers = t.Next
		if ch.receivers == nil {
			ch.receiversTail = nil
		}
		t.Next = nil
	}
	ch.receiversLock.Release()
	return t
}
