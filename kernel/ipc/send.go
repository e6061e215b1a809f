package ipc

import (
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sched"
)

// Send queues a message on the channel named by channelCookie, wakes one
// blocked receiver if any is waiting, and blocks self until a reply
// arrives. Returns 0 if the channel doesn't exist, the payload is larger
// than one page, the pool is exhausted, or the channel is destroyed while
// self is waiting; otherwise returns the result Reply delivered.
//
// self must be the task currently Running on c; the caller holds no locks
// on entry.
func Send(c scheduler, self *sched.Task, channelCookie, tag uint64, bufPhys mem.Frame, bufSize uint32) uint64 {
	if bufSize > uint32(mem.PageSize) {
		return 0
	}

	ch := lookupChannel(channelCookie)
	if ch == nil {
		return 0
	}

	msg := newMessage(tag, bufPhys, bufSize, self)
	if msg == nil {
		return 0
	}

	ch.enqueueMessage(msg)

	if receiver := ch.popReceiver(); receiver != nil {
		flags := c.LockThisCPU()
		c.Unblock(receiver)
		c.UnlockThisCPU(flags)
	}

	flags := c.LockThisCPU()
	sched.Block(self)
	c.Schedule()
	c.UnlockThisCPU(flags)

	reply := msg.Reply
	handled := msg.Handled
	freeMessage(msg)

	if !handled {
		return 0
	}
	return reply
}
