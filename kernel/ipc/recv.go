package ipc

import (
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/mem/vmm"
	"github.com/roscopeco/anos/kernel/sched"
)

// recvFlags is what a mapped receive buffer is mapped with: present,
// user-accessible, writable. The payload is never copy-on-write; the
// sender's frame is handed over outright.
const recvFlags = vmm.FlagPresent | vmm.FlagUserAccessible | vmm.FlagRW

// clearPendingUnmap tears down the payload mapping self's previous Recv
// installed, if any. Called at the top of Recv and Reply, so a receiver's
// mapping stays in place until its next Recv or Reply rather than needing
// the sender's Reply to know about it. Send does not call it, and neither
// do syscalls outside this package, so the mapping survives those.
func clearPendingUnmap(self *sched.Task) {
	if self.PendingUnmapSpace == nil {
		return
	}
	vmm.Unmap(self.PendingUnmapSpace, self.PendingUnmapPage)
	self.PendingUnmapSpace = nil
}

// Recv waits for a message on the channel named by channelCookie. If
// hasBuffer, a non-empty payload is mapped into space at bufferPage; that
// mapping is left in place until self's next channel syscall. Returns the
// message cookie (for a later Reply), its tag and payload size, and
// ok=false if the channel does not exist (either up front or because it
// was destroyed while self was waiting).
func Recv(c scheduler, self *sched.Task, channelCookie uint64, space *vmm.AddressSpace, bufferPage mem.Page, hasBuffer bool) (msgCookie, tag uint64, size uint32, ok bool) {
	clearPendingUnmap(self)

	ch := lookupChannel(channelCookie)
	if ch == nil {
		return 0, 0, 0, false
	}

	if msg := ch.dequeueMessage(); msg != nil {
		return deliver(self, msg, space, bufferPage, hasBuffer)
	}

	ch.enqueueReceiver(self)

	flags := c.LockThisCPU()
	sched.Block(self)
	c.Schedule()
	c.UnlockThisCPU(flags)

	// self was either woken by a Send appending a message, or by
	// ChannelDestroy clearing the receiver list out from under it; the
	// channel's continued presence in the cookie table is what tells
	// the two apart.
	ch = lookupChannel(channelCookie)
	if ch == nil {
		return 0, 0, 0, false
	}

	msg := ch.dequeueMessage()
	if msg == nil {
		return 0, 0, 0, false
	}
	return deliver(self, msg, space, bufferPage, hasBuffer)
}

func deliver(self *sched.Task, msg *Message, space *vmm.AddressSpace, bufferPage mem.Page, hasBuffer bool) (msgCookie, tag uint64, size uint32, ok bool) {
	msg.Handled = true
	insertInFlight(msg)

	if hasBuffer && msg.ArgBufPhys.Valid() && msg.ArgBufSize > 0 {
		vmm.Map(space, bufferPage, msg.ArgBufPhys, recvFlags)
		self.PendingUnmapSpace = space
		self.PendingUnmapPage = bufferPage
	}

	return msg.Cookie, msg.Tag, msg.ArgBufSize, true
}
