package ipc

import "github.com/roscopeco/anos/kernel/sched"

// Reply completes the in-flight message named by messageCookie, storing
// result for the blocked sender to collect and waking it. self is the
// receiving task making the call, used only to flush any payload mapping
// left over from its last Recv. Returns false if messageCookie names no
// in-flight message (already replied to, or never existed).
func Reply(c scheduler, self *sched.Task, messageCookie, result uint64) bool {
	clearPendingUnmap(self)

	msg := removeInFlight(messageCookie)
	if msg == nil {
		return false
	}

	msg.Reply = result

	// msg.Waiter is already Blocked (Send put it there); no sched.Block
	// call needed here, just the wakeup.
	flags := c.LockThisCPU()
	c.Unblock(msg.Waiter)
	c.Schedule()
	c.UnlockThisCPU(flags)

	return true
}
