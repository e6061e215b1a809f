package ipc

import (
	"unsafe"

	"github.com/roscopeco/anos/kernel/cookie"
	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sched"
)

// Message is one in-flight send: the sender owns it until a receiver
// dequeues it, the receiver references it while processing, and Reply
// completes and frees it. Also carved from a 64-byte slab object.
type Message struct {
	Cookie uint64
	Tag    uint64

	ArgBufPhys mem.Frame
	ArgBufSize uint32

	Waiter *sched.Task

	Reply   uint64
	Handled bool

	next *Message
}

func messageAt(addr uintptr) *Message {
	return (*Message)(unsafe.Pointer(addr))
}

// newMessage carves and initialises a Message for a fresh Send. Returns
// nil if the pool is exhausted.
func newMessage(tag uint64, bufPhys mem.Frame, bufSize uint32, waiter *sched.Task) *Message {
	addr, err := pool.AllocBlock()
	if err != nil {
		return nil
	}

	m := messageAt(addr)
	*m = Message{
		Cookie:     cookie.Generate(),
		Tag:        tag,
		ArgBufPhys: bufPhys,
		ArgBufSize: bufSize,
		Waiter:     waiter,
	}
	return m
}

func freeMessage(m *Message) {
	pool.Free(uintptr(unsafe.Pointer(m)))
}
